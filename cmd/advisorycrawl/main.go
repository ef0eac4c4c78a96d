package main

import (
	"context"
	_ "embed"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/LouYuanbo1/advisorycrawl/internal/config"
	"github.com/LouYuanbo1/advisorycrawl/internal/domain/model"
	"github.com/LouYuanbo1/advisorycrawl/internal/infra/crawler/chrome"
	"github.com/LouYuanbo1/advisorycrawl/internal/infra/persistence/es"
	"github.com/LouYuanbo1/advisorycrawl/internal/infra/translation"
	"github.com/LouYuanbo1/advisorycrawl/internal/service/crawl"
	"github.com/LouYuanbo1/advisorycrawl/internal/service/dedupe"
	"github.com/LouYuanbo1/advisorycrawl/internal/service/extract"
	"github.com/LouYuanbo1/advisorycrawl/internal/service/interact"
	"github.com/LouYuanbo1/advisorycrawl/internal/service/translate"
	"github.com/LouYuanbo1/advisorycrawl/param"
	"github.com/sirupsen/logrus"
)

//使用go:embed嵌入appconfig.json文件
//下方注释重要,不能删除
//存储的地址和账号密码不写在这里,通过环境变量 REPORT_STORE_CREDENTIALS 提供

//go:embed appconfig/appconfig.json
var appConfig []byte

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	log := logrus.NewEntry(logger)

	appcfg, err := config.ParseConfig(appConfig)
	if err != nil {
		log.Fatalf("解析配置失败: %v", err)
	}
	creds, err := config.LoadStoreCredentials()
	if err != nil {
		log.Fatalf("读取存储凭据失败: %v", err)
	}
	creds.Apply(appcfg)

	params := param.FromConfig(appcfg)
	if !params.IsValid() {
		log.Fatalf("爬取参数无效: %+v", params)
	}
	loc, err := time.LoadLocation(appcfg.Crawl.ReleaseDateTimezone)
	if err != nil {
		log.Fatalf("无效的时区 %q: %v", appcfg.Crawl.ReleaseDateTimezone, err)
	}

	// Ctrl+C 时取消 ctx,正在进行的等待会立即返回,浏览器仍会被关闭
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	//运行前确保es服务启动完成
	esClient, err := es.InitTypedEsClient[*model.ReportDoc](appcfg, log.WithField("component", "es"))
	if err != nil {
		log.Fatalf("初始化Elasticsearch客户端失败: %v", err)
	}
	if err := esClient.CreateIndexWithMapping(ctx); err != nil {
		log.Fatalf("创建索引失败: %v", err)
	}

	backend, err := translation.InitTranslator(ctx, appcfg)
	if err != nil {
		log.Fatalf("初始化翻译模型失败: %v", err)
	}
	translator := translate.NewTranslator(
		backend,
		appcfg.Translator.SourceLang,
		appcfg.Translator.DestLang,
		appcfg.Translator.ChunkSize,
		log.WithField("component", "translate"),
	)

	var crawler chrome.ChromeCrawler
	switch appcfg.Browser.Driver {
	case "rod":
		crawler, err = chrome.InitRodCrawler(appcfg)
		if err != nil {
			log.Fatalf("初始化rod浏览器失败: %v", err)
		}
	default:
		crawler = chrome.InitChromedpCrawler(ctx, appcfg)
	}
	defer crawler.Close()

	service := crawl.InitCrawlService(
		crawler,
		interact.NewRetrier(crawler, params.ClickTimeout, params.ClickBackoff, log.WithField("component", "interact")),
		extract.NewExtractor(params.Selectors, loc, log.WithField("component", "extract")),
		translator,
		dedupe.NewChecker(dedupe.NewEsStore(esClient)),
		params,
		log.WithField("component", "crawl"),
	)
	summary := service.Run(ctx)

	countCtx, cancel := context.WithTimeout(context.Background(), params.StoreTimeout)
	total, err := esClient.CountDocs(countCtx)
	cancel()
	if err != nil {
		log.Warnf("统计索引文档数失败: %v", err)
	} else {
		log.Infof("索引 %s 当前共有 %d 条记录", esClient.Index(), total)
	}

	if summary.Final.Kind == crawl.Aborted {
		crawler.Close()
		stop()
		os.Exit(1)
	}
}
