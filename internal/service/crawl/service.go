package crawl

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/LouYuanbo1/advisorycrawl/internal/domain/entity"
	"github.com/LouYuanbo1/advisorycrawl/internal/domain/model"
	"github.com/LouYuanbo1/advisorycrawl/internal/infra/crawler/chrome"
	"github.com/LouYuanbo1/advisorycrawl/internal/service/interact"
	"github.com/LouYuanbo1/advisorycrawl/param"
	"github.com/sirupsen/logrus"
)

type Extractor interface {
	Extract(markup string) (*entity.ExtractedRecord, error)
}

type Translator interface {
	Translate(ctx context.Context, text string) string
}

type DuplicateChecker interface {
	Exists(ctx context.Context, title string) (bool, error)
	Insert(ctx context.Context, doc *model.ReportDoc) error
}

type ClickRetrier interface {
	ClickWithRetry(ctx context.Context, selector string, maxAttempts int) error
}

type CrawlService interface {
	// Run 从第一页开始爬取直到 Done 或 Aborted,返回前释放浏览器会话
	Run(ctx context.Context) *Summary
}

type crawlService struct {
	crawler    chrome.ChromeCrawler
	retrier    ClickRetrier
	extractor  Extractor
	translator Translator
	checker    DuplicateChecker
	params     *param.Crawl
	log        *logrus.Entry
	now        func() time.Time
	sleep      func(ctx context.Context, d time.Duration) error
}

type Option func(*crawlService)

// WithClock 替换抓取时间来源
func WithClock(now func() time.Time) Option {
	return func(cs *crawlService) { cs.now = now }
}

// WithSleep 替换页面稳定等待
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(cs *crawlService) { cs.sleep = sleep }
}

func InitCrawlService(
	crawler chrome.ChromeCrawler,
	retrier ClickRetrier,
	extractor Extractor,
	translator Translator,
	checker DuplicateChecker,
	params *param.Crawl,
	log *logrus.Entry,
	opts ...Option,
) CrawlService {
	cs := &crawlService{
		crawler:    crawler,
		retrier:    retrier,
		extractor:  extractor,
		translator: translator,
		checker:    checker,
		params:     params,
		log:        log,
		now:        time.Now,
		sleep:      interact.Sleep,
	}
	for _, opt := range opts {
		opt(cs)
	}
	return cs
}

func (cs *crawlService) Run(ctx context.Context) *Summary {
	defer cs.crawler.Close()

	sum := &Summary{}
	cs.log.Infof("打开列表页: %s", cs.params.BaseURL)
	st := State{Kind: ListPage}
	if err := cs.crawler.NavigateTo(ctx, cs.params.BaseURL); err != nil {
		st = cs.abort(fmt.Errorf("%w: open %s: %w", ErrNavigation, cs.params.BaseURL, err))
	}

	for !st.Terminal() {
		if err := ctx.Err(); err != nil {
			st = cs.abort(err)
			break
		}
		switch st.Kind {
		case ListPage:
			st = cs.enterListPage(ctx, st.Cursor.PageIndex, sum)
		case DetailPage:
			res := cs.visitDetail(ctx, st.Cursor)
			sum.add(res)
			st = cs.nextItem(ctx, st)
		}
	}

	sum.Final = st
	cs.log.WithFields(logrus.Fields{
		"state":      st.String(),
		"pages":      sum.Pages,
		"stored":     sum.Stored,
		"duplicates": sum.Duplicates,
		"skipped":    sum.Skipped,
	}).Info("爬取结束")
	return sum
}

func (cs *crawlService) abort(err error) State {
	cs.log.Errorf("爬取中止: %v", err)
	return State{Kind: Aborted, Err: err}
}

// enterListPage 等待列表渲染完成并获取链接,任何失败都终止运行
func (cs *crawlService) enterListPage(ctx context.Context, page int, sum *Summary) State {
	sel := cs.params.Selectors
	cs.log.Infof("处理第 %d 页...", page+1)

	if err := cs.sleep(ctx, cs.params.PageSettle); err != nil {
		return cs.abort(err)
	}
	if err := cs.crawler.WaitUntilAbsent(ctx, sel.LoadingMask, cs.params.MaskTimeout); err != nil {
		return cs.abort(fmt.Errorf("%w: page %d loading mask: %w", ErrNavigation, page+1, err))
	}
	if err := cs.crawler.WaitUntilPresent(ctx, sel.ContentLink, cs.params.ListTimeout); err != nil {
		return cs.abort(fmt.Errorf("%w: page %d links: %w", ErrNavigation, page+1, err))
	}
	links, err := cs.crawler.FindAll(ctx, sel.ContentLink)
	if err != nil {
		return cs.abort(fmt.Errorf("%w: page %d links: %w", ErrNavigation, page+1, err))
	}
	if len(links) == 0 {
		return cs.abort(fmt.Errorf("%w: page %d has no links", ErrNavigation, page+1))
	}

	sum.Pages++
	cs.log.Infof("第 %d 页找到 %d 条内容链接", page+1, len(links))
	return State{
		Kind:      DetailPage,
		Cursor:    CrawlCursor{PageIndex: page, ItemIndex: 0},
		LinkCount: len(links),
	}
}

func (cs *crawlService) nextItem(ctx context.Context, st State) State {
	if st.Cursor.ItemIndex+1 < st.LinkCount {
		st.Cursor.ItemIndex++
		return st
	}
	return cs.advancePage(ctx, st.Cursor.PageIndex)
}

// advancePage 点击下一页;失败视为分页结束,不重试
func (cs *crawlService) advancePage(ctx context.Context, page int) State {
	sel := cs.params.Selectors
	if cs.params.MaxPages > 0 && page+1 >= cs.params.MaxPages {
		cs.log.Infof("已达到最大页数 %d", cs.params.MaxPages)
		return State{Kind: Done}
	}

	err := cs.crawler.WaitUntilAbsent(ctx, sel.LoadingMask, cs.params.MaskTimeout)
	if err == nil {
		err = cs.retrier.ClickWithRetry(ctx, sel.NextPage, cs.params.MaxClickAttempts)
	}
	if err == nil {
		err = cs.crawler.WaitUntilPresent(ctx, sel.ContentLink, cs.params.ListTimeout)
	}
	if err == nil {
		err = cs.sleep(ctx, cs.params.PageSettle)
	}
	if err != nil {
		if ctx.Err() != nil {
			return cs.abort(ctx.Err())
		}
		cs.log.Warnf("翻页失败,结束爬取: %v", err)
		return State{Kind: Done}
	}
	return State{Kind: ListPage, Cursor: CrawlCursor{PageIndex: page + 1}}
}

// visitDetail 打开第 i 条详情,抽取、翻译、去重写入后返回列表页。
// 任何错误只跳过当前条目。
func (cs *crawlService) visitDetail(ctx context.Context, cur CrawlCursor) ItemResult {
	sel := cs.params.Selectors
	log := cs.log.WithFields(logrus.Fields{"page": cur.PageIndex + 1, "item": cur.ItemIndex + 1})
	log.Info("处理内容")

	res := ItemResult{Cursor: cur, Outcome: OutcomeSkipped}
	opened := false
	fail := func(err error) ItemResult {
		res.Outcome = OutcomeSkipped
		res.Err = err
		log.Errorf("本文爬取中发生错误,跳过: %v", err)
		if opened {
			cs.returnToList(ctx, log)
		}
		return res
	}

	// 返回列表后旧链接已失效,每次都重新获取
	links, err := cs.crawler.FindAll(ctx, sel.ContentLink)
	if err != nil {
		return fail(err)
	}
	if cur.ItemIndex >= len(links) {
		return fail(fmt.Errorf("%w: %d of %d", errItemOutOfRange, cur.ItemIndex, len(links)))
	}
	if err := cs.crawler.Click(ctx, links[cur.ItemIndex]); err != nil {
		return fail(fmt.Errorf("open detail: %w", err))
	}
	opened = true

	if err := cs.crawler.WaitUntilPresent(ctx, sel.DetailPane, cs.params.DetailTimeout); err != nil {
		return fail(fmt.Errorf("detail pane: %w", err))
	}
	markup, err := cs.crawler.CurrentMarkup(ctx)
	if err != nil {
		return fail(err)
	}
	rec, err := cs.extractor.Extract(markup)
	if err != nil {
		return fail(err)
	}

	translated := entity.TranslatedRecord{
		Title:       cs.translator.Translate(ctx, rec.MainTitle),
		Subtitle:    cs.translator.Translate(ctx, rec.SubTitle),
		MainContent: cs.translator.Translate(ctx, rec.MainContent),
		SubContent:  cs.translator.Translate(ctx, rec.SubContent),
	}
	doc := rec.ToDocument(translated, cs.now())
	res.Title = doc.Title

	outcome, err := cs.persist(ctx, doc)
	if err != nil {
		return fail(err)
	}
	if outcome == OutcomeDuplicate {
		log.Infof("%s 已经存在,不再保存", doc.Title)
	} else {
		log.Infof("%s 保存完成", doc.Title)
	}

	opened = false
	if err := cs.retrier.ClickWithRetry(ctx, sel.BackButton, cs.params.MaxClickAttempts); err != nil {
		res.Outcome = outcome
		res.Err = fmt.Errorf("return to list: %w", err)
		log.Errorf("返回列表失败: %v", err)
		return res
	}
	res.Outcome = outcome
	return res
}

// persist 先查重再写入,两步之间没有事务保护
func (cs *crawlService) persist(ctx context.Context, doc *model.ReportDoc) (Outcome, error) {
	storeCtx, cancel := context.WithTimeout(ctx, cs.params.StoreTimeout)
	defer cancel()

	exists, err := cs.checker.Exists(storeCtx, doc.Title)
	if err != nil {
		return OutcomeSkipped, err
	}
	if exists {
		return OutcomeDuplicate, nil
	}
	if err := cs.checker.Insert(storeCtx, doc); err != nil {
		return OutcomeSkipped, err
	}
	return OutcomeStored, nil
}

// returnToList 条目失败时尽力回到列表页,让下一条从列表开始
func (cs *crawlService) returnToList(ctx context.Context, log *logrus.Entry) {
	if err := cs.retrier.ClickWithRetry(ctx, cs.params.Selectors.BackButton, cs.params.MaxClickAttempts); err != nil {
		if errors.Is(err, interact.ErrInteractionExhausted) {
			log.Warnf("无法返回列表页: %v", err)
			return
		}
		log.Warnf("返回列表页被中断: %v", err)
	}
}
