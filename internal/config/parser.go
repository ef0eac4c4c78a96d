package config

import (
	"encoding/json"
	"path/filepath"
)

func ParseConfig(byteConfig []byte) (*Config, error) {
	var cfg Config
	err := json.Unmarshal(byteConfig, &cfg)
	if err != nil {
		return nil, err
	}
	for _, dir := range []*string{&cfg.Chromedp.UserDataDir, &cfg.Rod.UserDataDir} {
		if *dir == "" {
			continue
		}
		absPath, err := filepath.Abs(*dir)
		if err != nil {
			return nil, err
		}
		*dir = absPath
	}
	applyDefaults(&cfg)
	return &cfg, nil
}

// applyDefaults 未配置的字段填入默认值
func applyDefaults(cfg *Config) {
	if cfg.Browser.Driver == "" {
		cfg.Browser.Driver = "chromedp"
	}
	if cfg.Elasticsearch.Index == "" {
		cfg.Elasticsearch.Index = "reports"
	}

	tr := &cfg.Translator
	if tr.SourceLang == "" {
		tr.SourceLang = "zh-cn"
	}
	if tr.DestLang == "" {
		tr.DestLang = "ko"
	}
	if tr.ChunkSize <= 0 {
		tr.ChunkSize = 500
	}
	if tr.RequestsPerSecond <= 0 {
		tr.RequestsPerSecond = 2
	}
	if tr.TimeoutSeconds <= 0 {
		tr.TimeoutSeconds = 60
	}

	c := &cfg.Crawl
	if c.BaseURL == "" {
		c.BaseURL = "https://www.cnnvd.org.cn/home/warn"
	}
	setIfZero(&c.MaxClickAttempts, 5)
	setIfZero(&c.ClickTimeout, 30)
	setIfZero(&c.ClickBackoff, 2)
	setIfZero(&c.MaskTimeout, 20)
	setIfZero(&c.ListTimeout, 30)
	setIfZero(&c.DetailTimeout, 30)
	setIfZero(&c.PageSettle, 3)
	setIfZero(&c.StoreTimeout, 20)
	if c.ReleaseDateTimezone == "" {
		c.ReleaseDateTimezone = "UTC"
	}

	def := DefaultSelectors()
	s := &cfg.Selectors
	setIfEmpty(&s.ContentLink, def.ContentLink)
	setIfEmpty(&s.LoadingMask, def.LoadingMask)
	setIfEmpty(&s.DetailPane, def.DetailPane)
	setIfEmpty(&s.BackButton, def.BackButton)
	setIfEmpty(&s.NextPage, def.NextPage)
	setIfEmpty(&s.DetailTitle, def.DetailTitle)
	setIfEmpty(&s.DetailSubtitle, def.DetailSubtitle)
	setIfEmpty(&s.DetailContent, def.DetailContent)
	setIfEmpty(&s.TableClass, def.TableClass)
}

func setIfZero(v *int, def int) {
	if *v <= 0 {
		*v = def
	}
}

func setIfEmpty(v *string, def string) {
	if *v == "" {
		*v = def
	}
}
