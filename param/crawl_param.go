package param

import (
	"time"

	"github.com/LouYuanbo1/advisorycrawl/internal/config"
)

// Crawl 一次爬取运行的参数
type Crawl struct {
	BaseURL string `json:"base_url"`
	// MaxPages 为 0 时不限制页数,翻页失败即结束
	MaxPages         int `json:"max_pages"`
	MaxClickAttempts int `json:"max_click_attempts"`

	ClickTimeout  time.Duration `json:"click_timeout"`
	ClickBackoff  time.Duration `json:"click_backoff"`
	MaskTimeout   time.Duration `json:"mask_timeout"`
	ListTimeout   time.Duration `json:"list_timeout"`
	DetailTimeout time.Duration `json:"detail_timeout"`
	PageSettle    time.Duration `json:"page_settle"`
	StoreTimeout  time.Duration `json:"store_timeout"`

	Selectors config.Selectors `json:"selectors"`
}

func FromConfig(cfg *config.Config) *Crawl {
	sec := func(n int) time.Duration { return time.Duration(n) * time.Second }
	c := cfg.Crawl
	return &Crawl{
		BaseURL:          c.BaseURL,
		MaxPages:         c.MaxPages,
		MaxClickAttempts: c.MaxClickAttempts,
		ClickTimeout:     sec(c.ClickTimeout),
		ClickBackoff:     sec(c.ClickBackoff),
		MaskTimeout:      sec(c.MaskTimeout),
		ListTimeout:      sec(c.ListTimeout),
		DetailTimeout:    sec(c.DetailTimeout),
		PageSettle:       sec(c.PageSettle),
		StoreTimeout:     sec(c.StoreTimeout),
		Selectors:        cfg.Selectors,
	}
}

func (c *Crawl) IsValid() bool {
	if c.BaseURL == "" ||
		c.MaxPages < 0 ||
		c.MaxClickAttempts <= 0 ||
		c.MaskTimeout <= 0 ||
		c.ListTimeout <= 0 ||
		c.DetailTimeout <= 0 ||
		c.StoreTimeout <= 0 {
		return false
	}
	s := c.Selectors
	return s.ContentLink != "" &&
		s.LoadingMask != "" &&
		s.DetailPane != "" &&
		s.BackButton != "" &&
		s.NextPage != ""
}
