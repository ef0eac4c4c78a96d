// Package chrometest 提供一个实现 chrome.ChromeCrawler 的内存列表站点,
// 不启动浏览器即可测试爬取流程
package chrometest

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/LouYuanbo1/advisorycrawl/internal/config"
	"github.com/LouYuanbo1/advisorycrawl/internal/infra/crawler/chrome"
)

type targetKind int

const (
	targetLink targetKind = iota
	targetBack
	targetNext
	targetOther
)

type target struct {
	kind  targetKind
	index int
}

// ItemKey 用页码和页内序号定位一条列表记录
type ItemKey struct {
	Page, Item int
}

// FakeSite 分页列表站点,每行打开一个带返回按钮的详情页,最后一页的下一页箭头不可点击
type FakeSite struct {
	Selectors config.Selectors
	// Pages 按列表页保存每一行对应的详情页源码
	Pages [][]string

	// Unclickable 中的选择器永远不可点击
	Unclickable map[string]bool
	// StuckMask 加载遮罩一直不消失
	StuckMask bool
	// BrokenDetails 详情页能打开但详情面板始终不出现
	BrokenDetails map[ItemKey]bool

	mu            sync.Mutex
	gen           chrome.Generation
	navigated     bool
	page          int
	detail        int
	closed        bool
	clickAttempts map[string]int
	clicks        []string
	visited       []ItemKey
}

func NewFakeSite(sel config.Selectors, pages ...[]string) *FakeSite {
	return &FakeSite{
		Selectors:     sel,
		Pages:         pages,
		Unclickable:   map[string]bool{},
		BrokenDetails: map[ItemKey]bool{},
		detail:        -1,
		clickAttempts: map[string]int{},
	}
}

func (s *FakeSite) timeout(op, selector string) error {
	return fmt.Errorf("%w: %s %q", chrome.ErrTimeout, op, selector)
}

func (s *FakeSite) onList() bool {
	return s.navigated && s.detail < 0
}

func (s *FakeSite) currentLinks() []string {
	if s.page >= len(s.Pages) {
		return nil
	}
	return s.Pages[s.page]
}

func (s *FakeSite) NavigateTo(_ context.Context, url string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if url == "" {
		return fmt.Errorf("navigate: empty url")
	}
	s.navigated = true
	s.page = 0
	s.detail = -1
	s.gen.Advance()
	return nil
}

func (s *FakeSite) WaitUntilAbsent(_ context.Context, selector string, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if selector == s.Selectors.LoadingMask && s.StuckMask {
		return s.timeout("wait absent", selector)
	}
	return nil
}

func (s *FakeSite) WaitUntilPresent(_ context.Context, selector string, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch selector {
	case s.Selectors.ContentLink:
		if s.onList() && len(s.currentLinks()) > 0 {
			return nil
		}
	case s.Selectors.DetailPane:
		if s.detail >= 0 && !s.BrokenDetails[ItemKey{s.page, s.detail}] {
			return nil
		}
	default:
		return nil
	}
	return s.timeout("wait present", selector)
}

func (s *FakeSite) WaitUntilClickable(_ context.Context, selector string, _ time.Duration) (chrome.Handle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clickAttempts[selector]++
	if s.Unclickable[selector] {
		return chrome.Handle{}, s.timeout("wait clickable", selector)
	}
	switch selector {
	case s.Selectors.BackButton:
		if s.detail >= 0 {
			return chrome.NewHandle(s.gen.Current(), target{kind: targetBack}), nil
		}
	case s.Selectors.NextPage:
		if s.onList() && s.page < len(s.Pages)-1 {
			return chrome.NewHandle(s.gen.Current(), target{kind: targetNext}), nil
		}
	default:
		return chrome.NewHandle(s.gen.Current(), target{kind: targetOther}), nil
	}
	return chrome.Handle{}, s.timeout("wait clickable", selector)
}

func (s *FakeSite) Click(_ context.Context, h chrome.Handle) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.gen.Check(h); err != nil {
		return err
	}
	t, ok := h.Ref().(target)
	if !ok {
		return fmt.Errorf("click: foreign handle")
	}
	defer s.gen.Advance()
	switch t.kind {
	case targetLink:
		s.detail = t.index
		s.visited = append(s.visited, ItemKey{s.page, t.index})
		s.clicks = append(s.clicks, fmt.Sprintf("link:%d/%d", s.page, t.index))
	case targetBack:
		s.detail = -1
		s.clicks = append(s.clicks, "back")
	case targetNext:
		s.page++
		s.clicks = append(s.clicks, "next")
	default:
		s.clicks = append(s.clicks, "other")
	}
	return nil
}

func (s *FakeSite) CurrentMarkup(_ context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.detail >= 0 {
		return s.currentLinks()[s.detail], nil
	}
	var b strings.Builder
	b.WriteString("<html><body><ul>")
	for i := range s.currentLinks() {
		fmt.Fprintf(&b, `<li class="content-title">row %d</li>`, i)
	}
	b.WriteString("</ul></body></html>")
	return b.String(), nil
}

func (s *FakeSite) FindAll(_ context.Context, selector string) ([]chrome.Handle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if selector != s.Selectors.ContentLink || !s.onList() {
		return nil, nil
	}
	links := s.currentLinks()
	handles := make([]chrome.Handle, 0, len(links))
	for i := range links {
		handles = append(handles, chrome.NewHandle(s.gen.Current(), target{kind: targetLink, index: i}))
	}
	return handles, nil
}

func (s *FakeSite) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
}

// ClickAttempts 返回选择器被等待可点击的次数
func (s *FakeSite) ClickAttempts(selector string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.clickAttempts[selector]
}

func (s *FakeSite) Clicks() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.clicks...)
}

func (s *FakeSite) Visited() []ItemKey {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]ItemKey(nil), s.visited...)
}

func (s *FakeSite) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// DetailMarkup 生成抽取器能识别的详情页源码
func DetailMarkup(title, subtitle string, body ...string) string {
	var b strings.Builder
	b.WriteString(`<html><body><div class="detail-info el-col el-col-16">`)
	fmt.Fprintf(&b, `<div class="detail-title">%s</div>`, title)
	fmt.Fprintf(&b, `<div class="detail-subtitle">%s</div>`, subtitle)
	b.WriteString(`<div class="detail-content">`)
	for _, p := range body {
		b.WriteString(p)
	}
	b.WriteString(`</div></div></body></html>`)
	return b.String()
}

var _ chrome.ChromeCrawler = (*FakeSite)(nil)
