package crawl

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/LouYuanbo1/advisorycrawl/internal/config"
	"github.com/LouYuanbo1/advisorycrawl/internal/domain/model"
	"github.com/LouYuanbo1/advisorycrawl/internal/infra/crawler/chrome/chrometest"
	"github.com/LouYuanbo1/advisorycrawl/internal/service/dedupe"
	"github.com/LouYuanbo1/advisorycrawl/internal/service/extract"
	"github.com/LouYuanbo1/advisorycrawl/internal/service/interact"
	"github.com/LouYuanbo1/advisorycrawl/param"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var crawledAt = time.Date(2024, 3, 6, 9, 0, 0, 0, time.UTC)

type prefixTranslator struct{}

func (prefixTranslator) Translate(_ context.Context, text string) string {
	if text == "" {
		return ""
	}
	return "KO:" + text
}

func noSleep(context.Context, time.Duration) error { return nil }

func advisory(title string) string {
	return chrometest.DetailMarkup(title, "通报编号 2024-03-05 14:22:10",
		`<p>漏洞描述</p>`,
		`<table class="MsoTableGrid"><tr><td>影响版本</td></tr></table>`,
	)
}

type harness struct {
	site  *chrometest.FakeSite
	store *dedupe.MemoryStore
	hook  *test.Hook
	svc   CrawlService
}

func newHarness(t *testing.T, store *dedupe.MemoryStore, mutate func(*param.Crawl), pages ...[]string) *harness {
	t.Helper()
	sel := config.DefaultSelectors()
	params := &param.Crawl{
		BaseURL:          "https://example.test/home/warn",
		MaxClickAttempts: interact.DefaultMaxAttempts,
		ClickTimeout:     time.Second,
		ClickBackoff:     interact.DefaultBackoff,
		MaskTimeout:      time.Second,
		ListTimeout:      time.Second,
		DetailTimeout:    time.Second,
		PageSettle:       time.Second,
		StoreTimeout:     time.Second,
		Selectors:        sel,
	}
	if mutate != nil {
		mutate(params)
	}
	require.True(t, params.IsValid())

	site := chrometest.NewFakeSite(sel, pages...)
	logger, hook := test.NewNullLogger()
	log := logrus.NewEntry(logger)
	retrier := interact.NewRetrier(site, params.ClickTimeout, params.ClickBackoff, log).WithSleep(noSleep)
	svc := InitCrawlService(
		site,
		retrier,
		extract.NewExtractor(sel, time.UTC, log),
		prefixTranslator{},
		dedupe.NewChecker(store),
		params,
		log,
		WithClock(func() time.Time { return crawledAt }),
		WithSleep(noSleep),
	)
	return &harness{site: site, store: store, hook: hook, svc: svc}
}

func (h *harness) messages() []string {
	var out []string
	for _, e := range h.hook.AllEntries() {
		out = append(out, e.Message)
	}
	return out
}

func containsMessage(msgs []string, sub string) bool {
	for _, m := range msgs {
		if strings.Contains(m, sub) {
			return true
		}
	}
	return false
}

func TestRun_TwoItemsIntoEmptyStore(t *testing.T) {
	h := newHarness(t, dedupe.NewMemoryStore(), nil, []string{advisory("甲"), advisory("乙")})

	sum := h.svc.Run(context.Background())

	assert.Equal(t, Done, sum.Final.Kind)
	assert.Equal(t, 1, sum.Pages)
	assert.Equal(t, 2, sum.Stored)
	assert.Zero(t, sum.Duplicates)
	assert.Zero(t, sum.Skipped)
	assert.Equal(t, []chrometest.ItemKey{{Page: 0, Item: 0}, {Page: 0, Item: 1}}, h.site.Visited())

	docs := h.store.Docs()
	require.Len(t, docs, 2)
	assert.Equal(t, "KO:甲", docs[0].Title)
	assert.Equal(t, "KO:乙", docs[1].Title)
	for _, d := range docs {
		assert.Equal(t, "KO:通报编号 2024-03-05 14:22:10", d.Subtitle)
		assert.Equal(t, "KO:漏洞描述", d.MainContent)
		assert.Equal(t, "KO:影响版本", d.SubContent)
		assert.Equal(t, crawledAt, d.CrawlingDate)
		require.NotNil(t, d.ReleaseDate)
		assert.Equal(t, time.Date(2024, 3, 5, 14, 22, 10, 0, time.UTC), *d.ReleaseDate)
		assert.Zero(t, d.ViewCount)
	}

	// 最后一页的下一页按钮不可点击,重试用尽后结束
	assert.Equal(t, interact.DefaultMaxAttempts, h.site.ClickAttempts(config.DefaultSelectors().NextPage))
	assert.True(t, h.site.Closed())
}

func TestRun_RerunSkipsExistingTitle(t *testing.T) {
	store := dedupe.NewMemoryStore(&model.ReportDoc{Title: "KO:甲"})
	h := newHarness(t, store, nil, []string{advisory("甲"), advisory("乙")})

	sum := h.svc.Run(context.Background())

	assert.Equal(t, Done, sum.Final.Kind)
	assert.Equal(t, 1, sum.Stored)
	assert.Equal(t, 1, sum.Duplicates)
	require.Len(t, store.Docs(), 2)
	assert.Equal(t, "KO:乙", store.Docs()[1].Title)

	require.Len(t, sum.Items, 2)
	assert.Equal(t, OutcomeDuplicate, sum.Items[0].Outcome)
	assert.Equal(t, "KO:甲", sum.Items[0].Title)
	assert.Equal(t, OutcomeStored, sum.Items[1].Outcome)
	assert.True(t, containsMessage(h.messages(), "KO:甲 已经存在"))
}

func TestRun_FollowsPagination(t *testing.T) {
	h := newHarness(t, dedupe.NewMemoryStore(), nil,
		[]string{advisory("一")},
		[]string{advisory("二"), advisory("三")},
	)

	sum := h.svc.Run(context.Background())

	assert.Equal(t, Done, sum.Final.Kind)
	assert.Equal(t, 2, sum.Pages)
	assert.Equal(t, 3, sum.Stored)
	assert.Equal(t, []chrometest.ItemKey{{Page: 0, Item: 0}, {Page: 1, Item: 0}, {Page: 1, Item: 1}}, h.site.Visited())
	assert.Equal(t, []string{"link:0/0", "back", "next", "link:1/0", "back", "link:1/1", "back"}, h.site.Clicks())
}

func TestRun_MaxPagesStopsBeforeNext(t *testing.T) {
	h := newHarness(t, dedupe.NewMemoryStore(), func(p *param.Crawl) { p.MaxPages = 1 },
		[]string{advisory("一")},
		[]string{advisory("二")},
	)

	sum := h.svc.Run(context.Background())

	assert.Equal(t, Done, sum.Final.Kind)
	assert.Equal(t, 1, sum.Stored)
	assert.Zero(t, h.site.ClickAttempts(config.DefaultSelectors().NextPage))
}

func TestRun_EmptyListingAborts(t *testing.T) {
	h := newHarness(t, dedupe.NewMemoryStore(), nil, []string{})

	sum := h.svc.Run(context.Background())

	assert.Equal(t, Aborted, sum.Final.Kind)
	assert.ErrorIs(t, sum.Final.Err, ErrNavigation)
	assert.Zero(t, sum.Pages)
	assert.True(t, h.site.Closed())
}

func TestRun_StuckLoadingMaskAborts(t *testing.T) {
	h := newHarness(t, dedupe.NewMemoryStore(), nil, []string{advisory("一")})
	h.site.StuckMask = true

	sum := h.svc.Run(context.Background())

	assert.Equal(t, Aborted, sum.Final.Kind)
	assert.ErrorIs(t, sum.Final.Err, ErrNavigation)
	assert.Empty(t, h.store.Docs())
}

func TestRun_BrokenItemIsSkipped(t *testing.T) {
	h := newHarness(t, dedupe.NewMemoryStore(), nil, []string{advisory("一"), advisory("二"), advisory("三")})
	h.site.BrokenDetails[chrometest.ItemKey{Page: 0, Item: 1}] = true

	sum := h.svc.Run(context.Background())

	assert.Equal(t, Done, sum.Final.Kind)
	assert.Equal(t, 2, sum.Stored)
	assert.Equal(t, 1, sum.Skipped)
	require.Len(t, sum.Items, 3)
	assert.Equal(t, OutcomeSkipped, sum.Items[1].Outcome)
	assert.Error(t, sum.Items[1].Err)
	assert.Equal(t, "KO:三", h.store.Docs()[1].Title)
	// 失败条目之后回到了列表页
	assert.Equal(t, []string{"link:0/0", "back", "link:0/1", "back", "link:0/2", "back"}, h.site.Clicks())
}

func TestRun_BackFailureSkipsFollowingItems(t *testing.T) {
	h := newHarness(t, dedupe.NewMemoryStore(), nil, []string{advisory("一"), advisory("二")})
	h.site.Unclickable[config.DefaultSelectors().BackButton] = true

	sum := h.svc.Run(context.Background())

	assert.Equal(t, Done, sum.Final.Kind)
	require.Len(t, sum.Items, 2)
	assert.Equal(t, OutcomeStored, sum.Items[0].Outcome)
	assert.ErrorIs(t, sum.Items[0].Err, interact.ErrInteractionExhausted)
	assert.Equal(t, OutcomeSkipped, sum.Items[1].Outcome)
	assert.ErrorIs(t, sum.Items[1].Err, errItemOutOfRange)
	assert.Len(t, h.store.Docs(), 1)
}

func TestRun_CanceledContextAborts(t *testing.T) {
	h := newHarness(t, dedupe.NewMemoryStore(), nil, []string{advisory("一")})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sum := h.svc.Run(ctx)

	assert.Equal(t, Aborted, sum.Final.Kind)
	assert.ErrorIs(t, sum.Final.Err, context.Canceled)
	assert.True(t, h.site.Closed())
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "ListPage(2)", State{Kind: ListPage, Cursor: CrawlCursor{PageIndex: 2}}.String())
	assert.Equal(t, "DetailPage(0, 3)", State{Kind: DetailPage, Cursor: CrawlCursor{ItemIndex: 3}}.String())
	assert.Equal(t, "Done", State{Kind: Done}.String())
	assert.True(t, State{Kind: Aborted}.Terminal())
	assert.False(t, State{Kind: ListPage}.Terminal())
}
