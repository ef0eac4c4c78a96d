package chrome

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/LouYuanbo1/advisorycrawl/internal/config"
	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/dom"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
)

// findAllTimeout FindAll 本身不等待,只给一次查询留出余量
const findAllTimeout = 10 * time.Second

type chromedpCrawler struct {
	gen           Generation
	closeOnce     sync.Once
	allocCtx      context.Context
	allocCtxFuc   context.CancelFunc
	pageCtx       context.Context
	pageCtxFuc    context.CancelFunc
	timeoutCtxFuc context.CancelFunc
}

func InitChromedpCrawler(ctx context.Context, cfg *config.Config) ChromeCrawler {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", cfg.Chromedp.Headless),
		chromedp.Flag("incognito", cfg.Chromedp.Incognito),
		chromedp.Flag("disable-dev-shm-usage", cfg.Chromedp.DisableDevShmUsage),
		chromedp.Flag("no-sandbox", cfg.Chromedp.NoSandbox),
	)
	if cfg.Chromedp.DisableBlinkFeatures != "" {
		opts = append(opts, chromedp.Flag("disable-blink-features", cfg.Chromedp.DisableBlinkFeatures))
	}
	if cfg.Chromedp.UserDataDir != "" {
		opts = append(opts, chromedp.UserDataDir(cfg.Chromedp.UserDataDir))
	}
	if cfg.Chromedp.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(cfg.Chromedp.UserAgent))
	}

	// LifeTime 为 0 时浏览器生命周期不设上限
	var timeoutCtx context.Context
	var cancelTimeout context.CancelFunc
	if cfg.Chromedp.LifeTime > 0 {
		timeoutCtx, cancelTimeout = context.WithTimeout(ctx, time.Duration(cfg.Chromedp.LifeTime)*time.Second)
	} else {
		timeoutCtx, cancelTimeout = context.WithCancel(ctx)
	}
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(timeoutCtx, opts...)
	pageCtx, cancelPage := chromedp.NewContext(allocCtx)

	return &chromedpCrawler{
		allocCtx:      allocCtx,
		allocCtxFuc:   cancelAlloc,
		pageCtx:       pageCtx,
		pageCtxFuc:    cancelPage,
		timeoutCtxFuc: cancelTimeout,
	}
}

func (cc *chromedpCrawler) Close() {
	cc.closeOnce.Do(func() {
		cc.pageCtxFuc()
		cc.allocCtxFuc()
		cc.timeoutCtxFuc()
	})
}

// run 在页面上下文中执行动作,同时受调用方 ctx 和 timeout 约束
func (cc *chromedpCrawler) run(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithTimeout(cc.pageCtx, timeout)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()
	return chromedp.Run(runCtx, actions...)
}

// pollSelector 关闭 PollFunction 自带的 30 秒超时,等待时长只由 run 的 timeout 决定
func pollSelector(fn string, res *bool, selector string) chromedp.Action {
	return chromedp.PollFunction(fn, res,
		chromedp.WithPollingArgs(selector),
		chromedp.WithPollingTimeout(0),
	)
}

func (cc *chromedpCrawler) NavigateTo(ctx context.Context, url string) error {
	defer cc.gen.Advance()
	err := cc.run(ctx, 60*time.Second,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
	)
	return timeoutError("navigate", url, 60*time.Second, err)
}

func (cc *chromedpCrawler) WaitUntilAbsent(ctx context.Context, selector string, timeout time.Duration) error {
	var absent bool
	err := cc.run(ctx, timeout,
		pollSelector(absentJS, &absent, selector),
	)
	return timeoutError("wait absent", selector, timeout, err)
}

func (cc *chromedpCrawler) WaitUntilPresent(ctx context.Context, selector string, timeout time.Duration) error {
	err := cc.run(ctx, timeout, chromedp.WaitReady(selector, chromedp.ByQuery))
	return timeoutError("wait present", selector, timeout, err)
}

func (cc *chromedpCrawler) WaitUntilClickable(ctx context.Context, selector string, timeout time.Duration) (Handle, error) {
	var clickable bool
	var nodes []*cdp.Node
	err := cc.run(ctx, timeout,
		pollSelector(clickableJS, &clickable, selector),
		chromedp.Nodes(selector, &nodes, chromedp.ByQuery),
	)
	if err != nil {
		return Handle{}, timeoutError("wait clickable", selector, timeout, err)
	}
	if len(nodes) == 0 {
		return Handle{}, fmt.Errorf("wait clickable %q: no node resolved", selector)
	}
	return NewHandle(cc.gen.Current(), nodes[0]), nil
}

func (cc *chromedpCrawler) Click(ctx context.Context, h Handle) error {
	if err := cc.gen.Check(h); err != nil {
		return err
	}
	node, ok := h.Ref().(*cdp.Node)
	if !ok {
		return fmt.Errorf("click: handle does not reference a chromedp node")
	}
	// 点击可能引起 DOM 变化,无论成功与否旧句柄都作废
	defer cc.gen.Advance()
	return cc.run(ctx, findAllTimeout, chromedp.ActionFunc(func(ctx context.Context) error {
		obj, err := dom.ResolveNode().WithNodeID(node.NodeID).Do(ctx)
		if err != nil {
			return fmt.Errorf("resolve node: %w", err)
		}
		_, exception, err := runtime.CallFunctionOn(clickFn).WithObjectID(obj.ObjectID).Do(ctx)
		if err != nil {
			return fmt.Errorf("dispatch click: %w", err)
		}
		if exception != nil {
			return fmt.Errorf("dispatch click: %w", exception)
		}
		return nil
	}))
}

func (cc *chromedpCrawler) CurrentMarkup(ctx context.Context) (string, error) {
	var html string
	err := cc.run(ctx, findAllTimeout, chromedp.OuterHTML("html", &html, chromedp.ByQuery))
	if err != nil {
		return "", timeoutError("outer html", "html", findAllTimeout, err)
	}
	return html, nil
}

func (cc *chromedpCrawler) FindAll(ctx context.Context, selector string) ([]Handle, error) {
	var nodes []*cdp.Node
	err := cc.run(ctx, findAllTimeout,
		chromedp.Nodes(selector, &nodes, chromedp.ByQueryAll, chromedp.AtLeast(0)),
	)
	if err != nil {
		return nil, timeoutError("find all", selector, findAllTimeout, err)
	}
	gen := cc.gen.Current()
	handles := make([]Handle, 0, len(nodes))
	for _, n := range nodes {
		handles = append(handles, NewHandle(gen, n))
	}
	return handles, nil
}
