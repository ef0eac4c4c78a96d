package chrome

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/LouYuanbo1/advisorycrawl/internal/config"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
)

type rodCrawler struct {
	gen       Generation
	closeOnce sync.Once
	browser   *rod.Browser
	page      *rod.Page
	kill      func()
}

func InitRodCrawler(cfg *config.Config) (ChromeCrawler, error) {
	l := launcher.New().
		Headless(cfg.Rod.Headless).
		NoSandbox(cfg.Rod.NoSandbox).
		Leakless(cfg.Rod.Leakless)
	if cfg.Rod.Bin != "" {
		l = l.Bin(cfg.Rod.Bin)
	}
	if cfg.Rod.UserDataDir != "" {
		l = l.UserDataDir(cfg.Rod.UserDataDir)
	}
	if cfg.Rod.DisableDevShmUsage {
		l = l.Set("disable-dev-shm-usage")
	}
	if cfg.Rod.Incognito {
		l = l.Set("incognito")
	}
	if cfg.Rod.DisableBlinkFeatures != "" {
		l = l.Set("disable-blink-features", cfg.Rod.DisableBlinkFeatures)
	}
	if cfg.Rod.UserAgent != "" {
		l = l.Set("user-agent", cfg.Rod.UserAgent)
	}
	url, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}
	rc, err := openRodSession(url, cfg.Rod.Stealth, l.Kill)
	if err != nil {
		return nil, err
	}
	return rc, nil
}

// openRodSession 连接已启动的浏览器并打开页面,任何一步失败都调用 kill 结束浏览器进程
func openRodSession(controlURL string, useStealth bool, kill func()) (*rodCrawler, error) {
	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		kill()
		return nil, fmt.Errorf("failed to connect browser: %w", err)
	}

	var page *rod.Page
	var err error
	if useStealth {
		page, err = stealth.Page(browser)
	} else {
		page, err = browser.Page(proto.TargetCreateTarget{})
	}
	if err != nil {
		_ = browser.Close()
		kill()
		return nil, fmt.Errorf("failed to open page: %w", err)
	}
	return &rodCrawler{browser: browser, page: page, kill: kill}, nil
}

func (rc *rodCrawler) Close() {
	rc.closeOnce.Do(func() {
		_ = rc.browser.Close()
		rc.kill()
	})
}

func (rc *rodCrawler) NavigateTo(ctx context.Context, url string) error {
	defer rc.gen.Advance()
	p := rc.page.Context(ctx).Timeout(60 * time.Second)
	if err := p.Navigate(url); err != nil {
		return timeoutError("navigate", url, 60*time.Second, err)
	}
	return timeoutError("navigate", url, 60*time.Second, p.WaitLoad())
}

func (rc *rodCrawler) WaitUntilAbsent(ctx context.Context, selector string, timeout time.Duration) error {
	err := rc.page.Context(ctx).Timeout(timeout).Wait(rod.Eval(absentJS, selector))
	return timeoutError("wait absent", selector, timeout, err)
}

func (rc *rodCrawler) WaitUntilPresent(ctx context.Context, selector string, timeout time.Duration) error {
	_, err := rc.page.Context(ctx).Timeout(timeout).Element(selector)
	return timeoutError("wait present", selector, timeout, err)
}

func (rc *rodCrawler) WaitUntilClickable(ctx context.Context, selector string, timeout time.Duration) (Handle, error) {
	p := rc.page.Context(ctx).Timeout(timeout)
	if err := p.Wait(rod.Eval(clickableJS, selector)); err != nil {
		return Handle{}, timeoutError("wait clickable", selector, timeout, err)
	}
	el, err := p.Element(selector)
	if err != nil {
		return Handle{}, timeoutError("wait clickable", selector, timeout, err)
	}
	// 句柄脱离超时上下文,点击时再绑定调用方 ctx
	return NewHandle(rc.gen.Current(), el.CancelTimeout()), nil
}

func (rc *rodCrawler) Click(ctx context.Context, h Handle) error {
	if err := rc.gen.Check(h); err != nil {
		return err
	}
	el, ok := h.Ref().(*rod.Element)
	if !ok {
		return fmt.Errorf("click: handle does not reference a rod element")
	}
	defer rc.gen.Advance()
	if _, err := el.Context(ctx).Eval(clickFn); err != nil {
		return fmt.Errorf("dispatch click: %w", err)
	}
	return nil
}

func (rc *rodCrawler) CurrentMarkup(ctx context.Context) (string, error) {
	html, err := rc.page.Context(ctx).Timeout(findAllTimeout).HTML()
	if err != nil {
		return "", timeoutError("outer html", "html", findAllTimeout, err)
	}
	return html, nil
}

func (rc *rodCrawler) FindAll(ctx context.Context, selector string) ([]Handle, error) {
	els, err := rc.page.Context(ctx).Timeout(findAllTimeout).Elements(selector)
	if err != nil {
		return nil, timeoutError("find all", selector, findAllTimeout, err)
	}
	gen := rc.gen.Current()
	handles := make([]Handle, 0, len(els))
	for _, el := range els {
		handles = append(handles, NewHandle(gen, el.CancelTimeout()))
	}
	return handles, nil
}
