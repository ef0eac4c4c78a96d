package chrome

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/chromedp/chromedp"
)

var (
	// ErrTimeout 等待超过预算
	ErrTimeout = errors.New("wait timed out")
	// ErrStaleHandle 元素句柄在页面变化(点击、导航)之后被继续使用
	ErrStaleHandle = errors.New("stale element handle")
)

// ChromeCrawler 受控浏览器会话,只提供等待、点击和取页面源码等原语,不包含重试策略
type ChromeCrawler interface {
	NavigateTo(ctx context.Context, url string) error
	// WaitUntilAbsent 等待选择器没有匹配元素或匹配元素全部不可见
	WaitUntilAbsent(ctx context.Context, selector string, timeout time.Duration) error
	WaitUntilPresent(ctx context.Context, selector string, timeout time.Duration) error
	// WaitUntilClickable 等待元素可见且未被禁用,返回第一个匹配元素的句柄
	WaitUntilClickable(ctx context.Context, selector string, timeout time.Duration) (Handle, error)
	// Click 通过页面内 element.click() 直接派发点击,加载遮罩覆盖时也能触发
	Click(ctx context.Context, h Handle) error
	CurrentMarkup(ctx context.Context) (string, error)
	// FindAll 按文档顺序返回当前匹配的元素,不等待
	FindAll(ctx context.Context, selector string) ([]Handle, error)
	Close()
}

// Handle 元素引用,只在解析它的那一代 DOM 中有效
type Handle struct {
	generation uint64
	ref        any
}

func NewHandle(generation uint64, ref any) Handle {
	return Handle{generation: generation, ref: ref}
}

func (h Handle) Generation() uint64 {
	return h.generation
}

func (h Handle) Ref() any {
	return h.ref
}

// Generation 记录 DOM 代数,每次点击或导航后递增,之前取得的句柄随之失效
type Generation struct {
	n atomic.Uint64
}

func (g *Generation) Current() uint64 {
	return g.n.Load()
}

func (g *Generation) Advance() {
	g.n.Add(1)
}

func (g *Generation) Check(h Handle) error {
	if cur := g.Current(); h.generation != cur {
		return fmt.Errorf("%w: handle from generation %d, page is at %d", ErrStaleHandle, h.generation, cur)
	}
	return nil
}

// timeoutError 把 context 超时和页面内轮询超时统一转换为 ErrTimeout
func timeoutError(op, selector string, timeout time.Duration, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, chromedp.ErrPollingTimeout) {
		return fmt.Errorf("%w: %s %q after %s", ErrTimeout, op, selector, timeout)
	}
	return fmt.Errorf("%s %q: %w", op, selector, err)
}

// 页面内判断逻辑,chromedp 与 rod 两个后端共用
const (
	absentJS = `(sel) => {
		return Array.from(document.querySelectorAll(sel)).every((el) => {
			const style = window.getComputedStyle(el);
			return style.display === 'none' || style.visibility === 'hidden' || el.getClientRects().length === 0;
		});
	}`

	clickableJS = `(sel) => {
		const el = document.querySelector(sel);
		if (!el) return false;
		const style = window.getComputedStyle(el);
		if (style.display === 'none' || style.visibility === 'hidden' || el.getClientRects().length === 0) return false;
		return !el.closest('[disabled], .is-disabled');
	}`

	clickFn = `function() { this.click(); }`
)
