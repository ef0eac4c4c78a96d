package interact

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/LouYuanbo1/advisorycrawl/internal/infra/crawler/chrome"
	"github.com/sirupsen/logrus"
)

// ErrInteractionExhausted 点击重试次数用尽
var ErrInteractionExhausted = errors.New("interaction retries exhausted")

const (
	DefaultMaxAttempts    = 5
	DefaultAttemptTimeout = 30 * time.Second
	DefaultBackoff        = 2 * time.Second
)

// Retrier 对单次点击做有限次数的重试,每次失败后固定等待 Backoff
type Retrier struct {
	crawler        chrome.ChromeCrawler
	attemptTimeout time.Duration
	backoff        time.Duration
	log            *logrus.Entry
	// sleep 可在测试中替换
	sleep func(ctx context.Context, d time.Duration) error
}

func NewRetrier(crawler chrome.ChromeCrawler, attemptTimeout, backoff time.Duration, log *logrus.Entry) *Retrier {
	if attemptTimeout <= 0 {
		attemptTimeout = DefaultAttemptTimeout
	}
	if backoff < 0 {
		backoff = DefaultBackoff
	}
	return &Retrier{
		crawler:        crawler,
		attemptTimeout: attemptTimeout,
		backoff:        backoff,
		log:            log,
		sleep:          Sleep,
	}
}

// WithSleep 替换等待函数
func (r *Retrier) WithSleep(sleep func(ctx context.Context, d time.Duration) error) *Retrier {
	r.sleep = sleep
	return r
}

func (r *Retrier) ClickWithRetry(ctx context.Context, selector string, maxAttempts int) error {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		lastErr = r.tryClick(ctx, selector)
		if lastErr == nil {
			return nil
		}
		r.log.WithFields(logrus.Fields{
			"selector": selector,
			"attempt":  fmt.Sprintf("%d/%d", attempt, maxAttempts),
		}).Warnf("点击失败: %v", lastErr)

		if attempt == maxAttempts {
			break
		}
		if err := r.sleep(ctx, r.backoff); err != nil {
			return fmt.Errorf("click %q interrupted: %w", selector, err)
		}
	}
	return fmt.Errorf("%w: click %q failed %d times: %v", ErrInteractionExhausted, selector, maxAttempts, lastErr)
}

func (r *Retrier) tryClick(ctx context.Context, selector string) error {
	h, err := r.crawler.WaitUntilClickable(ctx, selector, r.attemptTimeout)
	if err != nil {
		return err
	}
	return r.crawler.Click(ctx, h)
}

// Sleep 可被 ctx 打断的等待
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
