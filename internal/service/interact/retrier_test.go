package interact

import (
	"context"
	"testing"
	"time"

	"github.com/LouYuanbo1/advisorycrawl/internal/config"
	"github.com/LouYuanbo1/advisorycrawl/internal/infra/crawler/chrome/chrometest"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSite(t *testing.T) (*chrometest.FakeSite, config.Selectors) {
	t.Helper()
	sel := config.DefaultSelectors()
	site := chrometest.NewFakeSite(sel, []string{"detail"}, []string{"detail"})
	require.NoError(t, site.NavigateTo(context.Background(), "https://example.test/list"))
	return site, sel
}

func TestClickWithRetry_NeverClickable(t *testing.T) {
	site, sel := newSite(t)
	site.Unclickable[sel.NextPage] = true

	logger, hook := test.NewNullLogger()
	var sleeps []time.Duration
	r := NewRetrier(site, time.Second, DefaultBackoff, logrus.NewEntry(logger)).
		WithSleep(func(_ context.Context, d time.Duration) error {
			sleeps = append(sleeps, d)
			return nil
		})

	err := r.ClickWithRetry(context.Background(), sel.NextPage, DefaultMaxAttempts)
	require.ErrorIs(t, err, ErrInteractionExhausted)

	assert.Equal(t, 5, site.ClickAttempts(sel.NextPage))
	// 最后一次失败后不再等待
	assert.Len(t, sleeps, 4)
	for _, d := range sleeps {
		assert.Equal(t, 2*time.Second, d)
	}
	assert.Len(t, hook.AllEntries(), 5)
	assert.Empty(t, site.Clicks())
}

func TestClickWithRetry_SucceedsFirstTime(t *testing.T) {
	site, sel := newSite(t)
	logger, _ := test.NewNullLogger()
	r := NewRetrier(site, time.Second, 0, logrus.NewEntry(logger))

	require.NoError(t, r.ClickWithRetry(context.Background(), sel.NextPage, 3))
	assert.Equal(t, 1, site.ClickAttempts(sel.NextPage))
	assert.Equal(t, []string{"next"}, site.Clicks())
}

func TestClickWithRetry_CustomAttempts(t *testing.T) {
	site, sel := newSite(t)
	site.Unclickable[sel.BackButton] = true
	logger, _ := test.NewNullLogger()
	r := NewRetrier(site, time.Second, 0, logrus.NewEntry(logger))

	err := r.ClickWithRetry(context.Background(), sel.BackButton, 2)
	assert.ErrorIs(t, err, ErrInteractionExhausted)
	assert.Equal(t, 2, site.ClickAttempts(sel.BackButton))
}

func TestClickWithRetry_CanceledDuringBackoff(t *testing.T) {
	site, sel := newSite(t)
	site.Unclickable[sel.NextPage] = true
	logger, _ := test.NewNullLogger()
	r := NewRetrier(site, time.Second, time.Hour, logrus.NewEntry(logger))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := r.ClickWithRetry(ctx, sel.NextPage, 5)
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, ErrInteractionExhausted)
	assert.Equal(t, 1, site.ClickAttempts(sel.NextPage))
}
