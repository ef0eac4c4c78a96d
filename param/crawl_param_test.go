package param

import (
	"testing"
	"time"

	"github.com/LouYuanbo1/advisorycrawl/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromConfig(t *testing.T) {
	cfg, err := config.ParseConfig([]byte(`{"crawl": {"max_pages": 12}}`))
	require.NoError(t, err)

	p := FromConfig(cfg)
	assert.Equal(t, "https://www.cnnvd.org.cn/home/warn", p.BaseURL)
	assert.Equal(t, 12, p.MaxPages)
	assert.Equal(t, 5, p.MaxClickAttempts)
	assert.Equal(t, 30*time.Second, p.ClickTimeout)
	assert.Equal(t, 2*time.Second, p.ClickBackoff)
	assert.Equal(t, 20*time.Second, p.MaskTimeout)
	assert.Equal(t, 3*time.Second, p.PageSettle)
	assert.True(t, p.IsValid())
}

func TestIsValid(t *testing.T) {
	cfg, err := config.ParseConfig([]byte(`{}`))
	require.NoError(t, err)

	p := FromConfig(cfg)
	p.Selectors.NextPage = ""
	assert.False(t, p.IsValid())

	p = FromConfig(cfg)
	p.MaxPages = -1
	assert.False(t, p.IsValid())

	p = FromConfig(cfg)
	p.BaseURL = ""
	assert.False(t, p.IsValid())
}
