package translate

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedBackend 返回 "<n>:" + 原文,failAt 中的调用序号返回错误
type scriptedBackend struct {
	calls  []string
	failAt map[int]bool
}

func (b *scriptedBackend) Translate(_ context.Context, text, src, dst string) (string, error) {
	n := len(b.calls)
	b.calls = append(b.calls, text)
	if b.failAt[n] {
		return "", errors.New("backend unavailable")
	}
	return fmt.Sprintf("%s>%s:%s", src, dst, strings.ToUpper(text)), nil
}

func newTranslator(b Backend, size int) (*Translator, *test.Hook) {
	logger, hook := test.NewNullLogger()
	return NewTranslator(b, "zh-cn", "ko", size, logrus.NewEntry(logger)), hook
}

func TestSplitText_ReassemblesExactly(t *testing.T) {
	inputs := []string{
		"",
		"a",
		"abcdefghij",
		"abcdefghijk",
		"中华人民共和国国家信息安全漏洞库",
		"mixed 漏洞 text with spaces   and\nnewlines",
	}
	for _, in := range inputs {
		for _, n := range []int{1, 3, 4, 10, 500} {
			chunks := SplitText(in, n)
			assert.Equal(t, in, strings.Join(chunks, ""), "input %q size %d", in, n)
			for i, c := range chunks {
				l := utf8.RuneCountInString(c)
				assert.LessOrEqual(t, l, n)
				if i < len(chunks)-1 {
					assert.Equal(t, n, l, "only the last chunk may be short")
				}
			}
		}
	}
}

func TestSplitText_CountsCharactersNotBytes(t *testing.T) {
	chunks := SplitText("漏洞漏洞漏", 2)
	assert.Equal(t, []string{"漏洞", "漏洞", "漏"}, chunks)
}

func TestTranslate_JoinsChunksWithSpace(t *testing.T) {
	b := &scriptedBackend{}
	tr, hook := newTranslator(b, 3)

	got := tr.Translate(context.Background(), "abcdefg")
	assert.Equal(t, "zh-cn>ko:ABC zh-cn>ko:DEF zh-cn>ko:G", got)
	assert.Equal(t, []string{"abc", "def", "g"}, b.calls)
	assert.Empty(t, hook.AllEntries())
}

func TestTranslate_ChunkFailureDegrades(t *testing.T) {
	b := &scriptedBackend{failAt: map[int]bool{1: true}}
	tr, hook := newTranslator(b, 3)

	got := tr.Translate(context.Background(), "abcdefghi")
	parts := strings.Split(got, " ")
	require.Len(t, parts, 3)
	assert.Equal(t, "zh-cn>ko:ABC", parts[0])
	assert.Equal(t, FailedPlaceholder, parts[1])
	assert.Equal(t, "zh-cn>ko:GHI", parts[2])
	assert.Equal(t, 1, strings.Count(got, FailedPlaceholder))
	require.Len(t, hook.AllEntries(), 1)
	assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
}

func TestTranslate_SkipsBlankChunks(t *testing.T) {
	b := &scriptedBackend{}
	tr, _ := newTranslator(b, 3)

	got := tr.Translate(context.Background(), "ab    \n cd")
	// 切块为 "ab ", "   ", "\n c", "d",第二块全为空白
	assert.Equal(t, []string{"ab ", "\n c", "d"}, b.calls)
	assert.Equal(t, 3, strings.Count(got, "zh-cn>ko:"))

	b.calls = nil
	assert.Equal(t, "", tr.Translate(context.Background(), ""))
	assert.Equal(t, "", tr.Translate(context.Background(), "   "))
	assert.Empty(t, b.calls)
}
