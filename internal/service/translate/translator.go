package translate

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"
)

const (
	DefaultChunkSize = 500
	// FailedPlaceholder 替代翻译失败的分块
	FailedPlaceholder = "[translation failed]"
)

// Backend 翻译后端,每次调用翻译一个分块
type Backend interface {
	Translate(ctx context.Context, text, src, dst string) (string, error)
}

// Translator 将长文本按字符数切块后逐块翻译,单块失败不影响其余分块
type Translator struct {
	backend   Backend
	src, dst  string
	chunkSize int
	log       *logrus.Entry
}

func NewTranslator(backend Backend, src, dst string, chunkSize int, log *logrus.Entry) *Translator {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	return &Translator{backend: backend, src: src, dst: dst, chunkSize: chunkSize, log: log}
}

func (t *Translator) Translate(ctx context.Context, text string) string {
	chunks := SplitText(text, t.chunkSize)
	out := make([]string, 0, len(chunks))
	for i, chunk := range chunks {
		if strings.TrimSpace(chunk) == "" {
			continue
		}
		translated, err := t.backend.Translate(ctx, chunk, t.src, t.dst)
		if err != nil {
			t.log.WithFields(logrus.Fields{
				"chunk":  i,
				"chunks": len(chunks),
			}).Warnf("翻译失败: %v", err)
			out = append(out, FailedPlaceholder)
			continue
		}
		out = append(out, translated)
	}
	return strings.Join(out, " ")
}

// SplitText 按字符(rune)数切分,每块至多 size 个字符,只有最后一块可能更短。
// 不考虑词或句子边界。
func SplitText(text string, size int) []string {
	if size <= 0 {
		size = DefaultChunkSize
	}
	runes := []rune(text)
	chunks := make([]string, 0, (len(runes)+size-1)/size)
	for start := 0; start < len(runes); start += size {
		end := min(start+size, len(runes))
		chunks = append(chunks, string(runes[start:end]))
	}
	return chunks
}
