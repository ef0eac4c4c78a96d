package translation

import "context"

// Translator 单次调用翻译一段文本,src/dst 为 zh-cn、ko 这类语言代码
type Translator interface {
	Translate(ctx context.Context, text, src, dst string) (string, error)
}
