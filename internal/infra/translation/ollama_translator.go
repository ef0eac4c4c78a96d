package translation

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/LouYuanbo1/advisorycrawl/internal/config"
	"github.com/cloudwego/eino-ext/components/model/ollama"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"
	"golang.org/x/time/rate"
)

var languageNames = map[string]string{
	"zh-cn": "Simplified Chinese",
	"zh-tw": "Traditional Chinese",
	"ko":    "Korean",
	"en":    "English",
	"ja":    "Japanese",
}

// chatTemplate 只要求模型输出译文,避免附带解释
var chatTemplate = prompt.FromMessages(schema.FString,
	schema.SystemMessage("You are a professional translator of security advisories. "+
		"Translate the user's text from {src} to {dst}. "+
		"Keep identifiers, version numbers, CVE/CNNVD ids and URLs unchanged. "+
		"Output only the translation."),
	schema.UserMessage("{text}"),
)

type ollamaTranslator struct {
	model   model.BaseChatModel
	limiter *rate.Limiter
	timeout time.Duration
}

// InitTranslator 初始化基于 Ollama 的翻译后端
func InitTranslator(ctx context.Context, cfg *config.Config) (Translator, error) {
	chatModel, err := ollama.NewChatModel(ctx, &ollama.ChatModelConfig{
		BaseURL: cfg.Translator.Host + ":" + strconv.Itoa(cfg.Translator.Port),
		Model:   cfg.Translator.Model,
		Timeout: time.Duration(cfg.Translator.TimeoutSeconds) * time.Second,
	})
	if err != nil {
		return nil, err
	}
	return NewTranslator(chatModel, cfg.Translator.RequestsPerSecond, time.Duration(cfg.Translator.TimeoutSeconds)*time.Second), nil
}

// NewTranslator 每秒最多 rps 次请求
func NewTranslator(chatModel model.BaseChatModel, rps float64, timeout time.Duration) Translator {
	return &ollamaTranslator{
		model:   chatModel,
		limiter: rate.NewLimiter(rate.Limit(rps), 1),
		timeout: timeout,
	}
}

func (t *ollamaTranslator) Translate(ctx context.Context, text, src, dst string) (string, error) {
	if err := t.limiter.Wait(ctx); err != nil {
		return "", err
	}
	msgs, err := chatTemplate.Format(ctx, map[string]any{
		"src":  languageName(src),
		"dst":  languageName(dst),
		"text": text,
	})
	if err != nil {
		return "", fmt.Errorf("failed to format prompt: %w", err)
	}

	reqCtx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	resp, err := t.model.Generate(reqCtx, msgs)
	if err != nil {
		return "", fmt.Errorf("failed to generate translation: %w", err)
	}
	out := strings.TrimSpace(resp.Content)
	if out == "" {
		return "", errors.New("empty translation")
	}
	return out, nil
}

func languageName(code string) string {
	if name, ok := languageNames[strings.ToLower(code)]; ok {
		return name
	}
	return code
}
