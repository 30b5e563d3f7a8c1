package enricher

import (
	"context"
	"fmt"
	"strings"

	"viral-recipes/config"
)

// New 는 설정의 provider 에 맞는 Enricher 를 만든다. none 이면 규칙 기반이다.
func New(ctx context.Context, cfg config.LLMConfig, logs AILogRecorder) (Enricher, error) {
	quota := NewQuotaFromConfig(cfg)

	switch strings.ToLower(cfg.Provider) {
	case "", "none":
		return NewRules(), nil
	case "google":
		return NewGemini(ctx, cfg.GeminiAPIKey, cfg.ModelName, quota, logs)
	case "openai":
		return NewOpenAI(cfg.OpenAIAPIKey, cfg.ModelName, "", quota, logs), nil
	default:
		return nil, fmt.Errorf("unsupported llm provider: %s", cfg.Provider)
	}
}
