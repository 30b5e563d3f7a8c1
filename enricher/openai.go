package enricher

import (
	"context"
	"fmt"

	"github.com/sashabaranov/go-openai"
)

type openAIBackend struct {
	client *openai.Client
	model  string
}

// NewOpenAI 는 OpenAI 호환 chat completion API 기반 보강기를 만든다. baseURL 이 비어 있으면 기본 엔드포인트를 쓴다.
func NewOpenAI(apiKey, model, baseURL string, quota *Quota, logs AILogRecorder) *LLM {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &LLM{
		provider: "openai",
		model:    model,
		backend:  &openAIBackend{client: openai.NewClientWithConfig(cfg), model: model},
		quota:    quota,
		logs:     logs,
	}
}

func (o *openAIBackend) complete(ctx context.Context, system, user string) (completion, error) {
	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject},
	})
	if err != nil {
		return completion{}, err
	}
	if len(resp.Choices) == 0 {
		return completion{}, fmt.Errorf("no response choices")
	}
	return completion{
		Text:         resp.Choices[0].Message.Content,
		ModelVersion: resp.Model,
		InputTokens:  int64(resp.Usage.PromptTokens),
		OutputTokens: int64(resp.Usage.CompletionTokens),
		TotalTokens:  int64(resp.Usage.TotalTokens),
	}, nil
}
