package enricher

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

type geminiBackend struct {
	client *genai.Client
	model  string
}

// NewGemini 는 Gemini(genai) 기반 LLM 보강기를 만든다.
func NewGemini(ctx context.Context, apiKey, model string, quota *Quota, logs AILogRecorder) (*LLM, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("genai client: %w", err)
	}
	return &LLM{
		provider: "google",
		model:    model,
		backend:  &geminiBackend{client: client, model: model},
		quota:    quota,
		logs:     logs,
	}, nil
}

func (g *geminiBackend) complete(ctx context.Context, system, user string) (completion, error) {
	result, err := g.client.Models.GenerateContent(
		ctx,
		g.model,
		genai.Text(user),
		&genai.GenerateContentConfig{
			SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: system}}},
			ResponseMIMEType:  "application/json",
		},
	)
	if err != nil {
		return completion{}, err
	}

	out := completion{Text: result.Text(), ModelVersion: result.ModelVersion}
	if result.UsageMetadata != nil {
		out.InputTokens = int64(result.UsageMetadata.PromptTokenCount)
		out.OutputTokens = int64(result.UsageMetadata.CandidatesTokenCount)
		out.TotalTokens = int64(result.UsageMetadata.TotalTokenCount)
	}
	return out, nil
}
