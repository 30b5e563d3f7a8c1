package enricher

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"viral-recipes/models"
	"viral-recipes/parser"
)

type fakeCompleter struct {
	text  string
	err   error
	calls int
	user  string
}

func (f *fakeCompleter) complete(_ context.Context, _, user string) (completion, error) {
	f.calls++
	f.user = user
	if f.err != nil {
		return completion{}, f.err
	}
	return completion{Text: f.text, ModelVersion: "test-001", InputTokens: 10, OutputTokens: 20, TotalTokens: 30}, nil
}

type memAILogs struct {
	mu   sync.Mutex
	logs []models.AILog
}

func (m *memAILogs) InsertAILog(_ context.Context, l models.AILog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.logs = append(m.logs, l)
	return nil
}

func sampleFields() parser.Fields {
	return parser.Fields{
		Title:        "Brigadeiro de colher",
		Category:     models.CategorySweets,
		Ingredients:  []models.Ingredient{{Name: "leite condensado", Quantity: "1", Unit: "lata"}, {Name: "chocolate em pó", Quantity: "2", Unit: "colheres de sopa"}},
		Instructions: []string{"misture tudo na panela", "mexa até desgrudar do fundo"},
		PrepMinutes:  5,
		CookMinutes:  10,
		Hashtags:     []string{"brigadeiro"},
		Content:      models.RawContent{OriginURL: "https://tiktok.example/v/1", Metrics: models.Metrics{Views: 2_000_000}},
	}
}

func TestLLMEnrichMergesResponse(t *testing.T) {
	fc := &fakeCompleter{text: "```json\n" + `{"title":"Brigadeiro de colher cremoso #doce","summary":"","tips":"Use manteiga sem sal.","tags":["Doce","brigadeiro","festa"],"image_prompt":"brigadeiro em pote","error":null}` + "\n```"}
	logs := &memAILogs{}
	e := &LLM{provider: "fake", model: "fake-model", backend: fc, logs: logs}

	got, err := e.Enrich(context.Background(), sampleFields())
	require.NoError(t, err)

	assert.Equal(t, "Brigadeiro de colher cremoso", got.Title)
	assert.Equal(t, "Brigadeiro de colher cremoso pronta em 15 minutos. Viral com 2.0M visualizações!", got.Summary)
	assert.Equal(t, "Use manteiga sem sal.", got.Tips)
	assert.Equal(t, []string{"brigadeiro", "doce", "festa"}, got.Tags)
	assert.Equal(t, "brigadeiro em pote", got.ImagePrompt)
	assert.Equal(t, "R$8-15", got.EstimatedCost)
	assert.Contains(t, fc.user, "leite condensado")

	require.Len(t, logs.logs, 1)
	assert.Equal(t, "fake", logs.logs[0].Provider)
	assert.Equal(t, int64(30), logs.logs[0].TotalTokens)
	assert.Equal(t, "https://tiktok.example/v/1", logs.logs[0].OriginURL)
	assert.Nil(t, logs.logs[0].ErrorMessage)
}

func TestLLMEnrichNotRecipe(t *testing.T) {
	fc := &fakeCompleter{text: `{"title":"","summary":"","tips":"","tags":[],"image_prompt":"","error":"dance video"}`}
	e := &LLM{provider: "fake", backend: fc}

	_, err := e.Enrich(context.Background(), sampleFields())
	assert.ErrorIs(t, err, ErrNotRecipe)
}

func TestLLMEnrichBackendErrorIsLogged(t *testing.T) {
	fc := &fakeCompleter{err: errors.New("503 unavailable")}
	logs := &memAILogs{}
	e := &LLM{provider: "fake", backend: fc, logs: logs}

	_, err := e.Enrich(context.Background(), sampleFields())
	require.Error(t, err)
	require.Len(t, logs.logs, 1)
	require.NotNil(t, logs.logs[0].ErrorMessage)
	assert.Contains(t, *logs.logs[0].ErrorMessage, "503")
}

func TestLLMEnrichFallsBackWhenQuotaExhausted(t *testing.T) {
	fc := &fakeCompleter{text: `{"title":"never used"}`}
	q := NewQuota(0, 1)
	e := &LLM{provider: "fake", backend: fc, quota: q}

	_, err := e.Enrich(context.Background(), sampleFields())
	require.NoError(t, err)
	got, err := e.Enrich(context.Background(), sampleFields())
	require.NoError(t, err)

	assert.Equal(t, 1, fc.calls)
	assert.Equal(t, Rewrite(sampleFields()), got)
}
