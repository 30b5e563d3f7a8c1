package enricher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"viral-recipes/config"
	"viral-recipes/models"
	"viral-recipes/parser"
)

const SYSTEM_INSTRUCTION = `
You are an editor for a Brazilian recipe portal. You receive a recipe extracted from a viral
social media post and rewrite it for publication.
The response MUST be a valid JSON object with these keys:

1. title: an attractive, SEO friendly title, 5 to 120 characters, without hashtags or emoji.
2. summary: one or two sentences, no more than 150 characters.
3. tips: one practical tip, or an empty string.
4. tags: a list of 3 to 8 lowercase keywords without '#'.
5. image_prompt: a prompt for a 16:9 food photograph of the finished dish.
6. error: an optional string. If the text is not a recipe, set it to a short reason. Otherwise null.

Additional constraints:
- title, summary and tips MUST be written in Brazilian Portuguese.
- Do NOT invent ingredients or steps that are not in the input.
- You MUST NOT wrap the JSON output in a markdown code block (e.g., ` + "```json ... ```" + `).
- The response should contain ONLY the raw JSON string.
`

// ErrNotRecipe 는 LLM 이 입력을 레시피가 아니라고 판단한 경우다.
var ErrNotRecipe = errors.New("llm judged content is not a recipe")

type rewriteResult struct {
	Title       string   `json:"title"`
	Summary     string   `json:"summary"`
	Tips        string   `json:"tips"`
	Tags        []string `json:"tags"`
	ImagePrompt string   `json:"image_prompt"`
	Error       *string  `json:"error,omitempty"`
}

type completion struct {
	Text         string
	ModelVersion string
	InputTokens  int64
	OutputTokens int64
	TotalTokens  int64
}

// completer 는 프로바이더별 단일 호출이다.
type completer interface {
	complete(ctx context.Context, system, user string) (completion, error)
}

// LLM 은 규칙 기반 결과 위에 LLM 재작성 결과를 덮어쓴다.
// 일일 한도가 소진되면 LLM 호출 없이 규칙 기반 결과를 그대로 돌려준다.
type LLM struct {
	provider string
	model    string
	backend  completer
	quota    *Quota
	logs     AILogRecorder
}

func (e *LLM) Enrich(ctx context.Context, f parser.Fields) (Enriched, error) {
	base := Rewrite(f)

	if e.quota != nil {
		ok, err := e.quota.WaitAndReserve(ctx)
		if err != nil {
			return Enriched{}, fmt.Errorf("llm quota wait: %w", err)
		}
		if !ok {
			config.WarnWithFields("llm daily quota exhausted, using rule-based enrichment", config.Fields{
				"provider":   e.provider,
				"origin_url": f.Content.OriginURL,
			})
			return base, nil
		}
	}

	start := time.Now()
	out, err := e.backend.complete(ctx, SYSTEM_INSTRUCTION, buildPrompt(f, base))
	e.record(ctx, f, start, out, err)
	if err != nil {
		return Enriched{}, fmt.Errorf("%s completion: %w", e.provider, err)
	}

	var r rewriteResult
	if err := json.Unmarshal([]byte(stripCodeFence(out.Text)), &r); err != nil {
		return Enriched{}, fmt.Errorf("%s response decode: %w", e.provider, err)
	}
	if r.Error != nil && *r.Error != "" {
		return Enriched{}, fmt.Errorf("%w: %s", ErrNotRecipe, *r.Error)
	}
	return merge(base, r, f), nil
}

func (e *LLM) record(ctx context.Context, f parser.Fields, start time.Time, out completion, callErr error) {
	if e.logs == nil {
		return
	}
	entry := newAILog(e.provider, e.model, f.Content.OriginURL, start, out, callErr)
	if err := e.logs.InsertAILog(ctx, entry); err != nil {
		config.WarnWithFields("ai log persist failed", config.Fields{"provider": e.provider, "error": err.Error()})
	}
}

func buildPrompt(f parser.Fields, base Enriched) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Título original: %s\n", f.Title)
	fmt.Fprintf(&b, "Categoria: %s\nDificuldade: %s\n", base.Category, base.Difficulty)
	fmt.Fprintf(&b, "Tempo total: %d minutos\nRendimento: %s\n", f.PrepMinutes+f.CookMinutes, f.Servings)
	b.WriteString("Ingredientes:\n")
	for _, ing := range base.Ingredients {
		fmt.Fprintf(&b, "- %s %s %s\n", ing.Quantity, ing.Unit, ing.Name)
	}
	b.WriteString("Modo de preparo:\n")
	for _, step := range base.Instructions {
		fmt.Fprintf(&b, "%s\n", step)
	}
	if f.Tips != "" {
		fmt.Fprintf(&b, "Dica: %s\n", f.Tips)
	}
	fmt.Fprintf(&b, "Visualizações: %d\n", f.Content.Metrics.Views)
	return b.String()
}

// merge 는 비어 있지 않은 LLM 필드만 덮어쓴다. 길이 제한은 규칙 기반과 같다.
func merge(base Enriched, r rewriteResult, f parser.Fields) Enriched {
	if t := parser.CleanText(parser.StripHashtags(r.Title)); t != "" {
		base.Title = parser.Truncate(t, maxTitleRunes)
		base.Social = Social(base.Title)
		base.Summary = Summary(base.Title, f.PrepMinutes+f.CookMinutes, f.Content.Metrics.Views)
	}
	if s := strings.TrimSpace(r.Summary); s != "" {
		base.Summary = parser.Truncate(s, maxSummaryRunes)
	}
	if tip := strings.TrimSpace(r.Tips); tip != "" {
		base.Tips = tip
	}
	if len(r.Tags) > 0 {
		base.Tags = limitTags(mergeTags(base.Tags, r.Tags))
	}
	if p := strings.TrimSpace(r.ImagePrompt); p != "" {
		base.ImagePrompt = parser.Truncate(p, maxPromptRunes)
	}
	return base
}

func mergeTags(lists ...[]string) []string {
	var out []string
	seen := map[string]struct{}{}
	for _, list := range lists {
		for _, t := range list {
			t = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(t), "#"))
			if _, ok := seen[t]; ok || t == "" {
				continue
			}
			seen[t] = struct{}{}
			out = append(out, t)
		}
	}
	return out
}

func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

func newAILog(provider, model, originURL string, start time.Time, out completion, callErr error) models.AILog {
	end := time.Now()
	entry := models.AILog{
		ID:             uuid.NewString(),
		Provider:       provider,
		ModelName:      model,
		ModelVersion:   out.ModelVersion,
		OriginURL:      originURL,
		InputTokens:    out.InputTokens,
		OutputTokens:   out.OutputTokens,
		TotalTokens:    out.TotalTokens,
		DurationMs:     end.Sub(start).Milliseconds(),
		OutputResponse: out.Text,
		RequestedAt:    start,
		CompletedAt:    end,
	}
	if callErr != nil {
		msg := callErr.Error()
		entry.ErrorMessage = &msg
	}
	return entry
}
