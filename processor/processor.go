// Package processor 는 바이럴 판정을 받은 콘텐츠를 정규화된 Recipe 로 만든다.
package processor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"viral-recipes/config"
	"viral-recipes/enricher"
	"viral-recipes/models"
	"viral-recipes/parser"
)

type Options struct {
	MinIngredients       int
	MinInstructions      int
	MinPublishConfidence float64
	TimeWindowHours      int
	Now                  func() time.Time
}

func OptionsFromConfig(cfg config.AppConfig) Options {
	return Options{
		MinIngredients:       cfg.Extraction.MinIngredients,
		MinInstructions:      cfg.Extraction.MinInstructions,
		MinPublishConfidence: cfg.Publish.MinPublishConfidence,
		TimeWindowHours:      cfg.Viral.TimeWindowHours,
	}
}

// Processor 는 추출 → 보강 → 정규화 → 검증 순서로 Recipe 를 만든다.
// 상태가 없으므로 여러 워커가 동시에 써도 된다.
type Processor struct {
	enricher enricher.Enricher
	opts     Options
	validate *validator.Validate
}

func New(e enricher.Enricher, opts Options) *Processor {
	if e == nil {
		e = enricher.NewRules()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Processor{
		enricher: e,
		opts:     opts,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// Process 는 판정 하나를 Recipe 로 만든다.
// 필수 필드가 없으면 *MissingFieldsError, 보강/검증 실패는 ErrEnrichmentFailure 를 감싼다.
func (p *Processor) Process(ctx context.Context, v models.ViralVerdict) (models.Recipe, error) {
	fields := parser.Extract(v.Content)
	if missing := p.missing(fields.Title, fields.Ingredients, fields.Instructions); len(missing) > 0 {
		return models.Recipe{}, &MissingFieldsError{Missing: missing}
	}

	en, err := p.enricher.Enrich(ctx, fields)
	if err != nil {
		var mf *MissingFieldsError
		if errors.As(err, &mf) {
			return models.Recipe{}, err
		}
		return models.Recipe{}, fmt.Errorf("%w: %w", ErrEnrichmentFailure, err)
	}

	recipe := p.Build(v, fields, en)
	if missing := p.missing(recipe.Title, recipe.Ingredients, recipe.Instructions); len(missing) > 0 {
		return models.Recipe{}, &MissingFieldsError{Missing: missing}
	}
	if err := p.Validate(recipe); err != nil {
		return models.Recipe{}, fmt.Errorf("%w: %w", ErrEnrichmentFailure, err)
	}
	return recipe, nil
}

func (p *Processor) missing(title string, ingredients []models.Ingredient, instructions []string) []string {
	var out []string
	if strings.TrimSpace(title) == "" {
		out = append(out, "title")
	}
	if len(ingredients) == 0 || len(ingredients) < p.opts.MinIngredients {
		out = append(out, "ingredients")
	}
	if len(instructions) == 0 || len(instructions) < p.opts.MinInstructions {
		out = append(out, "instructions")
	}
	return out
}

// Build 는 추출값 위에 보강값을 덮어 Recipe 를 조립한다. 중복 관련 필드는 비워 둔다.
func (p *Processor) Build(v models.ViralVerdict, f parser.Fields, en enricher.Enriched) models.Recipe {
	c := v.Content

	r := models.Recipe{
		ID:            uuid.NewString(),
		Title:         firstNonEmpty(en.Title, f.Title),
		Summary:       en.Summary,
		Category:      models.Category(firstNonEmpty(string(en.Category), string(f.Category))),
		Difficulty:    models.Difficulty(firstNonEmpty(string(en.Difficulty), string(f.Difficulty))),
		Ingredients:   en.Ingredients,
		Instructions:  en.Instructions,
		Servings:      f.Servings,
		Tips:          firstNonEmpty(en.Tips, f.Tips),
		Tags:          en.Tags,
		Social:        en.Social,
		EstimatedCost: en.EstimatedCost,
		Nutrition:     en.Nutrition,
		ImagePrompt:   en.ImagePrompt,
		Source: models.RecipeSource{
			Type:    c.SourceType,
			Profile: c.SourceProfile,
			URL:     c.OriginURL,
		},
		Media: models.Media{URL: c.MediaURL, IsVideo: isVideo(c)},
		Trend: models.TrendMetrics{
			Metrics:         c.Metrics,
			GrowthRate:      v.GrowthRate,
			TimeWindowHours: p.opts.TimeWindowHours,
			Signals:         append(models.SignalSet(nil), v.Signals...),
			Confidence:      v.Confidence,
		},
		PublishRecommendation: Recommend(v.Confidence, p.opts.MinPublishConfidence),
		CreatedAt:             p.opts.Now().UTC(),
	}
	if len(r.Ingredients) == 0 {
		r.Ingredients = f.Ingredients
	}
	if len(r.Instructions) == 0 {
		r.Instructions = f.Instructions
	}
	if len(r.Tags) == 0 {
		r.Tags = f.Hashtags
	}
	r.SetTiming(f.PrepMinutes, f.CookMinutes)
	r.Slug = Slug(r.Title, c.OriginURL)
	return r
}

// Validate 는 struct tag 규칙(제목 5~120자, 요약 150자 이하 등)과 시간 불변식을 검사한다.
func (p *Processor) Validate(r models.Recipe) error {
	if err := p.validate.Struct(r); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			names := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				names = append(names, fmt.Sprintf("%s(%s)", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("recipe validation: %s", strings.Join(names, ", "))
		}
		return err
	}
	if !r.TimingConsistent() {
		return fmt.Errorf("recipe validation: total %d != prep %d + cook %d", r.TotalMinutes, r.PrepMinutes, r.CookMinutes)
	}
	return nil
}

func isVideo(c models.RawContent) bool {
	u := strings.ToLower(c.MediaURL)
	if u == "" {
		return false
	}
	return strings.Contains(u, "video") || strings.HasSuffix(u, ".mp4") || strings.HasSuffix(u, ".mov") ||
		c.SourceType == models.SourceTikTok
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
