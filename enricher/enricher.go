// Package enricher 는 추출된 레시피 필드를 게시 가능한 형태로 다듬는다.
package enricher

import (
	"context"

	"viral-recipes/models"
	"viral-recipes/parser"
)

// Enriched 는 재작성/보강 결과다. 빈 필드는 processor 가 추출값으로 채운다.
type Enriched struct {
	Title         string
	Summary       string
	Category      models.Category
	Difficulty    models.Difficulty
	Ingredients   []models.Ingredient
	Instructions  []string
	Tips          string
	Tags          []string
	Social        models.SocialShort
	EstimatedCost string
	Nutrition     *models.Nutrition
	ImagePrompt   string
}

// Enricher 는 추출 필드를 보강한다. 구현체는 ctx 의 deadline 을 지켜야 한다.
type Enricher interface {
	Enrich(ctx context.Context, f parser.Fields) (Enriched, error)
}

// AILogRecorder persists per-call LLM usage. Implementations must be safe for concurrent use.
type AILogRecorder interface {
	InsertAILog(ctx context.Context, log models.AILog) error
}
