package dto

import (
	"time"

	"viral-recipes/models"
)

// RecipeDTO 는 목록 응답용 요약이다. 전체 레시피는 RecipeDetailDTO 로 내려준다.
type RecipeDTO struct {
	ID         string               `json:"id"`
	Slug       string               `json:"slug"`
	Title      string               `json:"title"`
	Summary    string               `json:"summary"`
	Category   models.Category      `json:"category"`
	Difficulty models.Difficulty    `json:"difficulty"`
	Platform   models.SourceType    `json:"platform"`
	OriginURL  string               `json:"origin_url"`
	MediaURL   string               `json:"media_url,omitempty"`
	Views      int64                `json:"views"`
	Confidence float64              `json:"confidence"`
	Priority   models.Priority      `json:"priority"`
	Status     models.PublishStatus `json:"status"`
	Attempts   int                  `json:"attempts"`
	Reason     string               `json:"reason,omitempty"`
	RoutedAt   time.Time            `json:"routed_at"`
}

func NewRecipeDTO(rec models.RecipeRecord) RecipeDTO {
	r := rec.Recipe
	return RecipeDTO{
		ID:         rec.ID,
		Slug:       r.Slug,
		Title:      r.Title,
		Summary:    r.Summary,
		Category:   r.Category,
		Difficulty: r.Difficulty,
		Platform:   r.Source.Type,
		OriginURL:  r.Source.URL,
		MediaURL:   r.Media.URL,
		Views:      r.Trend.Views,
		Confidence: r.Trend.Confidence,
		Priority:   r.PublishRecommendation.Priority,
		Status:     rec.Status,
		Attempts:   rec.Attempts,
		Reason:     rec.Reason,
		RoutedAt:   rec.RoutedAt,
	}
}

type RecipeDetailDTO struct {
	RecipeDTO
	Recipe models.Recipe `json:"recipe"`
}

func NewRecipeDetailDTO(rec models.RecipeRecord) RecipeDetailDTO {
	return RecipeDetailDTO{RecipeDTO: NewRecipeDTO(rec), Recipe: rec.Recipe}
}
