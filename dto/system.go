package dto

import (
	"viral-recipes/models"
	"viral-recipes/orchestrator"
	"viral-recipes/publisher"
)

// StatusDTO 는 오케스트레이터와 게시 모듈 상태를 함께 보여준다.
type StatusDTO struct {
	Orchestrator orchestrator.Status `json:"orchestrator"`
	Publisher    publisher.Stats     `json:"publisher"`
	CMSBreaker   string              `json:"cms_breaker,omitempty"`
	PendingCount int                 `json:"pending_count"`
}

type CycleDTO struct {
	models.CycleStats
	DurationMs int64 `json:"duration_ms"`
}

func NewCycleDTO(s models.CycleStats) CycleDTO {
	return CycleDTO{CycleStats: s, DurationMs: s.Duration().Milliseconds()}
}
