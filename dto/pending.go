package dto

import (
	"time"

	"viral-recipes/models"
)

type PendingDTO struct {
	ID         string               `json:"id"`
	Status     models.PendingStatus `json:"status"`
	Reason     string               `json:"reason,omitempty"`
	EnqueuedAt time.Time            `json:"enqueued_at"`
	DecidedAt  *time.Time           `json:"decided_at,omitempty"`
	Recipe     models.Recipe        `json:"recipe"`
}

func NewPendingDTO(p models.PendingRecipe) PendingDTO {
	return PendingDTO{
		ID:         p.ID,
		Status:     p.Status,
		Reason:     p.Reason,
		EnqueuedAt: p.EnqueuedAt,
		DecidedAt:  p.DecidedAt,
		Recipe:     p.Recipe,
	}
}

// RejectPendingRequest 는 반려 요청 본문이다. 본문이 없어도 된다.
type RejectPendingRequest struct {
	Reason string `json:"reason" binding:"max=500" example:"foto de baixa qualidade"`
}
