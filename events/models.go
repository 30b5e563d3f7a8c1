package events

import (
	"time"

	"viral-recipes/models"
)

// EventType 은 도메인 이벤트 종류다. eventbus.Event.Type 에 그대로 들어간다.
type EventType string

const (
	// 레시피 라우팅 결과
	RecipePublished EventType = "recipe.published"
	RecipeQueued    EventType = "recipe.queued"
	RecipeRejected  EventType = "recipe.rejected"
	RecipeDuplicate EventType = "recipe.duplicate"
	// 관리자 결정
	RecipeApproved    EventType = "recipe.approved"
	RecipeDisapproved EventType = "recipe.disapproved"

	CycleCompleted EventType = "cycle.completed"
)

// BaseEvent 모든 이벤트의 기본 구조
type BaseEvent struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Source    string    `json:"source"` // "orchestrator", "api" 등
	Version   string    `json:"version"`
}

func (e BaseEvent) GetType() EventType {
	return e.Type
}

// RecipeEvent 는 레시피 하나의 라우팅/승인 결과다.
type RecipeEvent struct {
	BaseEvent
	RecipeID    string          `json:"recipe_id"`
	Slug        string          `json:"slug"`
	Title       string          `json:"title"`
	OriginURL   string          `json:"origin_url"`
	Fingerprint string          `json:"fingerprint,omitempty"`
	Priority    models.Priority `json:"priority,omitempty"`
	Attempts    int             `json:"attempts,omitempty"`
	Reason      string          `json:"reason,omitempty"`
	PendingID   string          `json:"pending_id,omitempty"`
}

// CycleCompletedEvent 사이클 종료 시 발행되는 통계 이벤트
type CycleCompletedEvent struct {
	BaseEvent
	Stats models.CycleStats `json:"stats"`
}
