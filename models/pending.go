package models

import "time"

type PendingStatus string

const (
	PendingStatusPending  PendingStatus = "pending"
	PendingStatusApproved PendingStatus = "approved"
	PendingStatusRejected PendingStatus = "rejected"
)

// PendingRecipe 는 관리자 승인을 기다리는 레시피다.
type PendingRecipe struct {
	ID         string        `json:"id" bson:"_id"`
	Recipe     Recipe        `json:"recipe" bson:"recipe"`
	Status     PendingStatus `json:"status" bson:"status"`
	Reason     string        `json:"reason,omitempty" bson:"reason,omitempty"`
	EnqueuedAt time.Time     `json:"enqueued_at" bson:"enqueued_at"`
	DecidedAt  *time.Time    `json:"decided_at,omitempty" bson:"decided_at,omitempty"`
}

// PublishStatus 는 라우팅이 끝난 레시피의 최종 상태다.
type PublishStatus string

const (
	PublishStatusPublished PublishStatus = "published"
	PublishStatusQueued    PublishStatus = "queued"
	PublishStatusRejected  PublishStatus = "rejected"
	PublishStatusDuplicate PublishStatus = "duplicate"
)

// RecipeRecord 는 처리된 레시피와 라우팅 결과를 함께 저장한 레코드다. ID 는 Recipe.ID 와 같다.
type RecipeRecord struct {
	ID        string        `json:"id" bson:"_id"`
	Recipe    Recipe        `json:"recipe" bson:"recipe"`
	Status    PublishStatus `json:"status" bson:"status"`
	Attempts  int           `json:"attempts" bson:"attempts"`
	Reason    string        `json:"reason,omitempty" bson:"reason,omitempty"`
	RoutedAt  time.Time     `json:"routed_at" bson:"routed_at"`
	UpdatedAt time.Time     `json:"updated_at" bson:"updated_at"`
}
