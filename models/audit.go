package models

import "time"

// AuditEntry is one line of the recipe audit trail written by the auditor.
type AuditEntry struct {
	ID          string    `json:"id" bson:"_id"`
	EventType   string    `json:"event_type" bson:"event_type"`
	RecipeSlug  string    `json:"recipe_slug,omitempty" bson:"recipe_slug,omitempty"`
	Fingerprint string    `json:"fingerprint,omitempty" bson:"fingerprint,omitempty"`
	Detail      string    `json:"detail,omitempty" bson:"detail,omitempty"`
	OccurredAt  time.Time `json:"occurred_at" bson:"occurred_at"`
	RecordedAt  time.Time `json:"recorded_at" bson:"recorded_at"`
}

// AILog stores LLM usage logs of the enrichment stage (system monitoring purpose)
type AILog struct {
	ID             string    `json:"id" bson:"_id"`
	Provider       string    `json:"provider" bson:"provider"`
	ModelName      string    `json:"model_name" bson:"model_name"`
	ModelVersion   string    `json:"model_version,omitempty" bson:"model_version,omitempty"`
	OriginURL      string    `json:"origin_url" bson:"origin_url"`
	InputTokens    int64     `json:"input_tokens" bson:"input_tokens"`
	OutputTokens   int64     `json:"output_tokens" bson:"output_tokens"`
	TotalTokens    int64     `json:"total_tokens" bson:"total_tokens"`
	DurationMs     int64     `json:"duration_ms" bson:"duration_ms"`
	ErrorMessage   *string   `json:"error_message,omitempty" bson:"error_message,omitempty"`
	OutputResponse string    `json:"output_response" bson:"output_response"`
	RequestedAt    time.Time `json:"requested_at" bson:"requested_at"`
	CompletedAt    time.Time `json:"completed_at" bson:"completed_at"`
}
