package models

import "time"

// CycleStats 는 사이클 하나의 집계 결과다. 사이클 종료 후에는 수정하지 않는다.
type CycleStats struct {
	Seq               int64             `json:"seq" bson:"seq"`
	Scanned           int               `json:"scanned" bson:"scanned"`
	ViralDetected     int               `json:"viral_detected" bson:"viral_detected"`
	Processed         int               `json:"processed" bson:"processed"`
	DuplicatesDropped int               `json:"duplicates_dropped" bson:"duplicates_dropped"`
	Published         int               `json:"published" bson:"published"`
	QueuedForReview   int               `json:"queued_for_review" bson:"queued_for_review"`
	Rejected          int               `json:"rejected" bson:"rejected"`
	Errors            int               `json:"errors" bson:"errors"`
	SourceErrors      map[string]string `json:"source_errors,omitempty" bson:"source_errors,omitempty"`
	StartedAt         time.Time         `json:"started_at" bson:"started_at"`
	EndedAt           time.Time         `json:"ended_at" bson:"ended_at"`
}

func (s CycleStats) Duration() time.Duration {
	if s.EndedAt.IsZero() {
		return 0
	}
	return s.EndedAt.Sub(s.StartedAt)
}
