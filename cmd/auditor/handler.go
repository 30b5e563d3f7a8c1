package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"viral-recipes/config"
	"viral-recipes/eventbus"
	"viral-recipes/events"
	"viral-recipes/models"
)

type auditStore interface {
	Insert(ctx context.Context, e models.AuditEntry) error
}

// auditHandler 는 도메인 이벤트를 감사 로그 항목으로 저장한다.
// 항목 ID 는 이벤트 ID 라서 재전달된 이벤트는 한 번만 기록된다.
type auditHandler struct {
	store auditStore
	now   func() time.Time
}

func newAuditHandler(store auditStore) *auditHandler {
	return &auditHandler{store: store, now: time.Now}
}

func (h *auditHandler) HandleRecipe(ctx context.Context, ev events.RecipeEvent, meta eventbus.Event) error {
	var detail []string
	if ev.Title != "" {
		detail = append(detail, "title="+ev.Title)
	}
	if ev.Reason != "" {
		detail = append(detail, "reason="+ev.Reason)
	}
	if ev.Attempts > 0 {
		detail = append(detail, fmt.Sprintf("attempts=%d", ev.Attempts))
	}
	if ev.PendingID != "" {
		detail = append(detail, "pending_id="+ev.PendingID)
	}
	entry := models.AuditEntry{
		ID:          ev.ID,
		EventType:   string(ev.Type),
		RecipeSlug:  ev.Slug,
		Fingerprint: ev.Fingerprint,
		Detail:      strings.Join(detail, " "),
		OccurredAt:  ev.Timestamp,
		RecordedAt:  h.now().UTC(),
	}
	if err := h.store.Insert(ctx, entry); err != nil {
		return fmt.Errorf("audit %s: %w", ev.ID, err)
	}
	config.DebugWithFields("audit entry recorded", config.Fields{"event_id": ev.ID, "type": string(ev.Type), "slug": ev.Slug})
	return nil
}

func (h *auditHandler) HandleCycle(ctx context.Context, ev events.CycleCompletedEvent, meta eventbus.Event) error {
	s := ev.Stats
	entry := models.AuditEntry{
		ID:        ev.ID,
		EventType: string(ev.Type),
		Detail: fmt.Sprintf("cycle=%d scanned=%d viral=%d processed=%d duplicates=%d published=%d queued=%d rejected=%d errors=%d",
			s.Seq, s.Scanned, s.ViralDetected, s.Processed, s.DuplicatesDropped, s.Published, s.QueuedForReview, s.Rejected, s.Errors),
		OccurredAt: ev.Timestamp,
		RecordedAt: h.now().UTC(),
	}
	if err := h.store.Insert(ctx, entry); err != nil {
		return fmt.Errorf("audit %s: %w", ev.ID, err)
	}
	return nil
}
