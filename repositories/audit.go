package repositories

import (
	"context"
	"errors"
	"slices"
	"time"

	"github.com/google/uuid"

	"viral-recipes/db"
	"viral-recipes/models"
)

type AuditRepository struct {
	col collection[models.AuditEntry]
}

func NewAuditRepository(store db.Store) *AuditRepository {
	return &AuditRepository{col: newCollection[models.AuditEntry](store, "audit_log")}
}

// Insert 는 ID 가 같은 항목이 이미 있으면 건너뛴다. 재전달된 이벤트가 중복 기록되지 않는다.
func (r *AuditRepository) Insert(ctx context.Context, e models.AuditEntry) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.RecordedAt.IsZero() {
		e.RecordedAt = time.Now().UTC()
	}
	_, err := r.col.get(ctx, e.ID)
	if err == nil {
		return nil
	}
	if !errors.Is(err, db.ErrNotFound) {
		return err
	}
	return r.col.put(ctx, e.ID, e)
}

// Recent 는 최근 발생 순으로 limit 개를 반환한다. limit<=0 이면 전부.
func (r *AuditRepository) Recent(ctx context.Context, limit int) ([]models.AuditEntry, error) {
	all, err := r.col.all(ctx)
	if err != nil {
		return nil, err
	}
	slices.SortStableFunc(all, func(a, b models.AuditEntry) int {
		return b.OccurredAt.Compare(a.OccurredAt)
	})
	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}
