package repositories

import (
	"context"
	"slices"

	"github.com/google/uuid"

	"viral-recipes/db"
	"viral-recipes/models"
)

type AILogRepository struct {
	col collection[models.AILog]
}

func NewAILogRepository(store db.Store) *AILogRepository {
	return &AILogRepository{col: newCollection[models.AILog](store, "ai_logs")}
}

// InsertAILog inserts a new AI log document.
func (r *AILogRepository) InsertAILog(ctx context.Context, log models.AILog) error {
	if log.ID == "" {
		log.ID = uuid.NewString()
	}
	return r.col.put(ctx, log.ID, log)
}

// Recent 는 최근 요청 순으로 limit 개를 반환한다.
func (r *AILogRepository) Recent(ctx context.Context, limit int) ([]models.AILog, error) {
	all, err := r.col.all(ctx)
	if err != nil {
		return nil, err
	}
	slices.SortStableFunc(all, func(a, b models.AILog) int {
		return b.RequestedAt.Compare(a.RequestedAt)
	})
	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}
