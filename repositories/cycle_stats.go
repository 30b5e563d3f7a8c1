package repositories

import (
	"context"
	"fmt"

	"viral-recipes/db"
	"viral-recipes/models"
)

// CycleStatsRepository 는 사이클 통계를 seq 순으로 보관한다.
// 키는 0 으로 채운 seq 라서 키 정렬이 곧 시간 순서다.
type CycleStatsRepository struct {
	col collection[models.CycleStats]
}

func NewCycleStatsRepository(store db.Store) *CycleStatsRepository {
	return &CycleStatsRepository{col: newCollection[models.CycleStats](store, "cycle_stats")}
}

func seqKey(seq int64) string {
	return fmt.Sprintf("%020d", seq)
}

// Append 는 통계를 저장하고 가장 최근 keep 개만 남긴다. keep<=0 이면 자르지 않는다.
func (r *CycleStatsRepository) Append(ctx context.Context, stats models.CycleStats, keep int) error {
	if err := r.col.put(ctx, seqKey(stats.Seq), stats); err != nil {
		return err
	}
	if keep <= 0 {
		return nil
	}
	keys, err := r.col.keys(ctx)
	if err != nil {
		return err
	}
	if len(keys) <= keep {
		return nil
	}
	return r.col.delete(ctx, keys[:len(keys)-keep]...)
}

// List 는 오래된 것부터 반환한다.
func (r *CycleStatsRepository) List(ctx context.Context) ([]models.CycleStats, error) {
	return r.col.all(ctx)
}

// Last 는 가장 최근 통계를 반환한다. 없으면 ok=false.
func (r *CycleStatsRepository) Last(ctx context.Context) (models.CycleStats, bool, error) {
	all, err := r.col.all(ctx)
	if err != nil || len(all) == 0 {
		return models.CycleStats{}, false, err
	}
	return all[len(all)-1], true, nil
}
