package repositories

import (
	"cmp"
	"context"
	"slices"

	"viral-recipes/db"
	"viral-recipes/models"
)

// DedupRecordRepository 는 중복 제거 윈도우를 지문 키로 저장한다.
type DedupRecordRepository struct {
	col collection[models.DedupRecord]
}

func NewDedupRecordRepository(store db.Store) *DedupRecordRepository {
	return &DedupRecordRepository{col: newCollection[models.DedupRecord](store, "dedup_records")}
}

// LoadRecords returns the window in insertion order (Seq, then InsertedAt for records
// written before Seq existed).
func (r *DedupRecordRepository) LoadRecords(ctx context.Context) ([]models.DedupRecord, error) {
	recs, err := r.col.all(ctx)
	if err != nil {
		return nil, err
	}
	slices.SortStableFunc(recs, func(a, b models.DedupRecord) int {
		return cmp.Or(cmp.Compare(a.Seq, b.Seq), a.InsertedAt.Compare(b.InsertedAt))
	})
	return recs, nil
}

func (r *DedupRecordRepository) InsertRecord(ctx context.Context, rec models.DedupRecord) error {
	return r.col.put(ctx, rec.Fingerprint, rec)
}

func (r *DedupRecordRepository) DeleteRecords(ctx context.Context, fingerprints []string) error {
	return r.col.delete(ctx, fingerprints...)
}
