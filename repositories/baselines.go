package repositories

import (
	"context"
	"errors"

	"viral-recipes/db"
	"viral-recipes/models"
)

type baselineDoc struct {
	OriginURL    string                      `json:"origin_url"`
	Observations []models.MetricsObservation `json:"observations"`
}

// BaselineRepository 는 URL 별 지표 관측 이력을 저장한다. 성장률 기준점으로 쓰인다.
type BaselineRepository struct {
	col collection[baselineDoc]
}

func NewBaselineRepository(store db.Store) *BaselineRepository {
	return &BaselineRepository{col: newCollection[baselineDoc](store, "metrics_baselines")}
}

// LoadObservations 는 이력이 없으면 nil 을 반환한다.
func (r *BaselineRepository) LoadObservations(ctx context.Context, originURL string) ([]models.MetricsObservation, error) {
	doc, err := r.col.get(ctx, originURL)
	if errors.Is(err, db.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return doc.Observations, nil
}

func (r *BaselineRepository) SaveObservations(ctx context.Context, originURL string, obs []models.MetricsObservation) error {
	if len(obs) == 0 {
		return r.col.delete(ctx, originURL)
	}
	return r.col.put(ctx, originURL, baselineDoc{OriginURL: originURL, Observations: obs})
}
