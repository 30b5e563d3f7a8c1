package repositories

import (
	"context"
	"slices"
	"strings"

	"viral-recipes/db"
	"viral-recipes/models"
)

type PendingRepository struct {
	col collection[models.PendingRecipe]
}

func NewPendingRepository(store db.Store) *PendingRepository {
	return &PendingRepository{col: newCollection[models.PendingRecipe](store, "pending_recipes")}
}

func (r *PendingRepository) SavePending(ctx context.Context, p models.PendingRecipe) error {
	return r.col.put(ctx, p.ID, p)
}

func (r *PendingRepository) GetPending(ctx context.Context, id string) (models.PendingRecipe, error) {
	return r.col.get(ctx, id)
}

// ListPendingRecipes 는 결정 여부와 관계없이 등록 순서대로 모두 반환한다.
func (r *PendingRepository) ListPendingRecipes(ctx context.Context) ([]models.PendingRecipe, error) {
	all, err := r.col.all(ctx)
	if err != nil {
		return nil, err
	}
	slices.SortStableFunc(all, func(a, b models.PendingRecipe) int {
		if c := a.EnqueuedAt.Compare(b.EnqueuedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return all, nil
}
