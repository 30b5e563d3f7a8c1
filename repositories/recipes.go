package repositories

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"viral-recipes/db"
	"viral-recipes/models"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

type RecipeRepository struct {
	col collection[models.RecipeRecord]
}

func NewRecipeRepository(store db.Store) *RecipeRepository {
	return &RecipeRepository{col: newCollection[models.RecipeRecord](store, "recipes")}
}

// SaveRecipeRecord upserts a record by recipe ID. RoutedAt of an existing record is kept.
func (r *RecipeRepository) SaveRecipeRecord(ctx context.Context, rec models.RecipeRecord) error {
	if rec.ID == "" {
		return errors.New("recipe record without id")
	}
	if prev, err := r.col.get(ctx, rec.ID); err == nil && !prev.RoutedAt.IsZero() {
		rec.RoutedAt = prev.RoutedAt
	} else if err != nil && !errors.Is(err, db.ErrNotFound) {
		return err
	}
	return r.col.put(ctx, rec.ID, rec)
}

func (r *RecipeRepository) FindByID(ctx context.Context, id string) (models.RecipeRecord, error) {
	return r.col.get(ctx, id)
}

// FindBySlug 는 slug 가 같은 레코드 중 가장 최근 라우팅된 것을 반환한다.
func (r *RecipeRepository) FindBySlug(ctx context.Context, slug string) (models.RecipeRecord, error) {
	all, err := r.col.all(ctx)
	if err != nil {
		return models.RecipeRecord{}, err
	}
	var found *models.RecipeRecord
	for i := range all {
		if all[i].Recipe.Slug != slug {
			continue
		}
		if found == nil || all[i].RoutedAt.After(found.RoutedAt) {
			found = &all[i]
		}
	}
	if found == nil {
		return models.RecipeRecord{}, fmt.Errorf("recipes/slug=%s: %w", slug, db.ErrNotFound)
	}
	return *found, nil
}

// ListRecipesOptions 는 목록 조회 필터다. 빈 값은 필터하지 않는다.
type ListRecipesOptions struct {
	Page     int
	PageSize int
	Category string
	Status   models.PublishStatus
	Tag      string
}

// List 는 최근 라우팅 순으로 페이지를 반환한다. 두 번째 반환값은 필터 후 전체 개수다.
func (r *RecipeRepository) List(ctx context.Context, opt ListRecipesOptions) ([]models.RecipeRecord, int64, error) {
	all, err := r.col.all(ctx)
	if err != nil {
		return nil, 0, err
	}

	filtered := all[:0]
	for _, rec := range all {
		if opt.Category != "" && !strings.EqualFold(string(rec.Recipe.Category), opt.Category) {
			continue
		}
		if opt.Status != "" && rec.Status != opt.Status {
			continue
		}
		if opt.Tag != "" && !slices.ContainsFunc(rec.Recipe.Tags, func(t string) bool { return strings.EqualFold(t, opt.Tag) }) {
			continue
		}
		filtered = append(filtered, rec)
	}
	slices.SortStableFunc(filtered, func(a, b models.RecipeRecord) int {
		if c := b.RoutedAt.Compare(a.RoutedAt); c != 0 {
			return c
		}
		return strings.Compare(b.ID, a.ID)
	})

	if opt.Page <= 0 {
		opt.Page = 1
	}
	if opt.PageSize <= 0 || opt.PageSize > maxPageSize {
		opt.PageSize = defaultPageSize
	}
	total := int64(len(filtered))
	start := (opt.Page - 1) * opt.PageSize
	if start >= len(filtered) {
		return []models.RecipeRecord{}, total, nil
	}
	end := min(start+opt.PageSize, len(filtered))
	return filtered[start:end], total, nil
}

// Top 은 게시된 레시피를 조회수 내림차순으로 limit 개 반환한다.
func (r *RecipeRepository) Top(ctx context.Context, limit int) ([]models.RecipeRecord, error) {
	all, err := r.col.all(ctx)
	if err != nil {
		return nil, err
	}
	published := all[:0]
	for _, rec := range all {
		if rec.Status == models.PublishStatusPublished {
			published = append(published, rec)
		}
	}
	slices.SortStableFunc(published, func(a, b models.RecipeRecord) int {
		if a.Recipe.Trend.Views != b.Recipe.Trend.Views {
			if a.Recipe.Trend.Views > b.Recipe.Trend.Views {
				return -1
			}
			return 1
		}
		return b.RoutedAt.Compare(a.RoutedAt)
	})
	if limit > 0 && len(published) > limit {
		published = published[:limit]
	}
	return published, nil
}
