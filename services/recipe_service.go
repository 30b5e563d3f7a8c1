package services

import (
	"context"
	"strings"

	"viral-recipes/dto"
	"viral-recipes/models"
	"viral-recipes/repositories"
)

// RecipeService encapsulates recipe queries and DTO mapping
type RecipeService struct {
	repo *repositories.RecipeRepository
}

func NewRecipeService(repo *repositories.RecipeRepository) *RecipeService {
	return &RecipeService{repo: repo}
}

type ListRecipesInput struct {
	Page     int
	PageSize int
	Category string
	Status   string
	Tag      string
}

func (s *RecipeService) List(ctx context.Context, in ListRecipesInput) (dto.Pagination[dto.RecipeDTO], error) {
	items, total, err := s.repo.List(ctx, repositories.ListRecipesOptions{
		Page:     in.Page,
		PageSize: in.PageSize,
		Category: in.Category,
		Status:   models.PublishStatus(strings.ToLower(in.Status)),
		Tag:      in.Tag,
	})
	if err != nil {
		return dto.Pagination[dto.RecipeDTO]{}, err
	}
	out := make([]dto.RecipeDTO, 0, len(items))
	for _, rec := range items {
		out = append(out, dto.NewRecipeDTO(rec))
	}
	page, size := in.Page, in.PageSize
	if page <= 0 {
		page = 1
	}
	if size <= 0 || size > 100 {
		size = 20
	}
	return dto.Pagination[dto.RecipeDTO]{Data: out, Page: page, PageSize: size, Total: total}, nil
}

// Top 은 게시된 레시피 중 조회수가 높은 순서로 반환한다.
func (s *RecipeService) Top(ctx context.Context, limit int) ([]dto.RecipeDTO, error) {
	if limit <= 0 || limit > 50 {
		limit = 10
	}
	items, err := s.repo.Top(ctx, limit)
	if err != nil {
		return nil, err
	}
	out := make([]dto.RecipeDTO, 0, len(items))
	for _, rec := range items {
		out = append(out, dto.NewRecipeDTO(rec))
	}
	return out, nil
}

func (s *RecipeService) GetBySlug(ctx context.Context, slug string) (*dto.RecipeDetailDTO, error) {
	rec, err := s.repo.FindBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	d := dto.NewRecipeDetailDTO(rec)
	return &d, nil
}
