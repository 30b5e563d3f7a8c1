package dto

// Pagination is a generic pagination envelope for list results.
// Page is 1-based; Total is the number of items matching the filters.
type Pagination[T any] struct {
	Data     []T   `json:"data"`
	Page     int   `json:"page"`
	PageSize int   `json:"page_size"`
	Total    int64 `json:"total"`
}

// PaginationRecipeDTO is a concrete swagger-friendly type for paginated recipes response
// swagger:model PaginationRecipeDTO
type PaginationRecipeDTO struct {
	Data     []RecipeDTO `json:"data"`
	Page     int         `json:"page"`
	PageSize int         `json:"page_size"`
	Total    int64       `json:"total"`
}
