package models

import "time"

// Category 는 CMS 에 노출되는 레시피 분류이다.
type Category string

const (
	CategoryQuick     Category = "Rápidas"
	CategorySweets    Category = "Doces"
	CategorySavory    Category = "Salgados"
	CategoryDrinks    Category = "Bebidas"
	CategoryVegan     Category = "Vegana"
	CategoryFitness   Category = "Fitness"
	CategoryPasta     Category = "Massas"
	CategoryMeat      Category = "Carnes"
	CategoryDesserts  Category = "Sobremesas"
	CategoryBreakfast Category = "Café da Manhã"
)

type Difficulty string

const (
	DifficultyEasy   Difficulty = "Fácil"
	DifficultyMedium Difficulty = "Médio"
	DifficultyHard   Difficulty = "Difícil"
)

// Priority 는 게시 우선순위이다.
type Priority string

const (
	PriorityNormal    Priority = "normal"
	PriorityHighlight Priority = "highlight"
	PriorityViral     Priority = "viral"
)

// Ingredient is a single ingredient line.
type Ingredient struct {
	Name     string `json:"name" bson:"name" validate:"required"`
	Quantity string `json:"quantity" bson:"quantity"`
	Unit     string `json:"unit" bson:"unit"`
}

type RecipeSource struct {
	Type    SourceType `json:"type" bson:"type"`
	Profile string     `json:"profile" bson:"profile"`
	URL     string     `json:"url" bson:"url"`
}

type Media struct {
	URL     string `json:"url" bson:"url"`
	IsVideo bool   `json:"is_video" bson:"is_video"`
}

// TrendMetrics 는 레시피를 만든 원본 게시물의 지표 스냅샷이다.
type TrendMetrics struct {
	Metrics         `bson:",inline"`
	GrowthRate      float64   `json:"growth_rate_percent" bson:"growth_rate_percent"`
	TimeWindowHours int       `json:"time_window_hours" bson:"time_window_hours"`
	Signals         SignalSet `json:"signals" bson:"signals"`
	Confidence      float64   `json:"confidence" bson:"confidence"`
}

type SocialShort struct {
	TikTokCaption    string `json:"tiktok_caption" bson:"tiktok_caption"`
	InstagramCaption string `json:"instagram_caption" bson:"instagram_caption"`
	ShortScript      string `json:"short_script" bson:"short_script"`
}

// Nutrition 은 1인분 기준의 대략적인 추정치다.
type Nutrition struct {
	Calories int     `json:"calories" bson:"calories"`
	FatG     float64 `json:"fat_g" bson:"fat_g"`
	CarbG    float64 `json:"carb_g" bson:"carb_g"`
	ProteinG float64 `json:"protein_g" bson:"protein_g"`
}

type PublishRecommendation struct {
	Publish  bool     `json:"publish" bson:"publish"`
	Priority Priority `json:"priority" bson:"priority" validate:"oneof=normal highlight viral"`
	Reason   string   `json:"reason,omitempty" bson:"reason,omitempty"`
}

// Recipe 는 바이럴 콘텐츠 하나에서 만들어진 정규화된 레시피 레코드다.
// Duplicate 와 DuplicateFingerprint 는 중복 제거 엔진만 설정한다.
type Recipe struct {
	ID                    string                `json:"id" bson:"_id"`
	Title                 string                `json:"title" bson:"title" validate:"required,min=5,max=120"`
	Slug                  string                `json:"slug" bson:"slug" validate:"required"`
	Summary               string                `json:"summary" bson:"summary" validate:"max=150"`
	Category              Category              `json:"category" bson:"category" validate:"required"`
	Difficulty            Difficulty            `json:"difficulty" bson:"difficulty"`
	Ingredients           []Ingredient          `json:"ingredients" bson:"ingredients" validate:"dive"`
	Instructions          []string              `json:"instructions" bson:"instructions" validate:"dive,required"`
	PrepMinutes           int                   `json:"prep_minutes" bson:"prep_minutes" validate:"gte=0"`
	CookMinutes           int                   `json:"cook_minutes" bson:"cook_minutes" validate:"gte=0"`
	TotalMinutes          int                   `json:"total_minutes" bson:"total_minutes" validate:"gte=0"`
	TotalOverridden       bool                  `json:"total_overridden,omitempty" bson:"total_overridden,omitempty"`
	Servings              string                `json:"servings" bson:"servings"`
	Tips                  string                `json:"tips,omitempty" bson:"tips,omitempty"`
	Tags                  []string              `json:"tags,omitempty" bson:"tags,omitempty"`
	Source                RecipeSource          `json:"source" bson:"source"`
	Media                 Media                 `json:"media" bson:"media"`
	Trend                 TrendMetrics          `json:"trend_metrics" bson:"trend_metrics"`
	Social                SocialShort           `json:"social_short" bson:"social_short"`
	EstimatedCost         string                `json:"estimated_cost,omitempty" bson:"estimated_cost,omitempty"`
	Nutrition             *Nutrition            `json:"nutrition,omitempty" bson:"nutrition,omitempty"`
	ImagePrompt           string                `json:"image_prompt,omitempty" bson:"image_prompt,omitempty"`
	PublishRecommendation PublishRecommendation `json:"publish_recommendation" bson:"publish_recommendation"`
	DuplicateFingerprint  string                `json:"duplicate_fingerprint" bson:"duplicate_fingerprint"`
	Duplicate             bool                  `json:"duplicate" bson:"duplicate"`
	CreatedAt             time.Time             `json:"created_at" bson:"created_at"`
}

// SetTiming 은 준비/조리 시간을 설정하고 총 시간을 prep+cook 으로 맞춘다.
// 음수는 0 으로 보정한다.
func (r *Recipe) SetTiming(prep, cook int) {
	r.PrepMinutes = max(prep, 0)
	r.CookMinutes = max(cook, 0)
	r.TotalMinutes = r.PrepMinutes + r.CookMinutes
	r.TotalOverridden = false
}

// OverrideTotal sets an explicit total that is allowed to differ from prep+cook.
func (r *Recipe) OverrideTotal(total int) {
	r.TotalMinutes = max(total, 0)
	r.TotalOverridden = true
}

// TimingConsistent reports whether the timing invariant holds.
func (r Recipe) TimingConsistent() bool {
	if r.PrepMinutes < 0 || r.CookMinutes < 0 || r.TotalMinutes < 0 {
		return false
	}
	return r.TotalOverridden || r.TotalMinutes == r.PrepMinutes+r.CookMinutes
}

// IngredientNames returns ingredient names in recipe order.
func (r Recipe) IngredientNames() []string {
	names := make([]string, 0, len(r.Ingredients))
	for _, ing := range r.Ingredients {
		names = append(names, ing.Name)
	}
	return names
}
