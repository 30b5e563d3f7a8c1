// Package parser 는 캡션/설명 텍스트에서 레시피 필드를 규칙 기반으로 추출한다.
package parser

import "viral-recipes/models"

// Fields 는 원본 콘텐츠에서 추출한 가공 전 레시피 필드다.
// 누락 여부 판단은 processor 가 한다.
type Fields struct {
	Title        string
	Ingredients  []models.Ingredient
	Instructions []string
	PrepMinutes  int
	CookMinutes  int
	Servings     string
	Tips         string
	Category     models.Category
	Difficulty   models.Difficulty
	Hashtags     []string
	Text         string

	// Content 는 추출 대상 원본이다. enricher 가 요약/프롬프트에 사용한다.
	Content models.RawContent
}

const (
	DefaultPrepMinutes = 15
	DefaultCookMinutes = 20
	DefaultServings    = "4 porções"

	maxIngredients  = 15
	maxInstructions = 20
	maxTitleRunes   = 100
	maxTipRunes     = 200
)
