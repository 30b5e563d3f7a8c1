package parser

import (
	"strings"

	"viral-recipes/dedup"
	"viral-recipes/models"
)

type categoryRule struct {
	category models.Category
	keywords []string
}

// 먼저 일치한 규칙이 이긴다.
var categoryRules = []categoryRule{
	{models.CategoryBreakfast, []string{"cafe da manha", "breakfast", "panqueca", "tapioca", "omelete"}},
	{models.CategoryDesserts, []string{"sobremesa", "pudim", "mousse", "dessert", "sorvete"}},
	{models.CategorySweets, []string{"bolo", "torta doce", "doce", "chocolate", "brigadeiro", "cake", "cookie"}},
	{models.CategoryPasta, []string{"macarrao", "massa", "lasanha", "espaguete", "nhoque", "pasta"}},
	{models.CategoryMeat, []string{"carne", "frango", "picanha", "costela", "bife", "porco", "chicken", "beef"}},
	{models.CategorySavory, []string{"salgado", "salgada", "pao", "pizza", "coxinha", "empada", "savory"}},
	{models.CategoryDrinks, []string{"suco", "bebida", "drink", "smoothie", "vitamina", "cafe"}},
	{models.CategoryVegan, []string{"vegan", "vegano", "vegana", "sem carne"}},
	{models.CategoryFitness, []string{"fit", "fitness", "saudavel", "healthy", "proteina", "low carb"}},
	{models.CategoryQuick, []string{"rapido", "rapida", "quick", "facil", "5 minutos", "express"}},
}

var (
	easyWords = []string{"facil", "easy", "simples", "rapido", "rapida", "rapidinho"}
	hardWords = []string{"dificil", "complexo", "complexa", "advanced", "avancado", "elaborado"}
)

// InferCategory 는 키워드로 카테고리를 추정한다. 일치하는 것이 없으면 Salgados 다.
func InferCategory(text string) models.Category {
	padded := " " + dedup.Normalize(text) + " "
	for _, rule := range categoryRules {
		if containsAny(padded, rule.keywords) {
			return rule.category
		}
	}
	return models.CategorySavory
}

// InferDifficulty 는 키워드로 난이도를 추정한다. 기본은 Médio.
func InferDifficulty(text string) models.Difficulty {
	padded := " " + dedup.Normalize(text) + " "
	switch {
	case containsAny(padded, easyWords):
		return models.DifficultyEasy
	case containsAny(padded, hardWords):
		return models.DifficultyHard
	}
	return models.DifficultyMedium
}

// containsAny 는 단어 경계 단위로 키워드 포함 여부를 본다. padded 는 앞뒤 공백이 붙은 정규화 텍스트다.
func containsAny(padded string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(padded, " "+kw+" ") {
			return true
		}
	}
	return false
}
