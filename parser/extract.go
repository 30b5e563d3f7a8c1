package parser

import (
	"regexp"
	"strconv"
	"strings"

	"viral-recipes/models"
)

var (
	// 섹션 머리말은 줄 맨 앞(이모지 등 글자가 아닌 접두어 허용)에 있어야 한다.
	ingredientsSection  = regexp.MustCompile(`(?ims)^[^\p{L}\n]*(?:ingredientes?|ingredients?)[ \t]*:?[ \t]*\n(.*?)(?:\n[ \t]*\n|\n[^\p{L}\n]*(?:modo de|instructions?|preparo|como fazer)|\z)`)
	instructionsSection = regexp.MustCompile(`(?ims)^[^\p{L}\n]*(?:modo de preparo|instructions?|preparo|como fazer)[ \t]*:?[ \t]*\n(.*?)(?:\n[ \t]*\n|\z)`)

	// 수량 단위 (de) 이름. 긴 단위를 먼저 둔다.
	unitIngredient = regexp.MustCompile(`(?i)^(\d+(?:[.,]\d+)?(?:/\d+)?)\s*(colher(?:es)? de sopa|colher(?:es)? de ch[aá]|x[ií]caras?|latas?|unidades?|pitadas?|dentes?|copos?|pacotes?|fatias?|cups?|tbsp|tsp|kg|ml|g|l)\s+(?:de\s+)?(.+)$`)
	countIngredient = regexp.MustCompile(`^(\d+(?:[.,]\d+)?(?:/\d+)?)\s+(.+)$`)
	bulletPrefix    = regexp.MustCompile(`(?i)^(?:[-*•·]\s*|\d+[.)]\s+|\d+\s*[-–]\s+|passo\s*\d+\s*:?\s*)`)

	prepPattern     = regexp.MustCompile(`(?i)(?:preparo|prep\s+time)[\s:]*(\d+)\s*(?:minutos?|minutes?|min)`)
	cookPattern     = regexp.MustCompile(`(?i)(?:cozimento|cook\s+time|forno(?:\s+por)?|assar\s+por)[\s:]*(\d+)\s*(?:minutos?|minutes?|min)`)
	servingsBefore  = regexp.MustCompile(`(?i)(?:rende|serve|porç(?:ão|ões)|servings?)[\s:]*(\d+)`)
	servingsAfter   = regexp.MustCompile(`(?i)(\d+)\s*(?:porç(?:ão|ões)|pessoas|servings)`)
	tipPattern      = regexp.MustCompile(`(?im)^\s*(?:dica|tip|obs|observação)s?\s*:\s*(.+)$`)
	titlePrefix     = regexp.MustCompile(`(?i)^(?:receita|recipe)\s*:\s*`)
)

// Extract 는 원본 콘텐츠의 제목과 캡션에서 레시피 필드를 추출한다.
// 시간과 인분은 찾지 못하면 기본값을 쓰고, 재료와 조리 단계는 비워 둔다.
func Extract(c models.RawContent) Fields {
	text := strings.TrimSpace(c.Title + "\n" + c.Caption)

	f := Fields{
		Text:         text,
		Content:      c,
		Title:        extractTitle(c.Title, text),
		Ingredients:  extractIngredients(text),
		Instructions: extractInstructions(text),
		PrepMinutes:  extractMinutes(prepPattern, text, DefaultPrepMinutes),
		CookMinutes:  extractMinutes(cookPattern, text, DefaultCookMinutes),
		Servings:     extractServings(text),
		Tips:         extractTip(text),
		Category:     InferCategory(text),
		Difficulty:   InferDifficulty(text),
		Hashtags:     mergeTags(c.Hashtags, Hashtags(text)),
	}
	return f
}

func extractTitle(title, text string) string {
	if strings.TrimSpace(title) == "" {
		title, _, _ = strings.Cut(text, "\n")
	}
	title = CleanText(StripHashtags(title))
	title = titlePrefix.ReplaceAllString(title, "")
	return Truncate(title, maxTitleRunes)
}

func extractIngredients(text string) []models.Ingredient {
	m := ingredientsSection.FindStringSubmatch(text)
	if m == nil {
		return nil
	}

	var out []models.Ingredient
	for _, line := range strings.Split(m[1], "\n") {
		if len(out) == maxIngredients {
			break
		}
		line = bulletPrefix.ReplaceAllString(CleanText(line), "")
		if line == "" {
			continue
		}
		if ing, ok := ParseIngredient(line); ok {
			out = append(out, ing)
		}
	}
	return out
}

// ParseIngredient 는 "2 xícaras de farinha" 같은 한 줄을 Ingredient 로 바꾼다.
// 단위가 없으면 unidade, 수량이 없으면 "a gosto" 로 둔다.
func ParseIngredient(line string) (models.Ingredient, bool) {
	line = strings.TrimSpace(line)
	if m := unitIngredient.FindStringSubmatch(line); m != nil {
		return models.Ingredient{
			Name:     strings.TrimSpace(m[3]),
			Quantity: strings.ReplaceAll(m[1], ",", "."),
			Unit:     strings.ToLower(m[2]),
		}, true
	}
	if m := countIngredient.FindStringSubmatch(line); m != nil {
		return models.Ingredient{
			Name:     strings.TrimSpace(m[2]),
			Quantity: strings.ReplaceAll(m[1], ",", "."),
			Unit:     "unidade",
		}, true
	}
	if len([]rune(line)) <= 3 {
		return models.Ingredient{}, false
	}
	return models.Ingredient{Name: line, Quantity: "a gosto"}, true
}

func extractInstructions(text string) []string {
	m := instructionsSection.FindStringSubmatch(text)
	if m == nil {
		return nil
	}

	var out []string
	for _, line := range strings.Split(m[1], "\n") {
		if len(out) == maxInstructions {
			break
		}
		line = bulletPrefix.ReplaceAllString(CleanText(line), "")
		// 짧은 줄은 단계가 아니라 머리말이나 잡음으로 본다.
		if len([]rune(line)) > 10 {
			out = append(out, line)
		}
	}
	return out
}

func extractMinutes(p *regexp.Regexp, text string, fallback int) int {
	m := p.FindStringSubmatch(text)
	if m == nil {
		return fallback
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || n < 0 {
		return fallback
	}
	return n
}

func extractServings(text string) string {
	for _, p := range []*regexp.Regexp{servingsBefore, servingsAfter} {
		if m := p.FindStringSubmatch(text); m != nil {
			return m[1] + " porções"
		}
	}
	return DefaultServings
}

func extractTip(text string) string {
	m := tipPattern.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	tip := CleanText(m[1])
	if len([]rune(tip)) <= 10 {
		return ""
	}
	return Truncate(tip, maxTipRunes)
}

func mergeTags(lists ...[]string) []string {
	var out []string
	seen := map[string]struct{}{}
	for _, list := range lists {
		for _, t := range list {
			t = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(t), "#"))
			if t == "" {
				continue
			}
			if _, ok := seen[t]; ok {
				continue
			}
			seen[t] = struct{}{}
			out = append(out, t)
		}
	}
	return out
}
