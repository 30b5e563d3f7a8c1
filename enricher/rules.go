package enricher

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"viral-recipes/models"
	"viral-recipes/parser"
)

const (
	maxTitleRunes     = 120
	maxSummaryRunes   = 150
	maxTags           = 10
	maxTikTokRunes    = 300
	maxInstagramRunes = 2200
	maxPromptRunes    = 300
)

// Rules 는 외부 호출 없이 규칙만으로 보강한다. LLM 보강의 기반값이기도 하다.
type Rules struct{}

func NewRules() Rules { return Rules{} }

func (Rules) Enrich(ctx context.Context, f parser.Fields) (Enriched, error) {
	if err := ctx.Err(); err != nil {
		return Enriched{}, err
	}
	return Rewrite(f), nil
}

// Rewrite 는 규칙 기반 보강의 순수 함수 버전이다.
func Rewrite(f parser.Fields) Enriched {
	title := RewriteTitle(f.Title, f.Category)
	ingredients := NormalizeIngredients(f.Ingredients)

	return Enriched{
		Title:         title,
		Summary:       Summary(title, f.PrepMinutes+f.CookMinutes, f.Content.Metrics.Views),
		Category:      f.Category,
		Difficulty:    f.Difficulty,
		Ingredients:   ingredients,
		Instructions:  NumberInstructions(f.Instructions),
		Tips:          f.Tips,
		Tags:          limitTags(f.Hashtags),
		Social:        Social(title),
		EstimatedCost: EstimateCost(len(ingredients)),
		Nutrition:     EstimateNutrition(ingredients),
		ImagePrompt:   ImagePrompt(title, f.Category),
	}
}

// RewriteTitle 은 해시태그를 지우고, 네 단어 미만이면 카테고리를 덧붙인다.
func RewriteTitle(title string, category models.Category) string {
	title = parser.CleanText(parser.StripHashtags(title))
	if title != "" && len(strings.Fields(title)) < 4 && category != "" {
		title = fmt.Sprintf("%s - %s", title, category)
	}
	return parser.Truncate(title, maxTitleRunes)
}

// Summary 는 "<title> pronta em N minutos. Viral com 1.5M visualizações!" 형식이다.
func Summary(title string, totalMinutes int, views int64) string {
	s := fmt.Sprintf("%s pronta em %d minutos. Viral com %s visualizações!", title, totalMinutes, FormatViews(views))
	return parser.Truncate(s, maxSummaryRunes)
}

// FormatViews 는 1.5M, 150K 처럼 짧게 표기한다.
func FormatViews(n int64) string {
	switch {
	case n >= 1_000_000:
		return strconv.FormatFloat(float64(n)/1_000_000, 'f', 1, 64) + "M"
	case n >= 1_000:
		return strconv.FormatFloat(float64(n)/1_000, 'f', 0, 64) + "K"
	}
	return strconv.FormatInt(n, 10)
}

// NormalizeIngredients 는 이름을 정리하고, 밀가루/설탕의 컵 계량을 그램으로 바꾼다.
func NormalizeIngredients(in []models.Ingredient) []models.Ingredient {
	out := make([]models.Ingredient, 0, len(in))
	for _, ing := range in {
		ing.Name = parser.CleanText(ing.Name)
		ing.Unit = strings.ToLower(strings.TrimSpace(ing.Unit))
		if isCup(ing.Unit) && isDry(ing.Name) {
			if q, err := strconv.ParseFloat(ing.Quantity, 64); err == nil {
				ing.Quantity = strconv.Itoa(int(q * 120))
				ing.Unit = "g"
			}
		}
		out = append(out, ing)
	}
	return out
}

func isCup(unit string) bool {
	switch unit {
	case "xícara", "xícaras", "xicara", "xicaras", "cup", "cups":
		return true
	}
	return false
}

func isDry(name string) bool {
	name = strings.ToLower(name)
	return strings.Contains(name, "farinha") || strings.Contains(name, "açúcar") || strings.Contains(name, "acucar")
}

// NumberInstructions 는 단계 번호를 붙이고 첫 글자를 대문자로, 끝에 마침표를 둔다.
func NumberInstructions(in []string) []string {
	out := make([]string, 0, len(in))
	for _, step := range in {
		step = strings.TrimSpace(step)
		if step == "" {
			continue
		}
		r, size := utf8.DecodeRuneInString(step)
		if !unicode.IsDigit(r) {
			step = fmt.Sprintf("%d. %c%s", len(out)+1, unicode.ToUpper(r), step[size:])
		}
		if !strings.HasSuffix(step, ".") && !strings.HasSuffix(step, "!") {
			step += "."
		}
		out = append(out, step)
	}
	return out
}

func Social(title string) models.SocialShort {
	short := []rune(title)
	if len(short) > 50 {
		short = short[:50]
	}
	return models.SocialShort{
		TikTokCaption: parser.Truncate(fmt.Sprintf("%s... 🔥 Faz e me marca! #receita #tiktokfood #viral", string(short)), maxTikTokRunes),
		InstagramCaption: parser.Truncate(fmt.Sprintf(
			"%s 😍\n\n✨ Receita viral que você precisa tentar!\nSalva para fazer depois 📌\n\n#receitas #reels #comida #food #viral",
			title), maxInstagramRunes),
		ShortScript: "1) Mostre o prato finalizado bem de perto; " +
			"2) Exiba os ingredientes principais; " +
			"3) Faça call-to-action: 'Marca quem precisa fazer isso!'",
	}
}

// EstimateCost 는 재료 개수로 비용 구간을 정한다.
func EstimateCost(ingredients int) string {
	switch {
	case ingredients <= 5:
		return "R$8-15"
	case ingredients <= 10:
		return "R$15-30"
	}
	return "R$30-50"
}

// EstimateNutrition 은 대표 재료 몇 가지로 1인분(4인분 기준) 추정치를 만든다.
// 알 수 있는 재료가 없으면 nil.
func EstimateNutrition(ingredients []models.Ingredient) *models.Nutrition {
	var calories int
	var fat, carb, protein float64
	for _, ing := range ingredients {
		name := strings.ToLower(ing.Name)
		switch {
		case strings.Contains(name, "farinha"), strings.Contains(name, "açúcar"), strings.Contains(name, "acucar"):
			calories += 200
			carb += 50
		case strings.Contains(name, "ovo"):
			calories += 70
			protein += 6
			fat += 5
		case strings.Contains(name, "manteiga"), strings.Contains(name, "óleo"), strings.Contains(name, "oleo"):
			calories += 100
			fat += 10
		case strings.Contains(name, "leite"):
			calories += 60
			carb += 5
			protein += 3
		}
	}
	if calories == 0 {
		return nil
	}
	return &models.Nutrition{
		Calories: calories / 4,
		FatG:     round1(fat),
		CarbG:    round1(carb),
		ProteinG: round1(protein),
	}
}

func round1(v float64) float64 {
	return float64(int(v*10+0.5)) / 10
}

func ImagePrompt(title string, category models.Category) string {
	return parser.Truncate(fmt.Sprintf(
		"Foto profissional 16:9 de %s, estilo food photography, iluminação natural suave, "+
			"close-up do prato, cores vibrantes, fundo desfocado, composição apetitosa, %s",
		strings.ToLower(title), strings.ToLower(string(category))), maxPromptRunes)
}

func limitTags(tags []string) []string {
	if len(tags) > maxTags {
		tags = tags[:maxTags]
	}
	return append([]string(nil), tags...)
}
