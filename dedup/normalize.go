// Package dedup 은 레시피 지문 계산과 최근 이력 기반 유사도 중복 판정을 담당한다.
package dedup

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// DefaultStopwords 는 제목 n-gram 추출 전에 제거하는 포르투갈어/영어 불용어다.
var DefaultStopwords = []string{
	"a", "o", "as", "os", "de", "da", "do", "das", "dos", "e", "em", "no", "na", "nos", "nas",
	"com", "sem", "para", "pra", "por", "um", "uma", "ao", "receita", "facil", "viral",
	"the", "and", "with", "of", "for", "recipe", "easy",
}

// Normalizer 는 지문과 유사도 계산이 공유하는 텍스트 정규화 규칙이다.
type Normalizer struct {
	stopwords map[string]struct{}
}

// NewNormalizer 는 주어진 불용어로 Normalizer 를 만든다. nil 이면 DefaultStopwords 를 쓴다.
func NewNormalizer(stopwords []string) Normalizer {
	if stopwords == nil {
		stopwords = DefaultStopwords
	}
	set := make(map[string]struct{}, len(stopwords))
	for _, w := range stopwords {
		if w = Normalize(w); w != "" {
			set[w] = struct{}{}
		}
	}
	return Normalizer{stopwords: set}
}

// Normalize lowercases s, strips accents and punctuation, and collapses whitespace.
func Normalize(s string) string {
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}

	var b strings.Builder
	b.Grow(len(folded))
	space := true
	for _, r := range strings.ToLower(folded) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			space = false
		case !space:
			// 구두점과 공백은 모두 단일 공백으로 접는다.
			b.WriteByte(' ')
			space = true
		}
	}
	return strings.TrimSpace(b.String())
}

// Title 은 제목을 정규화하고 불용어를 제거한다.
// 모든 단어가 불용어이면 정규화된 원문을 그대로 쓴다.
func (n Normalizer) Title(title string) string {
	normalized := Normalize(title)
	words := strings.Fields(normalized)
	kept := words[:0:0]
	for _, w := range words {
		if _, stop := n.stopwords[w]; !stop {
			kept = append(kept, w)
		}
	}
	if len(kept) == 0 {
		return normalized
	}
	return strings.Join(kept, " ")
}

// Ingredients 는 재료 이름을 정규화해 정렬된 고유 집합으로 반환한다.
func (n Normalizer) Ingredients(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, name := range names {
		v := Normalize(name)
		if v == "" {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sortStrings(out)
	return out
}
