package dedup

import (
	"fmt"
	"strings"
)

// NGramMode 는 제목 n-gram 을 문자 단위로 만들지 단어 단위로 만들지 정한다.
type NGramMode string

const (
	NGramChar NGramMode = "char"
	NGramWord NGramMode = "word"
)

func ParseNGramMode(s string) (NGramMode, error) {
	switch NGramMode(strings.ToLower(strings.TrimSpace(s))) {
	case NGramChar, "":
		return NGramChar, nil
	case NGramWord:
		return NGramWord, nil
	}
	return "", fmt.Errorf("unknown n-gram mode %q", s)
}

// NGrams returns the sorted distinct n-grams of an already normalized text.
// A text shorter than n yields the whole text as its only gram.
func NGrams(text string, mode NGramMode, n int) []string {
	if n <= 0 {
		n = 1
	}
	if text == "" {
		return nil
	}

	var units []string
	sep := ""
	if mode == NGramWord {
		units = strings.Fields(text)
		sep = " "
	} else {
		for _, r := range text {
			units = append(units, string(r))
		}
	}

	if len(units) <= n {
		return []string{strings.Join(units, sep)}
	}

	seen := make(map[string]struct{}, len(units))
	out := make([]string, 0, len(units)-n+1)
	for i := 0; i+n <= len(units); i++ {
		g := strings.Join(units[i:i+n], sep)
		if _, ok := seen[g]; ok {
			continue
		}
		seen[g] = struct{}{}
		out = append(out, g)
	}
	sortStrings(out)
	return out
}

// Jaccard 는 두 집합의 |A∩B| / |A∪B| 다. 어느 한쪽이 비어 있으면 0 이다.
func Jaccard(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	set := make(map[string]struct{}, len(a))
	for _, v := range a {
		set[v] = struct{}{}
	}
	inter := 0
	union := len(set)
	seenB := make(map[string]struct{}, len(b))
	for _, v := range b {
		if _, dup := seenB[v]; dup {
			continue
		}
		seenB[v] = struct{}{}
		if _, ok := set[v]; ok {
			inter++
		} else {
			union++
		}
	}
	return float64(inter) / float64(union)
}
