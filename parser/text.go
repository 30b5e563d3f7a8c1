package parser

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
)

var (
	hashtagPattern = regexp.MustCompile(`#([\p{L}\p{N}_]+)`)
	spacePattern   = regexp.MustCompile(`\s+`)
)

// emoji 와 그림 기호, 결합용 제어 문자(ZWJ, variation selector)를 제거한다.
var emojiRemover = runes.Remove(runes.Predicate(func(r rune) bool {
	return r >= 0x1F000 ||
		(r >= 0x2600 && r <= 0x27BF) ||
		r == 0x200D || r == 0xFE0F ||
		unicode.Is(unicode.So, r)
}))

// CleanText removes emoji and collapses runs of whitespace.
func CleanText(s string) string {
	out, _, err := transform.String(emojiRemover, s)
	if err != nil {
		out = s
	}
	return strings.TrimSpace(spacePattern.ReplaceAllString(out, " "))
}

// Hashtags 는 본문에 등장한 해시태그를 순서대로 중복 없이 반환한다. '#' 은 제외한다.
func Hashtags(text string) []string {
	var out []string
	seen := map[string]struct{}{}
	for _, m := range hashtagPattern.FindAllStringSubmatch(text, -1) {
		tag := strings.ToLower(m[1])
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	return out
}

// StripHashtags removes every #tag from s.
func StripHashtags(s string) string {
	return strings.TrimSpace(spacePattern.ReplaceAllString(hashtagPattern.ReplaceAllString(s, ""), " "))
}

// Truncate 는 rune 기준으로 max 를 넘으면 잘라내고 "..." 을 붙인다.
func Truncate(s string, max int) string {
	if max <= 0 || utf8.RuneCountInString(s) <= max {
		return s
	}
	const suffix = "..."
	if max <= len(suffix) {
		return string([]rune(s)[:max])
	}
	cut := []rune(s)[:max-len(suffix)]
	return strings.TrimRightFunc(string(cut), unicode.IsSpace) + suffix
}
