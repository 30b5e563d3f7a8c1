package processor

import (
	"crypto/sha1"
	"encoding/hex"
	"strings"

	"viral-recipes/dedup"
)

const maxSlugBase = 80

// Slug 는 정규화된 제목 단어를 '-' 로 잇고 원본 URL 의 sha1 앞 6자리를 붙인다.
// 같은 (title, originURL) 은 항상 같은 slug 가 된다.
func Slug(title, originURL string) string {
	var b strings.Builder
	for _, w := range strings.Fields(dedup.Normalize(title)) {
		if b.Len() > 0 && b.Len()+1+len(w) > maxSlugBase {
			break
		}
		if b.Len() > 0 {
			b.WriteByte('-')
		}
		b.WriteString(w)
	}

	key := originURL
	if key == "" {
		key = title
	}
	sum := sha1.Sum([]byte(key))
	suffix := hex.EncodeToString(sum[:])[:6]
	if b.Len() == 0 {
		return "receita-" + suffix
	}
	return b.String() + "-" + suffix
}
