package dedup

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
)

// Fingerprint 는 정규화된 제목과 정렬된 재료 이름 집합의 sha256 해시다.
// 대소문자, 악센트, 구두점만 다른 레시피는 같은 지문을 갖는다.
func (n Normalizer) Fingerprint(title string, ingredients []string) string {
	combined := n.Title(title) + "::" + strings.Join(n.Ingredients(ingredients), ":")
	sum := sha256.Sum256([]byte(combined))
	return hex.EncodeToString(sum[:])
}

func sortStrings(s []string) { sort.Strings(s) }
