package sources

import (
	"net/url"
	"strings"

	"viral-recipes/models"
)

// profileTitlePrefix 는 같은 작성자의 재게시를 알아보기 위해 비교하는 제목 앞부분 길이(rune)다.
const profileTitlePrefix = 50

// trackingParams 는 게시물 식별과 무관해서 URL 키에서 빼는 쿼리 파라미터다.
var trackingParams = map[string]struct{}{
	"lang": {}, "igshid": {}, "igsh": {}, "fbclid": {}, "gclid": {}, "si": {}, "is_from_webapp": {}, "sender_device": {},
}

// Merge 는 소스 등록 순서대로 결과를 이어 붙이면서 같은 게시물을 한 번만 남긴다.
// 같은 origin URL 이거나, 같은 작성자 프로필에 제목 앞 50자가 같으면 같은 게시물로 본다.
// 먼저 등록된 소스의 항목이 이긴다.
func Merge(batches [][]models.RawContent) []models.RawContent {
	seenURL := make(map[string]struct{})
	seenProfile := make(map[string]struct{})
	var out []models.RawContent
	for _, batch := range batches {
		for _, c := range batch {
			urlKey := NormalizeURL(c.OriginURL)
			profileKey := profileKey(c)
			if _, dup := seenURL[urlKey]; dup && urlKey != "" {
				continue
			}
			if _, dup := seenProfile[profileKey]; dup && profileKey != "" {
				continue
			}
			if urlKey != "" {
				seenURL[urlKey] = struct{}{}
			}
			if profileKey != "" {
				seenProfile[profileKey] = struct{}{}
			}
			out = append(out, c)
		}
	}
	return out
}

// profileKey 는 "프로필:제목 앞부분" 키다. 프로필이나 제목이 없으면 빈 문자열.
func profileKey(c models.RawContent) string {
	profile := strings.ToLower(strings.TrimSpace(c.SourceProfile))
	title := strings.ToLower(strings.TrimSpace(c.Title))
	if profile == "" || title == "" {
		return ""
	}
	if r := []rune(title); len(r) > profileTitlePrefix {
		title = string(r[:profileTitlePrefix])
	}
	return profile + ":" + title
}

// NormalizeURL 은 스킴/호스트 대소문자, www 접두사, 끝 슬래시, fragment, 추적용 쿼리 파라미터 차이를 없앤다.
// 나머지 쿼리(?p=101, ?v=abc)는 게시물을 구분하므로 정렬해서 유지한다.
func NormalizeURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return strings.ToLower(strings.TrimRight(raw, "/"))
	}
	host := strings.TrimPrefix(strings.ToLower(u.Host), "www.")
	key := host + strings.TrimRight(u.EscapedPath(), "/")

	q := u.Query()
	for name := range q {
		if _, tracking := trackingParams[strings.ToLower(name)]; tracking || strings.HasPrefix(strings.ToLower(name), "utm_") {
			q.Del(name)
		}
	}
	if len(q) > 0 {
		key += "?" + q.Encode()
	}
	return key
}
