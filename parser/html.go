package parser

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const paragraphMark = "\u2029"

// StripHTML 은 RSS 설명 같은 HTML 조각을 줄 단위 텍스트로 바꾼다.
// 블록 요소와 <br> 은 줄바꿈이 되고 script/style 은 버린다.
// HTML 이 아니면 입력을 그대로 정리해서 돌려준다.
func StripHTML(s string) string {
	if !strings.Contains(s, "<") {
		return tidyLines(s)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return tidyLines(s)
	}

	doc.Find("script, style, noscript").Remove()
	doc.Find("br").ReplaceWithHtml("\n")
	doc.Find("p, div, li, tr, h1, h2, h3, h4, h5, h6").AppendHtml("\n")
	doc.Find("ul, ol, table").AfterHtml("\n" + paragraphMark + "\n")

	// 소스 HTML 의 들여쓰기 공백은 의미가 없으므로 빈 줄은 목록 끝에서만 남긴다.
	var out []string
	for _, line := range strings.Split(doc.Text(), "\n") {
		if strings.Contains(line, paragraphMark) {
			if len(out) > 0 && out[len(out)-1] != "" {
				out = append(out, "")
			}
			continue
		}
		if line = strings.Join(strings.Fields(line), " "); line != "" {
			out = append(out, line)
		}
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}

// FirstImage returns the src of the first <img> in an HTML fragment.
func FirstImage(s string) string {
	if !strings.Contains(s, "<img") {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return ""
	}
	src, _ := doc.Find("img").First().Attr("src")
	return strings.TrimSpace(src)
}

// tidyLines 는 각 줄의 공백을 정리하고 연속된 빈 줄을 하나로 줄인다.
func tidyLines(s string) string {
	var out []string
	for _, line := range strings.Split(strings.ReplaceAll(s, "\r\n", "\n"), "\n") {
		line = strings.Join(strings.Fields(line), " ")
		if line == "" && (len(out) == 0 || out[len(out)-1] == "") {
			continue
		}
		out = append(out, line)
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}
