package sources

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"viral-recipes/config"
	"viral-recipes/dedup"
	"viral-recipes/feeder"
	"viral-recipes/models"
	"viral-recipes/parser"
)

// recipeKeywords 는 RSS 항목이 레시피 관련인지 판단하는 키워드다. 정규화된 텍스트와 비교한다.
var recipeKeywords = []string{
	"receita", "recipe", "food", "comida", "cozinha", "culinaria", "prato", "dish",
	"cooking", "bolo", "cake", "torta", "doce", "salgado", "massa", "ingrediente",
	"preparo", "modo de fazer",
}

// RSSSource 는 블로그/뉴스 RSS 피드 하나를 폴링한다.
type RSSSource struct {
	name   string
	url    string
	limit  int
	client *http.Client
	now    func() time.Time
}

func NewRSSSource(feed config.FeedSource, client *http.Client, limit int) *RSSSource {
	name := feed.Name
	if name == "" {
		name = feed.URL
	}
	return &RSSSource{name: "rss:" + name, url: feed.URL, limit: limit, client: client, now: time.Now}
}

func (s *RSSSource) Name() string { return s.name }

// Poll 은 피드를 읽어 since 이전에 게시된 항목과 레시피와 무관한 항목을 제외한다.
// 게시 시각이 없는 항목은 항상 포함한다.
func (s *RSSSource) Poll(ctx context.Context, since time.Time) ([]models.RawContent, error) {
	feedTitle, items, err := feeder.FetchRssFeeds(ctx, s.client, s.url, 0)
	if err != nil {
		return nil, unavailable(s.name, err)
	}

	observed := s.now().UTC()
	var out []models.RawContent
	for _, item := range items {
		if s.limit > 0 && len(out) == s.limit {
			break
		}
		if !item.PublishedAt.IsZero() && !since.IsZero() && item.PublishedAt.Before(since) {
			continue
		}

		text := parser.StripHTML(item.Description)
		if !IsRecipeRelated(item.Title + " " + text + " " + strings.Join(item.Categories, " ")) {
			continue
		}

		media := item.ImageURL
		if media == "" {
			media = parser.FirstImage(item.Description)
		}
		profile := item.Author
		if profile == "" {
			profile = feedTitle
		}

		out = append(out, models.RawContent{
			SourceType:    models.SourceRSS,
			SourceName:    s.name,
			SourceProfile: profile,
			OriginURL:     item.Link,
			Title:         item.Title,
			Caption:       text,
			MediaURL:      media,
			Hashtags:      parser.Hashtags(text),
			Metrics:       customMetrics(item.Custom),
			PublishedAt:   item.PublishedAt,
			ObservedAt:    observed,
		})
	}

	config.DebugWithFields("rss poll done", config.Fields{
		"source": s.name,
		"items":  len(items),
		"kept":   len(out),
	})
	return out, nil
}

// IsRecipeRelated 는 텍스트에 레시피 키워드가 하나라도 있는지 본다.
func IsRecipeRelated(text string) bool {
	normalized := " " + dedup.Normalize(text) + " "
	for _, kw := range recipeKeywords {
		if strings.Contains(normalized, kw) {
			return true
		}
	}
	return false
}

// customMetrics 는 일부 피드가 싣는 views/likes/shares/comments 요소를 읽는다.
func customMetrics(custom map[string]string) models.Metrics {
	read := func(key string) int64 {
		n, _ := strconv.ParseInt(strings.TrimSpace(custom[key]), 10, 64)
		return max(n, 0)
	}
	return models.Metrics{
		Views:    read("views"),
		Likes:    read("likes"),
		Shares:   read("shares"),
		Comments: read("comments"),
	}
}
