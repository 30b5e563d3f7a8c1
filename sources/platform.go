package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"viral-recipes/config"
	"viral-recipes/httpclient"
	"viral-recipes/models"
	"viral-recipes/parser"
)

// platformPost 는 플랫폼 JSON API 가 반환하는 게시물 하나다.
type platformPost struct {
	ID          string    `json:"id"`
	URL         string    `json:"url"`
	Author      string    `json:"author"`
	Title       string    `json:"title"`
	Caption     string    `json:"caption"`
	MediaURL    string    `json:"media_url"`
	Hashtags    []string  `json:"hashtags"`
	Views       int64     `json:"views"`
	Likes       int64     `json:"likes"`
	Shares      int64     `json:"shares"`
	Comments    int64     `json:"comments"`
	PublishedAt time.Time `json:"published_at"`
}

type platformResponse struct {
	Items []platformPost `json:"items"`
}

// PlatformSource 는 TikTok/Instagram 등 숏폼 플랫폼의 게시물 JSON API 를 폴링한다.
//
//	GET <url>?since=<RFC3339>&limit=<n>
//	Authorization: Bearer <token>
type PlatformSource struct {
	platform models.SourceType
	client   *httpclient.BaseClient
	token    string
	limit    int
	now      func() time.Time
}

func NewPlatformSource(api config.PlatformAPI, token string, client *http.Client, limit int) *PlatformSource {
	return &PlatformSource{
		platform: models.SourceType(api.Platform),
		client:   httpclient.NewBaseClientWithClient(client, api.URL),
		token:    token,
		limit:    limit,
		now:      time.Now,
	}
}

func (s *PlatformSource) Name() string { return string(s.platform) }

func (s *PlatformSource) Poll(ctx context.Context, since time.Time) ([]models.RawContent, error) {
	query := url.Values{}
	if !since.IsZero() {
		query.Set("since", since.UTC().Format(time.RFC3339))
	}
	if s.limit > 0 {
		query.Set("limit", strconv.Itoa(s.limit))
	}

	req, err := s.client.NewRequest(ctx, http.MethodGet, "", query, nil)
	if err != nil {
		return nil, unavailable(s.Name(), err)
	}
	req.Header.Set("Accept", "application/json")
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, unavailable(s.Name(), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, unavailable(s.Name(), fmt.Errorf("status %d: %s", resp.StatusCode, body))
	}

	var payload platformResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, unavailable(s.Name(), fmt.Errorf("decode response: %w", err))
	}

	observed := s.now().UTC()
	out := make([]models.RawContent, 0, len(payload.Items))
	for _, p := range payload.Items {
		if s.limit > 0 && len(out) == s.limit {
			break
		}
		if p.URL == "" {
			continue
		}
		hashtags := p.Hashtags
		if len(hashtags) == 0 {
			hashtags = parser.Hashtags(p.Caption)
		}
		out = append(out, models.RawContent{
			SourceType:    s.platform,
			SourceName:    s.Name(),
			SourceProfile: p.Author,
			OriginURL:     p.URL,
			Title:         p.Title,
			Caption:       p.Caption,
			MediaURL:      p.MediaURL,
			Hashtags:      hashtags,
			Metrics: models.Metrics{
				Views:    p.Views,
				Likes:    p.Likes,
				Shares:   p.Shares,
				Comments: p.Comments,
			},
			PublishedAt: p.PublishedAt,
			ObservedAt:  observed,
		})
	}
	return out, nil
}
