package models

import "time"

// SourceType 은 콘텐츠가 수집된 플랫폼이다.
type SourceType string

const (
	SourceTikTok     SourceType = "tiktok"
	SourceInstagram  SourceType = "instagram"
	SourceRSS        SourceType = "rss"
	SourceUserUpload SourceType = "user_upload"
	SourceGenerated  SourceType = "generated"
)

// Metrics is an engagement snapshot at observation time.
type Metrics struct {
	Views    int64 `json:"views"`
	Likes    int64 `json:"likes"`
	Shares   int64 `json:"shares"`
	Comments int64 `json:"comments"`
}

// MetricsObservation 은 과거 시점의 지표 관측값이다. 성장률 계산의 기준점으로 쓴다.
type MetricsObservation struct {
	Metrics    Metrics   `json:"metrics"`
	ObservedAt time.Time `json:"observed_at"`
}

// RawContent 는 소스가 폴링마다 생성하는 원본 게시물이다.
// 생성 이후 하위 단계에서 수정하지 않는다.
type RawContent struct {
	SourceType    SourceType          `json:"source_type"`
	SourceName    string              `json:"source_name"`
	SourceProfile string              `json:"source_profile"`
	OriginURL     string              `json:"origin_url"`
	Title         string              `json:"title"`
	Caption       string              `json:"caption"`
	MediaURL      string              `json:"media_url"`
	Hashtags      []string            `json:"hashtags,omitempty"`
	Metrics       Metrics             `json:"metrics"`
	PublishedAt   time.Time           `json:"published_at"`
	ObservedAt    time.Time           `json:"observed_at"`
	Baseline      *MetricsObservation `json:"baseline,omitempty"`
}

// WithBaseline returns a copy of c carrying the given baseline observation.
func (c RawContent) WithBaseline(b *MetricsObservation) RawContent {
	c.Baseline = b
	return c
}
