package sources

import (
	"net/http"

	"viral-recipes/config"
	"viral-recipes/httpclient"
	"viral-recipes/models"
)

// FromConfig 는 설정에 정의된 소스들을 등록 순서대로 만든다.
// Mock 모드이면 외부 호출 없이 TikTok/Instagram 데모 소스만 반환한다.
func FromConfig(cfg config.AppConfig, client *http.Client) []Source {
	if cfg.Sources.Mock {
		return []Source{
			NewMockSource(models.SourceTikTok),
			NewMockSource(models.SourceInstagram),
		}
	}
	if client == nil {
		client = httpclient.New(httpclient.Config{Timeout: cfg.Pipeline.SourceTimeout()})
	}

	limit := cfg.Pipeline.MaxItemsPerSourcePoll
	var out []Source
	for _, p := range cfg.Sources.Platforms {
		out = append(out, NewPlatformSource(p, cfg.Sources.PlatformAPIToken, client, limit))
	}
	for _, f := range cfg.Sources.RSSFeeds {
		out = append(out, NewRSSSource(f, client, limit))
	}
	return out
}
