package config

import (
	"fmt"
	"sort"
	"strings"

	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

// envPaths 는 환경변수 이름을 koanf 경로(AppConfig 의 koanf 태그)로 옮긴다.
// sources.rss_feed_urls, sources.*_api_url 은 구조체 필드가 아니라 applyEnv 가 직접 풀어 쓴다.
var envPaths = map[string]string{
	"LOG_LEVEL": "logging.level",

	"AUTO_MODE":              "pipeline.auto_mode",
	"CYCLE_MINUTES":          "pipeline.cycle_minutes",
	"MAX_WORKERS":            "pipeline.max_workers",
	"SOURCE_TIMEOUT_SECONDS": "pipeline.source_timeout_seconds",
	"ENRICH_TIMEOUT_SECONDS": "pipeline.enrich_timeout_seconds",

	"THRESHOLD_VIRAL_VIEWS":  "viral.views_threshold",
	"THRESHOLD_VIRAL_LIKES":  "viral.likes_threshold",
	"THRESHOLD_VIRAL_SHARES": "viral.shares_threshold",
	"THRESHOLD_GROWTH_RATE":  "viral.growth_rate",
	"TIME_WINDOW_HOURS":      "viral.time_window_hours",
	"MIN_VIRAL_SIGNALS":      "viral.min_signals",

	"DUPLICATE_THRESHOLD":   "dedup.threshold",
	"DEDUP_MAX_ENTRIES":     "dedup.max_entries",
	"DEDUP_RETENTION_HOURS": "dedup.retention_hours",
	"DEDUP_NGRAM_MODE":      "dedup.ngram_mode",
	"DEDUP_NGRAM_SIZE":      "dedup.ngram_size",
	"DEDUP_STOPWORDS":       "dedup.stopwords",

	"MIN_INGREDIENTS":  "extraction.min_ingredients",
	"MIN_INSTRUCTIONS": "extraction.min_instructions",

	"CMS_ENDPOINT":               "publish.cms_endpoint",
	"CMS_API_KEY":                "publish.cms_api_key",
	"CMS_TIMEOUT_SECONDS":        "publish.cms_timeout_seconds",
	"PUBLISH_MAX_ATTEMPTS":       "publish.max_attempts",
	"PUBLISH_BASE_DELAY_MS":      "publish.base_delay_ms",
	"PUBLISH_BACKOFF_MULTIPLIER": "publish.backoff_multiplier",
	"MIN_PUBLISH_CONFIDENCE":     "publish.min_publish_confidence",

	"MOCK_EXTERNAL_APIS": "sources.mock",
	"PLATFORM_API_TOKEN": "sources.platform_api_token",
	"RSS_FEED_URLS":      "sources.rss_feed_urls",
	"TIKTOK_API_URL":     "sources.tiktok_api_url",
	"INSTAGRAM_API_URL":  "sources.instagram_api_url",

	"STORE_DRIVER":  "store.driver",
	"MONGO_URI":     "store.mongo_uri",
	"MONGO_DB_NAME": "store.mongo_db_name",
	"SQLITE_PATH":   "store.sqlite_path",

	"KAFKA_BOOTSTRAP_SERVERS": "kafka.bootstrap_servers",
	"KAFKA_GROUP_ID":          "kafka.group_id",

	"LLM_PROVIDER":               "llm.provider",
	"LLM_MODEL":                  "llm.model_name",
	"GEMINI_API_KEY":             "llm.gemini_api_key",
	"OPENAI_API_KEY":             "llm.openai_api_key",
	"ENRICH_REQUESTS_PER_MINUTE": "llm.requests_per_minute",
	"ENRICH_REQUESTS_PER_DAY":    "llm.requests_per_day",

	"API_PORT":     "api.port",
	"API_KEY":      "api.api_key",
	"CORS_ORIGINS": "api.cors_origins",
}

// sliceEnvPaths 는 쉼표로 구분된 환경변수 값을 목록으로 받는 경로다.
var sliceEnvPaths = []string{"dedup.stopwords", "api.cors_origins", "sources.rss_feed_urls"}

// platformEnvPaths 는 플랫폼 JSON 소스 URL 경로다.
var platformEnvPaths = [][2]string{
	{"tiktok", "sources.tiktok_api_url"},
	{"instagram", "sources.instagram_api_url"},
}

// loadEnv 는 envPaths 에 있는 환경변수만 koanf 로 읽는다. 빈 값은 설정되지 않은 것으로 본다.
func loadEnv() (*koanf.Koanf, error) {
	k := koanf.New(".")
	provider := env.ProviderWithValue("", ".", func(key, value string) (string, interface{}) {
		path, ok := envPaths[key]
		value = strings.TrimSpace(value)
		if !ok || value == "" {
			return "", nil
		}
		return path, value
	})
	if err := k.Load(provider, nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	for _, path := range sliceEnvPaths {
		if s, ok := k.Get(path).(string); ok {
			if err := k.Set(path, splitList(s)); err != nil {
				return nil, fmt.Errorf("set %s: %w", path, err)
			}
		}
	}
	return k, nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// applyEnv 는 환경변수 값을 설정 위에 덮어쓴다. 환경변수가 config.yaml 보다 우선한다.
// 값은 경로마다 따로 디코딩해서, 형식이 틀린 환경변수를 이름으로 모두 보고한다.
func applyEnv(c *AppConfig) error {
	k, err := loadEnv()
	if err != nil {
		return err
	}

	envNames := make(map[string]string, len(envPaths))
	for name, path := range envPaths {
		envNames[path] = name
	}

	var problems []string
	keys := k.Keys()
	sort.Strings(keys)
	for _, path := range keys {
		one := koanf.New(".")
		if err := one.Set(path, k.Get(path)); err != nil {
			return fmt.Errorf("set %s: %w", path, err)
		}
		if err := one.Unmarshal("", c); err != nil {
			problems = append(problems, fmt.Sprintf("%s: %q is not valid: %v", envNames[path], k.String(path), err))
		}
	}

	if k.Exists("sources.rss_feed_urls") {
		c.Sources.RSSFeeds = nil
		for _, u := range k.Strings("sources.rss_feed_urls") {
			c.Sources.RSSFeeds = append(c.Sources.RSSFeeds, FeedSource{Name: u, URL: u})
		}
	}
	for _, p := range platformEnvPaths {
		if k.Exists(p[1]) {
			c.Sources.Platforms = upsertPlatform(c.Sources.Platforms, PlatformAPI{Platform: p[0], URL: k.String(p[1])})
		}
	}

	if len(problems) > 0 {
		return &InvalidError{Problems: problems}
	}
	return nil
}

func upsertPlatform(list []PlatformAPI, p PlatformAPI) []PlatformAPI {
	for i := range list {
		if list[i].Platform == p.Platform {
			list[i] = p
			return list
		}
	}
	return append(list, p)
}
