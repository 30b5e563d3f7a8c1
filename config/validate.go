package config

import (
	"errors"
	"fmt"
	"strings"
)

// ErrConfigInvalid 는 시작 시점에 치명적인 설정 오류를 나타낸다.
var ErrConfigInvalid = errors.New("config invalid")

// InvalidError lists every problem found while loading or validating the config.
type InvalidError struct {
	Problems []string
}

func (e *InvalidError) Error() string {
	return fmt.Sprintf("%s: %s", ErrConfigInvalid, strings.Join(e.Problems, "; "))
}

func (e *InvalidError) Is(target error) bool { return target == ErrConfigInvalid }

// Validate 는 설정 범위를 검사한다.
func (c AppConfig) Validate() error {
	var p []string
	check := func(ok bool, format string, args ...any) {
		if !ok {
			p = append(p, fmt.Sprintf(format, args...))
		}
	}

	check(c.Pipeline.CycleMinutes > 0, "CYCLE_MINUTES must be > 0, got %d", c.Pipeline.CycleMinutes)
	check(c.Pipeline.MaxWorkers > 0, "MAX_WORKERS must be > 0, got %d", c.Pipeline.MaxWorkers)
	check(c.Pipeline.SourceTimeoutSeconds > 0, "SOURCE_TIMEOUT_SECONDS must be > 0, got %d", c.Pipeline.SourceTimeoutSeconds)
	check(c.Pipeline.EnrichTimeoutSeconds > 0, "ENRICH_TIMEOUT_SECONDS must be > 0, got %d", c.Pipeline.EnrichTimeoutSeconds)

	check(c.Viral.ViewsThreshold >= 0, "THRESHOLD_VIRAL_VIEWS must be >= 0, got %d", c.Viral.ViewsThreshold)
	check(c.Viral.LikesThreshold >= 0, "THRESHOLD_VIRAL_LIKES must be >= 0, got %d", c.Viral.LikesThreshold)
	check(c.Viral.SharesThreshold >= 0, "THRESHOLD_VIRAL_SHARES must be >= 0, got %d", c.Viral.SharesThreshold)
	check(c.Viral.GrowthRate >= 0, "THRESHOLD_GROWTH_RATE must be >= 0, got %g", c.Viral.GrowthRate)
	check(c.Viral.TimeWindowHours > 0, "TIME_WINDOW_HOURS must be > 0, got %d", c.Viral.TimeWindowHours)
	check(c.Viral.MinSignals >= 1 && c.Viral.MinSignals <= 4, "MIN_VIRAL_SIGNALS must be in [1,4], got %d", c.Viral.MinSignals)

	check(c.Dedup.Threshold >= 0 && c.Dedup.Threshold <= 1, "DUPLICATE_THRESHOLD must be in [0,1], got %g", c.Dedup.Threshold)
	check(c.Dedup.MaxEntries > 0, "DEDUP_MAX_ENTRIES must be > 0, got %d", c.Dedup.MaxEntries)
	check(c.Dedup.RetentionHours > 0, "DEDUP_RETENTION_HOURS must be > 0, got %d", c.Dedup.RetentionHours)
	check(c.Dedup.NGramMode == "char" || c.Dedup.NGramMode == "word", "DEDUP_NGRAM_MODE must be char or word, got %q", c.Dedup.NGramMode)
	check(c.Dedup.NGramSize > 0, "DEDUP_NGRAM_SIZE must be > 0, got %d", c.Dedup.NGramSize)

	check(c.Extraction.MinIngredients >= 0, "MIN_INGREDIENTS must be >= 0")
	check(c.Extraction.MinInstructions >= 0, "MIN_INSTRUCTIONS must be >= 0")

	check(c.Publish.MaxAttempts > 0, "PUBLISH_MAX_ATTEMPTS must be > 0, got %d", c.Publish.MaxAttempts)
	check(c.Publish.BaseDelayMillis >= 0, "PUBLISH_BASE_DELAY_MS must be >= 0")
	check(c.Publish.BackoffMultiplier >= 1, "PUBLISH_BACKOFF_MULTIPLIER must be >= 1, got %g", c.Publish.BackoffMultiplier)
	check(c.Publish.CMSTimeoutSeconds > 0, "CMS_TIMEOUT_SECONDS must be > 0")
	check(c.Publish.MinPublishConfidence >= 0 && c.Publish.MinPublishConfidence <= 1, "MIN_PUBLISH_CONFIDENCE must be in [0,1]")

	switch c.Store.Driver {
	case "memory":
	case "mongo":
		check(c.Store.MongoURI != "", "MONGO_URI is required when STORE_DRIVER=mongo")
	case "sqlite":
		check(c.Store.SQLitePath != "", "SQLITE_PATH is required when STORE_DRIVER=sqlite")
	default:
		p = append(p, fmt.Sprintf("STORE_DRIVER must be memory, mongo or sqlite, got %q", c.Store.Driver))
	}

	switch c.LLM.Provider {
	case "", "none":
	case "google":
		check(c.LLM.GeminiAPIKey != "", "GEMINI_API_KEY is required when LLM_PROVIDER=google")
	case "openai":
		check(c.LLM.OpenAIAPIKey != "", "OPENAI_API_KEY is required when LLM_PROVIDER=openai")
	default:
		p = append(p, fmt.Sprintf("LLM_PROVIDER must be none, google or openai, got %q", c.LLM.Provider))
	}

	check(c.API.Port > 0 && c.API.Port < 65536, "API_PORT out of range: %d", c.API.Port)

	if len(p) > 0 {
		return &InvalidError{Problems: p}
	}
	return nil
}

// Hazards 는 유효하지만 위험한 설정을 사람이 읽을 수 있는 문장으로 반환한다.
// 임계값 0 은 해당 신호를 항상 발생시키므로 나머지 신호 하나만으로 바이럴 판정이 날 수 있다.
func (c AppConfig) Hazards() []string {
	var out []string
	if c.Viral.ViewsThreshold == 0 {
		out = append(out, "THRESHOLD_VIRAL_VIEWS=0: high_views always triggers")
	}
	if c.Viral.LikesThreshold == 0 {
		out = append(out, "THRESHOLD_VIRAL_LIKES=0: high_likes always triggers")
	}
	if c.Viral.SharesThreshold == 0 {
		out = append(out, "THRESHOLD_VIRAL_SHARES=0: high_shares always triggers")
	}
	if c.Viral.GrowthRate == 0 {
		out = append(out, "THRESHOLD_GROWTH_RATE=0: high_growth triggers for every item with a baseline")
	}
	if c.Dedup.Threshold == 0 {
		out = append(out, "DUPLICATE_THRESHOLD=0: any overlap in title and ingredients counts as duplicate")
	}
	return out
}
