package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func missingPath(t *testing.T) string {
	return filepath.Join(t.TempDir(), "missing.yaml")
}

func TestLoadDefaultsWithoutFile(t *testing.T) {
	c, err := Load(missingPath(t))
	require.NoError(t, err)

	assert.True(t, c.Pipeline.AutoMode)
	assert.Equal(t, 10*time.Minute, c.Pipeline.CycleInterval())
	assert.EqualValues(t, 100_000, c.Viral.ViewsThreshold)
	assert.EqualValues(t, 5_000, c.Viral.LikesThreshold)
	assert.EqualValues(t, 500, c.Viral.SharesThreshold)
	assert.Equal(t, 50.0, c.Viral.GrowthRate)
	assert.Equal(t, 6*time.Hour, c.Viral.TimeWindow())
	assert.Equal(t, 0.9, c.Dedup.Threshold)
	assert.Equal(t, 4, c.Pipeline.MaxWorkers)
	assert.Equal(t, "memory", c.Store.Driver)
}

func TestLoadAppliesEnvOverrides(t *testing.T) {
	t.Setenv("AUTO_MODE", "false")
	t.Setenv("CYCLE_MINUTES", "3")
	t.Setenv("THRESHOLD_VIRAL_VIEWS", "2500")
	t.Setenv("THRESHOLD_GROWTH_RATE", "12.5")
	t.Setenv("DUPLICATE_THRESHOLD", "0.75")
	t.Setenv("MAX_WORKERS", "8")
	t.Setenv("RSS_FEED_URLS", "https://a.example/feed, https://b.example/rss")
	t.Setenv("TIKTOK_API_URL", "https://api.example/tiktok")

	c, err := Load(missingPath(t))
	require.NoError(t, err)

	assert.False(t, c.Pipeline.AutoMode)
	assert.Equal(t, 3, c.Pipeline.CycleMinutes)
	assert.EqualValues(t, 2500, c.Viral.ViewsThreshold)
	assert.Equal(t, 12.5, c.Viral.GrowthRate)
	assert.Equal(t, 0.75, c.Dedup.Threshold)
	assert.Equal(t, 8, c.Pipeline.MaxWorkers)
	require.Len(t, c.Sources.RSSFeeds, 2)
	assert.Equal(t, "https://b.example/rss", c.Sources.RSSFeeds[1].URL)
	require.Len(t, c.Sources.Platforms, 1)
	assert.Equal(t, "tiktok", c.Sources.Platforms[0].Platform)
}

func TestLoadYamlThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, CONFIG_FILE)
	yml := `
pipeline:
  cycle_minutes: 20
  max_workers: 2
dedup:
  ngram_mode: word
  ngram_size: 2
  stopwords: [de, com]
`
	require.NoError(t, os.WriteFile(path, []byte(yml), 0o644))
	t.Setenv("MAX_WORKERS", "6")

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 20, c.Pipeline.CycleMinutes)
	assert.Equal(t, 6, c.Pipeline.MaxWorkers)
	assert.Equal(t, "word", c.Dedup.NGramMode)
	assert.Equal(t, []string{"de", "com"}, c.Dedup.Stopwords)
	// 명시하지 않은 값은 기본값 유지
	assert.True(t, c.Pipeline.AutoMode)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := map[string]string{
		"CYCLE_MINUTES":       "0",
		"MAX_WORKERS":         "-1",
		"DUPLICATE_THRESHOLD": "1.5",
		"TIME_WINDOW_HOURS":   "0",
		"AUTO_MODE":           "sometimes",
		"STORE_DRIVER":        "redis",
	}
	for key, value := range cases {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, value)
			_, err := Load(missingPath(t))
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrConfigInvalid)
			assert.Contains(t, err.Error(), key)
		})
	}
}

func TestLoadEnvSecretsAndLists(t *testing.T) {
	t.Setenv("CMS_API_KEY", "  cms-secret ")
	t.Setenv("API_KEY", "admin-key")
	t.Setenv("GEMINI_API_KEY", "g-key")
	t.Setenv("LLM_PROVIDER", "google")
	t.Setenv("CORS_ORIGINS", "https://a.example, ,https://b.example")
	t.Setenv("DEDUP_STOPWORDS", "de,com")
	t.Setenv("MOCK_EXTERNAL_APIS", "true")
	t.Setenv("LOG_LEVEL", "")

	c, err := Load(missingPath(t))
	require.NoError(t, err)

	assert.Equal(t, "cms-secret", c.Publish.CMSAPIKey)
	assert.Equal(t, "admin-key", c.API.APIKey)
	assert.Equal(t, "g-key", c.LLM.GeminiAPIKey)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, c.API.CORSOrigins)
	assert.Equal(t, []string{"de", "com"}, c.Dedup.Stopwords)
	assert.True(t, c.Sources.Mock)
	assert.Equal(t, "info", c.Logging.Level, "empty variable keeps the default")
}

func TestLoadReportsEveryMalformedVariable(t *testing.T) {
	t.Setenv("MAX_WORKERS", "four")
	t.Setenv("THRESHOLD_GROWTH_RATE", "fast")

	_, err := Load(missingPath(t))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConfigInvalid)

	var invalid *InvalidError
	require.ErrorAs(t, err, &invalid)
	require.Len(t, invalid.Problems, 2)
	assert.Contains(t, err.Error(), "MAX_WORKERS")
	assert.Contains(t, err.Error(), "THRESHOLD_GROWTH_RATE")
}

func TestHazardsReportZeroThresholds(t *testing.T) {
	c := Default()
	assert.Empty(t, c.Hazards())

	c.Viral.SharesThreshold = 0
	hazards := c.Hazards()
	require.Len(t, hazards, 1)
	assert.Contains(t, hazards[0], "high_shares")
}
