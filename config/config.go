package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const ENV_FILE = ".env"
const CONFIG_FILE = "config.yaml"

// AppConfig 는 config.yaml 과 환경변수를 합친 애플리케이션 전역 설정이다.
type AppConfig struct {
	Logging    LoggingConfig    `yaml:"logging" koanf:"logging"`
	Pipeline   PipelineConfig   `yaml:"pipeline" koanf:"pipeline"`
	Viral      ViralConfig      `yaml:"viral" koanf:"viral"`
	Dedup      DedupConfig      `yaml:"dedup" koanf:"dedup"`
	Extraction ExtractionConfig `yaml:"extraction" koanf:"extraction"`
	Publish    PublishConfig    `yaml:"publish" koanf:"publish"`
	Sources    SourcesConfig    `yaml:"sources" koanf:"sources"`
	Store      StoreConfig      `yaml:"store" koanf:"store"`
	Kafka      KafkaConfig      `yaml:"kafka" koanf:"kafka"`
	LLM        LLMConfig        `yaml:"llm" koanf:"llm"`
	API        APIConfig        `yaml:"api" koanf:"api"`
}

type LoggingConfig struct {
	Level string `yaml:"level" koanf:"level"`
}

// PipelineConfig 는 사이클 주기와 단계별 동시성/타임아웃을 정의한다.
type PipelineConfig struct {
	AutoMode              bool `yaml:"auto_mode" koanf:"auto_mode"`
	CycleMinutes          int  `yaml:"cycle_minutes" koanf:"cycle_minutes"`
	MaxWorkers            int  `yaml:"max_workers" koanf:"max_workers"`
	SourceTimeoutSeconds  int  `yaml:"source_timeout_seconds" koanf:"source_timeout_seconds"`
	EnrichTimeoutSeconds  int  `yaml:"enrich_timeout_seconds" koanf:"enrich_timeout_seconds"`
	StatsHistorySize      int  `yaml:"stats_history_size" koanf:"stats_history_size"`
	MaxItemsPerSourcePoll int  `yaml:"max_items_per_source_poll" koanf:"max_items_per_source_poll"`
}

func (p PipelineConfig) CycleInterval() time.Duration {
	return time.Duration(p.CycleMinutes) * time.Minute
}

func (p PipelineConfig) SourceTimeout() time.Duration {
	return time.Duration(p.SourceTimeoutSeconds) * time.Second
}

func (p PipelineConfig) EnrichTimeout() time.Duration {
	return time.Duration(p.EnrichTimeoutSeconds) * time.Second
}

// ViralConfig 는 바이럴 판정 임계값이다.
// 임계값을 0 으로 두면 해당 신호는 항상 발생한다.
type ViralConfig struct {
	ViewsThreshold  int64   `yaml:"views_threshold" koanf:"views_threshold"`
	LikesThreshold  int64   `yaml:"likes_threshold" koanf:"likes_threshold"`
	SharesThreshold int64   `yaml:"shares_threshold" koanf:"shares_threshold"`
	GrowthRate      float64 `yaml:"growth_rate" koanf:"growth_rate"`
	TimeWindowHours int     `yaml:"time_window_hours" koanf:"time_window_hours"`
	MinSignals      int     `yaml:"min_signals" koanf:"min_signals"`
}

func (v ViralConfig) TimeWindow() time.Duration {
	return time.Duration(v.TimeWindowHours) * time.Hour
}

type DedupConfig struct {
	Threshold      float64  `yaml:"threshold" koanf:"threshold"`
	MaxEntries     int      `yaml:"max_entries" koanf:"max_entries"`
	RetentionHours int      `yaml:"retention_hours" koanf:"retention_hours"`
	NGramMode      string   `yaml:"ngram_mode" koanf:"ngram_mode"`
	NGramSize      int      `yaml:"ngram_size" koanf:"ngram_size"`
	Stopwords      []string `yaml:"stopwords" koanf:"stopwords"`
}

func (d DedupConfig) Retention() time.Duration {
	return time.Duration(d.RetentionHours) * time.Hour
}

type ExtractionConfig struct {
	MinIngredients  int `yaml:"min_ingredients" koanf:"min_ingredients"`
	MinInstructions int `yaml:"min_instructions" koanf:"min_instructions"`
}

// PublishConfig 는 CMS 싱크와 재시도 정책 설정이다.
type PublishConfig struct {
	CMSEndpoint          string  `yaml:"cms_endpoint" koanf:"cms_endpoint"`
	CMSAPIKey            string  `yaml:"-" koanf:"cms_api_key"`
	CMSTimeoutSeconds    int     `yaml:"cms_timeout_seconds" koanf:"cms_timeout_seconds"`
	MaxAttempts          int     `yaml:"max_attempts" koanf:"max_attempts"`
	BaseDelayMillis      int     `yaml:"base_delay_ms" koanf:"base_delay_ms"`
	BackoffMultiplier    float64 `yaml:"backoff_multiplier" koanf:"backoff_multiplier"`
	MinPublishConfidence float64 `yaml:"min_publish_confidence" koanf:"min_publish_confidence"`
}

func (p PublishConfig) CMSTimeout() time.Duration {
	return time.Duration(p.CMSTimeoutSeconds) * time.Second
}

func (p PublishConfig) BaseDelay() time.Duration {
	return time.Duration(p.BaseDelayMillis) * time.Millisecond
}

// SourcesConfig 는 폴링 대상 소스 정의이다.
type SourcesConfig struct {
	Mock             bool          `yaml:"mock" koanf:"mock"`
	RSSFeeds         []FeedSource  `yaml:"rss_feeds" koanf:"rss_feeds"`
	Platforms        []PlatformAPI `yaml:"platforms" koanf:"platforms"`
	PlatformAPIToken string        `yaml:"-" koanf:"platform_api_token"`
}

// FeedSource is a single RSS feed configuration item
type FeedSource struct {
	Name string `yaml:"name" koanf:"name"`
	URL  string `yaml:"url" koanf:"url"`
}

// PlatformAPI is a JSON endpoint exposing short-form posts of one platform.
type PlatformAPI struct {
	Platform string `yaml:"platform" koanf:"platform"`
	URL      string `yaml:"url" koanf:"url"`
}

type StoreConfig struct {
	Driver      string `yaml:"driver" koanf:"driver"`
	MongoURI    string `yaml:"mongo_uri" koanf:"mongo_uri"`
	MongoDBName string `yaml:"mongo_db_name" koanf:"mongo_db_name"`
	SQLitePath  string `yaml:"sqlite_path" koanf:"sqlite_path"`
}

type KafkaConfig struct {
	BootstrapServers string `yaml:"bootstrap_servers" koanf:"bootstrap_servers"`
	GroupID          string `yaml:"group_id" koanf:"group_id"`
}

func (k KafkaConfig) Enabled() bool { return k.BootstrapServers != "" }

// LLMConfig 는 재작성(enrichment) 용 LLM 설정이다.
type LLMConfig struct {
	Provider          string `yaml:"provider" koanf:"provider"`
	ModelName         string `yaml:"model_name" koanf:"model_name"`
	GeminiAPIKey      string `yaml:"-" koanf:"gemini_api_key"`
	OpenAIAPIKey      string `yaml:"-" koanf:"openai_api_key"`
	RequestsPerMinute int    `yaml:"requests_per_minute" koanf:"requests_per_minute"`
	RequestsPerDay    int    `yaml:"requests_per_day" koanf:"requests_per_day"`
}

type APIConfig struct {
	Port        int      `yaml:"port" koanf:"port"`
	APIKey      string   `yaml:"-" koanf:"api_key"`
	CORSOrigins []string `yaml:"cors_origins" koanf:"cors_origins"`
}

// Default 는 환경변수와 config.yaml 이 없을 때 사용하는 기본 설정이다.
func Default() AppConfig {
	return AppConfig{
		Logging: LoggingConfig{Level: "info"},
		Pipeline: PipelineConfig{
			AutoMode:              true,
			CycleMinutes:          10,
			MaxWorkers:            4,
			SourceTimeoutSeconds:  30,
			EnrichTimeoutSeconds:  60,
			StatsHistorySize:      100,
			MaxItemsPerSourcePoll: 50,
		},
		Viral: ViralConfig{
			ViewsThreshold:  100_000,
			LikesThreshold:  5_000,
			SharesThreshold: 500,
			GrowthRate:      50,
			TimeWindowHours: 6,
			MinSignals:      2,
		},
		Dedup: DedupConfig{
			Threshold:      0.9,
			MaxEntries:     1000,
			RetentionHours: 72,
			NGramMode:      "char",
			NGramSize:      3,
		},
		Extraction: ExtractionConfig{MinIngredients: 2, MinInstructions: 2},
		Publish: PublishConfig{
			CMSEndpoint:          "http://localhost:8000/api/recipes",
			CMSTimeoutSeconds:    15,
			MaxAttempts:          3,
			BaseDelayMillis:      500,
			BackoffMultiplier:    2,
			MinPublishConfidence: 0.6,
		},
		Store: StoreConfig{
			Driver:      "memory",
			MongoDBName: "viralrecipes",
			SQLitePath:  "viral-recipes.db",
		},
		Kafka: KafkaConfig{GroupID: "viral-recipes-auditor"},
		LLM:   LLMConfig{Provider: "none"},
		API:   APIConfig{Port: 8080, CORSOrigins: []string{"*"}},
	}
}

var config *AppConfig

// InitApp 은 .env 와 config.yaml 을 읽고 환경변수 오버라이드를 적용한다.
// 검증에 실패하면 ErrConfigInvalid 를 감싼 에러를 반환한다.
func InitApp() error {
	// load environment variables
	godotenv.Load(filepath.Join(GetBasePath(), ENV_FILE))

	c, err := Load(filepath.Join(GetBasePath(), CONFIG_FILE))
	if err != nil {
		return err
	}
	config = &c
	return nil
}

// Load reads the yaml file at path (a missing file is not an error), applies
// environment overrides and validates the result.
func Load(path string) (AppConfig, error) {
	c := Default()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &c); err != nil {
			return AppConfig{}, fmt.Errorf("%w: parse %s: %v", ErrConfigInvalid, path, err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return AppConfig{}, fmt.Errorf("read %s: %w", path, err)
	}

	if err := applyEnv(&c); err != nil {
		return AppConfig{}, err
	}
	if err := c.Validate(); err != nil {
		return AppConfig{}, err
	}
	return c, nil
}

// MustInitApp 은 InitApp 이 실패하면 panic 한다.
func MustInitApp() {
	if err := InitApp(); err != nil {
		panic(err)
	}
}

func GetConfig() AppConfig {
	if config == nil {
		if err := InitApp(); err != nil {
			panic(err)
		}
	}

	return *config
}

func GetBasePath() string {
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}

	dir := cwd
	for {
		cfgPath := filepath.Join(dir, CONFIG_FILE)
		if info, err := os.Stat(cfgPath); err == nil && !info.IsDir() {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}
