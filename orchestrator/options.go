package orchestrator

import (
	"time"

	"viral-recipes/config"
	"viral-recipes/publisher"
	"viral-recipes/viral"
)

const defaultStatsHistorySize = 100

type Options struct {
	Thresholds       viral.Thresholds
	Mode             publisher.Mode
	CycleInterval    time.Duration
	SourceTimeout    time.Duration
	EnrichTimeout    time.Duration
	MaxWorkers       int
	StatsHistorySize int
	Now              func() time.Time
}

func OptionsFromConfig(cfg config.AppConfig) Options {
	return Options{
		Thresholds:       viral.ThresholdsFromConfig(cfg.Viral),
		Mode:             publisher.ModeFromConfig(cfg.Pipeline.AutoMode),
		CycleInterval:    cfg.Pipeline.CycleInterval(),
		SourceTimeout:    cfg.Pipeline.SourceTimeout(),
		EnrichTimeout:    cfg.Pipeline.EnrichTimeout(),
		MaxWorkers:       cfg.Pipeline.MaxWorkers,
		StatsHistorySize: cfg.Pipeline.StatsHistorySize,
	}
}

func (o Options) withDefaults() Options {
	if o.Mode == "" {
		o.Mode = publisher.ModeAuto
	}
	if o.CycleInterval <= 0 {
		o.CycleInterval = 10 * time.Minute
	}
	if o.SourceTimeout <= 0 {
		o.SourceTimeout = 30 * time.Second
	}
	if o.EnrichTimeout <= 0 {
		o.EnrichTimeout = time.Minute
	}
	if o.MaxWorkers <= 0 {
		o.MaxWorkers = 4
	}
	if o.StatsHistorySize <= 0 {
		o.StatsHistorySize = defaultStatsHistorySize
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}
