package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"viral-recipes/api/router"
	"viral-recipes/config"
	"viral-recipes/db"
	"viral-recipes/dedup"
	_ "viral-recipes/docs"
	"viral-recipes/enricher"
	"viral-recipes/eventbus"
	"viral-recipes/events"
	"viral-recipes/orchestrator"
	"viral-recipes/processor"
	"viral-recipes/publisher"
	"viral-recipes/repositories"
	"viral-recipes/services"
	"viral-recipes/sources"
	"viral-recipes/viral"
)

// @title           Viral Recipes Admin API
// @version         1.0
// @description     Monitor cycles, browse processed recipes and review the approval queue
// @BasePath        /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	// 설정 오류는 RUNNING 진입 전에 종료한다.
	if err := config.InitApp(); err != nil {
		config.Logger.Errorf("invalid configuration: %v", err)
		os.Exit(1)
	}
	cfg := config.GetConfig()
	config.InitLogger(cfg.Logging)
	for _, h := range cfg.Hazards() {
		config.Logger.Warnf("configuration hazard: %s", h)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, err := db.Open(ctx, cfg.Store)
	if err != nil {
		config.Logger.Errorf("failed to open store: %v", err)
		os.Exit(1)
	}
	defer store.Close(context.Background())

	bus, err := eventbus.New(cfg.Kafka)
	if err != nil {
		config.Logger.Errorf("failed to create event bus: %v", err)
		os.Exit(1)
	}
	defer bus.Close()
	emitter := events.NewEmitter(bus)

	recipeRepo := repositories.NewRecipeRepository(store)
	pendingRepo := repositories.NewPendingRepository(store)
	statsRepo := repositories.NewCycleStatsRepository(store)

	enr, err := enricher.New(ctx, cfg.LLM, repositories.NewAILogRepository(store))
	if err != nil {
		config.Logger.Warnf("llm enricher unavailable, using rule-based enrichment: %v", err)
		enr = enricher.NewRules()
	}
	proc := processor.New(enr, processor.OptionsFromConfig(cfg))

	dedupOpts, err := dedup.OptionsFromConfig(cfg.Dedup)
	if err != nil {
		config.Logger.Errorf("invalid dedup options: %v", err)
		os.Exit(1)
	}
	engine := dedup.New(dedupOpts, repositories.NewDedupRecordRepository(store))
	if err := engine.Load(ctx); err != nil {
		config.Logger.Errorf("failed to load dedup window: %v", err)
		os.Exit(1)
	}

	sink := publisher.NewCMSSink(cfg.Publish, nil, publisher.DefaultBreakerSettings())
	policy := publisher.RetryPolicyFromConfig(cfg.Publish)
	queue := publisher.NewQueue(pendingRepo, sink, policy, recipeRepo, emitter)
	routes := publisher.NewRouter(sink, policy, queue, recipeRepo, emitter)

	orch := orchestrator.New(orchestrator.Deps{
		Sources:   sources.FromConfig(cfg, nil),
		Baseline:  viral.NewMetricsHistory(cfg.Viral.TimeWindow(), repositories.NewBaselineRepository(store)),
		Processor: proc,
		Dedup:     engine,
		Router:    routes,
		Stats:     statsRepo,
		Emitter:   emitter,
	}, orchestrator.OptionsFromConfig(cfg))
	if err := orch.Load(ctx); err != nil {
		config.Logger.Errorf("failed to load cycle stats: %v", err)
		os.Exit(1)
	}

	engineHTTP := router.New(router.Deps{
		Recipes: services.NewRecipeService(recipeRepo),
		Pending: services.NewPendingService(queue),
		System:  services.NewSystemService(ctx, orch, routes, queue, sink.State),
		APIKey:  cfg.API.APIKey,
		Health: func(ctx context.Context) error {
			_, err := store.Exists(ctx, "health", "ping")
			return err
		},
	})
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.API.Port),
		Handler:           router.WithCORS(engineHTTP, cfg.API.CORSOrigins),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		config.Logger.Infof("admin api listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			config.Logger.Errorf("admin api error: %v", err)
			cancel()
		}
	}()

	if err := orch.Go(ctx); err != nil {
		config.Logger.Errorf("failed to start orchestrator: %v", err)
		os.Exit(1)
	}

	// Graceful shutdown 설정
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigChan:
		config.Logger.Info("received shutdown signal, stopping orchestrator...")
	case <-ctx.Done():
	}

	// 실행 중인 단계는 끝까지 진행한 뒤 멈춘다.
	if _, err := orch.Stop(); err != nil {
		config.Logger.Warnf("stop: %v", err)
	}
	<-orch.Done()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		config.Logger.Errorf("admin api shutdown error: %v", err)
	}

	config.Logger.Info("viral-recipes stopped")
}
