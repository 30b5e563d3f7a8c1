package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"viral-recipes/config"
	"viral-recipes/db"
	"viral-recipes/eventbus"
	"viral-recipes/repositories"
)

// auditor 는 레시피/사이클 이벤트를 구독해 감사 로그를 저장하고, 재시도 토픽을 기본 토픽으로 재주입한다.
func main() {
	config.MustInitApp()
	cfg := config.GetConfig()
	config.InitLogger(cfg.Logging)

	if !cfg.Kafka.Enabled() {
		config.Logger.Error("auditor requires KAFKA_BOOTSTRAP_SERVERS")
		os.Exit(1)
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

	handler := newAuditHandler(repositories.NewAuditRepository(store))
	groupID := cfg.Kafka.GroupID + "-auditor"

	var wg sync.WaitGroup
	run := func(name string, fn func() error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := fn(); err != nil && !errors.Is(err, context.Canceled) {
				config.Logger.Errorf("%s error: %v", name, err)
			}
		}()
	}

	run("recipe subscriber", func() error {
		return eventbus.SubscribeJSON(ctx, bus, groupID, eventbus.TopicRecipeEvents, handler.HandleRecipe)
	})
	run("cycle subscriber", func() error {
		return eventbus.SubscribeJSON(ctx, bus, groupID, eventbus.TopicCycleEvents, handler.HandleCycle)
	})
	for _, t := range eventbus.AllTopics {
		topicGroupID := groupID + "-retry-" + strings.ReplaceAll(t.Base(), ".", "-")
		run("retry reinjector "+t.Base(), func() error {
			return bus.StartRetryReinjector(ctx, topicGroupID, t)
		})
	}

	config.Logger.Info("starting auditor service with eventbus...")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan
	config.Logger.Info("received shutdown signal, shutting down auditor...")

	cancel()
	wg.Wait()

	config.Logger.Info("auditor stopped")
}
