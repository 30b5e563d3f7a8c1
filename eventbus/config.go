package eventbus

import (
	"viral-recipes/config"
)

const defaultPartitions = 3

// New 는 Kafka 설정이 있으면 토픽을 준비한 KafkaEventBus 를, 없으면 MemoryEventBus 를 반환한다.
func New(cfg config.KafkaConfig) (EventBus, error) {
	if !cfg.Enabled() {
		config.Logger.Info("kafka not configured, using in-memory event bus")
		return NewMemoryEventBus(), nil
	}

	for _, t := range AllTopics {
		if err := EnsureTopics(cfg.BootstrapServers, t, defaultPartitions); err != nil {
			return nil, err
		}
	}
	return NewKafkaEventBus(cfg.BootstrapServers)
}
