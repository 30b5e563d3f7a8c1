package eventbus

import (
	"context"
	"sync"

	"viral-recipes/config"
)

// MemoryEventBus 는 Kafka 가 없을 때 쓰는 프로세스 내부 버스다.
// Publish 는 구독자를 동기로 호출하고, 실패한 이벤트는 지연 없이 MaxRetry 번 다시 실행한 뒤 DLQ 에 남긴다.
type MemoryEventBus struct {
	mu        sync.RWMutex
	handlers  map[string][]EventHandler
	topics    map[string]Topic
	published map[string][]Event
}

func NewMemoryEventBus() *MemoryEventBus {
	return &MemoryEventBus{
		handlers:  make(map[string][]EventHandler),
		topics:    make(map[string]Topic),
		published: make(map[string][]Event),
	}
}

func (m *MemoryEventBus) Publish(ctx context.Context, topic string, event Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	m.published[topic] = append(m.published[topic], event)
	handlers := append([]EventHandler(nil), m.handlers[topic]...)
	t := m.topics[topic]
	m.mu.Unlock()

	for _, h := range handlers {
		m.deliver(ctx, t, event, h)
	}
	return nil
}

func (m *MemoryEventBus) deliver(ctx context.Context, t Topic, evt Event, h EventHandler) {
	if evt.MaxRetry <= 0 || evt.MaxRetry > len(RetryDelays) {
		evt.MaxRetry = len(RetryDelays)
	}
	for {
		err := h(ctx, evt)
		if err == nil {
			return
		}
		evt.LastError = err.Error()
		if evt.Retry >= evt.MaxRetry || ctx.Err() != nil {
			m.mu.Lock()
			m.published[t.DLQ()] = append(m.published[t.DLQ()], evt)
			m.mu.Unlock()
			config.ErrorWithFields("event moved to dlq", config.Fields{
				"event_id": evt.ID,
				"type":     evt.Type,
				"dlq":      t.DLQ(),
				"error":    err.Error(),
			})
			return
		}
		evt.Retry++
	}
}

// Subscribe 는 handler 를 등록하고 ctx 가 끝날 때까지 블록한다.
func (m *MemoryEventBus) Subscribe(ctx context.Context, groupID string, topic Topic, handler EventHandler) error {
	m.mu.Lock()
	m.handlers[topic.Base()] = append(m.handlers[topic.Base()], handler)
	m.topics[topic.Base()] = topic
	m.mu.Unlock()

	<-ctx.Done()
	return ctx.Err()
}

// StartRetryReinjector 는 재시도가 Publish 안에서 끝나므로 ctx 종료까지 기다리기만 한다.
func (m *MemoryEventBus) StartRetryReinjector(ctx context.Context, groupID string, topic Topic) error {
	<-ctx.Done()
	return ctx.Err()
}

// Subscribers reports how many handlers are registered for topic.
func (m *MemoryEventBus) Subscribers(topic Topic) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.handlers[topic.Base()])
}

// Published returns a copy of every event published to topic.
func (m *MemoryEventBus) Published(topic string) []Event {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]Event(nil), m.published[topic]...)
}

func (m *MemoryEventBus) Close() {}
