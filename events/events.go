package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"viral-recipes/config"
	"viral-recipes/eventbus"
	"viral-recipes/models"
)

const schemaVersion = "1"

func newBase(t EventType, source string, now time.Time) BaseEvent {
	return BaseEvent{
		ID:        uuid.NewString(),
		Type:      t,
		Timestamp: now.UTC(),
		Source:    source,
		Version:   schemaVersion,
	}
}

// NewRecipeEvent 는 레시피 r 에 대한 t 이벤트를 만든다.
func NewRecipeEvent(t EventType, source string, r models.Recipe, reason string) RecipeEvent {
	return RecipeEvent{
		BaseEvent:   newBase(t, source, time.Now()),
		RecipeID:    r.ID,
		Slug:        r.Slug,
		Title:       r.Title,
		OriginURL:   r.Source.URL,
		Fingerprint: r.DuplicateFingerprint,
		Priority:    r.PublishRecommendation.Priority,
		Reason:      reason,
	}
}

func NewCycleCompletedEvent(source string, stats models.CycleStats) CycleCompletedEvent {
	return CycleCompletedEvent{
		BaseEvent: newBase(CycleCompleted, source, time.Now()),
		Stats:     stats,
	}
}

// SerializeEvent 이벤트를 JSON으로 직렬화하고 타입 정보 반환
func SerializeEvent(event any) ([]byte, EventType, error) {
	var eventType EventType
	switch e := event.(type) {
	case RecipeEvent:
		eventType = e.Type
	case CycleCompletedEvent:
		eventType = e.Type
	default:
		return nil, "", fmt.Errorf("unknown event type: %T", event)
	}

	data, err := json.Marshal(event)
	if err != nil {
		return nil, "", fmt.Errorf("failed to marshal event: %w", err)
	}
	return data, eventType, nil
}

// DeserializeEvent 이벤트 타입에 따라 적절한 구조체로 역직렬화
func DeserializeEvent(eventType EventType, data []byte) (any, error) {
	var event any
	switch eventType {
	case RecipePublished, RecipeQueued, RecipeRejected, RecipeDuplicate, RecipeApproved, RecipeDisapproved:
		event = &RecipeEvent{}
	case CycleCompleted:
		event = &CycleCompletedEvent{}
	default:
		return nil, fmt.Errorf("unknown event type: %s", eventType)
	}

	if err := json.Unmarshal(data, event); err != nil {
		return nil, fmt.Errorf("failed to unmarshal event: %w", err)
	}
	return event, nil
}

// Emitter 는 도메인 이벤트를 버스 토픽으로 발행한다. 발행 실패는 파이프라인을 멈추지 않고 로그만 남긴다.
type Emitter struct {
	bus eventbus.EventBus
}

// NewEmitter 는 bus 가 nil 이면 아무것도 하지 않는 Emitter 를 만든다.
func NewEmitter(bus eventbus.EventBus) *Emitter {
	return &Emitter{bus: bus}
}

func (e *Emitter) Recipe(ctx context.Context, ev RecipeEvent) {
	e.emit(ctx, eventbus.TopicRecipeEvents, ev.ID, ev)
}

func (e *Emitter) Cycle(ctx context.Context, ev CycleCompletedEvent) {
	e.emit(ctx, eventbus.TopicCycleEvents, ev.ID, ev)
}

func (e *Emitter) emit(ctx context.Context, topic eventbus.Topic, id string, ev any) {
	if e == nil || e.bus == nil {
		return
	}
	data, t, err := SerializeEvent(ev)
	if err != nil {
		config.ErrorWithFields("serialize event failed", config.Fields{"error": err.Error()})
		return
	}
	msg := eventbus.Event{ID: id, Type: string(t), Payload: data, MaxRetry: len(eventbus.RetryDelays)}
	if err := e.bus.Publish(ctx, topic.Base(), msg); err != nil {
		config.ErrorWithFields("publish event failed", config.Fields{
			"topic":    topic.Base(),
			"type":     string(t),
			"event_id": id,
			"error":    err.Error(),
		})
	}
}
