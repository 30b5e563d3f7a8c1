package eventbus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// RetryDelays 는 재시도 횟수(1-based)별 지연 시간이다. 감사 로그 저장 실패처럼
// 일시적인 핸들러 오류에 대비한다.
var RetryDelays = []time.Duration{
	10 * time.Second,
	30 * time.Second,
	1 * time.Minute,
	5 * time.Minute,
}

// Topic 은 기본 토픽 이름과 그에 딸린 재시도/DLQ 토픽 이름을 만든다.
type Topic struct {
	base string
}

func NewTopic(base string) Topic {
	return Topic{base: base}
}

func (t Topic) Base() string {
	return t.base
}

// DLQ 는 최대 재시도를 넘긴 이벤트가 가는 토픽이다 (예: viral-recipes.recipe.events.dlq).
func (t Topic) DLQ() string {
	return t.base + ".dlq"
}

// GetRetryTopics returns every delayed retry topic, in RetryDelays order.
func (t Topic) GetRetryTopics() []string {
	topics := make([]string, len(RetryDelays))
	for i, delay := range RetryDelays {
		topics[i] = retryTopicName(t.base, delay)
	}
	return topics
}

// GetRetryTopic 은 retryCount(1부터) 번째 재시도 토픽을 반환한다.
func (t Topic) GetRetryTopic(retryCount int) (string, error) {
	if retryCount <= 0 || retryCount > len(RetryDelays) {
		return "", ErrMaxRetryExceeded
	}
	return retryTopicName(t.base, RetryDelays[retryCount-1]), nil
}

// 형식: <base>.retry.<duration> (예: .retry.30s)
func retryTopicName(base string, delay time.Duration) string {
	return fmt.Sprintf("%s.retry.%s", base, delay.String())
}

// Event 는 버스를 오가는 메시지 봉투다. Type 으로 Payload 의 구체 타입을 구분한다.
type Event struct {
	ID        string          `json:"id"`
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	Retry     int             `json:"retry"`
	MaxRetry  int             `json:"max_retry"`
	LastError string          `json:"last_error,omitempty"`
}

type EventHandler func(ctx context.Context, event Event) error

// EventBus 는 이벤트 발행/구독 추상화다. Subscribe 와 StartRetryReinjector 는 ctx 가
// 끝날 때까지 블록한다.
type EventBus interface {
	Publish(ctx context.Context, topic string, event Event) error
	Subscribe(ctx context.Context, groupID string, topic Topic, handler EventHandler) error
	StartRetryReinjector(ctx context.Context, groupID string, topic Topic) error
	Close()
}

var ErrMaxRetryExceeded = errors.New("max retry exceeded")

// ErrRetryScheduleFailed 는 재시도 토픽이나 DLQ 로의 발행이 실패했음을 뜻한다.
var ErrRetryScheduleFailed = errors.New("retry or dlq publish failed")
