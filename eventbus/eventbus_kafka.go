package eventbus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"

	"viral-recipes/config"
)

// KafkaEventBus 는 confluent-kafka-go 기반 EventBus 다.
type KafkaEventBus struct {
	Producer *kafka.Producer
	Brokers  string
}

func NewKafkaEventBus(brokers string) (*KafkaEventBus, error) {
	p, err := kafka.NewProducer(&kafka.ConfigMap{
		"bootstrap.servers": brokers,
		"acks":              "all",
		"retries":           5,
	})
	if err != nil {
		return nil, fmt.Errorf("create kafka producer: %w", err)
	}

	// 전달 보고서와 클라이언트 오류를 소비한다.
	go func() {
		for e := range p.Events() {
			switch ev := e.(type) {
			case *kafka.Message:
				if ev.TopicPartition.Error != nil {
					config.ErrorWithFields("kafka delivery failed", config.Fields{
						"topic": topicName(ev.TopicPartition),
						"error": ev.TopicPartition.Error.Error(),
					})
				}
			case kafka.Error:
				config.ErrorWithFields("kafka client error", config.Fields{"error": ev.Error()})
			}
		}
	}()

	return &KafkaEventBus{
		Producer: p,
		Brokers:  brokers,
	}, nil
}

// Close 는 남은 메시지를 최대 5초 플러시한 뒤 Producer 를 닫는다.
func (k *KafkaEventBus) Close() {
	if k.Producer == nil {
		return
	}
	if remaining := k.Producer.Flush(5000); remaining > 0 {
		config.Logger.Warnf("%d messages left unflushed", remaining)
	}
	k.Producer.Close()
	config.Logger.Info("kafka producer closed")
}

func (k *KafkaEventBus) Publish(ctx context.Context, topic string, event Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	deliveryChan := make(chan kafka.Event, 1)

	err = k.Producer.Produce(&kafka.Message{
		TopicPartition: kafka.TopicPartition{Topic: &topic, Partition: kafka.PartitionAny},
		Value:          data,
		Key:            []byte(event.ID),
		Headers:        []kafka.Header{{Key: "type", Value: []byte(event.Type)}},
	}, deliveryChan)
	if err != nil {
		return fmt.Errorf("produce to %s: %w", topic, err)
	}

	select {
	case ev := <-deliveryChan:
		m, ok := ev.(*kafka.Message)
		if !ok {
			return fmt.Errorf("unexpected delivery event %T", ev)
		}
		if m.TopicPartition.Error != nil {
			return fmt.Errorf("deliver to %s: %w", topic, m.TopicPartition.Error)
		}
	case <-ctx.Done():
		return ctx.Err()
	}

	return nil
}

func (k *KafkaEventBus) newConsumer(groupID string) (*kafka.Consumer, error) {
	c, err := kafka.NewConsumer(&kafka.ConfigMap{
		"bootstrap.servers":             k.Brokers,
		"group.id":                      groupID,
		"auto.offset.reset":             "earliest",
		"enable.auto.commit":            false, // 재시도/DLQ 발행이 끝난 뒤에만 커밋한다
		"partition.assignment.strategy": "range",
	})
	if err != nil {
		return nil, fmt.Errorf("create kafka consumer: %w", err)
	}
	return c, nil
}

// Subscribe 는 기본 토픽을 소비하며 handler 를 실행한다. 실패한 이벤트는 다음 재시도 토픽으로,
// 재시도를 모두 쓴 이벤트는 DLQ 로 보낸다.
func (k *KafkaEventBus) Subscribe(ctx context.Context, groupID string, topic Topic, handler EventHandler) error {
	c, err := k.newConsumer(groupID)
	if err != nil {
		return err
	}
	defer c.Close()

	if err := c.SubscribeTopics([]string{topic.Base()}, nil); err != nil {
		return fmt.Errorf("subscribe %s: %w", topic.Base(), err)
	}
	config.InfoWithFields("consumer started", config.Fields{"group_id": groupID, "topic": topic.Base()})

	for {
		select {
		case <-ctx.Done():
			config.Logger.Info("consumer stopping")
			return ctx.Err()
		default:
		}

		msg, err := c.ReadMessage(100 * time.Millisecond)
		if err != nil {
			if fatal := readError(err); fatal != nil {
				return fatal
			}
			continue
		}

		var evt Event
		if err := json.Unmarshal(msg.Value, &evt); err != nil {
			config.ErrorWithFields("invalid event payload, skipping", config.Fields{
				"topic": topicName(msg.TopicPartition),
				"error": err.Error(),
			})
			_, _ = c.CommitMessage(msg)
			continue
		}

		if err := dispatch(ctx, k, topic, evt, handler); err != nil {
			// 재시도/DLQ 발행 실패는 커밋하지 않고 다시 받는다.
			config.ErrorWithFields("event not rescheduled, offset kept", config.Fields{
				"event_id": evt.ID,
				"error":    err.Error(),
			})
			continue
		}

		if _, err := c.CommitMessage(msg); err != nil {
			config.ErrorWithFields("commit failed", config.Fields{"error": err.Error()})
		}
	}
}

// dispatch 는 handler 를 실행하고 실패하면 재시도 토픽이나 DLQ 로 이벤트를 넘긴다.
// 넘기는 발행까지 실패했을 때만 에러를 반환한다.
func dispatch(ctx context.Context, bus EventBus, topic Topic, evt Event, handler EventHandler) error {
	if evt.MaxRetry <= 0 || evt.MaxRetry > len(RetryDelays) {
		evt.MaxRetry = len(RetryDelays)
	}

	herr := handler(ctx, evt)
	if herr == nil {
		return nil
	}

	evt.LastError = herr.Error()
	next := evt.Retry + 1
	target, err := topic.GetRetryTopic(next)
	if next > evt.MaxRetry || errors.Is(err, ErrMaxRetryExceeded) {
		target = topic.DLQ()
		config.ErrorWithFields("event moved to dlq", config.Fields{
			"event_id": evt.ID,
			"type":     evt.Type,
			"dlq":      target,
			"error":    herr.Error(),
		})
	} else {
		evt.Retry = next
		config.WarnWithFields("event handler failed, retry scheduled", config.Fields{
			"event_id": evt.ID,
			"retry":    evt.Retry,
			"topic":    target,
			"error":    herr.Error(),
		})
	}

	if err := bus.Publish(ctx, target, evt); err != nil {
		return fmt.Errorf("%w: %w", ErrRetryScheduleFailed, err)
	}
	return nil
}

// StartRetryReinjector 는 재시도 토픽들을 소비하다가 지연 시간이 지난 메시지를 기본 토픽으로 되돌린다.
func (k *KafkaEventBus) StartRetryReinjector(ctx context.Context, groupID string, topic Topic) error {
	c, err := k.newConsumer(groupID)
	if err != nil {
		return err
	}
	defer c.Close()

	retryTopics := topic.GetRetryTopics()
	if err := c.SubscribeTopics(retryTopics, nil); err != nil {
		return fmt.Errorf("subscribe retry topics: %w", err)
	}
	config.InfoWithFields("retry reinjector started", config.Fields{
		"group_id": groupID,
		"topics":   strings.Join(retryTopics, ","),
	})

	for {
		select {
		case <-ctx.Done():
			config.Logger.Info("retry reinjector stopping")
			return ctx.Err()
		default:
		}

		msg, err := c.ReadMessage(100 * time.Millisecond)
		if err != nil {
			if fatal := readError(err); fatal != nil {
				return fatal
			}
			continue
		}

		name := topicName(msg.TopicPartition)
		delay, ok := ParseRetryDelayFromTopicName(name)
		if !ok {
			config.ErrorWithFields("unparsable retry topic, skipping", config.Fields{"topic": name})
			_, _ = c.CommitMessage(msg)
			continue
		}

		if wait := time.Until(msg.Timestamp.Add(delay)); wait > 0 {
			// 컨슈머 루프를 오래 막지 않도록 짧게만 쉬고, 커밋 없이 같은 위치부터 다시 읽는다.
			time.Sleep(min(max(wait, 50*time.Millisecond), 500*time.Millisecond))
			if err := c.Seek(msg.TopicPartition, 0); err != nil {
				config.ErrorWithFields("seek failed", config.Fields{"topic": name, "error": err.Error()})
			}
			continue
		}

		var evt Event
		if err := json.Unmarshal(msg.Value, &evt); err != nil {
			config.ErrorWithFields("invalid retry payload, skipping", config.Fields{"topic": name, "error": err.Error()})
			_, _ = c.CommitMessage(msg)
			continue
		}

		if err := k.Publish(ctx, topic.Base(), evt); err != nil {
			config.ErrorWithFields("reinject failed, offset kept", config.Fields{"event_id": evt.ID, "error": err.Error()})
			continue
		}
		config.InfoWithFields("event reinjected", config.Fields{"event_id": evt.ID, "retry": evt.Retry, "from": name})

		if _, err := c.CommitMessage(msg); err != nil {
			config.ErrorWithFields("commit failed", config.Fields{"error": err.Error()})
		}
	}
}

// readError 는 타임아웃 등 무시 가능한 읽기 오류면 nil 을, 치명적 오류면 감싼 에러를 반환한다.
func readError(err error) error {
	var kerr kafka.Error
	if errors.As(err, &kerr) {
		if kerr.Code() == kafka.ErrTimedOut {
			return nil
		}
		if kerr.IsFatal() {
			return fmt.Errorf("fatal consumer error: %w", err)
		}
	}
	config.ErrorWithFields("consumer read failed", config.Fields{"error": err.Error()})
	return nil
}

func topicName(tp kafka.TopicPartition) string {
	if tp.Topic == nil {
		return ""
	}
	return *tp.Topic
}
