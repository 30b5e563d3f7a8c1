package publisher

import (
	"context"
	"time"

	"viral-recipes/config"
	"viral-recipes/metrics"
	"viral-recipes/models"
)

// delivery 는 Sink 호출에 RetryPolicy 를 적용한다. 라우터와 승인 큐가 함께 쓴다.
type delivery struct {
	sink   Sink
	policy RetryPolicy
	sleep  func(context.Context, time.Duration) error
}

// deliver 는 성공, RejectedError, 또는 시도 횟수 소진까지 게시를 반복한다.
// 반환값은 실제 시도 횟수와 마지막 에러다.
func (d delivery) deliver(ctx context.Context, recipe models.Recipe) (int, error) {
	var err error
	attempts := 0
	for attempts < d.policy.attempts() {
		if attempts > 0 {
			if serr := d.sleep(ctx, d.policy.Delay(attempts)); serr != nil {
				return attempts, &TransientError{Err: serr}
			}
		}
		attempts++

		err = d.sink.Publish(ctx, recipe)
		switch {
		case err == nil:
			metrics.PublishAttempts.WithLabelValues("success").Inc()
			return attempts, nil
		case IsRejected(err):
			metrics.PublishAttempts.WithLabelValues("rejected").Inc()
			return attempts, err
		}

		metrics.PublishAttempts.WithLabelValues("transient").Inc()
		if !IsTransient(err) {
			// 분류되지 않은 에러는 일시 오류로 본다.
			err = &TransientError{Err: err}
		}
		config.WarnWithFields("publish attempt failed", config.Fields{
			"slug":    recipe.Slug,
			"attempt": attempts,
			"error":   err.Error(),
		})
	}
	return attempts, err
}
