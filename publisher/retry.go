package publisher

import (
	"context"
	"math"
	"time"

	"viral-recipes/config"
)

// RetryPolicy 는 TransientError 에 대한 지수 백오프 정책이다.
// n 번째 재시도 전 대기 = BaseDelay * Multiplier^(n-1), MaxDelay 로 상한.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	Multiplier  float64
	MaxDelay    time.Duration
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		BaseDelay:   500 * time.Millisecond,
		Multiplier:  2,
		MaxDelay:    10 * time.Second,
	}
}

func RetryPolicyFromConfig(c config.PublishConfig) RetryPolicy {
	p := DefaultRetryPolicy()
	if c.MaxAttempts > 0 {
		p.MaxAttempts = c.MaxAttempts
	}
	if c.BaseDelayMillis > 0 {
		p.BaseDelay = c.BaseDelay()
	}
	if c.BackoffMultiplier >= 1 {
		p.Multiplier = c.BackoffMultiplier
	}
	return p
}

// Delay 는 retry 번째(1부터) 재시도 전의 대기 시간이다.
func (p RetryPolicy) Delay(retry int) time.Duration {
	if retry <= 0 || p.BaseDelay <= 0 {
		return 0
	}
	mult := p.Multiplier
	if mult < 1 {
		mult = 1
	}
	d := float64(p.BaseDelay) * math.Pow(mult, float64(retry-1))
	if p.MaxDelay > 0 && d > float64(p.MaxDelay) {
		return p.MaxDelay
	}
	return time.Duration(d)
}

func (p RetryPolicy) attempts() int {
	return max(p.MaxAttempts, 1)
}

// sleepCtx 는 d 만큼 기다리거나 ctx 가 끝나면 ctx 에러를 반환한다.
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
