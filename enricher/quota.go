package enricher

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"viral-recipes/config"
)

// Quota 는 LLM 호출의 분당/일일 한도를 관리한다.
// 인스턴스 하나를 전제로 인메모리로 동작하며 재시작하면 일일 카운터가 초기화된다.
type Quota struct {
	mu sync.Mutex

	dailyLimit int
	usedToday  int
	dayKey     string

	limiter *rate.Limiter
	now     func() time.Time
}

// NewQuota 는 0 이하의 한도를 "제한 없음" 으로 취급한다.
func NewQuota(requestsPerMinute, requestsPerDay int) *Quota {
	limit := rate.Inf
	if requestsPerMinute > 0 {
		limit = rate.Every(time.Minute / time.Duration(requestsPerMinute))
	}
	if requestsPerDay < 0 {
		requestsPerDay = 0
	}
	return &Quota{
		dailyLimit: requestsPerDay,
		limiter:    rate.NewLimiter(limit, 1),
		now:        time.Now,
	}
}

func NewQuotaFromConfig(cfg config.LLMConfig) *Quota {
	return NewQuota(cfg.RequestsPerMinute, cfg.RequestsPerDay)
}

// WaitAndReserve 는 LLM 호출 전에 한도를 적용한다.
//   - 일일 한도 소진: (false, nil). 호출자는 LLM 을 건너뛰어야 한다.
//   - 컨텍스트 취소: (false, err).
func (q *Quota) WaitAndReserve(ctx context.Context) (bool, error) {
	q.mu.Lock()
	today := q.now().UTC().Format("2006-01-02")
	if q.dayKey != today {
		q.dayKey = today
		q.usedToday = 0
	}
	if q.dailyLimit > 0 && q.usedToday >= q.dailyLimit {
		q.mu.Unlock()
		return false, nil
	}
	q.usedToday++
	q.mu.Unlock()

	if err := q.limiter.Wait(ctx); err != nil {
		q.release()
		return false, err
	}
	return true, nil
}

func (q *Quota) release() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.usedToday > 0 {
		q.usedToday--
	}
}

// Remaining returns the calls left today, or -1 when there is no daily limit.
func (q *Quota) Remaining() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.dailyLimit <= 0 {
		return -1
	}
	if q.dayKey != q.now().UTC().Format("2006-01-02") {
		return q.dailyLimit
	}
	return q.dailyLimit - q.usedToday
}
