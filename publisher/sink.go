package publisher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"viral-recipes/config"
	"viral-recipes/httpclient"
	"viral-recipes/metrics"
	"viral-recipes/models"
)

// Sink 는 레시피를 외부 CMS 에 게시한다.
// 실패는 *TransientError 또는 *RejectedError 로 반환한다.
type Sink interface {
	Publish(ctx context.Context, recipe models.Recipe) error
}

const cmsBreakerName = "cms"

// CMSSink 는 CMS HTTP API 로 레시피를 POST 한다. 연속 실패 시 회로를 열어 호출을 멈춘다.
type CMSSink struct {
	client  *httpclient.BaseClient
	apiKey  string
	timeout time.Duration
	cb      *gobreaker.CircuitBreaker[struct{}]
}

// BreakerSettings 는 CMS 회로 차단기 설정이다.
// 최소 5건 중 60% 이상이 일시 오류면 열리고, 30초 뒤 half-open 으로 1건을 시험한다.
type BreakerSettings struct {
	MinRequests  uint32
	FailureRatio float64
	OpenTimeout  time.Duration
	Interval     time.Duration
}

func DefaultBreakerSettings() BreakerSettings {
	return BreakerSettings{
		MinRequests:  5,
		FailureRatio: 0.6,
		OpenTimeout:  30 * time.Second,
		Interval:     time.Minute,
	}
}

func NewCMSSink(cfg config.PublishConfig, client *http.Client, bs BreakerSettings) *CMSSink {
	if client == nil {
		client = httpclient.New(httpclient.Config{Timeout: cfg.CMSTimeout()})
	}

	metrics.CircuitBreakerState.WithLabelValues(cmsBreakerName).Set(0)

	cb := gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:        cmsBreakerName,
		MaxRequests: 1,
		Interval:    bs.Interval,
		Timeout:     bs.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < bs.MinRequests {
				return false
			}
			ratio := float64(counts.TotalFailures) / float64(counts.Requests)
			return ratio >= bs.FailureRatio
		},
		// 영구 거부는 CMS 가 살아 있다는 뜻이므로 실패로 세지 않는다.
		IsSuccessful: func(err error) bool {
			return err == nil || IsRejected(err)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			config.WarnWithFields("circuit breaker state changed", config.Fields{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			})
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, from.String(), to.String()).Inc()
		},
	})

	return &CMSSink{
		client:  httpclient.NewBaseClientWithClient(client, cfg.CMSEndpoint),
		apiKey:  cfg.CMSAPIKey,
		timeout: cfg.CMSTimeout(),
		cb:      cb,
	}
}

func (s *CMSSink) Publish(ctx context.Context, recipe models.Recipe) error {
	_, err := s.cb.Execute(func() (struct{}, error) {
		return struct{}{}, s.post(ctx, recipe)
	})
	switch {
	case err == nil:
		metrics.CircuitBreakerRequests.WithLabelValues(cmsBreakerName, "success").Inc()
		return nil
	case errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests):
		metrics.CircuitBreakerRequests.WithLabelValues(cmsBreakerName, "rejected").Inc()
		return &TransientError{Err: err}
	default:
		metrics.CircuitBreakerRequests.WithLabelValues(cmsBreakerName, "failure").Inc()
		return err
	}
}

// State 는 현재 회로 상태 이름이다 (closed, half-open, open).
func (s *CMSSink) State() string {
	return s.cb.State().String()
}

func (s *CMSSink) post(ctx context.Context, recipe models.Recipe) error {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	body, err := json.Marshal(recipe)
	if err != nil {
		return &RejectedError{Reason: fmt.Sprintf("encode recipe: %v", err)}
	}
	req, err := s.client.NewJSONRequest(ctx, http.MethodPost, "", body)
	if err != nil {
		return &RejectedError{Reason: err.Error()}
	}
	if s.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.apiKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return &TransientError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	msg := fmt.Sprintf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	if retryableStatus(resp.StatusCode) {
		return &TransientError{Err: errors.New(msg)}
	}
	return &RejectedError{Reason: msg}
}

// retryableStatus 는 레시피 자체가 아니라 CMS 쪽 상태 때문에 실패한 응답이다.
// 401/403 은 잘못된 CMS_API_KEY 이므로 재시도 후 pending 큐로 보내 키를 고친 뒤 승인할 수 있게 한다.
func retryableStatus(code int) bool {
	switch code {
	case http.StatusUnauthorized, http.StatusForbidden, http.StatusRequestTimeout, http.StatusTooManyRequests:
		return true
	}
	return code >= 500
}

func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}
