package services

import (
	"context"
	"errors"

	"viral-recipes/config"
	"viral-recipes/dto"
	"viral-recipes/orchestrator"
	"viral-recipes/publisher"
)

// BreakerState reports the CMS circuit breaker state; nil when no CMS sink is wired.
type BreakerState func() string

// SystemService 는 오케스트레이터 수명 주기와 상태 조회를 API 에 노출한다.
// baseCtx 는 API 로 시작한 루프가 요청보다 오래 살아야 하므로 프로세스 수명의 컨텍스트다.
type SystemService struct {
	baseCtx context.Context
	orch    *orchestrator.Orchestrator
	router  *publisher.Router
	pending publisher.PendingStore
	breaker BreakerState
}

func NewSystemService(baseCtx context.Context, orch *orchestrator.Orchestrator, router *publisher.Router, pending publisher.PendingStore, breaker BreakerState) *SystemService {
	return &SystemService{baseCtx: baseCtx, orch: orch, router: router, pending: pending, breaker: breaker}
}

func (s *SystemService) Status(ctx context.Context) dto.StatusDTO {
	st := dto.StatusDTO{Orchestrator: s.orch.Status()}
	if s.router != nil {
		st.Publisher = s.router.Stats()
	}
	if s.breaker != nil {
		st.CMSBreaker = s.breaker()
	}
	if s.pending != nil {
		if items, err := s.pending.ListPending(ctx); err == nil {
			st.PendingCount = len(items)
		} else {
			config.WarnWithFields("pending count failed", config.Fields{"error": err.Error()})
		}
	}
	return st
}

// Start 는 IDLE 상태의 오케스트레이터 루프를 시작한다.
func (s *SystemService) Start() error {
	return s.orch.Go(s.baseCtx)
}

func (s *SystemService) Stop() (orchestrator.State, error) {
	return s.orch.Stop()
}

// RunCycle 은 사이클 하나를 즉시 실행한다. 요청이 끊겨도 사이클은 끝까지 진행한다.
// IDLE/SLEEPING 이 아니면 orchestrator.ErrInvalidTransition 을 반환한다.
func (s *SystemService) RunCycle(ctx context.Context) (dto.CycleDTO, error) {
	stats, err := s.orch.RunCycle(context.WithoutCancel(ctx))
	if errors.Is(err, orchestrator.ErrInvalidTransition) {
		return dto.CycleDTO{}, err
	}
	return dto.NewCycleDTO(stats), err
}

// Cycles 는 최근 사이클 통계를 최신순으로 반환한다.
func (s *SystemService) Cycles(limit int) []dto.CycleDTO {
	hist := s.orch.History()
	out := make([]dto.CycleDTO, 0, len(hist))
	for i := len(hist) - 1; i >= 0; i-- {
		out = append(out, dto.NewCycleDTO(hist[i]))
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}
