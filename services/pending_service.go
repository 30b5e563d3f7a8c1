package services

import (
	"context"

	"viral-recipes/dto"
	"viral-recipes/publisher"
)

// PendingService 는 승인 대기열 조회와 승인/반려를 제공한다.
type PendingService struct {
	store publisher.PendingStore
}

func NewPendingService(store publisher.PendingStore) *PendingService {
	return &PendingService{store: store}
}

func (s *PendingService) List(ctx context.Context) ([]dto.PendingDTO, error) {
	items, err := s.store.ListPending(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]dto.PendingDTO, 0, len(items))
	for _, p := range items {
		out = append(out, dto.NewPendingDTO(p))
	}
	return out, nil
}

func (s *PendingService) Get(ctx context.Context, id string) (*dto.PendingDTO, error) {
	p, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	d := dto.NewPendingDTO(p)
	return &d, nil
}

// Approve 는 싱크로 게시한다. 실패하면 항목은 대기열에 남는다.
func (s *PendingService) Approve(ctx context.Context, id string) (*dto.PendingDTO, error) {
	p, err := s.store.Approve(ctx, id)
	if err != nil {
		return nil, err
	}
	d := dto.NewPendingDTO(p)
	return &d, nil
}

func (s *PendingService) Reject(ctx context.Context, id, reason string) (*dto.PendingDTO, error) {
	if reason == "" {
		reason = "rejected by reviewer"
	}
	p, err := s.store.Reject(ctx, id, reason)
	if err != nil {
		return nil, err
	}
	d := dto.NewPendingDTO(p)
	return &d, nil
}
