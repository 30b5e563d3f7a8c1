package viral

import (
	"context"
	"sort"
	"sync"
	"time"

	"viral-recipes/config"
	"viral-recipes/models"
)

// ObservationStore 는 URL 별 과거 지표 관측값을 영속화한다.
type ObservationStore interface {
	LoadObservations(ctx context.Context, originURL string) ([]models.MetricsObservation, error)
	SaveObservations(ctx context.Context, originURL string, obs []models.MetricsObservation) error
}

// MetricsHistory 는 origin URL 별로 관측된 지표를 기억하고,
// 새 관측값에 time window 만큼 과거의 관측값을 기준점으로 붙인다.
type MetricsHistory struct {
	mu     sync.Mutex
	window time.Duration
	maxPer int
	byURL  map[string][]models.MetricsObservation
	loaded map[string]bool
	store  ObservationStore
}

const defaultMaxObservations = 64

// NewMetricsHistory 는 window 기준의 관측 이력을 만든다. store 가 nil 이면 메모리에만 보관한다.
func NewMetricsHistory(window time.Duration, store ObservationStore) *MetricsHistory {
	return &MetricsHistory{
		window: window,
		maxPer: defaultMaxObservations,
		byURL:  make(map[string][]models.MetricsObservation),
		loaded: make(map[string]bool),
		store:  store,
	}
}

// Attach 는 content 의 관측값을 기록하고, 기준점이 있으면 Baseline 을 채운 사본을 반환한다.
// 기준점은 ObservedAt - window 보다 늦지 않은 관측값 중 가장 최근 것이다.
// 저장소 오류는 기준점 없이 진행하도록 무시하고 로그만 남긴다.
func (h *MetricsHistory) Attach(ctx context.Context, content models.RawContent) models.RawContent {
	if content.OriginURL == "" || content.Baseline != nil {
		return content
	}
	now := content.ObservedAt
	if now.IsZero() {
		now = time.Now()
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	key := content.OriginURL
	if !h.loaded[key] && h.store != nil {
		obs, err := h.store.LoadObservations(ctx, key)
		if err != nil {
			config.WarnWithFields("metrics history load failed", config.Fields{"origin_url": key, "error": err.Error()})
		} else {
			h.byURL[key] = obs
		}
	}
	h.loaded[key] = true

	obs := h.byURL[key]
	var baseline *models.MetricsObservation
	cutoff := now.Add(-h.window)
	for i := len(obs) - 1; i >= 0; i-- {
		if !obs[i].ObservedAt.After(cutoff) {
			b := obs[i]
			baseline = &b
			break
		}
	}

	obs = append(obs, models.MetricsObservation{Metrics: content.Metrics, ObservedAt: now})
	h.byURL[key] = h.prune(obs, now)

	if h.store != nil {
		if err := h.store.SaveObservations(ctx, key, h.byURL[key]); err != nil {
			config.WarnWithFields("metrics history save failed", config.Fields{"origin_url": key, "error": err.Error()})
		}
	}

	return content.WithBaseline(baseline)
}

// prune 은 시간순 정렬 후 기준점으로 쓰일 수 있는 가장 최근의 오래된 관측값 하나만 남기고
// 그보다 오래된 관측값을 버린다.
func (h *MetricsHistory) prune(obs []models.MetricsObservation, now time.Time) []models.MetricsObservation {
	sort.SliceStable(obs, func(i, j int) bool { return obs[i].ObservedAt.Before(obs[j].ObservedAt) })

	cutoff := now.Add(-h.window)
	keepFrom := 0
	for i := range obs {
		if !obs[i].ObservedAt.After(cutoff) {
			keepFrom = i
		}
	}
	obs = obs[keepFrom:]
	if len(obs) > h.maxPer {
		obs = obs[len(obs)-h.maxPer:]
	}
	return append([]models.MetricsObservation(nil), obs...)
}

// Len returns the number of tracked origin URLs.
func (h *MetricsHistory) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.byURL)
}
