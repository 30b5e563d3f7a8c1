// Package publisher 는 처리된 레시피를 CMS 자동 게시 또는 승인 대기열로 보낸다.
package publisher

import (
	"context"
	"sync"
	"time"

	"viral-recipes/config"
	"viral-recipes/events"
	"viral-recipes/models"
)

type Mode string

const (
	ModeAuto   Mode = "AUTO"
	ModeManual Mode = "MANUAL"
)

// ModeFromConfig 는 AUTO_MODE 설정을 Mode 로 바꾼다.
func ModeFromConfig(autoMode bool) Mode {
	if autoMode {
		return ModeAuto
	}
	return ModeManual
}

type Outcome string

const (
	OutcomePublished Outcome = "PUBLISHED"
	OutcomeQueued    Outcome = "QUEUED"
	OutcomeRejected  Outcome = "REJECTED"
)

// RouteResult 는 레시피 하나의 라우팅 결과다.
// RejectedBySink 는 싱크가 거부한 경우에만 참이며, 중복으로 인한 REJECTED 와 구분된다.
type RouteResult struct {
	Outcome        Outcome `json:"outcome"`
	Attempts       int     `json:"attempts"`
	Reason         string  `json:"reason,omitempty"`
	PendingID      string  `json:"pending_id,omitempty"`
	RejectedBySink bool    `json:"rejected_by_sink,omitempty"`
	Err            error   `json:"-"`
}

// Stats 는 라우터 누적 카운터다.
type Stats struct {
	Published int `json:"published"`
	Queued    int `json:"queued"`
	Rejected  int `json:"rejected"`
	Duplicate int `json:"duplicate"`
	Attempts  int `json:"attempts"`
}

// Router 는 레시피를 게시, 대기열, 거부 중 하나로 보낸다.
type Router struct {
	delivery delivery
	pending  PendingStore
	recorder RecipeRecorder
	emitter  *events.Emitter
	now      func() time.Time

	mu    sync.Mutex
	stats Stats
}

func NewRouter(sink Sink, policy RetryPolicy, pending PendingStore, recorder RecipeRecorder, emitter *events.Emitter) *Router {
	return &Router{
		delivery: delivery{sink: sink, policy: policy, sleep: sleepCtx},
		pending:  pending,
		recorder: recorder,
		emitter:  emitter,
		now:      time.Now,
	}
}

// Route 는 다음 규칙으로 레시피를 보낸다.
//   - 중복: REJECTED, 싱크는 호출하지 않는다.
//   - MANUAL 이거나 게시 권고가 없으면: QUEUED.
//   - AUTO 이고 게시 권고가 있으면: RetryPolicy 로 싱크 호출. 성공 PUBLISHED,
//     RejectedError 는 REJECTED(재시도 없음), 일시 오류 소진은 QUEUED.
func (r *Router) Route(ctx context.Context, recipe models.Recipe, mode Mode) RouteResult {
	fields := config.Fields{"slug": recipe.Slug, "origin_url": recipe.Source.URL, "mode": string(mode)}

	if recipe.Duplicate {
		res := RouteResult{Outcome: OutcomeRejected, Reason: "duplicate"}
		r.finish(ctx, recipe, res, events.RecipeDuplicate)
		config.InfoWithFields("duplicate recipe rejected", fields)
		return res
	}

	if mode != ModeAuto || !recipe.PublishRecommendation.Publish {
		reason := "manual mode"
		if mode == ModeAuto {
			reason = "below publish confidence"
		}
		return r.queue(ctx, recipe, RouteResult{Reason: reason})
	}

	attempts, err := r.delivery.deliver(ctx, recipe)
	fields["attempts"] = attempts
	switch {
	case err == nil:
		res := RouteResult{Outcome: OutcomePublished, Attempts: attempts}
		r.finish(ctx, recipe, res, events.RecipePublished)
		config.InfoWithFields("recipe published", fields)
		return res
	case IsRejected(err):
		res := RouteResult{Outcome: OutcomeRejected, Attempts: attempts, Reason: err.Error(), RejectedBySink: true, Err: err}
		r.finish(ctx, recipe, res, events.RecipeRejected)
		fields["error"] = err.Error()
		config.ErrorWithFields("recipe rejected by sink", fields)
		return res
	default:
		fields["error"] = err.Error()
		config.WarnWithFields("publish retries exhausted, queueing for review", fields)
		return r.queue(ctx, recipe, RouteResult{Attempts: attempts, Reason: "publish failed: " + err.Error()})
	}
}

func (r *Router) queue(ctx context.Context, recipe models.Recipe, res RouteResult) RouteResult {
	p, err := r.pending.Enqueue(ctx, recipe, res.Reason)
	if err != nil {
		// 대기열에도 넣지 못하면 이번 사이클의 오류로 센다.
		res.Outcome = OutcomeRejected
		res.Err = err
		res.Reason = "enqueue failed: " + err.Error()
		r.finish(ctx, recipe, res, events.RecipeRejected)
		config.ErrorWithFields("enqueue failed", config.Fields{"slug": recipe.Slug, "error": err.Error()})
		return res
	}
	res.Outcome = OutcomeQueued
	res.PendingID = p.ID
	r.finish(ctx, recipe, res, events.RecipeQueued)
	return res
}

func (r *Router) finish(ctx context.Context, recipe models.Recipe, res RouteResult, t events.EventType) {
	r.mu.Lock()
	r.stats.Attempts += res.Attempts
	switch {
	case t == events.RecipeDuplicate:
		r.stats.Duplicate++
	case res.Outcome == OutcomePublished:
		r.stats.Published++
	case res.Outcome == OutcomeQueued:
		r.stats.Queued++
	default:
		r.stats.Rejected++
	}
	r.mu.Unlock()

	if r.recorder != nil {
		now := r.now().UTC()
		rec := models.RecipeRecord{
			ID:        recipe.ID,
			Recipe:    recipe,
			Status:    statusOf(res, t),
			Attempts:  res.Attempts,
			Reason:    res.Reason,
			RoutedAt:  now,
			UpdatedAt: now,
		}
		if err := r.recorder.SaveRecipeRecord(ctx, rec); err != nil {
			config.ErrorWithFields("save recipe record failed", config.Fields{"slug": recipe.Slug, "error": err.Error()})
		}
	}

	ev := events.NewRecipeEvent(t, "orchestrator", recipe, res.Reason)
	ev.Attempts = res.Attempts
	ev.PendingID = res.PendingID
	r.emitter.Recipe(ctx, ev)
}

func statusOf(res RouteResult, t events.EventType) models.PublishStatus {
	switch {
	case t == events.RecipeDuplicate:
		return models.PublishStatusDuplicate
	case res.Outcome == OutcomePublished:
		return models.PublishStatusPublished
	case res.Outcome == OutcomeQueued:
		return models.PublishStatusQueued
	default:
		return models.PublishStatusRejected
	}
}

func (r *Router) Stats() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stats
}
