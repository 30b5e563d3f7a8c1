package publisher

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"viral-recipes/config"
	"viral-recipes/db"
	"viral-recipes/events"
	"viral-recipes/metrics"
	"viral-recipes/models"
)

// PendingStore 는 관리자 승인을 기다리는 레시피 큐다.
type PendingStore interface {
	Enqueue(ctx context.Context, recipe models.Recipe, reason string) (models.PendingRecipe, error)
	ListPending(ctx context.Context) ([]models.PendingRecipe, error)
	Get(ctx context.Context, id string) (models.PendingRecipe, error)
	Approve(ctx context.Context, id string) (models.PendingRecipe, error)
	Reject(ctx context.Context, id, reason string) (models.PendingRecipe, error)
}

// PendingRepository 는 PendingRecipe 영속화 계층이다. 없는 ID 는 db.ErrNotFound 를 감싸 반환한다.
type PendingRepository interface {
	SavePending(ctx context.Context, p models.PendingRecipe) error
	GetPending(ctx context.Context, id string) (models.PendingRecipe, error)
	ListPendingRecipes(ctx context.Context) ([]models.PendingRecipe, error)
}

// RecipeRecorder 는 라우팅 결과를 처리 레시피 저장소에 남긴다.
type RecipeRecorder interface {
	SaveRecipeRecord(ctx context.Context, rec models.RecipeRecord) error
}

// Queue 는 저장소 기반 PendingStore 다. Approve 는 RetryPolicy 를 적용해 싱크로 게시한다.
type Queue struct {
	repo     PendingRepository
	delivery delivery
	recorder RecipeRecorder
	emitter  *events.Emitter
	now      func() time.Time

	locksMu sync.Mutex
	locks   map[string]*decisionLock
}

// decisionLock 은 pending ID 하나에 대한 승인/거절을 직렬화한다.
type decisionLock struct {
	mu   sync.Mutex
	refs int
}

func NewQueue(repo PendingRepository, sink Sink, policy RetryPolicy, recorder RecipeRecorder, emitter *events.Emitter) *Queue {
	return &Queue{
		repo:     repo,
		delivery: delivery{sink: sink, policy: policy, sleep: sleepCtx},
		recorder: recorder,
		emitter:  emitter,
		now:      time.Now,
		locks:    make(map[string]*decisionLock),
	}
}

// lockDecision 은 id 의 결정 잠금을 잡고 해제 함수를 반환한다.
// 상태 확인부터 게시, 저장까지 같은 잠금 안에서 해야 동시 승인이 두 번 게시하지 않는다.
func (q *Queue) lockDecision(id string) func() {
	q.locksMu.Lock()
	l, ok := q.locks[id]
	if !ok {
		l = &decisionLock{}
		q.locks[id] = l
	}
	l.refs++
	q.locksMu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		q.locksMu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(q.locks, id)
		}
		q.locksMu.Unlock()
	}
}

func (q *Queue) Enqueue(ctx context.Context, recipe models.Recipe, reason string) (models.PendingRecipe, error) {
	p := models.PendingRecipe{
		ID:         uuid.NewString(),
		Recipe:     recipe,
		Status:     models.PendingStatusPending,
		Reason:     reason,
		EnqueuedAt: q.now().UTC(),
	}
	if err := q.repo.SavePending(ctx, p); err != nil {
		return models.PendingRecipe{}, fmt.Errorf("enqueue %s: %w", recipe.Slug, err)
	}
	q.refreshGauge(ctx)
	return p, nil
}

// ListPending 은 아직 결정되지 않은 항목만 등록 순서대로 반환한다.
func (q *Queue) ListPending(ctx context.Context) ([]models.PendingRecipe, error) {
	all, err := q.repo.ListPendingRecipes(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]models.PendingRecipe, 0, len(all))
	for _, p := range all {
		if p.Status == models.PendingStatusPending {
			out = append(out, p)
		}
	}
	return out, nil
}

func (q *Queue) Get(ctx context.Context, id string) (models.PendingRecipe, error) {
	p, err := q.repo.GetPending(ctx, id)
	if errors.Is(err, db.ErrNotFound) {
		return models.PendingRecipe{}, fmt.Errorf("%w: %s", ErrPendingNotFound, id)
	}
	return p, err
}

// Approve 는 항목을 싱크로 게시한다. 게시에 실패하면 항목은 pending 으로 남고 에러를 반환한다.
// 같은 항목에 대한 동시 결정은 순서대로 처리되고, 뒤의 것은 ErrAlreadyDecided 를 받는다.
func (q *Queue) Approve(ctx context.Context, id string) (models.PendingRecipe, error) {
	unlock := q.lockDecision(id)
	defer unlock()

	p, err := q.undecided(ctx, id)
	if err != nil {
		return models.PendingRecipe{}, err
	}

	attempts, err := q.delivery.deliver(ctx, p.Recipe)
	if err != nil {
		config.ErrorWithFields("approved recipe publish failed", config.Fields{
			"pending_id": id,
			"slug":       p.Recipe.Slug,
			"attempts":   attempts,
			"error":      err.Error(),
		})
		return p, fmt.Errorf("publish %s: %w", p.Recipe.Slug, err)
	}

	now := q.now().UTC()
	p.Status = models.PendingStatusApproved
	p.DecidedAt = &now
	if err := q.repo.SavePending(ctx, p); err != nil {
		return p, fmt.Errorf("save approval %s: %w", id, err)
	}
	q.record(ctx, p.Recipe, models.PublishStatusPublished, attempts, "approved")

	ev := events.NewRecipeEvent(events.RecipeApproved, "api", p.Recipe, "")
	ev.Attempts = attempts
	ev.PendingID = p.ID
	q.emitter.Recipe(ctx, ev)
	q.refreshGauge(ctx)
	return p, nil
}

func (q *Queue) Reject(ctx context.Context, id, reason string) (models.PendingRecipe, error) {
	unlock := q.lockDecision(id)
	defer unlock()

	p, err := q.undecided(ctx, id)
	if err != nil {
		return models.PendingRecipe{}, err
	}

	now := q.now().UTC()
	p.Status = models.PendingStatusRejected
	p.DecidedAt = &now
	if reason != "" {
		p.Reason = reason
	}
	if err := q.repo.SavePending(ctx, p); err != nil {
		return p, fmt.Errorf("save rejection %s: %w", id, err)
	}
	q.record(ctx, p.Recipe, models.PublishStatusRejected, 0, p.Reason)

	ev := events.NewRecipeEvent(events.RecipeDisapproved, "api", p.Recipe, p.Reason)
	ev.PendingID = p.ID
	q.emitter.Recipe(ctx, ev)
	q.refreshGauge(ctx)
	return p, nil
}

func (q *Queue) undecided(ctx context.Context, id string) (models.PendingRecipe, error) {
	p, err := q.Get(ctx, id)
	if err != nil {
		return models.PendingRecipe{}, err
	}
	if p.Status != models.PendingStatusPending {
		return models.PendingRecipe{}, fmt.Errorf("%w: %s is %s", ErrAlreadyDecided, id, p.Status)
	}
	return p, nil
}

func (q *Queue) record(ctx context.Context, r models.Recipe, status models.PublishStatus, attempts int, reason string) {
	if q.recorder == nil {
		return
	}
	now := q.now().UTC()
	rec := models.RecipeRecord{
		ID:        r.ID,
		Recipe:    r,
		Status:    status,
		Attempts:  attempts,
		Reason:    reason,
		RoutedAt:  now,
		UpdatedAt: now,
	}
	if err := q.recorder.SaveRecipeRecord(ctx, rec); err != nil {
		config.ErrorWithFields("save recipe record failed", config.Fields{
			"slug":  r.Slug,
			"error": err.Error(),
		})
	}
}

func (q *Queue) refreshGauge(ctx context.Context) {
	if pending, err := q.ListPending(ctx); err == nil {
		metrics.PendingQueueSize.Set(float64(len(pending)))
	}
}
