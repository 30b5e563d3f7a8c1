package publisher

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"viral-recipes/db"
	"viral-recipes/eventbus"
	"viral-recipes/events"
	"viral-recipes/models"
)

type fakeSink struct {
	mu    sync.Mutex
	calls int
	errs  []error // i 번째 호출의 결과. 모자라면 마지막 값을 반복한다.
	delay time.Duration
}

func (s *fakeSink) Publish(ctx context.Context, r models.Recipe) error {
	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if len(s.errs) == 0 {
		return nil
	}
	i := min(s.calls-1, len(s.errs)-1)
	return s.errs[i]
}

type memPending struct {
	mu    sync.Mutex
	items map[string]models.PendingRecipe
	fail  error
}

func newMemPending() *memPending {
	return &memPending{items: make(map[string]models.PendingRecipe)}
}

func (m *memPending) SavePending(ctx context.Context, p models.PendingRecipe) error {
	if m.fail != nil {
		return m.fail
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[p.ID] = p
	return nil
}

func (m *memPending) GetPending(ctx context.Context, id string) (models.PendingRecipe, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.items[id]
	if !ok {
		return models.PendingRecipe{}, fmt.Errorf("pending %s: %w", id, db.ErrNotFound)
	}
	return p, nil
}

func (m *memPending) ListPendingRecipes(ctx context.Context) ([]models.PendingRecipe, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.PendingRecipe, 0, len(m.items))
	for _, p := range m.items {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EnqueuedAt.Before(out[j].EnqueuedAt) })
	return out, nil
}

type memRecorder struct {
	mu      sync.Mutex
	records map[string]models.RecipeRecord
}

func (m *memRecorder) SaveRecipeRecord(ctx context.Context, rec models.RecipeRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.records == nil {
		m.records = make(map[string]models.RecipeRecord)
	}
	m.records[rec.ID] = rec
	return nil
}

type fixture struct {
	sink     *fakeSink
	pending  *memPending
	recorder *memRecorder
	bus      *eventbus.MemoryEventBus
	queue    *Queue
	router   *Router
	sleeps   []time.Duration
}

func newFixture(errs ...error) *fixture {
	f := &fixture{
		sink:     &fakeSink{errs: errs},
		pending:  newMemPending(),
		recorder: &memRecorder{},
		bus:      eventbus.NewMemoryEventBus(),
	}
	emitter := events.NewEmitter(f.bus)
	policy := DefaultRetryPolicy()
	noSleep := func(ctx context.Context, d time.Duration) error {
		f.sleeps = append(f.sleeps, d)
		return nil
	}

	f.queue = NewQueue(f.pending, f.sink, policy, f.recorder, emitter)
	f.queue.delivery.sleep = noSleep
	f.router = NewRouter(f.sink, policy, f.queue, f.recorder, emitter)
	f.router.delivery.sleep = noSleep
	return f
}

func (f *fixture) eventTypes() []string {
	var out []string
	for _, e := range f.bus.Published(eventbus.TopicRecipeEvents.Base()) {
		out = append(out, e.Type)
	}
	return out
}

func publishable(slug string) models.Recipe {
	return models.Recipe{
		ID:                    "id-" + slug,
		Slug:                  slug,
		Title:                 "Receita " + slug,
		PublishRecommendation: models.PublishRecommendation{Publish: true, Priority: models.PriorityViral},
	}
}

func TestRouteDuplicateNeverCallsSink(t *testing.T) {
	f := newFixture()
	r := publishable("dup")
	r.Duplicate = true

	res := f.router.Route(context.Background(), r, ModeAuto)

	assert.Equal(t, OutcomeRejected, res.Outcome)
	assert.False(t, res.RejectedBySink)
	assert.Zero(t, f.sink.calls)
	assert.Equal(t, models.PublishStatusDuplicate, f.recorder.records["id-dup"].Status)
	assert.Equal(t, []string{string(events.RecipeDuplicate)}, f.eventTypes())
	assert.Equal(t, 1, f.router.Stats().Duplicate)
}

func TestRouteAutoPublishes(t *testing.T) {
	f := newFixture()

	res := f.router.Route(context.Background(), publishable("ok"), ModeAuto)

	assert.Equal(t, OutcomePublished, res.Outcome)
	assert.Equal(t, 1, res.Attempts)
	assert.Equal(t, 1, f.sink.calls)
	assert.Equal(t, models.PublishStatusPublished, f.recorder.records["id-ok"].Status)
	assert.Equal(t, []string{string(events.RecipePublished)}, f.eventTypes())
}

func TestRouteTransientExhaustionQueues(t *testing.T) {
	transient := &TransientError{Err: errors.New("503")}
	f := newFixture(transient, transient, transient)

	res := f.router.Route(context.Background(), publishable("flaky"), ModeAuto)

	assert.Equal(t, OutcomeQueued, res.Outcome)
	assert.Equal(t, 3, res.Attempts)
	assert.Equal(t, 3, f.sink.calls)
	assert.Equal(t, []time.Duration{500 * time.Millisecond, time.Second}, f.sleeps)

	pending, err := f.queue.ListPending(context.Background())
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, res.PendingID, pending[0].ID)
	assert.Contains(t, pending[0].Reason, "publish failed")
}

func TestRouteQueuesWhenCMSRefusesCredentials(t *testing.T) {
	f := newFixture()
	sink, _ := newTestSink(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}, DefaultBreakerSettings())
	f.router.delivery.sink = sink

	res := f.router.Route(context.Background(), publishable("bad-key"), ModeAuto)
	assert.Equal(t, OutcomeQueued, res.Outcome)
	assert.Equal(t, DefaultRetryPolicy().MaxAttempts, res.Attempts)
	assert.NotEmpty(t, res.PendingID)
}

func TestRouteRecoversAfterTransient(t *testing.T) {
	f := newFixture(&TransientError{Err: errors.New("timeout")}, nil)

	res := f.router.Route(context.Background(), publishable("second-try"), ModeAuto)

	assert.Equal(t, OutcomePublished, res.Outcome)
	assert.Equal(t, 2, res.Attempts)
}

func TestRouteRejectedIsNotRetried(t *testing.T) {
	f := newFixture(&RejectedError{Reason: "422 invalid"})

	res := f.router.Route(context.Background(), publishable("bad"), ModeAuto)

	assert.Equal(t, OutcomeRejected, res.Outcome)
	assert.True(t, res.RejectedBySink)
	assert.Equal(t, 1, f.sink.calls)
	assert.Empty(t, f.sleeps)
	pending, _ := f.queue.ListPending(context.Background())
	assert.Empty(t, pending)
}

func TestRouteManualAndLowConfidenceQueue(t *testing.T) {
	f := newFixture()

	manual := f.router.Route(context.Background(), publishable("manual"), ModeManual)
	assert.Equal(t, OutcomeQueued, manual.Outcome)
	assert.Equal(t, "manual mode", manual.Reason)

	low := publishable("low")
	low.PublishRecommendation.Publish = false
	res := f.router.Route(context.Background(), low, ModeAuto)
	assert.Equal(t, OutcomeQueued, res.Outcome)

	assert.Zero(t, f.sink.calls)
	assert.Equal(t, 2, f.router.Stats().Queued)
}

func TestRouteEnqueueFailureIsRejected(t *testing.T) {
	f := newFixture()
	f.pending.fail = errors.New("disk full")

	res := f.router.Route(context.Background(), publishable("lost"), ModeManual)

	assert.Equal(t, OutcomeRejected, res.Outcome)
	assert.Error(t, res.Err)
}

func TestApprovePublishesAndMarksApproved(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	queued := f.router.Route(ctx, publishable("review"), ModeManual)

	p, err := f.queue.Approve(ctx, queued.PendingID)
	require.NoError(t, err)
	assert.Equal(t, models.PendingStatusApproved, p.Status)
	assert.NotNil(t, p.DecidedAt)
	assert.Equal(t, 1, f.sink.calls)
	assert.Equal(t, models.PublishStatusPublished, f.recorder.records["id-review"].Status)

	_, err = f.queue.Approve(ctx, queued.PendingID)
	assert.ErrorIs(t, err, ErrAlreadyDecided)

	pending, err := f.queue.ListPending(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestConcurrentApprovePublishesOnce(t *testing.T) {
	f := newFixture()
	f.sink.delay = 50 * time.Millisecond
	ctx := context.Background()
	queued := f.router.Route(ctx, publishable("race"), ModeManual)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = f.queue.Approve(ctx, queued.PendingID)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, f.sink.calls)
	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(t, err, ErrAlreadyDecided)
	}
	assert.Equal(t, 1, succeeded)
	assert.Empty(t, f.queue.locks)
}

func TestApproveFailureLeavesPending(t *testing.T) {
	f := newFixture(&TransientError{Err: errors.New("down")})
	ctx := context.Background()
	queued := f.router.Route(ctx, publishable("later"), ModeManual)

	_, err := f.queue.Approve(ctx, queued.PendingID)
	require.Error(t, err)
	assert.True(t, IsTransient(err))

	p, err := f.queue.Get(ctx, queued.PendingID)
	require.NoError(t, err)
	assert.Equal(t, models.PendingStatusPending, p.Status)
}

func TestRejectPending(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	queued := f.router.Route(ctx, publishable("nope"), ModeManual)

	p, err := f.queue.Reject(ctx, queued.PendingID, "off topic")
	require.NoError(t, err)
	assert.Equal(t, models.PendingStatusRejected, p.Status)
	assert.Equal(t, "off topic", p.Reason)
	assert.Zero(t, f.sink.calls)

	_, err = f.queue.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrPendingNotFound)
}

func TestRetryPolicyDelay(t *testing.T) {
	p := RetryPolicy{MaxAttempts: 5, BaseDelay: 500 * time.Millisecond, Multiplier: 2, MaxDelay: 3 * time.Second}

	assert.Equal(t, time.Duration(0), p.Delay(0))
	assert.Equal(t, 500*time.Millisecond, p.Delay(1))
	assert.Equal(t, time.Second, p.Delay(2))
	assert.Equal(t, 2*time.Second, p.Delay(3))
	assert.Equal(t, 3*time.Second, p.Delay(4), "capped at MaxDelay")
}

func TestDeliveryStopsWhenContextCancelled(t *testing.T) {
	sink := &fakeSink{errs: []error{&TransientError{Err: errors.New("503")}}}
	d := delivery{sink: sink, policy: DefaultRetryPolicy(), sleep: sleepCtx}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	attempts, err := d.deliver(ctx, publishable("x"))

	assert.Equal(t, 1, attempts)
	assert.True(t, IsTransient(err))
	assert.ErrorIs(t, err, context.Canceled)
}
