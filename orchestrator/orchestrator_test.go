package orchestrator

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"viral-recipes/db"
	"viral-recipes/dedup"
	"viral-recipes/models"
	"viral-recipes/publisher"
	"viral-recipes/repositories"
	"viral-recipes/sources"
	"viral-recipes/viral"
)

var thresholds = viral.Thresholds{Views: 100_000, Likes: 5_000, Shares: 500, GrowthRate: 50, TimeWindow: 6 * time.Hour, MinSignals: 2}

func viralItem(url, title string) models.RawContent {
	return models.RawContent{
		SourceType: models.SourceTikTok,
		OriginURL:  url,
		Title:      title,
		Metrics:    models.Metrics{Views: 2_850_000, Likes: 185_000, Shares: 42_000},
		ObservedAt: time.Now(),
	}
}

type fakeSource struct {
	name  string
	items []models.RawContent
	err   error
	block bool
	onPoll func()
}

func (f *fakeSource) Name() string { return f.name }

func (f *fakeSource) Poll(ctx context.Context, since time.Time) ([]models.RawContent, error) {
	if f.onPoll != nil {
		f.onPoll()
	}
	if f.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return f.items, f.err
}

// stubProcessor 는 제목 기반으로 레시피를 만든다. 제목에 "fail" 이 있으면 실패한다.
type stubProcessor struct {
	delay map[string]time.Duration
}

func (p *stubProcessor) Process(ctx context.Context, v models.ViralVerdict) (models.Recipe, error) {
	c := v.Content
	if d := p.delay[c.OriginURL]; d > 0 {
		time.Sleep(d)
	}
	if strings.Contains(c.Title, "fail") {
		return models.Recipe{}, errors.New("extraction failed")
	}
	return models.Recipe{
		ID:           c.OriginURL,
		Title:        c.Title,
		Slug:         strings.ReplaceAll(strings.ToLower(c.Title), " ", "-"),
		Ingredients:  []models.Ingredient{{Name: "farinha"}, {Name: "ovo"}},
		Instructions: []string{"Misture", "Asse"},
		Source:       models.RecipeSource{URL: c.OriginURL},
		PublishRecommendation: models.PublishRecommendation{
			Publish:  v.Confidence >= 0.6,
			Priority: models.Priority("viral"),
		},
	}, nil
}

type recordingRouter struct {
	mu     sync.Mutex
	routed []models.Recipe
}

func (r *recordingRouter) Route(ctx context.Context, recipe models.Recipe, mode publisher.Mode) publisher.RouteResult {
	r.mu.Lock()
	r.routed = append(r.routed, recipe)
	r.mu.Unlock()
	if recipe.Duplicate {
		return publisher.RouteResult{Outcome: publisher.OutcomeRejected, Reason: "duplicate"}
	}
	if mode == publisher.ModeManual {
		return publisher.RouteResult{Outcome: publisher.OutcomeQueued}
	}
	return publisher.RouteResult{Outcome: publisher.OutcomePublished, Attempts: 1}
}

func newEngine() *dedup.Engine {
	return dedup.New(dedup.Options{Threshold: 0.9, MaxEntries: 100, Retention: 72 * time.Hour}, nil)
}

func newTestOrchestrator(srcs []sources.Source, router Router, opts Options) *Orchestrator {
	opts.Thresholds = thresholds
	if opts.SourceTimeout == 0 {
		opts.SourceTimeout = time.Second
	}
	return New(Deps{
		Sources:   srcs,
		Baseline:  viral.NewMetricsHistory(6*time.Hour, nil),
		Processor: &stubProcessor{},
		Dedup:     newEngine(),
		Router:    router,
	}, opts)
}

func TestRunCycle_SourceTimeoutCountsOneError(t *testing.T) {
	srcs := []sources.Source{
		&fakeSource{name: "tiktok", items: []models.RawContent{viralItem("https://tiktok.com/@a/video/1", "Bolo de caneca")}},
		&fakeSource{name: "slow", block: true},
		&fakeSource{name: "instagram", items: []models.RawContent{viralItem("https://instagram.com/reel/2", "Pizza de frigideira")}},
	}
	router := &recordingRouter{}
	o := newTestOrchestrator(srcs, router, Options{SourceTimeout: 50 * time.Millisecond})

	stats, err := o.RunCycle(context.Background())
	require.NoError(t, err)

	assert.EqualValues(t, 1, stats.Seq)
	assert.Equal(t, 1, stats.Errors)
	assert.Contains(t, stats.SourceErrors, "slow")
	assert.Contains(t, stats.SourceErrors["slow"], sources.ErrSourceUnavailable.Error())
	assert.Equal(t, 2, stats.Scanned)
	assert.Equal(t, 2, stats.ViralDetected)
	assert.Equal(t, 2, stats.Processed)
	assert.Equal(t, 2, stats.Published)
	assert.False(t, stats.EndedAt.Before(stats.StartedAt))
}

func TestRunCycle_FailingSourceDoesNotAbort(t *testing.T) {
	srcs := []sources.Source{
		&fakeSource{name: "down", err: errors.New("503")},
		&fakeSource{name: "up", items: []models.RawContent{viralItem("https://tiktok.com/@a/video/1", "Mousse de limão")}},
	}
	o := newTestOrchestrator(srcs, &recordingRouter{}, Options{})

	stats, err := o.RunCycle(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Errors)
	assert.Equal(t, 1, stats.Published)
}

func TestRunCycle_FirstProducedWinsDespiteSlowEnrichment(t *testing.T) {
	first := viralItem("https://tiktok.com/@a/video/1", "Bolo de Chocolate 3 Ingredientes")
	second := viralItem("https://instagram.com/reel/9", "bolo de chocolate 3 ingredientes!!")
	srcs := []sources.Source{
		&fakeSource{name: "tiktok", items: []models.RawContent{first}},
		&fakeSource{name: "instagram", items: []models.RawContent{second}},
	}
	router := &recordingRouter{}
	o := newTestOrchestrator(srcs, router, Options{MaxWorkers: 2})
	o.deps.Processor = &stubProcessor{delay: map[string]time.Duration{first.OriginURL: 30 * time.Millisecond}}

	stats, err := o.RunCycle(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, stats.DuplicatesDropped)
	assert.Equal(t, 1, stats.Published)
	assert.Zero(t, stats.Rejected)
	require.Len(t, router.routed, 2)
	assert.Equal(t, first.OriginURL, router.routed[0].ID)
	assert.False(t, router.routed[0].Duplicate)
	assert.True(t, router.routed[1].Duplicate)
	assert.Equal(t, router.routed[0].DuplicateFingerprint, router.routed[1].DuplicateFingerprint)
}

func TestRunCycle_FiltersNonViralAndCountsProcessingErrors(t *testing.T) {
	quiet := viralItem("https://tiktok.com/@a/video/3", "Arroz simples")
	quiet.Metrics = models.Metrics{Views: 900, Likes: 10}
	srcs := []sources.Source{&fakeSource{name: "tiktok", items: []models.RawContent{
		viralItem("https://tiktok.com/@a/video/1", "Pudim"),
		quiet,
		viralItem("https://tiktok.com/@a/video/2", "this will fail"),
	}}}
	o := newTestOrchestrator(srcs, &recordingRouter{}, Options{Mode: publisher.ModeManual})

	stats, err := o.RunCycle(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Scanned)
	assert.Equal(t, 2, stats.ViralDetected)
	assert.Equal(t, 1, stats.Processed)
	assert.Equal(t, 1, stats.Errors)
	assert.Equal(t, 1, stats.QueuedForReview)
	assert.Zero(t, stats.Published)
}

type rejectingSink struct{}

func (rejectingSink) Publish(ctx context.Context, r models.Recipe) error {
	return &publisher.RejectedError{Reason: "schema validation"}
}

func TestRunCycle_SinkRejectionCountsRejectedAndError(t *testing.T) {
	policy := publisher.RetryPolicy{MaxAttempts: 1, BaseDelay: time.Millisecond, Multiplier: 2}
	queue := publisher.NewQueue(repositories.NewPendingRepository(db.NewMemoryStore()), rejectingSink{}, policy, nil, nil)
	router := publisher.NewRouter(rejectingSink{}, policy, queue, nil, nil)

	srcs := []sources.Source{&fakeSource{name: "tiktok", items: []models.RawContent{viralItem("https://tiktok.com/@a/video/1", "Brigadeiro fit")}}}
	o := newTestOrchestrator(srcs, router, Options{})

	stats, err := o.RunCycle(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Rejected)
	assert.Equal(t, 1, stats.Errors)
	assert.Zero(t, stats.Published)
	assert.Equal(t, 1, router.Stats().Rejected)
}

func TestRunCycle_PersistsStatsAndRestoresSequence(t *testing.T) {
	ctx := context.Background()
	repo := repositories.NewCycleStatsRepository(db.NewMemoryStore())
	require.NoError(t, repo.Append(ctx, models.CycleStats{Seq: 7}, 0))

	o := newTestOrchestrator(nil, &recordingRouter{}, Options{StatsHistorySize: 2})
	o.deps.Stats = repo
	require.NoError(t, o.Load(ctx))

	for range 3 {
		_, err := o.RunCycle(ctx)
		require.NoError(t, err)
	}

	hist := o.History()
	require.Len(t, hist, 2)
	assert.EqualValues(t, 9, hist[0].Seq)
	assert.EqualValues(t, 10, hist[1].Seq)

	stored, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, stored, 2)
	assert.EqualValues(t, 10, stored[1].Seq)

	st := o.Status()
	assert.EqualValues(t, 3, st.Totals.Cycles)
	require.NotNil(t, st.LastCycle)
	assert.EqualValues(t, 10, st.LastCycle.Seq)
}

func TestStateTransitions(t *testing.T) {
	o := newTestOrchestrator(nil, &recordingRouter{}, Options{})
	assert.Equal(t, StateIdle, o.State())

	_, err := o.beginCycle()
	assert.ErrorIs(t, err, ErrInvalidTransition)

	s, err := o.Start()
	require.NoError(t, err)
	assert.Equal(t, StateRunning, s)

	_, err = o.Start()
	assert.ErrorIs(t, err, ErrInvalidTransition)

	s, err = o.sleep()
	require.NoError(t, err)
	assert.Equal(t, StateSleeping, s)

	s, err = o.beginCycle()
	require.NoError(t, err)
	assert.Equal(t, StateRunning, s)

	s, err = o.Stop()
	require.NoError(t, err)
	assert.Equal(t, StateStopping, s)

	_, err = o.Stop()
	assert.ErrorIs(t, err, ErrInvalidTransition)

	o.finish()
	assert.Equal(t, StateStopped, o.State())
	select {
	case <-o.Done():
	default:
		t.Fatal("done channel not closed")
	}
	assert.Equal(t, "STOPPED", o.State().String())
}

func TestStop_FromIdleIsTerminal(t *testing.T) {
	o := newTestOrchestrator(nil, &recordingRouter{}, Options{})
	s, err := o.Stop()
	require.NoError(t, err)
	assert.Equal(t, StateStopped, s)

	assert.ErrorIs(t, o.Run(context.Background()), ErrInvalidTransition)
}

func TestRun_StopDuringSleepWakesImmediately(t *testing.T) {
	srcs := []sources.Source{&fakeSource{name: "tiktok", items: []models.RawContent{viralItem("https://tiktok.com/@a/video/1", "Pão de queijo")}}}
	o := newTestOrchestrator(srcs, &recordingRouter{}, Options{CycleInterval: time.Hour})

	runErr := make(chan error, 1)
	go func() { runErr <- o.Run(context.Background()) }()

	require.Eventually(t, func() bool { return o.State() == StateSleeping }, 2*time.Second, 5*time.Millisecond)
	st := o.Status()
	require.NotNil(t, st.NextCycleAt)
	assert.Equal(t, []string{"tiktok"}, st.Sources)

	_, err := o.Stop()
	require.NoError(t, err)

	select {
	case err := <-runErr:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after Stop")
	}
	assert.Equal(t, StateStopped, o.State())
	assert.Len(t, o.History(), 1)
	assert.Nil(t, o.Status().NextCycleAt)
}

func TestRun_StopWhileRunningFinishesPhaseThenStops(t *testing.T) {
	var o *Orchestrator
	src := &fakeSource{name: "tiktok", items: []models.RawContent{viralItem("https://tiktok.com/@a/video/1", "Torta de frango")}}
	src.onPoll = func() { _, _ = o.Stop() }
	router := &recordingRouter{}
	o = newTestOrchestrator([]sources.Source{src}, router, Options{CycleInterval: time.Hour})

	require.NoError(t, o.Run(context.Background()))

	assert.Equal(t, StateStopped, o.State())
	hist := o.History()
	require.Len(t, hist, 1)
	assert.Equal(t, 1, hist[0].Scanned)
	assert.Zero(t, hist[0].ViralDetected)
	assert.Empty(t, router.routed)
}

func TestRunCycle_MergesCrossPlatformURLs(t *testing.T) {
	a := viralItem("https://www.tiktok.com/@a/video/1?lang=pt", "Cuscuz")
	b := viralItem("https://tiktok.com/@a/video/1/", "Cuscuz repost")
	srcs := []sources.Source{
		&fakeSource{name: "one", items: []models.RawContent{a}},
		&fakeSource{name: "two", items: []models.RawContent{b}},
	}
	router := &recordingRouter{}
	o := newTestOrchestrator(srcs, router, Options{})

	stats, err := o.RunCycle(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Scanned)
	require.Len(t, router.routed, 1)
	assert.Equal(t, a.OriginURL, router.routed[0].ID)
}

func TestOptionsDefaults(t *testing.T) {
	o := Options{}.withDefaults()
	assert.Equal(t, publisher.ModeAuto, o.Mode)
	assert.Equal(t, 4, o.MaxWorkers)
	assert.Equal(t, defaultStatsHistorySize, o.StatsHistorySize)
	assert.Equal(t, 10*time.Minute, o.CycleInterval)
}

func TestGo_StartsInBackground(t *testing.T) {
	o := newTestOrchestrator(nil, &recordingRouter{}, Options{CycleInterval: time.Hour})
	require.NoError(t, o.Go(context.Background()))
	assert.ErrorIs(t, o.Go(context.Background()), ErrInvalidTransition)

	require.Eventually(t, func() bool { return o.State() == StateSleeping }, 2*time.Second, 5*time.Millisecond)
	_, err := o.Stop()
	require.NoError(t, err)

	select {
	case <-o.Done():
	case <-time.After(time.Second):
		t.Fatal("orchestrator did not stop")
	}
}

// gatedRouter 는 armed 이후의 첫 Route 호출을 release 가 닫힐 때까지 붙잡는다.
type gatedRouter struct {
	recordingRouter
	armed   atomic.Bool
	once    sync.Once
	entered chan struct{}
	release chan struct{}
}

func newGatedRouter() *gatedRouter {
	return &gatedRouter{entered: make(chan struct{}), release: make(chan struct{})}
}

func (g *gatedRouter) Route(ctx context.Context, recipe models.Recipe, mode publisher.Mode) publisher.RouteResult {
	if g.armed.Load() {
		g.once.Do(func() { close(g.entered) })
		<-g.release
	}
	return g.recordingRouter.Route(ctx, recipe, mode)
}

func TestRunCycle_FromIdleRunsThroughStateMachine(t *testing.T) {
	src := &fakeSource{name: "tiktok", items: []models.RawContent{viralItem("https://tiktok.com/@a/video/1", "Coxinha de frango")}}
	router := newGatedRouter()
	router.armed.Store(true)
	o := newTestOrchestrator([]sources.Source{src}, router, Options{})

	cycleDone := make(chan error, 1)
	go func() {
		_, err := o.RunCycle(context.Background())
		cycleDone <- err
	}()

	<-router.entered
	assert.Equal(t, StateRunning, o.State())

	started := make(chan error, 1)
	go func() {
		_, err := o.Start()
		started <- err
	}()
	select {
	case <-started:
		t.Fatal("Start returned while a manual cycle was running")
	case <-time.After(50 * time.Millisecond):
	}

	close(router.release)
	require.NoError(t, <-cycleDone)
	require.NoError(t, <-started)
	assert.Equal(t, StateRunning, o.State())
}

func TestRunCycle_ReturnsToIdleAfterManualCycle(t *testing.T) {
	o := newTestOrchestrator(nil, &recordingRouter{}, Options{})
	_, err := o.RunCycle(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StateIdle, o.State())

	_, err = o.Stop()
	require.NoError(t, err)
	_, err = o.RunCycle(context.Background())
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestStop_WaitsForManualCycleStartedWhileSleeping(t *testing.T) {
	src := &fakeSource{name: "tiktok", items: []models.RawContent{viralItem("https://tiktok.com/@a/video/1", "Pudim de leite")}}
	router := newGatedRouter()
	o := newTestOrchestrator([]sources.Source{src}, router, Options{CycleInterval: time.Hour})
	require.NoError(t, o.Go(context.Background()))
	require.Eventually(t, func() bool { return o.State() == StateSleeping }, 2*time.Second, 5*time.Millisecond)

	router.armed.Store(true)
	cycleDone := make(chan error, 1)
	go func() {
		_, err := o.RunCycle(context.Background())
		cycleDone <- err
	}()
	<-router.entered
	assert.Equal(t, StateRunning, o.State())

	s, err := o.Stop()
	require.NoError(t, err)
	assert.Equal(t, StateStopping, s)

	select {
	case <-o.Done():
		t.Fatal("stopped while a cycle was still routing")
	case <-time.After(50 * time.Millisecond):
	}
	assert.Equal(t, StateStopping, o.State())

	close(router.release)
	require.NoError(t, <-cycleDone)
	select {
	case <-o.Done():
	case <-time.After(time.Second):
		t.Fatal("orchestrator did not stop after the cycle finished")
	}
	assert.Equal(t, StateStopped, o.State())
	assert.Len(t, o.History(), 2)
}

func TestStop_DuringManualCycleFromIdleEndsStopped(t *testing.T) {
	src := &fakeSource{name: "tiktok", items: []models.RawContent{viralItem("https://tiktok.com/@a/video/1", "Brigadeiro")}}
	router := newGatedRouter()
	router.armed.Store(true)
	o := newTestOrchestrator([]sources.Source{src}, router, Options{})

	cycleDone := make(chan error, 1)
	go func() {
		_, err := o.RunCycle(context.Background())
		cycleDone <- err
	}()
	<-router.entered

	_, err := o.Stop()
	require.NoError(t, err)
	close(router.release)
	require.NoError(t, <-cycleDone)

	select {
	case <-o.Done():
	case <-time.After(time.Second):
		t.Fatal("done channel not closed")
	}
	assert.Equal(t, StateStopped, o.State())
}
