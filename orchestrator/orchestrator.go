// Package orchestrator 는 수집, 분류, 보강, 중복 제거, 라우팅 사이클을 주기적으로 실행한다.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"viral-recipes/config"
	"viral-recipes/dedup"
	"viral-recipes/events"
	"viral-recipes/models"
	"viral-recipes/publisher"
	"viral-recipes/sources"
)

// ErrStopRequested 는 정지 요청으로 사이클이 단계 경계에서 중단되었음을 뜻한다.
var ErrStopRequested = errors.New("stop requested")

// Baseline 은 관측 이력에서 성장률 기준점을 붙인다.
type Baseline interface {
	Attach(ctx context.Context, content models.RawContent) models.RawContent
}

type RecipeProcessor interface {
	Process(ctx context.Context, v models.ViralVerdict) (models.Recipe, error)
}

// Deduplicator 는 dedup 단계에서만 호출된다.
type Deduplicator interface {
	Check(ctx context.Context, r *models.Recipe) dedup.Decision
	Size() int
}

type Router interface {
	Route(ctx context.Context, recipe models.Recipe, mode publisher.Mode) publisher.RouteResult
}

// StatsStore 는 사이클 통계 로그의 영속화 계층이다.
type StatsStore interface {
	Append(ctx context.Context, stats models.CycleStats, keep int) error
	List(ctx context.Context) ([]models.CycleStats, error)
}

// Deps 는 사이클이 사용하는 구성 요소다. Baseline, Stats, Emitter 는 nil 이어도 된다.
type Deps struct {
	Sources   []sources.Source
	Baseline  Baseline
	Processor RecipeProcessor
	Dedup     Deduplicator
	Router    Router
	Stats     StatsStore
	Emitter   *events.Emitter
}

// Totals 는 프로세스 시작 이후 누적 카운터다.
type Totals struct {
	Cycles            int64 `json:"cycles"`
	Scanned           int   `json:"scanned"`
	ViralDetected     int   `json:"viral_detected"`
	Processed         int   `json:"processed"`
	DuplicatesDropped int   `json:"duplicates_dropped"`
	Published         int   `json:"published"`
	QueuedForReview   int   `json:"queued_for_review"`
	Rejected          int   `json:"rejected"`
	Errors            int   `json:"errors"`
}

func (t *Totals) add(s models.CycleStats) {
	t.Cycles++
	t.Scanned += s.Scanned
	t.ViralDetected += s.ViralDetected
	t.Processed += s.Processed
	t.DuplicatesDropped += s.DuplicatesDropped
	t.Published += s.Published
	t.QueuedForReview += s.QueuedForReview
	t.Rejected += s.Rejected
	t.Errors += s.Errors
}

// CurrentCycle 은 진행 중인 사이클의 위치다.
type CurrentCycle struct {
	Seq       int64     `json:"seq"`
	Phase     Phase     `json:"phase"`
	StartedAt time.Time `json:"started_at"`
}

type Status struct {
	State       State              `json:"state"`
	Mode        publisher.Mode     `json:"mode"`
	Current     *CurrentCycle      `json:"current_cycle,omitempty"`
	LastCycle   *models.CycleStats `json:"last_cycle,omitempty"`
	NextCycleAt *time.Time         `json:"next_cycle_at,omitempty"`
	Totals      Totals             `json:"totals"`
	Sources     []string           `json:"sources"`
	DedupWindow int                `json:"dedup_window"`
}

// Orchestrator 는 하나의 제어 흐름으로 사이클을 순차 실행한다.
// cycleMu 는 사이클 실행과 그 앞뒤의 상태 전이를 함께 감싼다. API 의 즉시 실행과 주기 실행이
// 겹치지 않고, STOPPED 는 진행 중인 사이클이 끝난 뒤에만 된다.
type Orchestrator struct {
	deps Deps
	opts Options
	sm   machine

	cycleMu sync.Mutex

	mu        sync.RWMutex
	seq       int64
	history   []models.CycleStats
	totals    Totals
	current   *CurrentCycle
	nextCycle time.Time
	lastPoll  map[string]time.Time

	stopOnce sync.Once
	stopCh   chan struct{}
	done     chan struct{}
}

func New(deps Deps, opts Options) *Orchestrator {
	return &Orchestrator{
		deps:     deps,
		opts:     opts.withDefaults(),
		lastPoll: make(map[string]time.Time),
		stopCh:   make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Load 는 저장된 통계 로그를 복원하고 사이클 번호를 이어서 매긴다.
func (o *Orchestrator) Load(ctx context.Context) error {
	if o.deps.Stats == nil {
		return nil
	}
	list, err := o.deps.Stats.List(ctx)
	if err != nil {
		return err
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	if len(list) > o.opts.StatsHistorySize {
		list = list[len(list)-o.opts.StatsHistorySize:]
	}
	o.history = list
	if n := len(list); n > 0 {
		o.seq = list[n-1].Seq
	}
	return nil
}

func (o *Orchestrator) State() State { return o.sm.current() }

// Start: IDLE -> RUNNING. 즉시 실행 중인 사이클이 있으면 끝날 때까지 기다린다.
func (o *Orchestrator) Start() (State, error) {
	o.cycleMu.Lock()
	defer o.cycleMu.Unlock()
	return o.sm.transition(StateRunning, StateIdle)
}

func (o *Orchestrator) beginCycle() (State, error) {
	return o.sm.transition(StateRunning, StateSleeping)
}

func (o *Orchestrator) sleep() (State, error) {
	return o.sm.transition(StateSleeping, StateRunning)
}

// Stop 은 RUNNING 또는 SLEEPING 을 STOPPING 으로 바꾼다. 잠든 상태면 즉시 깨어나고,
// 실행 중이면 현재 단계를 마친 뒤 멈춘다. 시작 전(IDLE)이면 바로 STOPPED 가 된다.
func (o *Orchestrator) Stop() (State, error) {
	s, err := o.sm.transition(StateStopping, StateRunning, StateSleeping)
	if errors.Is(err, ErrInvalidTransition) {
		if s, err = o.sm.transition(StateStopped, StateIdle); err == nil {
			o.signalStop()
			close(o.done)
		}
		return s, err
	}
	o.signalStop()
	return s, err
}

// Done 은 STOPPED 에 도달하면 닫힌다.
func (o *Orchestrator) Done() <-chan struct{} { return o.done }

func (o *Orchestrator) signalStop() {
	o.stopOnce.Do(func() { close(o.stopCh) })
}

func (o *Orchestrator) stopRequested() bool {
	select {
	case <-o.stopCh:
		return true
	default:
		return false
	}
}

// finish 는 루프 종료 시 STOPPING -> STOPPED 로 마무리한다. 즉시 실행 중인 사이클이 있으면
// 그 사이클이 끝난 뒤에 STOPPED 가 된다.
func (o *Orchestrator) finish() {
	o.cycleMu.Lock()
	defer o.cycleMu.Unlock()
	o.finishLocked()
}

func (o *Orchestrator) finishLocked() {
	if _, err := o.sm.transition(StateStopping, StateRunning, StateSleeping); err == nil {
		o.signalStop()
	}
	if _, err := o.sm.transition(StateStopped, StateStopping); err == nil {
		close(o.done)
	}
}

// RunCycle 은 루프 밖에서 사이클 하나를 즉시 실행한다 (API 의 "지금 실행").
// IDLE 또는 SLEEPING 에서만 가능하며 실행 동안 상태는 RUNNING 이고, 끝나면 원래 상태로 돌아간다.
// 실행 중 Stop 이 들어오면 남은 단계를 건너뛰고, 루프가 없으면(IDLE 에서 시작) 직접 STOPPED 로 마무리한다.
func (o *Orchestrator) RunCycle(ctx context.Context) (models.CycleStats, error) {
	o.cycleMu.Lock()
	defer o.cycleMu.Unlock()

	from := o.sm.current()
	if from != StateIdle && from != StateSleeping {
		return models.CycleStats{}, fmt.Errorf("%w: cycle requested while %s", ErrInvalidTransition, from)
	}
	if _, err := o.sm.transition(StateRunning, from); err != nil {
		return models.CycleStats{}, err
	}

	stats, err := o.runCycle(ctx)

	if _, terr := o.sm.transition(from, StateRunning); terr != nil && from == StateIdle {
		o.finishLocked()
	}
	return stats, err
}

// scheduledCycle 은 루프의 사이클 하나를 SLEEPING -> RUNNING -> SLEEPING 전이와 함께 실행한다.
// 첫 사이클은 Start 가 이미 RUNNING 으로 바꿔 두었다. 루프를 끝내야 하면 false.
func (o *Orchestrator) scheduledCycle(ctx context.Context, first bool) bool {
	o.cycleMu.Lock()
	defer o.cycleMu.Unlock()

	if !first {
		if _, err := o.beginCycle(); err != nil {
			return false
		}
	}
	if _, err := o.runCycle(ctx); err != nil && !errors.Is(err, ErrStopRequested) {
		config.ErrorWithFields("cycle failed", config.Fields{"error": err.Error()})
	}
	if o.stopRequested() || ctx.Err() != nil {
		return false
	}
	_, err := o.sleep()
	return err == nil
}

// Run 은 Stop 이 호출되거나 ctx 가 끝날 때까지 사이클과 대기를 반복한다.
func (o *Orchestrator) Run(ctx context.Context) error {
	if _, err := o.Start(); err != nil {
		return err
	}
	return o.loop(ctx)
}

// Go 는 IDLE -> RUNNING 전이를 동기적으로 수행한 뒤 루프를 백그라운드에서 실행한다.
func (o *Orchestrator) Go(ctx context.Context) error {
	if _, err := o.Start(); err != nil {
		return err
	}
	go func() {
		if err := o.loop(ctx); err != nil {
			config.ErrorWithFields("orchestrator loop exited", config.Fields{"error": err.Error()})
		}
	}()
	return nil
}

func (o *Orchestrator) loop(ctx context.Context) error {
	defer func() {
		o.finish()
		config.Logger.Info("orchestrator stopped")
	}()

	config.InfoWithFields("orchestrator started", config.Fields{
		"mode":           string(o.opts.Mode),
		"cycle_interval": o.opts.CycleInterval.String(),
		"sources":        len(o.deps.Sources),
	})

	for first := true; ; first = false {
		if !o.scheduledCycle(ctx, first) || !o.wait(ctx) {
			break
		}
	}

	if err := ctx.Err(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// wait 은 다음 사이클까지 잠든다. 정지 요청이나 ctx 종료 시 false 를 반환한다.
func (o *Orchestrator) wait(ctx context.Context) bool {
	next := o.opts.Now().Add(o.opts.CycleInterval)
	o.mu.Lock()
	o.nextCycle = next
	o.mu.Unlock()
	defer func() {
		o.mu.Lock()
		o.nextCycle = time.Time{}
		o.mu.Unlock()
	}()

	timer := time.NewTimer(o.opts.CycleInterval)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-o.stopCh:
		return false
	case <-ctx.Done():
		return false
	}
}

func (o *Orchestrator) Status() Status {
	o.mu.RLock()
	defer o.mu.RUnlock()

	st := Status{
		State:   o.sm.current(),
		Mode:    o.opts.Mode,
		Totals:  o.totals,
		Sources: make([]string, 0, len(o.deps.Sources)),
	}
	if o.current != nil {
		cur := *o.current
		st.Current = &cur
	}
	if n := len(o.history); n > 0 {
		last := o.history[n-1]
		st.LastCycle = &last
	}
	if !o.nextCycle.IsZero() {
		next := o.nextCycle
		st.NextCycleAt = &next
	}
	for _, s := range o.deps.Sources {
		st.Sources = append(st.Sources, s.Name())
	}
	if o.deps.Dedup != nil {
		st.DedupWindow = o.deps.Dedup.Size()
	}
	return st
}

// History 는 최근 통계를 오래된 것부터 복사해 반환한다.
func (o *Orchestrator) History() []models.CycleStats {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return append([]models.CycleStats(nil), o.history...)
}
