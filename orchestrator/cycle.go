package orchestrator

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"viral-recipes/config"
	"viral-recipes/events"
	"viral-recipes/metrics"
	"viral-recipes/models"
	"viral-recipes/publisher"
	"viral-recipes/sources"
	"viral-recipes/viral"
)

type Phase string

const (
	PhasePoll     Phase = "poll"
	PhaseClassify Phase = "classify"
	PhaseEnrich   Phase = "enrich"
	PhaseDedup    Phase = "dedup"
	PhaseRoute    Phase = "route"
)

// runCycle 은 사이클 하나를 단계 순서대로 실행하고 통계를 기록한다. 호출자가 cycleMu 를 잡고
// 상태를 RUNNING 으로 바꿔 둔 뒤 호출한다.
// 정지 요청은 단계 경계에서만 확인한다. dedup 과 route 는 하나로 묶어 실행하므로
// 윈도우에 등록된 레시피가 라우팅되지 않은 채 남지 않는다.
// 중단된 사이클도 그때까지의 통계를 기록하고 ErrStopRequested 를 반환한다.
func (o *Orchestrator) runCycle(ctx context.Context) (models.CycleStats, error) {
	o.mu.Lock()
	o.seq++
	stats := models.CycleStats{
		Seq:          o.seq,
		SourceErrors: map[string]string{},
		StartedAt:    o.opts.Now().UTC(),
	}
	o.current = &CurrentCycle{Seq: stats.Seq, Phase: PhasePoll, StartedAt: stats.StartedAt}
	o.mu.Unlock()

	log := config.Fields{"cycle": stats.Seq}
	config.InfoWithFields("cycle started", log)

	err := o.runPhases(ctx, &stats)

	stats.EndedAt = o.opts.Now().UTC()
	if len(stats.SourceErrors) == 0 {
		stats.SourceErrors = nil
	}
	o.record(ctx, stats)

	log["duration"] = stats.Duration().String()
	log["scanned"] = stats.Scanned
	log["viral"] = stats.ViralDetected
	log["processed"] = stats.Processed
	log["duplicates"] = stats.DuplicatesDropped
	log["published"] = stats.Published
	log["queued"] = stats.QueuedForReview
	log["rejected"] = stats.Rejected
	log["errors"] = stats.Errors
	if err != nil {
		log["error"] = err.Error()
		config.WarnWithFields("cycle interrupted", log)
	} else {
		config.InfoWithFields("cycle completed", log)
	}
	return stats, err
}

func (o *Orchestrator) runPhases(ctx context.Context, stats *models.CycleStats) error {
	items := o.poll(ctx, stats)
	if err := o.boundary(ctx, PhaseClassify); err != nil {
		return err
	}

	verdicts := o.classify(ctx, items, stats)
	if err := o.boundary(ctx, PhaseEnrich); err != nil {
		return err
	}

	recipes := o.enrich(ctx, verdicts, stats)
	if err := o.boundary(ctx, PhaseDedup); err != nil {
		return err
	}

	o.dedupAndRoute(ctx, recipes, stats)
	return nil
}

// boundary 는 다음 단계로 넘어가기 전에 정지 요청과 ctx 를 확인한다.
func (o *Orchestrator) boundary(ctx context.Context, next Phase) error {
	if o.stopRequested() {
		return fmt.Errorf("before %s: %w", next, ErrStopRequested)
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("before %s: %w", next, err)
	}
	o.setPhase(next)
	return nil
}

func (o *Orchestrator) setPhase(p Phase) {
	o.mu.Lock()
	if o.current != nil {
		o.current.Phase = p
	}
	o.mu.Unlock()
}

type pollResult struct {
	items []models.RawContent
	err   error
}

// poll 은 모든 소스를 동시에 호출하고 전부 끝날 때까지 기다린다.
// 실패하거나 제한 시간을 넘긴 소스는 항목 0 개, 오류 1 건으로 센다.
func (o *Orchestrator) poll(ctx context.Context, stats *models.CycleStats) []models.RawContent {
	srcs := o.deps.Sources
	results := make([][]models.RawContent, len(srcs))
	errs := make([]error, len(srcs))

	o.mu.RLock()
	since := make([]time.Time, len(srcs))
	for i, s := range srcs {
		since[i] = o.lastPoll[s.Name()]
	}
	o.mu.RUnlock()

	var g errgroup.Group
	for i, src := range srcs {
		g.Go(func() error {
			started := o.opts.Now()
			results[i], errs[i] = o.pollOne(ctx, src, since[i])
			metrics.RecordSourcePoll(src.Name(), time.Since(started), errs[i])
			if errs[i] == nil {
				o.mu.Lock()
				o.lastPoll[src.Name()] = started
				o.mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()

	for i, err := range errs {
		if err == nil {
			continue
		}
		name := srcs[i].Name()
		stats.Errors++
		stats.SourceErrors[name] = err.Error()
		config.WarnWithFields("source poll failed", config.Fields{
			"cycle":  stats.Seq,
			"source": name,
			"error":  err.Error(),
		})
	}

	merged := sources.Merge(results)
	stats.Scanned = len(merged)
	return merged
}

// pollOne 은 소스가 ctx 를 무시하더라도 제한 시간에 결과를 포기한다.
func (o *Orchestrator) pollOne(ctx context.Context, src sources.Source, since time.Time) ([]models.RawContent, error) {
	pctx, cancel := context.WithTimeout(ctx, o.opts.SourceTimeout)
	defer cancel()

	ch := make(chan pollResult, 1)
	go func() {
		items, err := src.Poll(pctx, since)
		ch <- pollResult{items: items, err: err}
	}()

	select {
	case r := <-ch:
		return r.items, r.err
	case <-pctx.Done():
		return nil, fmt.Errorf("%w: %s: %w", sources.ErrSourceUnavailable, src.Name(), pctx.Err())
	}
}

func (o *Orchestrator) classify(ctx context.Context, items []models.RawContent, stats *models.CycleStats) []models.ViralVerdict {
	var out []models.ViralVerdict
	for _, item := range items {
		if o.deps.Baseline != nil {
			item = o.deps.Baseline.Attach(ctx, item)
		}
		v := viral.Classify(item, o.opts.Thresholds)
		if !v.IsViral {
			continue
		}
		config.DebugWithFields("viral content detected", config.Fields{
			"cycle":      stats.Seq,
			"origin_url": item.OriginURL,
			"signals":    v.Signals.Strings(),
			"confidence": v.Confidence,
		})
		out = append(out, v)
	}
	stats.ViralDetected = len(out)
	return out
}

// enrich 는 MaxWorkers 개까지 동시에 레시피를 만든다. 결과는 입력 순서를 유지한다.
func (o *Orchestrator) enrich(ctx context.Context, verdicts []models.ViralVerdict, stats *models.CycleStats) []models.Recipe {
	built := make([]*models.Recipe, len(verdicts))
	errs := make([]error, len(verdicts))

	var g errgroup.Group
	g.SetLimit(o.opts.MaxWorkers)
	for i, v := range verdicts {
		g.Go(func() error {
			ectx, cancel := context.WithTimeout(ctx, o.opts.EnrichTimeout)
			defer cancel()
			started := time.Now()
			r, err := o.deps.Processor.Process(ectx, v)
			metrics.RecordEnrich(time.Since(started), err)
			if err != nil {
				errs[i] = err
				return nil
			}
			built[i] = &r
			return nil
		})
	}
	_ = g.Wait()

	out := make([]models.Recipe, 0, len(verdicts))
	for i, r := range built {
		if r == nil {
			stats.Errors++
			config.WarnWithFields("recipe processing failed", config.Fields{
				"cycle":      stats.Seq,
				"origin_url": verdicts[i].Content.OriginURL,
				"error":      errs[i].Error(),
			})
			continue
		}
		out = append(out, *r)
	}
	stats.Processed = len(out)
	return out
}

// dedupAndRoute 는 생산 순서대로 중복을 판정한 뒤 라우팅한다.
// 중복은 라우터가 싱크 호출 없이 REJECTED 로 기록하며 Rejected 에는 세지 않는다.
func (o *Orchestrator) dedupAndRoute(ctx context.Context, recipes []models.Recipe, stats *models.CycleStats) {
	for i := range recipes {
		d := o.deps.Dedup.Check(ctx, &recipes[i])
		metrics.DedupDecisions.WithLabelValues(string(d.Stage)).Inc()
		if d.IsDuplicate {
			stats.DuplicatesDropped++
			config.InfoWithFields("duplicate recipe dropped", config.Fields{
				"cycle":       stats.Seq,
				"slug":        recipes[i].Slug,
				"fingerprint": d.Fingerprint,
				"stage":       string(d.Stage),
				"matched":     d.MatchedAgainst,
			})
		}
	}
	metrics.DedupWindowSize.Set(float64(o.deps.Dedup.Size()))

	o.setPhase(PhaseRoute)
	for _, r := range recipes {
		res := o.deps.Router.Route(ctx, r, o.opts.Mode)
		switch {
		case r.Duplicate:
		case res.Outcome == publisher.OutcomePublished:
			stats.Published++
		case res.Outcome == publisher.OutcomeQueued:
			stats.QueuedForReview++
		default:
			stats.Rejected++
			if res.RejectedBySink || res.Err != nil {
				stats.Errors++
			}
		}
	}
}

// record 는 통계를 링 버퍼와 저장소에 추가하고 이벤트와 지표를 남긴다.
func (o *Orchestrator) record(ctx context.Context, stats models.CycleStats) {
	o.mu.Lock()
	o.history = append(o.history, stats)
	if over := len(o.history) - o.opts.StatsHistorySize; over > 0 {
		o.history = append([]models.CycleStats(nil), o.history[over:]...)
	}
	o.totals.add(stats)
	o.current = nil
	o.mu.Unlock()

	if o.deps.Stats != nil {
		if err := o.deps.Stats.Append(context.WithoutCancel(ctx), stats, o.opts.StatsHistorySize); err != nil {
			config.ErrorWithFields("cycle stats persist failed", config.Fields{"cycle": stats.Seq, "error": err.Error()})
		}
	}
	o.deps.Emitter.Cycle(context.WithoutCancel(ctx), events.NewCycleCompletedEvent("orchestrator", stats))
	metrics.RecordCycle(stats)
}
