package dedup

import (
	"context"
	"fmt"
	"sync"
	"time"

	"viral-recipes/config"
	"viral-recipes/models"
)

// Stage 는 중복 판정이 내려진 단계다.
type Stage string

const (
	StageNone    Stage = "none"
	StageExact   Stage = "exact"
	StageSimilar Stage = "similar"
)

// Decision 은 레시피 하나에 대한 중복 판정 결과다.
type Decision struct {
	IsDuplicate          bool                `json:"is_duplicate"`
	Fingerprint          string              `json:"fingerprint"`
	Stage                Stage               `json:"stage"`
	TitleSimilarity      float64             `json:"title_similarity"`
	IngredientSimilarity float64             `json:"ingredient_similarity"`
	MatchedAgainst       *models.DedupRecord `json:"matched_against,omitempty"`
}

// RecordStore 는 이력 윈도우를 영속화한다. 실패는 로그로만 남기고 판정에는 영향을 주지 않는다.
type RecordStore interface {
	LoadRecords(ctx context.Context) ([]models.DedupRecord, error)
	InsertRecord(ctx context.Context, rec models.DedupRecord) error
	DeleteRecords(ctx context.Context, fingerprints []string) error
}

type Options struct {
	Threshold  float64
	MaxEntries int
	Retention  time.Duration
	NGramMode  NGramMode
	NGramSize  int
	Stopwords  []string
	Now        func() time.Time
}

func OptionsFromConfig(c config.DedupConfig) (Options, error) {
	mode, err := ParseNGramMode(c.NGramMode)
	if err != nil {
		return Options{}, err
	}
	return Options{
		Threshold:  c.Threshold,
		MaxEntries: c.MaxEntries,
		Retention:  c.Retention(),
		NGramMode:  mode,
		NGramSize:  c.NGramSize,
		Stopwords:  c.Stopwords,
	}, nil
}

// Engine 은 지문 일치(1단계)와 제목/재료 유사도(2단계)로 중복을 판정한다.
// 윈도우 변경은 사이클의 dedup 단계에서만 일어나며, 읽기는 API 에서도 일어날 수 있어 RWMutex 로 보호한다.
type Engine struct {
	mu     sync.RWMutex
	opts   Options
	norm   Normalizer
	window *Window
	store  RecordStore
	seq    int64
}

// New 는 Engine 을 만든다. store 가 nil 이면 메모리에만 보관한다.
func New(opts Options, store RecordStore) *Engine {
	if opts.NGramMode == "" {
		opts.NGramMode = NGramChar
	}
	if opts.NGramSize <= 0 {
		opts.NGramSize = 3
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Engine{
		opts:   opts,
		norm:   NewNormalizer(opts.Stopwords),
		window: NewWindow(opts.MaxEntries, opts.Retention),
		store:  store,
	}
}

// Load 는 저장소에서 이력을 복원한다. 보존 기간이 지난 레코드는 버린다.
func (e *Engine) Load(ctx context.Context) error {
	if e.store == nil {
		return nil
	}
	recs, err := e.store.LoadRecords(ctx)
	if err != nil {
		return fmt.Errorf("load dedup records: %w", err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	now := e.opts.Now()
	var evicted []models.DedupRecord
	for _, rec := range recs {
		e.seq = max(e.seq, rec.Seq)
		evicted = append(evicted, e.window.Insert(rec, now)...)
	}
	e.deleteEvicted(ctx, evicted)
	config.Logger.Infof("dedup window restored: %d records", e.window.Len())
	return nil
}

// Record builds the DedupRecord a recipe would occupy in the window.
func (e *Engine) Record(r models.Recipe) models.DedupRecord {
	title := e.norm.Title(r.Title)
	return models.DedupRecord{
		Fingerprint: e.norm.Fingerprint(r.Title, r.IngredientNames()),
		Title:       title,
		TitleGrams:  NGrams(title, e.opts.NGramMode, e.opts.NGramSize),
		Ingredients: e.norm.Ingredients(r.IngredientNames()),
		RecipeSlug:  r.Slug,
	}
}

func (e *Engine) Fingerprint(r models.Recipe) string {
	return e.norm.Fingerprint(r.Title, r.IngredientNames())
}

// Evaluate 는 윈도우를 변경하지 않고 판정만 한다.
func (e *Engine) Evaluate(r models.Recipe) Decision {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.evaluate(e.Record(r), e.opts.Now())
}

// Check 는 판정 후 recipe 의 Duplicate/DuplicateFingerprint 를 설정하고,
// 처음 보는 레시피면 윈도우에 등록한다.
func (e *Engine) Check(ctx context.Context, r *models.Recipe) Decision {
	rec := e.Record(*r)

	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.opts.Now()
	e.deleteEvicted(ctx, e.window.Evict(now))

	d := e.evaluate(rec, now)
	r.DuplicateFingerprint = d.Fingerprint
	r.Duplicate = d.IsDuplicate
	if d.IsDuplicate {
		return d
	}

	e.seq++
	rec.Seq = e.seq
	rec.InsertedAt = now
	evicted := e.window.Insert(rec, now)
	if e.store != nil {
		if err := e.store.InsertRecord(ctx, rec); err != nil {
			config.ErrorWithFields("dedup record persist failed", config.Fields{"fingerprint": rec.Fingerprint, "error": err.Error()})
		}
	}
	e.deleteEvicted(ctx, evicted)
	return d
}

func (e *Engine) evaluate(rec models.DedupRecord, now time.Time) Decision {
	d := Decision{Fingerprint: rec.Fingerprint, Stage: StageNone}

	if hit, ok := e.window.Find(rec.Fingerprint, now); ok {
		d.IsDuplicate = true
		d.Stage = StageExact
		d.TitleSimilarity = 1
		d.IngredientSimilarity = 1
		d.MatchedAgainst = &hit
		return d
	}

	best := -1.0
	e.window.Each(now, func(existing models.DedupRecord) {
		ts := Jaccard(rec.TitleGrams, existing.TitleGrams)
		if ts <= e.opts.Threshold {
			return
		}
		is := Jaccard(rec.Ingredients, existing.Ingredients)
		if is <= e.opts.Threshold {
			return
		}
		// 동점이면 먼저 삽입된 항목을 유지한다.
		if score := min(ts, is); score > best {
			best = score
			m := existing
			d.IsDuplicate = true
			d.Stage = StageSimilar
			d.TitleSimilarity = ts
			d.IngredientSimilarity = is
			d.MatchedAgainst = &m
		}
	})
	return d
}

func (e *Engine) deleteEvicted(ctx context.Context, evicted []models.DedupRecord) {
	if e.store == nil || len(evicted) == 0 {
		return
	}
	fps := make([]string, 0, len(evicted))
	for _, rec := range evicted {
		fps = append(fps, rec.Fingerprint)
	}
	if err := e.store.DeleteRecords(ctx, fps); err != nil {
		config.ErrorWithFields("dedup eviction persist failed", config.Fields{"count": len(fps), "error": err.Error()})
	}
}

// Size returns the number of records currently held in the window.
func (e *Engine) Size() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.window.Len()
}

func (e *Engine) Snapshot() []models.DedupRecord {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.window.Snapshot()
}
