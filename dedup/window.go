package dedup

import (
	"time"

	"viral-recipes/models"
)

// Window 는 삽입 순서를 유지하는 최근 DedupRecord 이력이다.
// 보존 기간과 최대 크기 중 먼저 도달한 한도에 따라 가장 먼저 삽입된 항목부터 제거한다.
// 동기화는 Engine 이 담당한다.
type Window struct {
	maxEntries int
	retention  time.Duration
	entries    []models.DedupRecord
	byFP       map[string]int // fingerprint -> 삽입 횟수
}

func NewWindow(maxEntries int, retention time.Duration) *Window {
	return &Window{
		maxEntries: maxEntries,
		retention:  retention,
		byFP:       make(map[string]int),
	}
}

// Live reports whether rec is still inside the retention horizon at now.
func (w *Window) Live(rec models.DedupRecord, now time.Time) bool {
	return w.retention <= 0 || rec.InsertedAt.After(now.Add(-w.retention))
}

// Find 는 보존 기간 안의 같은 지문 레코드를 찾는다.
func (w *Window) Find(fp string, now time.Time) (models.DedupRecord, bool) {
	if w.byFP[fp] == 0 {
		return models.DedupRecord{}, false
	}
	for i := len(w.entries) - 1; i >= 0; i-- {
		if w.entries[i].Fingerprint == fp && w.Live(w.entries[i], now) {
			return w.entries[i], true
		}
	}
	return models.DedupRecord{}, false
}

// Each calls fn for every live record in insertion order.
func (w *Window) Each(now time.Time, fn func(models.DedupRecord)) {
	for _, rec := range w.entries {
		if w.Live(rec, now) {
			fn(rec)
		}
	}
}

// Insert appends rec and returns the records evicted to honour both limits.
func (w *Window) Insert(rec models.DedupRecord, now time.Time) []models.DedupRecord {
	w.entries = append(w.entries, rec)
	w.byFP[rec.Fingerprint]++
	return w.Evict(now)
}

// Evict 는 보존 기간이 지난 항목과 최대 크기를 넘는 가장 오래된 항목을 제거한다.
func (w *Window) Evict(now time.Time) []models.DedupRecord {
	cut := 0
	for cut < len(w.entries) && !w.Live(w.entries[cut], now) {
		cut++
	}
	if over := len(w.entries) - cut - w.maxEntries; w.maxEntries > 0 && over > 0 {
		cut += over
	}
	if cut == 0 {
		return nil
	}

	evicted := append([]models.DedupRecord(nil), w.entries[:cut]...)
	for _, rec := range evicted {
		if w.byFP[rec.Fingerprint]--; w.byFP[rec.Fingerprint] <= 0 {
			delete(w.byFP, rec.Fingerprint)
		}
	}
	w.entries = append(w.entries[:0:0], w.entries[cut:]...)
	return evicted
}

func (w *Window) Len() int { return len(w.entries) }

// Snapshot returns a copy of the records in insertion order.
func (w *Window) Snapshot() []models.DedupRecord {
	return append([]models.DedupRecord(nil), w.entries...)
}
