package repositories

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"viral-recipes/db"
	"viral-recipes/models"
)

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func record(id, slug string, status models.PublishStatus, views int64, routed time.Time) models.RecipeRecord {
	r := models.Recipe{ID: id, Slug: slug, Title: "Receita " + slug, Category: models.Category("sobremesas"), Tags: []string{"Doce"}}
	r.Trend.Views = views
	return models.RecipeRecord{ID: id, Recipe: r, Status: status, RoutedAt: routed, UpdatedAt: routed}
}

func TestRecipeRepository_SaveKeepsRoutedAt(t *testing.T) {
	ctx := context.Background()
	repo := NewRecipeRepository(db.NewMemoryStore())

	require.NoError(t, repo.SaveRecipeRecord(ctx, record("r1", "bolo", models.PublishStatusQueued, 10, t0)))
	later := record("r1", "bolo", models.PublishStatusPublished, 10, t0.Add(time.Hour))
	require.NoError(t, repo.SaveRecipeRecord(ctx, later))

	got, err := repo.FindByID(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, models.PublishStatusPublished, got.Status)
	assert.True(t, got.RoutedAt.Equal(t0))

	assert.Error(t, repo.SaveRecipeRecord(ctx, models.RecipeRecord{}))
}

func TestRecipeRepository_ListFiltersAndPages(t *testing.T) {
	ctx := context.Background()
	repo := NewRecipeRepository(db.NewMemoryStore())
	for i := range 5 {
		status := models.PublishStatusPublished
		if i%2 == 1 {
			status = models.PublishStatusQueued
		}
		rec := record(fmt.Sprintf("r%d", i), fmt.Sprintf("s%d", i), status, int64(i), t0.Add(time.Duration(i)*time.Minute))
		require.NoError(t, repo.SaveRecipeRecord(ctx, rec))
	}

	items, total, err := repo.List(ctx, ListRecipesOptions{Page: 1, PageSize: 2})
	require.NoError(t, err)
	assert.EqualValues(t, 5, total)
	require.Len(t, items, 2)
	assert.Equal(t, "r4", items[0].ID)
	assert.Equal(t, "r3", items[1].ID)

	items, total, err = repo.List(ctx, ListRecipesOptions{Status: models.PublishStatusPublished})
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	assert.Len(t, items, 3)

	items, _, err = repo.List(ctx, ListRecipesOptions{Page: 9})
	require.NoError(t, err)
	assert.Empty(t, items)

	_, total, err = repo.List(ctx, ListRecipesOptions{Category: "SOBREMESAS", Tag: "doce"})
	require.NoError(t, err)
	assert.EqualValues(t, 5, total)

	_, total, err = repo.List(ctx, ListRecipesOptions{Category: "massas"})
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestRecipeRepository_FindBySlugAndTop(t *testing.T) {
	ctx := context.Background()
	repo := NewRecipeRepository(db.NewMemoryStore())
	require.NoError(t, repo.SaveRecipeRecord(ctx, record("a", "bolo", models.PublishStatusPublished, 100, t0)))
	require.NoError(t, repo.SaveRecipeRecord(ctx, record("b", "bolo", models.PublishStatusPublished, 500, t0.Add(time.Hour))))
	require.NoError(t, repo.SaveRecipeRecord(ctx, record("c", "pizza", models.PublishStatusRejected, 900, t0)))

	got, err := repo.FindBySlug(ctx, "bolo")
	require.NoError(t, err)
	assert.Equal(t, "b", got.ID)

	_, err = repo.FindBySlug(ctx, "nada")
	assert.ErrorIs(t, err, db.ErrNotFound)

	top, err := repo.Top(ctx, 1)
	require.NoError(t, err)
	require.Len(t, top, 1)
	assert.Equal(t, "b", top[0].ID)
}

func TestPendingRepository_ListOrder(t *testing.T) {
	ctx := context.Background()
	repo := NewPendingRepository(db.NewMemoryStore())
	require.NoError(t, repo.SavePending(ctx, models.PendingRecipe{ID: "z", EnqueuedAt: t0}))
	require.NoError(t, repo.SavePending(ctx, models.PendingRecipe{ID: "a", EnqueuedAt: t0.Add(time.Second)}))

	list, err := repo.ListPendingRecipes(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "z", list[0].ID)

	_, err = repo.GetPending(ctx, "missing")
	assert.ErrorIs(t, err, db.ErrNotFound)
}

func TestDedupRecordRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewDedupRecordRepository(db.NewMemoryStore())
	require.NoError(t, repo.InsertRecord(ctx, models.DedupRecord{Fingerprint: "aa", InsertedAt: t0.Add(time.Hour)}))
	require.NoError(t, repo.InsertRecord(ctx, models.DedupRecord{Fingerprint: "bb", InsertedAt: t0}))
	require.NoError(t, repo.InsertRecord(ctx, models.DedupRecord{Fingerprint: "cc", InsertedAt: t0.Add(2 * time.Hour)}))

	recs, err := repo.LoadRecords(ctx)
	require.NoError(t, err)
	require.Len(t, recs, 3)
	assert.Equal(t, "bb", recs[0].Fingerprint)

	require.NoError(t, repo.DeleteRecords(ctx, []string{"bb", "cc"}))
	require.NoError(t, repo.DeleteRecords(ctx, nil))
	recs, err = repo.LoadRecords(ctx)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "aa", recs[0].Fingerprint)
}

func TestDedupRecordRepository_SameInstantKeepsInsertionOrder(t *testing.T) {
	ctx := context.Background()
	repo := NewDedupRecordRepository(db.NewMemoryStore())
	for i, fp := range []string{"zz", "mm", "aa"} {
		require.NoError(t, repo.InsertRecord(ctx, models.DedupRecord{Fingerprint: fp, InsertedAt: t0, Seq: int64(i + 1)}))
	}

	recs, err := repo.LoadRecords(ctx)
	require.NoError(t, err)
	require.Len(t, recs, 3)
	assert.Equal(t, []string{"zz", "mm", "aa"}, []string{recs[0].Fingerprint, recs[1].Fingerprint, recs[2].Fingerprint})
}

func TestCycleStatsRepository_AppendTrims(t *testing.T) {
	ctx := context.Background()
	repo := NewCycleStatsRepository(db.NewMemoryStore())
	for seq := int64(1); seq <= 12; seq++ {
		require.NoError(t, repo.Append(ctx, models.CycleStats{Seq: seq, Scanned: int(seq)}, 10))
	}

	list, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 10)
	assert.EqualValues(t, 3, list[0].Seq)
	assert.EqualValues(t, 12, list[9].Seq)

	last, ok, err := repo.Last(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.EqualValues(t, 12, last.Seq)

	_, ok, err = NewCycleStatsRepository(db.NewMemoryStore()).Last(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestBaselineRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewBaselineRepository(db.NewMemoryStore())
	url := "https://www.tiktok.com/@ana/video/1"

	obs, err := repo.LoadObservations(ctx, url)
	require.NoError(t, err)
	assert.Nil(t, obs)

	in := []models.MetricsObservation{{Metrics: models.Metrics{Views: 10}, ObservedAt: t0}}
	require.NoError(t, repo.SaveObservations(ctx, url, in))
	obs, err = repo.LoadObservations(ctx, url)
	require.NoError(t, err)
	require.Len(t, obs, 1)
	assert.EqualValues(t, 10, obs[0].Metrics.Views)

	require.NoError(t, repo.SaveObservations(ctx, url, nil))
	obs, err = repo.LoadObservations(ctx, url)
	require.NoError(t, err)
	assert.Nil(t, obs)
}

func TestAuditRepository_IdempotentInsert(t *testing.T) {
	ctx := context.Background()
	repo := NewAuditRepository(db.NewMemoryStore())
	require.NoError(t, repo.Insert(ctx, models.AuditEntry{ID: "e1", EventType: "recipe.published", Detail: "first", OccurredAt: t0}))
	require.NoError(t, repo.Insert(ctx, models.AuditEntry{ID: "e1", EventType: "recipe.published", Detail: "again", OccurredAt: t0}))
	require.NoError(t, repo.Insert(ctx, models.AuditEntry{EventType: "cycle.completed", OccurredAt: t0.Add(time.Minute)}))

	list, err := repo.Recent(ctx, 0)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "cycle.completed", list[0].EventType)
	assert.Equal(t, "first", list[1].Detail)
	assert.False(t, list[1].RecordedAt.IsZero())
}

func TestAILogRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewAILogRepository(db.NewMemoryStore())
	require.NoError(t, repo.InsertAILog(ctx, models.AILog{Provider: "google", RequestedAt: t0}))
	require.NoError(t, repo.InsertAILog(ctx, models.AILog{Provider: "openai", RequestedAt: t0.Add(time.Second)}))

	logs, err := repo.Recent(ctx, 1)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, "openai", logs[0].Provider)
	assert.NotEmpty(t, logs[0].ID)
}
