package sources_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"viral-recipes/config"
	"viral-recipes/models"
	"viral-recipes/parser"
	"viral-recipes/sources"
)

const recipeFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
<channel>
  <title>Cozinha Prática</title>
  <item>
    <title>Receita de torta de limão</title>
    <link>https://blog.example.com/torta-de-limao</link>
    <description><![CDATA[<p>Ingredientes:</p><ul><li>1 lata de leite condensado</li><li>3 limões</li></ul><img src="https://blog.example.com/torta.jpg"/>]]></description>
    <views>120000</views>
    <likes>9000</likes>
    <pubDate>Mon, 01 Jun 2026 10:00:00 GMT</pubDate>
  </item>
  <item>
    <title>Eleições municipais</title>
    <link>https://blog.example.com/eleicoes</link>
    <description>Resultados da apuração</description>
    <pubDate>Mon, 01 Jun 2026 11:00:00 GMT</pubDate>
  </item>
  <item>
    <title>Bolo antigo de cenoura</title>
    <link>https://blog.example.com/bolo-antigo</link>
    <description>receita da vó</description>
    <pubDate>Mon, 01 Jan 2024 10:00:00 GMT</pubDate>
  </item>
</channel>
</rss>`

func TestRSSSourcePoll(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(recipeFeed))
	}))
	defer srv.Close()

	src := sources.NewRSSSource(config.FeedSource{Name: "cozinha", URL: srv.URL}, srv.Client(), 10)
	assert.Equal(t, "rss:cozinha", src.Name())

	since := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	items, err := src.Poll(context.Background(), since)
	require.NoError(t, err)
	require.Len(t, items, 1, "non-recipe and stale items are filtered out")

	got := items[0]
	assert.Equal(t, models.SourceRSS, got.SourceType)
	assert.Equal(t, "https://blog.example.com/torta-de-limao", got.OriginURL)
	assert.Equal(t, "Cozinha Prática", got.SourceProfile)
	assert.NotContains(t, got.Caption, "<li>")
	assert.Contains(t, got.Caption, "1 lata de leite condensado")
	assert.Equal(t, "https://blog.example.com/torta.jpg", got.MediaURL)
	assert.Equal(t, int64(120000), got.Metrics.Views)
	assert.Equal(t, int64(9000), got.Metrics.Likes)
	assert.False(t, got.ObservedAt.IsZero())
}

func TestRSSSourceUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	src := sources.NewRSSSource(config.FeedSource{URL: srv.URL}, srv.Client(), 0)
	_, err := src.Poll(context.Background(), time.Time{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, sources.ErrSourceUnavailable))
	assert.Contains(t, err.Error(), srv.URL)
}

func TestIsRecipeRelated(t *testing.T) {
	assert.True(t, sources.IsRecipeRelated("Dicas de CULINÁRIA para iniciantes"))
	assert.True(t, sources.IsRecipeRelated("Modo de fazer pão caseiro"))
	assert.False(t, sources.IsRecipeRelated("Previsão do tempo para amanhã"))
}

func TestPlatformSourcePoll(t *testing.T) {
	var gotAuth, gotSince, gotLimit string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotSince = r.URL.Query().Get("since")
		gotLimit = r.URL.Query().Get("limit")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"items":[
			{"id":"1","url":"https://www.tiktok.com/@a/video/1","author":"@a","title":"Pudim","caption":"Pudim de leite #pudim #sobremesa","views":250000,"likes":20000,"shares":1500,"comments":300,"published_at":"2026-06-01T10:00:00Z"},
			{"id":"2","url":"","title":"sem url"}
		]}`))
	}))
	defer srv.Close()

	src := sources.NewPlatformSource(config.PlatformAPI{Platform: "tiktok", URL: srv.URL}, "secret", srv.Client(), 5)
	since := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	items, err := src.Poll(context.Background(), since)
	require.NoError(t, err)

	assert.Equal(t, "Bearer secret", gotAuth)
	assert.Equal(t, "2026-06-01T00:00:00Z", gotSince)
	assert.Equal(t, "5", gotLimit)

	require.Len(t, items, 1)
	assert.Equal(t, models.SourceTikTok, items[0].SourceType)
	assert.Equal(t, "@a", items[0].SourceProfile)
	assert.Equal(t, int64(250000), items[0].Metrics.Views)
	assert.Equal(t, []string{"pudim", "sobremesa"}, items[0].Hashtags)
}

func TestPlatformSourceErrors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"status", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusTooManyRequests) }},
		{"decode", func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte("not json")) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			src := sources.NewPlatformSource(config.PlatformAPI{Platform: "instagram", URL: srv.URL}, "", srv.Client(), 0)
			_, err := src.Poll(context.Background(), time.Time{})
			assert.ErrorIs(t, err, sources.ErrSourceUnavailable)
		})
	}
}

func TestMerge(t *testing.T) {
	a := []models.RawContent{
		{SourceName: "tiktok", OriginURL: "https://www.tiktok.com/@a/video/1"},
		{SourceName: "tiktok", OriginURL: "https://www.tiktok.com/@a/video/2"},
	}
	b := []models.RawContent{
		{SourceName: "rss", OriginURL: "https://tiktok.com/@a/video/1/?utm_source=rss"},
		{SourceName: "rss", OriginURL: "https://blog.example.com/x"},
	}

	merged := sources.Merge([][]models.RawContent{a, b})
	require.Len(t, merged, 3)
	assert.Equal(t, "tiktok", merged[0].SourceName, "first registered source wins")
	assert.Equal(t, "https://www.tiktok.com/@a/video/2", merged[1].OriginURL)
	assert.Equal(t, "https://blog.example.com/x", merged[2].OriginURL)
}

func TestMerge_KeepsPostsDistinguishedByQuery(t *testing.T) {
	in := []models.RawContent{
		{SourceName: "rss", OriginURL: "https://receitas.example.com/?p=101"},
		{SourceName: "rss", OriginURL: "https://receitas.example.com/?p=202"},
		{SourceName: "rss", OriginURL: "https://www.youtube.com/watch?v=abc"},
		{SourceName: "rss", OriginURL: "https://youtube.com/watch?v=def"},
		{SourceName: "rss", OriginURL: "https://receitas.example.com/?utm_medium=feed&p=101"},
	}

	merged := sources.Merge([][]models.RawContent{in})
	require.Len(t, merged, 4)
	assert.Equal(t, "https://receitas.example.com/?p=202", merged[1].OriginURL)
	assert.Equal(t, "https://youtube.com/watch?v=def", merged[3].OriginURL)
}

func TestNormalizeURL(t *testing.T) {
	cases := map[string]string{
		"https://WWW.TikTok.com/@a/video/1/":                   "tiktok.com/@a/video/1",
		"https://www.instagram.com/reel/X/?igshid=abc&lang=pt": "instagram.com/reel/X",
		"https://blog.example.com/?utm_source=x&p=7#top":       "blog.example.com?p=7",
		"https://youtube.com/watch?v=abc&t=10":                 "youtube.com/watch?t=10&v=abc",
		"":                                                     "",
	}
	for in, want := range cases {
		assert.Equal(t, want, sources.NormalizeURL(in), in)
	}
}

func TestMerge_DropsSameProfileRepostUnderNewURL(t *testing.T) {
	long := "Bolo de chocolate de caneca pronto em dois minutos no micro-ondas"
	a := []models.RawContent{
		{SourceName: "tiktok", SourceProfile: "@cozinhadaana", OriginURL: "https://tiktok.com/@cozinhadaana/video/1", Title: long},
	}
	b := []models.RawContent{
		{SourceName: "instagram", SourceProfile: "@CozinhaDaAna", OriginURL: "https://instagram.com/reel/Z1", Title: long[:50] + " (repost)"},
		{SourceName: "instagram", SourceProfile: "@outraconta", OriginURL: "https://instagram.com/reel/Z2", Title: long},
		{SourceName: "rss", OriginURL: "https://blog.example.com/a", Title: long},
	}

	merged := sources.Merge([][]models.RawContent{a, b})
	require.Len(t, merged, 3)
	assert.Equal(t, "tiktok", merged[0].SourceName)
	assert.Equal(t, "@outraconta", merged[1].SourceProfile, "other profile with the same title is kept")
	assert.Equal(t, "rss", merged[2].SourceName, "items without a profile only merge by URL")
}

func TestMockSourceProducesExtractableRecipes(t *testing.T) {
	src := sources.NewMockSource(models.SourceTikTok)
	first, err := src.Poll(context.Background(), time.Time{})
	require.NoError(t, err)
	require.NotEmpty(t, first)

	for _, c := range first {
		assert.Equal(t, models.SourceTikTok, c.SourceType)
		f := parser.Extract(c)
		assert.NotEmpty(t, f.Title, c.OriginURL)
		assert.GreaterOrEqual(t, len(f.Ingredients), 2, c.OriginURL)
		assert.GreaterOrEqual(t, len(f.Instructions), 2, c.OriginURL)
	}

	second, err := src.Poll(context.Background(), time.Time{})
	require.NoError(t, err)
	assert.Greater(t, second[0].Metrics.Views, first[0].Metrics.Views)
}

func TestFromConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Sources.Platforms = []config.PlatformAPI{{Platform: "tiktok", URL: "http://localhost:1"}}
	cfg.Sources.RSSFeeds = []config.FeedSource{{Name: "blog", URL: "http://localhost:2/rss"}}

	srcs := sources.FromConfig(cfg, nil)
	require.Len(t, srcs, 2)
	assert.Equal(t, "tiktok", srcs[0].Name())
	assert.Equal(t, "rss:blog", srcs[1].Name())

	cfg.Sources.Mock = true
	srcs = sources.FromConfig(cfg, nil)
	require.Len(t, srcs, 2)
	assert.Equal(t, "mock:tiktok", srcs[0].Name())
}
