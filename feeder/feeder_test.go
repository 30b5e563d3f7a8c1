package feeder_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"viral-recipes/feeder"
)

const sampleRSS = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0" xmlns:media="http://search.yahoo.com/mrss/">
<channel>
  <title>Blog da Cozinha</title>
  <item>
    <title>Bolo de fubá cremoso</title>
    <link>https://blog.example.com/bolo-de-fuba</link>
    <description><![CDATA[<p>Ingredientes:</p><ul><li>2 xícaras de fubá</li></ul>]]></description>
    <category>bolos</category>
    <views>250000</views>
    <pubDate>Mon, 01 Jun 2026 10:00:00 GMT</pubDate>
    <media:content url="https://blog.example.com/img/fuba.jpg" medium="image"/>
  </item>
  <item>
    <title>Notícia sem receita</title>
    <link>https://blog.example.com/noticia</link>
    <description>texto</description>
    <enclosure url="https://blog.example.com/img/n.jpg" type="image/jpeg" length="1"/>
  </item>
</channel>
</rss>`

func TestFetchRssFeeds(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = w.Write([]byte(sampleRSS))
	}))
	defer srv.Close()

	title, items, err := feeder.FetchRssFeeds(context.Background(), srv.Client(), srv.URL, 0)
	require.NoError(t, err)
	assert.Equal(t, "Blog da Cozinha", title)
	require.Len(t, items, 2)

	first := items[0]
	assert.Equal(t, "Bolo de fubá cremoso", first.Title)
	assert.Equal(t, "https://blog.example.com/bolo-de-fuba", first.Link)
	assert.Contains(t, first.Description, "<li>2 xícaras de fubá</li>")
	assert.Equal(t, "Blog da Cozinha", first.Author)
	assert.Equal(t, "https://blog.example.com/img/fuba.jpg", first.ImageURL)
	assert.Equal(t, []string{"bolos"}, first.Categories)
	assert.Equal(t, 2026, first.PublishedAt.Year())
	assert.Equal(t, "250000", first.Custom["views"])

	assert.Equal(t, "https://blog.example.com/img/n.jpg", items[1].ImageURL)

	_, limited, err := feeder.FetchRssFeeds(context.Background(), srv.Client(), srv.URL, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestFetchRssFeedsHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, _, err := feeder.FetchRssFeeds(context.Background(), srv.Client(), srv.URL, 0)
	assert.Error(t, err)
}
