package feeder

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
)

type RssFeedItem struct {
	Title       string
	Link        string
	Description string
	Author      string
	ImageURL    string
	Categories  []string
	PublishedAt time.Time
	// Custom 은 표준 외 요소(views, likes 등 일부 피드가 싣는 지표)다.
	Custom map[string]string
}

// FetchRssFeeds 는 rssUrl 의 피드를 가져온다.
// limit 가 0 보다 크면 앞에서부터 limit 개만 반환한다. client 가 nil 이면 gofeed 기본 클라이언트를 쓴다.
func FetchRssFeeds(ctx context.Context, client *http.Client, rssUrl string, limit int) (string, []RssFeedItem, error) {
	fp := gofeed.NewParser()
	if client != nil {
		fp.Client = client
	}

	feed, err := fp.ParseURLWithContext(rssUrl, ctx)
	if err != nil {
		return "", nil, err
	}

	var items []RssFeedItem
	for _, item := range feed.Items {
		if limit > 0 && len(items) == limit {
			break
		}

		var published time.Time
		if item.PublishedParsed != nil {
			published = *item.PublishedParsed
		} else if item.UpdatedParsed != nil {
			published = *item.UpdatedParsed
		}

		description := item.Description
		if description == "" {
			description = item.Content
		}

		items = append(items, RssFeedItem{
			Title:       strings.TrimSpace(item.Title),
			Link:        item.Link,
			Description: description,
			Author:      author(item, feed),
			ImageURL:    image(item),
			Categories:  item.Categories,
			PublishedAt: published,
			Custom:      item.Custom,
		})
	}

	return feed.Title, items, nil
}

func author(item *gofeed.Item, feed *gofeed.Feed) string {
	if item.Author != nil && item.Author.Name != "" {
		return item.Author.Name
	}
	if len(item.Authors) > 0 && item.Authors[0] != nil && item.Authors[0].Name != "" {
		return item.Authors[0].Name
	}
	return feed.Title
}

// image 는 item 이미지, media:content, enclosure 순으로 찾는다.
func image(item *gofeed.Item) string {
	if item.Image != nil && item.Image.URL != "" {
		return item.Image.URL
	}
	if media, ok := item.Extensions["media"]; ok {
		for _, key := range []string{"content", "thumbnail"} {
			for _, ext := range media[key] {
				if u := ext.Attrs["url"]; u != "" {
					return u
				}
			}
		}
	}
	for _, enc := range item.Enclosures {
		if enc != nil && enc.URL != "" {
			return enc.URL
		}
	}
	return ""
}
