package service

import (
	"context"
	"fmt"
	"time"

	"github.com/gorilla/feeds"
	"github.com/rs/zerolog"
	"github.com/technofatty/technofatty/internal/config"
	"github.com/technofatty/technofatty/internal/seo"
)

// FeedFormat selects the syndication format
type FeedFormat string

const (
	FeedRSS  FeedFormat = "rss"
	FeedAtom FeedFormat = "atom"
	FeedJSON FeedFormat = "json"

	feedItems = 10
)

// ContentType returns the response media type for the format
func (f FeedFormat) ContentType() string {
	switch f {
	case FeedAtom:
		return "application/atom+xml; charset=utf-8"
	case FeedJSON:
		return "application/feed+json; charset=utf-8"
	default:
		return "application/rss+xml; charset=utf-8"
	}
}

// feedService is the concrete implementation of FeedService
type feedService struct {
	blog      BlogService
	knowledge KnowledgeService
	baseURL   string
	log       zerolog.Logger
}

func newFeedService(blog BlogService, knowledge KnowledgeService, site config.SiteConfig, log zerolog.Logger) *feedService {
	return &feedService{
		blog:      blog,
		knowledge: knowledge,
		baseURL:   site.BaseURL,
		log:       log.With().Str("service", "feed").Logger(),
	}
}

// BlogFeed renders the ten newest visible blog posts
func (s *feedService) BlogFeed(ctx context.Context, format FeedFormat) (string, error) {
	posts, err := s.blog.Recent(ctx, feedItems)
	if err != nil {
		return "", fmt.Errorf("load posts: %w", err)
	}

	feed := &feeds.Feed{
		Title:       "Technofatty Blog",
		Link:        &feeds.Link{Href: seo.AbsoluteURL(s.baseURL, "/blog/")},
		Description: "Latest news and insights from Technofatty.",
	}
	for _, p := range posts {
		link := seo.AbsoluteURL(s.baseURL, p.Path())
		item := &feeds.Item{
			Id:          link,
			Title:       p.Title,
			Link:        &feeds.Link{Href: link},
			Description: p.Excerpt,
		}
		if p.PublishedAt != nil {
			item.Created = *p.PublishedAt
		}
		feed.Items = append(feed.Items, item)
	}
	return render(feed, format)
}

// KnowledgeFeed renders the ten newest visible knowledge articles
func (s *feedService) KnowledgeFeed(ctx context.Context, format FeedFormat) (string, error) {
	articles, err := s.knowledge.Recent(ctx, feedItems)
	if err != nil {
		return "", fmt.Errorf("load articles: %w", err)
	}

	feed := &feeds.Feed{
		Title:       "Technofatty Knowledge",
		Link:        &feeds.Link{Href: seo.AbsoluteURL(s.baseURL, "/knowledge/")},
		Description: "Latest knowledge articles from Technofatty.",
	}
	for _, a := range articles {
		link := seo.AbsoluteURL(s.baseURL, a.Path())
		item := &feeds.Item{
			Id:          link,
			Title:       a.Title,
			Link:        &feeds.Link{Href: link},
			Description: a.Blurb,
		}
		if a.PublishedAt != nil {
			item.Created = *a.PublishedAt
		}
		feed.Items = append(feed.Items, item)
	}
	return render(feed, format)
}

// render stamps the feed with its newest item time and encodes it
func render(feed *feeds.Feed, format FeedFormat) (string, error) {
	var updated time.Time
	for _, item := range feed.Items {
		if item.Created.After(updated) {
			updated = item.Created
		}
	}
	feed.Updated = updated
	feed.Created = updated

	switch format {
	case FeedRSS:
		return feed.ToRss()
	case FeedAtom:
		return feed.ToAtom()
	case FeedJSON:
		return feed.ToJSON()
	default:
		return "", fmt.Errorf("unknown feed format %q", format)
	}
}
