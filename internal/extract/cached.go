package extract

import (
	"context"
	"log/slog"
	"time"

	"github.com/kiranshivaraju/pitchlens/internal/cache"
)

// TextCache is the key/value slice of the Redis cache used to remember scraped pages.
type TextCache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// CachedScraper remembers successful scrapes for ttl, so a redelivered job or a second
// deck for the same company does not refetch the site. Failures are never cached, and
// cache errors fall through to a live fetch.
type CachedScraper struct {
	next  Scraper
	cache TextCache
	ttl   time.Duration
}

func NewCachedScraper(next Scraper, c TextCache, ttl time.Duration) *CachedScraper {
	return &CachedScraper{next: next, cache: c, ttl: ttl}
}

func (s *CachedScraper) Scrape(ctx context.Context, rawURL string) (string, error) {
	key := cache.ScrapeKey(NormalizeURL(rawURL))

	if b, found, err := s.cache.Get(ctx, key); err != nil {
		slog.Debug("scrape cache read failed", "key", key, "error", err)
	} else if found {
		return string(b), nil
	}

	text, err := s.next.Scrape(ctx, rawURL)
	if err != nil {
		return "", err
	}
	if err := s.cache.Set(ctx, key, []byte(text), s.ttl); err != nil {
		slog.Debug("scrape cache write failed", "key", key, "error", err)
	}
	return text, nil
}

var _ Scraper = (*CachedScraper)(nil)
