package extract

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// textSelector lists the elements whose text is kept from a scraped page.
const textSelector = "p, h1, h2, h3"

// WebScraper implements Scraper over plain HTTP GET.
type WebScraper struct {
	client   *http.Client
	maxBytes int64
}

// NewWebScraper creates a WebScraper with a request timeout and a cap on the body size read.
func NewWebScraper(timeout time.Duration, maxBytes int64) *WebScraper {
	return &WebScraper{
		client:   &http.Client{Timeout: timeout},
		maxBytes: maxBytes,
	}
}

// Scrape fetches rawURL (https:// is assumed when no scheme is given) and returns the
// space-joined text of its paragraph and heading elements.
func (s *WebScraper) Scrape(ctx context.Context, rawURL string) (string, error) {
	u := NormalizeURL(rawURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return "", fmt.Errorf("%w: building request: %v", ErrScrapeFailed, err)
	}
	req.Header.Set("User-Agent", "pitchlens/1.0 (+https://github.com/kiranshivaraju/pitchlens)")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrScrapeFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return "", fmt.Errorf("%w: status %d", ErrScrapeFailed, resp.StatusCode)
	}

	var body io.Reader = resp.Body
	if s.maxBytes > 0 {
		body = io.LimitReader(resp.Body, s.maxBytes)
	}

	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return "", fmt.Errorf("%w: parsing html: %v", ErrScrapeFailed, err)
	}

	var parts []string
	doc.Find(textSelector).Each(func(_ int, sel *goquery.Selection) {
		parts = append(parts, sel.Text())
	})
	return strings.Join(parts, " "), nil
}

// NormalizeURL prefixes https:// to URLs that carry no http(s) scheme.
func NormalizeURL(rawURL string) string {
	u := strings.TrimSpace(rawURL)
	if strings.HasPrefix(u, "http://") || strings.HasPrefix(u, "https://") {
		return u
	}
	return "https://" + u
}

var _ Scraper = (*WebScraper)(nil)
