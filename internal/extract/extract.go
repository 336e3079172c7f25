// Package extract turns uploaded documents and company websites into plain text.
package extract

import (
	"context"
	"errors"
)

// Sentinel errors for extraction failures.
var (
	ErrEmptyDocument      = errors.New("document is empty")
	ErrUnreadableDocument = errors.New("document could not be read")
	ErrScrapeFailed       = errors.New("website could not be scraped")
)

// Placeholders used in place of website text. A missing URL and a failed scrape are
// both plain text to the model; neither affects the job state.
const (
	NoWebsiteText     = "No website provided."
	ScrapeFailureText = "Could not fetch website content."
)

// TextExtractor converts a document's raw bytes into plain text.
type TextExtractor interface {
	ExtractText(ctx context.Context, doc []byte) (string, error)
}

// Scraper fetches a URL and returns the readable text of the page.
type Scraper interface {
	Scrape(ctx context.Context, rawURL string) (string, error)
}

// WebsiteText returns the text to analyze for an optional URL. The returned text is
// always usable; a non-nil error only reports why the scrape placeholder was substituted.
func WebsiteText(ctx context.Context, s Scraper, rawURL string) (string, error) {
	if rawURL == "" {
		return NoWebsiteText, nil
	}
	text, err := s.Scrape(ctx, rawURL)
	if err != nil {
		return ScrapeFailureText, err
	}
	return text, nil
}
