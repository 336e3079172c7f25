package cache

import (
	"fmt"

	"github.com/google/uuid"
)

func JobKey(jobID uuid.UUID) string {
	return fmt.Sprintf("job:%s", jobID)
}

// ScrapeKey addresses cached website text for a normalized URL.
func ScrapeKey(url string) string {
	return fmt.Sprintf("scrape:%s", url)
}

func RateLimitKey(client string) string {
	return fmt.Sprintf("ratelimit:%s", client)
}

// PendingQueueKey is the shared list producers push job IDs onto.
func PendingQueueKey() string {
	return "queue:analysis:pending"
}

// ProcessingQueueKey is the per-worker list holding deliveries that are not yet acked.
func ProcessingQueueKey(workerID string) string {
	return fmt.Sprintf("queue:analysis:processing:%s", workerID)
}
