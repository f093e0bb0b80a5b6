package ingest

import (
	"context"
	"time"

	"github.com/leadtrack/attribution/internal/utils"
)

// getJSONWithRetry fetches and decodes a feed, retrying transient failures
// with exponential backoff.
func getJSONWithRetry(ctx context.Context, c HTTPClient, url string, dst any) error {
	b := utils.NewBackoff(100*time.Millisecond, 2)
	return b.Do(func(int) error {
		return getJSON(ctx, c, url, dst)
	})
}
