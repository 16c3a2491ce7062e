package webcat

import (
	"context"
	"fmt"
	"time"
)

const (
	MaxPollAttempts = 10
	PollDelay       = 500 * time.Millisecond
)

// Fetcher retrieves the body of a page.
type Fetcher interface {
	Get(ctx context.Context, url string) (string, error)
}

// DelayFunc waits for d, it should return early with an error when ctx is done.
type DelayFunc func(ctx context.Context, d time.Duration) error

// PollUntilDone re-fetches resultsUrl until the page no longer says the
// submission is queued. initialBody is returned as is when it is already
// graded. After MaxPollAttempts queued fetches the last body is returned
// without an error, the caller can tell it is still queued with IsQueued.
func PollUntilDone(ctx context.Context, resultsUrl, initialBody string, fetcher Fetcher, delay DelayFunc) (string, error) {
	ctx, span := tracer.Start(ctx, "PollUntilDone")
	defer span.End()

	body := initialBody
	for attempt := 1; IsQueued(body) && attempt <= MaxPollAttempts; attempt++ {
		err := delay(ctx, PollDelay)
		if err != nil {
			return "", fmt.Errorf("webcat poll: wait: %w", err)
		}
		body, err = fetcher.Get(ctx, resultsUrl)
		if err != nil {
			return "", fmt.Errorf("webcat poll: attempt %d: %w", attempt, err)
		}
	}
	return body, nil
}
