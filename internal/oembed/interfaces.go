package oembed

import "context"

// Fetcher performs the HTTP GET against an oEmbed endpoint and returns
// the raw response body. Implementations must report non-2xx statuses,
// timeouts and connection errors as errors.
type Fetcher interface {
	Fetch(ctx context.Context, requestURL string) ([]byte, error)
}

// Outcome is a terminal resolve result for one content URL: either a
// record or a failure sentinel, never both.
type Outcome struct {
	Record *Record
	Err    error
}

// Cache stores resolve outcomes keyed by content URL for one scope.
// Successes and failures are cached alike; at most one entry exists per
// distinct URL, and the first stored outcome is terminal for the scope.
type Cache interface {
	Get(url string) (Outcome, bool)
	Set(url string, outcome Outcome)
}
