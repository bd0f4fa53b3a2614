package oembed

import (
	"context"
	"encoding/json"
	"net/url"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/dpi/media-entity-facebook/internal/metrics"
)

const defaultTimeout = 5 * time.Second

// Config controls resolver behavior.
type Config struct {
	Endpoints Endpoints
	Timeout   time.Duration
}

// Resolver turns content URLs into oEmbed records. Outcomes are cached
// per scope, success and failure alike, so each distinct URL hits the
// network at most once for the lifetime of the cache.
type Resolver struct {
	cfg     Config
	fetcher Fetcher
	cache   Cache
	logger  *zap.Logger

	mu       sync.Mutex
	inflight map[string]chan struct{}
}

// NewResolver builds a Resolver. Zero-value config fields fall back to
// the production endpoints and a 5-second timeout.
func NewResolver(fetcher Fetcher, cache Cache, logger *zap.Logger, cfg Config) *Resolver {
	if cfg.Endpoints.Post == "" {
		cfg.Endpoints.Post = DefaultPostEndpoint
	}
	if cfg.Endpoints.Video == "" {
		cfg.Endpoints.Video = DefaultVideoEndpoint
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	metrics.Init()
	return &Resolver{
		cfg:      cfg,
		fetcher:  fetcher,
		cache:    cache,
		logger:   logger,
		inflight: make(map[string]chan struct{}),
	}
}

// Resolve returns the oEmbed record for contentURL. A cached outcome is
// returned as-is. Transport and decode failures degrade to ErrFetchFailed
// rather than propagating; the underlying cause appears once in the log,
// at the time of the failed fetch.
func (r *Resolver) Resolve(ctx context.Context, contentURL string) (*Record, error) {
	for {
		if outcome, ok := r.cache.Get(contentURL); ok {
			metrics.ObserveCacheHit()
			return outcome.Record, outcome.Err
		}

		done, leader := r.claim(contentURL)
		if leader {
			record, err := r.fetch(ctx, contentURL)
			r.cache.Set(contentURL, Outcome{Record: record, Err: err})
			r.release(contentURL, done)
			return record, err
		}

		// Another goroutine is fetching this URL; wait for its outcome
		// and read it from the cache on the next pass.
		select {
		case <-done:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// claim registers contentURL as in flight. The bool reports whether the
// caller became the leader; followers receive the leader's done channel.
func (r *Resolver) claim(contentURL string) (chan struct{}, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if done, ok := r.inflight[contentURL]; ok {
		return done, false
	}
	done := make(chan struct{})
	r.inflight[contentURL] = done
	return done, true
}

func (r *Resolver) release(contentURL string, done chan struct{}) {
	r.mu.Lock()
	delete(r.inflight, contentURL)
	r.mu.Unlock()
	close(done)
}

func (r *Resolver) fetch(ctx context.Context, contentURL string) (*Record, error) {
	endpoint := r.cfg.Endpoints.For(contentURL)
	kind := "post"
	if endpoint == r.cfg.Endpoints.Video {
		kind = "video"
	}
	requestURL := endpoint + "?url=" + url.QueryEscape(contentURL)

	ctx, cancel := context.WithTimeout(ctx, r.cfg.Timeout)
	defer cancel()

	start := time.Now()
	body, err := r.fetcher.Fetch(ctx, requestURL)
	if err != nil {
		metrics.ObserveResolve(kind, "fetch_error", time.Since(start))
		r.logger.Warn("oembed fetch failed",
			zap.String("content_url", contentURL),
			zap.String("endpoint", endpoint),
			zap.Error(err),
		)
		return nil, ErrFetchFailed
	}

	var record Record
	if err := json.Unmarshal(body, &record); err != nil {
		metrics.ObserveResolve(kind, "decode_error", time.Since(start))
		r.logger.Warn("oembed response decode failed",
			zap.String("content_url", contentURL),
			zap.String("endpoint", endpoint),
			zap.Error(err),
		)
		return nil, ErrFetchFailed
	}

	metrics.ObserveResolve(kind, "ok", time.Since(start))
	return &record, nil
}
