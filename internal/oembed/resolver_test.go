package oembed

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type fakeFetcher struct {
	mu      sync.Mutex
	calls   int
	lastURL string
	body    []byte
	err     error
	block   chan struct{}
}

func (f *fakeFetcher) Fetch(_ context.Context, requestURL string) ([]byte, error) {
	f.mu.Lock()
	f.calls++
	f.lastURL = requestURL
	block := f.block
	f.mu.Unlock()
	if block != nil {
		<-block
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.body, f.err
}

func (f *fakeFetcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type mapCache struct {
	mu       sync.Mutex
	outcomes map[string]Outcome
}

func newMapCache() *mapCache {
	return &mapCache{outcomes: map[string]Outcome{}}
}

func (c *mapCache) Get(url string) (Outcome, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	outcome, ok := c.outcomes[url]
	return outcome, ok
}

func (c *mapCache) Set(url string, outcome Outcome) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.outcomes[url] = outcome
}

func TestResolver_ResolveSuccess(t *testing.T) {
	t.Parallel()

	fetcher := &fakeFetcher{body: []byte(`{"author_name":"A","width":560,"height":315,"url":"https://www.facebook.com/x","html":"<div/>"}`)}
	r := NewResolver(fetcher, newMapCache(), zap.NewNop(), Config{})

	record, err := r.Resolve(context.Background(), "https://www.facebook.com/example/posts/123")
	require.NoError(t, err)
	require.Equal(t, "A", record.AuthorName)
	require.Equal(t, 560, record.Width)
	require.Equal(t, 1, fetcher.callCount())
}

func TestResolver_RequestURLEncodesContentURL(t *testing.T) {
	t.Parallel()

	fetcher := &fakeFetcher{body: []byte(`{}`)}
	r := NewResolver(fetcher, newMapCache(), zap.NewNop(), Config{})

	_, err := r.Resolve(context.Background(), "https://www.facebook.com/example/posts/123")
	require.NoError(t, err)
	require.Equal(t,
		DefaultPostEndpoint+"?url=https%3A%2F%2Fwww.facebook.com%2Fexample%2Fposts%2F123",
		fetcher.lastURL,
	)
}

func TestResolver_VideoURLUsesVideoEndpoint(t *testing.T) {
	t.Parallel()

	fetcher := &fakeFetcher{body: []byte(`{}`)}
	r := NewResolver(fetcher, newMapCache(), zap.NewNop(), Config{})

	_, err := r.Resolve(context.Background(), "https://www.facebook.com/example/videos/456")
	require.NoError(t, err)
	require.Contains(t, fetcher.lastURL, DefaultVideoEndpoint)
}

func TestResolver_SecondResolveServedFromCache(t *testing.T) {
	t.Parallel()

	fetcher := &fakeFetcher{body: []byte(`{"author_name":"A"}`)}
	r := NewResolver(fetcher, newMapCache(), zap.NewNop(), Config{})
	url := "https://www.facebook.com/example/posts/123"

	first, err := r.Resolve(context.Background(), url)
	require.NoError(t, err)

	// Transport state changing between calls must not matter.
	fetcher.mu.Lock()
	fetcher.err = errors.New("transport now broken")
	fetcher.body = nil
	fetcher.mu.Unlock()

	second, err := r.Resolve(context.Background(), url)
	require.NoError(t, err)
	require.Same(t, first, second)
	require.Equal(t, 1, fetcher.callCount())
}

func TestResolver_TransportFailureDegradesAndCaches(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.WarnLevel)
	fetcher := &fakeFetcher{err: errors.New("connection refused")}
	r := NewResolver(fetcher, newMapCache(), zap.New(core), Config{})
	url := "https://www.facebook.com/example/posts/123"

	_, err := r.Resolve(context.Background(), url)
	require.ErrorIs(t, err, ErrFetchFailed)

	_, err = r.Resolve(context.Background(), url)
	require.ErrorIs(t, err, ErrFetchFailed)

	require.Equal(t, 1, fetcher.callCount())
	require.Equal(t, 1, logs.FilterMessage("oembed fetch failed").Len())
}

func TestResolver_DecodeFailureTreatedAsFetchFailure(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.WarnLevel)
	fetcher := &fakeFetcher{body: []byte(`<html>not json</html>`)}
	r := NewResolver(fetcher, newMapCache(), zap.New(core), Config{})

	_, err := r.Resolve(context.Background(), "https://www.facebook.com/example/posts/123")
	require.ErrorIs(t, err, ErrFetchFailed)
	require.Equal(t, 1, logs.FilterMessage("oembed response decode failed").Len())
}

func TestResolver_NullBodyTreatedAsFetchFailure(t *testing.T) {
	t.Parallel()

	fetcher := &fakeFetcher{body: []byte(`null`)}
	cache := newMapCache()
	r := NewResolver(fetcher, cache, zap.NewNop(), Config{})
	url := "https://www.facebook.com/example/posts/123"

	_, err := r.Resolve(context.Background(), url)
	require.ErrorIs(t, err, ErrFetchFailed)

	outcome, ok := cache.Get(url)
	require.True(t, ok)
	require.ErrorIs(t, outcome.Err, ErrFetchFailed)
}

func TestResolver_DistinctURLsCachedSeparately(t *testing.T) {
	t.Parallel()

	fetcher := &fakeFetcher{body: []byte(`{"author_name":"A"}`)}
	r := NewResolver(fetcher, newMapCache(), zap.NewNop(), Config{})

	_, err := r.Resolve(context.Background(), "https://www.facebook.com/example/posts/1")
	require.NoError(t, err)
	_, err = r.Resolve(context.Background(), "https://www.facebook.com/example/posts/2")
	require.NoError(t, err)
	require.Equal(t, 2, fetcher.callCount())
}

func TestResolver_ConcurrentSameURLFetchesOnce(t *testing.T) {
	t.Parallel()

	block := make(chan struct{})
	fetcher := &fakeFetcher{body: []byte(`{"author_name":"A"}`), block: block}
	r := NewResolver(fetcher, newMapCache(), zap.NewNop(), Config{})
	url := "https://www.facebook.com/example/posts/123"

	const goroutines = 8
	var wg sync.WaitGroup
	results := make([]*Record, goroutines)
	errs := make([]error, goroutines)
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = r.Resolve(context.Background(), url)
		}(i)
	}

	// Let all goroutines pile up behind the in-flight fetch.
	time.Sleep(50 * time.Millisecond)
	close(block)
	wg.Wait()

	require.Equal(t, 1, fetcher.callCount())
	for i := 0; i < goroutines; i++ {
		require.NoError(t, errs[i])
	}
	for i := 1; i < goroutines; i++ {
		require.Same(t, results[0], results[i])
	}
}

func TestResolver_WaiterHonorsContextCancellation(t *testing.T) {
	t.Parallel()

	block := make(chan struct{})
	fetcher := &fakeFetcher{body: []byte(`{}`), block: block}
	r := NewResolver(fetcher, newMapCache(), zap.NewNop(), Config{})
	url := "https://www.facebook.com/example/posts/123"

	started := make(chan struct{})
	go func() {
		close(started)
		_, _ = r.Resolve(context.Background(), url)
	}()
	<-started
	time.Sleep(20 * time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := r.Resolve(ctx, url)
	require.ErrorIs(t, err, context.Canceled)

	close(block)
}
