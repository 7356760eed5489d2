package feed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jusunglee/mta-arrivals/internal/aggregate"
	"github.com/jusunglee/mta-arrivals/internal/config"
	"github.com/jusunglee/mta-arrivals/internal/gtfsrt"
	"github.com/jusunglee/mta-arrivals/internal/metrics"
	"github.com/jusunglee/mta-arrivals/internal/models"
	"github.com/jusunglee/mta-arrivals/internal/normalize"
)

// FetchError is a transport failure or non-2xx response for one feed
type FetchError struct {
	Feed   string
	Status int
	Err    error
}

func (e *FetchError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("fetch %s: HTTP %d", e.Feed, e.Status)
	}
	return fmt.Sprintf("fetch %s: %v", e.Feed, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Manager runs the fetch -> decode -> normalize -> aggregate pipeline.
// It holds no per-run state; every Run starts from empty buckets.
type Manager struct {
	feeds        []config.Feed
	apiKey       string
	fetchTimeout time.Duration
	normalizer   *normalize.Normalizer
	httpClient   *http.Client
	metrics      *metrics.Collector
	now          func() time.Time
}

// Option customizes a Manager
type Option func(*Manager)

// WithHTTPClient replaces the default HTTP client
func WithHTTPClient(c *http.Client) Option {
	return func(m *Manager) { m.httpClient = c }
}

// WithMetrics records run and feed metrics on c
func WithMetrics(c *metrics.Collector) Option {
	return func(m *Manager) { m.metrics = c }
}

// WithClock sets the reference clock used for countdowns
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// NewManager creates a new feed manager
func NewManager(cfg *config.Config, opts ...Option) (*Manager, error) {
	n, err := normalize.New(cfg.Stations, cfg.OverrideTable())
	if err != nil {
		return nil, err
	}

	m := &Manager{
		feeds:        append([]config.Feed(nil), cfg.Feeds...),
		apiKey:       cfg.APIKey,
		fetchTimeout: cfg.FetchTimeout,
		normalizer:   n,
		httpClient:   &http.Client{},
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// Feeds returns the configured feed sources
func (m *Manager) Feeds() []config.Feed {
	return append([]config.Feed(nil), m.feeds...)
}

// Run fetches every feed concurrently and returns the merged summary.
// Feed-level failures are logged and reported in the stats only. An error is
// returned when ctx is done before the run completes or the merge faults;
// in that case no summary is returned.
func (m *Manager) Run(ctx context.Context) (models.ArrivalSummary, models.RunStats, error) {
	start := time.Now()
	now := m.now()

	stats := models.RunStats{
		Feeds:       make([]models.FeedStatus, len(m.feeds)),
		GeneratedAt: now,
	}
	accs := make([]*aggregate.Accumulator, len(m.feeds))

	// Workers never return errors so one feed cannot cancel the others.
	g, gctx := errgroup.WithContext(ctx)
	for i, f := range m.feeds {
		stats.Feeds[i] = models.FeedStatus{Name: f.Name, State: models.FeedPending}
		g.Go(func() error {
			accs[i] = m.processFeed(gctx, f, now, &stats.Feeds[i])
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		m.observeRun("canceled", start, 0)
		return nil, models.RunStats{}, err
	}

	for _, st := range stats.Feeds {
		if st.State == models.FeedFailed {
			stats.Skipped++
		}
	}

	summary, err := aggregate.Merge(accs...)
	if err != nil {
		slog.Error("aggregation failed", "error", err)
		m.observeRun("fault", start, 0)
		return nil, models.RunStats{}, err
	}

	m.observeRun("ok", start, len(summary))
	return summary, stats, nil
}

// processFeed takes one feed through fetch, decode and fold.
// It returns nil when the feed failed at any stage.
func (m *Manager) processFeed(ctx context.Context, f config.Feed, now time.Time, st *models.FeedStatus) *aggregate.Accumulator {
	payload, err := m.fetchFeed(ctx, f)
	if err != nil {
		m.fail(f, st, "fetch", err)
		return nil
	}
	st.State = models.FeedFetched

	events, err := gtfsrt.Decode(payload)
	if err != nil {
		m.fail(f, st, "decode", err)
		return nil
	}
	st.State = models.FeedDecoded

	acc := aggregate.NewAccumulator()
	for ev := range events {
		if arr, ok := m.normalizer.Normalize(ev, now); ok {
			acc.Add(arr)
		}
	}
	st.State = models.FeedContributing
	st.Events = acc.Len()
	if m.metrics != nil {
		m.metrics.FeedContributed(f.Name, acc.Len())
	}
	return acc
}

func (m *Manager) fail(f config.Feed, st *models.FeedStatus, stage string, err error) {
	st.State = models.FeedFailed
	st.Error = err.Error()
	// Skipped feeds are expected when the caller has gone away
	if !errors.Is(err, context.Canceled) {
		slog.Warn("skipping feed", "feed", f.Name, "stage", stage, "error", err)
	}
	if m.metrics != nil {
		m.metrics.FeedFailed(f.Name, stage)
	}
}

func (m *Manager) fetchFeed(ctx context.Context, f config.Feed) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, m.fetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.URL, nil)
	if err != nil {
		return nil, &FetchError{Feed: f.Name, Err: err}
	}
	switch f.Auth {
	case config.AuthAPIKey:
		req.Header.Set("x-api-key", m.apiKey)
	case config.AuthBearer:
		req.Header.Set("Authorization", "Bearer "+m.apiKey)
	}

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return nil, &FetchError{Feed: f.Name, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &FetchError{Feed: f.Name, Status: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &FetchError{Feed: f.Name, Err: err}
	}
	return body, nil
}

func (m *Manager) observeRun(result string, start time.Time, stations int) {
	if m.metrics != nil {
		m.metrics.ObserveRun(result, time.Since(start), stations)
	}
}
