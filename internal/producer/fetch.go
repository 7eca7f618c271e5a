package producer

import (
	"context"
	"errors"
	"log/slog"

	"github.com/jonboulle/clockwork"

	"github.com/spacesedan/postsentiment/internal/clients"
	"github.com/spacesedan/postsentiment/internal/models"
	"github.com/spacesedan/postsentiment/internal/processing"
	"github.com/spacesedan/postsentiment/internal/store"
	"github.com/spacesedan/postsentiment/internal/utils"
)

const SEEN_SOURCE = "reddit"

// Fetcher is the upstream listing API.
type Fetcher interface {
	FetchTop(ctx context.Context, source string) (*models.Listing, error)
	FetchSearch(ctx context.Context, term string) (*models.Listing, error)
}

// SeenStore remembers posts collected by earlier runs.
type SeenStore interface {
	IsPostProcessed(ctx context.Context, source string, key string) bool
	MarkProcessed(ctx context.Context, source string, key string) error
}

type Collector struct {
	fetcher Fetcher
	filter  processing.FilterOptions
	seen    SeenStore
	clock   clockwork.Clock
}

type CollectorOption func(*Collector)

func WithFilter(opts processing.FilterOptions) CollectorOption {
	return func(c *Collector) { c.filter = opts }
}

func WithSeenStore(seen SeenStore) CollectorOption {
	return func(c *Collector) { c.seen = seen }
}

func WithClock(clock clockwork.Clock) CollectorOption {
	return func(c *Collector) { c.clock = clock }
}

func NewCollector(fetcher Fetcher, opts ...CollectorOption) *Collector {
	c := &Collector{
		fetcher: fetcher,
		filter:  processing.DefaultFilterOptions(),
		clock:   clockwork.NewRealClock(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Report summarises one collection pass.
type Report struct {
	Path      string
	Attempted int
	Failed    []string
	Posts     int
	Skipped   int
}

// OutputPath returns the versioned collection file for a run starting now.
func (c *Collector) OutputPath(base string) string {
	return utils.VersionedPath(base, c.clock.Now())
}

// CollectSources fetches the top posts of every source and appends the
// filtered posts to path.
func (c *Collector) CollectSources(ctx context.Context, sources []string, path string) (Report, error) {
	return c.collect(ctx, "subreddit", sources, path, c.fetcher.FetchTop)
}

// CollectSearch runs every search term and appends the filtered posts to path.
func (c *Collector) CollectSearch(ctx context.Context, terms []string, path string) (Report, error) {
	return c.collect(ctx, "keyword", terms, path, c.fetcher.FetchSearch)
}

type fetchFunc func(ctx context.Context, target string) (*models.Listing, error)

// collect walks targets sequentially. A failing target is logged and skipped;
// only a cancelled context or an unwritable output stops the run.
func (c *Collector) collect(ctx context.Context, kind string, targets []string, path string, fetch fetchFunc) (Report, error) {
	report := Report{Path: path}

	var posts []models.Post
	for _, target := range targets {
		if err := ctx.Err(); err != nil {
			slog.Warn("[Collector] Context cancelled, stopping collection",
				slog.String(kind, target))
			return report, err
		}
		report.Attempted++

		listing, err := fetch(ctx, target)
		if err != nil {
			if ctx.Err() != nil {
				return report, ctx.Err()
			}
			report.Failed = append(report.Failed, target)
			logFetchError(kind, target, err)
			continue
		}

		filtered := processing.FilterPosts(listing, c.filter)
		kept := c.dropSeen(ctx, filtered)
		report.Skipped += len(filtered) - len(kept)
		posts = append(posts, kept...)

		slog.Debug("[Collector] Fetched",
			slog.String(kind, target),
			slog.Int("candidates", candidates(listing)),
			slog.Int("kept", len(kept)))
	}

	rows := make([]store.Row, 0, len(posts))
	for _, p := range posts {
		rows = append(rows, p.Row())
	}
	if err := store.Append(rows, models.PostColumns, path); err != nil {
		return report, err
	}
	report.Posts = len(rows)

	c.markSeen(ctx, posts)

	slog.Info("[Collector] Collection complete",
		slog.String("kind", kind),
		slog.String("path", path),
		slog.Int("attempted", report.Attempted),
		slog.Int("failed", len(report.Failed)),
		slog.Int("posts", report.Posts))
	return report, nil
}

func (c *Collector) dropSeen(ctx context.Context, posts []models.Post) []models.Post {
	if c.seen == nil {
		return posts
	}
	kept := posts[:0:0]
	for _, p := range posts {
		if c.seen.IsPostProcessed(ctx, SEEN_SOURCE, p.ContentID()) {
			slog.Debug("[Collector] Skipping post collected by an earlier run",
				slog.String("title", p.Title))
			continue
		}
		kept = append(kept, p)
	}
	return kept
}

func (c *Collector) markSeen(ctx context.Context, posts []models.Post) {
	if c.seen == nil {
		return
	}
	for _, p := range posts {
		if err := c.seen.MarkProcessed(ctx, SEEN_SOURCE, p.ContentID()); err != nil {
			slog.Warn("[Collector] Error marking post as collected",
				slog.String("title", p.Title),
				slog.String("error", err.Error()))
		}
	}
}

func candidates(listing *models.Listing) int {
	if listing == nil || listing.Data == nil {
		return 0
	}
	return len(listing.Data.Children)
}

func logFetchError(kind, target string, err error) {
	attrs := []any{slog.String(kind, target), slog.String("error", err.Error())}

	var fetchErr *clients.FetchError
	if errors.As(err, &fetchErr) && fetchErr.Status != 0 {
		attrs = append(attrs, slog.Int("status", fetchErr.Status))
	}
	slog.Error("[Collector] Error fetching or filtering posts", attrs...)
}
