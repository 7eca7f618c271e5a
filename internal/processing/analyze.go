package processing

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/spacesedan/postsentiment/internal/export"
	"github.com/spacesedan/postsentiment/internal/models"
	"github.com/spacesedan/postsentiment/internal/sentiment"
	"github.com/spacesedan/postsentiment/internal/store"
	"github.com/spacesedan/postsentiment/internal/utils"
)

// Sink receives the enriched posts of a file after they have been written
// to disk.
type Sink interface {
	Name() string
	Write(ctx context.Context, posts []models.EnrichedPost) error
}

type Analyzer struct {
	enricher *sentiment.Enricher
	clock    clockwork.Clock
	sinks    []Sink
}

type AnalyzerOption func(*Analyzer)

func WithClock(clock clockwork.Clock) AnalyzerOption {
	return func(a *Analyzer) { a.clock = clock }
}

func WithSinks(sinks ...Sink) AnalyzerOption {
	return func(a *Analyzer) { a.sinks = append(a.sinks, sinks...) }
}

func NewAnalyzer(scorer sentiment.Scorer, opts ...AnalyzerOption) *Analyzer {
	a := &Analyzer{
		enricher: sentiment.NewEnricher(scorer),
		clock:    clockwork.NewRealClock(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// FileResult describes what ProcessFile produced for one working file.
type FileResult struct {
	WorkingFile  string
	EnrichedFile string
	JSONFile     string
	Rows         int
	Duplicates   int
	// Archived counts the rows newly added to the JSON archive.
	Archived int
}

// ProcessFolder runs ProcessFile on every working CSV file in dir, in name
// order. Enrichment outputs are skipped.
func (a *Analyzer) ProcessFolder(ctx context.Context, dir string) ([]FileResult, error) {
	files, err := WorkingFiles(dir)
	if err != nil {
		return nil, err
	}

	results := make([]FileResult, 0, len(files))
	for _, path := range files {
		slog.Info("[Analyzer] Processing file", slog.String("file", path))

		res, err := a.ProcessFile(ctx, path)
		if err != nil {
			return results, err
		}
		results = append(results, res)
	}
	return results, nil
}

// ProcessFile dedupes the working file in place, enriches it into a new
// versioned file, merges the enriched rows into the JSON archive next to it
// and forwards them to the sinks.
func (a *Analyzer) ProcessFile(ctx context.Context, path string) (FileResult, error) {
	res := FileResult{WorkingFile: path}

	table, err := store.Read(path, models.PostColumns)
	if err != nil {
		return res, err
	}

	deduped := Dedupe(table)
	res.Duplicates = table.Len() - deduped.Len()
	if err := store.Overwrite(deduped, path); err != nil {
		return res, err
	}
	if res.Duplicates > 0 {
		slog.Info("[Analyzer] Removed duplicates",
			slog.String("file", path),
			slog.Int("removed", res.Duplicates))
	}

	res.EnrichedFile = EnrichedPath(path, a.clock.Now())
	n, err := a.enricher.EnrichFile(ctx, path, res.EnrichedFile)
	if err != nil {
		return res, err
	}
	res.Rows = n

	posts, err := readEnriched(res.EnrichedFile)
	if err != nil {
		return res, err
	}

	res.JSONFile = utils.ReplaceExt(path, ".json")
	added, total, err := export.JSON(posts, res.JSONFile)
	if err != nil {
		return res, err
	}
	res.Archived = len(added)

	slog.Info("[Analyzer] Enriched file",
		slog.String("file", res.EnrichedFile),
		slog.Int("rows", res.Rows),
		slog.String("json", res.JSONFile),
		slog.Int("json_added", res.Archived),
		slog.Int("json_records", total))

	// Sinks only see posts the archive did not already hold.
	a.forward(ctx, added)
	return res, nil
}

// forward hands posts to every sink. Sink failures are logged; the files on
// disk are the record of the run.
func (a *Analyzer) forward(ctx context.Context, posts []models.EnrichedPost) {
	if len(posts) == 0 {
		return
	}
	for _, sink := range a.sinks {
		if err := sink.Write(ctx, posts); err != nil {
			slog.Error("[Analyzer] Sink write failed",
				slog.String("sink", sink.Name()),
				slog.Int("posts", len(posts)),
				slog.String("error", err.Error()))
		}
	}
}

func readEnriched(path string) ([]models.EnrichedPost, error) {
	table, err := store.Read(path, models.EnrichedColumns)
	if err != nil {
		return nil, err
	}

	posts := make([]models.EnrichedPost, 0, table.Len())
	for i, row := range table.Rows {
		post, err := models.EnrichedPostFromRow(row)
		if err != nil {
			return nil, &store.FileIOError{Op: "decode", Path: path, Err: fmt.Errorf("row %d: %w", i+1, err)}
		}
		posts = append(posts, post)
	}
	return posts, nil
}

// EnrichedPath names the enrichment output of a working file:
// data/pull.csv -> data/pull_with_sentiment_20240131_094500.csv
func EnrichedPath(path string, now time.Time) string {
	ext := filepath.Ext(path)
	return utils.VersionedPath(strings.TrimSuffix(path, ext)+sentiment.EnrichedSuffix+ext, now)
}

// WorkingFiles lists the CSV files in dir that are not enrichment outputs.
func WorkingFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, &store.FileIOError{Op: "list", Path: dir, Err: err}
	}

	var files []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.EqualFold(filepath.Ext(name), ".csv") || sentiment.IsEnrichedName(name) {
			continue
		}
		files = append(files, filepath.Join(dir, name))
	}
	slices.Sort(files)
	return files, nil
}
