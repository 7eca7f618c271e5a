package processing

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spacesedan/postsentiment/internal/models"
	"github.com/spacesedan/postsentiment/internal/sentiment"
	"github.com/spacesedan/postsentiment/internal/store"
)

type recordingSink struct {
	posts []models.EnrichedPost
	err   error
}

func (s *recordingSink) Name() string { return "recording" }

func (s *recordingSink) Write(_ context.Context, posts []models.EnrichedPost) error {
	s.posts = append(s.posts, posts...)
	return s.err
}

var keywordScorer = sentiment.ScorerFunc(func(text string) sentiment.Scores {
	switch {
	case strings.Contains(text, "great"):
		return sentiment.Scores{Pos: 0.6, Neu: 0.4, Compound: 0.8}
	case strings.Contains(text, "awful"):
		return sentiment.Scores{Neg: 0.6, Neu: 0.4, Compound: -0.8}
	default:
		return sentiment.Scores{Neu: 1}
	}
})

func writeWorking(t *testing.T, path string, rows ...store.Row) {
	t.Helper()
	require.NoError(t, store.Append(rows, models.PostColumns, path))
}

func TestProcessFile_FullPass(t *testing.T) {
	dir := t.TempDir()
	working := filepath.Join(dir, "pull_20240101_120000.csv")
	writeWorking(t, working,
		store.Row{"title": "Offer", "comment_count": "3", "source_name": "jobs", "body_text": "great news today"},
		store.Row{"title": "Offer", "comment_count": "9", "source_name": "careeradvice", "body_text": "great news today"},
		store.Row{"title": "Rejected", "comment_count": "1", "source_name": "jobs", "body_text": "awful interview"},
		store.Row{"title": "Question", "comment_count": "0", "source_name": "work", "body_text": "what to wear"},
	)

	clock := clockwork.NewFakeClockAt(time.Date(2024, 2, 3, 4, 5, 6, 0, time.UTC))
	sink := &recordingSink{}
	res, err := NewAnalyzer(keywordScorer, WithClock(clock), WithSinks(sink)).ProcessFile(context.Background(), working)
	require.NoError(t, err)

	assert.Equal(t, 1, res.Duplicates)
	assert.Equal(t, 3, res.Rows)
	assert.Equal(t, filepath.Join(dir, "pull_20240101_120000_with_sentiment_20240203_040506.csv"), res.EnrichedFile)
	assert.Equal(t, filepath.Join(dir, "pull_20240101_120000.json"), res.JSONFile)

	// working file is rewritten in place, deduplicated
	workingTable, err := store.Read(working, nil)
	require.NoError(t, err)
	assert.Equal(t, models.PostColumns, workingTable.Columns)
	assert.Equal(t, 3, workingTable.Len())
	assert.Equal(t, "jobs", workingTable.Rows[0]["source_name"])

	enriched, err := store.Read(res.EnrichedFile, nil)
	require.NoError(t, err)
	assert.Equal(t, models.EnrichedColumns, enriched.Columns)
	var labels []string
	for _, r := range enriched.Rows {
		labels = append(labels, r[models.ColumnOverallSentiment])
	}
	assert.Equal(t, []string{"good", "bad", "neutral"}, labels)

	data, err := os.ReadFile(res.JSONFile)
	require.NoError(t, err)
	var archived []models.EnrichedPost
	require.NoError(t, json.Unmarshal(data, &archived))
	require.Len(t, archived, 3)
	assert.Equal(t, models.SentimentGood, archived[0].Label)
	assert.InDelta(t, 0.8, archived[0].Compound, 1e-9)

	assert.Len(t, sink.posts, 3)
}

func TestProcessFile_SinkFailureIsNotFatal(t *testing.T) {
	dir := t.TempDir()
	working := filepath.Join(dir, "pull.csv")
	writeWorking(t, working, store.Row{"title": "A", "body_text": "great"})

	sink := &recordingSink{err: errors.New("broker down")}
	_, err := NewAnalyzer(keywordScorer, WithSinks(sink)).ProcessFile(context.Background(), working)

	require.NoError(t, err)
	assert.Len(t, sink.posts, 1)
}

func TestProcessFolder_SkipsEnrichedOutputs(t *testing.T) {
	dir := t.TempDir()
	writeWorking(t, filepath.Join(dir, "a.csv"), store.Row{"title": "A", "body_text": "great"})
	writeWorking(t, filepath.Join(dir, "b.csv"), store.Row{"title": "B", "body_text": "awful"})
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignore"), 0o644))

	clock := clockwork.NewFakeClockAt(time.Date(2024, 2, 3, 4, 5, 6, 0, time.UTC))
	analyzer := NewAnalyzer(keywordScorer, WithClock(clock))

	results, err := analyzer.ProcessFolder(context.Background(), dir)
	require.NoError(t, err)
	require.Len(t, results, 2)

	// a second pass must not pick up the enrichment outputs of the first
	clock.Advance(time.Minute)
	results, err = analyzer.ProcessFolder(context.Background(), dir)
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestProcessFolder_RerunDoesNotDuplicateArchive(t *testing.T) {
	dir := t.TempDir()
	working := filepath.Join(dir, "pull_20240101_120000.csv")
	writeWorking(t, working,
		store.Row{"title": "Offer", "source_name": "jobs", "body_text": "great news today"},
		store.Row{"title": "Rejected", "source_name": "jobs", "body_text": "awful interview"},
	)

	clock := clockwork.NewFakeClockAt(time.Date(2024, 2, 3, 4, 5, 6, 0, time.UTC))
	sink := &recordingSink{}
	analyzer := NewAnalyzer(keywordScorer, WithClock(clock), WithSinks(sink))

	results, err := analyzer.ProcessFolder(context.Background(), dir)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, 2, results[0].Archived)

	clock.Advance(time.Hour)
	results, err = analyzer.ProcessFolder(context.Background(), dir)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, 0, results[0].Archived)

	data, err := os.ReadFile(filepath.Join(dir, "pull_20240101_120000.json"))
	require.NoError(t, err)
	var archived []models.EnrichedPost
	require.NoError(t, json.Unmarshal(data, &archived))
	assert.Len(t, archived, 2)
	assert.Len(t, sink.posts, 2)

	// new rows collected into the same file are archived once
	writeWorking(t, working, store.Row{"title": "Question", "source_name": "work", "body_text": "what to wear"})
	clock.Advance(time.Hour)
	results, err = analyzer.ProcessFolder(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, 1, results[0].Archived)

	data, err = os.ReadFile(filepath.Join(dir, "pull_20240101_120000.json"))
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &archived))
	assert.Len(t, archived, 3)
	assert.Len(t, sink.posts, 3)
}

func TestProcessFile_CancelledLeavesNoEnrichedFile(t *testing.T) {
	dir := t.TempDir()
	working := filepath.Join(dir, "pull.csv")
	writeWorking(t, working, store.Row{"title": "A", "body_text": "great"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewAnalyzer(keywordScorer).ProcessFile(ctx, working)
	require.ErrorIs(t, err, context.Canceled)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.Equal(t, []string{"pull.csv"}, names)
}

func TestProcessFolder_MissingDirIsFileIOError(t *testing.T) {
	_, err := NewAnalyzer(keywordScorer).ProcessFolder(context.Background(), filepath.Join(t.TempDir(), "absent"))

	var ioErr *store.FileIOError
	assert.True(t, errors.As(err, &ioErr))
}

func TestEnrichedPath(t *testing.T) {
	now := time.Date(2024, 1, 31, 9, 45, 0, 0, time.UTC)
	assert.Equal(t, filepath.Join("data", "pull_with_sentiment_20240131_094500.csv"), EnrichedPath(filepath.Join("data", "pull.csv"), now))
}
