package sentiment

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"slices"
	"strings"

	"github.com/google/renameio/v2"

	"github.com/spacesedan/postsentiment/internal/models"
	"github.com/spacesedan/postsentiment/internal/store"
)

// Enricher appends sentiment columns to post rows.
type Enricher struct {
	scorer Scorer
}

func NewEnricher(scorer Scorer) *Enricher {
	return &Enricher{scorer: scorer}
}

// Text is what gets scored for a row: the title followed by the body.
func Text(row store.Row) string {
	body := row[models.ColumnBodyText]
	if body == "" {
		return row[models.ColumnTitle]
	}
	return row[models.ColumnTitle] + " " + body
}

// EnrichRow returns a copy of row with the five sentiment columns set.
func (e *Enricher) EnrichRow(row store.Row) store.Row {
	scores := e.scorer.PolarityScores(Text(row))

	out := make(store.Row, len(row)+len(models.SentimentColumns))
	for k, v := range row {
		out[k] = v
	}
	out[models.ColumnNegSentiment] = models.FormatScore(scores.Neg)
	out[models.ColumnNeuSentiment] = models.FormatScore(scores.Neu)
	out[models.ColumnPosSentiment] = models.FormatScore(scores.Pos)
	out[models.ColumnCompoundSentiment] = models.FormatScore(scores.Compound)
	out[models.ColumnOverallSentiment] = string(Label(scores.Compound))
	return out
}

// EnrichTable scores every row of table into a new table.
func (e *Enricher) EnrichTable(table *store.Table) *store.Table {
	out := store.NewTable(EnrichedHeader(table.Columns))
	for _, row := range table.Rows {
		out.Add(e.EnrichRow(row))
	}
	return out
}

// EnrichFile streams inPath into outPath one row at a time. inPath is only
// read; outPath is created and must not already exist.
func (e *Enricher) EnrichFile(ctx context.Context, inPath, outPath string) (int, error) {
	in, err := os.Open(inPath)
	if err != nil {
		return 0, &store.FileIOError{Op: "open", Path: inPath, Err: err}
	}
	defer in.Close()

	reader := store.NewReader(in)
	header, err := reader.Header()
	if errors.Is(err, io.EOF) {
		header = models.PostColumns
	} else if err != nil {
		return 0, &store.FileIOError{Op: "read", Path: inPath, Err: err}
	}

	// Enrichment outputs are never overwritten.
	if _, err := os.Lstat(outPath); err == nil {
		return 0, &store.FileIOError{Op: "create", Path: outPath, Err: fs.ErrExist}
	} else if !errors.Is(err, fs.ErrNotExist) {
		return 0, &store.FileIOError{Op: "stat", Path: outPath, Err: err}
	}

	// Rows stream into a pending file that only takes outPath's name once
	// every row is written; any earlier return discards it.
	out, err := renameio.NewPendingFile(outPath, renameio.WithPermissions(0o644))
	if err != nil {
		return 0, &store.FileIOError{Op: "create", Path: outPath, Err: err}
	}
	defer out.Cleanup()

	writer, err := store.NewWriter(out, EnrichedHeader(header))
	if err != nil {
		return 0, &store.FileIOError{Op: "write", Path: outPath, Err: err}
	}

	n := 0
	for {
		if err := ctx.Err(); err != nil {
			return n, err
		}

		row, err := reader.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return n, &store.FileIOError{Op: "read", Path: inPath, Err: err}
		}

		if err := writer.Write(e.EnrichRow(row)); err != nil {
			return n, &store.FileIOError{Op: "write", Path: outPath, Err: err}
		}
		n++
	}

	if err := writer.Flush(); err != nil {
		return n, &store.FileIOError{Op: "write", Path: outPath, Err: err}
	}
	if err := out.CloseAtomicallyReplace(); err != nil {
		return n, &store.FileIOError{Op: "rename", Path: outPath, Err: err}
	}
	return n, nil
}

// EnrichedHeader appends the sentiment columns missing from header.
func EnrichedHeader(header []string) []string {
	out := slices.Clone(header)
	for _, c := range models.SentimentColumns {
		if !slices.Contains(out, c) {
			out = append(out, c)
		}
	}
	return out
}

// IsEnrichedName reports whether a file name looks like an enrichment output.
func IsEnrichedName(name string) bool {
	return strings.Contains(name, EnrichedSuffix+"_")
}

const EnrichedSuffix = "_with_sentiment"
