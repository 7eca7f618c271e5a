// Package export mirrors enrichment results into an accumulating JSON archive.
//
// The archive is a single JSON array holding each post once. Every export
// reads the whole array, appends the records it does not hold yet and writes
// the whole array back, so the cost of a
// run grows linearly with the archive. Past WarnArchiveRecords a warning is
// logged; rotate the archive (a new base name) when it fires.
package export

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/spacesedan/postsentiment/internal/store"
)

const WarnArchiveRecords = 100_000

// Keyed records carry a stable identity used to recognise them in the archive.
type Keyed interface {
	ContentID() string
}

// JSON merges records into the array stored at path and rewrites it. Existing
// entries are kept as they are; a record whose ContentID is already archived
// is skipped. It returns the records that were added and the archive length
// after the merge.
func JSON[T Keyed](records []T, path string) ([]T, int, error) {
	existing, err := readArchive(path)
	if err != nil {
		return nil, 0, err
	}

	archived := make(map[string]struct{}, len(existing)+len(records))
	for _, raw := range existing {
		var r T
		if err := json.Unmarshal(raw, &r); err != nil {
			continue
		}
		archived[r.ContentID()] = struct{}{}
	}

	merged := make([]json.RawMessage, 0, len(existing)+len(records))
	merged = append(merged, existing...)
	var added []T
	for _, r := range records {
		id := r.ContentID()
		if _, ok := archived[id]; ok {
			continue
		}
		archived[id] = struct{}{}

		raw, err := marshal(r)
		if err != nil {
			return nil, 0, &store.FileIOError{Op: "encode", Path: path, Err: err}
		}
		merged = append(merged, raw)
		added = append(added, r)
	}

	if skipped := len(records) - len(added); skipped > 0 {
		slog.Info("[Export] Skipped records already in the JSON archive",
			slog.String("path", path),
			slog.Int("skipped", skipped))
	}
	if len(added) == 0 && len(existing) > 0 {
		return nil, len(existing), nil
	}

	if len(merged) > WarnArchiveRecords {
		slog.Warn("[Export] JSON archive is large, every run rewrites it in full",
			slog.String("path", path),
			slog.Int("records", len(merged)))
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(merged); err != nil {
		return nil, 0, &store.FileIOError{Op: "encode", Path: path, Err: err}
	}

	if err := store.WriteFileAtomic(path, buf.Bytes()); err != nil {
		return nil, 0, err
	}
	return added, len(merged), nil
}

func readArchive(path string) ([]json.RawMessage, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, &store.FileIOError{Op: "read", Path: path, Err: err}
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}

	var existing []json.RawMessage
	if err := json.Unmarshal(data, &existing); err != nil {
		return nil, &store.FileIOError{Op: "decode", Path: path, Err: fmt.Errorf("archive is not a JSON array: %w", err)}
	}
	return existing, nil
}

func marshal(v any) (json.RawMessage, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
