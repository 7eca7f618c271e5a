package store

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"

	"github.com/google/renameio/v2"
)

// Append writes rows to path. A new file gets the header first; an existing
// file is extended without repeating it. Not safe for concurrent writers.
func Append(rows []Row, columns []string, path string) error {
	exists, err := fileExists(path)
	if err != nil {
		return &FileIOError{Op: "stat", Path: path, Err: err}
	}

	if !exists {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return &FileIOError{Op: "mkdir", Path: path, Err: err}
		}
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return &FileIOError{Op: "open", Path: path, Err: err}
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if !exists {
		if err := w.Write(columns); err != nil {
			return &FileIOError{Op: "write", Path: path, Err: err}
		}
	}
	for _, row := range rows {
		if err := w.Write(record(row, columns)); err != nil {
			return &FileIOError{Op: "write", Path: path, Err: err}
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return &FileIOError{Op: "write", Path: path, Err: err}
	}

	return f.Close()
}

// Read loads path into a table. A missing file yields an empty table with the
// given columns; an existing file uses its own header.
func Read(path string, columns []string) (*Table, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return NewTable(columns), nil
	}
	if err != nil {
		return nil, &FileIOError{Op: "open", Path: path, Err: err}
	}
	defer f.Close()

	r := NewReader(f)
	header, err := r.Header()
	if errors.Is(err, io.EOF) {
		return NewTable(columns), nil
	}
	if err != nil {
		return nil, &FileIOError{Op: "read", Path: path, Err: err}
	}

	table := NewTable(header)
	for {
		row, err := r.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, &FileIOError{Op: "read", Path: path, Err: err}
		}
		table.Add(row)
	}

	return table, nil
}

// Overwrite replaces path with the full contents of table. The CSV is
// rendered in memory and swapped in with a rename, so a reader sees either
// the old file or the new one.
func Overwrite(table *Table, path string) error {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(table.Columns); err != nil {
		return &FileIOError{Op: "encode", Path: path, Err: err}
	}
	for i := range table.Rows {
		if err := w.Write(table.Record(i)); err != nil {
			return &FileIOError{Op: "encode", Path: path, Err: err}
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return &FileIOError{Op: "encode", Path: path, Err: err}
	}

	return WriteFileAtomic(path, buf.Bytes())
}

// WriteFileAtomic replaces path with data through a temporary file in the
// same directory, so readers see either the old or the new content.
func WriteFileAtomic(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return &FileIOError{Op: "mkdir", Path: path, Err: err}
	}
	if err := renameio.WriteFile(path, data, 0o644); err != nil {
		return &FileIOError{Op: "write", Path: path, Err: err}
	}
	return nil
}

// Reader streams rows of a CSV file one at a time.
type Reader struct {
	r      *csv.Reader
	header []string
}

func NewReader(r io.Reader) *Reader {
	cr := csv.NewReader(r)
	cr.ReuseRecord = false
	return &Reader{r: cr}
}

// Header reads and returns the header row. io.EOF means the input is empty.
func (r *Reader) Header() ([]string, error) {
	if r.header != nil {
		return r.header, nil
	}
	header, err := r.r.Read()
	if err != nil {
		return nil, err
	}
	r.header = slices.Clone(header)
	return r.header, nil
}

// Next returns the next row keyed by header column, or io.EOF.
func (r *Reader) Next() (Row, error) {
	if _, err := r.Header(); err != nil {
		return nil, err
	}
	rec, err := r.r.Read()
	if err != nil {
		return nil, err
	}
	if len(rec) != len(r.header) {
		return nil, fmt.Errorf("row has %d fields, header has %d", len(rec), len(r.header))
	}
	row := make(Row, len(rec))
	for i, c := range r.header {
		row[c] = rec[i]
	}
	return row, nil
}

// Writer streams rows in a fixed column order.
type Writer struct {
	w       *csv.Writer
	columns []string
}

// NewWriter writes the header immediately.
func NewWriter(w io.Writer, columns []string) (*Writer, error) {
	cw := csv.NewWriter(w)
	if err := cw.Write(columns); err != nil {
		return nil, err
	}
	return &Writer{w: cw, columns: slices.Clone(columns)}, nil
}

func (w *Writer) Write(row Row) error {
	return w.w.Write(record(row, w.columns))
}

func (w *Writer) Flush() error {
	w.w.Flush()
	return w.w.Error()
}

func fileExists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, err
}
