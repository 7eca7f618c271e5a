package store

import "fmt"

// FileIOError is fatal for a run: the target path could not be read or written.
type FileIOError struct {
	Op   string
	Path string
	Err  error
}

func (e *FileIOError) Error() string {
	return fmt.Sprintf("[Store] %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *FileIOError) Unwrap() error { return e.Err }
