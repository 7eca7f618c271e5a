package utils

import (
	"path/filepath"
	"strings"
	"time"
)

const VersionLayout = "20060102_150405"

// VersionedPath inserts a _YYYYMMDD_HHMMSS suffix before the extension of path.
//
//	data/pull.csv -> data/pull_20240131_094500.csv
func VersionedPath(path string, now time.Time) string {
	dir, file := filepath.Split(path)
	ext := filepath.Ext(file)
	base := strings.TrimSuffix(file, ext)
	return filepath.Join(dir, base+"_"+now.Format(VersionLayout)+ext)
}

// ReplaceExt swaps the extension of path, e.g. pull.csv -> pull.json.
func ReplaceExt(path, ext string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + ext
}
