package filestore

import (
	"io"
	"path"
	"strings"
)

const (
	PATTERNS_FILE_PREFIX = "closed_patterns"
	STATS_FILE_NAME      = "run_stats.json"
)

// FileManager reads sequence databases and publishes mining results on one
// storage backend. Dirs end with "/".
type FileManager interface {
	Create(dir, fileName string, reader io.ReadSeeker) error
	Get(dir, fileName string) (io.ReadCloser, error)
	GetBucketName() string
	GetRunDir(runID string) string
	GetPatternsFilePathAndName(runID, format string) (string, string)
	GetRunStatsFilePathAndName(runID string) (string, string)
}

// SplitPath turns "a/b/c.txt" into ("a/b/", "c.txt").
func SplitPath(filePath string) (string, string) {
	dir, name := path.Split(filePath)
	return dir, name
}

// RunDir is the directory of one run relative to the storage root.
func RunDir(runID string) string {
	return "runs/" + runID + "/"
}

// PatternsFileName is the result file name for an output format.
func PatternsFileName(format string) string {
	if format == "json" {
		return PATTERNS_FILE_PREFIX + ".json"
	}
	return PATTERNS_FILE_PREFIX + ".txt"
}

// WithTrailingSlash appends "/" to a non-empty dir if missing.
func WithTrailingSlash(dir string) string {
	if dir != "" && !strings.HasSuffix(dir, "/") {
		return dir + "/"
	}
	return dir
}
