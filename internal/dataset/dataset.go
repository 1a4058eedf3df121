// Package dataset reads and writes node, attribute and edge files as CSV,
// JSON arrays or JSON lines, picked by file extension.
package dataset

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrMalformedInput marks a file whose overall structure is unreadable. Bad
// individual records are skipped and counted instead.
var ErrMalformedInput = errors.New("dataset: malformed input")

type Format string

const (
	FormatCSV   Format = "csv"
	FormatJSON  Format = "json"
	FormatJSONL Format = "jsonl"
)

// FormatOf infers the format from a path's extension.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return FormatCSV, nil
	case ".json":
		return FormatJSON, nil
	case ".jsonl", ".ndjson":
		return FormatJSONL, nil
	}
	return "", fmt.Errorf("%w: unknown file extension for %s", ErrMalformedInput, path)
}

// Stats tallies the records read and the per-record problems skipped.
type Stats struct {
	Read    int      `json:"read"`
	Skipped int      `json:"skipped"`
	Reasons []string `json:"reasons,omitempty"`
}

// maxReasons bounds how many skip reasons are kept for reporting.
const maxReasons = 20

func (s *Stats) skip(format string, args ...any) {
	s.Skipped++
	if len(s.Reasons) < maxReasons {
		s.Reasons = append(s.Reasons, fmt.Sprintf(format, args...))
	}
}

func readFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}
