package export

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/agenthands/graphmock/internal/core/model"
)

// JSONArraySink streams edges into a JSON array file batch by batch. The
// file appears at its final path only after Close.
type JSONArraySink struct {
	path  string
	tmp   *os.File
	w     *bufio.Writer
	count int
}

func NewJSONArraySink(path string) (*JSONArraySink, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("export: create dir: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return nil, fmt.Errorf("export: create %s: %w", path, err)
	}
	s := &JSONArraySink{path: path, tmp: tmp, w: bufio.NewWriterSize(tmp, 1<<16)}
	if _, err := s.w.WriteString("["); err != nil {
		s.Abort()
		return nil, err
	}
	return s, nil
}

func (s *JSONArraySink) WriteEdges(batch []model.Edge) error {
	for _, e := range batch {
		b, err := json.Marshal(e)
		if err != nil {
			return fmt.Errorf("export: edge %s: %w", e.ID, err)
		}
		sep := ",\n  "
		if s.count == 0 {
			sep = "\n  "
		}
		if _, err := s.w.WriteString(sep); err != nil {
			return err
		}
		if _, err := s.w.Write(b); err != nil {
			return err
		}
		s.count++
	}
	return nil
}

// Count is the number of edges written so far.
func (s *JSONArraySink) Count() int { return s.count }

func (s *JSONArraySink) Path() string { return s.path }

// Close terminates the array and renames the file into place.
func (s *JSONArraySink) Close() error {
	tail := "\n]\n"
	if s.count == 0 {
		tail = "]\n"
	}
	if _, err := s.w.WriteString(tail); err != nil {
		s.Abort()
		return err
	}
	if err := s.w.Flush(); err != nil {
		s.Abort()
		return err
	}
	if err := s.tmp.Close(); err != nil {
		os.Remove(s.tmp.Name())
		return err
	}
	return os.Rename(s.tmp.Name(), s.path)
}

// Abort discards everything written.
func (s *JSONArraySink) Abort() {
	s.tmp.Close()
	os.Remove(s.tmp.Name())
}
