package dataset

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/agenthands/graphmock/internal/core/common"
)

// decodeJSONRecords calls each for every element of a JSON array, or for every
// non-blank line when the document is JSON lines. The two are told apart by
// the first non-space byte, whatever the file extension says.
func decodeJSONRecords(data []byte, each func(line int, raw json.RawMessage)) error {
	trimmed := bytes.TrimLeft(bytes.TrimPrefix(data, []byte("\xEF\xBB\xBF")), " \t\r\n")
	if len(trimmed) == 0 {
		return fmt.Errorf("%w: empty JSON", ErrMalformedInput)
	}
	if trimmed[0] == '[' {
		items, err := common.ParseJSON[[]json.RawMessage](trimmed)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrMalformedInput, err)
		}
		for i, raw := range items {
			each(i+1, raw)
		}
		return nil
	}

	sc := bufio.NewScanner(bytes.NewReader(trimmed))
	sc.Buffer(make([]byte, 0, 1<<16), 1<<26)
	line := 0
	for sc.Scan() {
		line++
		b := bytes.TrimSpace(sc.Bytes())
		if len(b) == 0 {
			continue
		}
		each(line, append(json.RawMessage(nil), b...))
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrMalformedInput, err)
	}
	return nil
}

// csvRows reads a headed CSV and calls each with a column lookup per row.
// Missing required columns are a structural error; unparseable rows are skipped.
func csvRows(data []byte, required []string, stats *Stats, each func(line int, get func(col string) string)) error {
	r := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(data, []byte("\xEF\xBB\xBF"))))
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: empty CSV", ErrMalformedInput)
	}
	if err != nil {
		return fmt.Errorf("%w: header: %w", ErrMalformedInput, err)
	}
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[h] = i
	}
	for _, c := range required {
		if _, ok := cols[c]; !ok {
			return fmt.Errorf("%w: missing column %q", ErrMalformedInput, c)
		}
	}

	for {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			var pe *csv.ParseError
			if !errors.As(err, &pe) {
				return fmt.Errorf("%w: %w", ErrMalformedInput, err)
			}
			stats.skip("line %d: %v", pe.Line, pe.Err)
			continue
		}
		line, _ := r.FieldPos(0)
		if len(row) != len(header) {
			stats.skip("line %d: %d fields, want %d", line, len(row), len(header))
			continue
		}
		each(line, func(col string) string {
			i, ok := cols[col]
			if !ok {
				return ""
			}
			return row[i]
		})
	}
}

// writeRecords encodes records in the requested format.
func writeRecords[T any](w io.Writer, format Format, records []T, header []string, row func(T) ([]string, error)) error {
	switch format {
	case FormatCSV:
		cw := csv.NewWriter(w)
		if err := cw.Write(header); err != nil {
			return err
		}
		for _, rec := range records {
			fields, err := row(rec)
			if err != nil {
				return err
			}
			if err := cw.Write(fields); err != nil {
				return err
			}
		}
		cw.Flush()
		return cw.Error()
	case FormatJSON:
		if records == nil {
			records = []T{}
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(records)
	case FormatJSONL:
		// An empty file is not a valid document; zero records are written as [].
		if len(records) == 0 {
			_, err := io.WriteString(w, "[]\n")
			return err
		}
		enc := json.NewEncoder(w)
		for _, rec := range records {
			if err := enc.Encode(rec); err != nil {
				return err
			}
		}
		return nil
	}
	return fmt.Errorf("dataset: unsupported format %q", format)
}

func writeFile[T any](path string, records []T, header []string, row func(T) ([]string, error)) error {
	format, err := FormatOf(path)
	if err != nil {
		return err
	}
	return WriteFileAtomic(path, func(w io.Writer) error {
		return writeRecords(w, format, records, header, row)
	})
}
