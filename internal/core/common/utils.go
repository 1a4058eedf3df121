package common

import (
	"bytes"
	"encoding/json"
	"fmt"
)

const snippetLen = 120

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ParseJSON strips a UTF-8 byte order mark and surrounding whitespace and
// unmarshals data into a T. Files exported from spreadsheet tools often
// carry the BOM.
func ParseJSON[T any](data []byte) (T, error) {
	var zero T

	data = bytes.TrimPrefix(data, utf8BOM)
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return zero, fmt.Errorf("empty JSON document")
	}

	var result T
	if err := json.Unmarshal(data, &result); err != nil {
		return zero, fmt.Errorf("failed to unmarshal JSON: %w\nData: %s", err, snippet(data))
	}

	return result, nil
}

func snippet(data []byte) string {
	if len(data) <= snippetLen {
		return string(data)
	}
	return string(data[:snippetLen]) + "..."
}
