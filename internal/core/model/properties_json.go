package model

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// UnmarshalJSON restores variant and name lists to their typed form so that
// attribute files read back from disk compare equal to freshly synthesized ones.
func (p *Properties) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make(Properties, len(raw))
	for key, msg := range raw {
		v, err := decodeProperty(msg)
		if err != nil {
			return fmt.Errorf("property %s: %w", key, err)
		}
		out[key] = v
	}
	*p = out
	return nil
}

func decodeProperty(msg json.RawMessage) (any, error) {
	trimmed := bytes.TrimSpace(msg)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}
	if trimmed[0] != '[' {
		var v any
		err := json.Unmarshal(trimmed, &v)
		return v, err
	}

	var items []json.RawMessage
	if err := json.Unmarshal(trimmed, &items); err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return []Variant{}, nil
	}

	switch first := bytes.TrimSpace(items[0]); {
	case first[0] == '"':
		var values []string
		if err := json.Unmarshal(trimmed, &values); err != nil {
			return nil, err
		}
		vs := make([]Variant, len(values))
		for i, s := range values {
			vs[i] = Variant{Value: s, Tag: TagVariant}
		}
		vs[0].Tag = TagPrimary
		return vs, nil
	case bytes.Contains(first, []byte(`"NAME_FIRST"`)):
		var names []NameRecord
		err := json.Unmarshal(trimmed, &names)
		return names, err
	case bytes.Contains(first, []byte(`"value"`)):
		var vs []Variant
		err := json.Unmarshal(trimmed, &vs)
		return vs, err
	}

	var v any
	err := json.Unmarshal(trimmed, &v)
	return v, err
}
