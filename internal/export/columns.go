package export

import (
	"fmt"
	"sort"
	"strings"

	"github.com/agenthands/graphmock/internal/core/model"
)

// ListSeparator joins flattened variant lists in bulk-load CSV cells.
const ListSeparator = ";"

// column is one typed property column of a bulk-load CSV.
type column struct {
	key    string
	header string
}

// typeSuffix picks the bulk-load type for a property across all records.
func typeSuffix(key string, list bool) string {
	t := "String"
	if model.IsDate(key) {
		t = "Date"
	}
	if list {
		t += "[]"
	}
	return t
}

// propertyColumns returns the union of property keys over attrs in sorted
// order, with headers rendered by name.
func propertyColumns(attrs []model.NodeAttributes, name func(key string) string) []column {
	list := map[string]bool{}
	for _, a := range attrs {
		for k, v := range a.Properties {
			switch v.(type) {
			case []model.Variant, []model.NameRecord:
				list[k] = true
			default:
				if _, ok := list[k]; !ok {
					list[k] = false
				}
			}
		}
	}
	keys := make([]string, 0, len(list))
	for k := range list {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	cols := make([]column, len(keys))
	for i, k := range keys {
		cols[i] = column{key: k, header: name(k) + ":" + typeSuffix(k, list[k])}
	}
	return cols
}

// Flatten renders a property value as a single CSV cell.
func Flatten(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case []model.Variant:
		return strings.Join(model.Values(val), ListSeparator)
	case []model.NameRecord:
		parts := make([]string, len(val))
		for i, n := range val {
			parts[i] = strings.TrimSpace(n.First + " " + n.Last)
		}
		return strings.Join(parts, ListSeparator)
	case []string:
		return strings.Join(val, ListSeparator)
	}
	return fmt.Sprint(v)
}

// edgeColumns is the sorted union of edge property keys.
func edgeColumns(edgeList []model.Edge) []string {
	seen := map[string]bool{}
	for _, e := range edgeList {
		for k := range e.Properties {
			seen[k] = true
		}
	}
	keys := make([]string, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
