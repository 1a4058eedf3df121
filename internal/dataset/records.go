package dataset

import (
	"encoding/json"
	"fmt"

	"github.com/agenthands/graphmock/internal/core/model"
)

var (
	nodeHeader      = []string{"node_id", "node_type"}
	attributeHeader = []string{"node_id", "node_type", "node_name", "node_properties"}
	edgeHeader      = []string{"edge_id", "node_id_from", "node_id_to", "edge_type", "edge_properties"}
)

// ReadNodes loads a node list. Rows without an id or type, and repeated ids,
// are skipped and counted.
func ReadNodes(path string) ([]model.Node, Stats, error) {
	var stats Stats
	format, err := FormatOf(path)
	if err != nil {
		return nil, stats, err
	}
	data, err := readFile(path)
	if err != nil {
		return nil, stats, err
	}

	var nodes []model.Node
	seen := map[string]bool{}
	add := func(line int, n model.Node) {
		switch {
		case n.ID == "" || n.Type == "":
			stats.skip("line %d: node_id and node_type are required", line)
		case seen[n.ID]:
			stats.skip("line %d: duplicate node_id %s", line, n.ID)
		default:
			seen[n.ID] = true
			nodes = append(nodes, n)
			stats.Read++
		}
	}

	if format == FormatCSV {
		err = csvRows(data, nodeHeader, &stats, func(line int, get func(string) string) {
			add(line, model.Node{ID: get("node_id"), Type: get("node_type")})
		})
	} else {
		err = decodeJSONRecords(data, func(line int, raw json.RawMessage) {
			var n model.Node
			if err := json.Unmarshal(raw, &n); err != nil {
				stats.skip("record %d: %v", line, err)
				return
			}
			add(line, n)
		})
	}
	if err != nil {
		return nil, stats, fmt.Errorf("%s: %w", path, err)
	}
	return nodes, stats, nil
}

func WriteNodes(path string, nodes []model.Node) error {
	return writeFile(path, nodes, nodeHeader, func(n model.Node) ([]string, error) {
		return []string{n.ID, n.Type}, nil
	})
}

// ReadAttributes loads attribute records. In CSV, node_properties holds a
// JSON object.
func ReadAttributes(path string) ([]model.NodeAttributes, Stats, error) {
	var stats Stats
	format, err := FormatOf(path)
	if err != nil {
		return nil, stats, err
	}
	data, err := readFile(path)
	if err != nil {
		return nil, stats, err
	}

	var attrs []model.NodeAttributes
	add := func(line int, a model.NodeAttributes) {
		if a.NodeID == "" {
			stats.skip("line %d: node_id is required", line)
			return
		}
		attrs = append(attrs, a)
		stats.Read++
	}

	if format == FormatCSV {
		err = csvRows(data, []string{"node_id", "node_properties"}, &stats, func(line int, get func(string) string) {
			a := model.NodeAttributes{NodeID: get("node_id"), NodeType: get("node_type"), NodeName: get("node_name")}
			if raw := get("node_properties"); raw != "" {
				if err := json.Unmarshal([]byte(raw), &a.Properties); err != nil {
					stats.skip("line %d: node_properties: %v", line, err)
					return
				}
			}
			add(line, a)
		})
	} else {
		err = decodeJSONRecords(data, func(line int, raw json.RawMessage) {
			var a model.NodeAttributes
			if err := json.Unmarshal(raw, &a); err != nil {
				stats.skip("record %d: %v", line, err)
				return
			}
			add(line, a)
		})
	}
	if err != nil {
		return nil, stats, fmt.Errorf("%s: %w", path, err)
	}
	return attrs, stats, nil
}

func WriteAttributes(path string, attrs []model.NodeAttributes) error {
	return writeFile(path, attrs, attributeHeader, func(a model.NodeAttributes) ([]string, error) {
		props, err := json.Marshal(a.Properties)
		if err != nil {
			return nil, fmt.Errorf("node %s: %w", a.NodeID, err)
		}
		return []string{a.NodeID, a.NodeType, a.NodeName, string(props)}, nil
	})
}

// ReadEdges loads an edge list. JSON input may be an array or JSON lines.
func ReadEdges(path string) ([]model.Edge, Stats, error) {
	var stats Stats
	format, err := FormatOf(path)
	if err != nil {
		return nil, stats, err
	}
	data, err := readFile(path)
	if err != nil {
		return nil, stats, err
	}

	var out []model.Edge
	add := func(line int, e model.Edge) {
		if e.From == "" || e.To == "" || e.Type == "" {
			stats.skip("line %d: node_id_from, node_id_to and edge_type are required", line)
			return
		}
		out = append(out, e)
		stats.Read++
	}

	if format == FormatCSV {
		err = csvRows(data, edgeHeader[:4], &stats, func(line int, get func(string) string) {
			e := model.Edge{ID: get("edge_id"), From: get("node_id_from"), To: get("node_id_to"), Type: get("edge_type")}
			if raw := get("edge_properties"); raw != "" {
				if err := json.Unmarshal([]byte(raw), &e.Properties); err != nil {
					stats.skip("line %d: edge_properties: %v", line, err)
					return
				}
			}
			add(line, e)
		})
	} else {
		err = decodeJSONRecords(data, func(line int, raw json.RawMessage) {
			var e model.Edge
			if err := json.Unmarshal(raw, &e); err != nil {
				stats.skip("record %d: %v", line, err)
				return
			}
			add(line, e)
		})
	}
	if err != nil {
		return nil, stats, fmt.Errorf("%s: %w", path, err)
	}
	return out, stats, nil
}

func WriteEdges(path string, edgeList []model.Edge) error {
	return writeFile(path, edgeList, edgeHeader, func(e model.Edge) ([]string, error) {
		props := ""
		if len(e.Properties) > 0 {
			b, err := json.Marshal(e.Properties)
			if err != nil {
				return nil, fmt.Errorf("edge %s: %w", e.ID, err)
			}
			props = string(b)
		}
		return []string{e.ID, e.From, e.To, e.Type, props}, nil
	})
}
