package driver

import (
	"fmt"
	"regexp"
)

// NodeLabel is carried by every loaded node alongside its type label, so edge
// endpoints can be matched through one index.
const NodeLabel = "MockNode"

const (
	CountNodesQuery = `
		MATCH (n:MockNode)
		RETURN count(n) AS count
	`

	CountEdgesQuery = `
		MATCH (:MockNode)-[e]->(:MockNode)
		RETURN count(e) AS count
	`

	DeleteAllQuery = `
		MATCH (n:MockNode)
		DETACH DELETE n
	`
)

var identifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// CheckIdentifier rejects labels and relationship types that cannot be
// interpolated into Cypher unquoted.
func CheckIdentifier(s string) error {
	if !identifier.MatchString(s) {
		return fmt.Errorf("invalid cypher identifier %q", s)
	}
	return nil
}

// MergeNodesQuery upserts a batch of $rows, each {node_id, node_name, props},
// under NodeLabel and label.
func MergeNodesQuery(label string) (string, error) {
	if err := CheckIdentifier(label); err != nil {
		return "", err
	}
	return fmt.Sprintf(`
		UNWIND $rows AS row
		MERGE (n:MockNode {node_id: row.node_id})
		SET n:%s,
			n += row.props,
			n.node_type = %q,
			n.node_name = row.node_name
		RETURN count(n) AS count
	`, label, label), nil
}

// MergeEdgesQuery upserts a batch of $rows, each {edge_id, from, to, props},
// as relationships of type relType.
func MergeEdgesQuery(relType string) (string, error) {
	if err := CheckIdentifier(relType); err != nil {
		return "", err
	}
	return fmt.Sprintf(`
		UNWIND $rows AS row
		MATCH (source:MockNode {node_id: row.from})
		MATCH (target:MockNode {node_id: row.to})
		MERGE (source)-[e:%s {edge_id: row.edge_id}]->(target)
		SET e += row.props
		RETURN count(e) AS count
	`, relType), nil
}

// IndexQueries returns the node_id index DDL for a dialect.
func IndexQueries(dialect Dialect, labels []string) ([]string, error) {
	all := append([]string{NodeLabel}, labels...)
	var out []string
	for _, l := range all {
		if err := CheckIdentifier(l); err != nil {
			return nil, err
		}
		switch dialect {
		case DialectMemgraph:
			out = append(out, fmt.Sprintf("CREATE INDEX ON :%s(node_id);", l))
		case DialectNeo4j:
			out = append(out, fmt.Sprintf("CREATE INDEX %s_node_id IF NOT EXISTS FOR (n:%s) ON (n.node_id)", l, l))
		case DialectNeptune:
			return nil, nil
		default:
			return nil, fmt.Errorf("unknown bolt dialect %q", dialect)
		}
	}
	return out, nil
}
