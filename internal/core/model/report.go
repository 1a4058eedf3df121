package model

import (
	"fmt"
	"sort"
	"strings"
)

// SampleSize is how many offending ids a printed report lists.
const SampleSize = 5

type EdgeTypeStats struct {
	Total   int `json:"total"`
	Valid   int `json:"valid"`
	Invalid int `json:"invalid"`
}

// TypeUsage counts the nodes of a type and how many appear in at least one valid edge.
type TypeUsage struct {
	Total int `json:"total"`
	Used  int `json:"used"`
}

type ClusterStats struct {
	Count   int `json:"count"`
	Largest int `json:"largest"`
}

type ValidationReport struct {
	Total   int `json:"total"`
	Valid   int `json:"valid"`
	Invalid int `json:"invalid"`

	MissingFrom []string `json:"missing_from"`
	MissingTo   []string `json:"missing_to"`

	EdgeTypes          map[string]EdgeTypeStats `json:"edge_types"`
	NodeTypes          map[string]TypeUsage     `json:"node_types"`
	UncheckedEdgeTypes []string                 `json:"unchecked_edge_types,omitempty"`

	DuplicatePairs    int      `json:"duplicate_pairs"`
	PrimaryViolations []string `json:"primary_violations,omitempty"` // "<source_id>/<edge_type>"
	CapViolations     []string `json:"cap_violations,omitempty"`     // target ids over their usage cap

	EdgesPerSource map[int]int  `json:"edges_per_source"` // edge count -> number of sources
	EdgesPerTarget map[int]int  `json:"edges_per_target"` // edge count -> number of targets
	Clusters       ClusterStats `json:"clusters"`
}

// OK reports a clean run: every edge valid and no structural violations.
func (r *ValidationReport) OK() bool {
	return r.Invalid == 0 && r.DuplicatePairs == 0 &&
		len(r.PrimaryViolations) == 0 && len(r.CapViolations) == 0
}

// Sample returns at most n leading ids.
func Sample(ids []string, n int) []string {
	if len(ids) <= n {
		return ids
	}
	return ids[:n]
}

func (r *ValidationReport) String() string {
	var b strings.Builder

	fmt.Fprintf(&b, "Referential integrity: %d edges, %d valid, %d invalid\n", r.Total, r.Valid, r.Invalid)
	if len(r.MissingFrom) > 0 {
		fmt.Fprintf(&b, "  missing or mistyped source nodes: %d, sample %v\n", len(r.MissingFrom), Sample(r.MissingFrom, SampleSize))
	}
	if len(r.MissingTo) > 0 {
		fmt.Fprintf(&b, "  missing or mistyped target nodes: %d, sample %v\n", len(r.MissingTo), Sample(r.MissingTo, SampleSize))
	}
	if r.DuplicatePairs > 0 {
		fmt.Fprintf(&b, "  duplicate (from,to) pairs: %d\n", r.DuplicatePairs)
	}
	if len(r.PrimaryViolations) > 0 {
		fmt.Fprintf(&b, "  primary tag violations: %d, sample %v\n", len(r.PrimaryViolations), Sample(r.PrimaryViolations, SampleSize))
	}
	if len(r.CapViolations) > 0 {
		fmt.Fprintf(&b, "  usage cap violations: %d, sample %v\n", len(r.CapViolations), Sample(r.CapViolations, SampleSize))
	}
	if len(r.UncheckedEdgeTypes) > 0 {
		fmt.Fprintf(&b, "  edge types without a rule (existence only): %v\n", r.UncheckedEdgeTypes)
	}

	b.WriteString("Edge types:\n")
	for _, k := range sortedKeys(r.EdgeTypes) {
		s := r.EdgeTypes[k]
		fmt.Fprintf(&b, "  %s: %d total, %d valid, %d invalid\n", k, s.Total, s.Valid, s.Invalid)
	}
	b.WriteString("Node types:\n")
	for _, k := range sortedKeys(r.NodeTypes) {
		s := r.NodeTypes[k]
		fmt.Fprintf(&b, "  %s: %d total, %d used in valid edges\n", k, s.Total, s.Used)
	}
	writeDistribution(&b, "Edges per source", r.EdgesPerSource)
	writeDistribution(&b, "Edges per target", r.EdgesPerTarget)
	fmt.Fprintf(&b, "Clusters: %d, largest %d nodes\n", r.Clusters.Count, r.Clusters.Largest)

	return b.String()
}

func writeDistribution(b *strings.Builder, title string, dist map[int]int) {
	if len(dist) == 0 {
		return
	}
	counts := make([]int, 0, len(dist))
	for c := range dist {
		counts = append(counts, c)
	}
	sort.Ints(counts)
	fmt.Fprintf(b, "%s:\n", title)
	for _, c := range counts {
		fmt.Fprintf(b, "  %d edges: %d\n", c, dist[c])
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// AttributeReport is the result of checking attribute records against the node set.
type AttributeReport struct {
	NodeType  string   `json:"node_type"`
	Total     int      `json:"total"`
	Valid     int      `json:"valid"`
	Invalid   int      `json:"invalid"`
	Missing   []string `json:"missing,omitempty"`
	WrongType []string `json:"wrong_type,omitempty"`
	// BadVariants lists "<node_id>/<property>" where a variant list lost its
	// primary-first shape or carries duplicates.
	BadVariants []string `json:"bad_variants,omitempty"`
}
