// Package validate checks generated edges and attribute records against the
// node set they claim to reference.
package validate

import (
	"fmt"
	"sort"

	"github.com/agenthands/graphmock/internal/core/community"
	"github.com/agenthands/graphmock/internal/core/edges"
	"github.com/agenthands/graphmock/internal/core/model"
)

// Validator is read-only: it never mutates its inputs and returns a fresh
// report on every call.
type Validator struct {
	rules    map[string]edges.Rule
	scope    edges.UsageScope
	detector community.ClusterDetector
}

// New builds a validator from the same rules that drove generation. Edge
// types without a rule get existence checks only.
func New(rules []edges.Rule, scope edges.UsageScope) *Validator {
	v := &Validator{
		rules:    make(map[string]edges.Rule, len(rules)),
		scope:    scope,
		detector: community.NewSimpleDetector(),
	}
	if v.scope == "" {
		v.scope = edges.ScopeRun
	}
	for _, r := range rules {
		if r.EdgeType == "" {
			r.EdgeType = model.EdgeType(r.SourceType, r.TargetType)
		}
		if r.PrimaryTag == "" {
			r.PrimaryTag = model.TagPrimary
		}
		v.rules[r.EdgeType] = r
	}
	return v
}

// orderedSet keeps first-seen order so report samples follow input order.
type orderedSet struct {
	seen  map[string]bool
	items []string
}

func (s *orderedSet) add(id string) {
	if s.seen == nil {
		s.seen = map[string]bool{}
	}
	if s.seen[id] {
		return
	}
	s.seen[id] = true
	s.items = append(s.items, id)
}

func (s *orderedSet) list() []string {
	if s.items == nil {
		return []string{}
	}
	return s.items
}

func (v *Validator) Validate(nodes []model.Node, edgeList []model.Edge) *model.ValidationReport {
	index := make(map[string]string, len(nodes))
	for _, n := range nodes {
		index[n.ID] = n.Type
	}

	r := &model.ValidationReport{
		Total:          len(edgeList),
		EdgeTypes:      map[string]model.EdgeTypeStats{},
		NodeTypes:      map[string]model.TypeUsage{},
		EdgesPerSource: map[int]int{},
		EdgesPerTarget: map[int]int{},
	}

	var missingFrom, missingTo, primaryBad, capBad orderedSet
	unchecked := map[string]bool{}
	pairs := make(map[[2]string]bool, len(edgeList))
	used := map[string]bool{}
	perSource := map[string]int{}
	perTarget := map[string]int{}
	usage := map[[2]string]int{}
	valid := make([]model.Edge, 0, len(edgeList))

	type group struct {
		source    string
		edgeType  string
		first     string
		primaries int
	}
	groups := map[[2]string]*group{}
	var groupOrder [][2]string

	for _, e := range edgeList {
		rule, hasRule := v.rules[e.Type]
		if !hasRule {
			unchecked[e.Type] = true
		}

		fromType, fromOK := index[e.From]
		toType, toOK := index[e.To]
		if hasRule {
			fromOK = fromOK && fromType == rule.SourceType
			toOK = toOK && toType == rule.TargetType
		}
		if !fromOK {
			missingFrom.add(e.From)
		}
		if !toOK {
			missingTo.add(e.To)
		}

		stats := r.EdgeTypes[e.Type]
		stats.Total++
		if fromOK && toOK {
			stats.Valid++
			r.Valid++
			used[e.From] = true
			used[e.To] = true
			perSource[e.From]++
			perTarget[e.To]++
			valid = append(valid, e)
		} else {
			stats.Invalid++
			r.Invalid++
		}
		r.EdgeTypes[e.Type] = stats

		pair := [2]string{e.From, e.To}
		if pairs[pair] {
			r.DuplicatePairs++
		}
		pairs[pair] = true

		if !hasRule {
			continue
		}
		if rule.PropertyKey != "" {
			key := [2]string{e.From, e.Type}
			tag := e.Properties[rule.PropertyKey]
			g, ok := groups[key]
			if !ok {
				g = &group{source: e.From, edgeType: e.Type, first: tag}
				groups[key] = g
				groupOrder = append(groupOrder, key)
			}
			if tag == rule.PrimaryTag {
				g.primaries++
			}
		}
		usage[v.usageKey(e.Type, e.To)]++
	}

	for _, key := range groupOrder {
		g := groups[key]
		if g.primaries != 1 || g.first != v.rules[g.edgeType].PrimaryTag {
			primaryBad.add(g.source + "/" + g.edgeType)
		}
	}

	for _, e := range edgeList {
		rule, ok := v.rules[e.Type]
		if !ok || rule.UsageCap == 0 {
			continue
		}
		if usage[v.usageKey(e.Type, e.To)] > rule.UsageCap {
			capBad.add(e.To)
		}
	}

	sourceTypes, targetTypes := map[string]bool{}, map[string]bool{}
	for _, rule := range v.rules {
		sourceTypes[rule.SourceType] = true
		targetTypes[rule.TargetType] = true
	}
	for _, n := range nodes {
		u := r.NodeTypes[n.Type]
		u.Total++
		if used[n.ID] {
			u.Used++
		}
		r.NodeTypes[n.Type] = u

		if sourceTypes[n.Type] && perSource[n.ID] == 0 {
			r.EdgesPerSource[0]++
		}
		if targetTypes[n.Type] && perTarget[n.ID] == 0 {
			r.EdgesPerTarget[0]++
		}
	}
	for _, c := range perSource {
		r.EdgesPerSource[c]++
	}
	for _, c := range perTarget {
		r.EdgesPerTarget[c]++
	}

	r.MissingFrom = missingFrom.list()
	r.MissingTo = missingTo.list()
	r.PrimaryViolations = primaryBad.items
	r.CapViolations = capBad.items
	for et := range unchecked {
		r.UncheckedEdgeTypes = append(r.UncheckedEdgeTypes, et)
	}
	sort.Strings(r.UncheckedEdgeTypes)

	r.Clusters = community.Stats(v.detector.Detect(nodes, valid))
	return r
}

func (v *Validator) usageKey(edgeType, targetID string) [2]string {
	if v.scope == edges.ScopeRule {
		return [2]string{edgeType, targetID}
	}
	return [2]string{"", targetID}
}

// PairStats sums the edge tallies of every rule linking sourceType to targetType.
func (v *Validator) PairStats(r *model.ValidationReport, sourceType, targetType string) (model.EdgeTypeStats, error) {
	var out model.EdgeTypeStats
	found := false
	for et, rule := range v.rules {
		if rule.SourceType != sourceType || rule.TargetType != targetType {
			continue
		}
		found = true
		s := r.EdgeTypes[et]
		out.Total += s.Total
		out.Valid += s.Valid
		out.Invalid += s.Invalid
	}
	if !found {
		return out, fmt.Errorf("validate: no rule for %s -> %s", sourceType, targetType)
	}
	return out, nil
}
