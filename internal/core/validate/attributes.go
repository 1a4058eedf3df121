package validate

import (
	"sort"
	"time"

	"github.com/agenthands/graphmock/internal/core/model"
)

// scalarOf pairs each variant list with the scalar that must equal its primary.
var scalarOf = map[string]string{
	model.PropNameFullList:  model.PropNameFull,
	model.PropBirthDateList: model.PropBirthDate,
	model.PropANumberList:   model.PropANumberPrimary,
}

// ValidateAttributes checks that each record references an existing node
// (of nodeType, when non-empty) and that its variant lists keep the primary
// first without duplicates.
func ValidateAttributes(nodes []model.Node, attrs []model.NodeAttributes, nodeType string) *model.AttributeReport {
	index := make(map[string]string, len(nodes))
	for _, n := range nodes {
		index[n.ID] = n.Type
	}

	r := &model.AttributeReport{NodeType: nodeType, Total: len(attrs)}
	for _, a := range attrs {
		typ, ok := index[a.NodeID]
		switch {
		case !ok:
			r.Missing = append(r.Missing, a.NodeID)
			r.Invalid++
			continue
		case nodeType != "" && typ != nodeType, a.NodeType != "" && a.NodeType != typ:
			r.WrongType = append(r.WrongType, a.NodeID)
			r.Invalid++
			continue
		}

		bad := badProperties(a.Properties)
		if len(bad) > 0 {
			for _, key := range bad {
				r.BadVariants = append(r.BadVariants, a.NodeID+"/"+key)
			}
			r.Invalid++
			continue
		}
		r.Valid++
	}
	return r
}

func badProperties(props model.Properties) []string {
	keys := make([]string, 0, len(props))
	for k := range props {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var bad []string
	for _, key := range keys {
		switch val := props[key].(type) {
		case []model.Variant:
			if !variantsOK(key, val) || !scalarMatches(props, key, val) {
				bad = append(bad, key)
			}
		case []model.NameRecord:
			if len(val) > 0 && val[0].Type != model.TagPrimary {
				bad = append(bad, key)
			}
		case string:
			if model.IsDate(key) && !isDate(val) {
				bad = append(bad, key)
			}
		}
	}
	return bad
}

func variantsOK(key string, vs []model.Variant) bool {
	seen := make(map[string]bool, len(vs))
	for i, v := range vs {
		if (i == 0) != (v.Tag == model.TagPrimary) {
			return false
		}
		if seen[v.Value] {
			return false
		}
		seen[v.Value] = true
		if model.IsDate(key) && !isDate(v.Value) {
			return false
		}
	}
	return true
}

func scalarMatches(props model.Properties, listKey string, vs []model.Variant) bool {
	scalarKey, ok := scalarOf[listKey]
	if !ok {
		return true
	}
	scalar, present := props[scalarKey]
	if len(vs) == 0 {
		return !present || scalar == nil
	}
	s, isString := scalar.(string)
	return isString && s == vs[0].Value
}

func isDate(s string) bool {
	_, err := time.Parse("2006-01-02", s)
	return err == nil
}

// ValidateAttributesByType groups records by their declared node type and
// checks each group.
func ValidateAttributesByType(nodes []model.Node, attrs []model.NodeAttributes) map[string]*model.AttributeReport {
	groups := map[string][]model.NodeAttributes{}
	for _, a := range attrs {
		groups[a.NodeType] = append(groups[a.NodeType], a)
	}
	out := make(map[string]*model.AttributeReport, len(groups))
	for typ, group := range groups {
		out[typ] = ValidateAttributes(nodes, group, typ)
	}
	return out
}
