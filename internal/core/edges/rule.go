package edges

import (
	"errors"
	"fmt"
	"strings"

	"github.com/agenthands/graphmock/internal/core/model"
)

var (
	ErrInvalidRule = errors.New("edges: invalid rule")
	ErrEmptyPool   = errors.New("edges: required target pool is empty")
)

// Rule describes how sources of one type link to targets of another.
type Rule struct {
	SourceType string `toml:"source_type" json:"source_type"`
	TargetType string `toml:"target_type" json:"target_type"`
	// EdgeType defaults to "<source>_<target>".
	EdgeType string `toml:"edge_type" json:"edge_type"`
	// PropertyKey is the edge property carrying the sub-type tag.
	PropertyKey  string `toml:"property_key" json:"property_key"`
	MinPerSource int    `toml:"min_per_source" json:"min_per_source"`
	MaxPerSource int    `toml:"max_per_source" json:"max_per_source"`
	// UsageCap is the most sources a single target may be linked to; 0 is unlimited.
	UsageCap      int      `toml:"usage_cap" json:"usage_cap"`
	PrimaryTag    string   `toml:"primary_tag" json:"primary_tag"`
	SecondaryTags []string `toml:"secondary_tags" json:"secondary_tags"`
	// Required turns an empty target pool into a configuration error.
	Required bool `toml:"required" json:"required"`
}

func (r Rule) normalized() Rule {
	if r.EdgeType == "" {
		r.EdgeType = model.EdgeType(r.SourceType, r.TargetType)
	}
	if r.PrimaryTag == "" {
		r.PrimaryTag = model.TagPrimary
	}
	return r
}

func (r Rule) Validate() error {
	r = r.normalized()
	switch {
	case r.SourceType == "" || r.TargetType == "":
		return fmt.Errorf("%w: source and target types are required", ErrInvalidRule)
	case r.MinPerSource < 1:
		return fmt.Errorf("%w %s: min_per_source %d < 1", ErrInvalidRule, r.EdgeType, r.MinPerSource)
	case r.MaxPerSource < r.MinPerSource:
		return fmt.Errorf("%w %s: max_per_source %d < min_per_source %d", ErrInvalidRule, r.EdgeType, r.MaxPerSource, r.MinPerSource)
	case strings.Contains(r.EdgeType, "/"):
		return fmt.Errorf("%w %s: edge_type may not contain '/'", ErrInvalidRule, r.EdgeType)
	case r.UsageCap < 0:
		return fmt.Errorf("%w %s: negative usage_cap", ErrInvalidRule, r.EdgeType)
	case r.MaxPerSource > 1 && len(r.SecondaryTags) == 0:
		return fmt.Errorf("%w %s: secondary_tags required when max_per_source > 1", ErrInvalidRule, r.EdgeType)
	}
	for _, t := range r.SecondaryTags {
		if t == "" || t == r.PrimaryTag {
			return fmt.Errorf("%w %s: bad secondary tag %q", ErrInvalidRule, r.EdgeType, t)
		}
	}
	return nil
}

// ValidateRules checks every rule and rejects duplicate edge types.
func ValidateRules(rules []Rule) error {
	seen := make(map[string]bool, len(rules))
	for _, r := range rules {
		if err := r.Validate(); err != nil {
			return err
		}
		et := r.normalized().EdgeType
		if seen[et] {
			return fmt.Errorf("%w: duplicate edge type %s", ErrInvalidRule, et)
		}
		seen[et] = true
	}
	return nil
}

// DefaultRules links persons to their identity attributes and forms to receipts.
func DefaultRules() []Rule {
	return []Rule{
		{
			SourceType: model.TypePerson, TargetType: model.TypeName,
			PropertyKey: model.PropNameType, MinPerSource: 1, MaxPerSource: 3,
			SecondaryTags: []string{model.TagOther, model.TagAlias},
		},
		{
			SourceType: model.TypePerson, TargetType: model.TypeAddress,
			PropertyKey: model.PropAddressType, MinPerSource: 1, MaxPerSource: 3, UsageCap: 3,
			SecondaryTags: []string{model.TagSecondary, model.TagTertiary},
		},
		{
			SourceType: model.TypePerson, TargetType: model.TypeForm,
			PropertyKey: "FORM_ROLE", MinPerSource: 1, MaxPerSource: 3,
			SecondaryTags: []string{model.TagSecondary},
		},
		{
			SourceType: model.TypePerson, TargetType: model.TypePhone,
			PropertyKey: "PHONE_TYPE", MinPerSource: 1, MaxPerSource: 2, UsageCap: 2,
			SecondaryTags: []string{model.TagAlternate},
		},
		{
			SourceType: model.TypePerson, TargetType: model.TypeEmail,
			PropertyKey: "EMAIL_TYPE", MinPerSource: 1, MaxPerSource: 2, UsageCap: 2,
			SecondaryTags: []string{model.TagAlternate},
		},
		{
			SourceType: model.TypePerson, TargetType: model.TypeANumber,
			PropertyKey: "ANUMBER_TYPE", MinPerSource: 1, MaxPerSource: 2, UsageCap: 1,
			SecondaryTags: []string{model.TagAlternate},
		},
		{
			SourceType: model.TypeForm, TargetType: model.TypeReceipt,
			PropertyKey: "RECEIPT_TYPE", MinPerSource: 1, MaxPerSource: 1, UsageCap: 1,
		},
	}
}
