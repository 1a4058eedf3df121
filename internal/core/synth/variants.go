package synth

import (
	"strings"
	"time"

	"github.com/agenthands/graphmock/internal/core/common"
	"github.com/agenthands/graphmock/internal/core/model"
)

// nameCandidate is a display form together with the name parts it came from.
type nameCandidate struct {
	display string
	first   string
	last    string
	tag     string
}

func initial(s string) string {
	r := []rune(s)
	if len(r) == 0 {
		return ""
	}
	return string(r[0]) + "."
}

// permutations lists the deterministic rewrites of a primary name.
func permutations(first, last string) []nameCandidate {
	if first == "" || last == "" {
		return nil
	}
	fi, li := initial(first), initial(last)
	return []nameCandidate{
		{display: last + ", " + first, first: first, last: last},
		{display: fi + " " + last, first: fi, last: last},
		{display: last + ", " + fi, first: fi, last: last},
		{display: first + " " + li, first: first, last: li},
		{display: li + " " + first, first: first, last: li},
	}
}

// nameVariants returns the primary "FIRST LAST" followed by distinct extra
// forms chosen per the configured policy.
func (s *Synthesizer) nameVariants(first, last string) []nameCandidate {
	first = strings.ToUpper(strings.TrimSpace(first))
	last = strings.ToUpper(strings.TrimSpace(last))

	primary := nameCandidate{
		display: strings.TrimSpace(first + " " + last),
		first:   first,
		last:    last,
		tag:     model.TagPrimary,
	}
	out := []nameCandidate{primary}
	seen := map[string]bool{primary.display: true}

	want := common.UniformInt(s.rng, s.opts.MinNameVariants, s.opts.MaxNameVariants)

	perms := permutations(first, last)
	order := common.Shuffled(s.rng, len(perms))
	next := 0
	nextPermutation := func() (nameCandidate, bool) {
		for next < len(order) {
			c := perms[order[next]]
			next++
			if !seen[c.display] {
				c.tag = model.TagOther
				return c, true
			}
		}
		return nameCandidate{}, false
	}

	attempts := 0
	for len(out)-1 < want && attempts < 4*(want+1) {
		attempts++

		usePermutation := s.opts.NamePolicy == PolicyPermutations ||
			(s.opts.NamePolicy == PolicyMixed && s.rng.IntN(2) == 0)

		var c nameCandidate
		ok := false
		if usePermutation {
			c, ok = nextPermutation()
		}
		if !ok {
			c = s.sampledName()
			ok = !seen[c.display]
		}
		if !ok {
			continue
		}
		seen[c.display] = true
		out = append(out, c)
	}
	return out
}

func (s *Synthesizer) sampledName() nameCandidate {
	first := strings.ToUpper(s.fake.FirstName())
	last := strings.ToUpper(s.fake.LastName())
	return nameCandidate{display: first + " " + last, first: first, last: last, tag: model.TagAlias}
}

// NameVariants is the tagged display list for a name, primary first.
func (s *Synthesizer) NameVariants(first, last string) []model.Variant {
	cands := s.nameVariants(first, last)
	out := make([]model.Variant, len(cands))
	for i, c := range cands {
		out[i] = model.Variant{Value: c.display, Tag: c.tag}
	}
	return out
}

// nameRecords collapses candidates with identical parts into structured records.
func nameRecords(cands []nameCandidate) []model.NameRecord {
	var out []model.NameRecord
	seen := map[[2]string]bool{}
	for _, c := range cands {
		key := [2]string{c.first, c.last}
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, model.NameRecord{First: c.first, Last: c.last, Type: c.tag})
	}
	return out
}

// BirthDateVariants returns primary followed by 0..MaxBirthDateVariants
// distinct dates within MaxBirthDateOffsetDays of it.
func (s *Synthesizer) BirthDateVariants(primary time.Time) []model.Variant {
	out := []model.Variant{{Value: primary.Format(DateLayout), Tag: model.TagPrimary}}

	n := common.UniformInt(s.rng, 0, s.opts.MaxBirthDateVariants)
	if n == 0 {
		return out
	}

	maxOff := s.opts.MaxBirthDateOffsetDays
	offsets := make([]int, 0, 2*maxOff)
	for d := 1; d <= maxOff; d++ {
		offsets = append(offsets, d, -d)
	}
	order := common.Shuffled(s.rng, len(offsets))
	for _, i := range order[:n] {
		d := primary.AddDate(0, 0, offsets[i])
		out = append(out, model.Variant{Value: d.Format(DateLayout), Tag: model.TagVariant})
	}
	return out
}

// ANumbers returns 0..MaxANumbers unique fixed-width numeric identifiers.
// When the list is non-empty a uniformly chosen primary is moved to the front.
func (s *Synthesizer) ANumbers() []model.Variant {
	n := common.UniformInt(s.rng, 0, s.opts.MaxANumbers)
	if n == 0 {
		return []model.Variant{}
	}

	seen := map[string]bool{}
	values := make([]string, 0, n)
	for len(values) < n {
		v := s.digits(s.opts.ANumberWidth)
		if seen[v] {
			continue
		}
		seen[v] = true
		values = append(values, v)
	}

	p := s.rng.IntN(len(values))
	values[0], values[p] = values[p], values[0]

	out := make([]model.Variant, len(values))
	for i, v := range values {
		out[i] = model.Variant{Value: v, Tag: model.TagAlternate}
	}
	out[0].Tag = model.TagPrimary
	return out
}

func (s *Synthesizer) digits(width int) string {
	b := make([]byte, width)
	for i := range b {
		b[i] = byte('0' + s.rng.IntN(10))
	}
	return string(b)
}
