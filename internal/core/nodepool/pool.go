// Package nodepool synthesizes the typed node universe of a run.
package nodepool

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"sort"

	"github.com/agenthands/graphmock/internal/core/common"
	"github.com/agenthands/graphmock/internal/core/model"
)

var (
	ErrInvalidDistribution = errors.New("nodepool: invalid type distribution")
	ErrInvalidCount        = errors.New("nodepool: invalid node count")
	ErrDuplicateID         = errors.New("nodepool: id generator keeps repeating")
)

// maxIDRetries bounds how often a colliding id is redrawn before giving up.
const maxIDRetries = 16

type TypeWeight struct {
	Type   string  `toml:"type" json:"type"`
	Weight float64 `toml:"weight" json:"weight"`
}

// Distribution lists the allowed node types with relative weights. A nil or
// empty Distribution means a uniform choice over model.DefaultPalette.
type Distribution []TypeWeight

// Uniform builds an equal-weight distribution over types.
func Uniform(types ...string) Distribution {
	d := make(Distribution, len(types))
	for i, t := range types {
		d[i] = TypeWeight{Type: t, Weight: 1}
	}
	return d
}

// Validate checks the distribution without drawing anything.
func (d Distribution) Validate() error {
	if len(d) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(d))
	total := 0.0
	for _, tw := range d {
		if tw.Type == "" {
			return fmt.Errorf("%w: empty type name", ErrInvalidDistribution)
		}
		if seen[tw.Type] {
			return fmt.Errorf("%w: duplicate type %q", ErrInvalidDistribution, tw.Type)
		}
		seen[tw.Type] = true
		if math.IsNaN(tw.Weight) || math.IsInf(tw.Weight, 0) {
			return fmt.Errorf("%w: non-finite weight for %q", ErrInvalidDistribution, tw.Type)
		}
		if tw.Weight < 0 {
			return fmt.Errorf("%w: negative weight %g for %q", ErrInvalidDistribution, tw.Weight, tw.Type)
		}
		total += tw.Weight
	}
	if total == 0 {
		return fmt.Errorf("%w: all weights are zero", ErrInvalidDistribution)
	}
	return nil
}

func (d Distribution) resolved() Distribution {
	if len(d) == 0 {
		return Uniform(model.DefaultPalette...)
	}
	return d
}

// picker draws types by cumulative weight.
type picker struct {
	types []string
	cum   []float64
}

func newPicker(d Distribution) picker {
	p := picker{}
	acc := 0.0
	for _, tw := range d {
		if tw.Weight == 0 {
			continue
		}
		acc += tw.Weight
		p.types = append(p.types, tw.Type)
		p.cum = append(p.cum, acc)
	}
	return p
}

func (p picker) pick(rng *rand.Rand) string {
	x := rng.Float64() * p.cum[len(p.cum)-1]
	i := sort.SearchFloat64s(p.cum, x)
	if i < len(p.cum) && p.cum[i] == x {
		i++
	}
	if i >= len(p.types) {
		i = len(p.types) - 1
	}
	return p.types[i]
}

// Generate returns exactly count nodes with unique ids and types drawn from dist.
// A nil newID draws UUIDs from rng.
func Generate(count int, dist Distribution, rng *rand.Rand, newID common.IDGenerator) ([]model.Node, error) {
	if count < 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidCount, count)
	}
	if err := dist.Validate(); err != nil {
		return nil, err
	}
	if rng == nil {
		return nil, errors.New("nodepool: rng is required")
	}
	if newID == nil {
		newID = common.NewUUIDGenerator(rng)
	}

	p := newPicker(dist.resolved())
	nodes := make([]model.Node, 0, count)
	seen := make(map[string]struct{}, count)

	for len(nodes) < count {
		id, err := uniqueID(newID, seen)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, model.Node{ID: id, Type: p.pick(rng)})
	}
	return nodes, nil
}

func uniqueID(newID common.IDGenerator, seen map[string]struct{}) (string, error) {
	for attempt := 0; attempt < maxIDRetries; attempt++ {
		id := newID()
		if _, dup := seen[id]; dup || id == "" {
			continue
		}
		seen[id] = struct{}{}
		return id, nil
	}
	return "", ErrDuplicateID
}

// ByType groups nodes by type, preserving input order inside each group.
func ByType(nodes []model.Node) map[string][]model.Node {
	out := make(map[string][]model.Node)
	for _, n := range nodes {
		out[n.Type] = append(out[n.Type], n)
	}
	return out
}

// TypeCounts tallies nodes per type.
func TypeCounts(nodes []model.Node) map[string]int {
	out := make(map[string]int)
	for _, n := range nodes {
		out[n.Type]++
	}
	return out
}

// Index maps node id to node.
func Index(nodes []model.Node) map[string]model.Node {
	out := make(map[string]model.Node, len(nodes))
	for _, n := range nodes {
		out[n.ID] = n
	}
	return out
}
