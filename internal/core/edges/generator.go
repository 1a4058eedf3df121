// Package edges samples typed edges between node pools under fan-out bounds,
// sub-type tagging and per-target usage caps.
package edges

import (
	"errors"
	"fmt"
	"math/rand/v2"

	"go.uber.org/zap"

	"github.com/agenthands/graphmock/internal/core/common"
	"github.com/agenthands/graphmock/internal/core/model"
)

// DefaultBatchSize is how many edges accumulate before a sink flush.
const DefaultBatchSize = 10000

type UsageScope string

const (
	// ScopeRun shares target usage across every rule of the run.
	ScopeRun UsageScope = "run"
	// ScopeRule counts usage separately for each edge type.
	ScopeRule UsageScope = "rule"
)

// Usage counts how many sources reference each target. Under ScopeRun keys
// are target ids; under ScopeRule they are "<edge_type>/<target_id>".
type Usage map[string]int

// Count returns the usage of targetID as seen by edgeType under scope.
func (u Usage) Count(scope UsageScope, edgeType, targetID string) int {
	return u[usageKey(scope, edgeType, targetID)]
}

func usageKey(scope UsageScope, edgeType, targetID string) string {
	if scope == ScopeRule {
		return edgeType + "/" + targetID
	}
	return targetID
}

// EdgeSink receives edges in bounded batches. The slice is reused after the call returns.
type EdgeSink interface {
	WriteEdges(batch []model.Edge) error
}

// Warning is a soft finding: a source that could not get edges of a type.
type Warning struct {
	SourceID   string `json:"source_id"`
	EdgeType   string `json:"edge_type"`
	TargetType string `json:"target_type"`
	Reason     string `json:"reason"`
}

type Result struct {
	// Edges holds every generated edge when no sink is configured.
	Edges    []model.Edge              `json:"edges,omitempty"`
	Count    int                       `json:"count"`
	ByType   map[string]int            `json:"by_type"`
	ByTag    map[string]map[string]int `json:"by_tag"`
	Warnings []Warning                 `json:"warnings,omitempty"`
	Flushes  int                       `json:"flushes"`
}

type Generator struct {
	Rules      []Rule
	Rand       *rand.Rand
	NewID      common.IDGenerator
	BatchSize  int
	Sink       EdgeSink
	Logger     *zap.Logger
	UsageScope UsageScope
}

// pool is a rule's live candidate set; saturated targets are swap-removed.
type pool struct {
	nodes []model.Node
	pos   map[string]int
}

func newPool(nodes []model.Node) *pool {
	p := &pool{nodes: make([]model.Node, len(nodes)), pos: make(map[string]int, len(nodes))}
	copy(p.nodes, nodes)
	for i, n := range p.nodes {
		p.pos[n.ID] = i
	}
	return p
}

func (p *pool) remove(id string) {
	i, ok := p.pos[id]
	if !ok {
		return
	}
	last := len(p.nodes) - 1
	p.nodes[i] = p.nodes[last]
	p.pos[p.nodes[i].ID] = i
	p.nodes = p.nodes[:last]
	delete(p.pos, id)
}

func (p *pool) has(id string) bool {
	_, ok := p.pos[id]
	return ok
}

// Generate links every source to targets per the configured rules. Sources
// are visited in order and, for each source, rules in order, so usage and
// tagging decisions depend only on earlier sources. usage is updated in place
// and returned; nil starts from zero.
func (g *Generator) Generate(sources []model.Node, targetsByType map[string][]model.Node, usage Usage) (*Result, Usage, error) {
	if g.Rand == nil {
		return nil, usage, errors.New("edges: rng is required")
	}
	if err := ValidateRules(g.Rules); err != nil {
		return nil, usage, err
	}
	scope := g.UsageScope
	switch scope {
	case "":
		scope = ScopeRun
	case ScopeRun, ScopeRule:
	default:
		return nil, usage, fmt.Errorf("%w: unknown usage scope %q", ErrInvalidRule, scope)
	}

	rules := make([]Rule, len(g.Rules))
	for i, r := range g.Rules {
		rules[i] = r.normalized()
		if r.Required && len(targetsByType[r.TargetType]) == 0 {
			return nil, usage, fmt.Errorf("%w: %s needs %s targets", ErrEmptyPool, rules[i].EdgeType, r.TargetType)
		}
	}

	logger := g.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	newID := g.NewID
	if newID == nil {
		newID = common.NewUUIDGenerator(g.Rand)
	}
	batchSize := g.BatchSize
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	if usage == nil {
		usage = make(Usage)
	}

	pools := make([]*pool, len(rules))
	for i, r := range rules {
		pools[i] = newPool(targetsByType[r.TargetType])
		if r.UsageCap == 0 {
			continue
		}
		for _, n := range targetsByType[r.TargetType] {
			if usage[usageKey(scope, r.EdgeType, n.ID)] >= r.UsageCap {
				pools[i].remove(n.ID)
			}
		}
	}

	res := &Result{ByType: map[string]int{}, ByTag: map[string]map[string]int{}}
	buf := make([]model.Edge, 0, min(batchSize, 1024))

	flush := func() error {
		if g.Sink == nil || len(buf) == 0 {
			return nil
		}
		if err := g.Sink.WriteEdges(buf); err != nil {
			return fmt.Errorf("edges: flush after %d edges: %w", res.Count, err)
		}
		res.Flushes++
		buf = buf[:0]
		return nil
	}

	// limits holds, per target under ScopeRun, the tightest cap among the
	// rules that have linked it so far.
	limits := map[string]int{}
	emptyWarnings := map[string]int{}
	for _, src := range sources {
		// A source never links to itself.
		linked := map[string]bool{src.ID: true}
		for ri, r := range rules {
			if src.Type != r.SourceType {
				continue
			}
			p := pools[ri]

			avail := len(p.nodes)
			for id := range linked {
				if p.has(id) {
					avail--
				}
			}
			if avail == 0 {
				reason := "no targets available"
				if len(targetsByType[r.TargetType]) > 0 {
					reason = "all targets at usage cap or already linked"
				}
				res.Warnings = append(res.Warnings, Warning{SourceID: src.ID, EdgeType: r.EdgeType, TargetType: r.TargetType, Reason: reason})
				emptyWarnings[r.EdgeType]++
				logger.Debug("source gets no edges", zap.String("source_id", src.ID), zap.String("edge_type", r.EdgeType), zap.String("reason", reason))
				continue
			}

			hi := min(r.MaxPerSource, avail)
			n := common.UniformInt(g.Rand, min(r.MinPerSource, hi), hi)

			for k, tgt := range g.sample(p, linked, n) {
				tag := r.PrimaryTag
				if k > 0 {
					tag = r.SecondaryTags[g.Rand.IntN(len(r.SecondaryTags))]
				}
				e := model.Edge{ID: newID(), From: src.ID, To: tgt.ID, Type: r.EdgeType}
				if r.PropertyKey != "" {
					e.Properties = map[string]string{r.PropertyKey: tag}
				}

				linked[tgt.ID] = true
				key := usageKey(scope, r.EdgeType, tgt.ID)
				usage[key]++
				g.saturate(rules, pools, ri, scope, tgt.ID, usage[key], limits)

				res.Count++
				res.ByType[r.EdgeType]++
				if res.ByTag[r.EdgeType] == nil {
					res.ByTag[r.EdgeType] = map[string]int{}
				}
				res.ByTag[r.EdgeType][tag]++

				if g.Sink == nil {
					res.Edges = append(res.Edges, e)
					continue
				}
				buf = append(buf, e)
				if len(buf) >= batchSize {
					if err := flush(); err != nil {
						return nil, usage, err
					}
				}
			}
		}
	}
	if err := flush(); err != nil {
		return nil, usage, err
	}

	for et, c := range emptyWarnings {
		logger.Warn("sources without edges", zap.String("edge_type", et), zap.Int("sources", c))
	}
	logger.Info("edges generated", zap.Int("edges", res.Count), zap.Int("warnings", len(res.Warnings)), zap.Int("flushes", res.Flushes))
	return res, usage, nil
}

// sample draws n distinct targets from p that are not yet linked to the source.
func (g *Generator) sample(p *pool, linked map[string]bool, n int) []model.Node {
	out := make([]model.Node, 0, n)
	picked := make(map[string]bool, n)
	for len(out) < n {
		t := p.nodes[g.Rand.IntN(len(p.nodes))]
		if linked[t.ID] || picked[t.ID] {
			continue
		}
		picked[t.ID] = true
		out = append(out, t)
	}
	return out
}

// saturate drops a target from every pool that may no longer link it. Under
// ScopeRun usage is shared, so the tightest cap of any rule that linked the
// target binds all rules on the same target type.
func (g *Generator) saturate(rules []Rule, pools []*pool, ri int, scope UsageScope, id string, used int, limits map[string]int) {
	r := rules[ri]
	if scope == ScopeRule {
		if r.UsageCap > 0 && used >= r.UsageCap {
			pools[ri].remove(id)
		}
		return
	}

	if r.UsageCap > 0 {
		if l, ok := limits[id]; !ok || r.UsageCap < l {
			limits[id] = r.UsageCap
		}
	}
	limit, bound := limits[id]
	for j, o := range rules {
		if o.TargetType != r.TargetType {
			continue
		}
		if (bound && used >= limit) || (o.UsageCap > 0 && used >= o.UsageCap) {
			pools[j].remove(id)
		}
	}
}
