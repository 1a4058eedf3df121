package edges

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agenthands/graphmock/internal/core/common"
	"github.com/agenthands/graphmock/internal/core/model"
	"github.com/agenthands/graphmock/internal/core/nodepool"
)

func addressRule(minPer, maxPer, usageCap int) Rule {
	return Rule{
		SourceType: model.TypePerson, TargetType: model.TypeAddress,
		PropertyKey: model.PropAddressType, MinPerSource: minPer, MaxPerSource: maxPer, UsageCap: usageCap,
		SecondaryTags: []string{model.TagSecondary, model.TagTertiary},
	}
}

func counterIDs() common.IDGenerator {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("e%d", n)
	}
}

func TestSinglePersonTwoAddresses(t *testing.T) {
	person := []model.Node{{ID: "P1", Type: model.TypePerson}}
	targets := map[string][]model.Node{
		model.TypeAddress: {{ID: "A1", Type: model.TypeAddress}, {ID: "A2", Type: model.TypeAddress}},
	}

	for seed := uint64(0); seed < 30; seed++ {
		g := &Generator{Rules: []Rule{addressRule(1, 2, 3)}, Rand: common.NewRand(seed)}
		res, usage, err := g.Generate(person, targets, nil)
		require.NoError(t, err)

		require.GreaterOrEqual(t, len(res.Edges), 1)
		require.LessOrEqual(t, len(res.Edges), 2)
		assert.Equal(t, model.TagPrimary, res.Edges[0].Properties[model.PropAddressType])
		for i, e := range res.Edges {
			assert.Equal(t, "P1", e.From)
			assert.Contains(t, []string{"A1", "A2"}, e.To)
			assert.Equal(t, "person_address", e.Type)
			if i > 0 {
				assert.Contains(t, []string{model.TagSecondary, model.TagTertiary}, e.Properties[model.PropAddressType])
				assert.NotEqual(t, res.Edges[0].To, e.To)
			}
		}
		assert.LessOrEqual(t, usage["A1"], 3)
		assert.LessOrEqual(t, usage["A2"], 3)
		assert.Empty(t, res.Warnings)
	}
}

func TestNoTargetsIsSoftWarning(t *testing.T) {
	g := &Generator{Rules: []Rule{addressRule(1, 3, 3)}, Rand: common.NewRand(1)}
	res, _, err := g.Generate([]model.Node{{ID: "P1", Type: model.TypePerson}}, map[string][]model.Node{}, nil)
	require.NoError(t, err)
	assert.Empty(t, res.Edges)
	assert.Zero(t, res.Count)
	require.Len(t, res.Warnings, 1)
	assert.Equal(t, Warning{SourceID: "P1", EdgeType: "person_address", TargetType: model.TypeAddress, Reason: "no targets available"}, res.Warnings[0])
}

func TestRequiredEmptyPoolFails(t *testing.T) {
	r := addressRule(1, 3, 3)
	r.Required = true
	g := &Generator{Rules: []Rule{r}, Rand: common.NewRand(1)}
	_, _, err := g.Generate([]model.Node{{ID: "P1", Type: model.TypePerson}}, nil, nil)
	assert.ErrorIs(t, err, ErrEmptyPool)
}

func TestUsageCapAcrossSources(t *testing.T) {
	var persons []model.Node
	for i := 0; i < 10; i++ {
		persons = append(persons, model.Node{ID: fmt.Sprintf("P%d", i), Type: model.TypePerson})
	}
	targets := map[string][]model.Node{
		model.TypeAddress: {{ID: "A1", Type: model.TypeAddress}, {ID: "A2", Type: model.TypeAddress}},
	}

	g := &Generator{Rules: []Rule{addressRule(1, 2, 3)}, Rand: common.NewRand(4)}
	res, usage, err := g.Generate(persons, targets, nil)
	require.NoError(t, err)

	perTarget := map[string]int{}
	for _, e := range res.Edges {
		perTarget[e.To]++
	}
	assert.LessOrEqual(t, perTarget["A1"], 3)
	assert.LessOrEqual(t, perTarget["A2"], 3)
	assert.Equal(t, perTarget["A1"], usage["A1"])
	assert.Equal(t, 6, usage["A1"]+usage["A2"], "both addresses saturate with ten persons")
	assert.NotEmpty(t, res.Warnings)
	assert.Equal(t, "all targets at usage cap or already linked", res.Warnings[0].Reason)
}

func TestPriorUsageIsHonored(t *testing.T) {
	targets := map[string][]model.Node{
		model.TypeAddress: {{ID: "A1", Type: model.TypeAddress}, {ID: "A2", Type: model.TypeAddress}},
	}
	g := &Generator{Rules: []Rule{addressRule(1, 2, 3)}, Rand: common.NewRand(2)}
	res, usage, err := g.Generate([]model.Node{{ID: "P1", Type: model.TypePerson}}, targets, Usage{"A1": 3})
	require.NoError(t, err)
	require.Len(t, res.Edges, 1)
	assert.Equal(t, "A2", res.Edges[0].To)
	assert.Equal(t, 3, usage["A1"])
	assert.Equal(t, 1, usage["A2"])
}

func TestUsageScope(t *testing.T) {
	lives := addressRule(1, 1, 1)
	lives.EdgeType = "lives_at"
	mailed := addressRule(1, 1, 1)
	mailed.EdgeType = "mailed_at"

	persons := []model.Node{{ID: "P1", Type: model.TypePerson}, {ID: "P2", Type: model.TypePerson}}
	targets := map[string][]model.Node{model.TypeAddress: {{ID: "A1", Type: model.TypeAddress}}}

	run := &Generator{Rules: []Rule{lives, mailed}, Rand: common.NewRand(1)}
	res, usage, err := run.Generate(persons, targets, nil)
	require.NoError(t, err)
	assert.Len(t, res.Edges, 1)
	assert.Len(t, res.Warnings, 3)
	assert.Equal(t, 1, usage.Count(ScopeRun, "mailed_at", "A1"))

	perRule := &Generator{Rules: []Rule{lives, mailed}, Rand: common.NewRand(1), UsageScope: ScopeRule}
	res, usage, err = perRule.Generate(persons, targets, nil)
	require.NoError(t, err)
	require.Len(t, res.Edges, 2)
	assert.Equal(t, model.Edge{ID: res.Edges[1].ID, From: "P2", To: "A1", Type: "mailed_at",
		Properties: map[string]string{model.PropAddressType: model.TagPrimary}}, res.Edges[1])
	assert.Equal(t, 1, usage.Count(ScopeRule, "lives_at", "A1"))
	assert.Equal(t, 1, usage.Count(ScopeRule, "mailed_at", "A1"))
}

// sharedPoolRules returns two edge types on the address pool with different caps.
func sharedPoolRules() (lives, mailed Rule) {
	lives = addressRule(1, 1, 1)
	lives.EdgeType = "lives_at"
	mailed = addressRule(1, 2, 3)
	mailed.EdgeType = "mailed_at"
	return lives, mailed
}

func TestSharedPoolHonorsTightestCap(t *testing.T) {
	lives, mailed := sharedPoolRules()
	caps := map[string]int{"lives_at": 1, "mailed_at": 3}

	var persons []model.Node
	for i := 0; i < 6; i++ {
		persons = append(persons, model.Node{ID: fmt.Sprintf("P%d", i), Type: model.TypePerson})
	}
	targets := map[string][]model.Node{
		model.TypeAddress: {{ID: "A1", Type: model.TypeAddress}, {ID: "A2", Type: model.TypeAddress}},
	}

	orders := map[string][]Rule{"tight first": {lives, mailed}, "loose first": {mailed, lives}}
	for name, rules := range orders {
		t.Run(name, func(t *testing.T) {
			for seed := uint64(0); seed < 30; seed++ {
				g := &Generator{Rules: rules, Rand: common.NewRand(seed)}
				res, usage, err := g.Generate(persons, targets, nil)
				require.NoError(t, err)

				total := map[string]int{}
				tightest := map[string]int{}
				for _, e := range res.Edges {
					total[e.To]++
					if c, ok := tightest[e.To]; !ok || caps[e.Type] < c {
						tightest[e.To] = caps[e.Type]
					}
				}
				for id, n := range total {
					assert.LessOrEqual(t, n, tightest[id], "seed %d target %s", seed, id)
					assert.Equal(t, n, usage[id])
				}
			}
		})
	}
}

func TestTightCapBlocksLaterLooseRule(t *testing.T) {
	lives, mailed := sharedPoolRules()
	persons := []model.Node{{ID: "P1", Type: model.TypePerson}, {ID: "P2", Type: model.TypePerson}}
	targets := map[string][]model.Node{model.TypeAddress: {{ID: "A1", Type: model.TypeAddress}}}

	res, usage, err := (&Generator{Rules: []Rule{lives, mailed}, Rand: common.NewRand(1)}).Generate(persons, targets, nil)
	require.NoError(t, err)
	require.Len(t, res.Edges, 1)
	assert.Equal(t, "lives_at", res.Edges[0].Type)
	assert.Equal(t, 1, usage["A1"])
	assert.Len(t, res.Warnings, 3)
}

func TestSourceNeverLinksToItself(t *testing.T) {
	rule := Rule{SourceType: model.TypePerson, TargetType: model.TypePerson, PropertyKey: "RELATION",
		MinPerSource: 1, MaxPerSource: 2, SecondaryTags: []string{model.TagSecondary}}

	single := []model.Node{{ID: "P1", Type: model.TypePerson}}
	res, _, err := (&Generator{Rules: []Rule{rule}, Rand: common.NewRand(1)}).Generate(single, map[string][]model.Node{model.TypePerson: single}, nil)
	require.NoError(t, err)
	assert.Empty(t, res.Edges)
	require.Len(t, res.Warnings, 1)

	persons := []model.Node{{ID: "P1", Type: model.TypePerson}, {ID: "P2", Type: model.TypePerson}, {ID: "P3", Type: model.TypePerson}}
	for seed := uint64(0); seed < 20; seed++ {
		res, _, err := (&Generator{Rules: []Rule{rule}, Rand: common.NewRand(seed)}).Generate(persons, map[string][]model.Node{model.TypePerson: persons}, nil)
		require.NoError(t, err)
		require.NotEmpty(t, res.Edges)
		for _, e := range res.Edges {
			assert.NotEqual(t, e.From, e.To)
		}
	}
}

func generatedGraph(t *testing.T, seed uint64) ([]model.Node, map[string][]model.Node) {
	t.Helper()
	nodes, err := nodepool.Generate(400, nil, common.NewRand(seed), nil)
	require.NoError(t, err)
	return nodes, nodepool.ByType(nodes)
}

func TestDefaultRulesInvariants(t *testing.T) {
	nodes, byType := generatedGraph(t, 17)
	g := &Generator{Rules: DefaultRules(), Rand: common.NewRand(17)}
	res, _, err := g.Generate(nodes, byType, nil)
	require.NoError(t, err)
	require.NotZero(t, res.Count)

	caps := map[string]int{}
	keys := map[string]string{}
	for _, r := range DefaultRules() {
		r = r.normalized()
		caps[r.EdgeType] = r.UsageCap
		keys[r.EdgeType] = r.PropertyKey
	}

	pairs := map[[2]string]bool{}
	firstSeen := map[string]bool{}
	primaries := map[string]int{}
	perTarget := map[string]int{}
	index := nodepool.Index(nodes)

	for _, e := range res.Edges {
		pair := [2]string{e.From, e.To}
		assert.False(t, pairs[pair], "duplicate pair %v", pair)
		pairs[pair] = true

		assert.Equal(t, e.Type, model.EdgeType(index[e.From].Type, index[e.To].Type))

		group := e.From + "/" + e.Type
		tag := e.Properties[keys[e.Type]]
		if !firstSeen[group] {
			assert.Equal(t, model.TagPrimary, tag, "first edge of %s", group)
			firstSeen[group] = true
		}
		if tag == model.TagPrimary {
			primaries[group]++
		}
		perTarget[e.Type+"/"+e.To]++
		if c := caps[e.Type]; c > 0 {
			assert.LessOrEqual(t, perTarget[e.Type+"/"+e.To], c)
		}
	}
	for group, n := range primaries {
		assert.Equal(t, 1, n, group)
	}
	assert.Len(t, primaries, len(firstSeen))
}

func TestGenerateIsReproducible(t *testing.T) {
	nodes, byType := generatedGraph(t, 5)
	a, _, err := (&Generator{Rules: DefaultRules(), Rand: common.NewRand(5)}).Generate(nodes, byType, nil)
	require.NoError(t, err)
	b, _, err := (&Generator{Rules: DefaultRules(), Rand: common.NewRand(5)}).Generate(nodes, byType, nil)
	require.NoError(t, err)
	assert.Equal(t, a.Edges, b.Edges)
}

type countingSink struct {
	batches []int
	all     []model.Edge
	fail    bool
}

func (s *countingSink) WriteEdges(batch []model.Edge) error {
	if s.fail {
		return errors.New("disk full")
	}
	s.batches = append(s.batches, len(batch))
	s.all = append(s.all, batch...)
	return nil
}

func TestBatchedFlushMatchesUnbatched(t *testing.T) {
	nodes, byType := generatedGraph(t, 8)

	plain, _, err := (&Generator{Rules: DefaultRules(), Rand: common.NewRand(8), NewID: counterIDs()}).Generate(nodes, byType, nil)
	require.NoError(t, err)

	sink := &countingSink{}
	batched, _, err := (&Generator{Rules: DefaultRules(), Rand: common.NewRand(8), NewID: counterIDs(), Sink: sink, BatchSize: 7}).Generate(nodes, byType, nil)
	require.NoError(t, err)

	assert.Nil(t, batched.Edges)
	assert.Equal(t, plain.Edges, sink.all)
	assert.Equal(t, plain.Count, batched.Count)
	assert.Equal(t, len(sink.batches), batched.Flushes)
	for _, n := range sink.batches[:len(sink.batches)-1] {
		assert.Equal(t, 7, n)
	}
}

func TestSinkErrorAborts(t *testing.T) {
	nodes, byType := generatedGraph(t, 8)
	g := &Generator{Rules: DefaultRules(), Rand: common.NewRand(8), Sink: &countingSink{fail: true}, BatchSize: 2}
	_, _, err := g.Generate(nodes, byType, nil)
	assert.ErrorContains(t, err, "disk full")
}

func TestTeeAndCollector(t *testing.T) {
	a, b := &Collector{}, &Collector{}
	batch := []model.Edge{{ID: "e1"}}
	require.NoError(t, Tee(a, b).WriteEdges(batch))
	assert.Equal(t, batch, a.Edges)
	assert.Equal(t, batch, b.Edges)
	assert.Error(t, Tee(&countingSink{fail: true}, a).WriteEdges(batch))
	assert.Len(t, a.Edges, 1)
}

func TestInvalidRules(t *testing.T) {
	tests := []struct {
		name  string
		rules []Rule
	}{
		{"missing target", []Rule{{SourceType: "person", MinPerSource: 1, MaxPerSource: 1}}},
		{"zero min", []Rule{addressRule(0, 2, 3)}},
		{"max below min", []Rule{addressRule(3, 2, 3)}},
		{"negative cap", []Rule{addressRule(1, 2, -1)}},
		{"slash in edge type", []Rule{{SourceType: "person", TargetType: "address", EdgeType: "lives/at", MinPerSource: 1, MaxPerSource: 1}}},
		{"no secondary tags", []Rule{{SourceType: "person", TargetType: "address", MinPerSource: 1, MaxPerSource: 2}}},
		{"duplicate edge type", []Rule{addressRule(1, 2, 3), addressRule(1, 1, 3)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := &Generator{Rules: tt.rules, Rand: common.NewRand(1)}
			_, _, err := g.Generate(nil, nil, nil)
			assert.ErrorIs(t, err, ErrInvalidRule)
		})
	}

	g := &Generator{Rules: DefaultRules(), Rand: common.NewRand(1), UsageScope: "global"}
	_, _, err := g.Generate(nil, nil, nil)
	assert.ErrorIs(t, err, ErrInvalidRule)
}
