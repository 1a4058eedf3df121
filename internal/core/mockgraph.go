// Package core wires node, attribute and edge generation with validation and
// export into a single run.
package core

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/agenthands/graphmock/internal/config"
	"github.com/agenthands/graphmock/internal/core/common"
	"github.com/agenthands/graphmock/internal/core/edges"
	"github.com/agenthands/graphmock/internal/core/model"
	"github.com/agenthands/graphmock/internal/core/nodepool"
	"github.com/agenthands/graphmock/internal/core/synth"
	"github.com/agenthands/graphmock/internal/core/validate"
	"github.com/agenthands/graphmock/internal/export"
)

// StreamFile is the edge file written batch by batch during Run.
const StreamFile = "edges.json"

type MockGraph struct {
	Config *config.Config
	Rand   *rand.Rand
	NewID  common.IDGenerator
	Logger *zap.Logger
}

// NewMockGraph seeds the rng from cfg.Seed; ids are UUIDs drawn from it.
func NewMockGraph(cfg *config.Config, logger *zap.Logger) *MockGraph {
	if logger == nil {
		logger = zap.NewNop()
	}
	rng := common.NewRand(cfg.Seed)
	return &MockGraph{
		Config: cfg,
		Rand:   rng,
		NewID:  common.NewUUIDGenerator(rng),
		Logger: logger,
	}
}

type Graph struct {
	Nodes      []model.Node           `json:"nodes"`
	Attributes []model.NodeAttributes `json:"attributes"`
	Edges      []model.Edge           `json:"edges"`
}

type RunSummary struct {
	Seed       uint64         `json:"seed"`
	Nodes      int            `json:"nodes"`
	NodeTypes  map[string]int `json:"node_types"`
	Attributes int            `json:"attributes"`
	// Skipped counts nodes whose type has no attribute schema.
	Skipped    int                               `json:"skipped"`
	Edges      *edges.Result                     `json:"edges"`
	Report     *model.ValidationReport           `json:"report"`
	Attribute  map[string]*model.AttributeReport `json:"attribute_reports"`
	Files      []string                          `json:"files,omitempty"`
	StreamPath string                            `json:"stream_path,omitempty"`
}

// OK reports whether both edge and attribute validation came back clean.
func (s *RunSummary) OK() bool {
	if s.Report == nil || !s.Report.OK() {
		return false
	}
	for _, r := range s.Attribute {
		if r.Invalid > 0 {
			return false
		}
	}
	return true
}

// Build generates and validates a graph in memory.
func (g *MockGraph) Build() (*Graph, *RunSummary, error) {
	return g.build(nil)
}

// Run builds the graph, streams edges to Output.Dir as they are generated
// and exports every configured format.
func (g *MockGraph) Run(ctx context.Context) (*Graph, *RunSummary, error) {
	streamPath := filepath.Join(g.Config.Output.Dir, StreamFile)
	stream, err := export.NewJSONArraySink(streamPath)
	if err != nil {
		return nil, nil, err
	}

	graph, summary, err := g.build(stream)
	if err != nil {
		stream.Abort()
		return nil, nil, err
	}
	if err := stream.Close(); err != nil {
		return nil, nil, err
	}
	summary.StreamPath = streamPath

	x := &export.Exporter{
		Dir:     g.Config.Output.Dir,
		Formats: g.Config.Output.Formats,
		Logger:  g.Logger,
	}
	files, err := x.Export(ctx, graph.Nodes, graph.Attributes, graph.Edges)
	if err != nil {
		return nil, nil, fmt.Errorf("export: %w", err)
	}
	summary.Files = files
	return graph, summary, nil
}

func (g *MockGraph) build(stream edges.EdgeSink) (*Graph, *RunSummary, error) {
	cfg := g.Config
	if cfg == nil {
		return nil, nil, errors.New("core: config is required")
	}
	if g.Rand == nil {
		g.Rand = common.NewRand(cfg.Seed)
	}
	logger := g.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	nodes, err := nodepool.Generate(cfg.Nodes.Count, cfg.Nodes.Types, g.Rand, g.NewID)
	if err != nil {
		return nil, nil, fmt.Errorf("generate nodes: %w", err)
	}
	logger.Info("nodes generated", zap.Int("count", len(nodes)))

	opts, err := cfg.SynthOptions()
	if err != nil {
		return nil, nil, err
	}
	s, err := synth.New(g.Rand, opts)
	if err != nil {
		return nil, nil, err
	}
	attrs, skipped := s.SynthesizeAll(nodes)
	if skipped > 0 {
		logger.Warn("nodes without an attribute schema skipped", zap.Int("skipped", skipped))
	}

	collector := &edges.Collector{}
	var sink edges.EdgeSink = collector
	if stream != nil {
		sink = edges.Tee(collector, stream)
	}
	gen := &edges.Generator{
		Rules:      cfg.Edges.Rules,
		Rand:       g.Rand,
		NewID:      g.NewID,
		BatchSize:  cfg.Edges.BatchSize,
		Sink:       sink,
		Logger:     logger,
		UsageScope: edges.UsageScope(cfg.Edges.UsageScope),
	}
	result, _, err := gen.Generate(nodes, nodepool.ByType(nodes), nil)
	if err != nil {
		return nil, nil, fmt.Errorf("generate edges: %w", err)
	}

	graph := &Graph{Nodes: nodes, Attributes: attrs, Edges: collector.Edges}
	summary := &RunSummary{
		Seed:       cfg.Seed,
		Nodes:      len(nodes),
		NodeTypes:  nodepool.TypeCounts(nodes),
		Attributes: len(attrs),
		Skipped:    skipped,
		Edges:      result,
		Report:     validate.New(cfg.Edges.Rules, gen.UsageScope).Validate(nodes, graph.Edges),
		Attribute:  validate.ValidateAttributesByType(nodes, attrs),
	}

	logger.Info("graph built",
		zap.Int("nodes", summary.Nodes),
		zap.Int("attributes", summary.Attributes),
		zap.Int("edges", result.Count),
		zap.Int("invalid_edges", summary.Report.Invalid),
		zap.Bool("ok", summary.OK()),
	)
	return graph, summary, nil
}
