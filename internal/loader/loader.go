// Package loader pushes generated nodes and edges into a Bolt graph database.
package loader

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/agenthands/graphmock/internal/core/model"
	"github.com/agenthands/graphmock/internal/driver"
	"github.com/agenthands/graphmock/internal/export"
)

const DefaultBatchSize = 1000

type Loader struct {
	Driver    driver.GraphDriver
	BatchSize int
	Logger    *zap.Logger
}

func New(d driver.GraphDriver, batchSize int, logger *zap.Logger) *Loader {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loader{Driver: d, BatchSize: batchSize, Logger: logger}
}

// Stats counts what was sent to the database.
type Stats struct {
	Nodes   int `json:"nodes"`
	Edges   int `json:"edges"`
	Batches int `json:"batches"`
}

// boltProps converts attribute values to Bolt-storable primitives: variant
// lists become string lists and nil values are dropped.
func boltProps(props model.Properties) map[string]any {
	out := make(map[string]any, len(props))
	for k, v := range props {
		switch val := v.(type) {
		case nil:
		case string:
			out[k] = val
		case []model.Variant:
			out[k] = model.Values(val)
		case []model.NameRecord:
			names := make([]string, len(val))
			for i, n := range val {
				names[i] = n.First + " " + n.Last
			}
			out[k] = names
		default:
			out[k] = export.Flatten(val)
		}
	}
	return out
}

func groupKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Load creates indices, then merges nodes by type and edges by type in batches.
func (l *Loader) Load(ctx context.Context, attrs []model.NodeAttributes, edgeList []model.Edge) (Stats, error) {
	var stats Stats

	byType := map[string][]map[string]any{}
	for _, a := range attrs {
		byType[a.NodeType] = append(byType[a.NodeType], map[string]any{
			"node_id":   a.NodeID,
			"node_name": a.NodeName,
			"props":     boltProps(a.Properties),
		})
	}
	labels := groupKeys(byType)

	if err := l.Driver.BuildIndices(ctx, labels); err != nil {
		return stats, fmt.Errorf("build indices: %w", err)
	}

	for _, label := range labels {
		q, err := driver.MergeNodesQuery(label)
		if err != nil {
			return stats, err
		}
		n, err := l.run(ctx, q, byType[label], &stats)
		if err != nil {
			return stats, fmt.Errorf("load %s nodes: %w", label, err)
		}
		stats.Nodes += n
	}

	edgesByType := map[string][]map[string]any{}
	for _, e := range edgeList {
		props := make(map[string]any, len(e.Properties))
		for k, v := range e.Properties {
			props[k] = v
		}
		edgesByType[e.Type] = append(edgesByType[e.Type], map[string]any{
			"edge_id": e.ID,
			"from":    e.From,
			"to":      e.To,
			"props":   props,
		})
	}
	for _, relType := range groupKeys(edgesByType) {
		q, err := driver.MergeEdgesQuery(relType)
		if err != nil {
			return stats, err
		}
		n, err := l.run(ctx, q, edgesByType[relType], &stats)
		if err != nil {
			return stats, fmt.Errorf("load %s edges: %w", relType, err)
		}
		stats.Edges += n
	}

	l.Logger.Info("graph loaded", zap.Int("nodes", stats.Nodes), zap.Int("edges", stats.Edges), zap.Int("batches", stats.Batches))
	return stats, nil
}

func (l *Loader) run(ctx context.Context, query string, rows []map[string]any, stats *Stats) (int, error) {
	sent := 0
	for start := 0; start < len(rows); start += l.BatchSize {
		if err := ctx.Err(); err != nil {
			return sent, err
		}
		end := min(start+l.BatchSize, len(rows))
		batch := make([]any, 0, end-start)
		for _, r := range rows[start:end] {
			batch = append(batch, r)
		}
		if _, err := l.Driver.ExecuteQuery(ctx, query, map[string]interface{}{"rows": batch}); err != nil {
			return sent, err
		}
		stats.Batches++
		sent += end - start
		l.Logger.Debug("batch loaded", zap.Int("rows", end-start))
	}
	return sent, nil
}

// Counts reads back how many mock nodes and edges the database holds.
func (l *Loader) Counts(ctx context.Context) (nodes, edges int64, err error) {
	if nodes, err = l.count(ctx, driver.CountNodesQuery); err != nil {
		return 0, 0, err
	}
	if edges, err = l.count(ctx, driver.CountEdgesQuery); err != nil {
		return 0, 0, err
	}
	return nodes, edges, nil
}

func (l *Loader) count(ctx context.Context, query string) (int64, error) {
	res, err := l.Driver.ExecuteQuery(ctx, query, nil)
	if err != nil {
		return 0, err
	}
	if len(res.Records) == 0 {
		return 0, nil
	}
	v, ok := res.Records[0].Get("count")
	if !ok {
		return 0, fmt.Errorf("count missing from result")
	}
	n, ok := v.(int64)
	if !ok {
		return 0, fmt.Errorf("unexpected count type %T", v)
	}
	return n, nil
}

// Reset removes every mock node and its relationships.
func (l *Loader) Reset(ctx context.Context) error {
	_, err := l.Driver.ExecuteQuery(ctx, driver.DeleteAllQuery, nil)
	return err
}
