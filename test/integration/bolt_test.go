//go:build integration

package integration

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agenthands/graphmock/internal/driver"
	"github.com/agenthands/graphmock/internal/loader"
)

func TestBoltLoad(t *testing.T) {
	cfg := loadConfig(t, "BOLT_URI")
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	d, err := driver.NewBoltDriver(ctx, cfg.Bolt.URI, cfg.Bolt.User, cfg.Bolt.Password, driver.Dialect(cfg.Bolt.Dialect), nil)
	require.NoError(t, err)
	defer d.Close(context.Background())

	l := loader.New(d, 50, nil)
	require.NoError(t, l.Reset(ctx))
	defer func() { _ = l.Reset(context.Background()) }()

	graph := buildGraph(t, cfg, 300)
	stats, err := l.Load(ctx, graph.Attributes, graph.Edges)
	require.NoError(t, err)
	assert.Equal(t, len(graph.Attributes), stats.Nodes)
	assert.Equal(t, len(graph.Edges), stats.Edges)

	nodes, edges, err := l.Counts(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(len(graph.Attributes)), nodes)
	assert.Equal(t, int64(len(graph.Edges)), edges)

	// loading again merges instead of duplicating
	_, err = l.Load(ctx, graph.Attributes, graph.Edges)
	require.NoError(t, err)
	nodes, edges, err = l.Counts(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(len(graph.Attributes)), nodes)
	assert.Equal(t, int64(len(graph.Edges)), edges)
}
