//go:build integration

package integration

import (
	"os"
	"testing"

	"github.com/joho/godotenv"
	"github.com/stretchr/testify/require"

	"github.com/agenthands/graphmock/internal/config"
	"github.com/agenthands/graphmock/internal/core"
)

// loadConfig reads ../../.env and the environment over the defaults and
// skips the test when the variable naming its backend is unset.
func loadConfig(t *testing.T, required string) *config.Config {
	t.Helper()
	_ = godotenv.Load("../../.env")
	if os.Getenv(required) == "" {
		t.Skipf("%s is not set", required)
	}
	cfg, err := config.Resolve("", os.Getenv)
	require.NoError(t, err)
	return cfg
}

func buildGraph(t *testing.T, cfg *config.Config, count int) *core.Graph {
	t.Helper()
	cfg.Seed = 2024
	cfg.Nodes.Count = count
	graph, summary, err := core.NewMockGraph(cfg, nil).Build()
	require.NoError(t, err)
	require.True(t, summary.OK(), summary.Report.String())
	return graph
}
