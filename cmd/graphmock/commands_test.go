package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/agenthands/graphmock/internal/config"
	"github.com/agenthands/graphmock/internal/dataset"
)

func TestGenerateThenValidate(t *testing.T) {
	t.Setenv("CONFIG_PATH", "")
	t.Setenv("LOG_LEVEL", "error")
	out := t.TempDir()
	ctx := context.Background()

	require.NoError(t, runGenerate(ctx, []string{"-out", out, "-count", "80", "-seed", "4"}))
	assert.FileExists(t, filepath.Join(out, "summary.json"))
	assert.FileExists(t, filepath.Join(out, "edges.json"))

	gds := filepath.Join(out, "gds")
	require.NoError(t, runValidate(ctx, []string{
		"-nodes", filepath.Join(gds, "nodes.json"),
		"-edges", filepath.Join(gds, "edges.json"),
		"-attributes", filepath.Join(gds, "person_attributes.json"),
	}))

	attrs, edgeList, err := readExport(&environment{cfg: config.Default(), logger: zap.NewNop()}, gds)
	require.NoError(t, err)
	assert.Len(t, attrs, 80)
	streamed, _, err := dataset.ReadEdges(filepath.Join(out, "edges.json"))
	require.NoError(t, err)
	assert.Equal(t, streamed, edgeList)
}

func TestValidateReportsBrokenEdges(t *testing.T) {
	t.Setenv("CONFIG_PATH", "")
	t.Setenv("LOG_LEVEL", "error")
	dir := t.TempDir()
	nodes := filepath.Join(dir, "nodes.csv")
	edges := filepath.Join(dir, "edges.jsonl")
	require.NoError(t, os.WriteFile(nodes, []byte("node_id,node_type\nP1,person\nA1,address\n"), 0o644))
	require.NoError(t, os.WriteFile(edges, []byte(`{"edge_id":"e1","node_id_from":"P1","node_id_to":"A9","edge_type":"person_address","edge_properties":{"ADDRESS_TYPE":"PRIMARY"}}`+"\n"), 0o644))

	err := runValidate(context.Background(), []string{"-nodes", nodes, "-edges", edges})
	assert.ErrorIs(t, err, errValidationFailed)
}

func TestReadExportNeedsAttributes(t *testing.T) {
	_, _, err := readExport(&environment{cfg: config.Default(), logger: zap.NewNop()}, t.TempDir())
	assert.ErrorContains(t, err, "no attribute files")
}
