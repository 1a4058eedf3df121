package loader

import (
	"context"
	"errors"
	"testing"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agenthands/graphmock/internal/core/model"
)

func fixture() ([]model.NodeAttributes, []model.Edge) {
	attrs := []model.NodeAttributes{
		{NodeID: "p1", NodeType: "person", NodeName: "JOHN SMITH", Properties: model.Properties{
			model.PropNameFull: "JOHN SMITH",
			model.PropNameFullList: []model.Variant{
				{Value: "JOHN SMITH", Tag: model.TagPrimary},
				{Value: "J. SMITH", Tag: model.TagOther},
			},
			model.PropNameList:       []model.NameRecord{{First: "JOHN", Last: "SMITH", Type: model.TagPrimary}},
			model.PropANumberPrimary: nil,
		}},
		{NodeID: "p2", NodeType: "person", NodeName: "JANE DOE"},
		{NodeID: "a1", NodeType: "address", NodeName: "1 MAIN ST"},
	}
	edgeList := []model.Edge{
		{ID: "e1", From: "p1", To: "a1", Type: "person_address", Properties: map[string]string{"ADDRESS_TYPE": "PRIMARY"}},
		{ID: "e2", From: "p2", To: "a1", Type: "person_address", Properties: map[string]string{"ADDRESS_TYPE": "PRIMARY"}},
	}
	return attrs, edgeList
}

func TestLoadBatchesByTypeAndSize(t *testing.T) {
	mock := &MockDriver{}
	attrs, edgeList := fixture()

	stats, err := New(mock, 1, nil).Load(context.Background(), attrs, edgeList)
	require.NoError(t, err)

	assert.Equal(t, Stats{Nodes: 3, Edges: 2, Batches: 5}, stats)
	assert.Equal(t, []string{"address", "person"}, mock.Labels)
	require.Len(t, mock.Queries, 5)
	assert.Contains(t, mock.Queries[0].Query, "SET n:address")
	assert.Contains(t, mock.Queries[1].Query, "SET n:person")
	assert.Contains(t, mock.Queries[4].Query, "[e:person_address")

	row := mock.Queries[1].Params["rows"].([]any)[0].(map[string]any)
	assert.Equal(t, "p1", row["node_id"])
	props := row["props"].(map[string]any)
	assert.Equal(t, []string{"JOHN SMITH", "J. SMITH"}, props[model.PropNameFullList])
	assert.Equal(t, []string{"JOHN SMITH"}, props[model.PropNameList])
	assert.NotContains(t, props, model.PropANumberPrimary)
}

func TestLoadDefaultBatchKeepsOneQueryPerType(t *testing.T) {
	mock := &MockDriver{}
	attrs, edgeList := fixture()
	stats, err := New(mock, 0, nil).Load(context.Background(), attrs, edgeList)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Batches)
}

func TestLoadStopsOnDriverError(t *testing.T) {
	mock := &MockDriver{Err: errors.New("connection reset"), FailAfter: 1}
	attrs, edgeList := fixture()
	stats, err := New(mock, 10, nil).Load(context.Background(), attrs, edgeList)
	assert.ErrorContains(t, err, "load person nodes: connection reset")
	assert.Equal(t, 1, stats.Nodes)
}

func TestLoadRejectsBadEdgeType(t *testing.T) {
	_, err := New(&MockDriver{}, 10, nil).Load(context.Background(), nil, []model.Edge{{ID: "e", From: "a", To: "b", Type: "has-a"}})
	assert.Error(t, err)
}

func TestCounts(t *testing.T) {
	mock := &MockDriver{MockResult: neo4j.EagerResult{Records: []*neo4j.Record{
		{Keys: []string{"count"}, Values: []any{int64(7)}},
	}}}
	nodes, edges, err := New(mock, 0, nil).Counts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(7), nodes)
	assert.Equal(t, int64(7), edges)

	require.NoError(t, New(mock, 0, nil).Reset(context.Background()))
	assert.Contains(t, mock.Queries[len(mock.Queries)-1].Query, "DETACH DELETE")
}
