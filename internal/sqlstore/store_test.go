package sqlstore

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agenthands/graphmock/internal/core/model"
)

type queued struct {
	SQL  string
	Args []any
}

// fakeDB records statements; ids in existing report zero rows affected.
type fakeDB struct {
	execs    []string
	queued   []queued
	batches  int
	existing map[string]bool
	failOn   string
}

func (f *fakeDB) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.execs = append(f.execs, sql)
	return pgconn.NewCommandTag("OK"), nil
}

func (f *fakeDB) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults {
	f.batches++
	res := &fakeResults{}
	for _, q := range b.QueuedQueries {
		f.queued = append(f.queued, queued{SQL: q.SQL, Args: q.Arguments})
		id := q.Arguments[0].(string)
		switch {
		case id == f.failOn:
			res.results = append(res.results, fakeResult{err: errors.New("violates foreign key constraint")})
		case f.existing[id]:
			res.results = append(res.results, fakeResult{tag: pgconn.NewCommandTag("INSERT 0 0")})
		default:
			res.results = append(res.results, fakeResult{tag: pgconn.NewCommandTag("INSERT 0 1")})
		}
	}
	return res
}

type fakeResult struct {
	tag pgconn.CommandTag
	err error
}

type fakeResults struct {
	results []fakeResult
	next    int
}

func (r *fakeResults) Exec() (pgconn.CommandTag, error) {
	res := r.results[r.next]
	r.next++
	return res.tag, res.err
}

func (r *fakeResults) Query() (pgx.Rows, error) { return nil, errors.New("not supported") }
func (r *fakeResults) QueryRow() pgx.Row        { return nil }
func (r *fakeResults) Close() error             { return nil }

func fixture() ([]model.NodeAttributes, []model.Edge) {
	attrs := []model.NodeAttributes{
		{NodeID: "p1", NodeType: "person", NodeName: "JOHN SMITH", Properties: model.Properties{model.PropNameFull: "JOHN SMITH"}},
		{NodeID: "a1", NodeType: "address", NodeName: "1 MAIN ST"},
		{NodeID: "a2", NodeType: "address", NodeName: "2 MAIN ST"},
	}
	edgeList := []model.Edge{
		{ID: "e1", From: "p1", To: "a1", Type: "person_address", Properties: map[string]string{"ADDRESS_TYPE": "PRIMARY"}},
		{ID: "e2", From: "p1", To: "a9", Type: "person_address"},
		{ID: "e3", From: "p1", To: "a2", Type: "person_address"},
	}
	return attrs, edgeList
}

func TestLoad(t *testing.T) {
	db := &fakeDB{existing: map[string]bool{"a2": true}}
	attrs, edgeList := fixture()

	stats, err := New(db, 2, nil).Load(context.Background(), attrs, edgeList)
	require.NoError(t, err)

	assert.Equal(t, Stats{Nodes: 2, Edges: 2, SkippedEdges: 1}, stats)
	assert.Equal(t, 3, db.batches)
	require.Len(t, db.queued, 5)
	assert.Equal(t, []any{"p1", "person", "JOHN SMITH", `{"NAME_FULL":"JOHN SMITH"}`}, db.queued[0].Args)
	assert.Equal(t, []any{"e1", "p1", "a1", "person_address", `{"ADDRESS_TYPE":"PRIMARY"}`}, db.queued[3].Args)
	assert.Nil(t, db.queued[4].Args[4])
}

func TestLoadReportsRowError(t *testing.T) {
	db := &fakeDB{failOn: "e1"}
	attrs, edgeList := fixture()
	_, err := New(db, 0, nil).Load(context.Background(), attrs, edgeList)
	assert.ErrorContains(t, err, "insert edges: row 0: violates foreign key constraint")
}

func TestSchemaAndReset(t *testing.T) {
	db := &fakeDB{}
	s := New(db, 0, nil)

	require.NoError(t, s.CreateSchema(context.Background(), true))
	assert.Equal(t, "DROP TABLE IF EXISTS edges CASCADE", db.execs[0])
	assert.Len(t, db.execs, len(dropStatements)+len(schemaStatements))

	db.execs = nil
	require.NoError(t, s.Reset(context.Background()))
	assert.Equal(t, []string{"DELETE FROM edges", "DELETE FROM nodes"}, db.execs)
}
