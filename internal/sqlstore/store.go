// Package sqlstore stages generated graphs in Postgres nodes/edges tables.
package sqlstore

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/agenthands/graphmock/internal/core/model"
)

// DB is the subset of *pgxpool.Pool and *pgx.Conn the store uses.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

const DefaultBatchSize = 500

var dropStatements = []string{
	`DROP TABLE IF EXISTS edges CASCADE`,
	`DROP TABLE IF EXISTS nodes CASCADE`,
}

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS nodes (
		node_id VARCHAR(255) PRIMARY KEY,
		node_type VARCHAR(255) NOT NULL,
		node_name TEXT,
		node_properties JSONB
	)`,
	`CREATE TABLE IF NOT EXISTS edges (
		edge_id VARCHAR(255) PRIMARY KEY,
		node_id_from VARCHAR(255) NOT NULL REFERENCES nodes(node_id),
		node_id_to VARCHAR(255) NOT NULL REFERENCES nodes(node_id),
		edge_type VARCHAR(255) NOT NULL,
		edge_properties JSONB
	)`,
	`CREATE INDEX IF NOT EXISTS idx_nodes_type ON nodes(node_type)`,
	`CREATE INDEX IF NOT EXISTS idx_edges_type ON edges(edge_type)`,
	`CREATE INDEX IF NOT EXISTS idx_edges_from ON edges(node_id_from)`,
	`CREATE INDEX IF NOT EXISTS idx_edges_to ON edges(node_id_to)`,
}

const (
	insertNodeSQL = `INSERT INTO nodes (node_id, node_type, node_name, node_properties)
		VALUES ($1, $2, $3, $4) ON CONFLICT (node_id) DO NOTHING`
	insertEdgeSQL = `INSERT INTO edges (edge_id, node_id_from, node_id_to, edge_type, edge_properties)
		VALUES ($1, $2, $3, $4, $5) ON CONFLICT (edge_id) DO NOTHING`
)

type Store struct {
	db        DB
	batchSize int
	logger    *zap.Logger
}

// Open connects a pool for url.
func Open(ctx context.Context, url string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return pool, nil
}

func New(db DB, batchSize int, logger *zap.Logger) *Store {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{db: db, batchSize: batchSize, logger: logger}
}

// CreateSchema creates the tables and indices, dropping existing ones first when recreate is set.
func (s *Store) CreateSchema(ctx context.Context, recreate bool) error {
	stmts := schemaStatements
	if recreate {
		stmts = append(append([]string{}, dropStatements...), schemaStatements...)
	}
	for _, q := range stmts {
		if _, err := s.db.Exec(ctx, q); err != nil {
			return fmt.Errorf("schema: %w", err)
		}
	}
	return nil
}

// Reset deletes all rows, edges first for the foreign keys.
func (s *Store) Reset(ctx context.Context) error {
	for _, q := range []string{`DELETE FROM edges`, `DELETE FROM nodes`} {
		if _, err := s.db.Exec(ctx, q); err != nil {
			return fmt.Errorf("reset: %w", err)
		}
	}
	return nil
}

type Stats struct {
	Nodes int `json:"nodes"`
	Edges int `json:"edges"`
	// SkippedEdges reference a node that is not part of the load.
	SkippedEdges int `json:"skipped_edges"`
}

// Load inserts attribute records then edges. Existing ids are left untouched;
// edges with an endpoint outside attrs are skipped and counted.
func (s *Store) Load(ctx context.Context, attrs []model.NodeAttributes, edgeList []model.Edge) (Stats, error) {
	var stats Stats
	known := make(map[string]bool, len(attrs))

	nodeRows := make([][]any, 0, len(attrs))
	for _, a := range attrs {
		props, err := json.Marshal(a.Properties)
		if err != nil {
			return stats, fmt.Errorf("node %s: %w", a.NodeID, err)
		}
		known[a.NodeID] = true
		nodeRows = append(nodeRows, []any{a.NodeID, a.NodeType, a.NodeName, string(props)})
	}
	n, err := s.insert(ctx, insertNodeSQL, nodeRows)
	if err != nil {
		return stats, fmt.Errorf("insert nodes: %w", err)
	}
	stats.Nodes = n

	edgeRows := make([][]any, 0, len(edgeList))
	for _, e := range edgeList {
		if !known[e.From] || !known[e.To] {
			stats.SkippedEdges++
			continue
		}
		var props any
		if len(e.Properties) > 0 {
			b, err := json.Marshal(e.Properties)
			if err != nil {
				return stats, fmt.Errorf("edge %s: %w", e.ID, err)
			}
			props = string(b)
		}
		edgeRows = append(edgeRows, []any{e.ID, e.From, e.To, e.Type, props})
	}
	n, err = s.insert(ctx, insertEdgeSQL, edgeRows)
	if err != nil {
		return stats, fmt.Errorf("insert edges: %w", err)
	}
	stats.Edges = n

	if stats.SkippedEdges > 0 {
		s.logger.Warn("edges skipped", zap.Int("skipped", stats.SkippedEdges))
	}
	s.logger.Info("postgres load complete", zap.Int("nodes", stats.Nodes), zap.Int("edges", stats.Edges))
	return stats, nil
}

// insert sends rows in batches and returns how many were actually inserted.
func (s *Store) insert(ctx context.Context, sql string, rows [][]any) (int, error) {
	inserted := 0
	for start := 0; start < len(rows); start += s.batchSize {
		end := min(start+s.batchSize, len(rows))
		batch := &pgx.Batch{}
		for _, args := range rows[start:end] {
			batch.Queue(sql, args...)
		}

		br := s.db.SendBatch(ctx, batch)
		for i := start; i < end; i++ {
			tag, err := br.Exec()
			if err != nil {
				br.Close()
				return inserted, fmt.Errorf("row %d: %w", i, err)
			}
			inserted += int(tag.RowsAffected())
		}
		if err := br.Close(); err != nil {
			return inserted, err
		}
		s.logger.Debug("batch inserted", zap.Int("rows", end-start))
	}
	return inserted, nil
}
