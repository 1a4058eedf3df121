package driver

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"
)

// Dialect selects the index DDL a Bolt endpoint understands.
type Dialect string

const (
	DialectNeo4j    Dialect = "neo4j"
	DialectMemgraph Dialect = "memgraph"
	// DialectNeptune speaks openCypher over Bolt and manages its own indices.
	DialectNeptune Dialect = "neptune"
)

type BoltDriver struct {
	Driver  neo4j.DriverWithContext
	Dialect Dialect
	logger  *zap.Logger
}

func NewBoltDriver(ctx context.Context, uri, username, password string, dialect Dialect, logger *zap.Logger) (*BoltDriver, error) {
	switch dialect {
	case DialectNeo4j, DialectMemgraph, DialectNeptune:
	default:
		return nil, fmt.Errorf("unknown bolt dialect %q", dialect)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	auth := neo4j.NoAuth()
	if username != "" {
		auth = neo4j.BasicAuth(username, password, "")
	}
	driver, err := neo4j.NewDriverWithContext(uri, auth)
	if err != nil {
		return nil, err
	}

	if err := driver.VerifyConnectivity(ctx); err != nil {
		driver.Close(ctx)
		return nil, fmt.Errorf("connect %s: %w", uri, err)
	}

	logger.Info("connected to bolt endpoint", zap.String("uri", uri), zap.String("dialect", string(dialect)))
	return &BoltDriver{Driver: driver, Dialect: dialect, logger: logger}, nil
}

func (d *BoltDriver) Close(ctx context.Context) error {
	return d.Driver.Close(ctx)
}

func (d *BoltDriver) ExecuteQuery(ctx context.Context, query string, params map[string]interface{}) (neo4j.EagerResult, error) {
	result, err := neo4j.ExecuteQuery(ctx, d.Driver, query, params, neo4j.EagerResultTransformer)
	if err != nil {
		return neo4j.EagerResult{}, fmt.Errorf("failed to execute query: %w", err)
	}
	return *result, nil
}

// BuildIndices indexes node_id on the shared node label and every given label.
func (d *BoltDriver) BuildIndices(ctx context.Context, labels []string) error {
	queries, err := IndexQueries(d.Dialect, labels)
	if err != nil {
		return err
	}

	for _, q := range queries {
		_, err := d.ExecuteQuery(ctx, q, nil)
		if err != nil {
			// Continue, as index might already exist
			d.logger.Warn("failed to create index", zap.String("query", q), zap.Error(err))
		}
	}

	return nil
}
