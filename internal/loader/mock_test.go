package loader

import (
	"context"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

type executedQuery struct {
	Query  string
	Params map[string]interface{}
}

type MockDriver struct {
	Queries    []executedQuery
	Labels     []string
	MockResult neo4j.EagerResult
	Err        error
	// FailAfter makes ExecuteQuery fail once this many queries succeeded; 0 disables it.
	FailAfter int
}

func (m *MockDriver) ExecuteQuery(ctx context.Context, query string, params map[string]interface{}) (neo4j.EagerResult, error) {
	if m.Err != nil && (m.FailAfter == 0 || len(m.Queries) >= m.FailAfter) {
		return neo4j.EagerResult{}, m.Err
	}
	m.Queries = append(m.Queries, executedQuery{Query: query, Params: params})
	return m.MockResult, nil
}

func (m *MockDriver) BuildIndices(ctx context.Context, labels []string) error {
	m.Labels = labels
	return nil
}

func (m *MockDriver) Close(ctx context.Context) error {
	return nil
}
