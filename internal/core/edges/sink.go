package edges

import "github.com/agenthands/graphmock/internal/core/model"

// Collector is an EdgeSink that keeps every edge in memory.
type Collector struct {
	Edges []model.Edge
}

func (c *Collector) WriteEdges(batch []model.Edge) error {
	c.Edges = append(c.Edges, batch...)
	return nil
}

type teeSink []EdgeSink

// Tee fans each batch out to every sink in order, stopping at the first error.
func Tee(sinks ...EdgeSink) EdgeSink {
	return teeSink(sinks)
}

func (t teeSink) WriteEdges(batch []model.Edge) error {
	for _, s := range t {
		if err := s.WriteEdges(batch); err != nil {
			return err
		}
	}
	return nil
}
