// Package export writes generated graphs as graph-database bulk-load files.
package export

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/agenthands/graphmock/internal/core/model"
	"github.com/agenthands/graphmock/internal/dataset"
)

const (
	FormatGDS        = "gds"
	FormatGremlin    = "gremlin"
	FormatOpenCypher = "opencypher"
)

var ErrUnknownFormat = errors.New("export: unknown format")

// AllFormats lists every supported export format.
var AllFormats = []string{FormatGDS, FormatGremlin, FormatOpenCypher}

// CheckFormats rejects unknown format names.
func CheckFormats(formats []string) error {
	for _, f := range formats {
		switch f {
		case FormatGDS, FormatGremlin, FormatOpenCypher:
		default:
			return fmt.Errorf("%w: %q", ErrUnknownFormat, f)
		}
	}
	return nil
}

type Exporter struct {
	Dir     string
	Formats []string
	// Parallelism bounds concurrent file writers; 0 means 4.
	Parallelism int
	Logger      *zap.Logger
}

type job struct {
	path  string
	write func(path string) error
}

func csvJob(path string, write func(w io.Writer) error) job {
	return job{path: path, write: func(p string) error {
		return dataset.WriteFileAtomic(p, write)
	}}
}

// Export writes one file per node type and per edge type for every
// configured format and returns the written paths in sorted order.
func (x *Exporter) Export(ctx context.Context, nodes []model.Node, attrs []model.NodeAttributes, edgeList []model.Edge) ([]string, error) {
	if err := CheckFormats(x.Formats); err != nil {
		return nil, err
	}
	logger := x.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	attrsByType := map[string][]model.NodeAttributes{}
	for _, a := range attrs {
		attrsByType[a.NodeType] = append(attrsByType[a.NodeType], a)
	}
	edgesByType := map[string][]model.Edge{}
	for _, e := range edgeList {
		edgesByType[e.Type] = append(edgesByType[e.Type], e)
	}

	var jobs []job
	for _, format := range x.Formats {
		dir := filepath.Join(x.Dir, format)
		switch format {
		case FormatGDS:
			jobs = append(jobs,
				job{path: filepath.Join(dir, "nodes.json"), write: func(p string) error { return dataset.WriteNodes(p, nodes) }},
				job{path: filepath.Join(dir, "edges.json"), write: func(p string) error { return dataset.WriteEdges(p, edgeList) }},
			)
			for typ, group := range attrsByType {
				jobs = append(jobs, job{path: filepath.Join(dir, typ+"_attributes.json"),
					write: func(p string) error { return dataset.WriteAttributes(p, group) }})
			}
		case FormatGremlin, FormatOpenCypher:
			writeNodes, writeEdges := WriteGremlinNodes, WriteGremlinEdges
			if format == FormatOpenCypher {
				writeNodes, writeEdges = WriteOpenCypherNodes, WriteOpenCypherEdges
			}
			for typ, group := range attrsByType {
				jobs = append(jobs, csvJob(filepath.Join(dir, typ+"_nodes.csv"),
					func(w io.Writer) error { return writeNodes(w, group) }))
			}
			for typ, group := range edgesByType {
				jobs = append(jobs, csvJob(filepath.Join(dir, typ+"_edges.csv"),
					func(w io.Writer) error { return writeEdges(w, group) }))
			}
		}
	}

	limit := x.Parallelism
	if limit <= 0 {
		limit = 4
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	var mu sync.Mutex
	written := make([]string, 0, len(jobs))
	for _, j := range jobs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			if err := j.write(j.path); err != nil {
				return fmt.Errorf("export %s: %w", j.path, err)
			}
			mu.Lock()
			written = append(written, j.path)
			mu.Unlock()
			logger.Debug("export file written", zap.String("path", j.path))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		logger.Error("export failed", zap.Error(err))
		return nil, err
	}

	sort.Strings(written)
	logger.Info("export complete", zap.Int("files", len(written)), zap.String("dir", x.Dir))
	return written, nil
}
