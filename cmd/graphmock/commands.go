package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/agenthands/graphmock/internal/core"
	"github.com/agenthands/graphmock/internal/core/common"
	"github.com/agenthands/graphmock/internal/core/edges"
	"github.com/agenthands/graphmock/internal/core/model"
	"github.com/agenthands/graphmock/internal/core/nodepool"
	"github.com/agenthands/graphmock/internal/core/validate"
	"github.com/agenthands/graphmock/internal/dataset"
	"github.com/agenthands/graphmock/internal/driver"
	"github.com/agenthands/graphmock/internal/export"
	"github.com/agenthands/graphmock/internal/loader"
	"github.com/agenthands/graphmock/internal/sqlstore"
	"github.com/agenthands/graphmock/internal/staging"
)

var errValidationFailed = errors.New("validation failed")

func runGenerate(ctx context.Context, args []string) error {
	flags := flag.NewFlagSet("generate", flag.ExitOnError)
	seed := flags.Int64("seed", -1, "override the configured seed")
	count := flags.Int("count", -1, "override the configured node count")
	out := flags.String("out", "", "override the output directory")
	formats := flags.String("formats", "", "comma separated export formats (gds, gremlin, opencypher)")
	env, err := setup(flags, args)
	if err != nil {
		return err
	}
	defer env.logger.Sync()

	cfg := env.cfg
	if *seed >= 0 {
		cfg.Seed = uint64(*seed)
	}
	if *count >= 0 {
		cfg.Nodes.Count = *count
	}
	if *out != "" {
		cfg.Output.Dir = *out
	}
	if *formats != "" {
		cfg.Output.Formats = strings.Split(*formats, ",")
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	_, summary, err := core.NewMockGraph(cfg, env.logger).Run(ctx)
	if err != nil {
		return err
	}

	path := filepath.Join(cfg.Output.Dir, "summary.json")
	if err := dataset.WriteFileAtomic(path, func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(summary)
	}); err != nil {
		return err
	}

	fmt.Print(summary.Report.String())
	for _, typ := range sortedKeys(summary.Attribute) {
		r := summary.Attribute[typ]
		fmt.Printf("Attributes %s: %d total, %d valid, %d invalid\n", typ, r.Total, r.Valid, r.Invalid)
	}
	fmt.Printf("Wrote %d files and %s\n", len(summary.Files), path)
	if !summary.OK() {
		return errValidationFailed
	}
	return nil
}

func runNodes(ctx context.Context, args []string) error {
	flags := flag.NewFlagSet("nodes", flag.ExitOnError)
	out := flags.String("out", "nodes.csv", "output file (.csv, .json or .jsonl)")
	count := flags.Int("count", -1, "override the configured node count")
	types := flags.String("types", "", "comma separated node types drawn uniformly")
	env, err := setup(flags, args)
	if err != nil {
		return err
	}
	defer env.logger.Sync()

	cfg := env.cfg
	if *count >= 0 {
		cfg.Nodes.Count = *count
	}
	if *types != "" {
		cfg.Nodes.Types = nodepool.Uniform(strings.Split(*types, ",")...)
	}

	rng := common.NewRand(cfg.Seed)
	nodes, err := nodepool.Generate(cfg.Nodes.Count, cfg.Nodes.Types, rng, common.NewUUIDGenerator(rng))
	if err != nil {
		return err
	}
	if err := dataset.WriteNodes(*out, nodes); err != nil {
		return err
	}
	env.logger.Info("node pool written", zap.String("path", *out), zap.Any("types", nodepool.TypeCounts(nodes)))
	return nil
}

func runValidate(ctx context.Context, args []string) error {
	flags := flag.NewFlagSet("validate", flag.ExitOnError)
	nodesPath := flags.String("nodes", "", "node file (required)")
	edgesPath := flags.String("edges", "", "edge file (required)")
	attrsPath := flags.String("attributes", "", "attribute file")
	asJSON := flags.Bool("json", false, "print the report as JSON")
	env, err := setup(flags, args)
	if err != nil {
		return err
	}
	defer env.logger.Sync()
	if *nodesPath == "" || *edgesPath == "" {
		return errors.New("-nodes and -edges are required")
	}

	nodes, stats, err := dataset.ReadNodes(*nodesPath)
	if err != nil {
		return err
	}
	logSkips(env.logger, *nodesPath, stats)
	edgeList, stats, err := dataset.ReadEdges(*edgesPath)
	if err != nil {
		return err
	}
	logSkips(env.logger, *edgesPath, stats)

	report := validate.New(env.cfg.Edges.Rules, edges.UsageScope(env.cfg.Edges.UsageScope)).Validate(nodes, edgeList)
	ok := report.OK()

	var attrReports map[string]*model.AttributeReport
	if *attrsPath != "" {
		attrs, stats, err := dataset.ReadAttributes(*attrsPath)
		if err != nil {
			return err
		}
		logSkips(env.logger, *attrsPath, stats)
		attrReports = validate.ValidateAttributesByType(nodes, attrs)
		for _, r := range attrReports {
			ok = ok && r.Invalid == 0
		}
	}

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(map[string]any{"ok": ok, "report": report, "attribute_reports": attrReports}); err != nil {
			return err
		}
	} else {
		fmt.Print(report.String())
		for _, typ := range sortedKeys(attrReports) {
			r := attrReports[typ]
			fmt.Printf("Attributes %s: %d total, %d valid, %d invalid, missing %v, wrong type %v, bad variants %v\n",
				typ, r.Total, r.Valid, r.Invalid,
				model.Sample(r.Missing, model.SampleSize), model.Sample(r.WrongType, model.SampleSize), model.Sample(r.BadVariants, model.SampleSize))
		}
	}
	if !ok {
		return errValidationFailed
	}
	return nil
}

func runLoadBolt(ctx context.Context, args []string) error {
	flags := flag.NewFlagSet("load-bolt", flag.ExitOnError)
	dir := flags.String("dir", "", "gds export directory (defaults to <output.dir>/gds)")
	reset := flags.Bool("reset", false, "delete existing mock nodes first")
	env, err := setup(flags, args)
	if err != nil {
		return err
	}
	defer env.logger.Sync()

	attrs, edgeList, err := readExport(env, *dir)
	if err != nil {
		return err
	}

	b := env.cfg.Bolt
	d, err := driver.NewBoltDriver(ctx, b.URI, b.User, b.Password, driver.Dialect(b.Dialect), env.logger)
	if err != nil {
		return err
	}
	defer d.Close(ctx)

	l := loader.New(d, b.BatchSize, env.logger)
	if *reset {
		if err := l.Reset(ctx); err != nil {
			return err
		}
	}
	stats, err := l.Load(ctx, attrs, edgeList)
	if err != nil {
		return err
	}
	nodes, rels, err := l.Counts(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("Loaded %d nodes and %d edges in %d batches; graph now holds %d nodes and %d edges\n",
		stats.Nodes, stats.Edges, stats.Batches, nodes, rels)
	return nil
}

func runLoadPostgres(ctx context.Context, args []string) error {
	flags := flag.NewFlagSet("load-postgres", flag.ExitOnError)
	dir := flags.String("dir", "", "gds export directory (defaults to <output.dir>/gds)")
	env, err := setup(flags, args)
	if err != nil {
		return err
	}
	defer env.logger.Sync()

	p := env.cfg.Postgres
	if p.URL == "" {
		return errors.New("postgres url is not configured (DATABASE_URL)")
	}
	attrs, edgeList, err := readExport(env, *dir)
	if err != nil {
		return err
	}

	pool, err := sqlstore.Open(ctx, p.URL)
	if err != nil {
		return err
	}
	defer pool.Close()

	store := sqlstore.New(pool, p.BatchSize, env.logger)
	if err := store.CreateSchema(ctx, p.Recreate); err != nil {
		return err
	}
	stats, err := store.Load(ctx, attrs, edgeList)
	if err != nil {
		return err
	}
	fmt.Printf("Inserted %d nodes and %d edges; %d edges skipped for missing endpoints\n", stats.Nodes, stats.Edges, stats.SkippedEdges)
	return nil
}

func runUpload(ctx context.Context, args []string) error {
	flags := flag.NewFlagSet("upload", flag.ExitOnError)
	dir := flags.String("dir", "", "directory to upload (defaults to output.dir)")
	env, err := setup(flags, args)
	if err != nil {
		return err
	}
	defer env.logger.Sync()

	base := *dir
	if base == "" {
		base = env.cfg.Output.Dir
	}
	var files []string
	err = filepath.WalkDir(base, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && !strings.HasPrefix(d.Name(), ".") {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s3c := env.cfg.S3
	client, err := staging.NewS3Client(ctx, s3c.Region)
	if err != nil {
		return err
	}
	u := &staging.Uploader{Client: client, Bucket: s3c.Bucket, Prefix: s3c.Prefix, Logger: env.logger}
	objs, err := u.Upload(ctx, base, files)
	if err != nil {
		return err
	}
	fmt.Printf("Uploaded %d objects to %s\n", len(objs), u.URI())
	return nil
}

// readExport reads every <type>_attributes.json and edges.json from a gds
// export directory.
func readExport(env *environment, dir string) ([]model.NodeAttributes, []model.Edge, error) {
	if dir == "" {
		dir = filepath.Join(env.cfg.Output.Dir, export.FormatGDS)
	}
	paths, err := filepath.Glob(filepath.Join(dir, "*_attributes.json"))
	if err != nil {
		return nil, nil, err
	}
	if len(paths) == 0 {
		return nil, nil, fmt.Errorf("no attribute files in %s", dir)
	}
	sort.Strings(paths)

	var attrs []model.NodeAttributes
	for _, p := range paths {
		batch, stats, err := dataset.ReadAttributes(p)
		if err != nil {
			return nil, nil, err
		}
		logSkips(env.logger, p, stats)
		attrs = append(attrs, batch...)
	}

	edgesPath := filepath.Join(dir, "edges.json")
	edgeList, stats, err := dataset.ReadEdges(edgesPath)
	if err != nil {
		return nil, nil, err
	}
	logSkips(env.logger, edgesPath, stats)
	return attrs, edgeList, nil
}

func logSkips(logger *zap.Logger, path string, stats dataset.Stats) {
	if stats.Skipped == 0 {
		return
	}
	logger.Warn("records skipped", zap.String("path", path), zap.Int("skipped", stats.Skipped), zap.Strings("reasons", stats.Reasons))
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
