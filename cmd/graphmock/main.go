package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/agenthands/graphmock/internal/config"
	"github.com/agenthands/graphmock/internal/logging"
)

type command struct {
	summary string
	run     func(ctx context.Context, args []string) error
}

var commands = map[string]command{
	"generate":      {"generate nodes, attributes and edges, validate them and export", runGenerate},
	"nodes":         {"write a node pool to a CSV or JSON file", runNodes},
	"validate":      {"check node, edge and attribute files for referential integrity", runValidate},
	"load-bolt":     {"load a gds export into Neo4j, Memgraph or Neptune over Bolt", runLoadBolt},
	"load-postgres": {"load a gds export into Postgres staging tables", runLoadPostgres},
	"upload":        {"upload export files to S3 for bulk loading", runUpload},
}

// environment carries what every subcommand needs once flags are parsed.
type environment struct {
	cfg    *config.Config
	logger *zap.Logger
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: graphmock <command> [flags]")
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(os.Stderr, "  %-14s %s\n", name, commands[name].summary)
	}
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}
	cmd, ok := commands[os.Args[1]]
	if !ok {
		usage()
		os.Exit(2)
	}

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using defaults")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cmd.run(ctx, os.Args[2:]); err != nil {
		fmt.Fprintf(os.Stderr, "graphmock %s: %v\n", os.Args[1], err)
		os.Exit(1)
	}
}

// setup parses fs with the shared -config flag and builds the environment.
func setup(fs *flag.FlagSet, args []string) (*environment, error) {
	configPath := fs.String("config", os.Getenv("CONFIG_PATH"), "TOML configuration file")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	cfg, err := config.Resolve(*configPath, os.Getenv)
	if err != nil {
		return nil, err
	}
	logger, err := logging.New(cfg.Logging)
	if err != nil {
		return nil, err
	}
	return &environment{cfg: cfg, logger: logger}, nil
}
