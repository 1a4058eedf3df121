package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/agenthands/graphmock/internal/core/edges"
	"github.com/agenthands/graphmock/internal/core/nodepool"
	"github.com/agenthands/graphmock/internal/core/synth"
	"github.com/agenthands/graphmock/internal/export"
)

var ErrInvalidConfig = errors.New("invalid configuration")

type NodesConfig struct {
	Count int                   `toml:"count"`
	Types nodepool.Distribution `toml:"types"`
}

type AttributesConfig struct {
	NamePolicy             string `toml:"name_policy"`
	MinNameVariants        int    `toml:"min_name_variants"`
	MaxNameVariants        int    `toml:"max_name_variants"`
	MaxBirthDateVariants   int    `toml:"max_birth_date_variants"`
	MaxBirthDateOffsetDays int    `toml:"max_birth_date_offset_days"`
	MaxANumbers            int    `toml:"max_anumbers"`
	ANumberWidth           int    `toml:"anumber_width"`
	MinAge                 int    `toml:"min_age"`
	MaxAge                 int    `toml:"max_age"`
	// AsOf anchors birth dates, as YYYY-MM-DD; empty means today.
	AsOf string `toml:"as_of"`
}

type EdgesConfig struct {
	BatchSize  int          `toml:"batch_size"`
	UsageScope string       `toml:"usage_scope"`
	Rules      []edges.Rule `toml:"rules"`
}

type OutputConfig struct {
	Dir     string   `toml:"dir"`
	Formats []string `toml:"formats"`
}

type BoltConfig struct {
	URI       string `toml:"uri"`
	User      string `toml:"user"`
	Password  string `toml:"password"`
	Dialect   string `toml:"dialect"`
	BatchSize int    `toml:"batch_size"`
}

type PostgresConfig struct {
	URL       string `toml:"url"`
	BatchSize int    `toml:"batch_size"`
	Recreate  bool   `toml:"recreate"`
}

type S3Config struct {
	Bucket string `toml:"bucket"`
	Prefix string `toml:"prefix"`
	Region string `toml:"region"`
}

type LoggingConfig struct {
	Level       string `toml:"level"`
	Development bool   `toml:"development"`
}

type ServerConfig struct {
	Port string `toml:"port"`
	// MaxNodes caps the node count a single HTTP request may ask for.
	MaxNodes int `toml:"max_nodes"`
}

type Config struct {
	Seed       uint64           `toml:"seed"`
	Nodes      NodesConfig      `toml:"nodes"`
	Attributes AttributesConfig `toml:"attributes"`
	Edges      EdgesConfig      `toml:"edges"`
	Output     OutputConfig     `toml:"output"`
	Bolt       BoltConfig       `toml:"bolt"`
	Postgres   PostgresConfig   `toml:"postgres"`
	S3         S3Config         `toml:"s3"`
	Logging    LoggingConfig    `toml:"logging"`
	Server     ServerConfig     `toml:"server"`
}

// Default is a complete working configuration; files and the environment
// only override it.
func Default() *Config {
	so := synth.DefaultOptions()
	return &Config{
		Seed:  1,
		Nodes: NodesConfig{Count: 1000},
		Attributes: AttributesConfig{
			NamePolicy:             string(so.NamePolicy),
			MinNameVariants:        so.MinNameVariants,
			MaxNameVariants:        so.MaxNameVariants,
			MaxBirthDateVariants:   so.MaxBirthDateVariants,
			MaxBirthDateOffsetDays: so.MaxBirthDateOffsetDays,
			MaxANumbers:            so.MaxANumbers,
			ANumberWidth:           so.ANumberWidth,
			MinAge:                 so.MinAge,
			MaxAge:                 so.MaxAge,
		},
		Edges: EdgesConfig{
			BatchSize:  edges.DefaultBatchSize,
			UsageScope: string(edges.ScopeRun),
			Rules:      edges.DefaultRules(),
		},
		Output:  OutputConfig{Dir: "output", Formats: []string{export.FormatGDS}},
		Bolt:    BoltConfig{URI: "bolt://localhost:7687", Dialect: "memgraph", BatchSize: 1000},
		Logging: LoggingConfig{Level: "info"},
		Server:  ServerConfig{Port: "8080", MaxNodes: 100000},
	}
}

// Load reads a TOML file over Default.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", path, err)
	}

	cfg := Default()
	// Lists replace the defaults instead of merging into them.
	cfg.Edges.Rules = nil
	cfg.Output.Formats = nil
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse TOML: %w", err)
	}
	if cfg.Edges.Rules == nil {
		cfg.Edges.Rules = edges.DefaultRules()
	}
	if cfg.Output.Formats == nil {
		cfg.Output.Formats = []string{export.FormatGDS}
	}

	return cfg, nil
}

// ApplyEnv overrides fields from the environment. Unset variables leave the
// current value alone.
func (c *Config) ApplyEnv(getenv func(string) string) error {
	if getenv == nil {
		getenv = os.Getenv
	}
	if v := getenv("GRAPHMOCK_SEED"); v != "" {
		seed, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return fmt.Errorf("%w: GRAPHMOCK_SEED: %w", ErrInvalidConfig, err)
		}
		c.Seed = seed
	}
	if v := getenv("GRAPHMOCK_NODE_COUNT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: GRAPHMOCK_NODE_COUNT: %w", ErrInvalidConfig, err)
		}
		c.Nodes.Count = n
	}
	overrides := []struct {
		env    string
		target *string
	}{
		{"BOLT_URI", &c.Bolt.URI},
		{"BOLT_USER", &c.Bolt.User},
		{"BOLT_PASSWORD", &c.Bolt.Password},
		{"BOLT_DIALECT", &c.Bolt.Dialect},
		{"DATABASE_URL", &c.Postgres.URL},
		{"S3_BUCKET", &c.S3.Bucket},
		{"S3_PREFIX", &c.S3.Prefix},
		{"AWS_REGION", &c.S3.Region},
		{"LOG_LEVEL", &c.Logging.Level},
		{"PORT", &c.Server.Port},
		{"GRAPHMOCK_OUTPUT_DIR", &c.Output.Dir},
	}
	for _, o := range overrides {
		if v := getenv(o.env); v != "" {
			*o.target = v
		}
	}
	return nil
}

// SynthOptions converts the attributes section.
func (c *Config) SynthOptions() (synth.Options, error) {
	a := c.Attributes
	opts := synth.Options{
		NamePolicy:             synth.NamePolicy(a.NamePolicy),
		MinNameVariants:        a.MinNameVariants,
		MaxNameVariants:        a.MaxNameVariants,
		MaxBirthDateVariants:   a.MaxBirthDateVariants,
		MaxBirthDateOffsetDays: a.MaxBirthDateOffsetDays,
		MaxANumbers:            a.MaxANumbers,
		ANumberWidth:           a.ANumberWidth,
		MinAge:                 a.MinAge,
		MaxAge:                 a.MaxAge,
	}
	if a.AsOf != "" {
		t, err := parseDate(a.AsOf)
		if err != nil {
			return opts, fmt.Errorf("%w: attributes.as_of: %w", ErrInvalidConfig, err)
		}
		opts.AsOf = t
	}
	return opts, nil
}

// Validate checks every section so a run fails before writing anything.
func (c *Config) Validate() error {
	if c.Nodes.Count < 0 {
		return fmt.Errorf("%w: nodes.count %d", ErrInvalidConfig, c.Nodes.Count)
	}
	if err := c.Nodes.Types.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	opts, err := c.SynthOptions()
	if err != nil {
		return err
	}
	if err := opts.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if err := edges.ValidateRules(c.Edges.Rules); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	switch edges.UsageScope(c.Edges.UsageScope) {
	case edges.ScopeRun, edges.ScopeRule:
	default:
		return fmt.Errorf("%w: edges.usage_scope %q", ErrInvalidConfig, c.Edges.UsageScope)
	}
	if err := export.CheckFormats(c.Output.Formats); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if c.Output.Dir == "" {
		return fmt.Errorf("%w: output.dir is empty", ErrInvalidConfig)
	}
	return nil
}

func parseDate(s string) (time.Time, error) {
	return time.Parse("2006-01-02", s)
}

// Resolve loads path (or Default when path is empty), applies the
// environment and validates the result.
func Resolve(path string, getenv func(string) string) (*Config, error) {
	cfg := Default()
	if path != "" {
		var err error
		if cfg, err = Load(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.ApplyEnv(getenv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
