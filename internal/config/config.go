package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"gopkg.in/yaml.v3"

	"github.com/roach88/asyncpool/internal/bootstrap"
	"github.com/roach88/asyncpool/internal/pool"
)

//go:embed schema.cue
var schemaSource string

// Config is the node configuration.
type Config struct {
	Pool      PoolSection      `yaml:"pool" json:"pool"`
	Store     StoreSection     `yaml:"store" json:"store"`
	Bootstrap BootstrapSection `yaml:"bootstrap" json:"bootstrap"`
	Metrics   MetricsSection   `yaml:"metrics" json:"metrics"`
}

// PoolSection mirrors pool.Config.
type PoolSection struct {
	ThreadCount       uint8  `yaml:"thread_count" json:"thread_count"`
	MaxLength         uint64 `yaml:"max_length" json:"max_length"`
	MaxMessageData    uint64 `yaml:"max_message_data" json:"max_message_data"`
	MaxKeyLength      uint32 `yaml:"max_key_length" json:"max_key_length"`
	BootstrapPartSize uint64 `yaml:"bootstrap_part_size" json:"bootstrap_part_size"`
}

// StoreSection locates the SQLite database.
type StoreSection struct {
	Path string `yaml:"path" json:"path"`
}

// BootstrapSection configures the bootstrap transport.
type BootstrapSection struct {
	Listen       []string `yaml:"listen" json:"listen"`
	MaxFrameSize uint64   `yaml:"max_frame_size" json:"max_frame_size"`
	VerifyHash   bool     `yaml:"verify_hash" json:"verify_hash"`
}

// MetricsSection configures the Prometheus endpoint. An empty Listen disables it.
type MetricsSection struct {
	Listen string `yaml:"listen" json:"listen"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Pool: PoolSection{
			ThreadCount:       32,
			MaxLength:         10_000,
			MaxMessageData:    1_000_000,
			MaxKeyLength:      255,
			BootstrapPartSize: 100,
		},
		Store: StoreSection{Path: "asyncpool.db"},
		Bootstrap: BootstrapSection{
			Listen:       []string{"/ip4/0.0.0.0/tcp/31245"},
			MaxFrameSize: bootstrap.DefaultMaxFrameSize,
			VerifyHash:   true,
		},
	}
}

// Load reads path and overlays it on Default. Unknown keys are rejected.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML over Default and validates the result.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks c against the CUE schema and the pool bounds.
func (c Config) Validate() error {
	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return fmt.Errorf("config schema: %w", err)
	}

	if c.Bootstrap.Listen == nil {
		c.Bootstrap.Listen = []string{}
	}
	v := schema.LookupPath(cue.ParsePath("#Config")).Unify(ctx.Encode(c))
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return &Error{Details: cueerrors.Details(err, nil)}
	}

	if err := c.PoolConfig().Validate(); err != nil {
		return &Error{Details: err.Error()}
	}
	return nil
}

// PoolConfig returns the pool section as a pool.Config.
func (c Config) PoolConfig() pool.Config {
	return pool.Config{
		ThreadCount:       c.Pool.ThreadCount,
		MaxLength:         c.Pool.MaxLength,
		MaxMessageData:    c.Pool.MaxMessageData,
		MaxKeyLength:      c.Pool.MaxKeyLength,
		BootstrapPartSize: c.Pool.BootstrapPartSize,
	}
}

// Error reports a configuration that failed validation.
type Error struct {
	Details string
}

func (e *Error) Error() string {
	return "invalid config: " + e.Details
}
