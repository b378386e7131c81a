package jsondb

import (
	"fmt"

	"github.com/caarlos0/env/v11"

	"github.com/goliatone/go-jsondb/codec"
	"github.com/goliatone/go-jsondb/pkg/storage"
)

// Config describes a Store through environment variables.
type Config struct {
	Path string `env:"JSONDB_PATH"`
	// Format is "json" or "yaml". Empty picks by file extension.
	Format         string `env:"JSONDB_FORMAT"`
	Indent         int    `env:"JSONDB_INDENT" envDefault:"2"`
	AtomicWrites   bool   `env:"JSONDB_ATOMIC_WRITES" envDefault:"true"`
	MaxNotifyDepth int    `env:"JSONDB_MAX_NOTIFY_DEPTH" envDefault:"32"`
}

// LoadConfig reads Config from the process environment.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("jsondb: parse env: %w", err)
	}
	return cfg, nil
}

// LoadConfigFrom reads Config from the given variables instead of the
// process environment.
func LoadConfigFrom(environ map[string]string) (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Environment: environ}); err != nil {
		return Config{}, fmt.Errorf("jsondb: parse env: %w", err)
	}
	return cfg, nil
}

// Options converts cfg into Store options.
func (c Config) Options() ([]Option, error) {
	var selected codec.Codec
	if c.Format == "" {
		selected = codec.ForPath(c.Path, c.Indent)
	} else {
		byName, err := codec.ByName(c.Format, c.Indent)
		if err != nil {
			return nil, fmt.Errorf("jsondb: config: %w", err)
		}
		selected = byName
	}
	return []Option{
		WithCodec(selected),
		WithBackend(storage.NewFileBackend(c.Path, storage.WithAtomicWrites(c.AtomicWrites))),
		WithMaxNotifyDepth(c.MaxNotifyDepth),
	}, nil
}

// NewFromConfig builds a Store from cfg. opts are applied after the options
// derived from cfg and can override them.
func NewFromConfig(cfg Config, initialData any, opts ...Option) (*Store, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("jsondb: config: JSONDB_PATH is required")
	}
	derived, err := cfg.Options()
	if err != nil {
		return nil, err
	}
	return New(cfg.Path, initialData, append(derived, opts...)...)
}
