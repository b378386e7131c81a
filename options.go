package jsondb

import (
	"log/slog"

	"github.com/goliatone/go-jsondb/codec"
	"github.com/goliatone/go-jsondb/pkg/activity"
	"github.com/goliatone/go-jsondb/pkg/storage"
)

// WithBackend replaces the default file backend.
func WithBackend(backend storage.Backend) Option {
	return func(cfg *storeConfig) {
		cfg.backend = backend
	}
}

// WithCodec replaces the default JSON codec.
func WithCodec(c codec.Codec) Option {
	return func(cfg *storeConfig) {
		cfg.codec = c
	}
}

// WithIndent sets the JSON indentation width. It replaces any codec set
// earlier in the option list.
func WithIndent(spaces int) Option {
	return func(cfg *storeConfig) {
		cfg.codec = codec.JSON(spaces)
	}
}

// WithLogger sets the logger used for swallowed write errors, dropped
// notifications and reloads. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *storeConfig) {
		cfg.logger = logger
	}
}

// WithMaxNotifyDepth bounds how deeply watcher callbacks may trigger further
// notifications. Values below one disable the bound.
func WithMaxNotifyDepth(depth int) Option {
	return func(cfg *storeConfig) {
		cfg.maxNotifyDepth = depth
	}
}

// WithEvaluator configures the engine used by FindExpr. Defaults to expr.
func WithEvaluator(e Evaluator) Option {
	return func(cfg *storeConfig) {
		cfg.evaluator = e
	}
}

// WithActivityConfig sets emitter defaults. Emission is enabled by default
// once hooks are attached.
func WithActivityConfig(config activity.Config) Option {
	return func(cfg *storeConfig) {
		cfg.activityConfig = config
	}
}
