package jsondb

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/goliatone/go-jsondb/codec"
	"github.com/goliatone/go-jsondb/document"
	"github.com/goliatone/go-jsondb/pkg/activity"
	"github.com/goliatone/go-jsondb/pkg/storage"
)

// Store holds one JSON document in memory, persists it through a storage
// backend and notifies watchers of writes made through Data.
type Store struct {
	path string
	cfg  storeConfig

	mu       sync.RWMutex
	data     *document.Wrapped
	lastSync []byte

	watchMu  sync.Mutex
	watchers []*watcher

	depth   atomic.Int32
	emitter *activity.Emitter

	evalOnce  sync.Once
	evaluator Evaluator
}

// Result is one node matched by Find or FindExpr.
type Result struct {
	// Value is a scalar (nil, bool, float64, string) or a *document.Wrapped.
	Value any
	Path  string
}

// Predicate selects nodes during Find. value is presented like
// document.Wrapped.Lookup presents it.
type Predicate func(value any, path string) bool

// WatchFunc receives the previous and the new raw value written at a watched
// path. nil stands for an absent value.
type WatchFunc func(oldValue, newValue *document.Value)

// RuleContext carries the inputs of one expression evaluation during
// FindExpr.
type RuleContext struct {
	// Value is the visited node exported as plain Go values.
	Value    any
	Path     string
	Key      string
	Depth    int
	Now      *time.Time
	Args     map[string]any
	Metadata map[string]any
}

func (ctx RuleContext) withDefaultNow() RuleContext {
	if ctx.Now != nil {
		return ctx
	}
	now := time.Now()
	ctx.Now = &now
	return ctx
}

func (ctx RuleContext) timestamp() time.Time {
	ctx = ctx.withDefaultNow()
	return *ctx.Now
}

func (ctx RuleContext) withDefaultMaps() RuleContext {
	if ctx.Args == nil {
		ctx.Args = map[string]any{}
	}
	if ctx.Metadata == nil {
		ctx.Metadata = map[string]any{}
	}
	return ctx
}

func (ctx RuleContext) withDefaults() RuleContext {
	return ctx.withDefaultNow().withDefaultMaps()
}

func (ctx RuleContext) pathLabel() string {
	if ctx.Path == "" {
		return "<root>"
	}
	return ctx.Path
}

// bindings returns the variables shared by every engine.
func (ctx RuleContext) bindings() map[string]any {
	return map[string]any{
		"value":    ctx.Value,
		"path":     ctx.Path,
		"key":      ctx.Key,
		"depth":    ctx.Depth,
		"now":      ctx.timestamp(),
		"args":     ctx.Args,
		"metadata": ctx.Metadata,
	}
}

// fields returns the visited object's fields, or nil for other kinds.
func (ctx RuleContext) fields() map[string]any {
	fields, _ := ctx.Value.(map[string]any)
	return fields
}

// Evaluator executes expressions against a rule context.
type Evaluator interface {
	Evaluate(ctx RuleContext, expr string) (any, error)
	Compile(expr string) (CompiledRule, error)
}

// CompiledRule represents a reusable expression program.
type CompiledRule interface {
	Evaluate(ctx RuleContext) (any, error)
}

// Option configures a Store.
type Option func(*storeConfig)

type storeConfig struct {
	backend        storage.Backend
	codec          codec.Codec
	logger         *slog.Logger
	evaluator      Evaluator
	programCache   ProgramCache
	functions      *FunctionRegistry
	evalLogger     EvaluatorLogger
	activityHooks  activity.Hooks
	activityConfig activity.Config
	maxNotifyDepth int
}

// DefaultMaxNotifyDepth bounds nested dispatch when watchers write to the
// document from inside their callbacks.
const DefaultMaxNotifyDepth = 32

func applyOptions(path string, opts []Option) storeConfig {
	cfg := storeConfig{
		maxNotifyDepth: DefaultMaxNotifyDepth,
		activityConfig: activity.Config{Enabled: true},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	if cfg.backend == nil {
		cfg.backend = storage.NewFileBackend(path)
	}
	if cfg.codec == nil {
		cfg.codec = codec.JSON(codec.DefaultIndent)
	}
	if cfg.logger == nil {
		cfg.logger = slog.Default()
	}
	if cfg.evalLogger == nil {
		cfg.evalLogger = noopEvaluatorLogger{}
	}
	return cfg
}
