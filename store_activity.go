package jsondb

import (
	"context"
	"log/slog"
	"time"

	"github.com/goliatone/go-jsondb/document"
	"github.com/goliatone/go-jsondb/pkg/activity"
)

// WithActivityHooks attaches activity hooks notified of document changes,
// loads and saves. Hooks are cloned and nil entries dropped.
func WithActivityHooks(hooks activity.Hooks) Option {
	normalized := cloneActivityHooks(hooks)
	return func(cfg *storeConfig) {
		cfg.activityHooks = normalized
	}
}

// ActivityHooks returns a copy of the configured hooks.
func (s *Store) ActivityHooks() activity.Hooks {
	if s == nil {
		return nil
	}
	return cloneActivityHooks(s.cfg.activityHooks)
}

func cloneActivityHooks(hooks activity.Hooks) activity.Hooks {
	if len(hooks) == 0 {
		return nil
	}
	normalized := make([]activity.ActivityHook, 0, len(hooks))
	for _, hook := range hooks {
		if hook == nil {
			continue
		}
		normalized = append(normalized, hook)
	}
	if len(normalized) == 0 {
		return nil
	}
	return activity.Hooks(normalized)
}

func (s *Store) eventInput(size int) activity.DocumentEventInput {
	return activity.DocumentEventInput{
		Location:   s.location(),
		Size:       size,
		OccurredAt: time.Now(),
	}
}

func (s *Store) emitChanged(ctx context.Context, path string, oldValue, newValue *document.Value) {
	if !s.emitter.Enabled() {
		return
	}
	input := s.eventInput(0)
	input.Path = path
	input.OldValue = exportValue(oldValue)
	input.NewValue = exportValue(newValue)
	s.emit(ctx, activity.BuildDocumentChangedEvent(input))
}

// emit forwards event to the hooks. Hook failures never fail the store
// operation that produced the event.
func (s *Store) emit(ctx context.Context, event activity.Event) {
	if !s.emitter.Enabled() {
		return
	}
	if err := s.emitter.Emit(ctx, event); err != nil {
		s.cfg.logger.Warn("jsondb: activity hook failed",
			slog.String("verb", event.Verb),
			slog.String("path", event.Path),
			slog.Any("error", err),
		)
	}
}

func exportValue(v *document.Value) any {
	if v == nil {
		return nil
	}
	return v.Interface()
}
