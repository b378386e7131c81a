package jsondb

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/goliatone/go-jsondb/pkg/activity"
)

// WatchFile reloads the document whenever the backing file is changed by
// someone else. It watches the file's directory so atomic replacements are
// seen, and ignores contents identical to what the Store last read or
// wrote. Watching stops when ctx is done. Reload errors are logged and the
// current document is kept.
//
// Reloads replace the root like Read does; callers that mutate the document
// concurrently must serialize against them.
func (s *Store) WatchFile(ctx context.Context) error {
	target, err := filepath.Abs(s.path)
	if err != nil {
		return fmt.Errorf("jsondb: watch %s: %w", s.path, err)
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("jsondb: watch %s: %w", s.path, err)
	}
	if err := w.Add(filepath.Dir(target)); err != nil {
		_ = w.Close()
		return fmt.Errorf("jsondb: watch %s: %w", s.path, err)
	}
	go func() {
		defer func() { _ = w.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != target {
					continue
				}
				if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
					s.reload(ctx)
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				s.cfg.logger.WarnContext(ctx, "jsondb: file watch error", slog.Any("error", err))
			}
		}
	}()
	return nil
}

func (s *Store) reload(ctx context.Context) {
	payload, meta, err := s.cfg.backend.Load(ctx)
	if err != nil {
		s.cfg.logger.WarnContext(ctx, "jsondb: reload failed",
			slog.String("location", s.location()),
			slog.Any("error", err),
		)
		return
	}
	s.mu.RLock()
	unchanged := bytes.Equal(payload, s.lastSync)
	s.mu.RUnlock()
	if unchanged {
		return
	}
	if err := s.load(payload); err != nil {
		s.cfg.logger.WarnContext(ctx, "jsondb: reload skipped, document does not parse",
			slog.String("location", s.location()),
			slog.Any("error", err),
		)
		return
	}
	s.cfg.logger.InfoContext(ctx, "jsondb: document reloaded",
		slog.String("location", s.location()),
		slog.Int("size", len(payload)),
	)
	s.emit(ctx, activity.BuildDocumentLoadedEvent(s.eventInput(meta.Size)))
}
