package jsondb

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/goliatone/go-jsondb/document"
	"github.com/goliatone/go-jsondb/pkg/activity"
	"github.com/goliatone/go-jsondb/pkg/storage"
)

// New builds a Store around initialData without touching the backing file.
// A nil initialData starts from an empty object. Call Read to load the file.
func New(filePath string, initialData any, opts ...Option) (*Store, error) {
	root := document.NewObject()
	if initialData != nil {
		converted, err := document.From(initialData)
		if err != nil {
			return nil, fmt.Errorf("jsondb: initial data: %w", err)
		}
		root = converted
	}
	cfg := applyOptions(filePath, opts)
	s := &Store{
		path:    filePath,
		cfg:     cfg,
		emitter: activity.NewEmitter(cfg.activityHooks, cfg.activityConfig),
	}
	s.install(root)
	return s, nil
}

// Path returns the file path given to New.
func (s *Store) Path() string {
	return s.path
}

// Data returns the intercepting view over the current root. Views obtained
// before a Read keep pointing at the replaced document.
func (s *Store) Data() *document.Wrapped {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data
}

// Get resolves a dotted path from the root. Scalars are returned as plain Go
// values and composites as *document.Wrapped.
func (s *Store) Get(path string) (any, bool) {
	return s.Data().GetAt(path)
}

// Read loads the backing document and replaces the in-memory one. A missing
// document is created from the current data. A document that fails to
// decode returns a *ParseError and leaves the current data in place.
func (s *Store) Read(ctx context.Context) error {
	payload, meta, err := s.cfg.backend.Load(ctx)
	if errors.Is(err, storage.ErrNotFound) {
		saved, err := s.save(ctx)
		if err != nil {
			return err
		}
		s.emit(ctx, activity.BuildDocumentInitializedEvent(s.eventInput(saved.Size)))
		return nil
	}
	if err != nil {
		return fmt.Errorf("jsondb: read %s: %w", s.location(), err)
	}
	if err := s.load(payload); err != nil {
		return err
	}
	s.emit(ctx, activity.BuildDocumentLoadedEvent(s.eventInput(meta.Size)))
	return nil
}

// Write persists the current document. Failures are logged and dropped; use
// Flush to observe them.
func (s *Store) Write(ctx context.Context) {
	if err := s.Flush(ctx); err != nil {
		s.cfg.logger.Error("jsondb: write failed",
			slog.String("location", s.location()),
			slog.Any("error", err),
		)
	}
}

// Flush persists the current document and returns any encode or I/O error.
func (s *Store) Flush(ctx context.Context) error {
	meta, err := s.save(ctx)
	if err != nil {
		return err
	}
	s.emit(ctx, activity.BuildDocumentSavedEvent(s.eventInput(meta.Size)))
	return nil
}

// save encodes and stores the current document. lastSync is updated before
// the backend is called so a file watcher never mistakes the Store's own
// write for an external edit; it is restored when the save fails.
func (s *Store) save(ctx context.Context) (storage.Meta, error) {
	root := s.Data().Raw()
	payload, err := s.cfg.codec.Encode(root)
	if err != nil {
		return storage.Meta{}, fmt.Errorf("jsondb: write %s: %w", s.location(), err)
	}
	s.mu.Lock()
	previous := s.lastSync
	s.lastSync = payload
	s.mu.Unlock()

	meta, err := s.cfg.backend.Save(ctx, payload)
	if err != nil {
		s.mu.Lock()
		if bytes.Equal(s.lastSync, payload) {
			s.lastSync = previous
		}
		s.mu.Unlock()
		return storage.Meta{}, fmt.Errorf("jsondb: write %s: %w", s.location(), err)
	}
	return meta, nil
}

// load decodes payload and installs it as the new root.
func (s *Store) load(payload []byte) error {
	root, err := s.cfg.codec.Decode(payload)
	if err != nil {
		return &ParseError{Location: s.location(), Codec: s.cfg.codec.Name(), Err: err}
	}
	s.mu.Lock()
	s.lastSync = append([]byte(nil), payload...)
	s.mu.Unlock()
	s.install(root)
	return nil
}

func (s *Store) install(root *document.Value) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = document.Wrap(root, s.notify, "")
}

// location names the backing document in errors and logs.
func (s *Store) location() string {
	if locator, ok := s.cfg.backend.(storage.Locator); ok {
		if loc := locator.Location(); loc != "" {
			return loc
		}
	}
	return s.path
}
