package jsondb

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/goliatone/go-jsondb/document"
)

type watcher struct {
	id       string
	path     string
	callback WatchFunc
	active   atomic.Bool
}

// Handle identifies a registered watcher.
type Handle struct {
	store *Store
	w     *watcher
}

// ID returns the watcher's unique identifier.
func (h *Handle) ID() string {
	if h == nil || h.w == nil {
		return ""
	}
	return h.w.id
}

// Path returns the watched path.
func (h *Handle) Path() string {
	if h == nil || h.w == nil {
		return ""
	}
	return h.w.path
}

// Remove unregisters the watcher. It never fires again afterwards, including
// later in a dispatch already under way. Calling Remove twice is a no-op.
func (h *Handle) Remove() {
	if h == nil || h.w == nil || !h.w.active.Swap(false) {
		return
	}
	h.store.unregister(h.w)
}

// Watch registers callback for writes whose full path equals path exactly.
// Writes to ancestors or descendants of path do not fire it. Callbacks run
// synchronously on the writing goroutine, in registration order.
func (s *Store) Watch(path string, callback WatchFunc) *Handle {
	w := &watcher{
		id:       uuid.NewString(),
		path:     path,
		callback: callback,
	}
	w.active.Store(true)
	s.watchMu.Lock()
	s.watchers = append(s.watchers, w)
	s.watchMu.Unlock()
	return &Handle{store: s, w: w}
}

// Watchers reports the number of registered watchers.
func (s *Store) Watchers() int {
	s.watchMu.Lock()
	defer s.watchMu.Unlock()
	return len(s.watchers)
}

func (s *Store) unregister(target *watcher) {
	s.watchMu.Lock()
	defer s.watchMu.Unlock()
	for i, w := range s.watchers {
		if w == target {
			s.watchers = append(s.watchers[:i:i], s.watchers[i+1:]...)
			return
		}
	}
}

// notify is the NotifyFunc handed to every wrapper of the root.
func (s *Store) notify(path string, oldValue, newValue *document.Value) {
	depth := s.depth.Add(1)
	defer s.depth.Add(-1)
	if limit := s.cfg.maxNotifyDepth; limit > 0 && int(depth) > limit {
		s.cfg.logger.Warn("jsondb: notification dropped, nested dispatch too deep",
			slog.String("path", path),
			slog.Int("depth", int(depth)),
		)
		return
	}

	s.dispatch(path, oldValue, newValue)
	s.emitChanged(context.Background(), path, oldValue, newValue)
}

// dispatch runs matching callbacks over a snapshot of the registry taken
// without holding the lock during the calls.
func (s *Store) dispatch(path string, oldValue, newValue *document.Value) {
	s.watchMu.Lock()
	matched := make([]*watcher, 0, len(s.watchers))
	for _, w := range s.watchers {
		if w.path == path {
			matched = append(matched, w)
		}
	}
	s.watchMu.Unlock()

	for _, w := range matched {
		if !w.active.Load() || w.callback == nil {
			continue
		}
		w.callback(oldValue, newValue)
	}
}
