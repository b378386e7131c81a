package jsondb

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-jsondb/document"
	"github.com/goliatone/go-jsondb/pkg/activity"
	"github.com/goliatone/go-jsondb/pkg/storage"
)

type change struct {
	Old any
	New any
}

func exported(v *document.Value) any {
	if v == nil {
		return "<undefined>"
	}
	return v.Interface()
}

func record(changes *[]change) WatchFunc {
	return func(oldValue, newValue *document.Value) {
		*changes = append(*changes, change{Old: exported(oldValue), New: exported(newValue)})
	}
}

func newMemoryStore(t *testing.T, initial any, opts ...Option) (*Store, *storage.MemoryBackend) {
	t.Helper()
	backend := storage.NewMemoryBackend()
	opts = append([]Option{WithBackend(backend)}, opts...)
	s, err := New("memory.json", initial, opts...)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	return s, backend
}

func itemsFixture() map[string]any {
	return map[string]any{
		"items": []any{
			map[string]any{"id": 1, "name": "item 1"},
			map[string]any{"id": 2, "name": "item 2"},
			map[string]any{"id": 3, "name": "item 1"},
		},
	}
}

func TestGetWalksPathSegments(t *testing.T) {
	s, _ := newMemoryStore(t, map[string]any{
		"something": map[string]any{"name": "chat", "tags": []any{"a", "b"}},
		"flag":      nil,
	})

	cases := []struct {
		path  string
		want  any
		found bool
	}{
		{"something.name", "chat", true},
		{"something.tags.1", "b", true},
		{"flag", nil, true},
		{"something.missing", nil, false},
		{"missing.deeper.still", nil, false},
		{"something.name.length", nil, false},
		{"something.tags.2", nil, false},
	}
	for _, tc := range cases {
		t.Run(tc.path, func(t *testing.T) {
			got, ok := s.Get(tc.path)
			if ok != tc.found {
				t.Fatalf("expected found=%v, got %v", tc.found, ok)
			}
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Fatalf("value mismatch (-want +got):\n%s", diff)
			}
		})
	}

	composite, ok := s.Get("something")
	if !ok {
		t.Fatalf("expected composite")
	}
	wrapped, ok := composite.(*document.Wrapped)
	if !ok || wrapped.Path() != "something" {
		t.Fatalf("expected wrapped view at something, got %#v", composite)
	}
}

func TestNewDefaultsToEmptyObject(t *testing.T) {
	s, _ := newMemoryStore(t, nil)
	if s.Data().Kind() != document.KindObject || s.Data().Len() != 0 {
		t.Fatalf("expected empty object, got %s", s.Data())
	}
	if _, err := New("x.json", func() {}); err == nil {
		t.Fatalf("expected unsupported initial data error")
	}
}

func TestWriteReadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db.json")
	ctx := context.Background()

	first, err := New(path, itemsFixture())
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	first.Write(ctx)

	second, err := New(path, nil)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if err := second.Read(ctx); err != nil {
		t.Fatalf("read: %v", err)
	}
	if !first.Data().Raw().Equal(second.Data().Raw()) {
		t.Fatalf("round trip mismatch:\nwant %s\n got %s", first.Data(), second.Data())
	}
	if diff := cmp.Diff(first.Data().Keys(), second.Data().Keys()); diff != "" {
		t.Fatalf("key order mismatch (-want +got):\n%s", diff)
	}
}

func TestWriteFormatsTwoSpaceJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db.json")
	s, err := New(path, map[string]any{"b": 1, "a": []any{true}})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if err := s.Data().Set("c", "x"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := s.Flush(context.Background()); err != nil {
		t.Fatalf("flush: %v", err)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read file: %v", err)
	}
	want := "{\n  \"a\": [\n    true\n  ],\n  \"b\": 1,\n  \"c\": \"x\"\n}"
	if diff := cmp.Diff(want, string(raw)); diff != "" {
		t.Fatalf("file mismatch (-want +got):\n%s", diff)
	}
}

func TestReadMissingFileCreatesIt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fresh.json")
	s, err := New(path, map[string]any{"created": true})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("New must not touch the file, stat err=%v", err)
	}
	if err := s.Read(context.Background()); err != nil {
		t.Fatalf("read: %v", err)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("expected file to be created: %v", err)
	}
	if diff := cmp.Diff("{\n  \"created\": true\n}", string(raw)); diff != "" {
		t.Fatalf("file mismatch (-want +got):\n%s", diff)
	}
}

func TestReadMissingFilePropagatesInitializationError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "absent", "db.json")
	s, err := New(path, nil)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if err := s.Read(context.Background()); err == nil {
		t.Fatalf("expected initialization write to fail")
	}
}

func TestReadParseErrorKeepsDocument(t *testing.T) {
	backend := storage.NewMemoryBackendWith([]byte(`{"broken":`))
	s, err := New("db.json", map[string]any{"kept": true}, WithBackend(backend))
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	err = s.Read(context.Background())
	if !errors.Is(err, ErrParse) {
		t.Fatalf("expected parse error, got %v", err)
	}
	var parseErr *ParseError
	if !errors.As(err, &parseErr) || parseErr.Codec != "json" {
		t.Fatalf("expected *ParseError with codec json, got %#v", err)
	}
	if got, _ := s.Get("kept"); got != true {
		t.Fatalf("document should be unchanged after a parse error")
	}
}

func TestReadPropagatesBackendErrors(t *testing.T) {
	s, backend := newMemoryStore(t, nil)
	boom := errors.New("disk gone")
	backend.FailWith(boom)
	if err := s.Read(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("expected backend error, got %v", err)
	}
}

func TestReadReplacesRootAndKeepsWatchers(t *testing.T) {
	backend := storage.NewMemoryBackendWith([]byte(`{"name":"loaded"}`))
	s, err := New("db.json", map[string]any{"name": "initial"}, WithBackend(backend))
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	stale := s.Data()

	var changes []change
	s.Watch("name", record(&changes))
	if err := s.Read(context.Background()); err != nil {
		t.Fatalf("read: %v", err)
	}
	if got, _ := s.Get("name"); got != "loaded" {
		t.Fatalf("expected loaded document, got %v", got)
	}
	if got := stale.Get("name"); got != "initial" {
		t.Fatalf("stale view should keep the old document, got %v", got)
	}
	if len(changes) != 0 {
		t.Fatalf("read must not notify, got %v", changes)
	}
	if err := s.Data().Set("name", "edited"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if diff := cmp.Diff([]change{{Old: "loaded", New: "edited"}}, changes); diff != "" {
		t.Fatalf("changes mismatch (-want +got):\n%s", diff)
	}
}

func TestWriteSwallowsErrorsAndFlushReturnsThem(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))
	s, backend := newMemoryStore(t, map[string]any{"a": 1}, WithLogger(logger))
	boom := errors.New("read-only")
	backend.FailWith(boom)

	s.Write(context.Background())
	if !strings.Contains(logs.String(), "jsondb: write failed") || !strings.Contains(logs.String(), "read-only") {
		t.Fatalf("expected logged write failure, got %q", logs.String())
	}
	if err := s.Flush(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("expected flush error, got %v", err)
	}

	backend.FailWith(nil)
	s.Write(context.Background())
	if backend.Saves() != 1 {
		t.Fatalf("expected one successful save, got %d", backend.Saves())
	}
}

func TestWatchScalarAssignmentFiresOnce(t *testing.T) {
	s, _ := newMemoryStore(t, map[string]any{"something": map[string]any{"name": "chat"}})
	var changes []change
	s.Watch("something.name", record(&changes))

	child, ok := s.Data().Child("something")
	if !ok {
		t.Fatalf("expected composite child")
	}
	if err := child.Set("name", "new name"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if diff := cmp.Diff([]change{{Old: "chat", New: "new name"}}, changes); diff != "" {
		t.Fatalf("changes mismatch (-want +got):\n%s", diff)
	}
}

func TestWatchMatchesExactPathOnly(t *testing.T) {
	s, _ := newMemoryStore(t, map[string]any{"a": map[string]any{"b": map[string]any{"c": 1}}})
	var parent, child, target []change
	s.Watch("a", record(&parent))
	s.Watch("a.b.c", record(&child))
	s.Watch("a.b", record(&target))

	if err := s.Data().SetAt("a.b.c", 2); err != nil {
		t.Fatalf("set: %v", err)
	}
	if len(parent) != 0 || len(target) != 0 || len(child) != 1 {
		t.Fatalf("expected only the exact path to fire, got parent=%v target=%v child=%v", parent, target, child)
	}

	if err := s.Data().SetAt("a.b", map[string]any{"c": 3}); err != nil {
		t.Fatalf("set: %v", err)
	}
	if len(parent) != 0 || len(child) != 1 || len(target) != 1 {
		t.Fatalf("replacing a.b should fire a.b only, got parent=%v target=%v child=%v", parent, target, child)
	}
}

func TestWatchNewPropertyReportsUndefined(t *testing.T) {
	s, _ := newMemoryStore(t, nil)
	var changes []change
	s.Watch("fresh", record(&changes))
	if err := s.Data().Set("fresh", 1); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := s.Data().Delete("fresh"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	want := []change{{Old: "<undefined>", New: float64(1)}, {Old: float64(1), New: "<undefined>"}}
	if diff := cmp.Diff(want, changes); diff != "" {
		t.Fatalf("changes mismatch (-want +got):\n%s", diff)
	}
}

func TestWatchRegistrationOrderAndRemove(t *testing.T) {
	s, _ := newMemoryStore(t, map[string]any{"n": 0})
	var order []string
	first := s.Watch("n", func(_, _ *document.Value) { order = append(order, "first") })
	s.Watch("n", func(_, _ *document.Value) { order = append(order, "second") })

	if first.ID() == "" || first.Path() != "n" {
		t.Fatalf("unexpected handle %q %q", first.ID(), first.Path())
	}
	if err := s.Data().Set("n", 1); err != nil {
		t.Fatalf("set: %v", err)
	}
	first.Remove()
	first.Remove()
	if err := s.Data().Set("n", 2); err != nil {
		t.Fatalf("set: %v", err)
	}
	if diff := cmp.Diff([]string{"first", "second", "second"}, order); diff != "" {
		t.Fatalf("order mismatch (-want +got):\n%s", diff)
	}
	if s.Watchers() != 1 {
		t.Fatalf("expected one watcher left, got %d", s.Watchers())
	}
}

func TestWatchRemoveDuringDispatch(t *testing.T) {
	s, _ := newMemoryStore(t, map[string]any{"n": 0})
	var calls []string
	var second *Handle
	s.Watch("n", func(_, _ *document.Value) {
		calls = append(calls, "first")
		second.Remove()
		s.Watch("n", func(_, _ *document.Value) { calls = append(calls, "late") })
	})
	second = s.Watch("n", func(_, _ *document.Value) { calls = append(calls, "second") })

	if err := s.Data().Set("n", 1); err != nil {
		t.Fatalf("set: %v", err)
	}
	if diff := cmp.Diff([]string{"first"}, calls); diff != "" {
		t.Fatalf("calls mismatch (-want +got):\n%s", diff)
	}
}

func TestWatchArrayReplaceVersusPush(t *testing.T) {
	s, _ := newMemoryStore(t, map[string]any{"bookings": []any{"a"}})
	var changes []change
	s.Watch("bookings", record(&changes))

	bookings, _ := s.Data().Child("bookings")
	if err := bookings.Push("b"); err != nil {
		t.Fatalf("push: %v", err)
	}
	if len(changes) != 0 {
		t.Fatalf("in-place push must not notify, got %v", changes)
	}

	if err := s.Data().Set("bookings", []any{"a", "b", "c"}); err != nil {
		t.Fatalf("set: %v", err)
	}
	want := []change{{Old: []any{"a", "b"}, New: []any{"a", "b", "c"}}}
	if diff := cmp.Diff(want, changes); diff != "" {
		t.Fatalf("changes mismatch (-want +got):\n%s", diff)
	}
}

func TestWatchReentrantWritesAreBounded(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))
	s, _ := newMemoryStore(t, map[string]any{"n": 0}, WithMaxNotifyDepth(3), WithLogger(logger))

	calls := 0
	s.Watch("n", func(_, newValue *document.Value) {
		calls++
		n, _ := newValue.AsNumber()
		_ = s.Data().Set("n", n+1)
	})
	if err := s.Data().Set("n", 1); err != nil {
		t.Fatalf("set: %v", err)
	}
	if calls != 3 {
		t.Fatalf("expected dispatch to stop at depth 3, got %d calls", calls)
	}
	if got, _ := s.Get("n"); got != float64(4) {
		t.Fatalf("writes still apply past the bound, got %v", got)
	}
	if !strings.Contains(logs.String(), "notification dropped") {
		t.Fatalf("expected dropped notification to be logged, got %q", logs.String())
	}
}

func TestFailedWriteDoesNotNotify(t *testing.T) {
	s, _ := newMemoryStore(t, map[string]any{"list": []any{1}})
	var changes []change
	s.Watch("list.name", record(&changes))
	list, _ := s.Data().Child("list")
	if err := list.Set("name", "x"); !errors.Is(err, document.ErrInvalidIndex) {
		t.Fatalf("expected invalid index, got %v", err)
	}
	list.Raw().Freeze()
	s.Watch("list.0", record(&changes))
	if err := list.Set("0", 2); !errors.Is(err, document.ErrFrozen) {
		t.Fatalf("expected frozen error, got %v", err)
	}
	if len(changes) != 0 {
		t.Fatalf("failed writes must not notify, got %v", changes)
	}
}

func TestFindReturnsMatchesInPreOrder(t *testing.T) {
	s, _ := newMemoryStore(t, itemsFixture())
	results := s.Find(func(value any, _ string) bool {
		w, ok := value.(*document.Wrapped)
		return ok && w.Get("name") == "item 1"
	})
	if len(results) != 2 {
		t.Fatalf("expected two results, got %d", len(results))
	}
	if results[0].Path != "items.0" || results[1].Path != "items.2" {
		t.Fatalf("unexpected paths %q, %q", results[0].Path, results[1].Path)
	}
	want := []any{
		map[string]any{"id": float64(1), "name": "item 1"},
		map[string]any{"id": float64(3), "name": "item 1"},
	}
	got := []any{plain(results[0].Value), plain(results[1].Value)}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("values mismatch (-want +got):\n%s", diff)
	}
}

func TestFindVisitsEveryDescendantNotRoot(t *testing.T) {
	s, _ := newMemoryStore(t, map[string]any{"a": map[string]any{"b": []any{1, 2}}, "c": "x"})
	var paths []string
	s.Find(func(_ any, path string) bool {
		paths = append(paths, path)
		return false
	})
	if diff := cmp.Diff([]string{"a", "a.b", "a.b.0", "a.b.1", "c"}, paths); diff != "" {
		t.Fatalf("visit order mismatch (-want +got):\n%s", diff)
	}
	if got := s.Find(nil); got == nil || len(got) != 0 {
		t.Fatalf("nil predicate should find nothing, got %#v", got)
	}
}

func TestFindAndFindExprAgreeOnEmptyResults(t *testing.T) {
	s, _ := newMemoryStore(t, itemsFixture())
	found := s.Find(func(any, string) bool { return false })
	matched, err := s.FindExpr("false")
	if err != nil {
		t.Fatalf("find expr: %v", err)
	}
	if found == nil || matched == nil {
		t.Fatalf("no match should yield empty slices, got %#v and %#v", found, matched)
	}
	if len(found) != 0 || len(matched) != 0 {
		t.Fatalf("expected no results, got %d and %d", len(found), len(matched))
	}
}

func TestFindResultsAreLiveViews(t *testing.T) {
	s, _ := newMemoryStore(t, itemsFixture())
	var changes []change
	s.Watch("items.2.name", record(&changes))
	results := s.Find(func(_ any, path string) bool { return path == "items.2" })
	if len(results) != 1 {
		t.Fatalf("expected one result, got %d", len(results))
	}
	if err := results[0].Value.(*document.Wrapped).Set("name", "renamed"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if diff := cmp.Diff([]change{{Old: "item 1", New: "renamed"}}, changes); diff != "" {
		t.Fatalf("changes mismatch (-want +got):\n%s", diff)
	}
}

func TestActivityHooksReceiveDocumentEvents(t *testing.T) {
	capture := &activity.CaptureHook{}
	backend := storage.NewMemoryBackend()
	s, err := New("db.json", map[string]any{"n": 1},
		WithBackend(backend),
		WithActivityHooks(activity.Hooks{nil, capture}),
		WithActivityConfig(activity.Config{Enabled: true, ActorID: "actor-1"}),
	)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	ctx := context.Background()
	if err := s.Read(ctx); err != nil {
		t.Fatalf("read: %v", err)
	}
	if err := s.Data().Set("n", 2); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := s.Read(ctx); err != nil {
		t.Fatalf("read: %v", err)
	}

	want := []string{
		activity.VerbDocumentInitialized,
		activity.VerbDocumentChanged,
		activity.VerbDocumentLoaded,
	}
	if diff := cmp.Diff(want, capture.Verbs()); diff != "" {
		t.Fatalf("verbs mismatch (-want +got):\n%s", diff)
	}
	stored, _ := backend.Bytes()
	if size := capture.Events[0].Metadata["size"]; size != len(stored) {
		t.Fatalf("initialized event should carry the saved size %d, got %v", len(stored), size)
	}
	changed := capture.Events[1]
	if changed.Path != "n" || changed.OldValue != float64(1) || changed.NewValue != float64(2) {
		t.Fatalf("unexpected change event %+v", changed)
	}
	if changed.ActorID != "actor-1" || changed.Channel != activity.DefaultChannel {
		t.Fatalf("expected emitter defaults, got %+v", changed)
	}
	if len(s.ActivityHooks()) != 1 {
		t.Fatalf("nil hooks should be dropped")
	}
}

func TestFailedFlushKeepsLastSync(t *testing.T) {
	s, backend := newMemoryStore(t, map[string]any{"n": 1})
	ctx := context.Background()
	if err := s.Flush(ctx); err != nil {
		t.Fatalf("flush: %v", err)
	}
	saved, _ := backend.Bytes()

	if err := s.Data().Set("n", 2); err != nil {
		t.Fatalf("set: %v", err)
	}
	backend.FailWith(errors.New("disk full"))
	if err := s.Flush(ctx); err == nil {
		t.Fatalf("expected flush error")
	}
	s.mu.RLock()
	lastSync := s.lastSync
	s.mu.RUnlock()
	if !bytes.Equal(saved, lastSync) {
		t.Fatalf("failed save must restore the last synced payload, got %q", lastSync)
	}
}

func TestActivityHookFailureIsLogged(t *testing.T) {
	var logs bytes.Buffer
	hook := activity.HookFunc(func(context.Context, activity.Event) error { return errors.New("sink down") })
	s, _ := newMemoryStore(t, nil,
		WithActivityHooks(activity.Hooks{hook}),
		WithLogger(slog.New(slog.NewTextHandler(&logs, nil))),
	)
	if err := s.Data().Set("a", 1); err != nil {
		t.Fatalf("set should not fail because of hooks: %v", err)
	}
	if !strings.Contains(logs.String(), "sink down") {
		t.Fatalf("expected hook failure in logs, got %q", logs.String())
	}
}
