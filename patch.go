package jsondb

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	jsonpatch "github.com/evanphx/json-patch"

	"github.com/goliatone/go-jsondb/document"
)

// ApplyPatch applies an RFC 6902 JSON Patch. The whole patch is validated
// against the current document first; if any operation fails nothing
// changes. Operations are then applied one at a time, each replacing the
// root and notifying watchers of the operation's dotted path. A move also
// reports its source path as removed. test operations never notify.
//
// Views obtained from Data before the call keep pointing at the replaced
// document.
func (s *Store) ApplyPatch(ctx context.Context, patch []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	ops, err := jsonpatch.DecodePatch(patch)
	if err != nil {
		return fmt.Errorf("jsondb: decode patch: %w", err)
	}
	current, err := document.Marshal(s.Data().Raw())
	if err != nil {
		return fmt.Errorf("jsondb: patch: %w", err)
	}
	if _, err := ops.Apply(current); err != nil {
		return fmt.Errorf("jsondb: apply patch: %w", err)
	}

	for i, op := range ops {
		if err := s.applyOperation(op); err != nil {
			return fmt.Errorf("jsondb: patch op %d (%s): %w", i, op.Kind(), err)
		}
	}
	return nil
}

func (s *Store) applyOperation(op jsonpatch.Operation) error {
	oldRoot := s.Data().Raw()
	current, err := document.Marshal(oldRoot)
	if err != nil {
		return err
	}
	next, err := jsonpatch.Patch{op}.Apply(current)
	if err != nil {
		return err
	}
	decoded, err := document.Unmarshal(next)
	if err != nil {
		return err
	}
	newRoot := reorderLike(decoded, oldRoot)

	kind := op.Kind()
	if kind == "test" {
		return nil
	}
	pointer, err := op.Path()
	if err != nil {
		return err
	}
	target := dottedPath(oldRoot, pointer)

	var source string
	if kind == "move" {
		from, err := op.From()
		if err != nil {
			return err
		}
		source = dottedPath(oldRoot, from)
	}

	s.install(newRoot)

	if kind == "move" {
		s.notify(source, lookupAt(oldRoot, source), nil)
	}
	var newValue *document.Value
	if kind != "remove" {
		newValue = lookupAt(newRoot, target)
	}
	s.notify(target, lookupAt(oldRoot, target), newValue)
	return nil
}

func lookupAt(root *document.Value, path string) *document.Value {
	if path == "" {
		return root
	}
	v, ok := document.Lookup(root, path)
	if !ok {
		return nil
	}
	return v
}

// dottedPath converts a JSON Pointer into a dotted path. The "-" array
// append token resolves to the index the new element will occupy.
func dottedPath(root *document.Value, pointer string) string {
	if pointer == "" {
		return ""
	}
	tokens := strings.Split(strings.TrimPrefix(pointer, "/"), "/")
	replacer := strings.NewReplacer("~1", "/", "~0", "~")
	segments := make([]string, len(tokens))
	node := root
	for i, token := range tokens {
		token = replacer.Replace(token)
		if token == "-" && node.Kind() == document.KindArray {
			token = strconv.Itoa(node.Len())
		}
		segments[i] = token
		if node != nil {
			node, _ = node.Child(token)
		}
	}
	return strings.Join(segments, document.PathSeparator)
}

// reorderLike rebuilds objects in fresh so keys also present in previous
// keep previous's order; keys new to fresh follow in their own order.
func reorderLike(fresh, previous *document.Value) *document.Value {
	switch fresh.Kind() {
	case document.KindObject:
		out := document.NewObject()
		seen := make(map[string]bool, fresh.Len())
		if previous.Kind() == document.KindObject {
			for _, key := range previous.Keys() {
				child, ok := fresh.Child(key)
				if !ok {
					continue
				}
				prev, _ := previous.Child(key)
				_ = out.SetChild(key, reorderLike(child, prev))
				seen[key] = true
			}
		}
		for _, key := range fresh.Keys() {
			if seen[key] {
				continue
			}
			child, _ := fresh.Child(key)
			_ = out.SetChild(key, reorderLike(child, nil))
		}
		return out
	case document.KindArray:
		elems := make([]*document.Value, fresh.Len())
		for i := range elems {
			child, _ := fresh.Index(i)
			prev, _ := previous.Index(i)
			elems[i] = reorderLike(child, prev)
		}
		return document.NewArray(elems...)
	default:
		return fresh
	}
}
