package document

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// NotifyFunc receives every successful write made through a Wrapped value.
// path is the fully qualified dotted path of the written property; a nil
// oldValue means the property did not exist and a nil newValue means it was
// deleted.
type NotifyFunc func(path string, oldValue, newValue *Value)

// Wrapped attributes reads and writes on a document node to their full path
// from the root. Reading a composite child yields a fresh Wrapped carrying
// the extended prefix, so a write anywhere below the root is reported with
// its complete path without the node knowing its own position.
//
// Only property assignment (Set, SetAt, Delete) is observed. Push mutates an
// array in place and is not reported; replace the array with
// Set to get a notification.
type Wrapped struct {
	node   *Value
	notify NotifyFunc
	prefix string
}

// Wrap returns an intercepting view over node whose paths start at prefix.
func Wrap(node *Value, notify NotifyFunc, prefix string) *Wrapped {
	return &Wrapped{node: node, notify: notify, prefix: prefix}
}

// Path returns the dotted path of the wrapped node ("" for the root).
func (w *Wrapped) Path() string {
	return w.prefix
}

// Raw returns the underlying node. Writes made on it directly bypass
// notification.
func (w *Wrapped) Raw() *Value {
	return w.node
}

func (w *Wrapped) Kind() Kind {
	return w.node.Kind()
}

func (w *Wrapped) Len() int {
	return w.node.Len()
}

func (w *Wrapped) Keys() []string {
	return w.node.Keys()
}

// Interface exports the wrapped node as plain Go values.
func (w *Wrapped) Interface() any {
	return w.node.Interface()
}

// MarshalJSON implements json.Marshaler.
func (w *Wrapped) MarshalJSON() ([]byte, error) {
	return Marshal(w.node)
}

func (w *Wrapped) String() string {
	return w.node.String()
}

// Lookup reads the property key. Scalars come back as nil, bool, float64 or
// string; objects and arrays come back as a *Wrapped rooted at the child's
// path. ok is false when the property does not exist.
func (w *Wrapped) Lookup(key string) (any, bool) {
	child, ok := w.node.Child(key)
	if !ok {
		return nil, false
	}
	return w.view(key, child), true
}

// Get is Lookup without the presence flag.
func (w *Wrapped) Get(key string) any {
	value, _ := w.Lookup(key)
	return value
}

// Child returns the composite property key as a Wrapped. It reports false
// for missing and scalar properties.
func (w *Wrapped) Child(key string) (*Wrapped, bool) {
	child, ok := w.node.Child(key)
	if !ok || !child.IsComposite() {
		return nil, false
	}
	return Wrap(child, w.notify, JoinPath(w.prefix, key)), true
}

// Set assigns value to the property key and reports the change. The old
// value is captured before the assignment; when the assignment fails no
// notification is sent and the error is returned. A composite value is
// reported as one change at key, never element by element.
func (w *Wrapped) Set(key string, value any) error {
	next, err := From(value)
	if err != nil {
		return err
	}
	old, _ := w.node.Child(key)
	if err := w.node.SetChild(key, next); err != nil {
		return err
	}
	w.emit(JoinPath(w.prefix, key), old, next)
	return nil
}

// Delete removes the property key from an object and reports it as a write
// of an absent value.
func (w *Wrapped) Delete(key string) error {
	old, ok := w.node.Child(key)
	if err := w.node.DeleteChild(key); err != nil {
		return err
	}
	if ok {
		w.emit(JoinPath(w.prefix, key), old, nil)
	}
	return nil
}

// Push appends values to the wrapped array in place. It is not observed.
func (w *Wrapped) Push(values ...any) error {
	elems := make([]*Value, len(values))
	for i, value := range values {
		elem, err := From(value)
		if err != nil {
			return err
		}
		elems[i] = elem
	}
	return w.node.Append(elems...)
}

// GetAt reads a dotted path relative to the wrapped node. It behaves like a
// chain of Lookup calls and stops at the first missing segment.
func (w *Wrapped) GetAt(path string) (any, bool) {
	segments := SplitPath(path)
	parent, ok := w.walk(segments[:len(segments)-1])
	if !ok {
		return nil, false
	}
	return parent.Lookup(segments[len(segments)-1])
}

// SetAt assigns value at a dotted path relative to the wrapped node. Every
// segment but the last must resolve to an existing object or array.
func (w *Wrapped) SetAt(path string, value any) error {
	segments := SplitPath(path)
	parent, ok := w.walk(segments[:len(segments)-1])
	if !ok {
		return fmt.Errorf("%w: %s", ErrPathNotFound, JoinPath(w.prefix, path))
	}
	return parent.Set(segments[len(segments)-1], value)
}

// Range calls fn for each direct child in order until fn returns false.
// Values are presented as in Lookup.
func (w *Wrapped) Range(fn func(key string, value any) bool) {
	for _, key := range w.node.Keys() {
		child, ok := w.node.Child(key)
		if !ok {
			continue
		}
		if !fn(key, w.view(key, child)) {
			return
		}
	}
}

func (w *Wrapped) walk(segments []string) (*Wrapped, bool) {
	current := w
	for _, segment := range segments {
		next, ok := current.Child(segment)
		if !ok {
			return nil, false
		}
		current = next
	}
	return current, true
}

func (w *Wrapped) view(key string, child *Value) any {
	if child.IsComposite() {
		return Wrap(child, w.notify, JoinPath(w.prefix, key))
	}
	return child.Interface()
}

func (w *Wrapped) emit(path string, oldValue, newValue *Value) {
	if w.notify == nil {
		return
	}
	w.notify(path, oldValue, newValue)
}

// Describe renders a short human description, used in logs.
func Describe(v *Value) string {
	if v == nil {
		return "undefined"
	}
	text := v.String()
	if utf8.RuneCountInString(text) <= 64 {
		return text
	}
	runes := []rune(text)
	return strings.TrimSpace(string(runes[:61])) + "..."
}
