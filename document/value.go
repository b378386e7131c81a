package document

import (
	"errors"
	"fmt"
	"slices"
	"strconv"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Kind identifies the variant held by a Value.
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindObject
	KindArray
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindObject:
		return "object"
	case KindArray:
		return "array"
	default:
		return "kind(" + strconv.Itoa(int(k)) + ")"
	}
}

var (
	// ErrFrozen is returned when writing to a node marked read-only with Freeze.
	ErrFrozen = errors.New("document: node is frozen")
	// ErrNotComposite is returned when a property write targets a scalar node.
	ErrNotComposite = errors.New("document: node is not an object or array")
	// ErrInvalidIndex is returned when an array is addressed with a key that is
	// not a non-negative integer.
	ErrInvalidIndex = errors.New("document: invalid array index")
	// ErrUnsupportedValue is returned when a Go value has no document representation.
	ErrUnsupportedValue = errors.New("document: unsupported value")
	// ErrCycle is returned when an assignment would make a node contain itself.
	ErrCycle = errors.New("document: assignment would create a cycle")
	// ErrPathNotFound is returned by SetAt when an intermediate segment is missing.
	ErrPathNotFound = errors.New("document: path not found")
)

// Value is a node of a JSON document. Objects keep their keys in insertion
// order so encoding is stable. A nil *Value stands for an absent value.
type Value struct {
	kind   Kind
	b      bool
	n      float64
	s      string
	obj    *orderedmap.OrderedMap[string, *Value]
	arr    []*Value
	frozen bool
}

func Null() *Value { return &Value{kind: KindNull} }

func Bool(b bool) *Value { return &Value{kind: KindBool, b: b} }

func Number(n float64) *Value { return &Value{kind: KindNumber, n: n} }

func String(s string) *Value { return &Value{kind: KindString, s: s} }

// NewObject returns an empty object node.
func NewObject() *Value {
	return &Value{kind: KindObject, obj: orderedmap.New[string, *Value]()}
}

// NewArray returns an array node holding elems. Nil elements become null.
func NewArray(elems ...*Value) *Value {
	arr := make([]*Value, len(elems))
	for i, elem := range elems {
		if elem == nil {
			elem = Null()
		}
		arr[i] = elem
	}
	return &Value{kind: KindArray, arr: arr}
}

// Kind reports the variant. A nil Value reports KindNull.
func (v *Value) Kind() Kind {
	if v == nil {
		return KindNull
	}
	return v.kind
}

// IsComposite reports whether v is an object or an array.
func (v *Value) IsComposite() bool {
	return v != nil && (v.kind == KindObject || v.kind == KindArray)
}

func (v *Value) AsBool() (bool, bool) {
	if v == nil || v.kind != KindBool {
		return false, false
	}
	return v.b, true
}

func (v *Value) AsNumber() (float64, bool) {
	if v == nil || v.kind != KindNumber {
		return 0, false
	}
	return v.n, true
}

func (v *Value) AsString() (string, bool) {
	if v == nil || v.kind != KindString {
		return "", false
	}
	return v.s, true
}

// Len returns the number of fields or elements, and 0 for scalars.
func (v *Value) Len() int {
	switch v.Kind() {
	case KindObject:
		return v.obj.Len()
	case KindArray:
		return len(v.arr)
	default:
		return 0
	}
}

// Keys returns object keys in insertion order, or array indices as strings.
func (v *Value) Keys() []string {
	switch v.Kind() {
	case KindObject:
		keys := make([]string, 0, v.obj.Len())
		for pair := v.obj.Oldest(); pair != nil; pair = pair.Next() {
			keys = append(keys, pair.Key)
		}
		return keys
	case KindArray:
		keys := make([]string, len(v.arr))
		for i := range v.arr {
			keys[i] = strconv.Itoa(i)
		}
		return keys
	default:
		return nil
	}
}

// Child returns the direct child addressed by key. Arrays accept canonical
// decimal indices only.
func (v *Value) Child(key string) (*Value, bool) {
	switch v.Kind() {
	case KindObject:
		return v.obj.Get(key)
	case KindArray:
		idx, ok := parseIndex(key)
		if !ok || idx >= len(v.arr) {
			return nil, false
		}
		return v.arr[idx], true
	default:
		return nil, false
	}
}

// Index returns the i-th array element.
func (v *Value) Index(i int) (*Value, bool) {
	if v.Kind() != KindArray || i < 0 || i >= len(v.arr) {
		return nil, false
	}
	return v.arr[i], true
}

// MaxArrayGap is the largest number of null elements SetChild inserts when
// an array is written past its end. Larger gaps fail with ErrInvalidIndex.
const MaxArrayGap = 1 << 16

// SetChild assigns child under key. Writing past the end of an array pads the
// gap with nulls, up to MaxArrayGap of them.
func (v *Value) SetChild(key string, child *Value) error {
	if v == nil || !v.IsComposite() {
		return ErrNotComposite
	}
	if v.frozen {
		return ErrFrozen
	}
	if child == nil {
		child = Null()
	}
	if child.contains(v) {
		return ErrCycle
	}
	if v.kind == KindObject {
		v.obj.Set(key, child)
		return nil
	}
	idx, ok := parseIndex(key)
	if !ok {
		return fmt.Errorf("%w: %q", ErrInvalidIndex, key)
	}
	if gap := idx - len(v.arr); gap > MaxArrayGap {
		return fmt.Errorf("%w: %q is %d past the end of the array", ErrInvalidIndex, key, gap)
	}
	if idx >= len(v.arr) {
		v.arr = slices.Grow(v.arr, idx+1-len(v.arr))
	}
	for len(v.arr) <= idx {
		v.arr = append(v.arr, Null())
	}
	v.arr[idx] = child
	return nil
}

// DeleteChild removes key from an object. Arrays are not supported.
func (v *Value) DeleteChild(key string) error {
	if v.Kind() != KindObject {
		return ErrNotComposite
	}
	if v.frozen {
		return ErrFrozen
	}
	v.obj.Delete(key)
	return nil
}

// Append adds elements to the end of an array in place.
func (v *Value) Append(elems ...*Value) error {
	if v.Kind() != KindArray {
		return ErrNotComposite
	}
	if v.frozen {
		return ErrFrozen
	}
	for _, elem := range elems {
		if elem == nil {
			elem = Null()
		}
		if elem.contains(v) {
			return ErrCycle
		}
		v.arr = append(v.arr, elem)
	}
	return nil
}

// Freeze marks v read-only. Like Object.freeze it is shallow: children stay
// writable.
func (v *Value) Freeze() *Value {
	if v != nil {
		v.frozen = true
	}
	return v
}

// Frozen reports whether Freeze was called on v.
func (v *Value) Frozen() bool {
	return v != nil && v.frozen
}

// Clone returns a deep copy of v. Frozen flags are not copied.
func (v *Value) Clone() *Value {
	if v == nil {
		return nil
	}
	switch v.kind {
	case KindObject:
		out := NewObject()
		for pair := v.obj.Oldest(); pair != nil; pair = pair.Next() {
			out.obj.Set(pair.Key, pair.Value.Clone())
		}
		return out
	case KindArray:
		out := &Value{kind: KindArray, arr: make([]*Value, len(v.arr))}
		for i, elem := range v.arr {
			out.arr[i] = elem.Clone()
		}
		return out
	default:
		clone := *v
		clone.frozen = false
		return &clone
	}
}

// Equal reports structural equality. Object key order is ignored.
func (v *Value) Equal(other *Value) bool {
	if v == nil || other == nil {
		return v == nil && other == nil
	}
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case KindNull:
		return true
	case KindBool:
		return v.b == other.b
	case KindNumber:
		return v.n == other.n
	case KindString:
		return v.s == other.s
	case KindObject:
		if v.obj.Len() != other.obj.Len() {
			return false
		}
		for pair := v.obj.Oldest(); pair != nil; pair = pair.Next() {
			theirs, ok := other.obj.Get(pair.Key)
			if !ok || !pair.Value.Equal(theirs) {
				return false
			}
		}
		return true
	case KindArray:
		if len(v.arr) != len(other.arr) {
			return false
		}
		for i := range v.arr {
			if !v.arr[i].Equal(other.arr[i]) {
				return false
			}
		}
		return true
	}
	return false
}

// String renders v as compact JSON.
func (v *Value) String() string {
	out, err := Marshal(v)
	if err != nil {
		return "<invalid: " + err.Error() + ">"
	}
	return string(out)
}

// contains reports whether target is v or one of its descendants.
func (v *Value) contains(target *Value) bool {
	if v == nil {
		return false
	}
	if v == target {
		return true
	}
	switch v.kind {
	case KindObject:
		for pair := v.obj.Oldest(); pair != nil; pair = pair.Next() {
			if pair.Value.contains(target) {
				return true
			}
		}
	case KindArray:
		for _, elem := range v.arr {
			if elem.contains(target) {
				return true
			}
		}
	}
	return false
}

func parseIndex(key string) (int, bool) {
	if key == "" || key[0] < '0' || key[0] > '9' || (len(key) > 1 && key[0] == '0') {
		return 0, false
	}
	idx, err := strconv.Atoi(key)
	if err != nil || idx < 0 {
		return 0, false
	}
	return idx, true
}
