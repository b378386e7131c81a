package document

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"sort"
)

// From converts a plain Go value into a document node. It accepts *Value
// (returned as is), *Wrapped (its raw node), nil, booleans, strings, all
// integer and float kinds, json.Number, maps with string keys, and slices or
// arrays of any supported value. Keys of Go maps are sorted since the map has
// no order of its own. Maps, slices and pointers that contain themselves
// fail with ErrCycle.
func From(value any) (*Value, error) {
	c := converter{active: map[visit]struct{}{}}
	return c.from(value)
}

// visit identifies a map, slice or pointer being converted.
type visit struct {
	kind reflect.Kind
	ptr  uintptr
	len  int
}

// converter tracks the containers on the current conversion path.
type converter struct {
	active map[visit]struct{}
}

// enter marks rv as being converted. The returned func unmarks it.
func (c *converter) enter(rv reflect.Value) (func(), error) {
	switch rv.Kind() {
	case reflect.Map, reflect.Slice, reflect.Pointer:
	default:
		return func() {}, nil
	}
	if rv.IsNil() || (rv.Kind() == reflect.Slice && rv.Len() == 0) {
		return func() {}, nil
	}
	key := visit{kind: rv.Kind(), ptr: rv.Pointer()}
	if rv.Kind() == reflect.Slice {
		key.len = rv.Len()
	}
	if _, ok := c.active[key]; ok {
		return nil, fmt.Errorf("%w: %s refers to itself", ErrCycle, rv.Type())
	}
	c.active[key] = struct{}{}
	return func() { delete(c.active, key) }, nil
}

func (c *converter) from(value any) (*Value, error) {
	switch v := value.(type) {
	case nil:
		return Null(), nil
	case *Value:
		if v == nil {
			return Null(), nil
		}
		return v, nil
	case *Wrapped:
		if v == nil || v.node == nil {
			return Null(), nil
		}
		return v.node, nil
	case bool:
		return Bool(v), nil
	case string:
		return String(v), nil
	case float64:
		return number(v)
	case float32:
		return number(float64(v))
	case int:
		return Number(float64(v)), nil
	case int64:
		return Number(float64(v)), nil
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnsupportedValue, err)
		}
		return number(f)
	case map[string]any:
		leave, err := c.enter(reflect.ValueOf(v))
		if err != nil {
			return nil, err
		}
		defer leave()
		out := NewObject()
		for _, key := range sortedKeys(v) {
			child, err := c.from(v[key])
			if err != nil {
				return nil, fmt.Errorf("%s: %w", key, err)
			}
			out.obj.Set(key, child)
		}
		return out, nil
	case []any:
		leave, err := c.enter(reflect.ValueOf(v))
		if err != nil {
			return nil, err
		}
		defer leave()
		out := &Value{kind: KindArray, arr: make([]*Value, len(v))}
		for i, elem := range v {
			child, err := c.from(elem)
			if err != nil {
				return nil, fmt.Errorf("%d: %w", i, err)
			}
			out.arr[i] = child
		}
		return out, nil
	}
	return c.fromReflect(reflect.ValueOf(value))
}

// MustFrom is like From but panics on unsupported input. Intended for
// literals in tests and examples.
func MustFrom(value any) *Value {
	out, err := From(value)
	if err != nil {
		panic(err)
	}
	return out
}

func (c *converter) fromReflect(rv reflect.Value) (*Value, error) {
	leave, err := c.enter(rv)
	if err != nil {
		return nil, err
	}
	defer leave()
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return Null(), nil
		}
		return c.from(rv.Elem().Interface())
	case reflect.Bool:
		return Bool(rv.Bool()), nil
	case reflect.String:
		return String(rv.String()), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return Number(float64(rv.Int())), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return Number(float64(rv.Uint())), nil
	case reflect.Float32, reflect.Float64:
		return number(rv.Float())
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return nil, fmt.Errorf("%w: map key type %s", ErrUnsupportedValue, rv.Type().Key())
		}
		keys := make([]string, 0, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			keys = append(keys, iter.Key().String())
		}
		sort.Strings(keys)
		out := NewObject()
		for _, key := range keys {
			child, err := c.from(rv.MapIndex(reflect.ValueOf(key).Convert(rv.Type().Key())).Interface())
			if err != nil {
				return nil, fmt.Errorf("%s: %w", key, err)
			}
			out.obj.Set(key, child)
		}
		return out, nil
	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.IsNil() {
			return Null(), nil
		}
		out := &Value{kind: KindArray, arr: make([]*Value, rv.Len())}
		for i := 0; i < rv.Len(); i++ {
			child, err := c.from(rv.Index(i).Interface())
			if err != nil {
				return nil, fmt.Errorf("%d: %w", i, err)
			}
			out.arr[i] = child
		}
		return out, nil
	case reflect.Struct:
		// Structs go through their JSON form so tags are honoured.
		payload, err := json.Marshal(rv.Interface())
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnsupportedValue, err)
		}
		return Unmarshal(payload)
	default:
		if !rv.IsValid() {
			return Null(), nil
		}
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedValue, rv.Type())
	}
}

func number(f float64) (*Value, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedValue, f)
	}
	return Number(f), nil
}

// Interface exports v as plain Go values: nil, bool, float64, string,
// map[string]any and []any. A nil v exports as nil.
func (v *Value) Interface() any {
	if v == nil {
		return nil
	}
	switch v.kind {
	case KindBool:
		return v.b
	case KindNumber:
		return v.n
	case KindString:
		return v.s
	case KindObject:
		out := make(map[string]any, v.obj.Len())
		for pair := v.obj.Oldest(); pair != nil; pair = pair.Next() {
			out[pair.Key] = pair.Value.Interface()
		}
		return out
	case KindArray:
		out := make([]any, len(v.arr))
		for i, elem := range v.arr {
			out[i] = elem.Interface()
		}
		return out
	default:
		return nil
	}
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
