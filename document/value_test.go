package document

import (
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestMarshalPreservesInsertionOrder(t *testing.T) {
	input := `{"value":"test","something":{"name":"chat"},"alpha":[1,2.5,true,null,"<b>"]}`
	node, err := Unmarshal([]byte(input))
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	out, err := Marshal(node)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(out) != input {
		t.Fatalf("round trip mismatch:\nwant: %s\n got: %s", input, out)
	}
}

func TestMarshalIndentTwoSpaces(t *testing.T) {
	node := NewObject()
	if err := node.SetChild("b", Number(1)); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := node.SetChild("a", NewArray(String("x"))); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := node.SetChild("empty", NewObject()); err != nil {
		t.Fatalf("set: %v", err)
	}
	out, err := MarshalIndent(node, "  ")
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := "{\n  \"b\": 1,\n  \"a\": [\n    \"x\"\n  ],\n  \"empty\": {}\n}"
	if string(out) != want {
		t.Fatalf("unexpected output:\n%s", out)
	}
}

func TestUnmarshalErrors(t *testing.T) {
	cases := []string{"", "{", `{"a":}`, `{"a":1} {"b":2}`, "[1,]"}
	for _, input := range cases {
		if _, err := Unmarshal([]byte(input)); err == nil {
			t.Fatalf("expected error for %q", input)
		}
	}
}

func TestUnmarshalDuplicateKeyKeepsFirstPositionLastValue(t *testing.T) {
	node, err := Unmarshal([]byte(`{"a":1,"b":2,"a":3}`))
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if diff := cmp.Diff([]string{"a", "b"}, node.Keys()); diff != "" {
		t.Fatalf("keys mismatch (-want +got):\n%s", diff)
	}
	a, _ := node.Child("a")
	if n, _ := a.AsNumber(); n != 3 {
		t.Fatalf("expected last value 3, got %v", n)
	}
}

func TestFromConvertsGoValues(t *testing.T) {
	type item struct {
		ID   int    `json:"id"`
		Name string `json:"name"`
	}
	node, err := From(map[string]any{
		"ints":   []int{1, 2},
		"struct": item{ID: 7, Name: "seven"},
		"nested": map[string]string{"k": "v"},
		"nil":    nil,
	})
	if err != nil {
		t.Fatalf("from: %v", err)
	}
	want := map[string]any{
		"ints":   []any{float64(1), float64(2)},
		"struct": map[string]any{"id": float64(7), "name": "seven"},
		"nested": map[string]any{"k": "v"},
		"nil":    nil,
	}
	if diff := cmp.Diff(want, node.Interface()); diff != "" {
		t.Fatalf("conversion mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"ints", "nested", "nil", "struct"}, node.Keys()); diff != "" {
		t.Fatalf("expected sorted keys for Go maps (-want +got):\n%s", diff)
	}
}

func TestFromRejectsUnsupported(t *testing.T) {
	for _, input := range []any{make(chan int), math.NaN(), map[int]string{1: "x"}} {
		if _, err := From(input); !errors.Is(err, ErrUnsupportedValue) {
			t.Fatalf("expected ErrUnsupportedValue for %T, got %v", input, err)
		}
	}
}

func TestFromRejectsSelfReferences(t *testing.T) {
	selfMap := map[string]any{"name": "loop"}
	selfMap["self"] = selfMap

	selfSlice := []any{"a", nil}
	selfSlice[1] = selfSlice

	nested := map[string]any{}
	nested["list"] = []any{map[string]any{"back": nested}}

	selfPointer := new(any)
	*selfPointer = selfPointer

	for name, input := range map[string]any{
		"map":     selfMap,
		"slice":   selfSlice,
		"nested":  nested,
		"pointer": selfPointer,
	} {
		if _, err := From(input); !errors.Is(err, ErrCycle) {
			t.Fatalf("%s: expected ErrCycle, got %v", name, err)
		}
	}
}

func TestFromAllowsSharedSiblings(t *testing.T) {
	shared := map[string]any{"v": 1}
	list := []any{"x"}
	node, err := From(map[string]any{"a": shared, "b": shared, "c": list, "d": list})
	if err != nil {
		t.Fatalf("from: %v", err)
	}
	want := map[string]any{
		"a": map[string]any{"v": float64(1)},
		"b": map[string]any{"v": float64(1)},
		"c": []any{"x"},
		"d": []any{"x"},
	}
	if diff := cmp.Diff(want, node.Interface()); diff != "" {
		t.Fatalf("conversion mismatch (-want +got):\n%s", diff)
	}
}

func TestCloneAndEqual(t *testing.T) {
	original := MustFrom(map[string]any{"a": []any{1, map[string]any{"b": "c"}}})
	clone := original.Clone()
	if !original.Equal(clone) {
		t.Fatalf("expected clone to be equal")
	}
	inner, _ := Lookup(clone, "a.1")
	if err := inner.SetChild("b", String("changed")); err != nil {
		t.Fatalf("set: %v", err)
	}
	if original.Equal(clone) {
		t.Fatalf("expected clone to be detached from original")
	}
	if got, _ := Lookup(original, "a.1.b"); got.Interface() != "c" {
		t.Fatalf("expected original untouched, got %v", got.Interface())
	}
}

func TestChildIndexParsing(t *testing.T) {
	arr := NewArray(String("zero"), String("one"))
	for _, key := range []string{"01", "-1", "+1", "1.0", "", "2"} {
		if _, ok := arr.Child(key); ok {
			t.Fatalf("expected key %q to be rejected", key)
		}
	}
	if v, ok := arr.Child("1"); !ok || v.Interface() != "one" {
		t.Fatalf("expected index 1 to resolve")
	}
}

func TestJoinAndSplitPath(t *testing.T) {
	if got := JoinPath("", "a"); got != "a" {
		t.Fatalf("expected no leading dot, got %q", got)
	}
	if got := JoinPath("a.b", "0"); got != "a.b.0" {
		t.Fatalf("unexpected join %q", got)
	}
	if diff := cmp.Diff([]string{"items", "0", "name"}, SplitPath("items.0.name")); diff != "" {
		t.Fatalf("split mismatch (-want +got):\n%s", diff)
	}
}
