//go:build js_eval

package jsondb

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestFindExprWithJS(t *testing.T) {
	if !JSEvaluatorAvailable() {
		t.Fatalf("expected js evaluator under js_eval")
	}
	s, _ := newMemoryStore(t, itemsFixture(), WithEvaluator(NewJSEvaluator(JSWithProgramCache(NewMapProgramCache()))))
	results, err := s.FindExpr(`typeof name !== "undefined" && name === "item 1" && key !== "name"`)
	if err != nil {
		t.Fatalf("find expr: %v", err)
	}
	if diff := cmp.Diff([]string{"items.0", "items.2"}, resultPaths(results)); diff != "" {
		t.Fatalf("paths mismatch (-want +got):\n%s", diff)
	}
}
