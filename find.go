package jsondb

import (
	"fmt"
	"time"

	"github.com/goliatone/go-jsondb/document"
)

// Find returns every descendant of the root for which predicate holds, in
// depth-first pre-order. The root itself is never visited. Composite values
// are descended into whether or not they match. No match yields an empty,
// non-nil slice.
func (s *Store) Find(predicate Predicate) []Result {
	results := []Result{}
	if predicate == nil {
		return results
	}
	s.walk(func(value any, path, _ string, _ int) {
		if predicate(value, path) {
			results = append(results, Result{Value: value, Path: path})
		}
	})
	return results
}

// FindExpr is Find with a predicate written as an expression for the
// configured evaluator. A node matches when the expression yields true.
// Compile errors are returned; evaluation errors on a node count as a miss
// and are reported to the evaluator logger.
func (s *Store) FindExpr(expression string) ([]Result, error) {
	return s.FindExprWith(RuleContext{}, expression)
}

// FindExprWith is FindExpr with caller supplied args, metadata and clock.
// Value, Path, Key and Depth of base are overwritten per node.
func (s *Store) FindExprWith(base RuleContext, expression string) ([]Result, error) {
	if expression == "" {
		return nil, fmt.Errorf("jsondb: expression must not be empty")
	}
	evaluator, err := s.resolveEvaluator()
	if err != nil {
		return nil, err
	}
	engine := evaluatorEngineName(evaluator)
	rule, err := evaluator.Compile(expression)
	if err != nil {
		err = wrapEvaluationError(engine, expression, "", err)
		s.cfg.evalLogger.LogEvaluation(EvaluatorLogEvent{Engine: engine, Expr: expression, Err: err})
		return nil, err
	}
	base = base.withDefaults()

	results := []Result{}
	s.walk(func(value any, path, key string, depth int) {
		ctx := base
		ctx.Value = plain(value)
		ctx.Path = path
		ctx.Key = key
		ctx.Depth = depth

		start := time.Now()
		out, evalErr := rule.Evaluate(ctx)
		evalErr = wrapEvaluationError(engine, expression, ctx.pathLabel(), evalErr)
		s.cfg.evalLogger.LogEvaluation(EvaluatorLogEvent{
			Engine:   engine,
			Expr:     expression,
			Path:     ctx.pathLabel(),
			Duration: time.Since(start),
			Err:      evalErr,
		})
		if evalErr == nil && truthy(out) {
			results = append(results, Result{Value: value, Path: path})
		}
	})
	return results, nil
}

// walk visits every descendant of the current root in pre-order.
func (s *Store) walk(visit func(value any, path, key string, depth int)) {
	var descend func(node *document.Wrapped, depth int)
	descend = func(node *document.Wrapped, depth int) {
		node.Range(func(key string, value any) bool {
			path := document.JoinPath(node.Path(), key)
			visit(value, path, key, depth)
			if child, ok := value.(*document.Wrapped); ok {
				descend(child, depth+1)
			}
			return true
		})
	}
	descend(s.Data(), 1)
}

func plain(value any) any {
	if wrapped, ok := value.(*document.Wrapped); ok {
		return wrapped.Interface()
	}
	return value
}
