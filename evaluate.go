package jsondb

import (
	"errors"
	"fmt"
	"time"
)

// ErrNoEvaluator is returned when no expression engine could be resolved.
var ErrNoEvaluator = errors.New("jsondb: evaluator not configured")

// Evaluate runs expr once against ctx with the configured evaluator. It is
// the single-shot counterpart of FindExpr.
func (s *Store) Evaluate(ctx RuleContext, expr string) (any, error) {
	if expr == "" {
		return nil, fmt.Errorf("jsondb: expression must not be empty")
	}
	evaluator, err := s.resolveEvaluator()
	if err != nil {
		return nil, err
	}
	ctx = ctx.withDefaults()
	start := time.Now()
	value, evalErr := evaluator.Evaluate(ctx, expr)
	evalErr = wrapEvaluationError(evaluatorEngineName(evaluator), expr, ctx.pathLabel(), evalErr)
	s.cfg.evalLogger.LogEvaluation(EvaluatorLogEvent{
		Engine:   evaluatorEngineName(evaluator),
		Expr:     expr,
		Path:     ctx.pathLabel(),
		Duration: time.Since(start),
		Err:      evalErr,
	})
	if evalErr != nil {
		return nil, evalErr
	}
	return value, nil
}

func (s *Store) resolveEvaluator() (Evaluator, error) {
	s.evalOnce.Do(func() {
		if s.cfg.evaluator != nil {
			s.evaluator = s.cfg.evaluator
			return
		}
		var exprOpts []ExprEvaluatorOption
		if s.cfg.programCache != nil {
			exprOpts = append(exprOpts, ExprWithProgramCache(s.cfg.programCache))
		}
		if s.cfg.functions != nil {
			exprOpts = append(exprOpts, ExprWithFunctionRegistry(s.cfg.functions))
		}
		s.evaluator = NewExprEvaluator(exprOpts...)
	})
	if s.evaluator == nil {
		return nil, ErrNoEvaluator
	}
	return s.evaluator, nil
}

func evaluatorEngineName(e Evaluator) string {
	if e == nil {
		return "unknown"
	}
	switch fmt.Sprintf("%T", e) {
	case "*jsondb.exprEvaluator":
		return "expr"
	case "*jsondb.celEvaluator":
		return "cel"
	case "*jsondb.jsEvaluator":
		return "js"
	default:
		return "custom"
	}
}

// truthy reports whether an evaluation result selects a node. Only a boolean
// true does.
func truthy(result any) bool {
	b, ok := result.(bool)
	return ok && b
}
