package usecase

import (
	"fmt"

	"github.com/Knetic/govaluate"
)

// RetryPolicy decides whether a declined attempt may be retried on the same
// gateway. The expression sees retryable (bool), attempts (number of attempts
// on the order so far) and gateway (code).
type RetryPolicy struct {
	expr *govaluate.EvaluableExpression
}

// NewRetryPolicy compiles expression and checks that it yields a boolean.
func NewRetryPolicy(expression string) (*RetryPolicy, error) {
	expr, err := govaluate.NewEvaluableExpression(expression)
	if err != nil {
		return nil, fmt.Errorf("compile retry policy: %w", err)
	}
	p := &RetryPolicy{expr: expr}
	if _, err := p.evaluate(true, 1, "validate"); err != nil {
		return nil, err
	}
	return p, nil
}

// Allow reports whether the payer should be offered a retry.
func (p *RetryPolicy) Allow(retryable bool, attempts int, gateway string) bool {
	ok, err := p.evaluate(retryable, attempts, gateway)
	return err == nil && ok
}

func (p *RetryPolicy) evaluate(retryable bool, attempts int, gateway string) (bool, error) {
	out, err := p.expr.Evaluate(map[string]interface{}{
		"retryable": retryable,
		"attempts":  float64(attempts),
		"gateway":   gateway,
	})
	if err != nil {
		return false, fmt.Errorf("evaluate retry policy: %w", err)
	}
	ok, isBool := out.(bool)
	if !isBool {
		return false, fmt.Errorf("retry policy must yield a boolean, got %T", out)
	}
	return ok, nil
}
