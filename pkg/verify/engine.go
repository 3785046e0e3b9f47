package verify

import (
	"fmt"
	"time"

	"github.com/cgast/dialogcheck/pkg/result"
)

// VerificationEngine verifies query results against expectations.
type VerificationEngine interface {
	Verify(r result.QueryResult, expectation Expectation) (VerificationResult, error)
}

// Option configures the DefaultEngine.
type Option func(*DefaultEngine)

// WithFailFast stops verification on the first failed assertion.
func WithFailFast(ff bool) Option {
	return func(e *DefaultEngine) {
		e.failFast = ff
	}
}

// WithColor enables ANSI colours in failure explanations.
func WithColor(colored bool) Option {
	return func(e *DefaultEngine) {
		e.colored = colored
	}
}

// WithSurface selects the surface that message assertions look at.
func WithSurface(s result.Surface) Option {
	return func(e *DefaultEngine) {
		e.surface = s
	}
}

// DefaultEngine is the standard verification engine.
type DefaultEngine struct {
	failFast  bool
	colored   bool
	surface   result.Surface
	evaluator *Evaluator
}

// NewEngine creates a new verification engine with the given options.
func NewEngine(opts ...Option) *DefaultEngine {
	e := &DefaultEngine{}
	for _, opt := range opts {
		opt(e)
	}
	e.evaluator = NewEvaluator(e.surface, NewFormatter(e.colored))
	return e
}

// Evaluator returns the evaluator the engine runs checkers with.
func (e *DefaultEngine) Evaluator() *Evaluator {
	return e.evaluator
}

// Verify checks a query result against all assertions in an expectation.
func (e *DefaultEngine) Verify(r result.QueryResult, expectation Expectation) (VerificationResult, error) {
	vr := VerificationResult{
		Passed:    true,
		Timestamp: time.Now(),
		Results:   make([]AssertionResult, 0, len(expectation.Assertions)),
	}

	for _, assertion := range expectation.Assertions {
		checker := GetChecker(assertion.Type)
		if checker == nil {
			typ := assertion.Type
			ar := failed(assertion, func() string {
				return fmt.Sprintf("unknown assertion type: %q", typ)
			})
			vr.Results = append(vr.Results, ar)
			vr.Passed = false

			if e.failFast {
				return vr, nil
			}
			continue
		}

		ar := checker(e.evaluator, r, assertion)
		vr.Results = append(vr.Results, ar)

		if !ar.Pass {
			vr.Passed = false
			if e.failFast {
				return vr, nil
			}
		}
	}

	return vr, nil
}

// VerifyResult is a convenience function that creates a default engine and verifies.
func VerifyResult(r result.QueryResult, expectation Expectation) (VerificationResult, error) {
	engine := NewEngine()
	return engine.Verify(r, expectation)
}
