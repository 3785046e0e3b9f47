package verify

import (
	"encoding/json"
	"time"
)

// Assertion types understood by the built-in checkers.
const (
	TypeIntent       = "intent"
	TypeContext      = "context"
	TypeText         = "text"
	TypeOneOfTexts   = "one_of_texts"
	TypeQuickReplies = "quick_replies"
	TypeCard         = "card"
)

// Expectation declares what a query result is supposed to contain.
type Expectation struct {
	Description string      `yaml:"description" json:"description"`
	Assertions  []Assertion `yaml:"assertions" json:"assertions"`
}

// Assertion defines a machine-checkable condition on a query result.
type Assertion struct {
	Type     string `yaml:"type" json:"type"`         // "intent", "context", "text", "one_of_texts", "quick_replies", "card"
	Expected any    `yaml:"expected" json:"expected"` // decoded per type
	Message  string `yaml:"message,omitempty" json:"message,omitempty"`
}

// ExpectedContext is the shape an output context is compared against.
type ExpectedContext struct {
	Name          string         `yaml:"name" json:"name"`
	LifespanCount int            `yaml:"lifespanCount" json:"lifespanCount"`
	Parameters    map[string]any `yaml:"parameters,omitempty" json:"parameters,omitempty"`
}

// IsZero reports whether no context was given at all.
func (c *ExpectedContext) IsZero() bool {
	return c == nil || (c.Name == "" && c.LifespanCount == 0 && len(c.Parameters) == 0)
}

// VerificationResult holds the outcome of checking a result against an expectation.
type VerificationResult struct {
	Passed    bool              `json:"passed"`
	Results   []AssertionResult `json:"results"`
	Timestamp time.Time         `json:"timestamp"`
}

// Failures returns the results that did not pass.
func (v VerificationResult) Failures() []AssertionResult {
	var out []AssertionResult
	for _, r := range v.Results {
		if !r.Pass {
			out = append(out, r)
		}
	}
	return out
}

// AssertionResult records the verdict of a single assertion. The explanation
// is only built when Explain is called.
type AssertionResult struct {
	Assertion Assertion
	Pass      bool

	explain func() string
}

// Explain returns the failure diagnostic. Passing results explain nothing
// unless the assertion carried its own message.
func (r AssertionResult) Explain() string {
	if r.Pass {
		return ""
	}
	if r.Assertion.Message != "" {
		return r.Assertion.Message
	}
	if r.explain == nil {
		return ""
	}
	return r.explain()
}

// MarshalJSON renders the result with its explanation resolved.
func (r AssertionResult) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Assertion   Assertion `json:"assertion"`
		Pass        bool      `json:"pass"`
		Explanation string    `json:"explanation,omitempty"`
	}{
		Assertion:   r.Assertion,
		Pass:        r.Pass,
		Explanation: r.Explain(),
	})
}

func passed(a Assertion) AssertionResult {
	return AssertionResult{Assertion: a, Pass: true}
}

func failed(a Assertion, explain func() string) AssertionResult {
	return AssertionResult{Assertion: a, Pass: false, explain: explain}
}
