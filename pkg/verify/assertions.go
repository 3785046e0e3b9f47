package verify

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/cgast/dialogcheck/pkg/result"
)

// AssertionChecker checks a single declared assertion against a query result.
type AssertionChecker func(ev *Evaluator, r result.QueryResult, assertion Assertion) AssertionResult

var (
	checkersMu sync.RWMutex

	// builtinCheckers maps assertion type names to their checker implementations.
	builtinCheckers = map[string]AssertionChecker{
		TypeIntent:       checkIntent,
		TypeContext:      checkContext,
		TypeText:         checkText,
		TypeOneOfTexts:   checkOneOfTexts,
		TypeQuickReplies: checkQuickReplies,
		TypeCard:         checkCard,
	}
)

// RegisterChecker adds or replaces an assertion checker.
func RegisterChecker(name string, checker AssertionChecker) {
	checkersMu.Lock()
	defer checkersMu.Unlock()
	builtinCheckers[name] = checker
}

// GetChecker returns the checker for an assertion type, or nil if not found.
func GetChecker(name string) AssertionChecker {
	checkersMu.RLock()
	defer checkersMu.RUnlock()
	return builtinCheckers[name]
}

// CheckerNames returns the registered assertion types, sorted.
func CheckerNames() []string {
	checkersMu.RLock()
	defer checkersMu.RUnlock()
	names := make([]string, 0, len(builtinCheckers))
	for name := range builtinCheckers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func checkIntent(ev *Evaluator, r result.QueryResult, assertion Assertion) AssertionResult {
	expected, ok := assertion.Expected.(string)
	if !ok {
		return ev.invalid(assertion, fmt.Errorf("want a string, got %T", assertion.Expected))
	}
	return withDeclared(ev.Intent(r, expected), assertion)
}

func checkContext(ev *Evaluator, r result.QueryResult, assertion Assertion) AssertionResult {
	var expected *ExpectedContext
	switch v := assertion.Expected.(type) {
	case nil:
	case *ExpectedContext:
		expected = v
	case ExpectedContext:
		expected = &v
	default:
		var decoded ExpectedContext
		if err := decodeExpected(v, &decoded); err != nil {
			return ev.invalid(assertion, err)
		}
		expected = &decoded
	}
	return withDeclared(ev.Context(r, expected), assertion)
}

func checkText(ev *Evaluator, r result.QueryResult, assertion Assertion) AssertionResult {
	expected, ok := assertion.Expected.(string)
	if !ok {
		return ev.invalid(assertion, fmt.Errorf("want a string, got %T", assertion.Expected))
	}
	return withDeclared(ev.Text(r, expected), assertion)
}

func checkOneOfTexts(ev *Evaluator, r result.QueryResult, assertion Assertion) AssertionResult {
	expected, err := toStringSlice(assertion.Expected)
	if err != nil {
		return ev.invalid(assertion, err)
	}
	return withDeclared(ev.OneOfTexts(r, expected), assertion)
}

func checkQuickReplies(ev *Evaluator, r result.QueryResult, assertion Assertion) AssertionResult {
	expected, err := toStringSlice(assertion.Expected)
	if err != nil {
		return ev.invalid(assertion, err)
	}
	return withDeclared(ev.QuickReplies(r, expected), assertion)
}

func checkCard(ev *Evaluator, r result.QueryResult, assertion Assertion) AssertionResult {
	var expected result.Card
	switch v := assertion.Expected.(type) {
	case result.Card:
		expected = v
	case *result.Card:
		if v != nil {
			expected = *v
		}
	default:
		if err := decodeExpected(v, &expected); err != nil {
			return ev.invalid(assertion, err)
		}
	}
	return withDeclared(ev.Card(r, expected), assertion)
}

// withDeclared keeps the assertion as it was declared on the result, so a
// custom message and the original expected value are reported.
func withDeclared(ar AssertionResult, assertion Assertion) AssertionResult {
	ar.Assertion = assertion
	return ar
}

func (e *Evaluator) invalid(assertion Assertion, err error) AssertionResult {
	expected := assertion.Expected
	return AssertionResult{
		Assertion: assertion,
		Pass:      false,
		explain: func() string {
			return e.format.invalidExpectation(assertion.Type, expected, err)
		},
	}
}

// decodeExpected converts a generic YAML/JSON value into a typed expectation.
// Unknown fields are rejected so a misspelt key cannot silently pass.
func decodeExpected(v any, out any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode expected: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("decode expected: %w", err)
	}
	return nil
}

// toStringSlice accepts []string or a []any of strings.
func toStringSlice(v any) ([]string, error) {
	switch s := v.(type) {
	case []string:
		return s, nil
	case []any:
		out := make([]string, len(s))
		for i, item := range s {
			str, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("item %d: want a string, got %T", i, item)
			}
			out[i] = str
		}
		return out, nil
	default:
		return nil, fmt.Errorf("want a list of strings, got %T", v)
	}
}
