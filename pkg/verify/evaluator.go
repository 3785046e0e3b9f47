package verify

import (
	"slices"
	"strings"

	"github.com/cgast/dialogcheck/pkg/result"
	"github.com/cgast/dialogcheck/pkg/structval"
)

// contextDelimiter separates the session path from a context's short id.
const contextDelimiter = "contexts/"

// Evaluator runs the typed assertions. Message assertions select on Surface.
type Evaluator struct {
	Surface result.Surface
	format  *Formatter
}

// NewEvaluator creates an Evaluator. A nil formatter means plain text.
func NewEvaluator(surface result.Surface, f *Formatter) *Evaluator {
	if f == nil {
		f = NewFormatter(false)
	}
	return &Evaluator{Surface: surface, format: f}
}

var defaultEvaluator = NewEvaluator(result.SurfaceUnspecified, nil)

// Intent passes when the matched intent's display name equals expected exactly.
func (e *Evaluator) Intent(r result.QueryResult, expected string) AssertionResult {
	a := Assertion{Type: TypeIntent, Expected: expected}
	received := r.Intent.DisplayName
	if received == expected {
		return passed(a)
	}
	query := r.QueryText
	return failed(a, func() string {
		return e.format.intentMismatch(query, expected, received)
	})
}

// Context passes when the output context named expected.Name carries exactly
// the expected lifespan and parameters.
func (e *Evaluator) Context(r result.QueryResult, expected *ExpectedContext) AssertionResult {
	a := Assertion{Type: TypeContext, Expected: expected}
	if expected.IsZero() {
		return failed(a, e.format.noContextGiven)
	}

	var found *result.Context
	for i := range r.OutputContexts {
		if id, ok := ContextID(r.OutputContexts[i].Name); ok && id == expected.Name {
			found = &r.OutputContexts[i]
			break
		}
	}
	name := expected.Name
	if found == nil {
		return failed(a, func() string { return e.format.contextNotFound(name) })
	}

	received := ExpectedContext{
		Name:          expected.Name,
		LifespanCount: found.LifespanCount,
		Parameters:    structval.StructToMap(found.Parameters),
	}
	want := ExpectedContext{
		Name:          expected.Name,
		LifespanCount: expected.LifespanCount,
		Parameters:    normalizeParameters(expected.Parameters),
	}
	if Equal(want, received) {
		return passed(a)
	}
	return failed(a, func() string { return e.format.contextMismatch(want, received) })
}

// ContextID extracts the short id from a context resource path.
func ContextID(name string) (string, bool) {
	_, id, ok := strings.Cut(name, contextDelimiter)
	return id, ok
}

func normalizeParameters(p map[string]any) map[string]any {
	return structval.StructToMap(structval.MapToStruct(p))
}

// Text passes when some text message's first candidate equals expected.
func (e *Evaluator) Text(r result.QueryResult, expected string) AssertionResult {
	a := Assertion{Type: TypeText, Expected: expected}
	return e.matchText(a, r, func(text string) bool { return text == expected })
}

// OneOfTexts passes when some text message's first candidate is one of expected.
func (e *Evaluator) OneOfTexts(r result.QueryResult, expected []string) AssertionResult {
	a := Assertion{Type: TypeOneOfTexts, Expected: expected}
	return e.matchText(a, r, func(text string) bool { return slices.Contains(expected, text) })
}

func (e *Evaluator) matchText(a Assertion, r result.QueryResult, match func(string) bool) AssertionResult {
	messages := SelectMessages(r, result.KindText, e.Surface)
	for _, m := range messages {
		if text, ok := m.FirstText(); ok && match(text) {
			return passed(a)
		}
	}
	return failed(a, func() string {
		return e.format.textNotFound(ExampleMessage(messages, false))
	})
}

// QuickReplies passes when the first quick-replies message lists exactly the
// expected replies in the same order.
func (e *Evaluator) QuickReplies(r result.QueryResult, expected []string) AssertionResult {
	a := Assertion{Type: TypeQuickReplies, Expected: expected}
	messages := SelectMessages(r, result.KindQuickReplies, e.Surface)
	if len(messages) == 0 {
		return failed(a, e.format.noQuickReplies)
	}

	var received []string
	if messages[0].QuickReplies != nil {
		received = messages[0].QuickReplies.Replies
	}
	if Equal(expected, received) {
		return passed(a)
	}
	return failed(a, func() string { return e.format.quickRepliesMismatch(expected, received) })
}

// Card passes when the first card message equals expected.
func (e *Evaluator) Card(r result.QueryResult, expected result.Card) AssertionResult {
	a := Assertion{Type: TypeCard, Expected: expected}
	messages := SelectMessages(r, result.KindCard, e.Surface)
	if len(messages) == 0 {
		return failed(a, e.format.noCards)
	}

	var received result.Card
	if messages[0].Card != nil {
		received = *messages[0].Card
	}
	if Equal(expected, received) {
		return passed(a)
	}
	return failed(a, func() string { return e.format.cardMismatch(expected, received) })
}

// ExpectIntent checks the matched intent with the default evaluator.
func ExpectIntent(r result.QueryResult, expected string) AssertionResult {
	return defaultEvaluator.Intent(r, expected)
}

// ExpectContext checks an output context with the default evaluator.
func ExpectContext(r result.QueryResult, expected *ExpectedContext) AssertionResult {
	return defaultEvaluator.Context(r, expected)
}

// ExpectText checks for a default-surface text message.
func ExpectText(r result.QueryResult, expected string) AssertionResult {
	return defaultEvaluator.Text(r, expected)
}

// ExpectOneOfTexts checks for a default-surface text message among expected.
func ExpectOneOfTexts(r result.QueryResult, expected []string) AssertionResult {
	return defaultEvaluator.OneOfTexts(r, expected)
}

// ExpectQuickReplies checks the default-surface quick replies.
func ExpectQuickReplies(r result.QueryResult, expected []string) AssertionResult {
	return defaultEvaluator.QuickReplies(r, expected)
}

// ExpectCard checks the default-surface card.
func ExpectCard(r result.QueryResult, expected result.Card) AssertionResult {
	return defaultEvaluator.Card(r, expected)
}
