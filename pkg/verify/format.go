package verify

import (
	"fmt"
	"strings"

	"github.com/fatih/color"

	"github.com/cgast/dialogcheck/pkg/result"
)

const contextReferenceURL = "https://cloud.google.com/dialogflow/es/docs/reference/rest/v2/projects.agent.sessions.contexts#Context"

// Formatter builds failure diagnostics. Colouring is fixed at construction and
// never inferred from the terminal, so the same inputs always render the same
// text.
type Formatter struct {
	expected *color.Color
	received *color.Color
	emphasis *color.Color
	example  *color.Color
	alert    *color.Color
}

// NewFormatter returns a Formatter that emits ANSI colours when colored is true.
func NewFormatter(colored bool) *Formatter {
	f := &Formatter{
		expected: color.New(color.FgGreen),
		received: color.New(color.FgRed),
		emphasis: color.New(color.Bold),
		example:  color.New(color.FgBlue),
		alert:    color.New(color.FgRed),
	}
	for _, c := range []*color.Color{f.expected, f.received, f.emphasis, f.example, f.alert} {
		if colored {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return f
}

func (f *Formatter) printExpected(v string) string { return f.expected.Sprintf("%q", v) }
func (f *Formatter) printReceived(v string) string { return f.received.Sprintf("%q", v) }
func (f *Formatter) bold(s string) string          { return f.emphasis.Sprint(s) }

func (f *Formatter) intentMismatch(query, expected, received string) string {
	return fmt.Sprintf("Query: %q\nExpected intent: %s\nReceived intent: %s.\n\n"+
		"You may want to check your %s. Make sure they are not %s across your intents.",
		query, f.printExpected(expected), f.printReceived(received),
		f.bold("training phrases"), f.bold("conflicting"))
}

func (f *Formatter) noContextGiven() string {
	return "You didn't give a context.\nRefer to these docs for the format: " + contextReferenceURL
}

func (f *Formatter) contextNotFound(name string) string {
	return fmt.Sprintf("No context with name %s has been found in the output contexts. "+
		"Make sure you provided one and that its name is %s.",
		f.bold(fmt.Sprintf("%q", name)), f.bold("lowercased"))
}

func (f *Formatter) contextMismatch(expected, received ExpectedContext) string {
	return "The expected context is not the same as the received one.\n\n" +
		"Difference (-expected +received):\n" + Diff(expected, received)
}

func (f *Formatter) textNotFound(example string, ok bool) string {
	var b strings.Builder
	b.WriteString("No such text message has been found in the fulfillment messages.\n")
	fmt.Fprintf(&b, "Make sure that you're looking for %s and not text in cards or custom payloads for example.",
		f.bold("text only"))
	if ok {
		b.WriteString("\nHere is one of the text messages displayed:\n\n")
		b.WriteString(f.example.Sprintf("%q", example))
	}
	return b.String()
}

func (f *Formatter) noQuickReplies() string {
	return f.alert.Sprint("There are no quick replies in the response.")
}

func (f *Formatter) quickRepliesMismatch(expected, received []string) string {
	return "The expected quick replies are different from the received ones:\n\n" +
		Diff(expected, received) +
		"\n\nMake sure you provided the quick replies " + f.bold("in the right order") + "."
}

func (f *Formatter) noCards() string {
	return f.alert.Sprint("There are no cards in the response.")
}

func (f *Formatter) cardMismatch(expected, received result.Card) string {
	return "The expected card is different from the received one:\n\n" + Diff(expected, received)
}

func (f *Formatter) invalidExpectation(typ string, expected any, err error) string {
	return fmt.Sprintf("%s: invalid expected value %v: %v", typ, expected, err)
}

// ExampleMessage picks a text message to show when no message matched: the
// first candidate of the first message. Nothing is offered when a message
// matched or when there are no messages.
func ExampleMessage(messages []result.Message, matched bool) (string, bool) {
	if matched || len(messages) == 0 {
		return "", false
	}
	return messages[0].FirstText()
}
