package events

import "time"

// EventType identifies the kind of event emitted while a suite runs.
type EventType string

const (
	EventSuiteStart      EventType = "suite.start"
	EventSuiteEnd        EventType = "suite.end"
	EventSessionStart    EventType = "session.start"
	EventQuerySent       EventType = "query.sent"
	EventQueryError      EventType = "query.error"
	EventCaseStart       EventType = "case.start"
	EventCaseEnd         EventType = "case.end"
	EventAssertionPassed EventType = "assertion.passed"
	EventAssertionFailed EventType = "assertion.failed"
	EventRunSaved        EventType = "run.saved"
	EventIssueFiled      EventType = "issue.filed"
)

// Event represents a single runtime event.
type Event struct {
	Seq       uint64        `json:"seq,omitempty"` // assigned by the bus, increasing
	Type      EventType     `json:"type"`
	Timestamp time.Time     `json:"timestamp"`
	Suite     string        `json:"suite,omitempty"`
	Case      string        `json:"case,omitempty"`
	Data      any           `json:"data"`
	CaseIndex int           `json:"case_index,omitempty"`
	Duration  time.Duration `json:"duration,omitempty"`
}

// NewEvent creates a new Event with the current timestamp.
func NewEvent(typ EventType, data any) Event {
	return Event{
		Type:      typ,
		Timestamp: time.Now(),
		Data:      data,
	}
}

// ForCase scopes the event to a suite case.
func (e Event) ForCase(suite, name string, index int) Event {
	e.Suite = suite
	e.Case = name
	e.CaseIndex = index
	return e
}

// Failed reports whether the event records a failure.
func (e Event) Failed() bool {
	return e.Type == EventAssertionFailed || e.Type == EventQueryError
}
