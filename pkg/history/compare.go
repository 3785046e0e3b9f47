package history

import (
	"fmt"

	"github.com/cgast/dialogcheck/pkg/runner"
)

// ChangeType classifies how a case differs between two runs.
type ChangeType string

const (
	ChangeRegressed ChangeType = "regressed" // passed before, fails now
	ChangeFixed     ChangeType = "fixed"     // failed before, passes now
	ChangeAdded     ChangeType = "added"
	ChangeRemoved   ChangeType = "removed"
	ChangeIntent    ChangeType = "intent" // same verdict, different matched intent
)

// Change records a difference for one case between two runs.
type Change struct {
	Case   string     `json:"case"`
	Type   ChangeType `json:"type"`
	Before string     `json:"before,omitempty"`
	After  string     `json:"after,omitempty"`
	Detail string     `json:"detail,omitempty"`
}

func (c Change) String() string {
	switch c.Type {
	case ChangeAdded:
		return fmt.Sprintf("+ %s (%s)", c.Case, c.After)
	case ChangeRemoved:
		return fmt.Sprintf("- %s (%s)", c.Case, c.Before)
	default:
		return fmt.Sprintf("~ %s: %s -> %s [%s]", c.Case, c.Before, c.After, c.Type)
	}
}

func status(c runner.CaseReport) string {
	if c.Passed {
		return "pass"
	}
	return "fail"
}

// Compare lists what changed from run a to run b. Changes follow b's case
// order, with removed cases last in a's order.
func Compare(a, b runner.Report) []Change {
	var changes []Change

	for _, cb := range b.Cases {
		ca, ok := a.Case(cb.Name)
		if !ok {
			changes = append(changes, Change{Case: cb.Name, Type: ChangeAdded, After: status(cb)})
			continue
		}

		switch {
		case ca.Passed && !cb.Passed:
			changes = append(changes, Change{
				Case:   cb.Name,
				Type:   ChangeRegressed,
				Before: status(ca),
				After:  status(cb),
				Detail: firstProblem(cb),
			})
		case !ca.Passed && cb.Passed:
			changes = append(changes, Change{Case: cb.Name, Type: ChangeFixed, Before: status(ca), After: status(cb)})
		case ca.Intent != cb.Intent:
			changes = append(changes, Change{Case: cb.Name, Type: ChangeIntent, Before: ca.Intent, After: cb.Intent})
		}
	}

	for _, ca := range a.Cases {
		if _, ok := b.Case(ca.Name); !ok {
			changes = append(changes, Change{Case: ca.Name, Type: ChangeRemoved, Before: status(ca)})
		}
	}

	return changes
}

// Regressions filters changes down to regressed cases.
func Regressions(changes []Change) []Change {
	var out []Change
	for _, c := range changes {
		if c.Type == ChangeRegressed {
			out = append(out, c)
		}
	}
	return out
}

func firstProblem(c runner.CaseReport) string {
	if c.Error != "" {
		return c.Error
	}
	if len(c.Failures) > 0 {
		return c.Failures[0].Type + " assertion failed"
	}
	return ""
}
