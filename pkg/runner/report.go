package runner

import "time"

// Report is the outcome of running one suite against one agent.
type Report struct {
	ID         string       `json:"id"`
	Suite      string       `json:"suite"`
	Project    string       `json:"project,omitempty"`
	Surface    string       `json:"surface,omitempty"`
	Language   string       `json:"language,omitempty"`
	StartedAt  time.Time    `json:"started_at"`
	FinishedAt time.Time    `json:"finished_at"`
	Passed     bool         `json:"passed"`
	Cases      []CaseReport `json:"cases"`
}

// CaseReport records one query and the verdicts on its answer.
type CaseReport struct {
	Name       string        `json:"name"`
	Query      string        `json:"query"`
	Session    string        `json:"session,omitempty"`
	Intent     string        `json:"intent,omitempty"`
	Passed     bool          `json:"passed"`
	Assertions int           `json:"assertions"`
	Failures   []Failure     `json:"failures,omitempty"`
	Error      string        `json:"error,omitempty"`
	Duration   time.Duration `json:"duration"`
}

// Failure is a failed assertion with its diagnostic already rendered, so a
// report can be stored and printed without the query result.
type Failure struct {
	Type        string `json:"type"`
	Expected    any    `json:"expected,omitempty"`
	Explanation string `json:"explanation"`
}

// Duration is the wall time of the whole run.
func (r Report) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// Counts returns how many cases passed and failed.
func (r Report) Counts() (passed, failed int) {
	for _, c := range r.Cases {
		if c.Passed {
			passed++
		} else {
			failed++
		}
	}
	return passed, failed
}

// FailedCases returns the cases that did not pass, in run order.
func (r Report) FailedCases() []CaseReport {
	var out []CaseReport
	for _, c := range r.Cases {
		if !c.Passed {
			out = append(out, c)
		}
	}
	return out
}

// Case looks up a case report by name.
func (r Report) Case(name string) (CaseReport, bool) {
	for _, c := range r.Cases {
		if c.Name == name {
			return c, true
		}
	}
	return CaseReport{}, false
}
