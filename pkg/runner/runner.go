// Package runner drives a suite through a Dialogflow session and checks every
// answer with the verification engine.
package runner

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cgast/dialogcheck/pkg/bot"
	"github.com/cgast/dialogcheck/pkg/events"
	"github.com/cgast/dialogcheck/pkg/suite"
	"github.com/cgast/dialogcheck/pkg/verify"
)

// Recorder persists finished reports and returns the stored run id.
type Recorder interface {
	Save(report Report) (string, error)
}

// Runner executes suites. It is not safe for concurrent Run calls that share
// a Querier, since cases in one session depend on each other.
type Runner struct {
	querier  bot.Querier
	engine   verify.VerificationEngine
	bus      events.EventBus
	recorder Recorder
	logger   *slog.Logger

	project string
}

// Option configures a Runner.
type Option func(*Runner)

// WithEngine sets the verification engine. Defaults to verify.NewEngine().
func WithEngine(e verify.VerificationEngine) Option {
	return func(r *Runner) { r.engine = e }
}

// WithEventBus publishes run progress on bus.
func WithEventBus(bus events.EventBus) Option {
	return func(r *Runner) { r.bus = bus }
}

// WithRecorder stores every finished report.
func WithRecorder(rec Recorder) Option {
	return func(r *Runner) { r.recorder = rec }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Runner) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithProject labels reports with the agent's project id.
func WithProject(id string) Option {
	return func(r *Runner) { r.project = id }
}

// New creates a runner sending queries through q.
func New(q bot.Querier, opts ...Option) *Runner {
	r := &Runner{
		querier: q,
		logger:  slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.engine == nil {
		r.engine = verify.NewEngine()
	}
	return r
}

// Run sends every case's query in order and verifies the answers. A failed
// query marks its case as failed and the run continues; only cancellation or
// a storage failure is returned as an error.
func (r *Runner) Run(ctx context.Context, s suite.Suite) (Report, error) {
	if r.querier == nil {
		return Report{}, fmt.Errorf("run suite %s: no bot configured", s.Meta.Name)
	}

	report := Report{
		Suite:     s.Meta.Name,
		Project:   r.project,
		Surface:   s.Surface,
		Language:  s.LanguageOrDefault(),
		StartedAt: time.Now(),
		Passed:    true,
		Cases:     make([]CaseReport, 0, len(s.Cases)),
	}

	r.publish(events.NewEvent(events.EventSuiteStart, map[string]any{
		"suite":      s.Meta.Name,
		"case_count": len(s.Cases),
	}))
	r.logger.Info("suite started", "suite", s.Meta.Name, "cases", len(s.Cases))

	session := r.querier
	for i, c := range s.Cases {
		if err := ctx.Err(); err != nil {
			report.FinishedAt = time.Now()
			report.Passed = false
			return report, fmt.Errorf("run suite %s: %w", s.Meta.Name, err)
		}

		if c.NewSession && i > 0 {
			session = session.NewSession()
			r.publish(events.NewEvent(events.EventSessionStart, session.SessionPath()).ForCase(s.Meta.Name, c.Name, i))
		}

		cr := r.runCase(ctx, s.Meta.Name, i, c, session)
		if !cr.Passed {
			report.Passed = false
		}
		report.Cases = append(report.Cases, cr)
	}

	report.FinishedAt = time.Now()
	passed, failed := report.Counts()
	r.publish(events.Event{
		Type:      events.EventSuiteEnd,
		Timestamp: report.FinishedAt,
		Suite:     s.Meta.Name,
		Data:      map[string]any{"passed": passed, "failed": failed},
		Duration:  report.Duration(),
	})
	r.logger.Info("suite finished", "suite", s.Meta.Name, "passed", passed, "failed", failed, "duration", report.Duration())

	if r.recorder != nil {
		id, err := r.recorder.Save(report)
		if err != nil {
			return report, fmt.Errorf("save run: %w", err)
		}
		report.ID = id
		r.publish(events.NewEvent(events.EventRunSaved, id))
		r.logger.Debug("run saved", "id", id)
	}

	return report, nil
}

func (r *Runner) runCase(ctx context.Context, suiteName string, index int, c suite.Case, session bot.Querier) CaseReport {
	scope := func(e events.Event) events.Event { return e.ForCase(suiteName, c.Name, index) }

	cr := CaseReport{
		Name:       c.Name,
		Query:      c.Query,
		Session:    session.SessionPath(),
		Assertions: len(c.Expect),
	}
	r.publish(scope(events.NewEvent(events.EventCaseStart, c.Query)))

	start := time.Now()
	qr, err := session.Request(ctx, c.Query)
	cr.Duration = time.Since(start)
	if err != nil {
		cr.Error = err.Error()
		r.publish(scope(events.Event{Type: events.EventQueryError, Timestamp: time.Now(), Data: err.Error(), Duration: cr.Duration}))
		r.publish(scope(events.Event{Type: events.EventCaseEnd, Timestamp: time.Now(), Data: false, Duration: cr.Duration}))
		r.logger.Warn("query failed", "case", c.Name, "error", err)
		return cr
	}
	cr.Intent = qr.Intent.DisplayName
	r.publish(scope(events.Event{Type: events.EventQuerySent, Timestamp: time.Now(), Data: qr.Intent.DisplayName, Duration: cr.Duration}))

	vr, err := r.engine.Verify(qr, c.Expectation())
	if err != nil {
		cr.Error = fmt.Sprintf("verify: %v", err)
		r.publish(scope(events.Event{Type: events.EventCaseEnd, Timestamp: time.Now(), Data: false, Duration: cr.Duration}))
		return cr
	}

	for _, ar := range vr.Results {
		if ar.Pass {
			r.publish(scope(events.NewEvent(events.EventAssertionPassed, ar.Assertion.Type)))
			continue
		}
		f := Failure{
			Type:        ar.Assertion.Type,
			Expected:    ar.Assertion.Expected,
			Explanation: ar.Explain(),
		}
		cr.Failures = append(cr.Failures, f)
		r.publish(scope(events.NewEvent(events.EventAssertionFailed, f)))
	}
	cr.Passed = vr.Passed

	r.publish(scope(events.Event{Type: events.EventCaseEnd, Timestamp: time.Now(), Data: cr.Passed, Duration: cr.Duration}))
	r.logger.Debug("case finished", "case", c.Name, "passed", cr.Passed, "intent", cr.Intent)
	return cr
}

func (r *Runner) publish(e events.Event) {
	if r.bus != nil {
		r.bus.Publish(e)
	}
}
