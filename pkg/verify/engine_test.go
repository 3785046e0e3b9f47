package verify

import (
	"strings"
	"testing"

	"github.com/cgast/dialogcheck/pkg/result"
)

func greetingResult() result.QueryResult {
	return result.QueryResult{
		QueryText: "hello",
		Intent:    result.Intent{DisplayName: "welcome"},
		FulfillmentMessages: []result.Message{
			textMessage(result.SurfaceUnspecified, "Hi! How can I help?"),
			textMessage(result.SurfaceActionsOnGoogle, "Hi from the Assistant"),
			quickReplies(result.SurfaceActionsOnGoogle, "Order", "Track"),
		},
	}
}

func TestEngineAllPass(t *testing.T) {
	expectation := Expectation{
		Description: "greeting matches welcome and says hi",
		Assertions: []Assertion{
			{Type: TypeIntent, Expected: "welcome"},
			{Type: TypeText, Expected: "Hi! How can I help?"},
		},
	}

	engine := NewEngine()
	vr, err := engine.Verify(greetingResult(), expectation)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if !vr.Passed {
		t.Errorf("expected all assertions to pass, failures: %v", vr.Failures())
	}
	if len(vr.Results) != 2 {
		t.Errorf("results count = %d, want 2", len(vr.Results))
	}
}

func TestEngineOneFails(t *testing.T) {
	expectation := Expectation{
		Description: "second assertion fails",
		Assertions: []Assertion{
			{Type: TypeIntent, Expected: "welcome"},
			{Type: TypeIntent, Expected: "goodbye"},
			{Type: TypeText, Expected: "Hi! How can I help?"},
		},
	}

	engine := NewEngine()
	vr, err := engine.Verify(greetingResult(), expectation)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if vr.Passed {
		t.Error("expected overall failure")
	}
	// Without fail-fast, all 3 assertions should be checked.
	if len(vr.Results) != 3 {
		t.Fatalf("results count = %d, want 3", len(vr.Results))
	}
	if !vr.Results[0].Pass || vr.Results[1].Pass || !vr.Results[2].Pass {
		t.Errorf("unexpected verdicts: %v %v %v", vr.Results[0].Pass, vr.Results[1].Pass, vr.Results[2].Pass)
	}
	if len(vr.Failures()) != 1 {
		t.Errorf("Failures() = %d, want 1", len(vr.Failures()))
	}
}

func TestEngineFailFast(t *testing.T) {
	expectation := Expectation{
		Assertions: []Assertion{
			{Type: TypeIntent, Expected: "missing"},
			{Type: TypeIntent, Expected: "welcome"},
		},
	}

	engine := NewEngine(WithFailFast(true))
	vr, err := engine.Verify(greetingResult(), expectation)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if vr.Passed {
		t.Error("expected failure")
	}
	if len(vr.Results) != 1 {
		t.Errorf("results count = %d, want 1 (fail-fast)", len(vr.Results))
	}
}

func TestEngineUnknownAssertionType(t *testing.T) {
	expectation := Expectation{Assertions: []Assertion{{Type: "sentiment", Expected: "positive"}}}

	vr, err := NewEngine().Verify(greetingResult(), expectation)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if vr.Passed {
		t.Error("expected failure for unknown type")
	}
	if !strings.Contains(vr.Results[0].Explain(), "sentiment") {
		t.Errorf("expected explanation naming the type, got %q", vr.Results[0].Explain())
	}
}

func TestEngineEmptyExpectation(t *testing.T) {
	vr, err := VerifyResult(greetingResult(), Expectation{Description: "no assertions"})
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if !vr.Passed {
		t.Error("empty expectation should pass")
	}
	if len(vr.Results) != 0 {
		t.Errorf("results count = %d, want 0", len(vr.Results))
	}
}

func TestEngineSurface(t *testing.T) {
	expectation := Expectation{Assertions: []Assertion{
		{Type: TypeText, Expected: "Hi from the Assistant"},
		{Type: TypeQuickReplies, Expected: []any{"Order", "Track"}},
	}}

	vr, _ := NewEngine().Verify(greetingResult(), expectation)
	if vr.Passed {
		t.Error("default-surface engine should not see Assistant messages")
	}

	engine := NewEngine(WithSurface(result.SurfaceActionsOnGoogle))
	if engine.Evaluator().Surface != result.SurfaceActionsOnGoogle {
		t.Fatalf("evaluator surface = %q", engine.Evaluator().Surface)
	}
	vr, _ = engine.Verify(greetingResult(), expectation)
	if !vr.Passed {
		for _, f := range vr.Failures() {
			t.Errorf("%s: %s", f.Assertion.Type, f.Explain())
		}
	}
}

func TestEngineColor(t *testing.T) {
	expectation := Expectation{Assertions: []Assertion{{Type: TypeIntent, Expected: "other"}}}
	vr, _ := NewEngine(WithColor(true)).Verify(greetingResult(), expectation)
	if !strings.Contains(vr.Results[0].Explain(), "\x1b[") {
		t.Error("expected coloured explanation")
	}
}
