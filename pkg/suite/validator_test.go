package suite

import (
	"testing"

	"github.com/cgast/dialogcheck/pkg/result"
	"github.com/cgast/dialogcheck/pkg/verify"
)

func validSuite() Suite {
	return Suite{
		APIVersion: APIVersion,
		Kind:       Kind,
		Meta:       SuiteMeta{Name: "pizza"},
		Cases: []Case{
			{
				Name:  "order",
				Query: "I want a pizza",
				Expect: []verify.Assertion{
					{Type: verify.TypeIntent, Expected: "order.pizza"},
				},
			},
		},
	}
}

func TestValidateSuiteValid(t *testing.T) {
	result := ValidateSuite(validSuite())
	if !result.Valid() {
		t.Errorf("expected valid, got errors: %s", result.Error())
	}
}

func TestValidateSuiteHeader(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Suite)
		field  string
	}{
		{"missing apiVersion", func(s *Suite) { s.APIVersion = "" }, "apiVersion"},
		{"bad apiVersion", func(s *Suite) { s.APIVersion = "dialogcheck/v99" }, "apiVersion"},
		{"missing kind", func(s *Suite) { s.Kind = "" }, "kind"},
		{"bad kind", func(s *Suite) { s.Kind = "ProjectSpec" }, "kind"},
		{"missing name", func(s *Suite) { s.Meta.Name = "" }, "meta.name"},
		{"unknown surface", func(s *Suite) { s.Surface = "MYSPACE" }, "surface"},
		{"no cases", func(s *Suite) { s.Cases = nil }, "cases"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := validSuite()
			tt.mutate(&s)
			result := ValidateSuite(s)
			if result.Valid() {
				t.Fatalf("expected validation error for %s", tt.field)
			}
			assertHasFieldError(t, result, tt.field)
		})
	}
}

func TestValidateSuiteKnownSurfaces(t *testing.T) {
	for _, surface := range []string{"", "facebook", "SLACK", "ACTIONS_ON_GOOGLE"} {
		s := validSuite()
		s.Surface = surface
		if result := ValidateSuite(s); !result.Valid() {
			t.Errorf("surface %q should be valid, got: %s", surface, result.Error())
		}
	}
}

func TestValidateSuiteCases(t *testing.T) {
	s := validSuite()
	s.Cases = append(s.Cases,
		Case{Name: "order", Query: "again", Expect: s.Cases[0].Expect},
		Case{Name: "blank", Query: "  ", Expect: s.Cases[0].Expect},
		Case{Query: "no name", Expect: s.Cases[0].Expect},
		Case{Name: "bare", Query: "hi"},
	)

	result := ValidateSuite(s)
	assertHasFieldError(t, result, "cases[1].name")
	assertHasFieldError(t, result, "cases[2].query")
	assertHasFieldError(t, result, "cases[3].name")
	assertHasFieldError(t, result, "cases[4].expect")
}

func TestValidateSuiteAssertionTypes(t *testing.T) {
	s := validSuite()
	s.Cases[0].Expect = []verify.Assertion{
		{Type: "nonexistent_type", Expected: "x"},
		{Type: "", Expected: "x"},
		{Type: verify.TypeText},
	}

	result := ValidateSuite(s)
	assertHasFieldError(t, result, "cases[0].expect[0].type")
	assertHasFieldError(t, result, "cases[0].expect[1].type")
	assertHasFieldError(t, result, "cases[0].expect[2].expected")
}

func TestValidateSuiteCustomChecker(t *testing.T) {
	verify.RegisterChecker("always_pass_for_suite_test", func(ev *verify.Evaluator, r result.QueryResult, a verify.Assertion) verify.AssertionResult {
		return verify.AssertionResult{Assertion: a, Pass: true}
	})

	s := validSuite()
	s.Cases[0].Expect = []verify.Assertion{{Type: "always_pass_for_suite_test", Expected: true}}
	if result := ValidateSuite(s); !result.Valid() {
		t.Errorf("registered checker should validate, got: %s", result.Error())
	}
}

func TestValidateSuiteDuplicateParams(t *testing.T) {
	s := validSuite()
	s.Params = []ParamDef{
		{Name: "size", Default: "large"},
		{Name: "size", Default: "small"},
	}
	result := ValidateSuite(s)
	assertHasFieldError(t, result, "params[1].name")
}

func TestValidateSuiteMultipleErrors(t *testing.T) {
	result := ValidateSuite(Suite{})
	if result.Valid() {
		t.Error("expected multiple validation errors")
	}
	if len(result.Errors) < 4 {
		t.Errorf("expected at least 4 errors, got %d: %s", len(result.Errors), result.Error())
	}
}

func assertHasFieldError(t *testing.T, result ValidationResult, field string) {
	t.Helper()
	for _, e := range result.Errors {
		if e.Field == field {
			return
		}
	}
	t.Errorf("expected error for field %q, got errors: %v", field, result.Errors)
}
