package suite

import (
	"fmt"
	"strings"

	"github.com/cgast/dialogcheck/pkg/result"
	"github.com/cgast/dialogcheck/pkg/verify"
)

// ValidationError represents a single validation failure.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationResult holds all validation errors for a suite.
type ValidationResult struct {
	Errors []ValidationError
}

// Valid returns true if no validation errors were found.
func (r ValidationResult) Valid() bool {
	return len(r.Errors) == 0
}

// Error returns a combined error message from all validation errors.
func (r ValidationResult) Error() string {
	if r.Valid() {
		return ""
	}
	msgs := make([]string, len(r.Errors))
	for i, e := range r.Errors {
		msgs[i] = e.Error()
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(msgs, "; "))
}

func (r *ValidationResult) add(field, format string, args ...any) {
	r.Errors = append(r.Errors, ValidationError{Field: field, Message: fmt.Sprintf(format, args...)})
}

// ValidateSuite checks a Suite for required fields and structural correctness.
// Assertion types are checked against the verify registry, so custom checkers
// registered before validation are accepted.
func ValidateSuite(s Suite) ValidationResult {
	var result ValidationResult

	switch s.APIVersion {
	case "":
		result.add("apiVersion", "required")
	case APIVersion:
	default:
		result.add("apiVersion", "unsupported version %q (expected %s)", s.APIVersion, APIVersion)
	}

	switch s.Kind {
	case "":
		result.add("kind", "required")
	case Kind:
	default:
		result.add("kind", "unsupported kind %q (expected %s)", s.Kind, Kind)
	}

	if s.Meta.Name == "" {
		result.add("meta.name", "required")
	}

	if err := validateSurface(s.Surface); err != nil {
		result.add("surface", "%v", err)
	}

	if len(s.Cases) == 0 {
		result.add("cases", "at least one case is required")
	}

	caseNames := make(map[string]bool)
	for i, c := range s.Cases {
		field := fmt.Sprintf("cases[%d]", i)
		switch {
		case c.Name == "":
			result.add(field+".name", "required")
		case caseNames[c.Name]:
			result.add(field+".name", "duplicate case name %q", c.Name)
		default:
			caseNames[c.Name] = true
		}

		if strings.TrimSpace(c.Query) == "" {
			result.add(field+".query", "required")
		}
		if len(c.Expect) == 0 {
			result.add(field+".expect", "at least one assertion is required")
		}
		for j, a := range c.Expect {
			afield := fmt.Sprintf("%s.expect[%d]", field, j)
			if a.Type == "" {
				result.add(afield+".type", "required")
			} else if verify.GetChecker(a.Type) == nil {
				result.add(afield+".type", "unknown assertion type %q", a.Type)
			}
			if a.Expected == nil && a.Type != "" {
				result.add(afield+".expected", "required")
			}
		}
	}

	paramNames := make(map[string]bool)
	for i, p := range s.Params {
		field := fmt.Sprintf("params[%d].name", i)
		switch {
		case p.Name == "":
			result.add(field, "required")
		case paramNames[p.Name]:
			result.add(field, "duplicate param name %q", p.Name)
		default:
			paramNames[p.Name] = true
		}
	}

	return result
}

func validateSurface(name string) error {
	_, err := result.ParseSurface(name)
	return err
}
