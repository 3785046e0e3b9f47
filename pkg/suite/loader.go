package suite

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// LoadSuite reads a YAML suite file and returns the parsed Suite.
// Template variables like {{date}} and {{param_name}} are interpolated
// using the provided params (or defaults from the suite).
func LoadSuite(path string, params map[string]string) (Suite, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Suite{}, fmt.Errorf("read suite %s: %w", path, err)
	}

	return ParseSuite(data, params)
}

// ParseSuite parses YAML data into a Suite with variable interpolation.
func ParseSuite(data []byte, params map[string]string) (Suite, error) {
	// First pass: parse to get param defaults.
	var raw Suite
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return Suite{}, fmt.Errorf("parse suite: %w", err)
	}

	vars := buildVarMap(raw.Params, params)
	interpolated := interpolateVars(string(data), vars)

	var s Suite
	if err := yaml.Unmarshal([]byte(interpolated), &s); err != nil {
		return Suite{}, fmt.Errorf("parse interpolated suite: %w", err)
	}

	return s, nil
}

// buildVarMap creates a variable map from param defaults and runtime overrides.
// Built-in variables like {{date}} are always available.
func buildVarMap(paramDefs []ParamDef, overrides map[string]string) map[string]string {
	vars := make(map[string]string)

	now := time.Now()
	vars["date"] = now.Format("2006-01-02")
	vars["weekday"] = now.Weekday().String()
	vars["year"] = now.Format("2006")

	for _, p := range paramDefs {
		if p.Default != nil {
			vars[p.Name] = fmt.Sprintf("%v", p.Default)
		}
	}

	for k, v := range overrides {
		vars[k] = v
	}

	return vars
}

// templatePattern matches {{var_name}} patterns.
var templatePattern = regexp.MustCompile(`\{\{([A-Za-z_][A-Za-z0-9_]*)\}\}`)

// interpolateVars replaces {{var_name}} patterns with values from the var map.
func interpolateVars(s string, vars map[string]string) string {
	return templatePattern.ReplaceAllStringFunc(s, func(match string) string {
		varName := strings.TrimPrefix(strings.TrimSuffix(match, "}}"), "{{")
		if val, ok := vars[varName]; ok {
			return val
		}
		return match // Leave unresolved.
	})
}
