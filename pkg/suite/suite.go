package suite

import "github.com/cgast/dialogcheck/pkg/verify"

// APIVersion and Kind identify a suite document.
const (
	APIVersion = "dialogcheck/v1"
	Kind       = "Suite"

	DefaultLanguage = "en"
)

// Suite is a list of queries sent to one Dialogflow agent, each with the
// assertions its answer must satisfy.
type Suite struct {
	APIVersion string     `yaml:"apiVersion" json:"apiVersion"`
	Kind       string     `yaml:"kind" json:"kind"`
	Meta       SuiteMeta  `yaml:"meta" json:"meta"`
	Project    string     `yaml:"project,omitempty" json:"project,omitempty"`
	Surface    string     `yaml:"surface,omitempty" json:"surface,omitempty"`
	Language   string     `yaml:"language,omitempty" json:"language,omitempty"`
	Params     []ParamDef `yaml:"params,omitempty" json:"params,omitempty"`
	Cases      []Case     `yaml:"cases" json:"cases"`
}

// SuiteMeta contains metadata about the suite.
type SuiteMeta struct {
	Name        string   `yaml:"name" json:"name"`
	Description string   `yaml:"description,omitempty" json:"description,omitempty"`
	Tags        []string `yaml:"tags,omitempty" json:"tags,omitempty"`
}

// ParamDef defines a template variable and its default.
type ParamDef struct {
	Name        string `yaml:"name" json:"name"`
	Default     any    `yaml:"default" json:"default"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
}

// Case is one query and its expectations. Cases share a session unless
// NewSession is set, so contexts carry over between consecutive cases.
type Case struct {
	Name       string             `yaml:"name" json:"name"`
	Query      string             `yaml:"query" json:"query"`
	NewSession bool               `yaml:"new_session,omitempty" json:"new_session,omitempty"`
	Expect     []verify.Assertion `yaml:"expect" json:"expect"`
}

// Expectation converts the case's assertions for the verification engine.
func (c Case) Expectation() verify.Expectation {
	return verify.Expectation{Description: c.Name, Assertions: c.Expect}
}

// LanguageOrDefault returns the suite language, falling back to DefaultLanguage.
func (s Suite) LanguageOrDefault() string {
	if s.Language == "" {
		return DefaultLanguage
	}
	return s.Language
}
