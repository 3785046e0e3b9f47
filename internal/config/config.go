package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultPath is where the CLI looks for configuration.
const DefaultPath = ".dialogcheck/config.yaml"

// Config represents the runtime configuration from .dialogcheck/config.yaml.
type Config struct {
	ProjectID       string          `yaml:"project_id"`
	CredentialsFile string          `yaml:"credentials_file"`
	Language        string          `yaml:"language"`
	Surface         string          `yaml:"surface"`
	LogLevel        string          `yaml:"log_level"`
	Color           bool            `yaml:"color"`
	Verify          VerifyConfig    `yaml:"verify"`
	History         HistoryConfig   `yaml:"history"`
	GitHub          GitHubConfig    `yaml:"github"`
	Inspector       InspectorConfig `yaml:"inspector"`
}

// VerifyConfig defines verification defaults.
type VerifyConfig struct {
	FailFast bool `yaml:"fail_fast"`
}

// HistoryConfig defines run history settings.
type HistoryConfig struct {
	Path       string `yaml:"path"`
	MaxEntries int    `yaml:"max_entries"`
	Persist    bool   `yaml:"persist"`
}

// InspectorConfig enables the live HTTP view of runs when Addr is set.
type InspectorConfig struct {
	Addr string `yaml:"addr"`
}

// GitHubConfig holds settings for filing issues on failing runs.
type GitHubConfig struct {
	Token  string   `yaml:"token"`
	Repo   string   `yaml:"repo"` // owner/name
	Labels []string `yaml:"labels"`
}

// Enabled reports whether enough is configured to file issues.
func (g GitHubConfig) Enabled() bool {
	return g.Token != "" && g.Repo != ""
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Language: "en",
		LogLevel: "info",
		History: HistoryConfig{
			Path:       ".dialogcheck/history.db",
			MaxEntries: 500,
			Persist:    true,
		},
		GitHub: GitHubConfig{
			Labels: []string{"dialogcheck"},
		},
	}
}

// LoadConfig reads and parses a runtime config YAML file.
// Returns default config if the file doesn't exist. ${VAR} references are
// replaced with environment values; references to unset variables leave the
// field empty.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}

	interpolated := interpolateEnvVars(string(data))

	if err := yaml.Unmarshal([]byte(interpolated), &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}

	for _, field := range []*string{&cfg.ProjectID, &cfg.CredentialsFile, &cfg.GitHub.Token, &cfg.GitHub.Repo} {
		if envVarPattern.MatchString(*field) {
			*field = ""
		}
	}

	return cfg, nil
}

// envVarPattern matches ${VAR_NAME} patterns.
var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// interpolateEnvVars replaces ${VAR_NAME} patterns with environment variable values.
func interpolateEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		varName := strings.TrimPrefix(strings.TrimSuffix(match, "}"), "${")
		if val, ok := os.LookupEnv(varName); ok {
			return val
		}
		return match // Leave unresolved if not set.
	})
}
