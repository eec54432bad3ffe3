// Package branding provides compile-time identity values for the CLI.
//
// The values live in branding.yaml next to this file and are baked into the
// binary with //go:embed, so forks can rename the tool without touching code.
package branding

import (
	_ "embed"
	"strings"
	"sync"

	"go.yaml.in/yaml/v3"
)

//go:embed branding.yaml
var rawBranding []byte

var (
	once     sync.Once
	defaults brand
)

type brand struct {
	CLIName      string `yaml:"cli_name"`
	DisplayName  string `yaml:"display_name"`
	Description  string `yaml:"description"`
	HomeDir      string `yaml:"home_dir"`
	ProjectDir   string `yaml:"project_dir"`
	EnvPrefix    string `yaml:"env_prefix"`
	GoModule     string `yaml:"go_module"`
	GitHubRepo   string `yaml:"github_repo"`
	RegistryURL  string `yaml:"registry_url"`
	TelemetryURL string `yaml:"telemetry_url"`
}

func load() {
	once.Do(func() {
		// Set hard defaults in case the embedded file is missing/empty.
		defaults = brand{
			CLIName:      "skilldocs",
			DisplayName:  "SkillDocs",
			Description:  "Install llms.txt documentation as skills for AI coding agents",
			HomeDir:      ".skilldocs",
			ProjectDir:   ".skilldocs",
			EnvPrefix:    "SKILLDOCS",
			GoModule:     "github.com/agentx-labs/skilldocs",
			GitHubRepo:   "agentx-labs/skilldocs",
			RegistryURL:  "https://skilldocs.dev/api/registry.json",
			TelemetryURL: "https://skilldocs.dev/api/telemetry",
		}
		// Overlay with embedded YAML values.
		_ = yaml.Unmarshal(rawBranding, &defaults)
	})
}

// CLIName returns the root command name (e.g., "skilldocs").
func CLIName() string { load(); return defaults.CLIName }

// DisplayName returns the human-readable product name (e.g., "SkillDocs").
func DisplayName() string { load(); return defaults.DisplayName }

// Description returns the short product description.
func Description() string { load(); return defaults.Description }

// HomeDir returns the dot-directory name under $HOME (e.g., ".skilldocs").
func HomeDir() string { load(); return defaults.HomeDir }

// ProjectDir returns the hidden per-project metadata directory that holds
// the lockfile (e.g., ".skilldocs").
func ProjectDir() string { load(); return defaults.ProjectDir }

// EnvPrefix returns the environment variable prefix (e.g., "SKILLDOCS").
func EnvPrefix() string { load(); return defaults.EnvPrefix }

// GoModule returns the Go module path. Not consumed at runtime.
func GoModule() string { load(); return defaults.GoModule }

// GitHubRepo returns the "owner/repo" string.
func GitHubRepo() string { load(); return defaults.GitHubRepo }

// RegistryURL returns the default remote registry snapshot URL.
func RegistryURL() string { load(); return defaults.RegistryURL }

// TelemetryURL returns the default anonymous usage endpoint.
func TelemetryURL() string { load(); return defaults.TelemetryURL }

// UserAgent returns the User-Agent header value for outbound requests.
func UserAgent(version string) string {
	load()
	return defaults.CLIName + "/" + version
}

// EnvVar returns a fully qualified env var name, e.g., EnvVar("HOME") → "SKILLDOCS_HOME".
func EnvVar(suffix string) string {
	load()
	return defaults.EnvPrefix + "_" + strings.ToUpper(suffix)
}
