package agents

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Name identifies a supported agent.
type Name string

const (
	Universal  Name = "universal"
	ClaudeCode Name = "claude-code"
	Cursor     Name = "cursor"
	Windsurf   Name = "windsurf"
	Copilot    Name = "copilot"
	Augment    Name = "augment"
	OpenCode   Name = "opencode"
	GeminiCLI  Name = "gemini-cli"
)

// Agent is the static descriptor of one agent's directory convention.
type Agent struct {
	Name        Name
	DisplayName string
	SkillsDir   string // relative to the project root, slash-separated
	IsUniversal bool
}

// catalog lists every supported agent; the universal agent comes first.
var catalog = []Agent{
	{Name: Universal, DisplayName: "Universal (.agents)", SkillsDir: ".agents/skills", IsUniversal: true},
	{Name: ClaudeCode, DisplayName: "Claude Code", SkillsDir: ".claude/skills"},
	{Name: Cursor, DisplayName: "Cursor", SkillsDir: ".cursor/skills"},
	{Name: Windsurf, DisplayName: "Windsurf", SkillsDir: ".windsurf/skills"},
	{Name: Copilot, DisplayName: "GitHub Copilot", SkillsDir: ".github/skills"},
	{Name: Augment, DisplayName: "Augment", SkillsDir: ".augment/skills"},
	{Name: OpenCode, DisplayName: "OpenCode", SkillsDir: ".opencode/skills"},
	{Name: GeminiCLI, DisplayName: "Gemini CLI", SkillsDir: ".gemini/skills"},
}

// All returns every supported agent, universal first.
func All() []Agent {
	out := make([]Agent, len(catalog))
	copy(out, catalog)
	return out
}

// UniversalAgent returns the canonical, shared consumer.
func UniversalAgent() Agent {
	for _, a := range catalog {
		if a.IsUniversal {
			return a
		}
	}
	panic("agents: catalog has no universal agent")
}

// NonUniversal returns every agent that receives a derived copy.
func NonUniversal() []Agent {
	var out []Agent
	for _, a := range catalog {
		if !a.IsUniversal {
			out = append(out, a)
		}
	}
	return out
}

// Lookup returns the agent with the given name.
func Lookup(name string) (Agent, bool) {
	for _, a := range catalog {
		if string(a.Name) == name {
			return a, true
		}
	}
	return Agent{}, false
}

// ParseNames converts user-supplied agent names into agents, preserving order
// and dropping duplicates.
func ParseNames(names []string) ([]Agent, error) {
	var out []Agent
	seen := make(map[Name]bool)
	for _, raw := range names {
		name := strings.TrimSpace(strings.ToLower(raw))
		if name == "" {
			continue
		}
		a, ok := Lookup(name)
		if !ok {
			return nil, fmt.Errorf("unknown agent %q (valid: %s)", raw, strings.Join(validNames(), ", "))
		}
		if seen[a.Name] {
			continue
		}
		seen[a.Name] = true
		out = append(out, a)
	}
	return out, nil
}

// Detect returns the non-universal agents whose configuration root exists in
// the project. ".claude/skills" is detected by the presence of ".claude".
func Detect(projectDir string) []Agent {
	var out []Agent
	for _, a := range NonUniversal() {
		root := strings.SplitN(a.SkillsDir, "/", 2)[0]
		if info, err := os.Stat(filepath.Join(projectDir, root)); err == nil && info.IsDir() {
			out = append(out, a)
		}
	}
	return out
}

// Dir returns the agent's absolute skills directory for a project.
func (a Agent) Dir(projectDir string) string {
	return filepath.Join(projectDir, filepath.FromSlash(a.SkillsDir))
}

func validNames() []string {
	out := make([]string, 0, len(catalog))
	for _, a := range catalog {
		out = append(out, string(a.Name))
	}
	return out
}
