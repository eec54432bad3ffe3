package workflow

import (
	"fmt"
	"io"
	"strings"

	"github.com/agentx-labs/skilldocs/internal/agents"
	"github.com/hashicorp/go-multierror"
)

// Status is the result of processing one entry.
type Status string

const (
	StatusInstalled        Status = "installed"
	StatusAlreadyInstalled Status = "already installed"
	StatusUpdated          Status = "updated"
	StatusUnchanged        Status = "unchanged"
	StatusSameContent      Status = "unchanged (same content)"
	StatusRemoved          Status = "removed"
	StatusFailed           Status = "failed"
)

// Outcome records what happened to one requested entry.
type Outcome struct {
	// Name is what the user asked for; Slug is what it resolved to.
	Name     string
	Slug     string
	Status   Status
	Agents   []agents.Name
	Warnings []string
	Err      error
}

// Summary collects the outcomes of one command.
type Summary struct {
	Command  string
	Outcomes []Outcome
}

func (s *Summary) add(o Outcome) {
	s.Outcomes = append(s.Outcomes, o)
}

// Count returns how many outcomes have status st.
func (s *Summary) Count(st Status) int {
	n := 0
	for _, o := range s.Outcomes {
		if o.Status == st {
			n++
		}
	}
	return n
}

// Failed returns the number of failed outcomes.
func (s *Summary) Failed() int { return s.Count(StatusFailed) }

// Slugs returns the slugs of outcomes with any of the given statuses.
func (s *Summary) Slugs(statuses ...Status) []string {
	var out []string
	for _, o := range s.Outcomes {
		for _, st := range statuses {
			if o.Status == st && o.Slug != "" {
				out = append(out, o.Slug)
				break
			}
		}
	}
	return out
}

// Err aggregates every per-entry failure. It is nil when nothing failed.
func (s *Summary) Err() error {
	var result *multierror.Error
	for _, o := range s.Outcomes {
		if o.Err != nil {
			result = multierror.Append(result, fmt.Errorf("%s: %w", o.Name, o.Err))
		}
	}
	return result.ErrorOrNil()
}

// agentNames returns the distinct agents across successful outcomes.
func (s *Summary) agentNames() []string {
	var out []string
	seen := make(map[agents.Name]bool)
	for _, o := range s.Outcomes {
		for _, a := range o.Agents {
			if !seen[a] {
				seen[a] = true
				out = append(out, string(a))
			}
		}
	}
	return out
}

// Print writes the one-line totals for the command.
func (s *Summary) Print(w io.Writer) {
	var parts []string
	for _, st := range []Status{
		StatusInstalled, StatusUpdated, StatusRemoved,
		StatusUnchanged, StatusSameContent, StatusAlreadyInstalled, StatusFailed,
	} {
		if n := s.Count(st); n > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", n, st))
		}
	}
	if len(parts) == 0 {
		parts = append(parts, "nothing to do")
	}

	mark := "✓"
	if s.Failed() > 0 {
		mark = "✗"
	}
	fmt.Fprintf(w, "\n%s %s: %s\n", mark, capitalize(s.Command), strings.Join(parts, ", "))
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
