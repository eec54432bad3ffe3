package detector

import (
	"context"
	"path"
	"regexp"
	"strings"

	"github.com/agentx-labs/skilldocs/internal/registry"
)

// minPrefixLen keeps short tokens such as "ui" from prefix-matching.
const minPrefixLen = 3

// strippedSuffixes are removed from dependency names to reach the product
// name, e.g. "@anthropic-ai/sdk" or "stripe-go".
var strippedSuffixes = []string{"client", "sdk", "core", "cli", "types", "js", "go", "py", "node", "api", "ai"}

var goMajorSuffix = regexp.MustCompile(`^v[0-9]+$`)

// Match is one registry entry suggested for the project.
type Match struct {
	Slug            string
	MatchedPackages []string
	Entry           registry.Entry
}

// Detect matches the project's declared dependencies against entries.
func Detect(ctx context.Context, projectDir string, entries []registry.Entry) []Match {
	return MatchDependencies(Dependencies(ctx, projectDir), entries)
}

// MatchDependencies matches each dependency to at most one entry and groups
// the results by slug in first-seen order.
func MatchDependencies(deps []string, entries []registry.Entry) []Match {
	type normalized struct {
		slug, name string
	}
	norm := make([]normalized, len(entries))
	for i, e := range entries {
		norm[i] = normalized{slug: normalize(e.Slug), name: normalize(e.Name)}
	}

	var matches []Match
	bySlug := make(map[string]int)

	for _, dep := range deps {
		idx := findEntry(CandidateTokens(dep), norm, func(tok string, n normalized) bool {
			return tok == n.slug || tok == n.name
		})
		if idx < 0 {
			idx = findEntry(CandidateTokens(dep), norm, func(tok string, n normalized) bool {
				return len(tok) >= minPrefixLen && strings.HasPrefix(n.name, tok)
			})
		}
		if idx < 0 {
			continue
		}

		e := entries[idx]
		if i, ok := bySlug[e.Slug]; ok {
			matches[i].MatchedPackages = append(matches[i].MatchedPackages, dep)
			continue
		}
		bySlug[e.Slug] = len(matches)
		matches = append(matches, Match{Slug: e.Slug, MatchedPackages: []string{dep}, Entry: e})
	}
	return matches
}

func findEntry[T any](tokens []string, entries []T, match func(string, T) bool) int {
	for _, raw := range tokens {
		tok := normalize(raw)
		if tok == "" {
			continue
		}
		for i, e := range entries {
			if match(tok, e) {
				return i
			}
		}
	}
	return -1
}

// CandidateTokens derives the names a dependency might be listed under:
// the bare package name, the same with common suffixes removed, and the
// package scope or owner with suffixes removed.
func CandidateTokens(dep string) []string {
	dep = strings.ToLower(strings.TrimSpace(dep))
	if dep == "" {
		return nil
	}

	var scope, name string
	switch {
	case strings.HasPrefix(dep, "@"):
		// npm scoped package: @scope/name
		scope, name, _ = strings.Cut(strings.TrimPrefix(dep, "@"), "/")
	case strings.Contains(dep, "/"):
		// Go module path: host/owner/repo[/vN]
		parts := strings.Split(dep, "/")
		if len(parts) > 1 && goMajorSuffix.MatchString(parts[len(parts)-1]) {
			parts = parts[:len(parts)-1]
		}
		name = path.Base(strings.Join(parts, "/"))
		if len(parts) >= 3 {
			scope = parts[len(parts)-2]
		}
	default:
		name = dep
	}

	var out []string
	seen := make(map[string]bool)
	add := func(s string) {
		if s != "" && !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}

	add(name)
	add(stripSuffixes(name))
	if scope != "types" {
		add(scope)
		add(stripSuffixes(scope))
	}
	return out
}

// stripSuffixes removes known suffixes until none applies, keeping at least
// a non-empty stem.
func stripSuffixes(s string) string {
	for {
		trimmed := stripOne(s)
		if trimmed == s {
			return s
		}
		s = trimmed
	}
}

func stripOne(s string) string {
	for _, suf := range strippedSuffixes {
		for _, sep := range []string{"-", "_", "."} {
			if stem, ok := strings.CutSuffix(s, sep+suf); ok && stem != "" {
				return stem
			}
		}
		// "nextjs", "astrojs"
		if suf == "js" && len(s) > len(suf)+2 {
			if stem, ok := strings.CutSuffix(s, suf); ok {
				return stem
			}
		}
	}
	return s
}

// normalize lowercases s and drops everything but letters and digits.
func normalize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// FilterMatchesByCategories keeps matches whose entry is in one of cats. An
// empty cats keeps everything.
func FilterMatchesByCategories(matches []Match, cats []string) []Match {
	if len(cats) == 0 {
		return matches
	}
	want := make(map[string]bool, len(cats))
	for _, c := range cats {
		want[strings.ToLower(strings.TrimSpace(c))] = true
	}
	var out []Match
	for _, m := range matches {
		if want[m.Entry.Category] {
			out = append(out, m)
		}
	}
	return out
}
