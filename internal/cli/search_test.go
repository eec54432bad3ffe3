package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/agentx-labs/skilldocs/internal/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testResults() []registry.SearchResult {
	return []registry.SearchResult{
		{Entry: registry.Entry{Slug: "astro", Name: "Astro", Category: "framework", Description: "The web framework for content-driven websites.", LlmsFullTxtURL: "https://docs.astro.build/llms-full.txt"}, Score: 0},
		{Entry: registry.Entry{Slug: "zod", Name: "Zod", Category: "library", Description: "TypeScript-first schema validation."}, Score: 0.2},
		{Entry: registry.Entry{Slug: "prisma", Name: "Prisma", Category: "database", Description: "Next-generation ORM."}, Score: 0.3},
	}
}

func TestSearchRowsCategoryFilter(t *testing.T) {
	tests := []struct {
		name  string
		cats  []string
		slugs []string
	}{
		{"no filter keeps order", nil, []string{"astro", "zod", "prisma"}},
		{"single category", []string{"library"}, []string{"zod"}},
		{"any of several", []string{"database", "framework"}, []string{"astro", "prisma"}},
		{"case and spaces ignored", []string{" Library "}, []string{"zod"}},
		{"unknown category", []string{"gadgets"}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var slugs []string
			for _, r := range searchRows(testResults(), tt.cats) {
				slugs = append(slugs, r.Slug)
			}
			assert.Equal(t, tt.slugs, slugs)
		})
	}
}

func TestSearchRowsCarryEntryFields(t *testing.T) {
	rows := searchRows(testResults(), nil)
	require.Len(t, rows, 3)
	assert.True(t, rows[0].Full)
	assert.False(t, rows[1].Full)
	assert.Equal(t, 0.2, rows[1].Score)
	assert.Equal(t, "Zod", rows[1].Name)
}

func TestPrintSearchTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printSearchTable(&buf, searchRows(testResults(), nil)))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 4)
	assert.True(t, strings.HasPrefix(lines[0], "SLUG"))
	assert.Contains(t, lines[1], "astro")
	assert.Contains(t, lines[1], "framework")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcdefg...", truncate("abcdefghijklmnop", 10))
	assert.Equal(t, "Café do...", truncate("Café documentation", 10))
}
