package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/agentx-labs/skilldocs/internal/registry"
	"github.com/stretchr/testify/assert"
)

func TestLinePrompter(t *testing.T) {
	suggestions := []registry.Entry{
		{Slug: "astro", Name: "Astro"},
		{Slug: "svelte", Name: "Svelte"},
	}

	tests := []struct {
		name   string
		input  string
		want   string
		wantOK bool
	}{
		{"first", "1\n", "astro", true},
		{"second with spaces", "  2 \n", "svelte", true},
		{"empty skips", "\n", "", false},
		{"out of range", "3\n", "", false},
		{"not a number", "astro\n", "", false},
		{"eof", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			p := newLinePrompter(strings.NewReader(tt.input), &out)

			got, ok := p.Choose("astr", suggestions)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got.Slug)
			assert.Contains(t, out.String(), `No skill named "astr"`)
			assert.Contains(t, out.String(), "2) Svelte (svelte)")
		})
	}
}

func TestInteractivePrompterDisabled(t *testing.T) {
	assert.Nil(t, interactivePrompter(&bytes.Buffer{}, true))
}
