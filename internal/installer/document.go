package installer

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
	"go.yaml.in/yaml/v3"
)

const (
	// IndexFile is the document every agent reads first.
	IndexFile = "SKILL.md"
	// ReferenceFile holds the full content of a split skill.
	ReferenceFile = "reference.md"

	// DefaultSplitThreshold is the line count above which content moves to
	// ReferenceFile.
	DefaultSplitThreshold = 500

	maxIndexHeadings = 40
)

// Header is the YAML frontmatter of an index document.
type Header struct {
	Name          string `yaml:"name"`
	Description   string `yaml:"description"`
	UserInvocable bool   `yaml:"user-invocable"`
}

// Documents are the rendered files of one skill. Reference is nil when the
// content was embedded in the index.
type Documents struct {
	Index     []byte
	Reference []byte
}

// Split reports whether the content was moved to a reference document.
func (d Documents) Split() bool { return d.Reference != nil }

// SkillName is the header identifier of a skill.
func SkillName(slug string) string {
	return slug + "-docs"
}

// CountLines counts lines the way an editor would: a trailing newline does
// not start a new line.
func CountLines(content []byte) int {
	if len(content) == 0 {
		return 0
	}
	n := bytes.Count(content, []byte("\n"))
	if content[len(content)-1] != '\n' {
		n++
	}
	return n
}

// RenderDocuments builds the index document, and the reference document when
// content has more than threshold lines. The reference document is the
// content byte for byte.
func RenderDocuments(req Request, threshold int) (Documents, error) {
	if threshold <= 0 {
		threshold = DefaultSplitThreshold
	}

	header, err := renderHeader(Header{
		Name:          SkillName(req.Slug),
		Description:   describe(req.Name, req.Description),
		UserInvocable: false,
	})
	if err != nil {
		return Documents{}, err
	}

	lines := CountLines(req.Content)
	if lines <= threshold {
		index := make([]byte, 0, len(header)+1+len(req.Content))
		index = append(index, header...)
		index = append(index, '\n')
		index = append(index, req.Content...)
		return Documents{Index: index}, nil
	}

	var b bytes.Buffer
	b.Write(header)
	fmt.Fprintf(&b, "\n# %s\n\n", displayName(req))
	if d := strings.TrimSpace(req.Description); d != "" {
		fmt.Fprintf(&b, "%s\n\n", d)
	}
	if req.SourceURL != "" {
		fmt.Fprintf(&b, "Source: %s\n\n", req.SourceURL)
	}
	fmt.Fprintf(&b, "The complete documentation (%d lines) is in [%s](%s). Search it for the section you need instead of reading it whole.\n",
		lines, ReferenceFile, ReferenceFile)

	if headings := outline(req.Content); len(headings) > 0 {
		b.WriteString("\n## Contents\n\n")
		for _, h := range headings {
			fmt.Fprintf(&b, "%s- %s\n", strings.Repeat("  ", h.level-1), h.title)
		}
	}

	ref := make([]byte, len(req.Content))
	copy(ref, req.Content)
	return Documents{Index: b.Bytes(), Reference: ref}, nil
}

func renderHeader(h Header) ([]byte, error) {
	var b bytes.Buffer
	b.WriteString("---\n")
	enc := yaml.NewEncoder(&b)
	enc.SetIndent(2)
	if err := enc.Encode(h); err != nil {
		return nil, fmt.Errorf("encoding skill header: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encoding skill header: %w", err)
	}
	b.WriteString("---\n")
	return b.Bytes(), nil
}

func describe(name, description string) string {
	name = strings.TrimSpace(name)
	description = strings.Join(strings.Fields(description), " ")
	switch {
	case name == "":
		return description
	case description == "":
		return name + " documentation"
	default:
		return name + " documentation. " + description
	}
}

func displayName(req Request) string {
	if n := strings.TrimSpace(req.Name); n != "" {
		return n
	}
	return req.Slug
}

type heading struct {
	level int
	title string
}

// outline returns the level 1 and 2 headings of markdown content.
func outline(content []byte) []heading {
	doc := goldmark.New().Parser().Parse(text.NewReader(content))

	var out []heading
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		h, ok := n.(*ast.Heading)
		if !ok {
			return ast.WalkContinue, nil
		}
		if h.Level <= 2 && len(out) < maxIndexHeadings {
			if title := headingText(h, content); title != "" {
				out = append(out, heading{level: h.Level, title: title})
			}
		}
		return ast.WalkSkipChildren, nil
	})
	return out
}

func headingText(n ast.Node, source []byte) string {
	var b strings.Builder
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch t := c.(type) {
		case *ast.Text:
			b.Write(t.Segment.Value(source))
		case *ast.String:
			b.Write(t.Value)
		}
		return ast.WalkContinue, nil
	})
	return strings.TrimSpace(b.String())
}
