package installer

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/yuin/goldmark"
	meta "github.com/yuin/goldmark-meta"
	"github.com/yuin/goldmark/parser"
)

// ReadHeader parses the frontmatter of an installed skill's index document.
func (in *Installer) ReadHeader(slug string) (Header, error) {
	dir, err := in.CanonicalDir(slug)
	if err != nil {
		return Header{}, err
	}
	content, err := os.ReadFile(filepath.Join(dir, IndexFile))
	if os.IsNotExist(err) {
		return Header{}, fmt.Errorf("%s: %w", slug, ErrNotInstalled)
	}
	if err != nil {
		return Header{}, fmt.Errorf("reading %s index: %w", slug, err)
	}
	return ParseHeader(content)
}

// ParseHeader extracts the frontmatter of an index document.
func ParseHeader(content []byte) (Header, error) {
	md := goldmark.New(
		goldmark.WithExtensions(meta.Meta),
	)

	var buf bytes.Buffer
	pctx := parser.NewContext()
	if err := md.Convert(content, &buf, parser.WithContext(pctx)); err != nil {
		return Header{}, fmt.Errorf("parsing skill document: %w", err)
	}

	data, err := meta.TryGet(pctx)
	if err != nil {
		return Header{}, fmt.Errorf("parsing skill frontmatter: %w", err)
	}
	if len(data) == 0 {
		return Header{}, errors.New("skill document has no frontmatter")
	}

	var h Header
	h.Name, _ = data["name"].(string)
	h.Description, _ = data["description"].(string)
	h.UserInvocable, _ = data["user-invocable"].(bool)
	if h.Name == "" {
		return Header{}, errors.New("skill frontmatter has no name")
	}
	return h, nil
}
