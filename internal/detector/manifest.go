package detector

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/agentx-labs/skilldocs/internal/logger"
	"golang.org/x/mod/modfile"
)

// Manifest file names.
const (
	PackageJSON     = "package.json"
	GoMod           = "go.mod"
	RequirementsTxt = "requirements.txt"
)

// packageJSONSections are read in this order.
var packageJSONSections = []string{
	"dependencies",
	"devDependencies",
	"peerDependencies",
	"optionalDependencies",
}

// Dependencies returns the dependency names declared by every manifest found
// in projectDir, in manifest order with duplicates removed.
func Dependencies(ctx context.Context, projectDir string) []string {
	var out []string
	seen := make(map[string]bool)
	add := func(names []string) {
		for _, n := range names {
			if n != "" && !seen[n] {
				seen[n] = true
				out = append(out, n)
			}
		}
	}

	add(readManifest(ctx, projectDir, PackageJSON, parsePackageJSON))
	add(readManifest(ctx, projectDir, GoMod, parseGoMod))
	add(readManifest(ctx, projectDir, RequirementsTxt, parseRequirements))
	return out
}

func readManifest(ctx context.Context, projectDir, name string, parse func([]byte) ([]string, error)) []string {
	path := filepath.Join(projectDir, name)
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.G(ctx).WithError(err).WithField("path", path).Debug("skipping unreadable manifest")
		}
		return nil
	}
	names, err := parse(data)
	if err != nil {
		logger.G(ctx).WithError(err).WithField("path", path).Debug("skipping unparseable manifest")
		return nil
	}
	return names
}

func parsePackageJSON(data []byte) ([]string, error) {
	var pkg map[string]json.RawMessage
	if err := json.Unmarshal(data, &pkg); err != nil {
		return nil, err
	}

	var out []string
	for _, section := range packageJSONSections {
		raw, ok := pkg[section]
		if !ok {
			continue
		}
		var deps map[string]json.RawMessage
		if err := json.Unmarshal(raw, &deps); err != nil {
			continue
		}
		names := make([]string, 0, len(deps))
		for name := range deps {
			names = append(names, name)
		}
		sort.Strings(names)
		out = append(out, names...)
	}
	return out, nil
}

func parseGoMod(data []byte) ([]string, error) {
	f, err := modfile.ParseLax(GoMod, data, nil)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, r := range f.Require {
		if r.Indirect {
			continue
		}
		out = append(out, r.Mod.Path)
	}
	return out, nil
}

func parseRequirements(data []byte) ([]string, error) {
	var out []string
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		line := sc.Text()
		if i := strings.Index(line, "#"); i >= 0 {
			line = line[:i]
		}
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "-") {
			continue
		}
		if i := strings.IndexAny(line, "[<>=!~;@ \t"); i >= 0 {
			line = line[:i]
		}
		name := strings.ReplaceAll(strings.ToLower(line), "_", "-")
		if name != "" {
			out = append(out, name)
		}
	}
	return out, sc.Err()
}
