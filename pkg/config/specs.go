package config

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// ExpandSpecs resolves the configured spec entries into file paths. Glob
// matches are sorted so documents load in a stable order; entry order is
// kept and duplicates are dropped.
func (c *Config) ExpandSpecs() ([]string, error) {
	return ExpandSpecs(c.Dir(), c.Specs)
}

// ExpandSpecs resolves entries relative to baseDir. A glob that matches no
// file is an error.
func ExpandSpecs(baseDir string, entries []string) ([]string, error) {
	seen := make(map[string]bool)
	var out []string
	add := func(p string) {
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}

	for _, entry := range entries {
		pattern := ResolvePath(baseDir, entry)
		if !isGlob(entry) {
			add(pattern)
			continue
		}

		matches, err := doublestar.FilepathGlob(pattern, doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("expanding glob pattern %q: %w", entry, err)
		}
		if len(matches) == 0 {
			return nil, fmt.Errorf("spec pattern %q matched no files", entry)
		}
		sort.Strings(matches)
		for _, m := range matches {
			add(m)
		}
	}
	return out, nil
}

// ResolvePath joins a relative path onto baseDir.
func ResolvePath(baseDir, path string) string {
	if filepath.IsAbs(path) || baseDir == "" {
		return filepath.Clean(path)
	}
	return filepath.Join(baseDir, path)
}

func isGlob(s string) bool {
	return strings.ContainsAny(s, "*?[{")
}
