package main

import (
	"fmt"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
)

// expandInputs merges explicit paths with the files matching pattern.
// Duplicates are dropped; explicit paths keep their order and come first.
func expandInputs(paths []string, pattern string) ([]string, error) {
	seen := make(map[string]struct{}, len(paths))
	var out []string
	add := func(p string) {
		if _, ok := seen[p]; ok {
			return
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}

	for _, p := range paths {
		add(p)
	}
	if pattern == "" {
		return out, nil
	}

	matches, err := doublestar.FilepathGlob(pattern, doublestar.WithFilesOnly())
	if err != nil {
		return nil, fmt.Errorf("glob %q: %w", pattern, err)
	}
	sort.Strings(matches)
	for _, m := range matches {
		add(m)
	}
	return out, nil
}
