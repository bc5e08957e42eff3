package filewalker

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gobwas/glob"
	"github.com/rs/zerolog/log"
)

// DefaultPatterns lists the file patterns processed when none are given.
var DefaultPatterns = []string{"*.hpp", "*.cpp", "*.tpp", "*.h"}

// Walker discovers source files under files and directories given on the
// command line, keeping those whose base name matches a pattern.
type Walker struct {
	patterns []glob.Glob
	skip     map[string]struct{}
}

// NewWalker compiles patterns. Matching is case-insensitive, and a pattern
// without glob metacharacters (such as ".cpp") matches as a name suffix.
func NewWalker(patterns []string) (*Walker, error) {
	if len(patterns) == 0 {
		patterns = DefaultPatterns
	}
	w := &Walker{}
	for _, p := range patterns {
		expr := strings.ToLower(strings.TrimSpace(p))
		if expr == "" {
			continue
		}
		if !strings.ContainsAny(expr, "*?[{") {
			expr = "*" + expr
		}
		g, err := glob.Compile(expr)
		if err != nil {
			return nil, fmt.Errorf("compile pattern %q: %w", p, err)
		}
		w.patterns = append(w.patterns, g)
	}
	if len(w.patterns) == 0 {
		return nil, fmt.Errorf("no usable file patterns")
	}
	return w, nil
}

// SkipDirs excludes the given directories, and everything below them, from
// directory walks.
func (w *Walker) SkipDirs(dirs ...string) {
	if w.skip == nil {
		w.skip = make(map[string]struct{}, len(dirs))
	}
	for _, d := range dirs {
		if abs, err := filepath.Abs(d); err == nil {
			w.skip[abs] = struct{}{}
		}
	}
}

// Match reports whether the base name of path matches any pattern.
func (w *Walker) Match(path string) bool {
	name := strings.ToLower(filepath.Base(path))
	for _, g := range w.patterns {
		if g.Match(name) {
			return true
		}
	}
	return false
}

// Discover returns the absolute paths of all matching files under paths,
// deduplicated and sorted. Paths that are neither files nor directories, and
// unreadable directory entries, are logged and skipped.
func (w *Walker) Discover(paths []string) ([]string, error) {
	found := make(map[string]struct{})

	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, fmt.Errorf("resolve path %s: %w", p, err)
		}

		info, err := os.Stat(abs)
		if err != nil {
			log.Warn().Err(err).Str("path", p).Msg("Not a file or directory")
			continue
		}

		if !info.IsDir() {
			if w.Match(abs) {
				found[abs] = struct{}{}
			}
			continue
		}

		err = filepath.Walk(abs, func(path string, info os.FileInfo, err error) error {
			if err != nil {
				log.Warn().Err(err).Str("path", path).Msg("Error walking path")
				return nil
			}
			if info.IsDir() {
				if _, ok := w.skip[path]; ok {
					return filepath.SkipDir
				}
				return nil
			}
			if w.Match(path) {
				found[path] = struct{}{}
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walk directory: %w", err)
		}
	}

	files := make([]string, 0, len(found))
	for f := range found {
		files = append(files, f)
	}
	sort.Strings(files)

	log.Info().Int("count", len(files)).Msg("Discovered files")
	return files, nil
}
