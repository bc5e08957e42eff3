package workspace

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ErrPathInvalid is returned for a relative path that would escape its tree.
var ErrPathInvalid = errors.New("path escapes tree root")

const (
	permFile = 0o644
	permDir  = 0o755
)

// Tree is a directory of files addressed by slash-free relative paths.
type Tree struct {
	Root string
}

// Open returns the tree rooted at root without touching the filesystem.
func Open(root string) *Tree {
	return &Tree{Root: root}
}

// Reset removes root and everything below it, then recreates it empty.
func Reset(root string) (*Tree, error) {
	if err := os.RemoveAll(root); err != nil {
		return nil, fmt.Errorf("remove %s: %w", root, err)
	}
	if err := os.MkdirAll(root, permDir); err != nil {
		return nil, fmt.Errorf("create %s: %w", root, err)
	}
	return &Tree{Root: root}, nil
}

// RelPath maps a source file to its location inside a tree: its path
// relative to base, or, for files outside base, the file path with its
// volume and leading separators removed.
func RelPath(base, file string) string {
	rel, err := filepath.Rel(base, file)
	if err != nil || escapes(rel) {
		rel = strings.TrimLeft(strings.TrimPrefix(file, filepath.VolumeName(file)), `/\`)
	}
	return rel
}

// Write stores data at rel, creating parent directories.
func (t *Tree) Write(rel string, data []byte) error {
	dest, err := t.path(rel)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(dest), permDir); err != nil {
		return fmt.Errorf("create directory for %s: %w", rel, err)
	}
	if err := os.WriteFile(dest, data, permFile); err != nil {
		return fmt.Errorf("write %s: %w", rel, err)
	}
	return nil
}

// Read returns the content stored at rel.
func (t *Tree) Read(rel string) ([]byte, error) {
	src, err := t.path(rel)
	if err != nil {
		return nil, err
	}
	return os.ReadFile(src)
}

// Files lists every regular file in the tree as sorted relative paths.
func (t *Tree) Files() ([]string, error) {
	var files []string
	err := filepath.WalkDir(t.Root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(t.Root, path)
		if err != nil {
			return err
		}
		files = append(files, rel)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", t.Root, err)
	}
	sort.Strings(files)
	return files, nil
}

func (t *Tree) path(rel string) (string, error) {
	rel = filepath.Clean(rel)
	if rel == "." || rel == "" || filepath.IsAbs(rel) || escapes(rel) || filepath.VolumeName(rel) != "" {
		return "", fmt.Errorf("%w: %q", ErrPathInvalid, rel)
	}
	return filepath.Join(t.Root, rel), nil
}

func escapes(rel string) bool {
	return rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
