package workspace

import (
	"fmt"
	"os"
	"path/filepath"
)

// Stage collects a tree in a temporary sibling of its destination and moves
// it into place on Commit, so a run either replaces the destination with a
// complete tree or leaves it untouched.
type Stage struct {
	*Tree
	dest string
}

// NewStage creates an empty staging directory next to dest.
func NewStage(dest string) (*Stage, error) {
	parent := filepath.Dir(dest)
	if err := os.MkdirAll(parent, permDir); err != nil {
		return nil, fmt.Errorf("create %s: %w", parent, err)
	}
	tmp, err := os.MkdirTemp(parent, ".tmp-"+filepath.Base(dest)+"-*")
	if err != nil {
		return nil, fmt.Errorf("create staging directory: %w", err)
	}
	return &Stage{Tree: &Tree{Root: tmp}, dest: dest}, nil
}

// Commit replaces dest with the staged tree. A previous dest is moved into a
// fresh hidden sibling directory first and restored if the final rename
// fails.
func (s *Stage) Commit() error {
	var backupDir, backup string
	if _, err := os.Stat(s.dest); err == nil {
		backupDir, err = os.MkdirTemp(filepath.Dir(s.dest), ".old-"+filepath.Base(s.dest)+"-*")
		if err != nil {
			return fmt.Errorf("create backup directory: %w", err)
		}
		backup = filepath.Join(backupDir, filepath.Base(s.dest))
		if err := os.Rename(s.dest, backup); err != nil {
			_ = os.Remove(backupDir)
			return fmt.Errorf("move previous %s aside: %w", s.dest, err)
		}
	}

	if err := os.Rename(s.Root, s.dest); err != nil {
		if backup != "" {
			if rerr := os.Rename(backup, s.dest); rerr == nil {
				_ = os.Remove(backupDir)
			}
		}
		return fmt.Errorf("commit %s: %w", s.dest, err)
	}
	s.Root = s.dest

	if backupDir != "" {
		if err := os.RemoveAll(backupDir); err != nil {
			return fmt.Errorf("remove previous %s: %w", s.dest, err)
		}
	}
	return nil
}

// Discard removes the staging directory.
func (s *Stage) Discard() error {
	if s.Root == s.dest {
		return nil
	}
	return os.RemoveAll(s.Root)
}
