package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

var (
	// ErrInvalidWait indicates an unsupported wait mode.
	ErrInvalidWait = errors.New("invalid wait mode")

	// ErrEmptyPath indicates a missing directory or file name.
	ErrEmptyPath = errors.New("empty path")

	// ErrSameTree indicates the intermediary and output trees coincide.
	ErrSameTree = errors.New("intermediary and output directories are the same")

	// ErrNoExtensions indicates an empty extension pattern list.
	ErrNoExtensions = errors.New("no file extensions")
)

// Validate checks that the configuration is usable, reporting every problem.
func Validate(cfg *Config) error {
	var errs []error

	switch cfg.Wait {
	case WaitEnter, WaitWatch:
	default:
		errs = append(errs, fmt.Errorf("%w: %q (expected %q or %q)", ErrInvalidWait, cfg.Wait, WaitEnter, WaitWatch))
	}

	for name, value := range map[string]string{
		"intermediary_dir": cfg.IntermediaryDir,
		"output_dir":       cfg.OutputDir,
		"translation_file": cfg.TranslationFile,
		"report":           cfg.Report,
	} {
		if strings.TrimSpace(value) == "" {
			errs = append(errs, fmt.Errorf("%w: %s", ErrEmptyPath, name))
		}
	}

	if cfg.IntermediaryDir != "" && filepath.Clean(cfg.IntermediaryDir) == filepath.Clean(cfg.OutputDir) {
		errs = append(errs, ErrSameTree)
	}

	nonEmpty := 0
	for _, e := range cfg.Extensions {
		if strings.TrimSpace(e) != "" {
			nonEmpty++
		}
	}
	if nonEmpty == 0 {
		errs = append(errs, ErrNoExtensions)
	}

	return errors.Join(errs...)
}
