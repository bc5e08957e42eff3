package translation

import (
	"errors"
	"fmt"
)

var (
	// ErrBlockCountMismatch reports a tsv line count or bulk group count that
	// differs from the number of extracted blocks.
	ErrBlockCountMismatch = errors.New("block count mismatch")
	// ErrSegmentCountMismatch reports a block whose translated segment count
	// differs from its fragment count.
	ErrSegmentCountMismatch = errors.New("segment count mismatch")
)

// MismatchError describes a structural disagreement between a translation
// file and the extracted blocks. It is always fatal to the run.
type MismatchError struct {
	Format Format
	// File and Block identify the offending block; empty and zero for a
	// block count mismatch.
	File     string
	Block    int
	Expected int
	Actual   int
	Err      error
}

func (e *MismatchError) Error() string {
	if e.File == "" {
		return fmt.Sprintf("%s translation: %v: expected %d, got %d", e.Format, e.Err, e.Expected, e.Actual)
	}
	return fmt.Sprintf("%s translation: %v in %s block %d: expected %d, got %d",
		e.Format, e.Err, e.File, e.Block, e.Expected, e.Actual)
}

func (e *MismatchError) Unwrap() error {
	return e.Err
}
