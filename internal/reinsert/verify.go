package reinsert

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
)

// sizeTolerance is the fraction by which the output tree may differ in size
// from the intermediary tree before a warning is raised.
const sizeTolerance = 0.1

// Verification summarises the post-run sanity checks. It is advisory only.
type Verification struct {
	Placeholders      int
	Expected          int
	IntermediaryBytes int64
	OutputBytes       int64
}

// FewerPlaceholders reports whether the intermediary tree holds fewer
// placeholders than there are translations.
func (v *Verification) FewerPlaceholders() bool {
	return v.Placeholders < v.Expected
}

// SizeDrift reports whether the aggregate sizes differ by more than 10%.
func (v *Verification) SizeDrift() bool {
	diff := v.IntermediaryBytes - v.OutputBytes
	if diff < 0 {
		diff = -diff
	}
	return float64(diff) > sizeTolerance*float64(v.IntermediaryBytes)
}

// Verify counts placeholders in the intermediary tree, compares the count with
// expected, and compares the aggregate byte sizes of both trees. Findings are
// logged as warnings and never turned into errors; only I/O failures are
// returned.
func Verify(intermediaryDir, outputDir string, expected int) (*Verification, error) {
	v := &Verification{Expected: expected}

	err := filepath.WalkDir(intermediaryDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		v.IntermediaryBytes += int64(len(data))
		v.Placeholders += CountPlaceholders(string(data))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan intermediary tree: %w", err)
	}

	v.OutputBytes, err = treeSize(outputDir)
	if err != nil {
		return nil, fmt.Errorf("scan output tree: %w", err)
	}

	log.Info().
		Int("placeholders", v.Placeholders).
		Int("expected", v.Expected).
		Int64("intermediary_bytes", v.IntermediaryBytes).
		Int64("output_bytes", v.OutputBytes).
		Msg("Verification")

	if v.FewerPlaceholders() {
		log.Warn().Msg("Fewer placeholders found than expected translations")
	}
	if v.SizeDrift() {
		log.Warn().Msg("Large size difference between intermediary and output files, check for errors")
	} else {
		log.Info().Msg("Verification passed: file sizes are similar")
	}

	return v, nil
}

func treeSize(root string) (int64, error) {
	var total int64
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		total += info.Size()
		return nil
	})
	return total, err
}
