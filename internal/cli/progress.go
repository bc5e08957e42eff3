package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/schollz/progressbar/v3"
)

// CLIProgressReporter shows extraction progress as a progress bar on stderr.
type CLIProgressReporter struct {
	quiet     bool
	fileBar   *progressbar.ProgressBar
	startTime time.Time
	files     int
	blocks    int
}

// NewCLIProgressReporter creates a reporter. A quiet reporter prints nothing.
func NewCLIProgressReporter(quiet bool) *CLIProgressReporter {
	return &CLIProgressReporter{quiet: quiet}
}

func (c *CLIProgressReporter) OnExtractStart(totalFiles int) {
	c.startTime = time.Now()
	c.files = 0
	c.blocks = 0
	if c.quiet || totalFiles == 0 {
		return
	}

	c.fileBar = progressbar.NewOptions(totalFiles,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetDescription("Extracting comments"),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("files/s"),
		progressbar.OptionThrottle(65*time.Millisecond),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprintln(os.Stderr)
		}),
	)
}

func (c *CLIProgressReporter) OnFileExtracted(path string, blocks int) {
	c.files++
	c.blocks += blocks
	if c.fileBar != nil {
		_ = c.fileBar.Add(1)
	}
}

func (c *CLIProgressReporter) OnExtractComplete() {
	if c.fileBar != nil {
		_ = c.fileBar.Finish()
		c.fileBar = nil
	}
	if c.quiet {
		return
	}
	log.Info().
		Int("files", c.files).
		Int("blocks", c.blocks).
		Dur("elapsed", time.Since(c.startTime).Round(time.Millisecond)).
		Msg("Scanned sources")
}
