// Package handoff implements the pause between the export phase and the
// reinsertion phase, while a human translates one of the export files.
package handoff

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
)

// ErrTranslationMissing is returned when the translation input file does not
// exist when reinsertion begins.
var ErrTranslationMissing = errors.New("translation file not found")

// DefaultSettle is how long a watched file must stay unchanged before it is
// considered completely written.
const DefaultSettle = 500 * time.Millisecond

// Prompt writes the translator instructions to w. exports are the generated
// export file names, the last one being the recommended choice.
func Prompt(w io.Writer, exports []string, translationFile string) {
	fmt.Fprintln(w, "\n=== Translation Phase ===")
	fmt.Fprintln(w, "Three translation files have been generated:")
	for i, name := range exports {
		suffix := ""
		if i == len(exports)-1 {
			suffix = " (recommended)"
		}
		fmt.Fprintf(w, "  %d. %s%s\n", i+1, name, suffix)
	}
	fmt.Fprintln(w, "\nPlease choose one of these files to translate.")
	fmt.Fprintln(w, `IMPORTANT: Do not alter the literal escape sequences (e.g., '\t') or delimiters.`)
	fmt.Fprintf(w, "After translating, save your translations as '%s'.\n", filepath.Base(translationFile))
}

// Require returns ErrTranslationMissing if path does not exist.
func Require(path string) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrTranslationMissing, path)
		}
		return fmt.Errorf("stat translation file: %w", err)
	}
	return nil
}

// WaitEnter blocks until a line (or end of input) is read from r, then
// requires path to exist.
func WaitEnter(ctx context.Context, r io.Reader, w io.Writer, path string) error {
	fmt.Fprintf(w, "Press Enter when '%s' is ready...", filepath.Base(path))

	done := make(chan error, 1)
	go func() {
		_, err := bufio.NewReader(r).ReadString('\n')
		if errors.Is(err, io.EOF) {
			err = nil
		}
		done <- err
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-done:
		if err != nil {
			return fmt.Errorf("read confirmation: %w", err)
		}
	}
	return Require(path)
}

// WaitFile blocks until path is created or written and then stays unchanged
// for settle. A file that already exists must be written again.
func WaitFile(ctx context.Context, path string, settle time.Duration) error {
	path, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", path, err)
	}
	if settle <= 0 {
		settle = DefaultSettle
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	dir := filepath.Dir(path)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	log.Info().Str("file", path).Msg("Waiting for translation file")

	timer := time.NewTimer(settle)
	timer.Stop()
	armed := false

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				return errors.New("watcher closed")
			}
			if filepath.Clean(event.Name) != path {
				continue
			}
			if event.Has(fsnotify.Create) || event.Has(fsnotify.Write) {
				log.Debug().Str("op", event.Op.String()).Msg("Translation file changed")
				timer.Reset(settle)
				armed = true
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return errors.New("watcher closed")
			}
			return fmt.Errorf("watch %s: %w", dir, err)

		case <-timer.C:
			if !armed {
				continue
			}
			if err := Require(path); err != nil {
				// Replaced or removed while settling; keep waiting.
				armed = false
				continue
			}
			return nil
		}
	}
}
