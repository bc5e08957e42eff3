package translation

import (
	"bufio"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"comment-translator/internal/comment"
)

// Options controls how export files are rendered.
type Options struct {
	// EscapeTabs writes real tabs in fragment text as comment.TabEscape and
	// doubles backslashes. Inside tsv rows a tab is written as `\x09`
	// instead, since comment.TabEscape separates the fields there. Parse
	// must be given the same setting.
	EscapeTabs bool
	// Header writes the explicit `#format:` marker as the first line.
	Header bool
}

func (o Options) text(s string) string {
	if o.EscapeTabs {
		return comment.EscapeTabs(s)
	}
	return s
}

// Write renders blocks to w in format f.
func Write(w io.Writer, f Format, blocks []comment.Block, opts Options) error {
	bw := bufio.NewWriter(w)
	if opts.Header {
		fmt.Fprintln(bw, Header(f))
	}

	switch f {
	case Segmented:
		writeSegmented(bw, blocks, opts)
	case TSV:
		writeTSV(bw, blocks, opts)
	case Bulk:
		writeBulk(bw, blocks, opts)
	default:
		return fmt.Errorf("unknown translation format %q", f)
	}

	if err := bw.Flush(); err != nil {
		return fmt.Errorf("write %s export: %w", f, err)
	}
	return nil
}

func writeSegmented(w io.Writer, blocks []comment.Block, opts Options) {
	for _, b := range blocks {
		for _, frag := range b.Fragments {
			fmt.Fprintf(w, "%s %s\n", frag.Index, opts.text(frag.Text))
		}
	}
}

func writeTSV(w io.Writer, blocks []comment.Block, opts Options) {
	for i, b := range blocks {
		texts := make([]string, len(b.Fragments))
		for j, frag := range b.Fragments {
			if opts.EscapeTabs {
				texts[j] = escapeTSVField(frag.Text)
			} else {
				texts[j] = frag.Text
			}
		}
		fmt.Fprintf(w, "%04d %s\n", i+1, strings.Join(texts, comment.TabEscape))
	}
}

func writeBulk(w io.Writer, blocks []comment.Block, opts Options) {
	for _, b := range blocks {
		fmt.Fprintln(w, Delimiter(b))
		for _, frag := range b.Fragments {
			fmt.Fprintln(w, opts.text(frag.Text))
		}
	}
}

// Delimiter returns the bulk delimiter line introducing block b.
func Delimiter(b comment.Block) string {
	name := b.Name
	if name == "" {
		name = filepath.Base(b.File)
	}
	return fmt.Sprintf("%s%s_%03d_block_delimiter||>", bulkMarker, name, b.Sequence)
}
