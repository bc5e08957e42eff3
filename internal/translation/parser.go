package translation

import (
	"fmt"
	"strings"

	"comment-translator/internal/comment"
	"comment-translator/internal/textutil"

	"github.com/rs/zerolog/log"
)

// Map is the fragment index to translated text mapping of one reinsertion
// run. Values are stored as read, still carrying any escapes; tsv values are
// normalized to the escapes of the other formats.
type Map map[string]string

// Parse reconstructs the translation map from content in format f and
// validates it against blocks. tsv and bulk structure must match blocks
// exactly; any disagreement is returned as a *MismatchError. Unparseable
// segmented lines are skipped with a warning. opts.EscapeTabs must match the
// setting the export was written with.
func Parse(content string, f Format, blocks []comment.Block, opts Options) (Map, error) {
	lines := splitLines(content)
	if len(lines) > 0 {
		if _, ok := headerFormat(lines[0]); ok {
			lines = lines[1:]
		}
	}

	switch f {
	case Segmented:
		return parseSegmented(lines), nil
	case TSV:
		return parseTSV(lines, blocks, opts.EscapeTabs)
	case Bulk:
		return parseBulk(lines, blocks)
	}
	return nil, fmt.Errorf("unknown translation format %q", f)
}

// ParseAuto detects the format of content and parses it.
func ParseAuto(content string, blocks []comment.Block, opts Options) (Map, Format, error) {
	f := Detect(content)
	m, err := Parse(content, f, blocks, opts)
	return m, f, err
}

func parseSegmented(lines []string) Map {
	m := make(Map)
	for n, line := range lines {
		line = strings.TrimLeft(line, " \t")
		if strings.TrimSpace(line) == "" {
			continue
		}
		i := strings.IndexAny(line, " \t")
		if i < 0 {
			log.Warn().Int("line", n+1).Str("text", textutil.Truncate(line, 60)).Msg("Could not parse line in segmented translation")
			continue
		}
		index, text := line[:i], strings.TrimLeft(line[i:], " \t")
		if isDigits(index) {
			log.Warn().Int("line", n+1).Str("index", index).Msg("Segmented line starts with a row number, file may be tsv")
		}
		if _, dup := m[index]; dup {
			log.Warn().Int("line", n+1).Str("index", index).Msg("Duplicate index in segmented translation, last one wins")
		}
		m[index] = text
	}
	return m
}

func parseTSV(lines []string, blocks []comment.Block, escaped bool) (Map, error) {
	for len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "" {
		lines = lines[:len(lines)-1]
	}
	if len(lines) != len(blocks) {
		return nil, &MismatchError{Format: TSV, Expected: len(blocks), Actual: len(lines), Err: ErrBlockCountMismatch}
	}

	m := make(Map, comment.FragmentCount(blocks))
	for i, b := range blocks {
		row := stripRowNumber(lines[i])
		var segments []string
		if escaped {
			segments = splitTSVRow(row)
		} else {
			segments = strings.Split(row, comment.TabEscape)
		}
		if len(segments) != len(b.Fragments) {
			return nil, &MismatchError{
				Format:   TSV,
				File:     b.File,
				Block:    b.Sequence,
				Expected: len(b.Fragments),
				Actual:   len(segments),
				Err:      ErrSegmentCountMismatch,
			}
		}
		for j, frag := range b.Fragments {
			if escaped {
				m[frag.Index] = normalizeTSVField(segments[j])
			} else {
				m[frag.Index] = segments[j]
			}
		}
	}
	return m, nil
}

func parseBulk(lines []string, blocks []comment.Block) (Map, error) {
	var groups [][]string
	var current []string
	open := false

	for _, line := range lines {
		if isDelimiterLine(line) {
			if open || len(current) > 0 {
				groups = append(groups, current)
			}
			current = nil
			open = true
			continue
		}
		// Blank lines before the first delimiter are tolerated.
		if !open && strings.TrimSpace(line) == "" {
			continue
		}
		current = append(current, line)
	}
	if open || len(current) > 0 {
		groups = append(groups, current)
	}

	if len(groups) != len(blocks) {
		return nil, &MismatchError{Format: Bulk, Expected: len(blocks), Actual: len(groups), Err: ErrBlockCountMismatch}
	}

	m := make(Map, comment.FragmentCount(blocks))
	for i, b := range blocks {
		group := groups[i]
		for len(group) > len(b.Fragments) && strings.TrimSpace(group[len(group)-1]) == "" {
			group = group[:len(group)-1]
		}
		if len(group) != len(b.Fragments) {
			return nil, &MismatchError{
				Format:   Bulk,
				File:     b.File,
				Block:    b.Sequence,
				Expected: len(b.Fragments),
				Actual:   len(group),
				Err:      ErrSegmentCountMismatch,
			}
		}
		for j, frag := range b.Fragments {
			m[frag.Index] = group[j]
		}
	}
	return m, nil
}

// isDelimiterLine reports whether line has the shape of a bulk delimiter.
// Fragment text of the same shape is taken for a delimiter too, so a comment
// reading `<||x||>` does not survive the bulk format.
func isDelimiterLine(line string) bool {
	line = strings.TrimSpace(line)
	return strings.HasPrefix(line, bulkMarker) && strings.HasSuffix(line, "||>")
}

// stripRowNumber removes the leading row number and the single space after it.
func stripRowNumber(line string) string {
	rest := strings.TrimLeft(line, "0123456789")
	return strings.TrimPrefix(rest, " ")
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// splitLines splits content into lines without terminators. A final line
// terminator does not produce an extra empty line.
func splitLines(content string) []string {
	content = strings.TrimPrefix(content, "\ufeff")
	if content == "" {
		return nil
	}
	content = strings.TrimSuffix(content, "\n")
	lines := strings.Split(content, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}
