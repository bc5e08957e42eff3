package translation

import (
	"strings"

	"comment-translator/internal/comment"
)

// tsvTabEscape stands in for a real tab inside a single tsv field, where
// comment.TabEscape already separates fields.
const tsvTabEscape = `\x09`

// escapeTSVField doubles backslashes and writes tabs as tsvTabEscape.
func escapeTSVField(s string) string {
	if !strings.ContainsAny(s, "\t\\") {
		return s
	}
	var sb strings.Builder
	sb.Grow(len(s) + 8)
	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '\t':
			sb.WriteString(tsvTabEscape)
		case '\\':
			sb.WriteString(`\\`)
		default:
			sb.WriteByte(c)
		}
	}
	return sb.String()
}

// splitTSVRow splits an escaped row at every comment.TabEscape that is not
// the tail of an escaped backslash. Fields keep their escapes.
func splitTSVRow(s string) []string {
	var fields []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] != '\\' || i+1 >= len(s) {
			continue
		}
		if s[i+1] == 't' {
			fields = append(fields, s[start:i])
			start = i + 2
		}
		i++
	}
	return append(fields, s[start:])
}

// normalizeTSVField rewrites tsvTabEscape as comment.TabEscape so tsv values
// carry the same escapes as segmented and bulk values.
func normalizeTSVField(s string) string {
	if !strings.Contains(s, tsvTabEscape) {
		return s
	}
	var sb strings.Builder
	sb.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] != '\\' || i+1 >= len(s) {
			sb.WriteByte(s[i])
			continue
		}
		if strings.HasPrefix(s[i:], tsvTabEscape) {
			sb.WriteString(comment.TabEscape)
			i += len(tsvTabEscape) - 1
			continue
		}
		sb.WriteString(s[i : i+2])
		i++
	}
	return sb.String()
}
