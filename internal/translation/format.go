package translation

import (
	"fmt"
	"strings"
)

// Format names one of the three interchangeable export serializations.
type Format string

const (
	// Segmented writes one `{index} {text}` line per fragment.
	Segmented Format = "segmented"
	// TSV writes one numbered line per block, fragments joined by the tab escape.
	TSV Format = "tsv"
	// Bulk writes a delimiter line per block followed by one raw line per fragment.
	Bulk Format = "bulk"
)

// Formats lists every format in export order.
var Formats = []Format{Segmented, TSV, Bulk}

// headerPrefix starts the optional explicit format marker line.
const headerPrefix = "#format:"

// bulkMarker is the substring that identifies a bulk file.
const bulkMarker = "<||"

// ParseFormat resolves a format name as given on the command line.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case Segmented, TSV, Bulk:
		return f, nil
	}
	return "", fmt.Errorf("unknown translation format %q", s)
}

// FileName returns the export file name for f.
func FileName(f Format) string {
	return "comments_to_translate_" + string(f) + ".txt"
}

// Header returns the explicit marker line for f, without a line terminator.
func Header(f Format) string {
	return headerPrefix + " " + string(f)
}

// Detect classifies content. An explicit marker on the first line wins;
// otherwise a bulk delimiter means bulk, a real tab character means tsv,
// and anything else is segmented. The fallback is a heuristic: a segmented
// file whose text contains a raw tab is reported as tsv.
func Detect(content string) Format {
	if f, ok := headerFormat(firstLine(content)); ok {
		return f
	}
	switch {
	case strings.Contains(content, bulkMarker):
		return Bulk
	case strings.Contains(content, "\t"):
		return TSV
	default:
		return Segmented
	}
}

func headerFormat(line string) (Format, bool) {
	rest, ok := strings.CutPrefix(strings.TrimSpace(line), headerPrefix)
	if !ok {
		return "", false
	}
	f, err := ParseFormat(rest)
	if err != nil {
		return "", false
	}
	return f, true
}

func firstLine(content string) string {
	line, _, _ := strings.Cut(content, "\n")
	return strings.TrimSuffix(strings.TrimPrefix(line, "\ufeff"), "\r")
}
