package comment

import (
	"regexp"
	"strings"
)

// commentPattern matches `//` up to the line terminator, or the shortest
// `/* ... */` span across lines. The first `*/` closes a block comment, so
// nested comments are not supported. String and character literals are not
// recognised: comment markers inside them are reported as comments.
var commentPattern = regexp.MustCompile(`//[^\r\n]*|(?s:/\*.*?\*/)`)

// Span is one comment occurrence located in raw text.
type Span struct {
	// Start and End are byte offsets into the scanned text.
	Start int
	End   int
	// Text is the raw comment including its delimiters.
	Text string
	Kind Kind
}

// Scan returns every comment span of content in source order. Matching
// resumes after the end of the previous span, so spans never overlap.
func Scan(content string) []Span {
	locs := commentPattern.FindAllStringIndex(content, -1)
	spans := make([]Span, 0, len(locs))
	for _, loc := range locs {
		text := content[loc[0]:loc[1]]
		kind := MultiLine
		if strings.HasPrefix(strings.TrimSpace(text), "//") {
			kind = SingleLine
		}
		spans = append(spans, Span{
			Start: loc[0],
			End:   loc[1],
			Text:  text,
			Kind:  kind,
		})
	}
	return spans
}
