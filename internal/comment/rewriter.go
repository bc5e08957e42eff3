package comment

import (
	"path/filepath"
	"regexp"
	"strings"
)

// leadingStars matches the asterisk prefix of box-drawn comment lines.
var leadingStars = regexp.MustCompile(`^\s*\*+\s?`)

// Rewrite replaces every comment in content with placeholder tokens and
// returns the rewritten text together with the file's comment blocks.
// Text outside comment spans is copied unchanged. Indices are prefixed with
// the base name of file.
func Rewrite(file, content string) *Result {
	return RewriteNamed(file, filepath.Base(file), content)
}

// RewriteNamed is Rewrite with an explicit index prefix, as handed out by an
// Indexer.
func RewriteNamed(file, name, content string) *Result {
	spans := Scan(content)
	result := &Result{Blocks: make([]Block, 0, len(spans))}

	var sb strings.Builder
	sb.Grow(len(content))
	last := 0

	for i, span := range spans {
		sb.WriteString(content[last:span.Start])
		seq := i + 1

		var texts []string
		if span.Kind == SingleLine {
			texts = []string{singleLineText(span.Text)}
		} else {
			texts = multiLineTexts(span.Text)
		}

		block := Block{
			File:      file,
			Name:      name,
			Sequence:  seq,
			Kind:      span.Kind,
			Fragments: make([]Fragment, 0, len(texts)),
		}
		placeholders := make([]string, 0, len(texts))
		for j, text := range texts {
			idx := Index(name, seq, j+1)
			block.Fragments = append(block.Fragments, Fragment{
				Index: idx,
				Text:  text,
				File:  file,
				Kind:  span.Kind,
			})
			placeholders = append(placeholders, Placeholder(idx))
		}
		result.Blocks = append(result.Blocks, block)

		if span.Kind == SingleLine {
			// Keeps the line a valid comment if reinsertion never happens.
			sb.WriteString("//" + placeholders[0])
		} else {
			sb.WriteString("/*\n" + strings.Join(placeholders, "\n") + "\n*/")
		}
		last = span.End
	}

	sb.WriteString(content[last:])
	result.Content = sb.String()
	return result
}

func singleLineText(raw string) string {
	return strings.TrimSpace(strings.TrimPrefix(raw, "//"))
}

// multiLineTexts returns one text per non-blank interior line, or a single
// empty text when every line is blank.
func multiLineTexts(raw string) []string {
	inner := raw[2 : len(raw)-2]
	if strings.HasPrefix(raw, "/**") && len(raw) >= 5 {
		inner = raw[3 : len(raw)-2]
	}

	lines := strings.FieldsFunc(inner, func(r rune) bool {
		return r == '\n' || r == '\r'
	})

	var texts []string
	for _, line := range lines {
		line = strings.TrimSpace(leadingStars.ReplaceAllString(line, ""))
		if line == "" {
			continue
		}
		texts = append(texts, line)
	}
	if len(texts) == 0 {
		texts = []string{""}
	}
	return texts
}
