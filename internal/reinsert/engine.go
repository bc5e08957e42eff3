package reinsert

import (
	"regexp"
	"strings"

	"comment-translator/internal/comment"
	"comment-translator/internal/translation"
)

// placeholderPattern matches a placeholder token. Index characters are
// letters, digits, underscore, dot and hyphen, so base names with other
// characters (such as spaces) are not fully matched.
var placeholderPattern = regexp.MustCompile(`PLACEHOLDER_[\p{L}\p{N}_.\-]+`)

// Options controls substitution.
type Options struct {
	// UnescapeTabs reverses comment.EscapeTabs on mapped values.
	UnescapeTabs bool
	// Fallback resolves indices that are missing from the map. Its values are
	// inserted verbatim.
	Fallback func(index string) (string, bool)
}

// Result is the outcome of substituting one file's content.
type Result struct {
	Content string
	// Replaced counts placeholders resolved from the map.
	Replaced int
	// Recalled counts placeholders resolved through Options.Fallback.
	Recalled int
	// Unmapped lists indices left in place, in order of appearance.
	Unmapped []string
}

// Engine substitutes placeholders with translated text.
type Engine struct {
	mapping translation.Map
	opts    Options
}

// NewEngine creates an Engine over a parsed translation map. The map is only
// read.
func NewEngine(mapping translation.Map, opts Options) *Engine {
	return &Engine{mapping: mapping, opts: opts}
}

// Apply replaces every placeholder in content. Unmapped placeholders are
// kept literally so the text stays a valid comment.
func (e *Engine) Apply(content string) *Result {
	res := &Result{}
	res.Content = placeholderPattern.ReplaceAllStringFunc(content, func(ph string) string {
		index := strings.TrimPrefix(ph, comment.PlaceholderPrefix)
		if text, ok := e.mapping[index]; ok {
			res.Replaced++
			if e.opts.UnescapeTabs {
				text = comment.UnescapeTabs(text)
			}
			return text
		}
		if e.opts.Fallback != nil {
			if text, ok := e.opts.Fallback(index); ok {
				res.Recalled++
				return text
			}
		}
		res.Unmapped = append(res.Unmapped, index)
		return ph
	})
	return res
}

// CountPlaceholders returns the number of placeholder tokens in content.
func CountPlaceholders(content string) int {
	return len(placeholderPattern.FindAllStringIndex(content, -1))
}
