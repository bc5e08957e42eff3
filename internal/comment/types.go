package comment

// Kind classifies a comment span.
type Kind string

const (
	// SingleLine is a `//` comment running to the end of its line.
	SingleLine Kind = "single-line"
	// MultiLine is a `/* ... */` block comment.
	MultiLine Kind = "multi-line"
)

// Fragment is one unit of translatable text.
type Fragment struct {
	// Index uniquely identifies the fragment across the whole run.
	Index string
	// Text is the extracted, whitespace-trimmed content.
	Text string
	// File is the absolute path of the owning block's source file.
	File string
	// Kind is the owning block's kind.
	Kind Kind
}

// Block is one comment occurrence in a source file.
type Block struct {
	// File is the absolute path of the source file.
	File string
	// Name is the index prefix of the file, normally its base name.
	Name string
	// Sequence is 1-based per file, in source order.
	Sequence int
	Kind     Kind
	// Fragments holds at least one fragment, in source order.
	Fragments []Fragment
}

// Result holds the rewrite output for a single file.
type Result struct {
	// Content is the placeholder-bearing text.
	Content string
	// Blocks are the comment blocks found in the file, in source order.
	Blocks []Block
}

// Fragments flattens blocks into their fragments, preserving block and fragment order.
func Fragments(blocks []Block) []Fragment {
	var out []Fragment
	for _, b := range blocks {
		out = append(out, b.Fragments...)
	}
	return out
}

// FragmentCount returns the total number of fragments across blocks.
func FragmentCount(blocks []Block) int {
	n := 0
	for _, b := range blocks {
		n += len(b.Fragments)
	}
	return n
}
