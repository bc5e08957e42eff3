package comment

import (
	"fmt"
	"path/filepath"
	"strconv"
)

// PlaceholderPrefix precedes a fragment index inside rewritten source.
const PlaceholderPrefix = "PLACEHOLDER_"

// Index derives the fragment identifier from the source name, the block
// sequence and the segment sequence. The base name keeps its extension so an
// index can be traced back to its file without a lookup table.
func Index(name string, block, segment int) string {
	return fmt.Sprintf("%s-%03d-%02d", filepath.Base(name), block, segment)
}

// Placeholder returns the token embedded in rewritten source for index.
func Placeholder(index string) string {
	return PlaceholderPrefix + index
}

// Indexer hands out the per-file names used as index prefixes for one run.
// A file's name is its base name; a different file whose base name was
// already taken gets a numeric suffix (`util.h.2`, `util.h.3`, ...) in the
// order files are registered, so indices stay unique across directories.
type Indexer struct {
	byFile map[string]string
	used   map[string]bool
}

// NewIndexer returns an empty Indexer.
func NewIndexer() *Indexer {
	return &Indexer{
		byFile: make(map[string]string),
		used:   make(map[string]bool),
	}
}

// Name returns the index prefix for file, registering it on first use.
func (ix *Indexer) Name(file string) string {
	if name, ok := ix.byFile[file]; ok {
		return name
	}
	base := filepath.Base(file)
	name := base
	for n := 2; ix.used[name]; n++ {
		name = base + "." + strconv.Itoa(n)
	}
	ix.byFile[file] = name
	ix.used[name] = true
	return name
}
