package reinsert

import (
	"testing"

	"comment-translator/internal/comment"
	"comment-translator/internal/translation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApply_RoundTripWithoutTranslation(t *testing.T) {
	src := "int a; // hello world\n/**\n * line one\n *   line two\n */\nint b;\n"
	res := comment.Rewrite("/x/file.cpp", src)

	identity := make(translation.Map)
	for _, f := range comment.Fragments(res.Blocks) {
		identity[f.Index] = comment.EscapeTabs(f.Text)
	}

	out := NewEngine(identity, Options{UnescapeTabs: true}).Apply(res.Content)
	assert.Equal(t, "int a; //hello world\n/*\nline one\nline two\n*/\nint b;\n", out.Content)
	assert.Equal(t, 3, out.Replaced)
	assert.Empty(t, out.Unmapped)
}

func TestApply_UnescapesTabs(t *testing.T) {
	m := translation.Map{"a.cpp-001-01": `x\ty`}

	out := NewEngine(m, Options{UnescapeTabs: true}).Apply("//PLACEHOLDER_a.cpp-001-01\n")
	assert.Equal(t, "//x\ty\n", out.Content)

	out = NewEngine(m, Options{}).Apply("//PLACEHOLDER_a.cpp-001-01\n")
	assert.Equal(t, "//x\\ty\n", out.Content)
}

func TestApply_UnmappedLeftInPlace(t *testing.T) {
	content := "//PLACEHOLDER_a.cpp-001-01\n/*\nPLACEHOLDER_a.cpp-002-01\nPLACEHOLDER_a.cpp-002-02\n*/\n"
	m := translation.Map{"a.cpp-001-01": "eins", "a.cpp-002-01": "zwei"}

	out := NewEngine(m, Options{UnescapeTabs: true}).Apply(content)
	assert.Equal(t, "//eins\n/*\nzwei\nPLACEHOLDER_a.cpp-002-02\n*/\n", out.Content)
	assert.Equal(t, []string{"a.cpp-002-02"}, out.Unmapped)
	assert.Equal(t, 2, out.Replaced)
	assert.Equal(t, 1, CountPlaceholders(out.Content))
}

func TestApply_Fallback(t *testing.T) {
	content := "//PLACEHOLDER_a.cpp-001-01\n//PLACEHOLDER_a.cpp-002-01\n"
	fallback := func(index string) (string, bool) {
		if index == "a.cpp-002-01" {
			return "aus\tdem Gedaechtnis", true
		}
		return "", false
	}

	out := NewEngine(translation.Map{}, Options{UnescapeTabs: true, Fallback: fallback}).Apply(content)
	assert.Equal(t, "//PLACEHOLDER_a.cpp-001-01\n//aus\tdem Gedaechtnis\n", out.Content)
	assert.Equal(t, 1, out.Recalled)
	assert.Equal(t, []string{"a.cpp-001-01"}, out.Unmapped)
}

func TestApply_MapTakesPrecedenceOverFallback(t *testing.T) {
	called := false
	fallback := func(string) (string, bool) { called = true; return "old", true }
	out := NewEngine(translation.Map{"a.h-001-01": "new"}, Options{Fallback: fallback}).Apply("//PLACEHOLDER_a.h-001-01")
	assert.Equal(t, "//new", out.Content)
	assert.False(t, called)
}

func TestApply_UnicodeAndSuffixedNames(t *testing.T) {
	m := translation.Map{"übung.cpp-001-01": "ok", "util.h.2-003-01": "fine"}
	out := NewEngine(m, Options{}).Apply("//PLACEHOLDER_übung.cpp-001-01\n//PLACEHOLDER_util.h.2-003-01\n")
	require.Empty(t, out.Unmapped)
	assert.Equal(t, "//ok\n//fine\n", out.Content)
}

func TestCountPlaceholders(t *testing.T) {
	assert.Equal(t, 0, CountPlaceholders("no tokens here"))
	assert.Equal(t, 3, CountPlaceholders("PLACEHOLDER_a-001-01 PLACEHOLDER_b-001-01\nPLACEHOLDER_c.h-010-02"))
}
