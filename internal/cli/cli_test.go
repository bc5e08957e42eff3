package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	err := cmd.Execute()
	return out.String(), err
}

func writeSource(t *testing.T, dir string) {
	t.Helper()
	path := filepath.Join(dir, "src", "main.cpp")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte("int main() { // entry\n\treturn 0; /* done */\n}\n"), 0644))
}

func TestDetectCommand(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "t.txt")
	require.NoError(t, os.WriteFile(path, []byte("<||a_001_block_delimiter||>\nx\n"), 0644))

	out, err := run(t, "", "detect", path)
	require.NoError(t, err)
	assert.Equal(t, "bulk\n", out)
}

func TestExtractThenReinsertCommands(t *testing.T) {
	dir := t.TempDir()
	writeSource(t, dir)

	_, err := run(t, "", "extract", "--quiet", "--base-dir", dir, dir)
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dir, "comments_to_translate_segmented.txt"))
	assert.FileExists(t, filepath.Join(dir, "intermediary_dir", "src", "main.cpp"))

	translated := "main.cpp-001-01 Einstieg\nmain.cpp-002-01 fertig\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "translated_comments.txt"), []byte(translated), 0644))

	// A second discovery must skip the intermediary tree.
	_, err = run(t, "", "reinsert", "--quiet", "--base-dir", dir, dir)
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, "output_dir", "src", "main.cpp"))
	require.NoError(t, err)
	assert.Equal(t, "int main() { //Einstieg\n\treturn 0; /*\nfertig\n*/\n}\n", string(data))
}

func TestRootCommand_FullRun(t *testing.T) {
	dir := t.TempDir()
	writeSource(t, dir)
	translated := "#format: tsv\n0001 Einstieg\n0002 fertig\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "translated_comments.txt"), []byte(translated), 0644))

	out, err := run(t, "\n", "--quiet", "--base-dir", dir, filepath.Join(dir, "src"))
	require.NoError(t, err)
	assert.Contains(t, out, "comments_to_translate_bulk.txt (recommended)")

	data, err := os.ReadFile(filepath.Join(dir, "output_dir", "src", "main.cpp"))
	require.NoError(t, err)
	assert.Equal(t, "int main() { //Einstieg\n\treturn 0; /*\nfertig\n*/\n}\n", string(data))
}

func TestReinsertCommand_RejectsUnknownFormat(t *testing.T) {
	_, err := run(t, "", "reinsert", "--format", "csv")
	assert.Error(t, err)
}

func TestQuietAndVerboseConflict(t *testing.T) {
	_, err := run(t, "", "detect", "--quiet", "--verbose", "x")
	assert.Error(t, err)
}

func TestExtractCommand_NoFiles(t *testing.T) {
	dir := t.TempDir()
	_, err := run(t, "", "extract", "--quiet", "--base-dir", dir, dir)
	assert.ErrorIs(t, err, ErrNoFiles)
}
