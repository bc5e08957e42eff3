package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"comment-translator/internal/config"
	"comment-translator/internal/handoff"
	"comment-translator/internal/translation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleSource = "int a; // hello\n/* one\n   two */\nint b;\n"

func setup(t *testing.T) (*config.Config, []string) {
	t.Helper()
	dir := t.TempDir()
	src := filepath.Join(dir, "src", "a.cpp")
	require.NoError(t, os.MkdirAll(filepath.Dir(src), 0755))
	require.NoError(t, os.WriteFile(src, []byte(sampleSource), 0644))

	cfg := config.Default()
	cfg.BaseDir = dir
	return cfg, []string{src}
}

func writeTranslation(t *testing.T, cfg *config.Config, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(cfg.TranslationPath(), []byte(content), 0644))
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

type recordingProgress struct {
	total     int
	extracted []string
	done      bool
}

func (p *recordingProgress) OnExtractStart(total int) { p.total = total }
func (p *recordingProgress) OnFileExtracted(path string, _ int) {
	p.extracted = append(p.extracted, path)
}
func (p *recordingProgress) OnExtractComplete() { p.done = true }

func TestExtract_WritesTreesAndExports(t *testing.T) {
	cfg, files := setup(t)
	progress := &recordingProgress{}

	ext, err := Extract(context.Background(), cfg, files, progress)
	require.NoError(t, err)

	require.Len(t, ext.Blocks, 2)
	assert.Len(t, ext.Fragments, 3)
	assert.Equal(t, 1, progress.total)
	assert.Equal(t, files, progress.extracted)
	assert.True(t, progress.done)

	assert.Equal(t,
		"int a; //PLACEHOLDER_a.cpp-001-01\n/*\nPLACEHOLDER_a.cpp-002-01\nPLACEHOLDER_a.cpp-002-02\n*/\nint b;\n",
		readFile(t, filepath.Join(cfg.IntermediaryPath(), "src", "a.cpp")))

	assert.Equal(t, "a.cpp-001-01 hello\na.cpp-002-01 one\na.cpp-002-02 two\n",
		readFile(t, cfg.Resolve(translation.FileName(translation.Segmented))))
	assert.Equal(t, "0001 hello\n0002 one\\ttwo\n",
		readFile(t, cfg.Resolve(translation.FileName(translation.TSV))))
	assert.Equal(t, "<||a.cpp_001_block_delimiter||>\nhello\n<||a.cpp_002_block_delimiter||>\none\ntwo\n",
		readFile(t, cfg.Resolve(translation.FileName(translation.Bulk))))

	assert.FileExists(t, cfg.ReportPath())
	assert.Len(t, ExportPaths(cfg), 3)
}

func TestExtract_SkipsUnreadableFiles(t *testing.T) {
	cfg, files := setup(t)
	files = append([]string{filepath.Join(cfg.BaseDir, "gone.cpp")}, files...)

	ext, err := Extract(context.Background(), cfg, files, nil)
	require.NoError(t, err)
	assert.Len(t, ext.Files, 1)
	assert.Len(t, ext.Blocks, 2)
}

func TestExtract_FormatHeader(t *testing.T) {
	cfg, files := setup(t)
	cfg.FormatHeader = true

	_, err := Extract(context.Background(), cfg, files, nil)
	require.NoError(t, err)
	assert.Equal(t, "#format: tsv\n0001 hello\n0002 one\\ttwo\n",
		readFile(t, cfg.Resolve(translation.FileName(translation.TSV))))
}

func TestRoundTrip_AllFormats(t *testing.T) {
	translations := map[translation.Format]string{
		translation.Segmented: "a.cpp-001-01 bonjour\na.cpp-002-01 un\na.cpp-002-02 deux\n",
		translation.TSV:       "#format: tsv\n0001 bonjour\n0002 un\\tdeux\n",
		translation.Bulk:      "<||a.cpp_001_block_delimiter||>\nbonjour\n<||a.cpp_002_block_delimiter||>\nun\ndeux\n",
	}

	for f, content := range translations {
		t.Run(string(f), func(t *testing.T) {
			cfg, files := setup(t)
			ext, err := Extract(context.Background(), cfg, files, nil)
			require.NoError(t, err)

			writeTranslation(t, cfg, content)
			sum, err := Reinsert(context.Background(), cfg, ext, ReinsertOptions{})
			require.NoError(t, err)

			assert.Equal(t, f, sum.Format)
			assert.Equal(t, 3, sum.Replaced)
			assert.Zero(t, sum.Unmapped)
			assert.Equal(t, "int a; //bonjour\n/*\nun\ndeux\n*/\nint b;\n",
				readFile(t, filepath.Join(cfg.OutputPath(), "src", "a.cpp")))
			require.NotNil(t, sum.Verification)
			assert.False(t, sum.Verification.FewerPlaceholders())
		})
	}
}

func TestReinsert_TSVMismatchWritesNothing(t *testing.T) {
	cfg, files := setup(t)
	ext, err := Extract(context.Background(), cfg, files, nil)
	require.NoError(t, err)

	opts := ReinsertOptions{Format: translation.TSV}

	writeTranslation(t, cfg, "0001 bonjour\n")
	_, err = Reinsert(context.Background(), cfg, ext, opts)
	require.Error(t, err)
	assert.ErrorIs(t, err, translation.ErrBlockCountMismatch)
	assert.NoDirExists(t, cfg.OutputPath())

	writeTranslation(t, cfg, "0001 bonjour\n0002 un\n")
	_, err = Reinsert(context.Background(), cfg, ext, opts)
	assert.ErrorIs(t, err, translation.ErrSegmentCountMismatch)
	assert.NoDirExists(t, cfg.OutputPath())
}

func TestReinsert_MismatchKeepsPreviousOutput(t *testing.T) {
	cfg, files := setup(t)
	ext, err := Extract(context.Background(), cfg, files, nil)
	require.NoError(t, err)

	opts := ReinsertOptions{Format: translation.TSV}
	writeTranslation(t, cfg, "0001 bonjour\n0002 un\\tdeux\n")
	_, err = Reinsert(context.Background(), cfg, ext, opts)
	require.NoError(t, err)
	before := readFile(t, filepath.Join(cfg.OutputPath(), "src", "a.cpp"))

	writeTranslation(t, cfg, "0001 hallo\n")
	_, err = Reinsert(context.Background(), cfg, ext, opts)
	require.Error(t, err)
	assert.Equal(t, before, readFile(t, filepath.Join(cfg.OutputPath(), "src", "a.cpp")))
}

func TestReinsert_SegmentedMissingLineKeepsPlaceholder(t *testing.T) {
	cfg, files := setup(t)
	ext, err := Extract(context.Background(), cfg, files, nil)
	require.NoError(t, err)

	writeTranslation(t, cfg, "a.cpp-001-01 bonjour\na.cpp-002-02 deux\n")
	sum, err := Reinsert(context.Background(), cfg, ext, ReinsertOptions{})
	require.NoError(t, err)

	assert.Equal(t, 2, sum.Replaced)
	assert.Equal(t, 1, sum.Unmapped)
	assert.Equal(t, "int a; //bonjour\n/*\nPLACEHOLDER_a.cpp-002-01\ndeux\n*/\nint b;\n",
		readFile(t, filepath.Join(cfg.OutputPath(), "src", "a.cpp")))
}

func TestReinsert_MissingTranslationFile(t *testing.T) {
	cfg, files := setup(t)
	ext, err := Extract(context.Background(), cfg, files, nil)
	require.NoError(t, err)

	_, err = Reinsert(context.Background(), cfg, ext, ReinsertOptions{})
	assert.ErrorIs(t, err, handoff.ErrTranslationMissing)
	assert.NoDirExists(t, cfg.OutputPath())
}

func TestReinsert_ForcedFormat(t *testing.T) {
	cfg, files := setup(t)
	ext, err := Extract(context.Background(), cfg, files, nil)
	require.NoError(t, err)

	// Detected as segmented since the tab is escaped.
	custom := filepath.Join(cfg.BaseDir, "custom.txt")
	require.NoError(t, os.WriteFile(custom, []byte("0001 bonjour\n0002 un\\tdeux\n"), 0644))

	sum, err := Reinsert(context.Background(), cfg, ext, ReinsertOptions{
		TranslationPath: custom,
		Format:          translation.TSV,
	})
	require.NoError(t, err)
	assert.Equal(t, translation.TSV, sum.Format)
	assert.Equal(t, 3, sum.Replaced)
}

type fakeMemory map[string]string

func (m fakeMemory) Get(_ context.Context, src string) (string, bool) {
	v, ok := m[src]
	return v, ok
}

func (m fakeMemory) Set(_ context.Context, src, translated string) error {
	m[src] = translated
	return nil
}

func (m fakeMemory) SetBatch(ctx context.Context, pairs map[string]string) error {
	for src, translated := range pairs {
		_ = m.Set(ctx, src, translated)
	}
	return nil
}

func TestReinsert_MemoryFillsGapsAndRecords(t *testing.T) {
	cfg, files := setup(t)
	ext, err := Extract(context.Background(), cfg, files, nil)
	require.NoError(t, err)

	mem := fakeMemory{"one": "uno"}
	writeTranslation(t, cfg, "a.cpp-001-01 hola\na.cpp-002-02 dos\n")

	sum, err := Reinsert(context.Background(), cfg, ext, ReinsertOptions{Memory: mem})
	require.NoError(t, err)

	assert.Equal(t, 2, sum.Replaced)
	assert.Equal(t, 1, sum.Recalled)
	assert.Zero(t, sum.Unmapped)
	assert.Equal(t, "int a; //hola\n/*\nuno\ndos\n*/\nint b;\n",
		readFile(t, filepath.Join(cfg.OutputPath(), "src", "a.cpp")))
	assert.Equal(t, "hola", mem["hello"])
	assert.Equal(t, "dos", mem["two"])
}

func TestRoundTrip_CommentWithBackslashSequence(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "io.cpp")
	source := "// split fields on '\\t'\n/* path C:\\tmp\\\n   a\tb */\nint x;\n"
	require.NoError(t, os.WriteFile(src, []byte(source), 0644))
	cfg := config.Default()
	cfg.BaseDir = dir

	for _, f := range translation.Formats {
		t.Run(string(f), func(t *testing.T) {
			ext, err := Extract(context.Background(), cfg, []string{src}, nil)
			require.NoError(t, err)

			// The untouched export gives back every comment text.
			export := readFile(t, cfg.Resolve(translation.FileName(f)))
			writeTranslation(t, cfg, export)
			sum, err := Reinsert(context.Background(), cfg, ext, ReinsertOptions{Format: f})
			require.NoError(t, err)
			assert.Zero(t, sum.Unmapped)
			assert.Equal(t,
				"//split fields on '\\t'\n/*\npath C:\\tmp\\\na\tb\n*/\nint x;\n",
				readFile(t, filepath.Join(cfg.OutputPath(), "io.cpp")))
		})
	}
}
