package pipeline

import (
	"context"
	"fmt"
	"os"
	"sync"

	"comment-translator/internal/comment"
	"comment-translator/internal/config"
	"comment-translator/internal/report"
	"comment-translator/internal/translation"
	"comment-translator/internal/worker"
	"comment-translator/internal/workspace"

	"github.com/rs/zerolog/log"
)

// ProgressReporter receives extraction progress.
type ProgressReporter interface {
	OnExtractStart(totalFiles int)
	OnFileExtracted(path string, blocks int)
	OnExtractComplete()
}

type nopProgress struct{}

func (nopProgress) OnExtractStart(int)          {}
func (nopProgress) OnFileExtracted(string, int) {}
func (nopProgress) OnExtractComplete()          {}

// RewrittenFile is the placeholder-bearing content of one source file.
type RewrittenFile struct {
	Path    string
	Content string
}

// Extraction is the outcome of the scan phase. It is not modified once
// returned.
type Extraction struct {
	Files  []RewrittenFile
	Blocks []comment.Block
	// Fragments lists every fragment in allocation order, for the report.
	Fragments []comment.Fragment
}

// Scan reads and rewrites files with up to workers files in flight. Index
// names are allocated in file order and the result keeps that order.
// Unreadable files are logged and left out.
func Scan(ctx context.Context, files []string, workers int, progress ProgressReporter) (*Extraction, error) {
	if progress == nil {
		progress = nopProgress{}
	}
	progress.OnExtractStart(len(files))
	defer progress.OnExtractComplete()

	ix := comment.NewIndexer()
	jobs := make([]scanJob, len(files))
	for i, path := range files {
		jobs[i] = scanJob{path: path, name: ix.Name(path)}
	}

	var mu sync.Mutex
	pool := worker.NewPool(workers, func(ctx context.Context, job scanJob) (*comment.Result, error) {
		data, err := os.ReadFile(job.path)
		var res *comment.Result
		if err == nil {
			res = comment.RewriteNamed(job.path, job.name, string(data))
		}

		mu.Lock()
		defer mu.Unlock()
		if res != nil {
			progress.OnFileExtracted(job.path, len(res.Blocks))
		} else {
			progress.OnFileExtracted(job.path, 0)
		}
		return res, err
	})

	ext := &Extraction{}
	for _, task := range pool.Execute(ctx, jobs) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if task.Err != nil {
			log.Warn().Err(task.Err).Str("file", task.Input.path).Msg("Error reading file, skipping")
			continue
		}
		res := task.Result
		ext.Files = append(ext.Files, RewrittenFile{Path: task.Input.path, Content: res.Content})
		ext.Blocks = append(ext.Blocks, res.Blocks...)
		ext.Fragments = append(ext.Fragments, comment.Fragments(res.Blocks)...)
	}
	return ext, nil
}

type scanJob struct {
	path string
	name string
}

// Extract runs the export phase: it scans files, writes the intermediary
// tree, the report and the three export files.
func Extract(ctx context.Context, cfg *config.Config, files []string, progress ProgressReporter) (*Extraction, error) {
	ext, err := Scan(ctx, files, cfg.Workers, progress)
	if err != nil {
		return nil, err
	}

	tree, err := workspace.Reset(cfg.IntermediaryPath())
	if err != nil {
		return nil, fmt.Errorf("prepare intermediary directory: %w", err)
	}
	log.Info().Str("path", tree.Root).Msg("Intermediary directory created")

	for _, f := range ext.Files {
		if err := tree.Write(workspace.RelPath(cfg.BaseDir, f.Path), []byte(f.Content)); err != nil {
			return nil, fmt.Errorf("write intermediary file: %w", err)
		}
	}

	if err := report.WriteXLSX(cfg.ReportPath(), ext.Fragments); err != nil {
		log.Error().Err(err).Str("path", cfg.ReportPath()).Msg("Error saving report")
	}

	if err := WriteExports(cfg, ext.Blocks); err != nil {
		return nil, err
	}

	log.Info().
		Int("segments", len(ext.Fragments)).
		Int("blocks", len(ext.Blocks)).
		Int("files", len(ext.Files)).
		Msg("Extraction phase complete")

	return ext, nil
}

// ExportPaths returns the export file paths in export order.
func ExportPaths(cfg *config.Config) []string {
	paths := make([]string, 0, len(translation.Formats))
	for _, f := range translation.Formats {
		paths = append(paths, cfg.Resolve(translation.FileName(f)))
	}
	return paths
}

// WriteExports writes the segmented, tsv and bulk export files.
func WriteExports(cfg *config.Config, blocks []comment.Block) error {
	opts := translation.Options{EscapeTabs: cfg.EscapeTabs, Header: cfg.FormatHeader}
	for _, f := range translation.Formats {
		path := cfg.Resolve(translation.FileName(f))
		if err := writeExport(path, f, blocks, opts); err != nil {
			return err
		}
		log.Info().Str("format", string(f)).Str("path", path).Msg("Translation file created")
	}
	return nil
}

func writeExport(path string, f translation.Format, blocks []comment.Block, opts translation.Options) error {
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s export: %w", f, err)
	}
	if err := translation.Write(out, f, blocks, opts); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("close %s export: %w", f, err)
	}
	return nil
}
