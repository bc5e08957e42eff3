package pipeline

import (
	"context"
	"fmt"
	"os"

	"comment-translator/internal/comment"
	"comment-translator/internal/config"
	"comment-translator/internal/handoff"
	"comment-translator/internal/reinsert"
	"comment-translator/internal/translation"
	"comment-translator/internal/workspace"

	"github.com/rs/zerolog/log"
)

// Memory remembers translations by source comment text.
type Memory interface {
	Get(ctx context.Context, sourceText string) (string, bool)
	Set(ctx context.Context, sourceText, translated string) error
	SetBatch(ctx context.Context, pairs map[string]string) error
}

// ReinsertOptions controls the reinsertion phase.
type ReinsertOptions struct {
	// TranslationPath overrides cfg.TranslationPath when set.
	TranslationPath string
	// Format skips detection when set.
	Format translation.Format
	// Memory, when set, fills unmapped placeholders and records the
	// translations of this run.
	Memory Memory
}

// Summary describes a finished reinsertion.
type Summary struct {
	Format       translation.Format
	Mapped       int
	Files        int
	Replaced     int
	Recalled     int
	Unmapped     int
	Verification *reinsert.Verification
}

// Reinsert parses the translation file against ext and writes the output
// tree. Nothing is written to the output directory unless parsing and every
// file substitution succeed.
func Reinsert(ctx context.Context, cfg *config.Config, ext *Extraction, opts ReinsertOptions) (*Summary, error) {
	path := opts.TranslationPath
	if path == "" {
		path = cfg.TranslationPath()
	}
	if err := handoff.Require(path); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read translation file: %w", err)
	}
	content := string(data)

	format := opts.Format
	if format == "" {
		format = translation.Detect(content)
		log.Info().Str("format", string(format)).Msg("Detected translation format")
	} else {
		log.Info().Str("format", string(format)).Msg("Using forced translation format")
	}

	mapping, err := translation.Parse(content, format, ext.Blocks, translation.Options{EscapeTabs: cfg.EscapeTabs})
	if err != nil {
		return nil, err
	}
	log.Info().Int("translations", len(mapping)).Msg("Loaded translations")

	engineOpts := reinsert.Options{UnescapeTabs: cfg.EscapeTabs}
	sources := sourceTexts(ext.Blocks)
	if opts.Memory != nil {
		engineOpts.Fallback = func(index string) (string, bool) {
			src, ok := sources[index]
			if !ok {
				return "", false
			}
			return opts.Memory.Get(ctx, src)
		}
	}
	engine := reinsert.NewEngine(mapping, engineOpts)

	sum := &Summary{Format: format, Mapped: len(mapping)}
	if err := writeOutput(cfg, engine, sum); err != nil {
		return nil, err
	}
	log.Info().Str("path", cfg.OutputPath()).Msg("Output directory created")

	if opts.Memory != nil {
		remember(ctx, opts.Memory, mapping, sources, cfg.EscapeTabs)
	}

	v, err := reinsert.Verify(cfg.IntermediaryPath(), cfg.OutputPath(), len(mapping))
	if err != nil {
		log.Warn().Err(err).Msg("Verification skipped")
	}
	sum.Verification = v

	log.Info().
		Int("files", sum.Files).
		Int("replaced", sum.Replaced).
		Int("recalled", sum.Recalled).
		Int("unmapped", sum.Unmapped).
		Msg("Reinsertion phase complete")

	return sum, nil
}

func writeOutput(cfg *config.Config, engine *reinsert.Engine, sum *Summary) (err error) {
	src := workspace.Open(cfg.IntermediaryPath())
	files, err := src.Files()
	if err != nil {
		return fmt.Errorf("list intermediary files: %w", err)
	}

	stage, err := workspace.NewStage(cfg.OutputPath())
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			if derr := stage.Discard(); derr != nil {
				log.Warn().Err(derr).Msg("Failed to discard staged output")
			}
		}
	}()

	for _, rel := range files {
		data, err := src.Read(rel)
		if err != nil {
			return fmt.Errorf("read intermediary file: %w", err)
		}
		res := engine.Apply(string(data))
		for _, index := range res.Unmapped {
			log.Warn().Str("index", index).Str("file", rel).Msg("No translation found for placeholder")
		}
		if err := stage.Write(rel, []byte(res.Content)); err != nil {
			return fmt.Errorf("write output file: %w", err)
		}
		sum.Files++
		sum.Replaced += res.Replaced
		sum.Recalled += res.Recalled
		sum.Unmapped += len(res.Unmapped)
	}

	return stage.Commit()
}

// sourceTexts maps each index to its original fragment text.
func sourceTexts(blocks []comment.Block) map[string]string {
	m := make(map[string]string, comment.FragmentCount(blocks))
	for _, fr := range comment.Fragments(blocks) {
		m[fr.Index] = fr.Text
	}
	return m
}

func remember(ctx context.Context, mem Memory, mapping translation.Map, sources map[string]string, unescape bool) {
	pairs := make(map[string]string, len(mapping))
	for index, text := range mapping {
		src, ok := sources[index]
		if !ok || src == "" {
			continue
		}
		if unescape {
			text = comment.UnescapeTabs(text)
		}
		pairs[src] = text
	}
	if err := mem.SetBatch(ctx, pairs); err != nil {
		log.Warn().Err(err).Msg("Failed to record translations")
		return
	}
	log.Debug().Int("count", len(pairs)).Msg("Recorded translations")
}
