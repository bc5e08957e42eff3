package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"comment-translator/internal/cache"
	"comment-translator/internal/config"
	"comment-translator/internal/filewalker"
	"comment-translator/internal/handoff"
	"comment-translator/internal/pipeline"
	"comment-translator/internal/translation"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// ErrNoFiles is returned when discovery finds no matching source file.
var ErrNoFiles = errors.New("no files found")

// Execute runs the CLI application.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		log.Error().Err(err).Msg("Run failed")
		os.Exit(1)
	}
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "comment-translator [paths...]",
		Short: "Extract source code comments for translation and put the translations back",
		Long: `Replaces every comment in C/C++ sources with placeholder tokens, exports the
comment text in three translator-friendly formats, waits for a translated file
and writes a translated copy of the sources.

Paths may be files or directories and default to the base directory.`,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setupLogging(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := formatFlag(cmd)
			if err != nil {
				return err
			}
			return runAll(cmd, args, format)
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.String("base-dir", "", "Directory that exports, report and trees are placed in (default: working directory)")
	pf.StringSlice("extensions", filewalker.DefaultPatterns, "File patterns to process")
	pf.Bool("escape-tabs", true, `Escape tab characters in comments as '\t'`)
	pf.Bool("no-escape-tabs", false, "Keep tab characters in comments as they are")
	pf.StringP("output", "o", "source_code_comments.xlsx", "Spreadsheet report path")
	pf.String("intermediary-dir", "intermediary_dir", "Directory for placeholder sources")
	pf.String("output-dir", "output_dir", "Directory for translated sources")
	pf.String("translation", "translated_comments.txt", "Translated file to read")
	pf.String("wait", config.WaitEnter, "How to wait for the translation: enter or watch")
	pf.Bool("format-header", false, "Write a '#format:' line at the top of each export")
	pf.String("database-url", "", "PostgreSQL URL for the translation memory")
	pf.Bool("memory", false, "Use the translation memory for untranslated placeholders")
	pf.Int("workers", 0, "Files processed concurrently (default: number of CPUs)")
	pf.BoolP("quiet", "q", false, "Only log warnings and errors")
	pf.BoolP("verbose", "v", false, "Log debug output")

	rootCmd.Flags().String("format", "", "Translation format (segmented, tsv, bulk); detected when empty")

	rootCmd.AddCommand(extractCmd())
	rootCmd.AddCommand(reinsertCmd())
	rootCmd.AddCommand(detectCmd())

	return rootCmd
}

func extractCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "extract [paths...]",
		Args:  cobra.ArbitraryArgs,
		Short: "Write the placeholder tree, the report and the export files",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := setupContext()
			defer cancel()

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			_, err = extract(ctx, cmd, cfg, args)
			return err
		},
	}
}

func reinsertCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reinsert [paths...]",
		Args:  cobra.ArbitraryArgs,
		Short: "Write the translated tree from an earlier extraction",
		Long: `Re-reads the original sources to rebuild the comment list, parses the
translation file against it and writes the output tree from the intermediary
tree. The sources must not have changed since the extraction.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := setupContext()
			defer cancel()

			format, err := formatFlag(cmd)
			if err != nil {
				return err
			}
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			files, err := discover(cfg, args)
			if err != nil {
				return err
			}
			ext, err := pipeline.Scan(ctx, files, cfg.Workers, nil)
			if err != nil {
				return err
			}
			return reinsert(ctx, cfg, ext, format)
		},
	}
	cmd.Flags().String("format", "", "Translation format (segmented, tsv, bulk); detected when empty")
	return cmd
}

func detectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "detect <file>",
		Short: "Print the detected format of a translation file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read %s: %w", args[0], err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), translation.Detect(string(data)))
			return nil
		},
	}
}

// runAll handles the root command: extraction, the translation pause and
// reinsertion in one run.
func runAll(cmd *cobra.Command, args []string, format translation.Format) error {
	ctx, cancel := setupContext()
	defer cancel()

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	ext, err := extract(ctx, cmd, cfg, args)
	if err != nil {
		return err
	}

	exports := pipeline.ExportPaths(cfg)
	names := make([]string, len(exports))
	for i, p := range exports {
		names[i] = filepath.Base(p)
	}
	handoff.Prompt(cmd.OutOrStdout(), names, cfg.TranslationPath())

	switch cfg.Wait {
	case config.WaitWatch:
		err = handoff.WaitFile(ctx, cfg.TranslationPath(), handoff.DefaultSettle)
	default:
		err = handoff.WaitEnter(ctx, cmd.InOrStdin(), cmd.OutOrStdout(), cfg.TranslationPath())
	}
	if err != nil {
		return err
	}

	return reinsert(ctx, cfg, ext, format)
}

func extract(ctx context.Context, cmd *cobra.Command, cfg *config.Config, args []string) (*pipeline.Extraction, error) {
	files, err := discover(cfg, args)
	if err != nil {
		return nil, err
	}
	quiet, _ := cmd.Flags().GetBool("quiet")
	return pipeline.Extract(ctx, cfg, files, NewCLIProgressReporter(quiet))
}

func reinsert(ctx context.Context, cfg *config.Config, ext *pipeline.Extraction, format translation.Format) error {
	opts := pipeline.ReinsertOptions{Format: format}

	if cfg.MemoryEnabled() {
		mem, closeMem, err := openMemory(ctx, cfg)
		if err != nil {
			log.Warn().Err(err).Msg("Translation memory unavailable, continuing without it")
		} else {
			defer closeMem()
			opts.Memory = mem
		}
	}

	_, err := pipeline.Reinsert(ctx, cfg, ext, opts)
	return err
}

// discover resolves the command-line paths to the list of source files,
// leaving out the tool's own trees.
func discover(cfg *config.Config, args []string) ([]string, error) {
	if len(args) == 0 {
		args = []string{cfg.BaseDir}
	}

	w, err := filewalker.NewWalker(cfg.Extensions)
	if err != nil {
		return nil, err
	}
	w.SkipDirs(cfg.IntermediaryPath(), cfg.OutputPath())

	files, err := w.Discover(args)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w under %s", ErrNoFiles, strings.Join(args, ", "))
	}
	return files, nil
}

// openMemory connects the PostgreSQL-backed translation memory.
func openMemory(ctx context.Context, cfg *config.Config) (*cache.TranslationCache, func(), error) {
	pool, err := cache.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}

	mem := cache.NewTranslationCache(pool)
	if err := mem.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, nil, err
	}
	if err := mem.Preload(ctx); err != nil {
		log.Warn().Err(err).Msg("Failed to preload translation memory")
	}
	return mem, pool.Close, nil
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(cmd.Flags())
	if err != nil {
		return nil, err
	}
	log.Debug().
		Str("base_dir", cfg.BaseDir).
		Strs("extensions", cfg.Extensions).
		Bool("escape_tabs", cfg.EscapeTabs).
		Str("wait", cfg.Wait).
		Bool("memory", cfg.MemoryEnabled()).
		Msg("Configuration loaded")
	return cfg, nil
}

func formatFlag(cmd *cobra.Command) (translation.Format, error) {
	s, _ := cmd.Flags().GetString("format")
	if s == "" {
		return "", nil
	}
	return translation.ParseFormat(s)
}

func setupLogging(cmd *cobra.Command) error {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	quiet, _ := cmd.Flags().GetBool("quiet")
	verbose, _ := cmd.Flags().GetBool("verbose")
	switch {
	case quiet && verbose:
		return fmt.Errorf("--quiet and --verbose are mutually exclusive")
	case quiet:
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case verbose:
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
	return nil
}

// setupContext creates a cancellable context with signal handling.
func setupContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		select {
		case <-sigCh:
			log.Warn().Msg("Received shutdown signal, cancelling...")
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()

	return ctx, cancel
}
