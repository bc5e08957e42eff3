package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"comment-translator/internal/filewalker"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Wait modes for the human translation pause.
const (
	WaitEnter = "enter"
	WaitWatch = "watch"
)

// Config holds the settings of one run.
type Config struct {
	// BaseDir is the invocation directory. Export files, the report and both
	// trees are placed relative to it.
	BaseDir         string   `mapstructure:"base_dir"`
	Extensions      []string `mapstructure:"extensions"`
	EscapeTabs      bool     `mapstructure:"escape_tabs"`
	Report          string   `mapstructure:"report"`
	IntermediaryDir string   `mapstructure:"intermediary_dir"`
	OutputDir       string   `mapstructure:"output_dir"`
	TranslationFile string   `mapstructure:"translation_file"`
	Wait            string   `mapstructure:"wait"`
	FormatHeader    bool     `mapstructure:"format_header"`
	DatabaseURL     string   `mapstructure:"database_url"`
	Memory          bool     `mapstructure:"memory"`
	// Workers bounds the number of files read and rewritten concurrently.
	Workers int `mapstructure:"workers"`
}

// flagKeys maps command-line flag names to configuration keys.
var flagKeys = map[string]string{
	"base-dir":         "base_dir",
	"extensions":       "extensions",
	"escape-tabs":      "escape_tabs",
	"output":           "report",
	"intermediary-dir": "intermediary_dir",
	"output-dir":       "output_dir",
	"translation":      "translation_file",
	"wait":             "wait",
	"format-header":    "format_header",
	"database-url":     "database_url",
	"memory":           "memory",
	"workers":          "workers",
}

// Default returns the built-in configuration rooted at the working directory.
func Default() *Config {
	wd, err := os.Getwd()
	if err != nil {
		wd = "."
	}
	return &Config{
		BaseDir:         wd,
		Extensions:      append([]string(nil), filewalker.DefaultPatterns...),
		EscapeTabs:      true,
		Report:          "source_code_comments.xlsx",
		IntermediaryDir: "intermediary_dir",
		OutputDir:       "output_dir",
		TranslationFile: "translated_comments.txt",
		Wait:            WaitEnter,
		Workers:         runtime.NumCPU(),
	}
}

// Load builds the configuration. Priority, highest first: command-line
// flags, COMMENT_TRANSLATOR_* environment variables (a .env file is loaded
// into the environment first), comment-translator.yaml in the working
// directory, defaults. flags may be nil.
func Load(flags *pflag.FlagSet) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("No .env file found, using environment variables")
	}

	defaults := Default()

	v := viper.New()
	v.SetConfigName("comment-translator")
	v.SetConfigType("yaml")
	v.AddConfigPath(defaults.BaseDir)

	v.SetEnvPrefix("COMMENT_TRANSLATOR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("database_url", "COMMENT_TRANSLATOR_DATABASE_URL", "DATABASE_URL"); err != nil {
		return nil, fmt.Errorf("bind database url: %w", err)
	}

	setDefaults(v, defaults)

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("bind flag %s: %w", name, err)
				}
			}
		}
		if f := flags.Lookup("no-escape-tabs"); f != nil && f.Changed && f.Value.String() == "true" {
			v.Set("escape_tabs", false)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	} else {
		log.Debug().Str("file", v.ConfigFileUsed()).Msg("Loaded config file")
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	abs, err := filepath.Abs(cfg.BaseDir)
	if err != nil {
		return nil, fmt.Errorf("resolve base dir: %w", err)
	}
	cfg.BaseDir = abs

	return cfg, nil
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("base_dir", d.BaseDir)
	v.SetDefault("extensions", d.Extensions)
	v.SetDefault("escape_tabs", d.EscapeTabs)
	v.SetDefault("report", d.Report)
	v.SetDefault("intermediary_dir", d.IntermediaryDir)
	v.SetDefault("output_dir", d.OutputDir)
	v.SetDefault("translation_file", d.TranslationFile)
	v.SetDefault("wait", d.Wait)
	v.SetDefault("format_header", d.FormatHeader)
	v.SetDefault("database_url", d.DatabaseURL)
	v.SetDefault("memory", d.Memory)
	v.SetDefault("workers", d.Workers)
}

// Resolve returns p unchanged if absolute, otherwise joined to BaseDir.
func (c *Config) Resolve(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.BaseDir, p)
}

// IntermediaryPath is the absolute path of the placeholder tree.
func (c *Config) IntermediaryPath() string { return c.Resolve(c.IntermediaryDir) }

// OutputPath is the absolute path of the final tree.
func (c *Config) OutputPath() string { return c.Resolve(c.OutputDir) }

// TranslationPath is the absolute path of the translation input file.
func (c *Config) TranslationPath() string { return c.Resolve(c.TranslationFile) }

// ReportPath is the absolute path of the spreadsheet report.
func (c *Config) ReportPath() string { return c.Resolve(c.Report) }

// MemoryEnabled reports whether the translation memory should be used.
func (c *Config) MemoryEnabled() bool {
	return c.Memory && c.DatabaseURL != ""
}
