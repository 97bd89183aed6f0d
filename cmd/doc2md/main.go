// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the doc2md CLI.
package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/doc2md/internal/formatter"
	"github.com/pdiddy/doc2md/internal/secrets"
	"github.com/pdiddy/doc2md/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds credentials loaded from .secrets/ at startup.
var loadedSecrets map[string]string

// logger is configured from --log-level before any command runs.
var logger = slog.Default()

// rootCmd is the base command for the doc2md CLI.
var rootCmd = &cobra.Command{
	Use:   "doc2md",
	Short: "Convert Word and PDF documents to Markdown with Gemini",
	Long: `doc2md extracts the text of .doc, .docx and .pdf files, asks a Gemini model
to restructure it as clean Markdown, and writes one .md file per document.

Documents are processed one at a time in name order. Legacy .doc files need
LibreOffice (soffice) or antiword on the PATH; run "doc2md capabilities" to see
which formats are available.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level, err := parseLevel(viper.GetString("log_level"))
		if err != nil {
			return err
		}
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
		slog.SetDefault(logger)

		s, err := secrets.Load(secrets.DefaultDir, logger)
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			logger.Debug("loaded secrets", "keys", keys)
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "config file (default: ./doc2md.yaml or ~/.config/doc2md/doc2md.yaml)")
	pf.String("log-level", "info", "log level: debug, info, warn, error")
	_ = viper.BindPFlag("log_level", pf.Lookup("log-level"))
}

func initConfig() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintln(os.Stderr, "warning: could not load .env:", err)
	}

	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("doc2md")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "doc2md"))
		}
	}

	viper.SetEnvPrefix("DOC2MD")
	viper.AutomaticEnv()
	_ = viper.BindEnv("api_key", "DOC2MD_API_KEY", "GEMINI_API_KEY")

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// addAIFlags registers the remote formatter flags on cmd and binds them to
// the shared config keys.
func addAIFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("model", formatter.DefaultModel, "Gemini model identifier")
	f.String("api-key", "", "Gemini API key (default: $DOC2MD_API_KEY, $GEMINI_API_KEY, or .secrets/gemini-api-key)")
	f.String("base-url", formatter.DefaultBaseURL, "Generative Language API base URL")
	f.Duration("timeout", formatter.DefaultTimeout, "timeout for one API call (0 disables)")
}

// bindAIFlags binds cmd's AI flags to viper. Called from PreRun so the
// running command's flags win when several commands share a key.
func bindAIFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	_ = viper.BindPFlag("model", f.Lookup("model"))
	_ = viper.BindPFlag("api_key", f.Lookup("api-key"))
	_ = viper.BindPFlag("base_url", f.Lookup("base-url"))
	_ = viper.BindPFlag("timeout", f.Lookup("timeout"))
}

// aiConfig assembles the formatter settings. The .secrets file is the last
// source consulted for the API key.
func aiConfig() types.AIConfig {
	return types.AIConfig{
		HTTPConfig: types.HTTPConfig{
			Timeout:   viper.GetDuration("timeout"),
			UserAgent: "doc2md/" + version,
		},
		Model:   viper.GetString("model"),
		APIKey:  secretDefault(secrets.GeminiAPIKey, strings.TrimSpace(viper.GetString("api_key"))),
		BaseURL: viper.GetString("base_url"),
	}
}

// secretDefault returns fallback when set, otherwise the secret stored
// under key.
func secretDefault(key, fallback string) string {
	if fallback != "" {
		return fallback
	}
	return loadedSecrets[key]
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return level, fmt.Errorf("invalid --log-level %q: %w", s, err)
	}
	return level, nil
}

// run executes the CLI with args and returns the process exit status: 1
// when the command failed, including any failed document, otherwise 0.
func run(ctx context.Context, args []string) int {
	rootCmd.SetArgs(args)
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		return 1
	}
	return 0
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:])
	stop()
	os.Exit(code)
}
