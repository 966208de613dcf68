package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"orato/internal/config"
)

var (
	configPath string

	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "orato",
	Short: "Speech evaluation pipeline",
	Long: `Orato scores recorded speeches across seven dimensions: topic
effectiveness, structure, content quality, pronunciation, prosody,
disfluencies, and timing. Point it at a WAV or MP3 recording and it
prints a weighted report with per-dimension feedback.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = loadConfig(configPath)
		if err != nil {
			return err
		}
		slog.SetDefault(newLogger(cfg.Logging))
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to the YAML configuration file")
	rootCmd.AddCommand(evaluateCmd, probeCmd, transcribeCmd)
}

// loadConfig resolves the configuration. No --config flag means built-in
// defaults; a named file that does not exist is an error with a hint.
func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	cfg, err := config.Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("config file %q not found; run without --config to use defaults", path)
	}
	return cfg, err
}

func newLogger(lc config.LoggingConfig) *slog.Logger {
	var lvl slog.Level
	switch lc.Level {
	case config.LogDebug:
		lvl = slog.LevelDebug
	case config.LogWarn:
		lvl = slog.LevelWarn
	case config.LogError:
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: lvl}
	if lc.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}
