package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"orato/internal/config"
	"orato/internal/evaluate"
	"orato/internal/refdata"
)

var evalFlags struct {
	topic            string
	speechType       string
	expectedDuration string
	actualDuration   string
	domain           string
	gender           string
	jsonOut          bool
}

var evaluateCmd = &cobra.Command{
	Use:   "evaluate <audio-file>",
	Short: "Score a speech recording",
	Example: `  orato evaluate speech.wav --topic "effective leadership"
  orato evaluate speech.mp3 --speech-type "Ice Breaker Speech" --json
  orato evaluate speech.wav --expected-duration "5-7 minutes" --actual-duration "06:12"`,
	Args: cobra.ExactArgs(1),
	RunE: runEvaluate,
}

func init() {
	f := evaluateCmd.Flags()
	f.StringVar(&evalFlags.topic, "topic", "", "announced topic; omitting it skips effectiveness scoring")
	f.StringVar(&evalFlags.speechType, "speech-type", "", `duration preset, e.g. "Prepared Speech" or "Table Topics"`)
	f.StringVar(&evalFlags.expectedDuration, "expected-duration", "", `expected length, e.g. "5-7 minutes"`)
	f.StringVar(&evalFlags.actualDuration, "actual-duration", "", `measured length as MM:SS, overriding the probed duration`)
	f.StringVar(&evalFlags.domain, "domain", "", "domain profile from the config's domain_profiles block")
	f.StringVar(&evalFlags.gender, "gender", "", "pitch band hint: male, female, or auto")
	f.BoolVar(&evalFlags.jsonOut, "json", false, "emit the full report as JSON instead of a table")
}

func runEvaluate(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metricsShutdown, err := startMetrics(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := metricsShutdown(sctx); err != nil {
			slog.Warn("metrics shutdown failed", "error", err)
		}
	}()

	transcriber, closer, err := buildTranscriber(cfg)
	if err != nil {
		return err
	}
	defer closer.Close()

	embedder, err := buildEmbedder(cfg)
	if err != nil {
		return err
	}

	store, err := refdata.Load(cfg.ReferenceDataDir, slog.Default())
	if err != nil {
		return fmt.Errorf("load reference data: %w", err)
	}

	ev := evaluate.New(cfg, transcriber, store, evaluate.WithEmbedder(embedder))
	report, err := ev.Evaluate(ctx, evaluate.Request{
		AudioPath:        args[0],
		Topic:            evalFlags.topic,
		SpeechType:       evalFlags.speechType,
		ExpectedDuration: evalFlags.expectedDuration,
		ActualDuration:   evalFlags.actualDuration,
		Domain:           evalFlags.domain,
		GenderHint:       config.GenderHint(evalFlags.gender),
	})
	if err != nil {
		return err
	}

	if evalFlags.jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}
	report.Render(os.Stdout)
	return nil
}
