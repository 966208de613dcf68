package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"orato/pkg/asr"
	"orato/pkg/audio"
	"orato/internal/transcript"
)

var transcribeCmd = &cobra.Command{
	Use:   "transcribe <audio-file>",
	Short: "Transcribe a recording and print the pause-annotated transcript",
	Args:  cobra.ExactArgs(1),
	RunE:  runTranscribe,
}

func runTranscribe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	transcriber, closer, err := buildTranscriber(cfg)
	if err != nil {
		return err
	}
	defer closer.Close()

	ref, err := audio.Probe(args[0])
	if err != nil {
		return err
	}
	samples, err := ref.Samples()
	if err != nil {
		return err
	}

	start := time.Now()
	result, err := transcriber.Transcribe(ctx, samples, asr.Options{
		Language:   cfg.Transcriber.Language,
		SampleRate: ref.SampleRate,
	})
	if err != nil {
		return err
	}

	annotated := transcript.Build(result, ref.Duration)
	fmt.Println(annotated.String())
	fmt.Fprintf(os.Stderr, "\n%d words, %d pauses, %.1f words/s, transcribed in %s\n",
		annotated.WordCount, annotated.PauseCount, annotated.SpeakingRate,
		time.Since(start).Round(time.Millisecond))
	return nil
}
