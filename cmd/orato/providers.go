package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"orato/internal/config"
	"orato/internal/observe"
	"orato/pkg/asr"
	"orato/pkg/asr/whisper"
	"orato/pkg/embeddings"
	"orato/pkg/embeddings/guarded"
	"orato/pkg/embeddings/local"
	"orato/pkg/embeddings/openai"
)

// buildTranscriber constructs the configured ASR backend. The returned
// closer releases the model; it is a no-op reader-friendly io.Closer for
// backends without state.
func buildTranscriber(cfg *config.Config) (asr.Transcriber, io.Closer, error) {
	switch cfg.Transcriber.Backend {
	case "whisper":
		var opts []whisper.Option
		if cfg.Transcriber.Language != "" {
			opts = append(opts, whisper.WithLanguage(cfg.Transcriber.Language))
		}
		if cfg.Transcriber.Threads > 0 {
			opts = append(opts, whisper.WithThreads(uint(cfg.Transcriber.Threads)))
		}
		t, err := whisper.New(cfg.Transcriber.ModelPath, opts...)
		if err != nil {
			return nil, nil, err
		}
		return t, t, nil
	case "":
		return nil, nil, fmt.Errorf("no transcriber configured; set transcriber.backend: whisper and transcriber.model_path in the config file")
	default:
		return nil, nil, fmt.Errorf("unknown transcriber backend %q", cfg.Transcriber.Backend)
	}
}

// buildEmbedder constructs the topic-relevance embedding backend. The
// local hashing provider needs no credentials and is the default.
func buildEmbedder(cfg *config.Config) (embeddings.Provider, error) {
	switch cfg.Embeddings.Backend {
	case "", "local":
		return local.New(0), nil
	case "openai":
		var opts []openai.Option
		if cfg.Embeddings.BaseURL != "" {
			opts = append(opts, openai.WithBaseURL(cfg.Embeddings.BaseURL))
		}
		remote, err := openai.New(cfg.Embeddings.APIKey, cfg.Embeddings.Model, opts...)
		if err != nil {
			return nil, err
		}
		// Topic scoring survives remote outages on the local hashing provider.
		return guarded.New(remote, local.New(0)), nil
	default:
		return nil, fmt.Errorf("unknown embeddings backend %q", cfg.Embeddings.Backend)
	}
}

// startMetrics initialises the OTel provider and serves /metrics when
// enabled. The returned shutdown stops both; it is never nil.
func startMetrics(ctx context.Context, cfg *config.Config) (shutdown func(context.Context) error, err error) {
	if !cfg.Metrics.Enabled {
		return func(context.Context) error { return nil }, nil
	}

	otelShutdown, err := observe.InitProvider(ctx, observe.ProviderConfig{ServiceName: "orato"})
	if err != nil {
		return nil, fmt.Errorf("init metrics provider: %w", err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{
		Addr:              cfg.Metrics.ListenAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		slog.Info("metrics endpoint listening", "addr", cfg.Metrics.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("metrics endpoint failed", "error", err)
		}
	}()

	return func(ctx context.Context) error {
		serveErr := srv.Shutdown(ctx)
		if err := otelShutdown(ctx); err != nil {
			return err
		}
		return serveErr
	}, nil
}
