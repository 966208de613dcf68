// Package evaluate orchestrates one speech evaluation end to end: probe
// the audio, transcribe it, build the annotated transcript, fan the
// analyzers out over the shared artifacts, and aggregate their results
// into a report.
package evaluate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"orato/internal/analyzer"
	"orato/internal/analyzer/content"
	"orato/internal/analyzer/disfluency"
	"orato/internal/analyzer/effectiveness"
	"orato/internal/analyzer/pronunciation"
	"orato/internal/analyzer/prosody"
	"orato/internal/analyzer/structure"
	"orato/internal/analyzer/timing"
	"orato/internal/config"
	"orato/internal/features"
	"orato/internal/observe"
	"orato/internal/refdata"
	"orato/internal/transcript"
	"orato/pkg/asr"
	"orato/pkg/audio"
	"orato/pkg/embeddings"
	"orato/pkg/embeddings/local"
)

// ErrInput marks malformed requests: unreadable audio, invalid duration
// strings, unknown domains. The pipeline never starts for these.
var ErrInput = errors.New("evaluate: invalid input")

// Request describes one evaluation.
type Request struct {
	// AudioPath locates the recording to evaluate.
	AudioPath string

	// Topic is the announced subject; empty skips effectiveness scoring.
	Topic string

	// SpeechType names a duration preset, e.g. "Prepared Speech".
	SpeechType string

	// ExpectedDuration is "A[-B] minutes"; empty falls back to the
	// speech type preset.
	ExpectedDuration string

	// ActualDuration is "MM:SS", overriding the probed duration.
	ActualDuration string

	// Domain selects a configured domain profile.
	Domain string

	// GenderHint overrides the configured default pitch-band selection.
	GenderHint config.GenderHint
}

// Evaluator runs evaluations with a bounded number in flight.
type Evaluator struct {
	cfg         *config.Config
	transcriber asr.Transcriber
	refdata     *refdata.Store
	embedder    embeddings.Provider
	analyzers   []analyzer.Analyzer
	registry    *analyzer.Registry
	log         *slog.Logger
	metrics     *observe.Metrics
	gate        *semaphore.Weighted
}

// Option is a functional option for Evaluator.
type Option func(*Evaluator)

// WithLogger sets the structured logger. Default: slog.Default().
func WithLogger(log *slog.Logger) Option {
	return func(e *Evaluator) {
		if log != nil {
			e.log = log
		}
	}
}

// WithMetrics sets the metrics sink. Default: observe.DefaultMetrics().
func WithMetrics(m *observe.Metrics) Option {
	return func(e *Evaluator) {
		if m != nil {
			e.metrics = m
		}
	}
}

// WithEmbedder sets the topic-relevance embedding backend. Default: the
// local hashing provider.
func WithEmbedder(p embeddings.Provider) Option {
	return func(e *Evaluator) {
		if p != nil {
			e.embedder = p
		}
	}
}

// WithAnalyzers replaces the default analyzer set.
func WithAnalyzers(analyzers []analyzer.Analyzer) Option {
	return func(e *Evaluator) {
		e.analyzers = analyzers
	}
}

// DefaultAnalyzers returns the full analyzer set in report order.
func DefaultAnalyzers() []analyzer.Analyzer {
	return []analyzer.Analyzer{
		effectiveness.New(),
		structure.New(),
		content.New(),
		pronunciation.New(),
		prosody.New(),
		disfluency.New(),
		timing.New(),
	}
}

// New constructs an Evaluator.
func New(cfg *config.Config, transcriber asr.Transcriber, store *refdata.Store, opts ...Option) *Evaluator {
	e := &Evaluator{
		cfg:         cfg,
		transcriber: transcriber,
		refdata:     store,
		embedder:    local.New(0),
		log:         slog.Default(),
		metrics:     observe.DefaultMetrics(),
	}
	slots := cfg.MaxConcurrentEvaluations
	if slots <= 0 {
		slots = 4
	}
	e.gate = semaphore.NewWeighted(int64(slots))
	for _, o := range opts {
		o(e)
	}
	analyzers := e.analyzers
	if analyzers == nil {
		analyzers = DefaultAnalyzers()
	}
	e.registry = analyzer.NewRegistry(analyzers,
		analyzer.WithLogger(e.log),
		analyzer.WithMetrics(e.metrics),
		analyzer.WithTimeout(cfg.AnalyzerTimeout()),
		analyzer.WithWorkers(cfg.Workers()),
	)
	return e
}

// Evaluate runs one request through the pipeline. It returns ErrInput for
// malformed requests and a transcription error when ASR fails; analyzer
// and feature failures are absorbed into the report.
func (e *Evaluator) Evaluate(ctx context.Context, req Request) (*Report, error) {
	if err := e.gate.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("evaluate: acquire request slot: %w", err)
	}
	defer e.gate.Release(1)

	e.metrics.ActiveEvaluations.Add(ctx, 1)
	defer e.metrics.ActiveEvaluations.Add(ctx, -1)

	start := time.Now()
	requestID := uuid.NewString()
	log := e.log.With("request_id", requestID)

	meta, err := e.buildMetadata(requestID, req)
	if err != nil {
		e.metrics.RecordEvaluation(ctx, "input_error", time.Since(start).Seconds())
		return nil, err
	}

	ref, err := audio.Probe(req.AudioPath)
	if err != nil {
		e.metrics.RecordEvaluation(ctx, "input_error", time.Since(start).Seconds())
		return nil, fmt.Errorf("%w: %v", ErrInput, err)
	}
	log.Info("audio probed",
		"format", string(ref.Format), "sample_rate", ref.SampleRate,
		"channels", ref.Channels, "duration_s", ref.Duration)

	samples, err := ref.Samples()
	if err != nil {
		e.metrics.RecordEvaluation(ctx, "input_error", time.Since(start).Seconds())
		return nil, fmt.Errorf("%w: %v", ErrInput, err)
	}

	tStart := time.Now()
	result, err := e.transcriber.Transcribe(ctx, samples, asr.Options{
		Language:   e.cfg.Transcriber.Language,
		SampleRate: ref.SampleRate,
	})
	e.metrics.TranscriptionDuration.Record(ctx, time.Since(tStart).Seconds())
	if err != nil {
		e.metrics.RecordEvaluation(ctx, "transcription_error", time.Since(start).Seconds())
		return nil, fmt.Errorf("evaluate: transcribe %q: %w", req.AudioPath, err)
	}
	log.Info("transcription finished",
		"segments", len(result.Segments), "words", result.WordCount(),
		"elapsed", time.Since(tStart).Round(time.Millisecond))

	annotated := transcript.Build(result, ref.Duration)

	arts := &analyzer.Artifacts{
		Audio:         ref,
		Transcription: result,
		Transcript:    annotated,
		Features:      features.NewLoader(samples, ref.SampleRate),
		Refdata:       e.refdata,
		Embedder:      e.embedder,
		Config:        e.cfg,
		Meta:          meta,
	}

	results := e.registry.Run(ctx, arts)
	report := aggregate(e.cfg, results, annotated)
	report.RequestID = requestID

	e.metrics.RecordEvaluation(ctx, "ok", time.Since(start).Seconds())
	log.Info("evaluation finished",
		"final_score", report.FinalScore, "rating", report.Rating,
		"elapsed", time.Since(start).Round(time.Millisecond))
	return report, nil
}

// buildMetadata validates the request strings up front so parse failures
// surface before any audio work starts.
func (e *Evaluator) buildMetadata(requestID string, req Request) (analyzer.Metadata, error) {
	meta := analyzer.Metadata{
		RequestID:  requestID,
		Topic:      strings.TrimSpace(req.Topic),
		SpeechType: strings.TrimSpace(req.SpeechType),
		Domain:     strings.TrimSpace(req.Domain),
		GenderHint: req.GenderHint,
	}
	if meta.GenderHint == "" {
		meta.GenderHint = e.cfg.GenderHintDefault
	}
	if !meta.GenderHint.IsValid() {
		return meta, fmt.Errorf("%w: gender hint %q", ErrInput, req.GenderHint)
	}
	if meta.Domain != "" {
		if _, ok := e.cfg.DomainProfiles[meta.Domain]; !ok {
			return meta, fmt.Errorf("%w: unknown domain %q", ErrInput, req.Domain)
		}
	}
	if req.ExpectedDuration != "" {
		window, err := timing.ParseExpectedDuration(req.ExpectedDuration)
		if err != nil {
			return meta, fmt.Errorf("%w: %v", ErrInput, err)
		}
		meta.ExpectedDuration = &window
	}
	if req.ActualDuration != "" {
		seconds, err := ParseClock(req.ActualDuration)
		if err != nil {
			return meta, fmt.Errorf("%w: %v", ErrInput, err)
		}
		meta.ActualDuration = seconds
	}
	return meta, nil
}

// ParseClock parses a "MM:SS" duration into seconds.
func ParseClock(s string) (float64, error) {
	mm, ss, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		return 0, fmt.Errorf("evaluate: duration %q is not MM:SS", s)
	}
	minutes, err := strconv.Atoi(mm)
	if err != nil || minutes < 0 {
		return 0, fmt.Errorf("evaluate: duration %q is not MM:SS", s)
	}
	seconds, err := strconv.Atoi(ss)
	if err != nil || seconds < 0 || seconds > 59 {
		return 0, fmt.Errorf("evaluate: duration %q is not MM:SS", s)
	}
	total := float64(minutes*60 + seconds)
	if total == 0 {
		return 0, fmt.Errorf("evaluate: duration %q is zero", s)
	}
	return total, nil
}
