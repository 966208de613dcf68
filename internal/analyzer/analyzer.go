// Package analyzer defines the analyzer contract and the registry that
// runs analyzers with isolation, concurrency limits, and timeouts.
//
// Every analyzer is a pure function over a request-scoped, read-only
// [Artifacts] bundle. Analyzers never depend on each other's results; the
// dependency graph inside one request is a star centered on Artifacts.
package analyzer

import (
	"context"

	"orato/internal/config"
	"orato/internal/features"
	"orato/internal/refdata"
	"orato/internal/transcript"
	"orato/pkg/asr"
	"orato/pkg/audio"
	"orato/pkg/embeddings"
)

// Feature names an input an analyzer may require. The registry skips
// analyzers whose required features are unavailable for the request.
type Feature string

const (
	FeatureTranscript       Feature = "transcript"
	FeatureAudio            Feature = "audio"
	FeaturePitch            Feature = "pitch"
	FeatureIntensity        Feature = "intensity"
	FeatureMFCC             Feature = "mfcc"
	FeatureOnsets           Feature = "onsets"
	FeatureTopic            Feature = "topic"
	FeatureExpectedDuration Feature = "expected_duration"
)

// Status classifies an analyzer outcome.
type Status string

const (
	// StatusOK means the analyzer ran with all its inputs.
	StatusOK Status = "ok"

	// StatusDegraded means the analyzer ran on partial inputs and its
	// score is a conservative estimate.
	StatusDegraded Status = "degraded"

	// StatusSkipped means required inputs were unavailable and the
	// analyzer never ran. The aggregator redistributes its weight.
	StatusSkipped Status = "skipped"

	// StatusFailed means the analyzer errored, timed out, or panicked.
	// The result carries its default score.
	StatusFailed Status = "failed"
)

// Result is the uniform output shape of every analyzer.
type Result struct {
	AnalyzerID string
	// Score is always in [0, 100], even for failed results.
	Score    float64
	Metrics  map[string]any
	Feedback []string
	Status   Status
	Err      string
}

// MinutesRange is an inclusive expected-duration window in minutes.
type MinutesRange struct {
	Min float64
	Max float64
}

// Metadata carries the request fields that are inputs to analyzers rather
// than artifacts derived from audio.
type Metadata struct {
	RequestID string

	// Topic is the announced speech topic; empty when not provided.
	Topic string

	// SpeechType names a duration preset ("Ice Breaker Speech" and
	// friends). Empty when not provided.
	SpeechType string

	// ExpectedDuration is the explicit duration window. Nil means derive
	// from SpeechType, or skip timing when that is empty too.
	ExpectedDuration *MinutesRange

	// ActualDuration overrides the probed audio duration in seconds when
	// positive. Used when the submitted audio is a trimmed excerpt.
	ActualDuration float64

	// GenderHint selects the prosody pitch band.
	GenderHint config.GenderHint

	// Domain selects a configured domain profile; empty means none.
	Domain string
}

// Artifacts is the request-scoped read-only bundle shared by reference
// across all analyzers. No analyzer may mutate it.
type Artifacts struct {
	// Audio describes the probed input file. Nil when evaluation runs on
	// a bare transcript.
	Audio *audio.Ref

	// Transcription is the normalized ASR output.
	Transcription *asr.TranscriptionResult

	// Transcript is the pause-annotated token stream built from
	// Transcription.
	Transcript *transcript.Annotated

	// Features lazily computes acoustic features. Nil when no audio
	// samples are available.
	Features *features.Loader

	// Refdata is the process-wide reference store. Never nil.
	Refdata *refdata.Store

	// Embedder computes topic-relevance embeddings. Never nil; the local
	// backend serves when nothing is configured.
	Embedder embeddings.Provider

	// Config is the loaded process configuration. Never nil.
	Config *config.Config

	Meta Metadata
}

// Duration returns the effective speech duration in seconds, honoring the
// request override.
func (a *Artifacts) Duration() float64 {
	if a.Meta.ActualDuration > 0 {
		return a.Meta.ActualDuration
	}
	if a.Transcript != nil {
		return a.Transcript.AudioDuration
	}
	if a.Audio != nil {
		return a.Audio.Duration
	}
	return 0
}

// Available reports whether a required feature can be served for this
// request.
func (a *Artifacts) Available(f Feature) bool {
	switch f {
	case FeatureTranscript:
		return a.Transcript != nil
	case FeatureAudio, FeaturePitch, FeatureIntensity, FeatureMFCC, FeatureOnsets:
		return a.Features != nil
	case FeatureTopic:
		return a.Meta.Topic != ""
	case FeatureExpectedDuration:
		return a.Meta.ExpectedDuration != nil || a.Meta.SpeechType != ""
	}
	return false
}

// Analyzer is one independent scoring dimension.
type Analyzer interface {
	// ID returns the stable analyzer identifier used in weights,
	// component scores, and metrics.
	ID() string

	// Requires lists the features this analyzer needs. The registry
	// skips the analyzer when any is unavailable.
	Requires() []Feature

	// DefaultScore is the conservative score reported when the analyzer
	// fails or times out.
	DefaultScore() float64

	// Analyze scores the request. Implementations must honor ctx
	// cancellation at feature-loader boundaries and return a Result with
	// Status ok or degraded; the registry owns failed and skipped.
	Analyze(ctx context.Context, a *Artifacts) Result
}
