// Package config provides the configuration schema and loader for the
// speech evaluation pipeline.
package config

import (
	"runtime"
	"time"
)

// LogLevel controls log verbosity.
type LogLevel string

const (
	LogDebug LogLevel = "debug"
	LogInfo  LogLevel = "info"
	LogWarn  LogLevel = "warn"
	LogError LogLevel = "error"
)

// IsValid reports whether l is a recognised log level.
func (l LogLevel) IsValid() bool {
	switch l {
	case LogDebug, LogInfo, LogWarn, LogError:
		return true
	}
	return false
}

// GenderHint selects the pitch band used by prosody scoring.
type GenderHint string

const (
	GenderMale   GenderHint = "male"
	GenderFemale GenderHint = "female"
	GenderAuto   GenderHint = "auto"
)

// IsValid reports whether g is a recognised gender hint.
func (g GenderHint) IsValid() bool {
	switch g {
	case GenderMale, GenderFemale, GenderAuto:
		return true
	}
	return false
}

// Analyzer identifiers used as weight keys and component-score keys.
const (
	AnalyzerStructure     = "structure"
	AnalyzerContent       = "content"
	AnalyzerDisfluency    = "disfluency"
	AnalyzerTiming        = "timing"
	AnalyzerProsody       = "prosody"
	AnalyzerPronunciation = "pronunciation"
	AnalyzerEffectiveness = "effectiveness"
)

// KnownAnalyzers lists every analyzer id a weights block may reference.
var KnownAnalyzers = []string{
	AnalyzerStructure,
	AnalyzerContent,
	AnalyzerDisfluency,
	AnalyzerTiming,
	AnalyzerProsody,
	AnalyzerPronunciation,
	AnalyzerEffectiveness,
}

// Config is the root configuration structure, typically loaded from a YAML
// file using [Load] or [LoadFromReader].
type Config struct {
	// WorkerCount bounds how many analyzers run simultaneously within one
	// request. Zero means one per CPU core.
	WorkerCount int `yaml:"worker_count"`

	// AnalyzerTimeoutMS is the wall-clock budget per analyzer in
	// milliseconds. Zero selects the default of 5000.
	AnalyzerTimeoutMS int `yaml:"analyzer_timeout_ms"`

	// MaxConcurrentEvaluations bounds concurrent requests at the process
	// boundary. Zero selects the default of 4.
	MaxConcurrentEvaluations int `yaml:"max_concurrent_evaluations"`

	// Weights maps analyzer ids to their share of the final score. Must
	// sum to 1.0. Empty selects the built-in vector.
	Weights map[string]float64 `yaml:"weights"`

	// MinConfidence is the ASR word confidence below which words are
	// flagged for pronunciation feedback.
	MinConfidence float64 `yaml:"min_confidence"`

	// GenderHintDefault applies when a request carries no gender hint.
	GenderHintDefault GenderHint `yaml:"gender_hint_default"`

	// GenderTieBreak biases auto gender detection. Zero is neutral;
	// positive values lean male.
	GenderTieBreak float64 `yaml:"gender_tie_break"`

	// DomainProfiles adds per-domain vocabulary for content scoring.
	DomainProfiles map[string]DomainProfile `yaml:"domain_profiles"`

	// ReferenceDataDir holds the word frequency, stopword, and
	// pronunciation files. Empty selects "refdata".
	ReferenceDataDir string `yaml:"reference_data_dir"`

	Logging     LoggingConfig     `yaml:"logging"`
	Transcriber TranscriberConfig `yaml:"transcriber"`
	Embeddings  EmbeddingsConfig  `yaml:"embeddings"`
	Metrics     MetricsConfig     `yaml:"metrics"`
}

// DomainProfile tailors content scoring to a subject domain.
type DomainProfile struct {
	// Vocabulary lists domain terms that count as advanced usage.
	Vocabulary []string `yaml:"vocabulary"`

	// FillerWords extends the built-in filler lexicon for this domain.
	FillerWords []string `yaml:"filler_words"`
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	// Level controls verbosity.
	Level LogLevel `yaml:"level"`

	// Format selects "text" or "json" handler output.
	Format string `yaml:"format"`
}

// TranscriberConfig selects and configures the ASR backend.
type TranscriberConfig struct {
	// Backend selects the transcriber implementation ("whisper").
	Backend string `yaml:"backend"`

	// ModelPath points at the whisper model file.
	ModelPath string `yaml:"model_path"`

	// Language forces a transcription language; empty means English.
	Language string `yaml:"language"`

	// Threads bounds whisper decode threads. Zero lets the backend pick.
	Threads int `yaml:"threads"`
}

// EmbeddingsConfig selects and configures the topic-relevance embedding
// backend.
type EmbeddingsConfig struct {
	// Backend selects the provider ("openai" or "local"). Empty means
	// local.
	Backend string `yaml:"backend"`

	// APIKey authenticates against a remote backend.
	APIKey string `yaml:"api_key"`

	// BaseURL overrides the remote backend's API endpoint.
	BaseURL string `yaml:"base_url"`

	// Model selects a specific embedding model.
	Model string `yaml:"model"`
}

// MetricsConfig controls the Prometheus metrics endpoint.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`

	// ListenAddr is the address the metrics endpoint binds to.
	ListenAddr string `yaml:"listen_addr"`
}

// DefaultWeights is the built-in analyzer weight vector.
func DefaultWeights() map[string]float64 {
	return map[string]float64{
		AnalyzerEffectiveness: 0.16,
		AnalyzerStructure:     0.13,
		AnalyzerContent:       0.16,
		AnalyzerPronunciation: 0.18,
		AnalyzerProsody:       0.13,
		AnalyzerDisfluency:    0.12,
		AnalyzerTiming:        0.12,
	}
}

// Default returns a Config with every default applied, equivalent to
// loading an empty document.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.AnalyzerTimeoutMS == 0 {
		c.AnalyzerTimeoutMS = 5000
	}
	if c.MaxConcurrentEvaluations == 0 {
		c.MaxConcurrentEvaluations = 4
	}
	if len(c.Weights) == 0 {
		c.Weights = DefaultWeights()
	}
	if c.MinConfidence == 0 {
		c.MinConfidence = 0.5
	}
	if c.GenderHintDefault == "" {
		c.GenderHintDefault = GenderAuto
	}
	if c.ReferenceDataDir == "" {
		c.ReferenceDataDir = "refdata"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = LogInfo
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}
	if c.Embeddings.Backend == "" {
		c.Embeddings.Backend = "local"
	}
	if c.Metrics.ListenAddr == "" {
		c.Metrics.ListenAddr = ":9090"
	}
}

// Workers resolves WorkerCount, defaulting to the CPU count.
func (c *Config) Workers() int {
	if c.WorkerCount > 0 {
		return c.WorkerCount
	}
	return runtime.NumCPU()
}

// AnalyzerTimeout returns the per-analyzer budget as a duration.
func (c *Config) AnalyzerTimeout() time.Duration {
	return time.Duration(c.AnalyzerTimeoutMS) * time.Millisecond
}
