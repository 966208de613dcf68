package config

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"slices"

	"gopkg.in/yaml.v3"
)

// weightSumTolerance bounds how far the weight vector may drift from 1.0.
const weightSumTolerance = 1e-6

// Load reads the YAML configuration file at path and returns a validated
// [Config] with defaults applied. It is a convenience wrapper around
// [LoadFromReader].
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r, applies defaults, and
// validates the result. Unknown keys are rejected. Useful in tests where
// configs are constructed from string literals.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	cfg.applyDefaults()
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that cfg contains a coherent set of values. It returns a
// joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	if cfg.WorkerCount < 0 {
		errs = append(errs, fmt.Errorf("worker_count %d must not be negative", cfg.WorkerCount))
	}
	if cfg.AnalyzerTimeoutMS < 0 {
		errs = append(errs, fmt.Errorf("analyzer_timeout_ms %d must not be negative", cfg.AnalyzerTimeoutMS))
	}
	if cfg.MaxConcurrentEvaluations < 0 {
		errs = append(errs, fmt.Errorf("max_concurrent_evaluations %d must not be negative", cfg.MaxConcurrentEvaluations))
	}
	if cfg.MinConfidence < 0 || cfg.MinConfidence > 1 {
		errs = append(errs, fmt.Errorf("min_confidence %.2f is out of range [0, 1]", cfg.MinConfidence))
	}
	if !cfg.GenderHintDefault.IsValid() {
		errs = append(errs, fmt.Errorf("gender_hint_default %q is invalid; valid values: male, female, auto", cfg.GenderHintDefault))
	}
	if !cfg.Logging.Level.IsValid() {
		errs = append(errs, fmt.Errorf("logging.level %q is invalid; valid values: debug, info, warn, error", cfg.Logging.Level))
	}
	if cfg.Logging.Format != "text" && cfg.Logging.Format != "json" {
		errs = append(errs, fmt.Errorf("logging.format %q is invalid; valid values: text, json", cfg.Logging.Format))
	}

	errs = append(errs, validateWeights(cfg.Weights)...)

	switch cfg.Transcriber.Backend {
	case "", "whisper":
		if cfg.Transcriber.Backend == "whisper" && cfg.Transcriber.ModelPath == "" {
			errs = append(errs, errors.New("transcriber.model_path is required when transcriber.backend is whisper"))
		}
	default:
		errs = append(errs, fmt.Errorf("transcriber.backend %q is invalid; valid values: whisper", cfg.Transcriber.Backend))
	}

	switch cfg.Embeddings.Backend {
	case "local":
	case "openai":
		if cfg.Embeddings.APIKey == "" {
			errs = append(errs, errors.New("embeddings.api_key is required when embeddings.backend is openai"))
		}
	default:
		errs = append(errs, fmt.Errorf("embeddings.backend %q is invalid; valid values: openai, local", cfg.Embeddings.Backend))
	}

	return errors.Join(errs...)
}

func validateWeights(weights map[string]float64) []error {
	var errs []error
	sum := 0.0
	for id, w := range weights {
		if !slices.Contains(KnownAnalyzers, id) {
			errs = append(errs, fmt.Errorf("weights: unknown analyzer id %q", id))
		}
		if w < 0 {
			errs = append(errs, fmt.Errorf("weights.%s %.3f must not be negative", id, w))
		}
		sum += w
	}
	if len(errs) == 0 && math.Abs(sum-1.0) > weightSumTolerance {
		errs = append(errs, fmt.Errorf("weights must sum to 1.0, got %.6f", sum))
	}
	return errs
}
