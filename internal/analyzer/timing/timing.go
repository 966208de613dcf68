// Package timing scores how well the speech fits its expected duration
// window.
package timing

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"

	"orato/internal/analyzer"
	"orato/internal/config"
)

// Duration presets in minutes for the common speech formats, applied when
// the request names a speech type but no explicit expected duration.
var speechTypePresets = map[string]analyzer.MinutesRange{
	"ice breaker speech": {Min: 4, Max: 6},
	"ice breaker":        {Min: 4, Max: 6},
	"prepared speech":    {Min: 5, Max: 7},
	"prepared speeches":  {Min: 5, Max: 7},
	"evaluation speech":  {Min: 2, Max: 3},
	"table topics":       {Min: 1, Max: 2},
	"impromptu speech":   {Min: 1, Max: 2},
}

// Tolerance margins around the expected window. Speeches inside the
// widened window score on the within-range curve.
const (
	shortMargin = 0.9
	longMargin  = 1.1
)

// ParseExpectedDuration parses a window of the form "A[-B] minutes". The
// en-dash variant "5–7 minutes" is accepted. A single value "5 minutes"
// yields a degenerate window [5, 5].
func ParseExpectedDuration(s string) (analyzer.MinutesRange, error) {
	normalized := strings.ReplaceAll(strings.TrimSpace(s), "–", "-")
	normalized = strings.TrimSuffix(normalized, "minutes")
	normalized = strings.TrimSuffix(strings.TrimSpace(normalized), "minute")
	normalized = strings.TrimSpace(normalized)
	if normalized == "" {
		return analyzer.MinutesRange{}, fmt.Errorf("timing: empty expected duration %q", s)
	}

	lo, hi, found := strings.Cut(normalized, "-")
	minVal, err := strconv.ParseFloat(strings.TrimSpace(lo), 64)
	if err != nil {
		return analyzer.MinutesRange{}, fmt.Errorf("timing: parse expected duration %q: %w", s, err)
	}
	maxVal := minVal
	if found {
		maxVal, err = strconv.ParseFloat(strings.TrimSpace(hi), 64)
		if err != nil {
			return analyzer.MinutesRange{}, fmt.Errorf("timing: parse expected duration %q: %w", s, err)
		}
	}
	if minVal <= 0 || maxVal < minVal {
		return analyzer.MinutesRange{}, fmt.Errorf("timing: invalid expected duration window %q", s)
	}
	return analyzer.MinutesRange{Min: minVal, Max: maxVal}, nil
}

// PresetFor returns the duration preset for a speech type name, matched
// case-insensitively.
func PresetFor(speechType string) (analyzer.MinutesRange, bool) {
	r, ok := speechTypePresets[strings.ToLower(strings.TrimSpace(speechType))]
	return r, ok
}

var _ analyzer.Analyzer = (*Analyzer)(nil)

// Analyzer implements the timing scoring dimension.
type Analyzer struct{}

// New constructs the timing analyzer.
func New() *Analyzer { return &Analyzer{} }

// ID implements analyzer.Analyzer.
func (*Analyzer) ID() string { return config.AnalyzerTiming }

// Requires implements analyzer.Analyzer.
func (*Analyzer) Requires() []analyzer.Feature {
	return []analyzer.Feature{analyzer.FeatureExpectedDuration}
}

// DefaultScore implements analyzer.Analyzer.
func (*Analyzer) DefaultScore() float64 { return 70 }

// Analyze implements analyzer.Analyzer.
func (t *Analyzer) Analyze(ctx context.Context, arts *analyzer.Artifacts) analyzer.Result {
	window, ok := t.window(arts)
	if !ok {
		return analyzer.Result{
			Score:    70,
			Status:   analyzer.StatusDegraded,
			Metrics:  map[string]any{"status": "unknown"},
			Feedback: []string{"No expected duration available to evaluate timing."},
		}
	}

	actual := arts.Duration()
	if actual <= 0 {
		return analyzer.Result{
			Score:    70,
			Status:   analyzer.StatusDegraded,
			Metrics:  map[string]any{"status": "unknown"},
			Feedback: []string{"Speech duration could not be determined."},
		}
	}

	minSec := window.Min * 60
	maxSec := window.Max * 60

	var (
		status    string
		score     float64
		deviation float64
	)
	switch {
	case actual < shortMargin*minSec:
		status = "too_short"
		overshoot := (shortMargin*minSec - actual) / minSec
		score = clamp(80-overshoot*100, 50, 80)
		deviation = (minSec - actual) / minSec * 100
	case actual > longMargin*maxSec:
		status = "too_long"
		overshoot := (actual - longMargin*maxSec) / maxSec
		score = clamp(80-overshoot*100, 50, 80)
		deviation = (actual - maxSec) / maxSec * 100
	default:
		status = "within_range"
		center := (minSec + maxSec) / 2
		fromCenter := math.Abs(actual-center) / center
		score = clamp(90-fromCenter*50, 80, 100)
		deviation = 0
	}

	return analyzer.Result{
		Score:  score,
		Status: analyzer.StatusOK,
		Metrics: map[string]any{
			"status":                  status,
			"actual_duration_minutes": math.Round(actual/60*10) / 10,
			"expected_min_minutes":    window.Min,
			"expected_max_minutes":    window.Max,
			"deviation_percent":       math.Round(deviation*10) / 10,
		},
		Feedback: []string{message(status, actual, window)},
	}
}

// window resolves the expected duration, preferring the explicit request
// value over the speech-type preset.
func (*Analyzer) window(arts *analyzer.Artifacts) (analyzer.MinutesRange, bool) {
	if arts.Meta.ExpectedDuration != nil {
		return *arts.Meta.ExpectedDuration, true
	}
	if arts.Meta.SpeechType != "" {
		return PresetFor(arts.Meta.SpeechType)
	}
	return analyzer.MinutesRange{}, false
}

func message(status string, actual float64, window analyzer.MinutesRange) string {
	switch status {
	case "too_short":
		return fmt.Sprintf("Your speech ran %.1f minutes, short of the expected %s. Develop your points further to fill the time.",
			actual/60, windowText(window))
	case "too_long":
		return fmt.Sprintf("Your speech ran %.1f minutes, over the expected %s. Tighten your material to fit the window.",
			actual/60, windowText(window))
	default:
		return fmt.Sprintf("Good timing. Your speech fit the expected %s.", windowText(window))
	}
}

func windowText(w analyzer.MinutesRange) string {
	if w.Min == w.Max {
		return fmt.Sprintf("%g minutes", w.Min)
	}
	return fmt.Sprintf("%g-%g minutes", w.Min, w.Max)
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
