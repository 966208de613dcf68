package prosody

import (
	"context"
	"math"
	"strings"
	"testing"

	"orato/internal/analyzer"
	"orato/internal/config"
	"orato/internal/features"
	"orato/internal/refdata"
	"orato/internal/transcript"
	"orato/pkg/asr"
)

const testRate = 16000

func sine(freq, amp, seconds float64) []float32 {
	n := int(seconds * testRate)
	out := make([]float32, n)
	for i := range out {
		out[i] = float32(amp * math.Sin(2*math.Pi*freq*float64(i)/testRate))
	}
	return out
}

func artifactsFor(t *testing.T, samples []float32, hint config.GenderHint) *analyzer.Artifacts {
	t.Helper()
	text := "today I want to talk about the importance of practice"
	fields := strings.Fields(text)
	words := make([]asr.WordToken, len(fields))
	for i, f := range fields {
		start := float64(i) * 0.2
		words[i] = asr.WordToken{Word: f, Start: start, End: start + 0.18}
	}
	duration := float64(len(samples)) / testRate
	r := &asr.TranscriptionResult{Segments: []asr.Segment{{
		Start: 0, End: duration, Text: text, Words: words,
	}}}
	return &analyzer.Artifacts{
		Transcription: r,
		Transcript:    transcript.Build(r, duration),
		Features:      features.NewLoader(samples, testRate),
		Refdata:       refdata.Builtin(),
		Config:        config.Default(),
		Meta:          analyzer.Metadata{GenderHint: hint},
	}
}

func TestPitchInMaleBandScoresOptimal(t *testing.T) {
	t.Parallel()

	// A steady 120 Hz tone sits inside the male band [85, 180].
	res := New().Analyze(context.Background(), artifactsFor(t, sine(120, 0.5, 2.0), config.GenderMale))

	if res.Status != analyzer.StatusOK {
		t.Fatalf("status = %q, want ok", res.Status)
	}
	if got := res.Metrics["pitch_score"].(float64); got < 95 {
		t.Errorf("pitch_score = %.0f, want >= 95 for in-band tone", got)
	}
	if res.Metrics["time_too_low_s"].(float64) > 0.1 {
		t.Errorf("time_too_low_s = %v, want ~0", res.Metrics["time_too_low_s"])
	}
}

func TestFemaleBandPenalizesLowTone(t *testing.T) {
	t.Parallel()

	// 120 Hz is below the female band [165, 255].
	res := New().Analyze(context.Background(), artifactsFor(t, sine(120, 0.5, 2.0), config.GenderFemale))

	if got := res.Metrics["pitch_score"].(float64); got > 10 {
		t.Errorf("pitch_score = %.0f, want near 0 for out-of-band tone", got)
	}
	if res.Metrics["pitch_band_min_hz"] != femaleMinPitch {
		t.Errorf("band min = %v, want %d", res.Metrics["pitch_band_min_hz"], femaleMinPitch)
	}
}

func TestAutoDetectsMaleFromLowMedian(t *testing.T) {
	t.Parallel()

	res := New().Analyze(context.Background(), artifactsFor(t, sine(120, 0.5, 2.0), config.GenderAuto))

	if res.Metrics["detected_gender"] != "male" {
		t.Errorf("detected_gender = %v, want male at median 120 Hz", res.Metrics["detected_gender"])
	}
	if got := res.Metrics["pitch_score"].(float64); got < 95 {
		t.Errorf("pitch_score = %.0f, want >= 95 inside the male band", got)
	}
}

func TestDetectGender(t *testing.T) {
	t.Parallel()

	flat := func(hz float64, n int) []float64 {
		out := make([]float64, n)
		for i := range out {
			out[i] = hz
		}
		return out
	}

	if g := detectGender(flat(120, 100), 0); g != config.GenderMale {
		t.Errorf("120 Hz = %q, want male", g)
	}
	if g := detectGender(flat(220, 100), 0); g != config.GenderFemale {
		t.Errorf("220 Hz = %q, want female", g)
	}
	// Borderline median classifies female when the tie-break is neutral
	// and male once the configured bias outweighs the female vote.
	if g := detectGender(flat(185, 100), 0); g != config.GenderFemale {
		t.Errorf("185 Hz neutral = %q, want female", g)
	}
	if g := detectGender(flat(185, 100), 20); g != config.GenderMale {
		t.Errorf("185 Hz with tie-break 20 = %q, want male", g)
	}
}

func TestPercentile(t *testing.T) {
	t.Parallel()

	vals := []float64{10, 20, 30, 40, 50}
	if got := percentile(vals, 50); got != 30 {
		t.Errorf("median = %g, want 30", got)
	}
	if got := percentile(vals, 25); got != 20 {
		t.Errorf("q25 = %g, want 20", got)
	}
	if got := percentile(nil, 50); got != 0 {
		t.Errorf("empty percentile = %g, want 0", got)
	}
}

func TestSilenceDegrades(t *testing.T) {
	t.Parallel()

	res := New().Analyze(context.Background(), artifactsFor(t, make([]float32, 2*testRate), config.GenderAuto))
	if res.Status != analyzer.StatusDegraded {
		t.Errorf("status = %q, want degraded on unvoiced audio", res.Status)
	}
	if res.Score != 70 {
		t.Errorf("score = %.1f, want 70", res.Score)
	}
}

func TestSmoothVoicedRemovesSpike(t *testing.T) {
	t.Parallel()

	pitch := []float64{120, 120, 0, 400, 120, 120, 0}
	out := smoothVoiced(pitch)
	if out[3] != 120 {
		t.Errorf("spike survived median filter: %v", out)
	}
	if out[2] != 0 || out[6] != 0 {
		t.Errorf("unvoiced frames moved: %v", out)
	}
}
