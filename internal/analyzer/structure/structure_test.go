package structure

import (
	"context"
	"strings"
	"testing"

	"orato/internal/analyzer"
	"orato/internal/transcript"
	"orato/pkg/asr"
)

func artifactsFromText(t *testing.T, text string, duration float64) *analyzer.Artifacts {
	t.Helper()
	fields := strings.Fields(text)
	words := make([]asr.WordToken, len(fields))
	step := duration / float64(len(fields)+1)
	for i, f := range fields {
		start := float64(i) * step
		words[i] = asr.WordToken{Word: f, Start: start, End: start + step*0.9}
	}
	r := &asr.TranscriptionResult{Segments: []asr.Segment{{
		Start: 0, End: duration, Text: text, Words: words,
	}}}
	return &analyzer.Artifacts{
		Transcription: r,
		Transcript:    transcript.Build(r, duration),
	}
}

const wellStructured = `Good morning everyone, today I would like to discuss effective leadership.
My first point is that leaders listen before they speak.
Listening builds trust across the whole team.
Second, leaders take responsibility for outcomes.
Moving on to accountability, teams mirror what their leaders model.
Furthermore, consistent habits matter more than grand gestures.
Next, leaders invest in growing the people around them.
Mentorship multiplies the impact of any single person.
Additionally, clear communication prevents most conflicts before they start.
In conclusion, leadership is a daily practice of listening, accountability, and growth.
Thank you for your attention.`

const unstructured = `cars are fast. dogs bark a lot. rain fell yesterday.
pizza tastes nice. mountains are tall. my shoe is untied.
the sea is salty. clocks tick. grass grows. birds fly south.`

func TestWellStructuredOutscoresRambling(t *testing.T) {
	t.Parallel()

	a := New()
	good := a.Analyze(context.Background(), artifactsFromText(t, wellStructured, 300))
	bad := a.Analyze(context.Background(), artifactsFromText(t, unstructured, 60))

	if good.Status != analyzer.StatusOK {
		t.Fatalf("status = %q, want ok", good.Status)
	}
	if good.Score <= bad.Score {
		t.Errorf("structured speech %.1f <= rambling %.1f", good.Score, bad.Score)
	}
	if good.Score < 85 {
		t.Errorf("structured speech score = %.1f, want >= 85", good.Score)
	}
}

func TestCompleteSpeechMetrics(t *testing.T) {
	t.Parallel()

	res := New().Analyze(context.Background(), artifactsFromText(t, wellStructured, 300))

	if res.Metrics["section_completeness"] != "complete" {
		t.Errorf("section_completeness = %v, want complete", res.Metrics["section_completeness"])
	}
	if res.Metrics["has_introduction"] != true || res.Metrics["has_conclusion"] != true {
		t.Errorf("intro/conclusion detection failed: %v", res.Metrics)
	}
	if res.Metrics["body_organization"] == "unclear" {
		t.Error("sequential body not detected")
	}
	props, ok := res.Metrics["section_proportions"].(map[string]float64)
	if !ok {
		t.Fatalf("section_proportions missing: %v", res.Metrics)
	}
	sum := props["introduction"] + props["body"] + props["conclusion"]
	if sum < 99.9 || sum > 100.1 {
		t.Errorf("proportions sum to %.1f, want 100", sum)
	}
}

func TestMissingConclusionFeedback(t *testing.T) {
	t.Parallel()

	text := `Hello everyone, today I will discuss gardening.
First, soil quality decides most outcomes.
Second, watering schedules depend on climate.
Next, pruning keeps plants healthy.
Additionally, patience is the gardener's main tool.
Plants reward steady care over clever tricks.
Most beginners overwater their plants.
Good compost beats store fertilizer.
Sunlight hours decide what can grow where.
Seeds need warmth before they need light.`

	res := New().Analyze(context.Background(), artifactsFromText(t, text, 120))
	found := false
	for _, fb := range res.Feedback {
		if strings.Contains(fb, "conclusion") {
			found = true
		}
	}
	if !found {
		t.Errorf("no conclusion feedback for a speech without one: %v", res.Feedback)
	}
}

func TestEmptyTranscriptDegrades(t *testing.T) {
	t.Parallel()

	arts := &analyzer.Artifacts{
		Transcription: &asr.TranscriptionResult{},
		Transcript:    transcript.Build(&asr.TranscriptionResult{}, 0),
	}
	res := New().Analyze(context.Background(), arts)
	if res.Status != analyzer.StatusDegraded {
		t.Errorf("status = %q, want degraded", res.Status)
	}
	if res.Score != 70 {
		t.Errorf("score = %.1f, want 70", res.Score)
	}
}

func TestScoreWithinBounds(t *testing.T) {
	t.Parallel()

	for _, text := range []string{wellStructured, unstructured, "single sentence only"} {
		res := New().Analyze(context.Background(), artifactsFromText(t, text, 60))
		if res.Score < 0 || res.Score > 100 {
			t.Errorf("score %.1f out of [0, 100] for %q", res.Score, text[:20])
		}
	}
}
