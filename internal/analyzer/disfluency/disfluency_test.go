package disfluency

import (
	"context"
	"strings"
	"testing"

	"orato/internal/analyzer"
	"orato/internal/config"
	"orato/internal/transcript"
	"orato/pkg/asr"
)

// artifactsFromWords lays words out with a fixed cadence, inserting the
// given silent gap before each word index named in gaps.
func artifactsFromWords(t *testing.T, words []string, gaps map[int]float64) *analyzer.Artifacts {
	t.Helper()
	toks := make([]asr.WordToken, len(words))
	cursor := 0.0
	for i, w := range words {
		if g, ok := gaps[i]; ok {
			cursor += g
		}
		toks[i] = asr.WordToken{Word: w, Start: cursor, End: cursor + 0.3}
		cursor += 0.4
	}
	r := &asr.TranscriptionResult{Segments: []asr.Segment{{
		Start: 0, End: cursor, Text: strings.Join(words, " "), Words: toks,
	}}}
	return &analyzer.Artifacts{
		Transcription: r,
		Transcript:    transcript.Build(r, cursor),
		Config:        config.Default(),
	}
}

func TestMultiWordFillerConsumesTokens(t *testing.T) {
	t.Parallel()

	words := strings.Fields("I think you know the answer is practice and more practice every single day here")
	res := New().Analyze(context.Background(), artifactsFromWords(t, words, nil))

	// "you know" matches once as a phrase; "know" alone is not a filler.
	if got := res.Metrics["total_filler_words"]; got != 1 {
		t.Errorf("total_filler_words = %v, want 1", got)
	}
}

func TestCleanSpeechScoresHigh(t *testing.T) {
	t.Parallel()

	words := strings.Fields(`today I want to share three lessons from my first year
		of public speaking. preparation beats talent. practice makes the
		preparation stick. feedback turns practice into progress.`)
	res := New().Analyze(context.Background(), artifactsFromWords(t, words, nil))

	if res.Status != analyzer.StatusOK {
		t.Fatalf("status = %q, want ok", res.Status)
	}
	if res.Score < 90 {
		t.Errorf("clean speech score = %.1f, want >= 90", res.Score)
	}
}

func TestHeavyFillerUsageScoresLow(t *testing.T) {
	t.Parallel()

	// Every fifth word is a filler: density 0.2 hits the worst bin.
	var words []string
	for i := 0; i < 20; i++ {
		words = append(words, "point", "one", "matters", "here", "um")
	}
	res := New().Analyze(context.Background(), artifactsFromWords(t, words, nil))

	fillerScore := res.Metrics["filler_score"].(float64)
	if fillerScore != 0 {
		t.Errorf("filler_score = %.1f, want 0 at density 0.2", fillerScore)
	}
	if got := res.Metrics["total_filler_words"]; got != 20 {
		t.Errorf("total_filler_words = %v, want 20", got)
	}
}

func TestSentenceFinalPauseNotPenalized(t *testing.T) {
	t.Parallel()

	words := strings.Fields("practice makes perfect. every single day")
	// 2 s pause after "perfect." is rhetorical and must not be binned.
	afterPeriod := artifactsFromWords(t, words, map[int]float64{3: 2.0})
	res := New().Analyze(context.Background(), afterPeriod)
	if got := res.Metrics["pauses_1.5s_to_3s"]; got != 0 {
		t.Errorf("pause after sentence end binned: %v", got)
	}

	// The same pause mid-sentence counts.
	midWords := strings.Fields("practice makes perfect every single day")
	mid := artifactsFromWords(t, midWords, map[int]float64{3: 2.0})
	res = New().Analyze(context.Background(), mid)
	if got := res.Metrics["pauses_1.5s_to_3s"]; got != 1 {
		t.Errorf("mid-sentence pause not binned: %v", got)
	}
}

func TestLongPauseTakesFullPenalty(t *testing.T) {
	t.Parallel()

	words := strings.Fields("the most important thing about speaking is knowing when to stop")
	arts := artifactsFromWords(t, words, map[int]float64{6: 6.0})
	res := New().Analyze(context.Background(), arts)

	if got := res.Metrics["pauses_over_5s"]; got != 1 {
		t.Fatalf("pauses_over_5s = %v, want 1", got)
	}
	if got := res.Metrics["pause_score"].(float64); got != 6 {
		t.Errorf("pause_score = %.1f, want 6 after the -4 penalty", got)
	}
}

func TestPerMinuteSpikePenalty(t *testing.T) {
	t.Parallel()

	// Low overall density but five fillers clustered in the first minute.
	var words []string
	words = append(words, "um", "um", "um", "um", "um")
	for i := 0; i < 120; i++ {
		words = append(words, "word")
	}
	res := New().Analyze(context.Background(), artifactsFromWords(t, words, nil))

	minutes := res.Metrics["fillers_per_minute"].(map[string]int)
	if minutes["minute_1"] != 5 {
		t.Fatalf("minute_1 = %d, want 5", minutes["minute_1"])
	}
	// Density 5/125 = 0.04 gives base 6, then the >=4 spike removes 3.
	if got := res.Metrics["filler_score"].(float64); got != 3 {
		t.Errorf("filler_score = %.1f, want 3", got)
	}
}

func TestDomainFillerWords(t *testing.T) {
	t.Parallel()

	words := strings.Fields("our velocity basically doubled after the retro changes landed")
	arts := artifactsFromWords(t, words, nil)
	arts.Config.DomainProfiles = map[string]config.DomainProfile{
		"agile": {FillerWords: []string{"velocity"}},
	}
	arts.Meta.Domain = "agile"
	res := New().Analyze(context.Background(), arts)

	// "basically" from the default list plus the domain entry.
	if got := res.Metrics["total_filler_words"]; got != 2 {
		t.Errorf("total_filler_words = %v, want 2", got)
	}
}

func TestEmptyTranscriptDegrades(t *testing.T) {
	t.Parallel()

	arts := &analyzer.Artifacts{
		Transcription: &asr.TranscriptionResult{},
		Transcript:    transcript.Build(&asr.TranscriptionResult{}, 0),
		Config:        config.Default(),
	}
	res := New().Analyze(context.Background(), arts)
	if res.Status != analyzer.StatusDegraded {
		t.Errorf("status = %q, want degraded", res.Status)
	}
	if res.Score != 60 {
		t.Errorf("score = %.1f, want 60", res.Score)
	}
}
