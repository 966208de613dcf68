package evaluate

import (
	"strings"
	"testing"

	"orato/internal/analyzer"
	"orato/internal/config"
	"orato/internal/transcript"
	"orato/pkg/asr"
)

func allOK(score float64) []analyzer.Result {
	ids := config.KnownAnalyzers
	out := make([]analyzer.Result, len(ids))
	for i, id := range ids {
		out[i] = analyzer.Result{
			AnalyzerID: id,
			Score:      score,
			Status:     analyzer.StatusOK,
			Feedback:   []string{"feedback for " + id},
		}
	}
	return out
}

func TestUniformScoresPassThrough(t *testing.T) {
	t.Parallel()

	// If every analyzer returns S the weighted sum must equal S.
	for _, s := range []float64{0, 55, 87, 100} {
		report := aggregate(config.Default(), allOK(s), nil)
		if report.FinalScore != int(s) {
			t.Errorf("uniform score %v: final = %d", s, report.FinalScore)
		}
	}
}

func TestSkippedWeightRedistributed(t *testing.T) {
	t.Parallel()

	results := allOK(80)
	// Skipped effectiveness keeps score 70 but must not count.
	results[0] = analyzer.Result{
		AnalyzerID: config.AnalyzerEffectiveness,
		Score:      70,
		Status:     analyzer.StatusSkipped,
	}

	report := aggregate(config.Default(), results, nil)
	if report.FinalScore != 80 {
		t.Errorf("final = %d, want 80 after redistribution over uniform 80s", report.FinalScore)
	}
	if report.ComponentScores[config.AnalyzerEffectiveness] != 70 {
		t.Errorf("skipped component score = %d, want its default 70",
			report.ComponentScores[config.AnalyzerEffectiveness])
	}
}

func TestFailedAnalyzerExcluded(t *testing.T) {
	t.Parallel()

	results := allOK(90)
	results[3] = analyzer.Result{
		AnalyzerID: config.AnalyzerPronunciation,
		Score:      70,
		Status:     analyzer.StatusFailed,
		Err:        "budget exceeded",
	}

	report := aggregate(config.Default(), results, nil)
	if report.FinalScore != 90 {
		t.Errorf("final = %d, want 90 with the failed analyzer excluded", report.FinalScore)
	}
}

func TestAllFailedFallsBackToMean(t *testing.T) {
	t.Parallel()

	results := allOK(0)
	for i := range results {
		results[i].Status = analyzer.StatusFailed
		results[i].Score = 70
	}
	report := aggregate(config.Default(), results, nil)
	if report.FinalScore != 70 {
		t.Errorf("final = %d, want mean of defaults 70", report.FinalScore)
	}
}

func TestRatingBands(t *testing.T) {
	t.Parallel()

	tests := []struct {
		score int
		want  string
	}{
		{95, "Outstanding"},
		{90, "Outstanding"},
		{85, "Excellent"},
		{75, "Very Good"},
		{65, "Good"},
		{55, "Fair"},
		{45, "Needs Improvement"},
		{20, "Significant Improvement Needed"},
	}
	for _, tt := range tests {
		if got := Rating(tt.score); got != tt.want {
			t.Errorf("Rating(%d) = %q, want %q", tt.score, got, tt.want)
		}
	}
}

func TestSuggestionsFromWeakestDimensions(t *testing.T) {
	t.Parallel()

	results := allOK(85)
	results[1].Score = 40 // structure
	results[2].Score = 55 // content
	results[5].Score = 30 // disfluency

	report := aggregate(config.Default(), results, nil)
	if len(report.Suggestions) != 3 {
		t.Fatalf("suggestions = %v, want 3", report.Suggestions)
	}
	// Lowest first: disfluency, then structure, then content.
	if !strings.Contains(report.Suggestions[0], config.AnalyzerDisfluency) {
		t.Errorf("first suggestion = %q, want the weakest dimension's feedback", report.Suggestions[0])
	}
}

func TestHighScoresYieldNoSuggestions(t *testing.T) {
	t.Parallel()

	report := aggregate(config.Default(), allOK(85), nil)
	if len(report.Suggestions) != 0 {
		t.Errorf("suggestions for a strong speech: %v", report.Suggestions)
	}
}

func TestPaceSuggestionForFastSpeech(t *testing.T) {
	t.Parallel()

	// 100 words crammed into 10 seconds of speaking time.
	words := make([]asr.WordToken, 100)
	for i := range words {
		start := float64(i) * 0.1
		words[i] = asr.WordToken{Word: "word", Start: start, End: start + 0.09}
	}
	r := &asr.TranscriptionResult{Segments: []asr.Segment{{Start: 0, End: 10, Words: words}}}
	tr := transcript.Build(r, 10)

	report := aggregate(config.Default(), allOK(85), tr)
	found := false
	for _, s := range report.Suggestions {
		if strings.Contains(s, "fast") {
			found = true
		}
	}
	if !found {
		t.Errorf("no pace suggestion at %.1f words/s: %v", tr.SpeakingRate, report.Suggestions)
	}
}

func TestSuggestionsCapped(t *testing.T) {
	t.Parallel()

	results := allOK(30)
	words := make([]asr.WordToken, 100)
	for i := range words {
		start := float64(i) * 0.1
		words[i] = asr.WordToken{Word: "word", Start: start, End: start + 0.09}
	}
	r := &asr.TranscriptionResult{Segments: []asr.Segment{{Start: 0, End: 10, Words: words}}}
	report := aggregate(config.Default(), results, transcript.Build(r, 10))

	if len(report.Suggestions) > 5 {
		t.Errorf("suggestions not capped: %d", len(report.Suggestions))
	}
}

func TestTranscriptEnvelope(t *testing.T) {
	t.Parallel()

	r := &asr.TranscriptionResult{Segments: []asr.Segment{{
		Start: 0, End: 4,
		Words: []asr.WordToken{
			{Word: "hello", Start: 0, End: 0.5},
			{Word: "world", Start: 2.0, End: 2.5},
		},
	}}}
	tr := transcript.Build(r, 4)

	report := aggregate(config.Default(), allOK(80), tr)
	if report.Transcript.Text != "hello world" {
		t.Errorf("text = %q", report.Transcript.Text)
	}
	if report.Transcript.PauseCount != 1 {
		t.Errorf("pause_count = %d, want 1", report.Transcript.PauseCount)
	}
	if !strings.Contains(report.Transcript.Annotated, "second pause]") {
		t.Errorf("annotated missing pause marker: %q", report.Transcript.Annotated)
	}
}
