package evaluate

import (
	"fmt"
	"math"
	"sort"

	"orato/internal/analyzer"
	"orato/internal/config"
	"orato/internal/transcript"
)

// Speaking-rate band in words per second considered a natural pace.
const (
	minNaturalRate = 2.5
	maxNaturalRate = 4.2
)

const maxSuggestions = 5

// aggregate folds analyzer results into the final report. Weights of
// skipped and failed analyzers are redistributed over the rest so the
// effective weights always sum to 1.
func aggregate(cfg *config.Config, results []analyzer.Result, tr *transcript.Annotated) *Report {
	var weightSum float64
	for _, res := range results {
		if counts(res.Status) {
			weightSum += cfg.Weights[res.AnalyzerID]
		}
	}

	var final float64
	components := make(map[string]int, len(results))
	reports := make([]AnalyzerReport, len(results))
	for i, res := range results {
		components[res.AnalyzerID] = int(math.Round(res.Score))
		reports[i] = AnalyzerReport{
			AnalyzerID: res.AnalyzerID,
			Score:      int(math.Round(res.Score)),
			Metrics:    res.Metrics,
			Feedback:   res.Feedback,
			Status:     string(res.Status),
			Err:        res.Err,
		}
		if counts(res.Status) && weightSum > 0 {
			final += res.Score * (cfg.Weights[res.AnalyzerID] / weightSum)
		}
	}

	// Every analyzer skipped or failed: fall back to the unweighted mean
	// of the conservative defaults so the report still carries a score.
	if weightSum == 0 && len(results) > 0 {
		var sum float64
		for _, res := range results {
			sum += res.Score
		}
		final = sum / float64(len(results))
	}

	score := int(math.Round(final))
	report := &Report{
		FinalScore:      score,
		Rating:          Rating(score),
		ComponentScores: components,
		Analyzers:       reports,
		Suggestions:     suggestions(results, tr),
	}
	if tr != nil {
		report.Transcript = TranscriptReport{
			Text:         tr.PlainText(),
			Annotated:    tr.String(),
			PauseCount:   tr.PauseCount,
			SpeakingRate: math.Round(tr.SpeakingRate*100) / 100,
		}
	}
	return report
}

func counts(s analyzer.Status) bool {
	return s == analyzer.StatusOK || s == analyzer.StatusDegraded
}

// suggestions picks the top feedback item from the three weakest
// dimensions scoring under 60, then appends pace hints when the speaking
// rate falls outside the natural band. Duplicates are dropped preserving
// order; at most maxSuggestions survive.
func suggestions(results []analyzer.Result, tr *transcript.Annotated) []string {
	ordered := make([]analyzer.Result, len(results))
	copy(ordered, results)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Score < ordered[j].Score
	})

	var out []string
	taken := 0
	for _, res := range ordered {
		if taken >= 3 || res.Score >= 60 {
			break
		}
		if len(res.Feedback) > 0 {
			out = append(out, res.Feedback[0])
			taken++
		}
	}

	if tr != nil && tr.WordCount > 0 {
		switch {
		case tr.SpeakingRate < minNaturalRate:
			out = append(out, fmt.Sprintf("Your pace of %.1f words per second is on the slow side. Aim for a livelier delivery.", tr.SpeakingRate))
		case tr.SpeakingRate > maxNaturalRate:
			out = append(out, fmt.Sprintf("Your pace of %.1f words per second is quite fast. Slow down so your audience can follow.", tr.SpeakingRate))
		}
	}

	seen := make(map[string]bool, len(out))
	deduped := out[:0]
	for _, s := range out {
		if !seen[s] {
			seen[s] = true
			deduped = append(deduped, s)
		}
	}
	if len(deduped) > maxSuggestions {
		deduped = deduped[:maxSuggestions]
	}
	return deduped
}
