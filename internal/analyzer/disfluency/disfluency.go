// Package disfluency scores filler-word usage and mid-sentence pausing.
package disfluency

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"orato/internal/analyzer"
	"orato/internal/config"
	"orato/internal/nlp"
	"orato/internal/transcript"
)

var _ analyzer.Analyzer = (*Analyzer)(nil)

// Analyzer implements the disfluency scoring dimension.
type Analyzer struct{}

// New constructs the disfluency analyzer.
func New() *Analyzer { return &Analyzer{} }

// ID implements analyzer.Analyzer.
func (*Analyzer) ID() string { return config.AnalyzerDisfluency }

// Requires implements analyzer.Analyzer.
func (*Analyzer) Requires() []analyzer.Feature {
	return []analyzer.Feature{analyzer.FeatureTranscript}
}

// DefaultScore implements analyzer.Analyzer.
func (*Analyzer) DefaultScore() float64 { return 60 }

// pauseBins partitions intra-sentence pauses by severity.
type pauseBins struct {
	under15    int // < 1.5 s
	between153 int // 1.5 .. 3 s
	over3      int // 3 .. 5 s
	over5      int // > 5 s
}

// Analyze implements analyzer.Analyzer.
func (d *Analyzer) Analyze(ctx context.Context, arts *analyzer.Artifacts) analyzer.Result {
	words := arts.Transcript.WordTokens()
	if len(words) == 0 {
		return analyzer.Result{
			Score:    60,
			Status:   analyzer.StatusDegraded,
			Metrics:  map[string]any{"total_filler_words": 0},
			Feedback: []string{"Not enough speech content to evaluate fluency."},
		}
	}

	lexicon := fillerLexicon(arts)
	fillerCount, perMinute := countFillers(words, lexicon)
	density := float64(fillerCount) / float64(len(words))

	bins := classifyPauses(arts.Transcript)

	fillerScore := scoreFillers(density, perMinute)
	pauseScore := scorePauses(bins)
	score := (fillerScore*0.6 + pauseScore*0.4) * 10

	return analyzer.Result{
		Score:  score,
		Status: analyzer.StatusOK,
		Metrics: map[string]any{
			"total_filler_words": fillerCount,
			"filler_density":     round3(density),
			"fillers_per_minute": minuteBreakdown(perMinute),
			"filler_score":       round1(fillerScore),
			"pause_score":        round1(pauseScore),
			"pauses_under_1.5s":  bins.under15,
			"pauses_1.5s_to_3s":  bins.between153,
			"pauses_3s_to_5s":    bins.over3,
			"pauses_over_5s":     bins.over5,
		},
		Feedback: buildFeedback(fillerCount, density, bins, arts.Transcript.AudioDuration),
	}
}

// fillerLexicon splits the configured filler list into single words and
// multi-word phrases for token-window matching.
func fillerLexicon(arts *analyzer.Artifacts) (lex struct {
	single  map[string]bool
	phrases [][]string
}) {
	lex.single = make(map[string]bool)
	add := func(entry string) {
		parts := strings.Fields(strings.ToLower(entry))
		switch len(parts) {
		case 0:
		case 1:
			lex.single[parts[0]] = true
		default:
			lex.phrases = append(lex.phrases, parts)
		}
	}
	for _, f := range nlp.DefaultFillerWords {
		add(f)
	}
	if arts.Meta.Domain != "" && arts.Config != nil {
		for _, f := range arts.Config.DomainProfiles[arts.Meta.Domain].FillerWords {
			add(f)
		}
	}
	return lex
}

// countFillers counts filler occurrences against the word token stream and
// buckets them by speech minute. Multi-word fillers consume their tokens
// so "you know" is not also counted as "know".
func countFillers(words []*transcript.Word, lex struct {
	single  map[string]bool
	phrases [][]string
}) (int, map[int]int) {
	total := 0
	perMinute := make(map[int]int)
	record := func(start float64) {
		total++
		perMinute[int(start/60)]++
	}

	i := 0
	for i < len(words) {
		matched := 0
		for _, phrase := range lex.phrases {
			if i+len(phrase) > len(words) {
				continue
			}
			ok := true
			for j, p := range phrase {
				if cleanWord(words[i+j].Text) != p {
					ok = false
					break
				}
			}
			if ok && len(phrase) > matched {
				matched = len(phrase)
			}
		}
		if matched > 0 {
			record(words[i].Start)
			i += matched
			continue
		}
		if lex.single[cleanWord(words[i].Text)] {
			record(words[i].Start)
		}
		i++
	}
	return total, perMinute
}

func cleanWord(w string) string {
	return strings.Trim(strings.ToLower(w), ".,!?\"' ")
}

// classifyPauses bins pauses that interrupt a sentence. A pause after a
// sentence-final word is a rhetorical break, not a disfluency.
func classifyPauses(a *transcript.Annotated) pauseBins {
	var bins pauseBins
	lastWord := ""
	for _, tok := range a.Tokens {
		switch {
		case tok.Word != nil:
			lastWord = tok.Word.Text
		case tok.Pause != nil:
			if sentenceFinal(lastWord) {
				continue
			}
			d := tok.Pause.Duration
			switch {
			case d < 1.5:
				bins.under15++
			case d <= 3:
				bins.between153++
			case d <= 5:
				bins.over3++
			default:
				bins.over5++
			}
		}
	}
	return bins
}

func sentenceFinal(word string) bool {
	w := strings.TrimSpace(word)
	return strings.HasSuffix(w, ".") || strings.HasSuffix(w, "!") || strings.HasSuffix(w, "?")
}

// scoreFillers produces the 0..10 filler sub-score from overall density
// and per-minute spikes.
func scoreFillers(density float64, perMinute map[int]int) float64 {
	var score float64
	switch {
	case density >= 0.15:
		score = 0
	case density >= 0.10:
		score = 2
	case density >= 0.05:
		score = 4
	default:
		score = math.Max(0, 10-density*100)
	}

	for _, count := range perMinute {
		switch {
		case count > 6:
			score -= 4
		case count >= 4:
			score -= 3
		case count >= 2:
			score -= 2
		}
	}
	return math.Max(0, score)
}

// scorePauses produces the 0..10 pause sub-score. Each severity bin
// removes points once its count crosses the threshold; any pause longer
// than five seconds mid-sentence takes its full penalty immediately.
func scorePauses(bins pauseBins) float64 {
	score := 10.0
	if bins.under15 > 5 {
		score -= 0.5
	}
	if bins.between153 > 3 {
		score -= 1
	}
	if bins.over3 > 2 {
		score -= 2.5
	}
	if bins.over5 > 0 {
		score -= 4
	}
	return math.Max(0, score)
}

func buildFeedback(fillerCount int, density float64, bins pauseBins, duration float64) []string {
	var fb []string
	perMinute := 0.0
	if duration > 0 {
		perMinute = float64(fillerCount) / (duration / 60)
	}
	switch {
	case density >= 0.10:
		fb = append(fb, "Work on reducing filler words like 'um' and 'you know'; pausing silently instead sounds more confident.")
	case density >= 0.05:
		fb = append(fb, fmt.Sprintf("You used %d filler words (about %.1f per minute). Try replacing them with brief pauses.", fillerCount, perMinute))
	default:
		fb = append(fb, "Minimal filler word usage. Well done.")
	}
	if bins.over5 > 0 {
		fb = append(fb, "Avoid long mid-sentence pauses over five seconds; they break your audience's attention.")
	} else if bins.over3 > 2 {
		fb = append(fb, "Several long mid-sentence pauses detected. Practice your transitions to keep momentum.")
	}
	return fb
}

func minuteBreakdown(perMinute map[int]int) map[string]int {
	out := make(map[string]int, len(perMinute))
	minutes := make([]int, 0, len(perMinute))
	for m := range perMinute {
		minutes = append(minutes, m)
	}
	sort.Ints(minutes)
	for _, m := range minutes {
		out[fmt.Sprintf("minute_%d", m+1)] = perMinute[m]
	}
	return out
}

func round1(v float64) float64 { return math.Round(v*10) / 10 }

func round3(v float64) float64 { return math.Round(v*1000) / 1000 }
