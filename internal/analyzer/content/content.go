// Package content scores grammar cues, lexical diversity, and vocabulary
// complexity of the transcript.
package content

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"orato/internal/analyzer"
	"orato/internal/config"
	"orato/internal/nlp"
)

var _ analyzer.Analyzer = (*Analyzer)(nil)

// Analyzer implements the content-quality scoring dimension.
type Analyzer struct{}

// New constructs the content analyzer.
func New() *Analyzer { return &Analyzer{} }

// ID implements analyzer.Analyzer.
func (*Analyzer) ID() string { return config.AnalyzerContent }

// Requires implements analyzer.Analyzer.
func (*Analyzer) Requires() []analyzer.Feature {
	return []analyzer.Feature{analyzer.FeatureTranscript}
}

// DefaultScore implements analyzer.Analyzer.
func (*Analyzer) DefaultScore() float64 { return 70 }

// Analyze implements analyzer.Analyzer.
func (c *Analyzer) Analyze(ctx context.Context, arts *analyzer.Artifacts) analyzer.Result {
	text := arts.Transcript.PlainText()
	tokens := alphaTokens(text)
	if len(tokens) == 0 {
		return analyzer.Result{
			Score:    70,
			Status:   analyzer.StatusDegraded,
			Metrics:  map[string]any{"word_count": 0},
			Feedback: []string{"Not enough speech content to evaluate vocabulary and grammar."},
		}
	}

	domainVocab := domainVocabulary(arts)
	stop := arts.Refdata.Stopwords()

	wordCount := len(tokens)
	unique := make(map[string]int, wordCount)
	totalLen := 0
	for _, w := range tokens {
		unique[w]++
		totalLen += len(w)
	}
	uniqueCount := len(unique)
	lexicalDiversity := float64(uniqueCount) / float64(wordCount)

	// Word complexity via frequency percentile tiers.
	var complexitySum float64
	advancedCount := 0
	for _, w := range tokens {
		tier := c.wordTier(arts, w, domainVocab)
		complexitySum += tier
		if tier >= 2.5 {
			advancedCount++
		}
	}
	avgComplexity := complexitySum / float64(wordCount)
	advancedPct := float64(advancedCount) / float64(wordCount) * 100

	sentences := nlp.Sentences(text)
	sentenceComplexity := syntacticComplexity(tokens, sentences)

	// Repeated non-stopwords, most frequent first.
	repeated := repeatedWords(unique, stop)

	wordComplexityScore := math.Min(10, avgComplexity*3)
	diversityScore := math.Min(10, lexicalDiversity*20)

	score := wordComplexityScore*4 + sentenceComplexity*3 + diversityScore*3
	switch {
	case len(repeated) > 5:
		score -= 10
	case len(repeated) > 3:
		score -= 5
	}
	score = math.Max(50, math.Min(95, score))

	switch {
	case advancedPct > 15:
		score = math.Min(95, score+5)
	case advancedPct > 10:
		score = math.Min(95, score+3)
	case advancedPct > 5:
		score = math.Min(95, score+1)
	}

	return analyzer.Result{
		Score:  score,
		Status: analyzer.StatusOK,
		Metrics: map[string]any{
			"word_count":               wordCount,
			"unique_word_count":        uniqueCount,
			"lexical_diversity":        round2(lexicalDiversity),
			"avg_word_length":          round1(float64(totalLen) / float64(wordCount)),
			"word_complexity_score":    round1(wordComplexityScore),
			"advanced_word_percentage": round1(advancedPct),
			"sentence_complexity":      round1(sentenceComplexity),
			"repeated_words":           capSlice(repeated, 5),
		},
		Feedback: buildFeedback(lexicalDiversity, advancedCount, repeated),
	}
}

// wordTier maps a word to its complexity tier using the frequency
// percentile table. Configured domain vocabulary always counts as
// advanced.
func (c *Analyzer) wordTier(arts *analyzer.Artifacts, word string, domainVocab map[string]bool) float64 {
	if domainVocab[word] {
		return 3
	}
	pct := arts.Refdata.WordPercentile(word)
	switch {
	case pct >= 75:
		return 1
	case pct >= 50:
		return 1.5
	case pct >= 25:
		return 2
	default:
		return 3
	}
}

// syntacticComplexity approximates grammatical richness without a POS
// tagger: verb-form and modifier suffix ratios, subordinating
// conjunctions, and sentence length in the readable range.
func syntacticComplexity(tokens []string, sentences []string) float64 {
	verbs, modifiers := 0, 0
	for _, w := range tokens {
		if looksVerbal(w) {
			verbs++
		}
		if looksModifier(w) {
			modifiers++
		}
	}
	n := float64(len(tokens))
	verbRatio := float64(verbs) / n
	modifierRatio := float64(modifiers) / n

	subordinate := nlp.CountOccurrences(tokens, nlp.SubordinatingConjunctions)

	complexity := verbRatio*5 + modifierRatio*5
	complexity += math.Min(2, float64(subordinate)*0.5)
	if len(sentences) > 0 {
		avgLen := n / float64(len(sentences))
		if avgLen >= 10 && avgLen <= 20 {
			complexity++
		}
	}
	return math.Min(10, complexity)
}

func looksVerbal(w string) bool {
	if len(w) < 4 {
		return false
	}
	return strings.HasSuffix(w, "ing") || strings.HasSuffix(w, "ed") ||
		strings.HasSuffix(w, "ize") || strings.HasSuffix(w, "ise")
}

func looksModifier(w string) bool {
	if len(w) < 4 {
		return false
	}
	for _, suffix := range []string{"ly", "ous", "ful", "ive", "able", "ible", "ical"} {
		if strings.HasSuffix(w, suffix) {
			return true
		}
	}
	return false
}

func repeatedWords(counts map[string]int, stop map[string]bool) []string {
	var repeated []string
	for w, n := range counts {
		if n > 3 && !stop[w] {
			repeated = append(repeated, w)
		}
	}
	sort.Slice(repeated, func(i, j int) bool {
		if counts[repeated[i]] != counts[repeated[j]] {
			return counts[repeated[i]] > counts[repeated[j]]
		}
		return repeated[i] < repeated[j]
	})
	return repeated
}

func buildFeedback(diversity float64, advancedCount int, repeated []string) []string {
	var fb []string
	if diversity > 0.5 {
		fb = append(fb, "Good vocabulary diversity and word choice.")
	} else {
		fb = append(fb, "Consider using a wider range of vocabulary to enhance your speech.")
	}
	if len(repeated) > 3 {
		fb = append(fb, fmt.Sprintf("Repetitive use of words detected: %s...", strings.Join(capSlice(repeated, 3), ", ")))
	}
	switch {
	case advancedCount > 10:
		fb = append(fb, "Excellent use of advanced vocabulary.")
	case advancedCount > 5:
		fb = append(fb, "Good use of complex words. Consider incorporating more advanced vocabulary.")
	default:
		fb = append(fb, "Consider using more sophisticated vocabulary where appropriate.")
	}
	return fb
}

func domainVocabulary(arts *analyzer.Artifacts) map[string]bool {
	if arts.Meta.Domain == "" || arts.Config == nil {
		return nil
	}
	profile, ok := arts.Config.DomainProfiles[arts.Meta.Domain]
	if !ok {
		return nil
	}
	vocab := make(map[string]bool, len(profile.Vocabulary))
	for _, w := range profile.Vocabulary {
		vocab[strings.ToLower(w)] = true
	}
	return vocab
}

// alphaTokens drops numeric tokens so "42" does not count as vocabulary.
func alphaTokens(text string) []string {
	var out []string
	for _, w := range nlp.Tokenize(text) {
		alpha := true
		for _, r := range w {
			if r >= '0' && r <= '9' {
				alpha = false
				break
			}
		}
		if alpha {
			out = append(out, w)
		}
	}
	return out
}

func round1(v float64) float64 { return math.Round(v*10) / 10 }
func round2(v float64) float64 { return math.Round(v*100) / 100 }

func capSlice(s []string, n int) []string {
	if len(s) > n {
		return s[:n]
	}
	return s
}
