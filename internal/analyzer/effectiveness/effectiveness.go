// Package effectiveness scores how well the speech serves its announced
// topic: semantic relevance plus achievement of purpose.
package effectiveness

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/antzucaro/matchr"

	"orato/internal/analyzer"
	"orato/internal/config"
	"orato/internal/nlp"
	"orato/pkg/embeddings"
)

// topKeywords is how many TF-IDF keywords each side contributes to the
// overlap measure.
const topKeywords = 10

var _ analyzer.Analyzer = (*Analyzer)(nil)

// Analyzer implements the effectiveness scoring dimension.
type Analyzer struct{}

// New constructs the effectiveness analyzer.
func New() *Analyzer { return &Analyzer{} }

// ID implements analyzer.Analyzer.
func (*Analyzer) ID() string { return config.AnalyzerEffectiveness }

// Requires implements analyzer.Analyzer.
func (*Analyzer) Requires() []analyzer.Feature {
	return []analyzer.Feature{analyzer.FeatureTranscript, analyzer.FeatureTopic}
}

// DefaultScore implements analyzer.Analyzer.
func (*Analyzer) DefaultScore() float64 { return 70 }

// Analyze implements analyzer.Analyzer.
func (e *Analyzer) Analyze(ctx context.Context, arts *analyzer.Artifacts) analyzer.Result {
	text := cleanText(arts.Transcript.PlainText())
	topic := strings.TrimSpace(arts.Meta.Topic)
	if text == "" || topic == "" {
		return analyzer.Result{
			Score:    70,
			Status:   analyzer.StatusDegraded,
			Metrics:  map[string]any{"similarity": 0.0},
			Feedback: []string{"Not enough content to evaluate topic effectiveness."},
		}
	}

	stop := arts.Refdata.Stopwords()

	similarity, simErr := e.similarity(ctx, arts.Embedder, text, topic)

	speechKeywords := nlp.Terms(nlp.ExtractKeywords(text, topKeywords, stop))
	topicKeywords := nlp.Terms(nlp.ExtractKeywords(topic, topKeywords, stop))
	overlap := keywordOverlap(speechKeywords, topicKeywords)

	status := analyzer.StatusOK
	if simErr != nil {
		// Keyword overlap alone still orders relevant speeches above
		// off-topic ones, so score on it and mark the result degraded.
		similarity = overlap
		status = analyzer.StatusDegraded
	}

	simPoints := similarityPoints(similarity)
	relevance := clamp(0.6*simPoints+0.4*overlap*10, 0, 10)

	structure := structureAlignment(text, stop)
	markerScore := discourseMarkerScore(text)
	alignment := (similarityNorm(similarity)*0.7 + overlap*0.3) * 3
	purpose := clamp(structure+markerScore*3+alignment, 0, 10)

	total := relevance + purpose

	// Figurative speeches score low on literal similarity; a bounded
	// bonus keeps storytelling interpretations competitive.
	creative := creativeBonus(text, similarity)
	total = clamp(total+creative, 0, 20)

	score := total * 5

	return analyzer.Result{
		Score:  score,
		Status: status,
		Metrics: map[string]any{
			"similarity":        round3(similarity),
			"keyword_overlap":   round3(overlap),
			"relevance_score":   round2(relevance),
			"purpose_score":     round2(purpose),
			"creative_bonus":    round2(creative),
			"speech_keywords":   capSlice(speechKeywords, 5),
			"topic_keywords":    capSlice(topicKeywords, 5),
			"discourse_markers": round2(markerScore),
		},
		Feedback: buildFeedback(relevance, purpose, topic, speechKeywords),
	}
}

// similarity embeds both texts in one batch call and compares them.
func (*Analyzer) similarity(ctx context.Context, provider embeddings.Provider, text, topic string) (float64, error) {
	vecs, err := provider.EmbedBatch(ctx, []string{text, topic})
	if err != nil {
		return 0, fmt.Errorf("effectiveness: embed transcript and topic: %w", err)
	}
	return embeddings.Cosine(vecs[0], vecs[1]), nil
}

// similarityPoints maps cosine similarity onto the 0..10 relevance scale.
// The curve is steep below 0.2 and flattens toward 10 so that the jump
// from unrelated to related matters more than the jump from related to
// near-verbatim.
func similarityPoints(sim float64) float64 {
	sim = clamp(sim, 0, 1)
	switch {
	case sim < 0.2:
		return sim / 0.2 * 5
	case sim < 0.4:
		return 5 + (sim-0.2)/0.2*1.5
	case sim < 0.6:
		return 6.5 + (sim-0.4)/0.2*1.5
	case sim < 0.8:
		return 8 + (sim-0.6)/0.2*1
	default:
		return math.Min(10, 9+(sim-0.8)/0.2*1)
	}
}

func similarityNorm(sim float64) float64 {
	return similarityPoints(sim) / 10
}

// keywordOverlap is the fraction of topic keywords matched by a speech
// keyword. Matching is fuzzy: inflections like "team"/"teams" count, via
// an edit distance of 1 between words of four letters or more.
func keywordOverlap(speech, topic []string) float64 {
	if len(topic) == 0 {
		return 0
	}
	hits := 0
	for _, t := range topic {
		for _, s := range speech {
			if keywordsMatch(s, t) {
				hits++
				break
			}
		}
	}
	return float64(hits) / float64(len(topic))
}

func keywordsMatch(a, b string) bool {
	if a == b {
		return true
	}
	if len(a) < 4 || len(b) < 4 {
		return false
	}
	return matchr.Levenshtein(a, b) <= 1
}

// structureAlignment awards up to 4 points: 1 for an opening, 2 for a
// body with at least five content words, 1 for a closing.
func structureAlignment(text string, stop map[string]bool) float64 {
	sentences := nlp.Sentences(text)
	n := len(sentences)
	if n == 0 {
		return 0
	}

	introEnd := 1
	bodyEnd := n - 1
	if n >= 3 {
		introEnd = maxInt(1, n*20/100)
		bodyEnd = n * 80 / 100
	}
	if bodyEnd < introEnd {
		bodyEnd = introEnd
	}

	intro := strings.Join(sentences[:introEnd], " ")
	body := strings.Join(sentences[introEnd:bodyEnd], " ")
	conclusion := strings.Join(sentences[bodyEnd:], " ")

	var pts float64
	if len(strings.Fields(intro)) >= 3 {
		pts++
	}
	if len(nlp.ContentWords(body, stop)) >= 5 {
		pts += 2
	}
	if len(strings.Fields(conclusion)) >= 3 {
		pts++
	}
	return pts
}

// purposeMarkers is the deduplicated union of discourse markers and
// stated-purpose indicators; both signal that the speech is organized
// around a deliberate point.
var purposeMarkers = func() []string {
	seen := make(map[string]bool)
	var out []string
	for _, m := range nlp.DiscourseMarkers {
		if !seen[m] {
			seen[m] = true
			out = append(out, m)
		}
	}
	for _, m := range nlp.PurposeIndicators {
		if !seen[m] {
			seen[m] = true
			out = append(out, m)
		}
	}
	return out
}()

// discourseMarkerScore counts distinct discourse and purpose markers,
// full credit at five.
func discourseMarkerScore(text string) float64 {
	lower := strings.ToLower(text)
	hits := 0
	for _, marker := range purposeMarkers {
		if strings.Contains(lower, marker) {
			hits++
		}
	}
	return math.Min(1, float64(hits)/5)
}

// creativeBonus rewards narrative and emotional content when literal
// similarity is low, capped at 2 points.
func creativeBonus(text string, similarity float64) float64 {
	if similarity >= 0.4 {
		return 0
	}
	lower := strings.ToLower(text)
	hits := 0
	for _, marker := range nlp.NarrativeMarkers {
		if strings.Contains(lower, marker) {
			hits++
		}
	}
	for _, word := range nlp.EmotionWords {
		if strings.Contains(lower, word) {
			hits++
		}
	}
	return math.Min(2, float64(hits)*0.5)
}

// cleanText strips filler interjections before semantic comparison.
func cleanText(text string) string {
	fields := strings.Fields(strings.ToLower(text))
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		switch strings.Trim(f, ".,!?\"' ") {
		case "um", "uh", "ah", "er", "hmm":
			continue
		}
		out = append(out, f)
	}
	return strings.Join(out, " ")
}

func buildFeedback(relevance, purpose float64, topic string, speechKeywords []string) []string {
	var fb []string
	switch {
	case relevance < 5:
		fb = append(fb, fmt.Sprintf("The speech appears to deviate significantly from '%s'. Try to stay more focused on the subject matter.", topic))
	case relevance < 7:
		fb = append(fb, "The speech somewhat relates to the topic but could be more focused. Consider tightening the connection to the main theme.")
	default:
		fb = append(fb, "Good job maintaining relevance to the topic throughout the speech.")
	}
	switch {
	case purpose < 5:
		fb = append(fb, "The speech structure needs significant improvement. Focus on organizing your thoughts more clearly.")
	case purpose < 7:
		fb = append(fb, "The speech structure is decent but could be more organized. Consider using a clearer beginning-middle-end format.")
	default:
		fb = append(fb, "Well-structured speech with good organization of ideas.")
	}
	if relevance < 5 && len(speechKeywords) > 0 {
		fb = append(fb, fmt.Sprintf("Your speech focused more on %s than the assigned topic.", strings.Join(capSlice(speechKeywords, 3), ", ")))
	}
	return fb
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }
func round3(v float64) float64 { return math.Round(v*1000) / 1000 }

func capSlice(s []string, n int) []string {
	if len(s) > n {
		return s[:n]
	}
	return s
}
