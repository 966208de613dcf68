// Package structure scores how a speech is organized: presence and
// proportion of introduction, body, and conclusion, plus transition usage
// between the main points.
package structure

import (
	"context"
	"math"
	"strings"

	"orato/internal/analyzer"
	"orato/internal/config"
	"orato/internal/nlp"
)

var _ analyzer.Analyzer = (*Analyzer)(nil)

// Analyzer implements the structure scoring dimension.
type Analyzer struct{}

// New constructs the structure analyzer.
func New() *Analyzer { return &Analyzer{} }

// ID implements analyzer.Analyzer.
func (*Analyzer) ID() string { return config.AnalyzerStructure }

// Requires implements analyzer.Analyzer.
func (*Analyzer) Requires() []analyzer.Feature {
	return []analyzer.Feature{analyzer.FeatureTranscript}
}

// DefaultScore implements analyzer.Analyzer.
func (*Analyzer) DefaultScore() float64 { return 70 }

// Analyze implements analyzer.Analyzer.
func (s *Analyzer) Analyze(ctx context.Context, arts *analyzer.Artifacts) analyzer.Result {
	sentences := nlp.Sentences(arts.Transcript.PlainText())
	if len(sentences) == 0 {
		return analyzer.Result{
			Score:  70,
			Status: analyzer.StatusDegraded,
			Metrics: map[string]any{
				"section_completeness": "incomplete",
				"transition_count":     0,
			},
			Feedback: []string{"Not enough speech content to evaluate structure."},
		}
	}

	total := len(sentences)
	introMarkers, conclusionMarkers := markerPositions(sentences)

	// Default boundaries: first and last 20% of sentences.
	introEnd := int(float64(total) * 0.2)
	conclusionStart := int(float64(total) * 0.8)

	if len(introMarkers) > 0 {
		last := introMarkers[len(introMarkers)-1]
		introEnd = min(last+3, int(float64(total)*0.3))
	}
	if len(conclusionMarkers) > 0 {
		first := conclusionMarkers[0]
		conclusionStart = max(first-1, int(float64(total)*0.7))
	}
	if introEnd >= conclusionStart {
		introEnd = int(float64(total) * 0.2)
		conclusionStart = int(float64(total) * 0.8)
	}

	introProp := float64(introEnd) / float64(total)
	bodyProp := float64(conclusionStart-introEnd) / float64(total)
	conclusionProp := float64(total-conclusionStart) / float64(total)

	proportionScore := 100.0
	if introProp < 0.05 || introProp > 0.25 {
		proportionScore -= 20
	}
	if bodyProp < 0.5 || bodyProp > 0.85 {
		proportionScore -= 20
	}
	if conclusionProp < 0.05 || conclusionProp > 0.25 {
		proportionScore -= 20
	}

	hasIntro := len(introMarkers) > 0 || introProp >= 0.05
	hasConclusion := len(conclusionMarkers) > 0 || conclusionProp >= 0.05
	hasBody := bodyProp >= 0.5

	completeness := classifyCompleteness(hasIntro, hasBody, hasConclusion)

	bodyText := strings.ToLower(strings.Join(sentences[introEnd:conclusionStart], " "))
	bodyTokens := nlp.Tokenize(bodyText)
	transitionCount := nlp.CountOccurrences(bodyTokens, nlp.TransitionWords)

	sectionTransitionCount := 0
	for _, phrase := range nlp.SectionTransitions {
		if strings.Contains(bodyText, phrase) {
			sectionTransitionCount++
		}
	}

	organization := detectOrganization(bodyText)

	coherence := 70.0
	coherence += math.Min(15, float64(sectionTransitionCount)*5)
	switch organization {
	case "sequential":
		coherence += 15
	case "comparative", "causal":
		coherence += 10
	case "topical":
		coherence += 5
	}
	coherence = math.Min(100, coherence)

	bodyStructure := "unclear"
	switch {
	case transitionCount >= 5 && organization != "unclear":
		bodyStructure = "excellent"
	case transitionCount >= 3 || organization != "unclear":
		bodyStructure = "good"
	case transitionCount >= 1:
		bodyStructure = "adequate"
	}

	score := 70.0
	switch completeness {
	case "complete":
		score += 20
	case "missing_conclusion", "missing_introduction":
		score += 10
	case "body_only":
		score += 5
	}
	score += math.Min(10, proportionScore/10)
	score += math.Min(20, (coherence-70)/1.5)
	score = math.Min(100, score)

	return analyzer.Result{
		Score:  score,
		Status: analyzer.StatusOK,
		Metrics: map[string]any{
			"has_introduction":  hasIntro,
			"has_conclusion":    hasConclusion,
			"body_structure":    bodyStructure,
			"body_organization": organization,
			"transition_count":  transitionCount + sectionTransitionCount,
			"section_proportions": map[string]float64{
				"introduction": round1(introProp * 100),
				"body":         round1(bodyProp * 100),
				"conclusion":   round1(conclusionProp * 100),
			},
			"coherence_score":      coherence,
			"section_completeness": completeness,
		},
		Feedback: buildFeedback(hasIntro, hasConclusion, introProp, conclusionProp,
			bodyStructure, transitionCount+sectionTransitionCount, score),
	}
}

// markerPositions returns the sentence indices containing intro and
// conclusion marker phrases.
func markerPositions(sentences []string) (intro, conclusion []int) {
	for i, sentence := range sentences {
		lower := strings.ToLower(sentence)
		if nlp.ContainsAny(lower, nlp.IntroKeywords) {
			intro = append(intro, i)
		}
		if nlp.ContainsAny(lower, nlp.ConclusionKeywords) {
			conclusion = append(conclusion, i)
		}
	}
	return intro, conclusion
}

func classifyCompleteness(hasIntro, hasBody, hasConclusion bool) string {
	switch {
	case hasIntro && hasBody && hasConclusion:
		return "complete"
	case hasIntro && hasBody:
		return "missing_conclusion"
	case hasBody && hasConclusion:
		return "missing_introduction"
	case hasBody:
		return "body_only"
	}
	return "incomplete"
}

// detectOrganization classifies the body's organizing pattern from keyword
// co-occurrence.
func detectOrganization(bodyText string) string {
	if !nlp.ContainsAny(bodyText, nlp.BodyStartKeywords) {
		return "unclear"
	}
	containsAll := func(words ...string) bool {
		for _, w := range words {
			if !strings.Contains(bodyText, w) {
				return false
			}
		}
		return true
	}
	switch {
	case containsAll("first", "second"), containsAll("one", "another"), containsAll("first", "next"):
		return "sequential"
	case containsAll("however", "despite"), containsAll("advantage", "disadvantage"), containsAll("pros", "cons"):
		return "comparative"
	case containsAll("because", "therefore"), containsAll("cause", "effect"), containsAll("leads to", "results in"):
		return "causal"
	}
	return "topical"
}

func buildFeedback(hasIntro, hasConclusion bool, introProp, conclusionProp float64,
	bodyStructure string, transitions int, score float64) []string {

	var fb []string
	switch {
	case !hasIntro:
		fb = append(fb, "Add a clear introduction to establish your topic and purpose.")
	case introProp*100 < 10:
		fb = append(fb, "Consider expanding your introduction to better prepare your audience.")
	}
	switch {
	case !hasConclusion:
		fb = append(fb, "Add a conclusion to summarize key points and provide closure.")
	case conclusionProp*100 < 10:
		fb = append(fb, "Expand your conclusion to reinforce your message and leave a lasting impression.")
	}
	switch {
	case bodyStructure == "unclear":
		fb = append(fb, "Organize your main points more clearly with transition phrases.")
	case transitions < 3:
		fb = append(fb, "Use more transition words to help your audience follow your speech.")
	}
	if len(fb) == 0 {
		if score >= 90 {
			fb = append(fb, "Excellent speech structure with well-balanced sections and smooth transitions.")
		} else {
			fb = append(fb, "Good overall structure. Continue practicing to perfect your speech organization.")
		}
	}
	return fb
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
