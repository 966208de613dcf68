// Package pronunciation scores articulation quality from phoneme-level
// acoustic proxies, prosodic steadiness, fluency, and spectral clarity.
//
// Expected phonemes come from the reference pronouncing dictionary when
// one is loaded; otherwise words are mapped to phoneme categories through
// their Double Metaphone encoding. Per-category clarity is estimated from
// deterministic acoustic measurements only. When neither audio features
// nor ASR confidences are available the analyzer reports degraded rather
// than invent values.
package pronunciation

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/antzucaro/matchr"
	"gonum.org/v1/gonum/stat"

	"orato/internal/analyzer"
	"orato/internal/config"
	"orato/internal/transcript"
)

// Sub-score weights.
const (
	phonemeWeight      = 0.35
	prosodyWeight      = 0.25
	fluencyWeight      = 0.20
	articulationWeight = 0.20
)

// phonemeCategory groups phonemes by the acoustic proxy that estimates
// their clarity.
type phonemeCategory int

const (
	categoryVowel phonemeCategory = iota
	categoryFricative
	categoryStop
	categoryOther
)

var _ analyzer.Analyzer = (*Analyzer)(nil)

// Analyzer implements the pronunciation scoring dimension.
type Analyzer struct{}

// New constructs the pronunciation analyzer.
func New() *Analyzer { return &Analyzer{} }

// ID implements analyzer.Analyzer.
func (*Analyzer) ID() string { return config.AnalyzerPronunciation }

// Requires implements analyzer.Analyzer.
func (*Analyzer) Requires() []analyzer.Feature {
	return []analyzer.Feature{analyzer.FeatureTranscript}
}

// DefaultScore implements analyzer.Analyzer.
func (*Analyzer) DefaultScore() float64 { return 70 }

// Analyze implements analyzer.Analyzer.
func (p *Analyzer) Analyze(ctx context.Context, arts *analyzer.Artifacts) analyzer.Result {
	words := arts.Transcript.WordTokens()
	if len(words) == 0 {
		return analyzer.Result{
			Score:    70,
			Status:   analyzer.StatusDegraded,
			Metrics:  map[string]any{"word_count": 0},
			Feedback: []string{"Not enough speech content to evaluate pronunciation."},
		}
	}

	phonemeScore, phonemeSource, ok := p.phonemeAccuracy(ctx, arts, words)
	if !ok {
		return analyzer.Result{
			Score:    70,
			Status:   analyzer.StatusDegraded,
			Metrics:  map[string]any{"reason": "no acoustic features and no recognition confidence available"},
			Feedback: []string{"Pronunciation could not be measured for this recording."},
		}
	}

	prosodyScore := p.prosodySteadiness(ctx, arts)
	fluencyScore := fluency(arts.Transcript, words)
	articulationScore := p.articulation(ctx, arts)

	total := phonemeScore*phonemeWeight + prosodyScore*prosodyWeight +
		fluencyScore*fluencyWeight + articulationScore*articulationWeight

	// Bounded accent adjustment so non-native phoneme realizations are
	// not penalized disproportionately.
	var accentBoost float64
	if phonemeScore < 75 {
		accentBoost = math.Min(3, (75-phonemeScore)*0.15)
		total += accentBoost
	}
	total = math.Max(0, math.Min(100, total))

	lowConfidence := lowConfidenceWords(arts)

	return analyzer.Result{
		Score:  total,
		Status: analyzer.StatusOK,
		Metrics: map[string]any{
			"phoneme_accuracy":     round1(phonemeScore),
			"phoneme_source":       phonemeSource,
			"prosody_score":        round1(prosodyScore),
			"fluency_score":        round1(fluencyScore),
			"articulation_score":   round1(articulationScore),
			"accent_adjustment":    round1(accentBoost),
			"low_confidence_words": lowConfidence,
		},
		Feedback: buildFeedback(total, phonemeScore, fluencyScore, lowConfidence),
	}
}

// phonemeAccuracy estimates per-category phoneme clarity from acoustic
// proxies, falling back to ASR confidence when audio features are not
// available. The third return is false when no deterministic estimate
// exists at all.
func (p *Analyzer) phonemeAccuracy(ctx context.Context, arts *analyzer.Artifacts, words []*transcript.Word) (float64, string, bool) {
	if arts.Features != nil {
		if score, ok := p.acousticPhonemeScore(ctx, arts, words); ok {
			source := "metaphone"
			if arts.Refdata.HasPronunciationDict() {
				source = "dictionary"
			}
			return score, source, true
		}
	}
	if conf, ok := arts.Transcription.MeanConfidence(); ok {
		return clamp(65+conf*30, 60, 95), "asr_confidence", true
	}
	return 0, "", false
}

// acousticPhonemeScore walks each word's frame span and scores the
// phoneme categories the word is expected to contain: vowel clarity from
// frame energy, fricative clarity from elevated zero-crossing rate, stop
// clarity from an onset transient near the word start.
func (p *Analyzer) acousticPhonemeScore(ctx context.Context, arts *analyzer.Artifacts, words []*transcript.Word) (float64, bool) {
	intensity, err := arts.Features.Intensity(ctx)
	if err != nil {
		return 0, false
	}
	spectral, err := arts.Features.SpectralShape(ctx)
	if err != nil {
		return 0, false
	}
	onsets, err := arts.Features.OnsetEvents(ctx)
	if err != nil {
		return 0, false
	}

	meanIntensity := mean(intensity)
	meanZCR := mean(spectral.ZCR)
	frameDur := arts.Features.FrameDuration()
	if frameDur <= 0 || meanZCR == 0 {
		return 0, false
	}

	onsetTimes := make([]float64, len(onsets.Frames))
	for i, f := range onsets.Frames {
		onsetTimes[i] = arts.Features.FrameToTime(f)
	}

	var claritySum float64
	var clarityN int
	for _, w := range words {
		cats := expectedCategories(arts, w.Text)
		lo := int(w.Start / frameDur)
		hi := int(w.End / frameDur)
		if hi >= len(intensity) {
			hi = len(intensity) - 1
		}
		if lo > hi || lo < 0 {
			continue
		}

		for cat := range cats {
			var clarity float64
			switch cat {
			case categoryVowel:
				// Voiced energy above the recording's average reads as a
				// clearly realized vowel.
				ratio := meanRange(intensity, lo, hi) / math.Min(meanIntensity, -1e-9)
				clarity = clamp(2-ratio, 0, 1)
			case categoryFricative:
				ratio := maxRange(spectral.ZCR, lo, hi) / meanZCR
				clarity = clamp((ratio-0.8)/1.2, 0, 1)
			case categoryStop:
				clarity = 0.5
				for _, t := range onsetTimes {
					if t >= w.Start-0.05 && t <= w.Start+0.15 {
						clarity = 1
						break
					}
				}
			default:
				continue
			}
			claritySum += clarity
			clarityN++
		}
	}
	if clarityN == 0 {
		return 0, false
	}
	return 60 + 35*(claritySum/float64(clarityN)), true
}

// expectedCategories resolves the phoneme categories a word should
// contain, preferring the pronouncing dictionary over the Double
// Metaphone encoding.
func expectedCategories(arts *analyzer.Artifacts, word string) map[phonemeCategory]bool {
	clean := strings.Trim(strings.ToLower(word), ".,!?\"' ")
	if clean == "" {
		return nil
	}

	cats := make(map[phonemeCategory]bool)
	if phonemes, ok := arts.Refdata.Pronunciation(clean); ok {
		for _, ph := range phonemes {
			cats[arpabetCategory(ph)] = true
		}
		return cats
	}

	primary, _ := matchr.DoubleMetaphone(clean)
	for _, c := range primary {
		cats[metaphoneCategory(c)] = true
	}
	// Metaphone drops most vowels; every spoken word has a nucleus.
	cats[categoryVowel] = true
	return cats
}

// arpabetCategory maps an ARPABET phoneme (stress digits stripped) to its
// proxy category.
func arpabetCategory(phoneme string) phonemeCategory {
	ph := strings.TrimRight(strings.ToUpper(phoneme), "012")
	switch ph {
	case "AA", "AE", "AH", "AO", "AW", "AY", "EH", "ER", "EY", "IH", "IY", "OW", "OY", "UH", "UW":
		return categoryVowel
	case "F", "V", "TH", "DH", "S", "Z", "SH", "ZH", "HH":
		return categoryFricative
	case "P", "B", "T", "D", "K", "G", "CH", "JH":
		return categoryStop
	default:
		return categoryOther
	}
}

func metaphoneCategory(c rune) phonemeCategory {
	switch c {
	case 'A', 'E', 'I', 'O', 'U':
		return categoryVowel
	case 'F', 'S', 'X', 'V', 'Z', 'H', '0': // X is "sh", 0 is "th"
		return categoryFricative
	case 'P', 'B', 'T', 'D', 'K', 'G', 'J':
		return categoryStop
	default:
		return categoryOther
	}
}

// prosodySteadiness scores intonation, rhythm, and stress variability
// against the coefficient-of-variation targets of natural speech.
func (p *Analyzer) prosodySteadiness(ctx context.Context, arts *analyzer.Artifacts) float64 {
	if arts.Features == nil {
		return 70
	}

	var fits []float64

	if pitch, err := arts.Features.Pitch(ctx); err == nil {
		voiced := filterPositive(pitch)
		if len(voiced) > 1 {
			fits = append(fits, bandFit(cv(voiced), 0.05, 0.25))
		}
	}

	if onsets, err := arts.Features.OnsetEvents(ctx); err == nil && len(onsets.Frames) > 2 {
		intervals := make([]float64, len(onsets.Frames)-1)
		for i := 1; i < len(onsets.Frames); i++ {
			intervals[i-1] = float64(onsets.Frames[i] - onsets.Frames[i-1])
		}
		// Rhythm wants regular onsets: any CV below 0.6 is good.
		fits = append(fits, bandFit(cv(intervals), 0, 0.6))
	}

	if intensity, err := arts.Features.Intensity(ctx); err == nil && len(intensity) > 1 {
		// Intensity is in dB and negative; shift to a positive scale
		// before taking the variation coefficient.
		shifted := make([]float64, len(intensity))
		for i, v := range intensity {
			shifted[i] = v + 80
		}
		fits = append(fits, bandFit(cv(shifted), 0.4, 0.8))
	}

	if len(fits) == 0 {
		return 70
	}
	return 60 + 35*mean(fits)
}

// fluency scores pausing behavior and inter-word pacing from the
// annotated transcript alone.
func fluency(a *transcript.Annotated, words []*transcript.Word) float64 {
	var fits []float64

	if a.AudioDuration > 0 {
		pauseRatio := a.TotalPauseTime / a.AudioDuration
		fits = append(fits, bandFit(pauseRatio, 0.10, 0.25))
	}

	// Hesitations per spoken second. Over one every five seconds reads
	// as halting delivery.
	hesitations := 0
	for _, p := range a.Pauses() {
		if p.Duration > 0.75 {
			hesitations++
		}
	}
	rate := float64(hesitations) / a.SpeakingTime
	fits = append(fits, clamp(1-rate/0.2, 0, 1))

	if len(words) > 2 {
		gaps := make([]float64, 0, len(words)-1)
		for i := 1; i < len(words); i++ {
			gaps = append(gaps, words[i].Start-words[i-1].Start)
		}
		fits = append(fits, bandFit(cv(gaps), 0, 0.6))
	}

	return 60 + 35*mean(fits)
}

// articulation scores spectral placement and consonant crispness.
func (p *Analyzer) articulation(ctx context.Context, arts *analyzer.Artifacts) float64 {
	if arts.Features == nil {
		return 70
	}
	spectral, err := arts.Features.SpectralShape(ctx)
	if err != nil || len(spectral.Centroid) == 0 {
		return 70
	}

	// Typical conversational voice centroid sits near 1.5 kHz; clear
	// articulation keeps the normalized value in [0.8, 1.2].
	const typicalCentroid = 1500.0
	ratio := mean(spectral.Centroid) / typicalCentroid
	fits := []float64{bandFit(ratio, 0.8, 1.2)}

	if len(spectral.ZCR) > 1 {
		fits = append(fits, bandFit(cv(spectral.ZCR), 0.3, 1.0))
	}
	return 60 + 35*mean(fits)
}

func lowConfidenceWords(arts *analyzer.Artifacts) []string {
	threshold := arts.Config.MinConfidence
	seen := make(map[string]bool)
	var out []string
	for _, seg := range arts.Transcription.Segments {
		for _, w := range seg.Words {
			if w.Confidence > 0 && w.Confidence < threshold {
				clean := strings.Trim(strings.ToLower(w.Word), ".,!?\"' ")
				if clean != "" && !seen[clean] {
					seen[clean] = true
					out = append(out, clean)
				}
			}
		}
	}
	if len(out) > 5 {
		out = out[:5]
	}
	return out
}

func buildFeedback(total, phonemeScore, fluencyScore float64, lowConfidence []string) []string {
	var fb []string
	switch {
	case total >= 85:
		fb = append(fb, "Excellent pronunciation clarity and articulation.")
	case total >= 70:
		fb = append(fb, "Good pronunciation with minor areas for improvement.")
	case total >= 50:
		fb = append(fb, "Fair pronunciation. Focus on clearer articulation of sounds.")
	default:
		fb = append(fb, "Pronunciation needs significant improvement. Consider speech exercises.")
	}
	if len(lowConfidence) > 0 {
		fb = append(fb, fmt.Sprintf("These words were hard to recognize and may need clearer pronunciation: %s.", strings.Join(lowConfidence, ", ")))
	}
	if fluencyScore < 70 {
		fb = append(fb, "Frequent hesitations interrupt your delivery. Practice speaking in longer connected phrases.")
	}
	return fb
}

// bandFit returns 1 inside [lo, hi] and decays linearly to 0 one band
// width outside.
func bandFit(v, lo, hi float64) float64 {
	width := hi - lo
	if width <= 0 {
		width = math.Max(hi, 0.1)
	}
	switch {
	case v >= lo && v <= hi:
		return 1
	case v < lo:
		return clamp(1-(lo-v)/width, 0, 1)
	default:
		return clamp(1-(v-hi)/width, 0, 1)
	}
}

// cv is the coefficient of variation, std/mean.
func cv(values []float64) float64 {
	m := mean(values)
	if m == 0 {
		return 0
	}
	return stat.PopStdDev(values, nil) / math.Abs(m)
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return stat.Mean(values, nil)
}

func meanRange(values []float64, lo, hi int) float64 {
	return mean(values[lo : hi+1])
}

func maxRange(values []float64, lo, hi int) float64 {
	out := values[lo]
	for _, v := range values[lo+1 : hi+1] {
		out = math.Max(out, v)
	}
	return out
}

func filterPositive(values []float64) []float64 {
	var out []float64
	for _, v := range values {
		if v > 0 {
			out = append(out, v)
		}
	}
	return out
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func round1(v float64) float64 { return math.Round(v*10) / 10 }
