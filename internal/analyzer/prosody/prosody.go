// Package prosody scores pitch control against the speaker's ideal band
// and vocal emphasis placement against the phrases worth stressing.
package prosody

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"gonum.org/v1/gonum/stat"

	"orato/internal/analyzer"
	"orato/internal/config"
	"orato/internal/features"
	"orato/internal/nlp"
	"orato/internal/transcript"
)

// Ideal pitch bands in Hz.
const (
	maleMinPitch   = 85
	maleMaxPitch   = 180
	femaleMinPitch = 165
	femaleMaxPitch = 255
)

// Emphasis detection parameters. Frames whose combined prominence score
// exceeds the threshold form emphasis regions; regions separated by at
// most mergeGap frames are joined.
const (
	emphasisThreshold = 0.7
	mergeGap          = 3
)

var _ analyzer.Analyzer = (*Analyzer)(nil)

// Analyzer implements the prosody scoring dimension.
type Analyzer struct{}

// New constructs the prosody analyzer.
func New() *Analyzer { return &Analyzer{} }

// ID implements analyzer.Analyzer.
func (*Analyzer) ID() string { return config.AnalyzerProsody }

// Requires implements analyzer.Analyzer.
func (*Analyzer) Requires() []analyzer.Feature {
	return []analyzer.Feature{analyzer.FeatureTranscript, analyzer.FeaturePitch, analyzer.FeatureIntensity}
}

// DefaultScore implements analyzer.Analyzer.
func (*Analyzer) DefaultScore() float64 { return 70 }

// Analyze implements analyzer.Analyzer.
func (p *Analyzer) Analyze(ctx context.Context, arts *analyzer.Artifacts) analyzer.Result {
	pitch, err := arts.Features.Pitch(ctx)
	if err != nil {
		return degraded(fmt.Sprintf("pitch extraction failed: %v", err))
	}
	intensity, err := arts.Features.Intensity(ctx)
	if err != nil {
		return degraded(fmt.Sprintf("intensity extraction failed: %v", err))
	}

	voiced := voicedFrames(pitch)
	if len(voiced) == 0 {
		return degraded("no voiced frames detected")
	}

	gender := p.resolveGender(arts, voiced)
	minPitch, maxPitch := pitchBand(gender)

	smoothed := smoothVoiced(pitch)
	frameDur := arts.Features.FrameDuration()

	var timeLow, timeOptimal, timeHigh float64
	for _, hz := range smoothed {
		if hz == 0 {
			continue
		}
		switch {
		case hz < float64(minPitch):
			timeLow += frameDur
		case hz > float64(maxPitch):
			timeHigh += frameDur
		default:
			timeOptimal += frameDur
		}
	}
	total := timeLow + timeOptimal + timeHigh
	pitchScore := math.Round(100 * timeOptimal / total)

	regions := detectEmphasis(ctx, arts, pitch, intensity)
	emph := scoreEmphasis(arts, regions, frameDur)

	score := pitchScore*0.6 + emph.score*0.4

	fb := pitchFeedback(pitchScore, timeHigh, timeLow, gender)
	fb = append(fb, emph.feedback...)

	return analyzer.Result{
		Score:  score,
		Status: analyzer.StatusOK,
		Metrics: map[string]any{
			"detected_gender":             string(gender),
			"pitch_band_min_hz":           minPitch,
			"pitch_band_max_hz":           maxPitch,
			"median_pitch_hz":             math.Round(median(voiced)*10) / 10,
			"time_too_low_s":              round2(timeLow),
			"time_optimal_s":              round2(timeOptimal),
			"time_too_high_s":             round2(timeHigh),
			"pitch_score":                 pitchScore,
			"emphasis_score":              math.Round(emph.score),
			"emphasis_regions":            len(regions),
			"emphasis_density_per_minute": round2(emph.density),
			"key_phrase_coverage":         math.Round(emph.coverage * 100),
			"emphasized_phrases":          emph.phrases,
		},
		Feedback: fb,
	}
}

func degraded(reason string) analyzer.Result {
	return analyzer.Result{
		Score:    70,
		Status:   analyzer.StatusDegraded,
		Metrics:  map[string]any{"reason": reason},
		Feedback: []string{"Voice modulation could not be fully analyzed. Focus on varying your tone to highlight key points."},
	}
}

// resolveGender picks the pitch band, estimating from pitch statistics
// when the request says auto.
func (*Analyzer) resolveGender(arts *analyzer.Artifacts, voiced []float64) config.GenderHint {
	hint := arts.Meta.GenderHint
	if hint == "" {
		hint = arts.Config.GenderHintDefault
	}
	if hint != config.GenderAuto {
		return hint
	}
	return detectGender(voiced, arts.Config.GenderTieBreak)
}

// detectGender classifies from the voiced pitch distribution. Median,
// lower quartile, and lower-tail presence each vote; tieBreak shifts the
// male total so the borderline direction is a configured policy rather
// than a hidden constant. Zero tieBreak is neutral.
func detectGender(voiced []float64, tieBreak float64) config.GenderHint {
	med := median(voiced)
	q25 := percentile(voiced, 25)
	q10 := percentile(voiced, 10)

	maleScore := tieBreak
	var femaleScore float64

	switch {
	case med < 140:
		maleScore += 15
	case med > 200:
		femaleScore += 15
	case med < 165:
		maleScore += 10
	default:
		femaleScore += 10
	}

	if q25 > 165 {
		femaleScore += 5
	} else if q25 < 140 {
		maleScore += 5
	}

	// Very low pitches present only in male voices.
	if q10 < 110 {
		maleScore += 5
	}

	if femaleScore > maleScore {
		return config.GenderFemale
	}
	return config.GenderMale
}

func pitchBand(g config.GenderHint) (int, int) {
	if g == config.GenderFemale {
		return femaleMinPitch, femaleMaxPitch
	}
	return maleMinPitch, maleMaxPitch
}

// smoothVoiced median-filters the voiced pitch values in place on the
// frame grid, leaving unvoiced zeros untouched so they keep their frame
// positions.
func smoothVoiced(pitch []float64) []float64 {
	idx := make([]int, 0, len(pitch))
	vals := make([]float64, 0, len(pitch))
	for i, hz := range pitch {
		if hz > 0 {
			idx = append(idx, i)
			vals = append(vals, hz)
		}
	}
	filtered := features.MedianFilter(vals, 5)
	out := make([]float64, len(pitch))
	for j, i := range idx {
		out[i] = filtered[j]
	}
	return out
}

// region is a contiguous emphasized frame interval.
type region struct {
	startFrame int
	endFrame   int
}

// detectEmphasis combines normalized volume, pitch delta, spectral
// contrast, and pause proximity into a per-frame prominence score and
// thresholds it into regions.
func detectEmphasis(ctx context.Context, arts *analyzer.Artifacts, pitch, intensity []float64) []region {
	n := len(intensity)
	if n == 0 {
		return nil
	}

	pitchDelta := make([]float64, n)
	prev := 0.0
	for i := 0; i < n; i++ {
		cur := 0.0
		if i < len(pitch) {
			cur = pitch[i]
		}
		pitchDelta[i] = math.Abs(cur - prev)
		prev = cur
	}

	contrast := make([]float64, n)
	if spec, err := arts.Features.SpectralShape(ctx); err == nil {
		for i := 0; i < n && i < len(spec.Bandwidth); i++ {
			contrast[i] = spec.Bandwidth[i]
		}
	}

	pauseNear := pauseIndicator(arts.Transcript, n, arts.Features.FrameDuration())

	volZ := zscore(intensity)
	deltaZ := zscore(pitchDelta)
	contrastZ := zscore(contrast)

	combined := make([]float64, n)
	for i := 0; i < n; i++ {
		combined[i] = 0.4*volZ[i] + 0.3*deltaZ[i] + 0.2*contrastZ[i] + 0.1*pauseNear[i]
	}
	normalize01(combined)

	var regions []region
	for i := 0; i < n; i++ {
		if combined[i] <= emphasisThreshold {
			continue
		}
		if len(regions) > 0 && i-regions[len(regions)-1].endFrame <= mergeGap {
			regions[len(regions)-1].endFrame = i
		} else {
			regions = append(regions, region{startFrame: i, endFrame: i})
		}
	}
	return regions
}

// pauseIndicator marks the frame nearest each transcript pause.
func pauseIndicator(a *transcript.Annotated, n int, frameDur float64) []float64 {
	out := make([]float64, n)
	if a == nil || frameDur <= 0 {
		return out
	}
	lastEnd := 0.0
	for _, tok := range a.Tokens {
		switch {
		case tok.Word != nil:
			lastEnd = tok.Word.End
		case tok.Pause != nil:
			frame := int(lastEnd / frameDur)
			if frame >= 0 && frame < n {
				out[frame] = 1
			}
		}
	}
	return out
}

type emphasisOutcome struct {
	score    float64
	coverage float64
	density  float64
	phrases  []string
	feedback []string
}

// scoreEmphasis blends key-phrase coverage, emphasis density against the
// 2-6 per minute target, and absolute count scaled by key-phrase count.
func scoreEmphasis(arts *analyzer.Artifacts, regions []region, frameDur float64) emphasisOutcome {
	text := arts.Transcript.PlainText()
	keyPhrases := nlp.KeyPhrases(text, arts.Refdata.Stopwords())
	phrases := emphasizedPhrases(arts.Transcript, regions, frameDur)

	covered := 0
	var missed []string
	for _, kp := range keyPhrases {
		hit := false
		for _, ph := range phrases {
			if strings.Contains(ph, kp) || strings.Contains(kp, ph) {
				hit = true
				break
			}
		}
		if hit {
			covered++
		} else {
			missed = append(missed, kp)
		}
	}

	coverage := 0.0
	if len(keyPhrases) > 0 {
		coverage = float64(covered) / float64(len(keyPhrases))
	}

	minutes := arts.Duration() / 60
	density := 0.0
	if minutes > 0 {
		density = float64(len(regions)) / minutes
	}

	countRatio := float64(len(regions)) / math.Max(1, float64(len(keyPhrases)))
	score := 40*math.Min(1, coverage) + 30*math.Min(1, density/5) + 30*math.Min(1, countRatio)
	score = math.Max(0, math.Min(100, score))

	var fb []string
	switch {
	case score >= 80:
		fb = append(fb, "Excellent use of vocal emphasis to highlight key points.")
	case score >= 60:
		fb = append(fb, "Good emphasis patterns but could be more consistent on key points.")
	case score >= 40:
		fb = append(fb, "Some points emphasized effectively, but important concepts need clearer emphasis.")
	default:
		fb = append(fb, "Limited vocal emphasis detected. Work on highlighting key points through voice modulation.")
	}
	if len(keyPhrases) > 0 && coverage < 0.3 {
		fb = append(fb, "Many important concepts weren't emphasized. Practice identifying and highlighting key points.")
	}
	switch {
	case density < 2:
		fb = append(fb, "Add more emphasis to engage listeners and highlight important information.")
	case density > 10:
		fb = append(fb, "Too many emphasized segments may dilute their impact. Focus on emphasizing only the most important points.")
	}
	if len(missed) > 0 && len(missed) <= 5 {
		fb = append(fb, fmt.Sprintf("Consider emphasizing these key concepts: %s...", strings.Join(capSlice(missed, 3), ", ")))
	}

	return emphasisOutcome{
		score:    score,
		coverage: coverage,
		density:  density,
		phrases:  capSlice(phrases, 10),
		feedback: fb,
	}
}

// emphasizedPhrases joins the words whose spans overlap each emphasis
// region.
func emphasizedPhrases(a *transcript.Annotated, regions []region, frameDur float64) []string {
	if a == nil {
		return nil
	}
	words := a.WordTokens()
	var phrases []string
	for _, r := range regions {
		start := float64(r.startFrame) * frameDur
		end := float64(r.endFrame+1) * frameDur
		var parts []string
		for _, w := range words {
			if w.Start <= end && w.End >= start {
				parts = append(parts, strings.ToLower(strings.Trim(w.Text, ".,!?\"' ")))
			}
		}
		if phrase := strings.TrimSpace(strings.Join(parts, " ")); len(phrase) > 1 {
			phrases = append(phrases, phrase)
		}
	}
	return phrases
}

func pitchFeedback(score, timeHigh, timeLow float64, gender config.GenderHint) []string {
	var fb []string
	switch {
	case score >= 90:
		fb = append(fb, fmt.Sprintf("Excellent pitch control! Your voice stays within the ideal %s pitch range.", gender))
	case score >= 70:
		fb = append(fb, fmt.Sprintf("Good pitch control. Your voice mostly stays within the ideal %s pitch range.", gender))
	case score >= 50:
		fb = append(fb, fmt.Sprintf("Fair pitch control. Try to keep your voice more consistently within the ideal %s pitch range.", gender))
	default:
		fb = append(fb, fmt.Sprintf("Your pitch varies significantly outside the ideal %s range. Focus on maintaining a more consistent pitch.", gender))
	}

	if timeHigh > timeLow && timeHigh > 3 {
		fb = append(fb, "Your pitch tends to rise too high at times. Try to moderate your higher tones.")
	} else if timeLow > timeHigh && timeLow > 3 {
		fb = append(fb, "Your pitch tends to drop too low at times. Try to add more vocal variety while staying within the recommended range.")
	}
	if timeHigh > 5 || timeLow > 5 {
		fb = append(fb, "Consider practicing with vocal exercises to develop better pitch control.")
	}
	return fb
}

func voicedFrames(pitch []float64) []float64 {
	var out []float64
	for _, hz := range pitch {
		if hz > 0 {
			out = append(out, hz)
		}
	}
	return out
}

func median(values []float64) float64 {
	return percentile(values, 50)
}

func percentile(values []float64, p float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	return stat.Quantile(p/100, stat.LinInterp, sorted, nil)
}

func zscore(values []float64) []float64 {
	out := make([]float64, len(values))
	if len(values) == 0 {
		return out
	}
	mean := stat.Mean(values, nil)
	std := stat.PopStdDev(values, nil)
	if std == 0 {
		return out
	}
	for i, v := range values {
		out[i] = (v - mean) / std
	}
	return out
}

// normalize01 rescales in place to [0, 1].
func normalize01(values []float64) {
	if len(values) == 0 {
		return
	}
	lo, hi := values[0], values[0]
	for _, v := range values {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if hi == lo {
		for i := range values {
			values[i] = 0
		}
		return
	}
	for i := range values {
		values[i] = (values[i] - lo) / (hi - lo)
	}
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }

func capSlice(s []string, n int) []string {
	if len(s) > n {
		return s[:n]
	}
	return s
}
