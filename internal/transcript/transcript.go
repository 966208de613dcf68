// Package transcript derives the pause-annotated token stream that every
// analyzer consumes from raw word-timestamped ASR output.
//
// The annotated transcript is the canonical artifact of the pipeline: a
// single ordered sequence of Word and Pause tokens plus the aggregate timing
// figures (pause count, total pause time, speaking time, speaking rate).
// Its textual form with `[X.X second pause]` markers is a stable contract —
// serializing and re-parsing must yield the same token sequence.
package transcript

import (
	"fmt"
	"math"
	"strings"

	"orato/pkg/asr"
)

// Pause classification thresholds in seconds. A silent gap inside one ASR
// segment becomes a Pause at 1.0 s; a gap between two segments only at
// 2.0 s, since segment boundaries already absorb natural sentence breaks.
const (
	IntraSegmentThreshold = 1.0
	InterSegmentThreshold = 2.0
)

// MinSpeakingTime is the floor applied to speaking time so that rate
// computations never divide by zero.
const MinSpeakingTime = 0.1

// PauseSource distinguishes where in the segment stream a pause was found.
type PauseSource string

const (
	PauseIntraSegment PauseSource = "intra_segment"
	PauseInterSegment PauseSource = "inter_segment"
)

// Token is one element of the annotated stream: either a word or a pause.
// Exactly one of Word or Pause is set.
type Token struct {
	Word  *Word
	Pause *Pause
}

// Word is a spoken word with its time span in seconds.
type Word struct {
	Text  string
	Start float64
	End   float64
}

// Pause is a classified silent gap. Duration is rounded to one decimal.
type Pause struct {
	Duration float64
	Source   PauseSource
}

// Annotated is the pause-annotated transcript for one audio artifact.
type Annotated struct {
	Tokens []Token

	// PauseCount is the number of Pause tokens.
	PauseCount int

	// TotalPauseTime is the sum of rounded pause durations in seconds.
	TotalPauseTime float64

	// SpeakingTime is audio duration minus total pause time, clamped to
	// [MinSpeakingTime, ∞).
	SpeakingTime float64

	// WordCount counts Word tokens only.
	WordCount int

	// SpeakingRate is WordCount / SpeakingTime in words per second.
	SpeakingRate float64

	// AudioDuration is the probed duration the figures were computed
	// against, in seconds.
	AudioDuration float64
}

// round1 rounds to one decimal place, the precision of the pause marker
// wire format.
func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// Build folds the transcription's word timestamps into an annotated token
// stream.
//
// Between two consecutive words of the same segment, a gap ≥ 1.0 s becomes
// an intra-segment Pause; between the last word of one segment and the
// first word of the next, a gap ≥ 2.0 s becomes an inter-segment Pause.
// Sub-threshold gaps are discarded. When audioDuration is zero (degraded
// probe) the last segment end stands in for it.
func Build(result *asr.TranscriptionResult, audioDuration float64) *Annotated {
	a := &Annotated{AudioDuration: audioDuration}

	for i, seg := range result.Segments {
		for j, w := range seg.Words {
			a.Tokens = append(a.Tokens, Token{Word: &Word{Text: w.Word, Start: w.Start, End: w.End}})
			a.WordCount++

			if j < len(seg.Words)-1 {
				gap := seg.Words[j+1].Start - w.End
				if gap >= IntraSegmentThreshold {
					a.appendPause(gap, PauseIntraSegment)
				}
			}
		}

		if i < len(result.Segments)-1 {
			gap := result.Segments[i+1].Start - seg.End
			if gap >= InterSegmentThreshold {
				a.appendPause(gap, PauseInterSegment)
			}
		}
	}

	if a.AudioDuration <= 0 && len(result.Segments) > 0 {
		a.AudioDuration = result.Segments[len(result.Segments)-1].End
	}

	a.TotalPauseTime = round1(a.TotalPauseTime)
	a.SpeakingTime = math.Max(MinSpeakingTime, a.AudioDuration-a.TotalPauseTime)
	if a.WordCount > 0 {
		a.SpeakingRate = float64(a.WordCount) / a.SpeakingTime
	}
	return a
}

func (a *Annotated) appendPause(gap float64, src PauseSource) {
	d := round1(gap)
	a.Tokens = append(a.Tokens, Token{Pause: &Pause{Duration: d, Source: src}})
	a.PauseCount++
	a.TotalPauseTime += d
}

// WordTokens returns the Word tokens in order, with their time spans.
func (a *Annotated) WordTokens() []*Word {
	out := make([]*Word, 0, a.WordCount)
	for _, tok := range a.Tokens {
		if tok.Word != nil {
			out = append(out, tok.Word)
		}
	}
	return out
}

// Words returns the word texts in order, without pause markers.
func (a *Annotated) Words() []string {
	out := make([]string, 0, a.WordCount)
	for _, tok := range a.Tokens {
		if tok.Word != nil {
			out = append(out, tok.Word.Text)
		}
	}
	return out
}

// PlainText returns the transcript without pause markers, words joined by
// single spaces.
func (a *Annotated) PlainText() string {
	return strings.Join(a.Words(), " ")
}

// Pauses returns the Pause tokens in order.
func (a *Annotated) Pauses() []Pause {
	out := make([]Pause, 0, a.PauseCount)
	for _, tok := range a.Tokens {
		if tok.Pause != nil {
			out = append(out, *tok.Pause)
		}
	}
	return out
}

// String renders the annotated transcript with pause markers, e.g.
//
//	so today [1.4 second pause] I want to talk about
//
// The marker format is a stable contract; see [ParseMarkers].
func (a *Annotated) String() string {
	var b strings.Builder
	for i, tok := range a.Tokens {
		if i > 0 {
			b.WriteByte(' ')
		}
		if tok.Word != nil {
			b.WriteString(tok.Word.Text)
		} else {
			fmt.Fprintf(&b, "[%.1f second pause]", tok.Pause.Duration)
		}
	}
	return b.String()
}
