// Package asr defines the Transcriber interface for speech-to-text backends
// and the canonical transcription result consumed by the evaluation
// pipeline.
//
// A transcriber wraps a batch ASR engine (whisper.cpp in-process, or a mock
// in tests) and exposes a single-shot operation: decoded audio in, verbatim
// word-timestamped transcription out. Streaming recognition is deliberately
// absent — the pipeline evaluates one finished artifact per request.
//
// Implementations must be safe for concurrent use; multiple evaluation
// requests may transcribe simultaneously.
package asr

import (
	"context"
	"errors"
	"strings"
)

// ErrTranscription wraps backend failures. The orchestrator treats any error
// from Transcribe as fatal for the request — no analyzer can run without the
// transcript.
var ErrTranscription = errors.New("asr: transcription failed")

// WordToken is one recognised word with its time span in seconds from the
// start of the audio.
type WordToken struct {
	// Word is the recognised text, surrounding whitespace trimmed.
	Word string

	// Start and End are seconds from the beginning of the audio.
	Start float64
	End   float64

	// Confidence is the backend's per-word probability in [0, 1], or 0 when
	// the backend does not report one.
	Confidence float64
}

// Segment is a contiguous recognised span containing ordered words.
type Segment struct {
	Start float64
	End   float64
	Text  string
	Words []WordToken
}

// TranscriptionResult is the ordered sequence of segments for one audio
// artifact. Segments are non-overlapping and monotonically ordered; within a
// segment, words are monotonically ordered. [Repair] enforces these
// invariants on raw backend output.
type TranscriptionResult struct {
	Language string
	Segments []Segment
}

// Text concatenates all segment texts with single spaces.
func (r *TranscriptionResult) Text() string {
	parts := make([]string, 0, len(r.Segments))
	for _, seg := range r.Segments {
		if t := strings.TrimSpace(seg.Text); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, " ")
}

// WordCount returns the total number of word tokens across all segments.
func (r *TranscriptionResult) WordCount() int {
	n := 0
	for _, seg := range r.Segments {
		n += len(seg.Words)
	}
	return n
}

// MeanConfidence averages per-word confidences over words that carry one.
// Returns 0 and false when no word reports confidence.
func (r *TranscriptionResult) MeanConfidence() (float64, bool) {
	var sum float64
	var n int
	for _, seg := range r.Segments {
		for _, w := range seg.Words {
			if w.Confidence > 0 {
				sum += w.Confidence
				n++
			}
		}
	}
	if n == 0 {
		return 0, false
	}
	return sum / float64(n), true
}

// Options carries recognition hints for one transcription request.
type Options struct {
	// Language is the ISO 639-1 language code (e.g. "en"). Empty lets the
	// backend use its default.
	Language string

	// SampleRate is the sample rate of the provided samples in Hz.
	SampleRate int
}

// Transcriber is the abstraction over any batch ASR backend. Implementations
// must request verbatim output with word-level timestamps; the pipeline's
// disfluency analysis depends on fillers surviving transcription.
type Transcriber interface {
	// Transcribe runs recognition over mono float32 samples and returns the
	// repaired, monotonic transcription. Implementations should call
	// [Repair] on raw backend output before returning.
	Transcribe(ctx context.Context, samples []float32, opts Options) (*TranscriptionResult, error)
}

// Repair enforces timestamp monotonicity in place and returns r.
//
// Any word starting before the previous word ended is clamped to the
// previous end; word ends are clamped to be ≥ their start. Segment bounds
// are widened to cover their words so that segment invariants
// (start ≤ first word start, last word end ≤ end) hold. Segments themselves
// are clamped to be non-overlapping in order.
func Repair(r *TranscriptionResult) *TranscriptionResult {
	var prevSegEnd float64
	for i := range r.Segments {
		seg := &r.Segments[i]
		if seg.Start < prevSegEnd {
			seg.Start = prevSegEnd
		}
		if seg.End < seg.Start {
			seg.End = seg.Start
		}

		prevEnd := seg.Start
		for j := range seg.Words {
			w := &seg.Words[j]
			if w.Start < prevEnd {
				w.Start = prevEnd
			}
			if w.End < w.Start {
				w.End = w.Start
			}
			prevEnd = w.End
		}

		if n := len(seg.Words); n > 0 {
			if seg.Words[0].Start < seg.Start {
				seg.Start = seg.Words[0].Start
			}
			if last := seg.Words[n-1].End; last > seg.End {
				seg.End = last
			}
		}
		prevSegEnd = seg.End
	}
	return r
}
