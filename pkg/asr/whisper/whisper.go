// Package whisper implements [asr.Transcriber] backed by the whisper.cpp
// CGO bindings. The whisper.cpp static library (libwhisper.a) and headers
// (whisper.h) must be available at link time via LIBRARY_PATH and
// C_INCLUDE_PATH environment variables.
//
// The model is loaded once at construction and shared across all concurrent
// requests; each Transcribe call creates its own whisper context.
package whisper

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	whisperlib "github.com/ggerganov/whisper.cpp/bindings/go/pkg/whisper"

	"orato/pkg/asr"
	"orato/pkg/audio"
)

// whisper.cpp decodes 16 kHz mono only.
const whisperSampleRate = 16000

// verbatimPrompt steers the decoder toward verbatim output. Filler words and
// false starts must survive transcription or the disfluency analyzer has
// nothing to count.
const verbatimPrompt = "Please transcribe exactly as spoken. Include every um, uh, ah, er, pause, " +
	"repetition, and false start. Do not clean up or correct the speech. " +
	"Transcribe with maximum verbatim accuracy."

const defaultLanguage = "en"

// Compile-time assertion that Transcriber satisfies asr.Transcriber.
var _ asr.Transcriber = (*Transcriber)(nil)

// Transcriber runs whisper.cpp inference in-process.
type Transcriber struct {
	model    whisperlib.Model
	language string
	threads  uint
}

// Option is a functional option for configuring a [Transcriber].
type Option func(*Transcriber)

// WithLanguage sets the default ISO 639-1 language code. Defaults to "en".
func WithLanguage(lang string) Option {
	return func(t *Transcriber) { t.language = lang }
}

// WithThreads sets the number of CPU threads whisper.cpp may use per
// inference. Zero lets the bindings pick.
func WithThreads(n uint) Option {
	return func(t *Transcriber) { t.threads = n }
}

// New loads the whisper.cpp model from modelPath. The caller must call Close
// when the transcriber is no longer needed.
func New(modelPath string, opts ...Option) (*Transcriber, error) {
	if modelPath == "" {
		return nil, errors.New("whisper: modelPath must not be empty")
	}
	model, err := whisperlib.New(modelPath)
	if err != nil {
		return nil, fmt.Errorf("whisper: load model %q: %w", modelPath, err)
	}

	t := &Transcriber{
		model:    model,
		language: defaultLanguage,
	}
	for _, o := range opts {
		o(t)
	}
	return t, nil
}

// Close releases the whisper model.
func (t *Transcriber) Close() error {
	if t.model != nil {
		return t.model.Close()
	}
	return nil
}

// Transcribe runs whisper.cpp over the samples and converts the segment and
// token stream into the canonical [asr.TranscriptionResult], repaired for
// timestamp monotonicity.
//
// Input at rates other than 16 kHz is resampled before inference, using
// opts.SampleRate as the source rate.
func (t *Transcriber) Transcribe(ctx context.Context, samples []float32, opts asr.Options) (*asr.TranscriptionResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("whisper: %w", err)
	}

	if opts.SampleRate > 0 && opts.SampleRate != whisperSampleRate {
		samples = audio.ResampleMono(samples, opts.SampleRate, whisperSampleRate)
	}

	lang := opts.Language
	if lang == "" {
		lang = t.language
	}

	// Each context is NOT thread-safe, but the model can be shared across
	// goroutines.
	wctx, err := t.model.NewContext()
	if err != nil {
		return nil, fmt.Errorf("whisper: create context: %w: %w", asr.ErrTranscription, err)
	}

	if err := wctx.SetLanguage(lang); err != nil {
		slog.Warn("whisper: failed to set language, using default", "language", lang, "error", err)
	}
	wctx.SetTokenTimestamps(true)
	wctx.SetInitialPrompt(verbatimPrompt)
	if t.threads > 0 {
		wctx.SetThreads(t.threads)
	}

	if err := wctx.Process(samples, nil, nil, nil); err != nil {
		return nil, fmt.Errorf("whisper: process audio: %w: %w", asr.ErrTranscription, err)
	}

	result := &asr.TranscriptionResult{Language: lang}
	for {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("whisper: %w", err)
		}
		seg, err := wctx.NextSegment()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("whisper: read segment: %w: %w", asr.ErrTranscription, err)
		}
		result.Segments = append(result.Segments, convertSegment(seg))
	}

	return asr.Repair(result), nil
}

// convertSegment maps a whisper.cpp segment with token timestamps onto the
// canonical segment shape. Sub-word tokens are merged into words: a token
// that does not begin with a space continues the previous word.
func convertSegment(seg whisperlib.Segment) asr.Segment {
	out := asr.Segment{
		Start: seg.Start.Seconds(),
		End:   seg.End.Seconds(),
		Text:  strings.TrimSpace(seg.Text),
	}

	var cur *asr.WordToken
	var curProbSum float64
	var curTokens int
	flush := func() {
		if cur == nil {
			return
		}
		if curTokens > 0 {
			cur.Confidence = curProbSum / float64(curTokens)
		}
		cur.Word = strings.TrimSpace(cur.Word)
		if cur.Word != "" {
			out.Words = append(out.Words, *cur)
		}
		cur, curProbSum, curTokens = nil, 0, 0
	}

	for _, tok := range seg.Tokens {
		text := tok.Text
		// Special tokens like [_BEG_] carry no speech.
		if strings.HasPrefix(text, "[_") || strings.HasPrefix(text, "<|") {
			continue
		}
		startsWord := strings.HasPrefix(text, " ") || cur == nil
		if startsWord {
			flush()
			cur = &asr.WordToken{
				Word:  text,
				Start: tok.Start.Seconds(),
				End:   tok.End.Seconds(),
			}
		} else {
			cur.Word += text
			cur.End = tok.End.Seconds()
		}
		curProbSum += float64(tok.P)
		curTokens++
	}
	flush()

	return out
}
