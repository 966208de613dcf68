// Package mock provides a scripted [asr.Transcriber] for tests.
package mock

import (
	"context"
	"sync"

	"orato/pkg/asr"
)

// Transcriber returns a fixed result or error regardless of input. Safe for
// concurrent use.
type Transcriber struct {
	mu sync.Mutex

	// Result is returned (repaired) by Transcribe when Err is nil.
	Result *asr.TranscriptionResult

	// Err, when non-nil, is returned by Transcribe.
	Err error

	// Calls counts Transcribe invocations.
	Calls int
}

var _ asr.Transcriber = (*Transcriber)(nil)

func (m *Transcriber) Transcribe(ctx context.Context, samples []float32, opts asr.Options) (*asr.TranscriptionResult, error) {
	m.mu.Lock()
	m.Calls++
	m.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if m.Err != nil {
		return nil, m.Err
	}
	if m.Result == nil {
		return &asr.TranscriptionResult{}, nil
	}
	// Copy so callers can mutate the returned value safely.
	cp := *m.Result
	cp.Segments = make([]asr.Segment, len(m.Result.Segments))
	copy(cp.Segments, m.Result.Segments)
	return asr.Repair(&cp), nil
}
