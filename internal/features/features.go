// Package features computes the per-frame acoustic features the analyzers
// consume: pitch contour, intensity, MFCCs, zero-crossing rate, spectral
// shape, and onset detection.
//
// All features share one hop grid so frame indices align across feature
// kinds. Computation is lazy: a Loader computes each feature kind on first
// demand, memoizes it, and serves later callers from the cache. Loaders are
// request-scoped and safe for concurrent use; the computed arrays are
// immutable once returned.
package features

import (
	"context"
	"errors"
	"sync"
)

// Config fixes the analysis grid. All frame-indexed features share it.
type Config struct {
	SampleRate int
	HopLength  int // samples between frame starts, usually SampleRate/100
	WinLength  int // analysis window, usually SampleRate/40
	NFFT       int
	NMFCC      int
	NMels      int

	// Pitch search range in Hz. Covers the full speaking range of both
	// the male and female ideal bands with margin.
	PitchMin float64
	PitchMax float64
}

// DefaultConfig returns the standard 10 ms hop / 25 ms window grid.
func DefaultConfig(sampleRate int) Config {
	return Config{
		SampleRate: sampleRate,
		HopLength:  sampleRate / 100,
		WinLength:  sampleRate / 40,
		NFFT:       nextPow2(sampleRate / 40),
		NMFCC:      13,
		NMels:      40,
		PitchMin:   50,
		PitchMax:   500,
	}
}

func nextPow2(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

// Spectral bundles the frame-aligned spectral shape features.
type Spectral struct {
	Centroid  []float64 // Hz
	Bandwidth []float64 // Hz
	ZCR       []float64 // crossings per sample, [0, 1]
}

// Onsets bundles the onset envelope and the picked onset frames.
type Onsets struct {
	Strength []float64
	Frames   []int
}

// ErrNoAudio is returned when a Loader was built without samples.
var ErrNoAudio = errors.New("features: no audio samples")

// Loader lazily computes and memoizes acoustic features for one request.
type Loader struct {
	cfg     Config
	samples []float32

	pitchMemo     memo
	intensityMemo memo
	mfccMemo      memo
	spectralMemo  memo
	onsetMemo     memo

	pitch     []float64
	intensity []float64
	mfcc      [][]float64
	spectral  *Spectral
	onsets    *Onsets
}

// NewLoader wraps mono samples at sampleRate in a lazy feature loader.
func NewLoader(samples []float32, sampleRate int) *Loader {
	return NewLoaderConfig(samples, DefaultConfig(sampleRate))
}

// NewLoaderConfig is NewLoader with an explicit grid configuration.
func NewLoaderConfig(samples []float32, cfg Config) *Loader {
	return &Loader{cfg: cfg, samples: samples}
}

// Config returns the analysis grid shared by every feature kind.
func (l *Loader) Config() Config { return l.cfg }

// NumFrames returns the number of frames on the shared hop grid.
func (l *Loader) NumFrames() int {
	if len(l.samples) < l.cfg.WinLength {
		if len(l.samples) == 0 {
			return 0
		}
		return 1
	}
	return (len(l.samples)-l.cfg.WinLength)/l.cfg.HopLength + 1
}

// FrameToTime converts a frame index to seconds.
func (l *Loader) FrameToTime(frame int) float64 {
	return float64(frame*l.cfg.HopLength) / float64(l.cfg.SampleRate)
}

// FrameDuration returns the hop interval in seconds.
func (l *Loader) FrameDuration() float64 {
	return float64(l.cfg.HopLength) / float64(l.cfg.SampleRate)
}

// Duration returns the audio length in seconds.
func (l *Loader) Duration() float64 {
	return float64(len(l.samples)) / float64(l.cfg.SampleRate)
}

// Pitch returns the per-frame fundamental frequency in Hz. Unvoiced frames
// hold 0.
func (l *Loader) Pitch(ctx context.Context) ([]float64, error) {
	err := l.pitchMemo.do(func() error {
		if len(l.samples) == 0 {
			return ErrNoAudio
		}
		p, err := computePitch(ctx, l.samples, l.cfg)
		l.pitch = p
		return err
	})
	return l.pitch, err
}

// Intensity returns the per-frame RMS energy in dB relative to full scale.
func (l *Loader) Intensity(ctx context.Context) ([]float64, error) {
	err := l.intensityMemo.do(func() error {
		if len(l.samples) == 0 {
			return ErrNoAudio
		}
		in, err := computeIntensity(ctx, l.samples, l.cfg)
		l.intensity = in
		return err
	})
	return l.intensity, err
}

// MFCC returns the cepstral coefficient matrix indexed [coefficient][frame].
func (l *Loader) MFCC(ctx context.Context) ([][]float64, error) {
	err := l.mfccMemo.do(func() error {
		if len(l.samples) == 0 {
			return ErrNoAudio
		}
		m, err := computeMFCC(ctx, l.samples, l.cfg)
		l.mfcc = m
		return err
	})
	return l.mfcc, err
}

// SpectralShape returns the frame-aligned centroid, bandwidth, and
// zero-crossing rate.
func (l *Loader) SpectralShape(ctx context.Context) (*Spectral, error) {
	err := l.spectralMemo.do(func() error {
		if len(l.samples) == 0 {
			return ErrNoAudio
		}
		sp, err := computeSpectral(ctx, l.samples, l.cfg)
		l.spectral = sp
		return err
	})
	return l.spectral, err
}

// OnsetEvents returns the onset strength envelope and picked onset frames.
func (l *Loader) OnsetEvents(ctx context.Context) (*Onsets, error) {
	err := l.onsetMemo.do(func() error {
		if len(l.samples) == 0 {
			return ErrNoAudio
		}
		on, err := computeOnsets(ctx, l.samples, l.cfg)
		l.onsets = on
		return err
	})
	return l.onsets, err
}

// memo runs its function once and replays the result to every caller. The
// computed value lives on the Loader, written inside the guarded call and
// read only after do returns.
//
// A context error is never latched: the budget of the analyzer that
// happened to trigger the computation must not poison the cache for
// analyzers whose own contexts are healthy. The cancelled caller gets the
// error; the next caller recomputes.
type memo struct {
	mu   sync.Mutex
	done bool
	err  error
}

func (m *memo) do(f func() error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.done {
		return m.err
	}
	err := f()
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	m.done = true
	m.err = err
	return err
}

// checkCtx is called between frames so a cancelled analyzer budget stops
// long computations promptly.
func checkCtx(ctx context.Context, frame int) error {
	if frame%64 == 0 {
		return ctx.Err()
	}
	return nil
}
