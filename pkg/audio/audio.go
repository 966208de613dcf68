// Package audio provides the audio probe and PCM decoding used by the
// evaluation pipeline.
//
// A [Ref] is an opaque handle to one audio resource: its path, sample rate,
// channel layout, and duration. Refs are created once per request by [Probe]
// and are immutable afterwards. Decoding to mono float32 samples is deferred
// to [Ref.Samples] so that requests which never touch acoustic features do
// not pay for a full decode.
package audio

import (
	"errors"
	"fmt"
)

// ErrUnsupportedFormat is returned by [Probe] when the file is neither a
// readable WAV nor a readable MP3.
var ErrUnsupportedFormat = errors.New("audio: unsupported format")

// Format identifies the container format detected by [Probe].
type Format string

const (
	FormatWAV Format = "wav"
	FormatMP3 Format = "mp3"
)

// Ref is an immutable handle to a probed audio resource.
type Ref struct {
	// Path is the filesystem location of the audio file.
	Path string

	// Format is the detected container format.
	Format Format

	// SampleRate is the sample rate in Hz. Always ≥ 8000 for files accepted
	// by [Probe].
	SampleRate int

	// Channels is the channel count of the source file. Decoding via
	// [Ref.Samples] always downmixes to mono.
	Channels int

	// Duration is the audio length in seconds. Zero when the probe could
	// determine the format but not the length; callers treat zero duration
	// as a degraded input rather than an error.
	Duration float64
}

// Probe inspects the audio file at path and returns a [Ref].
//
// It attempts a cheap header read first (RIFF/WAVE chunk walk, MP3 frame
// sync) and falls back to decoding frames when the header alone cannot
// determine the duration. Returns [ErrUnsupportedFormat] when the file
// matches no known container, or a wrapped I/O error.
func Probe(path string) (*Ref, error) {
	ref, err := probeWAV(path)
	if err == nil {
		return ref, nil
	}
	if !errors.Is(err, errNotWAV) {
		return nil, fmt.Errorf("audio: probe %q: %w", path, err)
	}

	ref, err = probeMP3(path)
	if err == nil {
		return ref, nil
	}
	if !errors.Is(err, errNotMP3) {
		return nil, fmt.Errorf("audio: probe %q: %w", path, err)
	}

	return nil, fmt.Errorf("audio: probe %q: %w", path, ErrUnsupportedFormat)
}

// Samples decodes the referenced file to mono float32 samples in [-1, 1]
// at the file's native sample rate. Stereo sources are downmixed by
// averaging channels, matching what the transcriber expects.
func (r *Ref) Samples() ([]float32, error) {
	switch r.Format {
	case FormatWAV:
		return decodeWAV(r.Path)
	case FormatMP3:
		return decodeMP3(r.Path)
	default:
		return nil, fmt.Errorf("audio: decode %q: %w", r.Path, ErrUnsupportedFormat)
	}
}
