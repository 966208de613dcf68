package audio

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/hajimehoshi/go-mp3"
)

var errNotMP3 = errors.New("not an mp3 file")

func probeMP3(path string) (*Ref, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	dec, err := mp3.NewDecoder(f)
	if err != nil {
		return nil, errNotMP3
	}

	// go-mp3 always decodes to 16-bit interleaved stereo, so Length is
	// 4 bytes per frame.
	frames := dec.Length() / 4
	sr := dec.SampleRate()
	if sr < 8000 {
		return nil, fmt.Errorf("mp3: sample rate %d below minimum 8000", sr)
	}

	return &Ref{
		Path:       path,
		Format:     FormatMP3,
		SampleRate: sr,
		Channels:   2,
		Duration:   float64(frames) / float64(sr),
	}, nil
}

func decodeMP3(path string) ([]float32, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("audio: decode mp3: %w", err)
	}
	defer f.Close()

	dec, err := mp3.NewDecoder(f)
	if err != nil {
		return nil, fmt.Errorf("audio: decode mp3 %q: %w", path, err)
	}

	pcm, err := io.ReadAll(dec)
	if err != nil {
		return nil, fmt.Errorf("audio: decode mp3 %q: %w", path, err)
	}
	return pcm16ToFloat32Mono(pcm, 2), nil
}
