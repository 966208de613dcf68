package audio

import (
	"encoding/binary"
	"math"
)

// pcm16ToFloat32Mono downmixes interleaved 16-bit signed little-endian PCM
// to mono float32 by averaging all channels per frame. Samples are
// normalised to [-1.0, 1.0]. A trailing partial frame is ignored.
func pcm16ToFloat32Mono(pcm []byte, channels int) []float32 {
	if channels < 1 {
		channels = 1
	}
	frames := len(pcm) / (2 * channels)
	mono := make([]float32, frames)
	for i := 0; i < frames; i++ {
		var sum float32
		for ch := 0; ch < channels; ch++ {
			idx := (i*channels + ch) * 2
			sample := int16(binary.LittleEndian.Uint16(pcm[idx : idx+2]))
			sum += float32(sample) / 32768.0
		}
		mono[i] = sum / float32(channels)
	}
	return mono
}

// float32LEToMono downmixes interleaved 32-bit IEEE-float little-endian PCM
// to mono. Used for WAVE format tag 3 payloads.
func float32LEToMono(data []byte, channels int) []float32 {
	if channels < 1 {
		channels = 1
	}
	frames := len(data) / (4 * channels)
	mono := make([]float32, frames)
	for i := 0; i < frames; i++ {
		var sum float32
		for ch := 0; ch < channels; ch++ {
			idx := (i*channels + ch) * 4
			bits := binary.LittleEndian.Uint32(data[idx : idx+4])
			sum += math.Float32frombits(bits)
		}
		mono[i] = sum / float32(channels)
	}
	return mono
}

// ResampleMono linearly resamples mono float32 samples from one rate to
// another. Adequate for the 8–48 kHz voice material this pipeline sees;
// the analyzers work on envelopes and statistics, not on phase.
func ResampleMono(in []float32, fromRate, toRate int) []float32 {
	if fromRate == toRate || len(in) == 0 {
		return in
	}
	outLen := int(int64(len(in)) * int64(toRate) / int64(fromRate))
	out := make([]float32, outLen)
	ratio := float64(fromRate) / float64(toRate)
	for i := 0; i < outLen; i++ {
		pos := float64(i) * ratio
		j := int(pos)
		if j >= len(in)-1 {
			out[i] = in[len(in)-1]
			continue
		}
		frac := float32(pos - float64(j))
		out[i] = in[j]*(1-frac) + in[j+1]*frac
	}
	return out
}
