package features

import (
	"context"
	"math"
	"sort"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/stat"
)

func hannWindow(size int) []float64 {
	w := make([]float64, size)
	for i := range w {
		w[i] = 0.5 * (1 - math.Cos(2*math.Pi*float64(i)/float64(size-1)))
	}
	return w
}

// frameAt copies one windowed frame into dst (length >= WinLength),
// zero-padding past the end of samples.
func frameAt(dst []float64, samples []float32, start int, window []float64) {
	for i := range dst {
		dst[i] = 0
	}
	for i, w := range window {
		idx := start + i
		if idx >= 0 && idx < len(samples) {
			dst[i] = float64(samples[idx]) * w
		}
	}
}

// computePitch estimates F0 per frame by normalized autocorrelation over
// the configured lag range. Frames with low energy or a weak correlation
// peak are marked unvoiced (0).
func computePitch(ctx context.Context, samples []float32, cfg Config) ([]float64, error) {
	n := numFrames(len(samples), cfg)
	pitch := make([]float64, n)

	minLag := int(float64(cfg.SampleRate) / cfg.PitchMax)
	maxLag := int(float64(cfg.SampleRate) / cfg.PitchMin)
	if maxLag >= cfg.WinLength {
		maxLag = cfg.WinLength - 1
	}
	if minLag < 1 {
		minLag = 1
	}

	frame := make([]float64, cfg.WinLength)
	for f := 0; f < n; f++ {
		if err := checkCtx(ctx, f); err != nil {
			return nil, err
		}
		start := f * cfg.HopLength
		for i := range frame {
			idx := start + i
			if idx < len(samples) {
				frame[i] = float64(samples[idx])
			} else {
				frame[i] = 0
			}
		}

		var energy float64
		for _, s := range frame {
			energy += s * s
		}
		if energy < 1e-6 {
			continue // silence stays unvoiced
		}

		bestLag, bestCorr := 0, 0.0
		for lag := minLag; lag <= maxLag; lag++ {
			var corr float64
			for i := 0; i+lag < len(frame); i++ {
				corr += frame[i] * frame[i+lag]
			}
			corr /= energy
			if corr > bestCorr {
				bestCorr = corr
				bestLag = lag
			}
		}
		if bestLag > 0 && bestCorr > 0.3 {
			pitch[f] = float64(cfg.SampleRate) / float64(bestLag)
		}
	}
	return pitch, nil
}

// computeIntensity returns per-frame RMS in dB relative to full scale,
// floored at -80 dB.
func computeIntensity(ctx context.Context, samples []float32, cfg Config) ([]float64, error) {
	n := numFrames(len(samples), cfg)
	out := make([]float64, n)
	for f := 0; f < n; f++ {
		if err := checkCtx(ctx, f); err != nil {
			return nil, err
		}
		start := f * cfg.HopLength
		var sum float64
		count := 0
		for i := 0; i < cfg.WinLength; i++ {
			idx := start + i
			if idx >= len(samples) {
				break
			}
			s := float64(samples[idx])
			sum += s * s
			count++
		}
		rms := 0.0
		if count > 0 {
			rms = math.Sqrt(sum / float64(count))
		}
		db := -80.0
		if rms > 1e-4 {
			db = 20 * math.Log10(rms)
		}
		out[f] = db
	}
	return out, nil
}

func computeSpectral(ctx context.Context, samples []float32, cfg Config) (*Spectral, error) {
	n := numFrames(len(samples), cfg)
	sp := &Spectral{
		Centroid:  make([]float64, n),
		Bandwidth: make([]float64, n),
		ZCR:       make([]float64, n),
	}

	fft := fourier.NewFFT(cfg.NFFT)
	window := hannWindow(cfg.WinLength)
	frame := make([]float64, cfg.NFFT)
	numBins := cfg.NFFT/2 + 1
	binHz := float64(cfg.SampleRate) / float64(cfg.NFFT)

	for f := 0; f < n; f++ {
		if err := checkCtx(ctx, f); err != nil {
			return nil, err
		}
		start := f * cfg.HopLength
		frameAt(frame, samples, start, window)

		// Zero-crossing rate from the raw frame.
		crossings := 0
		total := 0
		for i := 1; i < cfg.WinLength; i++ {
			idx := start + i
			if idx >= len(samples) {
				break
			}
			if (samples[idx-1] >= 0) != (samples[idx] >= 0) {
				crossings++
			}
			total++
		}
		if total > 0 {
			sp.ZCR[f] = float64(crossings) / float64(total)
		}

		coeffs := fft.Coefficients(nil, frame)
		var magSum, weighted float64
		mags := make([]float64, numBins)
		for k := 0; k < numBins; k++ {
			m := math.Hypot(real(coeffs[k]), imag(coeffs[k]))
			mags[k] = m
			magSum += m
			weighted += m * float64(k) * binHz
		}
		if magSum < 1e-12 {
			continue
		}
		centroid := weighted / magSum
		sp.Centroid[f] = centroid

		var spread float64
		for k := 0; k < numBins; k++ {
			d := float64(k)*binHz - centroid
			spread += mags[k] * d * d
		}
		sp.Bandwidth[f] = math.Sqrt(spread / magSum)
	}
	return sp, nil
}

// computeOnsets builds a spectral-flux onset envelope and picks peaks that
// rise above the local mean by a fixed delta.
func computeOnsets(ctx context.Context, samples []float32, cfg Config) (*Onsets, error) {
	n := numFrames(len(samples), cfg)
	strength := make([]float64, n)

	fft := fourier.NewFFT(cfg.NFFT)
	window := hannWindow(cfg.WinLength)
	frame := make([]float64, cfg.NFFT)
	numBins := cfg.NFFT/2 + 1
	prev := make([]float64, numBins)

	for f := 0; f < n; f++ {
		if err := checkCtx(ctx, f); err != nil {
			return nil, err
		}
		frameAt(frame, samples, f*cfg.HopLength, window)
		coeffs := fft.Coefficients(nil, frame)

		var flux float64
		for k := 0; k < numBins; k++ {
			m := math.Hypot(real(coeffs[k]), imag(coeffs[k]))
			if d := m - prev[k]; d > 0 {
				flux += d
			}
			prev[k] = m
		}
		strength[f] = flux
	}

	return &Onsets{Strength: strength, Frames: pickPeaks(strength)}, nil
}

// pickPeaks marks local maxima that exceed the envelope mean plus one
// standard deviation, with a minimum spacing of three frames.
func pickPeaks(env []float64) []int {
	if len(env) < 3 {
		return nil
	}
	mean, std := stat.MeanStdDev(env, nil)
	if math.IsNaN(std) {
		std = 0
	}
	threshold := mean + std

	var peaks []int
	last := -4
	for i := 1; i < len(env)-1; i++ {
		if env[i] < threshold {
			continue
		}
		if env[i] >= env[i-1] && env[i] > env[i+1] && i-last >= 3 {
			peaks = append(peaks, i)
			last = i
		}
	}
	return peaks
}

// MedianFilter smooths values with a centered window of odd width,
// replicating edges. Used to stabilize pitch contours before band
// classification.
func MedianFilter(values []float64, width int) []float64 {
	if width < 3 || width%2 == 0 || len(values) == 0 {
		out := make([]float64, len(values))
		copy(out, values)
		return out
	}
	half := width / 2
	out := make([]float64, len(values))
	buf := make([]float64, 0, width)
	for i := range values {
		buf = buf[:0]
		for j := i - half; j <= i+half; j++ {
			k := j
			if k < 0 {
				k = 0
			}
			if k >= len(values) {
				k = len(values) - 1
			}
			buf = append(buf, values[k])
		}
		sort.Float64s(buf)
		out[i] = buf[len(buf)/2]
	}
	return out
}

func numFrames(sampleCount int, cfg Config) int {
	if sampleCount < cfg.WinLength {
		if sampleCount == 0 {
			return 0
		}
		return 1
	}
	return (sampleCount-cfg.WinLength)/cfg.HopLength + 1
}
