package features

import (
	"context"
	"math"

	"gonum.org/v1/gonum/dsp/fourier"
)

// computeMFCC produces the cepstral matrix indexed [coefficient][frame]:
// Hann-windowed power spectra, an HTK mel filterbank, log compression,
// then a type-II DCT keeping the first NMFCC coefficients.
func computeMFCC(ctx context.Context, samples []float32, cfg Config) ([][]float64, error) {
	n := numFrames(len(samples), cfg)
	mfcc := make([][]float64, cfg.NMFCC)
	for c := range mfcc {
		mfcc[c] = make([]float64, n)
	}

	fft := fourier.NewFFT(cfg.NFFT)
	window := hannWindow(cfg.WinLength)
	filters := melFilterbank(cfg.NFFT, cfg.NMels, cfg.SampleRate)
	frame := make([]float64, cfg.NFFT)
	numBins := cfg.NFFT/2 + 1
	power := make([]float64, numBins)
	logMel := make([]float64, cfg.NMels)

	for f := 0; f < n; f++ {
		if err := checkCtx(ctx, f); err != nil {
			return nil, err
		}
		frameAt(frame, samples, f*cfg.HopLength, window)

		coeffs := fft.Coefficients(nil, frame)
		for k := 0; k < numBins; k++ {
			re := real(coeffs[k])
			im := imag(coeffs[k])
			power[k] = re*re + im*im
		}

		for m := 0; m < cfg.NMels; m++ {
			sum := 0.0
			for k, w := range filters[m] {
				sum += power[k] * w
			}
			if sum < 1e-9 {
				sum = 1e-9
			}
			logMel[m] = math.Log(sum)
		}

		for c := 0; c < cfg.NMFCC; c++ {
			var acc float64
			for m := 0; m < cfg.NMels; m++ {
				acc += logMel[m] * math.Cos(math.Pi*float64(c)*(float64(m)+0.5)/float64(cfg.NMels))
			}
			mfcc[c][f] = acc
		}
	}
	return mfcc, nil
}

// melFilterbank builds triangular filters over the HTK mel scale, working
// in Hz rather than bin indices.
func melFilterbank(nFFT, nMels, sampleRate int) [][]float64 {
	hzToMel := func(hz float64) float64 {
		return 2595.0 * math.Log10(1.0+hz/700.0)
	}
	melToHz := func(mel float64) float64 {
		return 700.0 * (math.Pow(10.0, mel/2595.0) - 1.0)
	}

	numBins := nFFT/2 + 1
	fMax := float64(sampleRate) / 2.0

	allFreqs := make([]float64, numBins)
	for i := range allFreqs {
		allFreqs[i] = float64(i) * fMax / float64(numBins-1)
	}

	mMin := hzToMel(0)
	mMax := hzToMel(fMax)
	fPts := make([]float64, nMels+2)
	for i := range fPts {
		mel := mMin + float64(i)*(mMax-mMin)/float64(nMels+1)
		fPts[i] = melToHz(mel)
	}

	fDiff := make([]float64, nMels+1)
	for i := range fDiff {
		fDiff[i] = fPts[i+1] - fPts[i]
	}

	filters := make([][]float64, nMels)
	for m := range filters {
		filters[m] = make([]float64, numBins)
		for k, freq := range allFreqs {
			lower := (freq - fPts[m]) / fDiff[m]
			upper := (fPts[m+2] - freq) / fDiff[m+1]
			val := math.Min(lower, upper)
			if val < 0 {
				val = 0
			}
			filters[m][k] = val
		}
	}
	return filters
}
