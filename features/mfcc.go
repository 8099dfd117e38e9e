// Package features implements the Feature Extractor: MFCCs, chroma,
// spectral contrast, spectral moments, pitch, and tempo, all computed from
// the same magnitude spectrogram so the Analyzer can judge whether the
// audio's musical structure still looks natural. The mel filterbank and
// MFCC pipeline are grounded on cvoalex's mel.Processor (buildMelBasis,
// freqToMel/melToFreq, LinearToMel), swapping its DCT-free "normalized mel
// band" output for a proper DCT-II so the result is a compact MFCC vector
// rather than a mel spectrogram image.
package features

import (
	"math"

	"gonum.org/v1/gonum/dsp/fourier"
)

const (
	// NMFCC is the number of cepstral coefficients kept per frame, the
	// conventional speech/music analysis default.
	NMFCC = 13
	// NMels is the number of triangular mel filters in the filterbank.
	NMels = 26
)

func freqToMel(freq float64) float64 {
	return 2595.0 * math.Log10(1.0+freq/700.0)
}

func melToFreq(mel float64) float64 {
	return 700.0 * (math.Pow(10.0, mel/2595.0) - 1.0)
}

// melFilterbank builds an NMels x nBins triangular filterbank spanning
// [fMin, fMax], the same left/center/right triangle construction
// buildMelBasis uses.
func melFilterbank(sampleRate, nFFT int, fMin, fMax float64, nMels int) [][]float64 {
	nBins := nFFT/2 + 1
	binHz := make([]float64, nBins)
	for i := range binHz {
		binHz[i] = float64(i) * float64(sampleRate) / float64(nFFT)
	}

	melMin, melMax := freqToMel(fMin), freqToMel(fMax)
	points := make([]float64, nMels+2)
	for i := range points {
		points[i] = melMin + (melMax-melMin)*float64(i)/float64(nMels+1)
	}
	freqPoints := make([]float64, len(points))
	for i, m := range points {
		freqPoints[i] = melToFreq(m)
	}

	bank := make([][]float64, nMels)
	for m := range bank {
		row := make([]float64, nBins)
		left, center, right := freqPoints[m], freqPoints[m+1], freqPoints[m+2]
		for b, f := range binHz {
			switch {
			case f >= left && f <= center && center > left:
				row[b] = (f - left) / (center - left)
			case f >= center && f <= right && right > center:
				row[b] = (right - f) / (right - center)
			}
		}
		enorm := 2.0 / (right - left)
		if right > left {
			for b := range row {
				row[b] *= enorm
			}
		}
		bank[m] = row
	}
	return bank
}

// MFCC computes the 13-dimensional MFCC vector for every frame of mag, a
// [frame][bin] magnitude spectrogram.
func MFCC(mag [][]float64, sampleRate, nFFT int) [][]float64 {
	if len(mag) == 0 {
		return nil
	}
	bank := melFilterbank(sampleRate, nFFT, 20, math.Min(8000, float64(sampleRate)/2-1), NMels)
	dct := fourier.NewDCT(NMels)

	out := make([][]float64, len(mag))
	melEnergies := make([]float64, NMels)
	for t, frame := range mag {
		for m, filt := range bank {
			var sum float64
			for b, w := range filt {
				if w != 0 {
					sum += w * frame[b]
				}
			}
			melEnergies[m] = math.Log(math.Max(sum, 1e-10))
		}
		coeffs := dct.Transform(nil, melEnergies)
		row := make([]float64, NMFCC)
		copy(row, coeffs[:NMFCC])
		out[t] = row
	}
	return out
}
