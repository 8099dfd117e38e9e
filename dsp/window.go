package dsp

import "math"

// HannWindow returns a symmetric Hann window of the given size, the
// same formula the teacher's core/spectrogram.go and every other_examples
// STFT (mixxxlab, cvoalex's mel.Processor) use.
func HannWindow(size int) []float64 {
	w := make([]float64, size)
	if size == 1 {
		w[0] = 1
		return w
	}
	for i := range w {
		w[i] = 0.5 * (1 - math.Cos(2*math.Pi*float64(i)/float64(size-1)))
	}
	return w
}

// BinFrequencies returns the center frequency in Hz of every rFFT bin
// produced by an nFFT-point real transform at the given sample rate.
func BinFrequencies(sampleRate, nFFT int) []float64 {
	n := nFFT/2 + 1
	out := make([]float64, n)
	step := float64(sampleRate) / float64(nFFT)
	for k := range out {
		out[k] = float64(k) * step
	}
	return out
}

// BinRange returns the half-open bin index range [lo, hi) covering
// [loHz, hiHz) given a bin frequency table. ok is false when the range is
// empty (loHz >= Nyquist, or the band falls entirely between two bins).
func BinRange(binHz []float64, loHz, hiHz float64) (lo, hi int, ok bool) {
	n := len(binHz)
	lo = n
	for i, f := range binHz {
		if f >= loHz {
			lo = i
			break
		}
	}
	hi = n
	for i, f := range binHz {
		if f >= hiHz {
			hi = i
			break
		}
	}
	if lo >= hi {
		return lo, hi, false
	}
	return lo, hi, true
}
