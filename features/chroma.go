package features

import "math"

// NChroma is the number of pitch classes (one per semitone).
const NChroma = 12

// refA4 is the standard concert pitch used to map frequency bins to pitch
// class.
const refA4 = 440.0

func freqToChromaBin(freq float64) int {
	if freq <= 0 {
		return -1
	}
	// semitones relative to A4 (MIDI note 69, pitch class 9)
	semitones := 12 * math.Log2(freq/refA4)
	class := int(math.Round(semitones)) + 9
	class %= 12
	if class < 0 {
		class += 12
	}
	return class
}

// Chroma folds the magnitude spectrum of every frame into a 12-dimensional
// pitch-class energy vector, following the same "sum magnitude into the bin
// whose pitch class it belongs to" approach used throughout the corpus's
// chroma-free spectral tooling, generalized here to an explicit chroma
// vector since the spec calls for one directly.
func Chroma(mag [][]float64, binHz []float64) [][]float64 {
	out := make([][]float64, len(mag))
	classOf := make([]int, len(binHz))
	for b, f := range binHz {
		classOf[b] = freqToChromaBin(f)
	}
	for t, frame := range mag {
		row := make([]float64, NChroma)
		for b, v := range frame {
			c := classOf[b]
			if c >= 0 {
				row[c] += v
			}
		}
		var total float64
		for _, v := range row {
			total += v
		}
		if total > 1e-10 {
			for c := range row {
				row[c] /= total
			}
		}
		out[t] = row
	}
	return out
}
