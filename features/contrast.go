package features

import (
	"math"
	"sort"

	"spectralveil/dsp"
)

// contrastBands are the fixed octave-ish sub-bands spectral contrast is
// measured across, loosely following the six-band split the teacher's
// core/spectrogram.go ExtractPeaks uses for its fixed frequency bands.
var contrastBands = []struct{ LoHz, HiHz float64 }{
	{LoHz: 0, HiHz: 200},
	{LoHz: 200, HiHz: 400},
	{LoHz: 400, HiHz: 800},
	{LoHz: 800, HiHz: 1600},
	{LoHz: 1600, HiHz: 3200},
	{LoHz: 3200, HiHz: 8000},
}

// Contrast computes, per frame and per sub-band, the log-ratio between the
// loudest and quietest quantile of bins in that sub-band - a measure of how
// "peaky" versus "flat" the spectrum is in that range.
func Contrast(mag [][]float64, binHz []float64) [][]float64 {
	type binRange struct{ lo, hi int }
	ranges := make([]binRange, len(contrastBands))
	for i, r := range contrastBands {
		lo, hi, ok := dsp.BinRange(binHz, r.LoHz, r.HiHz)
		if !ok {
			lo, hi = 0, 0
		}
		ranges[i] = binRange{lo, hi}
	}

	out := make([][]float64, len(mag))
	for t, frame := range mag {
		row := make([]float64, len(ranges))
		for i, r := range ranges {
			row[i] = bandContrast(frame[r.lo:r.hi])
		}
		out[t] = row
	}
	return out
}

func bandContrast(vals []float64) float64 {
	if len(vals) < 4 {
		return 0
	}
	sorted := append([]float64(nil), vals...)
	sort.Float64s(sorted)
	q := len(sorted) / 5
	if q == 0 {
		q = 1
	}
	var peak, valley float64
	for _, v := range sorted[len(sorted)-q:] {
		peak += v
	}
	peak /= float64(q)
	for _, v := range sorted[:q] {
		valley += v
	}
	valley /= float64(q)
	return dbSpan(peak, valley)
}

func dbSpan(peak, valley float64) float64 {
	const floor = 1e-10
	if peak < floor {
		peak = floor
	}
	if valley < floor {
		valley = floor
	}
	return 20 * math.Log10(peak/valley)
}
