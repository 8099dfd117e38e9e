// Package bands implements the Band Accountant: it turns a magnitude
// spectrogram into the watermark/reference/masking band energies and
// per-frame ratios every downstream component (Analyzer, Planner, Rewriter)
// consumes. Grounded on haustorium's bandAverage/calculateBandEnergy, which
// does the same fixed-frequency-range energy accounting for brick-wall and
// hum detection.
package bands

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"spectralveil/dsp"
)

// Range is a half-open frequency interval in Hz.
type Range struct{ LoHz, HiHz float64 }

var (
	// Watermark is the band believed to carry the inaudible tagging signal.
	Watermark = Range{18000, 22000}
	// Reference is the band assumed untouched by watermarking, used as the
	// denominator of the energy ratio and protected by the Reference
	// Preservation invariant.
	Reference = Range{14000, 18000}
	// Masking is the band the Rewriter can raise to disguise watermark-band
	// edits.
	Masking = Range{12000, 14000}
	// MaskingSource is the band natural masking energy is drawn from.
	MaskingSource = Range{8000, 12000}
)

// Thresholds are the ratio cut points the Band Accountant reports frame
// percentages against, carried over unchanged from the original fingerprint
// analyzer's very_low/baseline/elevated/higher/suspicious constants.
var Thresholds = []float64{0.10, 0.18, 0.25, 0.35, 0.50}

// CleanZone is the ratio interval treated as indistinguishable from an
// un-watermarked file.
var CleanZone = Range{0.11, 0.18}

// InZone reports whether ratio falls inside r (inclusive of both ends).
func (r Range) InZone(ratio float64) bool {
	return ratio >= r.LoHz && ratio <= r.HiHz
}

// Bins resolves a frequency Range to a bin index range against a bin table.
func (r Range) Bins(binHz []float64) (lo, hi int, ok bool) {
	return dsp.BinRange(binHz, r.LoHz, r.HiHz)
}

// Mean returns the mean magnitude across every frame and bin in [lo, hi).
// An empty range (lo >= hi) returns 0.
func Mean(mag [][]float64, lo, hi int) float64 {
	if lo >= hi || len(mag) == 0 {
		return 0
	}
	var vals []float64
	for _, frame := range mag {
		vals = append(vals, frame[lo:hi]...)
	}
	if len(vals) == 0 {
		return 0
	}
	return floats.Sum(vals) / float64(len(vals))
}

// FrameRatios returns, for every frame, mean(W)/mean(R) restricted to that
// single frame - the per-frame ratio series the classifier's frame-percentage
// rules operate on.
func FrameRatios(mag [][]float64, wLo, wHi, rLo, rHi int) []float64 {
	out := make([]float64, len(mag))
	for t, frame := range mag {
		w := frameMean(frame, wLo, wHi)
		r := frameMean(frame, rLo, rHi)
		if r < 1e-10 {
			out[t] = 0
			continue
		}
		out[t] = w / r
	}
	return out
}

func frameMean(frame []float64, lo, hi int) float64 {
	if lo >= hi {
		return 0
	}
	return floats.Sum(frame[lo:hi]) / float64(hi-lo)
}

// Summary is the full set of ratio statistics the Band Accountant exposes.
type Summary struct {
	Ratio              float64 // overall mean(W)/mean(R)
	FrameRatios        []float64
	Mean               float64
	Median             float64
	StdDev             float64
	Max                float64
	ThresholdPct       map[float64]float64 // threshold -> percentage of frames exceeding it
	ReferenceNearZero  bool                // mean(R) < 1e-10: ratio is not meaningful
	HasWatermarkRegion bool
	HasReferenceRegion bool
}

// Summarize computes the full Summary for a magnitude spectrogram given its
// per-bin frequency table.
func Summarize(mag [][]float64, binHz []float64) Summary {
	wLo, wHi, wOK := Watermark.Bins(binHz)
	rLo, rHi, rOK := Reference.Bins(binHz)

	sum := Summary{HasWatermarkRegion: wOK, HasReferenceRegion: rOK}
	if !wOK || !rOK {
		return sum
	}

	refMean := Mean(mag, rLo, rHi)
	watMean := Mean(mag, wLo, wHi)
	if refMean < 1e-10 {
		sum.ReferenceNearZero = true
		return sum
	}
	sum.Ratio = watMean / refMean

	ratios := FrameRatios(mag, wLo, wHi, rLo, rHi)
	sum.FrameRatios = ratios

	sorted := append([]float64(nil), ratios...)
	sort.Float64s(sorted)

	sum.Mean = stat.Mean(ratios, nil)
	sum.StdDev = stat.StdDev(ratios, nil)
	sum.Median = stat.Quantile(0.5, stat.Empirical, sorted, nil)
	sum.Max = floats.Max(ratios)

	sum.ThresholdPct = make(map[float64]float64, len(Thresholds))
	for _, th := range Thresholds {
		sum.ThresholdPct[th] = PctAbove(ratios, th)
	}
	return sum
}

// PctAbove returns the percentage (0-100) of ratios strictly greater than
// threshold.
func PctAbove(ratios []float64, threshold float64) float64 {
	if len(ratios) == 0 {
		return 0
	}
	n := 0
	for _, r := range ratios {
		if r > threshold {
			n++
		}
	}
	return 100 * float64(n) / float64(len(ratios))
}

// MaskingMean returns the mean magnitude of the masking band, used by the
// Rewriter to calibrate the natural-masking energy it injects.
func MaskingMean(mag [][]float64, binHz []float64) float64 {
	lo, hi, ok := Masking.Bins(binHz)
	if !ok {
		return 0
	}
	return Mean(mag, lo, hi)
}

// MaskingSourceMean returns the mean magnitude of the source band that
// masking energy is modeled on.
func MaskingSourceMean(mag [][]float64, binHz []float64) float64 {
	lo, hi, ok := MaskingSource.Bins(binHz)
	if !ok {
		return 0
	}
	return Mean(mag, lo, hi)
}

// Spikiness returns variance/mean of the magnitude values in [lo, hi) across
// every frame, the statistic the Planner's minimal-severity smoothing-range
// adjustment reads once from the initial STFT.
func Spikiness(mag [][]float64, lo, hi int) float64 {
	if lo >= hi || len(mag) == 0 {
		return 0
	}
	var vals []float64
	for _, frame := range mag {
		vals = append(vals, frame[lo:hi]...)
	}
	if len(vals) == 0 {
		return 0
	}
	mean := stat.Mean(vals, nil)
	if mean < 1e-10 {
		return 0
	}
	return stat.Variance(vals, nil) / mean
}

// ReferenceFloor computes the reference-band energy floor (0.95 of the
// baseline) that the Reference Preservation invariant must hold above after
// every Rewriter stage.
func ReferenceFloor(baseline float64) float64 {
	return 0.95 * baseline
}

// CorrectiveScale returns the multiplicative factor (capped at 1.5x, per the
// invariant's corrective hook) needed to bring current back up to floor.
func CorrectiveScale(current, floor float64) float64 {
	if current <= 0 {
		return 1.5
	}
	scale := floor / current
	if scale < 1 {
		return 1
	}
	return math.Min(scale, 1.5)
}
