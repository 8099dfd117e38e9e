package analyzer

import (
	"encoding/json"
	"io"
	"math"
)

// round matches the original script's per-field rounding so emitted reports
// are stable across runs that differ only in floating-point noise.
func round(v float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	return math.Round(v*scale) / scale
}

// rounded returns a copy of the report with every field rounded to the
// precision the original fingerprint analyzer's JSON output used: ratios to
// 4 decimal places, percentages to 2, and suspicion scores to 4.
func (r Report) rounded() Report {
	r.DurationS = round(r.DurationS, 2)
	r.Ratio = round(r.Ratio, 4)
	r.MeanFrameRatio = round(r.MeanFrameRatio, 4)
	r.MedianFrameRatio = round(r.MedianFrameRatio, 4)
	r.MaxFrameRatio = round(r.MaxFrameRatio, 4)
	r.FrameRatioStdDev = round(r.FrameRatioStdDev, 4)
	r.FramesVeryLowPct = round(r.FramesVeryLowPct, 2)
	r.FramesBaselinePct = round(r.FramesBaselinePct, 2)
	r.FramesElevatedPct = round(r.FramesElevatedPct, 2)
	r.FramesHigherPct = round(r.FramesHigherPct, 2)
	r.FramesSuspiciousPct = round(r.FramesSuspiciousPct, 2)
	r.PhaseCoherenceWatermark = round(r.PhaseCoherenceWatermark, 6)
	r.PhaseCoherenceReference = round(r.PhaseCoherenceReference, 6)
	r.NormalizationSuspicion = round(r.NormalizationSuspicion, 4)
	r.DitheringSuspicion = round(r.DitheringSuspicion, 4)
	r.FilterArtifactSuspicion = round(r.FilterArtifactSuspicion, 4)
	r.MFCCSuspicion = round(r.MFCCSuspicion, 4)
	r.ChromaSuspicion = round(r.ChromaSuspicion, 4)
	r.ContrastSuspicion = round(r.ContrastSuspicion, 4)
	r.PitchSuspicion = round(r.PitchSuspicion, 4)
	r.TempoSuspicion = round(r.TempoSuspicion, 4)
	r.SpectralSuspicion = round(r.SpectralSuspicion, 4)
	r.EnergySuspicion = round(r.EnergySuspicion, 4)
	r.CombinedSuspicion = round(r.CombinedSuspicion, 4)
	return r
}

// Emit writes the report as a single JSON line, the wire format callers are
// expected to cache keyed on content hash (see store.Cache).
func (r Report) Emit(w io.Writer) error {
	enc := json.NewEncoder(w)
	return enc.Encode(r.rounded())
}
