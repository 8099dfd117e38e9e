// Package analyzer implements the forensic Analyzer: it runs the Spectral
// Frontend and Band Accountant, extracts musical-structure Features, scores
// ten weighted suspicion signals (plus an unweighted tempo score), combines
// the weighted ten, and hands the result
// to the Classifier for a final verdict. Grounded on haustorium's
// internal/audit/spectral.Analyze, which follows the same "compute several
// independent band/statistic scores, weight and sum them" shape for its own
// brick-wall/upsampling/transcode/hum detectors.
package analyzer

import (
	"fmt"

	"spectralveil/bands"
	"spectralveil/classifier"
	"spectralveil/dsp"
	"spectralveil/features"
	"spectralveil/signal"
)

// Options controls how the Spectral Frontend runs.
type Options struct {
	// NFFT and Hop configure the primary STFT resolution. Zero values fall
	// back to the spec's default (2048/512).
	NFFT, Hop int
}

func (o Options) withDefaults() Options {
	if o.NFFT == 0 {
		o.NFFT = 2048
	}
	if o.Hop == 0 {
		o.Hop = 512
	}
	return o
}

// suspicionWeights are the fixed combination weights the original script's
// combined-suspicion formula uses.
var suspicionWeights = struct {
	energy, phase, normalization, dithering, filter float64
	mfcc, chroma, contrast, pitch, spectral          float64
}{
	energy: 0.25, phase: 0.15, normalization: 0.10, dithering: 0.10, filter: 0.08,
	mfcc: 0.12, chroma: 0.08, contrast: 0.05, pitch: 0.05, spectral: 0.04,
}

// Report is the full forensic result of one Analyze call.
type Report struct {
	SampleRate int     `json:"sample_rate"`
	DurationS  float64 `json:"duration_seconds"`

	Ratio               float64 `json:"ratio"`
	MeanFrameRatio      float64 `json:"mean_frame_ratio"`
	MedianFrameRatio    float64 `json:"median_frame_ratio"`
	MaxFrameRatio       float64 `json:"max_frame_ratio"`
	FrameRatioStdDev    float64 `json:"frame_ratio_stddev"`
	FramesVeryLowPct    float64 `json:"frames_very_low_pct"`
	FramesBaselinePct   float64 `json:"frames_baseline_pct"`
	FramesElevatedPct   float64 `json:"frames_elevated_pct"`
	FramesHigherPct     float64 `json:"frames_higher_pct"`
	FramesSuspiciousPct float64 `json:"frames_suspicious_pct"`

	PhaseCoherenceWatermark float64 `json:"phase_coherence_watermark"`
	PhaseCoherenceReference float64 `json:"phase_coherence_reference"`

	NormalizationSuspicion  float64 `json:"normalization_suspicion"`
	DitheringSuspicion      float64 `json:"dithering_suspicion"`
	FilterArtifactSuspicion float64 `json:"filter_artifact_suspicion"`
	MFCCSuspicion           float64 `json:"mfcc_suspicion"`
	ChromaSuspicion         float64 `json:"chroma_suspicion"`
	ContrastSuspicion       float64 `json:"contrast_suspicion"`
	PitchSuspicion          float64 `json:"pitch_suspicion"`
	TempoSuspicion          float64 `json:"tempo_suspicion"`
	SpectralSuspicion       float64 `json:"spectral_suspicion"`
	EnergySuspicion         float64 `json:"energy_suspicion"`
	CombinedSuspicion       float64 `json:"combined_suspicion"`

	Status classifier.Status `json:"status"`
}

// Analyze runs the full pipeline over a (possibly stereo) signal. Stereo
// input is mixed down to mono first, the same readMonoMixed convention
// haustorium's spectral audit uses regardless of source channel count.
func Analyze(sig signal.Signal, opts Options) (Report, error) {
	opts = opts.withDefaults()
	mono := sig.Downmix()

	spec, err := dsp.Forward(mono, sig.SampleRate, opts.NFFT, opts.Hop)
	if err != nil {
		return Report{}, fmt.Errorf("analyzer: %w", err)
	}

	summary := bands.Summarize(spec.Mag, spec.BinHz)
	if !summary.HasWatermarkRegion || !summary.HasReferenceRegion {
		return Report{}, fmt.Errorf("analyzer: sample rate %d too low to carry the watermark band", sig.SampleRate)
	}

	report := Report{
		SampleRate:          sig.SampleRate,
		DurationS:           sig.Duration(),
		Ratio:               summary.Ratio,
		MeanFrameRatio:      summary.Mean,
		MedianFrameRatio:    summary.Median,
		MaxFrameRatio:       summary.Max,
		FrameRatioStdDev:    summary.StdDev,
		FramesElevatedPct:   summary.ThresholdPct[bands.Thresholds[2]],
		FramesHigherPct:     summary.ThresholdPct[bands.Thresholds[3]],
		FramesSuspiciousPct: summary.ThresholdPct[bands.Thresholds[4]],
	}
	if !summary.ReferenceNearZero {
		report.FramesVeryLowPct = 100 - summary.ThresholdPct[bands.Thresholds[0]]
		report.FramesBaselinePct = summary.ThresholdPct[bands.Thresholds[1]]
	}

	wLo, wHi, _ := bands.Watermark.Bins(spec.BinHz)
	rLo, rHi, _ := bands.Reference.Bins(spec.BinHz)
	report.PhaseCoherenceWatermark = phaseCoherence(spec.Phase, wLo, wHi)
	report.PhaseCoherenceReference = phaseCoherence(spec.Phase, rLo, rHi)
	phaseCoherenceRatio := 1.0
	if report.PhaseCoherenceReference > 1e-10 {
		phaseCoherenceRatio = report.PhaseCoherenceWatermark / report.PhaseCoherenceReference
	}

	feats, err := features.Extract(mono, sig.SampleRate)
	if err != nil {
		// Feature extraction degenerates gracefully on very short signals;
		// the spectral metrics above are still meaningful on their own.
		feats = features.Features{}
	}

	report.NormalizationSuspicion = normalizationSuspicion(summary.Ratio)
	report.DitheringSuspicion = ditheringSuspicion(spec.Mag, spec.BinHz)
	report.FilterArtifactSuspicion = filterArtifactSuspicion(spec.Mag, spec.BinHz)
	report.EnergySuspicion = energySuspicion(summary.Ratio)
	report.MFCCSuspicion = mfccSuspicion(feats.MFCC)
	report.ChromaSuspicion = chromaSuspicion(feats.Chroma)
	report.ContrastSuspicion = contrastSuspicion(feats.Contrast)
	report.PitchSuspicion = pitchSuspicion(feats.Pitch)
	report.TempoSuspicion = tempoSuspicion(feats.TempoBPM)
	report.SpectralSuspicion = spectralSuspicion(feats.Centroid, feats.Bandwidth)

	phaseSuspicion := clip01(1 - phaseCoherenceRatio)
	report.CombinedSuspicion = clip01(
		suspicionWeights.energy*report.EnergySuspicion +
			suspicionWeights.phase*phaseSuspicion +
			suspicionWeights.normalization*report.NormalizationSuspicion +
			suspicionWeights.dithering*report.DitheringSuspicion +
			suspicionWeights.filter*report.FilterArtifactSuspicion +
			suspicionWeights.mfcc*report.MFCCSuspicion +
			suspicionWeights.chroma*report.ChromaSuspicion +
			suspicionWeights.contrast*report.ContrastSuspicion +
			suspicionWeights.pitch*report.PitchSuspicion +
			suspicionWeights.spectral*report.SpectralSuspicion,
	)

	report.Status = classifier.Classify(classifier.Input{
		Ratio:             summary.Ratio,
		InCleanZone:       bands.CleanZone.InZone(summary.Ratio),
		FramesElevatedPct: report.FramesElevatedPct,
		FramesHigherPct:   report.FramesHigherPct,
		MaxFrameRatio:     summary.Max,
		MeanFrameRatio:    summary.Mean,
		CombinedSuspicion: report.CombinedSuspicion,
	})

	return report, nil
}
