// Package planner decides how aggressively the Rewriter should treat a
// file, then draws the randomized parameters that stage uses: a target
// ratio, masking strength, phase mix, smoothing range, and masking
// variation. Randomness is drawn from an injected *rand.Rand so callers can
// reproduce a plan deterministically in tests, the same pattern the
// teacher's fingerprinting package uses for its hash-salt parameters, just
// generalized to a full parameter set.
package planner

import (
	"math/rand"

	"spectralveil/bands"
	"spectralveil/dsp"
	"spectralveil/signal"
)

// Severity buckets the Rewriter's aggressiveness.
type Severity string

const (
	SeverityMinimal Severity = "minimal"
	SeverityLight   Severity = "light"
	SeverityMedium  Severity = "medium"
	SeverityHeavy   Severity = "heavy"
)

// severityRange is an inclusive [lo, hi] uniform draw range.
type severityRange struct{ lo, hi float64 }

func (r severityRange) draw(rng *rand.Rand) float64 {
	if r.hi <= r.lo {
		return r.lo
	}
	return r.lo + rng.Float64()*(r.hi-r.lo)
}

// severityParams holds the per-severity draw ranges for every randomized
// plan parameter.
var severityParams = map[Severity]struct {
	targetRatio     severityRange
	maskingStrength severityRange
	phaseMix        severityRange
	smoothingBins   severityRange
	maskingVariance severityRange
}{
	SeverityMinimal: {
		targetRatio:     severityRange{0.14, 0.17}, // case (c) of the minimal sub-cases, see Build
		maskingStrength: severityRange{0.05, 0.15},
		phaseMix:        severityRange{0.0, 0.1},
		smoothingBins:   severityRange{1, 2},
		maskingVariance: severityRange{0.0, 0.1},
	},
	SeverityLight: {
		targetRatio:     severityRange{0.12, 0.16},
		maskingStrength: severityRange{0.15, 0.35},
		phaseMix:        severityRange{0.1, 0.3},
		smoothingBins:   severityRange{2, 3},
		maskingVariance: severityRange{0.1, 0.2},
	},
	SeverityMedium: {
		targetRatio:     severityRange{0.09, 0.13},
		maskingStrength: severityRange{0.35, 0.6},
		phaseMix:        severityRange{0.3, 0.55},
		smoothingBins:   severityRange{3, 4},
		maskingVariance: severityRange{0.2, 0.35},
	},
	SeverityHeavy: {
		targetRatio:     severityRange{0.06, 0.10},
		maskingStrength: severityRange{0.6, 0.9},
		phaseMix:        severityRange{0.55, 0.85},
		smoothingBins:   severityRange{3, 5},
		maskingVariance: severityRange{0.35, 0.55},
	},
}

// minimalFixedTargetRatio is the ρ* forced by minimal sub-case (a): outliers
// get pushed toward the middle of the clean zone rather than drawn randomly.
const minimalFixedTargetRatio = 0.15

// PreAnalysis carries the cheap Band Accountant pre-analysis the Planner
// runs before committing to a severity and a Plan - the same metrics
// Preanalyze computes from a quick n_fft=2048 STFT.
type PreAnalysis struct {
	Ratio            float64
	FrameRatioStdDev float64
	MaxFrameRatio    float64
	MeanFrameRatio   float64
	Spikiness        float64 // variance/mean of watermark-band magnitude
}

// Preanalyze runs the Band Accountant once over sig and reports the metrics
// ClassifySeverity and Build need. It downmixes stereo input to mono first,
// the same convention the Analyzer uses for its own full pass.
func Preanalyze(sig signal.Signal) (PreAnalysis, error) {
	mono := sig.Downmix()
	spec, err := dsp.Forward(mono, sig.SampleRate, 2048, 512)
	if err != nil {
		return PreAnalysis{}, err
	}
	summary := bands.Summarize(spec.Mag, spec.BinHz)
	pre := PreAnalysis{
		Ratio:            summary.Ratio,
		FrameRatioStdDev: summary.StdDev,
		MaxFrameRatio:    summary.Max,
		MeanFrameRatio:   summary.Mean,
	}
	if wLo, wHi, ok := bands.Watermark.Bins(spec.BinHz); ok {
		pre.Spikiness = bands.Spikiness(spec.Mag, wLo, wHi)
	}
	return pre, nil
}

// ClassifySeverity picks a severity bucket from the overall ratio alone,
// using the >0.5 / >0.25 / >0.15 cut points; a ratio above the classifier's
// 0.35 watermarked cut point therefore maps to at least "medium" treatment.
func ClassifySeverity(pre PreAnalysis) Severity {
	switch {
	case pre.Ratio > heavyThreshold:
		return SeverityHeavy
	case pre.Ratio > mediumThreshold:
		return SeverityMedium
	case pre.Ratio > lightThreshold:
		return SeverityLight
	default:
		return SeverityMinimal
	}
}

const (
	heavyThreshold  = 0.5
	mediumThreshold = 0.25
	lightThreshold  = 0.15
)

// minimalCleanCutoff is the ρ below which minimal severity either snaps to
// the clean-zone fix-up target or skips rewriting entirely, per the two
// minimal sub-cases.
const minimalCleanCutoff = 0.12

// suspiciousEnergy mirrors the Classifier's own "suspicious energy" reading
// of a frame-ratio distribution: a wide spread or a handful of very hot
// frames even though the overall ratio looks low.
func suspiciousEnergy(pre PreAnalysis) bool {
	return pre.FrameRatioStdDev > 0.5 || pre.MaxFrameRatio > 10 || pre.MeanFrameRatio > 0.3
}

// Plan is the full set of parameters the Rewriter reads to execute a pass.
type Plan struct {
	Severity        Severity
	Skip            bool // true when the file is already clean; Rewrite must copy input to output unchanged
	TargetRatio     float64
	MaskingStrength float64
	PhaseMix        float64
	SmoothingBins   int
	MaskingVariance float64
}

// Build draws a randomized Plan for the given severity and pre-analysis
// using rng. Passing a rand.New(rand.NewSource(seed)) makes the plan fully
// reproducible.
//
// Minimal severity has three sub-cases (spec.md §4.6): (a) ratio below
// minimalCleanCutoff with suspicious energy forces the target to the
// clean-zone midpoint; (b) ratio below the cutoff with no suspicious energy
// skips rewriting entirely; (c) otherwise the target is drawn from the usual
// minimal range.
func Build(severity Severity, pre PreAnalysis, rng *rand.Rand) Plan {
	if severity == SeverityMinimal && pre.Ratio < minimalCleanCutoff && !suspiciousEnergy(pre) {
		return Plan{Severity: SeverityMinimal, Skip: true}
	}

	p := severityParams[severity]
	plan := Plan{
		Severity:        severity,
		TargetRatio:     p.targetRatio.draw(rng),
		MaskingStrength: p.maskingStrength.draw(rng),
		PhaseMix:        p.phaseMix.draw(rng),
		SmoothingBins:   int(p.smoothingBins.draw(rng) + 0.5),
		MaskingVariance: p.maskingVariance.draw(rng),
	}

	if severity == SeverityMinimal {
		if pre.Ratio < minimalCleanCutoff && suspiciousEnergy(pre) {
			plan.TargetRatio = minimalFixedTargetRatio
		}
		if pre.Spikiness > 0.5 {
			plan.SmoothingBins++
		}
	}

	return plan
}

// TargetsCleanZone reports whether plan is aiming to land the ratio inside
// the clean zone rather than merely lower than it came in - minimal and
// light severities converge there, medium and heavy deliberately undershoot
// it.
func TargetsCleanZone(plan Plan) bool {
	return bands.CleanZone.InZone(plan.TargetRatio)
}

// AdjustForSpikiness narrows the smoothing range when the per-frame ratio
// series is unusually spiky (high variance relative to its mean), since a
// wide moving-average window would otherwise over-smooth a file that is
// mostly clean but has a handful of hot frames.
func AdjustForSpikiness(plan Plan, frameRatioStdDev, frameRatioMean float64) Plan {
	if frameRatioMean <= 0 {
		return plan
	}
	coefficientOfVariation := frameRatioStdDev / frameRatioMean
	if coefficientOfVariation > 1.0 && plan.SmoothingBins > 2 {
		plan.SmoothingBins--
	}
	return plan
}
