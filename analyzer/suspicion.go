package analyzer

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"spectralveil/bands"
	"spectralveil/dsp"
	"spectralveil/features"
)

func clip01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// normalizationSuspicion peaks at ratio 0.15 (the center of the clean zone)
// and falls off linearly to 0 at its edges, following the same "distance
// from the historical baseline ratio" logic the original script's
// closeness-to-0.18 framing used, recentered on the clean zone midpoint.
func normalizationSuspicion(ratio float64) float64 {
	const (
		lo     = 0.12
		center = 0.15
		hi     = 0.18
	)
	switch {
	case ratio < lo:
		return 0.8
	case ratio <= center:
		return (ratio - lo) / (center - lo)
	case ratio <= hi:
		return (hi - ratio) / (hi - center)
	default:
		return 0
	}
}

// ditheringSuspicion fits a log-log slope to the combined reference and
// watermark band magnitudes; a slope near -1 (1/f, pink-noise-like) across a
// band that should otherwise show a natural rolloff is a sign of injected
// dither noise.
func ditheringSuspicion(mag [][]float64, binHz []float64) float64 {
	lo, hi, ok := dsp.BinRange(binHz, bands.Reference.LoHz, bands.Watermark.HiHz)
	if !ok || hi-lo < 3 {
		return 0
	}
	var logF, logM []float64
	for b := lo; b < hi; b++ {
		if binHz[b] <= 0 {
			continue
		}
		m := bands.Mean(mag, b, b+1)
		if m < 1e-10 {
			continue
		}
		logF = append(logF, math.Log10(binHz[b]))
		logM = append(logM, math.Log10(m))
	}
	if len(logF) < 3 {
		return 0
	}
	_, slope := stat.LinearRegression(logF, logM, nil, false)
	return clip01(1 - 2*math.Abs(slope+1))
}

// filterArtifactSuspicion compares the 15-17kHz and 17-18kHz energy to the
// sub-15kHz baseline: a sharp dropoff right at the reference band's upper
// edge suggests a brick-wall filter was used during watermark removal,
// grounded on haustorium's detectBrickWall band-ratio approach.
func filterArtifactSuspicion(mag [][]float64, binHz []float64) float64 {
	baseLo, baseHi, ok := dsp.BinRange(binHz, 0, 15000)
	if !ok {
		return 0
	}
	baseline := bands.Mean(mag, baseLo, baseHi)
	if baseline < 1e-10 {
		return 0
	}
	r1Lo, r1Hi, ok1 := dsp.BinRange(binHz, 15000, 17000)
	r2Lo, r2Hi, ok2 := dsp.BinRange(binHz, 17000, 18000)
	if !ok1 || !ok2 {
		return 0
	}
	ratio1517 := bands.Mean(mag, r1Lo, r1Hi) / baseline
	ratio1718 := bands.Mean(mag, r2Lo, r2Hi) / baseline

	switch {
	case ratio1517 < 0.3 && ratio1718 < 0.1:
		return 0.8
	case ratio1517 < 0.5:
		return 0.5
	default:
		return 0
	}
}

// energySuspicion treats the raw watermark/reference ratio as pressure
// toward the watermarked verdict threshold.
func energySuspicion(ratio float64) float64 {
	return clip01(ratio / 0.35)
}

// phaseCoherence returns the mean, over frames, of 1/(1+variance) of the
// phase values within [lo, hi) - a measure of how consistent phase is across
// frequency within a band. Natural audio shows low variance (coherent
// harmonic structure); deliberate phase randomization raises it.
func phaseCoherence(phase [][]float64, lo, hi int) float64 {
	if lo >= hi || len(phase) == 0 {
		return 1
	}
	var sumCoherence float64
	for _, frame := range phase {
		slice := frame[lo:hi]
		v := stat.Variance(slice, nil)
		sumCoherence += 1 / (1 + v)
	}
	return sumCoherence / float64(len(phase))
}

func mfccSuspicion(mfcc [][]float64) float64 {
	if len(mfcc) < 2 {
		return 0
	}
	n := len(mfcc[0])
	var totalVar float64
	for c := 0; c < n; c++ {
		col := make([]float64, len(mfcc))
		for t, row := range mfcc {
			col[t] = row[c]
		}
		totalVar += stat.Variance(col, nil)
	}
	meanVar := totalVar / float64(n)
	if meanVar >= 10 {
		return 0
	}
	return clip01(1 - meanVar/10)
}

func chromaSuspicion(chroma [][]float64) float64 {
	if len(chroma) < 2 {
		return 0
	}
	n := len(chroma[0])
	var totalStd float64
	for c := 0; c < n; c++ {
		col := make([]float64, len(chroma))
		for t, row := range chroma {
			col[t] = row[c]
		}
		totalStd += stat.StdDev(col, nil)
	}
	meanStd := totalStd / float64(n)
	if meanStd >= 0.1 {
		return 0
	}
	return clip01(1 - meanStd/0.1)
}

func contrastSuspicion(contrast [][]float64) float64 {
	if len(contrast) == 0 {
		return 0
	}
	var flat []float64
	for _, row := range contrast {
		flat = append(flat, row...)
	}
	mean := stat.Mean(flat, nil)
	std := stat.StdDev(flat, nil)
	switch {
	case mean < 5 || mean > 20:
		return 0.5
	case std < 2:
		return 0.3
	default:
		return 0
	}
}

func pitchSuspicion(pitch []float64) float64 {
	variance, voiced := features.PitchVariance(pitch)
	if voiced < 2 {
		return 0
	}
	if variance >= 400 {
		return 0
	}
	return clip01(1 - variance/400)
}

func tempoSuspicion(tempoBPM float64) float64 {
	if tempoBPM <= 0 {
		return 0
	}
	if features.NearestWholeBPMDistance(tempoBPM) < 0.5 {
		return 0.2
	}
	return 0
}

func spectralSuspicion(centroid, bandwidth []float64) float64 {
	c := 0.0
	if len(centroid) >= 2 {
		std := stat.StdDev(centroid, nil)
		if std < 500 {
			c = clip01(1 - std/500)
		}
	}
	b := 0.0
	if len(bandwidth) >= 2 {
		std := stat.StdDev(bandwidth, nil)
		if std < 1000 {
			b = clip01(1 - std/1000)
		}
	}
	return (c + b) / 2
}
