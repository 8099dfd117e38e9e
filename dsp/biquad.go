package dsp

import "math"

// biquad is a Direct Form I second-order IIR section using the Audio EQ
// Cookbook (Robert Bristow-Johnson) coefficient formulas, the same formulas
// tts-radio's lowpassBiquad/highpassBiquad use. No packaged Butterworth
// design library turned up anywhere in the reference corpus, so this stays
// hand-rolled rather than reaching for a dependency that doesn't exist.
type biquad struct {
	b0, b1, b2, a1, a2 float64
	x1, x2, y1, y2     float64
}

func lowpassBiquad(sampleRate int, cutoffHz float64) biquad {
	w0 := 2 * math.Pi * cutoffHz / float64(sampleRate)
	sinW0, cosW0 := math.Sin(w0), math.Cos(w0)
	alpha := sinW0 / math.Sqrt2 // Q = 1/sqrt(2), maximally flat (Butterworth)

	b0 := (1 - cosW0) / 2
	b1 := 1 - cosW0
	b2 := (1 - cosW0) / 2
	a0 := 1 + alpha
	a1 := -2 * cosW0
	a2 := 1 - alpha

	return biquad{
		b0: b0 / a0,
		b1: b1 / a0,
		b2: b2 / a0,
		a1: a1 / a0,
		a2: a2 / a0,
	}
}

func (f *biquad) process(x float64) float64 {
	y := f.b0*x + f.b1*f.x1 + f.b2*f.x2 - f.a1*f.y1 - f.a2*f.y2
	f.x2, f.x1 = f.x1, x
	f.y2, f.y1 = f.y1, y
	return y
}

// ButterworthLowpass4 applies a 4th-order (two cascaded 2nd-order) Butterworth
// low-pass, used by Rewriter Stage 1 as the safety filter that follows
// selective bin suppression.
func ButterworthLowpass4(samples []float64, sampleRate int, cutoffHz float64) []float64 {
	stage1 := lowpassBiquad(sampleRate, cutoffHz)
	stage2 := lowpassBiquad(sampleRate, cutoffHz)
	out := make([]float64, len(samples))
	for i, x := range samples {
		y := stage1.process(x)
		y = stage2.process(y)
		out[i] = y
	}
	return out
}
