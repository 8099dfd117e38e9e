package dsp_test

import (
	"math"
	"testing"

	"spectralveil/dsp"
)

func TestButterworthLowpass4AttenuatesAboveCutoff(t *testing.T) {
	sampleRate := 44100
	n := sampleRate
	highFreq := sineWave(19000, sampleRate, n)
	lowFreq := sineWave(1000, sampleRate, n)

	highOut := dsp.ButterworthLowpass4(highFreq, sampleRate, 18500)
	lowOut := dsp.ButterworthLowpass4(lowFreq, sampleRate, 18500)

	rms := func(xs []float64) float64 {
		var sum float64
		for _, x := range xs[sampleRate/2:] { // settle past filter transient
			sum += x * x
		}
		return math.Sqrt(sum / float64(len(xs)-sampleRate/2))
	}

	highRMS := rms(highOut)
	lowRMS := rms(lowOut)
	if highRMS >= lowRMS*0.5 {
		t.Errorf("19kHz RMS %.4f not sufficiently attenuated relative to passband 1kHz RMS %.4f", highRMS, lowRMS)
	}
}
