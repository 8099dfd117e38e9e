package dsp_test

import (
	"math"
	"testing"

	"spectralveil/dsp"
)

func sineWave(freq float64, sampleRate, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.Sin(2 * math.Pi * freq * float64(i) / float64(sampleRate))
	}
	return out
}

func TestForwardRejectsShortSignal(t *testing.T) {
	_, err := dsp.Forward(make([]float64, 10), 44100, 2048, 512)
	if err == nil {
		t.Fatal("expected error for signal shorter than one frame")
	}
}

func TestForwardBinFrequenciesMatchWindow(t *testing.T) {
	spec, err := dsp.Forward(sineWave(1000, 44100, 44100), 44100, 2048, 512)
	if err != nil {
		t.Fatalf("Forward: %v", err)
	}
	if spec.Bins() != 1025 {
		t.Errorf("Bins() = %d, want 1025", spec.Bins())
	}
	if len(spec.BinHz) != spec.Bins() {
		t.Errorf("BinHz len = %d, want %d", len(spec.BinHz), spec.Bins())
	}
}

func TestForwardFindsDominantBin(t *testing.T) {
	sampleRate, nFFT, hop := 44100, 2048, 512
	spec, err := dsp.Forward(sineWave(5000, sampleRate, sampleRate), sampleRate, nFFT, hop)
	if err != nil {
		t.Fatalf("Forward: %v", err)
	}
	midFrame := spec.Mag[spec.Frames()/2]
	peakBin := 0
	for b, v := range midFrame {
		if v > midFrame[peakBin] {
			peakBin = b
		}
	}
	peakHz := spec.BinHz[peakBin]
	if math.Abs(peakHz-5000) > 50 {
		t.Errorf("dominant bin at %.1fHz, want close to 5000Hz", peakHz)
	}
}

func TestInverseRoundTripPreservesLength(t *testing.T) {
	sampleRate, nFFT, hop := 44100, 2048, 512
	samples := sineWave(440, sampleRate, sampleRate)
	spec, err := dsp.Forward(samples, sampleRate, nFFT, hop)
	if err != nil {
		t.Fatalf("Forward: %v", err)
	}
	recon := spec.Inverse()
	truncated := dsp.PadOrTruncate(recon, len(samples))
	if len(truncated) != len(samples) {
		t.Fatalf("PadOrTruncate length = %d, want %d", len(truncated), len(samples))
	}

	var sumSq, errSq float64
	for i, v := range samples {
		sumSq += v * v
		d := truncated[i] - v
		errSq += d * d
	}
	if errSq > 0.05*sumSq {
		t.Errorf("reconstruction error too large: errSq=%v sumSq=%v", errSq, sumSq)
	}
}

func TestBinRange(t *testing.T) {
	binHz := dsp.BinFrequencies(44100, 2048)
	lo, hi, ok := dsp.BinRange(binHz, 18000, 22000)
	if !ok {
		t.Fatal("expected non-empty bin range for 18-22kHz at 44.1kHz")
	}
	if binHz[lo] < 18000 || (hi < len(binHz) && binHz[hi] < 22000) {
		t.Errorf("bin range [%d,%d) = [%.1f,%.1f) out of expected bounds", lo, hi, binHz[lo], binHz[hi])
	}
}

func TestBinRangeEmptyAboveNyquist(t *testing.T) {
	binHz := dsp.BinFrequencies(22050, 2048) // Nyquist 11025Hz, watermark band entirely above it
	_, _, ok := dsp.BinRange(binHz, 18000, 22000)
	if ok {
		t.Fatal("expected empty bin range above Nyquist")
	}
}
