package analyzer_test

import (
	"bytes"
	"math"
	"math/rand"
	"testing"

	"spectralveil/analyzer"
	"spectralveil/signal"
)

func whiteNoise(n int, seed int64) []float64 {
	rng := rand.New(rand.NewSource(seed))
	out := make([]float64, n)
	for i := range out {
		out[i] = rng.Float64()*2 - 1
	}
	return out
}

func toneAt(freq float64, sampleRate, n int, amp float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = amp * math.Sin(2*math.Pi*freq*float64(i)/float64(sampleRate))
	}
	return out
}

func TestAnalyzeRejectsLowSampleRate(t *testing.T) {
	sig, _ := signal.New(16000, whiteNoise(16000, 1))
	_, err := analyzer.Analyze(sig, analyzer.Options{})
	if err == nil {
		t.Fatal("expected error: watermark band unavailable with Nyquist below 18kHz")
	}
}

func TestAnalyzeFlagsStrongWatermarkBand(t *testing.T) {
	sampleRate := 44100
	n := sampleRate * 2
	samples := whiteNoise(n, 2)
	// inject a strong 20kHz tone relative to the 14-18kHz reference band
	watermark := toneAt(20000, sampleRate, n, 0.8)
	for i := range samples {
		samples[i] = samples[i]*0.05 + watermark[i]
	}
	sig, _ := signal.New(sampleRate, samples)
	report, err := analyzer.Analyze(sig, analyzer.Options{})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if report.Ratio <= 0.35 {
		t.Errorf("Ratio = %v, want > 0.35 for a dominant watermark-band tone", report.Ratio)
	}
}

func TestAnalyzeCombinedSuspicionBounded(t *testing.T) {
	sampleRate := 44100
	sig, _ := signal.New(sampleRate, whiteNoise(sampleRate, 3))
	report, err := analyzer.Analyze(sig, analyzer.Options{})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if report.CombinedSuspicion < 0 || report.CombinedSuspicion > 1 {
		t.Errorf("CombinedSuspicion = %v, want within [0,1]", report.CombinedSuspicion)
	}
}

func TestEmitWritesValidJSONLine(t *testing.T) {
	sampleRate := 44100
	sig, _ := signal.New(sampleRate, whiteNoise(sampleRate, 4))
	report, err := analyzer.Analyze(sig, analyzer.Options{})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	var buf bytes.Buffer
	if err := report.Emit(&buf); err != nil {
		t.Fatalf("Emit: %v", err)
	}
	if buf.Len() == 0 {
		t.Fatal("Emit wrote no output")
	}
	if buf.Bytes()[buf.Len()-1] != '\n' {
		t.Error("Emit should terminate with a newline for JSON-lines consumers")
	}
}
