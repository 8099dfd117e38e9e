package features_test

import (
	"math"
	"testing"

	"spectralveil/features"
)

func sineWave(freq float64, sampleRate, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.Sin(2 * math.Pi * freq * float64(i) / float64(sampleRate))
	}
	return out
}

func TestExtractRejectsShortSignal(t *testing.T) {
	_, err := features.Extract(make([]float64, 10), 44100)
	if err == nil {
		t.Fatal("expected error for signal shorter than one analysis frame")
	}
}

func TestExtractProducesConsistentFrameCounts(t *testing.T) {
	sampleRate := 44100
	f, err := features.Extract(sineWave(440, sampleRate, sampleRate), sampleRate)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(f.MFCC) != f.FrameCount {
		t.Errorf("len(MFCC) = %d, want %d", len(f.MFCC), f.FrameCount)
	}
	if len(f.Chroma) != f.FrameCount {
		t.Errorf("len(Chroma) = %d, want %d", len(f.Chroma), f.FrameCount)
	}
	for _, row := range f.MFCC {
		if len(row) != features.NMFCC {
			t.Fatalf("MFCC row length = %d, want %d", len(row), features.NMFCC)
		}
	}
	for _, row := range f.Chroma {
		if len(row) != features.NChroma {
			t.Fatalf("Chroma row length = %d, want %d", len(row), features.NChroma)
		}
	}
}

func TestPitchTracksSineTone(t *testing.T) {
	sampleRate := 44100
	pitch := features.Pitch(sineWave(220, sampleRate, sampleRate), sampleRate, features.NFFT, features.Hop)
	var voiced int
	for _, p := range pitch {
		if p > 0 {
			voiced++
			if math.Abs(p-220) > 10 {
				t.Errorf("pitch estimate %v far from 220Hz", p)
			}
		}
	}
	if voiced == 0 {
		t.Fatal("expected at least one voiced frame for a pure 220Hz tone")
	}
}

func TestTempoZeroOnSilence(t *testing.T) {
	silence := make([]float64, 44100)
	f, err := features.Extract(silence, 44100)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if f.TempoBPM != 0 {
		t.Errorf("TempoBPM = %v on silence, want 0", f.TempoBPM)
	}
}

func TestChromaRowsSumToOneWhenVoiced(t *testing.T) {
	sampleRate := 44100
	f, err := features.Extract(sineWave(440, sampleRate, sampleRate), sampleRate)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	for _, row := range f.Chroma {
		var sum float64
		for _, v := range row {
			sum += v
		}
		if sum > 1e-10 && math.Abs(sum-1) > 1e-6 {
			t.Errorf("chroma row sums to %v, want 1", sum)
		}
	}
}
