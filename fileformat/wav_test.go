package fileformat_test

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"spectralveil/fileformat"
	"spectralveil/signal"
)

func TestSaveLoadRoundTripMono(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tone.wav")

	n := 44100
	samples := make([]float64, n)
	for i := range samples {
		samples[i] = 0.5 * math.Sin(2*math.Pi*440*float64(i)/44100)
	}
	sig, err := signal.New(44100, samples)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if err := fileformat.Save(path, sig); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected file to exist: %v", err)
	}

	loaded, err := fileformat.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.SampleRate != 44100 {
		t.Errorf("SampleRate = %d, want 44100", loaded.SampleRate)
	}
	if !loaded.Mono() {
		t.Fatal("expected mono signal")
	}
	if loaded.Len() != n {
		t.Fatalf("Len() = %d, want %d", loaded.Len(), n)
	}

	var maxErr float64
	for i, v := range loaded.Channels[0] {
		if d := math.Abs(v - samples[i]); d > maxErr {
			maxErr = d
		}
	}
	if maxErr > 0.001 {
		t.Errorf("round-trip error %v exceeds 16-bit quantization tolerance", maxErr)
	}
}

func TestSaveLoadRoundTripStereo(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "stereo.wav")

	n := 1000
	left := make([]float64, n)
	right := make([]float64, n)
	for i := range left {
		left[i] = 0.3
		right[i] = -0.3
	}
	sig, err := signal.New(44100, left, right)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := fileformat.Save(path, sig); err != nil {
		t.Fatalf("Save: %v", err)
	}
	loaded, err := fileformat.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !loaded.Stereo() {
		t.Fatal("expected stereo signal")
	}
}

func TestLoadRejectsMissingFile(t *testing.T) {
	_, err := fileformat.Load("/nonexistent/path/does-not-exist.wav")
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}
