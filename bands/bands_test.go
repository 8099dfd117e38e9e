package bands_test

import (
	"testing"

	"spectralveil/bands"
	"spectralveil/dsp"
)

func flatMag(frames, bins int, value float64) [][]float64 {
	mag := make([][]float64, frames)
	for t := range mag {
		row := make([]float64, bins)
		for b := range row {
			row[b] = value
		}
		mag[t] = row
	}
	return mag
}

func TestSummarizeCleanZone(t *testing.T) {
	binHz := dsp.BinFrequencies(44100, 2048)
	mag := flatMag(20, len(binHz), 1.0)
	// make watermark band quieter than reference to land near the clean ratio
	wLo, wHi, _ := bands.Watermark.Bins(binHz)
	for t := range mag {
		for b := wLo; b < wHi; b++ {
			mag[t][b] = 0.15
		}
	}
	summary := bands.Summarize(mag, binHz)
	if !summary.HasWatermarkRegion || !summary.HasReferenceRegion {
		t.Fatal("expected both bands present at 44.1kHz")
	}
	if summary.ReferenceNearZero {
		t.Fatal("reference band should not be near zero")
	}
	if summary.Ratio < 0.1 || summary.Ratio > 0.2 {
		t.Errorf("ratio = %v, want roughly 0.15", summary.Ratio)
	}
	if !bands.CleanZone.InZone(summary.Ratio) {
		t.Errorf("ratio %v should fall inside clean zone", summary.Ratio)
	}
}

func TestSummarizeReferenceNearZero(t *testing.T) {
	binHz := dsp.BinFrequencies(44100, 2048)
	mag := flatMag(5, len(binHz), 0)
	summary := bands.Summarize(mag, binHz)
	if !summary.ReferenceNearZero {
		t.Fatal("expected ReferenceNearZero for all-zero spectrogram")
	}
}

func TestWatermarkRegionAbsentAtLowSampleRate(t *testing.T) {
	binHz := dsp.BinFrequencies(16000, 2048) // Nyquist 8kHz
	mag := flatMag(5, len(binHz), 1.0)
	summary := bands.Summarize(mag, binHz)
	if summary.HasWatermarkRegion {
		t.Fatal("watermark band should be unavailable above 8kHz Nyquist")
	}
}

func TestPctAbove(t *testing.T) {
	ratios := []float64{0.1, 0.2, 0.3, 0.4, 0.5}
	pct := bands.PctAbove(ratios, 0.25)
	if pct != 60 {
		t.Errorf("PctAbove = %v, want 60", pct)
	}
}

func TestCorrectiveScaleCapped(t *testing.T) {
	scale := bands.CorrectiveScale(0.1, 1.0)
	if scale != 1.5 {
		t.Errorf("CorrectiveScale = %v, want capped at 1.5", scale)
	}
}

func TestCorrectiveScaleNoOpAboveFloor(t *testing.T) {
	scale := bands.CorrectiveScale(1.0, 0.5)
	if scale != 1 {
		t.Errorf("CorrectiveScale = %v, want 1 (already above floor)", scale)
	}
}
