package classifier_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"spectralveil/classifier"
)

func TestClassifyWatermarkedByRatio(t *testing.T) {
	got := classifier.Classify(classifier.Input{Ratio: 0.4})
	assert.Equal(t, classifier.Watermarked, got)
}

func TestClassifyWatermarkedByFramesHigher(t *testing.T) {
	got := classifier.Classify(classifier.Input{Ratio: 0.2, InCleanZone: false, FramesHigherPct: 20})
	assert.Equal(t, classifier.Watermarked, got)
}

func TestClassifySuspiciousByRatio(t *testing.T) {
	got := classifier.Classify(classifier.Input{Ratio: 0.3})
	assert.Equal(t, classifier.Suspicious, got)
}

func TestClassifySuspiciousByFramesElevated(t *testing.T) {
	got := classifier.Classify(classifier.Input{Ratio: 0.2, InCleanZone: false, FramesElevatedPct: 15})
	assert.Equal(t, classifier.Suspicious, got)
}

func TestClassifySuspiciousInCleanZoneByFramesHigher(t *testing.T) {
	got := classifier.Classify(classifier.Input{Ratio: 0.15, InCleanZone: true, FramesHigherPct: 19})
	assert.Equal(t, classifier.Suspicious, got)
}

func TestClassifySuspiciousInCleanZoneByMaxFrameRatio(t *testing.T) {
	got := classifier.Classify(classifier.Input{Ratio: 0.15, InCleanZone: true, MaxFrameRatio: 12})
	assert.Equal(t, classifier.Suspicious, got)
}

func TestClassifyPossiblyCleanedBelowCutoff(t *testing.T) {
	got := classifier.Classify(classifier.Input{Ratio: 0.05, InCleanZone: false})
	assert.Equal(t, classifier.PossiblyCleaned, got)
}

func TestClassifyPossiblyCleanedByCombinedSuspicion(t *testing.T) {
	got := classifier.Classify(classifier.Input{Ratio: 0.10, InCleanZone: false, CombinedSuspicion: 0.8})
	assert.Equal(t, classifier.PossiblyCleaned, got)
}

func TestClassifyCleanInZone(t *testing.T) {
	got := classifier.Classify(classifier.Input{Ratio: 0.15, InCleanZone: true, FramesHigherPct: 5, MaxFrameRatio: 2, MeanFrameRatio: 0.2})
	assert.Equal(t, classifier.Clean, got)
}

func TestClassifyCleanBelowElevatedOutsideZone(t *testing.T) {
	got := classifier.Classify(classifier.Input{Ratio: 0.2, InCleanZone: false, FramesElevatedPct: 0, FramesHigherPct: 0})
	assert.Equal(t, classifier.Clean, got)
}
