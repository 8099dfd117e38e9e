package planner_test

import (
	"math/rand"
	"testing"

	"spectralveil/bands"
	"spectralveil/planner"
)

func TestClassifySeverityEscalatesWithRatio(t *testing.T) {
	cases := []struct {
		ratio float64
		want  planner.Severity
	}{
		{0.05, planner.SeverityMinimal},
		{0.20, planner.SeverityLight},
		{0.30, planner.SeverityMedium},
		{0.60, planner.SeverityHeavy},
	}
	for _, c := range cases {
		got := planner.ClassifySeverity(planner.PreAnalysis{Ratio: c.ratio})
		if got != c.want {
			t.Errorf("ClassifySeverity(ratio=%v) = %v, want %v", c.ratio, got, c.want)
		}
	}
}

// unremarkable is a PreAnalysis that sits comfortably inside a severity's
// normal sub-case: ratio above the minimal skip cutoff with no suspicious
// energy signature, so Build exercises its usual randomized draw rather
// than the skip or fixed-target sub-cases.
var unremarkable = planner.PreAnalysis{Ratio: 0.13, FrameRatioStdDev: 0.1, MaxFrameRatio: 2, MeanFrameRatio: 0.1}

func TestBuildIsReproducibleWithSameSeed(t *testing.T) {
	rng1 := rand.New(rand.NewSource(42))
	rng2 := rand.New(rand.NewSource(42))
	p1 := planner.Build(planner.SeverityMedium, unremarkable, rng1)
	p2 := planner.Build(planner.SeverityMedium, unremarkable, rng2)
	if p1 != p2 {
		t.Errorf("plans with identical seeds differ: %+v vs %+v", p1, p2)
	}
}

func TestBuildTargetRatioBySeverity(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for _, sev := range []planner.Severity{planner.SeverityMinimal, planner.SeverityLight} {
		p := planner.Build(sev, unremarkable, rng)
		if !bands.CleanZone.InZone(p.TargetRatio) {
			t.Errorf("severity %v: target ratio %v outside clean zone", sev, p.TargetRatio)
		}
	}
	for _, sev := range []planner.Severity{planner.SeverityMedium, planner.SeverityHeavy} {
		p := planner.Build(sev, unremarkable, rng)
		if bands.CleanZone.InZone(p.TargetRatio) {
			t.Errorf("severity %v: target ratio %v should undershoot the clean zone", sev, p.TargetRatio)
		}
	}
}

func TestBuildMinimalSkipsWhenCleanAndUnsuspicious(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	pre := planner.PreAnalysis{Ratio: 0.08, FrameRatioStdDev: 0.1, MaxFrameRatio: 2, MeanFrameRatio: 0.1}
	p := planner.Build(planner.SeverityMinimal, pre, rng)
	if !p.Skip {
		t.Errorf("expected Skip=true for clean, unsuspicious minimal input, got %+v", p)
	}
}

func TestBuildMinimalFixesTargetWhenSuspiciousDespiteLowRatio(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	pre := planner.PreAnalysis{Ratio: 0.08, FrameRatioStdDev: 0.9, MaxFrameRatio: 2, MeanFrameRatio: 0.1}
	p := planner.Build(planner.SeverityMinimal, pre, rng)
	if p.Skip {
		t.Fatalf("expected Skip=false when suspicious energy is present, got %+v", p)
	}
	if p.TargetRatio != 0.15 {
		t.Errorf("TargetRatio = %v, want 0.15 fixed target", p.TargetRatio)
	}
}

func TestBuildMinimalDrawsNormallyAboveCleanCutoff(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	p := planner.Build(planner.SeverityMinimal, unremarkable, rng)
	if p.Skip {
		t.Fatalf("expected Skip=false above the clean cutoff, got %+v", p)
	}
	if p.TargetRatio < 0.14 || p.TargetRatio > 0.17 {
		t.Errorf("TargetRatio = %v, want within [0.14, 0.17]", p.TargetRatio)
	}
}

func TestAdjustForSpikinessReducesSmoothing(t *testing.T) {
	plan := planner.Plan{SmoothingBins: 4}
	adjusted := planner.AdjustForSpikiness(plan, 2.0, 1.0) // CV = 2.0, spiky
	if adjusted.SmoothingBins != 3 {
		t.Errorf("SmoothingBins = %d, want 3", adjusted.SmoothingBins)
	}
}

func TestAdjustForSpikinessNoOpWhenFlat(t *testing.T) {
	plan := planner.Plan{SmoothingBins: 4}
	adjusted := planner.AdjustForSpikiness(plan, 0.1, 1.0)
	if adjusted.SmoothingBins != 4 {
		t.Errorf("SmoothingBins = %d, want unchanged 4", adjusted.SmoothingBins)
	}
}
