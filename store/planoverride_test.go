package store_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"spectralveil/planner"
	"spectralveil/store"
)

func planOf(t *testing.T) planner.Plan {
	t.Helper()
	return planner.Plan{Severity: planner.SeverityMedium, TargetRatio: 0.14, MaskingStrength: 0.5}
}

func writeOverride(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "plan.yaml")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestLoadPlanOverrideValid(t *testing.T) {
	path := writeOverride(t, "severity: heavy\ntarget_ratio: 0.13\n")
	override, err := store.LoadPlanOverride(path)
	require.NoError(t, err)
	require.Equal(t, "heavy", override.Severity)
	require.NotNil(t, override.TargetRatio)
	require.Equal(t, 0.13, *override.TargetRatio)
}

func TestLoadPlanOverrideRejectsUnknownSeverity(t *testing.T) {
	path := writeOverride(t, "severity: extreme\n")
	_, err := store.LoadPlanOverride(path)
	if err == nil {
		t.Fatal("expected error for unknown severity")
	}
}

func TestLoadPlanOverrideRejectsOutOfRangeRatio(t *testing.T) {
	path := writeOverride(t, "severity: light\ntarget_ratio: 1.5\n")
	_, err := store.LoadPlanOverride(path)
	if err == nil {
		t.Fatal("expected error for target_ratio out of range")
	}
}

func TestApplyOverridesOnlySetFields(t *testing.T) {
	ratio := 0.13
	override := store.PlanOverride{TargetRatio: &ratio}
	plan := override.Apply(planOf(t))
	if plan.TargetRatio != 0.13 {
		t.Errorf("TargetRatio = %v, want 0.13", plan.TargetRatio)
	}
	if plan.MaskingStrength != 0.5 {
		t.Errorf("MaskingStrength = %v, want unchanged 0.5", plan.MaskingStrength)
	}
}
