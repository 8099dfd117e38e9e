package store

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"spectralveil/planner"
)

// PlanOverride is the on-disk shape of a caller-supplied override for the
// Planner's randomized draws, letting an operator pin a reproducible plan
// for regression testing instead of trusting the RNG.
type PlanOverride struct {
	Severity        string   `yaml:"severity"`
	TargetRatio     *float64 `yaml:"target_ratio"`
	MaskingStrength *float64 `yaml:"masking_strength"`
	PhaseMix        *float64 `yaml:"phase_mix"`
	SmoothingBins   *int     `yaml:"smoothing_bins"`
	MaskingVariance *float64 `yaml:"masking_variance"`
}

// LoadPlanOverride reads and validates a plan override file.
func LoadPlanOverride(path string) (PlanOverride, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return PlanOverride{}, fmt.Errorf("store: reading plan override: %w", err)
	}
	var override PlanOverride
	if err := yaml.Unmarshal(data, &override); err != nil {
		return PlanOverride{}, fmt.Errorf("store: parsing plan override: %w", err)
	}
	if err := override.validate(); err != nil {
		return PlanOverride{}, err
	}
	return override, nil
}

func (o PlanOverride) validate() error {
	switch planner.Severity(o.Severity) {
	case planner.SeverityMinimal, planner.SeverityLight, planner.SeverityMedium, planner.SeverityHeavy:
	default:
		return fmt.Errorf("%w: unknown severity %q", ErrPlanOverrideRejected, o.Severity)
	}
	if o.TargetRatio != nil && (*o.TargetRatio < 0 || *o.TargetRatio > 1) {
		return fmt.Errorf("%w: target_ratio %v out of range [0,1]", ErrPlanOverrideRejected, *o.TargetRatio)
	}
	if o.MaskingStrength != nil && (*o.MaskingStrength < 0 || *o.MaskingStrength > 1) {
		return fmt.Errorf("%w: masking_strength %v out of range [0,1]", ErrPlanOverrideRejected, *o.MaskingStrength)
	}
	if o.PhaseMix != nil && (*o.PhaseMix < 0 || *o.PhaseMix > 1) {
		return fmt.Errorf("%w: phase_mix %v out of range [0,1]", ErrPlanOverrideRejected, *o.PhaseMix)
	}
	if o.SmoothingBins != nil && *o.SmoothingBins < 0 {
		return fmt.Errorf("%w: smoothing_bins %v must be non-negative", ErrPlanOverrideRejected, *o.SmoothingBins)
	}
	return nil
}

// Apply overlays non-nil override fields onto a Planner-drawn Plan.
func (o PlanOverride) Apply(plan planner.Plan) planner.Plan {
	if o.TargetRatio != nil {
		plan.TargetRatio = *o.TargetRatio
	}
	if o.MaskingStrength != nil {
		plan.MaskingStrength = *o.MaskingStrength
	}
	if o.PhaseMix != nil {
		plan.PhaseMix = *o.PhaseMix
	}
	if o.SmoothingBins != nil {
		plan.SmoothingBins = *o.SmoothingBins
	}
	if o.MaskingVariance != nil {
		plan.MaskingVariance = *o.MaskingVariance
	}
	return plan
}
