package store

import "errors"

// ErrPlanOverrideRejected is returned when a plan override file fails
// validation.
var ErrPlanOverrideRejected = errors.New("store: plan override rejected")
