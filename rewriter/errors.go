package rewriter

import "errors"

// ErrPlanOverrideRejected names a rejected caller-supplied plan override. No
// function in this package returns it: override validation lives in
// store.LoadPlanOverride, which returns store.ErrPlanOverrideRejected.
var ErrPlanOverrideRejected = errors.New("rewriter: plan override rejected")

// ErrNumericalDegeneracy names a rewrite whose output is silent or
// non-finite. Rewrite does not return it: it runs no silence or finiteness
// check on its output.
var ErrNumericalDegeneracy = errors.New("rewriter: numerical degeneracy during rewrite")
