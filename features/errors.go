package features

import "errors"

// ErrFeatureExtractionFailure wraps failures from the underlying spectral
// frontend when a signal is too short to analyze.
var ErrFeatureExtractionFailure = errors.New("features: extraction failed")
