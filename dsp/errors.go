package dsp

import "errors"

// ErrInvalidSignal is returned when a time-domain buffer is too short to
// fill a single analysis frame.
var ErrInvalidSignal = errors.New("dsp: signal shorter than one analysis frame")

// ErrNumericalDegeneracy flags spectrogram data that collapsed to all-zero
// or non-finite values, which would make downstream ratios meaningless.
var ErrNumericalDegeneracy = errors.New("dsp: numerical degeneracy in spectral data")
