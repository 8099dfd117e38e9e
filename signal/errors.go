package signal

import "errors"

// ErrInvalidSignal is the sentinel wrapped by every structural validation
// failure in this package (mismatched channel lengths, zero sample rate,
// empty buffers).
var ErrInvalidSignal = errors.New("invalid signal")

// ErrUnsupportedSampleRate flags a sample rate too low to carry the
// watermark band (the band starts at 18kHz, so the sample rate must exceed
// 36kHz).
var ErrUnsupportedSampleRate = errors.New("unsupported sample rate")
