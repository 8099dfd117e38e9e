package features

import (
	"fmt"

	"spectralveil/dsp"
)

// NFFT and Hop are the fixed analysis window used by the Feature Extractor,
// independent of whichever resolution the Analyzer's band accounting runs
// at - the spec pins this pipeline to a fixed hop so feature suspicion
// scores are comparable across files regardless of sample rate.
const (
	NFFT = 1024
	Hop  = 512
)

// Features is the full bundle of musical-structure signals computed from a
// mono time-domain buffer: MFCCs, chroma, spectral contrast, spectral
// moments, a pitch track, and a single tempo estimate.
type Features struct {
	MFCC       [][]float64
	Chroma     [][]float64
	Contrast   [][]float64
	Centroid   []float64
	Bandwidth  []float64
	Pitch      []float64
	TempoBPM   float64
	FrameCount int
}

// Extract runs the full Feature Extractor pipeline over a mono signal.
func Extract(channel []float64, sampleRate int) (Features, error) {
	spec, err := dsp.Forward(channel, sampleRate, NFFT, Hop)
	if err != nil {
		return Features{}, fmt.Errorf("%w: %v", ErrFeatureExtractionFailure, err)
	}

	pitch := Pitch(channel, sampleRate, NFFT, Hop)

	return Features{
		MFCC:       MFCC(spec.Mag, sampleRate, NFFT),
		Chroma:     Chroma(spec.Mag, spec.BinHz),
		Contrast:   Contrast(spec.Mag, spec.BinHz),
		Centroid:   Centroid(spec.Mag, spec.BinHz),
		Bandwidth:  Bandwidth(spec.Mag, spec.BinHz),
		Pitch:      pitch,
		TempoBPM:   Tempo(spec.Mag, sampleRate, Hop),
		FrameCount: spec.Frames(),
	}, nil
}
