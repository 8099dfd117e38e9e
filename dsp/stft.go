package dsp

import (
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"
)

// Spectrogram is a windowed STFT result stored frame-major ([frame][bin]),
// the same orientation mixxxlab's analyzer.STFT returns. Magnitude and phase
// are kept separate so Rewriter stages can mutate one without disturbing the
// other, mirroring the teacher's preference for plain numeric slices over a
// complex128 matrix.
type Spectrogram struct {
	Mag        [][]float64
	Phase      [][]float64
	NFFT       int
	Hop        int
	SampleRate int
	BinHz      []float64
}

// Frames reports the number of analysis frames.
func (s *Spectrogram) Frames() int { return len(s.Mag) }

// Bins reports the number of frequency bins per frame.
func (s *Spectrogram) Bins() int {
	if len(s.Mag) == 0 {
		return 0
	}
	return len(s.Mag[0])
}

// Forward runs a Hann-windowed STFT over channel, zero-padding the final
// partial frame so every input sample is covered (Inverse + truncate
// reconstructs the original length exactly, per the pad-or-truncate
// invariant).
func Forward(channel []float64, sampleRate, nFFT, hop int) (*Spectrogram, error) {
	if len(channel) < nFFT {
		return nil, ErrInvalidSignal
	}
	window := HannWindow(nFFT)
	fft := fourier.NewFFT(nFFT)
	numBins := nFFT/2 + 1

	numFrames := (len(channel)-nFFT)/hop + 1
	if (len(channel)-nFFT)%hop != 0 {
		numFrames++
	}

	mag := make([][]float64, numFrames)
	phase := make([][]float64, numFrames)
	frame := make([]float64, nFFT)
	for t := 0; t < numFrames; t++ {
		start := t * hop
		for i := range frame {
			idx := start + i
			if idx < len(channel) {
				frame[i] = channel[idx] * window[i]
			} else {
				frame[i] = 0
			}
		}
		coeffs := fft.Coefficients(nil, frame)
		magRow := make([]float64, numBins)
		phaseRow := make([]float64, numBins)
		for b := 0; b < numBins; b++ {
			magRow[b] = cmplx.Abs(coeffs[b])
			phaseRow[b] = cmplx.Phase(coeffs[b])
		}
		mag[t] = magRow
		phase[t] = phaseRow
	}

	return &Spectrogram{
		Mag:        mag,
		Phase:      phase,
		NFFT:       nFFT,
		Hop:        hop,
		SampleRate: sampleRate,
		BinHz:      BinFrequencies(sampleRate, nFFT),
	}, nil
}

// Inverse reconstructs a time-domain buffer via windowed overlap-add. The
// returned length is (frames-1)*hop + nFFT; callers truncate or zero-pad to
// match the original signal length, the same compensation the Rewriter's
// reconstruction step performs.
func (s *Spectrogram) Inverse() []float64 {
	if len(s.Mag) == 0 {
		return nil
	}
	fft := fourier.NewFFT(s.NFFT)
	window := HannWindow(s.NFFT)
	numFrames := len(s.Mag)
	outLen := (numFrames-1)*s.Hop + s.NFFT

	out := make([]float64, outLen)
	norm := make([]float64, outLen)
	coeffs := make([]complex128, s.NFFT/2+1)

	for t := 0; t < numFrames; t++ {
		for b := range coeffs {
			coeffs[b] = cmplx.Rect(s.Mag[t][b], s.Phase[t][b])
		}
		frame := fft.Sequence(nil, coeffs)
		start := t * s.Hop
		for i := 0; i < s.NFFT; i++ {
			out[start+i] += frame[i] * window[i]
			norm[start+i] += window[i] * window[i]
		}
	}
	for i := range out {
		if norm[i] > 1e-8 {
			out[i] /= norm[i]
		}
	}
	return out
}

// PadOrTruncate compensates for the frame-boundary padding Forward/Inverse
// introduce, returning a slice of exactly wantLen samples.
func PadOrTruncate(samples []float64, wantLen int) []float64 {
	if len(samples) == wantLen {
		return samples
	}
	out := make([]float64, wantLen)
	copy(out, samples)
	return out
}

// Clone returns a deep copy of the spectrogram, used when a stage needs to
// compare its output against the pre-stage magnitude (e.g. the Reference
// Preservation hook).
func (s *Spectrogram) Clone() *Spectrogram {
	mag := make([][]float64, len(s.Mag))
	phase := make([][]float64, len(s.Phase))
	for i := range s.Mag {
		mag[i] = append([]float64(nil), s.Mag[i]...)
		phase[i] = append([]float64(nil), s.Phase[i]...)
	}
	binHz := append([]float64(nil), s.BinHz...)
	return &Spectrogram{Mag: mag, Phase: phase, NFFT: s.NFFT, Hop: s.Hop, SampleRate: s.SampleRate, BinHz: binHz}
}
