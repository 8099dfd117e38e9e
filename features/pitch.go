package features

// PitchRange bounds the autocorrelation lag search to the fundamental
// frequencies a musical or vocal signal plausibly carries.
var PitchRange = struct{ MinHz, MaxHz float64 }{MinHz: 80, MaxHz: 1000}

// Pitch estimates, per analysis frame, the fundamental frequency via
// time-domain autocorrelation. Frames with no clear periodicity (silence,
// noise) report 0.
func Pitch(channel []float64, sampleRate, frameSize, hop int) []float64 {
	if len(channel) < frameSize {
		return nil
	}
	numFrames := (len(channel)-frameSize)/hop + 1
	out := make([]float64, numFrames)

	minLag := int(float64(sampleRate) / PitchRange.MaxHz)
	maxLag := int(float64(sampleRate) / PitchRange.MinHz)
	if maxLag >= frameSize {
		maxLag = frameSize - 1
	}

	frame := make([]float64, frameSize)
	for t := 0; t < numFrames; t++ {
		start := t * hop
		copy(frame, channel[start:start+frameSize])

		bestLag, bestVal := -1, 0.0
		zeroLag := autocorr(frame, 0)
		if zeroLag < 1e-10 {
			out[t] = 0
			continue
		}
		for lag := minLag; lag <= maxLag; lag++ {
			v := autocorr(frame, lag) / zeroLag
			if v > bestVal {
				bestVal, bestLag = v, lag
			}
		}
		if bestLag > 0 && bestVal > 0.3 {
			out[t] = float64(sampleRate) / float64(bestLag)
		} else {
			out[t] = 0
		}
	}
	return out
}

func autocorr(frame []float64, lag int) float64 {
	var sum float64
	for i := 0; i+lag < len(frame); i++ {
		sum += frame[i] * frame[i+lag]
	}
	return sum
}

// PitchMean returns the mean of the non-silent (nonzero) pitch estimates,
// used by the Rewriter's unified pitch/timing correction to compare a
// processed signal's pitch against the original's.
func PitchMean(pitch []float64) (mean float64, voiced int) {
	var sum float64
	for _, p := range pitch {
		if p > 0 {
			sum += p
			voiced++
		}
	}
	if voiced == 0 {
		return 0, 0
	}
	return sum / float64(voiced), voiced
}

// PitchVariance returns the variance of the non-silent (nonzero) pitch
// estimates, used by the Analyzer's pitch suspicion score.
func PitchVariance(pitch []float64) (variance float64, voiced int) {
	var voicedVals []float64
	for _, p := range pitch {
		if p > 0 {
			voicedVals = append(voicedVals, p)
		}
	}
	if len(voicedVals) < 2 {
		return 0, len(voicedVals)
	}
	var mean float64
	for _, v := range voicedVals {
		mean += v
	}
	mean /= float64(len(voicedVals))
	var sq float64
	for _, v := range voicedVals {
		d := v - mean
		sq += d * d
	}
	return sq / float64(len(voicedVals)), len(voicedVals)
}
