package rewriter

import (
	"fmt"
	"math/rand"

	"golang.org/x/sync/errgroup"

	"spectralveil/analyzer"
	"spectralveil/bands"
	"spectralveil/dsp"
	"spectralveil/planner"
	"spectralveil/signal"
)

// Aggressiveness is the caller-chosen knob that decides how much of the
// stage chain runs, independent of the Planner's own ratio-derived Severity:
// the same Plan can be executed conservatively or aggressively depending on
// how much the caller is willing to risk an audible artifact.
type Aggressiveness string

const (
	AggressivenessLow    Aggressiveness = "low"
	AggressivenessMedium Aggressiveness = "medium"
	AggressivenessHigh   Aggressiveness = "high"
)

// Options controls one Rewrite pass.
type Options struct {
	Plan             planner.Plan
	Aggressiveness   Aggressiveness // defaults to medium
	HumanizingFactor float64        // 0..1, defaults to 1; scales timing jitter and amplitude nonlinearity strength
	RNG              *rand.Rand     // required; callers wanting reproducible output pass rand.New(rand.NewSource(seed))
	NFFT             int            // defaults to 2048
	Hop              int            // defaults to 512
	Humanize         *Humanize      // nil disables the opt-in humanization pass
	Verify           bool           // if true, re-Analyze the output and attach it to Result (never gates the rewrite)
}

func (o Options) withDefaults() Options {
	if o.NFFT == 0 {
		o.NFFT = 2048
	}
	if o.Hop == 0 {
		o.Hop = 512
	}
	if o.Aggressiveness == "" {
		o.Aggressiveness = AggressivenessMedium
	}
	if o.HumanizingFactor == 0 {
		o.HumanizingFactor = 1.0
	}
	return o
}

// Result is what Rewrite returns: the rewritten signal, plus, if requested,
// a post-hoc analysis of it. Verification never blocks or alters the
// output - it is purely informational.
type Result struct {
	Signal       signal.Signal
	Verification *analyzer.Report
}

// Rewrite runs the full Master-STFT pipeline, processing every channel of
// sig independently and concurrently (via errgroup, the same concurrency
// primitive the teacher's go.mod already carries through its indirect
// golang.org/x/sync dependency), then applying cross-channel and
// time-domain post-processing.
func Rewrite(sig signal.Signal, opts Options) (Result, error) {
	opts = opts.withDefaults()
	if opts.RNG == nil {
		return Result{}, fmt.Errorf("rewriter: Options.RNG is required")
	}

	if opts.Plan.Skip {
		// The Planner determined the file is already clean: return it
		// byte-for-byte unchanged rather than running any stage.
		out, err := signal.New(sig.SampleRate, cloneChannels(sig.Channels)...)
		if err != nil {
			return Result{}, err
		}
		result := Result{Signal: out}
		if opts.Verify {
			report, err := analyzer.Analyze(out, analyzer.Options{NFFT: opts.NFFT, Hop: opts.Hop})
			if err == nil {
				result.Verification = &report
			}
		}
		return result, nil
	}

	channelSeeds := make([]int64, len(sig.Channels))
	for i := range channelSeeds {
		channelSeeds[i] = opts.RNG.Int63()
	}

	outputs := make([][]float64, len(sig.Channels))
	g := new(errgroup.Group)
	for i, channel := range sig.Channels {
		i, channel := i, channel
		g.Go(func() error {
			chRng := rand.New(rand.NewSource(channelSeeds[i]))
			out, err := processChannel(channel, sig.SampleRate, opts.Plan, opts.Aggressiveness, chRng, opts.NFFT, opts.Hop)
			if err != nil {
				return fmt.Errorf("channel %d: %w", i, err)
			}
			outputs[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Result{}, err
	}

	if len(outputs) == 2 && opts.Humanize != nil && opts.Humanize.StereoWidth != 0 && opts.Humanize.StereoWidth != 1 {
		outputs[0], outputs[1] = applyMidSideWidth(outputs[0], outputs[1], opts.Humanize.StereoWidth)
	}
	if len(outputs) == 2 {
		outputs[0], outputs[1] = applyStereoPanCurve(outputs[0], outputs[1], opts.Aggressiveness)
	}

	statisticalPatterns := opts.Aggressiveness == AggressivenessMedium || opts.Aggressiveness == AggressivenessHigh
	h := opts.HumanizingFactor
	for i := range outputs {
		outputs[i] = normalizeVolume(outputs[i], sig.Channels[i])
		if statisticalPatterns {
			outputs[i] = applyAmplitudeNonlinearity(outputs[i], opts.Aggressiveness, h)
			outputs[i] = applyTimingJitter(outputs[i], opts.RNG, opts.Aggressiveness, h)
			outputs[i] = tempoCorrection(outputs[i], sig.SampleRate, opts.Aggressiveness, opts.RNG, h)
			outputs[i] = pitchTimingCorrection(outputs[i], sig.Channels[i], sig.SampleRate, opts.Aggressiveness, opts.RNG, h)
			if opts.Humanize != nil {
				outputs[i] = tanhSaturate(outputs[i], opts.Humanize.SaturationDrive)
				outputs[i] = addRoomTone(outputs[i], opts.Humanize.RoomToneLevel, opts.RNG)
				if opts.Humanize.EQGainDB != 0 {
					outputs[i] = peakingEQ(outputs[i], sig.SampleRate, opts.Humanize.EQFreqHz, opts.Humanize.EQGainDB, opts.Humanize.EQQ)
				}
			}
		}
		outputs[i] = softClip(outputs[i], opts.Aggressiveness, 0.95)
	}

	out, err := signal.New(sig.SampleRate, outputs...)
	if err != nil {
		return Result{}, err
	}

	result := Result{Signal: out}
	if opts.Verify {
		report, err := analyzer.Analyze(out, analyzer.Options{NFFT: opts.NFFT, Hop: opts.Hop})
		if err == nil {
			result.Verification = &report
		}
	}
	return result, nil
}

func cloneChannels(channels [][]float64) [][]float64 {
	out := make([][]float64, len(channels))
	for i, ch := range channels {
		out[i] = append([]float64(nil), ch...)
	}
	return out
}

// processChannel runs Stages 0 through 7 plus reconstruction for a single
// channel. Aggressiveness, not the Planner's Severity, decides how much of
// the chain runs: low stops after Stages 0-1 and reconstruction; medium adds
// Stages 2, 3, 5, and 6; high additionally runs Stage 4 and Stage 7. The
// Reference Preservation invariant is enforced after every mutating stage
// regardless of aggressiveness.
func processChannel(channel []float64, sampleRate int, plan planner.Plan, agg Aggressiveness, rng *rand.Rand, nFFT, hop int) ([]float64, error) {
	spec, err := dsp.Forward(channel, sampleRate, nFFT, hop)
	if err != nil {
		return nil, err
	}

	wLo, wHi, wOK := bands.Watermark.Bins(spec.BinHz)
	rLo, rHi, rOK := bands.Reference.Bins(spec.BinHz)
	mLo, mHi, _ := bands.Masking.Bins(spec.BinHz)
	msLo, msHi, _ := bands.MaskingSource.Bins(spec.BinHz)
	if !wOK || !rOK {
		// Below 36kHz sample rate the watermark band doesn't exist; nothing
		// to rewrite.
		return channel, nil
	}

	baselineRefMean := bands.Mean(spec.Mag, rLo, rHi)
	preserve := func(s *dsp.Spectrogram) *dsp.Spectrogram {
		return enforceReferencePreservation(s, baselineRefMean, rLo, rHi)
	}

	spec = stage0OutlierClamp(spec, rLo, wHi)
	spec = preserve(spec)
	spec = stage1SelectiveFiltering(spec, plan, sampleRate, len(channel), wLo, wHi, rLo, rHi)

	// bin indices may shift if Stage 1's safety filter produced a spectrogram
	// with a different NFFT; in practice NFFT/hop are held fixed so indices
	// stay valid, but recompute defensively against a degenerate refiltered
	// spectrogram.
	wLo, wHi, _ = bands.Watermark.Bins(spec.BinHz)
	rLo, rHi, _ = bands.Reference.Bins(spec.BinHz)
	mLo, mHi, _ = bands.Masking.Bins(spec.BinHz)
	msLo, msHi, _ = bands.MaskingSource.Bins(spec.BinHz)
	preserve = func(s *dsp.Spectrogram) *dsp.Spectrogram {
		return enforceReferencePreservation(s, baselineRefMean, rLo, rHi)
	}
	spec = preserve(spec)

	if agg == AggressivenessLow {
		samples := reconstruct(spec, len(channel))
		return samples, nil
	}

	spec = stage2PhaseModification(spec, plan, rng, wLo, wHi)
	spec = preserve(spec)
	spec = stage3SpectralNormalization(spec, plan, wLo, wHi, rLo, rHi)
	spec = preserve(spec)

	if agg == AggressivenessHigh {
		spec = stage4AggressiveRemoval(spec, plan, rng, wLo, wHi, rLo, rHi, mLo, mHi, msLo, msHi)
		spec = preserve(spec)
	}

	spec = stage5AdaptiveSmoothing(spec, plan, wLo, wHi)
	spec = preserve(spec)

	spec = stage6FeaturePreservation(spec, plan, channel, sampleRate, len(channel), rng)
	spec = preserve(spec)

	samples := reconstruct(spec, len(channel))

	if agg == AggressivenessHigh {
		samples = stage7FinalNaturalization(samples, rng)
	}

	return samples, nil
}
