// Package signal defines the in-memory audio representation shared by every
// stage of the watermark pipeline: the Analyzer reads it, the Rewriter
// produces a new one, and fileformat is the only package allowed to turn it
// into or out of bytes on disk.
package signal

import (
	"fmt"
)

// Signal is a decoded, normalized multi-channel audio buffer. Samples are
// float64 in [-1, 1]; channels are stored independently (no interleaving) so
// Rewriter stages can process each channel with the same code path that
// handles mono.
type Signal struct {
	SampleRate int
	Channels   [][]float64
}

// New validates and constructs a Signal from one or more equal-length
// channels. A mono file has one channel; stereo has two. The teacher's
// WavBytesToSample produced a single flat slice - here every channel is kept
// separate so Rewriter can run left/right independently via errgroup.
func New(sampleRate int, channels ...[]float64) (Signal, error) {
	if sampleRate <= 0 {
		return Signal{}, fmt.Errorf("signal: %w: sample rate must be positive, got %d", ErrInvalidSignal, sampleRate)
	}
	if len(channels) == 0 {
		return Signal{}, fmt.Errorf("signal: %w: at least one channel is required", ErrInvalidSignal)
	}
	if len(channels) > 2 {
		return Signal{}, fmt.Errorf("signal: %w: only mono or stereo is supported, got %d channels", ErrInvalidSignal, len(channels))
	}
	n := len(channels[0])
	if n == 0 {
		return Signal{}, fmt.Errorf("signal: %w: channel is empty", ErrInvalidSignal)
	}
	for i, ch := range channels {
		if len(ch) != n {
			return Signal{}, fmt.Errorf("signal: %w: channel %d has %d samples, want %d", ErrInvalidSignal, i, len(ch), n)
		}
	}
	return Signal{SampleRate: sampleRate, Channels: channels}, nil
}

// Mono reports whether the signal carries a single channel.
func (s Signal) Mono() bool { return len(s.Channels) == 1 }

// Stereo reports whether the signal carries two channels.
func (s Signal) Stereo() bool { return len(s.Channels) == 2 }

// Len returns the number of samples per channel.
func (s Signal) Len() int {
	if len(s.Channels) == 0 {
		return 0
	}
	return len(s.Channels[0])
}

// Duration returns the signal's length in seconds.
func (s Signal) Duration() float64 {
	if s.SampleRate == 0 {
		return 0
	}
	return float64(s.Len()) / float64(s.SampleRate)
}

// Downmix averages all channels into a single mono slice. The Analyzer works
// on a mono mixdown the same way haustorium's spectral audit reads a mixed
// mono signal regardless of source channel count.
func (s Signal) Downmix() []float64 {
	out := make([]float64, s.Len())
	if len(s.Channels) == 1 {
		copy(out, s.Channels[0])
		return out
	}
	inv := 1.0 / float64(len(s.Channels))
	for _, ch := range s.Channels {
		for i, v := range ch {
			out[i] += v * inv
		}
	}
	return out
}

// Clone returns a deep copy whose channel buffers share no memory with s.
func (s Signal) Clone() Signal {
	channels := make([][]float64, len(s.Channels))
	for i, ch := range s.Channels {
		cp := make([]float64, len(ch))
		copy(cp, ch)
		channels[i] = cp
	}
	return Signal{SampleRate: s.SampleRate, Channels: channels}
}

// WithChannels returns a new Signal sharing the sample rate but replacing the
// channel data; the given channel slices are used as-is, not copied, and s
// is left unchanged.
func (s Signal) WithChannels(channels [][]float64) Signal {
	return Signal{SampleRate: s.SampleRate, Channels: channels}
}
