// Package fileformat is the sole boundary between signal.Signal and bytes
// on disk. Grounded on the teacher's fileformat/wav.go, but the hand-rolled
// WavHeader/binary.Write pair is replaced with github.com/go-audio/wav and
// github.com/go-audio/audio, the library cvoalex's mel.Processor.LoadWAV
// uses for the same job - no reason to keep a bespoke RIFF writer when a
// packaged decoder/encoder is already in the reference corpus.
package fileformat

import (
	"fmt"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"spectralveil/signal"
)

// Load decodes a WAV file into a signal.Signal, normalizing integer PCM
// samples to float64 in [-1, 1] the same way the teacher's
// WavBytesToSample does for 16-bit data, generalized here to whatever bit
// depth the file declares.
func Load(path string) (signal.Signal, error) {
	f, err := os.Open(path)
	if err != nil {
		return signal.Signal{}, fmt.Errorf("fileformat: open %s: %w", path, err)
	}
	defer f.Close()

	decoder := wav.NewDecoder(f)
	if !decoder.IsValidFile() {
		return signal.Signal{}, fmt.Errorf("fileformat: %s is not a valid WAV file", path)
	}

	buf, err := decoder.FullPCMBuffer()
	if err != nil {
		return signal.Signal{}, fmt.Errorf("fileformat: decode %s: %w", path, err)
	}

	numChannels := int(decoder.NumChans)
	if numChannels < 1 || numChannels > 2 {
		return signal.Signal{}, fmt.Errorf("fileformat: %s has %d channels, only mono or stereo is supported", path, numChannels)
	}

	maxVal := fullScale(int(decoder.BitDepth))
	numFrames := buf.NumFrames()
	channels := make([][]float64, numChannels)
	for c := range channels {
		channels[c] = make([]float64, numFrames)
	}
	for i := 0; i < numFrames; i++ {
		for c := 0; c < numChannels; c++ {
			idx := i*numChannels + c
			if idx < len(buf.Data) {
				channels[c][i] = float64(buf.Data[idx]) / maxVal
			}
		}
	}

	return signal.New(int(decoder.SampleRate), channels...)
}

func fullScale(bitDepth int) float64 {
	switch bitDepth {
	case 8:
		return 128.0
	case 24:
		return 8388608.0
	case 32:
		return 2147483648.0
	default:
		return 32768.0
	}
}

// Save encodes a signal.Signal as 16-bit PCM WAV, the bit depth the rest of
// the pipeline (and the teacher's WriteWavFile) standardizes on.
func Save(path string, sig signal.Signal) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("fileformat: create %s: %w", path, err)
	}
	defer f.Close()

	numChannels := len(sig.Channels)
	encoder := wav.NewEncoder(f, sig.SampleRate, 16, numChannels, 1)

	intBuf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: numChannels, SampleRate: sig.SampleRate},
		Data:           make([]int, sig.Len()*numChannels),
		SourceBitDepth: 16,
	}
	for i := 0; i < sig.Len(); i++ {
		for c, ch := range sig.Channels {
			v := ch[i]
			if v > 1 {
				v = 1
			}
			if v < -1 {
				v = -1
			}
			intBuf.Data[i*numChannels+c] = int(v * 32767)
		}
	}

	if err := encoder.Write(intBuf); err != nil {
		return fmt.Errorf("fileformat: write %s: %w", path, err)
	}
	return encoder.Close()
}
