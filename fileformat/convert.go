package fileformat

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// ConvertToWAV shells out to ffmpeg to produce a 44.1kHz PCM WAV copy of an
// arbitrary input file, so Load can stay a pure WAV decoder instead of
// growing a format-detection branch per codec. The teacher's
// fileformat/convert.go carried three near-duplicate versions of this
// function (ConvertToWAV, ReformatWav, convertToWAV); they are collapsed
// into this one here.
func ConvertToWAV(inputPath string, channels int) (string, error) {
	if _, err := os.Stat(inputPath); err != nil {
		return "", fmt.Errorf("fileformat: input file does not exist: %w", err)
	}
	if channels < 1 || channels > 2 {
		channels = 1
	}

	ext := filepath.Ext(inputPath)
	outputPath := strings.TrimSuffix(inputPath, ext) + ".converted.wav"

	cmd := exec.Command(
		"ffmpeg",
		"-y",
		"-i", inputPath,
		"-c", "pcm_s16le",
		"-ar", "44100",
		"-ac", fmt.Sprint(channels),
		outputPath,
	)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("fileformat: ffmpeg conversion failed: %w, output: %s", err, output)
	}
	return outputPath, nil
}
