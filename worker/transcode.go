package worker

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/skillsenselab/diarized/process"
)

// Target format required by the diarization model.
const (
	sampleRate = 16000
	channels   = 1
)

// ConvertAudio normalizes the input to 16kHz mono WAV next to the original
// file and returns the converted path. The transcoder is a black box: a
// non-zero exit fails the whole job.
func ConvertAudio(ctx context.Context, binary, inputPath string) (string, error) {
	if binary == "" {
		binary = "ffmpeg"
	}

	ext := filepath.Ext(inputPath)
	outputPath := strings.TrimSuffix(inputPath, ext) + "_16k.wav"

	result, err := process.Run(ctx, process.Command{
		Binary: binary,
		Args: []string{
			"-i", inputPath,
			"-ar", fmt.Sprintf("%d", sampleRate),
			"-ac", fmt.Sprintf("%d", channels),
			"-f", "wav",
			"-y", outputPath,
		},
	})
	if err != nil {
		detail := ""
		if result != nil && len(result.Stderr) > 0 {
			detail = ": " + lastLine(result.Stderr)
		}
		return "", fmt.Errorf("audio conversion failed%s: %w", detail, err)
	}
	return outputPath, nil
}

// lastLine returns the final non-empty line of output; ffmpeg puts the
// actual error there, after pages of banner text.
func lastLine(out []byte) string {
	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if line := strings.TrimSpace(lines[i]); line != "" {
			return line
		}
	}
	return ""
}
