package worker

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/skillsenselab/diarized/diarization"
)

// writeArtifact serializes the result document to path via a sibling temp
// file and an atomic rename. The supervisor only looks for the artifact
// after observing child exit, and the rename guarantees it either sees the
// complete document or nothing, never a torn write.
func writeArtifact(path string, result *diarization.Result) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write artifact: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("publish artifact: %w", err)
	}
	return nil
}
