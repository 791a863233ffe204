package supervisor

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/skillsenselab/diarized/diarization"
)

// newArtifactPath returns a unique result-channel path for one invocation.
// The random suffix keeps concurrent jobs from colliding in the shared
// temp namespace. The file does not exist yet; the worker publishes it.
func newArtifactPath(dir string) string {
	if dir == "" {
		dir = os.TempDir()
	}
	return filepath.Join(dir, fmt.Sprintf("diarize-%s.json", uuid.New().String()))
}

// readArtifact reads and decodes the worker's result document. A missing
// file and a malformed file are the same condition for classification:
// the child died before publishing anything readable.
func readArtifact(path string) (*diarization.Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read artifact: %w", err)
	}
	var doc diarization.Result
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode artifact: %w", err)
	}
	return &doc, nil
}

// removeArtifact deletes the result file and any leftover temp sibling.
// Best-effort: called on every Execute return path so no invocation leaks
// filesystem state.
func removeArtifact(path string) {
	os.Remove(path)
	os.Remove(path + ".tmp")
}
