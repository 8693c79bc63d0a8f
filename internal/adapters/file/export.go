package file

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/aretw0/stepwise/pkg/domain"
)

// Export writes the full execution state to path as indented JSON.
// Parent directories are created as needed; an existing file is replaced.
func Export(path string, state *domain.ExecutionState) error {
	if path == "" {
		return fmt.Errorf("output path cannot be empty")
	}
	return writeJSON(path, state)
}

// Import reads a state previously written by Export.
func Import(path string) (*domain.ExecutionState, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read state file: %w", err)
	}
	var state domain.ExecutionState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("failed to parse state file %s: %w", path, err)
	}
	if state.Plan == nil {
		state.Plan = &domain.Plan{Goal: state.Goal, Domain: state.Domain}
	}
	return &state, nil
}

// writeJSON marshals v and replaces path atomically: temp file in the same
// directory, fsync, then rename.
func writeJSON(path string, v any) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}
	data = append(data, '\n')

	tmpFile, err := os.CreateTemp(dir, ".tmp-"+filepath.Base(path)+"-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath)
	}()

	if _, err := tmpFile.Write(data); err != nil {
		return fmt.Errorf("failed to write to temp file: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		return fmt.Errorf("failed to fsync temp file: %w", err)
	}
	// Windows cannot rename an open file.
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	// Windows refuses to rename over an existing file.
	if _, err := os.Stat(path); err == nil {
		if err := os.Remove(path); err != nil {
			return fmt.Errorf("failed to replace %s: %w", path, err)
		}
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to move state into place: %w", err)
	}
	return nil
}
