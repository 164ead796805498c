package inference

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sanjib-agent/cricketml/pkg/models"
)

// StateFileName returns the conventional preprocessor-state file name for a
// target.
func StateFileName(target string) string {
	return fmt.Sprintf("preprocessor_%s.json", target)
}

// SaveState writes the fitted preprocessor state next to a target's model
// files and returns the path.
func SaveState(dir string, state *models.PreprocessorState) (string, error) {
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal preprocessor state: %w", err)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create models dir: %w", err)
	}
	path := filepath.Join(dir, StateFileName(state.Target))
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write preprocessor state: %w", err)
	}
	return path, nil
}

// LoadState reads a target's preprocessor state.
func LoadState(dir, target string) (*models.PreprocessorState, error) {
	data, err := os.ReadFile(filepath.Join(dir, StateFileName(target)))
	if err != nil {
		return nil, fmt.Errorf("failed to read preprocessor state for %s: %w", target, err)
	}
	var state models.PreprocessorState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("failed to unmarshal preprocessor state for %s: %w", target, err)
	}
	return &state, nil
}
