package training

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sanjib-agent/cricketml/pkg/schema"
)

// modelFile is the on-disk envelope for a trained estimator. The family
// field picks the concrete type at load time.
type modelFile struct {
	Family string          `json:"family"`
	Target string          `json:"target"`
	Task   schema.TaskType `json:"task"`
	Model  json.RawMessage `json:"model"`
}

// ModelFileName returns the conventional file name for a (family, target)
// pair.
func ModelFileName(family, target string) string {
	return fmt.Sprintf("%s_%s.json", family, target)
}

// SaveModel writes an estimator to dir as a JSON model file and returns
// its path.
func SaveModel(dir, family, target string, task schema.TaskType, est Estimator) (string, error) {
	raw, err := json.Marshal(est)
	if err != nil {
		return "", fmt.Errorf("failed to marshal %s model: %w", family, err)
	}
	data, err := json.MarshalIndent(modelFile{
		Family: family,
		Target: target,
		Task:   task,
		Model:  raw,
	}, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal model file: %w", err)
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create models dir: %w", err)
	}
	path := filepath.Join(dir, ModelFileName(family, target))
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write model file: %w", err)
	}
	return path, nil
}

// LoadModel reads a model file and reconstructs the estimator.
func LoadModel(path string) (Estimator, *ModelFileInfo, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read model file: %w", err)
	}

	var file modelFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, nil, fmt.Errorf("failed to unmarshal model file: %w", err)
	}

	var est Estimator
	switch file.Family {
	case FamilyLogisticRegression:
		est = &LogisticRegression{}
	case FamilyRandomForest:
		est = &RandomForest{}
	case FamilyGradientBoosting, FamilyXGBoost:
		est = &GradientBoosting{}
	default:
		return nil, nil, fmt.Errorf("unknown model family %q in %s", file.Family, path)
	}
	if err := json.Unmarshal(file.Model, est); err != nil {
		return nil, nil, fmt.Errorf("failed to unmarshal %s model: %w", file.Family, err)
	}
	return est, &ModelFileInfo{Family: file.Family, Target: file.Target, Task: file.Task}, nil
}

// ModelFileInfo is the envelope metadata returned alongside a loaded model.
type ModelFileInfo struct {
	Family string
	Target string
	Task   schema.TaskType
}
