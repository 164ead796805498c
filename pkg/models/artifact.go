package models

import "time"

// TrainedModelArtifact describes one persisted model, keyed by
// (model family, target name). Artifacts are immutable after creation;
// retraining supersedes the previous artifact rather than mutating it.
type TrainedModelArtifact struct {
	Family       string             `json:"family"`
	Target       string             `json:"target"`
	TaskType     string             `json:"task_type"`
	RunID        string             `json:"run_id"`
	BestParams   map[string]float64 `json:"best_params"`
	CVScore      float64            `json:"cv_score"`             // best grid-search score, 0 if no grid
	CVScores     []float64          `json:"cv_scores"`            // diagnostic k-fold scores on training partition
	ValMetrics   map[string]float64 `json:"val_metrics"`          // validation partition metrics
	TestMetrics  map[string]float64 `json:"test_metrics,omitempty"` // held-out test metrics
	Importance   []FeatureWeight    `json:"feature_importance"`
	ModelPath    string             `json:"model_path"`
	TrainedAt    time.Time          `json:"trained_at"`
	TrainingRows int                `json:"training_rows"`
}

// FeatureWeight pairs a feature column with its importance, kept in a slice
// so descending order survives serialization.
type FeatureWeight struct {
	Feature string  `json:"feature"`
	Weight  float64 `json:"weight"`
}

// PreprocessorState is the fitted feature-pipeline state written alongside a
// target's model artifacts. Inference loads and reuses this exact state;
// it never re-fits encoders or scaling parameters.
type PreprocessorState struct {
	Target         string              `json:"target"`
	FeatureColumns []string            `json:"feature_columns"` // final training-time column order
	Encoders       map[string][]string `json:"encoders"`        // column -> fitted class labels
	ScalerMean     []float64           `json:"scaler_mean"`
	ScalerStd      []float64           `json:"scaler_std"`
	CreatedAt      time.Time           `json:"created_at"`
}
