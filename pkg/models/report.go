package models

import "time"

// ModelReport aggregates per-family results for one target and names the
// winning family. Reports are derived from artifacts and regenerable; they
// are not authoritative state.
type ModelReport struct {
	TargetName string                  `json:"target_name"`
	TaskType   string                  `json:"task_type"`
	Timestamp  time.Time               `json:"timestamp"`
	Models     map[string]FamilyReport `json:"models"`
	BestModel  string                  `json:"best_model"`
	Summary    ReportSummary           `json:"summary"`
}

// FamilyReport summarizes one family's training outcome. Err is set when the
// family failed; failed families are excluded from selection.
type FamilyReport struct {
	Err        string             `json:"error,omitempty"`
	BestParams map[string]float64 `json:"best_params,omitempty"`
	CVScore    float64            `json:"cv_score,omitempty"`
	CVScores   []float64          `json:"cv_scores,omitempty"`
	ValMetrics map[string]float64 `json:"val_metrics,omitempty"`
	Importance []FeatureWeight    `json:"feature_importance,omitempty"` // top 10
	TrainedAt  time.Time          `json:"trained_at,omitempty"`
}

// ReportSummary carries the cross-model comparison.
type ReportSummary struct {
	TotalModels     int                        `json:"total_models"`
	BestModel       string                     `json:"best_model"`
	ModelComparison map[string]ModelComparison `json:"model_comparison"`
}

// ModelComparison holds one family's headline numbers: the validation score
// used for selection and the mean diagnostic cross-validation score.
type ModelComparison struct {
	ValidationScore float64 `json:"validation_score"`
	CVMean          float64 `json:"cv_mean"`
}
