package training

import (
	"fmt"

	"github.com/sanjib-agent/cricketml/pkg/schema"
)

// Model family names. Roster order is the tie-break order during model
// selection, so it is fixed here rather than derived from map iteration.
const (
	FamilyLogisticRegression = "logistic_regression"
	FamilyRandomForest       = "random_forest"
	FamilyGradientBoosting   = "gradient_boosting"
	FamilyXGBoost            = "xgboost"
)

// Families returns the candidate model families for a task, in roster order.
func Families(task schema.TaskType) []string {
	if task == schema.TaskClassification {
		return []string{FamilyLogisticRegression, FamilyRandomForest, FamilyGradientBoosting, FamilyXGBoost}
	}
	return []string{FamilyRandomForest, FamilyGradientBoosting, FamilyXGBoost}
}

// Estimator is the common surface of all trainable models. Classification
// estimators work on 0/1 labels and predict the class code; regression
// estimators predict the value directly.
type Estimator interface {
	Fit(X [][]float64, y []float64, featureNames []string) error
	Predict(x []float64) (float64, error)
	FeatureImportance() map[string]float64
}

// ProbabilisticEstimator is implemented by classification estimators that
// can report the positive-class probability.
type ProbabilisticEstimator interface {
	Estimator
	PredictProba(x []float64) (float64, error)
}

// NewEstimator constructs an untrained estimator for a family with the
// given hyperparameters. Missing parameters fall back to family defaults.
func NewEstimator(family string, task schema.TaskType, params map[string]float64, seed int64) (Estimator, error) {
	switch family {
	case FamilyLogisticRegression:
		if task != schema.TaskClassification {
			return nil, fmt.Errorf("%s supports classification only", family)
		}
		return NewLogisticRegression(paramOr(params, "c", 1.0)), nil
	case FamilyRandomForest:
		return NewRandomForest(task, RandomForestParams{
			NumTrees:        int(paramOr(params, "num_trees", 100)),
			MaxDepth:        int(paramOr(params, "max_depth", 10)),
			MinSamplesSplit: int(paramOr(params, "min_samples_split", 2)),
			MinSamplesLeaf:  int(paramOr(params, "min_samples_leaf", 1)),
			Seed:            seed,
		}), nil
	case FamilyGradientBoosting:
		return NewGradientBoosting(task, BoostingParams{
			NumTrees:     int(paramOr(params, "num_trees", 100)),
			MaxDepth:     int(paramOr(params, "max_depth", 3)),
			LearningRate: paramOr(params, "learning_rate", 0.1),
			Subsample:    paramOr(params, "subsample", 1.0),
			Seed:         seed,
		}), nil
	case FamilyXGBoost:
		return NewGradientBoosting(task, BoostingParams{
			NumTrees:     int(paramOr(params, "num_trees", 100)),
			MaxDepth:     int(paramOr(params, "max_depth", 3)),
			LearningRate: paramOr(params, "learning_rate", 0.1),
			Subsample:    paramOr(params, "subsample", 1.0),
			Lambda:       paramOr(params, "lambda", 1.0),
			Seed:         seed,
		}), nil
	}
	return nil, fmt.Errorf("unknown model family %q", family)
}

func paramOr(params map[string]float64, key string, fallback float64) float64 {
	if v, ok := params[key]; ok {
		return v
	}
	return fallback
}
