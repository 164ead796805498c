package training

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/sanjib-agent/cricketml/pkg/schema"
)

// BoostingParams are the tunable hyperparameters of a boosted ensemble.
// Lambda is the L2 leaf regularization strength; zero gives plain gradient
// boosting, positive values give the xgboost-style regularized variant.
type BoostingParams struct {
	NumTrees     int
	MaxDepth     int
	LearningRate float64
	Subsample    float64
	Lambda       float64
	Seed         int64
}

// GradientBoosting is a stagewise additive ensemble of shallow regression
// trees. Classification optimizes logistic loss on the raw score;
// regression optimizes squared loss.
type GradientBoosting struct {
	Trees        []*DecisionTree `json:"trees"`
	InitScore    float64         `json:"init_score"`
	Task         schema.TaskType `json:"task"`
	NumTrees     int             `json:"num_trees"`
	MaxDepth     int             `json:"max_depth"`
	LearningRate float64         `json:"learning_rate"`
	Subsample    float64         `json:"subsample"`
	Lambda       float64         `json:"lambda"`
	FeatureNames []string        `json:"feature_names"`
	NumFeatures  int             `json:"num_features"`
	Seed         int64           `json:"seed"`
}

// NewGradientBoosting creates an untrained boosted ensemble.
func NewGradientBoosting(task schema.TaskType, params BoostingParams) *GradientBoosting {
	if params.NumTrees <= 0 {
		params.NumTrees = 100
	}
	if params.MaxDepth <= 0 {
		params.MaxDepth = 3
	}
	if params.LearningRate <= 0 {
		params.LearningRate = 0.1
	}
	if params.Subsample <= 0 || params.Subsample > 1 {
		params.Subsample = 1
	}
	return &GradientBoosting{
		Task:         task,
		NumTrees:     params.NumTrees,
		MaxDepth:     params.MaxDepth,
		LearningRate: params.LearningRate,
		Subsample:    params.Subsample,
		Lambda:       params.Lambda,
		Seed:         params.Seed,
	}
}

// Fit trains the ensemble stagewise. Each stage fits a regression tree to
// the loss gradients of a row subsample, then re-values its leaves with the
// Newton step sum(grad)/(sum(hess)+lambda) so the lambda regularization
// applies uniformly to both loss functions.
func (gb *GradientBoosting) Fit(X [][]float64, y []float64, featureNames []string) error {
	if len(X) == 0 {
		return fmt.Errorf("empty training data")
	}
	if len(X) != len(y) {
		return fmt.Errorf("X and y must have same number of samples")
	}
	if len(featureNames) != len(X[0]) {
		return fmt.Errorf("feature names must match number of features")
	}

	gb.FeatureNames = featureNames
	gb.NumFeatures = len(X[0])
	gb.Trees = make([]*DecisionTree, 0, gb.NumTrees)

	n := len(X)
	scores := make([]float64, n)
	gb.InitScore = gb.initialScore(y)
	for i := range scores {
		scores[i] = gb.InitScore
	}

	rng := rand.New(rand.NewSource(gb.Seed))
	grads := make([]float64, n)
	hess := make([]float64, n)

	for stage := 0; stage < gb.NumTrees; stage++ {
		for i := 0; i < n; i++ {
			if gb.Task == schema.TaskClassification {
				p := sigmoid(scores[i])
				grads[i] = y[i] - p
				hess[i] = p * (1 - p)
			} else {
				grads[i] = y[i] - scores[i]
				hess[i] = 1
			}
		}

		sample := subsampleIndices(n, gb.Subsample, rng)
		sampleX := make([][]float64, len(sample))
		sampleGrads := make([]float64, len(sample))
		for i, idx := range sample {
			sampleX[i] = X[idx]
			sampleGrads[i] = grads[idx]
		}

		tree := NewDecisionTree(schema.TaskRegression, gb.MaxDepth, 2, 1)
		if err := tree.Fit(sampleX, sampleGrads, featureNames); err != nil {
			return fmt.Errorf("stage %d training failed: %w", stage, err)
		}
		if err := gb.revalueLeaves(tree, sampleX, sample, grads, hess); err != nil {
			return err
		}
		gb.Trees = append(gb.Trees, tree)

		for i := 0; i < n; i++ {
			pred, err := tree.Predict(X[i])
			if err != nil {
				return err
			}
			scores[i] += gb.LearningRate * pred
		}
	}
	return nil
}

// revalueLeaves replaces each leaf's fitted mean with the regularized
// Newton step computed over the rows that reach it.
func (gb *GradientBoosting) revalueLeaves(tree *DecisionTree, sampleX [][]float64, sample []int, grads, hess []float64) error {
	sumGrad := make(map[*TreeNode]float64)
	sumHess := make(map[*TreeNode]float64)
	for i, idx := range sample {
		leaf, err := tree.leaf(sampleX[i])
		if err != nil {
			return err
		}
		sumGrad[leaf] += grads[idx]
		sumHess[leaf] += hess[idx]
	}
	for leaf, g := range sumGrad {
		if denom := sumHess[leaf] + gb.Lambda; denom > 0 {
			leaf.Value = g / denom
		}
	}
	return nil
}

func (gb *GradientBoosting) initialScore(y []float64) float64 {
	m := mean(y)
	if gb.Task != schema.TaskClassification {
		return m
	}
	// Log-odds of the base rate, clamped away from degenerate labels.
	if m <= 0 {
		m = 1e-6
	}
	if m >= 1 {
		m = 1 - 1e-6
	}
	return math.Log(m / (1 - m))
}

func (gb *GradientBoosting) rawScore(x []float64) (float64, error) {
	if len(gb.Trees) == 0 {
		return 0, fmt.Errorf("model not trained")
	}
	if len(x) != gb.NumFeatures {
		return 0, fmt.Errorf("expected %d features, got %d", gb.NumFeatures, len(x))
	}
	score := gb.InitScore
	for _, tree := range gb.Trees {
		pred, err := tree.Predict(x)
		if err != nil {
			return 0, err
		}
		score += gb.LearningRate * pred
	}
	return score, nil
}

// Predict returns the class code for classification and the value for
// regression.
func (gb *GradientBoosting) Predict(x []float64) (float64, error) {
	score, err := gb.rawScore(x)
	if err != nil {
		return 0, err
	}
	if gb.Task == schema.TaskClassification {
		if sigmoid(score) >= 0.5 {
			return 1, nil
		}
		return 0, nil
	}
	return score, nil
}

// PredictProba returns the positive-class probability.
func (gb *GradientBoosting) PredictProba(x []float64) (float64, error) {
	if gb.Task != schema.TaskClassification {
		return 0, fmt.Errorf("probabilities are only defined for classification")
	}
	score, err := gb.rawScore(x)
	if err != nil {
		return 0, err
	}
	return sigmoid(score), nil
}

// FeatureImportance sums stage-tree importances, normalized.
func (gb *GradientBoosting) FeatureImportance() map[string]float64 {
	importance := make(map[string]float64)
	for _, name := range gb.FeatureNames {
		importance[name] = 0
	}
	for _, tree := range gb.Trees {
		for name, v := range tree.FeatureImportance() {
			importance[name] += v
		}
	}
	normalizeImportance(importance)
	return importance
}

// subsampleIndices draws a fraction of rows without replacement.
func subsampleIndices(n int, fraction float64, rng *rand.Rand) []int {
	if fraction >= 1 {
		all := make([]int, n)
		for i := range all {
			all[i] = i
		}
		return all
	}
	k := int(float64(n) * fraction)
	if k < 1 {
		k = 1
	}
	perm := rng.Perm(n)
	return perm[:k]
}

func sigmoid(z float64) float64 {
	return 1 / (1 + math.Exp(-z))
}
