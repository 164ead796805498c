package training

import (
	"fmt"
	"sort"

	"github.com/sanjib-agent/cricketml/pkg/schema"
)

// TreeNode is one node of a decision tree. Leaves carry the positive-class
// fraction (classification) or the mean target value (regression) in Value.
type TreeNode struct {
	IsLeaf       bool      `json:"is_leaf"`
	Feature      string    `json:"feature,omitempty"`
	FeatureIndex int       `json:"feature_index,omitempty"`
	Threshold    float64   `json:"threshold,omitempty"`
	Left         *TreeNode `json:"left,omitempty"`
	Right        *TreeNode `json:"right,omitempty"`
	Value        float64   `json:"value"`
	SamplesCount int       `json:"samples_count"`
	Depth        int       `json:"depth"`
}

// DecisionTree is a CART-style binary tree used directly and as the base
// learner for the ensemble families. Classification labels must be 0/1.
type DecisionTree struct {
	Root            *TreeNode       `json:"root"`
	Task            schema.TaskType `json:"task"`
	MaxDepth        int             `json:"max_depth"`
	MinSamplesSplit int             `json:"min_samples_split"`
	MinSamplesLeaf  int             `json:"min_samples_leaf"`
	FeatureNames    []string        `json:"feature_names"`
	NumFeatures     int             `json:"num_features"`
}

// NewDecisionTree creates an untrained tree with default guards applied to
// non-positive hyperparameters.
func NewDecisionTree(task schema.TaskType, maxDepth, minSamplesSplit, minSamplesLeaf int) *DecisionTree {
	if maxDepth <= 0 {
		maxDepth = 10
	}
	if minSamplesSplit <= 0 {
		minSamplesSplit = 2
	}
	if minSamplesLeaf <= 0 {
		minSamplesLeaf = 1
	}
	return &DecisionTree{
		Task:            task,
		MaxDepth:        maxDepth,
		MinSamplesSplit: minSamplesSplit,
		MinSamplesLeaf:  minSamplesLeaf,
	}
}

// Fit builds the tree from training data.
func (t *DecisionTree) Fit(X [][]float64, y []float64, featureNames []string) error {
	if len(X) == 0 {
		return fmt.Errorf("empty training data")
	}
	if len(X) != len(y) {
		return fmt.Errorf("X and y must have same number of samples")
	}
	if len(featureNames) != len(X[0]) {
		return fmt.Errorf("feature names must match number of features")
	}

	t.FeatureNames = featureNames
	t.NumFeatures = len(X[0])

	indices := make([]int, len(X))
	for i := range indices {
		indices[i] = i
	}
	t.Root = t.buildTree(X, y, indices, 0)
	return nil
}

func (t *DecisionTree) buildTree(X [][]float64, y []float64, indices []int, depth int) *TreeNode {
	node := &TreeNode{
		SamplesCount: len(indices),
		Depth:        depth,
	}

	values := make([]float64, len(indices))
	for i, idx := range indices {
		values[i] = y[idx]
	}
	node.Value = mean(values)

	if depth >= t.MaxDepth || len(indices) < t.MinSamplesSplit || t.impurity(values) < 1e-7 {
		node.IsLeaf = true
		return node
	}

	bestFeature, bestThreshold, bestGain := t.findBestSplit(X, y, indices)
	if bestGain <= 0 {
		node.IsLeaf = true
		return node
	}

	leftIndices, rightIndices := splitIndices(X, indices, bestFeature, bestThreshold)
	if len(leftIndices) < t.MinSamplesLeaf || len(rightIndices) < t.MinSamplesLeaf {
		node.IsLeaf = true
		return node
	}

	node.Feature = t.FeatureNames[bestFeature]
	node.FeatureIndex = bestFeature
	node.Threshold = bestThreshold
	node.Left = t.buildTree(X, y, leftIndices, depth+1)
	node.Right = t.buildTree(X, y, rightIndices, depth+1)
	return node
}

// findBestSplit scans every feature and candidate threshold for the split
// with the largest impurity reduction.
func (t *DecisionTree) findBestSplit(X [][]float64, y []float64, indices []int) (int, float64, float64) {
	bestGain := 0.0
	bestFeature := -1
	bestThreshold := 0.0

	parentValues := make([]float64, len(indices))
	for i, idx := range indices {
		parentValues[i] = y[idx]
	}
	parentImpurity := t.impurity(parentValues)

	for feature := 0; feature < t.NumFeatures; feature++ {
		values := make([]float64, len(indices))
		for i, idx := range indices {
			values[i] = X[idx][feature]
		}

		for _, threshold := range candidateThresholds(values) {
			leftIndices, rightIndices := splitIndices(X, indices, feature, threshold)
			if len(leftIndices) == 0 || len(rightIndices) == 0 {
				continue
			}

			leftValues := make([]float64, len(leftIndices))
			for i, idx := range leftIndices {
				leftValues[i] = y[idx]
			}
			rightValues := make([]float64, len(rightIndices))
			for i, idx := range rightIndices {
				rightValues[i] = y[idx]
			}

			n := float64(len(indices))
			weighted := (float64(len(leftIndices))/n)*t.impurity(leftValues) +
				(float64(len(rightIndices))/n)*t.impurity(rightValues)
			gain := parentImpurity - weighted

			if gain > bestGain {
				bestGain = gain
				bestFeature = feature
				bestThreshold = threshold
			}
		}
	}
	return bestFeature, bestThreshold, bestGain
}

// impurity is Gini for classification (labels 0/1) and variance for
// regression. For 0/1 labels Gini is 2p(1-p) which shares its minima with
// variance, but matching the conventional criterion keeps reported gains
// comparable across tasks.
func (t *DecisionTree) impurity(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	if t.Task == schema.TaskClassification {
		p := mean(values)
		return 2 * p * (1 - p)
	}
	return variance(values, mean(values))
}

// Predict returns the class code for classification and the value for
// regression.
func (t *DecisionTree) Predict(x []float64) (float64, error) {
	leaf, err := t.leaf(x)
	if err != nil {
		return 0, err
	}
	if t.Task == schema.TaskClassification {
		if leaf.Value >= 0.5 {
			return 1, nil
		}
		return 0, nil
	}
	return leaf.Value, nil
}

// PredictProba returns the positive-class probability at the leaf.
func (t *DecisionTree) PredictProba(x []float64) (float64, error) {
	leaf, err := t.leaf(x)
	if err != nil {
		return 0, err
	}
	return leaf.Value, nil
}

func (t *DecisionTree) leaf(x []float64) (*TreeNode, error) {
	if t.Root == nil {
		return nil, fmt.Errorf("model not trained")
	}
	if len(x) != t.NumFeatures {
		return nil, fmt.Errorf("expected %d features, got %d", t.NumFeatures, len(x))
	}
	node := t.Root
	for !node.IsLeaf {
		if x[node.FeatureIndex] <= node.Threshold {
			node = node.Left
		} else {
			node = node.Right
		}
	}
	return node, nil
}

// FeatureImportance weights each split feature by the samples that reached
// it, normalized to sum to one.
func (t *DecisionTree) FeatureImportance() map[string]float64 {
	importance := make(map[string]float64)
	for _, name := range t.FeatureNames {
		importance[name] = 0
	}
	if t.Root != nil {
		accumulateImportance(t.Root, importance)
	}
	normalizeImportance(importance)
	return importance
}

func accumulateImportance(node *TreeNode, importance map[string]float64) {
	if node == nil || node.IsLeaf {
		return
	}
	importance[node.Feature] += float64(node.SamplesCount)
	accumulateImportance(node.Left, importance)
	accumulateImportance(node.Right, importance)
}

func normalizeImportance(importance map[string]float64) {
	total := 0.0
	for _, v := range importance {
		total += v
	}
	if total > 0 {
		for name := range importance {
			importance[name] /= total
		}
	}
}

func splitIndices(X [][]float64, indices []int, feature int, threshold float64) ([]int, []int) {
	var left, right []int
	for _, idx := range indices {
		if X[idx][feature] <= threshold {
			left = append(left, idx)
		} else {
			right = append(right, idx)
		}
	}
	return left, right
}

// candidateThresholds returns midpoints between consecutive unique values.
func candidateThresholds(values []float64) []float64 {
	seen := make(map[float64]bool)
	unique := make([]float64, 0, len(values))
	for _, v := range values {
		if !seen[v] {
			seen[v] = true
			unique = append(unique, v)
		}
	}
	if len(unique) < 2 {
		return nil
	}
	sort.Float64s(unique)

	thresholds := make([]float64, len(unique)-1)
	for i := 0; i < len(unique)-1; i++ {
		thresholds[i] = (unique[i] + unique[i+1]) / 2
	}
	return thresholds
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func variance(values []float64, mean float64) float64 {
	if len(values) == 0 {
		return 0
	}
	v := 0.0
	for _, val := range values {
		diff := val - mean
		v += diff * diff
	}
	return v / float64(len(values))
}
