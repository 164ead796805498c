package training

import (
	"fmt"
	"math"
	"math/rand"
	"sync"

	"github.com/sanjib-agent/cricketml/pkg/schema"
)

// RandomForestParams are the tunable hyperparameters of a forest.
type RandomForestParams struct {
	NumTrees        int
	MaxDepth        int
	MinSamplesSplit int
	MinSamplesLeaf  int
	Seed            int64
}

// RandomForest is a bagged ensemble of decision trees. Each tree trains on
// a bootstrap sample over a random sqrt-sized feature subset, and trees
// train in parallel.
type RandomForest struct {
	Trees           []*DecisionTree `json:"trees"`
	TreeFeatures    [][]int         `json:"tree_features"`
	Task            schema.TaskType `json:"task"`
	NumTrees        int             `json:"num_trees"`
	MaxDepth        int             `json:"max_depth"`
	MinSamplesSplit int             `json:"min_samples_split"`
	MinSamplesLeaf  int             `json:"min_samples_leaf"`
	MaxFeatures     int             `json:"max_features"`
	FeatureNames    []string        `json:"feature_names"`
	NumFeatures     int             `json:"num_features"`
	Seed            int64           `json:"seed"`
}

// NewRandomForest creates an untrained forest.
func NewRandomForest(task schema.TaskType, params RandomForestParams) *RandomForest {
	if params.NumTrees <= 0 {
		params.NumTrees = 100
	}
	return &RandomForest{
		Task:            task,
		NumTrees:        params.NumTrees,
		MaxDepth:        params.MaxDepth,
		MinSamplesSplit: params.MinSamplesSplit,
		MinSamplesLeaf:  params.MinSamplesLeaf,
		Seed:            params.Seed,
	}
}

// Fit trains the ensemble. Per-tree seeds are drawn up front from the
// forest seed so tree goroutines never share a rand source and the forest
// is reproducible regardless of scheduling order.
func (rf *RandomForest) Fit(X [][]float64, y []float64, featureNames []string) error {
	if len(X) == 0 {
		return fmt.Errorf("empty training data")
	}
	if len(X) != len(y) {
		return fmt.Errorf("X and y must have same number of samples")
	}
	if len(featureNames) != len(X[0]) {
		return fmt.Errorf("feature names must match number of features")
	}

	rf.FeatureNames = featureNames
	rf.NumFeatures = len(X[0])
	rf.MaxFeatures = int(math.Sqrt(float64(rf.NumFeatures)))
	if rf.MaxFeatures < 1 {
		rf.MaxFeatures = 1
	}

	seeder := rand.New(rand.NewSource(rf.Seed))
	treeSeeds := make([]int64, rf.NumTrees)
	for i := range treeSeeds {
		treeSeeds[i] = seeder.Int63()
	}

	rf.Trees = make([]*DecisionTree, rf.NumTrees)
	rf.TreeFeatures = make([][]int, rf.NumTrees)

	var wg sync.WaitGroup
	var mu sync.Mutex
	var firstErr error

	for i := 0; i < rf.NumTrees; i++ {
		wg.Add(1)
		go func(treeIdx int) {
			defer wg.Done()

			rng := rand.New(rand.NewSource(treeSeeds[treeIdx]))
			bootX, bootY := bootstrapSample(X, y, rng)
			selected := rf.selectFeatures(rng)
			subX, subNames := projectFeatures(bootX, selected, rf.FeatureNames)

			tree := NewDecisionTree(rf.Task, rf.MaxDepth, rf.MinSamplesSplit, rf.MinSamplesLeaf)
			if err := tree.Fit(subX, bootY, subNames); err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = fmt.Errorf("tree %d training failed: %w", treeIdx, err)
				}
				mu.Unlock()
				return
			}
			rf.Trees[treeIdx] = tree
			rf.TreeFeatures[treeIdx] = selected
		}(i)
	}
	wg.Wait()
	return firstErr
}

// Predict majority-votes the trees for classification and averages them
// for regression.
func (rf *RandomForest) Predict(x []float64) (float64, error) {
	if rf.Task == schema.TaskClassification {
		p, err := rf.PredictProba(x)
		if err != nil {
			return 0, err
		}
		if p >= 0.5 {
			return 1, nil
		}
		return 0, nil
	}

	sum := 0.0
	valid := 0
	for i, tree := range rf.Trees {
		if tree == nil {
			continue
		}
		pred, err := tree.Predict(rf.treeInput(x, i))
		if err != nil {
			return 0, err
		}
		sum += pred
		valid++
	}
	if valid == 0 {
		return 0, fmt.Errorf("model not trained")
	}
	return sum / float64(valid), nil
}

// PredictProba averages the positive-class fractions across trees.
func (rf *RandomForest) PredictProba(x []float64) (float64, error) {
	if len(x) != rf.NumFeatures {
		return 0, fmt.Errorf("expected %d features, got %d", rf.NumFeatures, len(x))
	}
	sum := 0.0
	valid := 0
	for i, tree := range rf.Trees {
		if tree == nil {
			continue
		}
		p, err := tree.PredictProba(rf.treeInput(x, i))
		if err != nil {
			return 0, err
		}
		sum += p
		valid++
	}
	if valid == 0 {
		return 0, fmt.Errorf("model not trained")
	}
	return sum / float64(valid), nil
}

// FeatureImportance averages tree importances. Trees only know their own
// feature subset, so unseen features simply contribute zero.
func (rf *RandomForest) FeatureImportance() map[string]float64 {
	importance := make(map[string]float64)
	for _, name := range rf.FeatureNames {
		importance[name] = 0
	}
	for _, tree := range rf.Trees {
		if tree == nil {
			continue
		}
		for name, v := range tree.FeatureImportance() {
			importance[name] += v
		}
	}
	normalizeImportance(importance)
	return importance
}

func (rf *RandomForest) treeInput(x []float64, treeIdx int) []float64 {
	selected := rf.TreeFeatures[treeIdx]
	sub := make([]float64, len(selected))
	for j, fIdx := range selected {
		sub[j] = x[fIdx]
	}
	return sub
}

func (rf *RandomForest) selectFeatures(rng *rand.Rand) []int {
	features := make([]int, rf.NumFeatures)
	for i := range features {
		features[i] = i
	}
	rng.Shuffle(len(features), func(i, j int) {
		features[i], features[j] = features[j], features[i]
	})
	return features[:rf.MaxFeatures]
}

func bootstrapSample(X [][]float64, y []float64, rng *rand.Rand) ([][]float64, []float64) {
	n := len(X)
	bootX := make([][]float64, n)
	bootY := make([]float64, n)
	for i := 0; i < n; i++ {
		idx := rng.Intn(n)
		bootX[i] = X[idx]
		bootY[i] = y[idx]
	}
	return bootX, bootY
}

func projectFeatures(X [][]float64, selected []int, names []string) ([][]float64, []string) {
	subX := make([][]float64, len(X))
	for i := range X {
		row := make([]float64, len(selected))
		for j, fIdx := range selected {
			row[j] = X[i][fIdx]
		}
		subX[i] = row
	}
	subNames := make([]string, len(selected))
	for i, fIdx := range selected {
		subNames[i] = names[fIdx]
	}
	return subX, subNames
}
