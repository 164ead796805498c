package training

import (
	"fmt"
	"math"
	"runtime"
	"sort"
	"sync"

	"github.com/sanjib-agent/cricketml/pkg/schema"
)

// DefaultGrids returns the hyperparameter grid for each candidate family.
// The grids keep the shape of the conventional search spaces for these
// families, sized for the in-repo estimators.
func DefaultGrids(task schema.TaskType) map[string]map[string][]float64 {
	grids := map[string]map[string][]float64{
		FamilyRandomForest: {
			"num_trees":         {50, 100},
			"max_depth":         {5, 10},
			"min_samples_split": {2, 5},
			"min_samples_leaf":  {1, 2},
		},
		FamilyGradientBoosting: {
			"num_trees":     {50, 100},
			"learning_rate": {0.05, 0.1},
			"max_depth":     {3, 5},
			"subsample":     {0.8, 1.0},
		},
		FamilyXGBoost: {
			"num_trees":     {50, 100},
			"learning_rate": {0.05, 0.1},
			"max_depth":     {3, 5},
			"subsample":     {0.8, 1.0},
			"lambda":        {1, 10},
		},
	}
	if task == schema.TaskClassification {
		grids[FamilyLogisticRegression] = map[string][]float64{
			"c": {0.1, 1, 10, 100},
		}
	}
	return grids
}

// SearchResult is the outcome of one grid search.
type SearchResult struct {
	BestParams map[string]float64
	BestScore  float64
	FoldScores []float64
}

// GridSearch runs exhaustive k-fold cross-validated hyperparameter search.
// Classification is scored by weighted F1, regression by negated MSE, so
// higher is always better.
type GridSearch struct {
	Folds       int
	Seed        int64
	Parallelism int
}

// NewGridSearch creates a search with k folds.
func NewGridSearch(folds int, seed int64) *GridSearch {
	if folds <= 1 {
		folds = 5
	}
	return &GridSearch{Folds: folds, Seed: seed, Parallelism: runtime.NumCPU()}
}

// Run scores every parameter combination and returns the best one with its
// per-fold diagnostic scores.
func (g *GridSearch) Run(family string, task schema.TaskType, grid map[string][]float64, X [][]float64, y []float64, featureNames []string) (*SearchResult, error) {
	if len(X) < g.Folds {
		return nil, fmt.Errorf("not enough samples for %d-fold cross-validation", g.Folds)
	}

	combos := expandGrid(grid)
	workers := g.Parallelism
	if workers < 1 {
		workers = 1
	}

	type comboScore struct {
		idx        int
		score      float64
		foldScores []float64
		err        error
	}
	results := make([]comboScore, len(combos))

	var wg sync.WaitGroup
	sem := make(chan struct{}, workers)
	for i, combo := range combos {
		wg.Add(1)
		go func(idx int, params map[string]float64) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			foldScores, err := g.crossValidate(family, task, params, X, y, featureNames)
			if err != nil {
				results[idx] = comboScore{idx: idx, err: err}
				return
			}
			results[idx] = comboScore{idx: idx, score: mean(foldScores), foldScores: foldScores}
		}(i, combo)
	}
	wg.Wait()

	best := -1
	bestScore := math.Inf(-1)
	var lastErr error
	for _, r := range results {
		if r.err != nil {
			lastErr = r.err
			continue
		}
		if r.score > bestScore {
			bestScore = r.score
			best = r.idx
		}
	}
	if best < 0 {
		if lastErr != nil {
			return nil, fmt.Errorf("all parameter combinations failed: %w", lastErr)
		}
		return nil, fmt.Errorf("empty parameter grid")
	}

	return &SearchResult{
		BestParams: combos[best],
		BestScore:  bestScore,
		FoldScores: results[best].foldScores,
	}, nil
}

// crossValidate scores one parameter combination across contiguous folds.
func (g *GridSearch) crossValidate(family string, task schema.TaskType, params map[string]float64, X [][]float64, y []float64, featureNames []string) ([]float64, error) {
	scores := make([]float64, g.Folds)
	for fold := 0; fold < g.Folds; fold++ {
		trainX, trainY, valX, valY := foldSplit(X, y, fold, g.Folds)

		est, err := NewEstimator(family, task, params, g.Seed+int64(fold))
		if err != nil {
			return nil, err
		}
		if err := est.Fit(trainX, trainY, featureNames); err != nil {
			return nil, fmt.Errorf("fold %d training failed: %w", fold, err)
		}

		metrics, err := EvaluateEstimator(est, valX, valY, task == schema.TaskClassification)
		if err != nil {
			return nil, fmt.Errorf("fold %d evaluation failed: %w", fold, err)
		}
		if task == schema.TaskClassification {
			scores[fold] = metrics["f1_score"]
		} else {
			scores[fold] = -metrics["mse"]
		}
	}
	return scores, nil
}

// expandGrid builds the cartesian product of the grid in deterministic
// (sorted key) order.
func expandGrid(grid map[string][]float64) []map[string]float64 {
	keys := make([]string, 0, len(grid))
	for k := range grid {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	combos := []map[string]float64{{}}
	for _, key := range keys {
		var next []map[string]float64
		for _, combo := range combos {
			for _, v := range grid[key] {
				expanded := make(map[string]float64, len(combo)+1)
				for k2, v2 := range combo {
					expanded[k2] = v2
				}
				expanded[key] = v
				next = append(next, expanded)
			}
		}
		combos = next
	}
	return combos
}

// foldSplit carves the fold-th contiguous validation slice out of the data.
func foldSplit(X [][]float64, y []float64, fold, k int) ([][]float64, []float64, [][]float64, []float64) {
	n := len(X)
	foldSize := n / k
	valStart := fold * foldSize
	valEnd := valStart + foldSize
	if fold == k-1 {
		valEnd = n
	}

	valX := X[valStart:valEnd]
	valY := y[valStart:valEnd]

	trainX := append([][]float64{}, X[:valStart]...)
	trainX = append(trainX, X[valEnd:]...)
	trainY := append([]float64{}, y[:valStart]...)
	trainY = append(trainY, y[valEnd:]...)

	return trainX, trainY, valX, valY
}
