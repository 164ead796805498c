package training

import (
	"fmt"
	"log"
	"time"

	"github.com/sanjib-agent/cricketml/pkg/dataset"
	"github.com/sanjib-agent/cricketml/pkg/models"
	"github.com/sanjib-agent/cricketml/pkg/schema"
)

// TrainerConfig tunes one training run.
type TrainerConfig struct {
	ModelsDir string
	CVFolds   int
	Seed      int64
	// Grids overrides DefaultGrids when non-nil. Families absent from
	// the override are skipped entirely.
	Grids map[string]map[string][]float64
}

// Result pairs the trained estimator of one family with its artifact
// metadata.
type Result struct {
	Artifact  *models.TrainedModelArtifact
	Estimator Estimator
}

// Trainer runs grid search, refit, and evaluation for every candidate
// family of a target.
type Trainer struct {
	cfg TrainerConfig
}

// NewTrainer creates a trainer.
func NewTrainer(cfg TrainerConfig) *Trainer {
	if cfg.CVFolds <= 1 {
		cfg.CVFolds = 5
	}
	return &Trainer{cfg: cfg}
}

// TrainAll trains every candidate family for the target. A family that
// fails is logged, recorded in the failures map, and skipped so one bad
// configuration cannot sink the run; the error return fires only when no
// family produced a model.
func (t *Trainer) TrainAll(spec schema.TargetSpec, split *dataset.Split, runID string) (map[string]Result, map[string]string, error) {
	grids := t.cfg.Grids
	if grids == nil {
		grids = DefaultGrids(spec.Type)
	}

	results := make(map[string]Result)
	failures := make(map[string]string)
	for _, family := range Families(spec.Type) {
		grid, ok := grids[family]
		if !ok {
			continue
		}

		res, err := t.trainFamily(family, spec, grid, split, runID)
		if err != nil {
			log.Printf("training: target=%s family=%s failed: %v", spec.Name, family, err)
			failures[family] = err.Error()
			continue
		}
		results[family] = res
	}

	if len(results) == 0 {
		return nil, failures, fmt.Errorf("%w: every model family failed for target %s", schema.ErrNoResults, spec.Name)
	}
	return results, failures, nil
}

func (t *Trainer) trainFamily(family string, spec schema.TargetSpec, grid map[string][]float64, split *dataset.Split, runID string) (Result, error) {
	start := time.Now()

	search := NewGridSearch(t.cfg.CVFolds, t.cfg.Seed)
	best, err := search.Run(family, spec.Type, grid, split.XTrain, split.YTrain, split.FeatureNames)
	if err != nil {
		return Result{}, fmt.Errorf("grid search failed: %w", err)
	}

	est, err := NewEstimator(family, spec.Type, best.BestParams, t.cfg.Seed)
	if err != nil {
		return Result{}, err
	}
	if err := est.Fit(split.XTrain, split.YTrain, split.FeatureNames); err != nil {
		return Result{}, fmt.Errorf("refit failed: %w", err)
	}

	classification := spec.Type == schema.TaskClassification
	valMetrics, err := EvaluateEstimator(est, split.XVal, split.YVal, classification)
	if err != nil {
		return Result{}, fmt.Errorf("validation evaluation failed: %w", err)
	}
	testMetrics, err := EvaluateEstimator(est, split.XTest, split.YTest, classification)
	if err != nil {
		return Result{}, fmt.Errorf("test evaluation failed: %w", err)
	}

	path, err := SaveModel(t.cfg.ModelsDir, family, spec.Name, spec.Type, est)
	if err != nil {
		return Result{}, err
	}

	artifact := &models.TrainedModelArtifact{
		Family:       family,
		Target:       spec.Name,
		TaskType:     string(spec.Type),
		RunID:        runID,
		BestParams:   best.BestParams,
		CVScore:      best.BestScore,
		CVScores:     best.FoldScores,
		ValMetrics:   valMetrics,
		TestMetrics:  testMetrics,
		Importance:   RankedImportance(est.FeatureImportance()),
		ModelPath:    path,
		TrainedAt:    time.Now().UTC(),
		TrainingRows: len(split.XTrain),
	}

	log.Printf("training: target=%s family=%s cv=%.4f rows=%d elapsed=%s",
		spec.Name, family, best.BestScore, len(split.XTrain), time.Since(start).Round(time.Millisecond))
	return Result{Artifact: artifact, Estimator: est}, nil
}
