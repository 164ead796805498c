package pipeline

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/sanjib-agent/cricketml/pkg/config"
	"github.com/sanjib-agent/cricketml/pkg/dataset"
	"github.com/sanjib-agent/cricketml/pkg/features"
	"github.com/sanjib-agent/cricketml/pkg/inference"
	"github.com/sanjib-agent/cricketml/pkg/models"
	"github.com/sanjib-agent/cricketml/pkg/registry"
	"github.com/sanjib-agent/cricketml/pkg/report"
	"github.com/sanjib-agent/cricketml/pkg/schema"
	"github.com/sanjib-agent/cricketml/pkg/store"
	"github.com/sanjib-agent/cricketml/pkg/training"
)

// Loader supplies raw over-feature documents. The Mongo store satisfies
// it; tests substitute an in-memory implementation.
type Loader interface {
	LoadOverFeatures(ctx context.Context, opts store.LoadOptions) ([]map[string]interface{}, error)
}

// TargetOutcome summarizes one target's training within a run.
type TargetOutcome struct {
	Err        string `json:"error,omitempty"`
	BestModel  string `json:"best_model,omitempty"`
	ReportPath string `json:"report_path,omitempty"`
	Models     int    `json:"models"`
	Failures   int    `json:"failures"`
}

// RunSummary is the outcome of one end-to-end training run. A run succeeds
// partially: targets that fail are recorded here without sinking the rest.
type RunSummary struct {
	RunID      string                   `json:"run_id"`
	StartedAt  time.Time                `json:"started_at"`
	FinishedAt time.Time                `json:"finished_at"`
	Rows       int                      `json:"rows"`
	Features   *features.FeatureInfo    `json:"features,omitempty"`
	Targets    map[string]TargetOutcome `json:"targets"`
}

// Service runs the training pipeline: load, normalize, then per target
// split, train, select, and persist.
type Service struct {
	cfg      *config.Config
	loader   Loader
	registry *registry.Registry
	reporter *report.Reporter
	targets  *schema.Registry

	// TrainingGrids overrides the default hyperparameter grids when
	// non-nil. Smaller grids keep experiment and test runs fast.
	TrainingGrids map[string]map[string][]float64

	// SampleLimit caps the number of over documents loaded per run.
	// Zero loads everything.
	SampleLimit int64
}

// New creates a pipeline service. The artifact registry may be nil, in
// which case selections are only written to report files.
func New(cfg *config.Config, loader Loader, artifactRegistry *registry.Registry) *Service {
	return &Service{
		cfg:      cfg,
		loader:   loader,
		registry: artifactRegistry,
		reporter: report.NewReporter(cfg.ReportsDir),
		targets:  schema.NewRegistry(),
	}
}

// Run executes the pipeline for the named targets (all registered targets
// when the list is empty). The error return fires only when the run as a
// whole cannot proceed or every target fails.
func (s *Service) Run(ctx context.Context, targetNames []string) (*RunSummary, error) {
	summary := &RunSummary{
		RunID:     uuid.NewString(),
		StartedAt: time.Now().UTC(),
		Targets:   make(map[string]TargetOutcome),
	}
	if len(targetNames) == 0 {
		targetNames = s.targets.TargetNames()
	}
	log.Printf("pipeline: run %s starting for targets %v", summary.RunID, targetNames)

	rows, err := s.loader.LoadOverFeatures(ctx, store.LoadOptions{
		Limit:            s.SampleLimit,
		MinOversPerMatch: s.cfg.MinSamplesPerMatch,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load training data: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: no over feature documents available", schema.ErrNoData)
	}
	summary.Rows = len(rows)

	normalizer := features.NewNormalizer()
	normalizer.MaxMissingRatio = s.cfg.MaxMissingRatio
	normalizer.OutlierZ = s.cfg.OutlierThreshold
	frame, err := normalizer.Normalize(rows)
	if err != nil {
		return nil, fmt.Errorf("feature normalization failed: %w", err)
	}
	summary.Features = features.Describe(frame)
	log.Printf("pipeline: normalized %d samples into %d numeric and %d categorical features",
		summary.Features.TotalSamples, summary.Features.NumericalFeatures, summary.Features.CategoricalFeatures)

	succeeded := 0
	for _, name := range targetNames {
		outcome := s.runTarget(name, frame, normalizer, summary.RunID)
		summary.Targets[name] = outcome
		if outcome.Err == "" {
			succeeded++
		}
	}
	summary.FinishedAt = time.Now().UTC()

	if succeeded == 0 {
		return summary, fmt.Errorf("%w: every target failed in run %s", schema.ErrNoResults, summary.RunID)
	}
	log.Printf("pipeline: run %s finished, %d/%d targets succeeded in %s",
		summary.RunID, succeeded, len(targetNames), summary.FinishedAt.Sub(summary.StartedAt).Round(time.Second))
	return summary, nil
}

func (s *Service) runTarget(name string, frame *features.Frame, normalizer *features.Normalizer, runID string) TargetOutcome {
	spec, err := s.targets.Target(name)
	if err != nil {
		return TargetOutcome{Err: err.Error()}
	}

	split, err := dataset.MakeSplit(frame, spec, dataset.SplitterConfig{
		TestFraction:       s.cfg.TestSize,
		ValidationFraction: s.cfg.ValidationSize,
		Seed:               s.cfg.RandomState,
	})
	if err != nil {
		return TargetOutcome{Err: fmt.Sprintf("split failed: %v", err)}
	}

	trainer := training.NewTrainer(training.TrainerConfig{
		ModelsDir: s.cfg.ModelsDir,
		CVFolds:   s.cfg.CVFolds,
		Seed:      s.cfg.RandomState,
		Grids:     s.TrainingGrids,
	})
	results, failures, err := trainer.TrainAll(spec, split, runID)
	if err != nil {
		return TargetOutcome{Err: err.Error(), Failures: len(failures)}
	}

	modelReport, err := s.reporter.Build(spec, results, failures)
	if err != nil {
		return TargetOutcome{Err: err.Error(), Models: len(results), Failures: len(failures)}
	}
	reportPath, err := s.reporter.Write(modelReport)
	if err != nil {
		return TargetOutcome{Err: err.Error(), Models: len(results), Failures: len(failures)}
	}

	if _, err := inference.SaveState(s.cfg.ModelsDir, &models.PreprocessorState{
		Target:         spec.Name,
		FeatureColumns: split.FeatureNames,
		Encoders:       normalizer.EncoderState(),
		ScalerMean:     split.Scaler.Mean,
		ScalerStd:      split.Scaler.Std,
		CreatedAt:      time.Now().UTC(),
	}); err != nil {
		return TargetOutcome{Err: fmt.Sprintf("failed to persist preprocessor state: %v", err), Models: len(results), Failures: len(failures)}
	}

	if s.registry != nil {
		for _, res := range results {
			if err := s.registry.PutArtifact(res.Artifact); err != nil {
				return TargetOutcome{Err: err.Error(), Models: len(results), Failures: len(failures)}
			}
		}
		if err := s.registry.SetBestModel(spec.Name, modelReport.BestModel, runID); err != nil {
			return TargetOutcome{Err: err.Error(), Models: len(results), Failures: len(failures)}
		}
	}

	return TargetOutcome{
		BestModel:  modelReport.BestModel,
		ReportPath: reportPath,
		Models:     len(results),
		Failures:   len(failures),
	}
}
