package api

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"

	"github.com/sanjib-agent/cricketml/pkg/config"
	"github.com/sanjib-agent/cricketml/pkg/inference"
	"github.com/sanjib-agent/cricketml/pkg/models"
	"github.com/sanjib-agent/cricketml/pkg/registry"
	"github.com/sanjib-agent/cricketml/pkg/schema"
	"github.com/sanjib-agent/cricketml/pkg/training"
)

// targetModels bundles everything needed to serve one target: the pinned
// feature builder and every loaded family estimator.
type targetModels struct {
	task       schema.TaskType
	builder    *inference.FeatureBuilder
	estimators map[string]training.Estimator
	best       string
}

// Catalog is the in-memory set of serveable models. Reload builds a fresh
// catalog from disk and swaps it in atomically, so requests in flight keep
// the models they started with.
type Catalog struct {
	mu      sync.RWMutex
	targets map[string]*targetModels
}

// LoadCatalog reads every target's preprocessor state and model files from
// the models directory. Targets without a preprocessor state are skipped;
// the best family comes from the artifact registry when available, falling
// back to the first loaded family in roster order.
func LoadCatalog(cfg *config.Config, artifactRegistry *registry.Registry) (*Catalog, error) {
	c := &Catalog{targets: make(map[string]*targetModels)}
	targetRegistry := schema.NewRegistry()

	for _, name := range targetRegistry.TargetNames() {
		spec, err := targetRegistry.Target(name)
		if err != nil {
			return nil, err
		}

		state, err := inference.LoadState(cfg.ModelsDir, name)
		if err != nil {
			log.Printf("api: target %s has no preprocessor state, skipping: %v", name, err)
			continue
		}
		builder, err := inference.NewFeatureBuilder(state)
		if err != nil {
			return nil, fmt.Errorf("invalid preprocessor state for %s: %w", name, err)
		}

		tm := &targetModels{
			task:       spec.Type,
			builder:    builder,
			estimators: make(map[string]training.Estimator),
		}
		for _, family := range training.Families(spec.Type) {
			path := filepath.Join(cfg.ModelsDir, training.ModelFileName(family, name))
			if _, err := os.Stat(path); err != nil {
				continue
			}
			est, _, err := training.LoadModel(path)
			if err != nil {
				log.Printf("api: failed to load %s/%s: %v", family, name, err)
				continue
			}
			tm.estimators[family] = est
		}
		if len(tm.estimators) == 0 {
			log.Printf("api: target %s has no loadable models, skipping", name)
			continue
		}

		tm.best = resolveBest(name, spec.Type, tm.estimators, artifactRegistry)
		c.targets[name] = tm
		log.Printf("api: loaded target %s with %d models, best=%s", name, len(tm.estimators), tm.best)
	}
	return c, nil
}

// resolveBest prefers the registry's recorded selection; when the registry
// is absent or the recorded family is not loaded, the first loaded family
// in roster order serves as best.
func resolveBest(target string, task schema.TaskType, estimators map[string]training.Estimator, artifactRegistry *registry.Registry) string {
	if artifactRegistry != nil {
		if family, err := artifactRegistry.BestModel(target); err == nil {
			if _, loaded := estimators[family]; loaded {
				return family
			}
			log.Printf("api: recorded best model %s for %s is not loaded, falling back", family, target)
		}
	}
	for _, family := range training.Families(task) {
		if _, loaded := estimators[family]; loaded {
			return family
		}
	}
	return ""
}

// Swap replaces the catalog contents with another catalog's.
func (c *Catalog) Swap(next *Catalog) {
	c.mu.Lock()
	c.targets = next.targets
	c.mu.Unlock()
}

// Targets returns the loaded target names.
func (c *Catalog) Targets() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	names := make([]string, 0, len(c.targets))
	for name := range c.targets {
		names = append(names, name)
	}
	return names
}

// Info describes the loaded models for /model_info.
func (c *Catalog) Info() map[string]interface{} {
	c.mu.RLock()
	defer c.mu.RUnlock()

	info := make(map[string]interface{}, len(c.targets))
	for name, tm := range c.targets {
		families := make([]string, 0, len(tm.estimators))
		for family := range tm.estimators {
			families = append(families, family)
		}
		info[name] = map[string]interface{}{
			"task":       string(tm.task),
			"models":     families,
			"best_model": tm.best,
			"features":   len(tm.builder.FeatureColumns()),
		}
	}
	return info
}

// Predict builds the feature vector and runs the requested family
// ("best" or empty picks the selected one). It returns the resolved family
// alongside the prediction.
func (c *Catalog) Predict(target, modelType string, features map[string]interface{}) (*models.Prediction, string, error) {
	c.mu.RLock()
	tm, ok := c.targets[target]
	c.mu.RUnlock()
	if !ok {
		return nil, "", fmt.Errorf("%w: target %s has no loaded models", schema.ErrNoModel, target)
	}

	family := modelType
	if family == "" || family == "best" {
		family = tm.best
	}
	est, ok := tm.estimators[family]
	if !ok {
		return nil, "", fmt.Errorf("%w: model %s is not loaded for target %s", schema.ErrNoModel, family, target)
	}

	vector, err := tm.builder.Build(features)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", schema.ErrInvalidFeatures, err)
	}

	value, err := est.Predict(vector)
	if err != nil {
		return nil, "", fmt.Errorf("prediction failed: %w", err)
	}

	pred := &models.Prediction{Value: value}
	if tm.task == schema.TaskClassification {
		if prob, ok := est.(training.ProbabilisticEstimator); ok {
			p, err := prob.PredictProba(vector)
			if err != nil {
				return nil, "", fmt.Errorf("probability prediction failed: %w", err)
			}
			pred.Probabilities = []float64{1 - p, p}
			confidence := p
			if confidence < 1-p {
				confidence = 1 - p
			}
			pred.Confidence = &confidence
		}
	}
	return pred, family, nil
}

// FeatureImportance returns the ranked importances of a target's family
// ("best" or empty resolves the selection).
func (c *Catalog) FeatureImportance(target, modelType string) ([]models.FeatureWeight, string, error) {
	c.mu.RLock()
	tm, ok := c.targets[target]
	c.mu.RUnlock()
	if !ok {
		return nil, "", fmt.Errorf("%w: target %s has no loaded models", schema.ErrNoModel, target)
	}

	family := modelType
	if family == "" || family == "best" {
		family = tm.best
	}
	est, ok := tm.estimators[family]
	if !ok {
		return nil, "", fmt.Errorf("%w: model %s is not loaded for target %s", schema.ErrNoModel, family, target)
	}
	return training.RankedImportance(est.FeatureImportance()), family, nil
}
