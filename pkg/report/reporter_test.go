package report

import (
	"encoding/json"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sanjib-agent/cricketml/pkg/models"
	"github.com/sanjib-agent/cricketml/pkg/schema"
	"github.com/sanjib-agent/cricketml/pkg/training"
)

func fakeResult(family string, valMetrics map[string]float64) training.Result {
	return training.Result{
		Artifact: &models.TrainedModelArtifact{
			Family:     family,
			BestParams: map[string]float64{"num_trees": 50},
			CVScore:    0.7,
			CVScores:   []float64{0.68, 0.7, 0.72},
			ValMetrics: valMetrics,
			Importance: []models.FeatureWeight{{Feature: "runRate", Weight: 0.4}},
		},
	}
}

func classificationTarget() schema.TargetSpec {
	return schema.TargetSpec{
		Name: "wicket_occurrence", Type: schema.TaskClassification,
		TargetColumn: "overWickets", Threshold: 1,
	}
}

func TestBuild_SelectsHighestValidationScore(t *testing.T) {
	results := map[string]training.Result{
		training.FamilyLogisticRegression: fakeResult(training.FamilyLogisticRegression, map[string]float64{"f1_score": 0.71}),
		training.FamilyRandomForest:       fakeResult(training.FamilyRandomForest, map[string]float64{"f1_score": 0.78}),
		training.FamilyGradientBoosting:   fakeResult(training.FamilyGradientBoosting, map[string]float64{"f1_score": 0.74}),
	}

	report, err := NewReporter(t.TempDir()).Build(classificationTarget(), results, nil)
	require.NoError(t, err)

	assert.Equal(t, training.FamilyRandomForest, report.BestModel)
	assert.Equal(t, training.FamilyRandomForest, report.Summary.BestModel)
	assert.Equal(t, 3, report.Summary.TotalModels)
	assert.InDelta(t, 0.78, report.Summary.ModelComparison[training.FamilyRandomForest].ValidationScore, 1e-9)
}

func TestBuild_TieGoesToEarlierRosterEntry(t *testing.T) {
	results := map[string]training.Result{
		training.FamilyLogisticRegression: fakeResult(training.FamilyLogisticRegression, map[string]float64{"f1_score": 0.75}),
		training.FamilyXGBoost:            fakeResult(training.FamilyXGBoost, map[string]float64{"f1_score": 0.75}),
	}

	report, err := NewReporter(t.TempDir()).Build(classificationTarget(), results, nil)
	require.NoError(t, err)
	assert.Equal(t, training.FamilyLogisticRegression, report.BestModel)
}

func TestBuild_FailedFamiliesListedButExcluded(t *testing.T) {
	results := map[string]training.Result{
		training.FamilyRandomForest: fakeResult(training.FamilyRandomForest, map[string]float64{"f1_score": 0.6}),
	}
	failures := map[string]string{
		training.FamilyGradientBoosting: "grid search failed: all parameter combinations failed",
	}

	report, err := NewReporter(t.TempDir()).Build(classificationTarget(), results, failures)
	require.NoError(t, err)

	assert.Equal(t, training.FamilyRandomForest, report.BestModel)
	assert.Equal(t, 1, report.Summary.TotalModels)
	assert.NotEmpty(t, report.Models[training.FamilyGradientBoosting].Err)
	assert.NotContains(t, report.Summary.ModelComparison, training.FamilyGradientBoosting)
}

func TestBuild_RegressionUsesR2(t *testing.T) {
	spec := schema.TargetSpec{Name: "runs_per_over", Type: schema.TaskRegression, TargetColumn: "overRuns"}
	results := map[string]training.Result{
		training.FamilyRandomForest:     fakeResult(training.FamilyRandomForest, map[string]float64{"r2_score": 0.31, "mse": 4.1}),
		training.FamilyGradientBoosting: fakeResult(training.FamilyGradientBoosting, map[string]float64{"r2_score": 0.44, "mse": 3.6}),
	}

	report, err := NewReporter(t.TempDir()).Build(spec, results, nil)
	require.NoError(t, err)
	assert.Equal(t, training.FamilyGradientBoosting, report.BestModel)
}

func TestBuild_NegativeScoresStillSelect(t *testing.T) {
	spec := schema.TargetSpec{Name: "run_rate_change", Type: schema.TaskRegression, TargetColumn: "runRate"}
	results := map[string]training.Result{
		training.FamilyRandomForest: fakeResult(training.FamilyRandomForest, map[string]float64{"r2_score": -0.2}),
		training.FamilyXGBoost:      fakeResult(training.FamilyXGBoost, map[string]float64{"r2_score": -0.05}),
	}

	report, err := NewReporter(t.TempDir()).Build(spec, results, nil)
	require.NoError(t, err)
	assert.Equal(t, training.FamilyXGBoost, report.BestModel)
}

func TestBuild_NoResults(t *testing.T) {
	_, err := NewReporter(t.TempDir()).Build(classificationTarget(), nil, nil)
	require.ErrorIs(t, err, schema.ErrNoResults)
}

func TestBuild_ImportanceTruncatedToTopTen(t *testing.T) {
	weights := make([]models.FeatureWeight, 15)
	for i := range weights {
		weights[i] = models.FeatureWeight{Feature: string(rune('a' + i)), Weight: float64(15 - i)}
	}
	res := fakeResult(training.FamilyRandomForest, map[string]float64{"f1_score": 0.5})
	res.Artifact.Importance = weights

	report, err := NewReporter(t.TempDir()).Build(classificationTarget(),
		map[string]training.Result{training.FamilyRandomForest: res}, nil)
	require.NoError(t, err)
	assert.Len(t, report.Models[training.FamilyRandomForest].Importance, 10)
}

func TestWrite_PersistsReportFile(t *testing.T) {
	dir := t.TempDir()
	reporter := NewReporter(dir)

	report, err := reporter.Build(classificationTarget(), map[string]training.Result{
		training.FamilyRandomForest: fakeResult(training.FamilyRandomForest, map[string]float64{"f1_score": 0.78}),
	}, nil)
	require.NoError(t, err)

	path, err := reporter.Write(report)
	require.NoError(t, err)
	assert.FileExists(t, path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var loaded models.ModelReport
	require.NoError(t, json.Unmarshal(data, &loaded))
	assert.Equal(t, "wicket_occurrence", loaded.TargetName)
	assert.Equal(t, training.FamilyRandomForest, loaded.BestModel)
}
