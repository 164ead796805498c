package registry

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sanjib-agent/cricketml/pkg/models"
	"github.com/sanjib-agent/cricketml/pkg/schema"
)

func openTestRegistry(t *testing.T) *Registry {
	t.Helper()
	r, err := Open(filepath.Join(t.TempDir(), "registry.db"))
	require.NoError(t, err)
	t.Cleanup(func() { r.Close() })
	return r
}

func sampleArtifact(family, target, runID string) *models.TrainedModelArtifact {
	return &models.TrainedModelArtifact{
		Family:     family,
		Target:     target,
		TaskType:   "classification",
		RunID:      runID,
		BestParams: map[string]float64{"num_trees": 100},
		CVScore:    0.72,
		ValMetrics: map[string]float64{"f1_score": 0.75},
		ModelPath:  "/models/" + family + "_" + target + ".json",
		TrainedAt:  time.Now().UTC().Truncate(time.Second),
	}
}

func TestPutGetArtifact(t *testing.T) {
	r := openTestRegistry(t)

	art := sampleArtifact("random_forest", "wicket_occurrence", "run-1")
	require.NoError(t, r.PutArtifact(art))

	got, err := r.GetArtifact("random_forest", "wicket_occurrence")
	require.NoError(t, err)
	assert.Equal(t, art.RunID, got.RunID)
	assert.Equal(t, art.BestParams, got.BestParams)
	assert.InDelta(t, 0.72, got.CVScore, 1e-9)
}

func TestPutArtifact_Supersedes(t *testing.T) {
	r := openTestRegistry(t)

	require.NoError(t, r.PutArtifact(sampleArtifact("random_forest", "wicket_occurrence", "run-1")))
	require.NoError(t, r.PutArtifact(sampleArtifact("random_forest", "wicket_occurrence", "run-2")))

	got, err := r.GetArtifact("random_forest", "wicket_occurrence")
	require.NoError(t, err)
	assert.Equal(t, "run-2", got.RunID)

	all, err := r.ListArtifacts("wicket_occurrence")
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestGetArtifact_Missing(t *testing.T) {
	r := openTestRegistry(t)
	_, err := r.GetArtifact("xgboost", "runs_per_over")
	require.ErrorIs(t, err, schema.ErrNoModel)
}

func TestListArtifacts_ScopedToTarget(t *testing.T) {
	r := openTestRegistry(t)

	require.NoError(t, r.PutArtifact(sampleArtifact("random_forest", "wicket_occurrence", "run-1")))
	require.NoError(t, r.PutArtifact(sampleArtifact("xgboost", "wicket_occurrence", "run-1")))
	require.NoError(t, r.PutArtifact(sampleArtifact("xgboost", "runs_per_over", "run-1")))

	wicket, err := r.ListArtifacts("wicket_occurrence")
	require.NoError(t, err)
	assert.Len(t, wicket, 2)

	runs, err := r.ListArtifacts("runs_per_over")
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}

func TestBestModel_RoundTrip(t *testing.T) {
	r := openTestRegistry(t)

	require.NoError(t, r.SetBestModel("wicket_occurrence", "random_forest", "run-1"))

	family, err := r.BestModel("wicket_occurrence")
	require.NoError(t, err)
	assert.Equal(t, "random_forest", family)

	// A later selection replaces the earlier one.
	require.NoError(t, r.SetBestModel("wicket_occurrence", "xgboost", "run-2"))
	family, err = r.BestModel("wicket_occurrence")
	require.NoError(t, err)
	assert.Equal(t, "xgboost", family)
}

func TestBestModel_Missing(t *testing.T) {
	r := openTestRegistry(t)
	_, err := r.BestModel("boundary_probability")
	require.ErrorIs(t, err, schema.ErrNoModel)
}

func TestOpen_ReopenKeepsData(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "registry.db")

	r, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, r.PutArtifact(sampleArtifact("random_forest", "wicket_occurrence", "run-1")))
	require.NoError(t, r.Close())

	r2, err := Open(path)
	require.NoError(t, err)
	defer r2.Close()

	got, err := r2.GetArtifact("random_forest", "wicket_occurrence")
	require.NoError(t, err)
	assert.Equal(t, "run-1", got.RunID)
}
