package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "sanjib-agent", cfg.DatabaseName)
	assert.Equal(t, "overfeatures", cfg.OverFeaturesCollection)
	assert.Equal(t, "matches", cfg.MatchesCollection)
	assert.Equal(t, 0.2, cfg.TestSize)
	assert.Equal(t, 0.2, cfg.ValidationSize)
	assert.Equal(t, 5, cfg.CVFolds)
	assert.Equal(t, int64(42), cfg.RandomState)
	assert.Equal(t, 0.3, cfg.MaxMissingRatio)
	assert.Equal(t, 3.0, cfg.OutlierThreshold)
	assert.Equal(t, "5001", cfg.Port)
}

func TestLoadConfig_Overrides(t *testing.T) {
	t.Setenv("TEST_SIZE", "0.3")
	t.Setenv("CV_FOLDS", "3")
	t.Setenv("MODELS_DIR", "/tmp/models")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 0.3, cfg.TestSize)
	assert.Equal(t, 3, cfg.CVFolds)
	assert.Equal(t, "/tmp/models", cfg.ModelsDir)
}

func TestLoadConfig_InvalidFractions(t *testing.T) {
	t.Setenv("TEST_SIZE", "0.6")
	t.Setenv("VALIDATION_SIZE", "0.5")

	_, err := LoadConfig()
	assert.Error(t, err)
}

func TestLoadConfig_BadValueFallsBack(t *testing.T) {
	t.Setenv("CV_FOLDS", "not-a-number")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.CVFolds)
}
