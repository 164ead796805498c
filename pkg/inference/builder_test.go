package inference

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sanjib-agent/cricketml/pkg/models"
)

func identityState(columns []string) *models.PreprocessorState {
	mean := make([]float64, len(columns))
	std := make([]float64, len(columns))
	for i := range std {
		std[i] = 1
	}
	return &models.PreprocessorState{
		Target:         "wicket_occurrence",
		FeatureColumns: columns,
		Encoders:       map[string][]string{"venue": {"Lords", "MCG"}},
		ScalerMean:     mean,
		ScalerStd:      std,
		CreatedAt:      time.Now().UTC(),
	}
}

func TestBuild_EmptyDocumentUsesDefaults(t *testing.T) {
	b, err := NewFeatureBuilder(identityState([]string{"overNumber", "runRate", "is_powerplay", "momentum.wicketsInHand"}))
	require.NoError(t, err)

	vector, err := b.Build(map[string]interface{}{})
	require.NoError(t, err)
	require.Len(t, vector, 4)

	assert.Equal(t, 5.0, vector[0])  // default over number
	assert.Equal(t, 0.0, vector[1])  // default run rate
	assert.Equal(t, 1.0, vector[2])  // over 5 is inside the powerplay
	assert.Equal(t, 10.0, vector[3]) // full wickets in hand
}

func TestBuild_CallerValuesOverrideDefaults(t *testing.T) {
	b, err := NewFeatureBuilder(identityState([]string{"overNumber", "is_death_overs"}))
	require.NoError(t, err)

	vector, err := b.Build(map[string]interface{}{"overNumber": 18.0})
	require.NoError(t, err)
	assert.Equal(t, 18.0, vector[0])
	assert.Equal(t, 1.0, vector[1])
}

func TestBuild_NestedInputFlattened(t *testing.T) {
	b, err := NewFeatureBuilder(identityState([]string{"momentum.wicketsInHand", "wickets_remaining_ratio"}))
	require.NoError(t, err)

	vector, err := b.Build(map[string]interface{}{
		"momentum": map[string]interface{}{"wicketsInHand": 4.0},
	})
	require.NoError(t, err)
	assert.Equal(t, 4.0, vector[0])
	assert.InDelta(t, 0.4, vector[1], 1e-9)
}

func TestBuild_PinnedEncoderAndOOV(t *testing.T) {
	b, err := NewFeatureBuilder(identityState([]string{"venue"}))
	require.NoError(t, err)

	vector, err := b.Build(map[string]interface{}{"venue": "MCG"})
	require.NoError(t, err)
	assert.Equal(t, 1.0, vector[0])

	vector, err = b.Build(map[string]interface{}{"venue": "Eden Gardens"})
	require.NoError(t, err)
	assert.Equal(t, 2.0, vector[0]) // out-of-vocabulary code
}

func TestBuild_UnknownStateColumnBecomesZero(t *testing.T) {
	b, err := NewFeatureBuilder(identityState([]string{"overNumber", "some_retired_feature"}))
	require.NoError(t, err)

	vector, err := b.Build(map[string]interface{}{})
	require.NoError(t, err)
	assert.Equal(t, 0.0, vector[1])
}

func TestBuild_ScalerApplied(t *testing.T) {
	state := identityState([]string{"overNumber"})
	state.ScalerMean = []float64{5}
	state.ScalerStd = []float64{2}

	b, err := NewFeatureBuilder(state)
	require.NoError(t, err)

	vector, err := b.Build(map[string]interface{}{"overNumber": 9.0})
	require.NoError(t, err)
	assert.InDelta(t, 2.0, vector[0], 1e-9)
}

func TestNewFeatureBuilder_Validation(t *testing.T) {
	_, err := NewFeatureBuilder(nil)
	assert.Error(t, err)

	_, err = NewFeatureBuilder(&models.PreprocessorState{Target: "x"})
	assert.Error(t, err)

	_, err = NewFeatureBuilder(&models.PreprocessorState{
		Target:         "x",
		FeatureColumns: []string{"a", "b"},
		ScalerMean:     []float64{0},
		ScalerStd:      []float64{1},
	})
	assert.Error(t, err)
}

func TestStateSaveLoad_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	state := identityState([]string{"overNumber", "venue"})

	path, err := SaveState(dir, state)
	require.NoError(t, err)
	assert.FileExists(t, path)

	loaded, err := LoadState(dir, "wicket_occurrence")
	require.NoError(t, err)
	assert.Equal(t, state.FeatureColumns, loaded.FeatureColumns)
	assert.Equal(t, state.Encoders, loaded.Encoders)
}

func TestLoadState_Missing(t *testing.T) {
	_, err := LoadState(t.TempDir(), "runs_per_over")
	assert.Error(t, err)
}
