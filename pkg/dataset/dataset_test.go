package dataset

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sanjib-agent/cricketml/pkg/features"
	"github.com/sanjib-agent/cricketml/pkg/schema"
)

func syntheticRows(n int) []map[string]interface{} {
	rows := make([]map[string]interface{}, n)
	for i := 0; i < n; i++ {
		rows[i] = map[string]interface{}{
			"overNumber":     float64(i%20 + 1),
			"overRuns":       float64(i % 15),
			"overWickets":    float64(i % 3),
			"overBoundaries": float64(i % 2),
			"runRate":        6.0 + float64(i%5)*0.5,
			"venue":          []string{"Lords", "MCG", "Eden"}[i%3],
			"matchId":        "m1",
		}
	}
	return rows
}

func classificationSpec() schema.TargetSpec {
	return schema.TargetSpec{
		Name:         "wicket_occurrence",
		Type:         schema.TaskClassification,
		TargetColumn: "overWickets",
		Threshold:    1,
	}
}

func regressionSpec() schema.TargetSpec {
	return schema.TargetSpec{
		Name:         "runs_per_over",
		Type:         schema.TaskRegression,
		TargetColumn: "overRuns",
	}
}

func TestMakeTarget_BinarizesAtThreshold(t *testing.T) {
	frame := features.FromRows([]map[string]interface{}{
		{"overWickets": 0.0}, {"overWickets": 1.0}, {"overWickets": 2.0},
	})
	require.NoError(t, MakeTarget(frame, classificationSpec()))

	target := frame.Column("target")
	require.NotNil(t, target)
	assert.Equal(t, []float64{0, 1, 1}, target.Values)
}

func TestMakeTarget_RegressionPassesThrough(t *testing.T) {
	frame := features.FromRows([]map[string]interface{}{
		{"overRuns": 4.0}, {"overRuns": 12.0},
	})
	require.NoError(t, MakeTarget(frame, regressionSpec()))

	assert.Equal(t, []float64{4, 12}, frame.Column("target").Values)
}

func TestMakeTarget_MissingColumn(t *testing.T) {
	frame := features.FromRows([]map[string]interface{}{{"overRuns": 4.0}})
	err := MakeTarget(frame, classificationSpec())
	require.ErrorIs(t, err, schema.ErrNoData)
}

func TestMakeTarget_ReplacesExistingTarget(t *testing.T) {
	frame := features.FromRows([]map[string]interface{}{
		{"overWickets": 2.0, "target": 99.0},
	})
	require.NoError(t, MakeTarget(frame, classificationSpec()))
	assert.Equal(t, []float64{1}, frame.Column("target").Values)
}

func TestStandardScaler_FitTransform(t *testing.T) {
	X := [][]float64{{1, 10}, {2, 20}, {3, 30}}
	s := &StandardScaler{}
	require.NoError(t, s.Fit(X))

	scaled, err := s.Transform(X)
	require.NoError(t, err)

	for j := 0; j < 2; j++ {
		mean, variance := 0.0, 0.0
		for i := range scaled {
			mean += scaled[i][j]
		}
		mean /= float64(len(scaled))
		for i := range scaled {
			variance += (scaled[i][j] - mean) * (scaled[i][j] - mean)
		}
		variance /= float64(len(scaled))
		assert.InDelta(t, 0, mean, 1e-9)
		assert.InDelta(t, 1, math.Sqrt(variance), 1e-9)
	}
}

func TestStandardScaler_ZeroVarianceColumn(t *testing.T) {
	X := [][]float64{{5, 1}, {5, 2}, {5, 3}}
	s := &StandardScaler{}
	require.NoError(t, s.Fit(X))

	scaled, err := s.Transform(X)
	require.NoError(t, err)
	for i := range scaled {
		assert.Equal(t, 0.0, scaled[i][0])
	}
}

func TestStandardScaler_WidthMismatch(t *testing.T) {
	s := &StandardScaler{}
	require.NoError(t, s.Fit([][]float64{{1, 2}, {3, 4}}))
	_, err := s.Transform([][]float64{{1, 2, 3}})
	assert.Error(t, err)
}

func TestMakeSplit_PartitionsAreComplete(t *testing.T) {
	frame := features.FromRows(syntheticRows(100))
	split, err := MakeSplit(frame, regressionSpec(), DefaultSplitterConfig())
	require.NoError(t, err)

	total := len(split.XTrain) + len(split.XVal) + len(split.XTest)
	assert.Equal(t, 100, total)
	assert.Equal(t, len(split.XTrain), len(split.YTrain))
	assert.Equal(t, len(split.XVal), len(split.YVal))
	assert.Equal(t, len(split.XTest), len(split.YTest))

	// 60/20/20 within rounding.
	assert.InDelta(t, 60, len(split.XTrain), 2)
	assert.InDelta(t, 20, len(split.XVal), 2)
	assert.InDelta(t, 20, len(split.XTest), 2)
}

func TestMakeSplit_ExcludesIdentifierColumns(t *testing.T) {
	frame := features.FromRows(syntheticRows(30))
	split, err := MakeSplit(frame, regressionSpec(), DefaultSplitterConfig())
	require.NoError(t, err)

	for _, name := range split.FeatureNames {
		assert.False(t, schema.IsExcluded(name), "feature %s should have been excluded", name)
	}
	assert.NotContains(t, split.FeatureNames, "matchId")
	assert.NotContains(t, split.FeatureNames, "target")
}

func TestMakeSplit_ScalerFitOnTrainOnly(t *testing.T) {
	frame := features.FromRows(syntheticRows(200))
	split, err := MakeSplit(frame, regressionSpec(), DefaultSplitterConfig())
	require.NoError(t, err)

	// Train columns were standardized against their own statistics.
	for j := range split.FeatureNames {
		mean := 0.0
		for i := range split.XTrain {
			mean += split.XTrain[i][j]
		}
		mean /= float64(len(split.XTrain))
		assert.InDelta(t, 0, mean, 1e-9, "train column %s not centered", split.FeatureNames[j])
	}
}

func TestMakeSplit_StratifiedKeepsBothClasses(t *testing.T) {
	rows := make([]map[string]interface{}, 50)
	for i := range rows {
		wickets := 0.0
		if i%5 == 0 { // 20% positive class
			wickets = 1.0
		}
		rows[i] = map[string]interface{}{
			"overRuns":    float64(i % 10),
			"overWickets": wickets,
		}
	}
	frame := features.FromRows(rows)
	split, err := MakeSplit(frame, classificationSpec(), DefaultSplitterConfig())
	require.NoError(t, err)

	countPositives := func(y []float64) int {
		n := 0
		for _, v := range y {
			if v == 1 {
				n++
			}
		}
		return n
	}
	assert.Greater(t, countPositives(split.YTrain), 0)
	assert.Greater(t, countPositives(split.YVal), 0)
	assert.Greater(t, countPositives(split.YTest), 0)
}

func TestMakeSplit_Deterministic(t *testing.T) {
	a, err := MakeSplit(features.FromRows(syntheticRows(80)), regressionSpec(), DefaultSplitterConfig())
	require.NoError(t, err)
	b, err := MakeSplit(features.FromRows(syntheticRows(80)), regressionSpec(), DefaultSplitterConfig())
	require.NoError(t, err)

	assert.Equal(t, a.YTrain, b.YTrain)
	assert.Equal(t, a.YTest, b.YTest)
}

func TestMakeSplit_TooFewRows(t *testing.T) {
	frame := features.FromRows(syntheticRows(2))
	_, err := MakeSplit(frame, regressionSpec(), DefaultSplitterConfig())
	require.ErrorIs(t, err, schema.ErrNoData)
}

func TestMakeSplit_EndToEndWithNormalizer(t *testing.T) {
	rows := []map[string]interface{}{}
	for i := 0; i < 30; i++ {
		rows = append(rows, map[string]interface{}{
			"overNumber":  float64(i%20 + 1),
			"overRuns":    float64(i % 12),
			"overWickets": float64(i % 2),
			"runRate":     5.0 + float64(i%4),
			"venue":       []string{"Lords", "MCG"}[i%2],
		})
	}
	frame, err := features.NewNormalizer().Normalize(rows)
	require.NoError(t, err)

	split, err := MakeSplit(frame, classificationSpec(), DefaultSplitterConfig())
	require.NoError(t, err)
	assert.Equal(t, 30, len(split.XTrain)+len(split.XVal)+len(split.XTest))
	for _, row := range split.XTrain {
		assert.Len(t, row, len(split.FeatureNames))
	}
}
