package dataset

import (
	"fmt"
	"log"
	"math/rand"
	"strconv"

	"github.com/sanjib-agent/cricketml/pkg/features"
	"github.com/sanjib-agent/cricketml/pkg/schema"
)

// Split holds the three-way partition of a normalized frame. Feature
// columns are identical and identically ordered across the three matrices;
// the scaler was fit on the training partition only.
type Split struct {
	FeatureNames []string
	XTrain       [][]float64
	XVal         [][]float64
	XTest        [][]float64
	YTrain       []float64
	YVal         []float64
	YTest        []float64
	Scaler       *StandardScaler
}

// SplitterConfig controls partition sizes and shuffling.
type SplitterConfig struct {
	TestFraction       float64
	ValidationFraction float64
	Seed               int64
}

// DefaultSplitterConfig mirrors the standard 60/20/20 split.
func DefaultSplitterConfig() SplitterConfig {
	return SplitterConfig{TestFraction: 0.2, ValidationFraction: 0.2, Seed: 42}
}

// MakeSplit derives the target column, extracts the feature matrix, carves
// train/validation/test partitions, and fits the scaler on train only.
//
// The split is two-stage: the test fraction is carved from the full set
// first, then the validation fraction, rescaled by 1/(1-testFraction), is
// carved from the remainder. Both fractions are interpreted relative to the
// ORIGINAL dataset size; the rescale keeps the three-way proportions exact.
// Classification targets are stratified; continuous targets are not.
func MakeSplit(frame *features.Frame, spec schema.TargetSpec, cfg SplitterConfig) (*Split, error) {
	if err := MakeTarget(frame, spec); err != nil {
		return nil, err
	}

	names, X := featureMatrix(frame)
	if len(names) == 0 {
		return nil, fmt.Errorf("%w: no feature columns after exclusion", schema.ErrNoData)
	}
	y := frame.Column("target").Values

	n := len(X)
	if n < 3 {
		return nil, fmt.Errorf("%w: need at least 3 rows to split, have %d", schema.ErrNoData, n)
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	indices := rng.Perm(n)

	stratify := spec.Type == schema.TaskClassification

	remainder, testIdx := carve(indices, y, cfg.TestFraction, stratify, rng)
	valAdjusted := cfg.ValidationFraction / (1 - cfg.TestFraction)
	trainIdx, valIdx := carve(remainder, y, valAdjusted, stratify, rng)

	split := &Split{FeatureNames: names}
	split.XTrain, split.YTrain = gather(X, y, trainIdx)
	split.XVal, split.YVal = gather(X, y, valIdx)
	split.XTest, split.YTest = gather(X, y, testIdx)

	split.Scaler = &StandardScaler{}
	if err := split.Scaler.Fit(split.XTrain); err != nil {
		return nil, err
	}
	var err error
	if split.XTrain, err = split.Scaler.Transform(split.XTrain); err != nil {
		return nil, err
	}
	if split.XVal, err = split.Scaler.Transform(split.XVal); err != nil {
		return nil, err
	}
	if split.XTest, err = split.Scaler.Transform(split.XTest); err != nil {
		return nil, err
	}

	log.Printf("dataset: split completed train=%d val=%d test=%d features=%d",
		len(split.XTrain), len(split.XVal), len(split.XTest), len(names))
	return split, nil
}

// featureMatrix extracts feature columns in frame order, applying the
// shared exclusion set and the lossy categorical/boolean coercion. The same
// exclusion and coercion run in the inference feature builder; divergence
// here silently misaligns feature positions against trained models.
func featureMatrix(frame *features.Frame) ([]string, [][]float64) {
	var kept []*features.Column
	var names []string
	for _, col := range frame.Columns() {
		if schema.IsExcluded(col.Name) || col.Kind == features.KindDatetime {
			continue
		}
		kept = append(kept, col)
		names = append(names, col.Name)
	}

	X := make([][]float64, frame.NumRows())
	for i := range X {
		row := make([]float64, len(kept))
		for j, col := range kept {
			row[j] = CoerceCell(col, i)
		}
		X[i] = row
	}
	return names, X
}

// CoerceCell produces the numeric value of one cell. Remaining missing
// numerics become 0 (final safety net, distinct from median imputation).
// Booleans map to 0/1. Leftover categorical values fall back lossily:
// "Unknown" maps to 0, numeric-looking strings parse, everything else is 0.
func CoerceCell(col *features.Column, i int) float64 {
	switch col.Kind {
	case features.KindNumeric:
		if col.Missing[i] {
			return 0
		}
		return col.Values[i]
	case features.KindBoolean:
		if !col.Missing[i] && col.Bools[i] {
			return 1
		}
		return 0
	case features.KindCategorical:
		if col.Missing[i] {
			return 0
		}
		label := col.Labels[i]
		if label == "Unknown" {
			return 0
		}
		if v, err := strconv.ParseFloat(label, 64); err == nil {
			return v
		}
		return 0
	}
	return 0
}

// carve splits indices into (kept, carved) where carved holds roughly
// fraction of the rows. Stratified carving splits each class separately so
// class balance survives in both parts.
func carve(indices []int, y []float64, fraction float64, stratify bool, rng *rand.Rand) ([]int, []int) {
	if !stratify {
		cut := len(indices) - int(float64(len(indices))*fraction)
		return indices[:cut], indices[cut:]
	}

	classIndices := make(map[float64][]int)
	var classOrder []float64
	for _, idx := range indices {
		if _, seen := classIndices[y[idx]]; !seen {
			classOrder = append(classOrder, y[idx])
		}
		classIndices[y[idx]] = append(classIndices[y[idx]], idx)
	}

	var kept, carved []int
	for _, class := range classOrder {
		members := classIndices[class]
		cut := len(members) - int(float64(len(members))*fraction)
		if cut == len(members) && len(members) > 1 {
			cut = len(members) - 1 // at least one carved sample per class when possible
		}
		kept = append(kept, members[:cut]...)
		carved = append(carved, members[cut:]...)
	}
	rng.Shuffle(len(kept), func(i, j int) { kept[i], kept[j] = kept[j], kept[i] })
	rng.Shuffle(len(carved), func(i, j int) { carved[i], carved[j] = carved[j], carved[i] })
	return kept, carved
}

func gather(X [][]float64, y []float64, indices []int) ([][]float64, []float64) {
	gx := make([][]float64, len(indices))
	gy := make([]float64, len(indices))
	for i, idx := range indices {
		gx[i] = X[idx]
		gy[i] = y[idx]
	}
	return gx, gy
}
