package features

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// FeatureInfo summarizes a normalized frame: counts by kind, missing cells,
// and numeric ranges. Logged after preprocessing and carried in the
// pipeline result for operators.
type FeatureInfo struct {
	TotalSamples        int                     `json:"total_samples"`
	TotalFeatures       int                     `json:"total_features"`
	NumericalFeatures   int                     `json:"numerical_features"`
	CategoricalFeatures int                     `json:"categorical_features"`
	MissingValues       map[string]int          `json:"missing_values"`
	DataTypes           map[string]string       `json:"data_types"`
	FeatureRanges       map[string]FeatureRange `json:"feature_ranges"`
}

// FeatureRange is the min/max/mean/std of one numeric column.
type FeatureRange struct {
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
	Mean float64 `json:"mean"`
	Std  float64 `json:"std"`
}

// Describe computes summary statistics for a frame.
func Describe(frame *Frame) *FeatureInfo {
	info := &FeatureInfo{
		TotalSamples:  frame.NumRows(),
		TotalFeatures: frame.NumColumns(),
		MissingValues: make(map[string]int),
		DataTypes:     make(map[string]string),
		FeatureRanges: make(map[string]FeatureRange),
	}

	for _, col := range frame.Columns() {
		info.DataTypes[col.Name] = col.Kind.String()
		missing := 0
		for _, m := range col.Missing {
			if m {
				missing++
			}
		}
		info.MissingValues[col.Name] = missing

		switch col.Kind {
		case KindNumeric:
			info.NumericalFeatures++
			if len(col.Values) > 0 {
				min, max := col.Values[0], col.Values[0]
				for _, v := range col.Values {
					min = math.Min(min, v)
					max = math.Max(max, v)
				}
				info.FeatureRanges[col.Name] = FeatureRange{
					Min:  min,
					Max:  max,
					Mean: stat.Mean(col.Values, nil),
					Std:  stat.StdDev(col.Values, nil),
				}
			}
		case KindCategorical:
			info.CategoricalFeatures++
		}
	}
	return info
}
