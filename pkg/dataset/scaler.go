package dataset

import (
	"fmt"
	"math"
)

// StandardScaler centers each column to zero mean and scales to unit
// variance. Parameters are fit exclusively on the training partition and
// applied unchanged to validation and test, so no statistic leaks from
// held-out rows into the transform.
type StandardScaler struct {
	Mean []float64 `json:"mean"`
	Std  []float64 `json:"std"`
}

// Fit computes per-column mean and population standard deviation.
// Zero-variance columns get a scale of 1 so they pass through centered.
func (s *StandardScaler) Fit(X [][]float64) error {
	if len(X) == 0 {
		return fmt.Errorf("cannot fit scaler on empty data")
	}
	cols := len(X[0])
	s.Mean = make([]float64, cols)
	s.Std = make([]float64, cols)

	for j := 0; j < cols; j++ {
		sum := 0.0
		for i := range X {
			sum += X[i][j]
		}
		s.Mean[j] = sum / float64(len(X))

		sumSq := 0.0
		for i := range X {
			d := X[i][j] - s.Mean[j]
			sumSq += d * d
		}
		s.Std[j] = math.Sqrt(sumSq / float64(len(X)))
		if s.Std[j] == 0 {
			s.Std[j] = 1
		}
	}
	return nil
}

// Transform returns a scaled copy of X using the fitted parameters.
func (s *StandardScaler) Transform(X [][]float64) ([][]float64, error) {
	if s.Mean == nil {
		return nil, fmt.Errorf("scaler not fitted")
	}
	out := make([][]float64, len(X))
	for i, row := range X {
		if len(row) != len(s.Mean) {
			return nil, fmt.Errorf("row %d has %d columns, scaler fitted on %d", i, len(row), len(s.Mean))
		}
		scaled := make([]float64, len(row))
		for j, v := range row {
			scaled[j] = (v - s.Mean[j]) / s.Std[j]
		}
		out[i] = scaled
	}
	return out, nil
}

// TransformRow scales a single feature vector, returning a copy.
func (s *StandardScaler) TransformRow(row []float64) ([]float64, error) {
	out, err := s.Transform([][]float64{row})
	if err != nil {
		return nil, err
	}
	return out[0], nil
}
