package training

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// LogisticRegression is an L2-regularized binary logistic model fit with
// batch gradient descent. C is the inverse regularization strength, as in
// the usual convention: small C means strong regularization.
type LogisticRegression struct {
	Weights      []float64 `json:"weights"`
	Bias         float64   `json:"bias"`
	C            float64   `json:"c"`
	LearningRate float64   `json:"learning_rate"`
	MaxIter      int       `json:"max_iter"`
	Tolerance    float64   `json:"tolerance"`
	FeatureNames []string  `json:"feature_names"`
	NumFeatures  int       `json:"num_features"`
}

// NewLogisticRegression creates an untrained model.
func NewLogisticRegression(c float64) *LogisticRegression {
	if c <= 0 {
		c = 1
	}
	return &LogisticRegression{
		C:            c,
		LearningRate: 0.1,
		MaxIter:      1000,
		Tolerance:    1e-6,
	}
}

// Fit runs batch gradient descent on the logistic loss. Inputs are assumed
// standardized; the fixed learning rate relies on that.
func (lr *LogisticRegression) Fit(X [][]float64, y []float64, featureNames []string) error {
	if len(X) == 0 {
		return fmt.Errorf("empty training data")
	}
	if len(X) != len(y) {
		return fmt.Errorf("X and y must have same number of samples")
	}
	if len(featureNames) != len(X[0]) {
		return fmt.Errorf("feature names must match number of features")
	}

	n := len(X)
	d := len(X[0])
	lr.FeatureNames = featureNames
	lr.NumFeatures = d

	flat := make([]float64, 0, n*d)
	for _, row := range X {
		flat = append(flat, row...)
	}
	design := mat.NewDense(n, d, flat)
	target := mat.NewVecDense(n, append([]float64(nil), y...))

	weights := mat.NewVecDense(d, nil)
	bias := 0.0
	l2 := 1 / (lr.C * float64(n))

	scores := mat.NewVecDense(n, nil)
	residual := mat.NewVecDense(n, nil)
	gradW := mat.NewVecDense(d, nil)

	for iter := 0; iter < lr.MaxIter; iter++ {
		scores.MulVec(design, weights)
		for i := 0; i < n; i++ {
			residual.SetVec(i, sigmoid(scores.AtVec(i)+bias)-target.AtVec(i))
		}

		gradW.MulVec(design.T(), residual)
		gradW.ScaleVec(1/float64(n), gradW)
		gradW.AddScaledVec(gradW, l2, weights)
		gradB := mat.Sum(residual) / float64(n)

		weights.AddScaledVec(weights, -lr.LearningRate, gradW)
		bias -= lr.LearningRate * gradB

		if mat.Norm(gradW, 2)+math.Abs(gradB) < lr.Tolerance {
			break
		}
	}

	lr.Weights = append([]float64(nil), weights.RawVector().Data...)
	lr.Bias = bias
	return nil
}

// Predict returns the class code, thresholding the probability at 0.5.
func (lr *LogisticRegression) Predict(x []float64) (float64, error) {
	p, err := lr.PredictProba(x)
	if err != nil {
		return 0, err
	}
	if p >= 0.5 {
		return 1, nil
	}
	return 0, nil
}

// PredictProba returns the positive-class probability.
func (lr *LogisticRegression) PredictProba(x []float64) (float64, error) {
	if lr.Weights == nil {
		return 0, fmt.Errorf("model not trained")
	}
	if len(x) != lr.NumFeatures {
		return 0, fmt.Errorf("expected %d features, got %d", lr.NumFeatures, len(x))
	}
	z := lr.Bias
	for i, w := range lr.Weights {
		z += w * x[i]
	}
	return sigmoid(z), nil
}

// FeatureImportance is the normalized absolute coefficient magnitude.
func (lr *LogisticRegression) FeatureImportance() map[string]float64 {
	importance := make(map[string]float64)
	for i, name := range lr.FeatureNames {
		if i < len(lr.Weights) {
			importance[name] = math.Abs(lr.Weights[i])
		} else {
			importance[name] = 0
		}
	}
	normalizeImportance(importance)
	return importance
}
