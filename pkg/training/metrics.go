package training

import (
	"math"
	"sort"
)

// ClassificationMetrics computes support-weighted precision/recall/F1 and
// accuracy over binary labels, plus rank-based ROC AUC when probabilities
// are supplied. Weighting by class support matches the convention of
// averaging per-class scores by how often each class occurs.
func ClassificationMetrics(yTrue, yPred, proba []float64) map[string]float64 {
	n := len(yTrue)
	metrics := map[string]float64{
		"accuracy":  0,
		"precision": 0,
		"recall":    0,
		"f1_score":  0,
	}
	if n == 0 || len(yPred) != n {
		return metrics
	}

	correct := 0
	for i := range yTrue {
		if yTrue[i] == yPred[i] {
			correct++
		}
	}
	metrics["accuracy"] = float64(correct) / float64(n)

	var weightedPrecision, weightedRecall, weightedF1 float64
	for _, class := range []float64{0, 1} {
		tp, fp, fn, support := 0, 0, 0, 0
		for i := range yTrue {
			if yTrue[i] == class {
				support++
				if yPred[i] == class {
					tp++
				} else {
					fn++
				}
			} else if yPred[i] == class {
				fp++
			}
		}

		precision, recall := 0.0, 0.0
		if tp+fp > 0 {
			precision = float64(tp) / float64(tp+fp)
		}
		if tp+fn > 0 {
			recall = float64(tp) / float64(tp+fn)
		}
		f1 := 0.0
		if precision+recall > 0 {
			f1 = 2 * precision * recall / (precision + recall)
		}

		weight := float64(support) / float64(n)
		weightedPrecision += weight * precision
		weightedRecall += weight * recall
		weightedF1 += weight * f1
	}
	metrics["precision"] = weightedPrecision
	metrics["recall"] = weightedRecall
	metrics["f1_score"] = weightedF1

	if len(proba) == n {
		if auc, ok := rocAUC(yTrue, proba); ok {
			metrics["roc_auc"] = auc
		}
	}
	return metrics
}

// rocAUC is the Mann-Whitney rank formulation of binary ROC AUC, with
// midranks for tied scores. Undefined when only one class is present.
func rocAUC(yTrue, proba []float64) (float64, bool) {
	n := len(yTrue)
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool { return proba[order[a]] < proba[order[b]] })

	ranks := make([]float64, n)
	for i := 0; i < n; {
		j := i
		for j < n && proba[order[j]] == proba[order[i]] {
			j++
		}
		midrank := float64(i+j+1) / 2 // 1-based average rank for the tie group
		for k := i; k < j; k++ {
			ranks[order[k]] = midrank
		}
		i = j
	}

	positives, rankSum := 0, 0.0
	for i := range yTrue {
		if yTrue[i] == 1 {
			positives++
			rankSum += ranks[i]
		}
	}
	negatives := n - positives
	if positives == 0 || negatives == 0 {
		return 0, false
	}

	nPos := float64(positives)
	nNeg := float64(negatives)
	return (rankSum - nPos*(nPos+1)/2) / (nPos * nNeg), true
}

// RegressionMetrics computes MSE, RMSE, MAE, and R2.
func RegressionMetrics(yTrue, yPred []float64) map[string]float64 {
	n := len(yTrue)
	metrics := map[string]float64{
		"mse":      0,
		"rmse":     0,
		"mae":      0,
		"r2_score": 0,
	}
	if n == 0 || len(yPred) != n {
		return metrics
	}

	meanTrue := mean(yTrue)
	var sumSq, sumAbs, ssTot float64
	for i := range yTrue {
		diff := yTrue[i] - yPred[i]
		sumSq += diff * diff
		sumAbs += math.Abs(diff)
		ssTot += (yTrue[i] - meanTrue) * (yTrue[i] - meanTrue)
	}

	metrics["mse"] = sumSq / float64(n)
	metrics["rmse"] = math.Sqrt(metrics["mse"])
	metrics["mae"] = sumAbs / float64(n)
	if ssTot > 0 {
		metrics["r2_score"] = 1 - sumSq/ssTot
	}
	return metrics
}

// EvaluateEstimator runs an estimator over a dataset and computes the
// task-appropriate metric set.
func EvaluateEstimator(est Estimator, X [][]float64, y []float64, classification bool) (map[string]float64, error) {
	yPred := make([]float64, len(X))
	var proba []float64

	prob, hasProba := est.(ProbabilisticEstimator)
	if classification && hasProba {
		proba = make([]float64, len(X))
	}

	for i, x := range X {
		pred, err := est.Predict(x)
		if err != nil {
			return nil, err
		}
		yPred[i] = pred
		if proba != nil {
			p, err := prob.PredictProba(x)
			if err != nil {
				return nil, err
			}
			proba[i] = p
		}
	}

	if classification {
		return ClassificationMetrics(y, yPred, proba), nil
	}
	return RegressionMetrics(y, yPred), nil
}
