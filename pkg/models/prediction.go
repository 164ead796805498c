package models

import "time"

// PredictRequest is the body of POST /predict/{target}.
type PredictRequest struct {
	Features  map[string]interface{} `json:"features"`
	ModelType string                 `json:"model_type,omitempty"` // "best" or a family name
}

// PredictBatchRequest is the body of POST /predict_batch.
type PredictBatchRequest struct {
	Features   map[string]interface{} `json:"features"`
	Targets    []string               `json:"targets,omitempty"`
	ModelTypes map[string]string      `json:"model_types,omitempty"`
}

// Prediction is one model output. Probabilities and Confidence are present
// only for classifiers that expose class probabilities.
type Prediction struct {
	Value         float64   `json:"prediction"`
	Probabilities []float64 `json:"probabilities,omitempty"`
	Confidence    *float64  `json:"confidence,omitempty"`
}

// PredictResponse is the reply to POST /predict/{target}.
type PredictResponse struct {
	Target     string      `json:"target"`
	ModelType  string      `json:"model_type"`
	Prediction *Prediction `json:"prediction"`
	Timestamp  time.Time   `json:"timestamp"`
}

// BatchPrediction is one target's entry in a batch reply. Error is set
// instead of a prediction when the target could not be served.
type BatchPrediction struct {
	ModelType  string      `json:"model_type,omitempty"`
	Prediction *Prediction `json:"prediction,omitempty"`
	Error      string      `json:"error,omitempty"`
}

// PredictBatchResponse is the reply to POST /predict_batch.
type PredictBatchResponse struct {
	Predictions map[string]BatchPrediction `json:"predictions"`
	Timestamp   time.Time                  `json:"timestamp"`
}
