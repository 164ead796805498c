package inference

import (
	"fmt"

	"github.com/sanjib-agent/cricketml/pkg/dataset"
	"github.com/sanjib-agent/cricketml/pkg/features"
	"github.com/sanjib-agent/cricketml/pkg/models"
	"github.com/sanjib-agent/cricketml/pkg/schema"
)

// FeatureBuilder converts a caller-supplied feature document into the
// exact vector layout a target's models were trained on. It carries the
// fitted preprocessor state and never re-fits anything: encoders are
// pinned, column order comes from the state, and the persisted scaler is
// applied last. Every gap is filled from the canonical defaults first and
// with zero as the final fallback, so an empty document still builds.
type FeatureBuilder struct {
	state  *models.PreprocessorState
	scaler *dataset.StandardScaler
}

// NewFeatureBuilder wires a builder to a loaded preprocessor state.
func NewFeatureBuilder(state *models.PreprocessorState) (*FeatureBuilder, error) {
	if state == nil {
		return nil, fmt.Errorf("nil preprocessor state")
	}
	if len(state.FeatureColumns) == 0 {
		return nil, fmt.Errorf("preprocessor state for %s has no feature columns", state.Target)
	}
	var scaler *dataset.StandardScaler
	if len(state.ScalerMean) > 0 {
		if len(state.ScalerMean) != len(state.FeatureColumns) || len(state.ScalerStd) != len(state.FeatureColumns) {
			return nil, fmt.Errorf("preprocessor state for %s has inconsistent scaler dimensions", state.Target)
		}
		scaler = &dataset.StandardScaler{Mean: state.ScalerMean, Std: state.ScalerStd}
	}
	return &FeatureBuilder{state: state, scaler: scaler}, nil
}

// FeatureColumns returns the training-time column order.
func (b *FeatureBuilder) FeatureColumns() []string {
	return b.state.FeatureColumns
}

// Build produces the model-ready feature vector for one document.
func (b *FeatureBuilder) Build(input map[string]interface{}) ([]float64, error) {
	merged := schema.DefaultFeatures()
	for key, value := range features.Flatten(input) {
		merged[key] = value
	}

	normalizer := features.NewNormalizer()
	normalizer.PinEncoders(b.state.Encoders)
	frame, err := normalizer.Normalize([]map[string]interface{}{merged})
	if err != nil {
		return nil, fmt.Errorf("failed to normalize features: %w", err)
	}
	if frame.NumRows() != 1 {
		return nil, fmt.Errorf("normalization produced %d rows, want 1", frame.NumRows())
	}

	// Align to the persisted column order. Columns the model was trained
	// on but the document lacks become zero; extra columns are ignored.
	vector := make([]float64, len(b.state.FeatureColumns))
	for i, name := range b.state.FeatureColumns {
		col := frame.Column(name)
		if col == nil {
			continue
		}
		vector[i] = dataset.CoerceCell(col, 0)
	}

	if b.scaler != nil {
		return b.scaler.TransformRow(vector)
	}
	return vector, nil
}
