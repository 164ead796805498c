package dataset

import (
	"fmt"

	"github.com/sanjib-agent/cricketml/pkg/features"
	"github.com/sanjib-agent/cricketml/pkg/schema"
)

// MakeTarget derives the supervised "target" column from a target spec.
// Classification binarizes the source column at the spec threshold;
// regression passes the source column through unchanged.
func MakeTarget(frame *features.Frame, spec schema.TargetSpec) error {
	source := frame.Column(spec.TargetColumn)
	if source == nil || source.Kind != features.KindNumeric {
		return fmt.Errorf("%w: target column %s absent after normalization", schema.ErrNoData, spec.TargetColumn)
	}

	target := make([]float64, frame.NumRows())
	if spec.Type == schema.TaskClassification {
		for i, v := range source.Values {
			if v >= spec.Threshold {
				target[i] = 1
			}
		}
	} else {
		copy(target, source.Values)
	}

	if frame.Has("target") {
		frame.Drop("target")
	}
	return frame.AddColumn(&features.Column{
		Name:   "target",
		Kind:   features.KindNumeric,
		Values: target,
	})
}
