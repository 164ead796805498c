package schema

import "fmt"

// TaskType identifies the kind of supervised learning task for a target.
type TaskType string

const (
	TaskClassification TaskType = "classification"
	TaskRegression     TaskType = "regression"
)

// TargetSpec declares one prediction target: what column it is derived from
// and how. Classification specs binarize the source column at Threshold;
// regression specs pass it through unchanged.
type TargetSpec struct {
	Name         string   `json:"name"`
	Type         TaskType `json:"type"`
	TargetColumn string   `json:"target_column"`
	Threshold    float64  `json:"threshold,omitempty"`
	Description  string   `json:"description"`
}

// Registry declares the prediction targets and the canonical feature schema.
// It is static configuration, versioned with the code, never derived from data.
type Registry struct {
	targets     map[string]TargetSpec
	targetOrder []string
}

// NewRegistry returns the registry with the built-in cricket targets.
func NewRegistry() *Registry {
	r := &Registry{targets: make(map[string]TargetSpec)}
	for _, spec := range []TargetSpec{
		{
			Name:         "wicket_occurrence",
			Type:         TaskClassification,
			TargetColumn: "overWickets",
			Threshold:    1,
			Description:  "Predict wicket occurrence in next over",
		},
		{
			Name:         "runs_per_over",
			Type:         TaskRegression,
			TargetColumn: "overRuns",
			Description:  "Predict runs scored in next over",
		},
		{
			Name:         "boundary_probability",
			Type:         TaskClassification,
			TargetColumn: "overBoundaries",
			Threshold:    1,
			Description:  "Predict boundary probability in next over",
		},
		{
			Name:         "run_rate_change",
			Type:         TaskRegression,
			TargetColumn: "runRate",
			Description:  "Predict run rate change in next over",
		},
	} {
		r.targets[spec.Name] = spec
		r.targetOrder = append(r.targetOrder, spec.Name)
	}
	return r
}

// Target returns the spec for a registered target name.
func (r *Registry) Target(name string) (TargetSpec, error) {
	spec, ok := r.targets[name]
	if !ok {
		return TargetSpec{}, fmt.Errorf("%w: %s", ErrUnknownTarget, name)
	}
	if spec.Type == TaskClassification && spec.Threshold <= 0 {
		return TargetSpec{}, fmt.Errorf("classification target %s has no threshold", name)
	}
	return spec, nil
}

// TargetNames returns all registered target names in declaration order.
func (r *Registry) TargetNames() []string {
	names := make([]string, len(r.targetOrder))
	copy(names, r.targetOrder)
	return names
}

// NumericalFeatures is the canonical list of numeric feature columns, in
// dotted post-flatten form. Outlier capping applies only to these columns.
var NumericalFeatures = []string{
	"overRuns", "overWickets", "overBalls", "overExtras", "overBoundaries", "overSixes",
	"totalRuns", "totalWickets", "totalOvers", "runRate", "requiredRunRate",
	"momentum.recentRunRate", "momentum.wicketsInHand", "momentum.pressureIndex",
	"momentum.partnershipRuns", "momentum.partnershipBalls",
	"batsmanStats.striker.runs", "batsmanStats.striker.balls", "batsmanStats.striker.strikeRate",
	"batsmanStats.nonStriker.runs", "batsmanStats.nonStriker.balls", "batsmanStats.nonStriker.strikeRate",
	"bowlerStats.runs", "bowlerStats.wickets", "bowlerStats.balls", "bowlerStats.economyRate", "bowlerStats.dotBalls",
}

// CategoricalFeatures is the canonical list of label-encoded columns.
var CategoricalFeatures = []string{
	"teamBatting", "teamBowling", "venue", "format", "series",
}

// NestedGroups are the optional per-record sub-documents flattened into
// dotted columns by the normalizer.
var NestedGroups = []string{
	"batsmanStats", "bowlerStats", "momentum", "matchContext", "dataQuality",
}

// ExcludedColumns are identifier, timestamp and bookkeeping columns that
// never enter the feature matrix. The splitter and the inference feature
// builder must share this exact set or feature positions silently misalign.
var ExcludedColumns = []string{
	"target", "_id", "matchId", "fixtureId", "timestamp",
	"createdAt", "updatedAt", "engineeredAt", "overStartTime", "overEndTime",
}

// IsExcluded reports whether a column is outside the feature matrix.
func IsExcluded(column string) bool {
	for _, c := range ExcludedColumns {
		if c == column {
			return true
		}
	}
	return false
}

// IsNumericalFeature reports whether a column is in the canonical numeric list.
func IsNumericalFeature(column string) bool {
	for _, c := range NumericalFeatures {
		if c == column {
			return true
		}
	}
	return false
}

// IsCategoricalFeature reports whether a column is in the canonical categorical list.
func IsCategoricalFeature(column string) bool {
	for _, c := range CategoricalFeatures {
		if c == column {
			return true
		}
	}
	return false
}
