package schema

import "errors"

// Sentinel errors shared across the pipeline. Callers match with errors.Is.
var (
	// ErrUnknownTarget indicates a target name absent from the registry.
	ErrUnknownTarget = errors.New("unknown target")

	// ErrNoData indicates an empty result set from the store or a target
	// column absent after normalization. Training for that target is
	// skipped; other targets proceed.
	ErrNoData = errors.New("no data available")

	// ErrNoResults indicates a report was requested for a target never
	// trained in this process lifetime.
	ErrNoResults = errors.New("no training results")

	// ErrNoModel indicates no model is loaded for a requested
	// target/family combination.
	ErrNoModel = errors.New("no model available")

	// ErrInvalidFeatures indicates a prediction request whose feature
	// document could not be turned into a model input vector. The request
	// is at fault, not the serving process.
	ErrInvalidFeatures = errors.New("invalid feature input")
)
