package features

import "sort"

// LabelEncoder maps string labels to stable integer codes. Fitting assigns
// codes in sorted-unique-label order, so the assignment is deterministic for
// a given batch. Fitted state is persisted with the preprocessor artifact
// and reloaded for inference; inference never re-fits.
type LabelEncoder struct {
	Classes []string `json:"classes"`
	index   map[string]int
}

// NewLabelEncoder creates an unfitted encoder.
func NewLabelEncoder() *LabelEncoder {
	return &LabelEncoder{index: make(map[string]int)}
}

// NewLabelEncoderFromClasses restores an encoder from persisted class labels.
func NewLabelEncoderFromClasses(classes []string) *LabelEncoder {
	e := &LabelEncoder{Classes: classes, index: make(map[string]int, len(classes))}
	for i, c := range classes {
		e.index[c] = i
	}
	return e
}

// Fit learns the label set. Previously fitted state is replaced.
func (e *LabelEncoder) Fit(labels []string) {
	unique := make(map[string]bool)
	for _, l := range labels {
		unique[l] = true
	}
	e.Classes = make([]string, 0, len(unique))
	for l := range unique {
		e.Classes = append(e.Classes, l)
	}
	sort.Strings(e.Classes)
	e.index = make(map[string]int, len(e.Classes))
	for i, c := range e.Classes {
		e.index[c] = i
	}
}

// Transform returns the code for a label. The second return is false for
// labels not seen during fit; callers decide how to bucket those.
func (e *LabelEncoder) Transform(label string) (int, bool) {
	code, ok := e.index[label]
	return code, ok
}

// InverseTransform recovers the label for a code.
func (e *LabelEncoder) InverseTransform(code int) (string, bool) {
	if code < 0 || code >= len(e.Classes) {
		return "", false
	}
	return e.Classes[code], true
}
