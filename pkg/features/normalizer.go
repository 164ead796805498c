package features

import (
	"log"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/sanjib-agent/cricketml/pkg/schema"
)

// Normalizer converts raw over documents into a rectangular numeric-ready
// frame. The same instance and the same step order run at training time and
// at inference time; the only stateful pieces are the per-column label
// encoders, which are fit during training and pinned for inference.
type Normalizer struct {
	MaxMissingRatio float64
	OutlierZ        float64

	encoders map[string]*LabelEncoder
	pinned   bool
}

// NewNormalizer creates a normalizer with the standard thresholds.
func NewNormalizer() *Normalizer {
	return &Normalizer{
		MaxMissingRatio: 0.3,
		OutlierZ:        3,
		encoders:        make(map[string]*LabelEncoder),
	}
}

// EncoderState exports the fitted encoder classes for persistence.
func (n *Normalizer) EncoderState() map[string][]string {
	state := make(map[string][]string, len(n.encoders))
	for col, enc := range n.encoders {
		state[col] = enc.Classes
	}
	return state
}

// PinEncoders installs previously fitted encoder state. A pinned normalizer
// never re-fits: unseen labels map to the out-of-vocabulary code
// len(classes) instead of shifting existing assignments.
func (n *Normalizer) PinEncoders(state map[string][]string) {
	n.encoders = make(map[string]*LabelEncoder, len(state))
	for col, classes := range state {
		n.encoders[col] = NewLabelEncoderFromClasses(classes)
	}
	n.pinned = true
}

// Normalize runs the full pipeline: flatten, missing-value handling,
// outlier capping, categorical encoding, feature engineering. An empty
// input produces an empty frame, not an error.
func (n *Normalizer) Normalize(rows []map[string]interface{}) (*Frame, error) {
	if len(rows) == 0 {
		log.Println("normalizer: empty input, returning empty frame")
		return NewFrame(0), nil
	}

	flat := make([]map[string]interface{}, len(rows))
	for i, row := range rows {
		flat[i] = flattenDocument(row)
	}

	frame := FromRows(flat)
	n.handleMissing(frame)
	n.capOutliers(frame)
	n.encodeCategoricals(frame)
	n.engineerFeatures(frame)
	return frame, nil
}

// Flatten expands each declared nested group of a document into dotted
// scalar keys, recursively, and drops the group key itself. A missing group
// simply contributes no keys.
func Flatten(row map[string]interface{}) map[string]interface{} {
	return flattenDocument(row)
}

// flattenDocument expands each declared nested group into dotted scalar
// keys, recursively, and drops the group key itself. A missing group simply
// contributes no keys.
func flattenDocument(row map[string]interface{}) map[string]interface{} {
	flat := make(map[string]interface{}, len(row))
	for key, value := range row {
		if isNestedGroup(key) {
			if sub, ok := value.(map[string]interface{}); ok {
				flattenInto(flat, key, sub)
				continue
			}
		}
		flat[key] = value
	}
	return flat
}

func flattenInto(dst map[string]interface{}, prefix string, sub map[string]interface{}) {
	for key, value := range sub {
		dotted := prefix + "." + key
		if nested, ok := value.(map[string]interface{}); ok {
			flattenInto(dst, dotted, nested)
			continue
		}
		dst[dotted] = value
	}
}

func isNestedGroup(key string) bool {
	for _, g := range schema.NestedGroups {
		if g == key {
			return true
		}
	}
	return false
}

// handleMissing drops columns above the missing-ratio threshold, imputes
// numeric columns with the batch median, and fills categorical gaps with
// the "Unknown" sentinel.
func (n *Normalizer) handleMissing(frame *Frame) {
	var drop []string
	for _, col := range frame.Columns() {
		if ratio := col.MissingRatio(); ratio > n.MaxMissingRatio {
			log.Printf("normalizer: dropping column %s (missing ratio %.2f)", col.Name, ratio)
			drop = append(drop, col.Name)
		}
	}
	for _, name := range drop {
		frame.Drop(name)
	}

	for _, col := range frame.Columns() {
		switch col.Kind {
		case KindNumeric:
			imputeMedian(col)
		case KindCategorical:
			for i, missing := range col.Missing {
				if missing {
					col.Labels[i] = "Unknown"
					col.Missing[i] = false
				}
			}
		case KindBoolean:
			for i, missing := range col.Missing {
				if missing {
					col.Bools[i] = false
					col.Missing[i] = false
				}
			}
		}
	}
}

func imputeMedian(col *Column) {
	present := make([]float64, 0, len(col.Values))
	for i, v := range col.Values {
		if !col.Missing[i] {
			present = append(present, v)
		}
	}
	if len(present) == 0 {
		return
	}
	sort.Float64s(present)
	median := stat.Quantile(0.5, stat.LinInterp, present, nil)
	for i, missing := range col.Missing {
		if missing {
			col.Values[i] = median
			col.Missing[i] = false
		}
	}
}

// capOutliers clips values whose z-score exceeds the threshold to the
// column's [5th, 95th] percentile band. Only canonical numerical features
// are checked. Row count is preserved; non-outlier cells are untouched.
// A zero-variance column has no defined z-score and is treated as having
// no outliers.
func (n *Normalizer) capOutliers(frame *Frame) {
	for _, col := range frame.Columns() {
		if col.Kind != KindNumeric || !schema.IsNumericalFeature(col.Name) {
			continue
		}
		mean := stat.Mean(col.Values, nil)
		std := stat.StdDev(col.Values, nil)
		if std == 0 || math.IsNaN(std) {
			continue
		}

		sorted := append([]float64(nil), col.Values...)
		sort.Float64s(sorted)
		lower := stat.Quantile(0.05, stat.LinInterp, sorted, nil)
		upper := stat.Quantile(0.95, stat.LinInterp, sorted, nil)

		for i, v := range col.Values {
			if math.Abs(v-mean)/std > n.OutlierZ {
				col.Values[i] = clip(v, lower, upper)
			}
		}
	}
}

func clip(v, lower, upper float64) float64 {
	if v < lower {
		return lower
	}
	if v > upper {
		return upper
	}
	return v
}

// encodeCategoricals label-encodes canonical categorical columns in place,
// converting them to numeric. During training the encoder is (re)fit on the
// batch; a pinned normalizer reuses loaded state and routes unseen labels
// to an out-of-vocabulary code.
func (n *Normalizer) encodeCategoricals(frame *Frame) {
	for _, col := range frame.Columns() {
		if col.Kind != KindCategorical || !schema.IsCategoricalFeature(col.Name) {
			continue
		}

		enc, ok := n.encoders[col.Name]
		if !ok {
			if n.pinned {
				log.Printf("normalizer: no pinned encoder for %s, leaving column unencoded", col.Name)
				continue
			}
			enc = NewLabelEncoder()
			n.encoders[col.Name] = enc
		}
		if !n.pinned {
			enc.Fit(col.Labels)
		}

		values := make([]float64, len(col.Labels))
		for i, label := range col.Labels {
			code, seen := enc.Transform(label)
			if !seen {
				code = len(enc.Classes)
			}
			values[i] = float64(code)
		}
		col.Kind = KindNumeric
		col.Values = values
		col.Labels = nil
	}
}

// engineerFeatures derives the standard over-phase, run-rate, partnership
// and pressure columns. Each is added only when its source columns exist;
// nothing is defaulted here.
func (n *Normalizer) engineerFeatures(frame *Frame) {
	rows := frame.NumRows()

	if over := numericColumn(frame, "overNumber"); over != nil {
		powerplay := make([]float64, rows)
		death := make([]float64, rows)
		middle := make([]float64, rows)
		for i, v := range over.Values {
			if v <= 6 {
				powerplay[i] = 1
			}
			if v >= 16 {
				death[i] = 1
			}
			if v >= 7 && v <= 15 {
				middle[i] = 1
			}
		}
		addNumeric(frame, "is_powerplay", powerplay)
		addNumeric(frame, "is_death_overs", death)
		addNumeric(frame, "is_middle_overs", middle)
	}

	runRate := numericColumn(frame, "runRate")
	required := numericColumn(frame, "requiredRunRate")
	if runRate != nil && required != nil {
		diff := make([]float64, rows)
		ratio := make([]float64, rows)
		for i := range diff {
			diff[i] = runRate.Values[i] - required.Values[i]
			ratio[i] = runRate.Values[i] / (required.Values[i] + 0.1)
		}
		addNumeric(frame, "run_rate_diff", diff)
		addNumeric(frame, "run_rate_ratio", ratio)
	}

	pRuns := numericColumn(frame, "momentum.partnershipRuns")
	pBalls := numericColumn(frame, "momentum.partnershipBalls")
	if pRuns != nil && pBalls != nil {
		rate := make([]float64, rows)
		for i := range rate {
			rate[i] = pRuns.Values[i] / (pBalls.Values[i] + 1)
		}
		addNumeric(frame, "partnership_rate", rate)
	}

	if wickets := numericColumn(frame, "momentum.wicketsInHand"); wickets != nil {
		ratio := make([]float64, rows)
		for i, v := range wickets.Values {
			ratio[i] = v / 10
		}
		addNumeric(frame, "wickets_remaining_ratio", ratio)
	}
}

func numericColumn(frame *Frame, name string) *Column {
	col := frame.Column(name)
	if col == nil || col.Kind != KindNumeric {
		return nil
	}
	return col
}

func addNumeric(frame *Frame, name string, values []float64) {
	if frame.Has(name) {
		frame.Drop(name)
	}
	if err := frame.AddColumn(&Column{Name: name, Kind: KindNumeric, Values: values}); err != nil {
		log.Printf("normalizer: failed to add engineered column %s: %v", name, err)
	}
}
