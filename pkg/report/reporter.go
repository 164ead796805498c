package report

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/sanjib-agent/cricketml/pkg/models"
	"github.com/sanjib-agent/cricketml/pkg/schema"
	"github.com/sanjib-agent/cricketml/pkg/training"
)

const topImportances = 10

// Reporter builds model comparison reports and selects the best family for
// each target.
type Reporter struct {
	Dir string
}

// NewReporter creates a reporter writing report files under dir.
func NewReporter(dir string) *Reporter {
	return &Reporter{Dir: dir}
}

// SelectionMetric names the validation metric a task is judged by.
func SelectionMetric(task schema.TaskType) string {
	if task == schema.TaskClassification {
		return "f1_score"
	}
	return "r2_score"
}

// Build compares trained families and names the winner. Selection scans
// the roster in its fixed order with a strict greater-than comparison, so
// score ties go to the earlier roster entry, reproducibly. Failed families
// appear in the report but never compete.
func (r *Reporter) Build(spec schema.TargetSpec, results map[string]training.Result, failures map[string]string) (*models.ModelReport, error) {
	if len(results) == 0 {
		return nil, fmt.Errorf("%w: no trained models for target %s", schema.ErrNoResults, spec.Name)
	}

	report := &models.ModelReport{
		TargetName: spec.Name,
		TaskType:   string(spec.Type),
		Timestamp:  time.Now().UTC(),
		Models:     make(map[string]models.FamilyReport),
	}

	metric := SelectionMetric(spec.Type)
	comparison := make(map[string]models.ModelComparison)
	best := ""
	bestScore := 0.0

	for _, family := range training.Families(spec.Type) {
		if msg, failed := failures[family]; failed {
			report.Models[family] = models.FamilyReport{Err: msg}
			continue
		}
		res, ok := results[family]
		if !ok {
			continue
		}

		art := res.Artifact
		report.Models[family] = models.FamilyReport{
			BestParams: art.BestParams,
			CVScore:    art.CVScore,
			CVScores:   art.CVScores,
			ValMetrics: art.ValMetrics,
			Importance: truncateImportance(art.Importance),
			TrainedAt:  art.TrainedAt,
		}

		score := art.ValMetrics[metric]
		comparison[family] = models.ModelComparison{
			ValidationScore: score,
			CVMean:          meanOf(art.CVScores),
		}
		if best == "" || score > bestScore {
			best = family
			bestScore = score
		}
	}

	report.BestModel = best
	report.Summary = models.ReportSummary{
		TotalModels:     len(results),
		BestModel:       best,
		ModelComparison: comparison,
	}

	log.Printf("report: target=%s best=%s %s=%.4f models=%d failures=%d",
		spec.Name, best, metric, bestScore, len(results), len(failures))
	return report, nil
}

// Write persists a report as model_report_{target}_{timestamp}.json and
// returns the path.
func (r *Reporter) Write(report *models.ModelReport) (string, error) {
	if err := os.MkdirAll(r.Dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create reports dir: %w", err)
	}

	name := fmt.Sprintf("model_report_%s_%s.json", report.TargetName, report.Timestamp.Format("20060102_150405"))
	path := filepath.Join(r.Dir, name)

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal report: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write report: %w", err)
	}
	return path, nil
}

func truncateImportance(ranked []models.FeatureWeight) []models.FeatureWeight {
	if len(ranked) > topImportances {
		return ranked[:topImportances]
	}
	return ranked
}

func meanOf(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
