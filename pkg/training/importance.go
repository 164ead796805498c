package training

import (
	"sort"

	"github.com/sanjib-agent/cricketml/pkg/models"
)

// RankedImportance converts an importance map into a descending slice,
// breaking weight ties by feature name for stable output.
func RankedImportance(importance map[string]float64) []models.FeatureWeight {
	ranked := make([]models.FeatureWeight, 0, len(importance))
	for feature, weight := range importance {
		ranked = append(ranked, models.FeatureWeight{Feature: feature, Weight: weight})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Weight != ranked[j].Weight {
			return ranked[i].Weight > ranked[j].Weight
		}
		return ranked[i].Feature < ranked[j].Feature
	})
	return ranked
}
