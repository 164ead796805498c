package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func rowsForMatch(matchID string, n int) []map[string]interface{} {
	rows := make([]map[string]interface{}, n)
	for i := range rows {
		rows[i] = map[string]interface{}{"matchId": matchID, "overNumber": float64(i + 1)}
	}
	return rows
}

func TestFilterSmallMatches(t *testing.T) {
	rows := append(rowsForMatch("m1", 12), rowsForMatch("m2", 3)...)
	rows = append(rows, rowsForMatch("m3", 10)...)

	kept := filterSmallMatches(rows, 10)
	assert.Len(t, kept, 22)
	for _, row := range kept {
		assert.NotEqual(t, "m2", row["matchId"])
	}
}

func TestFilterSmallMatches_DropsRowsWithoutMatchID(t *testing.T) {
	rows := rowsForMatch("m1", 10)
	rows = append(rows, map[string]interface{}{"overNumber": 1.0})

	kept := filterSmallMatches(rows, 5)
	assert.Len(t, kept, 10)
}

func TestFilterSmallMatches_Disabled(t *testing.T) {
	rows := rowsForMatch("m1", 2)
	assert.Len(t, filterSmallMatches(rows, 1), 2)
}
