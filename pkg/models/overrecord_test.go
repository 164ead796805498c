package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocumentOmitsAbsentGroups(t *testing.T) {
	rec := &OverRecord{
		MatchID:    "m1",
		Innings:    1,
		OverNumber: 7,
		OverRuns:   9,
	}

	doc := rec.Document()

	assert.Equal(t, "m1", doc["matchId"])
	assert.Equal(t, 7.0, doc["overNumber"])
	assert.Equal(t, 9.0, doc["overRuns"])
	for _, group := range []string{"momentum", "batsmanStats", "bowlerStats", "matchContext", "dataQuality"} {
		assert.NotContains(t, doc, group)
	}
	assert.NotContains(t, doc, "_id")
	assert.NotContains(t, doc, "timestamp")
	assert.NotContains(t, doc, "teamBatting")
}

func TestDocumentIncludesPresentGroups(t *testing.T) {
	rec := &OverRecord{
		ID:         "abc",
		MatchID:    "m2",
		Innings:    2,
		OverNumber: 18,
		Timestamp:  time.Date(2026, 3, 1, 14, 0, 0, 0, time.UTC),
		Momentum: &Momentum{
			WicketsInHand:   4,
			PartnershipRuns: 31,
		},
		BatsmanStats: &BatsmanStats{
			Striker: BatterStats{Runs: 52, Balls: 40, StrikeRate: 130},
		},
		MatchContext: &MatchContext{
			Venue:      "MCG",
			Chase:      true,
			DeathOvers: true,
		},
	}

	doc := rec.Document()

	assert.Equal(t, "abc", doc["_id"])
	assert.NotContains(t, doc, "bowlerStats")
	assert.NotContains(t, doc, "dataQuality")

	momentum, ok := doc["momentum"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, 4.0, momentum["wicketsInHand"])
	assert.Equal(t, 31.0, momentum["partnershipRuns"])

	batsmen, ok := doc["batsmanStats"].(map[string]interface{})
	require.True(t, ok)
	striker, ok := batsmen["striker"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, 130.0, striker["strikeRate"])

	ctx, ok := doc["matchContext"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "MCG", ctx["venue"])
	assert.Equal(t, true, ctx["chase"])
	assert.Equal(t, true, ctx["deathOvers"])
	assert.NotContains(t, ctx, "format")
	assert.NotContains(t, ctx, "series")
}
