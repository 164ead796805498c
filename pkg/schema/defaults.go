package schema

// DefaultFeatures returns a complete feature document with a neutral default
// for every canonical field. The inference feature builder merges caller
// input over this map, so a fully empty request still produces a valid row.
func DefaultFeatures() map[string]interface{} {
	return map[string]interface{}{
		// Basic over features
		"innings":         1.0,
		"overNumber":      5.0,
		"overBalls":       6.0,
		"overBoundaries":  0.0,
		"overExtras":      0.0,
		"overRuns":        0.0,
		"overSixes":       0.0,
		"overWickets":     0.0,
		"requiredRunRate": 0.0,
		"runRate":         0.0,
		"teamBatting":     5.0,
		"teamBowling":     5.0,
		"totalOvers":      0.1,
		"totalRuns":       0.0,
		"totalWickets":    0.0,

		// Batsman stats
		"batsmanStats.striker.runs":          0.0,
		"batsmanStats.striker.balls":         0.0,
		"batsmanStats.striker.strikeRate":    0.0,
		"batsmanStats.nonStriker.runs":       0.0,
		"batsmanStats.nonStriker.balls":      0.0,
		"batsmanStats.nonStriker.strikeRate": 0.0,

		// Bowler stats
		"bowlerStats.runs":        0.0,
		"bowlerStats.wickets":     0.0,
		"bowlerStats.balls":       0.0,
		"bowlerStats.dotBalls":    0.0,
		"bowlerStats.economyRate": 0.0,

		// Momentum features
		"momentum.recentRunRate":    0.0,
		"momentum.wicketsInHand":    10.0,
		"momentum.pressureIndex":    0.0,
		"momentum.partnershipRuns":  0.0,
		"momentum.partnershipBalls": 0.0,

		// Match context
		"matchContext.target":     0.0,
		"matchContext.chase":      false,
		"matchContext.powerplay":  false,
		"matchContext.deathOvers": false,

		// Data quality
		"dataQuality.complete":     true,
		"dataQuality.missingBalls": 0.0,
	}
}
