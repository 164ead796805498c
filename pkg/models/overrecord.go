package models

import "time"

// OverRecord is one stored snapshot of match state at the end of an over.
// Records are immutable once stored; they are produced by the upstream
// feature-engineering process and read back from the overfeatures collection.
// Each nested group is optional: a nil pointer means the group was absent
// from the stored document.
type OverRecord struct {
	ID         string    `bson:"_id,omitempty" json:"_id,omitempty"`
	MatchID    string    `bson:"matchId" json:"matchId"`
	Innings    int       `bson:"innings" json:"innings"`
	OverNumber int       `bson:"overNumber" json:"overNumber"`
	Timestamp  time.Time `bson:"timestamp,omitempty" json:"timestamp,omitempty"`

	// Per-over scalar statistics
	OverRuns       float64 `bson:"overRuns" json:"overRuns"`
	OverWickets    float64 `bson:"overWickets" json:"overWickets"`
	OverBalls      float64 `bson:"overBalls" json:"overBalls"`
	OverExtras     float64 `bson:"overExtras" json:"overExtras"`
	OverBoundaries float64 `bson:"overBoundaries" json:"overBoundaries"`
	OverSixes      float64 `bson:"overSixes" json:"overSixes"`

	// Cumulative match statistics
	TotalRuns       float64 `bson:"totalRuns" json:"totalRuns"`
	TotalWickets    float64 `bson:"totalWickets" json:"totalWickets"`
	TotalOvers      float64 `bson:"totalOvers" json:"totalOvers"`
	RunRate         float64 `bson:"runRate" json:"runRate"`
	RequiredRunRate float64 `bson:"requiredRunRate" json:"requiredRunRate"`

	TeamBatting string `bson:"teamBatting,omitempty" json:"teamBatting,omitempty"`
	TeamBowling string `bson:"teamBowling,omitempty" json:"teamBowling,omitempty"`

	Momentum     *Momentum     `bson:"momentum,omitempty" json:"momentum,omitempty"`
	BatsmanStats *BatsmanStats `bson:"batsmanStats,omitempty" json:"batsmanStats,omitempty"`
	BowlerStats  *BowlerStats  `bson:"bowlerStats,omitempty" json:"bowlerStats,omitempty"`
	MatchContext *MatchContext `bson:"matchContext,omitempty" json:"matchContext,omitempty"`
	DataQuality  *DataQuality  `bson:"dataQuality,omitempty" json:"dataQuality,omitempty"`
}

// Momentum holds short-term trend indicators.
type Momentum struct {
	RecentRunRate    float64 `bson:"recentRunRate" json:"recentRunRate"`
	WicketsInHand    float64 `bson:"wicketsInHand" json:"wicketsInHand"`
	PressureIndex    float64 `bson:"pressureIndex" json:"pressureIndex"`
	PartnershipRuns  float64 `bson:"partnershipRuns" json:"partnershipRuns"`
	PartnershipBalls float64 `bson:"partnershipBalls" json:"partnershipBalls"`
}

// BatterStats holds one batter's figures at the end of the over.
type BatterStats struct {
	Runs       float64 `bson:"runs" json:"runs"`
	Balls      float64 `bson:"balls" json:"balls"`
	StrikeRate float64 `bson:"strikeRate" json:"strikeRate"`
}

// BatsmanStats groups striker and non-striker figures.
type BatsmanStats struct {
	Striker    BatterStats `bson:"striker" json:"striker"`
	NonStriker BatterStats `bson:"nonStriker" json:"nonStriker"`
}

// BowlerStats holds the current bowler's figures.
type BowlerStats struct {
	Runs        float64 `bson:"runs" json:"runs"`
	Wickets     float64 `bson:"wickets" json:"wickets"`
	Balls       float64 `bson:"balls" json:"balls"`
	EconomyRate float64 `bson:"economyRate" json:"economyRate"`
	DotBalls    float64 `bson:"dotBalls" json:"dotBalls"`
}

// MatchContext holds venue and innings-phase flags.
type MatchContext struct {
	Venue      string  `bson:"venue,omitempty" json:"venue,omitempty"`
	Format     string  `bson:"format,omitempty" json:"format,omitempty"`
	Series     string  `bson:"series,omitempty" json:"series,omitempty"`
	Target     float64 `bson:"target" json:"target"`
	Chase      bool    `bson:"chase" json:"chase"`
	Powerplay  bool    `bson:"powerplay" json:"powerplay"`
	DeathOvers bool    `bson:"deathOvers" json:"deathOvers"`
}

// DataQuality flags incomplete source data for an over.
type DataQuality struct {
	Complete     bool    `bson:"complete" json:"complete"`
	MissingBalls float64 `bson:"missingBalls" json:"missingBalls"`
}

// Document converts the record into the mapping form the feature pipeline
// consumes. The conversion is total over present/absent groups: a nil group
// contributes no keys at all, so later pipeline stages see the group as
// missing rather than zero-filled.
func (r *OverRecord) Document() map[string]interface{} {
	doc := map[string]interface{}{
		"matchId":         r.MatchID,
		"innings":         float64(r.Innings),
		"overNumber":      float64(r.OverNumber),
		"overRuns":        r.OverRuns,
		"overWickets":     r.OverWickets,
		"overBalls":       r.OverBalls,
		"overExtras":      r.OverExtras,
		"overBoundaries":  r.OverBoundaries,
		"overSixes":       r.OverSixes,
		"totalRuns":       r.TotalRuns,
		"totalWickets":    r.TotalWickets,
		"totalOvers":      r.TotalOvers,
		"runRate":         r.RunRate,
		"requiredRunRate": r.RequiredRunRate,
	}
	if r.ID != "" {
		doc["_id"] = r.ID
	}
	if !r.Timestamp.IsZero() {
		doc["timestamp"] = r.Timestamp
	}
	if r.TeamBatting != "" {
		doc["teamBatting"] = r.TeamBatting
	}
	if r.TeamBowling != "" {
		doc["teamBowling"] = r.TeamBowling
	}
	if m := r.Momentum; m != nil {
		doc["momentum"] = map[string]interface{}{
			"recentRunRate":    m.RecentRunRate,
			"wicketsInHand":    m.WicketsInHand,
			"pressureIndex":    m.PressureIndex,
			"partnershipRuns":  m.PartnershipRuns,
			"partnershipBalls": m.PartnershipBalls,
		}
	}
	if b := r.BatsmanStats; b != nil {
		doc["batsmanStats"] = map[string]interface{}{
			"striker": map[string]interface{}{
				"runs":       b.Striker.Runs,
				"balls":      b.Striker.Balls,
				"strikeRate": b.Striker.StrikeRate,
			},
			"nonStriker": map[string]interface{}{
				"runs":       b.NonStriker.Runs,
				"balls":      b.NonStriker.Balls,
				"strikeRate": b.NonStriker.StrikeRate,
			},
		}
	}
	if b := r.BowlerStats; b != nil {
		doc["bowlerStats"] = map[string]interface{}{
			"runs":        b.Runs,
			"wickets":     b.Wickets,
			"balls":       b.Balls,
			"economyRate": b.EconomyRate,
			"dotBalls":    b.DotBalls,
		}
	}
	if c := r.MatchContext; c != nil {
		ctx := map[string]interface{}{
			"target":     c.Target,
			"chase":      c.Chase,
			"powerplay":  c.Powerplay,
			"deathOvers": c.DeathOvers,
		}
		if c.Venue != "" {
			ctx["venue"] = c.Venue
		}
		if c.Format != "" {
			ctx["format"] = c.Format
		}
		if c.Series != "" {
			ctx["series"] = c.Series
		}
		doc["matchContext"] = ctx
	}
	if q := r.DataQuality; q != nil {
		doc["dataQuality"] = map[string]interface{}{
			"complete":     q.Complete,
			"missingBalls": q.MissingBalls,
		}
	}
	return doc
}
