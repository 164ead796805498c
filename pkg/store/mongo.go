package store

import (
	"context"
	"fmt"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/sanjib-agent/cricketml/pkg/config"
)

// Store reads engineered cricket feature documents from MongoDB.
type Store struct {
	client       *mongo.Client
	overFeatures *mongo.Collection
	matches      *mongo.Collection
}

// LoadOptions filters an over-features read.
type LoadOptions struct {
	Limit    int64    // 0 means no limit
	MatchIDs []string // empty means all matches
	// MinOversPerMatch drops every row of a match with fewer over
	// documents than this. 0 disables the filter.
	MinOversPerMatch int
}

// Connect opens a client and pings the server.
func Connect(ctx context.Context, cfg *config.Config) (*Store, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	db := client.Database(cfg.DatabaseName)
	log.Printf("store: connected to mongodb database %s", cfg.DatabaseName)
	return &Store{
		client:       client,
		overFeatures: db.Collection(cfg.OverFeaturesCollection),
		matches:      db.Collection(cfg.MatchesCollection),
	}, nil
}

// Close disconnects the client.
func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// LoadOverFeatures reads over-feature documents as generic maps. The
// match-size filter runs client-side after the read, counting over
// documents per matchId.
func (s *Store) LoadOverFeatures(ctx context.Context, opts LoadOptions) ([]map[string]interface{}, error) {
	filter := bson.M{}
	if len(opts.MatchIDs) > 0 {
		filter["matchId"] = bson.M{"$in": opts.MatchIDs}
	}

	findOpts := options.Find()
	if opts.Limit > 0 {
		findOpts.SetLimit(opts.Limit)
	}

	cursor, err := s.overFeatures.Find(ctx, filter, findOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to query over features: %w", err)
	}
	defer cursor.Close(ctx)

	var rows []map[string]interface{}
	for cursor.Next(ctx) {
		row := make(map[string]interface{})
		if err := cursor.Decode(&row); err != nil {
			return nil, fmt.Errorf("failed to decode over features document: %w", err)
		}
		rows = append(rows, row)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("over features cursor failed: %w", err)
	}
	log.Printf("store: loaded %d over feature documents", len(rows))

	if opts.MinOversPerMatch > 0 {
		rows = filterSmallMatches(rows, opts.MinOversPerMatch)
	}
	return rows, nil
}

// LoadMatches reads match documents, optionally restricted by matchId.
func (s *Store) LoadMatches(ctx context.Context, matchIDs []string) ([]map[string]interface{}, error) {
	filter := bson.M{}
	if len(matchIDs) > 0 {
		filter["matchId"] = bson.M{"$in": matchIDs}
	}

	cursor, err := s.matches.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to query matches: %w", err)
	}
	defer cursor.Close(ctx)

	var rows []map[string]interface{}
	for cursor.Next(ctx) {
		row := make(map[string]interface{})
		if err := cursor.Decode(&row); err != nil {
			return nil, fmt.Errorf("failed to decode match document: %w", err)
		}
		rows = append(rows, row)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("matches cursor failed: %w", err)
	}
	log.Printf("store: loaded %d match documents", len(rows))
	return rows, nil
}

// filterSmallMatches keeps only rows from matches with at least minOvers
// over documents. Rows without a matchId are dropped with the small
// matches; they cannot be attributed to any match.
func filterSmallMatches(rows []map[string]interface{}, minOvers int) []map[string]interface{} {
	counts := make(map[string]int)
	for _, row := range rows {
		if id, ok := row["matchId"].(string); ok {
			counts[id]++
		}
	}

	kept := rows[:0]
	matches := 0
	seen := make(map[string]bool)
	for _, row := range rows {
		id, ok := row["matchId"].(string)
		if !ok || counts[id] < minOvers {
			continue
		}
		if !seen[id] {
			seen[id] = true
			matches++
		}
		kept = append(kept, row)
	}
	log.Printf("store: filtered to %d rows from %d matches (min %d overs per match)", len(kept), matches, minOvers)
	return kept
}
