package validation

import (
	"context"
	"fmt"

	"versegraph/lib/graphstore"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

type neo4jStore struct {
	graph *graphstore.Store
}

func NewNeo4jStore(graph *graphstore.Store) Store {
	return &neo4jStore{graph: graph}
}

// coverageQueries name each check with a cypher query returning have and
// total counts. All queries are read-only.
var coverageQueries = []struct {
	name  string
	query string
}{
	{
		name: "converted lyric lines",
		query: `
			MATCH (:Song)-[:HAS_LINE]->(line:LyricLine)
			RETURN count(CASE WHEN line.word_sequence IS NOT NULL THEN 1 END) AS have,
			       count(line) AS total
		`,
	},
	{
		name: "songs with vocab stats",
		query: `
			MATCH (song:Song)
			RETURN count(CASE WHEN song.vocabulary_complexity IS NOT NULL THEN 1 END) AS have,
			       count(song) AS total
		`,
	},
	{
		name: "songs with audio features",
		query: `
			MATCH (song:Song)
			RETURN count(CASE WHEN song.energy IS NOT NULL THEN 1 END) AS have,
			       count(song) AS total
		`,
	},
	{
		name: "songs with taxonomy scores",
		query: `
			MATCH (song:Song)
			RETURN count(CASE WHEN song.energy_level IS NOT NULL THEN 1 END) AS have,
			       count(song) AS total
		`,
	},
	{
		name: "artists with engagement",
		query: `
			MATCH (artist:Artist)
			RETURN count(CASE WHEN artist.engagement_collected_at IS NOT NULL THEN 1 END) AS have,
			       count(artist) AS total
		`,
	},
}

func (s *neo4jStore) GetCoverages(ctx context.Context) ([]Coverage, error) {
	result, err := s.graph.Read(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		coverages := make([]Coverage, 0, len(coverageQueries))
		for _, check := range coverageQueries {
			res, err := tx.Run(ctx, check.query, nil)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", check.name, err)
			}
			record, err := res.Single(ctx)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", check.name, err)
			}
			coverages = append(coverages, Coverage{
				Name:  check.name,
				Have:  graphstore.IntValue(record, "have"),
				Total: graphstore.IntValue(record, "total"),
			})
		}
		return coverages, nil
	})
	if err != nil {
		return nil, fmt.Errorf("get coverages: %w", err)
	}
	return result.([]Coverage), nil
}

func (s *neo4jStore) GetDictionarySize(ctx context.Context) (int64, error) {
	result, err := s.graph.Read(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, `MATCH (word:Word) RETURN count(word) AS total`, nil)
		if err != nil {
			return nil, err
		}
		record, err := res.Single(ctx)
		if err != nil {
			return nil, err
		}
		return graphstore.IntValue(record, "total"), nil
	})
	if err != nil {
		return 0, fmt.Errorf("get dictionary size: %w", err)
	}
	return result.(int64), nil
}
