package pipeline

import (
	"context"
	"fmt"

	"versegraph/lib/graphstore"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

type neo4jStore struct {
	graph *graphstore.Store
}

func NewNeo4jStore(graph *graphstore.Store) StatusStore {
	return &neo4jStore{graph: graph}
}

// fieldQueries map each pipeline field to a coverage query returning have
// and total counts over the nodes that should carry it.
var fieldQueries = map[Field]string{
	FieldDictionary: `
		MATCH (word:Word)
		RETURN count(word) AS have, count(word) AS total
	`,
	FieldWordSequence: `
		MATCH (:Song)-[:HAS_LINE]->(line:LyricLine)
		RETURN count(CASE WHEN line.word_sequence IS NOT NULL THEN 1 END) AS have,
		       count(line) AS total
	`,
	FieldSongStats: `
		MATCH (song:Song)
		RETURN count(CASE WHEN song.vocabulary_complexity IS NOT NULL THEN 1 END) AS have,
		       count(song) AS total
	`,
	FieldAudioFeatures: `
		MATCH (song:Song)
		RETURN count(CASE WHEN song.energy IS NOT NULL THEN 1 END) AS have,
		       count(song) AS total
	`,
	FieldTaxonomy: `
		MATCH (song:Song)
		RETURN count(CASE WHEN song.energy_level IS NOT NULL THEN 1 END) AS have,
		       count(song) AS total
	`,
}

func (s *neo4jStore) FieldCoverage(ctx context.Context, field Field) (int64, int64, error) {
	query, ok := fieldQueries[field]
	if !ok {
		return 0, 0, fmt.Errorf("unknown pipeline field %q", field)
	}

	type coverage struct{ have, total int64 }
	result, err := s.graph.Read(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, query, nil)
		if err != nil {
			return nil, err
		}
		record, err := res.Single(ctx)
		if err != nil {
			return nil, err
		}
		return coverage{
			have:  graphstore.IntValue(record, "have"),
			total: graphstore.IntValue(record, "total"),
		}, nil
	})
	if err != nil {
		return 0, 0, fmt.Errorf("field coverage %q: %w", field, err)
	}
	c := result.(coverage)
	return c.have, c.total, nil
}
