package taxonomy

import (
	"context"
	"fmt"

	"versegraph/lib/graphstore"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

const batchSize = 500

type neo4jStore struct {
	graph *graphstore.Store
}

func NewNeo4jStore(graph *graphstore.Store) Store {
	return &neo4jStore{graph: graph}
}

func (s *neo4jStore) GetSongFeatures(ctx context.Context) ([]SongFeatures, error) {
	result, err := s.graph.Read(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, `
			MATCH (song:Song)
			RETURN elementId(song) AS song_id,
			       song.title AS title,
			       song.energy AS energy,
			       song.valence AS valence,
			       song.acousticness AS acousticness,
			       song.unique_word_count AS unique_word_count,
			       song.vocabulary_complexity AS vocabulary_complexity
			ORDER BY song_id
		`, nil)
		if err != nil {
			return nil, err
		}

		var songs []SongFeatures
		for res.Next(ctx) {
			record := res.Record()
			song := SongFeatures{
				SongId: graphstore.StringValue(record, "song_id"),
				Title:  graphstore.StringValue(record, "title"),
			}
			if v, ok := graphstore.FloatValue(record, "energy"); ok {
				song.Energy = &v
			}
			if v, ok := graphstore.FloatValue(record, "valence"); ok {
				song.Valence = &v
			}
			if v, ok := graphstore.FloatValue(record, "acousticness"); ok {
				song.Acousticness = &v
			}
			if v, ok := graphstore.FloatValue(record, "unique_word_count"); ok {
				n := int64(v)
				song.UniqueWordCount = &n
			}
			if v, ok := graphstore.FloatValue(record, "vocabulary_complexity"); ok {
				song.VocabularyComplexity = &v
			}
			songs = append(songs, song)
		}
		return songs, res.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("get song features: %w", err)
	}
	return result.([]SongFeatures), nil
}

func (s *neo4jStore) SetScores(ctx context.Context, scores []Scores) (int, error) {
	written := 0
	for start := 0; start < len(scores); start += batchSize {
		end := min(start+batchSize, len(scores))
		batch := scores[start:end]

		rows := make([]map[string]any, len(batch))
		for i, score := range batch {
			rows[i] = map[string]any{
				"song_id":              score.SongId,
				"energy_level":         score.EnergyLevel,
				"emotional_valence":    score.EmotionalValence,
				"musical_complexity":   score.MusicalComplexity,
				"lyrical_intelligence": score.LyricalIntelligence,
				"singalong_potential":  score.SingalongPotential,
				"scored_at":            score.ScoredAt,
			}
		}

		_, err := s.graph.Write(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
			res, err := tx.Run(ctx, `
				UNWIND $rows AS row
				MATCH (song:Song) WHERE elementId(song) = row.song_id
				SET song.energy_level = row.energy_level,
				    song.emotional_valence = row.emotional_valence,
				    song.musical_complexity = row.musical_complexity,
				    song.lyrical_intelligence = row.lyrical_intelligence,
				    song.singalong_potential = row.singalong_potential,
				    song.taxonomy_scored_at = row.scored_at
			`, map[string]any{"rows": rows})
			if err != nil {
				return nil, err
			}
			_, err = res.Consume(ctx)
			return nil, err
		})
		if err != nil {
			return written, fmt.Errorf("set taxonomy scores batch: %w", err)
		}
		written += len(batch)
	}
	return written, nil
}
