package enrichment

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

func (s *neo4jStore) GetSongsMissingFeatures(ctx context.Context) ([]Song, error) {
	result, err := s.graph.Read(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, `
			MATCH (song:Song)
			WHERE song.energy IS NULL
			RETURN elementId(song) AS song_id,
			       song.title AS title,
			       song.album AS album
			ORDER BY song.album, song.title
		`, nil)
		if err != nil {
			return nil, err
		}

		var songs []Song
		for res.Next(ctx) {
			record := res.Record()
			songs = append(songs, Song{
				SongId: graphstore.StringValue(record, "song_id"),
				Title:  graphstore.StringValue(record, "title"),
				Album:  graphstore.StringValue(record, "album"),
			})
		}
		return songs, res.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("get songs missing features: %w", err)
	}
	return result.([]Song), nil
}

// SetSongFeatures writes one song at a time so a failure partway through a
// run only loses the song it failed on.
func (s *neo4jStore) SetSongFeatures(ctx context.Context, songId string, features FeatureSet) error {
	_, err := s.graph.Write(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, `
			MATCH (song:Song) WHERE elementId(song) = $song_id
			SET song.energy = $energy,
			    song.valence = $valence,
			    song.acousticness = $acousticness,
			    song.danceability = $danceability,
			    song.instrumentalness = $instrumentalness,
			    song.liveness = $liveness,
			    song.speechiness = $speechiness,
			    song.tempo = $tempo,
			    song.loudness = $loudness,
			    song.feature_source = $source,
			    song.feature_confidence = $confidence,
			    song.features_fetched_at = $fetched_at
		`, map[string]any{
			"song_id":          songId,
			"energy":           features.Energy,
			"valence":          features.Valence,
			"acousticness":     features.Acousticness,
			"danceability":     features.Danceability,
			"instrumentalness": features.Instrumentalness,
			"liveness":         features.Liveness,
			"speechiness":      features.Speechiness,
			"tempo":            features.Tempo,
			"loudness":         features.Loudness,
			"source":           features.Source,
			"confidence":       features.Confidence,
			"fetched_at":       features.FetchedAt,
		})
		if err != nil {
			return nil, err
		}
		_, err = res.Consume(ctx)
		return nil, err
	})
	if err != nil {
		return fmt.Errorf("set song features: %w", err)
	}
	return nil
}

func (s *neo4jStore) GetAlbumAverages(ctx context.Context) ([]AlbumAverage, error) {
	result, err := s.graph.Read(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, `
			MATCH (song:Song)
			WHERE song.energy IS NOT NULL AND song.feature_source = $source
			RETURN song.album AS album,
			       count(song) AS sample_size,
			       avg(song.energy) AS energy,
			       avg(song.valence) AS valence,
			       avg(song.acousticness) AS acousticness,
			       avg(song.danceability) AS danceability,
			       avg(song.instrumentalness) AS instrumentalness,
			       avg(song.liveness) AS liveness,
			       avg(song.speechiness) AS speechiness,
			       avg(song.tempo) AS tempo,
			       avg(song.loudness) AS loudness
		`, map[string]any{"source": SourceCatalog})
		if err != nil {
			return nil, err
		}

		var averages []AlbumAverage
		for res.Next(ctx) {
			record := res.Record()
			avg := AlbumAverage{
				Album:      graphstore.StringValue(record, "album"),
				SampleSize: graphstore.IntValue(record, "sample_size"),
			}
			avg.Features.Energy, _ = graphstore.FloatValue(record, "energy")
			avg.Features.Valence, _ = graphstore.FloatValue(record, "valence")
			avg.Features.Acousticness, _ = graphstore.FloatValue(record, "acousticness")
			avg.Features.Danceability, _ = graphstore.FloatValue(record, "danceability")
			avg.Features.Instrumentalness, _ = graphstore.FloatValue(record, "instrumentalness")
			avg.Features.Liveness, _ = graphstore.FloatValue(record, "liveness")
			avg.Features.Speechiness, _ = graphstore.FloatValue(record, "speechiness")
			avg.Features.Tempo, _ = graphstore.FloatValue(record, "tempo")
			avg.Features.Loudness, _ = graphstore.FloatValue(record, "loudness")
			averages = append(averages, avg)
		}
		return averages, res.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("get album averages: %w", err)
	}
	return result.([]AlbumAverage), nil
}
