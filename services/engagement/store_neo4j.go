package engagement

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

func (s *neo4jStore) GetArtists(ctx context.Context) ([]Artist, error) {
	result, err := s.graph.Read(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, `
			MATCH (artist:Artist)
			RETURN elementId(artist) AS artist_id,
			       artist.name AS name
			ORDER BY name
		`, nil)
		if err != nil {
			return nil, err
		}

		var artists []Artist
		for res.Next(ctx) {
			record := res.Record()
			artists = append(artists, Artist{
				ArtistId: graphstore.StringValue(record, "artist_id"),
				Name:     graphstore.StringValue(record, "name"),
			})
		}
		return artists, res.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("get artists: %w", err)
	}
	return result.([]Artist), nil
}

func (s *neo4jStore) SetArtistMetrics(ctx context.Context, metrics Metrics) error {
	_, err := s.graph.Write(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, `
			MATCH (artist:Artist) WHERE elementId(artist) = $artist_id
			SET artist.subreddit = $subreddit,
			    artist.subreddit_subscribers = $subscribers,
			    artist.subreddit_active_users = $active_users,
			    artist.post_count = $post_count,
			    artist.mean_post_score = $mean_post_score,
			    artist.mean_post_comments = $mean_comments,
			    artist.engagement_collected_at = $collected_at
		`, map[string]any{
			"artist_id":       metrics.ArtistId,
			"subreddit":       metrics.SubredditName,
			"subscribers":     metrics.Subscribers,
			"active_users":    metrics.ActiveUsers,
			"post_count":      metrics.PostCount,
			"mean_post_score": metrics.MeanPostScore,
			"mean_comments":   metrics.MeanComments,
			"collected_at":    metrics.CollectedAt,
		})
		if err != nil {
			return nil, err
		}
		_, err = res.Consume(ctx)
		return nil, err
	})
	if err != nil {
		return fmt.Errorf("set artist metrics: %w", err)
	}
	return nil
}
