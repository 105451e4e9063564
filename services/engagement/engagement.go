// Package engagement collects per-artist community metrics from the
// discussion forum and writes them onto Artist nodes.
package engagement

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"versegraph/lib/scrapers/reddit"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("services/engagement")

// searchLimit caps how many posts are pulled per artist search.
const searchLimit = 50

type Artist struct {
	ArtistId string
	Name     string
}

// Metrics is one artist's community snapshot.
type Metrics struct {
	ArtistId      string
	SubredditName string
	Subscribers   int64
	ActiveUsers   int64
	PostCount     int
	MeanPostScore float64
	MeanComments  float64
	CollectedAt   time.Time
}

type Store interface {
	GetArtists(ctx context.Context) ([]Artist, error)
	SetArtistMetrics(ctx context.Context, metrics Metrics) error
}

type ForumAPI interface {
	GetSubreddit(ctx context.Context, name string) (*reddit.Subreddit, error)
	SearchPosts(ctx context.Context, query string, limit int) ([]reddit.Post, error)
}

type Service struct {
	store Store
	api   ForumAPI
	now   func() time.Time
}

func NewService(store Store, api ForumAPI) Service {
	return Service{store: store, api: api, now: time.Now}
}

type Report struct {
	Collected int
	// NoSubreddit counts artists without a dedicated subreddit; their
	// post-search metrics are still collected.
	NoSubreddit int
	Failed      int
}

// CollectArtistEngagement snapshots community metrics for every artist.
// Failures are per-artist and never abort the run.
func (s Service) CollectArtistEngagement(ctx context.Context) (Report, error) {
	ctx, span := tracer.Start(ctx, "CollectArtistEngagement")
	defer span.End()

	artists, err := s.store.GetArtists(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Report{}, err
	}

	var report Report
	for _, artist := range artists {
		metrics, noSubreddit, err := s.collectOne(ctx, artist)
		if err != nil {
			slog.Warn("failed to collect engagement",
				"artist", artist.Name, "err", err)
			report.Failed++
			continue
		}
		if err := s.store.SetArtistMetrics(ctx, metrics); err != nil {
			slog.Warn("failed to write engagement",
				"artist", artist.Name, "err", err)
			report.Failed++
			continue
		}
		if noSubreddit {
			report.NoSubreddit++
		}
		report.Collected++
	}

	span.SetAttributes(
		attribute.Int("collected", report.Collected),
		attribute.Int("no_subreddit", report.NoSubreddit),
		attribute.Int("failed", report.Failed),
	)
	return report, nil
}

func (s Service) collectOne(ctx context.Context, artist Artist) (Metrics, bool, error) {
	metrics := Metrics{
		ArtistId:    artist.ArtistId,
		CollectedAt: s.now().UTC(),
	}

	noSubreddit := false
	sub, err := s.api.GetSubreddit(ctx, subredditName(artist.Name))
	switch {
	case errors.Is(err, reddit.ErrNotFound):
		noSubreddit = true
	case err != nil:
		return Metrics{}, false, err
	default:
		metrics.SubredditName = sub.Name
		metrics.Subscribers = sub.Subscribers
		metrics.ActiveUsers = sub.ActiveUsers
	}

	posts, err := s.api.SearchPosts(ctx, artist.Name, searchLimit)
	if err != nil {
		return Metrics{}, false, err
	}
	metrics.PostCount = len(posts)
	if len(posts) > 0 {
		var scoreSum, commentSum int64
		for _, post := range posts {
			scoreSum += post.Score
			commentSum += post.NumComments
		}
		metrics.MeanPostScore = float64(scoreSum) / float64(len(posts))
		metrics.MeanComments = float64(commentSum) / float64(len(posts))
	}

	return metrics, noSubreddit, nil
}

// subredditName guesses the artist's subreddit by stripping spaces from
// the name, the dominant convention for artist communities.
func subredditName(artistName string) string {
	return strings.ReplaceAll(strings.TrimSpace(artistName), " ", "")
}
