package engagement

import (
	"context"
	"errors"
	"testing"
	"time"

	"versegraph/lib/scrapers/reddit"

	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	artists []Artist
	written map[string]Metrics
}

func (f *fakeStore) GetArtists(ctx context.Context) ([]Artist, error) {
	return f.artists, nil
}

func (f *fakeStore) SetArtistMetrics(ctx context.Context, metrics Metrics) error {
	if f.written == nil {
		f.written = map[string]Metrics{}
	}
	f.written[metrics.ArtistId] = metrics
	return nil
}

type fakeForum struct {
	subreddits map[string]*reddit.Subreddit
	posts      map[string][]reddit.Post
	searchErr  error
}

func (f *fakeForum) GetSubreddit(ctx context.Context, name string) (*reddit.Subreddit, error) {
	sub, ok := f.subreddits[name]
	if !ok {
		return nil, reddit.ErrNotFound
	}
	return sub, nil
}

func (f *fakeForum) SearchPosts(ctx context.Context, query string, limit int) ([]reddit.Post, error) {
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	return f.posts[query], nil
}

func TestCollectArtistEngagement(t *testing.T) {
	store := &fakeStore{artists: []Artist{{ArtistId: "a1", Name: "The Night Owls"}}}
	forum := &fakeForum{
		subreddits: map[string]*reddit.Subreddit{
			"TheNightOwls": {Name: "TheNightOwls", Subscribers: 12000, ActiveUsers: 340},
		},
		posts: map[string][]reddit.Post{
			"The Night Owls": {
				{Id: "p1", Score: 100, NumComments: 20},
				{Id: "p2", Score: 50, NumComments: 10},
			},
		},
	}
	svc := NewService(store, forum)
	fixed := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return fixed }

	report, err := svc.CollectArtistEngagement(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, report.Collected)
	require.Zero(t, report.NoSubreddit)
	require.Zero(t, report.Failed)

	metrics := store.written["a1"]
	require.Equal(t, "TheNightOwls", metrics.SubredditName)
	require.Equal(t, int64(12000), metrics.Subscribers)
	require.Equal(t, 2, metrics.PostCount)
	require.Equal(t, 75.0, metrics.MeanPostScore)
	require.Equal(t, 15.0, metrics.MeanComments)
	require.Equal(t, fixed, metrics.CollectedAt)
}

func TestCollectWithoutSubreddit(t *testing.T) {
	store := &fakeStore{artists: []Artist{{ArtistId: "a1", Name: "Obscure Act"}}}
	forum := &fakeForum{
		posts: map[string][]reddit.Post{
			"Obscure Act": {{Id: "p1", Score: 4, NumComments: 1}},
		},
	}
	svc := NewService(store, forum)

	report, err := svc.CollectArtistEngagement(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, report.Collected)
	require.Equal(t, 1, report.NoSubreddit)

	// post metrics still collected, subreddit fields stay zero
	metrics := store.written["a1"]
	require.Empty(t, metrics.SubredditName)
	require.Zero(t, metrics.Subscribers)
	require.Equal(t, 1, metrics.PostCount)
}

func TestCollectCountsFailures(t *testing.T) {
	store := &fakeStore{artists: []Artist{
		{ArtistId: "a1", Name: "Works"},
		{ArtistId: "a2", Name: "Breaks"},
	}}
	forum := &fakeForum{searchErr: errors.New("rate limited")}
	svc := NewService(store, forum)

	report, err := svc.CollectArtistEngagement(context.Background())
	require.NoError(t, err)
	require.Zero(t, report.Collected)
	require.Equal(t, 2, report.Failed)
	require.Empty(t, store.written)
}

func TestSubredditName(t *testing.T) {
	require.Equal(t, "TheNightOwls", subredditName("The Night Owls"))
	require.Equal(t, "Solo", subredditName("  Solo "))
}
