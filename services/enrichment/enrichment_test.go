package enrichment

import (
	"context"
	"errors"
	"testing"
	"time"

	"versegraph/lib/scrapers/spotify"
	"versegraph/services/enrichment/cache"

	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	missing  []Song
	written  map[string]FeatureSet
	averages []AlbumAverage
	writeErr error
}

func newFakeStore(missing ...Song) *fakeStore {
	return &fakeStore{missing: missing, written: map[string]FeatureSet{}}
}

func (f *fakeStore) GetSongsMissingFeatures(ctx context.Context) ([]Song, error) {
	return f.missing, nil
}

func (f *fakeStore) SetSongFeatures(ctx context.Context, songId string, features FeatureSet) error {
	if f.writeErr != nil {
		return f.writeErr
	}
	f.written[songId] = features
	return nil
}

func (f *fakeStore) GetAlbumAverages(ctx context.Context) ([]AlbumAverage, error) {
	return f.averages, nil
}

type fakeAPI struct {
	tracks      map[string][]spotify.Track
	features    map[string]*spotify.AudioFeatures
	searchCalls int
	searchErr   error
}

func (f *fakeAPI) SearchTracks(ctx context.Context, title, album string) ([]spotify.Track, error) {
	f.searchCalls++
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	return f.tracks[title], nil
}

func (f *fakeAPI) GetAudioFeatures(ctx context.Context, trackId string) (*spotify.AudioFeatures, error) {
	features, ok := f.features[trackId]
	if !ok {
		return nil, spotify.ErrNotFound
	}
	return features, nil
}

func TestBestMatch(t *testing.T) {
	candidates := []spotify.Track{
		{Id: "t1", Name: "Beyond the Horizon", Album: "Skyline"},
		{Id: "t2", Name: "Beyond the Horizon - Live", Album: "Skyline Live"},
	}

	track, similarity, ok := bestMatch("Beyond The Horizon", "SKYLINE", candidates)
	require.True(t, ok)
	require.Equal(t, "t1", track.Id)
	require.Equal(t, 1.0, similarity)

	// diacritics normalize away before comparison
	track, _, ok = bestMatch("Béyond the Horizon", "Skyline", candidates)
	require.True(t, ok)
	require.Equal(t, "t1", track.Id)

	_, similarity, ok = bestMatch("Completely Different", "Other", candidates)
	require.False(t, ok)
	require.Less(t, similarity, matchThreshold)

	_, _, ok = bestMatch("anything", "anything", nil)
	require.False(t, ok)
}

func TestEnrichSongs(t *testing.T) {
	store := newFakeStore(
		Song{SongId: "s1", Title: "Beyond the Horizon", Album: "Skyline"},
		Song{SongId: "s2", Title: "Unreleased Demo", Album: "Bootleg"},
	)
	api := &fakeAPI{
		tracks: map[string][]spotify.Track{
			"Beyond the Horizon": {{Id: "t1", Name: "Beyond the Horizon", Album: "Skyline"}},
		},
		features: map[string]*spotify.AudioFeatures{
			"t1": {Energy: 0.8, Valence: 0.45, Tempo: 118.2},
		},
	}
	svc := NewService(store, api, nil)

	report, err := svc.EnrichSongs(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, report.Enriched)
	require.Equal(t, 1, report.SkippedNoMatch)
	require.Equal(t, 0, report.Failed)

	written := store.written["s1"]
	require.Equal(t, 0.8, written.Energy)
	require.Equal(t, SourceCatalog, written.Source)
	require.Equal(t, 1.0, written.Confidence)
	require.False(t, written.FetchedAt.IsZero())

	// the unmatched song must stay untouched, not get fabricated values
	_, ok := store.written["s2"]
	require.False(t, ok)
}

func TestEnrichSongsReadsCache(t *testing.T) {
	featureCache, err := cache.Open(":memory:")
	require.NoError(t, err)
	defer featureCache.Close()

	cached := &spotify.AudioFeatures{Energy: 0.6, Tempo: 92}
	require.NoError(t, featureCache.Put(context.Background(), "Beyond the Horizon", "Skyline", cached))

	store := newFakeStore(Song{SongId: "s1", Title: "Beyond the Horizon", Album: "Skyline"})
	api := &fakeAPI{}
	svc := NewService(store, api, featureCache)

	report, err := svc.EnrichSongs(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, report.Enriched)
	require.Equal(t, 1, report.FromCache)
	require.Zero(t, api.searchCalls)
	require.Equal(t, 0.6, store.written["s1"].Energy)
}

func TestEnrichSongsWritesCache(t *testing.T) {
	featureCache, err := cache.Open(":memory:")
	require.NoError(t, err)
	defer featureCache.Close()

	store := newFakeStore(Song{SongId: "s1", Title: "Beyond the Horizon", Album: "Skyline"})
	api := &fakeAPI{
		tracks: map[string][]spotify.Track{
			"Beyond the Horizon": {{Id: "t1", Name: "Beyond the Horizon", Album: "Skyline"}},
		},
		features: map[string]*spotify.AudioFeatures{"t1": {Energy: 0.8}},
	}
	svc := NewService(store, api, featureCache)

	_, err = svc.EnrichSongs(context.Background())
	require.NoError(t, err)

	got, ok, err := featureCache.Get(context.Background(), "Beyond the Horizon", "Skyline")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 0.8, got.Energy)
}

func TestEnrichSongsCountsFailures(t *testing.T) {
	store := newFakeStore(Song{SongId: "s1", Title: "Anything", Album: "Anything"})
	api := &fakeAPI{searchErr: errors.New("rate limited")}
	svc := NewService(store, api, nil)

	report, err := svc.EnrichSongs(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, report.Failed)
	require.Zero(t, report.Enriched)
}

func TestEstimateFromAlbums(t *testing.T) {
	store := newFakeStore(
		Song{SongId: "s1", Title: "Deep Cut", Album: "Skyline"},
		Song{SongId: "s2", Title: "Lone Track", Album: "Single"},
	)
	store.averages = []AlbumAverage{
		{Album: "Skyline", SampleSize: 4, Features: spotify.AudioFeatures{Energy: 0.7, Tempo: 110}},
		{Album: "Single", SampleSize: 1, Features: spotify.AudioFeatures{Energy: 0.9}},
	}
	svc := NewService(store, &fakeAPI{}, nil)
	fixed := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return fixed }

	report, err := svc.EstimateFromAlbums(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, report.Estimated)
	require.Equal(t, 1, report.SkippedNoAverage)

	written := store.written["s1"]
	require.Equal(t, 0.7, written.Energy)
	require.Equal(t, SourceAlbumEstimate, written.Source)
	require.Equal(t, 0.5, written.Confidence)
	require.Equal(t, fixed, written.FetchedAt)

	// single-song albums are not a usable average
	_, ok := store.written["s2"]
	require.False(t, ok)
}
