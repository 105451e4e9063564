// Package enrichment fills in per-song audio features from the streaming
// metadata API, with an explicit album-average estimation path for songs
// the catalog cannot match.
package enrichment

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"versegraph/lib/scrapers/spotify"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("services/enrichment")

// Feature provenance markers. Estimated values are never written as
// ground truth; downstream consumers can filter on the source.
const (
	SourceCatalog       = "spotify"
	SourceAlbumEstimate = "album_estimate"
)

// minAlbumSamples is the minimum number of ground-truth songs an album
// needs before its average is considered usable as an estimate.
const minAlbumSamples = 2

type Song struct {
	SongId string
	Title  string
	Album  string
}

// FeatureSet is what gets written back to a song: the audio features plus
// provenance and confidence.
type FeatureSet struct {
	spotify.AudioFeatures
	Source     string
	Confidence float64
	FetchedAt  time.Time
}

type AlbumAverage struct {
	Album      string
	Features   spotify.AudioFeatures
	SampleSize int64
}

type Store interface {
	GetSongsMissingFeatures(ctx context.Context) ([]Song, error)
	SetSongFeatures(ctx context.Context, songId string, features FeatureSet) error
	// GetAlbumAverages averages features per album over ground-truth
	// songs only, never over previous estimates.
	GetAlbumAverages(ctx context.Context) ([]AlbumAverage, error)
}

type MetadataAPI interface {
	SearchTracks(ctx context.Context, title, album string) ([]spotify.Track, error)
	GetAudioFeatures(ctx context.Context, trackId string) (*spotify.AudioFeatures, error)
}

type FeatureCache interface {
	Get(ctx context.Context, title, album string) (*spotify.AudioFeatures, bool, error)
	Put(ctx context.Context, title, album string, features *spotify.AudioFeatures) error
}

type Service struct {
	store Store
	api   MetadataAPI
	// cache may be nil, in which case every song hits the API
	cache FeatureCache
	now   func() time.Time
}

func NewService(store Store, api MetadataAPI, cache FeatureCache) Service {
	return Service{store: store, api: api, cache: cache, now: time.Now}
}

type EnrichReport struct {
	Enriched  int
	FromCache int
	// SkippedNoMatch counts songs the catalog could not match above the
	// similarity threshold. They keep their fields unset; values are
	// never fabricated for them.
	SkippedNoMatch int
	Failed         int
}

// EnrichSongs fetches audio features for every song that does not have
// them yet. Failures are per-song: one bad lookup logs, counts and moves
// on, it never aborts the batch.
func (s Service) EnrichSongs(ctx context.Context) (EnrichReport, error) {
	ctx, span := tracer.Start(ctx, "EnrichSongs")
	defer span.End()

	songs, err := s.store.GetSongsMissingFeatures(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return EnrichReport{}, err
	}

	var report EnrichReport
	for _, song := range songs {
		cached, err := s.enrichOne(ctx, song)
		switch {
		case errors.Is(err, spotify.ErrNotFound):
			slog.Info("no catalog match for song",
				"title", song.Title, "album", song.Album)
			report.SkippedNoMatch++
		case err != nil:
			slog.Warn("failed to enrich song",
				"title", song.Title, "album", song.Album, "err", err)
			report.Failed++
		case cached:
			report.FromCache++
			report.Enriched++
		default:
			report.Enriched++
		}
	}

	span.SetAttributes(
		attribute.Int("enriched", report.Enriched),
		attribute.Int("from_cache", report.FromCache),
		attribute.Int("skipped_no_match", report.SkippedNoMatch),
		attribute.Int("failed", report.Failed),
	)
	return report, nil
}

func (s Service) enrichOne(ctx context.Context, song Song) (fromCache bool, err error) {
	if s.cache != nil {
		features, ok, err := s.cache.Get(ctx, song.Title, song.Album)
		if err != nil {
			slog.Warn("feature cache read failed", "err", err)
		} else if ok {
			return true, s.store.SetSongFeatures(ctx, song.SongId, FeatureSet{
				AudioFeatures: *features,
				Source:        SourceCatalog,
				Confidence:    1,
				FetchedAt:     s.now().UTC(),
			})
		}
	}

	candidates, err := s.api.SearchTracks(ctx, song.Title, song.Album)
	if err != nil {
		return false, err
	}
	track, similarity, ok := bestMatch(song.Title, song.Album, candidates)
	if !ok {
		return false, spotify.ErrNotFound
	}

	features, err := s.api.GetAudioFeatures(ctx, track.Id)
	if err != nil {
		return false, err
	}

	if s.cache != nil {
		if err := s.cache.Put(ctx, song.Title, song.Album, features); err != nil {
			slog.Warn("feature cache write failed", "err", err)
		}
	}

	return false, s.store.SetSongFeatures(ctx, song.SongId, FeatureSet{
		AudioFeatures: *features,
		Source:        SourceCatalog,
		Confidence:    similarity,
		FetchedAt:     s.now().UTC(),
	})
}

type EstimateReport struct {
	Estimated int
	// SkippedNoAverage counts songs whose album has too few ground-truth
	// songs to average. They stay unenriched.
	SkippedNoAverage int
	Failed           int
}

// EstimateFromAlbums assigns album-average features to songs the catalog
// pass could not match. Estimates carry an explicit provenance marker and
// reduced confidence; they are never merged as ground truth.
func (s Service) EstimateFromAlbums(ctx context.Context) (EstimateReport, error) {
	ctx, span := tracer.Start(ctx, "EstimateFromAlbums")
	defer span.End()

	songs, err := s.store.GetSongsMissingFeatures(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return EstimateReport{}, err
	}
	averages, err := s.store.GetAlbumAverages(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return EstimateReport{}, err
	}

	byAlbum := make(map[string]AlbumAverage, len(averages))
	for _, avg := range averages {
		byAlbum[avg.Album] = avg
	}

	var report EstimateReport
	for _, song := range songs {
		avg, ok := byAlbum[song.Album]
		if !ok || avg.SampleSize < minAlbumSamples {
			report.SkippedNoAverage++
			continue
		}
		err := s.store.SetSongFeatures(ctx, song.SongId, FeatureSet{
			AudioFeatures: avg.Features,
			Source:        SourceAlbumEstimate,
			Confidence:    0.5,
			FetchedAt:     s.now().UTC(),
		})
		if err != nil {
			slog.Warn("failed to write estimated features",
				"title", song.Title, "album", song.Album, "err", err)
			report.Failed++
			continue
		}
		report.Estimated++
	}

	span.SetAttributes(
		attribute.Int("estimated", report.Estimated),
		attribute.Int("skipped_no_average", report.SkippedNoAverage),
	)
	return report, nil
}
