package taxonomy

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	songs  []SongFeatures
	scores []Scores
}

func (f *fakeStore) GetSongFeatures(ctx context.Context) ([]SongFeatures, error) {
	return f.songs, nil
}

func (f *fakeStore) SetScores(ctx context.Context, scores []Scores) (int, error) {
	f.scores = scores
	return len(scores), nil
}

func ptr[T any](v T) *T { return &v }

func fullFeatures(id string) SongFeatures {
	return SongFeatures{
		SongId:               id,
		Energy:               ptr(0.8),
		Valence:              ptr(0.45),
		Acousticness:         ptr(0.12),
		UniqueWordCount:      ptr(int64(120)),
		VocabularyComplexity: ptr(0.4),
	}
}

func TestWeightsValidate(t *testing.T) {
	require.NoError(t, DefaultWeights().Validate())

	bad := DefaultWeights()
	bad.EnergyLevel = Blend{Primary: 0.6, Secondary: 0.5}
	require.ErrorContains(t, bad.Validate(), "energy_level")

	bad = DefaultWeights()
	bad.UniqueWordDivisor = 0
	require.ErrorContains(t, bad.Validate(), "unique_word_divisor")

	_, err := NewService(&fakeStore{}, bad)
	require.Error(t, err)
}

func TestCompute(t *testing.T) {
	weights := DefaultWeights()
	scores := Compute(weights, fullFeatures("s1"))

	// energy_level = 0.6*0.8 + 0.4*0.4
	require.InDelta(t, 0.64, scores.EnergyLevel, 1e-9)
	// emotional_valence = 0.7*0.45 + 0.3*(1-0.4)
	require.InDelta(t, 0.495, scores.EmotionalValence, 1e-9)
	// musical_complexity = 0.5*(1-0.12) + 0.5*0.4
	require.InDelta(t, 0.64, scores.MusicalComplexity, 1e-9)
	// lyrical_intelligence = 0.6*0.4 + 0.4*(120/100) — unbounded above
	require.InDelta(t, 0.72, scores.LyricalIntelligence, 1e-9)
	// singalong_potential = 0.5*(1-0.4) + 0.5*0.45
	require.InDelta(t, 0.525, scores.SingalongPotential, 1e-9)
}

func TestScoreSongsSkipsMissingInputs(t *testing.T) {
	missingEnergy := fullFeatures("s2")
	missingEnergy.Energy = nil
	missingComplexity := fullFeatures("s3")
	missingComplexity.VocabularyComplexity = nil
	zeroComplexity := fullFeatures("s4")
	zeroComplexity.VocabularyComplexity = ptr(0.0)

	store := &fakeStore{
		songs: []SongFeatures{
			fullFeatures("s1"),
			missingEnergy,
			missingComplexity,
			zeroComplexity,
		},
	}
	svc, err := NewService(store, DefaultWeights())
	require.NoError(t, err)

	report, err := svc.ScoreSongs(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, report.Scored)
	require.Equal(t, 3, report.SkippedMissingInput)

	require.Len(t, store.scores, 1)
	require.Equal(t, "s1", store.scores[0].SongId)
	require.False(t, store.scores[0].ScoredAt.IsZero())
}

func TestScoreSongsExactCoverage(t *testing.T) {
	// 100 songs, 95 with complete inputs: exactly 95 scored, never more
	var songs []SongFeatures
	for i := 0; i < 95; i++ {
		songs = append(songs, fullFeatures(string(rune('a'+i%26))+"-complete"))
	}
	for i := 0; i < 5; i++ {
		song := fullFeatures("incomplete")
		song.Valence = nil
		songs = append(songs, song)
	}
	store := &fakeStore{songs: songs}
	svc, err := NewService(store, DefaultWeights())
	require.NoError(t, err)

	report, err := svc.ScoreSongs(context.Background())
	require.NoError(t, err)
	require.Equal(t, 95, report.Scored)
	require.Equal(t, 5, report.SkippedMissingInput)
}

func TestScoreSongsStampsTime(t *testing.T) {
	store := &fakeStore{songs: []SongFeatures{fullFeatures("s1")}}
	svc, err := NewService(store, DefaultWeights())
	require.NoError(t, err)
	fixed := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return fixed }

	_, err = svc.ScoreSongs(context.Background())
	require.NoError(t, err)
	require.Equal(t, fixed, store.scores[0].ScoredAt)
}
