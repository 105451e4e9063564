// Package taxonomy derives weighted descriptor scores per song from audio
// features and vocabulary statistics.
package taxonomy

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("services/taxonomy")

// SongFeatures is a song's scoring input. Pointer fields distinguish
// absent properties from legitimate zeroes; a song missing any required
// input is skipped, never scored with defaults.
type SongFeatures struct {
	SongId               string
	Title                string
	Energy               *float64
	Valence              *float64
	Acousticness         *float64
	UniqueWordCount      *int64
	VocabularyComplexity *float64
}

func (f SongFeatures) scoreable() bool {
	return f.Energy != nil &&
		f.Valence != nil &&
		f.Acousticness != nil &&
		f.UniqueWordCount != nil &&
		f.VocabularyComplexity != nil &&
		*f.VocabularyComplexity > 0
}

// Scores holds the five derived taxonomy values. None are clamped to
// [0, 1]; lyrical intelligence in particular is unbounded above for
// songs with a large unique vocabulary.
type Scores struct {
	SongId              string
	EnergyLevel         float64
	EmotionalValence    float64
	MusicalComplexity   float64
	LyricalIntelligence float64
	SingalongPotential  float64
	ScoredAt            time.Time
}

type Store interface {
	// GetSongFeatures returns every song with its scoring inputs, absent
	// properties reported as nil.
	GetSongFeatures(ctx context.Context) ([]SongFeatures, error)
	SetScores(ctx context.Context, scores []Scores) (int, error)
}

type Service struct {
	store   Store
	weights Weights
	now     func() time.Time
}

// NewService validates the weight set once up front; an invalid
// configuration never reaches the data.
func NewService(store Store, weights Weights) (Service, error) {
	if err := weights.Validate(); err != nil {
		return Service{}, err
	}
	return Service{store: store, weights: weights, now: time.Now}, nil
}

// Compute applies the weighted blends to one song's inputs. The caller
// must have checked the preconditions; Compute itself is total.
func Compute(w Weights, f SongFeatures) Scores {
	complexity := *f.VocabularyComplexity
	return Scores{
		SongId: f.SongId,
		EnergyLevel: w.EnergyLevel.Primary*(*f.Energy) +
			w.EnergyLevel.Secondary*complexity,
		EmotionalValence: w.EmotionalValence.Primary*(*f.Valence) +
			w.EmotionalValence.Secondary*(1-complexity),
		MusicalComplexity: w.MusicalComplexity.Primary*(1-*f.Acousticness) +
			w.MusicalComplexity.Secondary*complexity,
		LyricalIntelligence: w.LyricalIntelligence.Primary*complexity +
			w.LyricalIntelligence.Secondary*(float64(*f.UniqueWordCount)/w.UniqueWordDivisor),
		SingalongPotential: w.SingalongPotential.Primary*(1-complexity) +
			w.SingalongPotential.Secondary*(*f.Valence),
	}
}

type Report struct {
	Scored int
	// SkippedMissingInput counts songs lacking audio features or
	// vocabulary complexity. They are excluded from the pass entirely.
	SkippedMissingInput int
}

// ScoreSongs computes and writes taxonomy scores for every song whose
// inputs are complete. Re-running overwrites previous scores.
func (s Service) ScoreSongs(ctx context.Context) (Report, error) {
	ctx, span := tracer.Start(ctx, "ScoreSongs")
	defer span.End()

	songs, err := s.store.GetSongFeatures(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Report{}, err
	}

	now := s.now().UTC()
	var report Report
	scores := make([]Scores, 0, len(songs))
	for _, song := range songs {
		if !song.scoreable() {
			report.SkippedMissingInput++
			continue
		}
		score := Compute(s.weights, song)
		score.ScoredAt = now
		scores = append(scores, score)
	}

	n, err := s.store.SetScores(ctx, scores)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Report{}, err
	}
	report.Scored = n

	span.SetAttributes(
		attribute.Int("scored", report.Scored),
		attribute.Int("skipped", report.SkippedMissingInput),
	)
	return report, nil
}
