package taxonomy

import (
	"fmt"
	"math"
)

// Blend is one two-term linear weighting. Primary and Secondary must sum
// to 1.0; which inputs they apply to is fixed per score (see Compute).
type Blend struct {
	Primary   float64 `json:"primary"`
	Secondary float64 `json:"secondary"`
}

func (b Blend) sum() float64 { return b.Primary + b.Secondary }

// Weights is the immutable configuration for the taxonomy scorer. It is
// validated once at construction instead of living as package-level
// constants, so a bad weight set fails the run before any song is scored.
type Weights struct {
	EnergyLevel         Blend `json:"energy_level"`
	EmotionalValence    Blend `json:"emotional_valence"`
	MusicalComplexity   Blend `json:"musical_complexity"`
	LyricalIntelligence Blend `json:"lyrical_intelligence"`
	SingalongPotential  Blend `json:"singalong_potential"`
	// UniqueWordDivisor normalizes unique_word_count in the
	// lyrical_intelligence score. Songs with more unique words than the
	// divisor push the score above 1; that is expected, scores are not
	// clamped.
	UniqueWordDivisor float64 `json:"unique_word_divisor"`
}

func DefaultWeights() Weights {
	return Weights{
		EnergyLevel:         Blend{Primary: 0.6, Secondary: 0.4},
		EmotionalValence:    Blend{Primary: 0.7, Secondary: 0.3},
		MusicalComplexity:   Blend{Primary: 0.5, Secondary: 0.5},
		LyricalIntelligence: Blend{Primary: 0.6, Secondary: 0.4},
		SingalongPotential:  Blend{Primary: 0.5, Secondary: 0.5},
		UniqueWordDivisor:   100.0,
	}
}

func (w Weights) Validate() error {
	for _, blend := range []struct {
		name string
		b    Blend
	}{
		{"energy_level", w.EnergyLevel},
		{"emotional_valence", w.EmotionalValence},
		{"musical_complexity", w.MusicalComplexity},
		{"lyrical_intelligence", w.LyricalIntelligence},
		{"singalong_potential", w.SingalongPotential},
	} {
		if math.Abs(blend.b.sum()-1.0) > 1e-9 {
			return fmt.Errorf(
				"weights for %s sum to %g, want 1.0",
				blend.name, blend.b.sum(),
			)
		}
		if blend.b.Primary < 0 || blend.b.Secondary < 0 {
			return fmt.Errorf("weights for %s must be non-negative", blend.name)
		}
	}
	if w.UniqueWordDivisor <= 0 {
		return fmt.Errorf("unique_word_divisor must be positive, got %g", w.UniqueWordDivisor)
	}
	return nil
}
