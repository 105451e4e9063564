// Package pipeline runs the migration stages in an explicit order. Every
// stage declares which graph fields it reads and which it writes, and the
// driver refuses to run a stage whose inputs are not present yet, instead
// of letting it silently process an empty result set.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("services/pipeline")

// Field names a derived graph property family that stages pass between
// each other.
type Field string

const (
	FieldDictionary    Field = "dictionary"
	FieldWordSequence  Field = "word_sequence"
	FieldSongStats     Field = "song_stats"
	FieldAudioFeatures Field = "audio_features"
	FieldTaxonomy      Field = "taxonomy"
)

type Stage struct {
	Name     string
	Requires []Field
	Produces []Field
	// Run does the work and returns a short human-readable summary.
	Run func(ctx context.Context) (string, error)
}

// StatusStore answers how much of the graph already carries a field.
type StatusStore interface {
	FieldCoverage(ctx context.Context, field Field) (have, total int64, err error)
}

type Driver struct {
	store  StatusStore
	stages []Stage
}

// NewDriver validates the stage list up front: every field a stage
// requires must be produced by an earlier stage, so a misordered list
// fails at construction rather than mid-run.
func NewDriver(store StatusStore, stages []Stage) (Driver, error) {
	produced := map[Field]bool{}
	for _, stage := range stages {
		for _, field := range stage.Requires {
			if !produced[field] {
				return Driver{}, fmt.Errorf(
					"stage %q requires %q, which no earlier stage produces",
					stage.Name, field)
			}
		}
		for _, field := range stage.Produces {
			produced[field] = true
		}
	}
	return Driver{store: store, stages: stages}, nil
}

type StageResult struct {
	Stage    string
	Summary  string
	Duration time.Duration
}

// Run executes the stages sequentially. Before each stage it re-checks
// the required fields against the live graph, so a pipeline resumed after
// a partial failure stops at the first stage whose inputs are missing.
// The first stage error aborts the run; results cover completed stages.
func (d Driver) Run(ctx context.Context) ([]StageResult, error) {
	ctx, span := tracer.Start(ctx, "Run")
	defer span.End()

	var results []StageResult
	for _, stage := range d.stages {
		if err := d.checkPrerequisites(ctx, stage); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return results, err
		}

		slog.Info("running stage", "stage", stage.Name)
		started := time.Now()
		summary, err := d.runStage(ctx, stage)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return results, fmt.Errorf("stage %q: %w", stage.Name, err)
		}
		duration := time.Since(started)

		slog.Info("stage complete",
			"stage", stage.Name, "summary", summary, "duration", duration)
		results = append(results, StageResult{
			Stage:    stage.Name,
			Summary:  summary,
			Duration: duration,
		})

		d.warnEmptyOutputs(ctx, stage)
	}

	span.SetAttributes(attribute.Int("stages", len(results)))
	return results, nil
}

func (d Driver) checkPrerequisites(ctx context.Context, stage Stage) error {
	for _, field := range stage.Requires {
		have, total, err := d.store.FieldCoverage(ctx, field)
		if err != nil {
			return fmt.Errorf("stage %q: check %q coverage: %w", stage.Name, field, err)
		}
		if have == 0 {
			return fmt.Errorf(
				"stage %q requires %q, but no node carries it yet (0/%d)",
				stage.Name, field, total)
		}
	}
	return nil
}

func (d Driver) runStage(ctx context.Context, stage Stage) (string, error) {
	ctx, span := tracer.Start(ctx, stage.Name)
	defer span.End()

	summary, err := stage.Run(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}
	return summary, nil
}

// warnEmptyOutputs flags a stage that succeeded but wrote nothing, which
// usually means a query matched zero nodes.
func (d Driver) warnEmptyOutputs(ctx context.Context, stage Stage) {
	for _, field := range stage.Produces {
		have, _, err := d.store.FieldCoverage(ctx, field)
		if err != nil {
			slog.Warn("could not verify stage output",
				"stage", stage.Name, "field", field, "err", err)
			continue
		}
		if have == 0 {
			slog.Warn("stage produced no values",
				"stage", stage.Name, "field", field)
		}
	}
}
