// Package validation computes read-only coverage ratios over the graph
// after a pipeline run and renders them for humans and for flat export.
// It never writes to the graph.
package validation

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("services/validation")

// Coverage is one named have/total ratio, e.g. songs with taxonomy scores
// over all songs.
type Coverage struct {
	Name  string `json:"name"`
	Have  int64  `json:"have"`
	Total int64  `json:"total"`
}

// Ratio guards the empty-database case: zero total reports 0, not NaN.
func (c Coverage) Ratio() float64 {
	if c.Total == 0 {
		return 0
	}
	return float64(c.Have) / float64(c.Total)
}

func (c Coverage) Complete() bool {
	return c.Total > 0 && c.Have == c.Total
}

type Report struct {
	Coverages      []Coverage `json:"coverages"`
	DictionarySize int64      `json:"dictionary_size"`
	GeneratedAt    time.Time  `json:"generated_at"`
}

type Store interface {
	GetCoverages(ctx context.Context) ([]Coverage, error)
	GetDictionarySize(ctx context.Context) (int64, error)
}

type Service struct {
	store Store
	now   func() time.Time
}

func NewService(store Store) Service {
	return Service{store: store, now: time.Now}
}

func (s Service) Collect(ctx context.Context) (Report, error) {
	ctx, span := tracer.Start(ctx, "Collect")
	defer span.End()

	coverages, err := s.store.GetCoverages(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Report{}, err
	}
	size, err := s.store.GetDictionarySize(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Report{}, err
	}

	return Report{
		Coverages:      coverages,
		DictionarySize: size,
		GeneratedAt:    s.now().UTC(),
	}, nil
}

// Render writes a human-readable coverage table.
func (r Report) Render(out io.Writer) {
	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.AppendHeader(table.Row{"Check", "Have", "Total", "Coverage", "Complete"})
	for _, coverage := range r.Coverages {
		t.AppendRow(table.Row{
			coverage.Name,
			coverage.Have,
			coverage.Total,
			fmt.Sprintf("%.1f%%", coverage.Ratio()*100),
			coverage.Complete(),
		})
	}
	t.AppendFooter(table.Row{"dictionary size", r.DictionarySize, "", "", ""})
	t.SetStyle(table.StyleLight)
	t.Render()
}

// WriteJSON exports the report as a flat JSON artifact.
func (r Report) WriteJSON(out io.Writer) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("write validation json: %w", err)
	}
	return nil
}

// WriteCSV exports one row per coverage check.
func (r Report) WriteCSV(out io.Writer) error {
	w := csv.NewWriter(out)
	if err := w.Write([]string{"name", "have", "total", "ratio"}); err != nil {
		return fmt.Errorf("write validation csv: %w", err)
	}
	for _, coverage := range r.Coverages {
		row := []string{
			coverage.Name,
			strconv.FormatInt(coverage.Have, 10),
			strconv.FormatInt(coverage.Total, 10),
			strconv.FormatFloat(coverage.Ratio(), 'f', 4, 64),
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("write validation csv: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("write validation csv: %w", err)
	}
	return nil
}
