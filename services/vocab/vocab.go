// Package vocab implements the lyric vocabulary pipeline: building the
// word dictionary, converting lyric lines to word-id sequences and
// aggregating per-song vocabulary statistics.
package vocab

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"versegraph/lib/textutil"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("services/vocab")

// Line is a lyric line as read from the graph, joined with its song's
// identity and album.
type Line struct {
	SongId     string
	Album      string
	LineNumber int64
	Text       string
}

// ConvertedLine carries the derived word sequence for one line.
type ConvertedLine struct {
	SongId          string
	LineNumber      int64
	WordSequence    []string
	WordCount       int
	UniqueWordCount int
	ConvertedAt     time.Time
}

// DictionaryEntry is one word in the dictionary. Frequency counts every
// occurrence across all songs; SongUsageCount and AlbumSpread count
// distinct songs and albums containing the word.
type DictionaryEntry struct {
	Id             string
	Text           string
	Frequency      int64
	SongUsageCount int64
	AlbumSpread    int64
}

// SongStats is the per-song vocabulary aggregate.
type SongStats struct {
	SongId               string
	TotalWordCount       int
	UniqueWordCount      int
	VocabularyComplexity float64
	AvgWordsPerLine      float64
	TotalLyricLines      int
	AggregatedAt         time.Time
}

type Store interface {
	// GetLines returns every lyric line ordered by song then line number.
	GetLines(ctx context.Context) ([]Line, error)
	UpsertDictionary(ctx context.Context, entries []DictionaryEntry) (int, error)
	SetLineSequences(ctx context.Context, lines []ConvertedLine) (int, error)
	// GetConvertedLines returns only lines whose word_sequence is set,
	// ordered by song then line number.
	GetConvertedLines(ctx context.Context) ([]ConvertedLine, error)
	SetSongStats(ctx context.Context, stats []SongStats) (int, error)
}

type Service struct {
	store Store
	now   func() time.Time
}

func NewService(store Store) Service {
	return Service{store: store, now: time.Now}
}

type DictionaryReport struct {
	DistinctWords int
	TotalTokens   int64
	Upserted      int
	// Collisions counts distinct token texts whose 8-hex-char identifier
	// collided with a different token's identifier. Collisions are
	// reported, not rejected; the colliding tokens share an entry slot
	// and the first one observed wins.
	Collisions int
}

// BuildDictionary scans every lyric line and upserts one dictionary entry
// per distinct normalized token. Safe to re-run: entries are merged by
// identifier and statistics are overwritten, never accumulated.
func (s Service) BuildDictionary(ctx context.Context) (DictionaryReport, error) {
	ctx, span := tracer.Start(ctx, "BuildDictionary")
	defer span.End()

	lines, err := s.store.GetLines(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return DictionaryReport{}, err
	}

	type wordAgg struct {
		text      string
		frequency int64
		songs     map[string]struct{}
		albums    map[string]struct{}
	}
	byText := make(map[string]*wordAgg)
	var totalTokens int64

	for _, line := range lines {
		for _, token := range textutil.Tokenize(line.Text) {
			totalTokens++
			agg, ok := byText[token]
			if !ok {
				agg = &wordAgg{
					text:   token,
					songs:  map[string]struct{}{},
					albums: map[string]struct{}{},
				}
				byText[token] = agg
			}
			agg.frequency++
			agg.songs[line.SongId] = struct{}{}
			if line.Album != "" {
				agg.albums[line.Album] = struct{}{}
			}
		}
	}

	// deterministic order so re-runs write identical batches
	texts := make([]string, 0, len(byText))
	for text := range byText {
		texts = append(texts, text)
	}
	sort.Strings(texts)

	collisions := 0
	byId := make(map[string]string, len(texts))
	entries := make([]DictionaryEntry, 0, len(texts))
	for _, text := range texts {
		agg := byText[text]
		id := textutil.WordID(text)
		if existing, ok := byId[id]; ok {
			collisions++
			slog.Warn("word identifier collision",
				"id", id, "kept", existing, "dropped", text)
			continue
		}
		byId[id] = text
		entries = append(entries, DictionaryEntry{
			Id:             id,
			Text:           text,
			Frequency:      agg.frequency,
			SongUsageCount: int64(len(agg.songs)),
			AlbumSpread:    int64(len(agg.albums)),
		})
	}

	upserted, err := s.store.UpsertDictionary(ctx, entries)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return DictionaryReport{}, err
	}

	span.SetAttributes(
		attribute.Int("distinct_words", len(entries)),
		attribute.Int("collisions", collisions),
	)
	return DictionaryReport{
		DistinctWords: len(entries),
		TotalTokens:   totalTokens,
		Upserted:      upserted,
		Collisions:    collisions,
	}, nil
}

type ConvertReport struct {
	Converted int
	// SkippedEmpty counts lines with null or whitespace-only text; they
	// contribute nothing downstream and keep their fields unset.
	SkippedEmpty int
}

// ConvertLines rewrites each non-empty lyric line as an ordered sequence
// of word identifiers. The identifier function is pure, so this does not
// depend on the dictionary existing first. Raw text is retained.
func (s Service) ConvertLines(ctx context.Context) (ConvertReport, error) {
	ctx, span := tracer.Start(ctx, "ConvertLines")
	defer span.End()

	lines, err := s.store.GetLines(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return ConvertReport{}, err
	}

	now := s.now().UTC()
	var report ConvertReport
	converted := make([]ConvertedLine, 0, len(lines))
	for _, line := range lines {
		tokens := textutil.Tokenize(line.Text)
		if len(tokens) == 0 {
			report.SkippedEmpty++
			continue
		}
		sequence := make([]string, len(tokens))
		for i, token := range tokens {
			sequence[i] = textutil.WordID(token)
		}
		converted = append(converted, ConvertedLine{
			SongId:          line.SongId,
			LineNumber:      line.LineNumber,
			WordSequence:    sequence,
			WordCount:       len(sequence),
			UniqueWordCount: textutil.UniqueCount(sequence),
			ConvertedAt:     now,
		})
	}

	n, err := s.store.SetLineSequences(ctx, converted)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return ConvertReport{}, err
	}
	report.Converted = n

	span.SetAttributes(
		attribute.Int("converted", report.Converted),
		attribute.Int("skipped_empty", report.SkippedEmpty),
	)
	return report, nil
}

type AggregateReport struct {
	Aggregated int
	// SkippedEmpty counts songs whose converted lines hold zero words in
	// total; vocabulary_complexity is undefined for them and their stats
	// stay unset.
	SkippedEmpty int
}

// AggregateSongs flattens each song's converted lines into one multiset of
// word identifiers and writes per-song totals. Lines without a
// word_sequence are excluded from the aggregate, not treated as zero.
func (s Service) AggregateSongs(ctx context.Context) (AggregateReport, error) {
	ctx, span := tracer.Start(ctx, "AggregateSongs")
	defer span.End()

	lines, err := s.store.GetConvertedLines(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return AggregateReport{}, err
	}

	type songAgg struct {
		ids       []string
		lineCount int
	}
	order := []string{}
	bySong := make(map[string]*songAgg)
	for _, line := range lines {
		agg, ok := bySong[line.SongId]
		if !ok {
			agg = &songAgg{}
			bySong[line.SongId] = agg
			order = append(order, line.SongId)
		}
		agg.ids = append(agg.ids, line.WordSequence...)
		agg.lineCount++
	}

	now := s.now().UTC()
	var report AggregateReport
	stats := make([]SongStats, 0, len(order))
	for _, songId := range order {
		agg := bySong[songId]
		total := len(agg.ids)
		if total == 0 {
			report.SkippedEmpty++
			continue
		}
		unique := textutil.UniqueCount(agg.ids)
		stats = append(stats, SongStats{
			SongId:               songId,
			TotalWordCount:       total,
			UniqueWordCount:      unique,
			VocabularyComplexity: float64(unique) / float64(total),
			AvgWordsPerLine:      float64(total) / float64(agg.lineCount),
			TotalLyricLines:      agg.lineCount,
			AggregatedAt:         now,
		})
	}

	n, err := s.store.SetSongStats(ctx, stats)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return AggregateReport{}, err
	}
	report.Aggregated = n

	span.SetAttributes(
		attribute.Int("aggregated", report.Aggregated),
		attribute.Int("skipped_empty", report.SkippedEmpty),
	)
	return report, nil
}
