package vocab

import (
	"context"
	"testing"
	"time"

	"versegraph/lib/textutil"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	lines      []Line
	converted  []ConvertedLine
	dictionary []DictionaryEntry
	stats      []SongStats
}

func (f *fakeStore) GetLines(ctx context.Context) ([]Line, error) {
	return f.lines, nil
}

func (f *fakeStore) UpsertDictionary(ctx context.Context, entries []DictionaryEntry) (int, error) {
	f.dictionary = entries
	return len(entries), nil
}

func (f *fakeStore) SetLineSequences(ctx context.Context, lines []ConvertedLine) (int, error) {
	f.converted = lines
	return len(lines), nil
}

func (f *fakeStore) GetConvertedLines(ctx context.Context) ([]ConvertedLine, error) {
	return f.converted, nil
}

func (f *fakeStore) SetSongStats(ctx context.Context, stats []SongStats) (int, error) {
	f.stats = stats
	return len(stats), nil
}

func newTestService(store *fakeStore) Service {
	svc := NewService(store)
	svc.now = func() time.Time {
		return time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	}
	return svc
}

func TestBuildDictionary(t *testing.T) {
	store := &fakeStore{
		lines: []Line{
			{SongId: "s1", Album: "A1", LineNumber: 1, Text: "Hello World hello"},
			{SongId: "s2", Album: "A2", LineNumber: 1, Text: "hello again"},
			{SongId: "s3", Album: "A1", LineNumber: 1, Text: ""},
		},
	}
	svc := newTestService(store)

	report, err := svc.BuildDictionary(context.Background())
	require.NoError(t, err)
	require.Equal(t, 3, report.DistinctWords)
	require.Equal(t, int64(5), report.TotalTokens)
	require.Equal(t, 0, report.Collisions)

	byText := map[string]DictionaryEntry{}
	for _, entry := range store.dictionary {
		byText[entry.Text] = entry
	}

	hello := byText["hello"]
	require.Equal(t, textutil.WordID("hello"), hello.Id)
	require.Equal(t, int64(3), hello.Frequency)
	require.Equal(t, int64(2), hello.SongUsageCount)
	require.Equal(t, int64(2), hello.AlbumSpread)

	world := byText["world"]
	require.Equal(t, int64(1), world.Frequency)
	require.Equal(t, int64(1), world.SongUsageCount)
	require.Equal(t, int64(1), world.AlbumSpread)
}

func TestBuildDictionaryRerunIdentical(t *testing.T) {
	store := &fakeStore{
		lines: []Line{
			{SongId: "s1", Album: "A1", LineNumber: 1, Text: "over and over and over"},
		},
	}
	svc := newTestService(store)

	_, err := svc.BuildDictionary(context.Background())
	require.NoError(t, err)
	first := store.dictionary

	_, err = svc.BuildDictionary(context.Background())
	require.NoError(t, err)

	require.Empty(t, cmp.Diff(first, store.dictionary))
}

func TestConvertLines(t *testing.T) {
	store := &fakeStore{
		lines: []Line{
			{SongId: "s1", LineNumber: 1, Text: "Hello World hello"},
			{SongId: "s1", LineNumber: 2, Text: "   "},
			{SongId: "s1", LineNumber: 3, Text: ""},
		},
	}
	svc := newTestService(store)

	report, err := svc.ConvertLines(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, report.Converted)
	require.Equal(t, 2, report.SkippedEmpty)

	require.Len(t, store.converted, 1)
	line := store.converted[0]
	require.Equal(t, []string{
		textutil.WordID("hello"),
		textutil.WordID("world"),
		textutil.WordID("hello"),
	}, line.WordSequence)
	require.Equal(t, 3, line.WordCount)
	require.Equal(t, 2, line.UniqueWordCount)
	require.False(t, line.ConvertedAt.IsZero())
}

func TestConvertLinesIdempotent(t *testing.T) {
	store := &fakeStore{
		lines: []Line{
			{SongId: "s1", LineNumber: 1, Text: "the quick brown fox"},
			{SongId: "s1", LineNumber: 2, Text: "jumps over the lazy dog"},
		},
	}
	svc := newTestService(store)

	_, err := svc.ConvertLines(context.Background())
	require.NoError(t, err)
	first := store.converted

	_, err = svc.ConvertLines(context.Background())
	require.NoError(t, err)

	require.Empty(t, cmp.Diff(first, store.converted))
}

func TestConvertLinesRoundTrip(t *testing.T) {
	// mapping ids back through the dictionary must reproduce the token
	// sequence of the raw text
	text := "So long, and thanks for all the fish"
	store := &fakeStore{
		lines: []Line{{SongId: "s1", Album: "A1", LineNumber: 1, Text: text}},
	}
	svc := newTestService(store)

	_, err := svc.BuildDictionary(context.Background())
	require.NoError(t, err)
	_, err = svc.ConvertLines(context.Background())
	require.NoError(t, err)

	idToText := map[string]string{}
	for _, entry := range store.dictionary {
		idToText[entry.Id] = entry.Text
	}

	var reconstructed []string
	for _, id := range store.converted[0].WordSequence {
		word, ok := idToText[id]
		require.True(t, ok, "sequence id %s missing from dictionary", id)
		reconstructed = append(reconstructed, word)
	}
	require.Equal(t, textutil.Tokenize(text), reconstructed)
}

func TestAggregateSongs(t *testing.T) {
	store := &fakeStore{
		converted: []ConvertedLine{
			{SongId: "s1", LineNumber: 1, WordSequence: []string{"word_a", "word_b", "word_a"}, WordCount: 3},
			{SongId: "s1", LineNumber: 2, WordSequence: []string{"word_b", "word_c", "word_d", "word_b", "word_c"}, WordCount: 5},
			{SongId: "s2", LineNumber: 1, WordSequence: []string{"word_a"}, WordCount: 1},
		},
	}
	svc := newTestService(store)

	report, err := svc.AggregateSongs(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, report.Aggregated)
	require.Equal(t, 0, report.SkippedEmpty)

	require.Len(t, store.stats, 2)
	s1 := store.stats[0]
	require.Equal(t, "s1", s1.SongId)
	require.Equal(t, 8, s1.TotalWordCount)
	require.Equal(t, 4, s1.UniqueWordCount)
	require.InDelta(t, 0.5, s1.VocabularyComplexity, 1e-9)
	require.InDelta(t, 4.0, s1.AvgWordsPerLine, 1e-9)
	require.Equal(t, 2, s1.TotalLyricLines)

	s2 := store.stats[1]
	require.Equal(t, 1, s2.TotalWordCount)
	require.InDelta(t, 1.0, s2.VocabularyComplexity, 1e-9)
}

func TestAggregateSongsSkipsEmpty(t *testing.T) {
	store := &fakeStore{
		converted: []ConvertedLine{
			{SongId: "s1", LineNumber: 1, WordSequence: nil, WordCount: 0},
		},
	}
	svc := newTestService(store)

	report, err := svc.AggregateSongs(context.Background())
	require.NoError(t, err)
	require.Equal(t, 0, report.Aggregated)
	require.Equal(t, 1, report.SkippedEmpty)
	require.Empty(t, store.stats)
}

func TestVocabularyComplexityRange(t *testing.T) {
	store := &fakeStore{
		converted: []ConvertedLine{
			{SongId: "s1", LineNumber: 1, WordSequence: []string{"word_a", "word_a", "word_a"}, WordCount: 3},
		},
	}
	svc := newTestService(store)

	_, err := svc.AggregateSongs(context.Background())
	require.NoError(t, err)

	complexity := store.stats[0].VocabularyComplexity
	require.Greater(t, complexity, 0.0)
	require.LessOrEqual(t, complexity, 1.0)
}
