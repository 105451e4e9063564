package vocab

import (
	"context"
	"fmt"

	"versegraph/lib/graphstore"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// batchSize bounds the rows per UNWIND write so one huge dataset does not
// blow transaction memory on the server.
const batchSize = 500

type neo4jStore struct {
	graph *graphstore.Store
}

func NewNeo4jStore(graph *graphstore.Store) Store {
	return &neo4jStore{graph: graph}
}

func (s *neo4jStore) GetLines(ctx context.Context) ([]Line, error) {
	result, err := s.graph.Read(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, `
			MATCH (song:Song)-[:HAS_LINE]->(line:LyricLine)
			RETURN elementId(song) AS song_id,
			       song.album AS album,
			       line.line_number AS line_number,
			       line.text AS text
			ORDER BY song_id, line_number
		`, nil)
		if err != nil {
			return nil, err
		}

		var lines []Line
		for res.Next(ctx) {
			record := res.Record()
			lines = append(lines, Line{
				SongId:     graphstore.StringValue(record, "song_id"),
				Album:      graphstore.StringValue(record, "album"),
				LineNumber: graphstore.IntValue(record, "line_number"),
				Text:       graphstore.StringValue(record, "text"),
			})
		}
		return lines, res.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("get lyric lines: %w", err)
	}
	return result.([]Line), nil
}

func (s *neo4jStore) UpsertDictionary(ctx context.Context, entries []DictionaryEntry) (int, error) {
	written := 0
	for start := 0; start < len(entries); start += batchSize {
		end := min(start+batchSize, len(entries))
		batch := entries[start:end]

		rows := make([]map[string]any, len(batch))
		for i, entry := range batch {
			rows[i] = map[string]any{
				"id":               entry.Id,
				"text":             entry.Text,
				"frequency":        entry.Frequency,
				"song_usage_count": entry.SongUsageCount,
				"album_spread":     entry.AlbumSpread,
			}
		}

		_, err := s.graph.Write(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
			res, err := tx.Run(ctx, `
				UNWIND $rows AS row
				MERGE (word:Word {word_id: row.id})
				SET word.text = row.text,
				    word.frequency = row.frequency,
				    word.song_usage_count = row.song_usage_count,
				    word.album_spread = row.album_spread,
				    word.updated_at = datetime()
			`, map[string]any{"rows": rows})
			if err != nil {
				return nil, err
			}
			_, err = res.Consume(ctx)
			return nil, err
		})
		if err != nil {
			return written, fmt.Errorf("upsert dictionary batch: %w", err)
		}
		written += len(batch)
	}
	return written, nil
}

func (s *neo4jStore) SetLineSequences(ctx context.Context, lines []ConvertedLine) (int, error) {
	written := 0
	for start := 0; start < len(lines); start += batchSize {
		end := min(start+batchSize, len(lines))
		batch := lines[start:end]

		rows := make([]map[string]any, len(batch))
		for i, line := range batch {
			rows[i] = map[string]any{
				"song_id":           line.SongId,
				"line_number":       line.LineNumber,
				"word_sequence":     line.WordSequence,
				"word_count":        line.WordCount,
				"unique_word_count": line.UniqueWordCount,
				"converted_at":      line.ConvertedAt,
			}
		}

		_, err := s.graph.Write(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
			res, err := tx.Run(ctx, `
				UNWIND $rows AS row
				MATCH (song:Song) WHERE elementId(song) = row.song_id
				MATCH (song)-[:HAS_LINE]->(line:LyricLine {line_number: row.line_number})
				SET line.word_sequence = row.word_sequence,
				    line.word_count = row.word_count,
				    line.unique_word_count = row.unique_word_count,
				    line.converted_at = row.converted_at
			`, map[string]any{"rows": rows})
			if err != nil {
				return nil, err
			}
			_, err = res.Consume(ctx)
			return nil, err
		})
		if err != nil {
			return written, fmt.Errorf("set line sequences batch: %w", err)
		}
		written += len(batch)
	}
	return written, nil
}

func (s *neo4jStore) GetConvertedLines(ctx context.Context) ([]ConvertedLine, error) {
	result, err := s.graph.Read(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, `
			MATCH (song:Song)-[:HAS_LINE]->(line:LyricLine)
			WHERE line.word_sequence IS NOT NULL
			RETURN elementId(song) AS song_id,
			       line.line_number AS line_number,
			       line.word_sequence AS word_sequence,
			       line.word_count AS word_count,
			       line.unique_word_count AS unique_word_count
			ORDER BY song_id, line_number
		`, nil)
		if err != nil {
			return nil, err
		}

		var lines []ConvertedLine
		for res.Next(ctx) {
			record := res.Record()
			lines = append(lines, ConvertedLine{
				SongId:          graphstore.StringValue(record, "song_id"),
				LineNumber:      graphstore.IntValue(record, "line_number"),
				WordSequence:    graphstore.StringsValue(record, "word_sequence"),
				WordCount:       int(graphstore.IntValue(record, "word_count")),
				UniqueWordCount: int(graphstore.IntValue(record, "unique_word_count")),
			})
		}
		return lines, res.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("get converted lines: %w", err)
	}
	return result.([]ConvertedLine), nil
}

func (s *neo4jStore) SetSongStats(ctx context.Context, stats []SongStats) (int, error) {
	written := 0
	for start := 0; start < len(stats); start += batchSize {
		end := min(start+batchSize, len(stats))
		batch := stats[start:end]

		rows := make([]map[string]any, len(batch))
		for i, stat := range batch {
			rows[i] = map[string]any{
				"song_id":               stat.SongId,
				"total_word_count":      stat.TotalWordCount,
				"unique_word_count":     stat.UniqueWordCount,
				"vocabulary_complexity": stat.VocabularyComplexity,
				"avg_words_per_line":    stat.AvgWordsPerLine,
				"total_lyric_lines":     stat.TotalLyricLines,
				"aggregated_at":         stat.AggregatedAt,
			}
		}

		_, err := s.graph.Write(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
			res, err := tx.Run(ctx, `
				UNWIND $rows AS row
				MATCH (song:Song) WHERE elementId(song) = row.song_id
				SET song.total_word_count = row.total_word_count,
				    song.unique_word_count = row.unique_word_count,
				    song.vocabulary_complexity = row.vocabulary_complexity,
				    song.avg_words_per_line = row.avg_words_per_line,
				    song.total_lyric_lines = row.total_lyric_lines,
				    song.vocab_aggregated_at = row.aggregated_at
			`, map[string]any{"rows": rows})
			if err != nil {
				return nil, err
			}
			_, err = res.Consume(ctx)
			return nil, err
		})
		if err != nil {
			return written, fmt.Errorf("set song stats batch: %w", err)
		}
		written += len(batch)
	}
	return written, nil
}
