// Package cache persists fetched audio features in a local sqlite file so
// re-runs of the enrichment pass do not re-hit the rate-limited API.
package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"versegraph/lib/scrapers/spotify"
	"versegraph/lib/textutil"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS audio_features (
	title_key TEXT NOT NULL,
	album_key TEXT NOT NULL,
	energy REAL NOT NULL,
	valence REAL NOT NULL,
	acousticness REAL NOT NULL,
	danceability REAL NOT NULL,
	instrumentalness REAL NOT NULL,
	liveness REAL NOT NULL,
	speechiness REAL NOT NULL,
	tempo REAL NOT NULL,
	loudness REAL NOT NULL,
	fetched_at INTEGER NOT NULL,
	PRIMARY KEY (title_key, album_key)
);
`

type Cache struct {
	db *sql.DB
}

// Open opens (or creates) a cache database. Use ":memory:" for tests.
func Open(path string) (*Cache, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open feature cache: %w", err)
	}
	_, err = db.Exec(schema)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("init feature cache schema: %w", err)
	}
	return &Cache{db: db}, nil
}

func (c *Cache) Close() error {
	return c.db.Close()
}

// Get returns the cached features for a (title, album) pair, or ok=false
// on a miss.
func (c *Cache) Get(ctx context.Context, title, album string) (*spotify.AudioFeatures, bool, error) {
	row := c.db.QueryRowContext(ctx, `
		SELECT energy, valence, acousticness, danceability,
		       instrumentalness, liveness, speechiness, tempo, loudness
		FROM audio_features
		WHERE title_key = ? AND album_key = ?
	`, textutil.MatchKey(title), textutil.MatchKey(album))

	var features spotify.AudioFeatures
	err := row.Scan(
		&features.Energy, &features.Valence, &features.Acousticness,
		&features.Danceability, &features.Instrumentalness, &features.Liveness,
		&features.Speechiness, &features.Tempo, &features.Loudness,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read feature cache: %w", err)
	}
	return &features, true, nil
}

// Put stores features for a (title, album) pair, replacing any previous
// entry.
func (c *Cache) Put(ctx context.Context, title, album string, features *spotify.AudioFeatures) error {
	_, err := c.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO audio_features (
			title_key, album_key,
			energy, valence, acousticness, danceability,
			instrumentalness, liveness, speechiness, tempo, loudness,
			fetched_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		textutil.MatchKey(title), textutil.MatchKey(album),
		features.Energy, features.Valence, features.Acousticness,
		features.Danceability, features.Instrumentalness, features.Liveness,
		features.Speechiness, features.Tempo, features.Loudness,
		time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("write feature cache: %w", err)
	}
	return nil
}
