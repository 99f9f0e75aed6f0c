// Package bookmarks persists loop regions per track.
package bookmarks

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
	"github.com/mitchellh/hashstructure/v2"
	"go.uber.org/zap"

	"github.com/tessro/woodshed/internal/core"
	werrors "github.com/tessro/woodshed/internal/errors"
)

// MinDuration is the shortest region accepted for a bookmark.
const MinDuration = 2.0

// Store persists bookmarks.
type Store interface {
	// List returns a track's bookmarks ordered by start time.
	List(ctx context.Context, trackKey string) (core.Bookmarks, error)
	// Add saves region. An empty label becomes "Loop N".
	Add(ctx context.Context, trackKey string, region core.LoopRegion, label string) (core.Bookmark, error)
	UpdateLabel(ctx context.Context, id int64, label string) error
	Delete(ctx context.Context, id int64) error
	// RememberTrack records display metadata for a track key.
	RememberTrack(ctx context.Context, trackKey string, track core.Track) error
	// Tracks lists every remembered track with its bookmark count, most
	// recently practiced first.
	Tracks(ctx context.Context) ([]TrackInfo, error)
	Close() error
}

// TrackInfo describes a remembered track.
type TrackInfo struct {
	Key       string       `json:"key"`
	Name      string       `json:"name"`
	Artist    string       `json:"artist"`
	Sources   core.Sources `json:"sources"`
	Bookmarks int          `json:"bookmarks"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// TrackKey identifies a track by its stem sources. Renaming a track does
// not change its key.
func TrackKey(track core.Track) (string, error) {
	h, err := hashstructure.Hash(track.Sources, hashstructure.FormatV2, nil)
	if err != nil {
		return "", fmt.Errorf("hash track: %w", err)
	}
	return fmt.Sprintf("%016x", h), nil
}

const schemaSQL = `
	CREATE TABLE IF NOT EXISTS tracks (
		key TEXT PRIMARY KEY,
		name TEXT NOT NULL DEFAULT '',
		artist TEXT NOT NULL DEFAULT '',
		guitar TEXT NOT NULL DEFAULT '',
		backing TEXT NOT NULL DEFAULT '',
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE TABLE IF NOT EXISTS bookmarks (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		track_key TEXT NOT NULL,
		start_s REAL NOT NULL,
		end_s REAL NOT NULL,
		label TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS bookmarks_track ON bookmarks (track_key);
	`

// SQLiteStore is a Store backed by a SQLite file.
type SQLiteStore struct {
	db     *sql.DB
	logger *zap.Logger
	now    func() time.Time
}

// Open opens or creates the database at path.
func Open(path string, logger *zap.Logger) (*SQLiteStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("create bookmarks directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open bookmarks database: %w", err)
	}
	// A single connection keeps :memory: databases coherent.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("create bookmarks schema: %w", err)
	}

	logger = logger.Named("bookmarks")
	logger.Debug("bookmarks database ready", zap.String("path", path))
	return &SQLiteStore{db: db, logger: logger, now: time.Now}, nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// List implements Store.
func (s *SQLiteStore) List(ctx context.Context, trackKey string) (core.Bookmarks, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, start_s, end_s, label FROM bookmarks WHERE track_key = ? ORDER BY start_s, id",
		trackKey)
	if err != nil {
		return nil, fmt.Errorf("list bookmarks: %w", err)
	}
	defer rows.Close()

	var out core.Bookmarks
	for rows.Next() {
		var b core.Bookmark
		if err := rows.Scan(&b.ID, &b.Start, &b.End, &b.Label); err != nil {
			return nil, fmt.Errorf("scan bookmark: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// Add implements Store.
func (s *SQLiteStore) Add(ctx context.Context, trackKey string, region core.LoopRegion, label string) (core.Bookmark, error) {
	if region.Start < 0 || region.Duration() < MinDuration {
		return core.Bookmark{}, fmt.Errorf("%w: %.2f-%.2f", werrors.ErrInvalidRegion, region.Start, region.End)
	}

	label = strings.TrimSpace(label)
	if label == "" {
		n, err := s.nextLoopNumber(ctx, trackKey)
		if err != nil {
			return core.Bookmark{}, err
		}
		label = fmt.Sprintf("Loop %d", n)
	}

	res, err := s.db.ExecContext(ctx,
		"INSERT INTO bookmarks (track_key, start_s, end_s, label, created_at) VALUES (?, ?, ?, ?, ?)",
		trackKey, region.Start, region.End, label, s.now().UTC())
	if err != nil {
		return core.Bookmark{}, fmt.Errorf("add bookmark: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.Bookmark{}, fmt.Errorf("add bookmark: %w", err)
	}

	s.logger.Debug("bookmark added", zap.Int64("id", id), zap.String("label", label))
	return core.Bookmark{ID: id, Start: region.Start, End: region.End, Label: label}, nil
}

// UpdateLabel implements Store.
func (s *SQLiteStore) UpdateLabel(ctx context.Context, id int64, label string) error {
	label = strings.TrimSpace(label)
	if label == "" {
		return errors.New("label must not be empty")
	}
	res, err := s.db.ExecContext(ctx, "UPDATE bookmarks SET label = ? WHERE id = ?", label, id)
	if err != nil {
		return fmt.Errorf("update bookmark %d: %w", id, err)
	}
	return requireRow(res, id)
}

// Delete implements Store.
func (s *SQLiteStore) Delete(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM bookmarks WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete bookmark %d: %w", id, err)
	}
	return requireRow(res, id)
}

// RememberTrack implements Store.
func (s *SQLiteStore) RememberTrack(ctx context.Context, trackKey string, track core.Track) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO tracks (key, name, artist, guitar, backing, updated_at) VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			name = excluded.name, artist = excluded.artist,
			guitar = excluded.guitar, backing = excluded.backing,
			updated_at = excluded.updated_at`,
		trackKey, track.Name, track.Artist, track.Sources.Guitar, track.Sources.Backing, s.now().UTC())
	if err != nil {
		return fmt.Errorf("remember track: %w", err)
	}
	return nil
}

// Tracks implements Store.
func (s *SQLiteStore) Tracks(ctx context.Context) ([]TrackInfo, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT t.key, t.name, t.artist, t.guitar, t.backing, t.updated_at, COUNT(b.id)
		FROM tracks t LEFT JOIN bookmarks b ON b.track_key = t.key
		GROUP BY t.key
		ORDER BY t.updated_at DESC, t.key`)
	if err != nil {
		return nil, fmt.Errorf("list tracks: %w", err)
	}
	defer rows.Close()

	var out []TrackInfo
	for rows.Next() {
		var ti TrackInfo
		if err := rows.Scan(&ti.Key, &ti.Name, &ti.Artist, &ti.Sources.Guitar, &ti.Sources.Backing, &ti.UpdatedAt, &ti.Bookmarks); err != nil {
			return nil, fmt.Errorf("scan track: %w", err)
		}
		out = append(out, ti)
	}
	return out, rows.Err()
}

// nextLoopNumber returns one past the highest "Loop N" label of a track,
// so default labels stay unique after deletions.
func (s *SQLiteStore) nextLoopNumber(ctx context.Context, trackKey string) (int, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT label FROM bookmarks WHERE track_key = ? AND label LIKE 'Loop %'", trackKey)
	if err != nil {
		return 0, fmt.Errorf("number bookmark: %w", err)
	}
	defer rows.Close()

	highest := 0
	for rows.Next() {
		var label string
		if err := rows.Scan(&label); err != nil {
			return 0, fmt.Errorf("number bookmark: %w", err)
		}
		if n, err := strconv.Atoi(strings.TrimPrefix(label, "Loop ")); err == nil && n > highest {
			highest = n
		}
	}
	return highest + 1, rows.Err()
}

func requireRow(res sql.Result, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %d", werrors.ErrBookmarkNotFound, id)
	}
	return nil
}
