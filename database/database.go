package database

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"retroplayer/models"

	sentry "github.com/getsentry/sentry-go"
	log "github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"
)

// timestampLayout is fixed width so stored values sort lexically.
const timestampLayout = "2006-01-02 15:04:05.000000000"

type Database struct {
	db     *sql.DB
	logger *log.Entry
}

type PlayRecord struct {
	ID          int64         `json:"id"`
	Origin      models.Origin `json:"origin"`
	SourceID    string        `json:"source_id"`
	Title       string        `json:"title"`
	Artist      string        `json:"artist"`
	PlayableURL string        `json:"playable_url"`
	PlayedAt    time.Time     `json:"played_at"`
}

type MostPlayedRecord struct {
	Title      string    `json:"title"`
	Artist     string    `json:"artist"`
	PlayCount  int       `json:"play_count"`
	LastPlayed time.Time `json:"last_played"`
}

// New opens (creating if needed) the sqlite database at dbPath.
func New(dbPath string) (*Database, error) {
	if dbPath == "" {
		dbPath = "data/retroplayer.db"
	}

	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory %s: %w", dir, err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set WAL mode: %w", err)
	}

	d := &Database{
		db:     db,
		logger: log.WithFields(log.Fields{"module": "database"}),
	}
	if err := d.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	d.logger.Infof("Database initialized at %s", dbPath)
	return d, nil
}

func (d *Database) Close() error {
	return d.db.Close()
}

func (d *Database) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS kv (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS play_history (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			origin TEXT NOT NULL,
			source_id TEXT NOT NULL DEFAULT '',
			title TEXT NOT NULL,
			artist TEXT NOT NULL DEFAULT '',
			playable_url TEXT NOT NULL DEFAULT '',
			played_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_play_history_played_at ON play_history(played_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_play_history_track ON play_history(title, artist)`,
	}

	for _, m := range migrations {
		if _, err := d.db.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %w\nSQL: %s", err, m)
		}
	}

	return nil
}

// Get decodes the JSON value stored under key into out. It returns false,
// leaving out untouched, when the key is missing, the value is corrupt or
// the database cannot be read.
func (d *Database) Get(key string, out any) bool {
	var raw string
	err := d.db.QueryRow(`SELECT value FROM kv WHERE key = ?`, key).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return false
	}
	if err != nil {
		d.logger.Warnf("Failed to read key %s: %v", key, err)
		return false
	}

	if err := json.Unmarshal([]byte(raw), out); err != nil {
		d.logger.Warnf("Ignoring corrupt value for key %s: %v", key, err)
		return false
	}
	return true
}

// Set stores value as JSON. Failures are logged and otherwise ignored; the
// caller's in-memory state stays authoritative.
func (d *Database) Set(key string, value any) {
	data, err := json.Marshal(value)
	if err != nil {
		d.logger.Warnf("Failed to encode key %s: %v", key, err)
		return
	}

	_, err = d.db.Exec(
		`INSERT OR REPLACE INTO kv (key, value, updated_at) VALUES (?, ?, ?)`,
		key, string(data), time.Now().UTC().Format(timestampLayout),
	)
	if err != nil {
		d.logger.Warnf("Failed to write key %s: %v", key, err)
		sentry.CaptureException(err)
	}
}

func (d *Database) Delete(key string) {
	if _, err := d.db.Exec(`DELETE FROM kv WHERE key = ?`, key); err != nil {
		d.logger.Warnf("Failed to delete key %s: %v", key, err)
	}
}

// RecordPlay inserts a play record for a track that was just loaded.
func (d *Database) RecordPlay(track models.Track) error {
	_, err := d.db.Exec(
		`INSERT INTO play_history (origin, source_id, title, artist, playable_url, played_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		string(track.Origin), track.SourceID, track.DisplayTitle(), track.Artist, track.PlayableURL,
		time.Now().UTC().Format(timestampLayout),
	)
	if err != nil {
		return fmt.Errorf("failed to record play: %w", err)
	}
	return nil
}

// GetHistory returns the most recent plays, newest first.
func (d *Database) GetHistory(limit int) ([]PlayRecord, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := d.db.Query(
		`SELECT id, origin, source_id, title, artist, playable_url, played_at
		 FROM play_history
		 ORDER BY id DESC
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	var records []PlayRecord
	for rows.Next() {
		var r PlayRecord
		var origin, playedAt string
		if err := rows.Scan(&r.ID, &origin, &r.SourceID, &r.Title, &r.Artist, &r.PlayableURL, &playedAt); err != nil {
			return nil, fmt.Errorf("failed to scan history row: %w", err)
		}
		r.Origin = models.Origin(origin)
		r.PlayedAt = d.parseTimestamp(playedAt)
		records = append(records, r)
	}
	return records, rows.Err()
}

// GetMostPlayed groups plays by title and artist.
func (d *Database) GetMostPlayed(limit int) ([]MostPlayedRecord, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := d.db.Query(
		`SELECT title, artist, COUNT(*) as play_count, MAX(played_at) as last_played
		 FROM play_history
		 GROUP BY title, artist
		 ORDER BY play_count DESC, last_played DESC
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query most played: %w", err)
	}
	defer rows.Close()

	var records []MostPlayedRecord
	for rows.Next() {
		var r MostPlayedRecord
		var lastPlayed string
		if err := rows.Scan(&r.Title, &r.Artist, &r.PlayCount, &lastPlayed); err != nil {
			return nil, fmt.Errorf("failed to scan most played row: %w", err)
		}
		r.LastPlayed = d.parseTimestamp(lastPlayed)
		records = append(records, r)
	}
	return records, rows.Err()
}

// parseTimestamp accepts what we write and what sqlite's
// CURRENT_TIMESTAMP default produces.
func (d *Database) parseTimestamp(value string) time.Time {
	formats := []string{
		timestampLayout,
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02 15:04:05",
	}
	for _, f := range formats {
		if t, err := time.Parse(f, value); err == nil {
			return t
		}
	}
	d.logger.Warnf("failed to parse timestamp '%s' with all known formats", value)
	return time.Time{}
}
