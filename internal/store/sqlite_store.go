package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// timeLayout is fixed width so created_at sorts as text. The driver hands
// DATETIME columns back with the fraction trimmed, so reads use RFC3339Nano.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// SQLiteStore implements Store using SQLite database.
type SQLiteStore struct {
	db *sql.DB
	mu sync.RWMutex
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore opens (or creates) the history database at dbPath.
// The parent directory is created if it doesn't exist.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS analyses (
		id TEXT PRIMARY KEY,
		audio_path TEXT NOT NULL,
		log_path TEXT NOT NULL,
		sample_rate INTEGER NOT NULL,
		total_samples INTEGER NOT NULL,
		silence_correction INTEGER NOT NULL,
		marker_count INTEGER NOT NULL,
		frame_count INTEGER NOT NULL,
		track TEXT NOT NULL,
		created_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_analyses_created_at ON analyses(created_at DESC);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Save persists a record to the database.
func (s *SQLiteStore) Save(rec *Record) error {
	if rec == nil {
		return errors.New("record cannot be nil")
	}
	if !validID(rec.ID) {
		return ErrInvalidID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
	INSERT INTO analyses (id, audio_path, log_path, sample_rate, total_samples,
		silence_correction, marker_count, frame_count, track, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		audio_path = excluded.audio_path,
		log_path = excluded.log_path,
		sample_rate = excluded.sample_rate,
		total_samples = excluded.total_samples,
		silence_correction = excluded.silence_correction,
		marker_count = excluded.marker_count,
		frame_count = excluded.frame_count,
		track = excluded.track
	`

	_, err := s.db.Exec(query,
		rec.ID,
		rec.AudioPath,
		rec.LogPath,
		rec.SampleRate,
		rec.TotalSamples,
		rec.SilenceCorrection,
		rec.MarkerCount,
		rec.FrameCount,
		rec.Track,
		rec.CreatedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("save analysis: %w", err)
	}

	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (*Record, error) {
	var rec Record
	var createdAt string

	err := row.Scan(
		&rec.ID,
		&rec.AudioPath,
		&rec.LogPath,
		&rec.SampleRate,
		&rec.TotalSamples,
		&rec.SilenceCorrection,
		&rec.MarkerCount,
		&rec.FrameCount,
		&rec.Track,
		&createdAt,
	)
	if err != nil {
		return nil, err
	}

	rec.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	return &rec, nil
}

const selectColumns = `SELECT id, audio_path, log_path, sample_rate, total_samples,
	silence_correction, marker_count, frame_count, track, created_at
	FROM analyses`

// Load retrieves a record by ID from the database.
func (s *SQLiteStore) Load(id string) (*Record, error) {
	if !validID(id) {
		return nil, ErrInvalidID
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, err := scanRecord(s.db.QueryRow(selectColumns+" WHERE id = ?", id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRecordNotFound
		}
		return nil, fmt.Errorf("load analysis: %w", err)
	}
	return rec, nil
}

// List returns saved records, newest first.
func (s *SQLiteStore) List(limit int) ([]*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := selectColumns + " ORDER BY created_at DESC"
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list analyses: %w", err)
	}
	defer rows.Close()

	var records []*Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan analysis: %w", err)
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate analyses: %w", err)
	}

	return records, nil
}

// Delete removes a record from the database.
func (s *SQLiteStore) Delete(id string) error {
	if !validID(id) {
		return ErrInvalidID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	result, err := s.db.Exec("DELETE FROM analyses WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete analysis: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrRecordNotFound
	}

	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
