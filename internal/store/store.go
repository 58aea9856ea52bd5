// Package store keeps a history of analysis runs.
package store

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Common errors for history operations.
var (
	ErrRecordNotFound = errors.New("analysis record not found")
	ErrInvalidID      = errors.New("invalid analysis record ID")
)

// Record is one finished analysis: where it came from, what it produced,
// and the exported track text.
type Record struct {
	ID                string    `json:"id"`
	AudioPath         string    `json:"audio_path"`
	LogPath           string    `json:"log_path"`
	SampleRate        int       `json:"sample_rate"`
	TotalSamples      int       `json:"total_samples"`
	SilenceCorrection bool      `json:"silence_correction"`
	MarkerCount       int       `json:"marker_count"`
	FrameCount        int       `json:"frame_count"`
	Track             string    `json:"track"`
	CreatedAt         time.Time `json:"created_at"`
}

// NewRecord creates a record with a fresh ID and timestamp
func NewRecord(audioPath, logPath string) *Record {
	return &Record{
		ID:        uuid.NewString(),
		AudioPath: audioPath,
		LogPath:   logPath,
		CreatedAt: time.Now().UTC(),
	}
}

// Store defines the interface for analysis history persistence.
type Store interface {
	// Save inserts or replaces a record.
	Save(rec *Record) error

	// Load retrieves a record by ID.
	Load(id string) (*Record, error)

	// List returns up to limit records, newest first. limit <= 0 means all.
	List(limit int) ([]*Record, error)

	// Delete removes a record.
	Delete(id string) error

	// Close releases any resources held by the store.
	Close() error
}

func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
