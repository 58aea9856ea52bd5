package store

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleRecord(created time.Time) *Record {
	rec := NewRecord("/audio/voice.wav", "/logs/julius.log")
	rec.SampleRate = 16000
	rec.TotalSamples = 16000
	rec.SilenceCorrection = true
	rec.MarkerCount = 2
	rec.FrameCount = 60
	rec.Track = "// input: voice.wav\n0, 0, 0.000000\n"
	rec.CreatedAt = created
	return rec
}

func TestNewSQLiteStore_CreatesDirectory(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "subdir", "history.db")

	s, err := NewSQLiteStore(dbPath)
	require.NoError(t, err)
	defer s.Close()

	_, err = os.Stat(dbPath)
	assert.NoError(t, err)
}

func TestSQLiteStore_SaveLoadRoundTrip(t *testing.T) {
	s := newTestSQLiteStore(t)
	rec := sampleRecord(time.Date(2025, 3, 1, 12, 0, 0, 123456789, time.UTC))

	require.NoError(t, s.Save(rec))

	loaded, err := s.Load(rec.ID)
	require.NoError(t, err)
	assert.Equal(t, rec.ID, loaded.ID)
	assert.Equal(t, rec.AudioPath, loaded.AudioPath)
	assert.Equal(t, rec.LogPath, loaded.LogPath)
	assert.Equal(t, 16000, loaded.SampleRate)
	assert.Equal(t, 16000, loaded.TotalSamples)
	assert.True(t, loaded.SilenceCorrection)
	assert.Equal(t, 2, loaded.MarkerCount)
	assert.Equal(t, 60, loaded.FrameCount)
	assert.Equal(t, rec.Track, loaded.Track)
	assert.True(t, loaded.CreatedAt.Equal(rec.CreatedAt))
}

func TestSQLiteStore_CreatedAtPrecision(t *testing.T) {
	tests := []struct {
		name    string
		created time.Time
	}{
		{"whole second", time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)},
		{"tenths", time.Date(2025, 3, 1, 12, 0, 0, 200000000, time.UTC)},
		{"microseconds", time.Date(2025, 3, 1, 12, 0, 0, 123456000, time.UTC)},
		{"local zone", time.Date(2025, 3, 1, 21, 0, 0, 0, time.FixedZone("JST", 9*3600))},
	}

	s := newTestSQLiteStore(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := sampleRecord(tt.created)
			require.NoError(t, s.Save(rec))

			loaded, err := s.Load(rec.ID)
			require.NoError(t, err)
			assert.True(t, loaded.CreatedAt.Equal(tt.created), "got %v", loaded.CreatedAt)
		})
	}

	all, err := s.List(0)
	require.NoError(t, err)
	require.Len(t, all, len(tests))
	assert.True(t, all[0].CreatedAt.Equal(tests[1].created), "newest first")
}

func TestSQLiteStore_SaveUpdatesExisting(t *testing.T) {
	s := newTestSQLiteStore(t)
	rec := sampleRecord(time.Now().UTC())
	require.NoError(t, s.Save(rec))

	rec.FrameCount = 90
	rec.SilenceCorrection = false
	require.NoError(t, s.Save(rec))

	loaded, err := s.Load(rec.ID)
	require.NoError(t, err)
	assert.Equal(t, 90, loaded.FrameCount)
	assert.False(t, loaded.SilenceCorrection)

	all, err := s.List(0)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestSQLiteStore_ListNewestFirst(t *testing.T) {
	s := newTestSQLiteStore(t)
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	var ids []string
	for i := 0; i < 3; i++ {
		// sub-second offsets exercise the fixed-width timestamp ordering
		rec := sampleRecord(base.Add(time.Duration(i) * 100 * time.Millisecond))
		require.NoError(t, s.Save(rec))
		ids = append(ids, rec.ID)
	}

	all, err := s.List(0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, ids[2], all[0].ID)
	assert.Equal(t, ids[1], all[1].ID)
	assert.Equal(t, ids[0], all[2].ID)

	limited, err := s.List(2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}

func TestSQLiteStore_Delete(t *testing.T) {
	s := newTestSQLiteStore(t)
	rec := sampleRecord(time.Now().UTC())
	require.NoError(t, s.Save(rec))

	require.NoError(t, s.Delete(rec.ID))

	_, err := s.Load(rec.ID)
	assert.ErrorIs(t, err, ErrRecordNotFound)
	assert.ErrorIs(t, s.Delete(rec.ID), ErrRecordNotFound)
}

func TestSQLiteStore_InvalidIDs(t *testing.T) {
	s := newTestSQLiteStore(t)

	tests := []struct {
		name string
		id   string
	}{
		{"empty", ""},
		{"not a uuid", "analysis-1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Load(tt.id)
			assert.ErrorIs(t, err, ErrInvalidID)
			assert.ErrorIs(t, s.Delete(tt.id), ErrInvalidID)

			rec := sampleRecord(time.Now())
			rec.ID = tt.id
			assert.ErrorIs(t, s.Save(rec), ErrInvalidID)
		})
	}

	assert.Error(t, s.Save(nil))
}

func TestSQLiteStore_PersistsAcrossReopen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "history.db")

	s, err := NewSQLiteStore(dbPath)
	require.NoError(t, err)
	rec := sampleRecord(time.Now().UTC())
	require.NoError(t, s.Save(rec))
	require.NoError(t, s.Close())

	reopened, err := NewSQLiteStore(dbPath)
	require.NoError(t, err)
	defer reopened.Close()

	loaded, err := reopened.Load(rec.ID)
	require.NoError(t, err)
	assert.Equal(t, rec.Track, loaded.Track)
}
