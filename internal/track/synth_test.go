package track

import (
	"math"
	"testing"

	"github.com/normanking/cortexlip/internal/acoustic"
	"github.com/normanking/cortexlip/internal/alignment"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testRate  = 16000
	testShift = 160
)

func defaultOptions(total int) Options {
	return Options{SampleRate: testRate, TotalSamples: total, ShiftSamples: testShift}
}

func nativeFrame(f int) int {
	return int(math.Floor(float64(f) / FrameRate * testRate / testShift))
}

func TestFrameCount(t *testing.T) {
	tests := []struct {
		name  string
		total int
		rate  int
		want  int
	}{
		{"one second", 16000, 16000, 60},
		{"one sample over", 16001, 16000, 61},
		{"half second", 8000, 16000, 30},
		{"one and a half", 24000, 16000, 90},
		{"cd rate", 44100 * 2, 44100, 120},
		{"empty", 0, 16000, 0},
		{"bad rate", 100, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FrameCount(tt.total, tt.rate))
		})
	}
}

func TestSynthesize_EmptyMarkersGiveZeroTrack(t *testing.T) {
	rows, err := Synthesize(nil, defaultOptions(testRate/2))
	require.NoError(t, err)
	require.Len(t, rows, 30)

	for i, r := range rows {
		assert.Equal(t, i, r.FrameIndex)
		assert.True(t, r.IsSilent())
		assert.Equal(t, 0.0, r.VolDB)
	}
	assert.Equal(t, 0, rows[0].Msec)
	assert.Equal(t, 17, rows[1].Msec)
	assert.Equal(t, 33, rows[2].Msec)
	assert.Equal(t, 50, rows[3].Msec)
}

func TestSynthesize_InvalidRate(t *testing.T) {
	_, err := Synthesize(nil, Options{SampleRate: 0, TotalSamples: 10, ShiftSamples: 160})
	assert.ErrorIs(t, err, ErrInvalidRate)

	_, err = Synthesize(nil, Options{SampleRate: 16000, TotalSamples: 10})
	assert.ErrorIs(t, err, ErrInvalidRate)
}

func TestSynthesize_TwoBursts(t *testing.T) {
	samples := make([]float32, testRate)
	for i := 0; i < 5*testShift; i++ {
		samples[i] = 0.5
	}
	for i := 10 * testShift; i < 15*testShift; i++ {
		samples[i] = 0.25
	}

	markers, err := acoustic.BuildMarkers([]alignment.PendingVowel{
		{Vowel: "A", FromFrame: 0, ToFrame: 4, MidFrame: 2, CV: "A"},
		{Vowel: "I", FromFrame: 10, ToFrame: 14, MidFrame: 12, CV: "I"},
	}, samples, testShift)
	require.NoError(t, err)
	require.Len(t, markers, 2)
	assert.NotEqual(t, markers[0].RMS, markers[1].RMS)
	assert.Greater(t, markers[1].RMS, 0.0)

	rows, err := Synthesize(markers, defaultOptions(len(samples)))
	require.NoError(t, err)
	require.Len(t, rows, 60)

	for f, r := range rows {
		assert.Equal(t, f, r.FrameIndex, "indices are contiguous")

		native := nativeFrame(f)
		inA := native >= 0 && native <= 4
		inI := native >= 10 && native <= 14

		assert.Equal(t, inA, r.A != 0, "row %d A", f)
		assert.Equal(t, inI, r.I != 0, "row %d I", f)
		if inA {
			assert.InDelta(t, 1.0, r.A, 1e-9)
			assert.InDelta(t, markers[0].DBFS, r.VolDB, 1e-9)
		}
		if inI {
			assert.InDelta(t, 0.5, r.I, 1e-9)
		}
		assert.Zero(t, r.U+r.E+r.O+r.N)
		assert.Zero(t, r.Width+r.Height+r.Tongue)
	}
}

func TestSynthesize_FirstMatchWins(t *testing.T) {
	markers := []acoustic.VowelMarker{
		{Vowel: "O", FromFrame: 0, ToFrame: 10, RelMax: 0.4, DBFS: -20},
		{Vowel: "E", FromFrame: 5, ToFrame: 20, RelMax: 1.0, DBFS: -6},
	}

	rows, err := Synthesize(markers, defaultOptions(testRate/4))
	require.NoError(t, err)

	for f, r := range rows {
		native := nativeFrame(f)
		switch {
		case native <= 10:
			assert.InDelta(t, 0.4, r.O, 1e-9, "row %d", f)
			assert.Zero(t, r.E, "row %d: later overlapping marker loses", f)
			assert.InDelta(t, -20.0, r.VolDB, 1e-9)
		case native <= 20:
			assert.InDelta(t, 1.0, r.E, 1e-9, "row %d", f)
			assert.Zero(t, r.O)
		}
	}
}

func TestSynthesize_SilenceHold(t *testing.T) {
	markers := []acoustic.VowelMarker{
		{Vowel: "U", FromFrame: 3, ToFrame: 3, RelMax: 0.8, DBFS: -9.5},
	}
	opts := defaultOptions(testRate / 4)

	// native frame 3 maps to row 2 only (2/60 s = 3.33 frames)
	plain, err := Synthesize(markers, opts)
	require.NoError(t, err)
	require.Len(t, plain, 15)
	assert.Equal(t, 1, Voiced(plain))
	assert.InDelta(t, 0.8, plain[2].U, 1e-9)

	opts.SilenceCorrection = true
	held, err := Synthesize(markers, opts)
	require.NoError(t, err)

	assert.True(t, held[0].IsSilent(), "no voiced row to hold yet")
	assert.True(t, held[1].IsSilent())
	for _, r := range held[3:] {
		assert.InDelta(t, 0.8, r.U, 1e-9)
		assert.InDelta(t, -9.5, r.VolDB, 1e-9)
		assert.Zero(t, r.A+r.I+r.E+r.O+r.N)
	}
	for _, r := range plain[3:] {
		assert.True(t, r.IsSilent())
		assert.Zero(t, r.VolDB)
	}

	// frame index and msec are never held
	assert.Equal(t, 14, held[14].FrameIndex)
	assert.Equal(t, plain[14].Msec, held[14].Msec)
}

func TestSynthesize_UnknownVowelSetsOnlyVolume(t *testing.T) {
	markers := []acoustic.VowelMarker{{Vowel: "X", FromFrame: 0, ToFrame: 100, RelMax: 1, DBFS: -3}}
	rows, err := Synthesize(markers, defaultOptions(testRate/60))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.True(t, rows[0].IsSilent())
	assert.InDelta(t, -3.0, rows[0].VolDB, 1e-9)
}
