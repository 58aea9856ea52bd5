package acoustic

import (
	"testing"

	"github.com/normanking/cortexlip/internal/alignment"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testRate = 16000

// burstSignal is one second of silence with constant-amplitude bursts over
// the given recognizer frame ranges.
func burstSignal(shift int, bursts map[[2]int]float32) []float32 {
	samples := make([]float32, testRate)
	for frames, amp := range bursts {
		start, end := Window(frames[0], frames[1], shift, len(samples))
		for i := start; i < end; i++ {
			samples[i] = amp
		}
	}
	return samples
}

func vowel(v string, from, to int) alignment.PendingVowel {
	return alignment.PendingVowel{
		Vowel:     v,
		FromFrame: from,
		ToFrame:   to,
		MidFrame:  alignment.MidFrame(from, to),
		CV:        v,
	}
}

func TestShiftSamples(t *testing.T) {
	assert.Equal(t, 160, ShiftSamples(16000, 10))
	assert.Equal(t, 441, ShiftSamples(44100, 10))
	assert.Equal(t, 480, ShiftSamples(48000, 10))
	assert.Equal(t, 221, ShiftSamples(22050, 10))
}

func TestRMSAndDBFS(t *testing.T) {
	assert.Equal(t, 0.0, RMS(nil))
	assert.InDelta(t, 0.5, RMS([]float32{0.5, -0.5, 0.5, -0.5}), 1e-9)
	assert.InDelta(t, 0.5, Peak([]float32{0.1, -0.5, 0.25}), 1e-9)

	assert.InDelta(t, 0.0, DBFS(1.0), 1e-9)
	assert.InDelta(t, -6.0206, DBFS(0.5), 1e-4)
	assert.InDelta(t, -240.0, DBFS(0), 1e-9, "silence is floored")
}

func TestWindow(t *testing.T) {
	tests := []struct {
		name      string
		from, to  int
		total     int
		wantStart int
		wantEnd   int
	}{
		{"inside", 0, 4, 16000, 0, 800},
		{"single frame", 7, 7, 16000, 1120, 1280},
		{"reversed range gets one frame", 9, 3, 16000, 1440, 1600},
		{"clamped at the end", 99, 120, 16000, 15840, 16000},
		{"fully past the end", 200, 210, 16000, 16000, 16000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end := Window(tt.from, tt.to, 160, tt.total)
			assert.Equal(t, tt.wantStart, start)
			assert.Equal(t, tt.wantEnd, end)
		})
	}
}

func TestBuildMarkers_TwoBursts(t *testing.T) {
	shift := ShiftSamples(testRate, DefaultFrameShiftMs)
	samples := burstSignal(shift, map[[2]int]float32{
		{0, 4}:   0.5,
		{10, 14}: 0.25,
	})

	markers, err := BuildMarkers([]alignment.PendingVowel{
		vowel("A", 0, 4),
		vowel("I", 10, 14),
		vowel("U", 20, 24),
	}, samples, shift)
	require.NoError(t, err)
	require.Len(t, markers, 3)

	a, i, u := markers[0], markers[1], markers[2]

	assert.InDelta(t, 0.5, a.RMS, 1e-9)
	assert.InDelta(t, 0.25, i.RMS, 1e-9)
	assert.Equal(t, 0.0, u.RMS, "gap between bursts is silent")

	assert.InDelta(t, 1.0, a.RelMax, 1e-9)
	assert.InDelta(t, 0.5, i.RelMax, 1e-9)
	assert.InDelta(t, 2.0/3.0, a.RelSum, 1e-9)
	assert.InDelta(t, 1.0/3.0, i.RelSum, 1e-9)
	assert.InDelta(t, -240.0, u.DBFS, 1e-9)

	assert.Equal(t, 2, a.Frame)
	assert.Equal(t, 320, a.SampleOffset)
	assert.InDelta(t, 0.02, a.NormPos, 1e-9)
	assert.Equal(t, 1920, i.SampleOffset)
	assert.InDelta(t, 0.12, i.NormPos, 1e-9)

	assert.InDelta(t, 0.5, a.Peak, 1e-9)
	assert.Equal(t, 0.0, u.Peak)
}

func TestBuildMarkers_RelVowelSum(t *testing.T) {
	shift := 160
	samples := burstSignal(shift, map[[2]int]float32{
		{0, 4}:   0.6,
		{10, 14}: 0.2,
		{20, 24}: 0.4,
	})

	markers, err := BuildMarkers([]alignment.PendingVowel{
		vowel("A", 0, 4),
		vowel("A", 10, 14),
		vowel("O", 20, 24),
		vowel("E", 30, 34),
	}, samples, shift)
	require.NoError(t, err)

	assert.InDelta(t, 0.75, markers[0].RelVowelSum, 1e-6)
	assert.InDelta(t, 0.25, markers[1].RelVowelSum, 1e-6)
	assert.InDelta(t, 1.0, markers[2].RelVowelSum, 1e-6, "only member of its group")
	assert.Equal(t, 0.0, markers[3].RelVowelSum, "silent group has no share")

	var sum float64
	for _, m := range markers {
		sum += m.RelSum
	}
	assert.InDelta(t, 1.0, sum, 1e-6)
}

func TestBuildMarkers_ClampsPastEnd(t *testing.T) {
	samples := make([]float32, testRate)
	markers, err := BuildMarkers([]alignment.PendingVowel{vowel("O", 200, 210)}, samples, 160)
	require.NoError(t, err)
	require.Len(t, markers, 1)

	assert.Equal(t, testRate-1, markers[0].SampleOffset)
	assert.Equal(t, 0.0, markers[0].RMS)
	assert.Equal(t, 0.0, markers[0].RelMax)
	assert.Equal(t, 0.0, markers[0].RelSum)
}

func TestBuildMarkers_Errors(t *testing.T) {
	_, err := BuildMarkers([]alignment.PendingVowel{vowel("A", 0, 4)}, nil, 160)
	assert.ErrorIs(t, err, ErrNoSamples)

	_, err = BuildMarkers(nil, make([]float32, 10), 0)
	assert.ErrorIs(t, err, ErrInvalidShift)

	markers, err := BuildMarkers(nil, make([]float32, 10), 160)
	require.NoError(t, err)
	assert.Empty(t, markers)
}

func TestSummarize(t *testing.T) {
	s := Summarize([]VowelMarker{{RMS: 0.2}, {RMS: 0.5}, {RMS: 0.1}})
	assert.Equal(t, 3, s.Count)
	assert.InDelta(t, 0.8, s.SumRMS, 1e-9)
	assert.InDelta(t, 0.5, s.MaxRMS, 1e-9)
}
