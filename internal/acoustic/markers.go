// Package acoustic measures the energy of aligned vowel segments in the raw
// sample buffer.
package acoustic

import (
	"errors"
	"math"

	"github.com/normanking/cortexlip/internal/alignment"
)

// Common errors
var (
	ErrNoSamples    = errors.New("no waveform samples")
	ErrInvalidShift = errors.New("frame shift must be positive")
)

const (
	// DefaultFrameShiftMs is the recognizer frame shift
	DefaultFrameShiftMs = 10

	// dbfsFloor keeps 20*log10 finite for silent windows
	dbfsFloor = 1e-12

	// fullScale is the dBFS reference amplitude
	fullScale = 1.0
)

// VowelMarker is the acoustic summary of one vowel segment
type VowelMarker struct {
	FromFrame    int     `json:"from_frame" yaml:"from_frame"`
	ToFrame      int     `json:"to_frame" yaml:"to_frame"`
	Frame        int     `json:"frame" yaml:"frame"`                 // mid frame
	SampleOffset int     `json:"sample_offset" yaml:"sample_offset"` // sample index of the mid frame
	NormPos      float64 `json:"norm_pos" yaml:"norm_pos"`           // SampleOffset / total samples
	Vowel        string  `json:"vowel" yaml:"vowel"`
	CV           string  `json:"cv" yaml:"cv"`

	RMS  float64 `json:"rms" yaml:"rms"`
	Peak float64 `json:"peak" yaml:"peak"`
	DBFS float64 `json:"dbfs" yaml:"dbfs"`

	RelMax      float64 `json:"rel_max" yaml:"rel_max"`             // RMS / max RMS of the block
	RelSum      float64 `json:"rel_sum" yaml:"rel_sum"`             // RMS / sum of RMS of the block
	RelVowelSum float64 `json:"rel_vowel_sum" yaml:"rel_vowel_sum"` // RMS / sum of RMS of the same vowel
}

// ShiftSamples converts a frame shift in milliseconds into a sample count for
// the given rate, rounding to the nearest sample. 16 kHz with 10 ms gives 160.
func ShiftSamples(sampleRate, shiftMs int) int {
	return int(math.Round(float64(sampleRate) * float64(shiftMs) / 1000))
}

// RMS returns the root mean square of samples, or 0 for an empty window
func RMS(samples []float32) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sumSq float64
	for _, s := range samples {
		v := float64(s)
		sumSq += v * v
	}
	return math.Sqrt(sumSq / float64(len(samples)))
}

// Peak returns the largest absolute sample value
func Peak(samples []float32) float64 {
	var peak float64
	for _, s := range samples {
		if v := math.Abs(float64(s)); v > peak {
			peak = v
		}
	}
	return peak
}

// DBFS converts a linear amplitude to decibels relative to full scale.
// Silence maps to -240 dB instead of -Inf.
func DBFS(rms float64) float64 {
	return 20 * math.Log10(math.Max(rms, dbfsFloor)/fullScale)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Window returns the sample range [start, end) covered by recognizer frames
// from..to inclusive, clamped to the buffer.
func Window(from, to, shift, total int) (start, end int) {
	start = from * shift
	end = (to + 1) * shift
	if end <= start {
		end = start + shift
	}
	return clamp(start, 0, total), clamp(end, 0, total)
}

// BuildMarkers computes one marker per vowel, in order. It returns
// ErrNoSamples, and no markers, when the buffer is empty.
func BuildMarkers(vowels []alignment.PendingVowel, samples []float32, shift int) ([]VowelMarker, error) {
	total := len(samples)
	if total <= 0 {
		return nil, ErrNoSamples
	}
	if shift <= 0 {
		return nil, ErrInvalidShift
	}

	markers := make([]VowelMarker, 0, len(vowels))
	var sumRMS, maxRMS float64
	groupSum := make(map[string]float64)

	for _, pv := range vowels {
		start, end := Window(pv.FromFrame, pv.ToFrame, shift, total)
		window := samples[start:end]

		rms := RMS(window)
		mid := clamp(pv.MidFrame*shift, 0, total-1)

		markers = append(markers, VowelMarker{
			FromFrame:    pv.FromFrame,
			ToFrame:      pv.ToFrame,
			Frame:        pv.MidFrame,
			SampleOffset: mid,
			NormPos:      float64(mid) / float64(total),
			Vowel:        pv.Vowel,
			CV:           pv.CV,
			RMS:          rms,
			Peak:         Peak(window),
			DBFS:         DBFS(rms),
		})

		sumRMS += rms
		maxRMS = math.Max(maxRMS, rms)
		groupSum[pv.Vowel] += rms
	}

	for i := range markers {
		m := &markers[i]
		if sumRMS > 0 {
			m.RelSum = m.RMS / sumRMS
		}
		if maxRMS > 0 {
			m.RelMax = m.RMS / maxRMS
		}
		if g := groupSum[m.Vowel]; g > 0 {
			m.RelVowelSum = m.RMS / g
		}
	}

	return markers, nil
}

// Stats summarizes a marker set
type Stats struct {
	Count  int
	SumRMS float64
	MaxRMS float64
}

// Summarize returns count, sum and max of the marker RMS values
func Summarize(markers []VowelMarker) Stats {
	s := Stats{Count: len(markers)}
	for _, m := range markers {
		s.SumRMS += m.RMS
		s.MaxRMS = math.Max(s.MaxRMS, m.RMS)
	}
	return s
}
