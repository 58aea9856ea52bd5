package track

import (
	"errors"
	"math"

	"github.com/normanking/cortexlip/internal/acoustic"
)

// ErrInvalidRate is returned when the sample rate or frame shift is not positive
var ErrInvalidRate = errors.New("sample rate and frame shift must be positive")

// Options configures one synthesis run
type Options struct {
	SampleRate   int
	TotalSamples int
	ShiftSamples int

	// SilenceCorrection holds the last voiced row over silent rows
	SilenceCorrection bool
}

// FrameCount returns ceil(duration * FrameRate)
func FrameCount(totalSamples, sampleRate int) int {
	if totalSamples <= 0 || sampleRate <= 0 {
		return 0
	}
	totalSec := float64(totalSamples) / float64(sampleRate)
	return int(math.Ceil(totalSec * FrameRate))
}

// Synthesize produces one row per 1/60 s tick over the whole audio.
// Each row takes its vowel channel and volume from the first marker whose
// frame range contains the tick's recognizer frame. An empty marker list
// yields an all-zero track.
func Synthesize(markers []acoustic.VowelMarker, opts Options) ([]FrameRow, error) {
	if opts.SampleRate <= 0 || opts.ShiftSamples <= 0 {
		return nil, ErrInvalidRate
	}

	count := FrameCount(opts.TotalSamples, opts.SampleRate)
	rows := make([]FrameRow, 0, count)

	var last FrameRow
	hasLast := false

	for f := 0; f < count; f++ {
		tSec := float64(f) / FrameRate
		native := int(math.Floor(tSec * float64(opts.SampleRate) / float64(opts.ShiftSamples)))

		row := FrameRow{
			FrameIndex: f,
			Msec:       int(math.Round(tSec * 1000)),
		}

		for _, m := range markers {
			if m.FromFrame <= native && native <= m.ToFrame {
				if ch := vowelChannel(m.Vowel); ch >= 0 {
					_ = row.Set(ch, m.RelMax)
				}
				row.VolDB = m.DBFS
				break
			}
		}

		if opts.SilenceCorrection {
			silent := row.IsSilent()
			if silent && hasLast {
				row.holdFrom(last)
			} else if !silent {
				last = row
				hasLast = true
			}
		}

		rows = append(rows, row)
	}

	return rows, nil
}
