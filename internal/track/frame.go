// Package track holds the 60 fps viseme track: synthesis from vowel markers
// and the comma separated track file format.
package track

import (
	"errors"
	"fmt"
)

// FrameRate is the output rate of every track
const FrameRate = 60

// Column indexes, in table and file order
const (
	ColFrameIndex = iota
	ColMsec
	ColWidth
	ColHeight
	ColTongue
	ColA
	ColI
	ColU
	ColE
	ColO
	ColN
	ColVolDB
	columnCount
)

// Columns are the column names in table order
var Columns = []string{
	"frameIndex", "msec", "width", "height", "tongue",
	"A", "I", "U", "E", "O", "N", "vol_dB",
}

// ErrUnknownColumn is returned for a column index outside the table
var ErrUnknownColumn = errors.New("unknown track column")

// FrameRow is one 1/60 s tick of the viseme track.
// Width, Height and Tongue are reserved for mouth-shape drivers and stay 0.
type FrameRow struct {
	FrameIndex int     `json:"frame_index"`
	Msec       int     `json:"msec"`
	Width      float64 `json:"width"`
	Height     float64 `json:"height"`
	Tongue     float64 `json:"tongue"`
	A          float64 `json:"a"`
	I          float64 `json:"i"`
	U          float64 `json:"u"`
	E          float64 `json:"e"`
	O          float64 `json:"o"`
	N          float64 `json:"n"`
	VolDB      float64 `json:"vol_db"`
}

// ColumnIndex returns the index of a column name, or -1
func ColumnIndex(name string) int {
	for i, c := range Columns {
		if c == name {
			return i
		}
	}
	return -1
}

func (r *FrameRow) field(column int) *float64 {
	switch column {
	case ColWidth:
		return &r.Width
	case ColHeight:
		return &r.Height
	case ColTongue:
		return &r.Tongue
	case ColA:
		return &r.A
	case ColI:
		return &r.I
	case ColU:
		return &r.U
	case ColE:
		return &r.E
	case ColO:
		return &r.O
	case ColN:
		return &r.N
	case ColVolDB:
		return &r.VolDB
	}
	return nil
}

// Value reads a column by index
func (r FrameRow) Value(column int) (float64, error) {
	switch column {
	case ColFrameIndex:
		return float64(r.FrameIndex), nil
	case ColMsec:
		return float64(r.Msec), nil
	}
	if p := r.field(column); p != nil {
		return *p, nil
	}
	return 0, fmt.Errorf("%w: %d", ErrUnknownColumn, column)
}

// Set writes a column by index. Integer columns truncate the value.
func (r *FrameRow) Set(column int, value float64) error {
	switch column {
	case ColFrameIndex:
		r.FrameIndex = int(value)
		return nil
	case ColMsec:
		r.Msec = int(value)
		return nil
	}
	p := r.field(column)
	if p == nil {
		return fmt.Errorf("%w: %d", ErrUnknownColumn, column)
	}
	*p = value
	return nil
}

// vowelChannel maps a vowel letter to its channel column
func vowelChannel(vowel string) int {
	switch vowel {
	case "A":
		return ColA
	case "I":
		return ColI
	case "U":
		return ColU
	case "E":
		return ColE
	case "O":
		return ColO
	case "N":
		return ColN
	}
	return -1
}

// IsSilent reports whether all six vowel channels are exactly zero
func (r FrameRow) IsSilent() bool {
	return r.A == 0 && r.I == 0 && r.U == 0 && r.E == 0 && r.O == 0 && r.N == 0
}

// holdFrom copies the vowel channels and volume of a voiced row
func (r *FrameRow) holdFrom(voiced FrameRow) {
	r.A, r.I, r.U, r.E, r.O, r.N = voiced.A, voiced.I, voiced.U, voiced.E, voiced.O, voiced.N
	r.VolDB = voiced.VolDB
}

// Voiced counts the rows with at least one non-zero vowel channel
func Voiced(rows []FrameRow) int {
	n := 0
	for _, r := range rows {
		if !r.IsSilent() {
			n++
		}
	}
	return n
}
