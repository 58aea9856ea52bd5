package acoustic

import (
	"fmt"
	"strconv"
	"strings"
)

// LabelMode selects the text drawn next to a marker
type LabelMode int

const (
	LabelAIUEON LabelMode = iota
	LabelCV
	LabelDBFS
	LabelRelSum
	LabelRelMax
	LabelRelVowelSum
	LabelNormPos
	LabelNone
)

var labelModeNames = map[LabelMode]string{
	LabelAIUEON:      "aiueon",
	LabelCV:          "cv",
	LabelDBFS:        "dbfs",
	LabelRelSum:      "relsum",
	LabelRelMax:      "relmax",
	LabelRelVowelSum: "relvowelsum",
	LabelNormPos:     "normpos",
	LabelNone:        "none",
}

func (m LabelMode) String() string {
	if name, ok := labelModeNames[m]; ok {
		return name
	}
	return "unknown"
}

// ParseLabelMode accepts mode names case-insensitively. Underscores and
// dashes are ignored so "rel_max" and "rel-max" both work.
func ParseLabelMode(s string) (LabelMode, error) {
	key := strings.NewReplacer("_", "", "-", "").Replace(strings.ToLower(strings.TrimSpace(s)))
	for mode, name := range labelModeNames {
		if name == key {
			return mode, nil
		}
	}
	return LabelNone, fmt.Errorf("unknown label mode %q", s)
}

// Label renders the marker label for a mode
func Label(m VowelMarker, mode LabelMode) string {
	switch mode {
	case LabelAIUEON:
		return m.Vowel
	case LabelCV:
		return m.CV
	case LabelDBFS:
		return strconv.FormatFloat(m.DBFS, 'f', 1, 64)
	case LabelRelSum:
		return strconv.FormatFloat(m.RelSum, 'f', 2, 64)
	case LabelRelMax:
		return strconv.FormatFloat(m.RelMax, 'f', 2, 64)
	case LabelRelVowelSum:
		return strconv.FormatFloat(m.RelVowelSum, 'f', 2, 64)
	case LabelNormPos:
		return strconv.FormatFloat(m.NormPos, 'f', 2, 64)
	}
	return ""
}
