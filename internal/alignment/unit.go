package alignment

import (
	"regexp"
	"strings"
)

// Vowels is the set of phones that produce a segment. N is the moraic nasal.
var Vowels = map[string]struct{}{
	"A": {}, "I": {}, "U": {}, "E": {}, "O": {}, "N": {},
}

// consonantCodes maps recognizer base-phone codes to a romanized consonant.
// Codes not listed fall back to their first character.
var consonantCodes = map[string]string{
	"SH": "SH",
	"CH": "CH",
	"TS": "TS",
	"J":  "J",
	"F":  "F",
	"TH": "TH",
	"KY": "KY",
	"BY": "B",
}

var unitSeparator = regexp.MustCompile(`[-+]`)

// PendingVowel is one vowel segment decoded from the phoneme section of a
// forced-alignment block.
type PendingVowel struct {
	Vowel     string `json:"vowel" yaml:"vowel"`
	FromFrame int    `json:"from_frame" yaml:"from_frame"`
	ToFrame   int    `json:"to_frame" yaml:"to_frame"`
	MidFrame  int    `json:"mid_frame" yaml:"mid_frame"`
	Consonant string `json:"consonant,omitempty" yaml:"consonant,omitempty"`
	CV        string `json:"cv" yaml:"cv"`
}

// ConsonantToRoman converts a base-phone code into the consonant part of a
// CV label.
func ConsonantToRoman(code string) string {
	p := strings.ToUpper(code)
	if roman, ok := consonantCodes[p]; ok {
		return roman
	}
	if p == "" {
		return ""
	}
	return p[:1]
}

// MidFrame returns the center frame of [from, to] using floor division.
func MidFrame(from, to int) int {
	if to > from {
		return from + (to-from)/2
	}
	return from
}

// basePhone returns the part of a sub-phone before the first underscore,
// upper-cased.
func basePhone(part string) string {
	if i := strings.IndexByte(part, '_'); i >= 0 {
		part = part[:i]
	}
	return strings.ToUpper(part)
}

// DecodeUnit turns a recognizer unit token such as "k-a+i" into a vowel
// segment. The second return is false when the center phone is not a vowel.
func DecodeUnit(unit string, from, to int) (PendingVowel, bool) {
	parts := unitSeparator.Split(unit, -1)

	center := parts[0]
	if len(parts) >= 2 {
		center = parts[1]
	}
	ph := basePhone(center)
	if _, ok := Vowels[ph]; !ok {
		return PendingVowel{}, false
	}

	var consonant string
	if len(parts) > 0 {
		left := basePhone(parts[0])
		if left != ph && left != "SP" && left != "SIL" {
			consonant = ConsonantToRoman(left)
		}
	}

	return PendingVowel{
		Vowel:     ph,
		FromFrame: from,
		ToFrame:   to,
		MidFrame:  MidFrame(from, to),
		Consonant: consonant,
		CV:        consonant + ph,
	}, true
}
