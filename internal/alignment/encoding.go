package alignment

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/japanese"
)

// Encoding is the byte encoding of recognizer log output
type Encoding string

const (
	EncodingAuto  Encoding = "auto"
	EncodingUTF8  Encoding = "utf-8"
	EncodingCP932 Encoding = "cp932"
)

// ParseEncoding accepts the usual spellings of the supported encodings
func ParseEncoding(s string) (Encoding, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return EncodingAuto, nil
	case "utf-8", "utf8":
		return EncodingUTF8, nil
	case "cp932", "shift_jis", "sjis":
		return EncodingCP932, nil
	}
	return "", fmt.Errorf("unsupported log encoding %q", s)
}

// DecodeLogText converts one raw log line into a string. Japanese builds of
// the recognizer write CP932 while others write UTF-8, so auto mode tries
// UTF-8 first and falls back to CP932 when the bytes are not valid UTF-8 or
// decode to nothing but whitespace.
func DecodeLogText(raw []byte, enc Encoding) string {
	switch enc {
	case EncodingUTF8:
		return strings.ToValidUTF8(string(raw), string(utf8.RuneError))
	case EncodingCP932:
		return decodeCP932(raw)
	}

	if utf8.Valid(raw) && strings.TrimSpace(string(raw)) != "" {
		return string(raw)
	}
	if len(raw) == 0 {
		return ""
	}
	return decodeCP932(raw)
}

func decodeCP932(raw []byte) string {
	out, err := japanese.ShiftJIS.NewDecoder().Bytes(raw)
	if err != nil {
		return string(raw)
	}
	return string(out)
}
