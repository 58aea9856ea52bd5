package track

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
)

// Track file layout
const (
	HeaderLines = 3

	// ExportColumns is the row width written on export (N is dropped)
	ExportColumns = 11

	headerFrameRate = "// framerate: 60 [fps]"
	headerLegend    = "// frame count, msec, width(0-1 def=0.000), height(0-1 def=0.000), tongue(0-1 def=0.000), A(0-1), I(0-1), U(0-1), E(0-1), O(0-1), Vol(dB)"
)

// Codec errors
var (
	ErrTooFewColumns = errors.New("too few columns")
	ErrInvalidField  = errors.New("invalid numeric field")
)

// Encoder writes tracks in the comma separated track format
type Encoder struct {
	w         io.Writer
	inputPath string
}

// NewEncoder creates an encoder. inputPath is recorded in the header only.
func NewEncoder(w io.Writer, inputPath string) *Encoder {
	return &Encoder{w: w, inputPath: inputPath}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}

// FormatRow renders one exported row without the trailing newline
func FormatRow(r FrameRow) string {
	fields := []string{
		strconv.Itoa(r.FrameIndex),
		strconv.Itoa(r.Msec),
		formatFloat(r.Width),
		formatFloat(r.Height),
		formatFloat(r.Tongue),
		formatFloat(r.A),
		formatFloat(r.I),
		formatFloat(r.U),
		formatFloat(r.E),
		formatFloat(r.O),
		formatFloat(r.VolDB),
	}
	return strings.Join(fields, ", ")
}

// Encode writes the header followed by one line per row
func (e *Encoder) Encode(rows []FrameRow) error {
	bw := bufio.NewWriter(e.w)

	fmt.Fprintf(bw, "// input: %s\n", e.inputPath)
	fmt.Fprintln(bw, headerFrameRate)
	fmt.Fprintln(bw, headerLegend)

	for _, r := range rows {
		bw.WriteString(FormatRow(r))
		bw.WriteByte('\n')
	}

	if err := bw.Flush(); err != nil {
		return fmt.Errorf("write track: %w", err)
	}
	return nil
}

// ExportFile writes rows to path
func ExportFile(path, inputPath string, rows []FrameRow) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create track file: %w", err)
	}
	if err := NewEncoder(f, inputPath).Encode(rows); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// DecodeOptions controls import strictness
type DecodeOptions struct {
	// Strict rejects a row when any numeric field fails to parse.
	// Otherwise the field is left at 0.
	Strict bool
}

// SkippedLine records a data line that was not imported
type SkippedLine struct {
	Line int    `json:"line"`
	Text string `json:"text"`
	Err  error  `json:"-"`
}

// Reason returns the skip reason as text
func (s SkippedLine) Reason() string {
	if s.Err == nil {
		return ""
	}
	return s.Err.Error()
}

// DecodeReport summarizes an import
type DecodeReport struct {
	HeaderLines int           `json:"header_lines"`
	Rows        int           `json:"rows"`
	Skipped     []SkippedLine `json:"skipped"`
	Coerced     int           `json:"coerced"` // fields left at 0 after a failed parse
}

// Decoder reads tracks in the comma separated track format
type Decoder struct {
	r      io.Reader
	opts   DecodeOptions
	logger zerolog.Logger
}

// NewDecoder creates a decoder
func NewDecoder(r io.Reader, opts DecodeOptions, logger zerolog.Logger) *Decoder {
	return &Decoder{r: r, opts: opts, logger: logger}
}

// Decode skips the header and parses every remaining non-empty line.
// Bad rows are skipped and listed in the report; only read errors abort.
func (d *Decoder) Decode() ([]FrameRow, *DecodeReport, error) {
	scanner := bufio.NewScanner(d.r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	report := &DecodeReport{}
	lineNum := 0

	for report.HeaderLines < HeaderLines {
		if !scanner.Scan() {
			d.logger.Warn().Int("line", lineNum+1).Msg("unexpected EOF while skipping header")
			break
		}
		lineNum++
		report.HeaderLines++
	}

	var rows []FrameRow
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		row, coerced, err := d.parseRow(line, lineNum)
		if err != nil {
			d.logger.Warn().Int("line", lineNum).Err(err).Msg("skipping track row")
			report.Skipped = append(report.Skipped, SkippedLine{Line: lineNum, Text: line, Err: err})
			continue
		}
		report.Coerced += coerced
		rows = append(rows, row)
	}
	if err := scanner.Err(); err != nil {
		return rows, report, fmt.Errorf("read track: %w", err)
	}

	report.Rows = len(rows)
	d.logger.Debug().Int("rows", report.Rows).Int("skipped", len(report.Skipped)).Msg("track decoded")
	return rows, report, nil
}

func splitFields(line string) []string {
	raw := strings.Split(line, ",")
	parts := make([]string, 0, len(raw))
	for _, p := range raw {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return parts
}

// parseRow maps 12+ fields as (..., O, N, vol_dB) and exactly 11 as
// (..., O, vol_dB) with N = 0.
func (d *Decoder) parseRow(line string, lineNum int) (FrameRow, int, error) {
	parts := splitFields(line)
	if len(parts) < ExportColumns {
		return FrameRow{}, 0, fmt.Errorf("%w: got %d, want at least %d", ErrTooFewColumns, len(parts), ExportColumns)
	}

	columns := make([]int, 0, columnCount)
	for c := ColFrameIndex; c <= ColO; c++ {
		columns = append(columns, c)
	}
	if len(parts) >= columnCount {
		columns = append(columns, ColN)
	}
	columns = append(columns, ColVolDB)

	var row FrameRow
	coerced := 0
	for i, col := range columns {
		v, err := parseField(parts[i], col)
		if err != nil {
			if d.opts.Strict {
				return FrameRow{}, 0, fmt.Errorf("%w: %s %q", ErrInvalidField, Columns[col], parts[i])
			}
			d.logger.Debug().Int("line", lineNum).Str("column", Columns[col]).Str("value", parts[i]).Msg("field parse failed, using 0")
			coerced++
			continue
		}
		_ = row.Set(col, v)
	}
	return row, coerced, nil
}

func parseField(s string, column int) (float64, error) {
	if column == ColFrameIndex || column == ColMsec {
		n, err := strconv.Atoi(s)
		return float64(n), err
	}
	return strconv.ParseFloat(s, 64)
}

// ImportFile reads a track file from path
func ImportFile(path string, opts DecodeOptions, logger zerolog.Logger) ([]FrameRow, *DecodeReport, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open track file: %w", err)
	}
	defer f.Close()
	return NewDecoder(f, opts, logger).Decode()
}
