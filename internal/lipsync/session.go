// Package lipsync owns the analysis pipeline for one audio file: recognizer
// log lines in, vowel markers and a 60 fps viseme track out.
package lipsync

import (
	"errors"
	"fmt"
	"sync"

	"github.com/normanking/cortexlip/internal/acoustic"
	"github.com/normanking/cortexlip/internal/alignment"
	"github.com/normanking/cortexlip/internal/audio"
	"github.com/normanking/cortexlip/internal/bus"
	"github.com/normanking/cortexlip/internal/track"
	"github.com/rs/zerolog"
)

// ErrRowOutOfRange is returned by EditCell for a row outside the track
var ErrRowOutOfRange = errors.New("track row out of range")

// Options configures a session
type Options struct {
	AudioPath         string
	FrameShiftMs      int
	Encoding          alignment.Encoding
	SilenceCorrection bool
	StrictImport      bool
}

// DefaultOptions returns the recognizer defaults
func DefaultOptions() Options {
	return Options{
		FrameShiftMs: acoustic.DefaultFrameShiftMs,
		Encoding:     alignment.EncodingAuto,
	}
}

// Session feeds recognizer output through the parser and keeps the latest
// marker set and track. Parsing is serialized; readers may call Markers and
// Track from any goroutine.
type Session struct {
	feedMu sync.Mutex
	parser *alignment.Parser
	lines  *alignment.LineBuffer

	// finalizeMu is taken before feedMu is released, so blocks are
	// installed in the order they were parsed
	finalizeMu sync.Mutex

	mu                sync.RWMutex
	buf               *audio.Buffer
	shift             int
	opts              Options
	silenceCorrection bool
	markers           []acoustic.VowelMarker
	rows              []track.FrameRow
	blocks            int

	eventBus *bus.EventBus
	logger   zerolog.Logger
}

// NewSession creates a session over a loaded audio buffer. A nil buffer is
// treated as empty audio. eventBus may be nil.
func NewSession(buf *audio.Buffer, opts Options, eventBus *bus.EventBus, logger zerolog.Logger) *Session {
	if buf == nil {
		buf = &audio.Buffer{}
	}
	if opts.FrameShiftMs <= 0 {
		opts.FrameShiftMs = acoustic.DefaultFrameShiftMs
	}
	if opts.Encoding == "" {
		opts.Encoding = alignment.EncodingAuto
	}

	s := &Session{
		parser:            alignment.NewParser(logger),
		buf:               buf,
		shift:             acoustic.ShiftSamples(buf.SampleRate, opts.FrameShiftMs),
		opts:              opts,
		silenceCorrection: opts.SilenceCorrection,
		eventBus:          eventBus,
		logger:            logger,
	}
	s.lines = alignment.NewLineBuffer(func(line []byte) {
		s.Feed(alignment.DecodeLogText(line, s.opts.Encoding))
	})
	return s
}

func (s *Session) publish(eventType bus.EventType, data map[string]any) {
	if s.eventBus == nil {
		return
	}
	s.eventBus.PublishSync(bus.Event{Type: eventType, Data: data})
}

// Feed processes one decoded log line. It is safe to call from several
// goroutines; a block that ends later never overwrites a newer one.
func (s *Session) Feed(line string) alignment.Step {
	s.feedMu.Lock()
	step := s.parser.Feed(line)

	if step.Kind == alignment.StepBlockEnd && step.Block != nil {
		s.finalizeMu.Lock()
		s.feedMu.Unlock()
		defer s.finalizeMu.Unlock()

		s.finalize(step.Block)
		return step
	}
	s.feedMu.Unlock()

	if step.Kind == alignment.StepBlockBegin {
		s.publish(bus.EventTypeBlockStarted, nil)
	}
	return step
}

// Write accepts raw recognizer output in arbitrary chunks
func (s *Session) Write(p []byte) (int, error) {
	return s.lines.Write(p)
}

// Flush feeds a trailing line that has no newline
func (s *Session) Flush() {
	s.lines.Flush()
}

// Reset drops block state, as when the recognizer process is killed.
// The current markers and track are kept.
func (s *Session) Reset() {
	s.lines.Reset()
	s.feedMu.Lock()
	s.parser.Reset()
	s.feedMu.Unlock()
}

func (s *Session) finalize(block *alignment.Block) {
	s.mu.RLock()
	samples := s.buf.Samples
	shift := s.shift
	s.mu.RUnlock()

	s.publish(bus.EventTypeBlockFinished, map[string]any{"vowels": len(block.Vowels)})

	markers, err := acoustic.BuildMarkers(block.Vowels, samples, shift)
	if err != nil {
		s.logger.Warn().Err(err).Int("vowels", len(block.Vowels)).Msg("marker build skipped")
		markers = nil
	}
	stats := acoustic.Summarize(markers)
	s.logger.Debug().
		Int("markers", stats.Count).
		Float64("sumRms", stats.SumRMS).
		Float64("maxRms", stats.MaxRMS).
		Msg("markers built")

	s.mu.Lock()
	s.markers = markers
	s.blocks++
	s.mu.Unlock()

	s.publish(bus.EventTypeMarkersBuilt, map[string]any{
		"markers": stats.Count,
		"sum_rms": stats.SumRMS,
		"max_rms": stats.MaxRMS,
	})

	if err := s.Resynthesize(); err != nil {
		s.logger.Warn().Err(err).Msg("track synthesis skipped")
	}
}

// Resynthesize rebuilds the track from the current markers and the current
// silence correction flag.
func (s *Session) Resynthesize() error {
	s.mu.RLock()
	markers := s.markers
	opts := track.Options{
		SampleRate:        s.buf.SampleRate,
		TotalSamples:      s.buf.TotalSamples(),
		ShiftSamples:      s.shift,
		SilenceCorrection: s.silenceCorrection,
	}
	s.mu.RUnlock()

	rows, err := track.Synthesize(markers, opts)
	if err != nil {
		return fmt.Errorf("synthesize track: %w", err)
	}

	s.mu.Lock()
	s.rows = rows
	s.mu.Unlock()

	s.logger.Debug().Int("frames", len(rows)).Bool("silence_correction", opts.SilenceCorrection).Msg("track synthesized")
	s.publish(bus.EventTypeTrackSynthesized, map[string]any{
		"frames":             len(rows),
		"voiced":             track.Voiced(rows),
		"silence_correction": opts.SilenceCorrection,
	})
	return nil
}

// SetSilenceCorrection changes the flag for the next synthesis
func (s *Session) SetSilenceCorrection(enabled bool) {
	s.mu.Lock()
	s.silenceCorrection = enabled
	s.mu.Unlock()
}

// SilenceCorrection returns the current flag
func (s *Session) SilenceCorrection() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.silenceCorrection
}

// LoadTrack installs rows from a track file in place of a synthesized track
func (s *Session) LoadTrack(rows []track.FrameRow) {
	installed := make([]track.FrameRow, len(rows))
	copy(installed, rows)

	s.mu.Lock()
	s.rows = installed
	s.mu.Unlock()

	s.publish(bus.EventTypeTrackImported, map[string]any{"frames": len(installed)})
}

// ImportTrack reads a track file and installs it
func (s *Session) ImportTrack(path string) (*track.DecodeReport, error) {
	rows, report, err := track.ImportFile(path, track.DecodeOptions{Strict: s.opts.StrictImport}, s.logger)
	if err != nil {
		return report, err
	}
	s.LoadTrack(rows)
	s.logger.Info().Str("path", path).Int("rows", report.Rows).Int("skipped", len(report.Skipped)).Msg("track imported")
	return report, nil
}

// ExportTrack writes the current track to path
func (s *Session) ExportTrack(path string) error {
	rows := s.Track()
	if err := track.ExportFile(path, s.opts.AudioPath, rows); err != nil {
		return err
	}
	s.publish(bus.EventTypeTrackExported, map[string]any{"path": path, "frames": len(rows)})
	return nil
}

// EditCell sets one cell of the current track
func (s *Session) EditCell(row, column int, value float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if row < 0 || row >= len(s.rows) {
		return fmt.Errorf("%w: %d", ErrRowOutOfRange, row)
	}
	return s.rows[row].Set(column, value)
}

// Markers returns a copy of the current marker set
func (s *Session) Markers() []acoustic.VowelMarker {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]acoustic.VowelMarker, len(s.markers))
	copy(out, s.markers)
	return out
}

// Track returns a copy of the current track
func (s *Session) Track() []track.FrameRow {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]track.FrameRow, len(s.rows))
	copy(out, s.rows)
	return out
}

// Blocks returns the number of finalized alignment blocks
func (s *Session) Blocks() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.blocks
}

// Audio returns the session's sample buffer
func (s *Session) Audio() *audio.Buffer {
	return s.buf
}
