// Package audio loads the mono sample buffer that vowel markers are measured
// against.
package audio

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// Common errors
var (
	ErrInvalidFormat = errors.New("invalid audio format")
	ErrNoChannels    = errors.New("audio has no channels")
)

// Buffer is a read-only mono sample buffer in [-1, 1]
type Buffer struct {
	SampleRate int       `json:"sample_rate"`
	Samples    []float32 `json:"-"`
}

// TotalSamples returns the number of mono samples
func (b *Buffer) TotalSamples() int {
	if b == nil {
		return 0
	}
	return len(b.Samples)
}

// Duration returns the playback length of the buffer
func (b *Buffer) Duration() time.Duration {
	if b == nil || b.SampleRate <= 0 {
		return 0
	}
	return time.Duration(float64(len(b.Samples)) / float64(b.SampleRate) * float64(time.Second))
}

// LoadWAV reads a PCM WAV file and downmixes it to mono
func LoadWAV(path string) (*Buffer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open audio file: %w", err)
	}
	defer f.Close()
	return DecodeWAV(f)
}

// DecodeWAV reads a PCM WAV stream and downmixes it to mono
func DecodeWAV(r io.ReadSeeker) (*Buffer, error) {
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("%w: not a valid wav file", ErrInvalidFormat)
	}

	pcm, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("read pcm buffer: %w", err)
	}
	return FromIntBuffer(pcm)
}

// FromIntBuffer converts interleaved integer PCM into a mono float buffer by
// averaging the channels of each sample frame.
func FromIntBuffer(pcm *goaudio.IntBuffer) (*Buffer, error) {
	if pcm == nil || pcm.Format == nil {
		return nil, ErrInvalidFormat
	}
	channels := pcm.Format.NumChannels
	if channels <= 0 {
		return nil, ErrNoChannels
	}
	if pcm.Format.SampleRate <= 0 {
		return nil, fmt.Errorf("%w: sample rate %d", ErrInvalidFormat, pcm.Format.SampleRate)
	}

	bitDepth := pcm.SourceBitDepth
	if bitDepth <= 0 {
		bitDepth = 16
	}
	// 8-bit WAV is unsigned, everything wider is signed
	scale := float64(int64(1) << (bitDepth - 1))
	offset := 0.0
	if bitDepth == 8 {
		offset = scale
	}

	frames := len(pcm.Data) / channels
	samples := make([]float32, frames)
	for i := 0; i < frames; i++ {
		var sum float64
		for c := 0; c < channels; c++ {
			sum += (float64(pcm.Data[i*channels+c]) - offset) / scale
		}
		samples[i] = float32(sum / float64(channels))
	}

	return &Buffer{SampleRate: pcm.Format.SampleRate, Samples: samples}, nil
}
