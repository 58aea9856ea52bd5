package alignment

import (
	"bytes"
	"sync"
)

// LineBuffer turns arbitrary output chunks into complete lines. Bytes after
// the last newline are held until the next Write or Flush.
type LineBuffer struct {
	mu      sync.Mutex
	partial []byte
	emit    func(line []byte)
}

// NewLineBuffer creates a buffer that calls emit once per complete line,
// without the line terminator. emit must not retain the slice.
func NewLineBuffer(emit func(line []byte)) *LineBuffer {
	return &LineBuffer{emit: emit}
}

// Write implements io.Writer. It never fails.
func (b *LineBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	data := p
	for {
		i := bytes.IndexByte(data, '\n')
		if i < 0 {
			break
		}
		if len(b.partial) > 0 {
			b.partial = append(b.partial, data[:i]...)
			b.emitLine(b.partial)
			b.partial = b.partial[:0]
		} else {
			b.emitLine(data[:i])
		}
		data = data[i+1:]
	}
	b.partial = append(b.partial, data...)
	return len(p), nil
}

// Flush emits any unterminated trailing line
func (b *LineBuffer) Flush() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.partial) > 0 {
		b.emitLine(b.partial)
		b.partial = b.partial[:0]
	}
}

// Reset drops the unterminated remainder
func (b *LineBuffer) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.partial = b.partial[:0]
}

func (b *LineBuffer) emitLine(line []byte) {
	line = bytes.TrimSuffix(line, []byte{'\r'})
	b.emit(line)
}
