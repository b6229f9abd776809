// Package capture drives a device read loop: every chunk read is rendered
// byte by byte for the display and copied verbatim to an optional sink.
package capture

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	serial "github.com/luhtfiimanal/go-linux-ttydump"
)

// ChunkSize is the largest single read handed to the formatter.
const ChunkSize = 255

// Source yields raw bytes. *serial.Session implements it; Read reports
// serial.ErrInterrupted and serial.ErrReadTimeout as clean stops.
type Source interface {
	Read(buf []byte) (int, error)
}

// Renderer appends the display form of one byte. *format.Formatter
// implements it.
type Renderer interface {
	Append(dst []byte, b byte) []byte
}

// Stop says why Run returned.
type Stop int

const (
	// StopFailed means a read, display or sink error ended the loop.
	StopFailed Stop = iota
	// StopInterrupted means the source was interrupted on request.
	StopInterrupted
	// StopTimeout means the line went idle and the driver returned no data.
	StopTimeout
)

func (s Stop) String() string {
	switch s {
	case StopFailed:
		return "failed"
	case StopInterrupted:
		return "interrupted"
	case StopTimeout:
		return "timeout"
	}
	return fmt.Sprintf("Stop(%d)", int(s))
}

// Loop owns the source, the display and the sink for the life of a capture.
type Loop struct {
	Source   Source
	Renderer Renderer
	// Display receives the rendered text, normally stderr.
	Display io.Writer
	// Sink, if set, receives an exact copy of every byte read.
	Sink   io.Writer
	Logger *slog.Logger

	bytes int64
}

type flusher interface {
	Flush() error
}

// Run reads until the source stops. After each chunk Display and Sink are
// flushed if they implement Flush() error. The error is nil unless the stop
// is StopFailed.
func (l *Loop) Run() (Stop, error) {
	logger := l.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	buf := make([]byte, ChunkSize)
	out := make([]byte, 0, ChunkSize*8)
	for {
		n, err := l.Source.Read(buf)
		switch {
		case errors.Is(err, serial.ErrInterrupted):
			// Leave the cursor on a fresh line
			io.WriteString(l.Display, "\n")
			l.flush()
			logger.Debug("capture interrupted", "bytes", l.bytes)
			return StopInterrupted, nil
		case errors.Is(err, serial.ErrReadTimeout):
			l.flush()
			logger.Info("read timeout", "bytes", l.bytes)
			return StopTimeout, nil
		case err != nil:
			l.flush()
			return StopFailed, err
		}

		chunk := buf[:n]
		out = out[:0]
		for _, b := range chunk {
			out = l.Renderer.Append(out, b)
		}
		l.bytes += int64(n)

		// The sink gets every byte read even if the display fails.
		if l.Sink != nil {
			if _, err := l.Sink.Write(chunk); err != nil {
				return StopFailed, fmt.Errorf("write sink: %w", err)
			}
		}
		if _, err := l.Display.Write(out); err != nil {
			l.flush()
			return StopFailed, fmt.Errorf("write display: %w", err)
		}
		if err := l.flush(); err != nil {
			return StopFailed, err
		}
	}
}

// Bytes returns the number of bytes read so far.
func (l *Loop) Bytes() int64 { return l.bytes }

func (l *Loop) flush() error {
	var first error
	if f, ok := l.Sink.(flusher); ok {
		if err := f.Flush(); err != nil {
			first = fmt.Errorf("flush sink: %w", err)
		}
	}
	if f, ok := l.Display.(flusher); ok {
		if err := f.Flush(); err != nil && first == nil {
			first = fmt.Errorf("flush display: %w", err)
		}
	}
	return first
}
