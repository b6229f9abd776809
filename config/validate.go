package config

import (
	"fmt"
	"strings"

	serial "github.com/luhtfiimanal/go-linux-ttydump"
	"github.com/luhtfiimanal/go-linux-ttydump/format"
)

// UsageError accumulates everything wrong with a Config. Nothing has been
// opened when it is reported.
type UsageError struct {
	Problems []string
}

func (e *UsageError) Error() string {
	if len(e.Problems) == 1 {
		return e.Problems[0]
	}
	return "invalid configuration:\n  - " + strings.Join(e.Problems, "\n  - ")
}

// Add records a formatted problem.
func (e *UsageError) Add(format string, args ...any) {
	e.Problems = append(e.Problems, fmt.Sprintf(format, args...))
}

// HasProblems reports whether any problem has been recorded.
func (e *UsageError) HasProblems() bool {
	return len(e.Problems) > 0
}

// Validate checks cfg without modifying it. It returns a *UsageError listing
// every problem found.
func Validate(cfg *Config) error {
	ue := &UsageError{}

	if cfg.Device == "" {
		ue.Add("device path is required")
	}
	if !serial.SupportedBaud(cfg.BaudRate) {
		ue.Add("unsupported baud rate %d", cfg.BaudRate)
	}

	switch cfg.Format.Mode {
	case format.Raw, format.ASCII:
		if cfg.Format.Width < format.MinWidth || cfg.Format.Width > format.MaxWidth {
			ue.Add("invalid column width %d (%d-%d)", cfg.Format.Width, format.MinWidth, format.MaxWidth)
		}
	case format.MIDI:
	default:
		ue.Add("unknown render mode %s", cfg.Format.Mode)
	}

	if ue.HasProblems() {
		return ue
	}
	return nil
}
