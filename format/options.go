package format

import "fmt"

// Column width limits for Raw and ASCII rendering.
const (
	MinWidth     = 1
	MaxWidth     = 128
	DefaultWidth = 8
)

// Mode selects how bytes are rendered.
type Mode int

const (
	// Raw renders every byte as a numeric cell in a fixed-width grid.
	Raw Mode = iota
	// ASCII renders printable text verbatim and escapes everything else.
	ASCII
	// MIDI renders numeric cells and starts a line at every status byte.
	MIDI
)

func (m Mode) String() string {
	switch m {
	case Raw:
		return "raw"
	case ASCII:
		return "ascii"
	case MIDI:
		return "midi"
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// ParseMode converts "raw", "ascii" or "midi" to a Mode.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "raw", "":
		return Raw, nil
	case "ascii":
		return ASCII, nil
	case "midi":
		return MIDI, nil
	}
	return Raw, fmt.Errorf("unknown render mode %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *Mode) UnmarshalText(text []byte) error {
	parsed, err := ParseMode(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// Options controls rendering. It is fixed for the lifetime of a Formatter.
type Options struct {
	Mode Mode `yaml:"mode"`
	// Width is the number of cells per Raw line and the longest ASCII
	// escape run kept on one line. Unused in MIDI mode.
	Width int `yaml:"width"`

	// SingleLine redraws in place with a screen clear instead of a newline.
	SingleLine bool `yaml:"single_line"`
	// Color applies to MIDI status cells and ASCII escapes.
	Color bool `yaml:"color"`
	// Decimal selects base 10 cells and escapes instead of hexadecimal.
	Decimal bool `yaml:"decimal"`
	// ZeroPad pads Raw and MIDI cells with zeros instead of spaces.
	ZeroPad bool `yaml:"zero_pad"`

	Timestamp    bool `yaml:"timestamp"`
	DeltaNanos   bool `yaml:"delta_ns"`
	DeltaSeconds bool `yaml:"delta_seconds"`
}

// Stamped reports whether line starts carry a time prefix.
func (o Options) Stamped() bool {
	return o.Timestamp || o.DeltaNanos || o.DeltaSeconds
}
