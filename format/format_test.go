package format

import (
	"math/rand/v2"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luhtfiimanal/go-linux-ttydump/clock"
)

const (
	clr   = "\x1b[1;1H\x1b[2J"
	reset = "\x1b[0m"
)

func render(f *Formatter, input []byte) string {
	var out []byte
	for _, b := range input {
		out = f.Append(out, b)
	}
	return string(out)
}

func TestSequences(t *testing.T) {
	assert.Equal(t, clr, clearScreen)
	assert.Equal(t, reset, colorReset)
	assert.Equal(t, "\x1b[32m", colorEscape)
}

func TestFormatter_Golden(t *testing.T) {
	tests := []struct {
		name  string
		opts  Options
		input []byte
		want  string
	}{
		{
			name:  "raw hex wraps at width",
			opts:  Options{Mode: Raw, Width: 4},
			input: []byte{0, 1, 2, 3, 4, 0xff},
			want:  "\n 0  1  2  3 \n 4 ff ",
		},
		{
			name:  "raw width one breaks before every byte",
			opts:  Options{Mode: Raw, Width: 1},
			input: []byte{1, 2, 3},
			want:  "\n 1 \n 2 \n 3 ",
		},
		{
			name:  "raw zero padded decimal",
			opts:  Options{Mode: Raw, Width: 8, Decimal: true, ZeroPad: true},
			input: []byte{0x41, 7, 255},
			want:  "\n065 007 255 ",
		},
		{
			name:  "raw space padded decimal",
			opts:  Options{Mode: Raw, Width: 8, Decimal: true},
			input: []byte{7, 42},
			want:  "\n  7  42 ",
		},
		{
			name:  "raw zero padded hex",
			opts:  Options{Mode: Raw, Width: 8, ZeroPad: true},
			input: []byte{0x0a, 0xb0},
			want:  "\n0a b0 ",
		},
		{
			name:  "raw single line clears instead of newline",
			opts:  Options{Mode: Raw, Width: 2, SingleLine: true},
			input: []byte{1, 2, 3},
			want:  clr + " 1  2 " + clr + " 3 ",
		},
		{
			name:  "raw ignores color",
			opts:  Options{Mode: Raw, Width: 8, Color: true},
			input: []byte{0x90},
			want:  "\n90 ",
		},
		{
			name:  "ascii transitions",
			opts:  Options{Mode: ASCII, Width: 8},
			input: []byte{0x41, 0x01, 0x42},
			want:  "\nA\n\\x01\nB",
		},
		{
			name:  "ascii printable run stays on one line",
			opts:  Options{Mode: ASCII, Width: 2},
			input: []byte("hello, world"),
			want:  "\nhello, world",
		},
		{
			name:  "ascii escape run wraps at width",
			opts:  Options{Mode: ASCII, Width: 2},
			input: []byte{0x80, 0x81, 0x82},
			want:  "\n\\x80\\x81\n\\x82",
		},
		{
			name:  "ascii stream may start with an escape",
			opts:  Options{Mode: ASCII, Width: 8},
			input: []byte{0x00, 'z'},
			want:  "\n\\x00\nz",
		},
		{
			name:  "ascii backslash is escaped",
			opts:  Options{Mode: ASCII, Width: 8},
			input: []byte(`a\b`),
			want:  "\na\n\\x5c\nb",
		},
		{
			name:  "ascii decimal color escape",
			opts:  Options{Mode: ASCII, Width: 8, Decimal: true, Color: true},
			input: []byte{0x00, 0xc8},
			want:  "\n\x1b[32m\\000" + reset + "\x1b[32m\\200" + reset,
		},
		{
			name:  "ascii zero pad has no effect",
			opts:  Options{Mode: ASCII, Width: 8, ZeroPad: true},
			input: []byte{0x05},
			want:  "\n\\x05",
		},
		{
			name:  "ascii single line clears again after a received newline",
			opts:  Options{Mode: ASCII, Width: 8, SingleLine: true},
			input: []byte("a\nb"),
			want:  clr + "a\n" + clr + "b",
		},
		{
			name:  "ascii newline then escape clears twice",
			opts:  Options{Mode: ASCII, Width: 8, SingleLine: true},
			input: []byte{'\n', 0x1b},
			want:  clr + "\n" + clr + clr + "\\x1b",
		},
		{
			name:  "midi status colours and data resets",
			opts:  Options{Mode: MIDI, Color: true},
			input: []byte{0x90, 0x3c, 0x7f},
			want:  "\n\x1b[32m90 " + reset + "3c " + reset + "7f ",
		},
		{
			name:  "midi colour table",
			opts:  Options{Mode: MIDI, Color: true, ZeroPad: true},
			input: []byte{0x81, 0xb2, 0xd3, 0xe4, 0xa5, 0xf8},
			want: "\n\x1b[35m81 " + "\n\x1b[36mb2 " + "\n\x1b[94md3 " +
				"\n\x1b[93me4 " + "\n" + reset + "a5 " + "\n" + reset + "f8 ",
		},
		{
			name:  "midi width does not apply",
			opts:  Options{Mode: MIDI, Width: 2},
			input: []byte{0xc0, 1, 2, 3, 4},
			want:  "\nc0  1  2  3  4 ",
		},
		{
			name:  "midi leading data bytes share the first line",
			opts:  Options{Mode: MIDI, Decimal: true},
			input: []byte{1, 0x80, 60},
			want:  "  1 \n128  60 ",
		},
		{
			name:  "midi single line",
			opts:  Options{Mode: MIDI, SingleLine: true},
			input: []byte{0x90, 0x40, 0x80, 0x40},
			want:  clr + "90 40 " + clr + "80 40 ",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := New(tt.opts, clock.Fake(time.Unix(0, 0)))
			require.Equal(t, tt.want, render(f, tt.input))
		})
	}
}

func TestFormatter_Prefixes(t *testing.T) {
	start := time.Unix(1_700_000_000, 123)

	t.Run("timestamp", func(t *testing.T) {
		fake := clock.Fake(start)
		f := New(Options{Mode: Raw, Width: 1, Timestamp: true}, fake)
		require.Equal(t, "\n1700000000000000123: 2a ", render(f, []byte{0x2a}))
	})

	t.Run("deltas", func(t *testing.T) {
		fake := clock.Fake(start)
		f := New(Options{Mode: MIDI, DeltaNanos: true, DeltaSeconds: true}, fake)

		out := f.Append(nil, 0x90)
		require.Equal(t, "\n+000000000000: 0.000000: 90 ", string(out))

		fake.Advance(time.Second + 500*time.Millisecond)
		out = f.Append(nil, 0x40)
		require.Equal(t, "40 ", string(out))
		out = f.Append(nil, 0x80)
		require.Equal(t, "\n+001500000000: 1.500000: 80 ", string(out))
	})

	t.Run("negative delta is not clamped", func(t *testing.T) {
		fake := clock.Fake(start)
		f := New(Options{Mode: Raw, Width: 1, DeltaNanos: true}, fake)
		f.Append(nil, 1)
		fake.Advance(-5)
		require.Equal(t, "\n+-00000000005:  2 ", string(f.Append(nil, 2)))
	})

	t.Run("ascii stamps each received line", func(t *testing.T) {
		fake := clock.Fake(start)
		f := New(Options{Mode: ASCII, Width: 8, DeltaNanos: true}, fake)

		var out []byte
		for _, b := range []byte("ab\n") {
			out = f.Append(out, b)
			fake.Advance(5 * time.Millisecond)
		}
		fake.Advance(time.Second)
		out = f.Append(out, 'c')
		require.Equal(t, "\n+000000000000: ab\n+001015000000: c", string(out))
	})
}

func TestFormatter_State(t *testing.T) {
	f := New(Options{Mode: Raw, Width: 8}, nil)
	require.False(t, f.State().HasLast)

	render(f, []byte{9, 8, 7})
	st := f.State()
	require.Equal(t, 3, st.Column)
	require.True(t, st.HasLast)
	require.Equal(t, byte(7), st.Last)
}

func TestNew_ClampsWidth(t *testing.T) {
	require.Equal(t, DefaultWidth, New(Options{Width: 0}, nil).Options().Width)
	require.Equal(t, MaxWidth, New(Options{Width: 1000}, nil).Options().Width)
	require.Equal(t, 5, New(Options{Width: 5}, nil).Options().Width)
}

func randomBytes(r *rand.Rand, n int) []byte {
	out := make([]byte, n)
	for i := range out {
		out[i] = byte(r.IntN(256))
	}
	return out
}

func TestRaw_BreaksEveryWidthBytes(t *testing.T) {
	r := rand.New(rand.NewPCG(1, 2))
	for range 50 {
		width := 1 + r.IntN(MaxWidth)
		input := randomBytes(r, r.IntN(600))
		f := New(Options{Mode: Raw, Width: width, ZeroPad: r.IntN(2) == 0, Decimal: r.IntN(2) == 0}, nil)

		lines := strings.Split(render(f, input), "\n")
		if len(input) == 0 {
			require.Equal(t, []string{""}, lines)
			continue
		}
		require.Empty(t, lines[0])
		lines = lines[1:]
		for i, line := range lines {
			cells := len(strings.Fields(line))
			if i == len(lines)-1 {
				require.LessOrEqual(t, cells, width)
				require.Positive(t, cells)
			} else {
				require.Equal(t, width, cells)
			}
		}
		require.Equal(t, (len(input)+width-1)/width, len(lines))
	}
}

func TestMIDI_BreaksOnlyOnStatus(t *testing.T) {
	r := rand.New(rand.NewPCG(3, 4))
	for range 50 {
		input := randomBytes(r, r.IntN(400))
		f := New(Options{Mode: MIDI}, nil)

		for i, b := range input {
			frag := f.Append(nil, b)
			broke := strings.HasPrefix(string(frag), "\n")
			require.Equal(t, IsStatus(b), broke, "byte %d (%#02x)", i, b)
			require.Equal(t, strings.Count(string(frag), "\n"), btoi(IsStatus(b)))

			v, err := strconv.ParseUint(strings.TrimSpace(string(frag)), 16, 8)
			require.NoError(t, err)
			require.Equal(t, uint64(b), v)
		}
	}
}

func TestASCII_RunProperties(t *testing.T) {
	r := rand.New(rand.NewPCG(5, 6))
	for range 50 {
		input := randomBytes(r, r.IntN(400))
		f := New(Options{Mode: ASCII, Width: 1 + r.IntN(16)}, nil)

		for i, b := range input {
			frag := string(f.Append(nil, b))
			prevPrintable := i > 0 && IsPrintable(input[i-1])
			switch {
			case IsPrintable(b) && prevPrintable:
				// Verbatim with no break of its own
				require.Equal(t, string(b), frag)
			case !IsPrintable(b) && (i == 0 || prevPrintable):
				require.True(t, strings.HasPrefix(frag, "\n"), "escape at %d must start a line", i)
			}
		}
	}
}

func TestASCII_PrintableOnlyStream(t *testing.T) {
	input := []byte("The quick brown fox jumps over the lazy dog 0123456789 ~!@#$%^&*()")
	f := New(Options{Mode: ASCII, Width: 1}, nil)
	require.Equal(t, "\n"+string(input), render(f, input))
}

func TestIsPrintable(t *testing.T) {
	for _, b := range []byte{' ', 'a', '~', '\t', '\n', '\r', '\v', '\f'} {
		assert.True(t, IsPrintable(b), "%#02x", b)
	}
	for _, b := range []byte{'\\', 0x00, 0x07, 0x1b, 0x7f, 0x80, 0xff} {
		assert.False(t, IsPrintable(b), "%#02x", b)
	}
}

func TestParseMode(t *testing.T) {
	for _, m := range []Mode{Raw, ASCII, MIDI} {
		got, err := ParseMode(m.String())
		require.NoError(t, err)
		require.Equal(t, m, got)
	}
	_, err := ParseMode("hex")
	require.Error(t, err)

	var m Mode
	require.NoError(t, m.UnmarshalText([]byte("midi")))
	require.Equal(t, MIDI, m)
}

func btoi(b bool) int {
	if b {
		return 1
	}
	return 0
}
