// Command ttydump displays bytes read from a serial device as a hex or
// decimal grid, as escaped ASCII text, or as one MIDI message per line,
// and can copy the raw stream to a file.
//
// The rendering goes to stderr so stdout redirection does not disturb the
// live view. Press Ctrl+C to stop.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	serial "github.com/luhtfiimanal/go-linux-ttydump"
	"github.com/luhtfiimanal/go-linux-ttydump/capture"
	"github.com/luhtfiimanal/go-linux-ttydump/clock"
	"github.com/luhtfiimanal/go-linux-ttydump/config"
	"github.com/luhtfiimanal/go-linux-ttydump/format"
)

// Process exit codes.
const (
	exitOK = 0
	// exitUnlocked: the device could not be opened or locked.
	exitUnlocked = 1
	// exitLocked: the device was locked but configuring or reading it failed.
	exitLocked = 2
	exitUsage  = 64
	// exitOutput: the raw output file could not be created.
	exitOutput = 73
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

type flags struct {
	set *pflag.FlagSet

	configPath string
	logLevel   string
	help       bool

	device string
	baud   int
	output string
	width  int

	singleLine, color, decimal, zeroPad bool
	timestamp, deltaNanos, deltaSeconds bool
	ascii, midi                         bool
}

func newFlags(stderr io.Writer) *flags {
	f := &flags{set: pflag.NewFlagSet("ttydump", pflag.ContinueOnError)}
	fs := f.set
	fs.SetOutput(stderr)
	fs.SortFlags = false

	fs.StringVarP(&f.device, "device", "p", "", "device path (required, example: /dev/ttyUSB0)")
	fs.IntVarP(&f.baud, "baud", "b", serial.DefaultBaudRate, "baud rate")
	fs.StringVarP(&f.output, "output", "o", "", "binary output file path")
	fs.IntVarP(&f.width, "width", "w", format.DefaultWidth,
		fmt.Sprintf("column width, %d-%d bytes", format.MinWidth, format.MaxWidth))
	fs.BoolVarP(&f.singleLine, "single-line", "x", false, "single line output")
	fs.BoolVarP(&f.color, "color", "c", false, "color output (default on when no display option is given)")
	fs.BoolVarP(&f.decimal, "decimal", "d", false, "decimal output")
	fs.BoolVarP(&f.zeroPad, "zero", "z", false, "zero prefix output")
	fs.BoolVarP(&f.timestamp, "timestamp", "t", false, "show timestamp")
	fs.BoolVarP(&f.deltaNanos, "delta-ns", "n", false, "show time delta (ns)")
	fs.BoolVarP(&f.deltaSeconds, "delta-sec", "s", false, "show time delta (sec)")
	fs.BoolVarP(&f.ascii, "ascii", "a", false, "ASCII output format")
	fs.BoolVarP(&f.midi, "midi", "m", false, "MIDI output format")
	fs.StringVar(&f.configPath, "config", "", "YAML config file; flags override its values")
	fs.StringVar(&f.logLevel, "log-level", "info", "log level: debug, info, warn, error")
	fs.BoolVarP(&f.help, "help", "h", false, "show command help")
	return f
}

// apply overlays every flag given on the command line onto cfg.
func (f *flags) apply(cfg *config.Config) error {
	changed := f.set.Changed
	if f.ascii && f.midi {
		return &config.UsageError{Problems: []string{"'-a' (ASCII) and '-m' (MIDI) output formats are exclusive"}}
	}

	if changed("device") {
		cfg.Device = f.device
	}
	if changed("baud") {
		cfg.BaudRate = f.baud
	}
	if changed("output") {
		cfg.Output = f.output
	}
	if changed("width") {
		cfg.Format.Width = f.width
	}
	switch {
	case f.ascii:
		cfg.Format.Mode = format.ASCII
	case f.midi:
		cfg.Format.Mode = format.MIDI
	}

	o := &cfg.Format
	o.SingleLine = o.SingleLine || f.singleLine
	o.Color = o.Color || f.color
	o.Decimal = o.Decimal || f.decimal
	o.ZeroPad = o.ZeroPad || f.zeroPad
	o.Timestamp = o.Timestamp || f.timestamp
	o.DeltaNanos = o.DeltaNanos || f.deltaNanos
	o.DeltaSeconds = o.DeltaSeconds || f.deltaSeconds
	return nil
}

func printUsage(w io.Writer, fs *pflag.FlagSet) {
	fmt.Fprintf(w, `ttydump: display bytes read from a serial device.

Usage:
  ttydump -p DEVICE [options]

Options:
%s
Supported baud rates: %v
`, fs.FlagUsages(), serial.BaudRates())
}

// run executes the command and returns the process exit code. Resources are
// released by deferred calls before it returns.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	f := newFlags(stderr)
	if len(args) == 0 {
		printUsage(stdout, f.set)
		return exitOK
	}
	if err := f.set.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			printUsage(stdout, f.set)
			return exitOK
		}
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitUsage
	}
	if f.help {
		printUsage(stdout, f.set)
		return exitOK
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(f.logLevel)); err != nil {
		fmt.Fprintf(stderr, "Error: --log-level: %v\n", err)
		return exitUsage
	}
	logger := newLogger(stderr, level)

	if extra := f.set.Args(); len(extra) > 0 {
		logger.Error("unexpected argument", "argument", extra[0])
		return exitUsage
	}

	cfg := config.Defaults()
	if f.configPath != "" {
		loaded, err := config.Load(f.configPath)
		if err != nil {
			logger.Error("couldn't load config", "path", f.configPath, "error", err)
			return exitUsage
		}
		cfg = loaded
	}
	if err := f.apply(cfg); err != nil {
		logger.Error("invalid options", "error", err)
		return exitUsage
	}

	if cfg.Format.Mode == format.MIDI && f.set.Changed("width") {
		logger.Warn("'-w' (column width) does not apply to '-m' (MIDI) output")
	}
	for _, warning := range config.Warnings(cfg) {
		logger.Warn(warning)
	}
	config.Normalize(cfg)
	if err := config.Validate(cfg); err != nil {
		logger.Error("invalid options", "error", err)
		printUsage(stderr, f.set)
		return exitUsage
	}
	logger.Debug("configuration", "device", cfg.Device, "baud", cfg.BaudRate,
		"mode", cfg.Format.Mode, "width", cfg.Format.Width, "output", cfg.Output)

	return stream(ctx, cfg, logger, stderr)
}

// stream opens the sink and the device, streams until interrupted, and
// tears everything down.
func stream(ctx context.Context, cfg *config.Config, logger *slog.Logger, display io.Writer) int {
	var sink io.Writer
	if cfg.Output != "" {
		logger.Info("opening output file", "path", cfg.Output)
		file, err := os.Create(cfg.Output)
		if err != nil {
			logger.Error("couldn't open output file", "path", cfg.Output, "error", err)
			return exitOutput
		}
		buffered := bufio.NewWriter(file)
		defer func() {
			if err := buffered.Flush(); err != nil {
				logger.Error("couldn't flush output file", "path", cfg.Output, "error", err)
			}
			file.Close()
		}()
		sink = buffered
	}

	logger.Info("opening device", "device", cfg.Device, "baud", cfg.BaudRate)
	sess, err := serial.Open(cfg.Device, logger)
	if err != nil {
		logger.Error("couldn't open device", "device", cfg.Device, "error", err)
		return exitUnlocked
	}
	defer sess.Close()

	if err := sess.Lock(); err != nil {
		logger.Error("couldn't obtain exclusive lock", "device", cfg.Device, "error", err)
		return exitUnlocked
	}
	if err := sess.Configure(cfg.BaudRate); err != nil {
		logger.Error("couldn't configure device", "device", cfg.Device, "error", err)
		return exitLocked
	}
	logger.Info("opened device", "device", cfg.Device)

	stopInterrupt := context.AfterFunc(ctx, sess.Interrupt)
	defer stopInterrupt()

	loop := &capture.Loop{
		Source:   sess,
		Renderer: format.New(cfg.Format, clock.Real()),
		Display:  bufio.NewWriter(display),
		Sink:     sink,
		Logger:   logger,
	}
	stop, err := loop.Run()
	if stop == capture.StopFailed {
		logger.Error("capture failed", "device", cfg.Device, "error", err)
		return exitLocked
	}
	logger.Debug("capture stopped", "reason", stop.String(), "bytes", loop.Bytes())
	return exitOK
}
