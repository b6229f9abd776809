package serial

import (
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sys/unix"
)

// State is a step of the session lifecycle.
type State int

const (
	StateClosed State = iota
	StateOpened
	StateLocked
	StateConfigured
	StateStreaming
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpened:
		return "opened"
	case StateLocked:
		return "locked"
	case StateConfigured:
		return "configured"
	case StateStreaming:
		return "streaming"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Session owns a receive-only serial device handle.
//
// Lock, Configure, Read and Close must be called from a single goroutine.
// Interrupt may be called from any goroutine.
type Session struct {
	fd     int
	path   string
	state  State
	locked bool
	logger *slog.Logger

	pipeR int // self-pipe read fd
	pipeW int // self-pipe write fd

	mu          sync.Mutex // guards pipeW against Close
	closed      bool
	interrupted bool
	closeOnce   sync.Once
}

// Open opens the device at path read-only without making it the controlling
// terminal. A nil logger discards teardown diagnostics.
func Open(path string, logger *slog.Logger) (*Session, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	// O_NONBLOCK keeps open from waiting on carrier detect.
	fd, err := unix.Open(path, unix.O_RDONLY|unix.O_NOCTTY|unix.O_SYNC|unix.O_NONBLOCK|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, &DeviceError{Op: OpOpen, Path: path, Err: err}
	}

	// Reads block from here on.
	if err := unix.SetNonblock(fd, false); err != nil {
		unix.Close(fd)
		return nil, &DeviceError{Op: OpOpen, Path: path, Err: err}
	}

	var pipeFds [2]int
	if err := unix.Pipe2(pipeFds[:], unix.O_CLOEXEC); err != nil {
		unix.Close(fd)
		return nil, &DeviceError{Op: OpOpen, Path: path, Err: fmt.Errorf("pipe: %w", err)}
	}

	return &Session{
		fd:     fd,
		path:   path,
		state:  StateOpened,
		logger: logger,
		pipeR:  pipeFds[0],
		pipeW:  pipeFds[1],
	}, nil
}

// Path returns the device path the session was opened with.
func (s *Session) Path() string { return s.path }

// State returns the current lifecycle state.
func (s *Session) State() State { return s.state }

// Lock takes an exclusive flock on the device without waiting. If another
// process holds it the error matches ErrBusy.
func (s *Session) Lock() error {
	if s.state != StateOpened {
		return &DeviceError{Op: OpLock, Path: s.path, Err: fmt.Errorf("session is %s", s.state)}
	}
	if err := unix.Flock(s.fd, unix.LOCK_EX|unix.LOCK_NB); err != nil {
		return &DeviceError{Op: OpLock, Path: s.path, Err: err}
	}
	s.locked = true
	s.state = StateLocked
	return nil
}

// Configure puts the line into raw 8N1 mode at the given baud rate with the
// receiver enabled and modem control lines ignored. Reads then block for at
// least one byte and return early after a tenth of a second of silence.
func (s *Session) Configure(baud int) error {
	speed, ok := baudRates[baud]
	if !ok {
		return &DeviceError{Op: OpConfigure, Path: s.path, Err: fmt.Errorf("%w: %d", ErrUnsupportedBaud, baud)}
	}
	if s.state != StateLocked {
		return &DeviceError{Op: OpConfigure, Path: s.path, Err: fmt.Errorf("session is %s", s.state)}
	}

	termios, err := unix.IoctlGetTermios(s.fd, unix.TCGETS)
	if err != nil {
		return &DeviceError{Op: OpConfigure, Path: s.path, Err: fmt.Errorf("get termios: %w", err)}
	}

	// Raw mode
	termios.Iflag &^= unix.IGNBRK | unix.BRKINT | unix.PARMRK | unix.ISTRIP | unix.INLCR | unix.IGNCR | unix.ICRNL | unix.IXON
	termios.Oflag &^= unix.OPOST
	termios.Lflag &^= unix.ECHO | unix.ECHONL | unix.ICANON | unix.ISIG | unix.IEXTEN
	termios.Cflag &^= unix.CSIZE | unix.PARENB
	termios.Cflag |= unix.CS8 | unix.CREAD | unix.CLOCAL

	// Baud rate
	termios.Cflag &^= unix.CBAUD
	termios.Cflag |= speed
	termios.Ispeed = speed
	termios.Ospeed = speed

	// VMIN=1, VTIME=1: block for the first byte, then return after 100ms idle
	termios.Cc[unix.VMIN] = 1
	termios.Cc[unix.VTIME] = 1

	if err := unix.IoctlSetTermios(s.fd, unix.TCSETS, termios); err != nil {
		return &DeviceError{Op: OpConfigure, Path: s.path, Err: fmt.Errorf("set termios: %w", err)}
	}
	if err := unix.IoctlSetInt(s.fd, unix.TCFLSH, unix.TCIOFLUSH); err != nil {
		return &DeviceError{Op: OpConfigure, Path: s.path, Err: fmt.Errorf("flush: %w", err)}
	}

	s.state = StateConfigured
	return nil
}

// Read blocks until at least one byte is available and reads up to
// len(buf) bytes. It returns ErrInterrupted once Interrupt has been called
// and ErrReadTimeout when the driver reports an idle line with a zero-length
// read. A hang-up and any other failure match ErrRead.
func (s *Session) Read(buf []byte) (int, error) {
	switch s.state {
	case StateConfigured:
		s.state = StateStreaming
	case StateStreaming:
	default:
		return 0, &DeviceError{Op: OpRead, Path: s.path, Err: fmt.Errorf("session is %s", s.state)}
	}

	// Wait for data or an interrupt
	pfd := []unix.PollFd{
		{Fd: int32(s.fd), Events: unix.POLLIN},
		{Fd: int32(s.pipeR), Events: unix.POLLIN},
	}
	for {
		_, err := unix.Poll(pfd, -1)
		if err == unix.EINTR {
			// runtime preemption signal
			continue
		}
		if err != nil {
			return 0, &DeviceError{Op: OpRead, Path: s.path, Err: fmt.Errorf("poll: %w", err)}
		}
		if pfd[1].Revents&unix.POLLIN != 0 {
			// The pipe is left full so every later Read reports the same.
			return 0, ErrInterrupted
		}
		if pfd[0].Revents != 0 {
			break
		}
	}

	// A hung-up line (device unplugged, pty master closed) reads as zero
	// bytes. That is a fault, not an idle line.
	revents := pfd[0].Revents
	hungUp := revents&(unix.POLLHUP|unix.POLLERR|unix.POLLNVAL) != 0
	if hungUp && revents&unix.POLLIN == 0 {
		return 0, &DeviceError{Op: OpRead, Path: s.path, Err: unix.EIO}
	}

	for {
		n, err := unix.Read(s.fd, buf)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return 0, &DeviceError{Op: OpRead, Path: s.path, Err: err}
		}
		if n == 0 {
			if hungUp {
				return 0, &DeviceError{Op: OpRead, Path: s.path, Err: unix.EIO}
			}
			return 0, ErrReadTimeout
		}
		return n, nil
	}
}

// Interrupt wakes a blocked Read, which returns ErrInterrupted. It is safe to
// call from any goroutine, more than once, and after Close.
func (s *Session) Interrupt() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.interrupted {
		return
	}
	s.interrupted = true
	unix.Write(s.pipeW, []byte{1})
}

// Close releases the advisory lock if it is held and closes the device.
// An unlock failure is logged, not returned. Safe to call from any state and
// multiple times; subsequent calls are no-ops.
func (s *Session) Close() error {
	var err error
	s.closeOnce.Do(func() {
		s.mu.Lock()
		defer s.mu.Unlock()

		if s.locked {
			if unlockErr := unix.Flock(s.fd, unix.LOCK_UN); unlockErr != nil {
				s.logger.Warn("couldn't unlock device", "device", s.path, "error", unlockErr)
			}
			s.locked = false
		}
		if closeErr := unix.Close(s.fd); closeErr != nil {
			err = &DeviceError{Op: OpClose, Path: s.path, Err: closeErr}
		}
		unix.Close(s.pipeR)
		unix.Close(s.pipeW)
		s.closed = true
		s.state = StateClosed
	})
	return err
}
