package serial

import (
	"errors"

	"golang.org/x/sys/unix"
)

// Session operations reported in DeviceError.Op.
const (
	OpOpen      = "open"
	OpLock      = "lock"
	OpConfigure = "configure"
	OpRead      = "read"
	OpClose     = "close"
)

var (
	// ErrOpen matches any failure to open the device node.
	ErrOpen = errors.New("serial: open failed")
	// ErrLock matches any failure to take the advisory lock.
	ErrLock = errors.New("serial: lock failed")
	// ErrBusy matches a lock failure caused by another holder of the lock.
	ErrBusy = errors.New("serial: device busy")
	// ErrConfig matches any failure to apply line settings.
	ErrConfig = errors.New("serial: configure failed")
	// ErrUnsupportedBaud is wrapped by Configure for rates outside BaudRates.
	ErrUnsupportedBaud = errors.New("serial: unsupported baud rate")
	// ErrRead matches a fatal read failure.
	ErrRead = errors.New("serial: read failed")

	// ErrReadTimeout is returned by Read when the line went idle for longer
	// than the inter-byte timer and the driver returned zero bytes.
	ErrReadTimeout = errors.New("serial: read timeout")
	// ErrInterrupted is returned by Read after Interrupt has been called.
	ErrInterrupted = errors.New("serial: read interrupted")
)

// DeviceError records a failed session operation on a device path.
type DeviceError struct {
	Op   string
	Path string
	Err  error
}

func (e *DeviceError) Error() string {
	return "serial: " + e.Op + " " + e.Path + ": " + e.Err.Error()
}

func (e *DeviceError) Unwrap() error { return e.Err }

// Is lets errors.Is match a DeviceError against the operation sentinels.
func (e *DeviceError) Is(target error) bool {
	switch target {
	case ErrOpen:
		return e.Op == OpOpen
	case ErrLock:
		return e.Op == OpLock
	case ErrBusy:
		return e.Op == OpLock && errors.Is(e.Err, unix.EWOULDBLOCK)
	case ErrConfig:
		return e.Op == OpConfigure
	case ErrRead:
		return e.Op == OpRead
	}
	return false
}

// IsUnavailable reports whether err means the device was never acquired:
// it could not be opened or its lock could not be taken. Nothing needs to be
// unlocked after such a failure.
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrOpen) || errors.Is(err, ErrLock)
}
