// Package serial provides a minimal, Linux-only, receive-only serial device
// session designed for live inspection of byte streams from embedded
// devices, MIDI interfaces and other UART peripherals.
//
// A Session walks a strict lifecycle:
//
//	Closed -> Opened -> Locked -> Configured -> Streaming -> Closed
//
// Features:
//   - Raw syscall-based serial I/O on Linux, no buffering delays
//   - Exclusive, non-blocking flock(2) advisory lock on the device
//   - Raw 8N1 line discipline with VMIN=1 / VTIME=1 reads
//   - Self-pipe mechanism so a blocked Read can be interrupted
//   - Teardown that is safe from every intermediate state
//   - PTY-based tests for reliability
//
// The lock is advisory only. It keeps out other tools that follow the same
// flock convention and nothing else.
//
// This package does **not** support Windows.
//
// Example usage:
//
//	sess, err := serial.Open("/dev/ttyUSB0", logger)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer sess.Close()
//
//	if err := sess.Lock(); err != nil {
//	    log.Fatal(err) // serial.ErrBusy when another tool holds the port
//	}
//	if err := sess.Configure(115200); err != nil {
//	    log.Fatal(err)
//	}
//
//	buf := make([]byte, 255)
//	for {
//	    n, err := sess.Read(buf)
//	    if errors.Is(err, serial.ErrInterrupted) {
//	        return // sess.Interrupt() was called from another goroutine
//	    }
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    os.Stderr.Write(buf[:n])
//	}
package serial
