// Package serialport opens the robot's serial link and turns its byte stream
// into text lines.
package serialport

import (
	"io"
	"time"
)

// SerialPorter defines the minimal interface needed for a serial port.
// This abstraction enables unit testing without real serial hardware.
type SerialPorter interface {
	io.ReadWriter
	io.Closer
}

// TimeoutSerialPorter extends SerialPorter with timeout capabilities.
// This is an optional interface that serial ports may implement.
type TimeoutSerialPorter interface {
	SerialPorter
	// SetReadTimeout bounds how long Read blocks. A Read that times out
	// returns 0, nil.
	SetReadTimeout(timeout time.Duration) error
}

// InputResetter is implemented by ports that can discard bytes the OS has
// buffered but nobody has read yet.
type InputResetter interface {
	ResetInputBuffer() error
}

// Settle waits for the device to come up after open and then drops whatever
// it printed meanwhile. Opening the port resets most Arduino boards, which
// print a boot banner before streaming telemetry.
func Settle(port SerialPorter, wait time.Duration, sleep func(time.Duration)) error {
	if wait > 0 {
		sleep(wait)
	}
	if r, ok := port.(InputResetter); ok {
		return r.ResetInputBuffer()
	}
	return nil
}
