package serialport

import (
	"fmt"
	"time"

	"go.bug.st/serial"

	"github.com/banshee-data/smc-telemetry/internal/telemetry"
)

// PortFactory defines an interface for creating serial ports.
// This abstraction enables dependency injection of serial port creation.
type PortFactory interface {
	// Open opens the port at path. readTimeout bounds every Read; zero blocks.
	Open(path string, opts PortOptions, readTimeout time.Duration) (SerialPorter, error)
}

// RealPortFactory opens hardware ports with go.bug.st/serial.
type RealPortFactory struct{}

// Open implements PortFactory. Failures are telemetry.KindConnection errors.
func (RealPortFactory) Open(path string, opts PortOptions, readTimeout time.Duration) (SerialPorter, error) {
	op := fmt.Sprintf("open %s", path)

	mode, err := opts.SerialMode()
	if err != nil {
		return nil, telemetry.ConnectionError(op, err)
	}

	port, err := serial.Open(path, mode)
	if err != nil {
		return nil, telemetry.ConnectionError(op, err)
	}

	if readTimeout > 0 {
		if err := port.SetReadTimeout(readTimeout); err != nil {
			port.Close()
			return nil, telemetry.ConnectionError(op, fmt.Errorf("set read timeout: %w", err))
		}
	}

	return port, nil
}

// ListPorts returns the serial device names present on this machine.
func ListPorts() ([]string, error) {
	ports, err := serial.GetPortsList()
	if err != nil {
		return nil, fmt.Errorf("list serial ports: %w", err)
	}
	return ports, nil
}
