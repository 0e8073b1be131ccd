package serialport

import (
	"bytes"
	"errors"
	"io"
	"sync"
	"time"
)

// ErrPortClosed is returned by mock ports after Close.
var ErrPortClosed = errors.New("serial port closed")

// TestableSerialPort implements TimeoutSerialPorter and InputResetter with
// scripted behaviour for testing. Reads drain ReadBuffer; an empty buffer reads
// as a timeout (0, nil) unless EOFWhenDrained is set.
type TestableSerialPort struct {
	mu sync.Mutex

	// ReadBuffer holds data to be returned by Read calls
	ReadBuffer *bytes.Buffer

	// WriteBuffer captures data written to the port
	WriteBuffer *bytes.Buffer

	// ChunkSize limits how many bytes a single Read returns; zero is unlimited
	ChunkSize int

	// EOFWhenDrained makes Read return io.EOF once ReadBuffer is empty
	EOFWhenDrained bool

	// ReadError is returned by the next Read call once ReadBuffer is empty
	ReadError error

	// CloseError is returned by Close if set
	CloseError error

	// Closed indicates whether Close was called
	Closed bool

	// ReadCalls records the number of Read calls
	ReadCalls int

	// Resets records the number of ResetInputBuffer calls
	Resets int

	// ReadTimeout is the current read timeout
	ReadTimeout time.Duration

	// OnRead runs at the start of every Read, outside the lock
	OnRead func(call int)
}

// NewTestableSerialPort creates a new TestableSerialPort for testing.
func NewTestableSerialPort() *TestableSerialPort {
	return &TestableSerialPort{
		ReadBuffer:  bytes.NewBuffer(nil),
		WriteBuffer: bytes.NewBuffer(nil),
	}
}

// Read returns scripted data, a timeout, or a scripted error.
func (t *TestableSerialPort) Read(p []byte) (int, error) {
	t.mu.Lock()
	t.ReadCalls++
	call := t.ReadCalls
	hook := t.OnRead
	t.mu.Unlock()

	if hook != nil {
		hook(call)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.Closed {
		return 0, ErrPortClosed
	}

	if t.ReadBuffer.Len() == 0 {
		if t.ReadError != nil {
			err := t.ReadError
			t.ReadError = nil
			return 0, err
		}
		if t.EOFWhenDrained {
			return 0, io.EOF
		}
		return 0, nil
	}

	if t.ChunkSize > 0 && len(p) > t.ChunkSize {
		p = p[:t.ChunkSize]
	}
	return t.ReadBuffer.Read(p)
}

// Write captures p.
func (t *TestableSerialPort) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.Closed {
		return 0, ErrPortClosed
	}
	return t.WriteBuffer.Write(p)
}

// Close marks the port as closed.
func (t *TestableSerialPort) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.Closed = true
	return t.CloseError
}

// SetReadTimeout implements TimeoutSerialPorter.
func (t *TestableSerialPort) SetReadTimeout(timeout time.Duration) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.ReadTimeout = timeout
	return nil
}

// ResetInputBuffer drops unread data.
func (t *TestableSerialPort) ResetInputBuffer() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.Resets++
	t.ReadBuffer.Reset()
	return nil
}

// AddReadData adds data to be returned by subsequent Read calls.
func (t *TestableSerialPort) AddReadData(data []byte) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.ReadBuffer.Write(data)
}

// AddLines queues each line followed by "\r\n", as Arduino println sends it.
func (t *TestableSerialPort) AddLines(lines ...string) {
	for _, line := range lines {
		t.AddReadData([]byte(line + "\r\n"))
	}
}

// IsClosed reports whether Close was called.
func (t *TestableSerialPort) IsClosed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.Closed
}

// MockPortFactory implements PortFactory for testing.
type MockPortFactory struct {
	mu sync.Mutex

	// Port is returned by Open
	Port SerialPorter

	// Error is returned by Open if set
	Error error

	// OpenCalls records all calls to Open
	OpenCalls []MockOpenCall
}

// MockOpenCall records details of an Open call.
type MockOpenCall struct {
	Path        string
	Options     PortOptions
	ReadTimeout time.Duration
}

// NewMockPortFactory creates a new MockPortFactory.
func NewMockPortFactory(port SerialPorter) *MockPortFactory {
	return &MockPortFactory{Port: port}
}

// Open returns the configured port or error.
func (f *MockPortFactory) Open(path string, opts PortOptions, readTimeout time.Duration) (SerialPorter, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.OpenCalls = append(f.OpenCalls, MockOpenCall{
		Path:        path,
		Options:     opts,
		ReadTimeout: readTimeout,
	})

	if f.Error != nil {
		return nil, f.Error
	}

	if tp, ok := f.Port.(TimeoutSerialPorter); ok && readTimeout > 0 {
		if err := tp.SetReadTimeout(readTimeout); err != nil {
			return nil, err
		}
	}
	return f.Port, nil
}

// LastCall returns the most recent Open call, or nil if none.
func (f *MockPortFactory) LastCall() *MockOpenCall {
	f.mu.Lock()
	defer f.mu.Unlock()

	if len(f.OpenCalls) == 0 {
		return nil
	}
	return &f.OpenCalls[len(f.OpenCalls)-1]
}

// FixturePort replays canned telemetry lines at a fixed interval, standing in
// for the robot during development. A background goroutine produces one line
// per interval; Read honours the read timeout like a real port.
type FixturePort struct {
	data      chan []byte
	done      chan struct{}
	closeOnce sync.Once

	mu      sync.Mutex
	timeout time.Duration
	pending []byte
	written bytes.Buffer
}

// NewFixturePort starts replaying lines every interval. With loop set the
// fixture repeats forever; otherwise Read reports io.EOF after the last line.
func NewFixturePort(lines []string, interval time.Duration, loop bool) *FixturePort {
	f := &FixturePort{
		data: make(chan []byte),
		done: make(chan struct{}),
	}
	go f.replay(lines, interval, loop)
	return f
}

func (f *FixturePort) replay(lines []string, interval time.Duration, loop bool) {
	defer close(f.data)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		for _, line := range lines {
			select {
			case f.data <- []byte(line + "\r\n"):
			case <-f.done:
				return
			}
			select {
			case <-ticker.C:
			case <-f.done:
				return
			}
		}
		if !loop || len(lines) == 0 {
			return
		}
	}
}

// Read returns the next replayed bytes, 0, nil on timeout, or io.EOF once a
// non-looping fixture is exhausted.
func (f *FixturePort) Read(p []byte) (int, error) {
	f.mu.Lock()
	if len(f.pending) > 0 {
		n := copy(p, f.pending)
		f.pending = f.pending[n:]
		f.mu.Unlock()
		return n, nil
	}
	timeout := f.timeout
	f.mu.Unlock()

	select {
	case <-f.done:
		return 0, ErrPortClosed
	default:
	}

	var expired <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		expired = timer.C
	}

	select {
	case b, ok := <-f.data:
		if !ok {
			return 0, io.EOF
		}
		n := copy(p, b)
		f.mu.Lock()
		f.pending = append(f.pending, b[n:]...)
		f.mu.Unlock()
		return n, nil
	case <-expired:
		return 0, nil
	case <-f.done:
		return 0, ErrPortClosed
	}
}

// Write records p; the fixture ignores commands.
func (f *FixturePort) Write(p []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.written.Write(p)
}

// Written returns everything written to the port.
func (f *FixturePort) Written() []byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]byte(nil), f.written.Bytes()...)
}

// Close stops the replay goroutine.
func (f *FixturePort) Close() error {
	f.closeOnce.Do(func() { close(f.done) })
	return nil
}

// SetReadTimeout implements TimeoutSerialPorter.
func (f *FixturePort) SetReadTimeout(timeout time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.timeout = timeout
	return nil
}

// ResetInputBuffer drops any partially read line.
func (f *FixturePort) ResetInputBuffer() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pending = nil
	return nil
}

// FixtureFactory opens a FixturePort for any path.
type FixtureFactory struct {
	Lines    []string
	Interval time.Duration
	Loop     bool
}

// Open implements PortFactory.
func (ff FixtureFactory) Open(path string, opts PortOptions, readTimeout time.Duration) (SerialPorter, error) {
	if _, err := opts.Normalize(); err != nil {
		return nil, err
	}
	port := NewFixturePort(ff.Lines, ff.Interval, ff.Loop)
	if err := port.SetReadTimeout(readTimeout); err != nil {
		return nil, err
	}
	return port, nil
}
