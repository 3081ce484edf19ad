package rig

import (
	"bufio"
	"fmt"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/goburrow/serial"
)

// Transport carries CR-terminated CCDI frames to and from the radio.
// Implementations are not safe for concurrent use; the Controller
// serializes access.
type Transport interface {
	// Send writes one complete command frame.
	Send(frame []byte) error
	// Recv reads one CR-terminated response frame within timeout.
	Recv(timeout time.Duration) ([]byte, error)
	// Drain discards any pending unsolicited input. The radio is known to
	// emit stray prompts between commands.
	Drain()
	Close() error
}

// Open picks a transport from the configured rig port: "host:port" dials a
// network endpoint, anything else opens a serial device at the given speed.
func Open(port string, speed int, timeout time.Duration) (Transport, error) {
	if !strings.HasPrefix(port, "/") && strings.Contains(port, ":") {
		return DialTCP(port, timeout)
	}
	return OpenSerial(port, speed, timeout)
}

// serialTransport drives a local serial device.
type serialTransport struct {
	port serial.Port
}

// OpenSerial opens the serial device at path with 8N1 framing.
func OpenSerial(path string, baud int, timeout time.Duration) (Transport, error) {
	port, err := serial.Open(&serial.Config{
		Address:  path,
		BaudRate: baud,
		DataBits: 8,
		StopBits: 1,
		Parity:   "N",
		Timeout:  timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open rig device %s: %w", path, err)
	}
	return &serialTransport{port: port}, nil
}

func (t *serialTransport) Send(frame []byte) error {
	_, err := t.port.Write(frame)
	return err
}

func (t *serialTransport) Recv(timeout time.Duration) ([]byte, error) {
	deadline := time.Now().Add(timeout)
	buf := make([]byte, 0, 32)
	one := make([]byte, 1)

	for {
		if time.Now().After(deadline) {
			return nil, fmt.Errorf("rig response timeout after %s", timeout)
		}
		n, err := t.port.Read(one)
		if err != nil {
			return nil, fmt.Errorf("rig read failed: %w", err)
		}
		if n == 0 {
			continue
		}
		buf = append(buf, one[0])
		if one[0] == cr {
			return buf, nil
		}
	}
}

func (t *serialTransport) Drain() {
	// Short read with whatever is buffered; discard until quiet.
	scratch := make([]byte, 64)
	for {
		n, err := t.port.Read(scratch)
		if err != nil || n == 0 {
			return
		}
	}
}

func (t *serialTransport) Close() error {
	return t.port.Close()
}

// tcpTransport drives a serial-over-network bridge.
type tcpTransport struct {
	conn   net.Conn
	reader *bufio.Reader
}

// DialTCP connects to a network-attached rig endpoint.
func DialTCP(addr string, timeout time.Duration) (Transport, error) {
	conn, err := net.DialTimeout("tcp", addr, timeout)
	if err != nil {
		return nil, fmt.Errorf("failed to reach rig endpoint %s: %w", addr, err)
	}
	return &tcpTransport{conn: conn, reader: bufio.NewReader(conn)}, nil
}

func (t *tcpTransport) Send(frame []byte) error {
	_, err := t.conn.Write(frame)
	return err
}

func (t *tcpTransport) Recv(timeout time.Duration) ([]byte, error) {
	if err := t.conn.SetReadDeadline(time.Now().Add(timeout)); err != nil {
		return nil, err
	}
	frame, err := t.reader.ReadBytes(cr)
	if err != nil {
		return nil, fmt.Errorf("rig read failed: %w", err)
	}
	return frame, nil
}

func (t *tcpTransport) Drain() {
	_ = t.conn.SetReadDeadline(time.Now().Add(10 * time.Millisecond))
	for {
		if _, err := t.reader.ReadByte(); err != nil {
			return
		}
	}
}

func (t *tcpTransport) Close() error {
	return t.conn.Close()
}

// MemTransport is a scripted in-memory transport for tests. Each Send
// consumes the next scripted response; a nil response simulates a radio
// that never answers.
type MemTransport struct {
	mu        sync.Mutex
	Sent      [][]byte
	responses [][]byte
	closed    bool
	drains    int
}

// NewMemTransport creates a transport that replies with the given frames
// in order.
func NewMemTransport(responses ...[]byte) *MemTransport {
	return &MemTransport{responses: responses}
}

func (t *MemTransport) Send(frame []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return fmt.Errorf("transport closed")
	}
	cp := make([]byte, len(frame))
	copy(cp, frame)
	t.Sent = append(t.Sent, cp)
	return nil
}

func (t *MemTransport) Recv(timeout time.Duration) ([]byte, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.responses) == 0 {
		return nil, fmt.Errorf("rig response timeout after %s", timeout)
	}
	resp := t.responses[0]
	t.responses = t.responses[1:]
	if resp == nil {
		return nil, fmt.Errorf("rig response timeout after %s", timeout)
	}
	return resp, nil
}

func (t *MemTransport) Drain() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.drains++
}

// Drains reports how many times pending input was discarded.
func (t *MemTransport) Drains() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.drains
}

func (t *MemTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closed = true
	return nil
}
