// Package link implements a raw link-layer endpoint for exercising an
// embedded device under test. The endpoint owns one AF_PACKET socket bound
// to a named interface, sends and receives whole frames as opaque byte
// sequences, and keeps cumulative traffic statistics.
//
// An endpoint is single-consumer: operations must be serialized by the
// caller.
package link

import (
	"bytes"
	"errors"
	"fmt"
	"time"

	"dutlink/internal/logger"
)

const (
	// DefaultMaxPacket is the receive buffer capacity used by round-trip
	// operations.
	DefaultMaxPacket = 4096
	// DefaultStressPacket is the frame size used by StressTest when the
	// caller passes a non-positive size.
	DefaultStressPacket = 64
	// DefaultTimeoutMs is the receive timeout applied by NewDefault.
	DefaultTimeoutMs = 1000
)

// errTimeout is the would-block indication from the socket layer. It marks a
// receive timeout, which is a first-class non-error outcome.
var errTimeout = errors.New("link: receive timed out")

// rawSocket is the kernel seam. The linux implementation wraps an AF_PACKET
// descriptor; tests substitute an in-memory echo link.
type rawSocket interface {
	Send(p []byte) (int, error)
	// Recv returns errTimeout when the kernel reports would-block.
	Recv(p []byte) (int, error)
	SetTimeout(timeoutMs uint32) error
	Close() error
}

// Endpoint is a raw link-layer endpoint bound to one interface.
// The zero value is not usable; construct with New.
type Endpoint struct {
	ifaceName string
	timeoutMs uint32
	sock      rawSocket
	stats     PacketStats
	log       *logger.Logger

	open func(ifaceName string) (rawSocket, error)
}

// New returns a closed endpoint for the named interface. Initialize opens
// the socket.
func New(ifaceName string, timeoutMs uint32) *Endpoint {
	return &Endpoint{
		ifaceName: ifaceName,
		timeoutMs: timeoutMs,
		open:      openRawSocket,
	}
}

// NewDefault returns a closed endpoint with the default receive timeout.
func NewDefault(ifaceName string) *Endpoint {
	return New(ifaceName, DefaultTimeoutMs)
}

// SetLogger attaches a logger for non-fatal warnings. A nil logger disables
// them.
func (e *Endpoint) SetLogger(log *logger.Logger) {
	e.log = log
}

func (e *Endpoint) Interface() string {
	return e.ifaceName
}

// Initialize opens the raw socket, binds it to the interface, and programs
// the kernel receive timeout. Idempotent: an open endpoint returns nil
// without touching the kernel. On failure the endpoint stays closed and no
// resource is leaked. A failure to set the timeout is reported as a warning
// only; the endpoint still opens.
func (e *Endpoint) Initialize() error {
	if e.sock != nil {
		return nil
	}
	sock, err := e.open(e.ifaceName)
	if err != nil {
		return fmt.Errorf("initialize endpoint on %s: %w", e.ifaceName, err)
	}
	if err := sock.SetTimeout(e.timeoutMs); err != nil {
		e.warn("failed to set receive timeout", map[string]any{
			"interface": e.ifaceName,
			"err":       err.Error(),
		})
	}
	e.sock = sock
	return nil
}

// Close releases the socket. Safe to call repeatedly.
func (e *Endpoint) Close() error {
	if e.sock == nil {
		return nil
	}
	err := e.sock.Close()
	e.sock = nil
	return err
}

// IsReady reports whether the endpoint is open.
func (e *Endpoint) IsReady() bool {
	return e.sock != nil
}

// SendPacket hands data to the kernel as one frame. It returns true iff the
// kernel accepted exactly len(data) bytes. A kernel error increments the
// error counter; a short write is a failure without one.
func (e *Endpoint) SendPacket(data []byte) bool {
	if e.sock == nil {
		return false
	}
	start := time.Now()
	n, err := e.sock.Send(data)
	if err != nil {
		e.stats.Errors++
		return false
	}
	e.stats.PacketsSent++
	e.stats.BytesSent += uint64(n)
	e.stats.observeLatency(uint64(time.Since(start) / time.Microsecond))
	return n == len(data)
}

// ReceivePacket attempts one receive of up to maxSize bytes. It returns the
// received frame, (0, nil) on timeout, and (-1, nil) on a kernel failure.
// A non-positive maxSize returns (0, nil) without touching the kernel.
func (e *Endpoint) ReceivePacket(maxSize int) (int, []byte) {
	if e.sock == nil {
		return -1, nil
	}
	if maxSize <= 0 {
		return 0, nil
	}
	buf := make([]byte, maxSize)
	n, err := e.sock.Recv(buf)
	if err != nil {
		if errors.Is(err, errTimeout) {
			return 0, nil
		}
		e.stats.Errors++
		return -1, nil
	}
	if n == 0 {
		return 0, nil
	}
	e.stats.PacketsReceived++
	e.stats.BytesReceived += uint64(n)
	// copy out so the frame does not pin the full receive buffer
	out := make([]byte, n)
	copy(out, buf[:n])
	return n, out
}

// SendAndReceive sends request and waits for one response frame. It does not
// retry and does not match the response against the request.
func (e *Endpoint) SendAndReceive(request []byte) CommResult {
	start := time.Now()
	if !e.SendPacket(request) {
		return CommResult{ErrorMessage: "Failed to send request"}
	}
	n, data := e.ReceivePacket(DefaultMaxPacket)
	if n < 0 {
		return CommResult{ErrorMessage: "Failed to receive response"}
	}
	if n == 0 {
		return CommResult{ErrorMessage: "Response timeout"}
	}
	return CommResult{
		Success:   true,
		Data:      data,
		LatencyUs: uint64(time.Since(start) / time.Microsecond),
	}
}

// BurstSend sends each packet as an independent frame and returns the number
// of successful sends. It does not stop at the first failure.
func (e *Endpoint) BurstSend(packets [][]byte) int {
	sent := 0
	for _, p := range packets {
		if e.SendPacket(p) {
			sent++
		}
	}
	return sent
}

// MeasureLatency performs one round trip and returns the latency in
// microseconds, or -1 on any failure.
func (e *Endpoint) MeasureLatency(payload []byte) int64 {
	res := e.SendAndReceive(payload)
	if !res.Success {
		return -1
	}
	return int64(res.LatencyUs)
}

// StressTest sends packetSize-byte frames of 0xAA back to back until
// durationMs has elapsed, making at least one attempt. The returned stats
// cover this call only; the endpoint's cumulative stats are updated by the
// underlying sends as usual.
func (e *Endpoint) StressTest(durationMs uint32, packetSize int) PacketStats {
	if packetSize <= 0 {
		packetSize = DefaultStressPacket
	}
	frame := bytes.Repeat([]byte{0xAA}, packetSize)

	var local PacketStats
	deadline := time.Now().Add(time.Duration(durationMs) * time.Millisecond)
	for {
		if e.SendPacket(frame) {
			local.PacketsSent++
			local.BytesSent += uint64(packetSize)
		} else {
			local.Errors++
		}
		if !time.Now().Before(deadline) {
			break
		}
	}
	return local
}

// Statistics returns a snapshot of the cumulative counters.
func (e *Endpoint) Statistics() PacketStats {
	return e.stats
}

// ResetStatistics zeroes all counters and the latency average.
func (e *Endpoint) ResetStatistics() {
	e.stats = PacketStats{}
}

// SetTimeout updates the receive timeout and reprograms the kernel when the
// endpoint is open.
func (e *Endpoint) SetTimeout(timeoutMs uint32) {
	e.timeoutMs = timeoutMs
	if e.sock == nil {
		return
	}
	if err := e.sock.SetTimeout(timeoutMs); err != nil {
		e.warn("failed to set receive timeout", map[string]any{
			"interface": e.ifaceName,
			"err":       err.Error(),
		})
	}
}

// With opens an endpoint, runs fn, and closes the endpoint on every exit
// path including a panic inside fn.
func With(ifaceName string, timeoutMs uint32, fn func(*Endpoint) error) error {
	e := New(ifaceName, timeoutMs)
	if err := e.Initialize(); err != nil {
		return err
	}
	defer e.Close()
	return fn(e)
}

func (e *Endpoint) warn(msg string, fields map[string]any) {
	if e.log == nil {
		return
	}
	e.log.Warn(msg, fields)
}
