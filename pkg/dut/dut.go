// Package dut manages the host-side control channels to the device under
// test: a TCP or UDP data channel for byte exchange and a prompt-driven CLI
// channel for command execution.
package dut

import (
	"errors"
	"fmt"
	"net"
	"regexp"
	"strconv"
	"strings"
	"time"
)

type Protocol string

const (
	ProtocolTCP Protocol = "tcp"
	ProtocolUDP Protocol = "udp"
)

// ErrTimeout is returned when the DUT does not answer within the configured
// timeout.
var ErrTimeout = errors.New("dut: receive timed out")

// ErrNotConnected is returned by channel operations before Connect.
var ErrNotConnected = errors.New("dut: not connected")

type Config struct {
	IP          string
	Port        int
	Protocol    Protocol
	TimeoutMs   int
	RetryCount  int
	CLIPort     int
	CLIPrompt   string
	CLIUsername string
	CLIPassword string
}

func (c *Config) applyDefaults() {
	if c.IP == "" {
		c.IP = "192.168.1.100"
	}
	if c.Port == 0 {
		c.Port = 5000
	}
	if c.Protocol == "" {
		c.Protocol = ProtocolTCP
	}
	if c.TimeoutMs <= 0 {
		c.TimeoutMs = 1000
	}
	if c.RetryCount <= 0 {
		c.RetryCount = 3
	}
	if c.CLIPort == 0 {
		c.CLIPort = 23
	}
	if c.CLIPrompt == "" {
		c.CLIPrompt = "DUT>"
	}
}

// Connection is the host side of both DUT channels. Not safe for concurrent
// use.
type Connection struct {
	cfg  Config
	data net.Conn
	cli  net.Conn
}

func New(cfg Config) *Connection {
	cfg.applyDefaults()
	return &Connection{cfg: cfg}
}

func (c *Connection) timeout() time.Duration {
	return time.Duration(c.cfg.TimeoutMs) * time.Millisecond
}

func (c *Connection) addr(port int) string {
	return net.JoinHostPort(c.cfg.IP, strconv.Itoa(port))
}

// Connect establishes the data channel. TCP dials are retried up to
// RetryCount times; UDP is connectionless and succeeds once the default
// destination is set.
func (c *Connection) Connect() error {
	if c.data != nil {
		return nil
	}
	addr := c.addr(c.cfg.Port)

	if c.cfg.Protocol == ProtocolUDP {
		conn, err := net.Dial("udp", addr)
		if err != nil {
			return fmt.Errorf("dial udp %s: %w", addr, err)
		}
		c.data = conn
		return nil
	}

	var lastErr error
	for attempt := 0; attempt < c.cfg.RetryCount; attempt++ {
		conn, err := net.DialTimeout("tcp", addr, c.timeout())
		if err == nil {
			c.data = conn
			return nil
		}
		lastErr = err
		time.Sleep(100 * time.Millisecond)
	}
	return fmt.Errorf("dial tcp %s: %w", addr, lastErr)
}

// Disconnect closes both channels. Safe to call repeatedly.
func (c *Connection) Disconnect() {
	if c.data != nil {
		_ = c.data.Close()
		c.data = nil
	}
	if c.cli != nil {
		_ = c.cli.Close()
		c.cli = nil
	}
}

func (c *Connection) IsConnected() bool {
	return c.data != nil
}

// Send writes data to the DUT data channel.
func (c *Connection) Send(data []byte) error {
	if c.data == nil {
		return ErrNotConnected
	}
	if err := c.data.SetWriteDeadline(time.Now().Add(c.timeout())); err != nil {
		return fmt.Errorf("set write deadline: %w", err)
	}
	if _, err := c.data.Write(data); err != nil {
		return fmt.Errorf("send: %w", err)
	}
	return nil
}

// Receive reads one chunk of up to bufSize bytes. A timeout is reported as
// ErrTimeout.
func (c *Connection) Receive(bufSize int) ([]byte, error) {
	if c.data == nil {
		return nil, ErrNotConnected
	}
	if bufSize <= 0 {
		bufSize = 4096
	}
	if err := c.data.SetReadDeadline(time.Now().Add(c.timeout())); err != nil {
		return nil, fmt.Errorf("set read deadline: %w", err)
	}
	buf := make([]byte, bufSize)
	n, err := c.data.Read(buf)
	if err != nil {
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return nil, ErrTimeout
		}
		return nil, fmt.Errorf("receive: %w", err)
	}
	return buf[:n], nil
}

// SendAndReceive sends data and waits for one response, returning the
// round-trip time alongside the response.
func (c *Connection) SendAndReceive(data []byte, bufSize int) ([]byte, time.Duration, error) {
	start := time.Now()
	if err := c.Send(data); err != nil {
		return nil, 0, err
	}
	resp, err := c.Receive(bufSize)
	if err != nil {
		return nil, 0, err
	}
	return resp, time.Since(start), nil
}

// ConnectCLI establishes the CLI channel, drains the banner, and
// authenticates when a username is configured.
func (c *Connection) ConnectCLI() error {
	if c.cli != nil {
		return nil
	}
	addr := c.addr(c.cfg.CLIPort)
	conn, err := net.DialTimeout("tcp", addr, c.timeout())
	if err != nil {
		return fmt.Errorf("dial cli %s: %w", addr, err)
	}
	c.cli = conn

	c.receiveUntilPrompt(c.timeout())
	if c.cfg.CLIUsername != "" {
		if err := c.authenticate(); err != nil {
			_ = c.cli.Close()
			c.cli = nil
			return err
		}
	}
	return nil
}

// ExecuteCommand runs one CLI command and returns its output with the echo
// and trailing prompt stripped. timeoutMs overrides the configured timeout
// when positive.
func (c *Connection) ExecuteCommand(command string, timeoutMs int) (string, error) {
	if c.cli == nil {
		return "", ErrNotConnected
	}
	wait := c.timeout()
	if timeoutMs > 0 {
		wait = time.Duration(timeoutMs) * time.Millisecond
	}
	if err := c.cli.SetWriteDeadline(time.Now().Add(wait)); err != nil {
		return "", fmt.Errorf("set write deadline: %w", err)
	}
	if _, err := c.cli.Write([]byte(command + "\n")); err != nil {
		return "", fmt.Errorf("send command: %w", err)
	}
	output := c.receiveUntilPrompt(wait)
	return c.cleanOutput(output, command), nil
}

// ExecuteCommands runs each command in order. A failed command yields an
// empty string in its slot; execution continues.
func (c *Connection) ExecuteCommands(commands []string) []string {
	out := make([]string, 0, len(commands))
	for _, cmd := range commands {
		result, err := c.ExecuteCommand(cmd, 0)
		if err != nil {
			out = append(out, "")
			continue
		}
		out = append(out, result)
	}
	return out
}

// ParseOutput matches output against a regexp with named groups and returns
// the captured values.
func ParseOutput(output, pattern string) (map[string]string, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("compile pattern: %w", err)
	}
	match := re.FindStringSubmatch(output)
	if match == nil {
		return nil, nil
	}
	out := map[string]string{}
	for i, name := range re.SubexpNames() {
		if i == 0 || name == "" {
			continue
		}
		out[name] = match[i]
	}
	return out, nil
}

func (c *Connection) authenticate() error {
	prompt := c.readChunk(c.timeout())
	lower := strings.ToLower(prompt)
	if strings.Contains(lower, "username") || strings.Contains(lower, "login") {
		if _, err := c.cli.Write([]byte(c.cfg.CLIUsername + "\n")); err != nil {
			return fmt.Errorf("send username: %w", err)
		}
	}
	prompt = c.readChunk(c.timeout())
	if strings.Contains(strings.ToLower(prompt), "password") {
		if _, err := c.cli.Write([]byte(c.cfg.CLIPassword + "\n")); err != nil {
			return fmt.Errorf("send password: %w", err)
		}
	}
	response := c.readChunk(c.timeout())
	if strings.Contains(response, c.cfg.CLIPrompt) ||
		strings.Contains(response, ">") || strings.Contains(response, "#") {
		return nil
	}
	return errors.New("cli authentication failed")
}

// receiveUntilPrompt accumulates CLI output until the prompt appears or
// maxWait elapses.
func (c *Connection) receiveUntilPrompt(maxWait time.Duration) string {
	var out strings.Builder
	deadline := time.Now().Add(maxWait)
	buf := make([]byte, 1024)
	for time.Now().Before(deadline) {
		_ = c.cli.SetReadDeadline(deadline)
		n, err := c.cli.Read(buf)
		if n > 0 {
			out.Write(buf[:n])
			if c.promptReached(out.String()) {
				break
			}
		}
		if err != nil {
			break
		}
	}
	return out.String()
}

func (c *Connection) readChunk(wait time.Duration) string {
	buf := make([]byte, 1024)
	_ = c.cli.SetReadDeadline(time.Now().Add(wait))
	n, _ := c.cli.Read(buf)
	return string(buf[:n])
}

func (c *Connection) promptReached(output string) bool {
	if strings.Contains(output, c.cfg.CLIPrompt) {
		return true
	}
	trimmed := strings.TrimSpace(output)
	return strings.HasSuffix(trimmed, ">") || strings.HasSuffix(trimmed, "#")
}

func (c *Connection) cleanOutput(output, command string) string {
	if idx := strings.Index(output, command); idx >= 0 {
		output = output[:idx] + output[idx+len(command):]
	}
	lines := strings.Split(output, "\n")
	if len(lines) > 0 {
		last := strings.TrimSpace(lines[len(lines)-1])
		if strings.Contains(last, c.cfg.CLIPrompt) ||
			strings.HasSuffix(last, ">") || strings.HasSuffix(last, "#") {
			lines = lines[:len(lines)-1]
		}
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
