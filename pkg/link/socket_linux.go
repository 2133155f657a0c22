//go:build linux

package link

import (
	"fmt"
	"net"
	"time"

	"golang.org/x/sys/unix"
)

// packetSocket wraps an AF_PACKET SOCK_RAW descriptor bound to one
// interface. Opening one requires CAP_NET_RAW.
type packetSocket struct {
	fd int
}

func openRawSocket(ifaceName string) (rawSocket, error) {
	proto := htons(unix.ETH_P_ALL)
	fd, err := unix.Socket(unix.AF_PACKET, unix.SOCK_RAW, int(proto))
	if err != nil {
		return nil, fmt.Errorf("create raw socket: %w", err)
	}
	iface, err := net.InterfaceByName(ifaceName)
	if err != nil {
		_ = unix.Close(fd)
		return nil, fmt.Errorf("resolve interface %q: %w", ifaceName, err)
	}
	sll := &unix.SockaddrLinklayer{
		Protocol: proto,
		Ifindex:  iface.Index,
	}
	if err := unix.Bind(fd, sll); err != nil {
		_ = unix.Close(fd)
		return nil, fmt.Errorf("bind to %q: %w", ifaceName, err)
	}
	return &packetSocket{fd: fd}, nil
}

func (s *packetSocket) Send(p []byte) (int, error) {
	n, err := unix.Write(s.fd, p)
	if err != nil {
		return 0, err
	}
	return n, nil
}

func (s *packetSocket) Recv(p []byte) (int, error) {
	n, _, err := unix.Recvfrom(s.fd, p, 0)
	if err != nil {
		if err == unix.EAGAIN || err == unix.EWOULDBLOCK {
			return 0, errTimeout
		}
		return 0, err
	}
	return n, nil
}

// SetTimeout programs SO_RCVTIMEO. A zero timeout makes receives block
// indefinitely.
func (s *packetSocket) SetTimeout(timeoutMs uint32) error {
	tv := unix.NsecToTimeval(int64(timeoutMs) * int64(time.Millisecond))
	return unix.SetsockoptTimeval(s.fd, unix.SOL_SOCKET, unix.SO_RCVTIMEO, &tv)
}

func (s *packetSocket) Close() error {
	return unix.Close(s.fd)
}

// htons converts to network byte order for the AF_PACKET protocol field.
func htons(v uint16) uint16 {
	return v<<8 | v>>8
}
