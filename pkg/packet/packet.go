// Package packet builds and parses the framed test packets exchanged with
// the device under test, plus raw Ethernet and IPv4 headers for hand-built
// frames.
package packet

import (
	"encoding/binary"
	"errors"
	"fmt"
	"net"

	"dutlink/pkg/validate"
)

// Framed packet layout:
//
//	[start 0xAA55][command u8][sequence u16][length u16][payload][checksum u16]
//
// All multi-byte fields are big-endian. The checksum covers everything before
// it.
const (
	StartMarker = 0xAA55

	headerLen   = 7
	checksumLen = 2
)

var (
	ErrTooShort    = errors.New("packet too short")
	ErrBadMarker   = errors.New("missing start marker")
	ErrTruncated   = errors.New("payload truncated")
	ErrPayloadSize = errors.New("payload exceeds 16-bit length field")
)

// Packet is a parsed framed test packet.
type Packet struct {
	Command       uint8
	Sequence      uint16
	Payload       []byte
	ChecksumValid bool
	HasChecksum   bool
}

// Build assembles a framed packet. withChecksum appends the ones-complement
// checksum of the preceding bytes.
func Build(command uint8, sequence uint16, payload []byte, withChecksum bool) ([]byte, error) {
	if len(payload) > 0xFFFF {
		return nil, ErrPayloadSize
	}
	size := headerLen + len(payload)
	if withChecksum {
		size += checksumLen
	}
	out := make([]byte, 0, size)
	out = binary.BigEndian.AppendUint16(out, StartMarker)
	out = append(out, command)
	out = binary.BigEndian.AppendUint16(out, sequence)
	out = binary.BigEndian.AppendUint16(out, uint16(len(payload)))
	out = append(out, payload...)
	if withChecksum {
		out = binary.BigEndian.AppendUint16(out, validate.Checksum(out))
	}
	return out, nil
}

// Parse decodes a framed packet. Trailing bytes beyond the checksum are
// ignored. When a checksum is present, ChecksumValid reports whether it
// matches.
func Parse(data []byte) (*Packet, error) {
	if len(data) < headerLen {
		return nil, ErrTooShort
	}
	if binary.BigEndian.Uint16(data[0:2]) != StartMarker {
		return nil, ErrBadMarker
	}
	length := int(binary.BigEndian.Uint16(data[5:7]))
	if len(data) < headerLen+length {
		return nil, ErrTruncated
	}

	p := &Packet{
		Command:  data[2],
		Sequence: binary.BigEndian.Uint16(data[3:5]),
		Payload:  append([]byte(nil), data[headerLen:headerLen+length]...),
	}
	if len(data) >= headerLen+length+checksumLen {
		got := binary.BigEndian.Uint16(data[headerLen+length:])
		want := validate.Checksum(data[:headerLen+length])
		p.HasChecksum = true
		p.ChecksumValid = got == want
	}
	return p, nil
}

// EthernetFrame prepends an Ethernet header to payload. The ethertype is
// written big-endian.
func EthernetFrame(dstMAC, srcMAC string, etherType uint16, payload []byte) ([]byte, error) {
	dst, err := net.ParseMAC(dstMAC)
	if err != nil {
		return nil, fmt.Errorf("parse dst mac: %w", err)
	}
	src, err := net.ParseMAC(srcMAC)
	if err != nil {
		return nil, fmt.Errorf("parse src mac: %w", err)
	}
	if len(dst) != 6 || len(src) != 6 {
		return nil, errors.New("mac address must be 48-bit")
	}

	out := make([]byte, 0, 14+len(payload))
	out = append(out, dst...)
	out = append(out, src...)
	out = binary.BigEndian.AppendUint16(out, etherType)
	out = append(out, payload...)
	return out, nil
}

// IPv4Header builds a minimal 20-byte IPv4 header with the ones-complement
// header checksum filled in.
func IPv4Header(srcIP, dstIP string, protocol uint8, payloadLength int) ([]byte, error) {
	src := net.ParseIP(srcIP).To4()
	if src == nil {
		return nil, fmt.Errorf("invalid IPv4 source %q", srcIP)
	}
	dst := net.ParseIP(dstIP).To4()
	if dst == nil {
		return nil, fmt.Errorf("invalid IPv4 destination %q", dstIP)
	}

	h := make([]byte, 20)
	h[0] = 4<<4 | 5
	binary.BigEndian.PutUint16(h[2:4], uint16(20+payloadLength))
	h[8] = 64
	h[9] = protocol
	copy(h[12:16], src)
	copy(h[16:20], dst)
	binary.BigEndian.PutUint16(h[10:12], validate.Checksum(h))
	return h, nil
}
