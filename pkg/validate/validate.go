// Package validate provides packet integrity primitives: the Ethernet CRC-32
// and the 16-bit ones-complement checksum used by framed test packets.
package validate

import (
	"encoding/binary"
	"hash/crc32"
)

// CRC32 computes the reflected CRC-32 (polynomial 0xEDB88320, initial and
// final XOR 0xFFFFFFFF), matching the Ethernet frame check sequence.
func CRC32(data []byte) uint32 {
	return crc32.ChecksumIEEE(data)
}

// Verify reports whether the packet's CRC-32 equals expected. The packet is
// checksummed as-is; no trailing CRC field is stripped.
func Verify(packet []byte, expected uint32) bool {
	return CRC32(packet) == expected
}

// Checksum computes the Internet ones-complement checksum over big-endian
// 16-bit words. An odd trailing byte occupies the high half of its word.
func Checksum(data []byte) uint16 {
	var sum uint32
	for i := 0; i+1 < len(data); i += 2 {
		sum += uint32(binary.BigEndian.Uint16(data[i:]))
	}
	if len(data)%2 == 1 {
		sum += uint32(data[len(data)-1]) << 8
	}
	for (sum >> 16) > 0 {
		sum = (sum & 0xFFFF) + (sum >> 16)
	}
	return ^uint16(sum)
}
