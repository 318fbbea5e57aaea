package message

import (
	"bytes"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net"
)

// MACSize is the size of a link-layer address on the wire
const MACSize = 6

// IdemTokenSize is the size of a request idempotency token on the wire
const IdemTokenSize = 8

// MAC is a 6-byte link-layer address
type MAC [MACSize]byte

// String formats the address as lower-case colon-hex (e.g. "01:02:03:04:05:06")
func (m MAC) String() string {
	return net.HardwareAddr(m[:]).String()
}

// ParseMAC parses a colon-hex (or any net.ParseMAC form) 6-byte address
func ParseMAC(s string) (MAC, error) {
	hw, err := net.ParseMAC(s)
	if err != nil {
		return MAC{}, fmt.Errorf("invalid MAC address %q: %w", s, err)
	}
	if len(hw) != MACSize {
		return MAC{}, fmt.Errorf("invalid MAC address %q: want %d bytes, got %d", s, MACSize, len(hw))
	}
	var m MAC
	copy(m[:], hw)
	return m, nil
}

// MACFromHardwareAddr converts a net.HardwareAddr, returning nil unless it is 6 bytes
func MACFromHardwareAddr(hw net.HardwareAddr) *MAC {
	if len(hw) != MACSize {
		return nil
	}
	var m MAC
	copy(m[:], hw)
	return &m
}

// CompareMAC orders optional addresses: absent sorts before any present address
func CompareMAC(a, b *MAC) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	default:
		return bytes.Compare(a[:], b[:])
	}
}

// IdemToken identifies one logical client request across its retransmissions
type IdemToken [IdemTokenSize]byte

// NewIdemToken returns a random token
func NewIdemToken() (IdemToken, error) {
	var t IdemToken
	if _, err := rand.Read(t[:]); err != nil {
		return t, fmt.Errorf("failed to generate idempotency token: %w", err)
	}
	return t, nil
}

func (t IdemToken) String() string {
	return hex.EncodeToString(t[:])
}
