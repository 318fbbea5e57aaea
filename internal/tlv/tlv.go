package tlv

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
)

const (
	// LengthSize is the size of a length prefix in bytes
	LengthSize = 4

	// MaxBufferLen is the largest byte string WriteLengthPrefixed accepts
	MaxBufferLen = 2_000_000_000
)

var (
	// ErrBufferTooBig is returned when a byte string is too large to be written
	ErrBufferTooBig = errors.New("buffer too big")

	// ErrLengthConversion is returned when a length does not fit the 4-byte prefix
	ErrLengthConversion = errors.New("length does not fit in length prefix")

	// ErrDataTooBig is returned when a declared length exceeds the caller's limit
	ErrDataTooBig = errors.New("data too big")

	// ErrTruncatedInput is returned when the input ends before a field is complete
	ErrTruncatedInput = errors.New("truncated input")

	// ErrMagicMismatch is returned when actual bytes don't match the expected literal
	ErrMagicMismatch = errors.New("actual bytes didn't match expected bytes")
)

// WriteU8 writes a single byte
func WriteU8(w io.Writer, b byte) error {
	_, err := w.Write([]byte{b})
	return err
}

// ReadU8 reads a single byte
func ReadU8(r io.Reader) (byte, error) {
	var buf [1]byte
	if err := ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return buf[0], nil
}

// ReadFull fills buf from r, mapping short reads to ErrTruncatedInput
func ReadFull(r io.Reader, buf []byte) error {
	if _, err := io.ReadFull(r, buf); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return fmt.Errorf("%w: wanted %d bytes", ErrTruncatedInput, len(buf))
		}
		return err
	}
	return nil
}

// WriteLength writes a 4-byte little-endian length
func WriteLength(w io.Writer, n uint32) error {
	var buf [LengthSize]byte
	binary.LittleEndian.PutUint32(buf[:], n)
	_, err := w.Write(buf[:])
	return err
}

// ReadLength reads a 4-byte little-endian length
func ReadLength(r io.Reader) (uint32, error) {
	var buf [LengthSize]byte
	if err := ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(buf[:]), nil
}

// WriteLengthPrefixed writes len(b) as a 4-byte little-endian prefix followed by b
func WriteLengthPrefixed(w io.Writer, b []byte) error {
	if len(b) > MaxBufferLen {
		return fmt.Errorf("%w: %d bytes (max %d)", ErrBufferTooBig, len(b), MaxBufferLen)
	}
	if uint64(len(b)) > math.MaxUint32 {
		return fmt.Errorf("%w: %d", ErrLengthConversion, len(b))
	}

	if err := WriteLength(w, uint32(len(b))); err != nil {
		return err
	}
	_, err := w.Write(b)
	return err
}

// ReadLengthPrefixed reads a length-prefixed byte string.
// The declared length is checked against maxLen before anything is allocated.
func ReadLengthPrefixed(r io.Reader, maxLen int) ([]byte, error) {
	n, err := ReadLength(r)
	if err != nil {
		return nil, err
	}
	if maxLen < 0 || uint64(n) > uint64(maxLen) {
		return nil, fmt.Errorf("%w: declared %d bytes (max %d)", ErrDataTooBig, n, maxLen)
	}

	buf := make([]byte, n)
	if err := ReadFull(r, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// ExpectBytes reads len(literal) bytes and fails unless they equal literal.
// A short input whose available prefix already differs is a mismatch, not a truncation.
func ExpectBytes(r io.Reader, literal []byte) error {
	actual := make([]byte, len(literal))
	n, err := io.ReadFull(r, actual)
	if !bytes.Equal(actual[:n], literal[:n]) {
		return ErrMagicMismatch
	}
	if err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return fmt.Errorf("%w: wanted %d bytes, got %d", ErrTruncatedInput, len(literal), n)
		}
		return err
	}
	return nil
}

// CountingWriter discards writes and records how many bytes they carried
type CountingWriter struct {
	N int
}

func (c *CountingWriter) Write(p []byte) (int, error) {
	c.N += len(p)
	return len(p), nil
}
