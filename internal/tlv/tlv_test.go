package tlv

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteReadLengthPrefixed(t *testing.T) {
	var w bytes.Buffer
	require.NoError(t, WriteLengthPrefixed(&w, []byte("hi there")))

	assert.Equal(t, []byte{
		8, 0, 0, 0,
		104, 105, 32,
		116, 104, 101, 114, 101,
	}, w.Bytes())

	got, err := ReadLengthPrefixed(bytes.NewReader(w.Bytes()), 1024)
	require.NoError(t, err)
	assert.Equal(t, []byte("hi there"), got)
}

func TestReadLengthPrefixed_Errors(t *testing.T) {
	tests := []struct {
		name    string
		data    []byte
		maxLen  int
		wantErr error
	}{
		{
			name:    "declared length over limit",
			data:    []byte{65, 0, 0, 0, 'x'},
			maxLen:  64,
			wantErr: ErrDataTooBig,
		},
		{
			name:    "huge declared length is rejected before reading",
			data:    []byte{0xFF, 0xFF, 0xFF, 0xFF},
			maxLen:  64,
			wantErr: ErrDataTooBig,
		},
		{
			name:    "truncated prefix",
			data:    []byte{3, 0},
			maxLen:  64,
			wantErr: ErrTruncatedInput,
		},
		{
			name:    "truncated data",
			data:    []byte{5, 0, 0, 0, 'a', 'b'},
			maxLen:  64,
			wantErr: ErrTruncatedInput,
		},
		{
			name:    "empty input",
			data:    nil,
			maxLen:  64,
			wantErr: ErrTruncatedInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadLengthPrefixed(bytes.NewReader(tt.data), tt.maxLen)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestReadLengthPrefixed_ExactLimit(t *testing.T) {
	data := append([]byte{4, 0, 0, 0}, "abcd"...)
	got, err := ReadLengthPrefixed(bytes.NewReader(data), 4)
	require.NoError(t, err)
	assert.Equal(t, []byte("abcd"), got)
}

func TestExpectBytes(t *testing.T) {
	magic := []byte{0x9A, 0x4A, 0x43, 0x81}

	tests := []struct {
		name    string
		data    []byte
		wantErr error
	}{
		{name: "match", data: []byte{0x9A, 0x4A, 0x43, 0x81, 0x01}},
		{name: "mismatch", data: []byte{0x9A, 0x4A, 0x43, 0x80}, wantErr: ErrMagicMismatch},
		{name: "short and different", data: []byte{0x00}, wantErr: ErrMagicMismatch},
		{name: "short prefix of literal", data: []byte{0x9A, 0x4A}, wantErr: ErrTruncatedInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ExpectBytes(bytes.NewReader(tt.data), magic)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestU8(t *testing.T) {
	var w bytes.Buffer
	require.NoError(t, WriteU8(&w, 0x03))

	r := bytes.NewReader(w.Bytes())
	b, err := ReadU8(r)
	require.NoError(t, err)
	assert.Equal(t, byte(0x03), b)

	_, err = ReadU8(r)
	assert.ErrorIs(t, err, ErrTruncatedInput)
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, io.ErrClosedPipe }

func TestReadFull_PassesThroughOtherErrors(t *testing.T) {
	err := ReadFull(failingReader{}, make([]byte, 2))
	assert.True(t, errors.Is(err, io.ErrClosedPipe))
	assert.False(t, errors.Is(err, ErrTruncatedInput))
}

func TestCountingWriter(t *testing.T) {
	var c CountingWriter
	require.NoError(t, WriteLengthPrefixed(&c, []byte("snowflake")))
	assert.Equal(t, LengthSize+9, c.N)
}
