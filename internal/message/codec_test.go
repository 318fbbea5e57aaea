package message

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	testIdem = IdemToken{1, 2, 3, 4, 5, 6, 7, 8}
	testMAC  = MAC{0x01, 0x02, 0x03, 0x04, 0x05, 0x06}
)

func TestEncode_Layouts(t *testing.T) {
	tests := []struct {
		name string
		msg  Message
		want []byte
	}{
		{
			name: "broadcast request",
			msg:  Request{IdemID: testIdem},
			want: []byte{
				0x9A, 0x4A, 0x43, 0x81,
				0x01,
				1, 2, 3, 4, 5, 6, 7, 8,
				0x00,
			},
		},
		{
			name: "request with mac filter",
			msg:  Request{IdemID: testIdem, MAC: &testMAC},
			want: []byte{
				0x9A, 0x4A, 0x43, 0x81,
				0x01,
				1, 2, 3, 4, 5, 6, 7, 8,
				0x01, 0x01, 0x02, 0x03, 0x04, 0x05, 0x06,
			},
		},
		{
			name: "response mac absent",
			msg:  ResponseMAC{},
			want: []byte{0x9A, 0x4A, 0x43, 0x81, 0x02, 0x00},
		},
		{
			name: "response nickname",
			msg:  ResponseNickname{IdemID: testIdem, Nickname: "snowflake"},
			want: append([]byte{
				0x9A, 0x4A, 0x43, 0x81,
				0x03,
				21, 0, 0, 0,
				1, 2, 3, 4, 5, 6, 7, 8,
				9, 0, 0, 0,
			}, "snowflake"...),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Encode(tt.msg)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEncodeMany_SingleMagic(t *testing.T) {
	data, err := EncodeMany([]Message{
		ResponseMAC{MAC: &testMAC},
		ResponseNickname{IdemID: testIdem, Nickname: "desk"},
	})
	require.NoError(t, err)

	assert.Equal(t, 1, bytes.Count(data, Magic[:]))
	assert.Equal(t, Magic[:], data[:4])
	assert.Equal(t, byte(TypeResponseMAC), data[4])
	assert.Equal(t, byte(TypeResponseNickname), data[4+1+1+MACSize])
}

func TestRoundTrip(t *testing.T) {
	otherMAC := MAC{0xFF, 0xEE, 0xDD, 0xCC, 0xBB, 0xAA}

	tests := []struct {
		name string
		msgs []Message
	}{
		{name: "empty datagram", msgs: nil},
		{name: "broadcast request", msgs: []Message{Request{IdemID: testIdem}}},
		{name: "targeted request", msgs: []Message{Request{IdemID: testIdem, MAC: &otherMAC}}},
		{name: "mac only", msgs: []Message{ResponseMAC{MAC: &testMAC}}},
		{name: "unknown mac", msgs: []Message{ResponseMAC{}}},
		{name: "empty nickname", msgs: []Message{ResponseNickname{IdemID: testIdem}}},
		{name: "unicode nickname", msgs: []Message{ResponseNickname{IdemID: testIdem, Nickname: "büro ☃"}}},
		{name: "max length nickname", msgs: []Message{ResponseNickname{Nickname: strings.Repeat("n", MaxNicknameLen)}}},
		{
			name: "server reply pair",
			msgs: []Message{
				ResponseMAC{MAC: &testMAC},
				ResponseNickname{IdemID: testIdem, Nickname: "snowflake"},
			},
		},
		{
			name: "mixed sequence",
			msgs: []Message{
				Request{IdemID: testIdem},
				ResponseNickname{IdemID: testIdem, Nickname: "a"},
				ResponseMAC{},
				ResponseNickname{IdemID: IdemToken{9}, Nickname: "b"},
				ResponseMAC{MAC: &otherMAC},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := EncodeMany(tt.msgs)
			require.NoError(t, err)

			got, err := DecodeMany(data)
			require.NoError(t, err)
			assert.Equal(t, tt.msgs, got)
		})
	}
}

func TestDecodeMany_MagicMismatch(t *testing.T) {
	valid, err := EncodeMany([]Message{ResponseMAC{MAC: &testMAC}, ResponseNickname{Nickname: "x"}})
	require.NoError(t, err)

	for i := 0; i < len(Magic); i++ {
		for _, flip := range []byte{0x01, 0x80, 0xFF} {
			data := bytes.Clone(valid)
			data[i] ^= flip
			_, err := DecodeMany(data)
			assert.ErrorIs(t, err, ErrMagicMismatch, "byte %d flipped with 0x%02x", i, flip)
		}
	}

	_, err = DecodeMany([]byte{0, 0, 0, 0})
	assert.ErrorIs(t, err, ErrMagicMismatch)

	_, err = DecodeMany([]byte{'G', 'E', 'T', ' ', '/', ' '})
	assert.ErrorIs(t, err, ErrMagicMismatch)
}

func TestDecodeMany_ShortDatagram(t *testing.T) {
	tests := []struct {
		name    string
		data    []byte
		wantErr error
	}{
		{name: "empty", data: []byte{}, wantErr: ErrTruncated},
		{name: "one magic byte", data: Magic[:1], wantErr: ErrTruncated},
		{name: "three magic bytes", data: Magic[:3], wantErr: ErrTruncated},
		{name: "wrong first byte", data: []byte{0x00}, wantErr: ErrMagicMismatch},
		{name: "wrong third byte", data: []byte{0x9A, 0x4A, 0x00}, wantErr: ErrMagicMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeMany(tt.data)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestDecodeMany_Errors(t *testing.T) {
	magic := Magic[:]
	withMagic := func(b ...byte) []byte { return append(bytes.Clone(magic), b...) }

	nicknameBody := func(declared uint32, nickLen uint32, nick string) []byte {
		b := withMagic(TypeResponseNickname,
			byte(declared), byte(declared>>8), byte(declared>>16), byte(declared>>24))
		b = append(b, testIdem[:]...)
		b = append(b, byte(nickLen), byte(nickLen>>8), byte(nickLen>>16), byte(nickLen>>24))
		return append(b, nick...)
	}

	tests := []struct {
		name    string
		data    []byte
		wantErr error
	}{
		{name: "unknown message tag", data: withMagic(0x04), wantErr: ErrUnknownTag},
		{name: "zero tag", data: withMagic(0x00), wantErr: ErrUnknownTag},
		{name: "unknown optional mac tag", data: withMagic(TypeResponseMAC, 0x02), wantErr: ErrUnknownTag},
		{name: "truncated idem", data: withMagic(TypeRequest, 1, 2, 3), wantErr: ErrTruncated},
		{name: "missing mac tag", data: withMagic(TypeResponseMAC), wantErr: ErrTruncated},
		{name: "truncated mac", data: withMagic(TypeResponseMAC, 0x01, 1, 2), wantErr: ErrTruncated},
		{name: "truncated body length", data: withMagic(TypeResponseNickname, 1, 0), wantErr: ErrTruncated},
		{name: "body longer than datagram", data: nicknameBody(200, 2, "ab"), wantErr: ErrTruncated},
		{name: "nickname over cap", data: nicknameBody(8+4+65, 65, strings.Repeat("x", 65)), wantErr: ErrNicknameTooLong},
		{name: "nickname declares huge length", data: nicknameBody(12, 0xFFFFFFFF, ""), wantErr: ErrNicknameTooLong},
		{name: "invalid utf8", data: nicknameBody(8+4+2, 2, "\xff\xfe"), wantErr: ErrInvalidUTF8},
		{name: "nickname overruns body", data: nicknameBody(8+4+1, 2, "ab"), wantErr: ErrTruncated},
		{name: "trailing bytes in body", data: append(nicknameBody(8+4+2+1, 2, "ab"), 0x00), wantErr: ErrBodyLength},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeMany(tt.data)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestEncode_Errors(t *testing.T) {
	_, err := Encode(ResponseNickname{Nickname: strings.Repeat("x", MaxNicknameLen+1)})
	assert.ErrorIs(t, err, ErrNicknameTooLong)

	_, err = Encode(ResponseNickname{Nickname: "\xff"})
	assert.ErrorIs(t, err, ErrInvalidUTF8)

	many := make([]Message, 0, 100)
	for i := 0; i < 100; i++ {
		many = append(many, ResponseNickname{Nickname: "0123456789"})
	}
	_, err = EncodeMany(many)
	assert.ErrorIs(t, err, ErrDatagramTooBig)
}

func TestMessage_String(t *testing.T) {
	assert.Equal(t, "Request{idem=0102030405060708, mac=none}", Request{IdemID: testIdem}.String())
	assert.Equal(t, "ResponseMAC{mac=01:02:03:04:05:06}", ResponseMAC{MAC: &testMAC}.String())
	assert.Equal(t, `ResponseNickname{idem=0102030405060708, nickname="desk"}`,
		ResponseNickname{IdemID: testIdem, Nickname: "desk"}.String())
}
