package message

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/lookaround/lookaround/internal/tlv"
)

const (
	// MaxDatagramSize is the largest datagram either side sends or reads
	MaxDatagramSize = 1024

	// MaxNicknameLen caps the nickname byte length on encode and decode
	MaxNicknameLen = 64
)

// Magic is the preamble of every datagram
var Magic = [4]byte{0x9A, 0x4A, 0x43, 0x81}

var (
	// ErrMagicMismatch is returned when a datagram does not start with Magic
	ErrMagicMismatch = tlv.ErrMagicMismatch

	// ErrTruncated is returned when a field cannot be fully read
	ErrTruncated = tlv.ErrTruncatedInput

	// ErrUnknownTag is returned for an unrecognized message or field tag
	ErrUnknownTag = errors.New("unknown tag")

	// ErrInvalidUTF8 is returned when a nickname is not valid UTF-8
	ErrInvalidUTF8 = errors.New("nickname is not valid UTF-8")

	// ErrNicknameTooLong is returned when a nickname exceeds MaxNicknameLen
	ErrNicknameTooLong = errors.New("nickname too long")

	// ErrBodyLength is returned when a declared body length disagrees with its contents
	ErrBodyLength = errors.New("body length mismatch")

	// ErrDatagramTooBig is returned when an encoded datagram exceeds MaxDatagramSize
	ErrDatagramTooBig = errors.New("datagram too big")
)

// Encode serializes a single message with its own magic preamble
func Encode(msg Message) ([]byte, error) {
	return EncodeMany([]Message{msg})
}

// EncodeMany writes Magic once followed by every message's tag and body
func EncodeMany(msgs []Message) ([]byte, error) {
	buf := bytes.NewBuffer(make([]byte, 0, MaxDatagramSize))
	buf.Write(Magic[:])

	for _, msg := range msgs {
		if err := tlv.WriteU8(buf, msg.Type()); err != nil {
			return nil, err
		}
		if err := msg.encodeBody(buf); err != nil {
			return nil, fmt.Errorf("failed to encode %s: %w", msg, err)
		}
	}

	if buf.Len() > MaxDatagramSize {
		return nil, fmt.Errorf("%w: %d bytes (max %d)", ErrDatagramTooBig, buf.Len(), MaxDatagramSize)
	}
	return buf.Bytes(), nil
}

// DecodeMany validates Magic and decodes messages until the buffer is exhausted
func DecodeMany(data []byte) ([]Message, error) {
	r := bytes.NewReader(data)
	if err := tlv.ExpectBytes(r, Magic[:]); err != nil {
		return nil, err
	}

	var msgs []Message
	for r.Len() > 0 {
		msg, err := decodeOne(r)
		if err != nil {
			return nil, err
		}
		msgs = append(msgs, msg)
	}
	return msgs, nil
}

func decodeOne(r *bytes.Reader) (Message, error) {
	tag, err := tlv.ReadU8(r)
	if err != nil {
		return nil, err
	}

	switch tag {
	case TypeRequest:
		var m Request
		if err := tlv.ReadFull(r, m.IdemID[:]); err != nil {
			return nil, fmt.Errorf("request idem_id: %w", err)
		}
		if m.MAC, err = readMACOpt(r); err != nil {
			return nil, fmt.Errorf("request mac: %w", err)
		}
		return m, nil

	case TypeResponseMAC:
		mac, err := readMACOpt(r)
		if err != nil {
			return nil, fmt.Errorf("response mac: %w", err)
		}
		return ResponseMAC{MAC: mac}, nil

	case TypeResponseNickname:
		return decodeResponseNickname(r)

	default:
		return nil, fmt.Errorf("%w: message type 0x%02x", ErrUnknownTag, tag)
	}
}

func decodeResponseNickname(r *bytes.Reader) (Message, error) {
	bodyLen, err := tlv.ReadLength(r)
	if err != nil {
		return nil, fmt.Errorf("response nickname body length: %w", err)
	}
	if int64(bodyLen) > int64(r.Len()) {
		return nil, fmt.Errorf("%w: body declares %d bytes, %d remain", ErrTruncated, bodyLen, r.Len())
	}

	body := make([]byte, bodyLen)
	if err := tlv.ReadFull(r, body); err != nil {
		return nil, err
	}
	br := bytes.NewReader(body)

	var m ResponseNickname
	if err := tlv.ReadFull(br, m.IdemID[:]); err != nil {
		return nil, fmt.Errorf("response nickname idem_id: %w", err)
	}

	nick, err := tlv.ReadLengthPrefixed(br, MaxNicknameLen)
	if err != nil {
		if errors.Is(err, tlv.ErrDataTooBig) {
			return nil, fmt.Errorf("%w: %w", ErrNicknameTooLong, err)
		}
		return nil, fmt.Errorf("response nickname: %w", err)
	}
	if !utf8.Valid(nick) {
		return nil, ErrInvalidUTF8
	}
	m.Nickname = string(nick)

	if br.Len() != 0 {
		return nil, fmt.Errorf("%w: %d trailing bytes in nickname body", ErrBodyLength, br.Len())
	}
	return m, nil
}

func readMACOpt(r io.Reader) (*MAC, error) {
	tag, err := tlv.ReadU8(r)
	if err != nil {
		return nil, err
	}

	switch tag {
	case macAbsent:
		return nil, nil
	case macPresent:
		var m MAC
		if err := tlv.ReadFull(r, m[:]); err != nil {
			return nil, err
		}
		return &m, nil
	default:
		return nil, fmt.Errorf("%w: optional mac tag 0x%02x", ErrUnknownTag, tag)
	}
}
