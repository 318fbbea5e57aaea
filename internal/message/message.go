package message

import (
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/lookaround/lookaround/internal/tlv"
)

// Message type tags
const (
	TypeRequest          = 0x01
	TypeResponseMAC      = 0x02
	TypeResponseNickname = 0x03
)

// Optional-MAC field tags
const (
	macAbsent  = 0x00
	macPresent = 0x01
)

// Message is one of Request, ResponseMAC or ResponseNickname.
// The set is closed: encodeBody is unexported.
type Message interface {
	Type() byte
	String() string
	encodeBody(w io.Writer) error
}

// Request asks every listening server to identify itself.
// MAC is reserved for targeted queries; callers always leave it nil.
type Request struct {
	IdemID IdemToken
	MAC    *MAC
}

func (m Request) Type() byte { return TypeRequest }

func (m Request) String() string {
	return fmt.Sprintf("Request{idem=%s, mac=%s}", m.IdemID, formatMAC(m.MAC))
}

func (m Request) encodeBody(w io.Writer) error {
	if _, err := w.Write(m.IdemID[:]); err != nil {
		return err
	}
	return writeMACOpt(w, m.MAC)
}

// ResponseMAC carries a server's own MAC, or nil if it could not be detected
type ResponseMAC struct {
	MAC *MAC
}

func (m ResponseMAC) Type() byte { return TypeResponseMAC }

func (m ResponseMAC) String() string {
	return fmt.Sprintf("ResponseMAC{mac=%s}", formatMAC(m.MAC))
}

func (m ResponseMAC) encodeBody(w io.Writer) error {
	return writeMACOpt(w, m.MAC)
}

// ResponseNickname carries a server's configured display name.
//
// Body layout:
//
//	[0-3]   body_len   Little-endian uint32, length of the rest of the body
//	[4-11]  idem_id    Token of the request being answered
//	[12-15] nick_len   Little-endian uint32
//	[16+]   nickname   UTF-8 bytes
type ResponseNickname struct {
	IdemID   IdemToken
	Nickname string
}

func (m ResponseNickname) Type() byte { return TypeResponseNickname }

func (m ResponseNickname) String() string {
	return fmt.Sprintf("ResponseNickname{idem=%s, nickname=%q}", m.IdemID, m.Nickname)
}

func (m ResponseNickname) encodeBody(w io.Writer) error {
	if len(m.Nickname) > MaxNicknameLen {
		return fmt.Errorf("%w: %d bytes (max %d)", ErrNicknameTooLong, len(m.Nickname), MaxNicknameLen)
	}
	if !utf8.ValidString(m.Nickname) {
		return ErrInvalidUTF8
	}

	var counter tlv.CountingWriter
	if err := m.writeInner(&counter); err != nil {
		return err
	}
	if err := tlv.WriteLength(w, uint32(counter.N)); err != nil {
		return err
	}
	return m.writeInner(w)
}

func (m ResponseNickname) writeInner(w io.Writer) error {
	if _, err := w.Write(m.IdemID[:]); err != nil {
		return err
	}
	return tlv.WriteLengthPrefixed(w, []byte(m.Nickname))
}

func writeMACOpt(w io.Writer, mac *MAC) error {
	if mac == nil {
		return tlv.WriteU8(w, macAbsent)
	}
	if err := tlv.WriteU8(w, macPresent); err != nil {
		return err
	}
	_, err := w.Write(mac[:])
	return err
}

func formatMAC(mac *MAC) string {
	if mac == nil {
		return "none"
	}
	return mac.String()
}
