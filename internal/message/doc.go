// Package message implements the lookaround discovery wire protocol.
//
// Every datagram starts with a 4-byte magic number followed by one or more
// tagged messages packed back to back:
//
//	[0-3]   magic      0x9A 0x4A 0x43 0x81
//	[4]     tag        Message type
//	[5+]    body       Type-specific body
//	...     tag/body   Further messages, no repeated magic
//
// # Message Types
//
//   - 0x01 Request: 8-byte idempotency token, optional MAC filter
//   - 0x02 ResponseMAC: optional MAC of the answering host
//   - 0x03 ResponseNickname: length-prefixed body holding the token and a
//     length-prefixed UTF-8 nickname
//
// An optional MAC is a tag byte (0x00 absent, 0x01 present) followed by six
// bytes when present.
//
// A server answers one Request with a single datagram carrying ResponseMAC
// and ResponseNickname, so the common reply needs no second round trip.
//
// # Usage Example
//
//	token, _ := message.NewIdemToken()
//	data, err := message.Encode(message.Request{IdemID: token})
//	if err != nil {
//	    return err
//	}
//
//	msgs, err := message.DecodeMany(reply)
//	if err != nil {
//	    return err
//	}
//	for _, msg := range msgs {
//	    switch m := msg.(type) {
//	    case message.ResponseMAC:
//	        fmt.Println("mac:", m.MAC)
//	    case message.ResponseNickname:
//	        fmt.Println("nickname:", m.Nickname)
//	    }
//	}
//
// # Error Handling
//
// Decoding is strict. An unknown tag is an error rather than something to
// skip, so adding a message type requires all peers to be upgraded.
// Nicknames are capped at MaxNicknameLen bytes on both sides and the cap is
// checked before any allocation.
//
// # Thread Safety
//
// All functions are stateless and safe for concurrent use.
package message
