// Package nickname decides which display name to show for a discovered peer.
//
// A peer's self-announced nickname always wins. The local override table,
// keyed by MAC address, only fills in for peers that announced nothing.
package nickname

import "github.com/lookaround/lookaround/internal/message"

// Resolve returns the display nickname for a peer, or nil if it has none.
//
//   - announced non-empty: announced
//   - otherwise, mac known and present in overrides: the override
//   - otherwise: nil
func Resolve(overrides map[message.MAC]string, mac *message.MAC, announced *string) *string {
	if announced != nil && *announced != "" {
		nick := *announced
		return &nick
	}
	if mac == nil {
		return nil
	}
	if nick, ok := overrides[*mac]; ok {
		return &nick
	}
	return nil
}
