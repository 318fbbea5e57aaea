package config

import (
	"fmt"
	"time"
	"unicode/utf8"

	"go.uber.org/multierr"

	"github.com/lookaround/lookaround/internal/message"
)

// Registry represents the entire user configuration file.
type Registry struct {
	Version   int               `yaml:"version"`
	Nicknames map[string]string `yaml:"nicknames,omitempty"` // Keyed by colon-hex MAC
	Server    *ServerPrefs      `yaml:"server,omitempty"`
	Client    *ClientPrefs      `yaml:"client,omitempty"`

	path string // File the registry was loaded from and saves to
}

// ServerPrefs are the defaults for `lookaround server`.
type ServerPrefs struct {
	Nickname  string   `yaml:"nickname,omitempty"`   // Announced display name
	BindAddrs []string `yaml:"bind_addrs,omitempty"` // Interface IPs to answer on
	MDNS      bool     `yaml:"mdns"`                 // Also advertise over mDNS
}

// ClientPrefs are the defaults for `lookaround client` and `find-nick`.
type ClientPrefs struct {
	BindAddrs      []string `yaml:"bind_addrs,omitempty"` // Interface IPs to query on
	TimeoutSeconds float64  `yaml:"timeout_seconds"`      // Collection window
}

// DefaultTimeoutSeconds is the client collection window when none is configured
const DefaultTimeoutSeconds = 2

// NewRegistry creates a new Registry with default values.
func NewRegistry() *Registry {
	return &Registry{
		Version:   1,
		Nicknames: make(map[string]string),
		Server:    &ServerPrefs{},
		Client: &ClientPrefs{
			TimeoutSeconds: DefaultTimeoutSeconds,
		},
	}
}

// Path returns the file this registry is bound to
func (r *Registry) Path() string {
	return r.path
}

// SetNickname records a local nickname override for mac. The key is stored
// in canonical lower-case colon-hex form.
func (r *Registry) SetNickname(mac, nickname string) error {
	m, err := message.ParseMAC(mac)
	if err != nil {
		return err
	}
	if nickname == "" {
		return fmt.Errorf("nickname for %s is empty", m)
	}
	if len(nickname) > message.MaxNicknameLen {
		return fmt.Errorf("%w: %d bytes (max %d)", message.ErrNicknameTooLong, len(nickname), message.MaxNicknameLen)
	}
	if !utf8.ValidString(nickname) {
		return message.ErrInvalidUTF8
	}

	if r.Nicknames == nil {
		r.Nicknames = make(map[string]string)
	}
	// Drop any differently-spelled key for the same address
	r.removeKeysFor(m)
	r.Nicknames[m.String()] = nickname
	return nil
}

// RemoveNickname deletes the override for mac, reporting whether one existed
func (r *Registry) RemoveNickname(mac string) (bool, error) {
	m, err := message.ParseMAC(mac)
	if err != nil {
		return false, err
	}
	return r.removeKeysFor(m), nil
}

func (r *Registry) removeKeysFor(m message.MAC) bool {
	removed := false
	for key := range r.Nicknames {
		if parsed, err := message.ParseMAC(key); err == nil && parsed == m {
			delete(r.Nicknames, key)
			removed = true
		}
	}
	return removed
}

// NicknameOverrides returns the overrides keyed by parsed MAC. Entries with
// an unparseable key are skipped; their errors are returned combined
// alongside the usable map.
func (r *Registry) NicknameOverrides() (map[message.MAC]string, error) {
	overrides := make(map[message.MAC]string, len(r.Nicknames))
	var errs error
	for key, nick := range r.Nicknames {
		mac, err := message.ParseMAC(key)
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		overrides[mac] = nick
	}
	return overrides, errs
}

// ClientTimeout returns the configured collection window. An unset (zero)
// timeout means the default; LoadFrom rejects negative values.
func (r *Registry) ClientTimeout() time.Duration {
	if r.Client == nil || r.Client.TimeoutSeconds <= 0 {
		return DefaultTimeoutSeconds * time.Second
	}
	return time.Duration(r.Client.TimeoutSeconds * float64(time.Second))
}
