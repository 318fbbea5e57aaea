// Package config provides user configuration management for lookaround.
//
// This package manages a YAML-based configuration file that stores local
// nickname overrides for peers, keyed by MAC address, and the defaults for
// the server and client commands. The configuration follows OS-specific
// conventions for storage location.
//
// # Configuration File Location
//
// The configuration file is stored in platform-appropriate locations:
//   - Linux: $XDG_CONFIG_HOME/lookaround/config.yaml or $HOME/.config/lookaround/config.yaml
//   - macOS: $HOME/.config/lookaround/config.yaml
//   - Windows: %LOCALAPPDATA%\lookaround\config.yaml
//
// # File Format
//
//	version: 1
//	nicknames:
//	  "02:00:5e:10:20:30": desk
//	server:
//	  nickname: laptop
//	  mdns: false
//	client:
//	  timeout_seconds: 2
//
// # Usage Example
//
//	registry, err := config.Load()
//	if err != nil {
//	    return err
//	}
//
//	if err := registry.SetNickname("02:00:5e:10:20:30", "desk"); err != nil {
//	    return err
//	}
//
//	// Save changes atomically
//	if err := registry.Save(); err != nil {
//	    return err
//	}
//
// # Thread Safety
//
// A Registry is not safe for concurrent mutation. File writes are protected
// by a package mutex so concurrent saves do not interleave.
package config
