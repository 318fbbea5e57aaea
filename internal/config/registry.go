package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"gopkg.in/yaml.v3"
)

const (
	appName    = "lookaround"
	configFile = "config.yaml"
)

// Mutex for thread-safe file operations
var fileMutex sync.Mutex

// GetConfigDir returns the OS-appropriate configuration directory for the application.
// This follows platform conventions:
//   - Linux: $XDG_CONFIG_HOME/lookaround or $HOME/.config/lookaround
//   - macOS: $HOME/.config/lookaround (following XDG convention on macOS)
//   - Windows: %LOCALAPPDATA%\lookaround
func GetConfigDir() (string, error) {
	var baseDir string

	switch runtime.GOOS {
	case "windows":
		localAppData := os.Getenv("LOCALAPPDATA")
		if localAppData == "" {
			// Fallback to USERPROFILE\AppData\Local if LOCALAPPDATA not set
			userProfile := os.Getenv("USERPROFILE")
			if userProfile == "" {
				return "", fmt.Errorf("cannot determine user profile directory (LOCALAPPDATA and USERPROFILE not set)")
			}
			baseDir = filepath.Join(userProfile, "AppData", "Local", appName)
		} else {
			baseDir = filepath.Join(localAppData, appName)
		}

	case "darwin":
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("cannot determine home directory: %w", err)
		}
		baseDir = filepath.Join(homeDir, ".config", appName)

	default:
		xdgConfigHome := os.Getenv("XDG_CONFIG_HOME")
		if xdgConfigHome != "" {
			baseDir = filepath.Join(xdgConfigHome, appName)
		} else {
			homeDir, err := os.UserHomeDir()
			if err != nil {
				return "", fmt.Errorf("cannot determine home directory: %w", err)
			}
			baseDir = filepath.Join(homeDir, ".config", appName)
		}
	}

	return baseDir, nil
}

// GetConfigPath returns the full path to the configuration file.
func GetConfigPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, configFile), nil
}

// Load loads the registry from the default location.
func Load() (*Registry, error) {
	configPath, err := GetConfigPath()
	if err != nil {
		return nil, fmt.Errorf("failed to get config path: %w", err)
	}
	return LoadFrom(configPath)
}

// LoadFrom loads the registry from path.
// If the file doesn't exist, returns a new default registry bound to path.
func LoadFrom(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		registry := NewRegistry()
		registry.path = path
		return registry, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var registry Registry
	if err := yaml.Unmarshal(data, &registry); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	if registry.Version != 1 {
		return nil, fmt.Errorf("unsupported config version: %d (expected 1)", registry.Version)
	}

	// Ensure maps are initialized
	if registry.Nicknames == nil {
		registry.Nicknames = make(map[string]string)
	}
	if registry.Server == nil {
		registry.Server = &ServerPrefs{}
	}
	if registry.Client == nil {
		registry.Client = &ClientPrefs{TimeoutSeconds: DefaultTimeoutSeconds}
	}
	if registry.Client.TimeoutSeconds < 0 {
		return nil, fmt.Errorf("invalid client.timeout_seconds in %s: %v is negative", path, registry.Client.TimeoutSeconds)
	}
	registry.path = path

	return &registry, nil
}

// Save saves the registry to the file it was loaded from.
// Performs an atomic write to prevent corruption on crash.
func (r *Registry) Save() error {
	fileMutex.Lock()
	defer fileMutex.Unlock()

	configPath := r.path
	if configPath == "" {
		p, err := GetConfigPath()
		if err != nil {
			return fmt.Errorf("failed to get config path: %w", err)
		}
		configPath = p
	}

	// Create directory with user-only permissions (0700)
	if err := os.MkdirAll(filepath.Dir(configPath), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(r)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := []byte(`# lookaround configuration file
# nicknames maps a peer's MAC address to a local display name. It is used
# when the peer does not announce a nickname of its own.
#
# Location: ` + configPath + `

`)
	data = append(header, data...)

	// Write to temporary file first (atomic write)
	tmpPath := configPath + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write temporary config file: %w", err)
	}

	if err := os.Rename(tmpPath, configPath); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to save config file: %w", err)
	}

	r.path = configPath
	return nil
}

// CreateDefaultConfig writes a default configuration file with an example
// override to path. An existing file is left untouched.
func CreateDefaultConfig(path string) (*Registry, error) {
	if _, err := os.Stat(path); err == nil {
		return nil, fmt.Errorf("config file already exists: %s", path)
	}

	registry := NewRegistry()
	registry.path = path
	registry.Nicknames["02:00:00:00:00:01"] = "example-desktop"

	if err := registry.Save(); err != nil {
		return nil, err
	}
	return registry, nil
}
