package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

type Config struct {
	// Endpoint is the GraphQL URL (e.g. http://127.0.0.1:4455/graphql).
	Endpoint string `json:"endpoint,omitempty"`

	// UserID and WorkspaceID are the identity inputs mutations need. When unset,
	// actions that require them are skipped.
	UserID      string `json:"userId,omitempty"`
	WorkspaceID string `json:"workspaceId,omitempty"`

	// DownloadDir is where block downloads are saved (default: ~/Downloads).
	DownloadDir string `json:"downloadDir,omitempty"`

	LogLevel string `json:"logLevel,omitempty"`

	TUI *TUIConfig `json:"tui,omitempty"`
}

type TUIConfig struct {
	// Glyphs selects the glyph set ("unicode" or "ascii").
	Glyphs string `json:"glyphs,omitempty"`
	// MarkdownStyle is the glamour style used for folder descriptions.
	MarkdownStyle string `json:"markdownStyle,omitempty"`
}

// ConfigKeys lists the keys accepted by Set, sorted.
func ConfigKeys() []string {
	keys := []string{"endpoint", "userId", "workspaceId", "downloadDir", "logLevel", "tui.glyphs", "tui.markdownStyle"}
	sort.Strings(keys)
	return keys
}

// Set assigns a config value by key. An empty value clears it.
func (c *Config) Set(key, value string) error {
	value = strings.TrimSpace(value)
	switch key {
	case "endpoint":
		c.Endpoint = value
	case "userId":
		c.UserID = value
	case "workspaceId":
		c.WorkspaceID = value
	case "downloadDir":
		c.DownloadDir = value
	case "logLevel":
		c.LogLevel = value
	case "tui.glyphs", "tui.markdownStyle":
		if c.TUI == nil {
			c.TUI = &TUIConfig{}
		}
		if key == "tui.glyphs" {
			c.TUI.Glyphs = value
		} else {
			c.TUI.MarkdownStyle = value
		}
	default:
		return fmt.Errorf("unknown config key: %s (known: %s)", key, strings.Join(ConfigKeys(), ", "))
	}
	return nil
}

func ConfigDir() (string, error) {
	// Test/advanced override (keeps unit tests from touching ~/.folio).
	if v := strings.TrimSpace(os.Getenv("FOLIO_CONFIG_DIR")); v != "" {
		return v, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".folio"), nil
}

func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

func LoadConfig() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, err
	}
	var cfg Config
	if err := json.Unmarshal(b, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func atomicWriteFile(dir, tmpPattern, path string, b []byte, perm os.FileMode) error {
	f, err := os.CreateTemp(dir, tmpPattern)
	if err != nil {
		return err
	}
	tmp := f.Name()
	defer func() { _ = os.Remove(tmp) }()
	if _, err := f.Write(b); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	_ = os.Chmod(tmp, perm)
	return os.Rename(tmp, path)
}

func SaveConfig(cfg *Config) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	b, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	// Unique temp name + rename: the CLI and a running TUI may both write config.
	return atomicWriteFile(dir, "config.json.*.tmp", path, b, 0o600)
}
