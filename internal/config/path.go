// Package config resolves harbor's configuration: engine settings, the
// snapshot database, Google Sheets credentials and the files harbor keeps
// under the user's config and data directories.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Veraticus/safe-harbor/internal/sheets"
)

const appDir = "harbor"

// ExpandPath expands a leading ~ and $VAR references in a user-supplied path.
func ExpandPath(path string) string {
	if rest, ok := strings.CutPrefix(path, "~"); ok && (rest == "" || rest[0] == '/') {
		if home, err := os.UserHomeDir(); err == nil {
			path = home + rest
		}
	}
	return os.ExpandEnv(path)
}

// ConfigDir is $XDG_CONFIG_HOME/harbor, or ~/.config/harbor. It holds
// config.yaml and the saved Sheets token.
func ConfigDir() (string, error) {
	return xdgDir("XDG_CONFIG_HOME", ".config")
}

// DataDir is $XDG_DATA_HOME/harbor, or ~/.local/share/harbor. It holds the
// SQLite snapshot database.
func DataDir() (string, error) {
	return xdgDir("XDG_DATA_HOME", filepath.Join(".local", "share"))
}

// SheetsTokenPath is where `harbor auth sheets` saves the OAuth2 token and
// where `harbor export` looks for it.
func SheetsTokenPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, sheets.TokenFileName), nil
}

func xdgDir(env, fallback string) (string, error) {
	if base := os.Getenv(env); base != "" {
		return filepath.Join(base, appDir), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, fallback, appDir), nil
}
