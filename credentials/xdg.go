package credentials

import (
	"fmt"
	"os"
	"path/filepath"
)

// DefaultPath is $XDG_CONFIG_HOME/moves-go/credentials.json, falling back to
// ~/.config when XDG_CONFIG_HOME is unset. It returns "" if no home
// directory can be determined.
func DefaultPath() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		configHome = filepath.Join(homeDir, ".config")
	}
	return filepath.Join(configHome, "moves-go", "credentials.json")
}

// EnsureParentDir creates the directory holding path with mode 0700.
func EnsureParentDir(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	return nil
}

// FileExists reports whether path exists.
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
