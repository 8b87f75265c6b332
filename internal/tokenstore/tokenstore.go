// Package tokenstore persists the session token as a single value in a
// local file. It is a leaf package: the session manager writes through it
// and subscribes to external changes on it, but the store knows nothing
// about sessions. Token values are never logged.
package tokenstore

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// FilePerms restricts the token file to owner-only read/write.
const FilePerms = 0o600

// DirPerms is used when creating the token directory.
const DirPerms = 0o700

// Store reads and writes the token file at a fixed path.
type Store struct {
	path   string
	logger *slog.Logger
}

// New creates a Store for the given token file path.
func New(path string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}

	return &Store{path: path, logger: logger}
}

// Path returns the token file path.
func (s *Store) Path() string {
	return s.path
}

// Load reads the stored token. Returns "" when the file does not exist —
// absence means logged out, not an error.
func (s *Store) Load() (string, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}

	if err != nil {
		return "", fmt.Errorf("tokenstore: reading %s: %w", s.path, err)
	}

	return strings.TrimSpace(string(data)), nil
}

// Save writes the token atomically (write-to-temp + rename) with 0600
// permissions.
func (s *Store) Save(token string) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, DirPerms); err != nil {
		return fmt.Errorf("tokenstore: creating directory %s: %w", dir, err)
	}

	// Atomic write: temp file in the same directory, then rename.
	// Same directory guarantees same filesystem for rename(2).
	tmp, err := os.CreateTemp(dir, ".token-*.tmp")
	if err != nil {
		return fmt.Errorf("tokenstore: creating temp file: %w", err)
	}

	tmpPath := tmp.Name()

	success := false
	defer func() {
		if !success {
			_ = os.Remove(tmpPath)
		}
	}()

	if err := os.Chmod(tmpPath, FilePerms); err != nil {
		tmp.Close()
		return fmt.Errorf("tokenstore: setting permissions: %w", err)
	}

	if _, err := tmp.WriteString(token + "\n"); err != nil {
		tmp.Close()
		return fmt.Errorf("tokenstore: writing: %w", err)
	}

	// Flush to stable storage before rename so a crash between close and
	// rename cannot leave an empty token file at the final path.
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("tokenstore: syncing: %w", err)
	}

	if err := tmp.Close(); err != nil {
		return fmt.Errorf("tokenstore: closing: %w", err)
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		return fmt.Errorf("tokenstore: renaming: %w", err)
	}

	success = true

	return nil
}

// Clear removes the token file. Clearing an absent token is a no-op.
func (s *Store) Clear() error {
	err := os.Remove(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}

	if err != nil {
		return fmt.Errorf("tokenstore: removing %s: %w", s.path, err)
	}

	return nil
}
