// Package storage writes invoice attachments to the local content store.
package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// unsafeChars strips everything outside letters, digits, whitespace and
// a few joiners, so attachment names cannot escape their directory.
var unsafeChars = regexp.MustCompile(`[^\p{L}\p{N}_\s.-]`)

// Store saves attachment bytes under a per-account, per-invoice directory.
type Store struct {
	root string
}

// New creates a Store rooted at the given directory.
func New(root string) *Store {
	return &Store{root: root}
}

// Save writes the attachment and returns the stored path. Filenames are
// sanitized; an empty result falls back to a generic name.
func (s *Store) Save(accountID, invoiceID, filename string, content []byte) (string, error) {
	dir := filepath.Join(s.root, accountID, invoiceID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create attachment directory: %w", err)
	}

	safe := strings.TrimSpace(unsafeChars.ReplaceAllString(filename, ""))
	if safe == "" {
		safe = "attachment.pdf"
	}

	path := filepath.Join(dir, safe)
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return "", fmt.Errorf("write attachment %s: %w", safe, err)
	}
	return path, nil
}
