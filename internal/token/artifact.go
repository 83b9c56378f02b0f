// Package token handles the on-disk token artifact: the file downstream
// consumers (MCP bridge, web app) read their bearer credential from.
package token

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrEmpty marks a token file that exists but holds no token.
var ErrEmpty = errors.New("token file is empty")

// WriteFile persists tok (plus trailing newline) at path, creating missing
// parent directories. The write goes through a .part rename so a concurrent
// reader never observes a torn file. Only called after a fully successful
// login; failure paths must leave the file untouched.
func WriteFile(path, tok string) error {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create token dir: %w", err)
		}
	}
	tmp := path + ".part"
	if err := os.WriteFile(tmp, []byte(tok+"\n"), 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// LoadFile reads a token back, trimming surrounding whitespace/newlines.
func LoadFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	tok := strings.TrimSpace(string(data))
	if tok == "" {
		return "", fmt.Errorf("%w: %s", ErrEmpty, path)
	}
	return tok, nil
}
