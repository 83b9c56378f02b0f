package token

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
)

func TestWriteFile_CreatesParentsAndNewline(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "token.txt")

	if err := WriteFile(path, "abc123"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "abc123\n" {
		t.Fatalf("want %q, got %q", "abc123\n", string(data))
	}
	// No leftover .part file.
	if _, err := os.Stat(path + ".part"); !os.IsNotExist(err) {
		t.Fatalf("temp file left behind: %v", err)
	}
}

func TestWriteFile_OverwritesInFull(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token.txt")
	if err := WriteFile(path, "a-much-longer-old-token"); err != nil {
		t.Fatal(err)
	}
	if err := WriteFile(path, "new"); err != nil {
		t.Fatal(err)
	}
	data, _ := os.ReadFile(path)
	if string(data) != "new\n" {
		t.Fatalf("stale content after overwrite: %q", string(data))
	}
}

func TestLoadFile_TrimsWhitespace(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token.txt")
	if err := os.WriteFile(path, []byte("  abc123\n\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	tok, err := LoadFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tok != "abc123" {
		t.Fatalf("want abc123, got %q", tok)
	}
}

func TestLoadFile_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token.txt")
	if err := WriteFile(path, "abc123"); err != nil {
		t.Fatal(err)
	}
	tok, err := LoadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if tok != "abc123" {
		t.Fatalf("round trip mismatch: %q", tok)
	}
}

func TestLoadFile_Empty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token.txt")
	if err := os.WriteFile(path, []byte("\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFile(path); !errors.Is(err, ErrEmpty) {
		t.Fatalf("want ErrEmpty, got %v", err)
	}
}

func TestLoadFile_Missing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "nope.txt"))
	if !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("want fs.ErrNotExist, got %v", err)
	}
}
