package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestMissingFileKeepsDefaults(t *testing.T) {
	defaults := Default()
	opts, err := loadFile(filepath.Join(t.TempDir(), "absent.yaml"), defaults)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if opts.Prompt != defaults.Prompt {
		t.Errorf("expected default prompt %q, got %q", defaults.Prompt, opts.Prompt)
	}
}

func TestPartialFileOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "opts.yaml")
	content := "prompt: \">> \"\nsearch_paths:\n  - /opt/scripts\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing options: %v", err)
	}

	defaults := Default()
	opts, err := loadFile(path, defaults)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if opts.Prompt != ">> " {
		t.Errorf("expected overridden prompt, got %q", opts.Prompt)
	}
	if len(opts.SearchPaths) != 1 || opts.SearchPaths[0] != "/opt/scripts" {
		t.Errorf("expected search paths override, got %v", opts.SearchPaths)
	}
	// Unnamed keys keep their defaults.
	if opts.HistoryFile != defaults.HistoryFile {
		t.Errorf("expected default history file, got %q", opts.HistoryFile)
	}
}

func TestMalformedFileIsError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "opts.yaml")
	if err := os.WriteFile(path, []byte("prompt: [unclosed"), 0o644); err != nil {
		t.Fatalf("writing options: %v", err)
	}

	if _, err := loadFile(path, Default()); err == nil {
		t.Fatal("expected parse error for malformed options file")
	}
}
