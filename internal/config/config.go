// Package config loads the optional user options file (~/.ypsh.yaml).
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Options holds user-tunable settings. Zero values fall back to defaults,
// so a partial options file only overrides what it names.
type Options struct {
	Prompt      string   `yaml:"prompt"`
	HistoryFile string   `yaml:"history_file"`
	SearchPaths []string `yaml:"search_paths"`
}

const optionsFileName = ".ypsh.yaml"

// Default returns the built-in options used when no file is present.
func Default() Options {
	opts := Options{Prompt: "ypsh> "}
	if home, err := os.UserHomeDir(); err == nil {
		opts.HistoryFile = filepath.Join(home, ".ypsh_history")
	}
	return opts
}

// Load reads ~/.ypsh.yaml and merges it over the defaults. A missing file
// is not an error; a malformed one is.
func Load() (Options, error) {
	opts := Default()

	home, err := os.UserHomeDir()
	if err != nil {
		return opts, nil
	}
	return loadFile(filepath.Join(home, optionsFileName), opts)
}

func loadFile(path string, opts Options) (Options, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return opts, nil
		}
		return opts, fmt.Errorf("reading options file %s: %w", path, err)
	}

	var loaded Options
	if err := yaml.Unmarshal(data, &loaded); err != nil {
		return opts, fmt.Errorf("parsing options file %s: %w", path, err)
	}

	if loaded.Prompt != "" {
		opts.Prompt = loaded.Prompt
	}
	if loaded.HistoryFile != "" {
		opts.HistoryFile = loaded.HistoryFile
	}
	if len(loaded.SearchPaths) > 0 {
		opts.SearchPaths = loaded.SearchPaths
	}
	return opts, nil
}
