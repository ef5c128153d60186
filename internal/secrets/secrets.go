// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets loads catalog credentials from a directory of plain-text
// key files: the file name is the key, the trimmed contents are the value.
// The pipeline reads catalog-api-key from here.
package secrets

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog"
)

// Secrets holds the key files loaded from a secrets directory.
type Secrets map[string]string

// Get returns the named secret, or fallback when it was not loaded.
func (s Secrets) Get(name, fallback string) string {
	if v, ok := s[name]; ok {
		return v
	}
	return fallback
}

// Keys returns the loaded key names, sorted.
func (s Secrets) Keys() []string {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Load reads every regular file in dir into a Secrets set, trimming
// surrounding whitespace and dropping empty values. A missing directory is
// not an error: Load returns an empty set. Dotfiles and subdirectories are
// ignored, and an unreadable key file is logged and skipped.
func Load(dir string, log zerolog.Logger) (Secrets, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return Secrets{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	loaded := Secrets{}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			log.Warn().Err(err).Str("key", name).Msg("skipping unreadable secret file")
			continue
		}
		if value := strings.TrimSpace(string(data)); value != "" {
			loaded[name] = value
		}
	}
	return loaded, nil
}
