// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets loads API keys from a directory of plain-text files, with
// environment-variable fallback. Each file in the directory represents one
// secret: the filename is the key name and the file contents (trimmed) are
// the value.
//
// Key files the engine looks for: kimi-api-key, gemini-api-key,
// openai-api-key, anthropic-api-key.
package secrets

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// envAliases maps environment variables to the canonical key name they stand
// in for. Order matters: the first set variable wins for a given key, and a
// key file always wins over the environment.
var envAliases = []struct{ env, key string }{
	{"KIMI_API_KEY", "kimi-api-key"},
	{"MOONSHOT_API_KEY", "kimi-api-key"},
	{"GEMINI_API_KEY", "gemini-api-key"},
	{"GOOGLE_API_KEY", "gemini-api-key"},
	{"OPENAI_API_KEY", "openai-api-key"},
	{"ANTHROPIC_API_KEY", "anthropic-api-key"},
}

// Load reads all files in dir into a map of filename to trimmed contents,
// then fills any canonical key still missing from the environment. A missing
// directory is not an error; Load still consults the environment. Unreadable
// files produce a warning on stderr but do not abort.
func Load(dir string) (map[string]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	secrets := make(map[string]string)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: could not read secret %s: %v\n", name, err)
			continue
		}

		value := strings.TrimSpace(string(data))
		if value != "" {
			secrets[name] = value
		}
	}

	for _, alias := range envAliases {
		if secrets[alias.key] != "" {
			continue
		}
		if value := strings.TrimSpace(os.Getenv(alias.env)); value != "" {
			secrets[alias.key] = value
		}
	}

	return secrets, nil
}
