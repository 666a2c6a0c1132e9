// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package secrets

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearKeyEnv blanks every recognized environment alias so tests see only
// what they set themselves.
func clearKeyEnv(t *testing.T) {
	t.Helper()
	for _, alias := range envAliases {
		t.Setenv(alias.env, "")
	}
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name   string
		setup  func(t *testing.T) string
		want   map[string]string
		errMsg string
	}{
		{
			name: "reads key files and trims whitespace",
			setup: func(t *testing.T) string {
				dir := t.TempDir()
				writeFile(t, dir, "kimi-api-key", "  sk-kimi-abc123  \n")
				writeFile(t, dir, "gemini-api-key", "AIzaXyz789")
				writeFile(t, dir, "openai-api-key", "sk-openai-456\n")
				return dir
			},
			want: map[string]string{
				"kimi-api-key":   "sk-kimi-abc123",
				"gemini-api-key": "AIzaXyz789",
				"openai-api-key": "sk-openai-456",
			},
		},
		{
			name: "returns empty map for nonexistent directory",
			setup: func(t *testing.T) string {
				return filepath.Join(t.TempDir(), "does-not-exist")
			},
			want: map[string]string{},
		},
		{
			name: "skips empty files",
			setup: func(t *testing.T) string {
				dir := t.TempDir()
				writeFile(t, dir, "anthropic-api-key", "valid-key")
				writeFile(t, dir, "empty-key", "")
				writeFile(t, dir, "whitespace-only", "   \n\t  ")
				return dir
			},
			want: map[string]string{
				"anthropic-api-key": "valid-key",
			},
		},
		{
			name: "skips dotfiles",
			setup: func(t *testing.T) string {
				dir := t.TempDir()
				writeFile(t, dir, ".gitkeep", "")
				writeFile(t, dir, ".hidden-key", "secret")
				writeFile(t, dir, "kimi-api-key", "sk-real")
				return dir
			},
			want: map[string]string{
				"kimi-api-key": "sk-real",
			},
		},
		{
			name: "skips subdirectories",
			setup: func(t *testing.T) string {
				dir := t.TempDir()
				writeFile(t, dir, "anthropic-api-key", "ak_123")
				require.NoError(t, os.Mkdir(filepath.Join(dir, "subdir"), 0o755))
				return dir
			},
			want: map[string]string{
				"anthropic-api-key": "ak_123",
			},
		},
		{
			name: "returns empty map for empty directory",
			setup: func(t *testing.T) string {
				return t.TempDir()
			},
			want: map[string]string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearKeyEnv(t)
			dir := tt.setup(t)
			got, err := Load(dir)
			if tt.errMsg != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLoadEnvFallback(t *testing.T) {
	clearKeyEnv(t)
	t.Setenv("GEMINI_API_KEY", "AIzaFromEnv")
	t.Setenv("MOONSHOT_API_KEY", "sk-moonshot-env")

	got, err := Load(filepath.Join(t.TempDir(), "no-secrets"))
	require.NoError(t, err)
	assert.Equal(t, "AIzaFromEnv", got["gemini-api-key"])
	assert.Equal(t, "sk-moonshot-env", got["kimi-api-key"])
}

func TestLoadFileWinsOverEnv(t *testing.T) {
	clearKeyEnv(t)
	t.Setenv("OPENAI_API_KEY", "sk-from-env")

	dir := t.TempDir()
	writeFile(t, dir, "openai-api-key", "sk-from-file")

	got, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "sk-from-file", got["openai-api-key"])
}

func TestLoadEnvAliasOrder(t *testing.T) {
	clearKeyEnv(t)
	// KIMI_API_KEY precedes MOONSHOT_API_KEY in the alias table.
	t.Setenv("KIMI_API_KEY", "sk-kimi")
	t.Setenv("MOONSHOT_API_KEY", "sk-moonshot")

	got, err := Load(filepath.Join(t.TempDir(), "absent"))
	require.NoError(t, err)
	assert.Equal(t, "sk-kimi", got["kimi-api-key"])
}

func TestLoadUnreadableFile(t *testing.T) {
	if os.Getuid() == 0 {
		t.Skip("root ignores file permissions")
	}
	clearKeyEnv(t)
	dir := t.TempDir()
	writeFile(t, dir, "good-key", "value123")

	// Create a file then remove read permission.
	badPath := filepath.Join(dir, "bad-key")
	require.NoError(t, os.WriteFile(badPath, []byte("secret"), 0o000))
	t.Cleanup(func() { os.Chmod(badPath, 0o644) })

	got, err := Load(dir)
	require.NoError(t, err)
	// The good file should still be returned; the bad file is skipped with a warning.
	assert.Equal(t, "value123", got["good-key"])
	_, hasBad := got["bad-key"]
	assert.False(t, hasBad, "unreadable file should not appear in result")
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}
