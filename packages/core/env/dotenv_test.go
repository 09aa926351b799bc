package env

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeEnvFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadDotEnv(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		expected map[string]string
	}{
		{"simple", "API_KEY=secret123", map[string]string{"API_KEY": "secret123"}},
		{"double quoted", `API_KEY="secret with spaces"`, map[string]string{"API_KEY": "secret with spaces"}},
		{"single quoted", `API_KEY='secret'`, map[string]string{"API_KEY": "secret"}},
		{"mismatched quotes kept", `API_KEY="secret'`, map[string]string{"API_KEY": `"secret'`}},
		{"comments and blanks", "# comment\n\nKEY=value\n", map[string]string{"KEY": "value"}},
		{"export prefix", "export TOKEN=abc", map[string]string{"TOKEN": "abc"}},
		{"value with equals", "URL=http://x?a=b", map[string]string{"URL": "http://x?a=b"}},
		{"line without equals skipped", "JUNK\nKEY=v", map[string]string{"KEY": "v"}},
		{"empty key skipped", "=value", map[string]string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := LoadDotEnv(writeEnvFile(t, tt.content))
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestLoadDotEnv_Missing(t *testing.T) {
	_, err := LoadDotEnv(filepath.Join(t.TempDir(), "nope.env"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot open env file")
}

func TestLoadAndExportDotEnv(t *testing.T) {
	t.Setenv("HITPOST_PRESET", "from-os")
	path := writeEnvFile(t, "HITPOST_PRESET=from-file\nHITPOST_FRESH=fresh\n")
	t.Cleanup(func() { os.Unsetenv("HITPOST_FRESH") })

	vars, err := LoadAndExportDotEnv(path)
	require.NoError(t, err)
	assert.Equal(t, "from-file", vars["HITPOST_PRESET"])
	assert.Equal(t, "from-os", os.Getenv("HITPOST_PRESET"))
	assert.Equal(t, "fresh", os.Getenv("HITPOST_FRESH"))
}
