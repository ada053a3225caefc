package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRejectsBadLevel(t *testing.T) {
	_, err := New(Config{Level: "loud"})
	assert.Error(t, err)
}

func TestNewRejectsBadFormat(t *testing.T) {
	_, err := New(Config{Level: "info", Format: "xml"})
	assert.Error(t, err)
}

func TestNewWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gateway.log")
	log, err := New(Config{Level: "info", Format: FormatJSON, File: path, MaxSizeMB: 1})
	require.NoError(t, err)

	log.Info("hello")
	require.NoError(t, log.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"message":"hello"`)
}

func TestSanitizeLogMessage(t *testing.T) {
	cases := map[string]string{
		"Authorization: Bearer abc.def.ghi":                    "Authorization: Bearer [REDACTED]",
		`Get "http://account/access-token/abc123/exists": EOF`: `Get "http://account/access-token/[REDACTED]/exists": EOF`,
		"api_key=pk_live_123":                                  "api_key=[REDACTED]",
		"nothing sensitive here":                               "nothing sensitive here",
	}
	for in, want := range cases {
		assert.Equal(t, want, SanitizeLogMessage(in), in)
	}
}

func TestSanitizeMap(t *testing.T) {
	out := SanitizeMap(map[string]any{
		"Authorization": "Bearer abc",
		"route":         "reservation",
		"cause":         "GET /access-token/abc123: timeout",
		"attempt":       2,
	})
	assert.Equal(t, "[REDACTED]", out["Authorization"])
	assert.Equal(t, "reservation", out["route"])
	assert.Equal(t, "GET /access-token/[REDACTED]: timeout", out["cause"])
	assert.Equal(t, 2, out["attempt"])
}
