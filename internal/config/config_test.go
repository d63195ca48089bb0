package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var envKeys = []string{
	"AGROMITRA_API_URL", "NEXT_PUBLIC_API_URL", "LOG_LEVEL", "AGROMITRA_STORAGE",
	"AGROMITRA_TIMEOUT", "ORDERS_POLL_INTERVAL", "METRICS_ADDR", "AGROMITRA_TTS", "AGROMITRA_STT",
}

func cleanEnv(t *testing.T) string {
	t.Helper()
	for _, k := range envKeys {
		t.Setenv(k, "")
	}
	home := t.TempDir()
	t.Setenv("HOME", home)
	return home
}

func TestLoad_Defaults(t *testing.T) {
	home := cleanEnv(t)

	c, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, DefaultAPIURL, c.APIURL)
	assert.Equal(t, DefaultLogLevel, c.LogLevel)
	assert.Equal(t, filepath.Join(home, ".agromitra", "state.json"), c.StoragePath)
	assert.Equal(t, DefaultPollInterval, c.Orders.PollInterval)
	assert.Equal(t, DefaultTimeout, c.Timeout)
	assert.Empty(t, c.Orders.MetricsAddr)
	assert.Empty(t, c.Speech.TTS)
}

func TestLoad_Environment(t *testing.T) {
	testCases := []struct {
		name     string
		env      map[string]string
		expected string
	}{
		{name: "Primary variable", env: map[string]string{"AGROMITRA_API_URL": "http://api.local:4000"}, expected: "http://api.local:4000"},
		{name: "Alias", env: map[string]string{"NEXT_PUBLIC_API_URL": "http://alias.local/api"}, expected: "http://alias.local/api"},
		{
			name:     "Primary wins",
			env:      map[string]string{"AGROMITRA_API_URL": "http://primary", "NEXT_PUBLIC_API_URL": "http://alias"},
			expected: "http://primary",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cleanEnv(t)
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			c, err := Load("")
			require.NoError(t, err)
			assert.Equal(t, tc.expected, c.APIURL)
		})
	}

	t.Run("Durations and addresses", func(t *testing.T) {
		cleanEnv(t)
		t.Setenv("ORDERS_POLL_INTERVAL", "5s")
		t.Setenv("METRICS_ADDR", ":9102")
		t.Setenv("LOG_LEVEL", "debug")
		t.Setenv("AGROMITRA_STT", "/usr/local/bin/listen")

		c, err := Load("")
		require.NoError(t, err)
		assert.Equal(t, 5*time.Second, c.Orders.PollInterval)
		assert.Equal(t, ":9102", c.Orders.MetricsAddr)
		assert.Equal(t, "debug", c.LogLevel)
		assert.Equal(t, "/usr/local/bin/listen", c.Speech.STT)
	})
}

func TestLoad_File(t *testing.T) {
	cleanEnv(t)
	path := filepath.Join(t.TempDir(), "agromitra.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
api_url: http://farm.example:3001
orders:
  poll_interval: 1m
speech:
  tts: /usr/bin/espeak-ng
`), 0o600))

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "http://farm.example:3001", c.APIURL)
	assert.Equal(t, time.Minute, c.Orders.PollInterval)
	assert.Equal(t, "/usr/bin/espeak-ng", c.Speech.TTS)

	t.Setenv("AGROMITRA_API_URL", "http://override")
	c, err = Load(path)
	require.NoError(t, err)
	assert.Equal(t, "http://override", c.APIURL)
}

func TestLoad_MissingFile(t *testing.T) {
	cleanEnv(t)
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}
