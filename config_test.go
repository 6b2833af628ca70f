package cotask

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	URL := filepath.Join(dir, "config.yaml")
	data := `
updateIntervalMs: 100
events:
  vendor: fs
  baseURL: ` + filepath.Join(dir, "journal") + `
tracing:
  enabled: false
`
	require.NoError(t, os.WriteFile(URL, []byte(data), 0o644))

	cfg, err := LoadConfig(context.Background(), URL)
	require.NoError(t, err)
	assert.Equal(t, 100*time.Millisecond, cfg.UpdateInterval())
	assert.Equal(t, "fs", cfg.Events.Vendor)

	events, err := cfg.NewEventService()
	require.NoError(t, err)
	require.NotNil(t, events)
	events.Close()
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(context.Background(), filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestLoadConfig_InvalidSettings(t *testing.T) {
	URL := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(URL, []byte("updateIntervalMs: -5\n"), 0o644))
	_, err := LoadConfig(context.Background(), URL)
	assert.Error(t, err)
}

func TestConfig_Validate(t *testing.T) {
	testCases := []struct {
		name    string
		config  *Config
		wantErr bool
	}{
		{"nil config", nil, false},
		{"defaults", DefaultConfig(), false},
		{"memory vendor", &Config{Events: EventsConfig{Vendor: "memory"}}, false},
		{"fs vendor without base URL", &Config{Events: EventsConfig{Vendor: "fs"}}, true},
		{"fs vendor with base URL", &Config{Events: EventsConfig{Vendor: "fs", BaseURL: "/tmp/q"}}, false},
		{"unknown vendor", &Config{Events: EventsConfig{Vendor: "kafka"}}, true},
		{"negative interval", &Config{UpdateIntervalMs: -1}, true},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.config.Validate()
			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfig_NewEventService_DisabledByDefault(t *testing.T) {
	events, err := DefaultConfig().NewEventService()
	require.NoError(t, err)
	assert.Nil(t, events)
}
