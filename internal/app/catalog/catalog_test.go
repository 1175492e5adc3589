package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/airwavefm/airwave/internal/infra/config"
)

func TestNewFromConfig_Deezer(t *testing.T) {
	p, err := NewFromConfig(config.CatalogConfig{
		Provider: "deezer",
		Settings: map[string]any{
			"base_url": "http://localhost:9999",
			"retries":  2,
		},
	})
	require.NoError(t, err)
	assert.NotNil(t, p)
}

func TestNewFromConfig_DeezerWithoutSettings(t *testing.T) {
	p, err := NewFromConfig(config.CatalogConfig{Provider: "deezer"})
	require.NoError(t, err)
	assert.NotNil(t, p)
}

func TestNewFromConfig_UnsupportedProvider(t *testing.T) {
	_, err := NewFromConfig(config.CatalogConfig{Provider: "napster"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported catalog provider")
}

func TestNewFromConfig_BadSettingsType(t *testing.T) {
	_, err := NewFromConfig(config.CatalogConfig{
		Provider: "deezer",
		Settings: map[string]any{"retries": "not a number"},
	})
	assert.Error(t, err)
}
