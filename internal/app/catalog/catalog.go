// Package catalog abstracts the external music catalog behind a
// provider interface, so the rest of the application never talks to a
// concrete API client.
package catalog

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/mitchellh/mapstructure"
	zlog "github.com/rs/zerolog/log"

	"github.com/airwavefm/airwave/internal/domain/track"
	"github.com/airwavefm/airwave/internal/infra/config"
	"github.com/airwavefm/airwave/internal/infra/deezer"
)

// Provider is the interface for music catalog providers.
type Provider interface {
	// Search retrieves tracks matching the query.
	Search(ctx context.Context, query string, limit int) ([]track.Track, error)

	// TrackByID retrieves a single track.
	TrackByID(ctx context.Context, id string) (*track.Track, error)

	// ChartTracks retrieves the current top tracks.
	ChartTracks(ctx context.Context, limit int) ([]track.Track, error)
}

// deezerSettings represents the settings block of the deezer provider.
type deezerSettings struct {
	BaseURL string `mapstructure:"base_url"`
	Retries int    `mapstructure:"retries"`
}

// NewFromConfig creates the configured catalog provider.
func NewFromConfig(cfg config.CatalogConfig) (Provider, error) {
	switch cfg.Provider {
	case "deezer":
		var settings deezerSettings
		if err := mapstructure.Decode(cfg.Settings, &settings); err != nil {
			return nil, errors.Wrap(err, "failed to decode deezer settings")
		}
		zlog.Info().Msgf("registered catalog provider: type=deezer base_url=%s", settings.BaseURL)
		return deezer.New(deezer.Config{BaseURL: settings.BaseURL, Retries: settings.Retries}), nil

	default:
		return nil, errors.Newf("unsupported catalog provider: %s", cfg.Provider)
	}
}
