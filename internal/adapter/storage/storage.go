package storage

import (
	appconfig "github.com/semmidev/pusher/internal/config"
	"github.com/semmidev/pusher/internal/domain"
)

// New returns the adapter for cfg.Provider. The config is validated
// beforehand, so unknown providers fall back to S3.
func New(cfg appconfig.StorageConfig) domain.Storage {
	switch cfg.Provider {
	case appconfig.ProviderGCS:
		return NewGCS(cfg)
	case appconfig.ProviderAzure:
		return NewAzure(cfg)
	default:
		return NewS3(cfg)
	}
}
