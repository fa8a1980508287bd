package repository

import (
	"context"

	"salgados/internal/models"
	"salgados/internal/storage"
)

type ConfigRepository struct {
	rec *Record[models.AppConfig]
}

func NewConfigRepository(store storage.Store) *ConfigRepository {
	return &ConfigRepository{rec: NewRecord[models.AppConfig](store, storage.KeyAppConfig)}
}

// Get returns the stored configuration. The first read of an empty store
// writes the defaults back.
func (r *ConfigRepository) Get(ctx context.Context) (models.AppConfig, error) {
	cfg, ok, err := r.rec.Load(ctx)
	if err != nil {
		return models.AppConfig{}, err
	}
	if ok {
		return cfg, nil
	}
	cfg = models.DefaultAppConfig()
	if err := r.rec.Save(ctx, cfg); err != nil {
		return models.AppConfig{}, err
	}
	return cfg, nil
}

func (r *ConfigRepository) Save(ctx context.Context, cfg models.AppConfig) error {
	return r.rec.Save(ctx, cfg)
}
