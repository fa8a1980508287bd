package repository

import (
	"context"

	"salgados/internal/models"
	"salgados/internal/storage"
)

// CatalogRepository stores only the custom catalog items; built-ins are not persisted.
type CatalogRepository struct {
	col *Collection[models.CatalogItem]
}

func NewCatalogRepository(store storage.Store, strict bool) *CatalogRepository {
	return &CatalogRepository{col: NewCollection[models.CatalogItem](store, storage.KeyCustomMenuItems, strict)}
}

func (r *CatalogRepository) Custom(ctx context.Context) ([]models.CatalogItem, error) {
	snap, err := r.col.Load(ctx)
	if err != nil {
		return nil, err
	}
	return snap.Items, nil
}

func (r *CatalogRepository) Update(ctx context.Context, fn func([]models.CatalogItem) ([]models.CatalogItem, error)) ([]models.CatalogItem, error) {
	return r.col.Update(ctx, fn)
}
