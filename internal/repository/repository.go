package repository

import "salgados/internal/storage"

// Repositories groups the typed views over one store.
type Repositories struct {
	Orders   *OrderRepository
	Catalog  *CatalogRepository
	Admins   *AdminRepository
	Users    *UserRepository
	Config   *ConfigRepository
	Sessions *SessionRepository
}

func New(store storage.Store, strictVersions bool) *Repositories {
	return &Repositories{
		Orders:   NewOrderRepository(store, strictVersions),
		Catalog:  NewCatalogRepository(store, strictVersions),
		Admins:   NewAdminRepository(store, strictVersions),
		Users:    NewUserRepository(store, strictVersions),
		Config:   NewConfigRepository(store),
		Sessions: NewSessionRepository(store),
	}
}
