package repository

import (
	"context"

	"salgados/internal/models"
	"salgados/internal/storage"
)

type AdminRepository struct {
	col *Collection[models.AdminAccount]
}

func NewAdminRepository(store storage.Store, strict bool) *AdminRepository {
	return &AdminRepository{col: NewCollection[models.AdminAccount](store, storage.KeyAdminUsers, strict)}
}

func (r *AdminRepository) List(ctx context.Context) ([]models.AdminAccount, error) {
	snap, err := r.col.Load(ctx)
	if err != nil {
		return nil, err
	}
	return snap.Items, nil
}

func (r *AdminRepository) FindByUsername(ctx context.Context, username string) (*models.AdminAccount, error) {
	admins, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range admins {
		if admins[i].Username == username {
			return &admins[i], nil
		}
	}
	return nil, &models.NotFoundError{Collection: storage.KeyAdminUsers, ID: username}
}

func (r *AdminRepository) Update(ctx context.Context, fn func([]models.AdminAccount) ([]models.AdminAccount, error)) ([]models.AdminAccount, error) {
	return r.col.Update(ctx, fn)
}

type UserRepository struct {
	col *Collection[models.CustomerAccount]
}

func NewUserRepository(store storage.Store, strict bool) *UserRepository {
	return &UserRepository{col: NewCollection[models.CustomerAccount](store, storage.KeyUsers, strict)}
}

func (r *UserRepository) List(ctx context.Context) ([]models.CustomerAccount, error) {
	snap, err := r.col.Load(ctx)
	if err != nil {
		return nil, err
	}
	return snap.Items, nil
}

func (r *UserRepository) FindByPhone(ctx context.Context, phone string) (*models.CustomerAccount, error) {
	users, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range users {
		if users[i].Phone == phone {
			return &users[i], nil
		}
	}
	return nil, &models.NotFoundError{Collection: storage.KeyUsers, ID: phone}
}

func (r *UserRepository) Update(ctx context.Context, fn func([]models.CustomerAccount) ([]models.CustomerAccount, error)) ([]models.CustomerAccount, error) {
	return r.col.Update(ctx, fn)
}
