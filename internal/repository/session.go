package repository

import (
	"context"

	"salgados/internal/models"
	"salgados/internal/storage"
)

// SessionRepository persists the signed-in customer and administrator.
type SessionRepository struct {
	user  *Record[models.CustomerAccount]
	admin *Record[models.AdminAccount]
}

func NewSessionRepository(store storage.Store) *SessionRepository {
	return &SessionRepository{
		user:  NewRecord[models.CustomerAccount](store, storage.KeyCurrentUser),
		admin: NewRecord[models.AdminAccount](store, storage.KeyCurrentAdmin),
	}
}

func (r *SessionRepository) Load(ctx context.Context) (models.Session, error) {
	var s models.Session
	user, ok, err := r.user.Load(ctx)
	if err != nil {
		return s, err
	}
	if ok {
		s.User = &user
	}
	admin, ok, err := r.admin.Load(ctx)
	if err != nil {
		return s, err
	}
	if ok {
		s.Admin = &admin
	}
	return s, nil
}

func (r *SessionRepository) SetUser(ctx context.Context, u models.CustomerAccount) error {
	return r.user.Save(ctx, u)
}

func (r *SessionRepository) SetAdmin(ctx context.Context, a models.AdminAccount) error {
	return r.admin.Save(ctx, a)
}

// Clear signs out both the customer and the administrator.
func (r *SessionRepository) Clear(ctx context.Context) error {
	if err := r.user.Remove(ctx); err != nil {
		return err
	}
	return r.admin.Remove(ctx)
}

func (r *SessionRepository) ClearAdmin(ctx context.Context) error {
	return r.admin.Remove(ctx)
}
