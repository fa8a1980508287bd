package service

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"salgados/internal/identity"
	"salgados/internal/models"
	"salgados/internal/repository"
	"salgados/internal/storage"
)

type AuthService struct {
	base
}

func NewAuthService(repos *repository.Repositories, opts ...Option) *AuthService {
	return &AuthService{base: newBase(repos, opts)}
}

// CreateAccount validates r and stores a new customer account. The stored
// session is left alone.
func (a *AuthService) CreateAccount(ctx context.Context, r identity.Registration) (acc models.CustomerAccount, err error) {
	defer a.observe("register", time.Now(), &err)
	if err = identity.ValidateRegistration(r); err != nil {
		return acc, err
	}
	acc, err = identity.NewCustomer(r, a.now())
	if err != nil {
		return models.CustomerAccount{}, err
	}
	_, err = a.repos.Users.Update(ctx, func(users []models.CustomerAccount) ([]models.CustomerAccount, error) {
		if err := identity.AssertUnique(identity.CustomersCollection, users, acc, identity.SamePhoneOrEmail); err != nil {
			return nil, err
		}
		return append(users, acc), nil
	})
	if err != nil {
		return models.CustomerAccount{}, err
	}
	log.Printf("[auth] customer %s registered", acc.Phone)
	a.record(models.Session{User: &acc}, "register", storage.KeyUsers, acc.ID, "", acc.Phone, acc.Name)
	return acc, nil
}

// Register creates a customer account and signs it in.
func (a *AuthService) Register(ctx context.Context, r identity.Registration) (models.Session, error) {
	acc, err := a.CreateAccount(ctx, r)
	if err != nil {
		return models.Session{}, err
	}
	if err := a.repos.Sessions.SetUser(ctx, acc); err != nil {
		return models.Session{}, err
	}
	return models.Session{User: &acc}, nil
}

// VerifyCustomer checks customer credentials without touching the stored session.
func (a *AuthService) VerifyCustomer(ctx context.Context, phone, password string) (*models.CustomerAccount, error) {
	acc, err := a.repos.Users.FindByPhone(ctx, identity.NormalizePhone(phone))
	if err != nil {
		return nil, hideNotFound(err)
	}
	if !identity.CheckPassword(acc.Password, password) {
		return nil, models.ErrInvalidCredentials
	}
	return acc, nil
}

// Login signs a customer in by phone and password.
func (a *AuthService) Login(ctx context.Context, phone, password string) (sess models.Session, err error) {
	defer a.observe("login", time.Now(), &err)
	acc, err := a.VerifyCustomer(ctx, phone, password)
	if err != nil {
		return sess, err
	}
	if err = a.repos.Sessions.SetUser(ctx, *acc); err != nil {
		return sess, err
	}
	return models.Session{User: acc}, nil
}

// Authenticate checks administrator credentials without touching the stored session.
func (a *AuthService) Authenticate(ctx context.Context, username, password string) (*models.AdminAccount, error) {
	acc, err := a.repos.Admins.FindByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		return nil, hideNotFound(err)
	}
	if !identity.CheckPassword(acc.Password, password) {
		return nil, models.ErrInvalidCredentials
	}
	return acc, nil
}

// AdminLogin signs an administrator in and stores the session.
func (a *AuthService) AdminLogin(ctx context.Context, username, password string) (sess models.Session, err error) {
	defer a.observe("admin_login", time.Now(), &err)
	acc, err := a.Authenticate(ctx, username, password)
	if err != nil {
		return sess, err
	}
	if err = a.repos.Sessions.SetAdmin(ctx, *acc); err != nil {
		return sess, err
	}
	log.Printf("[auth] administrator %s signed in", acc.Username)
	sess, err = a.repos.Sessions.Load(ctx)
	if err != nil {
		return sess, err
	}
	sess.Admin = acc
	return sess, nil
}

func (a *AuthService) Logout(ctx context.Context) error {
	return a.repos.Sessions.Clear(ctx)
}

// CurrentSession loads the stored session. A stored administrator whose
// account no longer exists is signed out.
func (a *AuthService) CurrentSession(ctx context.Context) (models.Session, error) {
	sess, err := a.repos.Sessions.Load(ctx)
	if err != nil || sess.Admin == nil {
		return sess, err
	}
	_, err = a.repos.Admins.FindByUsername(ctx, sess.Admin.Username)
	var nf *models.NotFoundError
	switch {
	case errors.As(err, &nf):
		log.Printf("[auth] administrator %s no longer exists, signing out", sess.Admin.Username)
		sess.Admin = nil
		return sess, a.repos.Sessions.ClearAdmin(ctx)
	case err != nil:
		return sess, err
	}
	return sess, nil
}

// ForgotPassword replaces the password of the account registered with phone
// by a fresh temporary one and returns it.
func (a *AuthService) ForgotPassword(ctx context.Context, phone string) (tmp string, err error) {
	defer a.observe("forgot_password", time.Now(), &err)
	phone = identity.NormalizePhone(phone)
	tmp, err = identity.TemporaryPassword(8)
	if err != nil {
		return "", err
	}
	hash, err := identity.HashPassword(tmp)
	if err != nil {
		return "", err
	}
	var id string
	_, err = a.repos.Users.Update(ctx, func(users []models.CustomerAccount) ([]models.CustomerAccount, error) {
		for i := range users {
			if users[i].Phone == phone {
				users[i].Password = hash
				id = users[i].ID
				return users, nil
			}
		}
		return nil, &models.NotFoundError{Collection: storage.KeyUsers, ID: phone}
	})
	if err != nil {
		return "", err
	}
	log.Printf("[auth] temporary password issued for %s", phone)
	a.record(models.Session{}, "reset_password", storage.KeyUsers, id, "", "", "temporary password issued")
	return tmp, nil
}

// hideNotFound keeps lookups from revealing which accounts exist.
func hideNotFound(err error) error {
	var nf *models.NotFoundError
	if errors.As(err, &nf) {
		return models.ErrInvalidCredentials
	}
	return err
}
