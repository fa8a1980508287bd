package identity

import (
	"context"
	"log"
	"time"

	"salgados/internal/models"
)

const (
	rootAdminPassword = "123"

	defaultCustomerName     = "Administrador"
	defaultCustomerPhone    = "(00) 00000-0000"
	defaultCustomerEmail    = "admin@salgadosdasara.com"
	defaultCustomerPassword = "123456"
)

type adminUpdater interface {
	Update(ctx context.Context, fn func([]models.AdminAccount) ([]models.AdminAccount, error)) ([]models.AdminAccount, error)
}

type userUpdater interface {
	Update(ctx context.Context, fn func([]models.CustomerAccount) ([]models.CustomerAccount, error)) ([]models.CustomerAccount, error)
}

// Seed creates the root administrator and the default staff customer account
// when their collections are empty. Existing data is left untouched.
func Seed(ctx context.Context, admins adminUpdater, users userUpdater, now time.Time) error {
	_, err := users.Update(ctx, func(existing []models.CustomerAccount) ([]models.CustomerAccount, error) {
		if len(existing) > 0 {
			return existing, nil
		}
		acc, err := NewCustomer(Registration{
			Name:     defaultCustomerName,
			Phone:    defaultCustomerPhone,
			Email:    defaultCustomerEmail,
			Address:  "Rua Ida Berlet",
			Number:   "1738 B",
			City:     "Quinze de Novembro",
			Password: defaultCustomerPassword,
		}, now)
		if err != nil {
			return nil, err
		}
		acc.IsAdmin = true
		log.Printf("Seeded default customer account %s", acc.Phone)
		return []models.CustomerAccount{acc}, nil
	})
	if err != nil {
		return err
	}

	_, err = admins.Update(ctx, func(existing []models.AdminAccount) ([]models.AdminAccount, error) {
		if len(existing) > 0 {
			return existing, nil
		}
		root, err := NewAdmin(models.RootAdminUsername, rootAdminPassword, models.RoleAdmin, now)
		if err != nil {
			return nil, err
		}
		log.Printf("Seeded root administrator %s", root.Username)
		return []models.AdminAccount{root}, nil
	})
	return err
}
