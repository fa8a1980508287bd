package service

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"time"

	"salgados/internal/catalog"
	"salgados/internal/identity"
	"salgados/internal/lifecycle"
	"salgados/internal/models"
	"salgados/internal/repository"
	"salgados/internal/storage"
)

type AdminService struct {
	base
}

func NewAdminService(repos *repository.Repositories, opts ...Option) *AdminService {
	return &AdminService{base: newBase(repos, opts)}
}

// AdvanceOrder moves an order to target if the transition table allows it.
func (a *AdminService) AdvanceOrder(ctx context.Context, s models.Session, id string, target models.OrderStatus) (o *models.Order, err error) {
	defer a.observe("advance_order", time.Now(), &err)
	if err = requireAdmin(s); err != nil {
		return nil, err
	}
	var from models.OrderStatus
	o, err = a.repos.Orders.Update(ctx, id, func(o *models.Order) error {
		from = o.Status
		return lifecycle.Advance(o, target, a.now())
	})
	if err != nil {
		return nil, err
	}
	log.Printf("[admin] order %s -> %s", o.OrderNumber, target)
	a.metrics.Transition(target)
	a.record(s, "advance_order", storage.KeyOrders, o.ID, string(from), string(target),
		fmt.Sprintf("%s: %s", o.OrderNumber, lifecycle.Label(target)))
	return o, nil
}

// RejectOrder rejects a pending order. A blank reason performs no write.
func (a *AdminService) RejectOrder(ctx context.Context, s models.Session, id, reason string) (o *models.Order, err error) {
	defer a.observe("reject_order", time.Now(), &err)
	if err = requireAdmin(s); err != nil {
		return nil, err
	}
	o, err = a.repos.Orders.Update(ctx, id, func(o *models.Order) error {
		return lifecycle.Reject(o, reason, a.now())
	})
	if err != nil {
		return nil, err
	}
	log.Printf("[admin] order %s rejected: %s", o.OrderNumber, o.RejectionReason)
	a.metrics.Transition(models.OrderStatusRejected)
	a.record(s, "reject_order", storage.KeyOrders, o.ID, string(models.OrderStatusPending), string(models.OrderStatusRejected),
		fmt.Sprintf("%s: %s", o.OrderNumber, lifecycle.RejectionDescription(o.RejectionReason)))
	return o, nil
}

// ListOrders returns orders newest first, optionally only those in status.
func (a *AdminService) ListOrders(ctx context.Context, s models.Session, status models.OrderStatus) ([]models.Order, error) {
	if err := requireAdmin(s); err != nil {
		return nil, err
	}
	orders, err := a.repos.Orders.List(ctx)
	if err != nil {
		return nil, err
	}
	return filterStatus(orders, status), nil
}

func (a *AdminService) GetOrder(ctx context.Context, s models.Session, id string) (*models.Order, error) {
	if err := requireAdmin(s); err != nil {
		return nil, err
	}
	return a.repos.Orders.GetByID(ctx, id)
}

func (a *AdminService) GetEffectiveCatalog(ctx context.Context) ([]models.CatalogItem, error) {
	custom, err := a.repos.Catalog.Custom(ctx)
	if err != nil {
		return nil, err
	}
	return catalog.Effective(custom), nil
}

func (a *AdminService) AddCatalogItem(ctx context.Context, s models.Session, f models.CatalogFields) (item models.CatalogItem, err error) {
	defer a.observe("add_item", time.Now(), &err)
	if err = requireAdmin(s); err != nil {
		return item, err
	}
	_, err = a.repos.Catalog.Update(ctx, func(custom []models.CatalogItem) ([]models.CatalogItem, error) {
		var next []models.CatalogItem
		next, item, err = catalog.Add(custom, f, a.now())
		return next, err
	})
	if err != nil {
		return models.CatalogItem{}, err
	}
	id := strconv.FormatInt(item.ID, 10)
	log.Printf("[admin] catalog item %s added: %s", id, item.Name)
	a.record(s, "add_item", storage.KeyCustomMenuItems, id, "", item.Name, fmt.Sprintf("%.2f", item.Price))
	return item, nil
}

func (a *AdminService) EditCatalogItem(ctx context.Context, s models.Session, id int64, f models.CatalogFields) (item models.CatalogItem, err error) {
	defer a.observe("edit_item", time.Now(), &err)
	if err = requireAdmin(s); err != nil {
		return item, err
	}
	var oldName string
	_, err = a.repos.Catalog.Update(ctx, func(custom []models.CatalogItem) ([]models.CatalogItem, error) {
		for _, c := range custom {
			if c.ID == id {
				oldName = c.Name
			}
		}
		var next []models.CatalogItem
		next, item, err = catalog.Edit(custom, id, f)
		return next, err
	})
	if err != nil {
		return models.CatalogItem{}, err
	}
	key := strconv.FormatInt(id, 10)
	log.Printf("[admin] catalog item %s edited", key)
	a.record(s, "edit_item", storage.KeyCustomMenuItems, key, oldName, item.Name, fmt.Sprintf("%.2f", item.Price))
	return item, nil
}

// DeleteCatalogItem removes a custom item. Deleting an absent id succeeds.
func (a *AdminService) DeleteCatalogItem(ctx context.Context, s models.Session, id int64) (err error) {
	defer a.observe("delete_item", time.Now(), &err)
	if err = requireAdmin(s); err != nil {
		return err
	}
	var removed bool
	_, err = a.repos.Catalog.Update(ctx, func(custom []models.CatalogItem) ([]models.CatalogItem, error) {
		var next []models.CatalogItem
		next, removed, err = catalog.Delete(custom, id)
		return next, err
	})
	if err != nil {
		return err
	}
	if removed {
		key := strconv.FormatInt(id, 10)
		log.Printf("[admin] catalog item %s deleted", key)
		a.record(s, "delete_item", storage.KeyCustomMenuItems, key, "", "", "deleted")
	}
	return nil
}

func (a *AdminService) ListAdmins(ctx context.Context, s models.Session) ([]models.AdminAccount, error) {
	if err := requireAdmin(s); err != nil {
		return nil, err
	}
	admins, err := a.repos.Admins.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range admins {
		admins[i].Password = ""
	}
	return admins, nil
}

// AddAdmin creates an administrator with a unique username.
func (a *AdminService) AddAdmin(ctx context.Context, s models.Session, username, password string, role models.Role) (acc models.AdminAccount, err error) {
	defer a.observe("add_admin", time.Now(), &err)
	if err = requireAdmin(s); err != nil {
		return acc, err
	}
	if err = identity.ValidateAdmin(username, password, role); err != nil {
		return acc, err
	}
	acc, err = identity.NewAdmin(username, password, role, a.now())
	if err != nil {
		return models.AdminAccount{}, err
	}
	_, err = a.repos.Admins.Update(ctx, func(admins []models.AdminAccount) ([]models.AdminAccount, error) {
		if err := identity.AssertUnique(identity.AdminsCollection, admins, acc, identity.SameUsername); err != nil {
			return nil, err
		}
		return append(admins, acc), nil
	})
	if err != nil {
		return models.AdminAccount{}, err
	}
	log.Printf("[admin] administrator %s added (%s)", acc.Username, acc.Role)
	a.record(s, "add_admin", storage.KeyAdminUsers, acc.ID, "", acc.Username, string(acc.Role))
	acc.Password = ""
	return acc, nil
}

// DeleteAdmin removes an administrator by id. The root account is refused and
// an absent id succeeds.
func (a *AdminService) DeleteAdmin(ctx context.Context, s models.Session, id string) (err error) {
	defer a.observe("delete_admin", time.Now(), &err)
	if err = requireAdmin(s); err != nil {
		return err
	}
	var removed *models.AdminAccount
	_, err = a.repos.Admins.Update(ctx, func(admins []models.AdminAccount) ([]models.AdminAccount, error) {
		out := make([]models.AdminAccount, 0, len(admins))
		for i := range admins {
			if admins[i].ID != id {
				out = append(out, admins[i])
				continue
			}
			if admins[i].IsRoot() {
				return nil, &models.ProtectedRecordError{Collection: storage.KeyAdminUsers, ID: id, Reason: "root administrator"}
			}
			removed = &admins[i]
		}
		return out, nil
	})
	if err != nil {
		return err
	}
	if removed != nil {
		log.Printf("[admin] administrator %s deleted", removed.Username)
		a.record(s, "delete_admin", storage.KeyAdminUsers, id, removed.Username, "", "deleted")
	}
	return nil
}

func (a *AdminService) GetConfig(ctx context.Context) (models.AppConfig, error) {
	return a.repos.Config.Get(ctx)
}

func (a *AdminService) SetDeliveryFee(ctx context.Context, s models.Session, amount float64) (cfg models.AppConfig, err error) {
	defer a.observe("set_fee", time.Now(), &err)
	if err = requireAdmin(s); err != nil {
		return cfg, err
	}
	if amount < 0 {
		return cfg, models.NewValidationError("deliveryFee", "taxa não pode ser negativa")
	}
	cfg, err = a.repos.Config.Get(ctx)
	if err != nil {
		return cfg, err
	}
	old := cfg.DeliveryFee
	cfg.DeliveryFee = amount
	if err = a.repos.Config.Save(ctx, cfg); err != nil {
		return models.AppConfig{}, err
	}
	log.Printf("[admin] delivery fee %.2f -> %.2f", old, amount)
	a.record(s, "set_fee", storage.KeyAppConfig, storage.KeyAppConfig, fmt.Sprintf("%.2f", old), fmt.Sprintf("%.2f", amount), "delivery fee")
	return cfg, nil
}

func filterStatus(orders []models.Order, status models.OrderStatus) []models.Order {
	if status == "" {
		return orders
	}
	out := make([]models.Order, 0, len(orders))
	for _, o := range orders {
		if o.Status == status {
			out = append(out, o)
		}
	}
	return out
}
