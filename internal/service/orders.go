package service

import (
	"context"
	"fmt"
	"log"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"salgados/internal/catalog"
	"salgados/internal/identity"
	"salgados/internal/lifecycle"
	"salgados/internal/models"
	"salgados/internal/portion"
	"salgados/internal/repository"
	"salgados/internal/storage"
)

type LineRequest struct {
	ProductID    int64  `json:"productId"`
	Quantity     int    `json:"quantity"`
	QuantityType string `json:"quantityType"`
	UnitCount    int    `json:"unitCount,omitempty"`
}

type PlaceOrderRequest struct {
	Customer      models.Customer      `json:"customer"`
	Items         []LineRequest        `json:"items"`
	PaymentMethod models.PaymentMethod `json:"paymentMethod"`
	IsDelivery    bool                 `json:"isDelivery"`
}

type OrderService struct {
	base
	pricing portion.Service
}

func NewOrderService(repos *repository.Repositories, opts ...Option) *OrderService {
	return &OrderService{base: newBase(repos, opts), pricing: portion.NewService()}
}

// PlaceOrder prices the request against the effective catalog and stores a new
// pending order. A signed-in customer fills in missing customer fields.
func (s *OrderService) PlaceOrder(ctx context.Context, sess models.Session, req PlaceOrderRequest) (o *models.Order, err error) {
	defer s.observe("place_order", time.Now(), &err)

	customer := req.Customer
	customer.IsDelivery = req.IsDelivery
	if sess.User != nil {
		fillCustomer(&customer, sess.User)
	}
	customer.Phone = identity.NormalizePhone(customer.Phone)

	verr := validateOrder(customer, req)

	custom, err := s.repos.Catalog.Custom(ctx)
	if err != nil {
		return nil, err
	}
	items := make([]models.LineItem, 0, len(req.Items))
	subtotal := 0.0
	for i, line := range req.Items {
		field := fmt.Sprintf("items[%d]", i)
		item, ok := catalog.Find(custom, line.ProductID)
		if !ok {
			verr.Add(field, fmt.Sprintf("produto %d não encontrado", line.ProductID))
			continue
		}
		priced, err := s.pricing.Line(item, portion.QuantityType(line.QuantityType), line.Quantity, line.UnitCount)
		if err != nil {
			verr.Add(field, err.Error())
			continue
		}
		items = append(items, priced)
		subtotal += priced.TotalPrice
	}
	if err = verr.OrNil(); err != nil {
		return nil, err
	}

	cfg, err := s.repos.Config.Get(ctx)
	if err != nil {
		return nil, err
	}
	now := s.now()
	o = &models.Order{
		ID:            uuid.NewString(),
		Customer:      customer,
		Items:         items,
		PaymentMethod: req.PaymentMethod,
		IsDelivery:    req.IsDelivery,
	}
	if sess.User != nil {
		o.CustomerID = sess.User.ID
	}
	if req.IsDelivery {
		o.DeliveryFee = cfg.DeliveryFee
	}
	o.Total = roundCents(subtotal + o.DeliveryFee)
	lifecycle.Start(o, now)

	err = s.repos.Orders.CreateNumbered(ctx, o, func(existing []models.Order) string {
		return OrderNumber(existing, now)
	})
	if err != nil {
		return nil, err
	}
	log.Printf("[orders] order %s placed by %s: %.2f", o.OrderNumber, customer.Phone, o.Total)
	s.record(sess, "place_order", storage.KeyOrders, o.ID, "", string(o.Status),
		fmt.Sprintf("%s: %s, R$ %.2f (%s)", o.OrderNumber, customer.Name, o.Total, o.PaymentMethod.Label()))
	return o, nil
}

// OrderNumber is "#yyMMdd-n" where n counts the orders created on the same UTC day.
func OrderNumber(existing []models.Order, now time.Time) string {
	day := now.UTC().Format("060102")
	seq := 1
	for _, o := range existing {
		if o.CreatedAt.UTC().Format("060102") == day {
			seq++
		}
	}
	return fmt.Sprintf("#%s-%d", day, seq)
}

func (s *OrderService) Get(ctx context.Context, id string) (*models.Order, error) {
	return s.repos.Orders.GetByID(ctx, id)
}

// List returns orders newest first, optionally only those in status.
func (s *OrderService) List(ctx context.Context, status models.OrderStatus) ([]models.Order, error) {
	orders, err := s.repos.Orders.List(ctx)
	if err != nil {
		return nil, err
	}
	return filterStatus(orders, status), nil
}

// ListForCustomer returns the signed-in customer's orders, newest first.
func (s *OrderService) ListForCustomer(ctx context.Context, sess models.Session) ([]models.Order, error) {
	if sess.User == nil {
		return nil, models.ErrUnauthenticated
	}
	orders, err := s.repos.Orders.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]models.Order, 0)
	for _, o := range orders {
		if o.CustomerID == sess.User.ID || o.Customer.Phone == sess.User.Phone {
			out = append(out, o)
		}
	}
	return out, nil
}

func fillCustomer(c *models.Customer, acc *models.CustomerAccount) {
	if c.Name == "" {
		c.Name = acc.Name
	}
	if c.Phone == "" {
		c.Phone = acc.Phone
	}
	if c.Address == "" {
		c.Address = acc.Address
	}
	if c.Number == "" {
		c.Number = acc.Number
	}
	if c.Complement == "" {
		c.Complement = acc.Complement
	}
	if c.City == "" {
		c.City = acc.City
	}
}

func validateOrder(c models.Customer, req PlaceOrderRequest) *models.ValidationError {
	verr := &models.ValidationError{}
	if strings.TrimSpace(c.Name) == "" {
		verr.Add("customer.name", "campo obrigatório")
	}
	if c.Phone == "" {
		verr.Add("customer.phone", "campo obrigatório")
	}
	if req.IsDelivery {
		if strings.TrimSpace(c.Address) == "" {
			verr.Add("customer.address", "obrigatório para entrega")
		}
		if strings.TrimSpace(c.Number) == "" {
			verr.Add("customer.number", "obrigatório para entrega")
		}
		if strings.TrimSpace(c.City) == "" {
			verr.Add("customer.city", "obrigatório para entrega")
		}
	}
	if !req.PaymentMethod.Valid() {
		verr.Add("paymentMethod", fmt.Sprintf("forma de pagamento desconhecida %q", req.PaymentMethod))
	}
	if len(req.Items) == 0 {
		verr.Add("items", "o pedido não tem itens")
	}
	return verr
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
