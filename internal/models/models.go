package models

import "time"

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusConfirmed OrderStatus = "confirmed"
	OrderStatusReady     OrderStatus = "ready"
	OrderStatusDelivered OrderStatus = "delivered"
	OrderStatusRejected  OrderStatus = "rejected"
)

type PaymentMethod string

const (
	PaymentCash PaymentMethod = "cash"
	PaymentCard PaymentMethod = "card"
	PaymentPix  PaymentMethod = "pix"
)

// Label returns the display name; unknown methods are echoed back.
func (m PaymentMethod) Label() string {
	switch m {
	case PaymentCash:
		return "Dinheiro"
	case PaymentCard:
		return "Cartão"
	case PaymentPix:
		return "PIX"
	}
	return string(m)
}

func (m PaymentMethod) Valid() bool {
	return m == PaymentCash || m == PaymentCard || m == PaymentPix
}

// StatusEntry is one element of an order's append-only status history.
type StatusEntry struct {
	Status      OrderStatus `json:"status"`
	Timestamp   time.Time   `json:"timestamp"`
	Description string      `json:"description"`
}

// Customer is the snapshot of the buyer taken when the order is placed.
type Customer struct {
	Name       string `json:"name"`
	Phone      string `json:"phone"`
	Address    string `json:"address,omitempty"`
	Number     string `json:"number,omitempty"`
	Complement string `json:"complement,omitempty"`
	City       string `json:"city,omitempty"`
	IsDelivery bool   `json:"isDelivery"`
}

type LineItem struct {
	ProductID    int64   `json:"productId,omitempty"`
	Name         string  `json:"name"`
	Quantity     int     `json:"quantity"`
	QuantityType string  `json:"quantityType"`
	UnitCount    int     `json:"unitCount,omitempty"`
	TotalPrice   float64 `json:"totalPrice"`
}

type Order struct {
	ID              string        `json:"id"`
	OrderNumber     string        `json:"orderNumber"`
	CustomerID      string        `json:"customerId,omitempty"`
	Customer        Customer      `json:"customer"`
	Items           []LineItem    `json:"items"`
	DeliveryFee     float64       `json:"deliveryFee,omitempty"`
	Total           float64       `json:"total"`
	PaymentMethod   PaymentMethod `json:"paymentMethod"`
	IsDelivery      bool          `json:"isDelivery"`
	Status          OrderStatus   `json:"status"`
	StatusHistory   []StatusEntry `json:"statusHistory"`
	RejectionReason string        `json:"rejectionReason,omitempty"`
	CreatedAt       time.Time     `json:"createdAt"`
}

func (o *Order) CurrentState() OrderStatus {
	return o.Status
}

// LastChange is the timestamp of the newest history entry, or CreatedAt for an order without history.
func (o *Order) LastChange() time.Time {
	if n := len(o.StatusHistory); n > 0 {
		return o.StatusHistory[n-1].Timestamp
	}
	return o.CreatedAt
}

type Category string

const (
	CategorySalgados  Category = "salgados"
	CategorySortidos  Category = "sortidos"
	CategoryAssados   Category = "assados"
	CategoryEspeciais Category = "especiais"
	CategoryOpcionais Category = "opcionais"
)

var Categories = []Category{CategorySalgados, CategorySortidos, CategoryAssados, CategoryEspeciais, CategoryOpcionais}

func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// Label returns the display name; unknown categories are echoed back.
func (c Category) Label() string {
	switch c {
	case CategorySalgados:
		return "Salgados Fritos"
	case CategorySortidos:
		return "Sortidos"
	case CategoryAssados:
		return "Assados"
	case CategoryEspeciais:
		return "Especiais"
	case CategoryOpcionais:
		return "Opcionais"
	}
	return string(c)
}

// MaxBuiltinItemID is the highest identifier reserved for the built-in menu.
const MaxBuiltinItemID int64 = 26

type Provenance string

const (
	ProvenanceBuiltin Provenance = "builtin"
	ProvenanceCustom  Provenance = "custom"
)

type CatalogItem struct {
	ID          int64    `json:"id"`
	Name        string   `json:"name"`
	Price       float64  `json:"price"`
	Category    Category `json:"category"`
	Description string   `json:"description,omitempty"`
	IsPortioned bool     `json:"isPortioned"`
}

func (i CatalogItem) IsBuiltin() bool {
	return IsBuiltinItemID(i.ID)
}

func (i CatalogItem) Provenance() Provenance {
	if i.IsBuiltin() {
		return ProvenanceBuiltin
	}
	return ProvenanceCustom
}

func IsBuiltinItemID(id int64) bool {
	return id >= 1 && id <= MaxBuiltinItemID
}

// CatalogFields is the editable part of a catalog item.
type CatalogFields struct {
	Name        string   `json:"name"`
	Price       float64  `json:"price"`
	Category    Category `json:"category"`
	Description string   `json:"description,omitempty"`
	IsPortioned bool     `json:"isPortioned"`
}

type Role string

const (
	RoleAdmin   Role = "admin"
	RoleManager Role = "manager"
)

func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleManager
}

// RootAdminUsername identifies the protected administrator that can never be deleted.
const RootAdminUsername = "sara"

type AdminAccount struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Password  string    `json:"password"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

func (a AdminAccount) IsRoot() bool {
	return a.Username == RootAdminUsername
}

type CustomerAccount struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Phone      string    `json:"phone"`
	Email      string    `json:"email"`
	Address    string    `json:"address"`
	Number     string    `json:"number"`
	Complement string    `json:"complement,omitempty"`
	City       string    `json:"city"`
	Password   string    `json:"password"`
	IsAdmin    bool      `json:"isAdmin"`
	CreatedAt  time.Time `json:"createdAt"`
}

const DefaultDeliveryFee = 10.00

type AppConfig struct {
	DeliveryFee float64 `json:"deliveryFee"`
}

func DefaultAppConfig() AppConfig {
	return AppConfig{DeliveryFee: DefaultDeliveryFee}
}

// Session carries the identity an operation runs on behalf of.
// Either side may be nil.
type Session struct {
	User  *CustomerAccount
	Admin *AdminAccount
}

func (s Session) IsAdmin() bool {
	return s.Admin != nil
}

func (s Session) Actor() string {
	switch {
	case s.Admin != nil:
		return "admin:" + s.Admin.Username
	case s.User != nil:
		return "user:" + s.User.Phone
	}
	return "anonymous"
}
