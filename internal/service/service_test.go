package service_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salgados/internal/audit"
	"salgados/internal/identity"
	"salgados/internal/models"
	"salgados/internal/repository"
	"salgados/internal/service"
	"salgados/internal/storage"
)

type recordingLogger struct {
	mu      sync.Mutex
	records []audit.Record
}

func (l *recordingLogger) Log(r audit.Record) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.records = append(l.records, r)
}

func (l *recordingLogger) actions() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, 0, len(l.records))
	for _, r := range l.records {
		out = append(out, r.Action)
	}
	return out
}

type fixture struct {
	ctx   context.Context
	store storage.Store
	repos *repository.Repositories
	svc   *service.Services
	log   *recordingLogger
	admin models.Session
	clock time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		ctx:   context.Background(),
		store: storage.NewMemoryStore(),
		log:   &recordingLogger{},
		clock: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC),
	}
	f.repos = repository.New(f.store, false)
	f.svc = service.New(f.repos,
		service.WithAudit(f.log),
		service.WithClock(func() time.Time {
			f.clock = f.clock.Add(time.Second)
			return f.clock
		}),
	)
	require.NoError(t, identity.Seed(f.ctx, f.repos.Admins, f.repos.Users, f.clock))
	var err error
	f.admin, err = f.svc.Auth.AdminLogin(f.ctx, "sara", "123")
	require.NoError(t, err)
	return f
}

func (f *fixture) placeOrder(t *testing.T) *models.Order {
	t.Helper()
	o, err := f.svc.Orders.PlaceOrder(f.ctx, models.Session{}, service.PlaceOrderRequest{
		Customer:      models.Customer{Name: "Ana", Phone: "(11) 97777-6666"},
		Items:         []service.LineRequest{{ProductID: 1, Quantity: 1, QuantityType: "cento", UnitCount: 100}},
		PaymentMethod: models.PaymentPix,
	})
	require.NoError(t, err)
	return o
}

func TestPlaceOrder(t *testing.T) {
	f := newFixture(t)
	o, err := f.svc.Orders.PlaceOrder(f.ctx, models.Session{}, service.PlaceOrderRequest{
		Customer: models.Customer{Name: "Ana", Phone: "11977776666", Address: "Rua B", Number: "7", City: "Santos"},
		Items: []service.LineRequest{
			{ProductID: 1, Quantity: 2, QuantityType: "cento", UnitCount: 50},
			{ProductID: 26, Quantity: 1, QuantityType: "porcao"},
		},
		PaymentMethod: models.PaymentCash,
		IsDelivery:    true,
	})
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusPending, o.Status)
	require.Len(t, o.StatusHistory, 1)
	assert.Equal(t, "#240601-1", o.OrderNumber)
	assert.Equal(t, models.DefaultDeliveryFee, o.DeliveryFee)
	assert.InDelta(t, 90+25+10, o.Total, 0.001)

	second := f.placeOrder(t)
	assert.Equal(t, "#240601-2", second.OrderNumber)
	assert.Zero(t, second.DeliveryFee)
	assert.Contains(t, f.log.actions(), "place_order")
}

func TestPlaceOrderValidation(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Orders.PlaceOrder(f.ctx, models.Session{}, service.PlaceOrderRequest{
		Items:         []service.LineRequest{{ProductID: 999, Quantity: 1, QuantityType: "porcao"}},
		PaymentMethod: "cheque",
		IsDelivery:    true,
	})
	var verr *models.ValidationError
	require.ErrorAs(t, err, &verr)
	for _, field := range []string{"customer.name", "customer.phone", "customer.address", "paymentMethod", "items[0]"} {
		assert.Contains(t, verr.Fields, field)
	}
	orders, err := f.svc.Orders.List(f.ctx, "")
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func TestAdvanceScenarioThreeHistoryEntries(t *testing.T) {
	f := newFixture(t)
	o := f.placeOrder(t)

	_, err := f.svc.Admin.AdvanceOrder(f.ctx, f.admin, o.ID, models.OrderStatusConfirmed)
	require.NoError(t, err)
	got, err := f.svc.Admin.AdvanceOrder(f.ctx, f.admin, o.ID, models.OrderStatusReady)
	require.NoError(t, err)

	assert.Equal(t, models.OrderStatusReady, got.Status)
	require.Len(t, got.StatusHistory, 3)
	assert.Equal(t, models.OrderStatusPending, got.StatusHistory[0].Status)
	assert.Equal(t, models.OrderStatusConfirmed, got.StatusHistory[1].Status)
	assert.Equal(t, models.OrderStatusReady, got.StatusHistory[2].Status)
	assert.Equal(t, o.CreatedAt, got.CreatedAt)

	stored, err := f.svc.Orders.Get(f.ctx, o.ID)
	require.NoError(t, err)
	assert.Len(t, stored.StatusHistory, 3)
}

func TestAdvanceNeedsAdminAndKnownOrder(t *testing.T) {
	f := newFixture(t)
	o := f.placeOrder(t)

	_, err := f.svc.Admin.AdvanceOrder(f.ctx, models.Session{}, o.ID, models.OrderStatusConfirmed)
	assert.ErrorIs(t, err, models.ErrUnauthenticated)

	var nf *models.NotFoundError
	_, err = f.svc.Admin.AdvanceOrder(f.ctx, f.admin, "nope", models.OrderStatusConfirmed)
	assert.ErrorAs(t, err, &nf)

	var illegal *models.IllegalTransitionError
	_, err = f.svc.Admin.AdvanceOrder(f.ctx, f.admin, o.ID, models.OrderStatusDelivered)
	assert.ErrorAs(t, err, &illegal)
}

func TestRejectIsTerminal(t *testing.T) {
	f := newFixture(t)
	o := f.placeOrder(t)

	_, err := f.svc.Admin.RejectOrder(f.ctx, f.admin, o.ID, "")
	var verr *models.ValidationError
	require.ErrorAs(t, err, &verr)
	stored, err := f.svc.Orders.Get(f.ctx, o.ID)
	require.NoError(t, err)
	assert.Len(t, stored.StatusHistory, 1)

	rejected, err := f.svc.Admin.RejectOrder(f.ctx, f.admin, o.ID, "fora da área de entrega")
	require.NoError(t, err)
	assert.Equal(t, "fora da área de entrega", rejected.RejectionReason)
	assert.Equal(t, "Pedido recusado: fora da área de entrega", rejected.StatusHistory[1].Description)

	var illegal *models.IllegalTransitionError
	_, err = f.svc.Admin.AdvanceOrder(f.ctx, f.admin, o.ID, models.OrderStatusConfirmed)
	assert.ErrorAs(t, err, &illegal)
}

func TestCatalogCoxinhaExtra(t *testing.T) {
	f := newFixture(t)
	item, err := f.svc.Admin.AddCatalogItem(f.ctx, f.admin, models.CatalogFields{
		Name: "Coxinha Extra", Price: 120, Category: models.CategorySalgados,
	})
	require.NoError(t, err)

	eff, err := f.svc.Admin.GetEffectiveCatalog(f.ctx)
	require.NoError(t, err)
	require.Len(t, eff, 27)
	assert.Equal(t, item, eff[26])

	require.NoError(t, f.svc.Admin.DeleteCatalogItem(f.ctx, f.admin, item.ID))
	require.NoError(t, f.svc.Admin.DeleteCatalogItem(f.ctx, f.admin, item.ID))
	eff, err = f.svc.Admin.GetEffectiveCatalog(f.ctx)
	require.NoError(t, err)
	assert.Len(t, eff, 26)

	var imm *models.ImmutableRecordError
	assert.ErrorAs(t, f.svc.Admin.DeleteCatalogItem(f.ctx, f.admin, 3), &imm)
	_, err = f.svc.Admin.EditCatalogItem(f.ctx, f.admin, 3, models.CatalogFields{Name: "X", Category: models.CategorySalgados})
	assert.ErrorAs(t, err, &imm)

	assert.Equal(t, 1, count(f.log.actions(), "add_item"))
	assert.Equal(t, 1, count(f.log.actions(), "delete_item"), "a no-op delete is not audited")
}

func TestCatalogEditAndCustomOrders(t *testing.T) {
	f := newFixture(t)
	item, err := f.svc.Admin.AddCatalogItem(f.ctx, f.admin, models.CatalogFields{Name: "Pastel", Price: 110, Category: models.CategoryEspeciais})
	require.NoError(t, err)
	edited, err := f.svc.Admin.EditCatalogItem(f.ctx, f.admin, item.ID, models.CatalogFields{Name: "Pastel de Palmito", Price: 115, Category: models.CategoryEspeciais})
	require.NoError(t, err)
	assert.Equal(t, item.ID, edited.ID)

	o, err := f.svc.Orders.PlaceOrder(f.ctx, models.Session{}, service.PlaceOrderRequest{
		Customer:      models.Customer{Name: "Ana", Phone: "11977776666"},
		Items:         []service.LineRequest{{ProductID: item.ID, Quantity: 20, QuantityType: "unidade"}},
		PaymentMethod: models.PaymentCard,
	})
	require.NoError(t, err)
	assert.Equal(t, "Pastel de Palmito", o.Items[0].Name)
	assert.InDelta(t, 23, o.Total, 0.001)
}

func TestAddAdminDuplicateLeavesCollectionUnchanged(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Admin.AddAdmin(f.ctx, f.admin, "bia", "senha1", models.RoleManager)
	require.NoError(t, err)

	before, _, err := f.store.Get(f.ctx, storage.KeyAdminUsers)
	require.NoError(t, err)

	_, err = f.svc.Admin.AddAdmin(f.ctx, f.admin, "bia", "outra", models.RoleAdmin)
	var dup *models.DuplicateError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "username", dup.Field)

	after, _, err := f.store.Get(f.ctx, storage.KeyAdminUsers)
	require.NoError(t, err)
	assert.Equal(t, before, after)

	admins, err := f.svc.Admin.ListAdmins(f.ctx, f.admin)
	require.NoError(t, err)
	assert.Len(t, admins, 2)
	for _, a := range admins {
		assert.Empty(t, a.Password)
	}
}

func TestDeleteAdmin(t *testing.T) {
	f := newFixture(t)
	bia, err := f.svc.Admin.AddAdmin(f.ctx, f.admin, "bia", "senha1", models.RoleManager)
	require.NoError(t, err)

	var prot *models.ProtectedRecordError
	assert.ErrorAs(t, f.svc.Admin.DeleteAdmin(f.ctx, f.admin, f.admin.Admin.ID), &prot)

	require.NoError(t, f.svc.Admin.DeleteAdmin(f.ctx, f.admin, bia.ID))
	require.NoError(t, f.svc.Admin.DeleteAdmin(f.ctx, f.admin, bia.ID))

	admins, err := f.svc.Admin.ListAdmins(f.ctx, f.admin)
	require.NoError(t, err)
	require.Len(t, admins, 1)
	assert.Equal(t, models.RootAdminUsername, admins[0].Username)
}

func TestSetDeliveryFee(t *testing.T) {
	f := newFixture(t)
	cfg, err := f.svc.Admin.GetConfig(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, 10.0, cfg.DeliveryFee)

	cfg, err = f.svc.Admin.SetDeliveryFee(f.ctx, f.admin, 7.5)
	require.NoError(t, err)
	assert.Equal(t, 7.5, cfg.DeliveryFee)

	var verr *models.ValidationError
	_, err = f.svc.Admin.SetDeliveryFee(f.ctx, f.admin, -1)
	assert.ErrorAs(t, err, &verr)

	cfg, err = f.svc.Admin.GetConfig(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, 7.5, cfg.DeliveryFee)
}

func TestListOrdersNewestFirstWithFilter(t *testing.T) {
	f := newFixture(t)
	first := f.placeOrder(t)
	second := f.placeOrder(t)
	_, err := f.svc.Admin.AdvanceOrder(f.ctx, f.admin, first.ID, models.OrderStatusConfirmed)
	require.NoError(t, err)

	all, err := f.svc.Admin.ListOrders(f.ctx, f.admin, "")
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, second.ID, all[0].ID)

	confirmed, err := f.svc.Admin.ListOrders(f.ctx, f.admin, models.OrderStatusConfirmed)
	require.NoError(t, err)
	require.Len(t, confirmed, 1)
	assert.Equal(t, first.ID, confirmed[0].ID)
}

func TestStrictVersionsDetectConcurrentWriter(t *testing.T) {
	ctx := context.Background()
	st := storage.NewMemoryStore()
	repos := repository.New(st, true)
	require.NoError(t, identity.Seed(ctx, repos.Admins, repos.Users, time.Now()))

	snap, err := repository.NewCollection[models.AdminAccount](st, storage.KeyAdminUsers, true).Load(ctx)
	require.NoError(t, err)
	require.NoError(t, st.Set(ctx, storage.KeyAdminUsers, []byte(`[]`)))

	err = repository.NewCollection[models.AdminAccount](st, storage.KeyAdminUsers, true).Save(ctx, snap.Version, snap.Items)
	var cm *models.ConcurrentModificationError
	assert.ErrorAs(t, err, &cm)
	assert.Contains(t, service.Message(err), "outra sessão")
}

func count(in []string, want string) int {
	n := 0
	for _, s := range in {
		if s == want {
			n++
		}
	}
	return n
}
