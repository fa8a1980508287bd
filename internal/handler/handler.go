package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/davecgh/go-spew/spew"

	"salgados/internal/identity"
	"salgados/internal/lifecycle"
	"salgados/internal/models"
	"salgados/internal/portion"
	"salgados/internal/service"
	"salgados/internal/storage"
)

// ErrExit is returned by Execute when the user asked to leave.
var ErrExit = errors.New("exit")

type Handler struct {
	svc   *service.Services
	store storage.Store
	out   io.Writer
}

func New(svc *service.Services, store storage.Store, out io.Writer) *Handler {
	return &Handler{svc: svc, store: store, out: out}
}

func (h *Handler) Execute(ctx context.Context, cmd string, args []string) error {
	commands := map[string]func(context.Context, []string) error{
		"help":         h.printHelp,
		"exit":         h.handleExit,
		"login":        h.handleLogin,
		"login-admin":  h.handleAdminLogin,
		"logout":       h.handleLogout,
		"whoami":       h.handleWhoami,
		"register":     h.handleRegister,
		"forgot":       h.handleForgot,
		"catalog":      h.handleCatalog,
		"add-item":     h.handleAddItem,
		"edit-item":    h.handleEditItem,
		"delete-item":  h.handleDeleteItem,
		"orders":       h.handleOrders,
		"my-orders":    h.handleMyOrders,
		"show":         h.handleShow,
		"advance":      h.handleAdvance,
		"reject":       h.handleReject,
		"place":        h.handlePlace,
		"admins":       h.handleAdmins,
		"add-admin":    h.handleAddAdmin,
		"delete-admin": h.handleDeleteAdmin,
		"fee":          h.handleFee,
		"dump":         h.handleDump,
	}

	fn, ok := commands[cmd]
	if !ok {
		return errors.New("comando desconhecido. Digite 'help' para ajuda")
	}
	return fn(ctx, args)
}

func (h *Handler) printf(format string, args ...interface{}) {
	fmt.Fprintf(h.out, format, args...)
}

// fail prints the user-facing message for err and swallows it.
func (h *Handler) fail(op string, err error) error {
	h.printf("Erro em %s: %s\n", op, service.Message(err))
	return nil
}

func (h *Handler) session(ctx context.Context) (models.Session, error) {
	return h.svc.Auth.CurrentSession(ctx)
}

func (h *Handler) printHelp(_ context.Context, _ []string) error {
	fmt.Fprintln(h.out, `Comandos disponíveis:
  help
    - mostra esta ajuda
  exit
    - encerra o programa
  login <telefone> <senha>
    - entra como cliente
  login-admin <usuário> <senha>
    - entra como administrador
  logout
    - encerra a sessão
  whoami
    - mostra a sessão atual
  register <arquivo.json>
    - cadastra um cliente a partir de um arquivo JSON
  forgot <telefone>
    - gera uma senha temporária
  catalog
    - lista o cardápio
  add-item <categoria> <preço> <porcionado=true|false> <nome...>
    - adiciona item personalizado
  edit-item <id> <categoria> <preço> <porcionado=true|false> <nome...>
    - edita item personalizado
  delete-item <id>
    - remove item personalizado
  orders [status]
    - lista pedidos (mais recentes primeiro)
  my-orders
    - lista os pedidos do cliente logado
  show <pedidoID>
    - mostra um pedido e seu histórico
  advance <pedidoID> <status>
    - avança o status do pedido
  reject <pedidoID> <motivo...>
    - recusa um pedido pendente
  place <arquivo.json>
    - registra um pedido a partir de um arquivo JSON
  admins
    - lista administradores
  add-admin <usuário> <senha> <admin|manager>
    - cadastra administrador
  delete-admin <id>
    - remove administrador
  fee [valor]
    - mostra ou altera a taxa de entrega
  dump <chave>
    - mostra o conteúdo bruto de uma coleção`)
	return nil
}

func (h *Handler) handleExit(_ context.Context, _ []string) error {
	fmt.Fprintln(h.out, "Saindo.")
	return ErrExit
}

func (h *Handler) handleLogin(ctx context.Context, args []string) error {
	if len(args) != 2 {
		fmt.Fprintln(h.out, "Formato: login <telefone> <senha>")
		return nil
	}
	sess, err := h.svc.Auth.Login(ctx, args[0], args[1])
	if err != nil {
		return h.fail("login", err)
	}
	h.printf("Bem-vindo(a), %s!\n", sess.User.Name)
	return nil
}

func (h *Handler) handleAdminLogin(ctx context.Context, args []string) error {
	if len(args) != 2 {
		fmt.Fprintln(h.out, "Formato: login-admin <usuário> <senha>")
		return nil
	}
	sess, err := h.svc.Auth.AdminLogin(ctx, args[0], args[1])
	if err != nil {
		return h.fail("login-admin", err)
	}
	h.printf("Administrador %s conectado (%s)\n", sess.Admin.Username, sess.Admin.Role)
	return nil
}

func (h *Handler) handleLogout(ctx context.Context, _ []string) error {
	if err := h.svc.Auth.Logout(ctx); err != nil {
		return h.fail("logout", err)
	}
	fmt.Fprintln(h.out, "Sessão encerrada.")
	return nil
}

func (h *Handler) handleWhoami(ctx context.Context, _ []string) error {
	sess, err := h.session(ctx)
	if err != nil {
		return h.fail("whoami", err)
	}
	h.printf("%s\n", sess.Actor())
	return nil
}

func (h *Handler) handleRegister(ctx context.Context, args []string) error {
	if len(args) != 1 {
		fmt.Fprintln(h.out, "Formato: register <arquivo.json>")
		return nil
	}
	var reg identity.Registration
	if err := readJSON(args[0], &reg); err != nil {
		h.printf("Erro ao ler %s: %v\n", args[0], err)
		return nil
	}
	sess, err := h.svc.Auth.Register(ctx, reg)
	if err != nil {
		return h.fail("register", err)
	}
	h.printf("Cliente %s cadastrado com o telefone %s\n", sess.User.Name, sess.User.Phone)
	return nil
}

func (h *Handler) handleForgot(ctx context.Context, args []string) error {
	if len(args) != 1 {
		fmt.Fprintln(h.out, "Formato: forgot <telefone>")
		return nil
	}
	tmp, err := h.svc.Auth.ForgotPassword(ctx, args[0])
	if err != nil {
		return h.fail("forgot", err)
	}
	h.printf("Senha temporária: %s\n", tmp)
	return nil
}

func (h *Handler) handleCatalog(ctx context.Context, _ []string) error {
	items, err := h.svc.Admin.GetEffectiveCatalog(ctx)
	if err != nil {
		return h.fail("catalog", err)
	}
	var current models.Category
	for _, item := range items {
		if item.Category != current {
			current = item.Category
			h.printf("%s:\n", current.Label())
		}
		marker := ""
		if !item.IsBuiltin() {
			marker = " *"
		}
		unit := "cento"
		if item.IsPortioned {
			unit = "porção"
		}
		h.printf("  [%d] %s - R$ %.2f/%s%s\n", item.ID, item.Name, item.Price, unit, marker)
	}
	return nil
}

func parseFields(args []string) (models.CatalogFields, error) {
	price, err := strconv.ParseFloat(strings.ReplaceAll(args[1], ",", "."), 64)
	if err != nil {
		return models.CatalogFields{}, fmt.Errorf("preço inválido %q", args[1])
	}
	portioned, err := strconv.ParseBool(args[2])
	if err != nil {
		return models.CatalogFields{}, fmt.Errorf("valor inválido para porcionado %q", args[2])
	}
	return models.CatalogFields{
		Name:        strings.Join(args[3:], " "),
		Price:       price,
		Category:    models.Category(args[0]),
		IsPortioned: portioned,
	}, nil
}

func (h *Handler) handleAddItem(ctx context.Context, args []string) error {
	if len(args) < 4 {
		fmt.Fprintln(h.out, "Formato: add-item <categoria> <preço> <porcionado> <nome...>")
		return nil
	}
	f, err := parseFields(args)
	if err != nil {
		h.printf("Erro em add-item: %v\n", err)
		return nil
	}
	sess, err := h.session(ctx)
	if err != nil {
		return h.fail("add-item", err)
	}
	item, err := h.svc.Admin.AddCatalogItem(ctx, sess, f)
	if err != nil {
		return h.fail("add-item", err)
	}
	h.printf("Item %s adicionado com id %d\n", item.Name, item.ID)
	return nil
}

func (h *Handler) handleEditItem(ctx context.Context, args []string) error {
	if len(args) < 5 {
		fmt.Fprintln(h.out, "Formato: edit-item <id> <categoria> <preço> <porcionado> <nome...>")
		return nil
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		h.printf("Erro em edit-item: id inválido %q\n", args[0])
		return nil
	}
	f, err := parseFields(args[1:])
	if err != nil {
		h.printf("Erro em edit-item: %v\n", err)
		return nil
	}
	sess, err := h.session(ctx)
	if err != nil {
		return h.fail("edit-item", err)
	}
	item, err := h.svc.Admin.EditCatalogItem(ctx, sess, id, f)
	if err != nil {
		return h.fail("edit-item", err)
	}
	h.printf("Item %d atualizado: %s\n", item.ID, item.Name)
	return nil
}

func (h *Handler) handleDeleteItem(ctx context.Context, args []string) error {
	if len(args) != 1 {
		fmt.Fprintln(h.out, "Formato: delete-item <id>")
		return nil
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		h.printf("Erro em delete-item: id inválido %q\n", args[0])
		return nil
	}
	sess, err := h.session(ctx)
	if err != nil {
		return h.fail("delete-item", err)
	}
	if err := h.svc.Admin.DeleteCatalogItem(ctx, sess, id); err != nil {
		return h.fail("delete-item", err)
	}
	h.printf("Item %d removido\n", id)
	return nil
}

func (h *Handler) handleOrders(ctx context.Context, args []string) error {
	var status models.OrderStatus
	if len(args) >= 1 {
		status = models.OrderStatus(args[0])
	}
	sess, err := h.session(ctx)
	if err != nil {
		return h.fail("orders", err)
	}
	orders, err := h.svc.Admin.ListOrders(ctx, sess, status)
	if err != nil {
		return h.fail("orders", err)
	}
	h.printOrders(orders)
	return nil
}

func (h *Handler) handleMyOrders(ctx context.Context, _ []string) error {
	sess, err := h.session(ctx)
	if err != nil {
		return h.fail("my-orders", err)
	}
	orders, err := h.svc.Orders.ListForCustomer(ctx, sess)
	if err != nil {
		return h.fail("my-orders", err)
	}
	h.printOrders(orders)
	return nil
}

func (h *Handler) printOrders(orders []models.Order) {
	if len(orders) == 0 {
		fmt.Fprintln(h.out, "Nenhum pedido encontrado.")
		return
	}
	for _, o := range orders {
		h.printf("  %s %s - %s - R$ %.2f - %s (id=%s)\n",
			o.OrderNumber, o.CreatedAt.Local().Format("02/01 15:04"), o.Customer.Name, o.Total, lifecycle.Label(o.Status), o.ID)
	}
}

func (h *Handler) handleShow(ctx context.Context, args []string) error {
	if len(args) != 1 {
		fmt.Fprintln(h.out, "Formato: show <pedidoID>")
		return nil
	}
	sess, err := h.session(ctx)
	if err != nil {
		return h.fail("show", err)
	}
	o, err := h.svc.Admin.GetOrder(ctx, sess, args[0])
	if err != nil {
		return h.fail("show", err)
	}
	h.printf("Pedido %s - %s\n", o.OrderNumber, lifecycle.Label(o.Status))
	h.printf("Cliente: %s (%s)\n", o.Customer.Name, o.Customer.Phone)
	for _, li := range o.Items {
		h.printf("  %dx %s (%s) - R$ %.2f\n", li.Quantity, li.Name, portion.Label(li.QuantityType, li.UnitCount), li.TotalPrice)
	}
	if o.IsDelivery {
		h.printf("Entrega: R$ %.2f\n", o.DeliveryFee)
	}
	h.printf("Total: R$ %.2f (%s)\n", o.Total, o.PaymentMethod.Label())
	fmt.Fprintln(h.out, "Histórico:")
	for _, e := range o.StatusHistory {
		h.printf("  %s %s - %s\n", e.Timestamp.Local().Format(time.RFC3339), lifecycle.Label(e.Status), e.Description)
	}
	return nil
}

func (h *Handler) handleAdvance(ctx context.Context, args []string) error {
	if len(args) != 2 {
		fmt.Fprintln(h.out, "Formato: advance <pedidoID> <status>")
		return nil
	}
	sess, err := h.session(ctx)
	if err != nil {
		return h.fail("advance", err)
	}
	o, err := h.svc.Admin.AdvanceOrder(ctx, sess, args[0], models.OrderStatus(args[1]))
	if err != nil {
		return h.fail("advance", err)
	}
	h.printf("Pedido %s agora está %s\n", o.OrderNumber, lifecycle.Label(o.Status))
	return nil
}

func (h *Handler) handleReject(ctx context.Context, args []string) error {
	if len(args) < 1 {
		fmt.Fprintln(h.out, "Formato: reject <pedidoID> <motivo...>")
		return nil
	}
	sess, err := h.session(ctx)
	if err != nil {
		return h.fail("reject", err)
	}
	o, err := h.svc.Admin.RejectOrder(ctx, sess, args[0], strings.Join(args[1:], " "))
	if err != nil {
		return h.fail("reject", err)
	}
	h.printf("Pedido %s recusado: %s\n", o.OrderNumber, o.RejectionReason)
	return nil
}

func (h *Handler) handlePlace(ctx context.Context, args []string) error {
	if len(args) != 1 {
		fmt.Fprintln(h.out, "Formato: place <arquivo.json>")
		return nil
	}
	var req service.PlaceOrderRequest
	if err := readJSON(args[0], &req); err != nil {
		h.printf("Erro ao ler %s: %v\n", args[0], err)
		return nil
	}
	sess, err := h.session(ctx)
	if err != nil {
		return h.fail("place", err)
	}
	o, err := h.svc.Orders.PlaceOrder(ctx, sess, req)
	if err != nil {
		return h.fail("place", err)
	}
	h.printf("Pedido %s registrado, total R$ %.2f\n", o.OrderNumber, o.Total)
	return nil
}

func (h *Handler) handleAdmins(ctx context.Context, _ []string) error {
	sess, err := h.session(ctx)
	if err != nil {
		return h.fail("admins", err)
	}
	admins, err := h.svc.Admin.ListAdmins(ctx, sess)
	if err != nil {
		return h.fail("admins", err)
	}
	for _, a := range admins {
		marker := ""
		if a.IsRoot() {
			marker = " (protegido)"
		}
		h.printf("  %s %s [%s]%s\n", a.ID, a.Username, a.Role, marker)
	}
	return nil
}

func (h *Handler) handleAddAdmin(ctx context.Context, args []string) error {
	if len(args) != 3 {
		fmt.Fprintln(h.out, "Formato: add-admin <usuário> <senha> <admin|manager>")
		return nil
	}
	sess, err := h.session(ctx)
	if err != nil {
		return h.fail("add-admin", err)
	}
	acc, err := h.svc.Admin.AddAdmin(ctx, sess, args[0], args[1], models.Role(args[2]))
	if err != nil {
		return h.fail("add-admin", err)
	}
	h.printf("Administrador %s cadastrado (id=%s)\n", acc.Username, acc.ID)
	return nil
}

func (h *Handler) handleDeleteAdmin(ctx context.Context, args []string) error {
	if len(args) != 1 {
		fmt.Fprintln(h.out, "Formato: delete-admin <id>")
		return nil
	}
	sess, err := h.session(ctx)
	if err != nil {
		return h.fail("delete-admin", err)
	}
	if err := h.svc.Admin.DeleteAdmin(ctx, sess, args[0]); err != nil {
		return h.fail("delete-admin", err)
	}
	h.printf("Administrador %s removido\n", args[0])
	return nil
}

func (h *Handler) handleFee(ctx context.Context, args []string) error {
	if len(args) == 0 {
		cfg, err := h.svc.Admin.GetConfig(ctx)
		if err != nil {
			return h.fail("fee", err)
		}
		h.printf("Taxa de entrega: R$ %.2f\n", cfg.DeliveryFee)
		return nil
	}
	amount, err := strconv.ParseFloat(strings.ReplaceAll(args[0], ",", "."), 64)
	if err != nil {
		h.printf("Erro em fee: valor inválido %q\n", args[0])
		return nil
	}
	sess, err := h.session(ctx)
	if err != nil {
		return h.fail("fee", err)
	}
	cfg, err := h.svc.Admin.SetDeliveryFee(ctx, sess, amount)
	if err != nil {
		return h.fail("fee", err)
	}
	h.printf("Taxa de entrega alterada para R$ %.2f\n", cfg.DeliveryFee)
	return nil
}

// handleDump prints the stored value of a key as decoded JSON.
func (h *Handler) handleDump(ctx context.Context, args []string) error {
	if len(args) != 1 {
		fmt.Fprintln(h.out, "Formato: dump <chave>")
		return nil
	}
	data, ok, err := h.store.Get(ctx, args[0])
	if err != nil {
		return h.fail("dump", err)
	}
	if !ok {
		h.printf("Chave %s vazia\n", args[0])
		return nil
	}
	var v interface{}
	if err := json.Unmarshal(data, &v); err != nil {
		h.printf("Conteúdo inválido em %s: %v\n", args[0], err)
		return nil
	}
	cfg := spew.ConfigState{Indent: "  ", DisablePointerAddresses: true, SortKeys: true}
	cfg.Fdump(h.out, v)
	return nil
}

func readJSON(path string, v interface{}) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return json.NewDecoder(f).Decode(v)
}
