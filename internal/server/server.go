package server

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"salgados/internal/audit"
	"salgados/internal/cache"
	"salgados/internal/identity"
	"salgados/internal/lifecycle"
	"salgados/internal/metrics"
	"salgados/internal/middleware"
	"salgados/internal/models"
	"salgados/internal/service"
)

type Server struct {
	svc     *service.Services
	metrics *metrics.Recorder
	audit   audit.Logger
	addr    string
	active  *cache.ActiveOrders
}

func NewServer(svc *service.Services, rec *metrics.Recorder, auditLog audit.Logger, addr string) *Server {
	if auditLog == nil {
		auditLog = audit.Nop
	}
	return &Server{svc: svc, metrics: rec, audit: auditLog, addr: addr}
}

// WithActiveOrders serves the cached kitchen queue on /orders-active.
func (s *Server) WithActiveOrders(c *cache.ActiveOrders) *Server {
	s.active = c
	return s
}

var mutating = []string{http.MethodPost, http.MethodPut, http.MethodDelete}

func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	s.handleWith(mux, "/catalog", s.handleCatalog, []string{http.MethodPost})
	s.handleWith(mux, "/catalog/", s.handleCatalogOne, []string{http.MethodPut, http.MethodDelete})

	s.handleWith(mux, "/orders", s.handleOrders, []string{http.MethodGet})
	s.handleWith(mux, "/orders/", s.handleOrderOne, []string{http.MethodGet})
	s.handleWith(mux, "/orders-advance/", s.handleAdvance, []string{http.MethodPut})
	s.handleWith(mux, "/orders-reject/", s.handleReject, []string{http.MethodPut})
	if s.active != nil {
		s.handleWith(mux, "/orders-active", s.handleActiveOrders, []string{http.MethodGet})
	}

	s.handleWith(mux, "/admins", s.handleAdmins, []string{http.MethodGet, http.MethodPost})
	s.handleWith(mux, "/admins/", s.handleAdminOne, []string{http.MethodDelete})

	s.handleWith(mux, "/config", s.handleConfig, []string{http.MethodPut})

	s.handleWith(mux, "/register", s.handleRegister, nil)
	s.handleWith(mux, "/login", s.handleLogin, nil)
	s.handleWith(mux, "/forgot-password", s.handleForgotPassword, []string{http.MethodPost})

	if s.metrics != nil {
		mux.Handle("/metrics", s.metrics.Handler())
	}
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.RegisterRoutes(mux)
	return mux
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		log.Printf("Server listen on %s...", s.addr)
		errCh <- srv.ListenAndServe()
	}()
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return nil
	}
}

func (s *Server) handleWith(mux *http.ServeMux, path string, handlerFunc http.HandlerFunc, authMethods []string) {
	finalHandler := middleware.BasicAuthMiddleware(s.svc.Auth, authMethods...)(
		middleware.LogMiddleware(s.audit, mutating...)(
			handlerFunc,
		),
	)
	mux.Handle(path, finalHandler)
}

func (s *Server) handleCatalog(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		items, err := s.svc.Admin.GetEffectiveCatalog(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, catalogView(items))
	case http.MethodPost:
		var f models.CatalogFields
		if !decode(w, r, &f) {
			return
		}
		item, err := s.svc.Admin.AddCatalogItem(r.Context(), middleware.SessionFrom(r.Context()), f)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, item)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleCatalogOne(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(strings.TrimPrefix(r.URL.Path, "/catalog/"), 10, 64)
	if err != nil {
		http.Error(w, "bad item ID", http.StatusBadRequest)
		return
	}
	sess := middleware.SessionFrom(r.Context())
	switch r.Method {
	case http.MethodPut:
		var f models.CatalogFields
		if !decode(w, r, &f) {
			return
		}
		item, err := s.svc.Admin.EditCatalogItem(r.Context(), sess, id, f)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, item)
	case http.MethodDelete:
		if err := s.svc.Admin.DeleteCatalogItem(r.Context(), sess, id); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleOrders(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		var req service.PlaceOrderRequest
		if !decode(w, r, &req) {
			return
		}
		o, err := s.svc.Orders.PlaceOrder(r.Context(), middleware.SessionFrom(r.Context()), req)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, o)
	case http.MethodGet:
		status := models.OrderStatus(r.URL.Query().Get("status"))
		orders, err := s.svc.Admin.ListOrders(r.Context(), middleware.SessionFrom(r.Context()), status)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, orders)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleOrderOne(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/orders/")
	if id == "" {
		http.Error(w, "missing ID", http.StatusBadRequest)
		return
	}
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	o, err := s.svc.Admin.GetOrder(r.Context(), middleware.SessionFrom(r.Context()), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, orderView{Order: *o, StatusLabel: lifecycle.Label(o.Status), PaymentLabel: o.PaymentMethod.Label()})
}

func (s *Server) handleAdvance(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/orders-advance/")
	var body struct {
		Status models.OrderStatus `json:"status"`
	}
	if !decode(w, r, &body) {
		return
	}
	if body.Status == "" {
		writeError(w, models.NewValidationError("status", "campo obrigatório"))
		return
	}
	o, err := s.svc.Admin.AdvanceOrder(r.Context(), middleware.SessionFrom(r.Context()), id, body.Status)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

func (s *Server) handleReject(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/orders-reject/")
	var body struct {
		Reason string `json:"reason"`
	}
	if !decode(w, r, &body) {
		return
	}
	o, err := s.svc.Admin.RejectOrder(r.Context(), middleware.SessionFrom(r.Context()), id, body.Reason)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

func (s *Server) handleActiveOrders(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	orders, refreshed := s.active.Get()
	writeJSON(w, http.StatusOK, struct {
		RefreshedAt time.Time      `json:"refreshedAt"`
		Orders      []models.Order `json:"orders"`
	}{refreshed, orders})
}

func (s *Server) handleAdmins(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFrom(r.Context())
	switch r.Method {
	case http.MethodGet:
		admins, err := s.svc.Admin.ListAdmins(r.Context(), sess)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, admins)
	case http.MethodPost:
		var body struct {
			Username string      `json:"username"`
			Password string      `json:"password"`
			Role     models.Role `json:"role"`
		}
		if !decode(w, r, &body) {
			return
		}
		acc, err := s.svc.Admin.AddAdmin(r.Context(), sess, body.Username, body.Password, body.Role)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, acc)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleAdminOne(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/admins/")
	if err := s.svc.Admin.DeleteAdmin(r.Context(), middleware.SessionFrom(r.Context()), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleConfig(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		cfg, err := s.svc.Admin.GetConfig(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, cfg)
	case http.MethodPut:
		var body struct {
			DeliveryFee *float64 `json:"deliveryFee"`
		}
		if !decode(w, r, &body) {
			return
		}
		if body.DeliveryFee == nil {
			writeError(w, models.NewValidationError("deliveryFee", "campo obrigatório"))
			return
		}
		cfg, err := s.svc.Admin.SetDeliveryFee(r.Context(), middleware.SessionFrom(r.Context()), *body.DeliveryFee)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, cfg)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var reg identity.Registration
	if !decode(w, r, &reg) {
		return
	}
	acc, err := s.svc.Auth.CreateAccount(r.Context(), reg)
	if err != nil {
		writeError(w, err)
		return
	}
	acc.Password = ""
	writeJSON(w, http.StatusCreated, acc)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var body struct {
		Phone    string `json:"phone"`
		Password string `json:"password"`
	}
	if !decode(w, r, &body) {
		return
	}
	found, err := s.svc.Auth.VerifyCustomer(r.Context(), body.Phone, body.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	acc := *found
	acc.Password = ""
	writeJSON(w, http.StatusOK, acc)
}

func (s *Server) handleForgotPassword(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var body struct {
		Phone string `json:"phone"`
	}
	if !decode(w, r, &body) {
		return
	}
	tmp, err := s.svc.Auth.ForgotPassword(r.Context(), body.Phone)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"temporaryPassword": tmp})
}

type orderView struct {
	models.Order
	StatusLabel  string `json:"statusLabel"`
	PaymentLabel string `json:"paymentLabel"`
}

type catalogItemView struct {
	models.CatalogItem
	Provenance    models.Provenance `json:"provenance"`
	CategoryLabel string            `json:"categoryLabel"`
}

func catalogView(items []models.CatalogItem) []catalogItemView {
	out := make([]catalogItemView, 0, len(items))
	for _, item := range items {
		out = append(out, catalogItemView{CatalogItem: item, Provenance: item.Provenance(), CategoryLabel: item.Category.Label()})
	}
	return out
}

func decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		http.Error(w, "bad JSON", http.StatusBadRequest)
		return false
	}
	return true
}

type errorBody struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

func writeError(w http.ResponseWriter, err error) {
	body := errorBody{Error: service.Message(err)}
	var verr *models.ValidationError
	if errors.As(err, &verr) {
		body.Fields = verr.Fields
	}
	code := statusCode(err)
	if code == http.StatusInternalServerError {
		log.Printf("Internal error: %v", err)
	}
	writeJSON(w, code, body)
}

func statusCode(err error) int {
	var (
		notFound   *models.NotFoundError
		duplicate  *models.DuplicateError
		protected  *models.ProtectedRecordError
		immutable  *models.ImmutableRecordError
		validation *models.ValidationError
		conflict   *models.ConcurrentModificationError
		illegal    *models.IllegalTransitionError
	)
	switch {
	case errors.Is(err, models.ErrUnauthenticated), errors.Is(err, models.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.As(err, &notFound):
		return http.StatusNotFound
	case errors.As(err, &protected), errors.As(err, &immutable):
		return http.StatusForbidden
	case errors.As(err, &validation):
		return http.StatusUnprocessableEntity
	case errors.As(err, &duplicate), errors.As(err, &conflict), errors.As(err, &illegal):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, code int, data interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(data)
}
