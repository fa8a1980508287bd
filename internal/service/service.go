// Package service holds the operations exposed to the HTTP API and the console.
// Each operation reads fresh state, applies the domain rules, writes back,
// then logs, audits and records metrics.
package service

import (
	"time"

	"salgados/internal/audit"
	"salgados/internal/metrics"
	"salgados/internal/models"
	"salgados/internal/repository"
)

type base struct {
	repos   *repository.Repositories
	audit   audit.Logger
	metrics *metrics.Recorder
	now     func() time.Time
}

type Option func(*base)

func WithAudit(l audit.Logger) Option {
	return func(b *base) { b.audit = l }
}

func WithMetrics(r *metrics.Recorder) Option {
	return func(b *base) { b.metrics = r }
}

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(b *base) { b.now = now }
}

func newBase(repos *repository.Repositories, opts []Option) base {
	b := base{
		repos: repos,
		audit: audit.Nop,
		now:   func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(&b)
	}
	return b
}

// observe is deferred by every operation with a pointer to its named error.
func (b *base) observe(op string, start time.Time, err *error) {
	b.metrics.Observe(op, *err, time.Since(start))
}

func (b *base) record(s models.Session, action, collection, id, oldState, newState, msg string) {
	b.audit.Log(audit.Record{
		Timestamp:  b.now(),
		Action:     action,
		Collection: collection,
		RecordID:   id,
		OldState:   oldState,
		NewState:   newState,
		Actor:      s.Actor(),
		Message:    msg,
	})
}

func requireAdmin(s models.Session) error {
	if !s.IsAdmin() {
		return models.ErrUnauthenticated
	}
	return nil
}

// Services bundles the three surfaces over one set of repositories.
type Services struct {
	Admin  *AdminService
	Auth   *AuthService
	Orders *OrderService
}

func New(repos *repository.Repositories, opts ...Option) *Services {
	return &Services{
		Admin:  NewAdminService(repos, opts...),
		Auth:   NewAuthService(repos, opts...),
		Orders: NewOrderService(repos, opts...),
	}
}
