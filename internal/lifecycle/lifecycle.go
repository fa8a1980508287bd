// Package lifecycle is the order status state machine. Every function is pure:
// callers load the order, apply a transition and persist the result.
package lifecycle

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"salgados/internal/models"
)

var ErrEmptyReason = errors.New("rejection reason must not be empty")

// confirmed -> rejected is deliberately absent; only pending orders can be rejected.
var transitions = map[models.OrderStatus][]models.OrderStatus{
	models.OrderStatusPending:   {models.OrderStatusConfirmed, models.OrderStatusRejected},
	models.OrderStatusConfirmed: {models.OrderStatusReady},
	models.OrderStatusReady:     {models.OrderStatusDelivered},
	models.OrderStatusDelivered: {},
	models.OrderStatusRejected:  {},
}

// Allowed lists the legal targets from a status. Unknown statuses have none.
func Allowed(from models.OrderStatus) []models.OrderStatus {
	return append([]models.OrderStatus(nil), transitions[from]...)
}

func CanTransition(from, to models.OrderStatus) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

func IsTerminal(s models.OrderStatus) bool {
	next, known := transitions[s]
	return known && len(next) == 0
}

func IsKnown(s models.OrderStatus) bool {
	_, known := transitions[s]
	return known
}

// Next is the forward step on the main path, if any.
func Next(s models.OrderStatus) (models.OrderStatus, bool) {
	switch s {
	case models.OrderStatusPending:
		return models.OrderStatusConfirmed, true
	case models.OrderStatusConfirmed:
		return models.OrderStatusReady, true
	case models.OrderStatusReady:
		return models.OrderStatusDelivered, true
	}
	return "", false
}

// Label returns the customer-facing description of a status. Unknown values are echoed.
func Label(s models.OrderStatus) string {
	switch s {
	case models.OrderStatusPending:
		return "Aguardando Confirmação"
	case models.OrderStatusConfirmed:
		return "Em Preparação"
	case models.OrderStatusReady:
		return "Pronto"
	case models.OrderStatusDelivered:
		return "Entregue"
	case models.OrderStatusRejected:
		return "Recusado"
	}
	return string(s)
}

func RejectionDescription(reason string) string {
	return "Pedido recusado: " + reason
}

// Start puts a new order into pending with its first history entry.
func Start(o *models.Order, now time.Time) {
	o.CreatedAt = now
	o.Status = models.OrderStatusPending
	o.StatusHistory = []models.StatusEntry{{
		Status:      models.OrderStatusPending,
		Timestamp:   now,
		Description: Label(models.OrderStatusPending),
	}}
}

// Advance moves o to target and appends one history entry.
func Advance(o *models.Order, target models.OrderStatus, now time.Time) error {
	if !CanTransition(o.Status, target) {
		return &models.IllegalTransitionError{From: o.Status, To: target}
	}
	o.Status = target
	o.StatusHistory = append(o.StatusHistory, models.StatusEntry{
		Status:      target,
		Timestamp:   now,
		Description: Label(target),
	})
	return nil
}

// Reject moves a pending order to rejected and records the reason.
// A blank reason leaves o untouched.
func Reject(o *models.Order, reason string, now time.Time) error {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return models.NewValidationError("reason", ErrEmptyReason.Error())
	}
	if !CanTransition(o.Status, models.OrderStatusRejected) {
		return &models.IllegalTransitionError{From: o.Status, To: models.OrderStatusRejected}
	}
	o.Status = models.OrderStatusRejected
	o.RejectionReason = reason
	o.StatusHistory = append(o.StatusHistory, models.StatusEntry{
		Status:      models.OrderStatusRejected,
		Timestamp:   now,
		Description: RejectionDescription(reason),
	})
	return nil
}

// CheckHistory verifies the history invariants: non-empty, ending in the current status,
// with non-decreasing timestamps.
func CheckHistory(o *models.Order) error {
	n := len(o.StatusHistory)
	if n == 0 {
		return fmt.Errorf("order %s: empty status history", o.ID)
	}
	if last := o.StatusHistory[n-1].Status; last != o.Status {
		return fmt.Errorf("order %s: history ends in %s but status is %s", o.ID, last, o.Status)
	}
	for i := 1; i < n; i++ {
		if o.StatusHistory[i].Timestamp.Before(o.StatusHistory[i-1].Timestamp) {
			return fmt.Errorf("order %s: history entry %d is older than its predecessor", o.ID, i)
		}
	}
	return nil
}
