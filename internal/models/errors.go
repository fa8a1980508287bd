package models

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrUnauthenticated    = errors.New("authentication required")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// NotFoundError reports an identifier that is absent from its collection.
type NotFoundError struct {
	Collection string
	ID         string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s: record %s not found", e.Collection, e.ID)
}

// DuplicateError reports a violated uniqueness constraint.
type DuplicateError struct {
	Collection string
	Field      string
	Value      string
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("%s: %s %q already exists", e.Collection, e.Field, e.Value)
}

type ProtectedRecordError struct {
	Collection string
	ID         string
	Reason     string
}

func (e *ProtectedRecordError) Error() string {
	return fmt.Sprintf("%s: record %s is protected: %s", e.Collection, e.ID, e.Reason)
}

type ImmutableRecordError struct {
	Collection string
	ID         string
}

func (e *ImmutableRecordError) Error() string {
	return fmt.Sprintf("%s: record %s is built-in and cannot be changed", e.Collection, e.ID)
}

// ValidationError carries one message per offending input field.
type ValidationError struct {
	Fields map[string]string
}

func NewValidationError(field, msg string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: msg}}
}

func (e *ValidationError) Add(field, msg string) {
	if e.Fields == nil {
		e.Fields = make(map[string]string)
	}
	if _, exists := e.Fields[field]; !exists {
		e.Fields[field] = msg
	}
}

// OrNil returns nil when no field failed.
func (e *ValidationError) OrNil() error {
	if e == nil || len(e.Fields) == 0 {
		return nil
	}
	return e
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// ConcurrentModificationError is returned when a collection changed between
// the read and the write of a read-modify-write cycle.
type ConcurrentModificationError struct {
	Key      string
	Expected uint64
	Actual   uint64
}

func (e *ConcurrentModificationError) Error() string {
	return fmt.Sprintf("%s: modified concurrently (read version %x, stored version %x), retry", e.Key, e.Expected, e.Actual)
}

type IllegalTransitionError struct {
	From OrderStatus
	To   OrderStatus
}

func (e *IllegalTransitionError) Error() string {
	return fmt.Sprintf("illegal status transition %s -> %s", e.From, e.To)
}
