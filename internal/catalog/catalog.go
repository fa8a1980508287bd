// Package catalog merges the fixed built-in menu with the custom items kept in
// the store. Built-in ids are 1..26 and can never be edited or deleted.
package catalog

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"salgados/internal/models"
	"salgados/internal/storage"
)

// Builtins returns a copy of the built-in menu in its fixed order.
func Builtins() []models.CatalogItem {
	return append([]models.CatalogItem(nil), builtins...)
}

// Effective is the built-in menu followed by custom items in insertion order.
func Effective(custom []models.CatalogItem) []models.CatalogItem {
	out := make([]models.CatalogItem, 0, len(builtins)+len(custom))
	out = append(out, builtins...)
	return append(out, custom...)
}

// Find looks an item up in the effective catalog.
func Find(custom []models.CatalogItem, id int64) (models.CatalogItem, bool) {
	for _, item := range Effective(custom) {
		if item.ID == id {
			return item, true
		}
	}
	return models.CatalogItem{}, false
}

// NextID derives a custom id from the clock, bumped past every existing id so
// that two adds in the same millisecond never collide.
func NextID(custom []models.CatalogItem, now time.Time) int64 {
	id := now.UnixMilli()
	for _, item := range custom {
		if item.ID >= id {
			id = item.ID + 1
		}
	}
	if id <= models.MaxBuiltinItemID {
		id = models.MaxBuiltinItemID + 1
	}
	return id
}

type fieldError struct {
	field string
	msg   string
}

func (e fieldError) Error() string { return e.field + ": " + e.msg }

func ValidateFields(f models.CatalogFields) error {
	var errs []error
	if strings.TrimSpace(f.Name) == "" {
		errs = append(errs, fieldError{"name", "campo obrigatório"})
	}
	if f.Price < 0 {
		errs = append(errs, fieldError{"price", "preço não pode ser negativo"})
	}
	if !f.Category.Valid() {
		errs = append(errs, fieldError{"category", fmt.Sprintf("categoria desconhecida %q", f.Category)})
	}
	if len(errs) == 0 {
		return nil
	}
	verr := &models.ValidationError{}
	for _, err := range errs {
		var fe fieldError
		if errors.As(err, &fe) {
			verr.Add(fe.field, fe.msg)
		}
	}
	return verr
}

// Add appends a new custom item built from f.
func Add(custom []models.CatalogItem, f models.CatalogFields, now time.Time) ([]models.CatalogItem, models.CatalogItem, error) {
	if err := ValidateFields(f); err != nil {
		return nil, models.CatalogItem{}, err
	}
	item := fromFields(NextID(custom, now), f)
	return append(custom, item), item, nil
}

// Edit replaces the fields of a custom item, keeping its id and position.
func Edit(custom []models.CatalogItem, id int64, f models.CatalogFields) ([]models.CatalogItem, models.CatalogItem, error) {
	if models.IsBuiltinItemID(id) {
		return nil, models.CatalogItem{}, immutable(id)
	}
	if err := ValidateFields(f); err != nil {
		return nil, models.CatalogItem{}, err
	}
	for i := range custom {
		if custom[i].ID == id {
			custom[i] = fromFields(id, f)
			return custom, custom[i], nil
		}
	}
	return nil, models.CatalogItem{}, &models.NotFoundError{Collection: storage.KeyCustomMenuItems, ID: strconv.FormatInt(id, 10)}
}

// Delete filters id out of the custom items. An absent id is not an error;
// removed reports whether anything was dropped.
func Delete(custom []models.CatalogItem, id int64) (out []models.CatalogItem, removed bool, err error) {
	if models.IsBuiltinItemID(id) {
		return nil, false, immutable(id)
	}
	out = make([]models.CatalogItem, 0, len(custom))
	for _, item := range custom {
		if item.ID == id {
			removed = true
			continue
		}
		out = append(out, item)
	}
	return out, removed, nil
}

func fromFields(id int64, f models.CatalogFields) models.CatalogItem {
	return models.CatalogItem{
		ID:          id,
		Name:        strings.TrimSpace(f.Name),
		Price:       f.Price,
		Category:    f.Category,
		Description: strings.TrimSpace(f.Description),
		IsPortioned: f.IsPortioned,
	}
}

func immutable(id int64) error {
	return &models.ImmutableRecordError{Collection: "menu", ID: strconv.FormatInt(id, 10)}
}
