// Package portion prices order lines by quantity type. Non-portioned catalog
// prices are per hundred units; portioned prices are per portion.
package portion

import (
	"fmt"
	"math"
	"sort"

	"salgados/internal/models"
)

type QuantityType string

const (
	QuantityCento   QuantityType = "cento"
	QuantityUnidade QuantityType = "unidade"
	QuantityPorcao  QuantityType = "porcao"
)

// Unit counts a "cento" line may be sold in.
var CentoSizes = []int{25, 50, 100}

type Pricing interface {
	Validate(item models.CatalogItem, quantity, unitCount int) error
	Price(item models.CatalogItem, quantity, unitCount int) float64
	Label(unitCount int) string
	Type() QuantityType
}

type CentoPricing struct{}

func (CentoPricing) Validate(item models.CatalogItem, quantity, unitCount int) error {
	if item.IsPortioned {
		return fmt.Errorf("%s é vendido por porção", item.Name)
	}
	if quantity <= 0 {
		return fmt.Errorf("quantidade deve ser positiva, recebido %d", quantity)
	}
	for _, size := range CentoSizes {
		if unitCount == size {
			return nil
		}
	}
	return fmt.Errorf("tamanho %d não disponível, use %v", unitCount, CentoSizes)
}

func (CentoPricing) Price(item models.CatalogItem, quantity, unitCount int) float64 {
	return roundCents(item.Price * float64(unitCount) / 100 * float64(quantity))
}

func (CentoPricing) Label(unitCount int) string {
	if unitCount == 100 {
		return "cento"
	}
	return fmt.Sprintf("%d unidades", unitCount)
}

func (CentoPricing) Type() QuantityType { return QuantityCento }

type UnidadePricing struct{}

func (UnidadePricing) Validate(item models.CatalogItem, quantity, _ int) error {
	if item.IsPortioned {
		return fmt.Errorf("%s é vendido por porção", item.Name)
	}
	if quantity <= 0 {
		return fmt.Errorf("quantidade deve ser positiva, recebido %d", quantity)
	}
	return nil
}

func (UnidadePricing) Price(item models.CatalogItem, quantity, _ int) float64 {
	return roundCents(item.Price / 100 * float64(quantity))
}

func (UnidadePricing) Label(int) string { return "unidade" }

func (UnidadePricing) Type() QuantityType { return QuantityUnidade }

type PorcaoPricing struct{}

func (PorcaoPricing) Validate(item models.CatalogItem, quantity, _ int) error {
	if !item.IsPortioned {
		return fmt.Errorf("%s não é vendido por porção", item.Name)
	}
	if quantity <= 0 {
		return fmt.Errorf("quantidade deve ser positiva, recebido %d", quantity)
	}
	return nil
}

func (PorcaoPricing) Price(item models.CatalogItem, quantity, _ int) float64 {
	return roundCents(item.Price * float64(quantity))
}

func (PorcaoPricing) Label(int) string { return "porção" }

func (PorcaoPricing) Type() QuantityType { return QuantityPorcao }

type Service interface {
	Get(qt QuantityType) (Pricing, error)
	List() []QuantityType
	// Line validates and prices one order line.
	Line(item models.CatalogItem, qt QuantityType, quantity, unitCount int) (models.LineItem, error)
}

type service struct {
	types map[QuantityType]Pricing
}

func NewService() Service {
	return &service{
		types: map[QuantityType]Pricing{
			QuantityCento:   CentoPricing{},
			QuantityUnidade: UnidadePricing{},
			QuantityPorcao:  PorcaoPricing{},
		},
	}
}

func (s *service) Get(qt QuantityType) (Pricing, error) {
	if p, ok := s.types[qt]; ok {
		return p, nil
	}
	return nil, fmt.Errorf("tipo de quantidade não suportado: %s", qt)
}

func (s *service) List() []QuantityType {
	list := make([]QuantityType, 0, len(s.types))
	for k := range s.types {
		list = append(list, k)
	}
	sort.Slice(list, func(i, j int) bool { return list[i] < list[j] })
	return list
}

func (s *service) Line(item models.CatalogItem, qt QuantityType, quantity, unitCount int) (models.LineItem, error) {
	p, err := s.Get(qt)
	if err != nil {
		return models.LineItem{}, err
	}
	if err := p.Validate(item, quantity, unitCount); err != nil {
		return models.LineItem{}, err
	}
	if qt != QuantityCento {
		unitCount = 0
	}
	return models.LineItem{
		ProductID:    item.ID,
		Name:         item.Name,
		Quantity:     quantity,
		QuantityType: string(qt),
		UnitCount:    unitCount,
		TotalPrice:   p.Price(item, quantity, unitCount),
	}, nil
}

// Label describes a stored line; unknown quantity types are echoed.
func Label(qt string, unitCount int) string {
	switch QuantityType(qt) {
	case QuantityCento:
		return CentoPricing{}.Label(unitCount)
	case QuantityUnidade:
		return UnidadePricing{}.Label(unitCount)
	case QuantityPorcao:
		return PorcaoPricing{}.Label(unitCount)
	}
	return qt
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
