package portion_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salgados/internal/models"
	"salgados/internal/portion"
)

var (
	coxinha = models.CatalogItem{ID: 1, Name: "Coxinha de Frango", Price: 90}
	batata  = models.CatalogItem{ID: 26, Name: "Porção de Batata Frita", Price: 25, IsPortioned: true}
)

func TestLinePricing(t *testing.T) {
	svc := portion.NewService()
	tests := []struct {
		name      string
		item      models.CatalogItem
		qt        portion.QuantityType
		quantity  int
		unitCount int
		want      float64
	}{
		{"one cento", coxinha, portion.QuantityCento, 1, 100, 90},
		{"two half cento", coxinha, portion.QuantityCento, 2, 50, 90},
		{"quarter cento", coxinha, portion.QuantityCento, 1, 25, 22.5},
		{"units", coxinha, portion.QuantityUnidade, 30, 0, 27},
		{"portions", batata, portion.QuantityPorcao, 3, 0, 75},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			line, err := svc.Line(tt.item, tt.qt, tt.quantity, tt.unitCount)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, line.TotalPrice, 0.001)
			assert.Equal(t, tt.item.Name, line.Name)
			assert.Equal(t, string(tt.qt), line.QuantityType)
		})
	}
}

func TestLineValidation(t *testing.T) {
	svc := portion.NewService()
	_, err := svc.Line(coxinha, portion.QuantityCento, 1, 30)
	assert.Error(t, err)
	_, err = svc.Line(coxinha, portion.QuantityPorcao, 1, 0)
	assert.Error(t, err)
	_, err = svc.Line(batata, portion.QuantityCento, 1, 100)
	assert.Error(t, err)
	_, err = svc.Line(batata, portion.QuantityPorcao, 0, 0)
	assert.Error(t, err)
	_, err = svc.Line(coxinha, "kilo", 1, 0)
	assert.Error(t, err)
}

func TestLabels(t *testing.T) {
	assert.Equal(t, "cento", portion.Label("cento", 100))
	assert.Equal(t, "50 unidades", portion.Label("cento", 50))
	assert.Equal(t, "porção", portion.Label("porcao", 0))
	assert.Equal(t, "kilo", portion.Label("kilo", 0))
	assert.Equal(t, []portion.QuantityType{portion.QuantityCento, portion.QuantityPorcao, portion.QuantityUnidade}, portion.NewService().List())
}
