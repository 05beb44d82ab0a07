package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewElement(t *testing.T) {
	e := NewElement(" Tubo PVC ", "Accesorio de plomería", "Consumible", "Unidad", 10)

	assert.Equal(t, "Tubo PVC", e.Name)
	assert.Equal(t, 10, e.InitialQuantity)
	assert.Equal(t, 0, e.SuppliedQuantity)
	assert.Equal(t, 10, e.AvailableQuantity)
	assert.True(t, e.Consistent())
}

func TestElementNormalize(t *testing.T) {
	tests := []struct {
		name                string
		initial, supplied   int
		wantSupplied, wantA int
	}{
		{"zero supplied", 10, 0, 0, 10},
		{"partial", 10, 4, 4, 6},
		{"negative supplied clamps to zero", 10, -3, 0, 10},
		{"supplied over initial clamps", 5, 9, 5, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := Element{InitialQuantity: tt.initial, SuppliedQuantity: tt.supplied, AvailableQuantity: 999}
			e.Normalize()
			assert.Equal(t, tt.wantSupplied, e.SuppliedQuantity)
			assert.Equal(t, tt.wantA, e.AvailableQuantity)
			assert.True(t, e.Consistent())
		})
	}
}

func TestElementLowStock(t *testing.T) {
	e := Element{InitialQuantity: 10, SuppliedQuantity: 9}
	e.Normalize()
	assert.True(t, e.LowStock())

	e.SuppliedQuantity = 8
	e.Normalize()
	assert.False(t, e.LowStock(), "exactly 20% available is not low")

	assert.False(t, (&Element{}).LowStock())
}

func TestHeldQuantity(t *testing.T) {
	assert.Equal(t, 4, HeldQuantity(StatusPending, 4))
	assert.Equal(t, 4, HeldQuantity(StatusDelivered, 4))
	assert.Equal(t, 0, HeldQuantity(StatusRejected, 4))
}

func TestParseStatus(t *testing.T) {
	s, ok := ParseStatus("completed")
	assert.True(t, ok)
	assert.Equal(t, StatusDelivered, s)

	_, ok = ParseStatus("entregado")
	assert.False(t, ok)
}

func TestValidSector(t *testing.T) {
	assert.True(t, ValidSector("Bovina"))
	assert.False(t, ValidSector("bovina"))
}
