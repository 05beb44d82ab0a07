package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/erazemk/inventario/internal/model"
)

func TestSortElementsSpanish(t *testing.T) {
	elements := []model.Element{{Name: "Zapa"}, {Name: "Ñandú"}, {Name: "nuez"}, {Name: "Árbol"}, {Name: "Azada"}}
	SortElements(elements)

	names := make([]string, len(elements))
	for i, e := range elements {
		names[i] = e.Name
	}
	assert.Equal(t, []string{"Árbol", "Azada", "nuez", "Ñandú", "Zapa"}, names)
}

func TestWriteElements(t *testing.T) {
	exp := time.Date(2027, 5, 1, 0, 0, 0, 0, time.UTC)
	low := model.NewElement("Guantes", "Protección", "Insumo", "Par", 10)
	low.SuppliedQuantity = 9
	low.Normalize()
	plenty := model.NewElement("Alicate", "Herramientas", "Herramienta", "Unidad", 5)
	plenty.ExpirationDate = &exp

	var buf bytes.Buffer
	require.NoError(t, WriteElements(&buf, []model.Element{low, plenty}))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(elementsSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, elementHeaders, rows[0])

	assert.Equal(t, "Alicate", rows[1][0])
	assert.Equal(t, "5", rows[1][6])
	assert.Equal(t, "No", rows[1][7])
	assert.Equal(t, "2027-05-01", rows[1][9])

	assert.Equal(t, "Guantes", rows[2][0])
	assert.Equal(t, "9", rows[2][5])
	assert.Equal(t, "1", rows[2][6])
	assert.Equal(t, "Sí", rows[2][7])
}

func TestWriteOrders(t *testing.T) {
	orders := []model.Order{
		{
			ID: "o1", Client: "Granja", Status: model.StatusPending,
			OrderDate: time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC),
			Lines: []model.OrderLine{
				{ElementID: "e1", ElementName: "Clavos", Unit: "Caja", Quantity: 3},
				{ElementID: "e2", ElementName: "Tablas", Unit: "Unidad", Quantity: 7},
			},
		},
		{
			ID: "o2", Client: "Huerta", Status: model.StatusDelivered,
			OrderDate: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
			Lines:     []model.OrderLine{{ElementID: "e1", ElementName: "Clavos", Unit: "Caja", Quantity: 1}},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteOrders(&buf, orders))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(ordersSheet)
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, []string{"o1", "Granja", "2026-03-02", "pending", "Clavos", "Caja", "3"}, rows[1])
	assert.Equal(t, "Tablas", rows[2][4])
	assert.Equal(t, "o2", rows[3][0])
	assert.Equal(t, "delivered", rows[3][3])
}

func TestNewWorkbookReportsHeaderErrors(t *testing.T) {
	f, err := newWorkbook("Hoja", []string{"Nombre"}, []float64{40})
	require.NoError(t, err)
	width, err := f.GetColWidth("Hoja", "A")
	require.NoError(t, err)
	assert.Equal(t, 40.0, width)
	f.Close()

	// Excel caps column widths at 255 characters.
	_, err = newWorkbook("Hoja", []string{"Nombre"}, []float64{300})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sizing column A")
}
