// Package export writes inventory listings as XLSX workbooks.
package export

import (
	"fmt"
	"io"
	"slices"
	"time"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/erazemk/inventario/internal/model"
)

const (
	elementsSheet = "Elementos"
	ordersSheet   = "Pedidos"
	dateLayout    = "2006-01-02"
)

var elementHeaders = []string{
	"Nombre", "Categoría", "Tipo", "Unidad", "Cantidad inicial", "Cantidad suministrada",
	"Cantidad disponible", "Stock bajo", "Ubicación", "Vencimiento", "Características", "Observaciones",
}

var elementWidths = []float64{28, 20, 16, 12, 14, 18, 16, 10, 16, 12, 30, 30}

var orderHeaders = []string{
	"Pedido", "Cliente", "Fecha", "Estado", "Elemento", "Unidad", "Cantidad", "Observaciones",
}

var orderWidths = []float64{38, 24, 12, 12, 28, 12, 10, 30}

// SortElements orders elements by name using Spanish collation, so accented
// names sort next to their unaccented neighbours.
func SortElements(elements []model.Element) {
	col := collate.New(language.Spanish, collate.IgnoreCase)
	slices.SortStableFunc(elements, func(a, b model.Element) int {
		return col.CompareString(a.Name, b.Name)
	})
}

// WriteElements writes one row per element, sorted by name.
func WriteElements(w io.Writer, elements []model.Element) error {
	sorted := slices.Clone(elements)
	SortElements(sorted)

	f, err := newWorkbook(elementsSheet, elementHeaders, elementWidths)
	if err != nil {
		return err
	}
	defer f.Close()

	for i, e := range sorted {
		lowStock := "No"
		if e.LowStock() {
			lowStock = "Sí"
		}
		row := []any{
			e.Name, e.Category, e.ElementType, e.Unit, e.InitialQuantity, e.SuppliedQuantity,
			e.AvailableQuantity, lowStock, e.Location, formatDate(e.ExpirationDate), e.Description, e.Notes,
		}
		if err := setRow(f, elementsSheet, i+2, row); err != nil {
			return err
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("writing elements workbook: %w", err)
	}
	return nil
}

// WriteOrders writes one row per order line, keeping the given order of
// orders and each order's line order.
func WriteOrders(w io.Writer, orders []model.Order) error {
	f, err := newWorkbook(ordersSheet, orderHeaders, orderWidths)
	if err != nil {
		return err
	}
	defer f.Close()

	row := 2
	for _, o := range orders {
		date := o.OrderDate
		for _, l := range o.Lines {
			values := []any{
				o.ID, o.Client, formatDate(&date), o.Status, l.ElementName, l.Unit, l.Quantity, o.Notes,
			}
			if err := setRow(f, ordersSheet, row, values); err != nil {
				return err
			}
			row++
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("writing orders workbook: %w", err)
	}
	return nil
}

// newWorkbook creates a workbook with a single sheet and a styled header row.
func newWorkbook(sheet string, headers []string, widths []float64) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		f.Close()
		return nil, fmt.Errorf("naming sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 11},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#D9E1F2"}},
		Border: []excelize.Border{
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("creating header style: %w", err)
	}

	if err := writeHeader(f, sheet, headers, widths, headerStyle); err != nil {
		f.Close()
		return nil, err
	}
	return f, nil
}

// writeHeader fills row 1 with styled headers and sets the column widths.
func writeHeader(f *excelize.File, sheet string, headers []string, widths []float64, style int) error {
	for i, h := range headers {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return fmt.Errorf("naming column %d: %w", i+1, err)
		}
		cell := col + "1"
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return fmt.Errorf("writing header %q: %w", h, err)
		}
		if err := f.SetCellStyle(sheet, cell, cell, style); err != nil {
			return fmt.Errorf("styling header %q: %w", h, err)
		}
		if i < len(widths) {
			if err := f.SetColWidth(sheet, col, col, widths[i]); err != nil {
				return fmt.Errorf("sizing column %s: %w", col, err)
			}
		}
	}
	return nil
}

func setRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("writing row %d: %w", row, err)
	}
	return nil
}

func formatDate(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.Format(dateLayout)
}
