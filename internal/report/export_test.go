package report

import (
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestExportCSVLayout(t *testing.T) {
	usd := 2.5
	totalUSD := 5.0
	ts := time.Date(2026, 8, 18, 9, 30, 15, 0, time.Local).UnixMilli()

	rows := []Row{
		{
			OrderID:   "ord-1",
			TS:        ts,
			Usuario:   "Ana",
			Producto:  "Mate",
			Categoria: "Bebidas",
			Cantidad:  2,
			PrecioARS: 1500,
			PrecioUSD: &usd,
			TotalARS:  3000,
			TotalUSD:  &totalUSD,
		},
		{
			OrderID:   "ord-2",
			TS:        ts,
			Usuario:   "Beto",
			Producto:  "Yerba",
			Categoria: "",
			Cantidad:  1,
			PrecioARS: 300.5,
			TotalARS:  300.5,
		},
	}

	out := ExportCSV(rows)
	lines := strings.Split(out, "\n")

	assert.Len(t, lines, 3)
	assert.Equal(t, "fecha;usuario;producto;categoria;cantidad;precioARS;precioUSD;totalItemARS;totalItemUSD;orderId", lines[0])
	assert.Equal(t, `"18/08/2026 09:30:15";"Ana";"Mate";"Bebidas";2;1500.00;2.50;3000.00;5.00;"ord-1"`, lines[1])
	// USD ausente queda como campo vacío, no como cero.
	assert.Equal(t, `"18/08/2026 09:30:15";"Beto";"Yerba";"";1;300.50;;300.50;;"ord-2"`, lines[2])
}

func TestExportCSVQuoteEscapingRoundTrip(t *testing.T) {
	rows := []Row{
		{
			OrderID:   "ord-9",
			TS:        time.Date(2026, 1, 2, 3, 4, 5, 0, time.Local).UnixMilli(),
			Usuario:   `Juan "el Tano"`,
			Producto:  `Widget "Pro"`,
			Categoria: "Gadgets;raros",
			Cantidad:  1,
			PrecioARS: 10,
			TotalARS:  10,
		},
	}

	out := ExportCSV(rows)
	assert.Contains(t, out, `"Widget ""Pro"""`)

	// Un lector estándar con el mismo delimitador reproduce el valor original.
	r := csv.NewReader(strings.NewReader(out))
	r.Comma = ';'
	records, err := r.ReadAll()
	assert.NoError(t, err)
	assert.Len(t, records, 2)
	assert.Equal(t, `Widget "Pro"`, records[1][2])
	assert.Equal(t, `Juan "el Tano"`, records[1][1])
	assert.Equal(t, "Gadgets;raros", records[1][3])
}

func TestExportCSVDeterministic(t *testing.T) {
	rows := []Row{
		{OrderID: "a", TS: 1700000000000, Usuario: "u", Producto: "p", Cantidad: 1, PrecioARS: 1, TotalARS: 1},
		{OrderID: "b", TS: 1700000100000, Usuario: "u", Producto: "q", Cantidad: 2, PrecioARS: 2, TotalARS: 4},
	}

	assert.Equal(t, ExportCSV(rows), ExportCSV(rows))
}

func TestExportCSVEmptyRows(t *testing.T) {
	out := ExportCSV(nil)
	assert.Equal(t, "fecha;usuario;producto;categoria;cantidad;precioARS;precioUSD;totalItemARS;totalItemUSD;orderId", out)
}
