package report

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func rowAt(ts time.Time, producto string, cantidad int) Row {
	return Row{TS: ts.UnixMilli(), Producto: producto, Cantidad: cantidad}
}

func TestSalesByPeriodWindows(t *testing.T) {
	now := time.Now()
	rows := []Row{
		rowAt(now.Add(-1*time.Hour), "A", 1),
		rowAt(now.Add(-2*24*time.Hour), "B", 2),
		rowAt(now.Add(-10*24*time.Hour), "C", 4),
	}

	sum := func(s Series) int {
		total := 0
		for _, v := range s.Data {
			total += v
		}
		return total
	}

	assert.Equal(t, 1, sum(SalesByPeriod(rows, Period24h, now)))
	assert.Equal(t, 3, sum(SalesByPeriod(rows, Period7d, now)))
	assert.Equal(t, 7, sum(SalesByPeriod(rows, Period30d, now)))
}

func TestSalesByPeriodBucketsByLocalDay(t *testing.T) {
	now := time.Date(2026, 8, 20, 15, 0, 0, 0, time.Local)
	day1 := time.Date(2026, 8, 18, 9, 30, 0, 0, time.Local)
	day2 := time.Date(2026, 8, 19, 23, 59, 0, 0, time.Local)

	rows := []Row{
		rowAt(day2, "A", 1),
		rowAt(day1, "A", 2),
		rowAt(day1, "B", 3),
	}

	s := SalesByPeriod(rows, Period7d, now)

	// Sólo días observados, ordenados ascendente, claves YYYY-MM-DD.
	assert.Equal(t, []string{"2026-08-18", "2026-08-19"}, s.Labels)
	assert.Equal(t, []int{5, 1}, s.Data)
}

func TestSalesByPeriodExcludesRowsBeforeWindow(t *testing.T) {
	now := time.Now()
	rows := []Row{rowAt(now.Add(-25*time.Hour), "A", 10)}

	s := SalesByPeriod(rows, Period24h, now)
	assert.Empty(t, s.Labels)
	assert.Empty(t, s.Data)
}

func TestTopProductsRanking(t *testing.T) {
	rows := []Row{
		{Producto: "A", Cantidad: 3},
		{Producto: "B", Cantidad: 5},
		{Producto: "C", Cantidad: 1},
		{Producto: "A", Cantidad: 1},
	}

	s := TopProducts(rows, 2)
	assert.Equal(t, []string{"B", "A"}, s.Labels)
	assert.Equal(t, []int{5, 4}, s.Data)
}

func TestTopProductsTieBreakByName(t *testing.T) {
	rows := []Row{
		{Producto: "A", Cantidad: 3},
		{Producto: "B", Cantidad: 5},
		{Producto: "A", Cantidad: 2},
	}

	// A y B suman 5 cada uno; el desempate es por nombre ascendente.
	s := TopProducts(rows, 2)
	assert.Equal(t, []string{"A", "B"}, s.Labels)
	assert.Equal(t, []int{5, 5}, s.Data)
}

func TestTopProductsTruncatesToN(t *testing.T) {
	rows := []Row{
		{Producto: "A", Cantidad: 1},
		{Producto: "B", Cantidad: 2},
	}

	assert.Len(t, TopProducts(rows, 1).Labels, 1)
	assert.Len(t, TopProducts(rows, 10).Labels, 2)
	assert.Empty(t, TopProducts(rows, 0).Labels)
}

func TestParsePeriod(t *testing.T) {
	for _, ok := range []string{"24h", "7d", "30d"} {
		p, err := ParsePeriod(ok)
		assert.NoError(t, err)
		assert.Equal(t, Period(ok), p)
	}

	_, err := ParsePeriod("90d")
	assert.Error(t, err)
}
