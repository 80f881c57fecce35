package report

import (
	"fmt"
	"sort"
	"time"
)

// Period — скользящее окно агрегации, заканчивающееся в момент вызова.
type Period string

const (
	Period24h Period = "24h"
	Period7d  Period = "7d"
	Period30d Period = "30d"
)

// ParsePeriod проверяет строковое значение периода.
func ParsePeriod(s string) (Period, error) {
	switch Period(s) {
	case Period24h, Period7d, Period30d:
		return Period(s), nil
	default:
		return "", fmt.Errorf("período inválido: %q", s)
	}
}

// Duration возвращает длительность окна. Окна измеряются в
// миллисекундах от момента вычисления, без выравнивания по календарю.
func (p Period) Duration() time.Duration {
	switch p {
	case Period24h:
		return 24 * time.Hour
	case Period7d:
		return 7 * 24 * time.Hour
	default:
		return 30 * 24 * time.Hour
	}
}

// Series — пара параллельных последовательностей, готовая для графика.
type Series struct {
	Labels []string `json:"labels"`
	Data   []int    `json:"data"`
}

// SalesByPeriod суммирует проданные единицы по календарным дням внутри
// окна периода. Ключ бакета — день локального времени строки в формате
// YYYY-MM-DD; метки — только наблюдаемые дни, отсортированные
// лексикографически (для этого формата — хронологически), дни без
// продаж не дозаполняются нулями.
func SalesByPeriod(rows []Row, p Period, now time.Time) Series {
	from := now.UnixMilli() - p.Duration().Milliseconds()

	buckets := make(map[string]int)
	for _, r := range rows {
		if r.TS < from {
			continue
		}
		key := time.UnixMilli(r.TS).Format("2006-01-02")
		buckets[key] += r.Cantidad
	}

	labels := make([]string, 0, len(buckets))
	for k := range buckets {
		labels = append(labels, k)
	}
	sort.Strings(labels)

	data := make([]int, len(labels))
	for i, k := range labels {
		data[i] = buckets[k]
	}
	return Series{Labels: labels, Data: data}
}

// TopProducts группирует строки по точному имени товара, суммирует
// количество и возвращает первые n групп по убыванию суммы. При равных
// суммах порядок детерминируется вторичным ключом — именем товара по
// возрастанию.
func TopProducts(rows []Row, n int) Series {
	sums := make(map[string]int)
	for _, r := range rows {
		sums[r.Producto] += r.Cantidad
	}

	type entry struct {
		name string
		qty  int
	}
	entries := make([]entry, 0, len(sums))
	for name, qty := range sums {
		entries = append(entries, entry{name, qty})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].qty != entries[j].qty {
			return entries[i].qty > entries[j].qty
		}
		return entries[i].name < entries[j].name
	})

	if n > len(entries) {
		n = len(entries)
	}
	if n < 0 {
		n = 0
	}

	s := Series{Labels: make([]string, n), Data: make([]int, n)}
	for i := 0; i < n; i++ {
		s.Labels[i] = entries[i].name
		s.Data[i] = entries[i].qty
	}
	return s
}
