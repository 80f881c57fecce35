package report

import (
	"context"
	"strconv"
	"strings"
)

// PlaceholderProducto подставляется, когда у позиции нет имени товара
// ни под каноническим, ни под устаревшим ключом.
const PlaceholderProducto = "Producto"

// Row — одна развёрнутая, готовая к отображению строка отчёта,
// полученная из одной позиции заказа. Строки неизменяемы после
// создания; итоги по строке считаются при разворачивании и больше
// не пересчитываются.
type Row struct {
	OrderID   string   `json:"orderId"`
	TS        int64    `json:"ts"`
	Usuario   string   `json:"usuario"`
	Producto  string   `json:"producto"`
	Categoria string   `json:"categoria"`
	Cantidad  int      `json:"cantidad"`
	PrecioARS float64  `json:"precioARS"`
	PrecioUSD *float64 `json:"precioUSD,omitempty"`
	TotalARS  float64  `json:"totalItemARS"`
	TotalUSD  *float64 `json:"totalItemUSD,omitempty"`
}

// Flatten разворачивает документ заказа в ноль или более строк отчёта:
// по одной строке на позицию. Заказ без позиций даёт ноль строк — это
// не ошибка. Поля товара резолвятся здесь один раз; дальше по конвейеру
// видна только нормализованная форма Row.
func Flatten(ctx context.Context, ord Order, names *NameResolver) []Row {
	if len(ord.Items) == 0 {
		return nil
	}

	usuario := names.Resolve(ctx, ord.UserID)

	rows := make([]Row, 0, len(ord.Items))
	for _, it := range ord.Items {
		p := it.Producto

		// Каноническое поле предпочтительнее устаревшего алиаса.
		nombre := firstNonEmpty(p.Name, p.Nombre, PlaceholderProducto)
		categoria := firstNonEmpty(p.Category, p.Categoria, "")

		precio := p.PriceARS
		if precio == nil {
			precio = p.Precio
		}
		precioARS := coerceNumber(precio)

		row := Row{
			OrderID:   ord.ID,
			TS:        ord.TS,
			Usuario:   usuario,
			Producto:  nombre,
			Categoria: categoria,
			Cantidad:  it.Cantidad,
			PrecioARS: precioARS,
			TotalARS:  float64(it.Cantidad) * precioARS,
		}

		// Цена в USD попадает в строку только если она строго больше
		// нуля; отсутствие означает «неизвестно», а не ноль.
		if usd := coerceNumber(p.PriceUSD); usd > 0 {
			total := float64(it.Cantidad) * usd
			row.PrecioUSD = &usd
			row.TotalUSD = &total
		}

		rows = append(rows, row)
	}
	return rows
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

// coerceNumber приводит разнородное значение цены к числу. Нечисловые
// и отсутствующие значения дают ноль — некорректный документ не должен
// валить разворачивание.
func coerceNumber(v any) float64 {
	switch n := v.(type) {
	case nil:
		return 0
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int32:
		return float64(n)
	case int64:
		return float64(n)
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}
