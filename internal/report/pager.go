package report

import "context"

// PageCursor — непрозрачный токен продолжения, который выдаёт хранилище
// заказов. Пустое значение означает, что дальнейших страниц нет.
type PageCursor string

// ProductSnapshot — снимок товара внутри позиции заказа. Документы
// в хранилище разнородны: каждое поле может прийти под каноническим
// (английским) или устаревшим локализованным именем. Цены хранятся
// как произвольные числовые значения и приводятся при разворачивании.
type ProductSnapshot struct {
	Name      string `bson:"name,omitempty" json:"name,omitempty"`
	Nombre    string `bson:"nombre,omitempty" json:"nombre,omitempty"`
	Category  string `bson:"category,omitempty" json:"category,omitempty"`
	Categoria string `bson:"categoria,omitempty" json:"categoria,omitempty"`
	PriceARS  any    `bson:"priceARS,omitempty" json:"priceARS,omitempty"`
	Precio    any    `bson:"precio,omitempty" json:"precio,omitempty"`
	PriceUSD  any    `bson:"priceUSD,omitempty" json:"priceUSD,omitempty"`
}

// LineItem — одна позиция заказа: товар и количество.
type LineItem struct {
	Cantidad int             `bson:"cantidad" json:"cantidad"`
	Producto ProductSnapshot `bson:"producto" json:"producto"`
}

// Order — сырой документ заказа из хранилища. TS — миллисекунды с эпохи;
// именно TS определяет порядок и бакетирование, человекочитаемое поле
// fecha игнорируется.
type Order struct {
	ID     string     `json:"id"`
	UserID string     `json:"userId"`
	TS     int64      `json:"ts"`
	Items  []LineItem `json:"items"`
}

// Page — результат одной выборки из хранилища заказов.
type Page struct {
	Orders []Order
	// Next пуст, когда хранилище вернуло меньше pageSize документов.
	Next PageCursor
}

// OrderPager постранично выбирает заказы, упорядоченные по убыванию TS.
// Выборка от курсора продолжает строго после последнего документа
// предыдущей страницы, без дубликатов и пропусков.
type OrderPager interface {
	FetchPage(ctx context.Context, after PageCursor, pageSize int) (Page, error)
}

// UserDirectory — точечный поиск отображаемого имени пользователя.
type UserDirectory interface {
	DisplayName(ctx context.Context, userID string) (string, error)
}
