package report

import (
	"strconv"
	"strings"
	"time"
)

// ExportFilename — предлагаемое имя файла для скачивания выгрузки.
const ExportFilename = "reporte-compras.csv"

const exportHeader = "fecha;usuario;producto;categoria;cantidad;precioARS;precioUSD;totalItemARS;totalItemUSD;orderId"

const exportTimeLayout = "02/01/2006 15:04:05"

// ExportCSV сериализует строки отчёта в текст с разделителем «;»:
// одна строка заголовка и по одной строке на Row, в фиксированном
// порядке колонок. Текстовые поля оборачиваются в кавычки с удвоением
// внутренних кавычек, числовые выводятся без кавычек с двумя знаками
// после запятой; отсутствующие значения в USD — пустые поля.
// Для одной и той же последовательности строк вывод побайтово идентичен.
func ExportCSV(rows []Row) string {
	var b strings.Builder
	b.WriteString(exportHeader)

	for _, r := range rows {
		b.WriteByte('\n')

		writeQuoted(&b, time.UnixMilli(r.TS).Format(exportTimeLayout))
		b.WriteByte(';')
		writeQuoted(&b, r.Usuario)
		b.WriteByte(';')
		writeQuoted(&b, r.Producto)
		b.WriteByte(';')
		writeQuoted(&b, r.Categoria)
		b.WriteByte(';')
		b.WriteString(strconv.Itoa(r.Cantidad))
		b.WriteByte(';')
		b.WriteString(formatAmount(r.PrecioARS))
		b.WriteByte(';')
		if r.PrecioUSD != nil {
			b.WriteString(formatAmount(*r.PrecioUSD))
		}
		b.WriteByte(';')
		b.WriteString(formatAmount(r.TotalARS))
		b.WriteByte(';')
		if r.TotalUSD != nil {
			b.WriteString(formatAmount(*r.TotalUSD))
		}
		b.WriteByte(';')
		writeQuoted(&b, r.OrderID)
	}

	return b.String()
}

func writeQuoted(b *strings.Builder, s string) {
	b.WriteByte('"')
	b.WriteString(strings.ReplaceAll(s, `"`, `""`))
	b.WriteByte('"')
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
