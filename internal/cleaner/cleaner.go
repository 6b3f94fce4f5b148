// Package cleaner repairs a resolved raw table into analyzable product rows:
// numeric coercion, field-specific fills for missing values, text
// normalization, and pruning of rows that carry no usable signal.
package cleaner

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/pias-analytics/pias-backend/internal/domain"
)

// Text placeholders for unusable values in each text field.
const (
	unknownProduct  = "Unknown Product"
	uncategorized   = "Uncategorized"
	unknownSupplier = "Unknown Supplier"
)

// column holds one coerced numeric column plus the pre-fill missing mask.
// The mask is captured before any fill so row pruning still sees the
// original gaps.
type column struct {
	values  []float64
	missing []bool
}

// Clean coerces, repairs and prunes the raw table into product rows. The
// input table is never mutated. Returns domain.ErrNoData when no row
// survives.
func Clean(table domain.RawTable, cols domain.ColumnMap) ([]domain.Product, error) {
	idx := headerIndex(table.Headers)
	n := len(table.Rows)

	numeric := make(map[domain.Field]column, len(domain.NumericFields))
	for _, field := range domain.NumericFields {
		pos, ok := columnPos(idx, cols, field)
		if !ok {
			continue
		}
		numeric[field] = coerceNumeric(table.Rows, pos, n)
	}

	// Negative stock and sales are data-entry artifacts, not missing data.
	for _, field := range []domain.Field{domain.FieldStock, domain.FieldSales} {
		col, ok := numeric[field]
		if !ok {
			continue
		}
		for i := range col.values {
			if !col.missing[i] && col.values[i] < 0 {
				col.values[i] = math.Abs(col.values[i])
			}
		}
	}

	// Fill order matters: reorder's fallback reads the already-filled stock
	// column.
	fillColumn(numeric, domain.FieldStock, func(c column) float64 {
		return medianOr(c, 0)
	})
	fillColumn(numeric, domain.FieldSales, func(c column) float64 {
		return meanOr(c, 1)
	})
	fillColumn(numeric, domain.FieldReorder, func(column) float64 {
		if stock, ok := numeric[domain.FieldStock]; ok {
			return mean(stock.values) * 0.2
		}
		return 10
	})
	fillColumn(numeric, domain.FieldPrice, func(c column) float64 {
		return medianOr(c, 0)
	})
	fillColumn(numeric, domain.FieldTurnover, func(c column) float64 {
		return medianOr(c, 0)
	})

	text := make(map[domain.Field][]string, len(domain.TextFields))
	textMissing := make(map[domain.Field][]bool, len(domain.TextFields))
	placeholders := map[domain.Field]string{
		domain.FieldName:     unknownProduct,
		domain.FieldCategory: uncategorized,
		domain.FieldSupplier: unknownSupplier,
	}
	for _, field := range domain.TextFields {
		pos, ok := columnPos(idx, cols, field)
		if !ok {
			continue
		}
		values := make([]string, n)
		missing := make([]bool, n)
		for i, row := range table.Rows {
			v := strings.TrimSpace(cell(row, pos))
			if v == "" || strings.EqualFold(v, "nan") {
				missing[i] = true
				v = placeholders[field]
			}
			values[i] = v
		}
		text[field] = values
		textMissing[field] = missing
	}

	keep := usableRows(n, numeric, textMissing, cols)

	var products []domain.Product
	for i := 0; i < n; i++ {
		if !keep[i] {
			continue
		}
		p := domain.Product{
			Name:     textAt(text, domain.FieldName, i),
			Category: textAt(text, domain.FieldCategory, i),
			Supplier: textAt(text, domain.FieldSupplier, i),

			Stock:          numericAt(numeric, domain.FieldStock, i),
			MonthlySales:   numericAt(numeric, domain.FieldSales, i),
			Reorder:        numericAt(numeric, domain.FieldReorder, i),
			Price:          numericAt(numeric, domain.FieldPrice, i),
			SourceTurnover: numericAt(numeric, domain.FieldTurnover, i),
		}
		// Lead time and max stock are carried through when present but get
		// no fill policy.
		if pos, ok := columnPos(idx, cols, domain.FieldLeadTime); ok {
			p.LeadTime, _ = parseNumber(cell(table.Rows[i], pos))
		}
		if pos, ok := columnPos(idx, cols, domain.FieldMaxStock); ok {
			p.MaxStock, _ = parseNumber(cell(table.Rows[i], pos))
		}
		products = append(products, p)
	}

	if len(products) == 0 {
		return nil, domain.ErrNoData
	}
	return products, nil
}

// usableRows marks the rows to keep: a row is dropped only when every mapped
// critical field (name, stock, sales) was missing before any fill ran.
func usableRows(n int, numeric map[domain.Field]column, textMissing map[domain.Field][]bool, cols domain.ColumnMap) []bool {
	type mask struct{ missing []bool }
	var critical []mask
	if m, ok := textMissing[domain.FieldName]; ok {
		critical = append(critical, mask{m})
	}
	for _, field := range []domain.Field{domain.FieldStock, domain.FieldSales} {
		if col, ok := numeric[field]; ok {
			critical = append(critical, mask{col.missing})
		}
	}

	keep := make([]bool, n)
	for i := range keep {
		if len(critical) == 0 {
			keep[i] = true
			continue
		}
		for _, c := range critical {
			if !c.missing[i] {
				keep[i] = true
				break
			}
		}
	}
	return keep
}

func headerIndex(headers []string) map[string]int {
	idx := make(map[string]int, len(headers))
	for i, h := range headers {
		if _, seen := idx[h]; !seen {
			idx[h] = i
		}
	}
	return idx
}

func columnPos(idx map[string]int, cols domain.ColumnMap, field domain.Field) (int, bool) {
	if !cols.Has(field) {
		return 0, false
	}
	pos, ok := idx[cols[field]]
	return pos, ok
}

func cell(row []string, pos int) string {
	if pos < 0 || pos >= len(row) {
		return ""
	}
	return row[pos]
}

func coerceNumeric(rows [][]string, pos, n int) column {
	col := column{values: make([]float64, n), missing: make([]bool, n)}
	for i, row := range rows {
		v, ok := parseNumber(cell(row, pos))
		if !ok {
			col.missing[i] = true
			continue
		}
		col.values[i] = v
	}
	return col
}

// parseNumber parses a spreadsheet cell as a float, tolerating thousands
// separators and surrounding whitespace.
func parseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "nan") {
		return 0, false
	}
	s = strings.ReplaceAll(s, ",", "")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func fillColumn(numeric map[domain.Field]column, field domain.Field, fallback func(column) float64) {
	col, ok := numeric[field]
	if !ok {
		return
	}
	var fill float64
	filled := false
	for i := range col.values {
		if !col.missing[i] {
			continue
		}
		if !filled {
			fill = fallback(col)
			filled = true
		}
		col.values[i] = fill
	}
}

func present(c column) []float64 {
	var out []float64
	for i, v := range c.values {
		if !c.missing[i] {
			out = append(out, v)
		}
	}
	return out
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func meanOr(c column, fallback float64) float64 {
	vals := present(c)
	if len(vals) == 0 {
		return fallback
	}
	return mean(vals)
}

func median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}

func medianOr(c column, fallback float64) float64 {
	vals := present(c)
	if len(vals) == 0 {
		return fallback
	}
	return median(vals)
}

func textAt(text map[domain.Field][]string, field domain.Field, i int) string {
	if values, ok := text[field]; ok {
		return values[i]
	}
	return ""
}

func numericAt(numeric map[domain.Field]column, field domain.Field, i int) float64 {
	if col, ok := numeric[field]; ok {
		return col.values[i]
	}
	return 0
}
