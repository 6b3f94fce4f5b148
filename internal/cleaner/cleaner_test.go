package cleaner

import (
	"errors"
	"math"
	"testing"

	"github.com/pias-analytics/pias-backend/internal/domain"
)

func testColumns() domain.ColumnMap {
	return domain.ColumnMap{
		domain.FieldName:     "product",
		domain.FieldCategory: "category",
		domain.FieldStock:    "stock",
		domain.FieldSales:    "sales",
		domain.FieldReorder:  "reorder",
		domain.FieldPrice:    "price",
	}
}

func testTable(rows [][]string) domain.RawTable {
	return domain.RawTable{
		Headers: []string{"product", "category", "stock", "sales", "reorder", "price"},
		Rows:    rows,
	}
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestCleanParsesAndNormalizes(t *testing.T) {
	table := testTable([][]string{
		{"Widget A", "Tools", "1,250", "40", "100", "9.99"},
		{"  Widget B  ", "Tools", "30", "12", "20", "4.50"},
	})

	products, err := Clean(table, testColumns())
	if err != nil {
		t.Fatalf("Clean() error = %v", err)
	}
	if len(products) != 2 {
		t.Fatalf("got %d products, want 2", len(products))
	}
	if products[0].Stock != 1250 {
		t.Errorf("comma-separated stock = %v, want 1250", products[0].Stock)
	}
	if products[1].Name != "Widget B" {
		t.Errorf("name not trimmed: %q", products[1].Name)
	}
	if products[1].Price != 4.50 {
		t.Errorf("price = %v, want 4.5", products[1].Price)
	}
}

func TestCleanNegativesBecomeAbsolute(t *testing.T) {
	table := testTable([][]string{
		{"Widget A", "Tools", "-50", "-10", "5", "2"},
		{"Widget B", "Tools", "20", "4", "5", "2"},
	})

	products, err := Clean(table, testColumns())
	if err != nil {
		t.Fatalf("Clean() error = %v", err)
	}
	if products[0].Stock != 50 || products[0].MonthlySales != 10 {
		t.Errorf("negatives not absolute: stock=%v sales=%v", products[0].Stock, products[0].MonthlySales)
	}
	for _, p := range products {
		if p.Stock < 0 || p.MonthlySales < 0 {
			t.Errorf("negative value survived cleaning: %+v", p)
		}
	}
}

func TestCleanFillPolicies(t *testing.T) {
	// Stock fills with column median, sales with column mean, reorder with
	// 20% of mean stock, price with column median.
	table := testTable([][]string{
		{"A", "Tools", "10", "2", "5", "1"},
		{"B", "Tools", "20", "4", "", "3"},
		{"C", "Tools", "30", "", "5", ""},
		{"D", "Tools", "", "6", "5", "5"},
	})

	products, err := Clean(table, testColumns())
	if err != nil {
		t.Fatalf("Clean() error = %v", err)
	}

	// median of {10,20,30} = 20
	if !almostEqual(products[3].Stock, 20) {
		t.Errorf("stock fill = %v, want 20", products[3].Stock)
	}
	// mean of {2,4,6} = 4
	if !almostEqual(products[2].MonthlySales, 4) {
		t.Errorf("sales fill = %v, want 4", products[2].MonthlySales)
	}
	// stock after fill = {10,20,30,20}, mean 20, reorder fill = 4
	if !almostEqual(products[1].Reorder, 4) {
		t.Errorf("reorder fill = %v, want 4", products[1].Reorder)
	}
	// median of {1,3,5} = 3
	if !almostEqual(products[2].Price, 3) {
		t.Errorf("price fill = %v, want 3", products[2].Price)
	}
}

func TestCleanFillFallbacks(t *testing.T) {
	// Entirely missing columns fall back to flat defaults: stock 0, sales 1.
	table := testTable([][]string{
		{"A", "Tools", "", "", "", ""},
		{"B", "Tools", "", "", "", ""},
	})

	products, err := Clean(table, testColumns())
	if err != nil {
		t.Fatalf("Clean() error = %v", err)
	}
	for _, p := range products {
		if p.Stock != 0 {
			t.Errorf("stock fallback = %v, want 0", p.Stock)
		}
		if p.MonthlySales != 1 {
			t.Errorf("sales fallback = %v, want 1", p.MonthlySales)
		}
	}
}

func TestCleanTextPlaceholders(t *testing.T) {
	table := domain.RawTable{
		Headers: []string{"product", "category", "supplier", "stock", "sales"},
		Rows: [][]string{
			{"", "nan", "  ", "10", "5"},
			{"Widget", "Tools", "Acme", "20", "8"},
		},
	}
	cols := domain.ColumnMap{
		domain.FieldName:     "product",
		domain.FieldCategory: "category",
		domain.FieldSupplier: "supplier",
		domain.FieldStock:    "stock",
		domain.FieldSales:    "sales",
	}

	products, err := Clean(table, cols)
	if err != nil {
		t.Fatalf("Clean() error = %v", err)
	}
	if products[0].Name != "Unknown Product" {
		t.Errorf("name placeholder = %q", products[0].Name)
	}
	if products[0].Category != "Uncategorized" {
		t.Errorf("category placeholder = %q", products[0].Category)
	}
	if products[0].Supplier != "Unknown Supplier" {
		t.Errorf("supplier placeholder = %q", products[0].Supplier)
	}
}

func TestCleanPrunesRowsWithoutSignal(t *testing.T) {
	// A row is dropped only when name, stock and sales are all missing in
	// the original data. Partial rows survive and get filled.
	table := testTable([][]string{
		{"Widget", "Tools", "10", "5", "3", "2"},
		{"", "Tools", "", "", "3", "2"},
		{"", "Tools", "15", "", "3", "2"},
	})

	products, err := Clean(table, testColumns())
	if err != nil {
		t.Fatalf("Clean() error = %v", err)
	}
	if len(products) != 2 {
		t.Fatalf("got %d products, want 2 (empty row pruned)", len(products))
	}
	if products[1].Name != "Unknown Product" {
		t.Errorf("partial row name = %q, want placeholder", products[1].Name)
	}
	if products[1].Stock != 15 {
		t.Errorf("partial row stock = %v, want 15", products[1].Stock)
	}
}

func TestCleanNoDataError(t *testing.T) {
	tests := []struct {
		name string
		rows [][]string
	}{
		{"empty table", nil},
		{"all rows unusable", [][]string{
			{"", "Tools", "", "", "", ""},
			{"nan", "Tools", "x", "y", "", ""},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Clean(testTable(tt.rows), testColumns())
			if !errors.Is(err, domain.ErrNoData) {
				t.Errorf("Clean() error = %v, want ErrNoData", err)
			}
		})
	}
}

func TestInspect(t *testing.T) {
	table := testTable([][]string{
		{"A", "Tools", "-5", "0", "3", "2"},
		{"B", "Tools", "10", "0", "", "2"},
		{"", "Tools", "0", "4", "3", "2"},
	})

	report := Inspect(table, testColumns())
	if report.TotalRows != 3 || report.TotalColumns != 6 {
		t.Fatalf("report shape = %d rows, %d cols", report.TotalRows, report.TotalColumns)
	}

	stock := report.ColumnAnalysis[domain.FieldStock]
	if stock == nil {
		t.Fatal("no stock analysis")
	}
	if stock.NegativeValues != 1 {
		t.Errorf("stock negatives = %d, want 1", stock.NegativeValues)
	}
	if stock.MinValue != -5 || stock.MaxValue != 10 {
		t.Errorf("stock range = [%v, %v], want [-5, 10]", stock.MinValue, stock.MaxValue)
	}

	// Sales is zero in 2 of 3 rows, above the 50% threshold.
	foundNegIssue, foundZeroIssue := false, false
	for _, issue := range report.DataIssues {
		switch issue {
		case "stock has 1 negative values":
			foundNegIssue = true
		case "sales has too many zero values (2)":
			foundZeroIssue = true
		}
	}
	if !foundNegIssue || !foundZeroIssue {
		t.Errorf("data issues = %v, want negative and zero flags", report.DataIssues)
	}

	name := report.ColumnAnalysis[domain.FieldName]
	if name.EmptyStrings != 1 {
		t.Errorf("name empty strings = %d, want 1", name.EmptyStrings)
	}
}
