package aggregate

import (
	"math"
	"reflect"
	"testing"

	"github.com/pias-analytics/pias-backend/internal/domain"
)

// fixture returns a small augmented table with hand-set derived fields.
func fixture() []domain.Product {
	return []domain.Product{
		{
			Name: "Drill", Category: "Tools", Stock: 2, MonthlySales: 30,
			AnnualSales: 360, UnitCost: 10, Turnover: 9, DaysOfSupply: 2,
			InventoryValue: 20, EOQ: 55, ReorderPoint: 59, ABCClass: "A",
			Status: domain.StatusCritical, PriorityScore: 98.2,
		},
		{
			Name: "Hammer", Category: "Tools", Stock: 8, MonthlySales: 10,
			AnnualSales: 120, UnitCost: 5, Turnover: 15, DaysOfSupply: 24,
			InventoryValue: 40, EOQ: 31, ReorderPoint: 19.67, ABCClass: "B",
			Status: domain.StatusLow, PriorityScore: 33.4,
		},
		{
			Name: "Ladder", Category: "Equipment", Stock: 40, MonthlySales: 12,
			AnnualSales: 144, UnitCost: 50, Turnover: 3.6, DaysOfSupply: 100,
			InventoryValue: 2000, EOQ: 34, ReorderPoint: 23.6, ABCClass: "A",
			Status: domain.StatusHealthy, PriorityScore: 3.6,
		},
		{
			Name: "Anvil", Category: "Equipment", Stock: 500, MonthlySales: 1,
			AnnualSales: 12, UnitCost: 30, Turnover: 0.024, DaysOfSupply: 15000,
			InventoryValue: 15000, EOQ: 10, ReorderPoint: 1.97, ABCClass: "C",
			Status: domain.StatusExcess, PriorityScore: -5959.7,
		},
	}
}

func TestSummary(t *testing.T) {
	s := Summary(fixture())

	if s.TotalProducts != 4 {
		t.Errorf("TotalProducts = %d, want 4", s.TotalProducts)
	}
	if s.CriticalAlerts != 1 || s.EmergencyStock != 1 {
		t.Errorf("critical = %d/%d, want 1/1", s.CriticalAlerts, s.EmergencyStock)
	}
	if s.LowStock != 1 || s.HealthyStock != 1 || s.ExcessStock != 1 {
		t.Errorf("status counts = %d/%d/%d", s.LowStock, s.HealthyStock, s.ExcessStock)
	}
	if s.TotalInventoryValue != 17060 {
		t.Errorf("TotalInventoryValue = %v, want 17060", s.TotalInventoryValue)
	}
	if s.TotalAnnualSales != 636 {
		t.Errorf("TotalAnnualSales = %v, want 636", s.TotalAnnualSales)
	}
	// (9+15+3.6+0.024)/4 = 6.906 -> 6.91
	if s.AverageTurnover != 6.91 {
		t.Errorf("AverageTurnover = %v, want 6.91", s.AverageTurnover)
	}
	// healthy + normal = 1 of 4
	if s.InventoryHealth != 25 {
		t.Errorf("InventoryHealth = %v, want 25", s.InventoryHealth)
	}
	// median of {2, 24, 100, 15000} = 62
	if s.AvgDaysSupply != 62 {
		t.Errorf("AvgDaysSupply = %v, want 62", s.AvgDaysSupply)
	}
	if s.ServiceLevel != 75 {
		t.Errorf("ServiceLevel = %v, want 75", s.ServiceLevel)
	}
	// Anvil only: DoS 15000 > 180
	if s.ObsoleteItems != 1 || s.ObsoleteValue != 15000 {
		t.Errorf("obsolete = %d/%v, want 1/15000", s.ObsoleteItems, s.ObsoleteValue)
	}
	if s.StockoutRisk != 25 {
		t.Errorf("StockoutRisk = %v, want 25", s.StockoutRisk)
	}

	a := s.ABCBreakdown["A"]
	if a.ProductCount != 2 || a.InventoryValue != 2020 {
		t.Errorf("A bucket = %+v", a)
	}
}

func TestSummaryEmpty(t *testing.T) {
	s := Summary(nil)
	if s.TotalProducts != 0 || s.AverageTurnover != 0 {
		t.Errorf("empty summary = %+v", s)
	}
}

func TestPriorityReorders(t *testing.T) {
	items := PriorityReorders(fixture(), 0)

	// Drill (CRITICAL), Hammer (LOW). Ladder and Anvil match nothing.
	if len(items) != 2 {
		t.Fatalf("got %d items, want 2: %+v", len(items), items)
	}
	if items[0].Product != "Drill" || items[1].Product != "Hammer" {
		t.Errorf("order = %s, %s; want Drill, Hammer", items[0].Product, items[1].Product)
	}

	drill := items[0]
	// max(EOQ 55, ReorderPoint-Stock 57, 2 months 60) = 60
	if drill.SuggestedOrder != 60 {
		t.Errorf("SuggestedOrder = %d, want 60", drill.SuggestedOrder)
	}
	if drill.EstimatedCost != 600 {
		t.Errorf("EstimatedCost = %v, want 600", drill.EstimatedCost)
	}
	if drill.Urgency != "CRITICAL" {
		t.Errorf("Urgency = %s, want CRITICAL", drill.Urgency)
	}

	// Urgency comes from days of supply only, so a LOW item can carry a
	// MEDIUM urgency.
	if items[1].Status != "LOW" || items[1].Urgency != "MEDIUM" {
		t.Errorf("Hammer = %s/%s, want LOW/MEDIUM", items[1].Status, items[1].Urgency)
	}
}

func TestPriorityReordersDaysOnlyCandidate(t *testing.T) {
	products := []domain.Product{
		{Name: "Soon", Status: domain.StatusNormal, DaysOfSupply: 28, PriorityScore: 5, MonthlySales: 3},
	}
	items := PriorityReorders(products, 10)
	if len(items) != 1 || items[0].Product != "Soon" {
		t.Fatalf("DoS<=30 candidate not selected: %+v", items)
	}
}

func TestPriorityReordersLimit(t *testing.T) {
	var products []domain.Product
	for i := 0; i < 30; i++ {
		products = append(products, domain.Product{
			Name: "P", Status: domain.StatusCritical, PriorityScore: float64(i),
		})
	}
	if got := len(PriorityReorders(products, 0)); got != DefaultReorderLimit {
		t.Errorf("default limit = %d, want %d", got, DefaultReorderLimit)
	}
	if got := len(PriorityReorders(products, 5)); got != 5 {
		t.Errorf("explicit limit = %d, want 5", got)
	}
}

func TestCategoryPerformance(t *testing.T) {
	stats := CategoryPerformance(fixture())
	if len(stats) != 2 {
		t.Fatalf("got %d categories, want 2", len(stats))
	}
	// Tools 40 monthly sales > Equipment 13
	if stats[0].Category != "Tools" || stats[1].Category != "Equipment" {
		t.Errorf("order = %s, %s; want Tools, Equipment", stats[0].Category, stats[1].Category)
	}
	tools := stats[0]
	if tools.TotalSales != 40 || tools.ProductCount != 2 || tools.TotalStock != 10 {
		t.Errorf("tools = %+v", tools)
	}
	if tools.AvgTurnover != 12 {
		t.Errorf("tools AvgTurnover = %v, want 12", tools.AvgTurnover)
	}
	// median of {2, 24}
	if tools.AvgDaysSupply != 13 {
		t.Errorf("tools AvgDaysSupply = %v, want 13", tools.AvgDaysSupply)
	}
}

func TestMovers(t *testing.T) {
	report := Movers(fixture())

	// Turnovers sorted: 0.024, 3.6, 9, 15. q75 = 10.5, q25 = 2.706.
	if report.Thresholds.FastMover != 10.5 {
		t.Errorf("fast threshold = %v, want 10.5", report.Thresholds.FastMover)
	}
	if report.Thresholds.SlowMover != 2.71 {
		t.Errorf("slow threshold = %v, want 2.71", report.Thresholds.SlowMover)
	}

	if report.FastMoversCount != 1 || len(report.FastMovers) != 1 {
		t.Fatalf("fast movers = %d/%d, want 1/1", report.FastMoversCount, len(report.FastMovers))
	}
	if report.FastMovers[0].Name != "Hammer" {
		t.Errorf("fast mover = %s, want Hammer", report.FastMovers[0].Name)
	}
	if report.SlowMoversCount != 1 || report.SlowMovers[0].Name != "Anvil" {
		t.Errorf("slow movers = %+v", report.SlowMovers)
	}
}

func TestMoversPresentationOrder(t *testing.T) {
	// All identical turnover: everyone is in both cohorts; lists come back
	// in priority order.
	products := []domain.Product{
		{Name: "Mid", Turnover: 2, PriorityScore: 10},
		{Name: "Top", Turnover: 2, PriorityScore: 50},
		{Name: "Bottom", Turnover: 2, PriorityScore: 1},
	}
	report := Movers(products)
	if len(report.FastMovers) != 3 {
		t.Fatalf("fast movers = %d, want 3", len(report.FastMovers))
	}
	names := []string{report.FastMovers[0].Name, report.FastMovers[1].Name, report.FastMovers[2].Name}
	if !reflect.DeepEqual(names, []string{"Top", "Mid", "Bottom"}) {
		t.Errorf("fast order = %v", names)
	}
}

func TestOptions(t *testing.T) {
	opts := Options(fixture())
	wantCategories := []string{"All Categories", "Equipment", "Tools"}
	if !reflect.DeepEqual(opts.Categories, wantCategories) {
		t.Errorf("categories = %v, want %v", opts.Categories, wantCategories)
	}
	if opts.Statuses[0] != "All" || len(opts.Statuses) != 5 {
		t.Errorf("statuses = %v", opts.Statuses)
	}
	if len(opts.TurnoverRanges) != 4 || opts.TurnoverRanges[1] != "High (>6x)" {
		t.Errorf("turnover ranges = %v", opts.TurnoverRanges)
	}
}

func TestFilter(t *testing.T) {
	products := fixture()

	tests := []struct {
		name     string
		criteria domain.FilterCriteria
		want     []string
	}{
		{"no criteria returns all by priority", domain.FilterCriteria{},
			[]string{"Drill", "Hammer", "Ladder", "Anvil"}},
		{"category", domain.FilterCriteria{Category: "Tools"}, []string{"Drill", "Hammer"}},
		{"all categories placeholder", domain.FilterCriteria{Category: "All Categories"},
			[]string{"Drill", "Hammer", "Ladder", "Anvil"}},
		{"canonical status", domain.FilterCriteria{Status: "CRITICAL"}, []string{"Drill"}},
		{"legacy status label", domain.FilterCriteria{Status: "Low Stock"}, []string{"Hammer"}},
		{"abc class", domain.FilterCriteria{ABCClass: "A"}, []string{"Drill", "Ladder"}},
		{"search case-insensitive", domain.FilterCriteria{Search: "ham"}, []string{"Hammer"}},
		{"conjunctive", domain.FilterCriteria{Category: "Equipment", ABCClass: "A"}, []string{"Ladder"}},
		{"unknown status ignored", domain.FilterCriteria{Status: "Weird"},
			[]string{"Drill", "Hammer", "Ladder", "Anvil"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Filter(products, tt.criteria)
			names := make([]string, len(got))
			for i, p := range got {
				names[i] = p.Name
			}
			if !reflect.DeepEqual(names, tt.want) {
				t.Errorf("Filter() = %v, want %v", names, tt.want)
			}
		})
	}
}

func TestFilterIdempotent(t *testing.T) {
	criteria := domain.FilterCriteria{Category: "Tools", Status: "critical"}
	once := Filter(fixture(), criteria)
	twice := Filter(once, criteria)
	if !reflect.DeepEqual(once, twice) {
		t.Errorf("filter not idempotent: %v vs %v", once, twice)
	}
}

func TestBuildInsights(t *testing.T) {
	insights := BuildInsights(fixture())

	if len(insights.Alerts) != 2 {
		t.Fatalf("alerts = %v, want critical + excess", insights.Alerts)
	}
	if insights.Alerts[0] != "1 items are critically low on stock" {
		t.Errorf("alert[0] = %q", insights.Alerts[0])
	}
	// Anvil's 15000 excess value, grouped thousands
	if insights.Alerts[1] != "$15,000 tied up in excess inventory" {
		t.Errorf("alert[1] = %q", insights.Alerts[1])
	}
	if len(insights.Recommendations) != 1 {
		t.Errorf("recommendations = %v", insights.Recommendations)
	}
	if len(insights.Risks) != 1 || insights.Risks[0] != "1 high-value A-class items are understocked" {
		t.Errorf("risks = %v", insights.Risks)
	}
	if insights.Opportunities == nil {
		t.Error("opportunities should be empty, not nil")
	}
}

func TestBuildInsightsQuiet(t *testing.T) {
	products := []domain.Product{
		{Name: "Fine", Status: domain.StatusNormal, Turnover: 4, ABCClass: "B"},
	}
	insights := BuildInsights(products)
	if len(insights.Alerts)+len(insights.Recommendations)+len(insights.Risks) != 0 {
		t.Errorf("quiet table produced insights: %+v", insights)
	}
}

func TestPercentile(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		q      float64
		want   float64
	}{
		{"empty", nil, 0.5, 0},
		{"single", []float64{7}, 0.75, 7},
		{"exact position", []float64{1, 2, 3, 4, 5}, 0.5, 3},
		{"interpolated", []float64{1, 2, 3, 4}, 0.75, 3.25},
		{"quartile", []float64{0.024, 3.6, 9, 15}, 0.25, 2.706},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := percentile(tt.values, tt.q); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("percentile(%v, %v) = %v, want %v", tt.values, tt.q, got, tt.want)
			}
		})
	}
}
