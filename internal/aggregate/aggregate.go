// Package aggregate rolls the augmented product table into dashboard views:
// KPI summary, prioritized reorder list, category performance, fast/slow
// movers, filtering and templated insights. Every function is a read-only
// view over its input.
package aggregate

import (
	"math"
	"sort"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/pias-analytics/pias-backend/internal/domain"
)

// DefaultReorderLimit caps the reorder list when the caller passes no limit.
const DefaultReorderLimit = 20

// Summary computes the executive KPI snapshot for the whole table.
func Summary(products []domain.Product) domain.KPISummary {
	total := len(products)
	s := domain.KPISummary{
		TotalProducts: total,
		ABCBreakdown:  make(map[string]domain.ABCBucket),
	}
	if total == 0 {
		return s
	}

	statusCounts := make(map[domain.StockStatus]int)
	var totalValue, totalAnnual, turnoverSum, weightedSum float64
	daysSupply := make([]float64, 0, total)

	for _, p := range products {
		statusCounts[p.Status]++
		totalValue += p.InventoryValue
		totalAnnual += p.AnnualSales
		turnoverSum += p.Turnover
		weightedSum += p.Turnover * p.InventoryValue
		daysSupply = append(daysSupply, p.DaysOfSupply)

		bucket := s.ABCBreakdown[p.ABCClass]
		bucket.InventoryValue += p.InventoryValue
		bucket.ProductCount++
		s.ABCBreakdown[p.ABCClass] = bucket

		if p.DaysOfSupply > 180 {
			s.ObsoleteItems++
			s.ObsoleteValue += p.InventoryValue
		}
	}

	critical := statusCounts[domain.StatusCritical]
	s.CriticalAlerts = critical
	s.EmergencyStock = critical
	s.LowStock = statusCounts[domain.StatusLow]
	s.HealthyStock = statusCounts[domain.StatusHealthy]
	s.ExcessStock = statusCounts[domain.StatusExcess]

	s.AverageTurnover = round2(turnoverSum / float64(total))
	if totalValue > 0 {
		s.WeightedTurnover = round2(weightedSum / totalValue)
		s.InventoryROI = round1(totalAnnual / totalValue * 100)
	}
	s.InventoryHealth = round1(float64(s.HealthyStock+statusCounts[domain.StatusNormal]) / float64(total) * 100)
	s.TotalInventoryValue = round2(totalValue)
	s.TotalAnnualSales = round2(totalAnnual)
	s.AvgDaysSupply = round1(median(daysSupply))
	s.ServiceLevel = round1(float64(total-critical) / float64(total) * 100)
	s.ObsoleteValue = round2(s.ObsoleteValue)
	s.StockoutRisk = round1(float64(critical) / float64(total) * 100)
	return s
}

// PriorityReorders picks the products needing replenishment, ranked by
// priority score. Candidates are CRITICAL/LOW items plus anything within 30
// days of stockout. A non-positive limit falls back to DefaultReorderLimit.
func PriorityReorders(products []domain.Product, limit int) []domain.ReorderItem {
	if limit <= 0 {
		limit = DefaultReorderLimit
	}

	var candidates []domain.Product
	for _, p := range products {
		if p.Status == domain.StatusCritical || p.Status == domain.StatusLow || p.DaysOfSupply <= 30 {
			candidates = append(candidates, p)
		}
	}
	sort.SliceStable(candidates, func(a, b int) bool {
		return candidates[a].PriorityScore > candidates[b].PriorityScore
	})
	if len(candidates) > limit {
		candidates = candidates[:limit]
	}

	items := make([]domain.ReorderItem, 0, len(candidates))
	for _, p := range candidates {
		// Never suggest less than two months of demand.
		qty := maxInt(int(p.EOQ), int(p.ReorderPoint-p.Stock), int(p.MonthlySales*2))
		items = append(items, domain.ReorderItem{
			Product:        p.Name,
			Category:       p.Category,
			CurrentStock:   int(p.Stock),
			ReorderPoint:   int(p.ReorderPoint),
			SuggestedOrder: qty,
			DaysOfSupply:   round1(p.DaysOfSupply),
			Urgency:        domain.UrgencyFor(p.DaysOfSupply),
			PriorityScore:  round1(p.PriorityScore),
			MonthlySales:   int(p.MonthlySales),
			TurnoverRate:   round2(p.Turnover),
			ABCClass:       p.ABCClass,
			EstimatedCost:  round2(float64(qty) * p.UnitCost),
			Status:         string(p.Status),
		})
	}
	return items
}

// CategoryPerformance groups the table by category, sorted by total sales
// descending.
func CategoryPerformance(products []domain.Product) []domain.CategoryStats {
	type acc struct {
		sales      float64
		turnover   float64
		value      float64
		stock      float64
		daysSupply []float64
		count      int
	}
	byCategory := make(map[string]*acc)
	for _, p := range products {
		a := byCategory[p.Category]
		if a == nil {
			a = &acc{}
			byCategory[p.Category] = a
		}
		a.sales += p.MonthlySales
		a.turnover += p.Turnover
		a.value += p.InventoryValue
		a.stock += p.Stock
		a.daysSupply = append(a.daysSupply, p.DaysOfSupply)
		a.count++
	}

	stats := make([]domain.CategoryStats, 0, len(byCategory))
	for category, a := range byCategory {
		stats = append(stats, domain.CategoryStats{
			Category:       category,
			TotalSales:     round2(a.sales),
			AvgSales:       round2(a.sales / float64(a.count)),
			ProductCount:   a.count,
			AvgTurnover:    round2(a.turnover / float64(a.count)),
			InventoryValue: round2(a.value),
			AvgDaysSupply:  round2(median(a.daysSupply)),
			TotalStock:     int(a.stock),
		})
	}
	sort.SliceStable(stats, func(a, b int) bool {
		return stats[a].TotalSales > stats[b].TotalSales
	})
	return stats
}

// Movers splits the table into fast and slow cohorts at the 75th/25th
// turnover percentiles. Fast membership keeps the 10 highest turnovers and
// slow the 10 lowest; both lists are then presented in priority order.
func Movers(products []domain.Product) domain.MoversReport {
	turnovers := make([]float64, len(products))
	for i, p := range products {
		turnovers[i] = p.Turnover
	}
	q75 := percentile(turnovers, 0.75)
	q25 := percentile(turnovers, 0.25)

	var fast, slow []domain.Product
	for _, p := range products {
		if p.Turnover >= q75 {
			fast = append(fast, p)
		}
		if p.Turnover <= q25 {
			slow = append(slow, p)
		}
	}

	report := domain.MoversReport{
		FastMoversCount: len(fast),
		SlowMoversCount: len(slow),
		Thresholds: domain.TurnoverThresholds{
			FastMover: round2(q75),
			SlowMover: round2(q25),
		},
	}

	fastTop := topBy(fast, 10, func(a, b domain.Product) bool { return a.Turnover > b.Turnover })
	slowBottom := topBy(slow, 10, func(a, b domain.Product) bool { return a.Turnover < b.Turnover })
	report.FastMovers = formatMovers(fastTop)
	report.SlowMovers = formatMovers(slowBottom)
	return report
}

func topBy(products []domain.Product, limit int, less func(a, b domain.Product) bool) []domain.Product {
	sorted := append([]domain.Product(nil), products...)
	sort.SliceStable(sorted, func(a, b int) bool { return less(sorted[a], sorted[b]) })
	if len(sorted) > limit {
		sorted = sorted[:limit]
	}
	return sorted
}

func formatMovers(products []domain.Product) []domain.MoverItem {
	byPriority := topBy(products, len(products), func(a, b domain.Product) bool {
		return a.PriorityScore > b.PriorityScore
	})
	items := make([]domain.MoverItem, 0, len(byPriority))
	for _, p := range byPriority {
		items = append(items, domain.MoverItem{
			Name:           p.Name,
			Category:       p.Category,
			Turnover:       round2(p.Turnover),
			Stock:          int(p.Stock),
			MonthlySales:   int(p.MonthlySales),
			DaysSupply:     round1(p.DaysOfSupply),
			InventoryValue: round2(p.InventoryValue),
			ABCClass:       p.ABCClass,
			Status:         string(p.Status),
			PriorityScore:  round1(p.PriorityScore),
		})
	}
	return items
}

// Options lists the filterable values present in the table plus the fixed
// descriptive range labels the dashboard renders as-is.
func Options(products []domain.Product) domain.FilterOptions {
	categories := make(map[string]struct{})
	statuses := make(map[string]struct{})
	classes := make(map[string]struct{})
	for _, p := range products {
		categories[p.Category] = struct{}{}
		statuses[string(p.Status)] = struct{}{}
		classes[p.ABCClass] = struct{}{}
	}
	return domain.FilterOptions{
		Categories:       append([]string{"All Categories"}, sortedKeys(categories)...),
		Statuses:         append([]string{"All"}, sortedKeys(statuses)...),
		ABCClasses:       append([]string{"All"}, sortedKeys(classes)...),
		TurnoverRanges:   []string{"All", "High (>6x)", "Medium (2-6x)", "Low (<2x)"},
		DaysSupplyRanges: []string{"All", "Critical (<15)", "Low (15-30)", "Normal (30-90)", "Excess (>90)"},
	}
}

// Filter applies the conjunctive criteria and returns matches sorted by
// priority score descending. Unknown status labels disable that criterion
// rather than matching nothing.
func Filter(products []domain.Product, criteria domain.FilterCriteria) []domain.Product {
	status, statusOK := domain.StockStatus(""), false
	if criteria.Status != "" && criteria.Status != "All" {
		status, statusOK = domain.ParseStockStatus(criteria.Status)
	}
	search := strings.ToLower(strings.TrimSpace(criteria.Search))

	var matched []domain.Product
	for _, p := range products {
		if criteria.Category != "" && criteria.Category != "All Categories" && criteria.Category != "All" &&
			p.Category != criteria.Category {
			continue
		}
		if statusOK && p.Status != status {
			continue
		}
		if criteria.ABCClass != "" && criteria.ABCClass != "All" && p.ABCClass != criteria.ABCClass {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(p.Name), search) {
			continue
		}
		matched = append(matched, p)
	}

	sort.SliceStable(matched, func(a, b int) bool {
		return matched[a].PriorityScore > matched[b].PriorityScore
	})
	return matched
}

// BuildInsights produces the threshold-triggered advisory messages.
func BuildInsights(products []domain.Product) domain.Insights {
	insights := domain.Insights{
		Alerts:          []string{},
		Recommendations: []string{},
		Opportunities:   []string{},
		Risks:           []string{},
	}

	printer := message.NewPrinter(language.English)
	critical, slowMovers, aClassLow := 0, 0, 0
	excessValue := 0.0
	for _, p := range products {
		if p.Status == domain.StatusCritical {
			critical++
		}
		if p.Status == domain.StatusExcess {
			excessValue += p.InventoryValue
		}
		if p.Turnover < 1 {
			slowMovers++
		}
		if p.ABCClass == "A" && (p.Status == domain.StatusCritical || p.Status == domain.StatusLow) {
			aClassLow++
		}
	}

	if critical > 0 {
		insights.Alerts = append(insights.Alerts,
			printer.Sprintf("%d items are critically low on stock", critical))
	}
	if excessValue > 10000 {
		insights.Alerts = append(insights.Alerts,
			printer.Sprintf("$%.0f tied up in excess inventory", excessValue))
	}
	if slowMovers > 0 {
		insights.Recommendations = append(insights.Recommendations,
			printer.Sprintf("Review %d slow-moving items for promotion or discontinuation", slowMovers))
	}
	if aClassLow > 0 {
		insights.Risks = append(insights.Risks,
			printer.Sprintf("%d high-value A-class items are understocked", aClassLow))
	}
	return insights
}

// percentile computes a linearly interpolated quantile over the values,
// matching the behavior the dashboard's thresholds were tuned against.
func percentile(values []float64, q float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	pos := q * float64(len(sorted)-1)
	lower := int(math.Floor(pos))
	upper := int(math.Ceil(pos))
	if lower == upper {
		return sorted[lower]
	}
	frac := pos - float64(lower)
	return sorted[lower] + frac*(sorted[upper]-sorted[lower])
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

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func maxInt(values ...int) int {
	m := values[0]
	for _, v := range values[1:] {
		if v > m {
			m = v
		}
	}
	return m
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
