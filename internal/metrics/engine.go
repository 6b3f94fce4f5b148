// Package metrics derives per-product inventory KPIs from a cleaned table:
// turnover, days of supply, reorder point, EOQ, inventory value, ABC class,
// stock status and a reorder priority score.
package metrics

import (
	"math"
	"sort"

	"github.com/pias-analytics/pias-backend/internal/domain"
)

// Calculator derives inventory metrics. All cost assumptions are fixed
// business estimates used when the upload carries no pricing data.
type Calculator struct {
	safetyStockMultiplier float64
	leadTimeDays          float64
	orderingCost          float64
	holdingCostRate       float64
	defaultUnitCost       float64
}

// NewCalculator creates a calculator with the standard assumptions:
// 1.5x safety stock, 14-day lead time, 50 per-order cost, 25% annual
// holding rate, 25 default unit cost.
func NewCalculator() *Calculator {
	return &Calculator{
		safetyStockMultiplier: 1.5,
		leadTimeDays:          14,
		orderingCost:          50,
		holdingCostRate:       0.25,
		defaultUnitCost:       25,
	}
}

// Derive computes every metric for each product in place and registers the
// derived turnover column in the column map, overriding any source turnover.
// Only cleaned base fields are read, so re-deriving is idempotent.
func (c *Calculator) Derive(products []domain.Product, cols domain.ColumnMap) {
	priced := cols.Has(domain.FieldPrice)
	for i := range products {
		c.deriveRow(&products[i], priced)
	}

	classifyABC(products)

	hasReorder := cols.Has(domain.FieldReorder)
	for i := range products {
		p := &products[i]
		p.Status = classifyStatus(p, hasReorder)
		p.PriorityScore = priorityScore(p)
	}

	cols[domain.FieldTurnover] = domain.DerivedTurnoverColumn
}

func (c *Calculator) deriveRow(p *domain.Product, priced bool) {
	// 1. Annualize monthly sales
	p.AnnualSales = p.MonthlySales * 12

	// 2. Unit cost from the price column when resolved, flat estimate otherwise
	p.UnitCost = c.defaultUnitCost
	if priced {
		p.UnitCost = p.Price
	}
	p.COGS = p.AnnualSales * p.UnitCost

	// 3. Two turnover estimates reconciled to the more conservative one.
	// The formula variant reduces to the simple ratio today; kept separate
	// so a true historical COGS could one day diverge.
	p.SimpleTurnover = simpleTurnover(p.Stock, p.AnnualSales)
	p.FormulaTurnover = formulaTurnover(p.Stock, p.AnnualSales, p.COGS)
	p.Turnover = math.Min(p.SimpleTurnover, p.FormulaTurnover)

	// 4. Days of supply, 365 sentinel when there is no consumption signal
	if p.MonthlySales > 0 {
		p.DaysOfSupply = (p.Stock / p.MonthlySales) * 30
	} else {
		p.DaysOfSupply = 365
	}

	// 5. Safety stock
	p.SafetyStock = p.MonthlySales * c.safetyStockMultiplier

	// 6. Reorder point = daily usage x lead time + safety stock
	p.ReorderPoint = (p.MonthlySales/30)*c.leadTimeDays + p.SafetyStock

	// 7. Economic order quantity
	holdingCost := math.Max(p.UnitCost*c.holdingCostRate, 1)
	p.EOQ = math.Sqrt((2 * p.AnnualSales * c.orderingCost) / holdingCost)

	// 8. Inventory value
	p.InventoryValue = p.Stock * p.UnitCost
}

func simpleTurnover(stock, annualSales float64) float64 {
	if stock <= 0 {
		return 0
	}
	return annualSales / stock
}

// formulaTurnover is the COGS-based velocity estimate. Guards every zero
// denominator instead of letting the ratio collapse to NaN.
func formulaTurnover(stock, annualSales, cogs float64) float64 {
	if stock <= 0 || annualSales <= 0 || cogs <= 0 {
		return 0
	}
	avgInventoryCost := stock * cogs / annualSales
	return cogs / avgInventoryCost
}

// classifyABC assigns Pareto classes by cumulative annual-sales share:
// A while <= 70%, B while <= 90%, C otherwise. Sorts internally but leaves
// the input order untouched.
func classifyABC(products []domain.Product) {
	order := make([]int, len(products))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return products[order[a]].AnnualSales > products[order[b]].AnnualSales
	})

	total := 0.0
	for i := range products {
		total += products[i].AnnualSales
	}

	cumulative := 0.0
	for _, idx := range order {
		cumulative += products[idx].AnnualSales
		switch {
		case total <= 0:
			products[idx].ABCClass = "C"
		case cumulative/total*100 <= 70:
			products[idx].ABCClass = "A"
		case cumulative/total*100 <= 90:
			products[idx].ABCClass = "B"
		default:
			products[idx].ABCClass = "C"
		}
	}
}

// classifyStatus evaluates the rule cascade in fixed priority order; the
// first matching label wins.
func classifyStatus(p *domain.Product, hasReorder bool) domain.StockStatus {
	reorderLevel := p.ReorderPoint
	if hasReorder {
		reorderLevel = p.Reorder
	}

	switch {
	case p.Stock <= reorderLevel*0.5 || p.DaysOfSupply <= 7:
		return domain.StatusCritical
	case p.Stock <= reorderLevel || p.DaysOfSupply <= 15:
		return domain.StatusLow
	case p.Stock <= reorderLevel*2 && p.DaysOfSupply <= 45:
		return domain.StatusNormal
	case p.Stock <= reorderLevel*3 && p.DaysOfSupply <= 90:
		return domain.StatusHealthy
	default:
		return domain.StatusExcess
	}
}

// priorityScore ranks reorder urgency. Unclamped: items with very high days
// of supply go negative so they sort last.
func priorityScore(p *domain.Product) float64 {
	score := (100-p.DaysOfSupply)*0.4 + p.MonthlySales*0.3
	if p.ABCClass == "A" {
		score += 20
	}
	if p.Status == domain.StatusCritical {
		score += 30
	}
	return score
}
