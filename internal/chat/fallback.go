package chat

import (
	"fmt"
	"strings"

	"github.com/pias-analytics/pias-backend/internal/domain"
)

// FallbackModel identifies replies produced by the keyword dispatcher rather
// than the AI enhancement.
const FallbackModel = "pias-fallback-v2"

// keywordResponses dispatches on the first matching keyword, checked in this
// order.
var keywordResponses = []struct {
	keyword string
	respond func(k domain.KPISummary) string
}{
	{"restock", func(k domain.KPISummary) string {
		return fmt.Sprintf(`**RESTOCKING PRIORITY ANALYSIS**

Immediate actions:
- Check your Priority Reorder List - %d items need attention
- Focus on critical status items first (stock < 7 days supply)
- Review supplier lead times for urgent items

Current status: %d critical alerts out of %d products

Tip: set up automated reorder triggers at 20-day supply levels to prevent stockouts.`,
			k.CriticalAlerts, k.CriticalAlerts, k.TotalProducts)
	}},
	{"slow", func(k domain.KPISummary) string {
		return `**SLOW-MOVING INVENTORY OPTIMIZATION**

Slow movers tie up capital and warehouse space. Target: reduce inventory by 15-25%.

Action plan:
1. Bundle slow movers with fast-moving items
2. Promotional campaigns - 10-20% discounts to accelerate turnover
3. Negotiate reduced future order quantities with suppliers
4. Seasonal clearance with time-based markdowns

Expected results over a 3-6 month optimization cycle.`
	}},
	{"fast", func(k domain.KPISummary) string {
		share := 60
		if k.AverageTurnover > 4 {
			share = 80
		}
		return fmt.Sprintf(`**FAST-MOVING INVENTORY OPTIMIZATION**

Fast movers drive %d%% of your revenue. Current turnover: %.1fx (target: 6-8x).

Optimization actions:
1. Maintain 1.5x safety stock for top performers
2. Negotiate shorter lead times with suppliers
3. Forecast demand with 90-day rolling averages
4. Consider direct fulfillment for highest volume items

Growth opportunity: increase fast-mover stock levels by 20-30%%.`, share, k.AverageTurnover)
	}},
	{"critical", func(k domain.KPISummary) string {
		return fmt.Sprintf(`**CRITICAL INVENTORY ALERT**

URGENT - %d items need immediate action.

Within 24 hours: contact suppliers for emergency orders, check alternative
sources, implement allocation controls.

Within 48 hours: review demand forecasting accuracy, adjust reorder points
(+20%% safety margin), update lead time assumptions.

System improvements: automated alerts at 15-day supply, daily stock
monitoring for A-class items, vendor-managed inventory for critical items.`, k.CriticalAlerts)
	}},
	{"health", func(k domain.KPISummary) string {
		critLow := 100 - k.InventoryHealth
		if critLow > 100 {
			critLow = 100
		}
		return fmt.Sprintf(`**INVENTORY HEALTH ASSESSMENT**

Your score: %.1f%% %s

Breakdown:
- Healthy stock: %.0f%%
- Critical/low: %.0f%%

Target ranges: excellent 75-85%% healthy, good 60-75%%, needs work <60%%.

Quick wins: focus on the %d critical items first, use ABC analysis for
prioritization, set up weekly health monitoring reports.`,
			k.InventoryHealth, HealthGrade(k.InventoryHealth), k.InventoryHealth, critLow, k.CriticalAlerts)
	}},
	{"turnover", func(k domain.KPISummary) string {
		return fmt.Sprintf(`**TURNOVER RATE ANALYSIS**

Current performance: %.2fx annually.

Industry benchmarks: excellent >6x per year, good 4-6x, needs improvement <4x.

Improvement strategies:
1. Demand planning with 6-month rolling forecasts
2. Just-in-time: reduce order quantities, increase frequency
3. Shift product mix toward higher-velocity items
4. Negotiate shorter supplier lead times

90-day target: increase turnover by 15-25%%.`, k.AverageTurnover)
	}},
	{"forecast", func(k domain.KPISummary) string {
		return fmt.Sprintf(`**DEMAND FORECASTING INSIGHTS**

Based on your %d products:

Method selection:
- A-class items: advanced algorithms with seasonal adjustment
- B-class items: 3-6 month moving averages
- C-class items: simple reorder points

Quick implementation: start with 90-day rolling averages, adjust for
seasonality (+/-20%%), review accuracy monthly, refine quarterly.

Expected accuracy: 70-85%% improvement in 3-6 months.`, k.TotalProducts)
	}},
	{"summary", func(k domain.KPISummary) string {
		return fmt.Sprintf(`**INVENTORY OVERVIEW SUMMARY**

Key metrics:
- Total products: %d
- Health score: %.1f%%
- Turnover rate: %.1fx
- Critical items: %d

Priority actions:
1. Address %d critical stock issues
2. Optimize turnover rate (target: 4-6x)
3. Improve inventory health score to 75%%+

Next steps: focus on critical alerts first, then optimize fast-movers.`,
			k.TotalProducts, k.InventoryHealth, k.AverageTurnover, k.CriticalAlerts, k.CriticalAlerts)
	}},
	{"abc", func(domain.KPISummary) string {
		return `**ABC ANALYSIS RECOMMENDATIONS**

A-class items (20% of products, 80% of value): tight inventory control,
daily monitoring, multiple suppliers, 1-2 week safety stock.

B-class items (30% of products, 15% of value): weekly review, economic
order quantities, 2-4 week safety stock.

C-class items (50% of products, 5% of value): simple reorder systems, bulk
purchasing, 4-8 week safety stock.

Start with A-class optimization for maximum impact.`
	}},
}

// Fallback answers a chat message from the KPI context alone via keyword
// dispatch. Always succeeds.
func Fallback(message string, kpis domain.KPISummary) string {
	lower := strings.ToLower(message)
	for _, r := range keywordResponses {
		if strings.Contains(lower, r.keyword) {
			return r.respond(kpis)
		}
	}

	return fmt.Sprintf(`**PIAS INVENTORY ASSISTANT**

I can help analyze your inventory data. Areas I can assist with:
- "Show restock priorities" - immediate reorder recommendations
- "Analyze slow movers" - optimization opportunities
- "Check inventory health" - overall system assessment
- "Turnover analysis" - performance benchmarking
- "ABC classification" - priority-based management

Your current status:
- %d products monitored
- %d items need attention
- %.1f%% health score

Try asking: "What needs restocking?" or "How can I improve turnover?"`,
		kpis.TotalProducts, kpis.CriticalAlerts, kpis.InventoryHealth)
}

// HealthGrade maps an inventory health percentage to a letter grade.
func HealthGrade(score float64) string {
	switch {
	case score >= 85:
		return "A (Excellent)"
	case score >= 75:
		return "B (Good)"
	case score >= 60:
		return "C (Fair)"
	default:
		return "D (Needs Work)"
	}
}
