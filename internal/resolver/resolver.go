// Package resolver maps arbitrary uploaded spreadsheet headers onto the
// canonical inventory fields using weighted keyword scoring. Each field is
// resolved independently, so one header may be claimed by several fields.
package resolver

import (
	"strings"

	"github.com/pias-analytics/pias-backend/internal/domain"
)

// fieldKeywords is the scoring table: canonical field to its ranked synonym
// list. Data-driven so the scoring rules stay testable in isolation.
var fieldKeywords = map[domain.Field][]string{
	domain.FieldName: {
		"name", "product", "item", "description", "title", "product_name",
		"item_name", "prod_name", "sku", "code", "id",
	},
	domain.FieldCategory: {
		"category", "catagory", "cat", "type", "class", "group", "segment",
		"product_category", "item_category", "classification",
	},
	domain.FieldStock: {
		"stock", "inventory", "quantity", "qty", "current_stock",
		"on_hand", "available", "balance", "units", "count", "level",
		"current_quantity", "stock_level", "inventory_level",
	},
	domain.FieldSales: {
		"sales", "sold", "volume", "demand", "usage", "consumption",
		"monthly_sales", "sales_volume", "units_sold", "turnover_qty",
		"demand_qty", "usage_rate", "monthly_demand",
	},
	domain.FieldReorder: {
		"reorder", "reorder_level", "reorder_point", "min_stock",
		"minimum", "safety_stock", "threshold", "trigger_level",
		"min_level", "reorder_qty", "minimum_stock",
	},
	domain.FieldPrice: {
		"price", "cost", "unit_price", "unit_cost", "value", "amount",
		"rate", "price_per_unit", "cost_per_unit", "unit_value",
	},
	domain.FieldSupplier: {
		"supplier", "vendor", "source", "provider", "manufacturer",
		"supplier_name", "vendor_name", "supplier_id",
	},
	domain.FieldLeadTime: {
		"lead_time", "leadtime", "delivery_time", "order_time",
		"procurement_time", "lead_days",
	},
	domain.FieldMaxStock: {
		"max_stock", "maximum", "max_level", "maximum_stock",
		"max_quantity", "upper_limit", "ceiling",
	},
	domain.FieldTurnover: {
		"turnover", "turns", "rotation", "velocity", "frequency",
	},
}

// inventoryTerms earn a flat bonus once per header, as a weak prior that the
// header is inventory-related at all.
var inventoryTerms = []string{"qty", "amount", "level", "count", "volume", "units"}

const (
	scoreExact     = 100
	scoreSubstring = 50
	scoreToken     = 25
	scoreTermBonus = 10
)

// Score computes the match score between one header and one field's keyword
// list. Zero means no match.
func Score(header string, keywords []string) int {
	h := strings.ToLower(strings.TrimSpace(header))
	score := 0

	for _, keyword := range keywords {
		kw := strings.ToLower(keyword)
		switch {
		case kw == h:
			score += scoreExact
		case strings.Contains(h, kw):
			score += scoreSubstring
		default:
			for _, token := range strings.Split(kw, "_") {
				if token != "" && strings.Contains(h, token) {
					score += scoreToken
					break
				}
			}
		}
	}

	// Bonus applies even without a keyword hit, so a generic header like
	// "qty" can still be claimed when nothing better matches.
	for _, term := range inventoryTerms {
		if strings.Contains(h, term) {
			score += scoreTermBonus
			break
		}
	}
	return score
}

// bestHeader picks the highest-scoring header for one keyword list. Ties go
// to the first header in input order. Empty string means nothing scored.
func bestHeader(headers []string, keywords []string) string {
	best := ""
	bestScore := 0
	for _, h := range headers {
		if s := Score(h, keywords); s > bestScore {
			best = h
			bestScore = s
		}
	}
	return best
}

// Resolve maps every canonical field to its best-matching header. Fields with
// no header scoring above zero are left out of the map. Resolution never
// fails; validation is a separate step.
func Resolve(headers []string) domain.ColumnMap {
	cols := make(domain.ColumnMap, len(fieldKeywords))
	for field, keywords := range fieldKeywords {
		if h := bestHeader(headers, keywords); h != "" {
			cols[field] = h
		}
	}
	return cols
}

// Validate checks that every required field resolved. Returns a
// MissingColumnsError naming the unresolved fields otherwise.
func Validate(cols domain.ColumnMap) error {
	if missing := cols.MissingRequired(); len(missing) > 0 {
		return &domain.MissingColumnsError{Fields: missing}
	}
	return nil
}

// MissingPreferred returns the optional fields that did not resolve. Their
// absence degrades later estimates but never fails resolution.
func MissingPreferred(cols domain.ColumnMap) []domain.Field {
	var missing []domain.Field
	for _, f := range domain.PreferredFields {
		if !cols.Has(f) {
			missing = append(missing, f)
		}
	}
	return missing
}
