package domain

import "strings"

// StockStatus classifies a product's stock position. Assigned by the metric
// engine's rule cascade; exactly one status per product.
type StockStatus string

const (
	StatusCritical StockStatus = "CRITICAL"
	StatusLow      StockStatus = "LOW"
	StatusNormal   StockStatus = "NORMAL"
	StatusHealthy  StockStatus = "HEALTHY"
	StatusExcess   StockStatus = "EXCESS"
)

// AllStatuses in cascade priority order.
var AllStatuses = []StockStatus{StatusCritical, StatusLow, StatusNormal, StatusHealthy, StatusExcess}

// legacyStatusLabels maps display labels older dashboard clients still send.
var legacyStatusLabels = map[string]StockStatus{
	"critical":  StatusCritical,
	"low stock": StatusLow,
	"healthy":   StatusHealthy,
	"excess":    StatusExcess,
}

// ParseStockStatus resolves a status filter value, accepting both canonical
// uppercase labels and legacy display labels (case-insensitive).
func ParseStockStatus(label string) (StockStatus, bool) {
	trimmed := strings.TrimSpace(label)
	upper := StockStatus(strings.ToUpper(trimmed))
	for _, s := range AllStatuses {
		if upper == s {
			return s, true
		}
	}
	if s, ok := legacyStatusLabels[strings.ToLower(trimmed)]; ok {
		return s, true
	}
	return "", false
}

// UrgencyFor derives a reorder urgency label from days of supply alone.
// Independent of StockStatus, so the two can disagree.
func UrgencyFor(daysOfSupply float64) string {
	switch {
	case daysOfSupply <= 7:
		return "CRITICAL"
	case daysOfSupply <= 15:
		return "HIGH"
	case daysOfSupply <= 30:
		return "MEDIUM"
	default:
		return "LOW"
	}
}
