// internal/domain/models.go
package domain

import "time"

// Field is a canonical inventory field that uploaded columns are mapped onto.
type Field string

const (
	FieldName     Field = "name"
	FieldCategory Field = "category"
	FieldStock    Field = "stock"
	FieldSales    Field = "sales"
	FieldReorder  Field = "reorder"
	FieldPrice    Field = "price"
	FieldSupplier Field = "supplier"
	FieldLeadTime Field = "lead_time"
	FieldMaxStock Field = "max_stock"
	FieldTurnover Field = "turnover"
)

// RequiredFields must all resolve before the pipeline may run.
var RequiredFields = []Field{FieldName, FieldCategory, FieldStock, FieldSales}

// PreferredFields improve estimates when present but never fail resolution.
var PreferredFields = []Field{FieldReorder, FieldPrice}

// NumericFields are coerced and repaired by the cleaner.
var NumericFields = []Field{FieldStock, FieldSales, FieldReorder, FieldPrice, FieldTurnover}

// TextFields are normalized by the cleaner.
var TextFields = []Field{FieldName, FieldCategory, FieldSupplier}

// ColumnMap maps canonical fields to the uploaded header that resolved for
// them. Built once per upload; the metric engine later adds a synthetic
// turnover entry pointing at its own derived column.
type ColumnMap map[Field]string

// Has reports whether a field resolved to a column.
func (m ColumnMap) Has(f Field) bool {
	return m[f] != ""
}

// MissingRequired returns the required fields with no resolved column,
// in canonical order.
func (m ColumnMap) MissingRequired() []Field {
	var missing []Field
	for _, f := range RequiredFields {
		if !m.Has(f) {
			missing = append(missing, f)
		}
	}
	return missing
}

// DerivedTurnoverColumn is the synthetic column name the metric engine
// registers for its reconciled turnover, overriding any source column.
const DerivedTurnoverColumn = "final_turnover"

// RawTable is an uploaded tabular dataset: a header row plus string cells,
// exactly as the ingestion layer decoded them.
type RawTable struct {
	Headers []string
	Rows    [][]string
}

// Product is one row of the working table: cleaned input fields plus every
// derived metric. Stages mutate it additively; later stages only read fields
// produced by earlier ones.
type Product struct {
	// Cleaned input fields
	Name         string  `json:"name"`
	Category     string  `json:"category"`
	Supplier     string  `json:"supplier,omitempty"`
	Stock        float64 `json:"currentStock"`
	MonthlySales float64 `json:"monthlySales"`
	Reorder      float64 `json:"reorderLevel"`
	Price        float64 `json:"price"`
	LeadTime     float64 `json:"leadTime,omitempty"`
	MaxStock     float64 `json:"maxStock,omitempty"`
	// Turnover as it appeared in the source file. Ignored by the metric
	// engine, which always recomputes its own.
	SourceTurnover float64 `json:"sourceTurnover,omitempty"`

	// Derived by the metric engine
	AnnualSales     float64     `json:"annualSales"`
	COGS            float64     `json:"cogs"`
	UnitCost        float64     `json:"unitCost"`
	SimpleTurnover  float64     `json:"simpleTurnover"`
	FormulaTurnover float64     `json:"formulaTurnover"`
	Turnover        float64     `json:"turnover"`
	DaysOfSupply    float64     `json:"daysOfSupply"`
	SafetyStock     float64     `json:"safetyStock"`
	ReorderPoint    float64     `json:"reorderPoint"`
	EOQ             float64     `json:"eoq"`
	InventoryValue  float64     `json:"inventoryValue"`
	ABCClass        string      `json:"abcClass"`
	Status          StockStatus `json:"status"`
	PriorityScore   float64     `json:"priorityScore"`
}

// KPISummary is an immutable snapshot of dashboard-level metrics, re-derivable
// at any time from the working table.
type KPISummary struct {
	TotalProducts  int     `json:"totalProducts"`
	CriticalAlerts int     `json:"criticalAlerts"`

	AverageTurnover  float64 `json:"averageTurnover"`
	WeightedTurnover float64 `json:"weightedTurnover"`
	InventoryHealth  float64 `json:"inventoryHealth"`

	TotalInventoryValue float64 `json:"totalInventoryValue"`
	TotalAnnualSales    float64 `json:"totalAnnualSales"`
	InventoryROI        float64 `json:"inventoryROI"`

	AvgDaysSupply float64 `json:"avgDaysSupply"`
	ServiceLevel  float64 `json:"serviceLevel"`

	EmergencyStock int `json:"emergencyStock"`
	LowStock       int `json:"lowStock"`
	HealthyStock   int `json:"healthyStock"`
	ExcessStock    int `json:"excessStock"`

	ObsoleteItems int     `json:"obsoleteItems"`
	ObsoleteValue float64 `json:"obsoleteValue"`
	StockoutRisk  float64 `json:"stockoutRisk"`

	ABCBreakdown map[string]ABCBucket `json:"abcBreakdown"`
}

// ABCBucket summarizes one ABC class.
type ABCBucket struct {
	InventoryValue float64 `json:"inventoryValue"`
	ProductCount   int     `json:"productCount"`
}

// ReorderItem is one entry of the prioritized reorder recommendation list.
type ReorderItem struct {
	Product        string  `json:"product"`
	Category       string  `json:"category"`
	CurrentStock   int     `json:"currentStock"`
	ReorderPoint   int     `json:"reorderPoint"`
	SuggestedOrder int     `json:"suggestedOrder"`
	DaysOfSupply   float64 `json:"daysOfSupply"`
	Urgency        string  `json:"urgency"`
	PriorityScore  float64 `json:"priority_score"`
	MonthlySales   int     `json:"monthlySales"`
	TurnoverRate   float64 `json:"turnoverRate"`
	ABCClass       string  `json:"abcClass"`
	EstimatedCost  float64 `json:"estimatedCost"`
	Status         string  `json:"status"`
}

// CategoryStats aggregates one category's performance.
type CategoryStats struct {
	Category       string  `json:"category"`
	TotalSales     float64 `json:"totalSales"`
	AvgSales       float64 `json:"avgSales"`
	ProductCount   int     `json:"productCount"`
	AvgTurnover    float64 `json:"avgTurnover"`
	InventoryValue float64 `json:"inventoryValue"`
	AvgDaysSupply  float64 `json:"avgDaysSupply"`
	TotalStock     int     `json:"totalStock"`
}

// MoverItem is one product in the fast- or slow-mover lists.
type MoverItem struct {
	Name           string  `json:"name"`
	Category       string  `json:"category"`
	Turnover       float64 `json:"turnover"`
	Stock          int     `json:"stock"`
	MonthlySales   int     `json:"monthlySales"`
	DaysSupply     float64 `json:"daysSupply"`
	InventoryValue float64 `json:"inventoryValue"`
	ABCClass       string  `json:"abcClass"`
	Status         string  `json:"status"`
	PriorityScore  float64 `json:"priorityScore"`
}

// MoversReport holds both mover cohorts and the percentile thresholds that
// defined them.
type MoversReport struct {
	FastMovers      []MoverItem        `json:"fastMovers"`
	SlowMovers      []MoverItem        `json:"slowMovers"`
	FastMoversCount int                `json:"fastMoversCount"`
	SlowMoversCount int                `json:"slowMoversCount"`
	Thresholds      TurnoverThresholds `json:"turnoverThresholds"`
}

// TurnoverThresholds are the 75th/25th percentile turnover cutoffs.
type TurnoverThresholds struct {
	FastMover float64 `json:"fastMover"`
	SlowMover float64 `json:"slowMover"`
}

// FilterCriteria is a conjunctive product filter. Zero values and the "All"
// placeholders match everything.
type FilterCriteria struct {
	Category string `json:"category"`
	Status   string `json:"status"`
	ABCClass string `json:"abcClass"`
	Search   string `json:"search"`
}

// FilterOptions lists the values the dashboard can filter on. The range
// labels are fixed descriptive strings, not computed from data.
type FilterOptions struct {
	Categories       []string `json:"categories"`
	Statuses         []string `json:"statuses"`
	ABCClasses       []string `json:"abcClasses"`
	TurnoverRanges   []string `json:"turnoverRanges"`
	DaysSupplyRanges []string `json:"daysSupplyRanges"`
}

// Insights are threshold-triggered advisory messages.
type Insights struct {
	Alerts          []string `json:"alerts"`
	Recommendations []string `json:"recommendations"`
	Opportunities   []string `json:"opportunities"`
	Risks           []string `json:"risks"`
}

// Snapshot is the serializable per-session analysis state handed to the
// session store: the augmented working table plus the cached aggregate views.
type Snapshot struct {
	Filename            string          `json:"filename"`
	CreatedAt           time.Time       `json:"createdAt"`
	Products            []Product       `json:"products"`
	Columns             ColumnMap       `json:"columnsMap"`
	KPIs                KPISummary      `json:"kpis"`
	CategoryPerformance []CategoryStats `json:"categoryPerformance"`
	Movers              MoversReport    `json:"movers"`
	Insights            Insights        `json:"insights"`
}
