package cleaner

import (
	"fmt"
	"strings"

	"github.com/pias-analytics/pias-backend/internal/domain"
)

// ColumnAnalysis summarizes one resolved column's data quality.
type ColumnAnalysis struct {
	Column         string  `json:"column"`
	NullCount      int     `json:"nullCount"`
	NullPercentage float64 `json:"nullPercentage"`
	UniqueValues   int     `json:"uniqueValues"`

	// Numeric columns only
	MinValue       float64 `json:"minValue,omitempty"`
	MaxValue       float64 `json:"maxValue,omitempty"`
	MeanValue      float64 `json:"meanValue,omitempty"`
	MedianValue    float64 `json:"medianValue,omitempty"`
	NegativeValues int     `json:"negativeValues,omitempty"`
	ZeroValues     int     `json:"zeroValues,omitempty"`

	// Text columns only
	AvgLength    float64 `json:"avgLength,omitempty"`
	EmptyStrings int     `json:"emptyStrings,omitempty"`
}

// QualityReport is the per-upload data quality summary returned by the
// column preview endpoint.
type QualityReport struct {
	TotalRows       int                              `json:"totalRows"`
	TotalColumns    int                              `json:"totalColumns"`
	ColumnAnalysis  map[domain.Field]*ColumnAnalysis `json:"columnAnalysis"`
	DataIssues      []string                         `json:"dataIssues"`
	Recommendations []string                         `json:"recommendations"`
}

// Inspect analyzes the resolved columns of a raw table without cleaning it.
func Inspect(table domain.RawTable, cols domain.ColumnMap) QualityReport {
	idx := headerIndex(table.Headers)
	n := len(table.Rows)

	report := QualityReport{
		TotalRows:      n,
		TotalColumns:   len(table.Headers),
		ColumnAnalysis: make(map[domain.Field]*ColumnAnalysis),
	}

	for field, header := range cols {
		pos, ok := idx[header]
		if !ok {
			continue
		}
		a := &ColumnAnalysis{Column: header}
		unique := make(map[string]struct{})
		for _, row := range table.Rows {
			v := strings.TrimSpace(cell(row, pos))
			if v == "" || strings.EqualFold(v, "nan") {
				a.NullCount++
				continue
			}
			unique[v] = struct{}{}
		}
		a.UniqueValues = len(unique)
		if n > 0 {
			a.NullPercentage = float64(a.NullCount) / float64(n) * 100
		}

		switch field {
		case domain.FieldStock, domain.FieldSales, domain.FieldReorder, domain.FieldPrice, domain.FieldTurnover:
			analyzeNumeric(a, table.Rows, pos)
			if a.NegativeValues > 0 {
				report.DataIssues = append(report.DataIssues,
					fmt.Sprintf("%s has %d negative values", header, a.NegativeValues))
			}
			if n > 0 && a.ZeroValues > n/2 {
				report.DataIssues = append(report.DataIssues,
					fmt.Sprintf("%s has too many zero values (%d)", header, a.ZeroValues))
			}
		case domain.FieldName, domain.FieldCategory, domain.FieldSupplier:
			analyzeText(a, table.Rows, pos)
		}

		report.ColumnAnalysis[field] = a
	}

	report.Recommendations = recommendations(report)
	return report
}

func analyzeNumeric(a *ColumnAnalysis, rows [][]string, pos int) {
	var values []float64
	for _, row := range rows {
		v, ok := parseNumber(cell(row, pos))
		if !ok {
			continue
		}
		values = append(values, v)
		if v < 0 {
			a.NegativeValues++
		}
		if v == 0 {
			a.ZeroValues++
		}
	}
	if len(values) == 0 {
		return
	}
	a.MinValue, a.MaxValue = values[0], values[0]
	for _, v := range values {
		if v < a.MinValue {
			a.MinValue = v
		}
		if v > a.MaxValue {
			a.MaxValue = v
		}
	}
	a.MeanValue = mean(values)
	a.MedianValue = median(values)
}

func analyzeText(a *ColumnAnalysis, rows [][]string, pos int) {
	total := 0
	for _, row := range rows {
		v := strings.TrimSpace(cell(row, pos))
		if v == "" {
			a.EmptyStrings++
		}
		total += len(v)
	}
	if len(rows) > 0 {
		a.AvgLength = float64(total) / float64(len(rows))
	}
}

func recommendations(report QualityReport) []string {
	var recs []string
	for field, a := range report.ColumnAnalysis {
		if a.NullPercentage > 20 {
			recs = append(recs, fmt.Sprintf(
				"Consider reviewing %s column - %.1f%% missing data", field, a.NullPercentage))
		}
		if (field == domain.FieldStock || field == domain.FieldSales) && a.ZeroValues > 0 {
			recs = append(recs, fmt.Sprintf(
				"Review zero values in %s - may indicate data entry issues", field))
		}
		if field == domain.FieldCategory && float64(a.UniqueValues) > float64(report.TotalRows)*0.8 {
			recs = append(recs, "Too many unique categories - consider grouping similar categories")
		}
	}
	return recs
}
