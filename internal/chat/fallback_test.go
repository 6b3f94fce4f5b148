package chat

import (
	"context"
	"strings"
	"testing"

	"github.com/pias-analytics/pias-backend/internal/config"
	"github.com/pias-analytics/pias-backend/internal/domain"
)

func sampleKPIs() domain.KPISummary {
	return domain.KPISummary{
		TotalProducts:   120,
		CriticalAlerts:  7,
		AverageTurnover: 5.2,
		InventoryHealth: 68.4,
	}
}

func TestFallbackKeywordDispatch(t *testing.T) {
	tests := []struct {
		name    string
		message string
		want    string
	}{
		{"restock", "What needs restocking right now?", "RESTOCKING PRIORITY ANALYSIS"},
		{"slow movers", "analyze my SLOW movers", "SLOW-MOVING INVENTORY OPTIMIZATION"},
		{"fast movers", "how are fast items doing", "FAST-MOVING INVENTORY OPTIMIZATION"},
		{"critical", "show critical items", "CRITICAL INVENTORY ALERT"},
		{"health", "check inventory health", "INVENTORY HEALTH ASSESSMENT"},
		{"turnover", "turnover analysis please", "TURNOVER RATE ANALYSIS"},
		{"forecast", "can you forecast demand", "DEMAND FORECASTING INSIGHTS"},
		{"summary", "give me a summary", "INVENTORY OVERVIEW SUMMARY"},
		{"abc", "explain abc classification", "ABC ANALYSIS RECOMMENDATIONS"},
		{"unmatched", "hello there", "PIAS INVENTORY ASSISTANT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Fallback(tt.message, sampleKPIs())
			if !strings.Contains(got, tt.want) {
				t.Errorf("Fallback(%q) missing %q:\n%s", tt.message, tt.want, got)
			}
		})
	}
}

func TestFallbackUsesContext(t *testing.T) {
	got := Fallback("restock", sampleKPIs())
	if !strings.Contains(got, "7 items need attention") {
		t.Errorf("reply missing critical count:\n%s", got)
	}
	if !strings.Contains(got, "120 products") {
		t.Errorf("reply missing product count:\n%s", got)
	}
}

func TestHealthGrade(t *testing.T) {
	tests := []struct {
		score float64
		want  string
	}{
		{90, "A (Excellent)"},
		{85, "A (Excellent)"},
		{80, "B (Good)"},
		{60, "C (Fair)"},
		{40, "D (Needs Work)"},
	}
	for _, tt := range tests {
		if got := HealthGrade(tt.score); got != tt.want {
			t.Errorf("HealthGrade(%v) = %q, want %q", tt.score, got, tt.want)
		}
	}
}

func TestAssistantWithoutAPIKey(t *testing.T) {
	assistant, err := New(context.Background(), config.ChatConfig{})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer assistant.Close()

	reply := assistant.Reply(context.Background(), "check inventory health", sampleKPIs(), domain.Insights{})
	if reply.Model != FallbackModel {
		t.Errorf("model = %q, want %q", reply.Model, FallbackModel)
	}
	if !strings.Contains(reply.Text, "INVENTORY HEALTH ASSESSMENT") {
		t.Errorf("unexpected reply:\n%s", reply.Text)
	}
}
