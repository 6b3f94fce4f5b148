// Package chat answers inventory questions from the session's KPI context.
// A keyword dispatcher always works; a Gemini model enhances replies when an
// API key is configured, falling back silently on any error.
package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/rs/zerolog/log"
	"google.golang.org/api/option"

	"github.com/pias-analytics/pias-backend/internal/config"
	"github.com/pias-analytics/pias-backend/internal/domain"
)

// Reply is one chat answer plus the model that produced it.
type Reply struct {
	Text  string `json:"response"`
	Model string `json:"model"`
}

// Assistant produces chat replies. The zero Gemini configuration is valid
// and means dispatcher-only operation.
type Assistant struct {
	client *genai.Client
	model  *genai.GenerativeModel
	name   string
}

// New creates an assistant. A missing API key is not an error; it disables
// the AI enhancement.
func New(ctx context.Context, cfg config.ChatConfig) (*Assistant, error) {
	if cfg.GeminiAPIKey == "" {
		return &Assistant{}, nil
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.GeminiAPIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	model := client.GenerativeModel(cfg.GeminiModel)
	model.SetTemperature(0.3)
	model.SetMaxOutputTokens(1024)
	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(
			"You are an inventory analysis assistant. Answer from the provided " +
				"metrics only. Be direct and actionable, under 200 words.")},
	}

	return &Assistant{client: client, model: model, name: cfg.GeminiModel}, nil
}

// Reply answers the message. Gemini is tried first when configured; any
// failure degrades to the keyword dispatcher instead of surfacing.
func (a *Assistant) Reply(ctx context.Context, message string, kpis domain.KPISummary, insights domain.Insights) Reply {
	if a.model != nil {
		text, err := a.generate(ctx, message, kpis, insights)
		if err != nil {
			log.Warn().Err(err).Msg("gemini reply failed, using fallback")
		} else {
			return Reply{Text: text, Model: a.name}
		}
	}
	return Reply{Text: Fallback(message, kpis), Model: FallbackModel}
}

func (a *Assistant) generate(ctx context.Context, message string, kpis domain.KPISummary, insights domain.Insights) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	resp, err := a.model.GenerateContent(ctx, genai.Text(buildPrompt(message, kpis, insights)))
	if err != nil {
		return "", fmt.Errorf("failed to generate response: %w", err)
	}
	if len(resp.Candidates) == 0 {
		return "", errors.New("no response candidates")
	}

	var b strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			fmt.Fprintf(&b, "%v", part)
		}
	}
	if b.Len() == 0 {
		return "", errors.New("empty response")
	}
	return b.String(), nil
}

func buildPrompt(message string, kpis domain.KPISummary, insights domain.Insights) string {
	var b strings.Builder
	b.WriteString("CURRENT INVENTORY METRICS:\n")
	fmt.Fprintf(&b, "- Total products: %d\n", kpis.TotalProducts)
	fmt.Fprintf(&b, "- Critical alerts: %d\n", kpis.CriticalAlerts)
	fmt.Fprintf(&b, "- Average turnover: %.2fx\n", kpis.AverageTurnover)
	fmt.Fprintf(&b, "- Inventory health: %.1f%%\n", kpis.InventoryHealth)
	fmt.Fprintf(&b, "- Total inventory value: %.2f\n", kpis.TotalInventoryValue)

	if len(insights.Alerts) > 0 {
		b.WriteString("\nALERTS:\n")
		for _, alert := range limitLines(insights.Alerts, 3) {
			fmt.Fprintf(&b, "- %s\n", alert)
		}
	}
	if len(insights.Recommendations) > 0 {
		b.WriteString("\nKEY RECOMMENDATIONS:\n")
		for _, rec := range limitLines(insights.Recommendations, 3) {
			fmt.Fprintf(&b, "- %s\n", rec)
		}
	}

	fmt.Fprintf(&b, "\nUSER QUESTION: %s\n", message)
	return b.String()
}

func limitLines(lines []string, n int) []string {
	if len(lines) > n {
		return lines[:n]
	}
	return lines
}

// Close releases the Gemini client, if any.
func (a *Assistant) Close() error {
	if a.client != nil {
		return a.client.Close()
	}
	return nil
}
