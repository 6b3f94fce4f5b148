// Package service orchestrates the analysis pipeline: ingest, column
// resolution, cleaning, metric derivation and aggregation, plus session
// snapshot persistence and the supporting best-effort collaborators.
package service

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/pias-analytics/pias-backend/internal/aggregate"
	"github.com/pias-analytics/pias-backend/internal/chat"
	"github.com/pias-analytics/pias-backend/internal/cleaner"
	"github.com/pias-analytics/pias-backend/internal/domain"
	"github.com/pias-analytics/pias-backend/internal/ingest"
	"github.com/pias-analytics/pias-backend/internal/metrics"
	"github.com/pias-analytics/pias-backend/internal/repository/postgres"
	"github.com/pias-analytics/pias-backend/internal/resolver"
	"github.com/pias-analytics/pias-backend/internal/session"
	"github.com/pias-analytics/pias-backend/internal/storage"
)

// handlerReorderLimit is how many reorder recommendations the dashboard
// payload carries.
const handlerReorderLimit = 25

// Dashboard is the full analysis payload returned after an upload.
type Dashboard struct {
	SessionID           string                 `json:"sessionId"`
	KPIs                domain.KPISummary      `json:"kpis"`
	ReorderData         []domain.ReorderItem   `json:"reorderData"`
	CategoryPerformance []domain.CategoryStats `json:"categoryPerformance"`
	Movers              domain.MoversReport    `json:"movers"`
	FilterOptions       domain.FilterOptions   `json:"filterOptions"`
	Insights            domain.Insights        `json:"insights"`
	Metadata            Metadata               `json:"metadata"`
}

// Metadata describes the processed upload.
type Metadata struct {
	Filename     string    `json:"filename"`
	TotalRows    int       `json:"totalRows"`
	TotalColumns int       `json:"totalColumns"`
	ProcessedAt  time.Time `json:"processedAt"`
}

// FilterResult is the filtered product view plus KPIs recomputed over the
// matching subset.
type FilterResult struct {
	Products []domain.Product  `json:"products"`
	Count    int               `json:"count"`
	KPIs     domain.KPISummary `json:"kpis"`
}

// Report is the exportable JSON report assembled from a session snapshot.
type Report struct {
	Metadata         Metadata               `json:"metadata"`
	Summary          domain.KPISummary      `json:"summary"`
	CategoryAnalysis []domain.CategoryStats `json:"categoryAnalysis"`
	Movers           domain.MoversReport    `json:"movers"`
	Insights         domain.Insights        `json:"insights"`
}

// ColumnsInfo is the column preview for an upload sample.
type ColumnsInfo struct {
	Detected         domain.ColumnMap      `json:"detectedColumns"`
	MissingRequired  []domain.Field        `json:"missingRequired"`
	MissingPreferred []domain.Field        `json:"missingPreferred"`
	Valid            bool                  `json:"valid"`
	Quality          cleaner.QualityReport `json:"dataQuality"`
}

// AnalysisService runs the pipeline and coordinates the optional
// collaborators. Repo and archive may be nil; their failures are logged and
// never fail a request.
type AnalysisService struct {
	calc     *metrics.Calculator
	sessions session.Store
	repo     *postgres.SessionRepository
	archive  storage.UploadArchive
	chat     *chat.Assistant
	ttl      time.Duration
}

func NewAnalysisService(sessions session.Store, repo *postgres.SessionRepository, archive storage.UploadArchive, assistant *chat.Assistant, ttl time.Duration) *AnalysisService {
	return &AnalysisService{
		calc:     metrics.NewCalculator(),
		sessions: sessions,
		repo:     repo,
		archive:  archive,
		chat:     assistant,
		ttl:      ttl,
	}
}

// Analyze runs the whole pipeline on an uploaded file and stores the
// snapshot under the caller-assigned session id.
func (s *AnalysisService) Analyze(ctx context.Context, sessionID, filename string, data []byte) (*Dashboard, error) {
	table, err := ingest.Read(filename, data)
	if err != nil {
		return nil, err
	}

	cols := resolver.Resolve(table.Headers)
	if err := resolver.Validate(cols); err != nil {
		return nil, err
	}

	products, err := cleaner.Clean(table, cols)
	if err != nil {
		return nil, err
	}

	s.calc.Derive(products, cols)

	snapshot := &domain.Snapshot{
		Filename:            filename,
		CreatedAt:           time.Now(),
		Products:            products,
		Columns:             cols,
		KPIs:                aggregate.Summary(products),
		CategoryPerformance: aggregate.CategoryPerformance(products),
		Movers:              aggregate.Movers(products),
		Insights:            aggregate.BuildInsights(products),
	}

	if err := s.sessions.Save(ctx, sessionID, snapshot); err != nil {
		log.Warn().Err(err).Str("session_id", sessionID).Msg("session save failed")
	}
	s.recordSession(ctx, sessionID, snapshot)
	s.archiveUpload(ctx, sessionID, filename, data)

	return &Dashboard{
		SessionID:           sessionID,
		KPIs:                snapshot.KPIs,
		ReorderData:         aggregate.PriorityReorders(products, handlerReorderLimit),
		CategoryPerformance: snapshot.CategoryPerformance,
		Movers:              snapshot.Movers,
		FilterOptions:       aggregate.Options(products),
		Insights:            snapshot.Insights,
		Metadata: Metadata{
			Filename:     filename,
			TotalRows:    len(products),
			TotalColumns: len(table.Headers),
			ProcessedAt:  snapshot.CreatedAt,
		},
	}, nil
}

// Filter applies criteria against a stored session's table and recomputes
// KPIs for the matching subset.
func (s *AnalysisService) Filter(ctx context.Context, sessionID string, criteria domain.FilterCriteria) (*FilterResult, error) {
	snapshot, err := s.sessions.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	matched := aggregate.Filter(snapshot.Products, criteria)
	s.logEvent(ctx, "filter", sessionID, criteria)

	return &FilterResult{
		Products: matched,
		Count:    len(matched),
		KPIs:     aggregate.Summary(matched),
	}, nil
}

// Export assembles the JSON report from a stored session.
func (s *AnalysisService) Export(ctx context.Context, sessionID string) (*Report, error) {
	snapshot, err := s.sessions.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	s.logEvent(ctx, "export", sessionID, nil)

	return &Report{
		Metadata: Metadata{
			Filename:    snapshot.Filename,
			TotalRows:   len(snapshot.Products),
			ProcessedAt: snapshot.CreatedAt,
		},
		Summary:          snapshot.KPIs,
		CategoryAnalysis: snapshot.CategoryPerformance,
		Movers:           snapshot.Movers,
		Insights:         snapshot.Insights,
	}, nil
}

// Chat answers a question in the context of a stored session. Without a
// session the assistant still replies from empty metrics.
func (s *AnalysisService) Chat(ctx context.Context, sessionID, message string) (chat.Reply, error) {
	var kpis domain.KPISummary
	var insights domain.Insights
	if sessionID != "" {
		snapshot, err := s.sessions.Load(ctx, sessionID)
		if err == nil {
			kpis = snapshot.KPIs
			insights = snapshot.Insights
		} else {
			log.Warn().Err(err).Str("session_id", sessionID).Msg("chat without session context")
		}
	}

	s.logEvent(ctx, "chat", sessionID, map[string]string{"message": message})
	return s.chat.Reply(ctx, message, kpis, insights), nil
}

// ColumnsInfo previews column resolution and data quality without running
// the full pipeline.
func (s *AnalysisService) ColumnsInfo(ctx context.Context, filename string, data []byte) (*ColumnsInfo, error) {
	table, err := ingest.Read(filename, data)
	if err != nil {
		return nil, err
	}

	cols := resolver.Resolve(table.Headers)
	missing := cols.MissingRequired()

	return &ColumnsInfo{
		Detected:         cols,
		MissingRequired:  missing,
		MissingPreferred: resolver.MissingPreferred(cols),
		Valid:            len(missing) == 0,
		Quality:          cleaner.Inspect(table, cols),
	}, nil
}

func (s *AnalysisService) recordSession(ctx context.Context, sessionID string, snapshot *domain.Snapshot) {
	if s.repo == nil {
		return
	}
	rec := postgres.SessionRecord{
		SessionID:     sessionID,
		Filename:      snapshot.Filename,
		TotalProducts: len(snapshot.Products),
		CreatedAt:     snapshot.CreatedAt,
		ExpiresAt:     snapshot.CreatedAt.Add(s.ttl),
	}
	if err := s.repo.SaveSession(ctx, rec); err != nil {
		log.Warn().Err(err).Str("session_id", sessionID).Msg("session metadata save failed")
	}
	s.logEvent(ctx, "upload", sessionID, map[string]any{
		"filename":       snapshot.Filename,
		"total_products": len(snapshot.Products),
	})
}

func (s *AnalysisService) logEvent(ctx context.Context, eventType, sessionID string, payload any) {
	if s.repo == nil {
		return
	}
	if err := s.repo.LogEvent(ctx, eventType, sessionID, payload); err != nil {
		log.Warn().Err(err).Str("event", eventType).Msg("analytics event log failed")
	}
}

func (s *AnalysisService) archiveUpload(ctx context.Context, sessionID, filename string, data []byte) {
	if s.archive == nil {
		return
	}
	key, err := s.archive.Put(ctx, sessionID, filename, data)
	if err != nil {
		log.Warn().Err(err).Str("session_id", sessionID).Msg("upload archive failed")
		return
	}
	log.Debug().Str("key", key).Msg("upload archived")
}
