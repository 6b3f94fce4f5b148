package handlers

import (
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/pias-analytics/pias-backend/internal/domain"
	"github.com/pias-analytics/pias-backend/internal/ingest"
	"github.com/pias-analytics/pias-backend/internal/service"
)

const uploadFormField = "csvFile"

// Features reports which optional collaborators were wired at startup. The
// health endpoint exposes them so the frontend can degrade gracefully.
type Features struct {
	Database bool `json:"database"`
	Archive  bool `json:"archive"`
	AIChat   bool `json:"ai_chat"`
}

type AnalysisHandler struct {
	service  *service.AnalysisService
	features Features
}

func NewAnalysisHandler(service *service.AnalysisService, features Features) *AnalysisHandler {
	return &AnalysisHandler{service: service, features: features}
}

// Health reports service status and the endpoints clients can use.
func (h *AnalysisHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"message":   "Predictive Inventory Analyzer API is running",
		"timestamp": time.Now().Format(time.RFC3339),
		"version":   "2.0.0",
		"features":  h.features,
		"endpoints": gin.H{
			"upload":  "/api/upload-csv",
			"filter":  "/api/filter-products",
			"export":  "/api/export-report",
			"chat":    "/api/chat",
			"columns": "/api/columns-info",
		},
	})
}

// Upload accepts a spreadsheet, runs the full analysis pipeline and returns
// the dashboard payload under a fresh session id.
func (h *AnalysisHandler) Upload(c *gin.Context) {
	filename, data, ok := h.readUpload(c)
	if !ok {
		return
	}

	sessionID := uuid.New().String()
	dashboard, err := h.service.Analyze(c.Request.Context(), sessionID, filename, data)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"sessionId": sessionID,
		"data":      dashboard,
	})
}

type filterRequest struct {
	SessionID string                `json:"sessionId"`
	Filters   domain.FilterCriteria `json:"filters"`
}

// Filter applies criteria against a stored session and returns the matching
// products with KPIs recomputed over the subset.
func (h *AnalysisHandler) Filter(c *gin.Context) {
	var req filterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		validationError(c, "Invalid filter request body")
		return
	}
	if req.SessionID == "" {
		sessionError(c, "No session ID provided. Please upload a CSV first.")
		return
	}

	result, err := h.service.Filter(c.Request.Context(), req.SessionID, req.Filters)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"filteredProducts": result.Products,
			"filteredCount":    result.Count,
			"filteredKpis":     result.KPIs,
			"appliedFilters":   req.Filters,
		},
	})
}

type exportRequest struct {
	SessionID string `json:"sessionId"`
}

// Export assembles the downloadable JSON report for a session.
func (h *AnalysisHandler) Export(c *gin.Context) {
	var req exportRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.SessionID == "" {
		sessionError(c, "No session ID provided. Please upload a CSV first.")
		return
	}

	report, err := h.service.Export(c.Request.Context(), req.SessionID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"report":      report,
		"generatedAt": time.Now().Format(time.RFC3339),
	})
}

type chatRequest struct {
	SessionID string `json:"sessionId"`
	Message   string `json:"message"`
}

// Chat answers an inventory question, grounded in the session's metrics when
// a session id is supplied.
func (h *AnalysisHandler) Chat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Message) == "" {
		validationError(c, "No message provided")
		return
	}

	reply, err := h.service.Chat(c.Request.Context(), req.SessionID, req.Message)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"response":  reply.Text,
		"model":     reply.Model,
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

// ColumnsInfo previews column detection and data quality for an upload
// without creating a session.
func (h *AnalysisHandler) ColumnsInfo(c *gin.Context) {
	filename, data, ok := h.readUpload(c)
	if !ok {
		return
	}

	info, err := h.service.ColumnsInfo(c.Request.Context(), filename, data)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"columnsInfo": info,
	})
}

func (h *AnalysisHandler) readUpload(c *gin.Context) (string, []byte, bool) {
	file, header, err := c.Request.FormFile(uploadFormField)
	if err != nil {
		validationError(c, "No file uploaded")
		return "", nil, false
	}
	defer file.Close()

	filename := filepath.Base(header.Filename)
	if filename == "" || filename == "." {
		validationError(c, "No file selected")
		return "", nil, false
	}

	data, err := io.ReadAll(io.LimitReader(file, ingest.MaxUploadSize+1))
	if err != nil {
		h.respondError(c, err)
		return "", nil, false
	}
	return filename, data, true
}

// respondError maps pipeline errors to HTTP status codes and the response
// envelope the frontend expects.
func (h *AnalysisHandler) respondError(c *gin.Context, err error) {
	var missErr *domain.MissingColumnsError
	switch {
	case errors.As(err, &missErr):
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   missErr.Error(),
			"type":    "validation_error",
			"suggestions": []string{
				"Check that your file has required columns: Product Name, Category, Stock, Sales",
				"Ensure data is properly formatted",
				"Remove any completely empty rows or columns",
			},
		})
	case errors.Is(err, domain.ErrNoData), errors.Is(err, ingest.ErrUnsupportedFormat):
		validationError(c, err.Error())
	case errors.Is(err, ingest.ErrTooLarge):
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{
			"success": false,
			"error":   "File too large. Maximum size is 25MB.",
			"type":    "file_size_error",
		})
	case errors.Is(err, domain.ErrSessionNotFound):
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error":   "Session expired or not found. Please upload your CSV again.",
			"type":    "session_error",
		})
	default:
		log.Error().Err(err).Str("path", c.Request.URL.Path).Msg("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   "Internal server error. Please try again.",
			"type":    "server_error",
		})
	}
}

func validationError(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, gin.H{
		"success": false,
		"error":   message,
		"type":    "validation_error",
	})
}

func sessionError(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, gin.H{
		"success": false,
		"error":   message,
		"type":    "session_error",
	})
}
