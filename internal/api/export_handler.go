package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/technofatty/technofatty/internal/service"
)

// ExportHandler handles newsletter lead exports
type ExportHandler struct {
	services *service.Services
	log      zerolog.Logger
}

// NewExportHandler creates a new ExportHandler
func NewExportHandler(services *service.Services, log zerolog.Logger) *ExportHandler {
	return &ExportHandler{
		services: services,
		log:      log.With().Str("handler", "export").Logger(),
	}
}

// StreamLeads handles GET /admin/exports/newsletter-leads?format=...
// Streams every lead directly to the response
func (h *ExportHandler) StreamLeads(c *gin.Context) {
	ctx := c.Request.Context()

	format := c.Query("format")
	if format == "" {
		format = service.ExportNDJSON // Default to NDJSON for streaming
	}
	if format != service.ExportNDJSON && format != service.ExportJSON && format != service.ExportCSV {
		c.JSON(http.StatusBadRequest, gin.H{"error": "format must be one of: ndjson, json, csv"})
		return
	}

	h.log.Info().
		Str("format", format).
		Msg("Starting lead export")

	if err := h.services.Export.StreamLeads(ctx, c.Writer, format); err != nil {
		h.log.Error().Err(err).Str("format", format).Msg("Export failed")
		// Can't return error JSON after streaming has started
		return
	}
}

// Metrics handles GET /admin/metrics
func (h *ExportHandler) Metrics(c *gin.Context) {
	leads, err := h.services.Export.CountLeads(c.Request.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to count leads")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to count leads"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"database": gin.H{
			"newsletter_leads": leads,
		},
		"timestamp": time.Now().Format(time.RFC3339),
	})
}
