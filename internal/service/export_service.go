package service

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/technofatty/technofatty/internal/models"
	"github.com/technofatty/technofatty/internal/repository"
)

// Export formats
const (
	ExportCSV    = "csv"
	ExportNDJSON = "ndjson"
	ExportJSON   = "json"

	flushEvery = 100
)

// exportService is the concrete implementation of ExportService
type exportService struct {
	leads repository.LeadRepository
	log   zerolog.Logger
}

// newExportService creates a new ExportService
func newExportService(leads repository.LeadRepository, log zerolog.Logger) *exportService {
	return &exportService{
		leads: leads,
		log:   log.With().Str("service", "export").Logger(),
	}
}

// StreamLeads streams newsletter leads in the specified format
func (s *exportService) StreamLeads(ctx context.Context, w http.ResponseWriter, format string) error {
	s.log.Info().Str("format", format).Msg("Starting leads export")

	switch format {
	case ExportNDJSON:
		return s.streamNDJSON(ctx, w)
	case ExportJSON:
		return s.streamJSON(ctx, w)
	case ExportCSV:
		return s.streamCSV(ctx, w)
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}

// CountLeads returns the number of captured leads
func (s *exportService) CountLeads(ctx context.Context) (int, error) {
	return s.leads.Count(ctx)
}

func (s *exportService) streamNDJSON(ctx context.Context, w http.ResponseWriter) error {
	w.Header().Set("Content-Type", "application/x-ndjson")
	w.Header().Set("Content-Disposition", "attachment; filename=leads.ndjson")

	flusher, _ := w.(http.Flusher)
	count := 0

	err := s.leads.StreamAll(ctx, func(lead *models.NewsletterLead) error {
		data, err := json.Marshal(lead)
		if err != nil {
			return err
		}
		data = append(data, '\n')
		if _, err := w.Write(data); err != nil {
			return err
		}
		count++

		if count%flushEvery == 0 && flusher != nil {
			flusher.Flush()
		}
		return nil
	})

	s.log.Info().Int("count", count).Msg("Leads export completed")
	return err
}

func (s *exportService) streamJSON(ctx context.Context, w http.ResponseWriter) error {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", "attachment; filename=leads.json")

	w.Write([]byte("["))
	first := true

	err := s.leads.StreamAll(ctx, func(lead *models.NewsletterLead) error {
		if !first {
			w.Write([]byte(","))
		}
		first = false

		data, err := json.Marshal(lead)
		if err != nil {
			return err
		}
		_, err = w.Write(data)
		return err
	})

	w.Write([]byte("]"))
	return err
}

func (s *exportService) streamCSV(ctx context.Context, w http.ResponseWriter) error {
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", "attachment; filename=leads.csv")

	writer := csv.NewWriter(w)
	defer writer.Flush()

	if err := writer.Write([]string{"id", "email", "source", "status", "created_at"}); err != nil {
		return err
	}

	return s.leads.StreamAll(ctx, func(lead *models.NewsletterLead) error {
		return writer.Write([]string{
			lead.ID,
			lead.Email,
			lead.Source,
			lead.Status,
			lead.CreatedAt.UTC().Format(time.RFC3339),
		})
	})
}
