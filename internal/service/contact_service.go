package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/technofatty/technofatty/internal/config"
	"github.com/technofatty/technofatty/internal/models"
	"github.com/technofatty/technofatty/internal/notify"
	"github.com/technofatty/technofatty/internal/ratelimit"
	"github.com/technofatty/technofatty/internal/repository"
	"github.com/technofatty/technofatty/internal/validation"
)

// Contact event types
const (
	ContactSubmittedInvalid = "submitted_invalid"
	ContactSubmittedSuccess = "submitted_success"
	ContactHoneypotHit      = "honeypot_hit"
	ContactThrottleHit      = "throttle_hit"
	ContactSendFailed       = "send_failed"
)

// ContactSubmission is one contact form POST
type ContactSubmission struct {
	Name    string
	Email   string
	Subject string
	Message string
	// Website is the honeypot field
	Website string
	IP      string
	UA      string
}

// contactService is the concrete implementation of ContactService
type contactService struct {
	events   repository.ContactEventRepository
	limiter  ratelimit.Limiter
	notifier notify.Notifier
	cfg      config.ContactConfig
	now      func() time.Time
	log      zerolog.Logger
}

func newContactService(
	events repository.ContactEventRepository,
	limiter ratelimit.Limiter,
	notifier notify.Notifier,
	cfg config.ContactConfig,
	now func() time.Time,
	log zerolog.Logger,
) *contactService {
	return &contactService{
		events:   events,
		limiter:  limiter,
		notifier: notifier,
		cfg:      cfg,
		now:      now,
		log:      log.With().Str("service", "contact").Logger(),
	}
}

func (s *contactService) Submit(ctx context.Context, sub ContactSubmission) validation.Errors {
	sub.Name = strings.TrimSpace(sub.Name)
	sub.Email = strings.TrimSpace(sub.Email)
	sub.Subject = strings.TrimSpace(sub.Subject)

	emailHash := ratelimit.HashEmail(sub.Email)

	if errs := validation.ValidateContact(sub.Name, sub.Email, sub.Subject, sub.Message); len(errs) > 0 {
		fields := make([]string, 0, len(errs))
		for _, e := range errs {
			fields = append(fields, e.Field)
		}
		s.record(ctx, ContactSubmittedInvalid, sub.IP, map[string]interface{}{"fields": fields})
		return errs
	}

	if strings.TrimSpace(sub.Website) != "" {
		s.record(ctx, ContactHoneypotHit, sub.IP, map[string]interface{}{"email_hash": emailHash})
		return nil
	}

	allowed, err := s.limiter.CheckAndIncrement(ctx, ratelimit.ContactKey(sub.IP, sub.Email), s.cfg.RateLimit, s.cfg.RateWindow)
	if err != nil {
		// Limiter errors let the message through.
		s.log.Warn().Err(err).Msg("Contact rate limit check failed")
		allowed = true
	}
	if !allowed {
		s.record(ctx, ContactThrottleHit, sub.IP, map[string]interface{}{"email_hash": emailHash})
		return nil
	}

	if err := s.notifier.Send(ctx, sub.Name, sub.Email, sub.Subject, sub.Message); err != nil {
		s.log.Error().Err(err).Str("email_hash", emailHash).Msg("Contact notification failed")
		s.record(ctx, ContactSendFailed, sub.IP, map[string]interface{}{"email_hash": emailHash, "error": err.Error()})
		return nil
	}

	s.record(ctx, ContactSubmittedSuccess, sub.IP, map[string]interface{}{"email_hash": emailHash, "subject": sub.Subject})
	return nil
}

// record logs a contact event and stores it with a hashed IP. Storage
// failures are logged and otherwise ignored.
func (s *contactService) record(ctx context.Context, eventType, ip string, meta map[string]interface{}) {
	ipHash := hashIP(ip)
	s.log.Info().
		Str("event_type", eventType).
		Str("ip_hash", ipHash).
		Interface("meta", meta).
		Msg("Contact event")

	event := &models.ContactEvent{
		ID:        uuid.New().String(),
		EventType: eventType,
		Meta:      meta,
		IPHash:    ipHash,
		Timestamp: s.now(),
	}
	if err := s.events.Create(ctx, event); err != nil {
		s.log.Warn().Err(err).Str("event_type", eventType).Msg("Failed to store contact event")
	}
}

func hashIP(ip string) string {
	if ip == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(ip))
	return hex.EncodeToString(sum[:])
}
