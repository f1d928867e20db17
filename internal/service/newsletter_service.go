package service

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/technofatty/technofatty/internal/config"
	"github.com/technofatty/technofatty/internal/newsletter"
	"github.com/technofatty/technofatty/internal/ratelimit"
	"github.com/technofatty/technofatty/internal/validation"
)

// Newsletter log events
const (
	EventSubscribeAttempt = "newsletter_subscribe_attempt"
	EventSubscribeSuccess = "newsletter_subscribe_success"
	EventSubscribeFailure = "newsletter_subscribe_failure"
	EventBlockView        = "newsletter_block_view"

	resultHoneypot   = "honeypot"
	resultValidation = "validation"
	defaultSource    = "signup"
)

// NewsletterSignup is one signup form POST
type NewsletterSignup struct {
	Email string
	// Website is the honeypot field
	Website string
	Source  string
	IP      string
	UA      string
}

// NewsletterOutcome is what the visitor is shown
type NewsletterOutcome struct {
	Success bool   `json:"-"`
	Status  string `json:"status"`
	Message string `json:"message"`
	// Result is the logged outcome; it is never shown to the visitor
	Result string `json:"-"`
}

// newsletterService is the concrete implementation of NewsletterService
type newsletterService struct {
	provider newsletter.Provider
	limiter  ratelimit.Limiter
	cfg      config.NewsletterConfig
	log      zerolog.Logger
}

func newNewsletterService(provider newsletter.Provider, limiter ratelimit.Limiter, cfg config.NewsletterConfig, log zerolog.Logger) *newsletterService {
	return &newsletterService{
		provider: provider,
		limiter:  limiter,
		cfg:      cfg,
		log:      log.With().Str("service", "newsletter").Logger(),
	}
}

func success(message, result string) NewsletterOutcome {
	return NewsletterOutcome{Success: true, Status: "success", Message: message, Result: result}
}

func failure(message, result string) NewsletterOutcome {
	return NewsletterOutcome{Success: false, Status: "error", Message: message, Result: result}
}

// Subscribe runs the signup pipeline. Honeypot hits look like a normal
// signup; throttling and provider timeouts share the server-busy copy.
func (s *newsletterService) Subscribe(ctx context.Context, signup NewsletterSignup) NewsletterOutcome {
	email := validation.NormalizeEmail(signup.Email)
	s.event(EventSubscribeAttempt, email, signup, "", -1)

	if strings.TrimSpace(signup.Website) != "" {
		s.event(EventSubscribeFailure, email, signup, resultHoneypot, -1)
		return success(newsletter.SuccessMessage(s.cfg.OptInMode, newsletter.ResultSuccess), resultHoneypot)
	}

	switch {
	case email == "":
		s.event(EventSubscribeFailure, email, signup, resultValidation, -1)
		return failure(newsletter.MsgRequiredEmail, resultValidation)
	case !validation.IsValidEmail(email):
		s.event(EventSubscribeFailure, email, signup, resultValidation, -1)
		return failure(newsletter.MsgInvalidEmail, resultValidation)
	}

	if !s.allow(ctx,
		ratelimit.Rule{Key: ratelimit.NewsletterIPKey(signup.IP), Limit: s.cfg.IPPerHour, Window: time.Hour},
		ratelimit.Rule{Key: ratelimit.NewsletterEmailKey(email), Limit: s.cfg.EmailPerHour, Window: time.Hour},
	) {
		s.event(EventSubscribeFailure, email, signup, string(newsletter.ResultServerBusy), -1)
		return failure(newsletter.MsgServerBusy, string(newsletter.ResultServerBusy))
	}

	source := signup.Source
	if source == "" {
		source = defaultSource
	}
	callCtx := ctx
	if s.cfg.ProviderTimeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, s.cfg.ProviderTimeout)
		defer cancel()
	}

	start := time.Now()
	result, err := s.provider.Subscribe(callCtx, email, newsletter.Subscriber{IP: signup.IP, UA: signup.UA, Source: source})
	duration := time.Since(start)

	if err != nil {
		s.log.Error().Err(err).Str("provider", s.provider.Name()).Msg("Newsletter provider failed")
		if newsletter.IsTimeout(err) {
			s.event(EventSubscribeFailure, email, signup, string(newsletter.ResultServerBusy), duration)
			return failure(newsletter.MsgServerBusy, string(newsletter.ResultServerBusy))
		}
		s.event(EventSubscribeFailure, email, signup, string(newsletter.ResultError), duration)
		return failure(newsletter.MsgError, string(newsletter.ResultError))
	}

	switch result {
	case newsletter.ResultSuccess, newsletter.ResultAlready, newsletter.ResultNeedsConfirm:
		s.event(EventSubscribeSuccess, email, signup, string(result), duration)
		return success(newsletter.SuccessMessage(s.cfg.OptInMode, result), string(result))
	case newsletter.ResultServerBusy:
		s.event(EventSubscribeFailure, email, signup, string(result), duration)
		return failure(newsletter.MsgServerBusy, string(result))
	default:
		s.event(EventSubscribeFailure, email, signup, string(result), duration)
		return failure(newsletter.MsgError, string(result))
	}
}

// allow counts one signup against the IP and email limits together, so an
// attempt rejected by either uses up neither. Limiter errors count as allowed.
func (s *newsletterService) allow(ctx context.Context, rules ...ratelimit.Rule) bool {
	allowed, err := s.limiter.Allow(ctx, rules...)
	if err != nil {
		s.log.Warn().Err(err).Msg("Newsletter rate limit check failed")
		return true
	}
	return allowed
}

// event writes one structured newsletter log line. A negative duration is omitted.
func (s *newsletterService) event(name, email string, signup NewsletterSignup, result string, duration time.Duration) {
	e := s.log.Info().
		Str("event", name).
		Str("email_hash", emailHash(email)).
		Str("ip", signup.IP).
		Str("ua", signup.UA).
		Str("provider", s.provider.Name()).
		Str("opt_in_mode", s.cfg.OptInMode)
	if result != "" {
		e = e.Str("result", result)
	}
	if duration >= 0 {
		e = e.Float64("duration_ms", float64(duration.Microseconds())/1000)
	}
	e.Msg(name)
}

// RecordBlockView logs that the signup block was rendered
func (s *newsletterService) RecordBlockView(ctx context.Context, ip, ua, path string) {
	s.log.Info().
		Str("event", EventBlockView).
		Str("ip", ip).
		Str("ua", ua).
		Str("path", path).
		Str("provider", s.provider.Name()).
		Str("opt_in_mode", s.cfg.OptInMode).
		Msg(EventBlockView)
}

func emailHash(email string) string {
	if email == "" {
		return ""
	}
	return ratelimit.HashEmail(email)
}
