package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/technofatty/technofatty/internal/config"
	"github.com/technofatty/technofatty/internal/models"
	"github.com/technofatty/technofatty/internal/ratelimit"
	"github.com/technofatty/technofatty/internal/repository"
	"github.com/technofatty/technofatty/internal/validation"
)

// PostSubmission is a community post awaiting moderation
type PostSubmission struct {
	ThreadSlug string
	AuthorName string
	Body       string
	IP         string
}

// communityService is the concrete implementation of CommunityService
type communityService struct {
	repo    repository.ModerationRepository
	limiter ratelimit.Limiter
	cfg     config.CommunityConfig
	now     func() time.Time
	log     zerolog.Logger
}

func newCommunityService(
	repo repository.ModerationRepository,
	limiter ratelimit.Limiter,
	cfg config.CommunityConfig,
	now func() time.Time,
	log zerolog.Logger,
) *communityService {
	return &communityService{
		repo:    repo,
		limiter: limiter,
		cfg:     cfg,
		now:     now,
		log:     log.With().Str("service", "community").Logger(),
	}
}

// SubmitPost queues a post for review
func (s *communityService) SubmitPost(ctx context.Context, sub PostSubmission) (*models.CommunityPost, error) {
	if errs := validation.ValidateCommunityPost(sub.AuthorName, sub.Body); len(errs) > 0 {
		return nil, errs
	}

	allowed, err := s.limiter.CheckAndIncrement(ctx, ratelimit.CommunityPostKey(sub.IP), s.cfg.PostRateLimit, s.cfg.PostRateWindow)
	if err != nil {
		s.log.Warn().Err(err).Msg("Community rate limit check failed")
		allowed = true
	}
	if !allowed {
		s.log.Info().Str("event", "throttle_hit").Str("ip_hash", hashIP(sub.IP)).Msg("Community post throttled")
		return nil, ErrThrottled
	}

	post := &models.CommunityPost{
		ID:         uuid.New().String(),
		ThreadSlug: sub.ThreadSlug,
		AuthorName: strings.TrimSpace(sub.AuthorName),
		Body:       strings.TrimSpace(sub.Body),
		IPHash:     hashIP(sub.IP),
		Status:     models.PostStatusPending,
		CreatedAt:  s.now(),
	}
	if err := s.repo.CreatePost(ctx, post); err != nil {
		return nil, fmt.Errorf("queue post: %w", err)
	}

	s.log.Info().Str("post_id", post.ID).Str("thread", post.ThreadSlug).Msg("Community post queued")
	return post, nil
}

// Report appends a moderation report
func (s *communityService) Report(ctx context.Context, targetType, targetID, reason, ip string) error {
	var errs validation.Errors
	if targetType != models.TargetThread && targetType != models.TargetPost {
		errs.Add("target_type", "must be thread or post")
	}
	if strings.TrimSpace(targetID) == "" {
		errs.Add("target_id", validation.MsgRequired)
	}
	if len(errs) > 0 {
		return errs
	}

	report := &models.ModerationReport{
		ID:         uuid.New().String(),
		TargetType: targetType,
		TargetID:   targetID,
		Reason:     strings.TrimSpace(reason),
		IPHash:     hashIP(ip),
		Status:     models.ReportStatusPending,
		CreatedAt:  s.now(),
	}
	if err := s.repo.CreateReport(ctx, report); err != nil {
		return fmt.Errorf("store report: %w", err)
	}

	s.log.Info().Str("report_id", report.ID).Str("target_type", targetType).Str("target_id", targetID).Msg("Moderation report received")
	return nil
}

func (s *communityService) ListReports(ctx context.Context, status models.ReportStatus, limit int) ([]*models.ModerationReport, error) {
	return s.repo.ListReports(ctx, status, limit)
}

// ClaimNextReport hands the oldest pending report to moderator. It returns
// nil when the queue is empty.
func (s *communityService) ClaimNextReport(ctx context.Context, moderator string) (*models.ModerationReport, error) {
	report, err := s.repo.ClaimNextReport(ctx, s.now())
	if err != nil {
		return nil, fmt.Errorf("claim report: %w", err)
	}
	if report != nil {
		s.audit("claim_report", moderator, report.ID, string(report.Status))
	}
	return report, nil
}

// ResolveReport closes an open report as resolved or dismissed
func (s *communityService) ResolveReport(ctx context.Context, id string, status models.ReportStatus, moderator string) error {
	if status != models.ReportStatusResolved && status != models.ReportStatusDismissed {
		var errs validation.Errors
		errs.Add("status", "must be resolved or dismissed")
		return errs
	}
	ok, err := s.repo.ResolveReport(ctx, id, status, s.now())
	if err != nil {
		return fmt.Errorf("resolve report: %w", err)
	}
	if !ok {
		return ErrNotFound
	}
	s.audit("resolve_report", moderator, id, string(status))
	return nil
}

func (s *communityService) ListPosts(ctx context.Context, status models.PostStatus, limit int) ([]*models.CommunityPost, error) {
	return s.repo.ListPosts(ctx, status, limit)
}

// ReviewPost approves or rejects a pending post
func (s *communityService) ReviewPost(ctx context.Context, id string, approve bool, moderator string) error {
	status := models.PostStatusRejected
	if approve {
		status = models.PostStatusApproved
	}
	ok, err := s.repo.ReviewPost(ctx, id, status, s.now())
	if err != nil {
		return fmt.Errorf("review post: %w", err)
	}
	if !ok {
		return ErrNotFound
	}
	s.audit("review_post", moderator, id, string(status))
	return nil
}

func (s *communityService) audit(action, moderator, id, status string) {
	s.log.Info().
		Str("event", "moderation_action").
		Str("action", action).
		Str("moderator", moderator).
		Str("id", id).
		Str("status", status).
		Msg("Moderation action")
}
