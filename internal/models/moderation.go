package models

import (
	"time"
)

// ReportStatus tracks a moderation report through review.
type ReportStatus string

const (
	ReportStatusPending   ReportStatus = "pending"
	ReportStatusReviewing ReportStatus = "reviewing"
	ReportStatusResolved  ReportStatus = "resolved"
	ReportStatusDismissed ReportStatus = "dismissed"
)

// Report target kinds
const (
	TargetThread = "thread"
	TargetPost   = "post"
)

// ModerationReport is a user report against community content.
type ModerationReport struct {
	ID         string       `json:"id" db:"id"`
	TargetType string       `json:"target_type" db:"target_type"`
	TargetID   string       `json:"target_id" db:"target_id"`
	Reason     string       `json:"reason" db:"reason"`
	IPHash     string       `json:"-" db:"ip_hash"`
	Status     ReportStatus `json:"status" db:"status"`
	CreatedAt  time.Time    `json:"created_at" db:"created_at"`
	ClaimedAt  *time.Time   `json:"claimed_at,omitempty" db:"claimed_at"`
	ResolvedAt *time.Time   `json:"resolved_at,omitempty" db:"resolved_at"`
}

// PostStatus tracks a community post awaiting approval.
type PostStatus string

const (
	PostStatusPending  PostStatus = "pending"
	PostStatusApproved PostStatus = "approved"
	PostStatusRejected PostStatus = "rejected"
)

// CommunityPost is a queued community submission.
type CommunityPost struct {
	ID         string     `json:"id" db:"id"`
	ThreadSlug string     `json:"thread_slug" db:"thread_slug"`
	AuthorName string     `json:"author_name" db:"author_name"`
	Body       string     `json:"body" db:"body"`
	IPHash     string     `json:"-" db:"ip_hash"`
	Status     PostStatus `json:"status" db:"status"`
	CreatedAt  time.Time  `json:"created_at" db:"created_at"`
	ReviewedAt *time.Time `json:"reviewed_at,omitempty" db:"reviewed_at"`
}

// MaxPostWords is the maximum allowed words in a community post body
const MaxPostWords = 500
