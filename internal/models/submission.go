package models

import (
	"time"
)

// ContactEvent records one step of a contact form submission.
type ContactEvent struct {
	ID        string                 `json:"id" db:"id"`
	EventType string                 `json:"event_type" db:"event_type"`
	Meta      map[string]interface{} `json:"meta" db:"meta"`
	IPHash    string                 `json:"ip_hash" db:"ip_hash"`
	Timestamp time.Time              `json:"timestamp" db:"timestamp"`
}

// Lead statuses
const (
	LeadStatusSubscribed = "subscribed"
	LeadStatusPending    = "pending"
)

// NewsletterLead is a captured newsletter signup.
type NewsletterLead struct {
	ID        string    `json:"id" db:"id"`
	Email     string    `json:"email" db:"email"`
	IP        string    `json:"ip,omitempty" db:"ip"`
	UA        string    `json:"ua,omitempty" db:"ua"`
	Source    string    `json:"source" db:"source"`
	Status    string    `json:"status" db:"status"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
