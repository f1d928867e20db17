// Package newsletter defines the subscription provider contract, the local
// stub provider and the user-facing copy for signup outcomes.
package newsletter

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/technofatty/technofatty/internal/config"
	"github.com/technofatty/technofatty/internal/models"
	"github.com/technofatty/technofatty/internal/repository"
)

// Result is the outcome of a subscribe call.
type Result string

const (
	ResultSuccess      Result = "success"
	ResultAlready      Result = "already"
	ResultNeedsConfirm Result = "needs_confirm"
	ResultServerBusy   Result = "server_busy"
	ResultError        Result = "error"
)

// ErrTimeout is returned by providers whose upstream call timed out.
var ErrTimeout = errors.New("newsletter: provider timeout")

// Subscriber carries request metadata stored alongside a signup.
type Subscriber struct {
	IP     string
	UA     string
	Source string
}

// Provider subscribes an address to the mailing list.
type Provider interface {
	Name() string
	Subscribe(ctx context.Context, email string, sub Subscriber) (Result, error)
}

// IsTimeout reports whether err means the provider did not answer in time.
func IsTimeout(err error) bool {
	return errors.Is(err, ErrTimeout) || errors.Is(err, context.DeadlineExceeded)
}

// StubProvider stores signups as local leads instead of calling a
// mailing-list service.
type StubProvider struct {
	leads     repository.LeadRepository
	optInMode string
	now       func() time.Time
}

// NewStubProvider creates the local provider.
func NewStubProvider(leads repository.LeadRepository, optInMode string) *StubProvider {
	return &StubProvider{leads: leads, optInMode: optInMode, now: time.Now}
}

func (p *StubProvider) Name() string { return "stub" }

func (p *StubProvider) Subscribe(ctx context.Context, email string, sub Subscriber) (Result, error) {
	lead := &models.NewsletterLead{
		ID:        uuid.NewString(),
		Email:     email,
		IP:        sub.IP,
		UA:        sub.UA,
		Source:    sub.Source,
		Status:    models.LeadStatusSubscribed,
		CreatedAt: p.now(),
	}
	if p.optInMode == config.OptInDouble {
		lead.Status = models.LeadStatusPending
	}

	err := p.leads.Create(ctx, lead)
	switch {
	case err == nil:
		if lead.Status == models.LeadStatusPending {
			return ResultNeedsConfirm, nil
		}
		return ResultSuccess, nil
	case errors.Is(err, repository.ErrDuplicate):
		return ResultAlready, nil
	case IsTimeout(err):
		return ResultServerBusy, err
	default:
		return ResultError, err
	}
}

// NewProvider returns the provider named by NEWSLETTER_PROVIDER.
func NewProvider(cfg config.NewsletterConfig, leads repository.LeadRepository) (Provider, error) {
	switch cfg.Provider {
	case "", "stub":
		return NewStubProvider(leads, cfg.OptInMode), nil
	default:
		return nil, fmt.Errorf("unknown newsletter provider %q", cfg.Provider)
	}
}
