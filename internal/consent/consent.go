// Package consent stores the visitor's analytics decision in an HMAC-signed cookie.
package consent

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/technofatty/technofatty/internal/config"
)

// Cookie values
const (
	ValueGranted  = "true"
	ValueDeclined = "false"
)

const salt = "technofatty.consent"

var ErrBadSignature = errors.New("consent: bad signature")

// Signer signs and verifies cookie values as "value.signature".
type Signer struct {
	key []byte
}

// NewSigner derives the signing key from the application secret.
func NewSigner(secret string) *Signer {
	sum := sha256.Sum256([]byte(salt + secret))
	return &Signer{key: sum[:]}
}

func (s *Signer) Sign(value string) string {
	return value + "." + s.signature(value)
}

// Unsign returns the value if the signature matches.
func (s *Signer) Unsign(signed string) (string, error) {
	i := strings.LastIndexByte(signed, '.')
	if i < 0 {
		return "", ErrBadSignature
	}
	value, sig := signed[:i], signed[i+1:]
	if !hmac.Equal([]byte(sig), []byte(s.signature(value))) {
		return "", ErrBadSignature
	}
	return value, nil
}

func (s *Signer) signature(value string) string {
	mac := hmac.New(sha256.New, s.key)
	_, _ = mac.Write([]byte(value))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

// State is the decision read from a request.
type State struct {
	Granted  bool
	Decided  bool
	Required bool
}

// Manager reads and writes the consent cookie.
type Manager struct {
	cfg    config.ConsentConfig
	signer *Signer
}

func NewManager(cfg config.ConsentConfig, secret string) *Manager {
	return &Manager{cfg: cfg, signer: NewSigner(secret)}
}

// Read returns the visitor's decision. A missing or tampered cookie means no decision.
func (m *Manager) Read(r *http.Request) State {
	state := State{Required: m.cfg.Required}
	c, err := r.Cookie(m.cfg.CookieName)
	if err != nil {
		return state
	}
	value, err := m.signer.Unsign(c.Value)
	if err != nil {
		return state
	}
	switch value {
	case ValueGranted:
		state.Granted, state.Decided = true, true
	case ValueDeclined:
		state.Decided = true
	}
	return state
}

// Write stores the decision.
func (m *Manager) Write(w http.ResponseWriter, granted bool) {
	value := ValueDeclined
	if granted {
		value = ValueGranted
	}
	http.SetCookie(w, &http.Cookie{
		Name:     m.cfg.CookieName,
		Value:    m.signer.Sign(value),
		Path:     "/",
		MaxAge:   int(m.cfg.MaxAge / time.Second),
		HttpOnly: true,
		Secure:   m.cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}
