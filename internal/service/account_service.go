package service

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/technofatty/technofatty/internal/config"
	"github.com/technofatty/technofatty/internal/models"
	"github.com/technofatty/technofatty/internal/notify"
	"github.com/technofatty/technofatty/internal/repository"
	"github.com/technofatty/technofatty/internal/seo"
	"github.com/technofatty/technofatty/internal/validation"
	"golang.org/x/crypto/bcrypt"
)

// Token purposes
const (
	purposeActivate = "activate"
	purposeReset    = "reset"
	purposeSession  = "session"

	defaultRole = "member"
)

// SignupRequest is the account signup form
type SignupRequest struct {
	Username  string
	Email     string
	Password1 string
	Password2 string
}

// accountClaims are carried by every account token
type accountClaims struct {
	Purpose string `json:"purpose"`
	// Binding ties reset tokens to the password they were issued against
	Binding string `json:"binding,omitempty"`
	jwt.RegisteredClaims
}

// accountService is the concrete implementation of AccountService
type accountService struct {
	users   repository.UserRepository
	mailer  notify.Mailer
	cfg     config.AuthConfig
	baseURL string
	from    string
	now     func() time.Time
	log     zerolog.Logger
}

func newAccountService(users repository.UserRepository, mailer notify.Mailer, cfg config.AuthConfig, baseURL, from string, now func() time.Time, log zerolog.Logger) *accountService {
	return &accountService{
		users:   users,
		mailer:  mailer,
		cfg:     cfg,
		baseURL: baseURL,
		from:    from,
		now:     now,
		log:     log.With().Str("service", "account").Logger(),
	}
}

// Signup creates an inactive account and emails its activation link
func (s *accountService) Signup(ctx context.Context, req SignupRequest) (*models.User, error) {
	username := strings.TrimSpace(req.Username)
	email := validation.NormalizeEmail(req.Email)

	errs := validation.ValidateSignup(username, email, req.Password1, req.Password2)
	if !errs.Has("username") {
		taken, err := s.users.UsernameExists(ctx, username)
		if err != nil {
			return nil, fmt.Errorf("check username: %w", err)
		}
		if taken {
			errs.Add("username", "A user with that username already exists.")
		}
	}
	if !errs.Has("email") {
		taken, err := s.users.EmailExists(ctx, email)
		if err != nil {
			return nil, fmt.Errorf("check email: %w", err)
		}
		if taken {
			errs.Add("email", "A user with that email already exists.")
		}
	}
	if len(errs) > 0 {
		return nil, errs
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password1), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := s.now().UTC()
	user := &models.User{
		ID:           uuid.New().String(),
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		Role:         defaultRole,
		Active:       false,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, validation.Errors{{Field: "username", Message: "A user with that username or email already exists."}}
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	token, err := s.sign(user, purposeActivate, "", s.cfg.ActivationTokenTTL)
	if err != nil {
		return nil, err
	}
	link := seo.AbsoluteURL(s.baseURL, "/activate/"+EncodeUID(user.ID)+"/"+token+"/")
	if err := s.send(ctx, user.Email, "Activate your account", "Activate your account: "+link); err != nil {
		s.log.Error().Err(err).Str("user_id", user.ID).Msg("Failed to send activation email")
	}

	s.log.Info().Str("user_id", user.ID).Msg("Account created")
	return user, nil
}

// Activate marks the account active when the token is valid
func (s *accountService) Activate(ctx context.Context, uidb64, token string) (*models.User, error) {
	user, err := s.check(ctx, uidb64, token, purposeActivate)
	if err != nil {
		return nil, err
	}
	if user.Active {
		return user, nil
	}
	user.Active = true
	user.UpdatedAt = s.now().UTC()
	if err := s.users.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("activate user: %w", err)
	}
	s.log.Info().Str("user_id", user.ID).Msg("Account activated")
	return user, nil
}

// Login verifies credentials and returns a session token
func (s *accountService) Login(ctx context.Context, username, password string) (string, *models.User, error) {
	user, err := s.users.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		return "", nil, fmt.Errorf("load user: %w", err)
	}
	if user == nil {
		return "", nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", nil, ErrInvalidCredentials
	}
	if !user.Active {
		return "", nil, ErrInactive
	}

	session, err := s.sign(user, purposeSession, "", s.cfg.SessionTTL)
	if err != nil {
		return "", nil, err
	}
	return session, user, nil
}

// Authenticate resolves a session token to an active user
func (s *accountService) Authenticate(ctx context.Context, session string) (*models.User, error) {
	claims, err := s.parse(session, purposeSession)
	if err != nil {
		return nil, err
	}
	user, err := s.users.GetByID(ctx, claims.Subject)
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if user == nil || !user.Active {
		return nil, ErrInvalidToken
	}
	return user, nil
}

// RequestPasswordReset emails a reset link. Unknown addresses are ignored.
func (s *accountService) RequestPasswordReset(ctx context.Context, email string) error {
	user, err := s.users.GetByEmail(ctx, validation.NormalizeEmail(email))
	if err != nil {
		return fmt.Errorf("load user: %w", err)
	}
	if user == nil || !user.Active {
		return nil
	}

	token, err := s.sign(user, purposeReset, passwordBinding(user.PasswordHash), s.cfg.ResetTokenTTL)
	if err != nil {
		return err
	}
	link := seo.AbsoluteURL(s.baseURL, "/account/reset/"+EncodeUID(user.ID)+"/"+token+"/")
	body := fmt.Sprintf("You requested a password reset for %s.\n\nChoose a new password: %s\n", user.Username, link)
	if err := s.send(ctx, user.Email, "Password reset on Technofatty", body); err != nil {
		return fmt.Errorf("send reset email: %w", err)
	}
	return nil
}

// CheckResetToken returns the user a reset link belongs to
func (s *accountService) CheckResetToken(ctx context.Context, uidb64, token string) (*models.User, error) {
	return s.check(ctx, uidb64, token, purposeReset)
}

// ResetPassword sets a new password. The token stops working once the password changes.
func (s *accountService) ResetPassword(ctx context.Context, uidb64, token, password1, password2 string) error {
	user, err := s.check(ctx, uidb64, token, purposeReset)
	if err != nil {
		return err
	}
	if errs := validation.ValidatePasswordPair("new_password1", "new_password2", password1, password2); len(errs) > 0 {
		return errs
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password1), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	user.PasswordHash = string(hash)
	user.UpdatedAt = s.now().UTC()
	if err := s.users.Update(ctx, user); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	s.log.Info().Str("user_id", user.ID).Msg("Password reset")
	return nil
}

// check decodes uidb64, loads the user and validates token against them
func (s *accountService) check(ctx context.Context, uidb64, token, purpose string) (*models.User, error) {
	id, err := DecodeUID(uidb64)
	if err != nil {
		return nil, ErrInvalidToken
	}
	claims, err := s.parse(token, purpose)
	if err != nil || claims.Subject != id {
		return nil, ErrInvalidToken
	}
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if user == nil {
		return nil, ErrInvalidToken
	}
	if purpose == purposeReset && claims.Binding != passwordBinding(user.PasswordHash) {
		return nil, ErrInvalidToken
	}
	return user, nil
}

func (s *accountService) sign(user *models.User, purpose, binding string, ttl time.Duration) (string, error) {
	now := s.now()
	claims := accountClaims{
		Purpose: purpose,
		Binding: binding,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.cfg.SecretKey))
	if err != nil {
		return "", fmt.Errorf("sign %s token: %w", purpose, err)
	}
	return signed, nil
}

func (s *accountService) parse(token, purpose string) (*accountClaims, error) {
	claims := &accountClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(s.cfg.SecretKey), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil || claims.Purpose != purpose {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func (s *accountService) send(ctx context.Context, to, subject, body string) error {
	if s.mailer == nil {
		return errors.New("mailer not configured")
	}
	return s.mailer.Send(ctx, notify.Message{
		From:    s.from,
		To:      []string{to},
		Subject: subject,
		Body:    body,
	})
}

// EncodeUID encodes a user id for use in emailed links
func EncodeUID(id string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(id))
}

// DecodeUID reverses EncodeUID
func DecodeUID(uidb64 string) (string, error) {
	b, err := base64.RawURLEncoding.DecodeString(uidb64)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func passwordBinding(hash string) string {
	sum := sha256.Sum256([]byte(hash))
	return hex.EncodeToString(sum[:8])
}
