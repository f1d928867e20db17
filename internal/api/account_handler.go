package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/technofatty/technofatty/internal/config"
	"github.com/technofatty/technofatty/internal/models"
	"github.com/technofatty/technofatty/internal/service"
)

const sessionCookie = "tf_session"

// AccountHandler handles signup, activation, login and password reset
type AccountHandler struct {
	services *service.Services
	cfg      *config.Config
	log      zerolog.Logger
}

// NewAccountHandler creates a new AccountHandler
func NewAccountHandler(services *service.Services, cfg *config.Config, log zerolog.Logger) *AccountHandler {
	return &AccountHandler{
		services: services,
		cfg:      cfg,
		log:      log.With().Str("handler", "account").Logger(),
	}
}

type signupForm struct {
	Username  string `form:"username" json:"username"`
	Email     string `form:"email" json:"email"`
	Password1 string `form:"password1" json:"password1"`
	Password2 string `form:"password2" json:"password2"`
}

type loginForm struct {
	Username string `form:"username" json:"username"`
	Password string `form:"password" json:"password"`
	Next     string `form:"next" json:"next"`
}

type resetForm struct {
	NewPassword1 string `form:"new_password1" json:"new_password1"`
	NewPassword2 string `form:"new_password2" json:"new_password2"`
}

// Signup handles POST /account/signup/
func (h *AccountHandler) Signup(c *gin.Context) {
	var form signupForm
	if err := c.ShouldBind(&form); err != nil {
		h.log.Debug().Err(err).Msg("Unreadable signup form")
	}

	user, err := h.services.Account.Signup(c.Request.Context(), service.SignupRequest{
		Username:  form.Username,
		Email:     form.Email,
		Password1: form.Password1,
		Password2: form.Password2,
	})
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"status":  "activation_sent",
		"message": "Check your email to activate your account.",
		"user":    user,
	})
}

// Activate handles GET /activate/:uid/:token/
func (h *AccountHandler) Activate(c *gin.Context) {
	user, err := h.services.Account.Activate(c.Request.Context(), c.Param("uid"), c.Param("token"))
	if err != nil {
		h.tokenError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "activated", "username": user.Username})
}

// LoginPage handles GET /account/login/
func (h *AccountHandler) LoginPage(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"next": safeNext(c.Query("next"))})
}

// Login handles POST /account/login/ and sets the session cookie
func (h *AccountHandler) Login(c *gin.Context) {
	var form loginForm
	if err := c.ShouldBind(&form); err != nil {
		h.log.Debug().Err(err).Msg("Unreadable login form")
	}

	session, user, err := h.services.Account.Login(c.Request.Context(), form.Username, form.Password)
	switch {
	case errors.Is(err, service.ErrInvalidCredentials), errors.Is(err, service.ErrInactive):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	case err != nil:
		respondError(c, h.log, err)
		return
	}

	h.setSession(c, session, h.cfg.Auth.SessionTTL)
	h.log.Info().Str("user_id", user.ID).Msg("User logged in")
	c.Redirect(http.StatusFound, safeNext(form.Next))
}

// Logout handles GET /account/logout/
func (h *AccountHandler) Logout(c *gin.Context) {
	h.setSession(c, "", -time.Second)
	c.Redirect(http.StatusFound, "/")
}

// Profile handles GET /account/ for a logged-in user
func (h *AccountHandler) Profile(c *gin.Context) {
	user, ok := c.MustGet(ctxUser).(*models.User)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}

// RequestPasswordReset handles POST /account/password-reset/. The response
// is the same whether or not the address belongs to an account.
func (h *AccountHandler) RequestPasswordReset(c *gin.Context) {
	email := c.PostForm("email")
	if err := h.services.Account.RequestPasswordReset(c.Request.Context(), email); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":  "sent",
		"message": "If an account exists for that address, we've emailed instructions for setting a new password.",
	})
}

// CheckReset handles GET /account/reset/:uid/:token/
func (h *AccountHandler) CheckReset(c *gin.Context) {
	if _, err := h.services.Account.CheckResetToken(c.Request.Context(), c.Param("uid"), c.Param("token")); err != nil {
		h.tokenError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"valid": true})
}

// ResetPassword handles POST /account/reset/:uid/:token/
func (h *AccountHandler) ResetPassword(c *gin.Context) {
	var form resetForm
	if err := c.ShouldBind(&form); err != nil {
		h.log.Debug().Err(err).Msg("Unreadable reset form")
	}

	err := h.services.Account.ResetPassword(c.Request.Context(), c.Param("uid"), c.Param("token"), form.NewPassword1, form.NewPassword2)
	if err != nil {
		h.tokenError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "password_changed"})
}

func (h *AccountHandler) tokenError(c *gin.Context, err error) {
	if errors.Is(err, service.ErrInvalidToken) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	respondError(c, h.log, err)
}

func (h *AccountHandler) setSession(c *gin.Context, value string, ttl time.Duration) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     sessionCookie,
		Value:    value,
		Path:     "/",
		MaxAge:   int(ttl / time.Second),
		HttpOnly: true,
		Secure:   h.cfg.IsProduction(),
		SameSite: http.SameSiteLaxMode,
	})
}

// safeNext keeps post-login redirects on this site
func safeNext(next string) string {
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.Contains(next, `\`) {
		return "/account/"
	}
	return next
}
