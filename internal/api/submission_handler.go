package api

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/technofatty/technofatty/internal/config"
	"github.com/technofatty/technofatty/internal/flash"
	"github.com/technofatty/technofatty/internal/service"
)

const (
	contactSentURL    = "/contact/?sent=1"
	contactSentBanner = "Your message has been sent."
	signupAnchor      = "#signup"
)

// SubmissionHandler handles the contact form and newsletter signups
type SubmissionHandler struct {
	services *service.Services
	cfg      *config.Config
	log      zerolog.Logger
}

// NewSubmissionHandler creates a new SubmissionHandler
func NewSubmissionHandler(services *service.Services, cfg *config.Config, log zerolog.Logger) *SubmissionHandler {
	return &SubmissionHandler{
		services: services,
		cfg:      cfg,
		log:      log.With().Str("handler", "submission").Logger(),
	}
}

type contactForm struct {
	Name    string `form:"name" json:"name"`
	Email   string `form:"email" json:"email"`
	Subject string `form:"subject" json:"subject"`
	Message string `form:"message" json:"message"`
	Website string `form:"website" json:"website"`
}

type newsletterForm struct {
	Email   string `form:"email" json:"email"`
	Website string `form:"website" json:"website"`
	Source  string `form:"source" json:"source"`
}

// ContactPage handles GET /contact/
func (h *SubmissionHandler) ContactPage(c *gin.Context) {
	body := gin.H{"sent": false}
	if c.Query("sent") == "1" {
		body["sent"] = true
		body["message"] = contactSentBanner
	}
	c.JSON(http.StatusOK, body)
}

// Contact handles POST /contact/. Only invalid input is reported back;
// honeypot hits, throttling and delivery failures all redirect to the sent page.
func (h *SubmissionHandler) Contact(c *gin.Context) {
	var form contactForm
	if err := c.ShouldBind(&form); err != nil {
		h.log.Debug().Err(err).Msg("Unreadable contact form")
	}

	errs := h.services.Contact.Submit(c.Request.Context(), service.ContactSubmission{
		Name:    form.Name,
		Email:   form.Email,
		Subject: form.Subject,
		Message: form.Message,
		Website: form.Website,
		IP:      c.ClientIP(),
		UA:      c.Request.UserAgent(),
	})
	if len(errs) > 0 {
		c.JSON(http.StatusOK, gin.H{
			"errors":    errs.Fields(),
			"autofocus": errs.First(),
		})
		return
	}
	c.Redirect(http.StatusFound, contactSentURL)
}

// Subscribe handles POST /newsletter/subscribe/
func (h *SubmissionHandler) Subscribe(c *gin.Context) {
	var form newsletterForm
	if err := c.ShouldBind(&form); err != nil {
		h.log.Debug().Err(err).Msg("Unreadable newsletter form")
	}

	outcome := h.services.Newsletter.Subscribe(c.Request.Context(), service.NewsletterSignup{
		Email:   form.Email,
		Website: form.Website,
		Source:  form.Source,
		IP:      c.ClientIP(),
		UA:      c.Request.UserAgent(),
	})

	if h.cfg.Newsletter.Redirect || !wantsJSON(c) {
		kind := flash.KindSuccess
		if !outcome.Success {
			kind = flash.KindError
		}
		flash.Write(c.Writer, flash.Notice{Kind: kind, Message: outcome.Message, Field: "email"}, h.cfg.IsProduction())
		c.Redirect(http.StatusSeeOther, signupRedirect(c.Request.Referer()))
		return
	}

	status := http.StatusOK
	if !outcome.Success {
		status = http.StatusBadRequest
	}
	c.JSON(status, outcome)
}

// BlockView handles GET /newsletter/block-view
func (h *SubmissionHandler) BlockView(c *gin.Context) {
	h.services.Newsletter.RecordBlockView(c.Request.Context(), c.ClientIP(), c.Request.UserAgent(), c.Query("path"))
	c.Status(http.StatusNoContent)
}

// wantsJSON reports whether the request came from a script expecting JSON
func wantsJSON(c *gin.Context) bool {
	if c.GetHeader("X-Requested-With") == "XMLHttpRequest" {
		return true
	}
	return strings.Contains(c.GetHeader("Accept"), "application/json") ||
		strings.HasPrefix(c.ContentType(), "application/json")
}

// signupRedirect returns the referring page anchored at the signup block
func signupRedirect(referer string) string {
	return localPath(referer, "/") + signupAnchor
}

// localPath reduces a referer to its same-site path and query, so redirects
// never leave the site. An empty or unparsable referer yields fallback.
func localPath(referer, fallback string) string {
	if referer == "" {
		return fallback
	}
	u, err := url.Parse(referer)
	if err != nil {
		return fallback
	}
	u.Fragment = ""
	if u.Path == "" {
		u.Path = "/"
	}
	return u.RequestURI()
}
