// Package notify delivers outgoing email through a configurable backend.
package notify

import (
	"bytes"
	"context"
	"fmt"
	"net/smtp"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/technofatty/technofatty/internal/config"
)

// Message is one outgoing email.
type Message struct {
	From    string
	To      []string
	ReplyTo string
	Subject string
	Body    string
}

// Bytes renders the message as RFC 5322 text.
func (m Message) Bytes(now time.Time) []byte {
	var b bytes.Buffer
	fmt.Fprintf(&b, "From: %s\r\n", m.From)
	fmt.Fprintf(&b, "To: %s\r\n", strings.Join(m.To, ", "))
	if m.ReplyTo != "" {
		fmt.Fprintf(&b, "Reply-To: %s\r\n", m.ReplyTo)
	}
	fmt.Fprintf(&b, "Subject: %s\r\n", m.Subject)
	fmt.Fprintf(&b, "Date: %s\r\n", now.Format(time.RFC1123Z))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(strings.ReplaceAll(m.Body, "\n", "\r\n"))
	return b.Bytes()
}

// Mailer sends email.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// NewMailer builds the backend selected by EMAIL_BACKEND.
func NewMailer(cfg config.EmailConfig, log zerolog.Logger) (Mailer, error) {
	switch cfg.Backend {
	case "smtp":
		return NewSMTPMailer(cfg), nil
	case "file":
		return NewFileMailer(cfg.FilePath, log)
	case "memory":
		return NewMemoryMailer(), nil
	default:
		return nil, fmt.Errorf("unknown email backend %q", cfg.Backend)
	}
}

// SMTPMailer sends through an SMTP relay with PLAIN auth.
type SMTPMailer struct {
	addr string
	auth smtp.Auth
	from string
}

// NewSMTPMailer creates an SMTP backend.
func NewSMTPMailer(cfg config.EmailConfig) *SMTPMailer {
	var auth smtp.Auth
	if cfg.SMTPUser != "" {
		auth = smtp.PlainAuth("", cfg.SMTPUser, cfg.SMTPPassword, cfg.SMTPHost)
	}
	return &SMTPMailer{
		addr: fmt.Sprintf("%s:%d", cfg.SMTPHost, cfg.SMTPPort),
		auth: auth,
		from: cfg.From,
	}
}

func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	if msg.From == "" {
		msg.From = m.from
	}
	done := make(chan error, 1)
	go func() {
		done <- smtp.SendMail(m.addr, m.auth, envelopeAddress(msg.From), msg.To, msg.Bytes(time.Now()))
	}()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// FileMailer writes each message to its own .eml file in a directory.
type FileMailer struct {
	dir string
	log zerolog.Logger
}

// NewFileMailer creates dir if needed.
func NewFileMailer(dir string, log zerolog.Logger) (*FileMailer, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create mail directory: %w", err)
	}
	return &FileMailer{dir: dir, log: log.With().Str("component", "mailer").Logger()}, nil
}

func (m *FileMailer) Send(_ context.Context, msg Message) error {
	now := time.Now()
	name := fmt.Sprintf("%s-%s.eml", now.UTC().Format("20060102-150405"), uuid.NewString()[:8])
	path := filepath.Join(m.dir, name)
	if err := os.WriteFile(path, msg.Bytes(now), 0o644); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}
	m.log.Debug().Str("path", path).Str("subject", msg.Subject).Msg("Message written")
	return nil
}

// MemoryMailer keeps sent messages in an outbox.
type MemoryMailer struct {
	mu     sync.Mutex
	outbox []Message
	Err    error
}

// NewMemoryMailer creates an empty outbox.
func NewMemoryMailer() *MemoryMailer {
	return &MemoryMailer{}
}

func (m *MemoryMailer) Send(_ context.Context, msg Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.outbox = append(m.outbox, msg)
	return nil
}

// Outbox returns a copy of the sent messages.
func (m *MemoryMailer) Outbox() []Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Message(nil), m.outbox...)
}

// envelopeAddress strips a display name: "Name <a@b>" -> "a@b".
func envelopeAddress(addr string) string {
	if i := strings.LastIndex(addr, "<"); i >= 0 {
		if j := strings.LastIndex(addr, ">"); j > i {
			return addr[i+1 : j]
		}
	}
	return strings.TrimSpace(addr)
}
