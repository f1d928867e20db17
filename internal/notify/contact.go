package notify

import (
	"context"
	"fmt"
)

// Notifier delivers a contact form submission.
type Notifier interface {
	Send(ctx context.Context, name, email, subject, message string) error
}

// ContactNotifier emails contact submissions to the site inbox with the
// sender as Reply-To.
type ContactNotifier struct {
	mailer    Mailer
	from      string
	recipient string
}

// NewContactNotifier creates a notifier delivering to recipient.
func NewContactNotifier(mailer Mailer, from, recipient string) *ContactNotifier {
	return &ContactNotifier{mailer: mailer, from: from, recipient: recipient}
}

func (n *ContactNotifier) Send(ctx context.Context, name, email, subject, message string) error {
	return n.mailer.Send(ctx, Message{
		From:    n.from,
		To:      []string{n.recipient},
		ReplyTo: email,
		Subject: "[Contact] " + subject,
		Body:    fmt.Sprintf("From: %s <%s>\n\n%s", name, email, message),
	})
}
