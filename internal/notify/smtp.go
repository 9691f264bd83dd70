package notify

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
	gomail "gopkg.in/gomail.v2"

	"signet/pkg/email"
)

// SMTPNotifier sends mail through a real SMTP relay.
type SMTPNotifier struct {
	dialer *gomail.Dialer
	from   string
}

func NewSMTPNotifier(host string, port int, user, password, from string) *SMTPNotifier {
	return &SMTPNotifier{
		dialer: gomail.NewDialer(host, port, user, password),
		from:   from,
	}
}

func (n *SMTPNotifier) SendSigningInvite(ctx context.Context, invite Invite) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	body := invite.Message
	if body == "" {
		body = "Please review and sign the attached document."
	}
	m := gomail.NewMessage()
	m.SetHeader("From", n.from)
	m.SetHeader("To", invite.SignerEmail)
	m.SetHeader("Subject", "Document Signature Request")
	m.SetBody("text/html", fmt.Sprintf(
		"<h1>Hello %s, you have a document to sign</h1><p>%s</p><p><a href=%q>Click here to view and sign %q</a></p><p>This link will expire in 30 days.</p>",
		email.GreetingName(invite.SignerEmail), body, invite.SigningURL, invite.DocumentTitle,
	))
	return n.dialer.DialAndSend(m)
}

// SendCompletionNotices mails requester and signer concurrently; either
// failure fails the call so the caller can log it.
func (n *SMTPNotifier) SendCompletionNotices(ctx context.Context, c Completion) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := ctx.Err(); err != nil {
			return err
		}
		m := gomail.NewMessage()
		m.SetHeader("From", n.from)
		m.SetHeader("To", c.RequesterEmail)
		m.SetHeader("Subject", "Document Has Been Signed")
		m.SetBody("text/html", fmt.Sprintf(
			"<h1>Your document has been signed</h1><p>The document you sent to %s has been signed.</p><p><a href=%q>View the signed document</a></p>",
			c.SignerEmail, c.DocumentURL,
		))
		return n.dialer.DialAndSend(m)
	})

	g.Go(func() error {
		if err := ctx.Err(); err != nil {
			return err
		}
		m := gomail.NewMessage()
		m.SetHeader("From", n.from)
		m.SetHeader("To", c.SignerEmail)
		m.SetHeader("Subject", "Document Signed Successfully")
		m.SetBody("text/html",
			"<h1>Document signed successfully</h1><p>Thank you for signing the document. A copy has been sent to the requester.</p>")
		return n.dialer.DialAndSend(m)
	})

	return g.Wait()
}
