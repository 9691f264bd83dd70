package notify

import (
	"context"
	"log/slog"
	"sync"
)

// LogNotifier writes would-be emails to the log. Used in development and as
// the default when SMTP is not configured.
type LogNotifier struct {
	logger *slog.Logger

	mu          sync.Mutex
	invites     []Invite
	completions []Completion
}

func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) SendSigningInvite(ctx context.Context, invite Invite) error {
	n.mu.Lock()
	n.invites = append(n.invites, invite)
	n.mu.Unlock()
	n.logger.InfoContext(ctx, "signing invite",
		"to", invite.SignerEmail,
		"url", invite.SigningURL,
		"document", invite.DocumentTitle,
	)
	return nil
}

func (n *LogNotifier) SendCompletionNotices(ctx context.Context, c Completion) error {
	n.mu.Lock()
	n.completions = append(n.completions, c)
	n.mu.Unlock()
	n.logger.InfoContext(ctx, "completion notices",
		"requester", c.RequesterEmail,
		"signer", c.SignerEmail,
		"document", c.DocumentTitle,
	)
	return nil
}

// Invites returns a copy of recorded invites; test helper.
func (n *LogNotifier) Invites() []Invite {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]Invite(nil), n.invites...)
}

// Completions returns a copy of recorded completions; test helper.
func (n *LogNotifier) Completions() []Completion {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]Completion(nil), n.completions...)
}
