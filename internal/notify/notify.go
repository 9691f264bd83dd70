// Package notify delivers signing invitations and completion notices. The
// state machine treats delivery as fire-and-forget: failures are logged by
// callers, never surfaced to the signer.
package notify

import (
	"context"
)

// Invite carries everything needed to invite a signer.
type Invite struct {
	SignerEmail   string
	SigningURL    string
	Message       string
	DocumentTitle string
}

// Completion carries the addresses notified once a request resolves.
type Completion struct {
	RequesterEmail string
	SignerEmail    string
	DocumentTitle  string
	DocumentURL    string
}

// Notifier is the outbound-mail collaborator. One implementation per
// environment, constructed once at process start and passed explicitly.
type Notifier interface {
	SendSigningInvite(ctx context.Context, invite Invite) error
	SendCompletionNotices(ctx context.Context, completion Completion) error
}
