package audit

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/mssola/useragent"

	"signet/internal/platform/metrics"
	"signet/pkg/requestcontext"
)

// Ledger is the single write path for audit evidence. Every entry is built
// from the request context (actor, client address, pinned time) and appended
// synchronously; callers treat an append failure as a failure of the
// operation being recorded.
type Ledger struct {
	store   Store
	logger  *slog.Logger
	metrics *metrics.Metrics

	// stream receives appended entries for asynchronous fan-out. Sends are
	// non-blocking so a slow consumer never stalls the request path.
	stream chan<- Entry
}

type LedgerOption func(*Ledger)

// WithStream attaches a fan-out channel fed after each successful append.
func WithStream(ch chan<- Entry) LedgerOption {
	return func(l *Ledger) {
		l.stream = ch
	}
}

func NewLedger(store Store, logger *slog.Logger, m *metrics.Metrics, opts ...LedgerOption) *Ledger {
	l := &Ledger{
		store:   store,
		logger:  logger,
		metrics: m,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Append records an action against a document. The actor is taken from the
// request context when present; unauthenticated actions (a signer following
// an emailed link) are recorded without a user id.
func (l *Ledger) Append(ctx context.Context, documentID uuid.UUID, action Action, details map[string]any) error {
	if !action.IsValid() {
		return fmt.Errorf("invalid audit action %q", action)
	}

	now := requestcontext.Now(ctx)
	entry := Entry{
		ID:         NewEntryID(now),
		DocumentID: documentID,
		Action:     action,
		Details:    enrichDetails(details, requestcontext.UserAgent(ctx)),
		IP:         requestcontext.ClientIP(ctx),
		UserAgent:  requestcontext.UserAgent(ctx),
		CreatedAt:  now,
	}
	if userID := requestcontext.UserID(ctx); userID != uuid.Nil {
		entry.UserID = &userID
	}

	if err := l.store.Append(ctx, entry); err != nil {
		l.metrics.AuditAppendErrors.Inc()
		l.logger.Error("audit append failed",
			"document_id", documentID,
			"action", action,
			"error", err,
		)
		return fmt.Errorf("append audit entry: %w", err)
	}
	l.metrics.AuditAppends.Inc()

	if l.stream != nil {
		select {
		case l.stream <- entry:
		default:
			l.logger.Warn("audit stream full, dropping fan-out entry",
				"entry_id", entry.ID,
				"action", action,
			)
		}
	}
	return nil
}

// ListByDocument returns the ledger for a document, newest first.
func (l *Ledger) ListByDocument(ctx context.Context, documentID uuid.UUID) ([]Entry, error) {
	entries, err := l.store.ListByDocument(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("list audit entries: %w", err)
	}
	return entries, nil
}

// enrichDetails adds parsed browser and OS fields when a user agent string is
// available. The caller's map is not mutated.
func enrichDetails(details map[string]any, uaString string) map[string]any {
	if uaString == "" {
		return details
	}
	enriched := make(map[string]any, len(details)+2)
	for k, v := range details {
		enriched[k] = v
	}
	ua := useragent.New(uaString)
	if name, version := ua.Browser(); name != "" {
		enriched["browser"] = name
		if version != "" {
			enriched["browser_version"] = version
		}
	}
	if os := ua.OS(); os != "" {
		enriched["os"] = os
	}
	return enriched
}
