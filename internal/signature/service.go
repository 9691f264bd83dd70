package signature

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"signet/internal/audit"
	"signet/internal/blob"
	"signet/internal/document"
	"signet/internal/notify"
	"signet/internal/platform/metrics"
	"signet/internal/seal"
	dErrors "signet/pkg/domain-errors"
	txcontext "signet/pkg/platform/tx"
	"signet/pkg/requestcontext"
)

var tracer = otel.Tracer("signet/signature")

// Config carries the service's tuning knobs.
type Config struct {
	// BaseURL is the public origin signing links are built on.
	BaseURL string
	// RequestExpiry is how long a request stays signable.
	RequestExpiry time.Duration
	// PresignTTL bounds document access granted to a signing session.
	PresignTTL time.Duration
}

// Service drives the signature request state machine. Requests resolve
// exactly once; the store's conditional transitions serialize racing
// resolutions and everything else hangs off the winner.
type Service struct {
	store    Store
	docs     document.Store
	blobs    blob.Store
	tokens   *TokenService
	pipeline *seal.Pipeline
	ledger   *audit.Ledger
	notifier notify.Notifier
	runner   txcontext.Runner
	logger   *slog.Logger
	metrics  *metrics.Metrics
	cfg      Config
}

func NewService(
	store Store,
	docs document.Store,
	blobs blob.Store,
	tokens *TokenService,
	pipeline *seal.Pipeline,
	ledger *audit.Ledger,
	notifier notify.Notifier,
	runner txcontext.Runner,
	logger *slog.Logger,
	m *metrics.Metrics,
	cfg Config,
) *Service {
	return &Service{
		store:    store,
		docs:     docs,
		blobs:    blobs,
		tokens:   tokens,
		pipeline: pipeline,
		ledger:   ledger,
		notifier: notifier,
		runner:   runner,
		logger:   logger,
		metrics:  m,
		cfg:      cfg,
	}
}

// Create opens a PENDING request for a document the caller owns, emails the
// signer their signing link, and records the request in the ledger.
func (s *Service) Create(ctx context.Context, documentID uuid.UUID, signerEmail, message string) (*Request, error) {
	requesterID := requestcontext.UserID(ctx)
	if requesterID == uuid.Nil {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	signerEmail = strings.ToLower(strings.TrimSpace(signerEmail))
	if _, err := mail.ParseAddress(signerEmail); err != nil {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "invalid signer email")
	}

	doc, err := s.docs.GetByID(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if doc.OwnerID != requesterID {
		return nil, dErrors.New(dErrors.CodeForbidden, "not the document owner")
	}

	now := requestcontext.Now(ctx)
	req := &Request{
		ID:             uuid.New(),
		DocumentID:     documentID,
		RequesterID:    requesterID,
		RequesterEmail: requestcontext.UserEmail(ctx),
		SignerEmail:    signerEmail,
		Message:        strings.TrimSpace(message),
		Status:         StatusPending,
		ExpiresAt:      now.Add(s.cfg.RequestExpiry),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.store.Create(ctx, req); err != nil {
		return nil, err
	}
	if err := s.docs.MarkPending(ctx, documentID, now); err != nil {
		return nil, err
	}
	if err := s.ledger.Append(ctx, documentID, audit.ActionSignatureRequested, map[string]any{
		"request_id":   req.ID.String(),
		"signer_email": signerEmail,
	}); err != nil {
		return nil, err
	}
	s.metrics.RequestsCreated.Inc()

	token, err := s.tokens.Mint(req.ID, signerEmail, now)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "mint signing token")
	}
	invite := notify.Invite{
		SignerEmail:   signerEmail,
		SigningURL:    fmt.Sprintf("%s/sign/%s?token=%s", s.cfg.BaseURL, req.ID, token),
		Message:       req.Message,
		DocumentTitle: doc.Title,
	}
	if err := s.notifier.SendSigningInvite(ctx, invite); err != nil {
		s.logger.Error("send signing invite",
			"request_id", req.ID,
			"signer_email", signerEmail,
			"error", err,
		)
	}
	return req, nil
}

// Session is what a signer sees when they open their link.
type Session struct {
	Request     *Request `json:"signatureRequest"`
	DocumentURL string   `json:"documentUrl"`
}

// OpenSession validates the signing link and returns the request plus a
// time-boxed URL for the document being signed. A successful open is recorded
// as a VIEWED ledger entry.
func (s *Service) OpenSession(ctx context.Context, requestID uuid.UUID, token string) (*Session, error) {
	req, err := s.authorize(ctx, requestID, token)
	if err != nil {
		return nil, err
	}

	doc, err := s.docs.GetByID(ctx, req.DocumentID)
	if err != nil {
		return nil, err
	}
	url, err := s.blobs.Presign(ctx, doc.StorageKey, s.cfg.PresignTTL)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "presign document")
	}

	if err := s.ledger.Append(ctx, req.DocumentID, audit.ActionViewed, map[string]any{
		"request_id": req.ID.String(),
	}); err != nil {
		return nil, err
	}
	return &Session{Request: req, DocumentURL: url}, nil
}

// SignParams is the signer's submission.
type SignParams struct {
	MarkData string
	MarkType MarkType
	Consent  bool
	Metadata map[string]any
}

// Sign resolves a pending request to COMPLETED. The sealed rendition is
// produced first; the signature row, the transition, the document update, and
// the SIGNED ledger entry then commit in one transaction. If that commit
// fails the sealed blob is discarded, leaving no trace of the attempt.
func (s *Service) Sign(ctx context.Context, requestID uuid.UUID, token string, params SignParams) error {
	ctx, span := tracer.Start(ctx, "signature.sign")
	span.SetAttributes(attribute.String("request.id", requestID.String()))
	defer span.End()

	req, err := s.authorize(ctx, requestID, token)
	if err != nil {
		return err
	}
	if !params.Consent {
		return dErrors.New(dErrors.CodeConsentRequired, "consent to electronic signature is required")
	}
	if !params.MarkType.IsValid() {
		return dErrors.New(dErrors.CodeInvalidInput, "signature type must be drawn or typed")
	}
	if strings.TrimSpace(params.MarkData) == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "signature data is required")
	}

	doc, err := s.docs.GetByID(ctx, req.DocumentID)
	if err != nil {
		return err
	}

	now := requestcontext.Now(ctx)
	sealed, err := s.pipeline.Seal(ctx, doc.StorageKey, seal.StampInfo{
		SignerEmail: req.SignerEmail,
		SignedAt:    now,
	})
	if err != nil {
		return err
	}

	markSum := sha256.Sum256([]byte(params.MarkData))
	sig := &Signature{
		ID:        uuid.New(),
		RequestID: req.ID,
		MarkData:  params.MarkData,
		MarkType:  params.MarkType,
		MarkHash:  hex.EncodeToString(markSum[:]),
		IPAddress: requestcontext.ClientIP(ctx),
		Metadata:  params.Metadata,
		CreatedAt: now,
	}

	err = s.runner.RunInTx(ctx, func(ctx context.Context) error {
		won, err := s.store.CompleteIfPending(ctx, req.ID, now)
		if err != nil {
			return err
		}
		if !won {
			return s.alreadyResolved(ctx, req.ID)
		}
		if err := s.store.InsertSignature(ctx, sig); err != nil {
			return err
		}
		if err := s.docs.ApplySeal(ctx, doc.ID, sealed.SealedKey, sealed.ContentHash, now); err != nil {
			return err
		}
		return s.ledger.Append(ctx, doc.ID, audit.ActionSigned, map[string]any{
			"request_id":   req.ID.String(),
			"content_hash": sealed.ContentHash,
			"mark_type":    string(params.MarkType),
		})
	})
	if err != nil {
		s.pipeline.Discard(ctx, sealed.SealedKey)
		return err
	}
	s.metrics.RequestsSigned.Inc()

	s.sendCompletionNotices(req, doc, sealed.SealedKey)
	return nil
}

// Decline resolves a pending request to DECLINED.
func (s *Service) Decline(ctx context.Context, requestID uuid.UUID, token, reason string) error {
	req, err := s.authorize(ctx, requestID, token)
	if err != nil {
		return err
	}

	now := requestcontext.Now(ctx)
	err = s.runner.RunInTx(ctx, func(ctx context.Context) error {
		won, err := s.store.DeclineIfPending(ctx, req.ID, now)
		if err != nil {
			return err
		}
		if !won {
			return s.alreadyResolved(ctx, req.ID)
		}
		details := map[string]any{"request_id": req.ID.String()}
		if reason = strings.TrimSpace(reason); reason != "" {
			details["reason"] = reason
		}
		return s.ledger.Append(ctx, req.DocumentID, audit.ActionDeclined, details)
	})
	if err != nil {
		return err
	}
	s.metrics.RequestsDeclined.Inc()
	return nil
}

// List returns requests the caller sent, or requests addressed to the
// caller's email.
func (s *Service) List(ctx context.Context, listType string) ([]*Request, error) {
	userID := requestcontext.UserID(ctx)
	if userID == uuid.Nil {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	switch listType {
	case "", "sent":
		return s.store.ListByRequester(ctx, userID)
	case "received":
		email := requestcontext.UserEmail(ctx)
		if email == "" {
			return nil, dErrors.New(dErrors.CodeBadRequest, "token carries no email claim")
		}
		return s.store.ListBySignerEmail(ctx, strings.ToLower(email))
	default:
		return nil, dErrors.New(dErrors.CodeBadRequest, "type must be sent or received")
	}
}

// Get returns a request visible to the caller: its requester, or the user
// whose email it is addressed to.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Request, error) {
	req, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	userID := requestcontext.UserID(ctx)
	email := strings.ToLower(requestcontext.UserEmail(ctx))
	if req.RequesterID != userID && req.SignerEmail != email {
		return nil, dErrors.New(dErrors.CodeForbidden, "not a party to this request")
	}
	return req, nil
}

// authorize verifies the signing token and checks request state, lazily
// expiring overdue requests. Terminal states are reported before expiry so a
// request that already resolved keeps answering already_resolved, whatever
// the clock says.
func (s *Service) authorize(ctx context.Context, requestID uuid.UUID, token string) (*Request, error) {
	email, err := s.tokens.Verify(token, requestID)
	if err != nil {
		return nil, err
	}

	req, err := s.store.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if !strings.EqualFold(req.SignerEmail, email) {
		return nil, dErrors.New(dErrors.CodeInvalidToken, "token not issued for this signer")
	}

	if req.Status.Terminal() {
		return nil, resolvedError(req.Status)
	}
	now := requestcontext.Now(ctx)
	if req.Expired(now) {
		won, err := s.store.ExpireIfPending(ctx, req.ID, now)
		if err != nil {
			return nil, err
		}
		if won {
			s.metrics.RequestsExpired.Inc()
			return nil, dErrors.New(dErrors.CodeRequestExpired, "signature request expired").
				WithDetail("expired_at", req.ExpiresAt.UTC().Format(time.RFC3339))
		}
		// Lost the race to another resolution.
		return nil, s.alreadyResolved(ctx, req.ID)
	}
	return req, nil
}

func (s *Service) alreadyResolved(ctx context.Context, requestID uuid.UUID) error {
	current, err := s.store.GetByID(ctx, requestID)
	if err != nil {
		return err
	}
	return resolvedError(current.Status)
}

func resolvedError(status Status) error {
	return dErrors.New(dErrors.CodeAlreadyResolved, "signature request already resolved").
		WithDetail("status", string(status))
}

// sendCompletionNotices runs after the completing transaction commits.
// Delivery is best effort and detached from the request context so a signer
// disconnect does not cancel it.
func (s *Service) sendCompletionNotices(req *Request, doc *document.Document, sealedKey string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		url, err := s.blobs.Presign(ctx, sealedKey, s.cfg.PresignTTL)
		if err != nil {
			s.logger.Error("presign sealed document for notices",
				"request_id", req.ID, "error", err)
		}
		completion := notify.Completion{
			RequesterEmail: req.RequesterEmail,
			SignerEmail:    req.SignerEmail,
			DocumentTitle:  doc.Title,
			DocumentURL:    url,
		}
		if err := s.notifier.SendCompletionNotices(ctx, completion); err != nil {
			s.logger.Error("send completion notices",
				"request_id", req.ID, "error", err)
		}
	}()
}
