package document

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"signet/internal/audit"
	"signet/internal/blob"
	dErrors "signet/pkg/domain-errors"
	"signet/pkg/requestcontext"
)

const maxTitleLength = 255

// Service owns the document lifecycle outside of signing: upload, listing,
// download links, deletion, and the audit trail view. Every state change
// appends to the ledger; a failed append fails the operation.
type Service struct {
	store      Store
	blobs      blob.Store
	ledger     *audit.Ledger
	logger     *slog.Logger
	presignTTL time.Duration
}

func NewService(store Store, blobs blob.Store, ledger *audit.Ledger, logger *slog.Logger, presignTTL time.Duration) *Service {
	return &Service{
		store:      store,
		blobs:      blobs,
		ledger:     ledger,
		logger:     logger,
		presignTTL: presignTTL,
	}
}

// Create stores the uploaded bytes and registers the document as a draft
// owned by the caller.
func (s *Service) Create(ctx context.Context, title, description, filename string, content []byte) (*Document, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "title is required")
	}
	if len(title) > maxTitleLength {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "title too long")
	}
	if len(content) == 0 {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "file is empty")
	}
	ownerID := requestcontext.UserID(ctx)
	if ownerID == uuid.Nil {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}

	now := requestcontext.Now(ctx)
	storageKey := blob.NewKey("documents", now)
	if err := s.blobs.Put(ctx, storageKey, content); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "store document content")
	}

	doc := &Document{
		ID:          uuid.New(),
		Title:       title,
		Description: strings.TrimSpace(description),
		StorageKey:  storageKey,
		Status:      StatusDraft,
		OwnerID:     ownerID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.Create(ctx, doc); err != nil {
		// Best effort cleanup of the orphaned blob.
		if delErr := s.blobs.Delete(ctx, storageKey); delErr != nil {
			s.logger.Error("orphaned blob after failed document insert",
				"storage_key", storageKey, "error", delErr)
		}
		return nil, err
	}

	if err := s.ledger.Append(ctx, doc.ID, audit.ActionCreated, map[string]any{
		"filename": filename,
		"title":    doc.Title,
	}); err != nil {
		return nil, err
	}
	return doc, nil
}

// List returns the caller's documents, newest first.
func (s *Service) List(ctx context.Context) ([]*Document, error) {
	ownerID := requestcontext.UserID(ctx)
	if ownerID == uuid.Nil {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	return s.store.ListByOwner(ctx, ownerID)
}

// Get returns a document the caller owns.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Document, error) {
	doc, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if doc.OwnerID != requestcontext.UserID(ctx) {
		return nil, dErrors.New(dErrors.CodeForbidden, "not the document owner")
	}
	return doc, nil
}

// Delete removes the document record and its blobs.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	doc, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	// The ledger entry is written before the record disappears so a failed
	// append leaves the document intact.
	if err := s.ledger.Append(ctx, doc.ID, audit.ActionDeleted, map[string]any{
		"title": doc.Title,
	}); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}

	if err := s.blobs.Delete(ctx, doc.StorageKey); err != nil {
		s.logger.Error("delete original blob", "storage_key", doc.StorageKey, "error", err)
	}
	if doc.Sealed() {
		if err := s.blobs.Delete(ctx, doc.SealedStorageKey); err != nil {
			s.logger.Error("delete sealed blob", "storage_key", doc.SealedStorageKey, "error", err)
		}
	}
	return nil
}

// Download returns a presigned URL for the document content. Sealed documents
// serve the sealed rendition; everything else serves the original.
func (s *Service) Download(ctx context.Context, id uuid.UUID) (string, error) {
	doc, err := s.Get(ctx, id)
	if err != nil {
		return "", err
	}

	key := doc.StorageKey
	if doc.Sealed() {
		key = doc.SealedStorageKey
	}
	url, err := s.blobs.Presign(ctx, key, s.presignTTL)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "presign document content")
	}

	if err := s.ledger.Append(ctx, doc.ID, audit.ActionDownloaded, map[string]any{
		"sealed": doc.Sealed(),
	}); err != nil {
		return "", err
	}
	return url, nil
}

// AuditTrail returns the document's ledger, newest first.
func (s *Service) AuditTrail(ctx context.Context, id uuid.UUID) ([]audit.Entry, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	return s.ledger.ListByDocument(ctx, id)
}
