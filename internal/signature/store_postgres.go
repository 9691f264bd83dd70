package signature

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	dErrors "signet/pkg/domain-errors"
	txcontext "signet/pkg/platform/tx"
)

const uniqueViolation = "23505"

// PostgresStore persists requests and signatures. The conditional updates
// rely on postgres row locking: of N concurrent transitions on one pending
// request, exactly one reports a row affected.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *PostgresStore) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

const requestColumns = `id, document_id, requester_id, requester_email, signer_id, signer_email, message, status, signed_at, expires_at, created_at, updated_at`

func (s *PostgresStore) Create(ctx context.Context, req *Request) error {
	query := `
		INSERT INTO signature_requests (` + requestColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err := s.execer(ctx).ExecContext(ctx, query,
		req.ID, req.DocumentID, req.RequesterID, req.RequesterEmail,
		req.SignerID, req.SignerEmail, req.Message, string(req.Status),
		req.SignedAt, req.ExpiresAt, req.CreatedAt, req.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert signature request: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetByID(ctx context.Context, id uuid.UUID) (*Request, error) {
	query := `SELECT ` + requestColumns + ` FROM signature_requests WHERE id = $1`
	req, err := scanRequest(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, dErrors.New(dErrors.CodeNotFound, "signature request not found")
		}
		return nil, fmt.Errorf("query signature request: %w", err)
	}
	return req, nil
}

func (s *PostgresStore) ListByRequester(ctx context.Context, requesterID uuid.UUID) ([]*Request, error) {
	query := `SELECT ` + requestColumns + ` FROM signature_requests WHERE requester_id = $1 ORDER BY created_at DESC`
	return s.list(ctx, query, requesterID)
}

func (s *PostgresStore) ListBySignerEmail(ctx context.Context, email string) ([]*Request, error) {
	query := `SELECT ` + requestColumns + ` FROM signature_requests WHERE signer_email = $1 ORDER BY created_at DESC`
	return s.list(ctx, query, email)
}

func (s *PostgresStore) list(ctx context.Context, query string, arg any) ([]*Request, error) {
	rows, err := s.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("query signature requests: %w", err)
	}
	defer rows.Close()

	var reqs []*Request
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("scan signature request: %w", err)
		}
		reqs = append(reqs, req)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate signature requests: %w", err)
	}
	return reqs, nil
}

func (s *PostgresStore) CompleteIfPending(ctx context.Context, id uuid.UUID, signedAt time.Time) (bool, error) {
	query := `
		UPDATE signature_requests
		SET status = $1, signed_at = $2, updated_at = $2
		WHERE id = $3 AND status = $4
	`
	return s.conditionalUpdate(ctx, query, string(StatusCompleted), signedAt, id, string(StatusPending))
}

func (s *PostgresStore) DeclineIfPending(ctx context.Context, id uuid.UUID, updatedAt time.Time) (bool, error) {
	query := `
		UPDATE signature_requests
		SET status = $1, updated_at = $2
		WHERE id = $3 AND status = $4
	`
	return s.conditionalUpdate(ctx, query, string(StatusDeclined), updatedAt, id, string(StatusPending))
}

func (s *PostgresStore) ExpireIfPending(ctx context.Context, id uuid.UUID, updatedAt time.Time) (bool, error) {
	query := `
		UPDATE signature_requests
		SET status = $1, updated_at = $2
		WHERE id = $3 AND status = $4
	`
	return s.conditionalUpdate(ctx, query, string(StatusExpired), updatedAt, id, string(StatusPending))
}

func (s *PostgresStore) conditionalUpdate(ctx context.Context, query string, args ...any) (bool, error) {
	res, err := s.execer(ctx).ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("conditional transition: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("transition rows affected: %w", err)
	}
	return affected == 1, nil
}

func (s *PostgresStore) InsertSignature(ctx context.Context, sig *Signature) error {
	metadata := sig.Metadata
	if metadata == nil {
		metadata = map[string]any{}
	}
	metadataJSON, err := json.Marshal(metadata)
	if err != nil {
		return fmt.Errorf("marshal signature metadata: %w", err)
	}

	query := `
		INSERT INTO signatures (id, signature_request_id, signer_id, mark_data, mark_type, mark_hash, ip_address, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err = s.execer(ctx).ExecContext(ctx, query,
		sig.ID, sig.RequestID, sig.SignerID, sig.MarkData, string(sig.MarkType),
		sig.MarkHash, sig.IPAddress, metadataJSON, sig.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return dErrors.New(dErrors.CodeConflict, "request already has a signature")
		}
		return fmt.Errorf("insert signature: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetSignatureByRequest(ctx context.Context, requestID uuid.UUID) (*Signature, error) {
	query := `
		SELECT id, signature_request_id, signer_id, mark_data, mark_type, mark_hash, ip_address, metadata, created_at
		FROM signatures WHERE signature_request_id = $1
	`
	var (
		sig          Signature
		markType     string
		metadataJSON []byte
	)
	err := s.db.QueryRowContext(ctx, query, requestID).Scan(
		&sig.ID, &sig.RequestID, &sig.SignerID, &sig.MarkData, &markType,
		&sig.MarkHash, &sig.IPAddress, &metadataJSON, &sig.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, dErrors.New(dErrors.CodeNotFound, "signature not found")
		}
		return nil, fmt.Errorf("query signature: %w", err)
	}
	sig.MarkType = MarkType(markType)
	if len(metadataJSON) > 0 {
		if err := json.Unmarshal(metadataJSON, &sig.Metadata); err != nil {
			return nil, fmt.Errorf("unmarshal signature metadata: %w", err)
		}
	}
	return &sig, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRequest(row rowScanner) (*Request, error) {
	var (
		req    Request
		status string
	)
	err := row.Scan(
		&req.ID, &req.DocumentID, &req.RequesterID, &req.RequesterEmail,
		&req.SignerID, &req.SignerEmail, &req.Message, &status, &req.SignedAt,
		&req.ExpiresAt, &req.CreatedAt, &req.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	req.Status = Status(status)
	return &req, nil
}
