package document

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	dErrors "signet/pkg/domain-errors"
	txcontext "signet/pkg/platform/tx"
)

// PostgresStore persists documents in the documents table. Writes join an
// enclosing transaction carried in the context; reads go straight to the pool.
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

const documentColumns = `id, title, description, storage_key, COALESCE(sealed_storage_key, ''), COALESCE(content_hash, ''), status, owner_id, created_at, updated_at`

func (s *PostgresStore) Create(ctx context.Context, doc *Document) error {
	query := `
		INSERT INTO documents (id, title, description, storage_key, status, owner_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := s.execer(ctx).ExecContext(ctx, query,
		doc.ID, doc.Title, doc.Description, doc.StorageKey,
		string(doc.Status), doc.OwnerID, doc.CreatedAt, doc.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert document: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetByID(ctx context.Context, id uuid.UUID) (*Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents WHERE id = $1`
	doc, err := scanDocument(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, dErrors.New(dErrors.CodeNotFound, "document not found")
		}
		return nil, fmt.Errorf("query document: %w", err)
	}
	return doc, nil
}

func (s *PostgresStore) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents WHERE owner_id = $1 ORDER BY created_at DESC`
	rows, err := s.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("query documents: %w", err)
	}
	defer rows.Close()

	var docs []*Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
	}
	return docs, nil
}

func (s *PostgresStore) MarkPending(ctx context.Context, id uuid.UUID, updatedAt time.Time) error {
	query := `
		UPDATE documents SET status = $1, updated_at = $2
		WHERE id = $3 AND status = $4
	`
	_, err := s.execer(ctx).ExecContext(ctx, query, string(StatusPending), updatedAt, id, string(StatusDraft))
	if err != nil {
		return fmt.Errorf("mark document pending: %w", err)
	}
	return nil
}

func (s *PostgresStore) ApplySeal(ctx context.Context, id uuid.UUID, sealedKey, contentHash string, updatedAt time.Time) error {
	query := `
		UPDATE documents
		SET sealed_storage_key = $1, content_hash = $2, status = $3, updated_at = $4
		WHERE id = $5
	`
	res, err := s.execer(ctx).ExecContext(ctx, query, sealedKey, contentHash, string(StatusCompleted), updatedAt, id)
	if err != nil {
		return fmt.Errorf("apply seal: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("apply seal rows affected: %w", err)
	}
	if affected == 0 {
		return dErrors.New(dErrors.CodeNotFound, "document not found")
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := s.execer(ctx).ExecContext(ctx, `DELETE FROM documents WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete document rows affected: %w", err)
	}
	if affected == 0 {
		return dErrors.New(dErrors.CodeNotFound, "document not found")
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (*Document, error) {
	var (
		doc    Document
		status string
	)
	err := row.Scan(
		&doc.ID, &doc.Title, &doc.Description, &doc.StorageKey,
		&doc.SealedStorageKey, &doc.ContentHash, &status,
		&doc.OwnerID, &doc.CreatedAt, &doc.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	doc.Status = Status(status)
	return &doc, nil
}
