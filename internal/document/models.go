// Package document is the registry of uploaded documents. A document owns its
// original blob for life; sealing adds a second blob and never replaces the
// first.
package document

import (
	"time"

	"github.com/google/uuid"
)

// Status tracks where a document sits in the signing lifecycle.
type Status string

const (
	// StatusDraft is the initial state after upload.
	StatusDraft Status = "draft"
	// StatusPending means at least one signature request is outstanding.
	StatusPending Status = "pending"
	// StatusCompleted means a sealed rendition exists.
	StatusCompleted Status = "completed"
)

// Document is the registry record. StorageKey points at the original upload;
// SealedStorageKey and ContentHash are set once, by sealing, and only then.
type Document struct {
	ID               uuid.UUID `json:"id"`
	Title            string    `json:"title"`
	Description      string    `json:"description,omitempty"`
	StorageKey       string    `json:"-"`
	SealedStorageKey string    `json:"-"`
	ContentHash      string    `json:"contentHash,omitempty"`
	Status           Status    `json:"status"`
	OwnerID          uuid.UUID `json:"ownerId"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

// Sealed reports whether a sealed rendition exists.
func (d *Document) Sealed() bool { return d.SealedStorageKey != "" }
