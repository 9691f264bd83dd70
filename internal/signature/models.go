// Package signature implements signature requests: a per-request state
// machine driven by signer actions over authenticated-but-anonymous signing
// links. A request is created PENDING and resolves exactly once, to
// COMPLETED, DECLINED, or EXPIRED.
package signature

import (
	"time"

	"github.com/google/uuid"
)

// Status is the request state. Every state except pending is terminal.
type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusDeclined  Status = "declined"
	StatusExpired   Status = "expired"
)

// Terminal reports whether the status admits no further transitions.
func (s Status) Terminal() bool { return s != StatusPending }

// MarkType classifies how the signer produced their mark.
type MarkType string

const (
	MarkDrawn MarkType = "drawn"
	MarkTyped MarkType = "typed"
)

func (m MarkType) IsValid() bool { return m == MarkDrawn || m == MarkTyped }

// Request is a signature request. SignerID stays nil unless an out-of-band
// identity mapping fills it; the signer is otherwise known only by email.
type Request struct {
	ID          uuid.UUID  `json:"id"`
	DocumentID  uuid.UUID  `json:"documentId"`
	RequesterID uuid.UUID  `json:"requesterId"`
	// RequesterEmail is captured at creation so completion notices do not
	// need an identity lookup.
	RequesterEmail string `json:"-"`
	SignerID    *uuid.UUID `json:"signerId,omitempty"`
	SignerEmail string     `json:"signerEmail"`
	Message     string     `json:"message,omitempty"`
	Status      Status     `json:"status"`
	SignedAt    *time.Time `json:"signedAt,omitempty"`
	ExpiresAt   time.Time  `json:"expiresAt"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// Expired reports whether the request deadline has passed at the given time.
// Status is not consulted; callers decide what an overdue PENDING request
// becomes.
func (r *Request) Expired(now time.Time) bool { return now.After(r.ExpiresAt) }

// Signature is the signer's recorded mark. At most one exists per request,
// enforced both here and by a database unique constraint.
type Signature struct {
	ID        uuid.UUID  `json:"id"`
	RequestID uuid.UUID  `json:"signatureRequestId"`
	SignerID  *uuid.UUID `json:"signerId,omitempty"`
	MarkData  string     `json:"-"`
	MarkType  MarkType   `json:"markType"`
	MarkHash  string     `json:"markHash"`
	IPAddress string     `json:"-"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
}
