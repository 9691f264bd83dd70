// Package audit is the append-only ledger that every state-changing or
// access-sensitive operation writes to. Entries are evidence: nothing
// updates or deletes them, and a failed append fails the operation that
// triggered it.
package audit

import (
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

// Action classifies an audit entry.
type Action string

const (
	ActionCreated            Action = "created"
	ActionViewed             Action = "viewed"
	ActionDownloaded         Action = "downloaded"
	ActionSignatureRequested Action = "signature_requested"
	ActionSigned             Action = "signed"
	ActionDeclined           Action = "declined"
	ActionDeleted            Action = "deleted"
)

var validActions = map[Action]bool{
	ActionCreated:            true,
	ActionViewed:             true,
	ActionDownloaded:         true,
	ActionSignatureRequested: true,
	ActionSigned:             true,
	ActionDeclined:           true,
	ActionDeleted:            true,
}

// IsValid checks the action against the supported set.
func (a Action) IsValid() bool { return validActions[a] }

// Entry is one immutable ledger record. UserID is nil for unauthenticated
// signer actions before identity binding.
type Entry struct {
	ID         string         `json:"id"`
	DocumentID uuid.UUID      `json:"document_id"`
	UserID     *uuid.UUID     `json:"user_id,omitempty"`
	Action     Action         `json:"action"`
	Details    map[string]any `json:"details,omitempty"`
	IP         string         `json:"ip,omitempty"`
	UserAgent  string         `json:"user_agent,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
}

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0)
)

// NewEntryID returns a lexicographically sortable identifier so entry ids
// order the same way creation time does.
func NewEntryID(t time.Time) string {
	entropyMu.Lock()
	defer entropyMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(t), entropy).String()
}
