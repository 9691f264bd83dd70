// Package seal produces the sealed rendition of a signed document: original
// bytes plus a visible signing stamp, hashed for tamper evidence. The
// original blob is never modified.
package seal

import (
	"fmt"
	"time"
)

// StampText is the visible marker applied to sealed documents.
const StampText = "Digitally Signed"

// StampInfo carries the facts rendered into the stamp.
type StampInfo struct {
	SignerEmail string
	SignedAt    time.Time
}

// Stamper renders a stamped copy of the document bytes. Implementations must
// be deterministic: identical input bytes and StampInfo produce identical
// output bytes, which is what makes the content hash reproducible.
type Stamper interface {
	Stamp(original []byte, info StampInfo) ([]byte, error)
}

// TextStamper appends a plain-text seal trailer. It handles any content type
// and is byte-deterministic, so it also anchors the pipeline's hash tests.
type TextStamper struct{}

func NewTextStamper() *TextStamper { return &TextStamper{} }

func (TextStamper) Stamp(original []byte, info StampInfo) ([]byte, error) {
	trailer := fmt.Sprintf("\n--- %s by %s at %s ---\n",
		StampText, info.SignerEmail, info.SignedAt.UTC().Format(time.RFC3339))
	sealed := make([]byte, 0, len(original)+len(trailer))
	sealed = append(sealed, original...)
	sealed = append(sealed, trailer...)
	return sealed, nil
}
