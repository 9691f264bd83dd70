package seal

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"signet/internal/blob"
	"signet/internal/platform/metrics"
	dErrors "signet/pkg/domain-errors"
	"signet/pkg/requestcontext"
)

var tracer = otel.Tracer("signet/seal")

const (
	maxBlobAttempts  = 3
	retryBackoffBase = 100 * time.Millisecond
)

// Result is the outcome of a successful seal.
type Result struct {
	// SealedKey is the blob key of the sealed rendition, always distinct
	// from the original key.
	SealedKey string
	// ContentHash is the sha256 of the sealed bytes, hex encoded.
	ContentHash string
}

// Pipeline seals documents: fetch original, stamp, hash, store under a new
// key. Blob reads and writes get a bounded retry; stamping failures do not,
// since retrying a deterministic transform cannot help.
type Pipeline struct {
	blobs   blob.Store
	stamper Stamper
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func NewPipeline(blobs blob.Store, stamper Stamper, logger *slog.Logger, m *metrics.Metrics) *Pipeline {
	return &Pipeline{blobs: blobs, stamper: stamper, logger: logger, metrics: m}
}

// Seal produces the sealed rendition. All failures come back as
// sealing_failed so callers abort the signing transition without guessing at
// causes.
func (p *Pipeline) Seal(ctx context.Context, originalKey string, info StampInfo) (*Result, error) {
	ctx, span := tracer.Start(ctx, "seal.pipeline")
	span.SetAttributes(attribute.String("blob.original_key", originalKey))
	defer span.End()

	start := time.Now()
	result, err := p.seal(ctx, originalKey, info)
	p.metrics.SealDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		p.metrics.SealFailures.Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "sealing failed")
		return nil, err
	}
	span.SetAttributes(attribute.String("blob.sealed_key", result.SealedKey))
	return result, nil
}

func (p *Pipeline) seal(ctx context.Context, originalKey string, info StampInfo) (*Result, error) {
	var original []byte
	err := p.withRetry(ctx, "get original", func() error {
		var getErr error
		original, getErr = p.blobs.Get(ctx, originalKey)
		return getErr
	})
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeSealingFailed, "fetch original document")
	}

	sealed, err := p.stamper.Stamp(original, info)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeSealingFailed, "stamp document")
	}

	sum := sha256.Sum256(sealed)
	result := &Result{
		SealedKey:   blob.NewKey("sealed", requestcontext.Now(ctx)),
		ContentHash: hex.EncodeToString(sum[:]),
	}

	err = p.withRetry(ctx, "store sealed", func() error {
		return p.blobs.Put(ctx, result.SealedKey, sealed)
	})
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeSealingFailed, "store sealed document")
	}
	return result, nil
}

// Discard removes a sealed blob whose completing transaction did not commit.
func (p *Pipeline) Discard(ctx context.Context, sealedKey string) {
	if err := p.blobs.Delete(ctx, sealedKey); err != nil {
		p.logger.Error("discard orphaned sealed blob", "sealed_key", sealedKey, "error", err)
	}
}

// withRetry runs fn up to maxBlobAttempts times with doubling backoff.
// Only transient failures are retried; a missing or unreadable blob is a
// content failure and comes back immediately.
func (p *Pipeline) withRetry(ctx context.Context, op string, fn func() error) error {
	backoff := retryBackoffBase
	var err error
	for attempt := 1; attempt <= maxBlobAttempts; attempt++ {
		err = fn()
		if err == nil {
			return nil
		}
		if !retryable(err) {
			return err
		}
		if attempt == maxBlobAttempts {
			break
		}
		p.logger.Warn("blob operation retrying",
			"op", op, "attempt", attempt, "error", err)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
	}
	return err
}

func retryable(err error) bool {
	if dErrors.HasCode(err, dErrors.CodeNotFound) {
		return false
	}
	return errors.Is(err, context.DeadlineExceeded) ||
		dErrors.HasCode(err, dErrors.CodeTimeout)
}
