package signature

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"signet/internal/platform/logger"
	"signet/pkg/requestcontext"
	"signet/pkg/testutil"
)

func newHandlerFixture(t *testing.T) (chi.Router, *fixture) {
	t.Helper()
	f := newFixture(t)
	h := NewHandler(f.service, logger.NewNop())
	r := chi.NewRouter()
	h.RegisterOwner(r)
	h.RegisterSigner(r)
	return r, f
}

func authedRequest(t *testing.T, req *http.Request, userID uuid.UUID) *http.Request {
	t.Helper()
	req = testutil.WithUserID(req, userID)
	return req.WithContext(requestcontext.WithUserEmail(req.Context(), "owner@example.com"))
}

func TestHandler_CreateRequest(t *testing.T) {
	router, f := newHandlerFixture(t)
	ownerID := uuid.New()
	doc := f.seedDocument(t, ownerID)

	t.Run("creates and returns the pending request", func(t *testing.T) {
		req := testutil.NewJSONRequest(t, http.MethodPost, "/signature-requests", map[string]string{
			"documentId":  doc.ID.String(),
			"signerEmail": "signer@example.com",
			"message":     "please sign",
		})
		rr := testutil.DoRequest(router, authedRequest(t, req, ownerID))
		require.Equal(t, http.StatusCreated, rr.Code)

		var created Request
		testutil.DecodeJSON(t, rr, &created)
		assert.Equal(t, StatusPending, created.Status)
		assert.Equal(t, doc.ID, created.DocumentID)
	})

	t.Run("malformed document id", func(t *testing.T) {
		req := testutil.NewJSONRequest(t, http.MethodPost, "/signature-requests", map[string]string{
			"documentId":  "nope",
			"signerEmail": "signer@example.com",
		})
		rr := testutil.DoRequest(router, authedRequest(t, req, ownerID))
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestHandler_SigningFlow(t *testing.T) {
	router, f := newHandlerFixture(t)
	ownerID := uuid.New()
	doc := f.seedDocument(t, ownerID)
	req, token := f.seedRequest(t, doc, ownerID)

	signPath := "/signature-requests/sign/" + req.ID.String() + "?token=" + token

	t.Run("open session", func(t *testing.T) {
		rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, signPath))
		require.Equal(t, http.StatusOK, rr.Code)

		var session Session
		testutil.DecodeJSON(t, rr, &session)
		assert.Equal(t, req.ID, session.Request.ID)
		assert.NotEmpty(t, session.DocumentURL)
	})

	t.Run("open session without token is unauthorized", func(t *testing.T) {
		rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet,
			"/signature-requests/sign/"+req.ID.String()))
		assert.Equal(t, http.StatusUnauthorized, rr.Code)

		var body map[string]string
		testutil.DecodeJSON(t, rr, &body)
		assert.Equal(t, "invalid_token", body["error"])
	})

	t.Run("sign", func(t *testing.T) {
		httpReq := testutil.NewJSONRequest(t, http.MethodPost, signPath, map[string]any{
			"signatureData":                "data:image/png;base64,iVBORw0KGgo=",
			"signatureType":                "drawn",
			"consentToElectronicSignature": true,
		})
		rr := testutil.DoRequest(router, httpReq)
		require.Equal(t, http.StatusOK, rr.Code)

		var body map[string]any
		testutil.DecodeJSON(t, rr, &body)
		assert.Equal(t, true, body["success"])
	})

	t.Run("second sign conflicts with the terminal status", func(t *testing.T) {
		httpReq := testutil.NewJSONRequest(t, http.MethodPost, signPath, map[string]any{
			"signatureData":                "data:image/png;base64,iVBORw0KGgo=",
			"signatureType":                "drawn",
			"consentToElectronicSignature": true,
		})
		rr := testutil.DoRequest(router, httpReq)
		require.Equal(t, http.StatusConflict, rr.Code)

		var body map[string]string
		testutil.DecodeJSON(t, rr, &body)
		assert.Equal(t, "already_resolved", body["error"])
		assert.Equal(t, "completed", body["status"])
	})
}

func TestHandler_Decline(t *testing.T) {
	router, f := newHandlerFixture(t)
	ownerID := uuid.New()
	doc := f.seedDocument(t, ownerID)
	req, token := f.seedRequest(t, doc, ownerID)

	path := "/signature-requests/decline/" + req.ID.String() + "?token=" + token
	httpReq := testutil.NewJSONRequest(t, http.MethodPost, path, map[string]string{
		"reason": "terms unacceptable",
	})
	rr := testutil.DoRequest(router, httpReq)
	require.Equal(t, http.StatusOK, rr.Code)

	got, err := f.store.GetByID(context.Background(), req.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusDeclined, got.Status)
}

func TestHandler_ExpiredRequestIsGone(t *testing.T) {
	router, f := newHandlerFixture(t)
	ownerID := uuid.New()
	doc := f.seedDocument(t, ownerID)
	req, _ := f.seedRequest(t, doc, ownerID)

	// Rewind the deadline instead of pinning time: the middleware chain is
	// not in play here, so the service sees the wall clock.
	past := time.Now().Add(-time.Hour)
	won, err := f.store.transition(req.ID, func(r *Request) { r.ExpiresAt = past })
	require.NoError(t, err)
	require.True(t, won)
	token, err := f.tokens.Mint(req.ID, "signer@example.com", time.Now())
	require.NoError(t, err)

	rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet,
		"/signature-requests/sign/"+req.ID.String()+"?token="+token))
	assert.Equal(t, http.StatusGone, rr.Code)

	var body map[string]string
	testutil.DecodeJSON(t, rr, &body)
	assert.Equal(t, "request_expired", body["error"])
}

func TestHandler_List(t *testing.T) {
	router, f := newHandlerFixture(t)
	ownerID := uuid.New()
	doc := f.seedDocument(t, ownerID)
	_, _ = f.seedRequest(t, doc, ownerID)

	req := testutil.NewRequest(t, http.MethodGet, "/signature-requests?type=sent")
	rr := testutil.DoRequest(router, authedRequest(t, req, ownerID))
	require.Equal(t, http.StatusOK, rr.Code)

	var reqs []Request
	testutil.DecodeJSON(t, rr, &reqs)
	assert.Len(t, reqs, 1)
}
