package signature

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	dErrors "signet/pkg/domain-errors"
	"signet/pkg/platform/httputil"
	"signet/pkg/requestcontext"
)

// Handler exposes the request lifecycle over HTTP. Owner routes sit behind
// auth; signer routes authenticate with the signing token in the query
// string, exactly as emailed.
type Handler struct {
	service *Service
	logger  *slog.Logger
}

func NewHandler(service *Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// RegisterOwner mounts the authenticated requester routes.
func (h *Handler) RegisterOwner(r chi.Router) {
	r.Post("/signature-requests", h.handleCreate)
	r.Get("/signature-requests", h.handleList)
	r.Get("/signature-requests/{id}", h.handleGet)
}

// RegisterSigner mounts the public token-authorized routes.
func (h *Handler) RegisterSigner(r chi.Router) {
	r.Get("/signature-requests/sign/{id}", h.handleOpenSession)
	r.Post("/signature-requests/sign/{id}", h.handleSign)
	r.Post("/signature-requests/decline/{id}", h.handleDecline)
}

type createRequest struct {
	DocumentID  string `json:"documentId"`
	SignerEmail string `json:"signerEmail"`
	Message     string `json:"message"`
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var body createRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	documentID, err := uuid.Parse(body.DocumentID)
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid document id"))
		return
	}

	req, err := h.service.Create(r.Context(), documentID, body.SignerEmail, body.Message)
	if err != nil {
		h.logError(r.Context(), "create signature request", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, req)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	reqs, err := h.service.List(r.Context(), r.URL.Query().Get("type"))
	if err != nil {
		h.logError(r.Context(), "list signature requests", err)
		httputil.WriteError(w, err)
		return
	}
	if reqs == nil {
		reqs = []*Request{}
	}
	httputil.WriteJSON(w, http.StatusOK, reqs)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := h.requestID(w, r)
	if !ok {
		return
	}
	req, err := h.service.Get(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, req)
}

func (h *Handler) handleOpenSession(w http.ResponseWriter, r *http.Request) {
	id, ok := h.requestID(w, r)
	if !ok {
		return
	}
	session, err := h.service.OpenSession(r.Context(), id, r.URL.Query().Get("token"))
	if err != nil {
		h.logError(r.Context(), "open signing session", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, session)
}

type signRequest struct {
	SignatureData                string         `json:"signatureData"`
	SignatureType                string         `json:"signatureType"`
	ConsentToElectronicSignature bool           `json:"consentToElectronicSignature"`
	Metadata                     map[string]any `json:"metadata"`
}

func (h *Handler) handleSign(w http.ResponseWriter, r *http.Request) {
	id, ok := h.requestID(w, r)
	if !ok {
		return
	}
	var body signRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	params := SignParams{
		MarkData: body.SignatureData,
		MarkType: MarkType(body.SignatureType),
		Consent:  body.ConsentToElectronicSignature,
		Metadata: body.Metadata,
	}
	if err := h.service.Sign(r.Context(), id, r.URL.Query().Get("token"), params); err != nil {
		h.logError(r.Context(), "sign request", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "document signed",
	})
}

type declineRequest struct {
	Reason string `json:"reason"`
}

func (h *Handler) handleDecline(w http.ResponseWriter, r *http.Request) {
	id, ok := h.requestID(w, r)
	if !ok {
		return
	}
	var body declineRequest
	if r.Body != nil {
		// Reason is optional; an empty body is fine.
		_ = json.NewDecoder(r.Body).Decode(&body)
	}

	if err := h.service.Decline(r.Context(), id, r.URL.Query().Get("token"), body.Reason); err != nil {
		h.logError(r.Context(), "decline request", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "signature request declined",
	})
}

func (h *Handler) requestID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request id"))
		return uuid.Nil, false
	}
	return id, true
}

func (h *Handler) logError(ctx context.Context, op string, err error) {
	code := dErrors.CodeOf(err)
	if code == dErrors.CodeInternal || code == dErrors.CodeSealingFailed {
		h.logger.ErrorContext(ctx, op+" failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
	}
}
