package blob

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"signet/pkg/requestcontext"
)

// Handler serves presigned blob URLs issued by FSStore. It performs no other
// authentication: possession of a valid signature is the grant.
type Handler struct {
	store  *FSStore
	logger *slog.Logger
}

func NewHandler(store *FSStore, logger *slog.Logger) *Handler {
	return &Handler{store: store, logger: logger}
}

// Register mounts the presigned download route.
func (h *Handler) Register(r chi.Router) {
	r.Get("/blobs/*", h.handleGet)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	key := chi.URLParam(r, "*")

	exp, err := strconv.ParseInt(r.URL.Query().Get("exp"), 10, 64)
	if err != nil {
		http.Error(w, "invalid presigned url", http.StatusBadRequest)
		return
	}
	sig := r.URL.Query().Get("sig")

	if !ValidKey(key) || !h.store.Verify(key, exp, sig) {
		h.logger.WarnContext(ctx, "rejected presigned blob access",
			"key", key,
			"request_id", requestcontext.RequestID(ctx),
		)
		http.Error(w, "expired or invalid signature", http.StatusForbidden)
		return
	}

	data, err := h.store.Get(ctx, key)
	if err != nil {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", http.DetectContentType(data))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	_, _ = w.Write(data)
}
