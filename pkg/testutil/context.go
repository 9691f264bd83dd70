package testutil

import (
	"net/http"

	"github.com/google/uuid"

	"signet/pkg/requestcontext"
)

// WithUserID adds an authenticated user ID to the request context, simulating
// what the auth middleware does for owner-authenticated requests.
func WithUserID(req *http.Request, userID uuid.UUID) *http.Request {
	return req.WithContext(requestcontext.WithUserID(req.Context(), userID))
}

// WithClientMetadata adds client IP and User-Agent to the request context.
func WithClientMetadata(req *http.Request, ip, userAgent string) *http.Request {
	return req.WithContext(requestcontext.WithClientMetadata(req.Context(), ip, userAgent))
}
