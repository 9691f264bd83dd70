package signature

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	dErrors "signet/pkg/domain-errors"
)

// TokenClaims bind a signing token to one request and one signer email.
type TokenClaims struct {
	RequestID string `json:"request_id"`
	Email     string `json:"email"`
	jwt.RegisteredClaims
}

// TokenService mints and verifies signing tokens. Verify is pure: it checks
// signature, binding, and token lifetime, and never consults request state.
// The state machine re-checks status and request expiry afterwards.
type TokenService struct {
	secret []byte
	ttl    time.Duration
}

func NewTokenService(secret []byte, ttl time.Duration) *TokenService {
	return &TokenService{secret: secret, ttl: ttl}
}

// Mint issues a token for the given request and signer email, valid from now
// for the configured lifetime.
func (s *TokenService) Mint(requestID uuid.UUID, email string, now time.Time) (string, error) {
	claims := TokenClaims{
		RequestID: requestID.String(),
		Email:     email,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// Verify validates the token and its binding to requestID, returning the
// signer email it was minted for.
func (s *TokenService) Verify(tokenString string, requestID uuid.UUID) (string, error) {
	var claims TokenClaims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", dErrors.New(dErrors.CodeTokenExpired, "signing token expired")
		}
		return "", dErrors.New(dErrors.CodeInvalidToken, "invalid signing token")
	}
	if !token.Valid {
		return "", dErrors.New(dErrors.CodeInvalidToken, "invalid signing token")
	}
	if claims.RequestID != requestID.String() {
		return "", dErrors.New(dErrors.CodeInvalidToken, "token not issued for this request")
	}
	if claims.Email == "" {
		return "", dErrors.New(dErrors.CodeInvalidToken, "token missing signer binding")
	}
	return claims.Email, nil
}
