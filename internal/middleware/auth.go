package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	appErrors "github.com/ThisIsJeron/fluffyduck-sub000/internal/errors"
)

type ctxKey int

const userIDKey ctxKey = iota

// supabaseClaims are the claims of a Supabase Auth access token.
type supabaseClaims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
	Role  string `json:"role"`
}

// WithUserID returns a context carrying the authenticated user ID.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// UserID returns the authenticated user ID from ctx.
func UserID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDKey).(string)
	return id, ok && id != ""
}

// ParseToken verifies an HS256 Supabase access token and returns its subject.
func ParseToken(token string, secret []byte) (string, error) {
	var claims supabaseClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(30*time.Second),
	)
	if err != nil {
		return "", err
	}
	if claims.Subject == "" {
		return "", jwt.ErrTokenInvalidClaims
	}
	return claims.Subject, nil
}

// Auth rejects requests without a valid bearer token and stores the token
// subject as the user ID.
func Auth(secret []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || strings.TrimSpace(token) == "" {
				appErrors.WriteJSON(w, appErrors.Unauthorized("missing bearer token"))
				return
			}

			userID, err := ParseToken(strings.TrimSpace(token), secret)
			if err != nil {
				zerolog.Ctx(r.Context()).Debug().Err(err).Msg("rejected token")
				appErrors.WriteJSON(w, appErrors.Unauthorized("invalid or expired token"))
				return
			}

			ctx := WithUserID(r.Context(), userID)
			logger := zerolog.Ctx(ctx).With().Str("user_id", userID).Logger()
			next.ServeHTTP(w, r.WithContext(logger.WithContext(ctx)))
		})
	}
}
