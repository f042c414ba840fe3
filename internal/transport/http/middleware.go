package httptransport

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"metaregistry/internal/domain"
	pkgerrors "metaregistry/pkg/errors"
)

type contextKey string

const actorKey contextKey = "actor"

// AdminClaims prove that the bearer acts as a specific address. Tokens are
// issued out-of-band by the operator holding the signing key.
type AdminClaims struct {
	Actor string `json:"actor"`
	jwt.RegisteredClaims
}

// RequireAdmin validates the bearer token and stores the acting address in
// the request context. Whether that address is actually the administrator is
// decided by the owner guard inside each service.
func RequireAdmin(signingKey string, log *slog.Logger) func(http.Handler) http.Handler {
	key := []byte(signingKey)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok {
				writeError(w, pkgerrors.New(pkgerrors.CodeUnauthorized, "bearer token required"))
				return
			}

			parsed, err := jwt.ParseWithClaims(token, &AdminClaims{}, func(t *jwt.Token) (any, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, jwt.ErrTokenUnverifiable
				}
				return key, nil
			})
			if err != nil || !parsed.Valid {
				if errors.Is(err, jwt.ErrTokenExpired) {
					writeError(w, pkgerrors.New(pkgerrors.CodeUnauthorized, "token has expired"))
					return
				}
				log.WarnContext(r.Context(), "admin token rejected", "error", err)
				writeError(w, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid token"))
				return
			}

			claims := parsed.Claims.(*AdminClaims)
			actor, err := domain.ParseAddress(claims.Actor)
			if err != nil {
				writeError(w, pkgerrors.New(pkgerrors.CodeUnauthorized, "token actor is not a valid address"))
				return
			}

			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), actorKey, actor)))
		})
	}
}

func actorFrom(ctx context.Context) domain.Address {
	actor, _ := ctx.Value(actorKey).(domain.Address)
	return actor
}
