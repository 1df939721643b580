package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/cobaltcommerce/cobalt-backend/api/responses"
	"github.com/cobaltcommerce/cobalt-backend/internal/authz"
	pkgAuth "github.com/cobaltcommerce/cobalt-backend/pkg/auth"
	"github.com/cobaltcommerce/cobalt-backend/pkg/auth/session"
	"github.com/cobaltcommerce/cobalt-backend/pkg/config"
	"github.com/cobaltcommerce/cobalt-backend/pkg/db/models"
	pkgerrors "github.com/cobaltcommerce/cobalt-backend/pkg/errors"
	"github.com/cobaltcommerce/cobalt-backend/pkg/logger"
)

type principalSource interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// Auth validates a bearer token, confirms the session is still live, and
// seeds the request context with the caller's principal. The user row is
// reloaded so store assignments and deactivation take effect immediately,
// not at the next token refresh.
func Auth(cfg config.JWTConfig, verifier session.AccessSessionChecker, users principalSource, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := strings.TrimSpace(r.Header.Get("Authorization"))
			if raw == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			token := raw
			if strings.HasPrefix(strings.ToLower(token), "bearer ") {
				token = strings.TrimSpace(token[7:])
			}
			if token == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			claims, err := pkgAuth.ParseAccessToken(cfg, token)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token"))
				return
			}
			if claims.ID == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing session id"))
				return
			}

			if verifier != nil {
				ok, err := verifier.HasSession(r.Context(), claims.ID)
				if err != nil {
					responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "validate session"))
					return
				}
				if !ok {
					responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "session unavailable"))
					return
				}
			}

			user, err := users.FindByID(r.Context(), claims.UserID)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "unknown user"))
					return
				}
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user"))
				return
			}
			if !user.IsActive {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "account disabled"))
				return
			}

			principal := authz.Principal{
				UserID:   user.ID,
				Role:     user.Role,
				AgencyID: user.AgencyID,
				StoreIDs: []uuid.UUID(user.StoreIDs),
			}

			ctx := WithPrincipal(r.Context(), principal)
			ctx = WithAccessID(ctx, claims.ID)

			if logg != nil {
				ctx = logg.WithUserID(ctx, user.ID.String())
				ctx = logg.WithActorRole(ctx, string(user.Role))
				if user.AgencyID != nil {
					ctx = logg.WithAgencyID(ctx, user.AgencyID.String())
				}
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
