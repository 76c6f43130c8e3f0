package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/milbratheduardo/task-manager/logging"
	"github.com/milbratheduardo/task-manager/models"
	"github.com/milbratheduardo/task-manager/services"
	"github.com/milbratheduardo/task-manager/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type contextKey string

const identityKey contextKey = "identity"
const userKey contextKey = "user"

// AuthMiddleware verifies bearer tokens and resolves the acting user.
type AuthMiddleware struct {
	AuthService *services.AuthService
}

func NewAuthMiddleware(authService *services.AuthService) *AuthMiddleware {
	return &AuthMiddleware{AuthService: authService}
}

// Protect rejects requests without a valid bearer token. On success the
// resolved identity and user record are placed on the request context.
func (m *AuthMiddleware) Protect(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			logging.Logger.Warnf("Event ID: AUTH_MISSING_HEADER, Description: Authorization header missing for request to %s %s", r.Method, r.URL.Path)
			writeAuthError(w, "Not authorized, token missing")
			return
		}

		tokenStr := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenStr == authHeader {
			logging.Logger.Warnf("Event ID: AUTH_BEARER_PREFIX_MISSING, Description: Bearer prefix missing in Authorization header for request to %s %s", r.Method, r.URL.Path)
			writeAuthError(w, "Not authorized, token missing")
			return
		}

		claims, err := utils.ValidateToken(tokenStr)
		if err != nil {
			logging.Logger.Warnf("Event ID: AUTH_INVALID_TOKEN, Description: Invalid token provided for request to %s %s: %v", r.Method, r.URL.Path, err)
			writeAuthError(w, "Token failed")
			return
		}

		userID, err := primitive.ObjectIDFromHex(claims.UserID)
		if err != nil {
			writeAuthError(w, "Token failed")
			return
		}

		user, err := m.AuthService.GetUserByID(r.Context(), userID)
		if err != nil {
			logging.Logger.Warnf("Event ID: AUTH_USER_NOT_FOUND, Description: Token user %s no longer exists", claims.UserID)
			writeAuthError(w, "Token failed")
			return
		}

		ctx := WithIdentity(r.Context(), models.Identity{ID: user.ID, Role: user.Role})
		ctx = context.WithValue(ctx, userKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// AdminOnly gates a route to identities carrying the admin role. It must run
// inside Protect.
func (m *AuthMiddleware) AdminOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, ok := IdentityFromContext(r.Context())
		if !ok || !identity.IsAdmin() {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusForbidden)
			w.Write([]byte(`{"message": "Access denied, admins only"}`))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// WithIdentity returns a context carrying the given identity, as Protect
// attaches it to authenticated requests.
func WithIdentity(ctx context.Context, identity models.Identity) context.Context {
	return context.WithValue(ctx, identityKey, identity)
}

// IdentityFromContext returns the identity resolved by Protect.
func IdentityFromContext(ctx context.Context) (models.Identity, bool) {
	identity, ok := ctx.Value(identityKey).(models.Identity)
	return identity, ok
}

// UserFromContext returns the full user record resolved by Protect.
func UserFromContext(ctx context.Context) (*models.User, bool) {
	user, ok := ctx.Value(userKey).(*models.User)
	return user, ok
}

func writeAuthError(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	w.Write([]byte(`{"message": "` + message + `"}`))
}
