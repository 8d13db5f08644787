package auth

import (
	"errors"
	"net/http"
	"strings"

	"github.com/expensetracker/expenses/internal/config"
	"github.com/expensetracker/expenses/internal/rest"
	"github.com/expensetracker/expenses/pkg/user"
	log "github.com/sirupsen/logrus"
)

const (
	SessionCookie = "session"
	UserIdHeader  = "X-User-Id"
)

var errMissingCredentials = errors.New("missing credentials")

type Middleware struct {
	mode      config.AuthMode
	validator *TokenValidator
	users     user.Service
}

// NewMiddleware returns the authentication middleware. validator may be nil in header mode.
func NewMiddleware(mode config.AuthMode, validator *TokenValidator, users user.Service) *Middleware {
	return &Middleware{mode: mode, validator: validator, users: users}
}

func isPublic(path string) bool {
	return !strings.HasPrefix(path, "/api/") || strings.HasPrefix(path, "/api/auth/")
}

// Handler resolves the caller identity, ensures the matching user exists and puts it into the
// request context. Protected routes answer 401 when no user can be resolved.
func (m *Middleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if isPublic(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		identity, err := m.identity(r)
		if err != nil {
			log.WithFields(log.Fields{
				"path":   r.URL.Path,
				"method": r.Method,
			}).Debugf("authentication failed: %v", err)
			rest.WriteError(w, http.StatusUnauthorized, "Unauthorized", "")
			return
		}

		u, err := m.users.EnsureUser(r.Context(), identity)
		if err != nil {
			if errors.Is(err, user.ErrUserDataInvalid) {
				rest.WriteError(w, http.StatusUnauthorized, "Unauthorized", "")
				return
			}
			log.Errorf("failed to ensure user %s: %v", identity.Uid, err)
			http.Error(w, "failed to resolve user", http.StatusInternalServerError)
			return
		}
		log.Tracef("authenticated user %d", u.Id)
		next.ServeHTTP(w, r.WithContext(user.WithUser(r.Context(), u)))
	})
}

func (m *Middleware) identity(r *http.Request) (user.Identity, error) {
	if m.mode == config.AuthModeHeader {
		uid := strings.TrimSpace(r.Header.Get(UserIdHeader))
		if uid == "" {
			return user.Identity{}, errMissingCredentials
		}
		return user.Identity{Uid: uid}, nil
	}

	token := bearerToken(r)
	if token == "" {
		return user.Identity{}, errMissingCredentials
	}
	claims, err := m.validator.Validate(token)
	if err != nil {
		return user.Identity{}, err
	}
	return claims.Identity(), nil
}

func bearerToken(r *http.Request) string {
	if header := r.Header.Get("Authorization"); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
		return ""
	}
	if cookie, err := r.Cookie(SessionCookie); err == nil {
		return cookie.Value
	}
	return ""
}
