package auth

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"

	"github.com/secondlife-exchange/exchange/pkg/httpx"
	"github.com/secondlife-exchange/exchange/pkg/logger"
)

// SessionName is the cookie name carrying the encrypted session ID.
const SessionName = "secondlife_session"

// SessionUserIDKey is the session value holding the user's UUID string.
// The login flow that writes it lives outside this service.
const SessionUserIDKey = "user_id"

var (
	errInvalidSession = errors.New("invalid session")
	errMissingUserID  = errors.New("session missing user_id")
)

// RequireAuth is a chi middleware that enforces authentication via session cookies.
// It reads the session cookie, extracts the user ID, and injects it into the request context.
// Returns 401 Unauthorized if the session is missing, invalid, or lacks a valid user_id.
//
// After this middleware, handlers can safely call auth.UserIDFromCtx(r.Context()).
func RequireAuth(store sessions.Store, log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, err := userFromSession(store, r)
			if err != nil {
				log.WarnContext(r.Context(), "rejecting unauthenticated request", "error", err)
				httpx.JSONError(w, http.StatusUnauthorized, "authentication required")
				return
			}
			next.ServeHTTP(w, r.WithContext(withUser(r.Context(), userID)))
		})
	}
}

// OptionalAuth injects the user ID when the request carries a valid session
// and passes anonymous requests through untouched.
func OptionalAuth(store sessions.Store, log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, err := userFromSession(store, r)
			if err != nil {
				log.DebugContext(r.Context(), "continuing anonymously", "reason", err)
				next.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r.WithContext(withUser(r.Context(), userID)))
		})
	}
}

// withUser binds userID for handlers and for every log line of the request.
func withUser(ctx context.Context, userID uuid.UUID) context.Context {
	return logger.ContextWith(WithUserID(ctx, userID), "user_id", userID.String())
}

func userFromSession(store sessions.Store, r *http.Request) (uuid.UUID, error) {
	session, err := store.Get(r, SessionName)
	if err != nil {
		return uuid.Nil, errors.Join(errInvalidSession, err)
	}

	raw, ok := session.Values[SessionUserIDKey].(string)
	if !ok || raw == "" {
		return uuid.Nil, errMissingUserID
	}

	userID, err := uuid.Parse(raw)
	if err != nil || userID == uuid.Nil {
		return uuid.Nil, errors.Join(errInvalidSession, err)
	}
	return userID, nil
}
