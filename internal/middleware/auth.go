package middleware

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/dukerupert/calmchores/internal/auth"
	"github.com/dukerupert/calmchores/internal/store"
)

// SessionCookieName is the cookie carrying the session token.
const SessionCookieName = "calmchores_session"

// SessionToken returns the token from the session cookie or a bearer
// Authorization header, preferring the cookie.
func SessionToken(r *http.Request) string {
	if c, err := r.Cookie(SessionCookieName); err == nil && c.Value != "" {
		return c.Value
	}
	h := r.Header.Get("Authorization")
	if token, ok := strings.CutPrefix(h, "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	return ""
}

// RequireAuth validates the session token and populates AuthContext.
// The session's house is only carried over while the user is still a member.
func RequireAuth(sessionStore *store.SessionStore, houseStore *store.HouseStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := SessionToken(r)
			if token == "" {
				writeError(w, http.StatusUnauthorized, "authentication required")
				return
			}

			sess, err := sessionStore.GetByToken(token)
			if err != nil {
				writeError(w, http.StatusInternalServerError, "failed to load session")
				return
			}
			if sess == nil {
				writeError(w, http.StatusUnauthorized, "session expired")
				return
			}

			ac := auth.AuthContext{
				UserID:    sess.UserID,
				SessionID: sess.ID,
			}
			if sess.HouseID != nil {
				house, err := houseStore.GetByID(*sess.HouseID)
				if err != nil {
					writeError(w, http.StatusInternalServerError, "failed to load house")
					return
				}
				if house != nil && house.HasMember(sess.UserID) {
					ac.HouseID = house.ID
				}
			}

			ctx := auth.WithAuth(r.Context(), ac)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireHouse rejects requests whose session has no current house.
func RequireHouse(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if auth.HouseID(r.Context()) == "" {
			writeError(w, http.StatusForbidden, "create or join a house first")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
