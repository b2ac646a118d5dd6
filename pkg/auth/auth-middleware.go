package auth

import (
	"context"
	"net/http"
)

type contextKey string

const viewerKey contextKey = "viewer"

type sessionResolver interface {
	ResolveSession(token string) (username string, found bool)
}

// WithViewer resolves the session cookie into a viewer identity stored in the
// request context. Requests without a valid session proceed as anonymous;
// the feed is readable by anyone.
func WithViewer(sr sessionResolver) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, request *http.Request) {
			if username, found := sr.ResolveSession(SessionToken(request)); found {
				request = request.WithContext(context.WithValue(request.Context(), viewerKey, username))
			}
			next.ServeHTTP(w, request)
		})
	}
}

// RequireViewer rejects requests whose session cookie doesn't resolve to a
// registered user, and annotates the context of those that do.
func RequireViewer(sr sessionResolver) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, request *http.Request) {
			username, found := sr.ResolveSession(SessionToken(request))
			if !found {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, request.WithContext(context.WithValue(request.Context(), viewerKey, username)))
		})
	}
}

// Viewer returns the username resolved by the middleware, or false for
// anonymous requests.
func Viewer(request *http.Request) (string, bool) {
	var viewer = request.Context().Value(viewerKey)
	if viewer == nil {
		return "", false
	}
	return viewer.(string), true
}
