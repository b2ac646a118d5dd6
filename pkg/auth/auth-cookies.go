package auth

import (
	"net/http"
	"time"
)

// SessionCookie names the single cookie carrying the opaque session token.
const SessionCookie = "sessionid"

// BindSession attaches the session token to the caller's outgoing response.
// No expiry is set; the session persists until an explicit logout.
func BindSession(writer http.ResponseWriter, token string) {
	http.SetCookie(writer, &http.Cookie{
		Name:  SessionCookie,
		Value: token,
		Path:  "/",
	})
}

// ClearSession re-sets the session cookie with an immediate expiry, instructing
// the client to discard it.
func ClearSession(writer http.ResponseWriter) {
	http.SetCookie(writer, &http.Cookie{
		Name:    SessionCookie,
		Value:   "",
		Path:    "/",
		MaxAge:  -1,
		Expires: time.Unix(0, 0),
	})
}

// SessionToken extracts the presented token from the request's cookies,
// returning an empty string for cookie-less, hence anonymous, requests.
func SessionToken(request *http.Request) string {
	cookie, err := request.Cookie(SessionCookie)
	if err != nil {
		return ""
	}
	return cookie.Value
}
