package main

import (
	"net/http"

	"github.com/gorilla/handlers"
)

// applyCORSHandler applies a permissive CORS policy to the router; session
// cookies require credentialed requests.
func applyCORSHandler(h http.Handler) http.Handler {
	return handlers.CORS(
		handlers.AllowedHeaders([]string{
			"Content-Type",
		}),
		handlers.AllowCredentials(),
		handlers.AllowedMethods([]string{"GET", "POST", "OPTIONS", "DELETE", "PUT"}),
		handlers.AllowedOrigins([]string{"*"}),
	)(h)
}
