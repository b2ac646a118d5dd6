package auth

import (
	"net/http"

	JSON "github.com/makezi/aggregator/pkg/json-utilities"
	"github.com/makezi/aggregator/pkg/rest"
)

func RegisterHandlers(engine rest.Engine, sr SessionRepository) {
	engine.Post("/sessions", login(sr))
	engine.Delete("/sessions", logout(sr), RequireViewer(sr))
}

// login verifies credentials and binds the viewer's single active session to
// the response cookie. Reused tokens make repeated logins idempotent.
func login(sr SessionRepository) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {

		data, err := JSON.DecodeValidate[LoginData](request)
		if err != nil {
			JSON.ValidationError(writer, err)
			return
		}

		// a failed match and an unknown username are deliberately indistinguishable
		if !sr.Authenticate(data.Username, data.Password) {
			JSON.Unauthorised(writer)
			return
		}

		token, err := sr.IssueSession(data.Username)
		if err != nil {
			JSON.InternalServerError(writer, err)
			return
		}

		BindSession(writer, token)
		JSON.Ok(writer, struct {
			Username string
			Session  string
		}{data.Username, token})
	}
}

func logout(sr SessionRepository) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {

		viewer, _ := Viewer(request)

		if err := sr.EndSession(viewer); err != nil {
			JSON.InternalServerError(writer, err)
			return
		}

		ClearSession(writer)
		JSON.NoContent(writer)
	}
}
