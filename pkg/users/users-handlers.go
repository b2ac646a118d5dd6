package users

import (
	"errors"
	"net/http"

	JSON "github.com/makezi/aggregator/pkg/json-utilities"
	"github.com/makezi/aggregator/pkg/rest"
)

func RegisterHandlers(engine rest.Engine, ur UserRepository) {
	engine.Post("/users", addUser(ur))
}

func addUser(ur UserRepository) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {

		// parse and validate the registration data
		data, err := JSON.DecodeValidate[RegisterData](request)
		if err != nil {
			JSON.ValidationError(writer, err)
			return
		}

		newUser, err := ur.Register(data)
		switch {
		case errors.Is(err, ErrUserTaken):
			JSON.Conflict(writer, err.Error())
		case err != nil:
			JSON.InternalServerError(writer, err)
		default:
			JSON.Created(writer, newUser)
		}
	}
}
