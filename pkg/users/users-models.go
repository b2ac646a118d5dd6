package users

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

// avatarSite is the deterministic avatar service; the stored reference is the
// base concatenated with the username, never fetched by this server.
const avatarSite = "http://api.adorable.io/avatars/16/"

// AvatarURL derives the avatar reference assigned to a username on registration.
func AvatarURL(username string) string {
	return avatarSite + username
}

var usernameRules = []validation.Rule{validation.Required, validation.Length(3, 20), is.UTFLetterNumeric}
var passwordRules = []validation.Rule{validation.Required, validation.Length(6, 50)}

type User struct {
	Username string
	Avatar   string
}

type RegisterData struct {
	Username string
	Password string
}

func (data RegisterData) Validate() error {
	return validation.ValidateStruct(&data,
		validation.Field(&data.Username, usernameRules...),
		validation.Field(&data.Password, passwordRules...),
	)
}
