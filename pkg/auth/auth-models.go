package auth

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

type LoginData struct {
	Username string
	Password string
}

func (data LoginData) Validate() error {
	return validation.ValidateStruct(&data,
		validation.Field(&data.Username, validation.Required),
		validation.Field(&data.Password, validation.Required),
	)
}
