package users

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/mattn/go-sqlite3"
	"golang.org/x/crypto/bcrypt"
)

type UserRepository interface {
	Register(data RegisterData) (*User, error)
	ExistsUser(username string) bool
	GetUser(username string) (user User, err error)
}

type userRepository struct {
	Connection *sql.DB
}

var (
	// ErrUserTaken signals a registration collision on the case-insensitive username.
	ErrUserTaken = errors.New("username is already taken")
)

func NewRepository(connection *sql.DB) UserRepository {
	return &userRepository{connection}
}

// Register adds a new user with a bcrypt credential digest and a derived
// avatar reference. Usernames collide case-insensitively, as per the store's
// collation, and surface as ErrUserTaken rather than a raw constraint error.
func (ur *userRepository) Register(data RegisterData) (*User, error) {

	digest, err := bcrypt.GenerateFromPassword([]byte(data.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("couldn't compute a credential digest for %q: %w", data.Username, err)
	}

	var avatar = AvatarURL(data.Username)

	_, err = ur.Connection.Exec(
		"INSERT INTO users (username, password, avatar) VALUES (?, ?, ?)",
		data.Username, string(digest), avatar,
	)

	// uniqueness violations signal that the username is taken
	if sqliteErr, ok := err.(sqlite3.Error); ok {
		if sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey || sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
			return nil, ErrUserTaken
		}
	}
	if err != nil {
		return nil, fmt.Errorf("couldn't add user %q: %w", data.Username, err)
	}

	return &User{Username: data.Username, Avatar: avatar}, nil
}

func (ur *userRepository) ExistsUser(username string) (exists bool) {
	// will return false in the absence of positive results
	err := ur.Connection.QueryRow("SELECT TRUE FROM users WHERE username = ?", username).Scan(&exists)
	return err == nil && exists
}

// GetUser either returns a user matching the username, or an error (along with an ignorable empty struct).
func (ur *userRepository) GetUser(username string) (user User, err error) {
	err = ur.Connection.QueryRow("SELECT username, avatar FROM users WHERE username = ?", username).Scan(
		&user.Username,
		&user.Avatar,
	)
	if err != nil {
		return User{}, err
	}
	return user, nil
}
