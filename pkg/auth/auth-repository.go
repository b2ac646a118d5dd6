package auth

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/gofrs/uuid"
	"github.com/mattn/go-sqlite3"
	"golang.org/x/crypto/bcrypt"
)

type SessionRepository interface {
	Authenticate(username, password string) bool
	IssueSession(username string) (string, error)
	EndSession(username string) error
	ResolveSession(token string) (username string, found bool)
}

type Repository struct {
	Connection *sql.DB
}

// ErrUnknownUser marks session issuance attempts for unregistered usernames.
var ErrUnknownUser = errors.New("unknown user")

func NewRepository(connection *sql.DB) *Repository {
	return &Repository{connection}
}

// Authenticate verifies the supplied credentials against the stored digest.
// A mismatch or an unknown username both yield false; failed logins are an
// expected outcome, not an error.
func (ar *Repository) Authenticate(username, password string) bool {
	var digest string
	if err := ar.Connection.QueryRow(
		"SELECT password FROM users WHERE username = ?", username,
	).Scan(&digest); err != nil {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(password)) == nil
}

// IssueSession binds a token to the username, enforcing a single active
// session per user. Repeated logins return the existing token unchanged;
// a fresh one is generated and persisted otherwise. Two racing calls contend
// on the store's unique username constraint, with the loser adopting the
// winner's token.
func (ar *Repository) IssueSession(username string) (string, error) {

	if exists := ar.existsUser(username); !exists {
		return "", ErrUnknownUser
	}

	// reuse an active session rather than rotating tokens on repeated logins
	var token string
	err := ar.Connection.QueryRow(
		"SELECT sessionid FROM sessions WHERE username = ?", username,
	).Scan(&token)
	if err == nil {
		return token, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return "", err
	}

	freshToken, err := uuid.NewV4()
	if err != nil {
		return "", fmt.Errorf("couldn't generate a session token for %q: %w", username, err)
	}

	_, err = ar.Connection.Exec(
		"INSERT INTO sessions (sessionid, username) VALUES (?, ?)",
		freshToken.String(), username,
	)

	// a concurrent login won the insert race; its token is the active one
	if sqliteErr, ok := err.(sqlite3.Error); ok {
		if sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique || sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey {
			if e := ar.Connection.QueryRow(
				"SELECT sessionid FROM sessions WHERE username = ?", username,
			).Scan(&token); e == nil {
				return token, nil
			}
		}
	}
	if err != nil {
		return "", fmt.Errorf("couldn't persist a session for %q: %w", username, err)
	}

	return freshToken.String(), nil
}

// EndSession removes every session row held by the username; the store's
// constraints limit those to one, yet the broader delete costs nothing.
func (ar *Repository) EndSession(username string) error {
	_, err := ar.Connection.Exec("DELETE FROM sessions WHERE username = ?", username)
	return err
}

// ResolveSession maps a presented token to its owning username. Empty or
// unknown tokens resolve to an anonymous viewer, never to an error.
func (ar *Repository) ResolveSession(token string) (username string, found bool) {
	if token == "" {
		return "", false
	}
	if err := ar.Connection.QueryRow(
		"SELECT username FROM sessions WHERE sessionid = ?", token,
	).Scan(&username); err != nil {
		return "", false
	}
	return username, true
}

func (ar *Repository) existsUser(username string) (exists bool) {
	err := ar.Connection.QueryRow("SELECT TRUE FROM users WHERE username = ?", username).Scan(&exists)
	return err == nil && exists
}
