package permissions

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrBlacklisted is wrapped by AuthorizationError for blacklisted callers.
	ErrBlacklisted = errors.New("you are blacklisted")
	// ErrNotAdmin is wrapped by AuthorizationError for callers missing from the admin list.
	ErrNotAdmin = errors.New("you need to be an admin to use this command")
)

// AuthorizationError is returned by Authorize when a caller is rejected.
type AuthorizationError struct {
	Kind     Kind
	CallerID string
	GuildID  string
	err      error
}

func newAuthorizationError(kind Kind, callerID, guildID string) *AuthorizationError {
	err := ErrBlacklisted
	if kind == Admins {
		err = ErrNotAdmin
	}
	return &AuthorizationError{Kind: kind, CallerID: callerID, GuildID: guildID, err: err}
}

func (e *AuthorizationError) Error() string {
	return fmt.Sprintf("user %s in guild %s: %v", e.CallerID, e.GuildID, e.err)
}

// Unwrap returns ErrBlacklisted or ErrNotAdmin.
func (e *AuthorizationError) Unwrap() error {
	return e.err
}

// Reason is the user-facing rejection message.
func (e *AuthorizationError) Reason() string {
	msg := e.err.Error()
	return strings.ToUpper(msg[:1]) + msg[1:] + "."
}
