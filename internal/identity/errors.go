package identity

import "errors"

var (
	ErrMissingCredentials = errors.New("identity: please enter a user name and password")
	ErrInvalidCredentials = errors.New("identity: invalid user name or password")
)
