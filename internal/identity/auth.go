package identity

import (
	"context"
	"strings"

	"github.com/google/uuid"
)

// AuthAPI authenticates a user.
type AuthAPI interface {
	Login(ctx context.Context, userName, password string) (User, error)
}

// DemoAuth accepts any non-blank credentials except a password equal to the
// user name. The user "admin" is an administrator. User ids are stable per
// user name.
type DemoAuth struct{}

var _ AuthAPI = DemoAuth{}

var demoNamespace = uuid.MustParse("6f1c2f5e-3b1a-4a53-9d4e-2f7a0c8b9e11")

func (DemoAuth) Login(ctx context.Context, userName, password string) (User, error) {
	if err := ctx.Err(); err != nil {
		return User{}, err
	}
	userName = strings.TrimSpace(userName)
	if userName == "" || password == "" {
		return User{}, ErrMissingCredentials
	}
	if strings.EqualFold(userName, password) {
		return User{}, ErrInvalidCredentials
	}
	return User{
		ID:       uuid.NewSHA1(demoNamespace, []byte(strings.ToLower(userName))).String(),
		UserName: userName,
		IsAdmin:  strings.EqualFold(userName, "admin"),
	}, nil
}
