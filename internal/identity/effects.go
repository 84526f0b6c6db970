package identity

import (
	"context"

	"github.com/dmitrymomot/apm/pkg/effect"
	"github.com/dmitrymomot/apm/pkg/store"
)

// Effects binds Login to auth. Logins are exhausted: pressing the button
// again while a login is in flight is ignored.
func Effects(auth AuthAPI) []effect.Effect {
	return []effect.Effect{
		effect.On(effect.Exhaust,
			func(ctx context.Context, a Login) (store.Action, error) {
				u, err := auth.Login(ctx, a.UserName, a.Password)
				if err != nil {
					return nil, err
				}
				return LoginSuccess{User: u}, nil
			},
			func(_ Login, err error) store.Action {
				return LoginFail{Error: effect.ErrorMessage(err)}
			},
		),
	}
}
