package identity

import "github.com/dmitrymomot/apm/pkg/store"

// Reduce is the identity reducer. A failed login keeps whoever was signed in.
func Reduce(s *State, action store.Action) *State {
	a, ok := action.(Action)
	if !ok {
		return s
	}
	if s == nil {
		s = InitialState()
	}

	switch a := a.(type) {
	case MaskUserName:
		next := *s
		next.MaskUserName = a.Mask
		return &next

	case LoginSuccess:
		next := *s
		u := a.User
		next.CurrentUser = &u
		next.Error = ""
		return &next

	case LoginFail:
		next := *s
		next.Error = a.Error
		return &next

	case Logout:
		if s.CurrentUser == nil && s.Error == "" {
			return s
		}
		next := *s
		next.CurrentUser = nil
		next.Error = ""
		return &next

	default:
		return s
	}
}
