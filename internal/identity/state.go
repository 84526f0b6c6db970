package identity

import "github.com/dmitrymomot/apm/pkg/store"

// FeatureKey is the slice key of the identity feature.
const FeatureKey = "users"

// User is the signed-in user.
type User struct {
	ID       string `json:"id"`
	UserName string `json:"userName"`
	IsAdmin  bool   `json:"isAdmin"`
}

// State is the identity slice.
type State struct {
	MaskUserName bool   `json:"maskUserName"`
	CurrentUser  *User  `json:"currentUser"`
	Error        string `json:"error"`
}

func InitialState() *State {
	return &State{}
}

// Feature registers the identity reducer under FeatureKey.
func Feature() store.Feature {
	return store.NewFeature(FeatureKey, InitialState(), Reduce)
}
