package identity

import (
	"strings"
	"unicode/utf8"

	"github.com/dmitrymomot/apm/pkg/selector"
)

var emptyIdentity = InitialState()

// Selectors is the set of memoized identity read models.
type Selectors struct {
	MaskUserName *selector.Selector[bool]
	CurrentUser  *selector.Selector[*User]
	Error        *selector.Selector[string]
	IsLoggedIn   *selector.Selector[bool]

	// DisplayName is the user name, or one asterisk per rune while masked.
	DisplayName *selector.Selector[string]
}

func NewSelectors() *Selectors {
	feature := selector.Feature(FeatureKey, emptyIdentity)

	s := &Selectors{}
	s.MaskUserName = selector.New1(feature, func(st *State) bool { return st.MaskUserName })
	s.CurrentUser = selector.New1(feature, func(st *State) *User { return st.CurrentUser })
	s.Error = selector.New1(feature, func(st *State) string { return st.Error })
	s.IsLoggedIn = selector.New1(s.CurrentUser.Select, func(u *User) bool { return u != nil })
	s.DisplayName = selector.New2(s.CurrentUser.Select, s.MaskUserName.Select, displayName)
	return s
}

func displayName(u *User, mask bool) string {
	if u == nil {
		return ""
	}
	if mask {
		return strings.Repeat("*", utf8.RuneCountInString(u.UserName))
	}
	return u.UserName
}
