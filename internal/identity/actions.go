package identity

import "github.com/dmitrymomot/apm/pkg/store"

const (
	KindMaskUserName store.Kind = "[User] Mask User Name"
	KindLogin        store.Kind = "[User] Login"
	KindLoginSuccess store.Kind = "[User] Login Success"
	KindLoginFail    store.Kind = "[User] Login Fail"
	KindLogout       store.Kind = "[User] Logout"
)

// Action is the closed set of identity actions. Login only triggers the
// login effect.
type Action interface {
	store.Action
	identityAction()
}

type (
	MaskUserName struct{ Mask bool }
	Login        struct{ UserName, Password string }
	LoginSuccess struct{ User User }
	LoginFail    struct{ Error string }
	Logout       struct{}
)

func (MaskUserName) Kind() store.Kind { return KindMaskUserName }
func (Login) Kind() store.Kind        { return KindLogin }
func (LoginSuccess) Kind() store.Kind { return KindLoginSuccess }
func (LoginFail) Kind() store.Kind    { return KindLoginFail }
func (Logout) Kind() store.Kind       { return KindLogout }

func (MaskUserName) identityAction() {}
func (Login) identityAction()        {}
func (LoginSuccess) identityAction() {}
func (LoginFail) identityAction()    {}
func (Logout) identityAction()       {}

// String hides the password from logs.
func (l Login) String() string { return "Login{" + l.UserName + "}" }
