package server

import (
	"net/http"

	"github.com/dmitrymomot/apm/internal/identity"
)

type sessionView struct {
	LoggedIn     bool           `json:"loggedIn"`
	User         *identity.User `json:"user"`
	DisplayName  string         `json:"displayName"`
	MaskUserName bool           `json:"maskUserName"`
	Error        string         `json:"error"`
}

func (s *Server) getSession(w http.ResponseWriter, _ *http.Request) {
	st := s.store.GetState()
	writeJSON(w, http.StatusOK, sessionView{
		LoggedIn:     s.identity.IsLoggedIn.Select(st),
		User:         s.identity.CurrentUser.Select(st),
		DisplayName:  s.identity.DisplayName.Select(st),
		MaskUserName: s.identity.MaskUserName.Select(st),
		Error:        s.identity.Error.Select(st),
	})
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var body struct {
		UserName string `json:"userName"`
		Password string `json:"password"`
	}
	if err := decode(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.dispatch(w, r, identity.Login{UserName: body.UserName, Password: body.Password})
}

func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	s.dispatch(w, r, identity.Logout{})
}

func (s *Server) maskUserName(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Mask bool `json:"mask"`
	}
	if err := decode(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.dispatch(w, r, identity.MaskUserName{Mask: body.Mask})
}
