package server

import (
	"net/http"

	"github.com/rs/zerolog/log"
)

// LoginHandler starts a login attempt and hands the whole document over to
// the authorization server. Any previously pending attempt for this session
// is overwritten.
func (s *Server) LoginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID := s.sessionID(w, r)

		authURL, err := s.flow.StartLogin(sessionID)
		if err != nil {
			log.Error().Err(err).Msg("failed to start login")
			http.Error(w, "internal server error", http.StatusInternalServerError)
			return
		}

		http.Redirect(w, r, authURL, http.StatusFound)
	}
}

// CallbackHandler resumes the flow on return from the authorization server.
// Exchange failures are logged and otherwise silent: the visitor lands on the
// home page still logged out. The redirect also removes the code from the
// visible URL, so a refresh cannot replay it.
func (s *Server) CallbackHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID := s.sessionID(w, r)

		if err := s.flow.HandleReturn(r.Context(), sessionID, r.URL); err != nil {
			log.Warn().Err(err).Msg("login attempt failed")
		}

		http.Redirect(w, r, RouteHome, http.StatusSeeOther)
	}
}

// LogoutHandler clears the session token and sends the visitor to the
// authorization server's end-session endpoint, which redirects back to the
// storefront origin.
func (s *Server) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID := s.sessionID(w, r)
		http.Redirect(w, r, s.flow.Logout(sessionID), http.StatusFound)
	}
}
