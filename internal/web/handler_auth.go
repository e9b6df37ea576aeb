package web

import (
	"net/http"

	"github.com/jmorenas/stageinv/internal/config"
	"github.com/jmorenas/stageinv/internal/service"
)

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if err := s.renderPage(w, r, nil, "base.html", "pages/index.html"); err != nil {
		s.logger.Error("failed to render index", "error", err)
	}
}

func (s *Server) handleLoginForm(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.sessions.UserID(r); ok {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	if err := s.renderPage(w, r, nil, "base.html", "pages/login.html"); err != nil {
		s.logger.Error("failed to render login page", "error", err)
	}
}

func (s *Server) handleLoginSubmit(w http.ResponseWriter, r *http.Request) {
	if err := parseForm(r); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}
	form := formValues(r, "username", "password")
	remember := r.FormValue("remember") != ""

	s.withService(w, r, func(svc *service.InventoryService, cfg *config.Config) {
		user, err := svc.Authenticate(r.Context(), form["username"], form["password"])
		if err != nil {
			s.logger.Error("authentication failed", "error", err)
			http.Error(w, "authentication failed", http.StatusInternalServerError)
			return
		}
		if user == nil {
			s.sessions.AddFlash(w, r, "danger", "Invalid username or password.")
			form["password"] = ""
			if err := s.renderPage(w, r,
				map[string]any{"Form": form},
				"base.html", "pages/login.html",
			); err != nil {
				s.logger.Error("failed to render login page", "error", err)
			}
			return
		}

		if err := s.sessions.SignIn(w, r, user.ID, remember); err != nil {
			s.logger.Error("failed to establish session", "error", err)
			http.Error(w, "failed to establish session", http.StatusInternalServerError)
			return
		}
		s.logger.Info("user signed in", "username", user.Username)
		http.Redirect(w, r, "/", http.StatusSeeOther)
	})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := s.sessions.SignOut(w, r); err != nil {
		s.logger.Error("failed to end session", "error", err)
	}
	s.sessions.AddFlash(w, r, "info", "You have been logged out.")
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}
