package web

import (
	"io"
	"net/http"
)

func (s *Server) handleSettingsForm(w http.ResponseWriter, r *http.Request) {
	cfg, err := s.configs.Load()
	if err != nil {
		s.logger.Error("failed to load config", "error", err)
		http.Error(w, "configuration unavailable", http.StatusInternalServerError)
		return
	}
	if err := s.renderPage(w, r,
		map[string]any{"LogoPath": cfg.LogoPath, "DBHost": cfg.DBHost, "DBName": cfg.DBName},
		"base.html", "pages/admin_settings.html",
	); err != nil {
		s.logger.Error("failed to render settings page", "error", err)
	}
}

// handleSettingsSubmit replaces the company logo. The new file takes effect
// on the next label render; existing stored labels keep the old logo until
// their item is next edited.
func (s *Server) handleSettingsSubmit(w http.ResponseWriter, r *http.Request) {
	if err := parseForm(r); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}

	logoPath, err := s.saveLogo(r)
	if err != nil {
		cfg, lerr := s.configs.Load()
		if lerr != nil {
			http.Error(w, "configuration unavailable", http.StatusInternalServerError)
			return
		}
		if rerr := s.renderPage(w, r,
			map[string]any{"LogoPath": cfg.LogoPath, "Errors": map[string]string{"logo": err.Error()}},
			"base.html", "pages/admin_settings.html",
		); rerr != nil {
			s.logger.Error("failed to render settings page", "error", rerr)
		}
		return
	}
	if logoPath == "" {
		s.sessions.AddFlash(w, r, "warning", "Choose a logo file to upload.")
		http.Redirect(w, r, "/admin/settings", http.StatusSeeOther)
		return
	}

	cfg, err := s.configs.Load()
	if err != nil {
		s.logger.Error("failed to load config", "error", err)
		http.Error(w, "configuration unavailable", http.StatusInternalServerError)
		return
	}
	cfg.LogoPath = logoPath
	if err := s.configs.Save(cfg); err != nil {
		s.logger.Error("failed to persist config", "error", err)
		http.Error(w, "failed to persist configuration", http.StatusInternalServerError)
		return
	}

	s.logger.Info("company logo replaced", "path", logoPath)
	s.sessions.AddFlash(w, r, "success", "Logo updated.")
	http.Redirect(w, r, "/admin/settings", http.StatusSeeOther)
}

// handleUploadedAsset serves files from the uploads directory. The store
// rejects path traversal, so the raw path value can be passed through.
func (s *Server) handleUploadedAsset(w http.ResponseWriter, r *http.Request) {
	rc, mimeType, err := s.uploads.Open(r.PathValue("name"))
	if err != nil {
		http.NotFound(w, r)
		return
	}
	defer func() { _ = rc.Close() }()

	w.Header().Set("Content-Type", mimeType)
	if _, err := io.Copy(w, rc); err != nil {
		s.logger.Error("failed to stream asset", "error", err)
	}
}
