package web

import (
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/jmorenas/stageinv/internal/config"
	"github.com/jmorenas/stageinv/internal/service"
)

// maxUploadBytes bounds multipart bodies; logos are small images.
const maxUploadBytes = 5 << 20

const (
	minUsernameLen = 3
	minPasswordLen = 6
	maxFieldLen    = 128
)

func (s *Server) handleSetupForm(w http.ResponseWriter, r *http.Request) {
	form := map[string]string{
		"db_host": "localhost",
		"db_port": "3306",
		"db_name": "inventory_db",
		"db_user": "inventory_user",
	}
	if err := s.renderPage(w, r,
		map[string]any{"Form": form},
		"base.html", "pages/setup.html",
	); err != nil {
		s.logger.Error("failed to render setup page", "error", err)
	}
}

func (s *Server) handleSetupSubmit(w http.ResponseWriter, r *http.Request) {
	if err := parseForm(r); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}

	form := formValues(r,
		"db_host", "db_port", "db_name", "db_user", "db_pass",
		"admin_username", "admin_password",
		"default_username", "default_password",
	)
	errs := validateSetup(form)

	rerender := func() {
		if err := s.renderPage(w, r,
			map[string]any{"Form": form, "Errors": errs},
			"base.html", "pages/setup.html",
		); err != nil {
			s.logger.Error("failed to render setup page", "error", err)
		}
	}
	if len(errs) > 0 {
		rerender()
		return
	}

	cfg := &config.Config{
		DBHost: form["db_host"],
		DBPort: form["db_port"],
		DBName: form["db_name"],
		DBUser: form["db_user"],
		DBPass: form["db_pass"],
	}

	// The submitted credentials are verified against a live connection before
	// anything is persisted; a wrong host or password just redisplays the form.
	dbh, cleanup, err := s.connector.Connect(cfg)
	if err != nil {
		s.logger.Error("setup connection check failed", "error", err)
		s.sessions.AddFlash(w, r, "danger", "Could not connect to the database: "+err.Error())
		rerender()
		return
	}
	defer cleanup()

	if err := s.connector.Migrate(dbh); err != nil {
		s.logger.Error("setup migration failed", "error", err)
		s.sessions.AddFlash(w, r, "danger", "Connected, but creating the schema failed: "+err.Error())
		rerender()
		return
	}

	svc := s.buildService(dbh, cfg)
	if err := s.provisionAccounts(r, svc, form); err != nil {
		s.logger.Error("setup account provisioning failed", "error", err)
		s.sessions.AddFlash(w, r, "danger", "Creating the initial accounts failed.")
		rerender()
		return
	}

	logoPath, err := s.saveLogo(r)
	if err != nil {
		errs["logo"] = err.Error()
		rerender()
		return
	}
	cfg.LogoPath = logoPath

	cfg.Configured = true
	if err := s.configs.Save(cfg); err != nil {
		s.logger.Error("failed to persist config", "error", err)
		http.Error(w, "failed to persist configuration", http.StatusInternalServerError)
		return
	}

	s.logger.Info("setup complete", "db_host", cfg.DBHost, "db_name", cfg.DBName)
	s.sessions.AddFlash(w, r, "success", "Setup complete. Please log in.")
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func (s *Server) provisionAccounts(r *http.Request, svc *service.InventoryService, form map[string]string) error {
	if err := svc.ProvisionUser(r.Context(), form["admin_username"], form["admin_password"], true); err != nil {
		return err
	}
	if form["default_username"] != "" {
		return svc.ProvisionUser(r.Context(), form["default_username"], form["default_password"], false)
	}
	return nil
}

func validateSetup(form map[string]string) map[string]string {
	errs := map[string]string{}

	for _, field := range []string{"db_host", "db_name", "db_user"} {
		if form[field] == "" {
			errs[field] = "This field is required."
		}
	}
	if form["db_port"] == "" {
		form["db_port"] = "3306"
	} else if _, err := strconv.Atoi(form["db_port"]); err != nil {
		errs["db_port"] = "Port must be a number."
	}

	validateAccount(errs, form, "admin_username", "admin_password")
	// The default (non-admin) account is optional, but half a pair is not.
	if form["default_username"] != "" || form["default_password"] != "" {
		validateAccount(errs, form, "default_username", "default_password")
	}
	return errs
}

func validateAccount(errs, form map[string]string, userField, passField string) {
	username, password := form[userField], form[passField]
	switch {
	case username == "":
		errs[userField] = "This field is required."
	case len(username) < minUsernameLen:
		errs[userField] = fmt.Sprintf("Username must be at least %d characters.", minUsernameLen)
	case len(username) > maxFieldLen:
		errs[userField] = fmt.Sprintf("Username must be at most %d characters.", maxFieldLen)
	}
	switch {
	case password == "":
		errs[passField] = "This field is required."
	case len(password) < minPasswordLen:
		errs[passField] = fmt.Sprintf("Password must be at least %d characters.", minPasswordLen)
	}
}

// saveLogo stores an uploaded logo under a fixed name, keyed by its original
// extension. Returns "" when the request carries no logo file.
func (s *Server) saveLogo(r *http.Request) (string, error) {
	if r.MultipartForm == nil {
		return "", nil
	}
	file, header, err := r.FormFile("logo")
	if err == http.ErrMissingFile {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read logo upload: %w", err)
	}
	defer func() { _ = file.Close() }()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	switch ext {
	case ".png", ".jpg", ".jpeg":
	default:
		return "", fmt.Errorf("logo must be a .png, .jpg or .jpeg file")
	}
	return s.uploads.Save("company_logo"+ext, file)
}

func parseForm(r *http.Request) error {
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		return r.ParseMultipartForm(maxUploadBytes)
	}
	return r.ParseForm()
}

func formValues(r *http.Request, fields ...string) map[string]string {
	form := make(map[string]string, len(fields))
	for _, f := range fields {
		form[f] = strings.TrimSpace(r.FormValue(f))
	}
	return form
}
