package web

import (
	"bytes"
	"database/sql"
	"embed"
	"html/template"
	"log/slog"
	"net/http"
	"path/filepath"
	"time"

	"github.com/jmorenas/stageinv/internal/auth"
	"github.com/jmorenas/stageinv/internal/config"
	"github.com/jmorenas/stageinv/internal/domain"
	"github.com/jmorenas/stageinv/internal/filestore"
	"github.com/jmorenas/stageinv/internal/label"
	"github.com/jmorenas/stageinv/internal/service"
	"github.com/jmorenas/stageinv/internal/store"
)

// Connector opens a database connection for a single request against the
// current persisted config and reports how to create the schema on it.
// Production wiring passes db.MySQLConnector; tests inject a sqlite-backed
// connector whose cleanup is a no-op.
type Connector interface {
	Connect(cfg *config.Config) (*sql.DB, func(), error)
	Migrate(d *sql.DB) error
}

type Server struct {
	env       *config.Env
	configs   *config.Store
	connector Connector
	sessions  *auth.Sessions
	labels    *label.Generator
	uploads   *filestore.Store
	labelDir  *filestore.Store
	templates embed.FS
	mux       *http.ServeMux
	logger    *slog.Logger
}

func NewServer(
	env *config.Env,
	configs *config.Store,
	connector Connector,
	uploads *filestore.Store,
	labelDir *filestore.Store,
	tmpl embed.FS,
	logger *slog.Logger,
) *Server {
	s := &Server{
		env:       env,
		configs:   configs,
		connector: connector,
		sessions:  auth.NewSessions(env.SessionSecret),
		labels:    label.NewGenerator(env.FontPath),
		uploads:   uploads,
		labelDir:  labelDir,
		templates: tmpl,
		mux:       http.NewServeMux(),
		logger:    logger,
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /{$}", s.requireLogin(s.handleIndex))

	s.mux.HandleFunc("GET /setup", s.handleSetupForm)
	s.mux.HandleFunc("POST /setup", s.handleSetupSubmit)

	s.mux.HandleFunc("GET /login", s.handleLoginForm)
	s.mux.HandleFunc("POST /login", s.handleLoginSubmit)
	s.mux.HandleFunc("GET /logout", s.requireLogin(s.handleLogout))

	s.mux.HandleFunc("GET /items", s.requireLogin(s.handleListItems))
	s.mux.HandleFunc("GET /items/new", s.requireLogin(s.handleNewItemForm))
	s.mux.HandleFunc("POST /items/new", s.requireLogin(s.handleCreateItem))
	s.mux.HandleFunc("GET /items/{id}/edit", s.requireLogin(s.handleEditItemForm))
	s.mux.HandleFunc("POST /items/{id}/edit", s.requireLogin(s.handleUpdateItem))
	s.mux.HandleFunc("POST /items/{id}/delete", s.requireLogin(s.handleDeleteItem))

	s.mux.HandleFunc("GET /productions", s.requireLogin(s.handleListProductions))
	s.mux.HandleFunc("GET /productions/new", s.requireLogin(s.handleNewProductionForm))
	s.mux.HandleFunc("POST /productions/new", s.requireLogin(s.handleCreateProduction))
	s.mux.HandleFunc("GET /productions/{id}", s.requireLogin(s.handleViewProduction))
	s.mux.HandleFunc("GET /productions/{id}/edit", s.requireLogin(s.handleEditProductionForm))
	s.mux.HandleFunc("POST /productions/{id}/edit", s.requireLogin(s.handleUpdateProduction))
	s.mux.HandleFunc("POST /productions/{id}/delete", s.requireLogin(s.handleDeleteProduction))
	s.mux.HandleFunc("POST /productions/{id}/assign", s.requireLogin(s.handleAssignItem))
	s.mux.HandleFunc("POST /productions/{id}/remove", s.requireLogin(s.handleRemoveItem))

	s.mux.HandleFunc("GET /labels/{name}", s.requireLogin(s.handleLabel))
	s.mux.HandleFunc("GET /reports/items.pdf", s.requireLogin(s.handleItemsReport))
	s.mux.HandleFunc("GET /reports/production/{name}", s.requireLogin(s.handleProductionReport))

	s.mux.HandleFunc("GET /admin/settings", s.requireAdmin(s.handleSettingsForm))
	s.mux.HandleFunc("POST /admin/settings", s.requireAdmin(s.handleSettingsSubmit))

	s.mux.HandleFunc("GET /uploads/{name...}", s.handleUploadedAsset)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	requestLogger(s.logger, securityHeaders(s.gate(s.mux))).ServeHTTP(w, r)
}

func (s *Server) ListenAndServe(addr string) error {
	s.logger.Info("starting server", "addr", addr)
	srv := &http.Server{
		Addr:         addr,
		Handler:      s,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	return srv.ListenAndServe()
}

// withService loads the config, opens a fresh database connection, builds the
// service for this one request, and closes the connection when fn returns.
// Nothing database-related outlives the request.
func (s *Server) withService(w http.ResponseWriter, r *http.Request, fn func(svc *service.InventoryService, cfg *config.Config)) {
	cfg, err := s.configs.Load()
	if err != nil {
		s.logger.Error("failed to load config", "error", err)
		http.Error(w, "configuration unavailable", http.StatusInternalServerError)
		return
	}

	dbh, cleanup, err := s.connector.Connect(cfg)
	if err != nil {
		s.logger.Error("failed to connect to database", "error", err)
		http.Error(w, "database unavailable", http.StatusInternalServerError)
		return
	}
	defer cleanup()

	fn(s.buildService(dbh, cfg), cfg)
}

func (s *Server) buildService(dbh *sql.DB, cfg *config.Config) *service.InventoryService {
	return service.NewInventoryService(
		store.NewItemStore(dbh),
		store.NewProductionStore(dbh),
		store.NewUserStore(dbh),
		s.labelHook(cfg),
		s.logger,
	)
}

// labelHook regenerates the stored QR label after an item is saved.
func (s *Server) labelHook(cfg *config.Config) service.LabelHook {
	return func(item *domain.Item) error {
		img, err := s.labels.QRCode(label.Payload(item), s.logoPath(cfg))
		if err != nil {
			return err
		}
		data, err := label.EncodePNG(img)
		if err != nil {
			return err
		}
		if _, err := s.labelDir.Save(item.InventoryID+".png", bytes.NewReader(data)); err != nil {
			return err
		}
		return nil
	}
}

// logoPath resolves the logo composited into generated labels.
func (s *Server) logoPath(cfg *config.Config) string {
	if cfg.LogoPath != "" {
		return cfg.LogoPath
	}
	// TODO: track the uploaded logo's extension; a .jpg logo saved during
	// setup never matches this fallback name and is silently skipped.
	return filepath.Join(s.env.UploadsDir, "company_logo.png")
}

// renderPage parses and executes a full-page template set, draining queued
// flash messages into the view data.
func (s *Server) renderPage(w http.ResponseWriter, r *http.Request, data map[string]any, files ...string) error {
	if data == nil {
		data = map[string]any{}
	}
	data["Flashes"] = s.sessions.Flashes(w, r)
	_, loggedIn := s.sessions.UserID(r)
	data["LoggedIn"] = loggedIn
	if _, ok := data["Form"]; !ok {
		data["Form"] = map[string]string{}
	}
	if _, ok := data["Errors"]; !ok {
		data["Errors"] = map[string]string{}
	}

	tmpl, err := template.New("").ParseFS(s.templates, files...)
	if err != nil {
		http.Error(w, "template error", http.StatusInternalServerError)
		return err
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	return tmpl.ExecuteTemplate(w, "base", data)
}
