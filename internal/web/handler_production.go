package web

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/jmorenas/stageinv/internal/config"
	"github.com/jmorenas/stageinv/internal/service"
)

const maxProductionNameLen = 255

func (s *Server) handleListProductions(w http.ResponseWriter, r *http.Request) {
	s.withService(w, r, func(svc *service.InventoryService, cfg *config.Config) {
		productions, err := svc.ListProductions(r.Context())
		if err != nil {
			s.logger.Error("failed to list productions", "error", err)
			http.Error(w, "failed to list productions", http.StatusInternalServerError)
			return
		}
		if err := s.renderPage(w, r,
			map[string]any{"Productions": productions},
			"base.html", "pages/productions.html",
		); err != nil {
			s.logger.Error("failed to render productions page", "error", err)
		}
	})
}

func (s *Server) handleNewProductionForm(w http.ResponseWriter, r *http.Request) {
	s.renderProductionForm(w, r, "Create production", "/productions/new", map[string]string{}, nil)
}

func (s *Server) handleCreateProduction(w http.ResponseWriter, r *http.Request) {
	if err := parseForm(r); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}
	form := formValues(r, "name", "date", "notes")
	date, errs := validateProduction(form)
	if len(errs) > 0 {
		s.renderProductionForm(w, r, "Create production", "/productions/new", form, errs)
		return
	}

	s.withService(w, r, func(svc *service.InventoryService, cfg *config.Config) {
		prod, err := svc.CreateProduction(r.Context(), form["name"], date, optStr(form["notes"]))
		if err != nil {
			s.logger.Error("failed to create production", "error", err)
			http.Error(w, "failed to create production", http.StatusInternalServerError)
			return
		}
		s.sessions.AddFlash(w, r, "success", "Production created.")
		http.Redirect(w, r, fmt.Sprintf("/productions/%d", prod.ID), http.StatusSeeOther)
	})
}

func (s *Server) handleViewProduction(w http.ResponseWriter, r *http.Request) {
	id, err := parseProductionID(r)
	if err != nil {
		http.Error(w, "invalid production id", http.StatusBadRequest)
		return
	}

	s.withService(w, r, func(svc *service.InventoryService, cfg *config.Config) {
		prod, assigned, catalog, err := svc.ProductionDetail(r.Context(), id)
		if err != nil {
			s.logger.Error("failed to load production", "error", err)
			http.Error(w, "failed to load production", http.StatusInternalServerError)
			return
		}
		if prod == nil {
			http.NotFound(w, r)
			return
		}
		if err := s.renderPage(w, r,
			map[string]any{"Production": prod, "Assigned": assigned, "Catalog": catalog},
			"base.html", "pages/production_view.html",
		); err != nil {
			s.logger.Error("failed to render production page", "error", err)
		}
	})
}

func (s *Server) handleEditProductionForm(w http.ResponseWriter, r *http.Request) {
	id, err := parseProductionID(r)
	if err != nil {
		http.Error(w, "invalid production id", http.StatusBadRequest)
		return
	}

	s.withService(w, r, func(svc *service.InventoryService, cfg *config.Config) {
		prod, err := svc.GetProduction(r.Context(), id)
		if err != nil {
			s.logger.Error("failed to load production", "error", err)
			http.Error(w, "failed to load production", http.StatusInternalServerError)
			return
		}
		if prod == nil {
			http.NotFound(w, r)
			return
		}

		form := map[string]string{"name": prod.Name, "notes": deref(prod.Notes)}
		if prod.Date != nil {
			form["date"] = prod.Date.Format("2006-01-02")
		}
		s.renderProductionForm(w, r, "Edit production", fmt.Sprintf("/productions/%d/edit", id), form, nil)
	})
}

func (s *Server) handleUpdateProduction(w http.ResponseWriter, r *http.Request) {
	id, err := parseProductionID(r)
	if err != nil {
		http.Error(w, "invalid production id", http.StatusBadRequest)
		return
	}
	if err := parseForm(r); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}
	form := formValues(r, "name", "date", "notes")
	date, errs := validateProduction(form)
	if len(errs) > 0 {
		s.renderProductionForm(w, r, "Edit production", fmt.Sprintf("/productions/%d/edit", id), form, errs)
		return
	}

	s.withService(w, r, func(svc *service.InventoryService, cfg *config.Config) {
		if err := svc.UpdateProduction(r.Context(), id, form["name"], date, optStr(form["notes"])); err != nil {
			s.logger.Error("failed to update production", "error", err)
			http.Error(w, "failed to update production", http.StatusInternalServerError)
			return
		}
		s.sessions.AddFlash(w, r, "success", "Production updated.")
		http.Redirect(w, r, fmt.Sprintf("/productions/%d", id), http.StatusSeeOther)
	})
}

func (s *Server) handleDeleteProduction(w http.ResponseWriter, r *http.Request) {
	id, err := parseProductionID(r)
	if err != nil {
		http.Error(w, "invalid production id", http.StatusBadRequest)
		return
	}

	s.withService(w, r, func(svc *service.InventoryService, cfg *config.Config) {
		if err := svc.DeleteProduction(r.Context(), id); err != nil {
			s.logger.Error("failed to delete production", "error", err)
			http.Error(w, "failed to delete production", http.StatusInternalServerError)
			return
		}
		s.sessions.AddFlash(w, r, "info", "Production deleted.")
		http.Redirect(w, r, "/productions", http.StatusSeeOther)
	})
}

func (s *Server) handleAssignItem(w http.ResponseWriter, r *http.Request) {
	id, err := parseProductionID(r)
	if err != nil {
		http.Error(w, "invalid production id", http.StatusBadRequest)
		return
	}
	if err := parseForm(r); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}
	inventoryID := r.FormValue("inventory_id")
	back := fmt.Sprintf("/productions/%d", id)
	if inventoryID == "" {
		s.sessions.AddFlash(w, r, "warning", "Select an item to assign.")
		http.Redirect(w, r, back, http.StatusSeeOther)
		return
	}

	s.withService(w, r, func(svc *service.InventoryService, cfg *config.Config) {
		// Re-assigning an already assigned item is a silent no-op.
		if err := svc.AssignItem(r.Context(), id, inventoryID); err != nil {
			s.logger.Error("failed to assign item", "inventory_id", inventoryID, "error", err)
			s.sessions.AddFlash(w, r, "danger", "Could not assign that item.")
			http.Redirect(w, r, back, http.StatusSeeOther)
			return
		}
		s.sessions.AddFlash(w, r, "success", "Item assigned.")
		http.Redirect(w, r, back, http.StatusSeeOther)
	})
}

func (s *Server) handleRemoveItem(w http.ResponseWriter, r *http.Request) {
	id, err := parseProductionID(r)
	if err != nil {
		http.Error(w, "invalid production id", http.StatusBadRequest)
		return
	}
	if err := parseForm(r); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}
	inventoryID := r.FormValue("inventory_id")
	back := fmt.Sprintf("/productions/%d", id)

	s.withService(w, r, func(svc *service.InventoryService, cfg *config.Config) {
		if err := svc.RemoveItem(r.Context(), id, inventoryID); err != nil {
			s.logger.Error("failed to remove item", "inventory_id", inventoryID, "error", err)
			http.Error(w, "failed to remove item", http.StatusInternalServerError)
			return
		}
		s.sessions.AddFlash(w, r, "info", "Item removed from production.")
		http.Redirect(w, r, back, http.StatusSeeOther)
	})
}

func (s *Server) renderProductionForm(w http.ResponseWriter, r *http.Request, title, action string, form, errs map[string]string) {
	data := map[string]any{
		"Title":  title,
		"Action": action,
		"Form":   form,
	}
	if errs != nil {
		data["Errors"] = errs
	}
	if err := s.renderPage(w, r, data, "base.html", "pages/production_form.html"); err != nil {
		s.logger.Error("failed to render production form", "error", err)
	}
}

// validateProduction checks the form and parses the optional date field.
func validateProduction(form map[string]string) (*time.Time, map[string]string) {
	errs := map[string]string{}

	switch {
	case form["name"] == "":
		errs["name"] = "This field is required."
	case len(form["name"]) > maxProductionNameLen:
		errs["name"] = fmt.Sprintf("Name must be at most %d characters.", maxProductionNameLen)
	}

	var date *time.Time
	if form["date"] != "" {
		parsed, err := time.Parse("2006-01-02", form["date"])
		if err != nil {
			errs["date"] = "Date must be in YYYY-MM-DD format."
		} else {
			date = &parsed
		}
	}
	return date, errs
}

func parseProductionID(r *http.Request) (int64, error) {
	return strconv.ParseInt(r.PathValue("id"), 10, 64)
}
