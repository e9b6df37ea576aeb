package web

import (
	"fmt"
	"net/http"

	"github.com/jmorenas/stageinv/internal/config"
	"github.com/jmorenas/stageinv/internal/domain"
	"github.com/jmorenas/stageinv/internal/service"
)

const (
	maxInventoryIDLen = 64
	maxItemNameLen    = 255
)

var itemFields = []string{
	"inventory_id", "name", "category", "description",
	"serial_number", "manufacturer", "model",
}

func (s *Server) handleListItems(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")

	s.withService(w, r, func(svc *service.InventoryService, cfg *config.Config) {
		items, err := svc.ListItems(r.Context(), query)
		if err != nil {
			s.logger.Error("failed to list items", "error", err)
			http.Error(w, "failed to list items", http.StatusInternalServerError)
			return
		}
		if err := s.renderPage(w, r,
			map[string]any{"Items": items, "Query": query},
			"base.html", "pages/items.html",
		); err != nil {
			s.logger.Error("failed to render items page", "error", err)
		}
	})
}

func (s *Server) handleNewItemForm(w http.ResponseWriter, r *http.Request) {
	s.renderItemForm(w, r, "Add item", "/items/new", false, map[string]string{}, nil)
}

func (s *Server) handleCreateItem(w http.ResponseWriter, r *http.Request) {
	if err := parseForm(r); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}
	form := formValues(r, itemFields...)
	errs := validateItem(form, false)

	s.withService(w, r, func(svc *service.InventoryService, cfg *config.Config) {
		if len(errs) == 0 {
			existing, err := svc.GetItem(r.Context(), form["inventory_id"])
			if err != nil {
				s.logger.Error("failed to check item", "error", err)
				http.Error(w, "failed to check item", http.StatusInternalServerError)
				return
			}
			if existing != nil {
				errs["inventory_id"] = "An item with this inventory ID already exists."
			}
		}
		if len(errs) > 0 {
			s.renderItemForm(w, r, "Add item", "/items/new", false, form, errs)
			return
		}

		if err := svc.CreateItem(r.Context(), itemFromForm(form)); err != nil {
			s.logger.Error("failed to create item", "error", err)
			http.Error(w, "failed to create item", http.StatusInternalServerError)
			return
		}
		s.sessions.AddFlash(w, r, "success", "Item created.")
		http.Redirect(w, r, "/items", http.StatusSeeOther)
	})
}

func (s *Server) handleEditItemForm(w http.ResponseWriter, r *http.Request) {
	inventoryID := r.PathValue("id")

	s.withService(w, r, func(svc *service.InventoryService, cfg *config.Config) {
		item, err := svc.GetItem(r.Context(), inventoryID)
		if err != nil {
			s.logger.Error("failed to load item", "error", err)
			http.Error(w, "failed to load item", http.StatusInternalServerError)
			return
		}
		if item == nil {
			http.NotFound(w, r)
			return
		}
		s.renderItemForm(w, r, "Edit item", "/items/"+inventoryID+"/edit", true, itemToForm(item), nil)
	})
}

func (s *Server) handleUpdateItem(w http.ResponseWriter, r *http.Request) {
	inventoryID := r.PathValue("id")
	if err := parseForm(r); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}
	form := formValues(r, itemFields...)
	// The inventory ID is the primary key; the path wins over the form.
	form["inventory_id"] = inventoryID
	errs := validateItem(form, true)

	s.withService(w, r, func(svc *service.InventoryService, cfg *config.Config) {
		if len(errs) > 0 {
			s.renderItemForm(w, r, "Edit item", "/items/"+inventoryID+"/edit", true, form, errs)
			return
		}

		item, err := svc.GetItem(r.Context(), inventoryID)
		if err != nil {
			s.logger.Error("failed to load item", "error", err)
			http.Error(w, "failed to load item", http.StatusInternalServerError)
			return
		}
		if item == nil {
			http.NotFound(w, r)
			return
		}

		if err := svc.UpdateItem(r.Context(), itemFromForm(form)); err != nil {
			s.logger.Error("failed to update item", "error", err)
			http.Error(w, "failed to update item", http.StatusInternalServerError)
			return
		}
		s.sessions.AddFlash(w, r, "success", "Item updated and label regenerated.")
		http.Redirect(w, r, "/items", http.StatusSeeOther)
	})
}

func (s *Server) handleDeleteItem(w http.ResponseWriter, r *http.Request) {
	inventoryID := r.PathValue("id")

	s.withService(w, r, func(svc *service.InventoryService, cfg *config.Config) {
		if err := svc.DeleteItem(r.Context(), inventoryID); err != nil {
			s.logger.Error("failed to delete item", "error", err)
			http.Error(w, "failed to delete item", http.StatusInternalServerError)
			return
		}
		s.sessions.AddFlash(w, r, "info", "Item deleted.")
		http.Redirect(w, r, "/items", http.StatusSeeOther)
	})
}

func (s *Server) renderItemForm(w http.ResponseWriter, r *http.Request, title, action string, editing bool, form, errs map[string]string) {
	data := map[string]any{
		"Title":   title,
		"Action":  action,
		"Editing": editing,
		"Form":    form,
	}
	if errs != nil {
		data["Errors"] = errs
	}
	if err := s.renderPage(w, r, data, "base.html", "pages/item_form.html"); err != nil {
		s.logger.Error("failed to render item form", "error", err)
	}
}

func validateItem(form map[string]string, editing bool) map[string]string {
	errs := map[string]string{}

	if !editing {
		switch {
		case form["inventory_id"] == "":
			errs["inventory_id"] = "This field is required."
		case len(form["inventory_id"]) > maxInventoryIDLen:
			errs["inventory_id"] = fmt.Sprintf("Inventory ID must be at most %d characters.", maxInventoryIDLen)
		}
	}
	switch {
	case form["name"] == "":
		errs["name"] = "This field is required."
	case len(form["name"]) > maxItemNameLen:
		errs["name"] = fmt.Sprintf("Name must be at most %d characters.", maxItemNameLen)
	}
	for _, field := range []string{"category", "serial_number", "manufacturer", "model"} {
		if len(form[field]) > maxFieldLen {
			errs[field] = fmt.Sprintf("Must be at most %d characters.", maxFieldLen)
		}
	}
	return errs
}

func itemFromForm(form map[string]string) *domain.Item {
	return &domain.Item{
		InventoryID:  form["inventory_id"],
		Name:         form["name"],
		Category:     optStr(form["category"]),
		Description:  optStr(form["description"]),
		SerialNumber: optStr(form["serial_number"]),
		Manufacturer: optStr(form["manufacturer"]),
		Model:        optStr(form["model"]),
	}
}

func itemToForm(item *domain.Item) map[string]string {
	return map[string]string{
		"inventory_id":  item.InventoryID,
		"name":          item.Name,
		"category":      deref(item.Category),
		"description":   deref(item.Description),
		"serial_number": deref(item.SerialNumber),
		"manufacturer":  deref(item.Manufacturer),
		"model":         deref(item.Model),
	}
}

// optStr maps an empty form field to NULL rather than an empty string.
func optStr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
