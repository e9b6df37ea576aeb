package web

import (
	"net/http"
	"strings"

	"github.com/jmorenas/stageinv/internal/config"
	"github.com/jmorenas/stageinv/internal/label"
	"github.com/jmorenas/stageinv/internal/service"
)

// handleLabel renders the printable label for one item on the fly. The image
// is composed fresh on every request so it always reflects the current row.
func (s *Server) handleLabel(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	inventoryID, ok := strings.CutSuffix(name, ".png")
	if !ok || inventoryID == "" {
		http.NotFound(w, r)
		return
	}

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

		img, err := s.labels.Printable(item, s.logoPath(cfg))
		if err != nil {
			s.logger.Error("failed to compose label", "inventory_id", inventoryID, "error", err)
			http.Error(w, "failed to compose label", http.StatusInternalServerError)
			return
		}
		data, err := label.EncodePNG(img)
		if err != nil {
			s.logger.Error("failed to encode label", "inventory_id", inventoryID, "error", err)
			http.Error(w, "failed to encode label", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("Content-Disposition", `inline; filename="`+name+`"`)
		if _, err := w.Write(data); err != nil {
			s.logger.Error("failed to write label response", "error", err)
		}
	})
}
