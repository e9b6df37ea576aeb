package web

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/jmorenas/stageinv/internal/config"
	"github.com/jmorenas/stageinv/internal/report"
	"github.com/jmorenas/stageinv/internal/service"
)

func (s *Server) handleItemsReport(w http.ResponseWriter, r *http.Request) {
	s.withService(w, r, func(svc *service.InventoryService, cfg *config.Config) {
		items, err := svc.ListItems(r.Context(), "")
		if err != nil {
			s.logger.Error("failed to list items", "error", err)
			http.Error(w, "failed to list items", http.StatusInternalServerError)
			return
		}
		data, err := report.Items(items)
		if err != nil {
			s.logger.Error("failed to render inventory report", "error", err)
			http.Error(w, "failed to render report", http.StatusInternalServerError)
			return
		}
		servePDF(w, "items_report.pdf", data)
	})
}

func (s *Server) handleProductionReport(w http.ResponseWriter, r *http.Request) {
	raw, ok := strings.CutSuffix(r.PathValue("name"), ".pdf")
	if !ok {
		http.NotFound(w, r)
		return
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		http.NotFound(w, r)
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
		items, err := svc.AssignedItems(r.Context(), id)
		if err != nil {
			s.logger.Error("failed to list assigned items", "error", err)
			http.Error(w, "failed to list assigned items", http.StatusInternalServerError)
			return
		}

		data, err := report.ProductionBOM(prod, items)
		if err != nil {
			s.logger.Error("failed to render BOM", "production_id", id, "error", err)
			http.Error(w, "failed to render report", http.StatusInternalServerError)
			return
		}
		servePDF(w, fmt.Sprintf("production_%d_BOM.pdf", id), data)
	})
}

func servePDF(w http.ResponseWriter, filename string, data []byte) {
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	_, _ = w.Write(data)
}
