package backuphandler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"folha/internal/domain/auth"
	"folha/internal/domain/backup"
	"folha/internal/transport/http/api"
	"folha/internal/transport/http/middleware"
)

type Handler struct {
	Backup *backup.Service
}

func NewHandler(backupSvc *backup.Service) *Handler {
	return &Handler{Backup: backupSvc}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.With(middleware.RequirePermission(auth.CanApprove)).Get("/backup/export", h.handleExport)
	r.With(middleware.RequireRole(auth.RoleAdmin)).Post("/backup/import", h.handleImport)
}

func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) {
	filename := fmt.Sprintf("folha-backup-%s.json", time.Now().Format("2006-01-02"))
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", "attachment; filename="+filename)

	if err := h.Backup.Export(r.Context(), w); err != nil {
		// headers are already out; all we can do is log
		log.Error().Err(err).Msg("backup export failed")
	}
}

func (h *Handler) handleImport(w http.ResponseWriter, r *http.Request) {
	if err := h.Backup.Import(r.Context(), r.Body); err != nil {
		api.Fail(w, http.StatusBadRequest, "backup_import_failed", err.Error(), middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, map[string]string{"status": "restored"}, middleware.GetRequestID(r.Context()))
}
