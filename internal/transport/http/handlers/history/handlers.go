package historyhandler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"folha/internal/domain/history"
	"folha/internal/transport/http/api"
	"folha/internal/transport/http/middleware"
)

type Handler struct {
	History *history.Service
}

func NewHandler(historySvc *history.Service) *Handler {
	return &Handler{History: historySvc}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/history", func(r chi.Router) {
		r.Get("/summary", h.handleGlobalSummary)
		r.Get("/employee/{employeeID}", h.handleEmployeeHistory)
		r.Get("/employee/{employeeID}/year-over-year", h.handleYearOverYear)
	})
}

func (h *Handler) handleGlobalSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.History.GlobalSummary(r.Context())
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "history_summary_failed", "failed to build summary", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, summary, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleEmployeeHistory(w http.ResponseWriter, r *http.Request) {
	hist, err := h.History.EmployeeHistory(r.Context(), chi.URLParam(r, "employeeID"))
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "history_failed", "failed to load history", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, hist, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleYearOverYear(w http.ResponseWriter, r *http.Request) {
	yoy, err := h.History.YearOverYear(r.Context(), chi.URLParam(r, "employeeID"))
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "history_yoy_failed", "failed to compare years", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, yoy, middleware.GetRequestID(r.Context()))
}
