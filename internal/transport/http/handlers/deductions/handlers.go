package deductionhandler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"folha/internal/domain/auth"
	"folha/internal/domain/deduction"
	"folha/internal/transport/http/api"
	"folha/internal/transport/http/middleware"
)

type Handler struct {
	Deductions *deduction.Service
	validate   *validator.Validate
}

func NewHandler(deductions *deduction.Service) *Handler {
	return &Handler{Deductions: deductions, validate: validator.New()}
}

type deductionPayload struct {
	EmployeeID   string          `json:"employeeId" validate:"required"`
	Kind         string          `json:"kind" validate:"required,oneof=loan advance other"`
	Description  string          `json:"description" validate:"required"`
	TotalAmount  decimal.Decimal `json:"totalAmount"`
	Installments int             `json:"installments" validate:"required,min=1,max=120"`
}

type cancelPayload struct {
	Reason string `json:"reason" validate:"required"`
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/deductions", func(r chi.Router) {
		r.Get("/employee/{employeeID}", h.handleListByEmployee)
		r.Get("/employee/{employeeID}/due", h.handleDue)
		r.With(middleware.RequireRole(auth.RoleAdmin, auth.RoleManager)).Post("/", h.handleCreate)
		r.With(middleware.RequireRole(auth.RoleAdmin, auth.RoleManager)).Post("/{deductionID}/cancel", h.handleCancel)
	})
}

func (h *Handler) handleListByEmployee(w http.ResponseWriter, r *http.Request) {
	deductions, err := h.Deductions.ListByEmployee(r.Context(), chi.URLParam(r, "employeeID"))
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "deductions_list_failed", "failed to list deductions", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, deductions, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleDue(w http.ResponseWriter, r *http.Request) {
	due, err := h.Deductions.DueThisPeriod(r.Context(), chi.URLParam(r, "employeeID"))
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "deductions_due_failed", "failed to compute due installments", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, due, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var payload deductionPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	if err := h.validate.Struct(payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", err.Error(), middleware.GetRequestID(r.Context()))
		return
	}

	created, err := h.Deductions.Create(r.Context(), payload.EmployeeID, payload.Kind, payload.Description,
		payload.TotalAmount, payload.Installments)
	if err != nil {
		if errors.Is(err, deduction.ErrInvalidSchedule) {
			api.Fail(w, http.StatusBadRequest, "invalid_schedule", err.Error(), middleware.GetRequestID(r.Context()))
			return
		}
		api.Fail(w, http.StatusInternalServerError, "deduction_create_failed", "failed to create deduction", middleware.GetRequestID(r.Context()))
		return
	}
	api.Created(w, created, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCancel(w http.ResponseWriter, r *http.Request) {
	var payload cancelPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	if err := h.validate.Struct(payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", err.Error(), middleware.GetRequestID(r.Context()))
		return
	}

	if err := h.Deductions.Cancel(r.Context(), chi.URLParam(r, "deductionID"), payload.Reason); err != nil {
		api.Fail(w, http.StatusBadRequest, "deduction_cancel_failed", err.Error(), middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, map[string]string{"status": "cancelled"}, middleware.GetRequestID(r.Context()))
}
