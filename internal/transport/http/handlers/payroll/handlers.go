package payrollhandler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"folha/internal/domain/auth"
	"folha/internal/domain/payroll"
	"folha/internal/transport/http/api"
	"folha/internal/transport/http/middleware"
	"folha/internal/transport/http/shared"
)

type Handler struct {
	Payroll  *payroll.Service
	validate *validator.Validate
}

func NewHandler(payrollSvc *payroll.Service) *Handler {
	return &Handler{Payroll: payrollSvc, validate: validator.New()}
}

type periodPayload struct {
	Year  int `json:"year" validate:"required,min=2000,max=2100"`
	Month int `json:"month" validate:"required,min=1,max=12"`
}

type approvePayload struct {
	Password string `json:"password" validate:"required"`
}

type reopenPayload struct {
	Reason string `json:"reason" validate:"required"`
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/periods", func(r chi.Router) {
		r.Get("/", h.handleList)
		r.Get("/{periodID}", h.handleGet)
		r.Get("/{periodID}/entries", h.handleEntries)
		r.With(middleware.RequirePermission(auth.CanApprove)).Post("/", h.handleCreate)
		r.With(middleware.RequirePermission(auth.CanApprove)).Post("/{periodID}/calculate", h.handleCalculate)
		r.With(middleware.RequirePermission(auth.CanApprove)).Post("/{periodID}/approve", h.handleApprove)
		r.With(middleware.RequirePermission(auth.CanApprove)).Post("/{periodID}/pay", h.handlePay)
		r.With(middleware.RequirePermission(auth.CanApprove)).Post("/{periodID}/reopen", h.handleReopen)
	})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	page := shared.ParsePagination(r, 24, 120)
	periods, err := h.Payroll.ListPeriods(r.Context(), page.Limit, page.Offset)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "periods_list_failed", "failed to list periods", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, periods, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	period, err := h.Payroll.GetPeriod(r.Context(), chi.URLParam(r, "periodID"))
	if err != nil {
		if errors.Is(err, payroll.ErrPeriodNotFound) {
			api.Fail(w, http.StatusNotFound, "not_found", "period not found", middleware.GetRequestID(r.Context()))
			return
		}
		api.Fail(w, http.StatusInternalServerError, "period_get_failed", "failed to load period", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, period, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleEntries(w http.ResponseWriter, r *http.Request) {
	entries, err := h.Payroll.ListEntries(r.Context(), chi.URLParam(r, "periodID"))
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "entries_list_failed", "failed to list entries", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, entries, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var payload periodPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	if err := h.validate.Struct(payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", err.Error(), middleware.GetRequestID(r.Context()))
		return
	}

	period, err := h.Payroll.CreatePeriod(r.Context(), payload.Year, payload.Month)
	if err != nil {
		if errors.Is(err, payroll.ErrPeriodOpenExists) {
			api.Fail(w, http.StatusConflict, "open_period_exists", "another period is still open", middleware.GetRequestID(r.Context()))
			return
		}
		api.Fail(w, http.StatusInternalServerError, "period_create_failed", "failed to create period", middleware.GetRequestID(r.Context()))
		return
	}
	api.Created(w, period, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCalculate(w http.ResponseWriter, r *http.Request) {
	entries, err := h.Payroll.Calculate(r.Context(), chi.URLParam(r, "periodID"))
	if err != nil {
		h.failTransition(w, r, "period_calculate_failed", err)
		return
	}
	api.Success(w, entries, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleApprove(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())

	var payload approvePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	if err := h.validate.Struct(payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "approval password required", middleware.GetRequestID(r.Context()))
		return
	}

	if err := h.Payroll.Approve(r.Context(), chi.URLParam(r, "periodID"), user.UserID, payload.Password); err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			api.Fail(w, http.StatusForbidden, "invalid_credentials", "approval password is wrong", middleware.GetRequestID(r.Context()))
			return
		}
		h.failTransition(w, r, "period_approve_failed", err)
		return
	}
	api.Success(w, map[string]string{"status": payroll.PeriodStatusApproved}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handlePay(w http.ResponseWriter, r *http.Request) {
	if err := h.Payroll.MarkPaid(r.Context(), chi.URLParam(r, "periodID")); err != nil {
		h.failTransition(w, r, "period_pay_failed", err)
		return
	}
	api.Success(w, map[string]string{"status": payroll.PeriodStatusPaid}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleReopen(w http.ResponseWriter, r *http.Request) {
	var payload reopenPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	if err := h.validate.Struct(payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "reopen reason required", middleware.GetRequestID(r.Context()))
		return
	}

	if err := h.Payroll.Reopen(r.Context(), chi.URLParam(r, "periodID"), payload.Reason); err != nil {
		if errors.Is(err, payroll.ErrReasonRequired) {
			api.Fail(w, http.StatusBadRequest, "invalid_payload", "reopen reason required", middleware.GetRequestID(r.Context()))
			return
		}
		h.failTransition(w, r, "period_reopen_failed", err)
		return
	}
	api.Success(w, map[string]string{"status": payroll.PeriodStatusCalculated}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) failTransition(w http.ResponseWriter, r *http.Request, code string, err error) {
	requestID := middleware.GetRequestID(r.Context())
	switch {
	case errors.Is(err, payroll.ErrPeriodNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", "period not found", requestID)
	case errors.Is(err, payroll.ErrPeriodImmutable),
		errors.Is(err, payroll.ErrInvalidTransition),
		errors.Is(err, payroll.ErrNoEntries):
		api.Fail(w, http.StatusBadRequest, "invalid_state", err.Error(), requestID)
	case errors.Is(err, payroll.ErrEntriesStale):
		api.Fail(w, http.StatusConflict, "entries_stale", err.Error(), requestID)
	default:
		api.Fail(w, http.StatusInternalServerError, code, "operation failed", requestID)
	}
}
