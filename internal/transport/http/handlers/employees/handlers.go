package employeehandler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"folha/internal/domain/auth"
	"folha/internal/domain/employee"
	"folha/internal/domain/history"
	"folha/internal/domain/rules"
	"folha/internal/transport/http/api"
	"folha/internal/transport/http/middleware"
	"folha/internal/transport/http/shared"
)

type Handler struct {
	Employees *employee.Service
	Rules     rules.Table
	validate  *validator.Validate
}

func NewHandler(employees *employee.Service, tbl rules.Table) *Handler {
	return &Handler{Employees: employees, Rules: tbl, validate: validator.New()}
}

type employeePayload struct {
	BranchID     string `json:"branchId"`
	FirstName    string `json:"firstName" validate:"required"`
	LastName     string `json:"lastName" validate:"required"`
	ContractType string `json:"contractType" validate:"required,oneof=permanent fixed_term"`

	BaseSalary         decimal.Decimal `json:"baseSalary"`
	MealAllowance      decimal.Decimal `json:"mealAllowance"`
	TransportAllowance decimal.Decimal `json:"transportAllowance"`
	FamilyAllowance    decimal.Decimal `json:"familyAllowance"`
	MonthlyBonus       decimal.Decimal `json:"monthlyBonus"`
	OtherAllowances    decimal.Decimal `json:"otherAllowances"`

	HiredAt string `json:"hiredAt" validate:"required"`
}

type terminatePayload struct {
	Reason       string `json:"reason" validate:"required,oneof=resignation dismissal redundancy mutual_agreement contract_end"`
	TerminatedAt string `json:"terminatedAt"`
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/employees", func(r chi.Router) {
		r.Get("/", h.handleList)
		r.Get("/{employeeID}", h.handleGet)
		r.With(middleware.RequireRole(auth.RoleAdmin, auth.RoleManager)).Post("/", h.handleCreate)
		r.With(middleware.RequireRole(auth.RoleAdmin, auth.RoleManager)).Put("/{employeeID}", h.handleUpdate)
		r.Get("/{employeeID}/termination-quote", h.handleTerminationQuote)
		r.With(middleware.RequireRole(auth.RoleAdmin, auth.RoleManager)).Post("/{employeeID}/terminate", h.handleTerminate)
	})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	employees, err := h.Employees.List(r.Context(), r.URL.Query().Get("status"))
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "employees_list_failed", "failed to list employees", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, employees, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	emp, err := h.Employees.Get(r.Context(), chi.URLParam(r, "employeeID"))
	if err != nil {
		if errors.Is(err, employee.ErrNotFound) {
			api.Fail(w, http.StatusNotFound, "not_found", "employee not found", middleware.GetRequestID(r.Context()))
			return
		}
		api.Fail(w, http.StatusInternalServerError, "employee_get_failed", "failed to load employee", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, emp, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	emp, ok := h.decodeEmployee(w, r)
	if !ok {
		return
	}
	created, err := h.Employees.Create(r.Context(), emp)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "employee_create_failed", "failed to create employee", middleware.GetRequestID(r.Context()))
		return
	}
	api.Created(w, created, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	emp, ok := h.decodeEmployee(w, r)
	if !ok {
		return
	}
	emp.ID = chi.URLParam(r, "employeeID")
	updated, err := h.Employees.Update(r.Context(), emp)
	if err != nil {
		if errors.Is(err, employee.ErrNotFound) {
			api.Fail(w, http.StatusNotFound, "not_found", "employee not found", middleware.GetRequestID(r.Context()))
			return
		}
		api.Fail(w, http.StatusInternalServerError, "employee_update_failed", "failed to update employee", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, updated, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleTerminationQuote(w http.ResponseWriter, r *http.Request) {
	emp, err := h.Employees.Get(r.Context(), chi.URLParam(r, "employeeID"))
	if err != nil {
		api.Fail(w, http.StatusNotFound, "not_found", "employee not found", middleware.GetRequestID(r.Context()))
		return
	}

	reason := history.TerminationReason(r.URL.Query().Get("reason"))
	if reason == "" {
		reason = history.ReasonDismissal
	}
	pkg := history.ComputeTermination(emp.HiredAt, time.Now(), emp.FullCompensation(), reason, h.Rules)
	api.Success(w, pkg, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleTerminate(w http.ResponseWriter, r *http.Request) {
	var payload terminatePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	if err := h.validate.Struct(payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", err.Error(), middleware.GetRequestID(r.Context()))
		return
	}

	employeeID := chi.URLParam(r, "employeeID")
	emp, err := h.Employees.Get(r.Context(), employeeID)
	if err != nil {
		api.Fail(w, http.StatusNotFound, "not_found", "employee not found", middleware.GetRequestID(r.Context()))
		return
	}

	terminatedAt := time.Now()
	if payload.TerminatedAt != "" {
		parsed, err := shared.ParseDate(payload.TerminatedAt)
		if err != nil {
			api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid termination date", middleware.GetRequestID(r.Context()))
			return
		}
		terminatedAt = parsed
	}

	if err := h.Employees.Terminate(r.Context(), employeeID, payload.Reason); err != nil {
		api.Fail(w, http.StatusInternalServerError, "employee_terminate_failed", "failed to terminate employee", middleware.GetRequestID(r.Context()))
		return
	}

	pkg := history.ComputeTermination(emp.HiredAt, terminatedAt, emp.FullCompensation(),
		history.TerminationReason(payload.Reason), h.Rules)
	api.Success(w, pkg, middleware.GetRequestID(r.Context()))
}

func (h *Handler) decodeEmployee(w http.ResponseWriter, r *http.Request) (employee.Employee, bool) {
	var payload employeePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return employee.Employee{}, false
	}
	if err := h.validate.Struct(payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", err.Error(), middleware.GetRequestID(r.Context()))
		return employee.Employee{}, false
	}
	hiredAt, err := shared.ParseDate(payload.HiredAt)
	if err != nil || hiredAt.IsZero() {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid hire date", middleware.GetRequestID(r.Context()))
		return employee.Employee{}, false
	}
	if payload.BaseSalary.IsNegative() {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "base salary cannot be negative", middleware.GetRequestID(r.Context()))
		return employee.Employee{}, false
	}

	return employee.Employee{
		BranchID:           payload.BranchID,
		FirstName:          payload.FirstName,
		LastName:           payload.LastName,
		ContractType:       payload.ContractType,
		BaseSalary:         payload.BaseSalary,
		MealAllowance:      payload.MealAllowance,
		TransportAllowance: payload.TransportAllowance,
		FamilyAllowance:    payload.FamilyAllowance,
		MonthlyBonus:       payload.MonthlyBonus,
		OtherAllowances:    payload.OtherAllowances,
		HiredAt:            hiredAt,
	}, true
}
