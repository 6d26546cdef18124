package attendancehandler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"folha/internal/domain/attendance"
	"folha/internal/domain/auth"
	"folha/internal/transport/http/api"
	"folha/internal/transport/http/middleware"
)

type Handler struct {
	Attendance *attendance.Service
	validate   *validator.Validate
}

func NewHandler(att *attendance.Service) *Handler {
	return &Handler{Attendance: att, validate: validator.New()}
}

type attendancePayload struct {
	EmployeeID string `json:"employeeId" validate:"required"`
	Year       int    `json:"year" validate:"required,min=2000,max=2100"`
	Month      int    `json:"month" validate:"required,min=1,max=12"`

	AbsenceDays          decimal.Decimal `json:"absenceDays"`
	DelayHours           decimal.Decimal `json:"delayHours"`
	OvertimeNormalHours  decimal.Decimal `json:"overtimeNormalHours"`
	OvertimeNightHours   decimal.Decimal `json:"overtimeNightHours"`
	OvertimeHolidayHours decimal.Decimal `json:"overtimeHolidayHours"`
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/attendance", func(r chi.Router) {
		r.Get("/{year}/{month}", h.handleForMonth)
		r.With(middleware.RequireRole(auth.RoleAdmin, auth.RoleManager, auth.RoleOperator)).Put("/", h.handleUpsert)
	})
}

func (h *Handler) handleForMonth(w http.ResponseWriter, r *http.Request) {
	year, err := strconv.Atoi(chi.URLParam(r, "year"))
	if err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid year", middleware.GetRequestID(r.Context()))
		return
	}
	month, err := strconv.Atoi(chi.URLParam(r, "month"))
	if err != nil || month < 1 || month > 12 {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid month", middleware.GetRequestID(r.Context()))
		return
	}

	records, err := h.Attendance.ForMonth(r.Context(), year, month)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "attendance_list_failed", "failed to list attendance", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, records, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleUpsert(w http.ResponseWriter, r *http.Request) {
	var payload attendancePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	if err := h.validate.Struct(payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", err.Error(), middleware.GetRequestID(r.Context()))
		return
	}

	record, err := h.Attendance.Upsert(r.Context(), attendance.Record{
		EmployeeID:           payload.EmployeeID,
		Year:                 payload.Year,
		Month:                payload.Month,
		AbsenceDays:          payload.AbsenceDays,
		DelayHours:           payload.DelayHours,
		OvertimeNormalHours:  payload.OvertimeNormalHours,
		OvertimeNightHours:   payload.OvertimeNightHours,
		OvertimeHolidayHours: payload.OvertimeHolidayHours,
	})
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "attendance_upsert_failed", "failed to save attendance", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, record, middleware.GetRequestID(r.Context()))
}
