package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"folha/internal/domain/auth"
)

func requestAs(role string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/periods", nil)
	if role == "" {
		return req
	}
	ctx := context.WithValue(req.Context(), ctxKeyUser, auth.UserContext{
		UserID:   "user-1",
		Username: "chivukuvuku",
		Role:     role,
	})
	return req.WithContext(ctx)
}

func TestRequirePermission(t *testing.T) {
	handler := RequirePermission(auth.CanApprove)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	cases := []struct {
		name string
		role string
		want int
	}{
		{name: "unauthenticated", role: "", want: http.StatusUnauthorized},
		{name: "operator", role: auth.RoleOperator, want: http.StatusForbidden},
		{name: "manager", role: auth.RoleManager, want: http.StatusNoContent},
		{name: "admin", role: auth.RoleAdmin, want: http.StatusNoContent},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, requestAs(tc.role))
			require.Equal(t, tc.want, rec.Code)
		})
	}
}

func TestRequirePermissionManageUsers(t *testing.T) {
	handler := RequirePermission(auth.CanManageUsers)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, requestAs(auth.RoleManager))
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, requestAs(auth.RoleAdmin))
	require.Equal(t, http.StatusNoContent, rec.Code)
}
