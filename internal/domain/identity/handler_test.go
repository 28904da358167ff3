package identity

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/afyalink/afyalink-api/internal/platform/auth"
)

func injectUser(userID string, roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := auth.WithUser(c.Request().Context(), userID, userID+"@example.com", auth.NewRoleSet(roles...))
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	}
}

func newTestServer(svc *Service, userID string, roles ...string) *echo.Echo {
	e := echo.New()
	api := e.Group("/api/v1", injectUser(userID, roles...))
	NewHandler(svc).RegisterRoutes(api)
	return e
}

func TestHandler_ProfileRoundTrip(t *testing.T) {
	svc, _ := newTestService()
	e := newTestServer(svc, "user-1", "patient")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/profile", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("GET before signup status = %d, want 404", rec.Code)
	}

	body := `{"full_name": "Jane Doe", "email": "jane@example.com", "country": "KE", "date_of_birth": "1990-06-15"}`
	req = httptest.NewRequest(http.MethodPut, "/api/v1/profile", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("PUT status = %d, body = %s", rec.Code, rec.Body.String())
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/profile", nil)
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("GET after signup status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Jane Doe") {
		t.Errorf("profile body = %s", rec.Body.String())
	}
}

func TestHandler_UserMgmtIsSuperadminOnly(t *testing.T) {
	svc, _ := newTestService()

	tests := []struct {
		name  string
		roles []string
		want  int
	}{
		{"patient denied", []string{"patient"}, http.StatusForbidden},
		{"admin denied", []string{"admin"}, http.StatusForbidden},
		{"consultation_admin denied", []string{"consultation_admin"}, http.StatusForbidden},
		{"superadmin allowed", []string{"superadmin"}, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestServer(svc, "caller", tt.roles...)
			req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/users", nil)
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestHandler_GrantAndRevokeRole(t *testing.T) {
	svc, _ := newTestService()
	e := newTestServer(svc, "root", "superadmin")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/users/user-1/roles", strings.NewReader(`{"role": "visa_admin"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("grant status = %d, body = %s", rec.Code, rec.Body.String())
	}

	// Duplicate grant conflicts.
	req = httptest.NewRequest(http.MethodPost, "/api/v1/admin/users/user-1/roles", strings.NewReader(`{"role": "visa_admin"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusConflict {
		t.Errorf("duplicate grant status = %d, want 409", rec.Code)
	}

	// Unknown role names are rejected.
	req = httptest.NewRequest(http.MethodPost, "/api/v1/admin/users/user-1/roles", strings.NewReader(`{"role": "wizard"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("unknown role status = %d, want 400", rec.Code)
	}

	req = httptest.NewRequest(http.MethodDelete, "/api/v1/admin/users/user-1/roles/visa_admin", nil)
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Errorf("revoke status = %d", rec.Code)
	}

	roles, _ := svc.RolesForUser(context.Background(), "user-1")
	if len(roles) != 0 {
		t.Errorf("roles after revoke = %v, want none", roles)
	}
}
