package hospital

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

func newTestServer(svc *Service, mw ...echo.MiddlewareFunc) *echo.Echo {
	e := echo.New()
	api := e.Group("/api/v1", mw...)
	NewHandler(svc).RegisterRoutes(api)
	return e
}

func TestHandler_PublicRead(t *testing.T) {
	svc, _, _ := newTestService()
	h, _ := svc.Create(context.Background(), validInput())

	// No identity injected at all: catalog reads must still work.
	e := newTestServer(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/hospitals", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("list status = %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/hospitals/slug/"+h.Slug, nil)
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("get by slug status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Nairobi Heart Centre") {
		t.Errorf("body = %s", rec.Body.String())
	}
}

func TestHandler_WritesGatedToCatalogManagers(t *testing.T) {
	body := `{"slug": "mombasa-general", "name": "Mombasa General", "city": "Mombasa", "country": "KE"}`

	tests := []struct {
		name  string
		roles []string
		want  int
	}{
		{"anonymous denied", nil, http.StatusForbidden},
		{"patient denied", []string{"patient"}, http.StatusForbidden},
		{"admin denied", []string{"admin"}, http.StatusForbidden},
		{"hospital_admin allowed", []string{"hospital_admin"}, http.StatusCreated},
		{"superadmin allowed", []string{"superadmin"}, http.StatusCreated},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _, _ := newTestService()
			var e *echo.Echo
			if tt.roles == nil {
				e = newTestServer(svc)
			} else {
				e = newTestServer(svc, injectUser("user-1", tt.roles...))
			}
			req := httptest.NewRequest(http.MethodPost, "/api/v1/hospitals", strings.NewReader(body))
			req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestHandler_DuplicateSlugConflicts(t *testing.T) {
	svc, _, _ := newTestService()
	svc.Create(context.Background(), validInput())

	e := newTestServer(svc, injectUser("mgr", "hospital_admin"))
	body := `{"slug": "nairobi-heart-centre", "name": "Imposter Clinic", "city": "Nairobi", "country": "KE"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/hospitals", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusConflict {
		t.Errorf("status = %d, want 409", rec.Code)
	}
}

func TestHandler_SpecialistRoutes(t *testing.T) {
	svc, _, _ := newTestService()
	h, _ := svc.Create(context.Background(), validInput())
	e := newTestServer(svc, injectUser("mgr", "hospital_admin"))

	body := `{"name": "Dr. Amara Okafor", "specialty": "Cardiology"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/hospitals/"+h.ID.String()+"/specialists", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("add specialist status = %d, body = %s", rec.Code, rec.Body.String())
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/hospitals/"+h.ID.String()+"/specialists", nil)
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("list specialists status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Dr. Amara Okafor") {
		t.Errorf("body = %s", rec.Body.String())
	}
}
