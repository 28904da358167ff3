package document

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
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

func newTestServer(env *docEnv, userID string, roles ...string) *echo.Echo {
	e := echo.New()
	api := e.Group("/api/v1", injectUser(userID, roles...))
	NewHandler(env.svc).RegisterRoutes(api)
	return e
}

func multipartFile(t *testing.T, fileName, contentType, content string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="file"; filename="`+fileName+`"`)
	header.Set("Content-Type", contentType)
	part, err := w.CreatePart(header)
	if err != nil {
		t.Fatalf("create part: %v", err)
	}
	part.Write([]byte(content))
	w.Close()
	return &buf, w.FormDataContentType()
}

func TestHandler_UploadListDownload(t *testing.T) {
	env := newDocEnv()
	e := newTestServer(env, "patient-1", "patient")

	body, contentType := multipartFile(t, "scan.pdf", "application/pdf", "pdf bytes")
	req := httptest.NewRequest(http.MethodPost, "/api/v1/consultations/"+env.consultationID.String()+"/documents", body)
	req.Header.Set(echo.HeaderContentType, contentType)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("upload status = %d, body = %s", rec.Code, rec.Body.String())
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/consultations/"+env.consultationID.String()+"/documents", nil)
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "scan.pdf") {
		t.Errorf("list body = %s, want scan.pdf", rec.Body.String())
	}

	docs, _ := env.svc.List(context.Background(), "patient-1", false, env.consultationID)
	req = httptest.NewRequest(http.MethodGet, "/api/v1/documents/"+docs[0].ID.String()+"/download", nil)
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("download status = %d", rec.Code)
	}
	if rec.Body.String() != "pdf bytes" {
		t.Errorf("download body = %q", rec.Body.String())
	}
	if got := rec.Header().Get(echo.HeaderContentDisposition); !strings.Contains(got, "scan.pdf") {
		t.Errorf("Content-Disposition = %q", got)
	}
}

func TestHandler_Upload_ErrorMapping(t *testing.T) {
	env := newDocEnv()
	e := newTestServer(env, "patient-1", "patient")

	body, contentType := multipartFile(t, "tool.exe", "application/octet-stream", "binary")
	req := httptest.NewRequest(http.MethodPost, "/api/v1/consultations/"+env.consultationID.String()+"/documents", body)
	req.Header.Set(echo.HeaderContentType, contentType)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("disallowed type status = %d, want 400", rec.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/api/v1/consultations/"+env.consultationID.String()+"/documents", strings.NewReader("not multipart"))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("missing file status = %d, want 400", rec.Code)
	}
}

func TestHandler_CrossPatientDeniedAsNotFound(t *testing.T) {
	env := newDocEnv()
	e := newTestServer(env, "patient-2", "patient")

	body, contentType := multipartFile(t, "scan.pdf", "application/pdf", "pdf bytes")
	req := httptest.NewRequest(http.MethodPost, "/api/v1/consultations/"+env.consultationID.String()+"/documents", body)
	req.Header.Set(echo.HeaderContentType, contentType)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404 for another patient's consultation", rec.Code)
	}
}
