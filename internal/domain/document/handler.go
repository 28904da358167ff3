package document

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/afyalink/afyalink-api/internal/domain/consultation"
	"github.com/afyalink/afyalink-api/internal/platform/auth"
	"github.com/afyalink/afyalink-api/internal/platform/blobstore"
)

// Handler exposes the document HTTP API.
type Handler struct {
	svc *Service
}

// NewHandler creates a Handler for the given service.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts the document routes. All of them require a signed-in
// user; per-consultation ownership is enforced by the service.
func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("/consultations/:id/documents", auth.RequireAuthenticated())
	g.POST("", h.Upload)
	g.GET("", h.List)

	api.GET("/documents/:id/download", h.Download, auth.RequireAuthenticated())
}

func actor(c echo.Context) (string, bool) {
	ctx := c.Request().Context()
	return auth.UserIDFromContext(ctx), auth.RoleSetFromContext(ctx).IsAdmin()
}

// Upload handles POST /consultations/:id/documents with a multipart "file"
// part.
func (h *Handler) Upload(c echo.Context) error {
	consultationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid consultation id")
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "multipart field \"file\" is required")
	}

	src, err := fileHeader.Open()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "could not read uploaded file")
	}
	defer src.Close()

	userID, admin := actor(c)
	doc, err := h.svc.Upload(c.Request().Context(), userID, admin, consultationID,
		fileHeader.Filename, fileHeader.Header.Get(echo.HeaderContentType), fileHeader.Size, src)
	if err != nil {
		return mapUploadError(err)
	}
	return c.JSON(http.StatusCreated, doc)
}

// List handles GET /consultations/:id/documents.
func (h *Handler) List(c echo.Context) error {
	consultationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid consultation id")
	}

	userID, admin := actor(c)
	docs, err := h.svc.List(c.Request().Context(), userID, admin, consultationID)
	if err != nil {
		if errors.Is(err, consultation.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "consultation not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, docs)
}

// Download handles GET /documents/:id/download, streaming the file back with
// its original name.
func (h *Handler) Download(c echo.Context) error {
	documentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid document id")
	}

	userID, admin := actor(c)
	doc, content, err := h.svc.Download(c.Request().Context(), userID, admin, documentID)
	if err != nil {
		if errors.Is(err, ErrNotFound) || errors.Is(err, consultation.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "document not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	defer content.Close()

	c.Response().Header().Set(echo.HeaderContentDisposition,
		fmt.Sprintf(`attachment; filename=%q`, doc.FileName))
	return c.Stream(http.StatusOK, doc.ContentType, content)
}

// mapUploadError translates validation failures to status codes: size
// problems get 413, everything else about the file gets 400, missing
// consultations get 404.
func mapUploadError(err error) error {
	switch {
	case errors.Is(err, blobstore.ErrFileTooLarge):
		return echo.NewHTTPError(http.StatusRequestEntityTooLarge, err.Error())
	case errors.Is(err, blobstore.ErrInvalidContentType), errors.Is(err, blobstore.ErrMissingFileName):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, consultation.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "consultation not found")
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}
