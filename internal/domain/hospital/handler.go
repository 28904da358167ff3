package hospital

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/afyalink/afyalink-api/internal/platform/auth"
	"github.com/afyalink/afyalink-api/internal/platform/blobstore"
	"github.com/afyalink/afyalink-api/pkg/pagination"
)

// Handler exposes the hospital catalog over HTTP.
type Handler struct {
	svc *Service
}

// NewHandler creates a Handler for the given service.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts the public catalog reads and the managed writes.
// GET routes under /hospitals are exempted from authentication upstream.
func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("/hospitals")
	g.GET("", h.List)
	g.GET("/:id", h.Get)
	g.GET("/slug/:slug", h.GetBySlug)
	g.GET("/:id/image", h.Image)
	g.GET("/:id/specialists", h.ListSpecialists)

	mgmt := auth.RequireSurface(auth.SurfaceHospitalMgmt)
	g.POST("", h.Create, mgmt)
	g.PUT("/:id", h.Update, mgmt)
	g.DELETE("/:id", h.Delete, mgmt)
	g.POST("/:id/image", h.UploadImage, mgmt)
	g.POST("/:id/specialists", h.AddSpecialist, mgmt)
	g.PUT("/specialists/:id", h.UpdateSpecialist, mgmt)
	g.DELETE("/specialists/:id", h.RemoveSpecialist, mgmt)
}

type hospitalRequest struct {
	Slug          string   `json:"slug"`
	Name          string   `json:"name"`
	City          string   `json:"city"`
	Country       string   `json:"country"`
	Description   *string  `json:"description"`
	Specialties   []string `json:"specialties"`
	Accreditation *string  `json:"accreditation"`
	Rating        *float64 `json:"rating"`
}

func (req *hospitalRequest) toInput() HospitalInput {
	return HospitalInput{
		Slug:          req.Slug,
		Name:          req.Name,
		City:          req.City,
		Country:       req.Country,
		Description:   req.Description,
		Specialties:   req.Specialties,
		Accreditation: req.Accreditation,
		Rating:        req.Rating,
	}
}

// List handles GET /hospitals.
func (h *Handler) List(c echo.Context) error {
	params := pagination.FromContext(c)
	hospitals, total, err := h.svc.List(c.Request().Context(), params.Limit, params.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(hospitals, total, params.Limit, params.Offset))
}

// Get handles GET /hospitals/:id.
func (h *Handler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid hospital id")
	}
	hospital, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return mapCatalogError(err)
	}
	return c.JSON(http.StatusOK, hospital)
}

// GetBySlug handles GET /hospitals/slug/:slug.
func (h *Handler) GetBySlug(c echo.Context) error {
	hospital, err := h.svc.GetBySlug(c.Request().Context(), c.Param("slug"))
	if err != nil {
		return mapCatalogError(err)
	}
	return c.JSON(http.StatusOK, hospital)
}

// Create handles POST /hospitals.
func (h *Handler) Create(c echo.Context) error {
	var req hospitalRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	hospital, err := h.svc.Create(c.Request().Context(), req.toInput())
	if err != nil {
		if errors.Is(err, ErrSlugTaken) {
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, hospital)
}

// Update handles PUT /hospitals/:id.
func (h *Handler) Update(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid hospital id")
	}
	var req hospitalRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	hospital, err := h.svc.Update(c.Request().Context(), id, req.toInput())
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "hospital not found")
		}
		if errors.Is(err, ErrSlugTaken) {
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, hospital)
}

// Delete handles DELETE /hospitals/:id.
func (h *Handler) Delete(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid hospital id")
	}
	if err := h.svc.Delete(c.Request().Context(), id); err != nil {
		return mapCatalogError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// UploadImage handles POST /hospitals/:id/image with a multipart "image"
// part. Re-uploading replaces the previous image.
func (h *Handler) UploadImage(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid hospital id")
	}

	fileHeader, err := c.FormFile("image")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "multipart field \"image\" is required")
	}
	src, err := fileHeader.Open()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "could not read uploaded image")
	}
	defer src.Close()

	hospital, err := h.svc.UploadImage(c.Request().Context(), id,
		fileHeader.Header.Get(echo.HeaderContentType), fileHeader.Size, src)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			return echo.NewHTTPError(http.StatusNotFound, "hospital not found")
		case errors.Is(err, blobstore.ErrFileTooLarge):
			return echo.NewHTTPError(http.StatusRequestEntityTooLarge, err.Error())
		case errors.Is(err, blobstore.ErrInvalidContentType):
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
	}
	return c.JSON(http.StatusOK, hospital)
}

// Image handles GET /hospitals/:id/image, streaming the catalog image.
func (h *Handler) Image(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid hospital id")
	}

	content, contentType, err := h.svc.Image(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) || errors.Is(err, blobstore.ErrObjectNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "image not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	defer content.Close()
	return c.Stream(http.StatusOK, contentType, content)
}

type specialistRequest struct {
	Name            string  `json:"name"`
	Specialty       string  `json:"specialty"`
	Title           *string `json:"title"`
	YearsExperience *int    `json:"years_experience"`
	ImagePath       *string `json:"image_path"`
}

func (req *specialistRequest) toInput() SpecialistInput {
	return SpecialistInput{
		Name:            req.Name,
		Specialty:       req.Specialty,
		Title:           req.Title,
		YearsExperience: req.YearsExperience,
		ImagePath:       req.ImagePath,
	}
}

// AddSpecialist handles POST /hospitals/:id/specialists.
func (h *Handler) AddSpecialist(c echo.Context) error {
	hospitalID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid hospital id")
	}
	var req specialistRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	sp, err := h.svc.AddSpecialist(c.Request().Context(), hospitalID, req.toInput())
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "hospital not found")
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, sp)
}

// ListSpecialists handles GET /hospitals/:id/specialists.
func (h *Handler) ListSpecialists(c echo.Context) error {
	hospitalID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid hospital id")
	}
	specialists, err := h.svc.ListSpecialists(c.Request().Context(), hospitalID)
	if err != nil {
		return mapCatalogError(err)
	}
	return c.JSON(http.StatusOK, specialists)
}

// UpdateSpecialist handles PUT /hospitals/specialists/:id.
func (h *Handler) UpdateSpecialist(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid specialist id")
	}
	var req specialistRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	sp, err := h.svc.UpdateSpecialist(c.Request().Context(), id, req.toInput())
	if err != nil {
		if errors.Is(err, ErrSpecialistNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "specialist not found")
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, sp)
}

// RemoveSpecialist handles DELETE /hospitals/specialists/:id.
func (h *Handler) RemoveSpecialist(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid specialist id")
	}
	if err := h.svc.RemoveSpecialist(c.Request().Context(), id); err != nil {
		if errors.Is(err, ErrSpecialistNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "specialist not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

func mapCatalogError(err error) error {
	switch {
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "hospital not found")
	case errors.Is(err, ErrSpecialistNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "specialist not found")
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}
