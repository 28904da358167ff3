package consultation

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/afyalink/afyalink-api/internal/platform/auth"
	"github.com/afyalink/afyalink-api/pkg/pagination"
)

// Handler exposes the consultation HTTP API.
type Handler struct {
	svc *Service
}

// NewHandler creates a Handler for the given service.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts the patient-facing routes for any authenticated user
// and the admin routes behind the consultations surface.
func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("/consultations", auth.RequireAuthenticated())
	g.POST("", h.Create)
	g.GET("", h.ListMine)
	g.GET("/:id", h.GetMine)

	admin := api.Group("/admin/consultations", auth.RequireSurface(auth.SurfaceConsultations))
	admin.GET("", h.AdminList)
	admin.GET("/:id", h.AdminGet)
	admin.PUT("/:id/decision", h.Decide)
	admin.PUT("/:id/notes", h.SetNotes)
}

type createRequest struct {
	HospitalID           string  `json:"hospital_id"`
	SpecialistName       string  `json:"specialist_name"`
	Specialty            string  `json:"specialty"`
	ConditionDescription string  `json:"condition_description"`
	MedicalHistory       *string `json:"medical_history"`
	CurrentMedications   *string `json:"current_medications"`
	PreferredDate        string  `json:"preferred_date"` // "2006-01-02"
	Urgency              string  `json:"urgency"`
}

// Create handles POST /consultations.
func (h *Handler) Create(c echo.Context) error {
	var req createRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	hospitalID, err := uuid.Parse(req.HospitalID)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid hospital_id")
	}

	in := CreateInput{
		HospitalID:           hospitalID,
		SpecialistName:       req.SpecialistName,
		Specialty:            req.Specialty,
		ConditionDescription: req.ConditionDescription,
		MedicalHistory:       req.MedicalHistory,
		CurrentMedications:   req.CurrentMedications,
		Urgency:              req.Urgency,
	}
	if req.PreferredDate != "" {
		d, err := time.Parse("2006-01-02", req.PreferredDate)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid preferred_date, expected YYYY-MM-DD")
		}
		in.PreferredDate = &d
	}

	patientID := auth.UserIDFromContext(c.Request().Context())
	created, err := h.svc.Create(c.Request().Context(), patientID, in)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, created)
}

// ListMine handles GET /consultations.
func (h *Handler) ListMine(c echo.Context) error {
	params := pagination.FromContext(c)
	patientID := auth.UserIDFromContext(c.Request().Context())

	items, total, err := h.svc.ListForPatient(c.Request().Context(), patientID, params.Limit, params.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, params.Limit, params.Offset))
}

// GetMine handles GET /consultations/:id.
func (h *Handler) GetMine(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid consultation id")
	}

	patientID := auth.UserIDFromContext(c.Request().Context())
	item, err := h.svc.GetForPatient(c.Request().Context(), patientID, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "consultation not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, item)
}

// AdminList handles GET /admin/consultations with an optional status filter.
func (h *Handler) AdminList(c echo.Context) error {
	params := pagination.FromContext(c)
	status := c.QueryParam("status")

	items, total, err := h.svc.List(c.Request().Context(), status, params.Limit, params.Offset)
	if err != nil {
		if status != "" && !ValidStatus(status) {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, params.Limit, params.Offset))
}

// AdminGet handles GET /admin/consultations/:id.
func (h *Handler) AdminGet(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid consultation id")
	}

	item, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "consultation not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, item)
}

type decisionRequest struct {
	Status        string `json:"status"`
	ScheduledDate string `json:"scheduled_date"` // "2006-01-02"
	ScheduledTime string `json:"scheduled_time"` // "15:04"
	MeetingLink   string `json:"meeting_link"`
}

// Decide handles PUT /admin/consultations/:id/decision.
func (h *Handler) Decide(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid consultation id")
	}

	var req decisionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	item, err := h.svc.Decide(c.Request().Context(), id, Decision{
		Status:        req.Status,
		ScheduledDate: req.ScheduledDate,
		ScheduledTime: req.ScheduledTime,
		MeetingLink:   req.MeetingLink,
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "consultation not found")
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, item)
}

type notesRequest struct {
	AdminNotes *string `json:"admin_notes"`
}

// SetNotes handles PUT /admin/consultations/:id/notes. A null value clears
// the notes.
func (h *Handler) SetNotes(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid consultation id")
	}

	var req notesRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	item, err := h.svc.SetNotes(c.Request().Context(), id, req.AdminNotes)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "consultation not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, item)
}
